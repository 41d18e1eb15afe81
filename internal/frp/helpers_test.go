package frp

import (
	"context"
	"fmt"
	"sync"

	"frpengine/internal/llmclient"
	"frpengine/internal/types"
)

// recorder is a generation double that remembers every prompt by level.
type recorder struct {
	mu      sync.Mutex
	calls   []types.Level
	prompts map[types.Level]string
	prefs   []types.GenerationPreferences
	fail    map[types.Level]error
	reply   func(level types.Level) string
	block   map[types.Level]bool
}

func newRecorder() *recorder {
	return &recorder{prompts: map[types.Level]string{}, fail: map[types.Level]error{}, block: map[types.Level]bool{}}
}

func (r *recorder) Name() string { return "recorder" }
func (r *recorder) Close() error { return nil }

func (r *recorder) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	level := llmclient.StageFrom(ctx)
	r.mu.Lock()
	r.calls = append(r.calls, level)
	r.prompts[level] = prompt
	r.prefs = append(r.prefs, prefs)
	err := r.fail[level]
	block := r.block[level]
	reply := r.reply
	r.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	if reply != nil {
		return reply(level), nil
	}
	return fmt.Sprintf("<think>scratch %s</think>\nAnalysis for %s. It has two sentences.", level, level), nil
}

func (r *recorder) called() []types.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Level(nil), r.calls...)
}

func (r *recorder) prompt(level types.Level) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompts[level]
}

func legalConfig(levels ...types.Level) types.PipelineConfig {
	return types.PipelineConfig{
		DomainContext:   types.DomainContext{Domain: types.DomainLegal},
		LevelsToExecute: levels,
		OutputFormat:    types.FormatStructured,
	}
}

func levelIDs(outs []types.LevelOutput) []types.Level {
	ids := make([]types.Level, len(outs))
	for i, o := range outs {
		ids[i] = o.Level
	}
	return ids
}
