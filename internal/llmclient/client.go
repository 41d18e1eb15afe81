package llmclient

import (
	"context"

	"frpengine/internal/types"
)

// LLMClient is the generation capability consumed by the pipeline: one
// blocking, cancelable call that turns a prompt into text.
type LLMClient interface {
	Name() string
	Close() error
	GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error)
}

// Func adapts a plain function to LLMClient. Handy for tests and one-off callers.
type Func func(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error)

func (f Func) Name() string { return "func" }
func (f Func) Close() error { return nil }
func (f Func) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	return f(ctx, prompt, prefs)
}
