package frp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"frpengine/internal/llmclient"
	"frpengine/internal/metrics"
	"frpengine/internal/types"
)

// Pipeline runs the five-level protocol against one generation capability.
// It holds no per-run state, so a single Pipeline serves concurrent runs.
type Pipeline struct {
	client       llmclient.LLMClient
	log          *zap.Logger
	metrics      *metrics.Metrics
	stageTimeout time.Duration
	observer     Observer
	now          func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithStageTimeout bounds each generation call. Zero disables the bound.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.stageTimeout = d }
}

func WithObserver(obs Observer) Option {
	return func(p *Pipeline) { p.observer = obs }
}

// WithClock replaces time.Now for timestamps and elapsed times.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New returns a Pipeline that generates through client.
func New(client llmclient.LLMClient, opts ...Option) *Pipeline {
	p := &Pipeline{client: client, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the generation capability the pipeline calls.
func (p *Pipeline) Client() llmclient.LLMClient { return p.client }

// Run executes cfg.LevelsToExecute in ascending order. resume may supply
// outputs of earlier runs; requested levels are always regenerated, and
// resumed levels below the highest requested one are carried into the result.
//
// Validation and configuration errors return a nil analysis. Dependency and
// generation errors return the analysis built so far alongside the error.
func (p *Pipeline) Run(ctx context.Context, cfg types.PipelineConfig, input, question string, resume map[types.Level]types.LevelOutput) (*types.FRPAnalysis, error) {
	if err := p.validate(cfg, input, question, resume); err != nil {
		p.metrics.ObserveRun(runStatus(err))
		p.log.Warn("frp run rejected", zap.Error(err))
		return nil, err
	}

	start := p.now()
	analysis := &types.FRPAnalysis{
		InputText:     input,
		Question:      question,
		DomainContext: cfg.DomainContext,
		Timestamp:     start.UTC(),
	}
	requested := make(map[types.Level]bool, len(cfg.LevelsToExecute))
	for _, l := range cfg.LevelsToExecute {
		requested[l] = true
	}
	highest := cfg.LevelsToExecute[len(cfg.LevelsToExecute)-1]

	captured := make(map[types.Level]string, len(types.AllLevels))
	var generated []types.LevelOutput
	var runErr error

	for _, level := range types.AllLevels {
		if level.Ordinal() > highest.Ordinal() {
			break
		}
		if !requested[level] {
			if out, ok := resumed(resume, level); ok {
				analysis.Levels = append(analysis.Levels, out)
				captured[level] = out.Content
			}
			continue
		}
		if missing := missingPrior(level, captured); len(missing) > 0 {
			runErr = &DependencyError{Level: level, Missing: missing}
			p.log.Warn("frp stage blocked", zap.String("level", string(level)), zap.Error(runErr))
			break
		}
		out, err := p.runStage(ctx, cfg, level, input, question, captured)
		if err != nil {
			runErr = err
			break
		}
		analysis.Levels = append(analysis.Levels, out)
		generated = append(generated, out)
		captured[level] = out.Content
	}

	analysis.Metadata = &types.AnalysisMetadata{
		TotalReasoningTimeMS: p.now().Sub(start).Milliseconds(),
		ModelUsed:            p.modelUsed(cfg.ModelPreferences),
		QualityScore:         QualityScore(generated),
		LevelsExecuted:       levelsOf(generated),
	}
	p.metrics.ObserveRun(runStatus(runErr))
	if runErr != nil {
		return analysis, runErr
	}
	p.log.Info("frp run complete",
		zap.Int("levels", len(analysis.Levels)),
		zap.Int64("elapsed_ms", analysis.Metadata.TotalReasoningTimeMS))
	return analysis, nil
}

func (p *Pipeline) runStage(ctx context.Context, cfg types.PipelineConfig, level types.Level, input, question string, captured map[types.Level]string) (types.LevelOutput, error) {
	meta, err := Describe(level)
	if err != nil {
		return types.LevelOutput{}, err
	}
	prompt, err := Compose(level, input, question, cfg.DomainContext, captured)
	if err != nil {
		return types.LevelOutput{}, err
	}

	obs := observerFrom(ctx)
	p.emit(obs, Event{Kind: StageStarted, Level: level, Title: meta.Title})
	p.log.Info("frp stage start",
		zap.String("level", string(level)),
		zap.String("title", meta.Title),
		zap.Int("prompt_bytes", len(prompt)))

	started := p.now()
	fail := func(genErr *GenerationError) (types.LevelOutput, error) {
		elapsed := p.now().Sub(started)
		p.metrics.ObserveStage(string(level), string(genErr.Kind), elapsed)
		p.emit(obs, Event{Kind: StageFailed, Level: level, Title: meta.Title, Error: genErr.Error(), ElapsedMS: elapsed.Milliseconds()})
		p.log.Warn("frp stage failed",
			zap.String("level", string(level)),
			zap.String("kind", string(genErr.Kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(genErr.Err))
		return types.LevelOutput{}, genErr
	}

	if err := ctx.Err(); err != nil {
		return fail(&GenerationError{Level: level, Kind: llmclient.Classify(err), Err: err})
	}
	text, err := p.generate(ctx, level, prompt, cfg.ModelPreferences)
	if err != nil {
		return fail(&GenerationError{Level: level, Kind: llmclient.Classify(err), Err: err})
	}
	content, reasoning := SplitScratch(text)
	if content == "" {
		return fail(&GenerationError{
			Level: level,
			Kind:  llmclient.KindMalformed,
			Err:   fmt.Errorf("%w: no analysis text outside scratch", llmclient.ErrMalformedResponse),
		})
	}

	out := types.LevelOutput{
		Level:   level,
		Title:   meta.Title,
		Content: content,
		Metadata: &types.LevelOutputMetadata{
			KeyInsights:    KeyInsights(content),
			PromptLength:   len(prompt),
			ResponseLength: len(text),
		},
	}
	if cfg.IncludeReasoning {
		out.Metadata.ReasoningSteps = reasoning
	}

	elapsed := p.now().Sub(started)
	p.metrics.ObserveStage(string(level), "ok", elapsed)
	p.emit(obs, Event{Kind: StageCompleted, Level: level, Title: meta.Title, Output: &out, ElapsedMS: elapsed.Milliseconds()})
	p.log.Info("frp stage done",
		zap.String("level", string(level)),
		zap.Duration("elapsed", elapsed),
		zap.Int("content_bytes", len(content)))
	return out, nil
}

// generate makes the single generation call for a stage. The stage timeout
// only bounds this call, so earlier captured levels are unaffected.
func (p *Pipeline) generate(ctx context.Context, level types.Level, prompt string, prefs types.GenerationPreferences) (string, error) {
	stageCtx := llmclient.WithStage(ctx, level)
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, p.stageTimeout)
		defer cancel()
	}
	return p.client.GenerateText(stageCtx, prompt, prefs)
}

func (p *Pipeline) emit(runObs Observer, e Event) {
	if p.observer != nil {
		p.observer.Observe(e)
	}
	if runObs != nil {
		runObs.Observe(e)
	}
}

func (p *Pipeline) validate(cfg types.PipelineConfig, input, question string, resume map[types.Level]types.LevelOutput) error {
	if strings.TrimSpace(input) == "" {
		return &ValidationError{Field: "input_text", Reason: "empty"}
	}
	if strings.TrimSpace(question) == "" {
		return &ValidationError{Field: "question", Reason: "empty"}
	}
	if err := ValidateLevels(cfg.LevelsToExecute); err != nil {
		return err
	}
	if !cfg.OutputFormat.Valid() {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown output format %q", cfg.OutputFormat)}
	}
	for key, out := range resume {
		if !key.Valid() {
			return &ConfigurationError{Reason: fmt.Sprintf("resume entry for unknown level %q", key)}
		}
		if out.Level != "" && out.Level != key {
			return &ConfigurationError{Reason: fmt.Sprintf("resume entry %s holds output for %s", key, out.Level)}
		}
	}
	if p.client == nil {
		return &ConfigurationError{Reason: "no generation client"}
	}
	return nil
}

// ValidateLevels checks that levels is a non-empty, strictly ascending list
// of known levels.
func ValidateLevels(levels []types.Level) error {
	if len(levels) == 0 {
		return &ConfigurationError{Reason: "no levels to execute"}
	}
	prev := 0
	for _, l := range levels {
		n := l.Ordinal()
		switch {
		case n == 0:
			return &ConfigurationError{Levels: levels, Reason: fmt.Sprintf("unknown level %q", l)}
		case n == prev:
			return &ConfigurationError{Levels: levels, Reason: fmt.Sprintf("duplicate level %s", l)}
		case n < prev:
			return &ConfigurationError{Levels: levels, Reason: fmt.Sprintf("level %s out of order", l)}
		}
		prev = n
	}
	return nil
}

// resumed returns a copy of the supplied output for level, flagged as
// resumed. Entries with empty content count as absent.
func resumed(resume map[types.Level]types.LevelOutput, level types.Level) (types.LevelOutput, bool) {
	out, ok := resume[level]
	if !ok || strings.TrimSpace(out.Content) == "" {
		return types.LevelOutput{}, false
	}
	out.Level = level
	if out.Title == "" {
		out.Title = registry[level.Ordinal()-1].Title
	}
	meta := types.LevelOutputMetadata{}
	if out.Metadata != nil {
		meta = *out.Metadata
		meta.KeyInsights = append([]string(nil), meta.KeyInsights...)
	}
	meta.Resumed = true
	out.Metadata = &meta
	return out, true
}

func (p *Pipeline) modelUsed(prefs types.GenerationPreferences) string {
	if prefs.PreferredModel != "" {
		return prefs.PreferredModel
	}
	if p.client == nil {
		return ""
	}
	return p.client.Name()
}

func levelsOf(outs []types.LevelOutput) []types.Level {
	if len(outs) == 0 {
		return nil
	}
	levels := make([]types.Level, len(outs))
	for i, out := range outs {
		levels[i] = out.Level
	}
	return levels
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDependency):
		return "dependency"
	default:
		return "generation"
	}
}
