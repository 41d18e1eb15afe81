package frp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frpengine/internal/llmclient"
	"frpengine/internal/metrics"
	"frpengine/internal/types"
)

func TestRun_ThreeLevelsInOrder(t *testing.T) {
	rec := newRecorder()
	p := New(rec)

	a, err := p.Run(context.Background(), legalConfig(types.L1, types.L2, types.L3), clause, question, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Level{types.L1, types.L2, types.L3}, levelIDs(a.Levels))
	assert.Equal(t, []types.Level{types.L1, types.L2, types.L3}, rec.called())
	assert.Equal(t, []types.Level{types.L1, types.L2, types.L3}, a.Metadata.LevelsExecuted)
	assert.Equal(t, "recorder", a.Metadata.ModelUsed)
	require.NotNil(t, a.Metadata.QualityScore)

	// Each prompt embeds the strictly earlier captured contents.
	assert.Contains(t, rec.prompt(types.L2), a.Levels[0].Content)
	assert.Contains(t, rec.prompt(types.L3), a.Levels[0].Content)
	assert.Contains(t, rec.prompt(types.L3), a.Levels[1].Content)
}

func TestRun_LegalClauseScenario(t *testing.T) {
	rec := newRecorder()
	a, err := New(rec).Run(context.Background(), legalConfig(types.L1), clause, question, nil)
	require.NoError(t, err)

	require.Len(t, a.Levels, 1)
	assert.Equal(t, types.L1, a.Levels[0].Level)
	assert.NotEmpty(t, a.Levels[0].Content)
	assert.Equal(t, "Macro View (Strategic Panorama)", a.Levels[0].Title)
	assert.Equal(t, clause, a.InputText)
	assert.Equal(t, question, a.Question)

	prompt := rec.prompt(types.L1)
	assert.Contains(t, prompt, "legal")
	assert.Contains(t, prompt, clause)
}

func TestRun_GapWithoutResumeIsDependencyError(t *testing.T) {
	rec := newRecorder()
	a, err := New(rec).Run(context.Background(), legalConfig(types.L1, types.L3), clause, question, nil)

	require.ErrorIs(t, err, ErrDependency)
	var dErr *DependencyError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, types.L3, dErr.Level)
	assert.Equal(t, []types.Level{types.L2}, dErr.Missing)

	assert.Equal(t, []types.Level{types.L1}, rec.called(), "no generation call for L3")
	require.NotNil(t, a)
	assert.Equal(t, []types.Level{types.L1}, levelIDs(a.Levels))
}

func TestRun_GenerationFailureStopsAdvancing(t *testing.T) {
	rec := newRecorder()
	rec.fail[types.L3] = &llmclient.RateLimitError{Err: errors.New("429")}
	a, err := New(rec).Run(context.Background(), legalConfig(types.AllLevels...), clause, question, nil)

	require.ErrorIs(t, err, ErrGeneration)
	var gErr *GenerationError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, types.L3, gErr.Level)
	assert.Equal(t, llmclient.KindRateLimited, gErr.Kind)

	require.NotNil(t, a)
	assert.Equal(t, []types.Level{types.L1, types.L2}, levelIDs(a.Levels))
	assert.Equal(t, []types.Level{types.L1, types.L2, types.L3}, rec.called(), "L4 and L5 never attempted")
}

func TestRun_ResumeIntoL4(t *testing.T) {
	resume := map[types.Level]types.LevelOutput{
		types.L1: {Level: types.L1, Title: "Macro", Content: "Supplied macro view."},
		types.L2: {Content: "Supplied structure."},
		types.L3: {Level: types.L3, Content: "Supplied interactions."},
	}
	rec := newRecorder()
	a, err := New(rec).Run(context.Background(), legalConfig(types.L4), clause, question, resume)
	require.NoError(t, err)

	assert.Equal(t, []types.Level{types.L4}, rec.called())
	prompt := rec.prompt(types.L4)
	for _, out := range resume {
		assert.Contains(t, prompt, out.Content)
	}

	l4, ok := a.Level(types.L4)
	require.True(t, ok)
	assert.False(t, l4.Metadata.Resumed)
	assert.Equal(t, []types.Level{types.L4}, a.Metadata.LevelsExecuted)

	assert.Equal(t, []types.Level{types.L1, types.L2, types.L3, types.L4}, levelIDs(a.Levels))
	for _, out := range a.Levels[:3] {
		require.NotNil(t, out.Metadata)
		assert.True(t, out.Metadata.Resumed, out.Level)
	}
	assert.Equal(t, "Inner Structure (System Architecture)", a.Levels[1].Title)
	assert.Nil(t, resume[types.L1].Metadata, "caller's resume map is not modified")
}

func TestRun_ResumeRequestedLevelIsRegenerated(t *testing.T) {
	resume := map[types.Level]types.LevelOutput{
		types.L1: {Content: "Stale macro."},
		types.L5: {Content: "Above the highest requested level."},
	}
	rec := newRecorder()
	a, err := New(rec).Run(context.Background(), legalConfig(types.L1, types.L2), clause, question, resume)
	require.NoError(t, err)

	assert.Equal(t, []types.Level{types.L1, types.L2}, rec.called())
	assert.Equal(t, []types.Level{types.L1, types.L2}, levelIDs(a.Levels))
	assert.NotContains(t, rec.prompt(types.L2), "Stale macro.")
}

func TestRun_EmptyResumedContentIsUnavailable(t *testing.T) {
	resume := map[types.Level]types.LevelOutput{types.L1: {Content: "   "}}
	rec := newRecorder()
	a, err := New(rec).Run(context.Background(), legalConfig(types.L2), clause, question, resume)
	require.ErrorIs(t, err, ErrDependency)
	assert.Empty(t, rec.called())
	assert.Empty(t, a.Levels)
}

func TestRun_RejectsBeforeAnyGeneration(t *testing.T) {
	cases := []struct {
		name     string
		cfg      types.PipelineConfig
		input    string
		question string
		resume   map[types.Level]types.LevelOutput
		want     error
	}{
		{"empty input", legalConfig(types.L1), " ", question, nil, ErrValidation},
		{"empty question", legalConfig(types.L1), clause, "", nil, ErrValidation},
		{"no levels", legalConfig(), clause, question, nil, ErrConfiguration},
		{"unordered", legalConfig(types.L2, types.L1), clause, question, nil, ErrConfiguration},
		{"duplicate", legalConfig(types.L1, types.L1), clause, question, nil, ErrConfiguration},
		{"unknown level", legalConfig(types.L1, "L7"), clause, question, nil, ErrConfiguration},
		{"bad format", types.PipelineConfig{LevelsToExecute: []types.Level{types.L1}, OutputFormat: "xml"}, clause, question, nil, ErrConfiguration},
		{"bad resume key", legalConfig(types.L2), clause, question, map[types.Level]types.LevelOutput{"LX": {Content: "x"}}, ErrConfiguration},
		{"mismatched resume", legalConfig(types.L2), clause, question, map[types.Level]types.LevelOutput{types.L1: {Level: types.L3, Content: "x"}}, ErrConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newRecorder()
			a, err := New(rec).Run(context.Background(), tc.cfg, tc.input, tc.question, tc.resume)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, a)
			assert.Empty(t, rec.called())
		})
	}
}

func TestRun_UnknownDomainDegrades(t *testing.T) {
	rec := newRecorder()
	cfg := legalConfig(types.L1, types.L2)
	cfg.DomainContext.Domain = "maritime"
	_, err := New(rec).Run(context.Background(), cfg, clause, question, nil)
	require.NoError(t, err)
	assert.Contains(t, rec.prompt(types.L2), defaultGuidance[types.L2])
}

func TestRun_StageTimeoutKeepsCapturedLevels(t *testing.T) {
	rec := newRecorder()
	rec.block[types.L2] = true
	p := New(rec, WithStageTimeout(20*time.Millisecond))

	a, err := p.Run(context.Background(), legalConfig(types.L1, types.L2, types.L3), clause, question, nil)
	var gErr *GenerationError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, types.L2, gErr.Level)
	assert.Equal(t, llmclient.KindTimeout, gErr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []types.Level{types.L1}, levelIDs(a.Levels))
	assert.Equal(t, []types.Level{types.L1, types.L2}, rec.called())
}

func TestRun_CancellationAbortsInFlightStage(t *testing.T) {
	rec := newRecorder()
	rec.block[types.L2] = true
	ctx, cancel := context.WithCancel(context.Background())
	obs := ObserverFunc(func(e Event) {
		if e.Kind == StageStarted && e.Level == types.L2 {
			go cancel()
		}
	})
	a, err := New(rec, WithObserver(obs)).Run(ctx, legalConfig(types.AllLevels...), clause, question, nil)

	var gErr *GenerationError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, llmclient.KindCanceled, gErr.Kind)
	assert.Equal(t, []types.Level{types.L1}, levelIDs(a.Levels))
}

func TestRun_CanceledBeforeStageMakesNoCall(t *testing.T) {
	rec := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a, err := New(rec).Run(ctx, legalConfig(types.L1), clause, question, nil)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Empty(t, rec.called())
	assert.Empty(t, a.Levels)
}

func TestRun_ScratchStrippedAndOptionallyKept(t *testing.T) {
	rec := newRecorder()
	rec.reply = func(level types.Level) string {
		return "<think>private notes</think>\nFinal text one. Final text two.\n- insight a\n- insight b"
	}

	a, err := New(rec).Run(context.Background(), legalConfig(types.L1), clause, question, nil)
	require.NoError(t, err)
	out := a.Levels[0]
	assert.NotContains(t, out.Content, "private notes")
	assert.NotContains(t, out.Content, ScratchOpen)
	assert.Empty(t, out.Metadata.ReasoningSteps)
	assert.Equal(t, []string{"insight a", "insight b"}, out.Metadata.KeyInsights)
	assert.Equal(t, len(rec.prompt(types.L1)), out.Metadata.PromptLength)

	cfg := legalConfig(types.L1)
	cfg.IncludeReasoning = true
	a, err = New(rec).Run(context.Background(), cfg, clause, question, nil)
	require.NoError(t, err)
	assert.Equal(t, "private notes", a.Levels[0].Metadata.ReasoningSteps)
}

func TestRun_ScratchOnlyIsMalformed(t *testing.T) {
	rec := newRecorder()
	rec.reply = func(types.Level) string { return "<think>all thinking, no answer</think>" }
	a, err := New(rec).Run(context.Background(), legalConfig(types.L1, types.L2), clause, question, nil)

	var gErr *GenerationError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, llmclient.KindMalformed, gErr.Kind)
	assert.ErrorIs(t, err, llmclient.ErrMalformedResponse)
	assert.Empty(t, a.Levels)
}

func TestRun_ForwardsPreferences(t *testing.T) {
	rec := newRecorder()
	temp := 0.3
	cfg := legalConfig(types.L1, types.L2)
	cfg.ModelPreferences = types.GenerationPreferences{PreferredModel: "m-1", Temperature: &temp, MaxTokens: 512}

	a, err := New(rec).Run(context.Background(), cfg, clause, question, nil)
	require.NoError(t, err)
	assert.Equal(t, "m-1", a.Metadata.ModelUsed)
	for _, got := range rec.prefs {
		if diff := cmp.Diff(cfg.ModelPreferences, got); diff != "" {
			t.Fatalf("preferences changed (-want +got):\n%s", diff)
		}
	}
}

func TestRun_ClockAndMetadata(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * 100 * time.Millisecond)
	}
	a, err := New(llmclient.NewFakeClient(), WithClock(clock)).Run(context.Background(), DefaultConfig(types.DomainRisk), clause, question, nil)
	require.NoError(t, err)

	assert.Equal(t, base.Add(100*time.Millisecond), a.Timestamp)
	assert.Positive(t, a.Metadata.TotalReasoningTimeMS)
	assert.Equal(t, "FakeLLM", a.Metadata.ModelUsed)
	require.NotNil(t, a.Metadata.QualityScore)
	assert.Equal(t, 1.0, *a.Metadata.QualityScore)
	assert.Len(t, a.Levels, 5)
}

func TestRun_ObserverEvents(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	collect := ObserverFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	rec := newRecorder()
	rec.fail[types.L2] = errors.New("upstream down")
	ctx := ContextWithObserver(context.Background(), collect)

	_, err := New(rec).Run(ctx, legalConfig(types.L1, types.L2), clause, question, nil)
	require.Error(t, err)

	var kinds []string
	for _, e := range events {
		kinds = append(kinds, string(e.Kind)+":"+string(e.Level))
	}
	assert.Equal(t, []string{
		"stage_started:L1", "stage_completed:L1",
		"stage_started:L2", "stage_failed:L2",
	}, kinds)
	require.NotNil(t, events[1].Output)
	assert.True(t, strings.Contains(events[3].Error, "upstream down"))
}

func TestRun_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rec := newRecorder()
	rec.fail[types.L2] = errors.New("down")
	p := New(rec, WithMetrics(m))

	_, err := p.Run(context.Background(), legalConfig(types.L1, types.L2), clause, question, nil)
	require.Error(t, err)
	_, err = p.Run(context.Background(), legalConfig(types.L1), clause, "", nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StagesTotal.WithLabelValues("L1", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StagesTotal.WithLabelValues("L2", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("generation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("validation")))
}

func TestRun_ConcurrentRunsShareNothing(t *testing.T) {
	p := New(llmclient.NewFakeClient())
	var wg sync.WaitGroup
	results := make([]*types.FRPAnalysis, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := p.Run(context.Background(), DefaultConfig(types.DomainAudit), clause, question, nil)
			assert.NoError(t, err)
			results[i] = a
		}()
	}
	wg.Wait()
	for _, a := range results[1:] {
		require.NotNil(t, a)
		assert.Equal(t, levelIDs(results[0].Levels), levelIDs(a.Levels))
		assert.Equal(t, results[0].Levels[4].Content, a.Levels[4].Content)
	}
}

func TestRun_NilClient(t *testing.T) {
	_, err := New(nil).Run(context.Background(), legalConfig(types.L1), clause, question, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
