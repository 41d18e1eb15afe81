package frp

import (
	"context"

	"frpengine/internal/types"
)

// EventKind names a stage lifecycle transition.
type EventKind string

const (
	StageStarted   EventKind = "stage_started"
	StageCompleted EventKind = "stage_completed"
	StageFailed    EventKind = "stage_failed"
)

// Event is emitted around every generated level. Resumed levels emit nothing.
type Event struct {
	Kind      EventKind          `json:"kind"`
	Level     types.Level        `json:"level"`
	Title     string             `json:"title"`
	Output    *types.LevelOutput `json:"output,omitempty"`
	Error     string             `json:"error,omitempty"`
	ElapsedMS int64              `json:"elapsed_ms,omitempty"`
}

// Observer receives stage events synchronously from the running pipeline.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type ctxKeyObserver struct{}

// ContextWithObserver attaches a per-run observer in addition to any
// configured with WithObserver.
func ContextWithObserver(ctx context.Context, obs Observer) context.Context {
	return context.WithValue(ctx, ctxKeyObserver{}, obs)
}

func observerFrom(ctx context.Context) Observer {
	if obs, ok := ctx.Value(ctxKeyObserver{}).(Observer); ok {
		return obs
	}
	return nil
}
