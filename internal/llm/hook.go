package llm

import (
	"context"

	"frpengine/internal/types"
)

// PromptHook observes every generation call passing through WithHooks.
type PromptHook interface {
	Before(ctx context.Context, level types.Level, prompt string)
	After(ctx context.Context, level types.Level, text string, err error)
}

type ctxKeyHook struct{}

// ContextWithHook attaches a hook for the lifetime of ctx. It takes effect
// only on clients wrapped with WithHooks.
func ContextWithHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}
