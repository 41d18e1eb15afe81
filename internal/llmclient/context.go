package llmclient

import (
	"context"

	"frpengine/internal/types"
)

type ctxKeyStage struct{}

// WithStage tags ctx with the level being generated so clients and
// middleware can label their work.
func WithStage(ctx context.Context, level types.Level) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, level)
}

// StageFrom returns the level stored in the context, or "" when untagged.
func StageFrom(ctx context.Context) types.Level {
	if v := ctx.Value(ctxKeyStage{}); v != nil {
		if l, ok := v.(types.Level); ok {
			return l
		}
	}
	return ""
}
