package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"frpengine/internal/llmclient"
	"frpengine/internal/types"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, retries, logging, hooks, etc.).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, prompt, prefs)
}

// -------- Retry with exponential backoff --------

// Retry retries GenerateText up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors and canceled contexts stop it
// immediately; a provider Retry-After longer than the backoff wins.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llmclient.LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		text, err := r.next.GenerateText(ctx, prompt, prefs)
		if err == nil {
			return text, nil
		}
		var pErr *llmclient.PermanentError
		if errors.As(err, &pErr) {
			return "", err
		}
		last = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if i == r.max-1 {
			break
		}
		delay := r.base * time.Duration(1<<i)
		var rl *llmclient.RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > delay {
			delay = rl.RetryAfter
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", last
}

// -------- Logging & hooks --------

// WithLogging logs request size and errors tagged by level. A nil logger
// disables output.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	level := string(llmclient.StageFrom(ctx))
	l.log.Debug("llm request",
		zap.String("client", l.next.Name()),
		zap.String("level", level),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Int("approx_tokens", llmclient.CountTokens(prompt)))
	start := time.Now()
	text, err := l.next.GenerateText(ctx, prompt, prefs)
	if err != nil {
		l.log.Warn("llm error",
			zap.String("client", l.next.Name()),
			zap.String("level", level),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}
	l.log.Debug("llm response",
		zap.String("level", level),
		zap.Int("response_bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return text, nil
}

// WithHooks calls HookFrom(ctx).Before/After around GenerateText.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next llmclient.LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	hook := HookFrom(ctx)
	level := llmclient.StageFrom(ctx)
	if hook != nil {
		hook.Before(ctx, level, prompt)
	}
	text, err := h.next.GenerateText(ctx, prompt, prefs)
	if hook != nil {
		hook.After(ctx, level, text, err)
	}
	return text, err
}
