package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"frpengine/internal/cache/disk"
	"frpengine/internal/cache/memory"
	"frpengine/internal/llmclient"
	"frpengine/internal/metrics"
	"frpengine/internal/types"
)

// WithCache memoizes successful generations keyed by client name, preferences
// and the full prompt. Prompt composition is pure, so a replayed level with
// identical inputs hits the cache. Errors are never cached.
func WithCache(maxEntries int, ttl time.Duration, m *metrics.Metrics) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if maxEntries <= 0 {
			return next
		}
		return &cached{
			next:    next,
			entries: memory.NewLRUTTL[string, string](maxEntries, 0, ttl),
			metrics: m,
		}
	}
}

type cached struct {
	next    llmclient.LLMClient
	entries *memory.LRUTTL[string, string]
	metrics *metrics.Metrics
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) Close() error { return c.next.Close() }
func (c *cached) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	key := cacheKey(c.next.Name(), prompt, prefs)
	if text, ok := c.entries.Get(key); ok {
		c.metrics.ObserveCache(true)
		return text, nil
	}
	c.metrics.ObserveCache(false)
	text, err := c.next.GenerateText(ctx, prompt, prefs)
	if err != nil {
		return "", err
	}
	c.entries.Set(key, text, len(text))
	return text, nil
}

// WithDiskCache is WithCache backed by a ResponseStore, so responses survive
// process restarts. Disk read failures count as misses and write failures
// are dropped. A nil store disables the middleware.
func WithDiskCache(store *disk.ResponseStore, m *metrics.Metrics) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if store == nil {
			return next
		}
		return &diskCached{next: next, store: store, metrics: m}
	}
}

type diskCached struct {
	next    llmclient.LLMClient
	store   *disk.ResponseStore
	metrics *metrics.Metrics
}

func (c *diskCached) Name() string { return c.next.Name() }
func (c *diskCached) Close() error { return c.next.Close() }
func (c *diskCached) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	key := cacheKey(c.next.Name(), prompt, prefs)
	if text, ok, err := c.store.Get(ctx, key); err == nil && ok {
		c.metrics.ObserveCache(true)
		return text, nil
	}
	c.metrics.ObserveCache(false)
	text, err := c.next.GenerateText(ctx, prompt, prefs)
	if err != nil {
		return "", err
	}
	_ = c.store.Set(ctx, key, text)
	return text, nil
}

func cacheKey(client, prompt string, prefs types.GenerationPreferences) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(client)
	write(prefs.PreferredModel)
	if prefs.Temperature != nil {
		write(strconv.FormatFloat(*prefs.Temperature, 'g', -1, 64))
	} else {
		write("-")
	}
	write(strconv.Itoa(prefs.MaxTokens))
	write(prompt)
	return hex.EncodeToString(h.Sum(nil))
}

// WithMetrics records the latency and outcome of every call.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if m == nil {
			return next
		}
		return &measured{next: next, metrics: m}
	}
}

type measured struct {
	next    llmclient.LLMClient
	metrics *metrics.Metrics
}

func (c *measured) Name() string { return c.next.Name() }
func (c *measured) Close() error { return c.next.Close() }
func (c *measured) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	start := time.Now()
	text, err := c.next.GenerateText(ctx, prompt, prefs)
	status := "ok"
	if err != nil {
		status = string(llmclient.Classify(err))
	}
	c.metrics.ObserveGeneration(c.next.Name(), status, time.Since(start))
	return text, err
}
