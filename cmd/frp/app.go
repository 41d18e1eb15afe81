package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"frpengine/internal/cache/disk"
	"frpengine/internal/config"
	"frpengine/internal/frp"
	"frpengine/internal/llm"
	"frpengine/internal/llmclient"
	"frpengine/internal/logging"
	"frpengine/internal/metrics"
	"frpengine/internal/store"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	client   llmclient.LLMClient
	pipeline *frp.Pipeline
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	log, err := logging.New(cfg.LogLevel, cfg.Env == "local")
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client, err := newClient(ctx, cfg.LLM, log, m)
	if err != nil {
		return nil, err
	}
	p := frp.New(client,
		frp.WithLogger(log),
		frp.WithMetrics(m),
		frp.WithStageTimeout(cfg.LLM.StageTimeout),
	)
	return &app{cfg: cfg, log: log, registry: reg, metrics: m, client: client, pipeline: p}, nil
}

func (a *app) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	_ = a.log.Sync()
}

func baseClient(ctx context.Context, cfg config.LLMConfig) (llmclient.LLMClient, error) {
	switch cfg.Provider {
	case "gemini":
		return llmclient.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
	case "openai":
		return llmclient.NewChatClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model), nil
	case "fake":
		return llmclient.NewFakeClient(), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// newClient wraps the provider client. The cache sits outermost so a hit
// skips rate limiting and retries.
func newClient(ctx context.Context, cfg config.LLMConfig, log *zap.Logger, m *metrics.Metrics) (llmclient.LLMClient, error) {
	inner, err := baseClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("generation client ready", zap.String("client", inner.Name()))
	var responses *disk.ResponseStore
	if cfg.CacheDir != "" {
		if responses, err = disk.Open(disk.Config{Dir: cfg.CacheDir, MaxEntries: cfg.CacheEntries, TTL: cfg.CacheTTL}); err != nil {
			return nil, err
		}
	}
	return llm.Wrap(inner,
		llm.WithCache(cfg.CacheEntries, cfg.CacheTTL, m),
		llm.WithDiskCache(responses, m),
		llm.WithHooks(),
		llm.WithMetrics(m),
		llm.Retry(cfg.RetryAttempts, cfg.RetryBaseDelay),
		llm.RateLimit(cfg.RPS, cfg.Burst),
		llm.WithLogging(log),
	), nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	st, err := openBackend(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	if a.cfg.Store.Backend != "memory" {
		if st, err = store.NewCachedStore(st, 128); err != nil {
			return nil, err
		}
	}
	if a.cfg.Export.Enabled {
		exp, err := store.NewS3Exporter(store.S3Config{
			Endpoint:  a.cfg.Export.Endpoint,
			Region:    a.cfg.Export.Region,
			AccessKey: a.cfg.Export.AccessKey,
			SecretKey: a.cfg.Export.SecretKey,
			Bucket:    a.cfg.Export.Bucket,
			UseSSL:    a.cfg.Export.UseSSL,
		})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		st = store.NewExportingStore(st, exp)
		a.log.Info("exporting analyses", zap.String("bucket", a.cfg.Export.Bucket))
	}
	a.log.Info("analysis store ready", zap.String("backend", a.cfg.Store.Backend))
	return st, nil
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.Dir)
	case "postgres":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return store.OpenPostgres(ctx, cfg.PostgresDSN)
	case "redis":
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
