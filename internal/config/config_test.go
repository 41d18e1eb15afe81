package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frpengine/internal/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "FRP_ADDR", "PORT", "FRP_LOG_LEVEL", "FRP_PROVIDER", "FRP_MODEL", "GEMINI_API_KEY",
		"FRP_OPENAI_BASE_URL", "FRP_OPENAI_API_KEY", "OPENROUTER_API_KEY", "FRP_STAGE_TIMEOUT",
		"FRP_RETRY_ATTEMPTS", "FRP_RETRY_BASE_DELAY", "LLM_RPS", "LLM_BURST", "FRP_CACHE_ENTRIES",
		"FRP_CACHE_TTL", "FRP_STORE", "FRP_STORE_DIR", "FRP_PG_DSN", "FRP_REDIS_ADDR",
		"FRP_REDIS_PASSWORD", "FRP_REDIS_DB", "FRP_EXPORT_S3_ENDPOINT", "FRP_EXPORT_S3_USE_SSL",
		"FRP_CACHE_DIR", "FRP_DOCS_ROOT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "fake", cfg.LLM.Provider)
	assert.Equal(t, 2*time.Minute, cfg.LLM.StageTimeout)
	assert.Equal(t, 3, cfg.LLM.RetryAttempts)
	assert.Equal(t, 256, cfg.LLM.CacheEntries)
	assert.Empty(t, cfg.LLM.CacheDir)
	assert.Equal(t, ".", cfg.DocsRoot)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.False(t, cfg.Export.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("FRP_STAGE_TIMEOUT", "45s")
	t.Setenv("LLM_RPS", "1.5")
	t.Setenv("FRP_STORE", "Redis")
	t.Setenv("FRP_REDIS_DB", "2")
	t.Setenv("FRP_EXPORT_S3_ENDPOINT", "minio:9000")
	t.Setenv("FRP_EXPORT_S3_USE_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.LLM.StageTimeout)
	assert.Equal(t, 1.5, cfg.LLM.RPS)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.True(t, cfg.Export.Enabled)
	assert.False(t, cfg.Export.UseSSL)
	assert.Equal(t, "frp-analyses", cfg.Export.Bucket)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string][2]string{
		"bad duration": {"FRP_STAGE_TIMEOUT", "soon"},
		"bad int":      {"FRP_RETRY_ATTEMPTS", "many"},
		"zero retries": {"FRP_RETRY_ATTEMPTS", "0"},
		"provider":     {"FRP_PROVIDER", "claude"},
		"store":        {"FRP_STORE", "mongo"},
		"postgres dsn": {"FRP_STORE", "postgres"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadPipelineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	body := `domain_context:
  domain: constitutional
  sub_domain: sovereignty_vs_globalism
  additional_context:
    year: 2019
levels_to_execute: [L1, L2, L3]
output_format: narrative
include_reasoning: true
model_preferences:
  preferred_model: gemini-2.5-flash
  temperature: 0.2
  max_tokens: 800
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadPipelineFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.DomainConstitutional, cfg.DomainContext.Domain)
	assert.Equal(t, 2019, cfg.DomainContext.AdditionalContext["year"])
	assert.Equal(t, []types.Level{types.L1, types.L2, types.L3}, cfg.LevelsToExecute)
	assert.Equal(t, types.FormatNarrative, cfg.OutputFormat)
	assert.True(t, cfg.IncludeReasoning)
	require.NotNil(t, cfg.ModelPreferences.Temperature)
	assert.Equal(t, 0.2, *cfg.ModelPreferences.Temperature)
	assert.Equal(t, 800, cfg.ModelPreferences.MaxTokens)
}

func TestParsePipeline_RejectsUnknownKeys(t *testing.T) {
	_, err := ParsePipeline([]byte("levels: [L1]\n"))
	assert.Error(t, err)
}

func TestLoadPipelineFile_Missing(t *testing.T) {
	_, err := LoadPipelineFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
