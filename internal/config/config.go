package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	Env      string
	LogLevel string
	DocsRoot string // root for document paths named by MCP clients
	LLM      LLMConfig
	Store    StoreConfig
	Export   ExportConfig
}

// LLMConfig selects and tunes the generation provider.
type LLMConfig struct {
	Provider       string // gemini | openai | fake
	Model          string
	GeminiAPIKey   string
	OpenAIBaseURL  string
	OpenAIAPIKey   string
	StageTimeout   time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RPS            float64
	Burst          int
	CacheEntries   int
	CacheTTL       time.Duration
	CacheDir       string // empty disables the on-disk response cache
}

type StoreConfig struct {
	Backend       string // memory | file | postgres | redis
	Dir           string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type ExportConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var (
	providers = []string{"gemini", "openai", "fake"}
	backends  = []string{"memory", "file", "postgres", "redis"}
)

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	r := &reader{}
	env := firstNonEmpty(r.str("APP_ENV"), "local")
	geminiKey := r.str("GEMINI_API_KEY")
	defaultProvider := "fake"
	if geminiKey != "" {
		defaultProvider = "gemini"
	}

	cfg := &Config{
		Addr:     normalizeAddr(firstNonEmpty(r.str("FRP_ADDR"), r.str("PORT"), ":8080")),
		Env:      env,
		LogLevel: firstNonEmpty(r.str("FRP_LOG_LEVEL"), "info"),
		DocsRoot: firstNonEmpty(r.str("FRP_DOCS_ROOT"), "."),
		LLM: LLMConfig{
			Provider:       strings.ToLower(firstNonEmpty(r.str("FRP_PROVIDER"), defaultProvider)),
			Model:          r.str("FRP_MODEL"),
			GeminiAPIKey:   geminiKey,
			OpenAIBaseURL:  r.str("FRP_OPENAI_BASE_URL"),
			OpenAIAPIKey:   firstNonEmpty(r.str("FRP_OPENAI_API_KEY"), r.str("OPENROUTER_API_KEY")),
			StageTimeout:   r.duration("FRP_STAGE_TIMEOUT", 2*time.Minute),
			RetryAttempts:  r.integer("FRP_RETRY_ATTEMPTS", 3),
			RetryBaseDelay: r.duration("FRP_RETRY_BASE_DELAY", 500*time.Millisecond),
			RPS:            r.float("LLM_RPS", 0),
			Burst:          r.integer("LLM_BURST", 1),
			CacheEntries:   r.integer("FRP_CACHE_ENTRIES", 256),
			CacheTTL:       r.duration("FRP_CACHE_TTL", time.Hour),
			CacheDir:       r.str("FRP_CACHE_DIR"),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(firstNonEmpty(r.str("FRP_STORE"), "memory")),
			Dir:           firstNonEmpty(r.str("FRP_STORE_DIR"), "data/analyses"),
			PostgresDSN:   r.str("FRP_PG_DSN"),
			RedisAddr:     firstNonEmpty(r.str("FRP_REDIS_ADDR"), "localhost:6379"),
			RedisPassword: r.str("FRP_REDIS_PASSWORD"),
			RedisDB:       r.integer("FRP_REDIS_DB", 0),
		},
		Export: loadExportConfig(r),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadExportConfig(r *reader) ExportConfig {
	endpoint := r.str("FRP_EXPORT_S3_ENDPOINT")
	return ExportConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(r.str("FRP_EXPORT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(r.str("FRP_EXPORT_S3_ACCESS_KEY"), r.str("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(r.str("FRP_EXPORT_S3_SECRET_KEY"), r.str("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(r.str("FRP_EXPORT_S3_BUCKET"), "frp-analyses"),
		UseSSL:    r.boolean("FRP_EXPORT_S3_USE_SSL", true),
	}
}

func (c *Config) validate() error {
	if !oneOf(c.LLM.Provider, providers) {
		return fmt.Errorf("config: FRP_PROVIDER %q must be one of %s", c.LLM.Provider, strings.Join(providers, ", "))
	}
	if !oneOf(c.Store.Backend, backends) {
		return fmt.Errorf("config: FRP_STORE %q must be one of %s", c.Store.Backend, strings.Join(backends, ", "))
	}
	if c.Store.Backend == "postgres" && c.Store.PostgresDSN == "" {
		return fmt.Errorf("config: FRP_PG_DSN is required for the postgres store")
	}
	if c.LLM.RetryAttempts < 1 {
		return fmt.Errorf("config: FRP_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// reader collects the first parse error so Load can report it once.
type reader struct {
	err error
}

func (r *reader) str(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (r *reader) fail(key, raw string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("config: %s=%q: %w", key, raw, err)
	}
}

func (r *reader) integer(key string, def int) int {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) float(key string, def float64) float64 {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) boolean(key string, def bool) bool {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func normalizeAddr(addr string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return ":" + addr
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
