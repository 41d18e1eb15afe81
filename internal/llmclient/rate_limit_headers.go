package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders represents normalized provider rate-limit signals.
type RateLimitHeaders struct {
	RetryAfterSeconds int

	LimitRequests     int
	LimitTokens       int
	RemainingRequests int
	RemainingTokens   int

	ResetRequests time.Duration
	ResetTokens   time.Duration
}

// HeaderRateLimitControlAdapter converts normalized signals to a wait duration.
type HeaderRateLimitControlAdapter struct{}

func (HeaderRateLimitControlAdapter) NextWait(headers RateLimitHeaders) time.Duration {
	if headers.RetryAfterSeconds > 0 {
		return time.Duration(headers.RetryAfterSeconds) * time.Second
	}
	if headers.RemainingTokens == 0 && headers.ResetTokens > 0 {
		return headers.ResetTokens
	}
	if headers.RemainingRequests == 0 && headers.ResetRequests > 0 {
		return headers.ResetRequests
	}
	return 0
}

// ParseRateLimitHeaders reads the x-ratelimit-* family shared by
// OpenAI-compatible providers.
func ParseRateLimitHeaders(h http.Header) (RateLimitHeaders, bool) {
	out := RateLimitHeaders{}
	found := false

	readInt := func(key string, dst *int) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return
		}
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
			found = true
		}
	}
	readDur := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return
		}
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
			found = true
		}
	}

	readInt("retry-after", &out.RetryAfterSeconds)
	readInt("x-ratelimit-limit-requests", &out.LimitRequests)
	readInt("x-ratelimit-limit-tokens", &out.LimitTokens)
	readInt("x-ratelimit-remaining-requests", &out.RemainingRequests)
	readInt("x-ratelimit-remaining-tokens", &out.RemainingTokens)
	readDur("x-ratelimit-reset-requests", &out.ResetRequests)
	readDur("x-ratelimit-reset-tokens", &out.ResetTokens)

	return out, found
}
