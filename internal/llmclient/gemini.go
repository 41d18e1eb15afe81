package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"frpengine/internal/types"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, logging, hooks) are applied via middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	// An empty key lets genai fall back to GEMINI_API_KEY / GOOGLE_API_KEY.
	if key := strings.TrimSpace(apiKey); key != "" {
		cfg.APIKey = key
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateText sends the prompt as a single user turn. A preferred model in
// prefs overrides the client's default model for this call.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	model := g.model
	if m := strings.TrimSpace(prefs.PreferredModel); m != "" {
		model = m
	}
	cfg := &genai.GenerateContentConfig{}
	if prefs.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*prefs.Temperature))
	}
	if prefs.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(prefs.MaxTokens)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrMalformedResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrMalformedResponse
	}
	return b.String(), nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &RateLimitError{Err: err}
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return NewPermanentError(err)
	}
	return err
}
