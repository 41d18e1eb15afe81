package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"frpengine/internal/types"
)

// DefaultChatBaseURL is the OpenRouter chat completions endpoint.
const DefaultChatBaseURL = "https://openrouter.ai/api/v1/chat/completions"

// ChatClient calls an OpenAI-compatible Chat Completions API (Groq, OpenRouter, ...).
type ChatClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

func NewChatClient(baseURL, apiKey, model string) *ChatClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultChatBaseURL
	}
	return &ChatClient{
		http:    &http.Client{Timeout: 120 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}
}

func (c *ChatClient) Name() string { return "Chat:" + c.model }
func (c *ChatClient) Close() error { return nil }

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText sends the prompt as a single user message.
func (c *ChatClient) GenerateText(ctx context.Context, prompt string, prefs types.GenerationPreferences) (string, error) {
	model := c.model
	if m := strings.TrimSpace(prefs.PreferredModel); m != "" {
		model = m
	}
	body, err := json.Marshal(chatReq{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: prefs.Temperature,
		MaxTokens:   prefs.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("chat: unexpected status %s: %s", resp.Status, string(raw))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			headers, _ := ParseRateLimitHeaders(resp.Header)
			return "", &RateLimitError{RetryAfter: HeaderRateLimitControlAdapter{}.NextWait(headers), Err: err}
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return "", NewPermanentError(err)
		}
		return "", err
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrMalformedResponse
	}
	return out.Choices[0].Message.Content, nil
}
