package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vestra-data/signalgate/pkg/config"
	"github.com/vestra-data/signalgate/pkg/models"
)

// OpenRouterTransport dispatches chat completions to an OpenRouter-compatible
// endpoint and classifies the result. It never retries; retry decisions
// belong to the orchestrator.
type OpenRouterTransport struct {
	baseURL string
	apiKey  string
	referer string
	title   string
	client  *http.Client
}

// NewOpenRouterTransport builds a transport from gateway configuration.
func NewOpenRouterTransport(cfg config.GatewayConfig) *OpenRouterTransport {
	return &OpenRouterTransport{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		referer: cfg.Referer,
		title:   cfg.Title,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Available reports whether an API key is configured. Without one, every
// model in the family is treated as permanently rejected with no attempt.
func (t *OpenRouterTransport) Available(provider string) bool {
	return t.apiKey != ""
}

type completionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
}

// Complete sends one chat completion request and classifies the response:
// 200 is a success, 429 a rate limit, any other status a rejection, and a
// request error (DNS, timeout, connection reset) a transient failure.
func (t *OpenRouterTransport) Complete(ctx context.Context, provider string, payload []models.ChatMessage, temperature float64) Outcome {
	body, err := json.Marshal(completionRequest{
		Model:       provider,
		Messages:    payload,
		Temperature: temperature,
	})
	if err != nil {
		return Rejected(http.StatusBadRequest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Rejected(http.StatusBadRequest)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Transient(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transient(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var completion models.ChatCompletionResponse
		if err := json.Unmarshal(respBody, &completion); err != nil || len(completion.Choices) == 0 {
			return Rejected(http.StatusBadGateway)
		}
		return Success(completion.Choices[0].Message.Content)
	case resp.StatusCode == http.StatusTooManyRequests:
		return RateLimited()
	default:
		return Rejected(resp.StatusCode)
	}
}
