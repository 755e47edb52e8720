package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// ErrEmptyCompletion is returned when the API answers without any choice.
var ErrEmptyCompletion = errors.New("no choices in response")

// OpenAIClient implements Client for any OpenAI-compatible chat API.
type OpenAIClient struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) OpenAIOption {
	return func(c *OpenAIClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithModel sets the chat model.
func WithModel(model string) OpenAIOption {
	return func(c *OpenAIClient) { c.model = model }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) OpenAIOption {
	return func(c *OpenAIClient) { c.maxTokens = n }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) { c.client = hc }
}

// NewOpenAI creates a client authenticated with apiKey.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   "https://api.openai.com/v1",
		apiKey:    apiKey,
		model:     "gpt-4o-mini",
		maxTokens: 60,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends instruction as the system message and input as the user
// message, at temperature zero.
func (c *OpenAIClient) Complete(ctx context.Context, instruction, input string) (string, error) {
	temperature := 0.0
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: input},
		},
		Temperature: &temperature,
	}
	if c.maxTokens > 0 {
		body.MaxTokens = &c.maxTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return chatResp.Choices[0].Message.Content, nil
}

// --- wire format ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
