// Package modelclient provides CompletionClient and VectorEncoder
// implementations over HTTP model-serving endpoints.
package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kb-connector/internal/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string                 `json:"model"`
	Messages  []chatMessage          `json:"messages"`
	Stream    bool                   `json:"stream"`
	KeepAlive int                    `json:"keep_alive"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// OllamaClient sends single-turn prompts to an Ollama-compatible chat
// endpoint and returns the assistant message text.
type OllamaClient struct {
	BaseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient constructs a client for the given endpoint and model name.
func NewOllamaClient(baseURL, model string, client *http.Client) *OllamaClient {
	return &OllamaClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

// Complete sends the prompt and returns the generated text.
func (c *OllamaClient) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	reqBody := chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		Stream:    false,
		KeepAlive: -1,
		Options:   map[string]interface{}{},
	}
	if opts.Temperature > 0 {
		reqBody.Options["temperature"] = opts.Temperature
	}
	if opts.TopP > 0 {
		reqBody.Options["top_p"] = opts.TopP
	}
	if opts.MaxTokens > 0 {
		reqBody.Options["num_predict"] = opts.MaxTokens
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", domain.NewBackendError("model", domain.BackendErrGeneric,
			fmt.Errorf("failed to call generation endpoint: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", domain.NewBackendError("model", domain.ClassifyHTTPStatus(resp.StatusCode),
			fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	return strings.TrimSpace(chatResp.Message.Content), nil
}

// Model returns the wrapped model name.
func (c *OllamaClient) Model() string {
	return c.model
}

var _ domain.CompletionClient = (*OllamaClient)(nil)
