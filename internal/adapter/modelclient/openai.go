package modelclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"kb-connector/internal/domain"
)

// OpenAIClient adapts an OpenAI-compatible chat completion API to the
// CompletionClient contract. Any endpoint speaking the OpenAI wire format
// (including local gateways) can back it via baseURL.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs a client. baseURL may be empty to use the
// default API endpoint.
func NewOpenAIClient(apiKey, baseURL, model string, httpClient *http.Client) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends the prompt as a single user message and returns the first
// choice's text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewBackendError("model", domain.BackendErrGeneric,
			errors.New("completion returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the wrapped model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewBackendError("model", domain.ClassifyHTTPStatus(apiErr.HTTPStatusCode),
			fmt.Errorf("completion request failed: %w", err))
	}
	return domain.NewBackendError("model", domain.BackendErrGeneric,
		fmt.Errorf("completion request failed: %w", err))
}

var _ domain.CompletionClient = (*OpenAIClient)(nil)
