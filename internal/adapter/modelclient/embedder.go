package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kb-connector/internal/domain"
)

// Embedder calls an Ollama-compatible /api/embed endpoint to produce
// embedding vectors for queries.
type Embedder struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewEmbedder constructs an embedder for the given endpoint and model.
func NewEmbedder(baseURL, model string, client *http.Client) *Embedder {
	return &Embedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  client,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Encode embeds the given texts in one call, preserving order.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	reqBody := embedRequest{Model: e.Model, Input: texts}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewBackendError("knowledge base", domain.BackendErrGeneric,
			fmt.Errorf("failed to call embed endpoint: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewBackendError("knowledge base", domain.ClassifyHTTPStatus(resp.StatusCode),
			fmt.Errorf("embed endpoint returned %d: %s", resp.StatusCode, string(body)))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed endpoint returned %d vectors for %d inputs",
			len(embedResp.Embeddings), len(texts))
	}

	slog.Debug("embedding_completed",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.Model),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return embedResp.Embeddings, nil
}

var _ domain.VectorEncoder = (*Embedder)(nil)
