package domain

import "context"

// Retriever fetches passages from the knowledge store, optionally narrowed by
// a metadata filter. A nil filter means no filtering.
type Retriever interface {
	Retrieve(ctx context.Context, query string, filter *MetadataFilter, limit int, mode SearchMode) ([]RetrievedPassage, error)
}

// CompletionOptions tune a single completion call.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// CompletionClient sends a single-turn text prompt to a language model and
// returns the generated text.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	Model() string
}

// VectorEncoder turns text into embedding vectors for semantic retrieval.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// StatusEvent is a fire-and-forget progress notification.
type StatusEvent struct {
	Level   string
	Message string
	Done    bool
}

// StatusSink receives progress notifications. Implementations must never
// block the pipeline or surface errors into it.
type StatusSink interface {
	Emit(ctx context.Context, event StatusEvent)
}
