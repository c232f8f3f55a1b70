package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"kb-connector/internal/domain"
	"kb-connector/internal/parsers"
)

const nameExtractionPrompt = `Extract any person names from the following user query.

User query: %s

Return ONLY valid JSON with no additional text: an array of objects with an
"original" field holding the name exactly as it appears in the query,
including any titles. If no person names are found, return an empty array.

Example format:
[
    {"original": "Dr. John Smith"},
    {"original": "Mary Jane Watson"}
]

Extracted person names (JSON only):`

// EntityNameResolver finds person names mentioned in a query and normalizes
// each into title-free, independently matchable elements. Like datetime
// resolution this is best-effort and never fails the pipeline.
type EntityNameResolver struct {
	llm    domain.CompletionClient
	logger *slog.Logger
}

// NewEntityNameResolver creates a resolver backed by the given model client.
func NewEntityNameResolver(llm domain.CompletionClient, logger *slog.Logger) *EntityNameResolver {
	return &EntityNameResolver{llm: llm, logger: logger}
}

type extractedNameRef struct {
	Original string `json:"original"`
}

// Resolve returns the name references found in query, each with its parsed
// elements. Names that reduce to zero elements (titles only) are dropped.
func (r *EntityNameResolver) Resolve(ctx context.Context, query string) []domain.NameReference {
	prompt := fmt.Sprintf(nameExtractionPrompt, query)

	raw, err := r.llm.Complete(ctx, prompt, domain.CompletionOptions{
		MaxTokens:   512,
		Temperature: 0.1,
	})
	if err != nil {
		r.logger.Warn("name_extraction_failed", slog.String("error", err.Error()))
		return nil
	}

	var refs []extractedNameRef
	if err := json.Unmarshal([]byte(parsers.StripCodeFence(raw)), &refs); err != nil {
		r.logger.Warn("name_extraction_unparseable", slog.String("error", err.Error()))
		return nil
	}

	names := make([]domain.NameReference, 0, len(refs))
	for _, ref := range refs {
		elements := domain.ParseNameElements(ref.Original)
		if len(elements) == 0 {
			continue
		}
		names = append(names, domain.NameReference{Original: ref.Original, Elements: elements})
	}
	return names
}
