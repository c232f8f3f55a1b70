package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"kb-connector/internal/domain"
	"kb-connector/internal/parsers"
)

const citationPreviewLength = 50

const citationPromptTemplate = `Given a generated answer and the source chunks it was based on, identify which chunks support which parts of the answer.

Answer:
%s

Source chunks:
%s

Return ONLY valid JSON with no additional text, in this format:
{
    "citations": [
        {
            "answer_text": "a verbatim substring of the answer",
            "chunk_ids": [1]
        }
    ]
}

Rules:
- "answer_text" must be copied verbatim from the answer above.
- "chunk_ids" are the 1-based numbers of the chunks that support that text; list every supporting chunk.
- Only include spans that are clearly supported by a chunk.

Citations (JSON only):`

// CitationAttributor maps spans of a generated answer back to the passages
// that support them and renders inline markers plus a numbered citation list.
// Attribution is best-effort: on any failure the original answer is returned
// untouched.
type CitationAttributor struct {
	llm     domain.CompletionClient
	enabled bool
	logger  *slog.Logger
}

// NewCitationAttributor creates an attributor. When enabled is false,
// Attribute is the identity function on answers.
func NewCitationAttributor(llm domain.CompletionClient, enabled bool, logger *slog.Logger) *CitationAttributor {
	return &CitationAttributor{llm: llm, enabled: enabled, logger: logger}
}

type citationSpan struct {
	AnswerText string `json:"answer_text"`
	ChunkIDs   []int  `json:"chunk_ids"`
}

type citationResponse struct {
	Citations []citationSpan `json:"citations"`
}

// Attribute returns answer annotated with inline [n] markers and a trailing
// Citations section, or answer unchanged when citations are disabled, no
// passages exist, or attribution fails.
func (c *CitationAttributor) Attribute(ctx context.Context, answer string, passages []domain.RetrievedPassage) string {
	if !c.enabled || len(passages) == 0 {
		return answer
	}

	var chunksSb strings.Builder
	for i, passage := range passages {
		fmt.Fprintf(&chunksSb, "Chunk %d:\n%s\n\n", i+1, passage.Text)
	}
	prompt := fmt.Sprintf(citationPromptTemplate, answer, chunksSb.String())

	raw, err := c.llm.Complete(ctx, prompt, domain.CompletionOptions{
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		c.logger.Warn("citation_attribution_failed", slog.String("error", err.Error()))
		return answer
	}

	var resp citationResponse
	if err := json.Unmarshal([]byte(parsers.StripCodeFence(raw)), &resp); err != nil {
		c.logger.Warn("citation_attribution_unparseable", slog.String("error", err.Error()))
		return answer
	}
	if len(resp.Citations) == 0 {
		return answer
	}

	cited := answer
	referenced := make(map[int]struct{})
	for _, span := range resp.Citations {
		var markers strings.Builder
		for _, id := range span.ChunkIDs {
			if id < 1 || id > len(passages) {
				continue
			}
			referenced[id] = struct{}{}
			fmt.Fprintf(&markers, " [%d]", id)
		}
		if span.AnswerText == "" || markers.Len() == 0 {
			continue
		}
		cited = strings.Replace(cited, span.AnswerText, span.AnswerText+markers.String(), 1)
	}
	if len(referenced) == 0 {
		return answer
	}

	ids := make([]int, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var sb strings.Builder
	sb.WriteString(cited)
	sb.WriteString("\n\nCitations:\n")
	for _, id := range ids {
		passage := passages[id-1]
		source := passage.SourceURI
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&sb, "%d. \"%s\" [%s](%s)\n", id, previewText(passage.Text), source, source)
	}
	return sb.String()
}

// previewText truncates text to the first citationPreviewLength characters,
// appending an ellipsis marker when truncated.
func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= citationPreviewLength {
		return text
	}
	return string(runes[:citationPreviewLength]) + "..."
}
