package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"kb-connector/internal/domain"
	"kb-connector/internal/parsers"
)

const datetimeExtractionPrompt = `Extract any date or time references from the following user query and convert them to a structured format.

User query: %s

If the query contains date or time references, extract them and provide:
1. The original date/time expression as it appears in the query
2. The parsed date/time RANGE covering the full period at the granularity of the expression, formatted as "from <ISO 8601> to <ISO 8601>"

Granularity rules:
- Year only (e.g. "2025"): from January 1st 00:00:00 to December 31st 23:59:59 of that year
- Month only (e.g. "August 2025"): from the 1st 00:00:00 to the last day 23:59:59 of that month
- Day only (e.g. "September 4th, 2025"): from 00:00:00 to 23:59:59 of that day
- Hour/minute/second specified: the corresponding window (e.g. a minute spans :00 to :59 of that minute)

Return ONLY valid JSON with no additional text. If no date/time references are found, return an empty array.

Example format:
[
    {
        "original": "August 2025",
        "parsed": "from 2025-08-01T00:00:00Z to 2025-08-31T23:59:59Z"
    },
    {
        "original": "September 4th, 2025 at 6:39 AM",
        "parsed": "from 2025-09-04T06:39:00Z to 2025-09-04T06:39:59Z"
    }
]

Extracted date-time references (JSON only):`

// DateTimeRangeResolver extracts natural-language date/time mentions from a
// query and resolves each to a concrete UTC range via a lightweight model
// call. Resolution is strictly best-effort: any failure yields fewer (or no)
// ranges, never an error.
type DateTimeRangeResolver struct {
	llm    domain.CompletionClient
	logger *slog.Logger
}

// NewDateTimeRangeResolver creates a resolver backed by the given model client.
func NewDateTimeRangeResolver(llm domain.CompletionClient, logger *slog.Logger) *DateTimeRangeResolver {
	return &DateTimeRangeResolver{llm: llm, logger: logger}
}

type extractedDateTimeRef struct {
	Original string `json:"original"`
	Parsed   string `json:"parsed"`
}

// Resolve returns the temporal ranges mentioned in query. The returned slice
// is empty when nothing was found or extraction failed.
func (r *DateTimeRangeResolver) Resolve(ctx context.Context, query string) []domain.DateTimeRange {
	prompt := fmt.Sprintf(datetimeExtractionPrompt, query)

	raw, err := r.llm.Complete(ctx, prompt, domain.CompletionOptions{
		MaxTokens:   512,
		Temperature: 0.1,
	})
	if err != nil {
		r.logger.Warn("datetime_extraction_failed", slog.String("error", err.Error()))
		return nil
	}

	var refs []extractedDateTimeRef
	if err := json.Unmarshal([]byte(parsers.StripCodeFence(raw)), &refs); err != nil {
		r.logger.Warn("datetime_extraction_unparseable", slog.String("error", err.Error()))
		return nil
	}

	ranges := make([]domain.DateTimeRange, 0, len(refs))
	for _, ref := range refs {
		dtr, ok := domain.ParseDateTimeRange(ref.Original, ref.Parsed)
		if !ok {
			r.logger.Warn("datetime_range_rejected",
				slog.String("original", ref.Original),
				slog.String("parsed", ref.Parsed))
			continue
		}
		ranges = append(ranges, *dtr)
	}

	if len(ranges) > 0 {
		r.logger.Info("datetime_ranges_resolved", slog.Int("count", len(ranges)))
	}
	return ranges
}
