package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"kb-connector/internal/domain"
	"kb-connector/internal/parsers"
)

const filterSynthesisCacheSize = 256

const filterPromptTemplate = `Given the following metadata field definitions and user query, generate a metadata filter in JSON format that can be used to filter knowledge base results.

Metadata field definitions:
%s

User query: %s%s

IMPORTANT INSTRUCTIONS FOR DATE/TIME FILTERING:
1. When filtering by date/time fields, check if the metadata definitions include both ISO format (STRING type) and Unix epoch (NUMBER type) fields.
2. For Unix epoch timestamp fields (NUMBER type with names like *_unix, *_timestamp, *_epoch):
   - Use numeric comparison operators: greaterThan, greaterThanOrEquals, lessThan, lessThanOrEquals
   - Bound each extracted date-time range with a greaterThanOrEquals condition on its start Unix value and a lessThanOrEquals condition on its end Unix value
3. For ISO format date fields (STRING type with names like *_iso, *_date, created_at):
   - Use string comparison operators if needed, but prefer Unix epoch fields when both are available
4. Unix epoch fields provide better performance for numeric range queries.

IMPORTANT INSTRUCTIONS FOR PERSON NAME FILTERING:
1. Do not filter on a full name with equals; names appear with varying titles, order, and formatting.
2. For each extracted person name, emit one "in" condition per name element (e.g. {"in": {"key": "author_name", "value": ["John"]}}) and combine them with "andAll".

Generate a filter object using operators from exactly this set: "equals", "notEquals", "in", "notIn", "greaterThan", "greaterThanOrEquals", "lessThan", "lessThanOrEquals", "stringContains", and the logical operators "andAll" and "orAll".

Only generate filters for metadata fields that are clearly relevant to the user query. If no metadata filtering is needed, return an empty object {}.

Return ONLY valid JSON with no additional text or explanation. Example format:
{
    "andAll": [
        {
            "lessThanOrEquals": {
                "key": "created_at_unix",
                "value": 1725494399
            }
        },
        {
            "in": {
                "key": "author_name",
                "value": ["John"]
            }
        }
    ]
}

Generated filter (JSON only):`

// FilterSynthesizer turns a free-text query into a structured metadata filter
// by combining resolved temporal ranges and name references with the field
// schema and delegating the final judgment to a model call. Synthesis soft
// fails: every error path yields an absent (nil) filter.
type FilterSynthesizer struct {
	llm       domain.CompletionClient
	datetimes *DateTimeRangeResolver
	names     *EntityNameResolver
	fieldDefs []domain.FieldDefinition
	enabled   bool
	cache     *lru.Cache[string, *domain.MetadataFilter]
	logger    *slog.Logger
}

// NewFilterSynthesizer wires a synthesizer. fieldDefs may be empty, in which
// case synthesis is a no-op regardless of enabled.
func NewFilterSynthesizer(
	llm domain.CompletionClient,
	datetimes *DateTimeRangeResolver,
	names *EntityNameResolver,
	fieldDefs []domain.FieldDefinition,
	enabled bool,
	logger *slog.Logger,
) *FilterSynthesizer {
	cache, _ := lru.New[string, *domain.MetadataFilter](filterSynthesisCacheSize)
	return &FilterSynthesizer{
		llm:       llm,
		datetimes: datetimes,
		names:     names,
		fieldDefs: fieldDefs,
		enabled:   enabled,
		cache:     cache,
		logger:    logger,
	}
}

// Synthesize returns the metadata filter for query, or nil when filtering is
// disabled, the schema is empty, the model declines to filter, or anything
// goes wrong along the way.
func (s *FilterSynthesizer) Synthesize(ctx context.Context, query string) *domain.MetadataFilter {
	if !s.enabled || len(s.fieldDefs) == 0 {
		return nil
	}

	if cached, ok := s.cache.Get(query); ok {
		s.logger.Debug("filter_synthesis_cache_hit", slog.String("query", truncate(query, 100)))
		return cached
	}

	filter := s.synthesize(ctx, query)
	s.cache.Add(query, filter)
	return filter
}

func (s *FilterSynthesizer) synthesize(ctx context.Context, query string) *domain.MetadataFilter {
	annotated, extractionContext := s.annotateQuery(ctx, query)

	defsJSON, err := json.MarshalIndent(s.fieldDefs, "", "  ")
	if err != nil {
		s.logger.Warn("filter_schema_marshal_failed", slog.String("error", err.Error()))
		return nil
	}

	prompt := fmt.Sprintf(filterPromptTemplate, string(defsJSON), annotated, extractionContext)

	raw, err := s.llm.Complete(ctx, prompt, domain.CompletionOptions{
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		s.logger.Warn("filter_synthesis_failed", slog.String("error", err.Error()))
		return nil
	}

	filter, err := domain.ParseFilter(parsers.StripCodeFence(raw))
	if err != nil {
		s.logger.Warn("filter_synthesis_unparseable",
			slog.String("error", err.Error()),
			slog.String("raw", truncate(raw, 200)))
		return nil
	}
	if filter == nil {
		s.logger.Info("filter_synthesis_empty")
		return nil
	}

	s.logger.Info("filter_synthesis_completed",
		slog.Any("filter_keys", filter.SortedKeys()))
	return filter
}

// annotateQuery enriches the query text with resolved datetime ranges and
// name elements. Each resolved phrase is annotated after its first literal
// occurrence only, to avoid over-annotating repeated substrings.
func (s *FilterSynthesizer) annotateQuery(ctx context.Context, query string) (string, string) {
	annotated := query
	var contextSb strings.Builder

	for _, r := range s.datetimes.Resolve(ctx, query) {
		if contextSb.Len() == 0 {
			contextSb.WriteString("\n\nExtracted date-time information:\n")
		}
		fmt.Fprintf(&contextSb, "- '%s' -> from %s (Unix: %d) to %s (Unix: %d)\n",
			r.Original, r.StartISO, r.StartUnix, r.EndISO, r.EndUnix)
		annotated = strings.Replace(annotated, r.Original,
			fmt.Sprintf("%s (from %s to %s)", r.Original, r.StartISO, r.EndISO), 1)
	}

	nameHeaderWritten := false
	for _, n := range s.names.Resolve(ctx, query) {
		if !nameHeaderWritten {
			contextSb.WriteString("\nExtracted person names:\n")
			nameHeaderWritten = true
		}
		fmt.Fprintf(&contextSb, "- '%s' -> name elements: %s\n",
			n.Original, strings.Join(n.Elements, ", "))
	}

	return annotated, contextSb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
