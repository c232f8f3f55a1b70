package usecase

import (
	"fmt"
	"sort"
	"strings"

	"kb-connector/internal/domain"
)

// AlwaysIncludeFields are the metadata fields rendered for every passage
// regardless of filter usage: the source for attribution and the creation
// time for recency judgment.
var AlwaysIncludeFields = []string{"source_uri", "created_at_iso"}

// ContextAssembler builds the generation prompt from retrieved passages,
// selectively including metadata (always-include set plus any field the
// active filter referenced) to keep the prompt compact.
type ContextAssembler struct {
	maxHistoryTurns int
}

// NewContextAssembler creates an assembler that includes at most
// maxHistoryTurns prior conversation turns in the prompt.
func NewContextAssembler(maxHistoryTurns int) *ContextAssembler {
	return &ContextAssembler{maxHistoryTurns: maxHistoryTurns}
}

// Assemble renders the generation prompt. The boolean is false when no
// passage carried extractable text, in which case the prompt is unusable and
// the caller must short-circuit.
func (a *ContextAssembler) Assemble(
	passages []domain.RetrievedPassage,
	filterKeys map[string]struct{},
	query string,
	history []domain.ConversationTurn,
) (string, bool) {
	var contextSb strings.Builder
	for i, passage := range passages {
		if strings.TrimSpace(passage.Text) == "" {
			continue
		}
		contextSb.WriteString(fmt.Sprintf("Document %d\n", i+1))
		a.writeMetadata(&contextSb, passage, filterKeys)
		if passage.SourceURI != "" {
			fmt.Fprintf(&contextSb, "Source: %s\n", passage.SourceURI)
		}
		contextSb.WriteString(passage.Text)
		contextSb.WriteString("\n\n")
	}
	if contextSb.Len() == 0 {
		return "", false
	}

	var sb strings.Builder
	if h := a.FormatHistory(history); h != "" {
		sb.WriteString(h)
	}
	sb.WriteString("The following information was retrieved from a knowledge base. ")
	sb.WriteString("Each document may carry metadata fields; they indicate why the document was retrieved, so use them to judge its relevance.\n\n")
	sb.WriteString(contextSb.String())
	sb.WriteString("Based on this information, please answer the following question:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nIf the information doesn't contain a clear answer, please say so.")

	return sb.String(), true
}

// writeMetadata renders the displayable metadata of one passage: the
// intersection of (always-include set union filter-referenced keys) with the
// keys actually present. Nothing is written when the intersection is empty.
func (a *ContextAssembler) writeMetadata(sb *strings.Builder, passage domain.RetrievedPassage, filterKeys map[string]struct{}) {
	if len(passage.Metadata) == 0 {
		return
	}

	display := make([]string, 0, len(AlwaysIncludeFields)+len(filterKeys))
	seen := make(map[string]struct{})
	for _, key := range AlwaysIncludeFields {
		seen[key] = struct{}{}
	}
	for key := range filterKeys {
		seen[key] = struct{}{}
	}
	for key := range seen {
		if _, present := passage.Metadata[key]; present {
			display = append(display, key)
		}
	}
	if len(display) == 0 {
		return
	}
	sort.Strings(display)

	sb.WriteString("Metadata:\n")
	for _, key := range display {
		fmt.Fprintf(sb, "  %s: %v\n", key, passage.Metadata[key])
	}
}

// FormatHistory renders the most recent conversation turns, oldest first.
// An empty history yields an empty string.
func (a *ContextAssembler) FormatHistory(history []domain.ConversationTurn) string {
	if len(history) == 0 || a.maxHistoryTurns <= 0 {
		return ""
	}
	if len(history) > a.maxHistoryTurns {
		history = history[len(history)-a.maxHistoryTurns:]
	}

	var sb strings.Builder
	sb.WriteString("Previous conversation:\n\n")
	for _, turn := range history {
		switch turn.Role {
		case domain.TurnRoleUser:
			fmt.Fprintf(&sb, "User: %s\n\n", turn.Content)
		case domain.TurnRoleAssistant:
			fmt.Fprintf(&sb, "Assistant: %s\n\n", turn.Content)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
