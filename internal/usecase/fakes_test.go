package usecase

import (
	"context"
	"io"
	"log/slog"

	"kb-connector/internal/domain"
)

// scriptedLLM returns canned completions in order, recording every prompt.
type scriptedLLM struct {
	responses []string
	err       error
	prompts   []string
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	idx := len(s.prompts) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	if idx < 0 {
		return "", nil
	}
	return s.responses[idx], nil
}

func (s *scriptedLLM) Model() string { return "scripted" }

// recordingSink captures every status event it receives.
type recordingSink struct {
	events []domain.StatusEvent
}

func (r *recordingSink) Emit(ctx context.Context, event domain.StatusEvent) {
	r.events = append(r.events, event)
}

// fakeRetriever returns canned passages or a canned error.
type fakeRetriever struct {
	passages   []domain.RetrievedPassage
	err        error
	lastFilter *domain.MetadataFilter
	lastQuery  string
	lastLimit  int
	lastMode   domain.SearchMode
	calls      int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, filter *domain.MetadataFilter, limit int, mode domain.SearchMode) ([]domain.RetrievedPassage, error) {
	f.calls++
	f.lastQuery = query
	f.lastFilter = filter
	f.lastLimit = limit
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
