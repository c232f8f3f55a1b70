package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"kb-connector/internal/domain"
)

// NoResultsMessage is the terminal response when retrieval yields no passage
// with extractable text. It is informational, not an error.
const NoResultsMessage = "I couldn't find any relevant information in the knowledge base."

// AnswerQueryInput carries one question plus its surrounding conversation.
type AnswerQueryInput struct {
	Query      string
	History    []domain.ConversationTurn
	Collection string // optional; empty selects the default collection
}

// AnswerQueryUsecase runs the full query pipeline: filter resolution,
// retrieval, context assembly, generation, and citation attribution. Execute
// always returns a string; no failure below this boundary propagates as an
// error or panic.
type AnswerQueryUsecase interface {
	Execute(ctx context.Context, input AnswerQueryInput) string
}

type answerQueryUsecase struct {
	synthesizer       *FilterSynthesizer
	assembler         *ContextAssembler
	attributor        *CitationAttributor
	retrievers        map[string]domain.Retriever
	defaultCollection string
	generator         domain.CompletionClient
	status            domain.StatusSink
	resultLimit       int
	searchMode        domain.SearchMode
	generationOpts    domain.CompletionOptions
	logger            *slog.Logger
}

// NewAnswerQueryUsecase wires the pipeline. retrievers maps collection names
// to their backends; defaultCollection must be a key of that map.
func NewAnswerQueryUsecase(
	synthesizer *FilterSynthesizer,
	assembler *ContextAssembler,
	attributor *CitationAttributor,
	retrievers map[string]domain.Retriever,
	defaultCollection string,
	generator domain.CompletionClient,
	status domain.StatusSink,
	resultLimit int,
	searchMode domain.SearchMode,
	generationOpts domain.CompletionOptions,
	logger *slog.Logger,
) AnswerQueryUsecase {
	return &answerQueryUsecase{
		synthesizer:       synthesizer,
		assembler:         assembler,
		attributor:        attributor,
		retrievers:        retrievers,
		defaultCollection: defaultCollection,
		generator:         generator,
		status:            status,
		resultLimit:       resultLimit,
		searchMode:        searchMode,
		generationOpts:    generationOpts,
		logger:            logger,
	}
}

func (u *answerQueryUsecase) Execute(ctx context.Context, input AnswerQueryInput) string {
	requestID := uuid.NewString()
	log := u.logger.With(slog.String("request_id", requestID))

	if strings.TrimSpace(input.Query) == "" {
		return u.finish(ctx, "error", "Error: the query must not be empty.")
	}

	collection := input.Collection
	if collection == "" {
		collection = u.defaultCollection
	}
	retriever, ok := u.retrievers[collection]
	if !ok {
		return u.finish(ctx, "error", fmt.Sprintf("Error: unknown knowledge base collection %q.", collection))
	}

	u.status.Emit(ctx, domain.StatusEvent{Level: "info", Message: "Resolving metadata filters..."})
	filter := u.synthesizer.Synthesize(ctx, input.Query)

	u.status.Emit(ctx, domain.StatusEvent{Level: "info", Message: "Retrieving information from the knowledge base..."})
	passages, err := retriever.Retrieve(ctx, input.Query, filter, u.resultLimit, u.searchMode)
	if err != nil {
		log.Error("retrieval_failed", slog.String("error", err.Error()))
		return u.finish(ctx, "error", domain.UserMessage(err))
	}
	log.Info("retrieval_completed",
		slog.Int("passage_count", len(passages)),
		slog.Bool("filtered", filter != nil),
		slog.String("collection", collection))

	prompt, hasContent := u.assembler.Assemble(passages, filter.Keys(), input.Query, input.History)
	if !hasContent {
		log.Info("retrieval_empty")
		return u.finish(ctx, "info", NoResultsMessage)
	}

	u.status.Emit(ctx, domain.StatusEvent{Level: "info", Message: "Generating answer..."})
	answer, err := u.generator.Complete(ctx, prompt, u.generationOpts)
	if err != nil {
		log.Error("generation_failed", slog.String("error", err.Error()))
		return u.finish(ctx, "error", domain.UserMessage(err))
	}

	u.status.Emit(ctx, domain.StatusEvent{Level: "info", Message: "Attributing citations..."})
	answer = u.attributor.Attribute(ctx, answer, passages)

	log.Info("query_completed", slog.Int("answer_length", len(answer)))
	return u.finish(ctx, "info", answer)
}

// finish delivers the mandatory final status event and returns the response.
func (u *answerQueryUsecase) finish(ctx context.Context, level, response string) string {
	u.status.Emit(ctx, domain.StatusEvent{Level: level, Message: "Complete", Done: true})
	return response
}
