// Package di wires configuration, infrastructure, and the query pipeline.
package di

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"kb-connector/internal/adapter/kbhttp"
	"kb-connector/internal/adapter/modelclient"
	"kb-connector/internal/adapter/retriever"
	"kb-connector/internal/adapter/status"
	"kb-connector/internal/domain"
	"kb-connector/internal/infra/config"
	"kb-connector/internal/infra/httpclient"
	"kb-connector/internal/infra/logger"
	"kb-connector/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	AnswerUsecase usecase.AnswerQueryUsecase
	Handler       *kbhttp.Handler

	// Exposed for diagnostics and the readiness probe.
	Retrievers map[string]domain.Retriever
	Generator  domain.CompletionClient
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(cfg.EmbedderTimeout)
	generatorHTTP := httpclient.NewPooledClient(cfg.GeneratorTimeout)

	encoder := modelclient.NewEmbedder(cfg.EmbedderURL, cfg.EmbeddingModel, embedderHTTP)

	generator, err := newCompletionClient(cfg, cfg.GeneratorModel, generatorHTTP)
	if err != nil {
		return nil, err
	}
	// The filter model runs the cheap extraction prompts. It shares the
	// generator backend and differs only in model name.
	filterLLM := generator
	if cfg.FilterModel != cfg.GeneratorModel {
		filterLLM, err = newCompletionClient(cfg, cfg.FilterModel, generatorHTTP)
		if err != nil {
			return nil, err
		}
	}

	retrievers := make(map[string]domain.Retriever, len(cfg.Collections))
	for _, col := range cfg.Collections {
		retrievers[col.ID] = retriever.NewPassageRetriever(pool, encoder, col.ID, log)
	}

	fieldDefs, err := domain.ParseFieldDefinitions(cfg.MetadataDefinitions)
	if err != nil {
		return nil, fmt.Errorf("invalid METADATA_DEFINITIONS: %w", err)
	}

	datetimes := usecase.NewDateTimeRangeResolver(filterLLM, log)
	names := usecase.NewEntityNameResolver(filterLLM, log)
	synthesizer := usecase.NewFilterSynthesizer(
		filterLLM, datetimes, names, fieldDefs, cfg.EnableMetadataFiltering, log)

	assembler := usecase.NewContextAssembler(cfg.MaxHistoryTurns)
	attributor := usecase.NewCitationAttributor(filterLLM, cfg.EnableCitations, log)

	var statusSink domain.StatusSink = status.NopSink{}
	if cfg.EnableStatusIndicator {
		statusSink = status.NewSlogEmitter(cfg.StatusEmitInterval, log)
	}

	searchMode := domain.SearchModeHybrid
	if cfg.SearchMode == "SEMANTIC" {
		searchMode = domain.SearchModeSemantic
	}

	answerUsecase := usecase.NewAnswerQueryUsecase(
		synthesizer,
		assembler,
		attributor,
		retrievers,
		cfg.DefaultCollection,
		generator,
		statusSink,
		cfg.NumberOfResults,
		searchMode,
		domain.CompletionOptions{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		},
		log,
	)

	handler := kbhttp.NewHandler(answerUsecase, logger.NewContextLogger("kb-connector"))

	return &ApplicationComponents{
		AnswerUsecase: answerUsecase,
		Handler:       handler,
		Retrievers:    retrievers,
		Generator:     generator,
	}, nil
}

func newCompletionClient(cfg *config.Config, model string, httpClient *http.Client) (domain.CompletionClient, error) {
	switch cfg.GeneratorBackend {
	case "ollama":
		return modelclient.NewOllamaClient(cfg.GeneratorURL, model, httpClient), nil
	case "openai":
		return modelclient.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.GeneratorBackend)
	}
}
