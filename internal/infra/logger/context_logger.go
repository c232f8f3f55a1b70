package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

// Business context keys, following OpenTelemetry semantic conventions
// with a 'kb.' prefix.
const (
	RequestIDKey  ContextKey = "kb.request.id"
	CollectionKey ContextKey = "kb.collection"
	StageKey      ContextKey = "kb.pipeline.stage"
)

// ContextLogger extracts request-scoped values from a context and attaches
// them as structured fields.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

func NewContextLogger(serviceName string) *ContextLogger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &ContextLogger{
		logger:      slog.New(handler),
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		fields = append(fields, string(RequestIDKey), requestID)
	}
	if collection := ctx.Value(CollectionKey); collection != nil {
		fields = append(fields, string(CollectionKey), collection)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// WithRequestID adds a request ID to the context for observability.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithCollection adds the selected collection to the context for observability.
func WithCollection(ctx context.Context, collection string) context.Context {
	return context.WithValue(ctx, CollectionKey, collection)
}

// WithStage marks the pipeline stage currently executing.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}
