// Package status delivers fire-and-forget progress notifications.
package status

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"kb-connector/internal/domain"
)

// SlogEmitter logs progress events, dropping intermediate events that arrive
// faster than the configured interval. A final event (Done=true) is always
// delivered.
type SlogEmitter struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSlogEmitter creates an emitter that passes at most one intermediate
// event per interval.
func NewSlogEmitter(interval time.Duration, logger *slog.Logger) *SlogEmitter {
	return &SlogEmitter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// Emit logs the event unless it is rate-limited. Never blocks, never fails.
func (e *SlogEmitter) Emit(ctx context.Context, event domain.StatusEvent) {
	if !event.Done && !e.limiter.Allow() {
		return
	}
	e.logger.InfoContext(ctx, "status",
		slog.String("level", event.Level),
		slog.String("message", event.Message),
		slog.Bool("done", event.Done))
}

// NopSink discards all events; used when status emission is disabled.
type NopSink struct{}

// Emit discards the event.
func (NopSink) Emit(context.Context, domain.StatusEvent) {}

var (
	_ domain.StatusSink = (*SlogEmitter)(nil)
	_ domain.StatusSink = NopSink{}
)
