package status

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kb-connector/internal/domain"
)

func newCapturedEmitter(interval time.Duration) (*SlogEmitter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewSlogEmitter(interval, logger), &buf
}

func TestSlogEmitter_RateLimitsIntermediateEvents(t *testing.T) {
	e, buf := newCapturedEmitter(time.Minute)
	ctx := context.Background()

	e.Emit(ctx, domain.StatusEvent{Level: "info", Message: "first"})
	e.Emit(ctx, domain.StatusEvent{Level: "info", Message: "second"})
	e.Emit(ctx, domain.StatusEvent{Level: "info", Message: "third"})

	out := buf.String()
	assert.Contains(t, out, "first")
	assert.NotContains(t, out, "second")
	assert.NotContains(t, out, "third")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSlogEmitter_DoneBypassesRateLimit(t *testing.T) {
	e, buf := newCapturedEmitter(time.Minute)
	ctx := context.Background()

	e.Emit(ctx, domain.StatusEvent{Level: "info", Message: "progress"})
	e.Emit(ctx, domain.StatusEvent{Level: "info", Message: "suppressed"})
	e.Emit(ctx, domain.StatusEvent{Level: "info", Message: "Complete", Done: true})

	out := buf.String()
	assert.Contains(t, out, "progress")
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "Complete")
	assert.Contains(t, out, `"done":true`)
}

func TestNopSink_Discards(t *testing.T) {
	// Must not panic and must satisfy the interface.
	var sink domain.StatusSink = NopSink{}
	sink.Emit(context.Background(), domain.StatusEvent{Level: "info", Message: "x", Done: true})
}
