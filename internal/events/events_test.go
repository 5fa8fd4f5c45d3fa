package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []*GenerationEvent
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *GenerationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewGenerationEvent(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	event := NewGenerationEvent(runID, KindRetry, 3)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, runID, event.RunID)
	assert.Equal(t, KindRetry, event.Kind)
	assert.Equal(t, 3, event.RecordIndex)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestInMemoryEmitter(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEmitter(discardLogger())

	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := NewGenerationEvent(uuid.New(), KindOutcome, 0)
	emitter.EmitEvent(context.Background(), event)

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Same(t, event, first.events[0])
}

func TestInMemoryEmitter_NoHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEmitter(discardLogger())

	// Emitting with no handlers must not panic.
	emitter.EmitEvent(context.Background(), NewGenerationEvent(uuid.New(), KindRunStart, -1))
}

func TestLogHandler(t *testing.T) {
	t.Parallel()

	// The handler only writes to the logger; just exercise the field
	// paths for a fully populated event.
	handler := NewLogHandler(discardLogger())
	event := NewGenerationEvent(uuid.New(), KindOutcome, 2)
	event.Attempt = 2
	event.Status = "failed"
	event.ErrKind = "timeout"

	handler.HandleEvent(context.Background(), event)
}
