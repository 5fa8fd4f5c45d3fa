package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple implementation of the Emitter interface
// that stores registered handlers in memory and dispatches events to
// them synchronously, in registration order.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "event_emitter"),
	}
}

// RegisterHandler adds a new handler to receive events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all registered handlers.
func (e *InMemoryEmitter) EmitEvent(ctx context.Context, event *GenerationEvent) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for _, handler := range handlers {
		handler.HandleEvent(ctx, event)
	}
}

// LogHandler forwards generation events to the structured log. It is
// the default sink wired in at startup.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a handler writing to the given logger.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "generation_events")}
}

// HandleEvent logs one event at info level with its structured fields.
func (h *LogHandler) HandleEvent(ctx context.Context, event *GenerationEvent) {
	attrs := []any{
		"run_id", event.RunID,
		"kind", event.Kind,
		"record_index", event.RecordIndex,
	}
	if event.Attempt > 0 {
		attrs = append(attrs, "attempt", event.Attempt)
	}
	if event.Status != "" {
		attrs = append(attrs, "status", event.Status)
	}
	if event.ErrKind != "" {
		attrs = append(attrs, "error_kind", event.ErrKind)
	}
	h.logger.InfoContext(ctx, "generation event", attrs...)
}
