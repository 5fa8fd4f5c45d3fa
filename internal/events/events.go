package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted by the pipeline.
const (
	KindRequestStart = "request_start"
	KindRequestEnd   = "request_end"
	KindRetry        = "retry"
	KindOutcome      = "outcome"
	KindRunStart     = "run_start"
	KindRunEnd       = "run_end"
)

// GenerationEvent is one structured entry in a run's lifecycle.
type GenerationEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// RunID identifies the batch run the event belongs to.
	RunID uuid.UUID `json:"run_id"`

	// Kind is one of the Kind constants.
	Kind string `json:"kind"`

	// RecordIndex is the input-order index of the record the event
	// concerns; -1 for run-level events.
	RecordIndex int `json:"record_index"`

	// Attempt is the 1-based provider attempt number, when relevant.
	Attempt int `json:"attempt,omitempty"`

	// Status carries the terminal outcome status for outcome events.
	Status string `json:"status,omitempty"`

	// ErrKind is the taxonomy label of the error, when the event
	// describes a failure.
	ErrKind string `json:"error_kind,omitempty"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewGenerationEvent builds an event for the given run with the
// timestamp set.
func NewGenerationEvent(runID uuid.UUID, kind string, recordIndex int) *GenerationEvent {
	return &GenerationEvent{
		ID:          uuid.New(),
		RunID:       runID,
		Kind:        kind,
		RecordIndex: recordIndex,
		CreatedAt:   time.Now().UTC(),
	}
}

// Handler defines an interface for components that consume generation
// lifecycle events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *GenerationEvent)
}

// Emitter defines an interface for components that emit events. This
// allows the orchestrator to publish its lifecycle without direct
// knowledge of the sinks.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *GenerationEvent)
}
