package task

import (
	"context"

	"github.com/google/uuid"
)

// Status represents the current state of a background task.
type Status string

// Possible task status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task type constants
const (
	// TypeGenerationRun represents the task type for executing one batch
	// generation run.
	TypeGenerationRun = "generation_run"
)

// Task represents a unit of background work to be processed.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Status returns the current task status
	Status() Status

	// Execute runs the task logic
	Execute(ctx context.Context) error
}
