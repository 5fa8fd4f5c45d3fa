package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/omniprompt/internal/batch"
	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/events"
	"github.com/phrazzld/omniprompt/internal/generation"
	"github.com/phrazzld/omniprompt/internal/review"
)

// Common errors
var (
	ErrNilRun       = errors.New("run cannot be nil")
	ErrNilSpec      = errors.New("job spec cannot be nil")
	ErrNilGenerator = errors.New("generator cannot be nil")
	ErrNilEmitter   = errors.New("emitter cannot be nil")
	ErrNilWriter    = errors.New("field writer cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// GenerationTask implements the Task interface for one batch generation
// run. It drives the orchestrator, feeds progress into the registry Run,
// and on settlement wraps the result in a review set for the commit
// stage.
type GenerationTask struct {
	id        uuid.UUID
	run       *Run
	spec      *domain.JobSpec
	generator generation.Generator
	emitter   events.Emitter
	writer    review.FieldWriter
	workers   int
	logger    *slog.Logger

	mu     sync.Mutex
	status Status
}

// NewGenerationTask creates a task that will execute the given job spec
// and report into the given run.
func NewGenerationTask(
	run *Run,
	spec *domain.JobSpec,
	generator generation.Generator,
	emitter events.Emitter,
	writer review.FieldWriter,
	workers int,
	logger *slog.Logger,
) (*GenerationTask, error) {
	if run == nil {
		return nil, ErrNilRun
	}
	if spec == nil {
		return nil, ErrNilSpec
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if emitter == nil {
		return nil, ErrNilEmitter
	}
	if writer == nil {
		return nil, ErrNilWriter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &GenerationTask{
		id:        uuid.New(),
		run:       run,
		spec:      spec,
		generator: generator,
		emitter:   emitter,
		writer:    writer,
		workers:   workers,
		logger:    logger.With("task_type", TypeGenerationRun, "run_id", run.ID()),
		status:    StatusPending,
	}, nil
}

// ID returns the task's unique identifier.
func (t *GenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *GenerationTask) Type() string {
	return TypeGenerationRun
}

// Status returns the current task status.
func (t *GenerationTask) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *GenerationTask) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute runs the batch. The run's Cancel method and the runner's
// shutdown both cancel the derived context; the orchestrator settles
// every outcome either way.
func (t *GenerationTask) Execute(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !t.run.bind(cancel) {
		// Cancelled while still queued; nothing to do.
		t.setStatus(StatusCompleted)
		return nil
	}
	t.setStatus(StatusProcessing)

	settings := t.spec.Settings
	pacer := generation.NewPacer(settings.Delay)
	policy := generation.NewPolicy(settings.Timeout, settings.MaxRetries, pacer, t.logger)

	orch, err := batch.New(t.run.ID(), t.generator, policy, t.emitter, t.logger, batch.Config{Workers: t.workers})
	if err != nil {
		t.fail(err)
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}

	result, err := orch.Run(runCtx, t.spec, t.run.recordProgress)
	if err != nil {
		t.fail(err)
		return fmt.Errorf("run failed before processing records: %w", err)
	}

	set, err := review.NewSet(result, t.spec.TargetField, t.writer, t.logger)
	if err != nil {
		t.fail(err)
		return fmt.Errorf("failed to build review set: %w", err)
	}

	t.run.complete(result, set)
	t.setStatus(StatusCompleted)
	return nil
}

func (t *GenerationTask) fail(err error) {
	t.run.fail(err)
	t.setStatus(StatusFailed)
}
