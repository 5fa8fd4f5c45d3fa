package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/events"
	"github.com/phrazzld/omniprompt/internal/review"
	"github.com/phrazzld/omniprompt/internal/store"
	"github.com/phrazzld/omniprompt/internal/task"
)

// Common sentinel errors for RunService
var (
	// ErrNoRecordsSelected indicates a run request without any record IDs.
	ErrNoRecordsSelected = errors.New("no records selected")

	// ErrRunNotFound indicates the requested run does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotReviewable indicates the run has not settled yet, so its
	// outcomes cannot be reviewed or committed.
	ErrRunNotReviewable = errors.New("run is not reviewable yet")
)

// TaskRunner defines the interface for submitting background tasks.
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(t task.Task) error
}

// RunParams describes one requested generation run. Zero-valued override
// fields fall back to the configured provider defaults.
type RunParams struct {
	RecordIDs   []uuid.UUID
	Template    string
	TargetField string

	// Optional per-run overrides of the configured defaults.
	Model       string
	Temperature *float32
	MaxTokens   *int
	Streaming   *bool
	MaxRetries  *int
}

// RunService is the use-case layer for generation runs: it turns an API
// request into a job spec, hands it to the background runner, and exposes
// run progress and the review/commit operations.
type RunService struct {
	store    store.RecordStore
	registry *task.Registry
	runner   TaskRunner
	factory  GeneratorFactory
	emitter  events.Emitter
	defaults domain.ProviderSettings
	workers  int
	logger   *slog.Logger
}

// NewRunService creates a RunService.
func NewRunService(
	recordStore store.RecordStore,
	registry *task.Registry,
	runner TaskRunner,
	factory GeneratorFactory,
	emitter events.Emitter,
	defaults domain.ProviderSettings,
	workers int,
	logger *slog.Logger,
) (*RunService, error) {
	if recordStore == nil {
		return nil, errors.New("record store cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if factory == nil {
		return nil, errors.New("generator factory cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("emitter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if workers < 1 {
		workers = 1
	}

	return &RunService{
		store:    recordStore,
		registry: registry,
		runner:   runner,
		factory:  factory,
		emitter:  emitter,
		defaults: defaults,
		workers:  workers,
		logger:   logger.With("component", "run_service"),
	}, nil
}

// StartRun loads the selected records, builds the job spec, and enqueues
// the run for background execution. It returns the pending run; progress
// is observed through GetRun.
func (s *RunService) StartRun(ctx context.Context, params RunParams) (task.Snapshot, error) {
	if len(params.RecordIDs) == 0 {
		return task.Snapshot{}, ErrNoRecordsSelected
	}

	records, err := s.store.SelectRecords(ctx, params.RecordIDs)
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("failed to load records: %w", err)
	}

	settings := s.applyOverrides(params)
	spec := &domain.JobSpec{
		Records:     records,
		Template:    params.Template,
		TargetField: params.TargetField,
		Settings:    settings,
	}
	if err := spec.Validate(); err != nil {
		return task.Snapshot{}, err
	}

	generator, err := s.factory(ctx, s.logger, settings)
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("failed to build provider client: %w", err)
	}

	run := task.NewRun(uuid.New(), params.TargetField, len(records))
	genTask, err := task.NewGenerationTask(run, spec, generator, s.emitter, s.store, s.workers, s.logger)
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("failed to build generation task: %w", err)
	}

	if err := s.runner.Submit(genTask); err != nil {
		return task.Snapshot{}, fmt.Errorf("failed to enqueue run: %w", err)
	}
	s.registry.Add(run)

	s.logger.Info("run enqueued",
		"run_id", run.ID(),
		"records", len(records),
		"provider", settings.Provider,
		"model", settings.Model,
		"target_field", params.TargetField)

	return run.Snapshot(), nil
}

// GetRun returns a point-in-time snapshot of a run's state.
func (s *RunService) GetRun(id uuid.UUID) (task.Snapshot, error) {
	run, err := s.lookup(id)
	if err != nil {
		return task.Snapshot{}, err
	}
	return run.Snapshot(), nil
}

// CancelRun requests cooperative cancellation.
func (s *RunService) CancelRun(id uuid.UUID) (task.Snapshot, error) {
	run, err := s.lookup(id)
	if err != nil {
		return task.Snapshot{}, err
	}
	run.Cancel()
	s.logger.Info("run cancellation requested", "run_id", id)
	return run.Snapshot(), nil
}

// EditOutcome applies review mutations to one outcome of a settled run.
// Text, when non-nil, replaces the generated text (which re-approves the
// outcome); Approved, when non-nil, sets the approval flag afterwards.
func (s *RunService) EditOutcome(id uuid.UUID, index int, text *string, approved *bool) (task.Snapshot, error) {
	run, err := s.lookup(id)
	if err != nil {
		return task.Snapshot{}, err
	}
	set, err := run.Review()
	if err != nil {
		return task.Snapshot{}, fmt.Errorf("%w: %v", ErrRunNotReviewable, err)
	}

	if text != nil {
		if err := set.Edit(index, *text); err != nil {
			return task.Snapshot{}, err
		}
	}
	if approved != nil {
		if *approved {
			err = set.Approve(index)
		} else {
			err = set.Unapprove(index)
		}
		if err != nil {
			return task.Snapshot{}, err
		}
	}
	return run.Snapshot(), nil
}

// Commit writes the approved outcomes of a settled run into their
// records' target field.
func (s *RunService) Commit(ctx context.Context, id uuid.UUID) (*review.CommitReport, error) {
	run, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	set, err := run.Review()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunNotReviewable, err)
	}
	return set.Commit(ctx)
}

// Discard releases a settled run's outcomes without touching any record.
func (s *RunService) Discard(id uuid.UUID) error {
	run, err := s.lookup(id)
	if err != nil {
		return err
	}
	set, err := run.Review()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRunNotReviewable, err)
	}
	set.Discard()
	return nil
}

func (s *RunService) lookup(id uuid.UUID) (*task.Run, error) {
	run, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, task.ErrRunNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// applyOverrides merges per-run overrides onto the configured defaults.
func (s *RunService) applyOverrides(params RunParams) domain.ProviderSettings {
	settings := s.defaults
	if params.Model != "" {
		settings.Model = params.Model
	}
	if params.Temperature != nil {
		settings.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		settings.MaxTokens = *params.MaxTokens
	}
	if params.Streaming != nil {
		settings.Streaming = *params.Streaming
	}
	if params.MaxRetries != nil {
		settings.MaxRetries = *params.MaxRetries
	}
	return settings
}
