package task

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/review"
)

// RunStatus represents the lifecycle state of a generation run.
type RunStatus string

// Possible run status values
const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Common registry errors
var (
	// ErrRunNotFound indicates the requested run is not in the registry.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotFinished is returned when review operations are attempted
	// on a run that has not settled yet.
	ErrRunNotFinished = errors.New("run has not finished")
)

// Run tracks one generation run from submission through review. All
// access goes through its lock: the executing task writes progress while
// API handlers read snapshots.
type Run struct {
	mu sync.RWMutex

	id          uuid.UUID
	targetField string
	createdAt   time.Time
	startedAt   time.Time
	finishedAt  time.Time

	status          RunStatus
	cancelFunc      func()
	cancelRequested bool

	outcomes []domain.RecordOutcome
	counts   domain.Counts
	fatalErr string
	runErr   string

	review *review.Set
}

// NewRun creates a pending run tracking the given number of records.
func NewRun(id uuid.UUID, targetField string, total int) *Run {
	return &Run{
		id:          id,
		targetField: targetField,
		createdAt:   time.Now().UTC(),
		status:      RunPending,
		outcomes:    make([]domain.RecordOutcome, total),
	}
}

// ID returns the run's unique identifier.
func (r *Run) ID() uuid.UUID {
	return r.id
}

// TargetField returns the field the run will write on commit.
func (r *Run) TargetField() string {
	return r.targetField
}

// Cancel requests cooperative cancellation of the run. Safe to call at
// any time, including before the run starts or after it finished.
func (r *Run) Cancel() {
	r.mu.Lock()
	r.cancelRequested = true
	cancel := r.cancelFunc
	if r.status == RunPending {
		// Never dispatched; settle immediately.
		r.status = RunCancelled
		r.finishedAt = time.Now().UTC()
	}
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// bind attaches the executing task's cancel function. Returns false if
// the run was cancelled before execution began, in which case the task
// must not run.
func (r *Run) bind(cancel func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != RunPending {
		return false
	}
	r.cancelFunc = cancel
	r.status = RunRunning
	r.startedAt = time.Now().UTC()
	return true
}

// recordProgress stores a settled outcome snapshot. It matches the
// batch.ProgressFunc signature and is invoked in input order.
func (r *Run) recordProgress(index int, outcome *domain.RecordOutcome, counts domain.Counts) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index >= 0 && index < len(r.outcomes) {
		r.outcomes[index] = *outcome
	}
	r.counts = counts
}

// complete records the final result and the review set built from it.
func (r *Run) complete(result *domain.BatchResult, set *review.Set) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, outcome := range result.Outcomes {
		if i < len(r.outcomes) {
			r.outcomes[i] = *outcome
		}
	}
	r.counts = result.Counts
	r.review = set
	r.finishedAt = time.Now().UTC()

	switch {
	case result.FatalErr != "":
		r.status = RunFailed
		r.fatalErr = result.FatalErr
	case r.cancelRequested:
		r.status = RunCancelled
	default:
		r.status = RunCompleted
	}
}

// fail marks the run as failed before any outcome settled, e.g. when the
// job spec or provider construction was rejected.
func (r *Run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = RunFailed
	r.runErr = err.Error()
	r.finishedAt = time.Now().UTC()
}

// Review returns the run's review set. Review is only available once
// the run has settled; a run that failed before producing outcomes has
// nothing to review.
func (r *Run) Review() (*review.Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.status == RunPending || r.status == RunRunning {
		return nil, ErrRunNotFinished
	}
	if r.review == nil {
		return nil, ErrRunNotFinished
	}
	return r.review, nil
}

// Snapshot is a point-in-time copy of a run's observable state.
type Snapshot struct {
	ID          uuid.UUID              `json:"id"`
	Status      RunStatus              `json:"status"`
	TargetField string                 `json:"target_field"`
	Outcomes    []domain.RecordOutcome `json:"outcomes"`
	Counts      domain.Counts          `json:"counts"`
	FatalErr    string                 `json:"fatal_error,omitempty"`
	RunErr      string                 `json:"run_error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	FinishedAt  *time.Time             `json:"finished_at,omitempty"`
}

// Snapshot returns a copy of the run's current state for reporting.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		ID:          r.id,
		Status:      r.status,
		TargetField: r.targetField,
		Counts:      r.counts,
		FatalErr:    r.fatalErr,
		RunErr:      r.runErr,
		CreatedAt:   r.createdAt,
	}
	if r.review != nil {
		// Once settled, the review set owns the outcomes: edits go
		// through its lock, so snapshots must read through it too.
		snap.Outcomes = r.review.SnapshotOutcomes()
	} else {
		snap.Outcomes = make([]domain.RecordOutcome, len(r.outcomes))
		copy(snap.Outcomes, r.outcomes)
	}
	if !r.startedAt.IsZero() {
		t := r.startedAt
		snap.StartedAt = &t
	}
	if !r.finishedAt.IsZero() {
		t := r.finishedAt
		snap.FinishedAt = &t
	}
	return snap
}

// Registry is an in-memory index of runs by ID. Run history does not
// survive a restart; uncommitted results are gone, committed field
// writes are already durable in the host store.
type Registry struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*Run
}

// NewRegistry creates an empty run registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[uuid.UUID]*Run)}
}

// Add registers a run.
func (g *Registry) Add(run *Run) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runs[run.ID()] = run
}

// Get returns the run with the given ID.
// Returns ErrRunNotFound if no such run exists.
func (g *Registry) Get(id uuid.UUID) (*Run, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	run, ok := g.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}
