package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/events"
	"github.com/phrazzld/omniprompt/internal/generation"
	"github.com/phrazzld/omniprompt/internal/prompt"
	"github.com/phrazzld/omniprompt/internal/redact"
)

// ProgressFunc is invoked after each record settles, in input order,
// with the settled outcome and the aggregate counts so far. It is the
// run's single observable side effect.
type ProgressFunc func(index int, outcome *domain.RecordOutcome, counts domain.Counts)

// Config holds orchestrator tuning knobs.
type Config struct {
	// Workers bounds how many records may be in flight concurrently.
	// Values below 1 are treated as 1. The shared pacer still enforces
	// the minimum spacing between requests across all workers.
	Workers int
}

// DefaultConfig returns a Config with sequential dispatch, matching the
// pipeline's conservative default.
func DefaultConfig() Config {
	return Config{Workers: 1}
}

// Orchestrator runs one batch generation job. It owns the per-record
// state machine (pending → in_flight → {succeeded|failed|skipped}; any →
// cancelled) and guarantees that outcomes are written by exactly one
// worker each.
type Orchestrator struct {
	runID     uuid.UUID
	generator generation.Generator
	policy    *generation.Policy
	emitter   events.Emitter
	logger    *slog.Logger
	config    Config
}

// New creates an Orchestrator for a single run.
func New(
	runID uuid.UUID,
	generator generation.Generator,
	policy *generation.Policy,
	emitter events.Emitter,
	logger *slog.Logger,
	config Config,
) (*Orchestrator, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if policy == nil {
		return nil, errors.New("policy cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("emitter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	return &Orchestrator{
		runID:     runID,
		generator: generator,
		policy:    policy,
		emitter:   emitter,
		logger:    logger.With("component", "batch_orchestrator", "run_id", runID),
		config:    config,
	}, nil
}

// Run processes every record in the spec and returns the ordered batch
// result. Cancellation is cooperative: once ctx is done or a fatal auth
// error is observed, no new record is dispatched; in-flight requests are
// awaited and their outcomes recorded, never committed (commit is a
// separate, explicit stage). Run never mutates any record.
func (o *Orchestrator) Run(ctx context.Context, spec *domain.JobSpec, onProgress ProgressFunc) (*domain.BatchResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	total := len(spec.Records)
	result := &domain.BatchResult{
		Outcomes: make([]*domain.RecordOutcome, total),
	}
	for i, rec := range spec.Records {
		result.Outcomes[i] = &domain.RecordOutcome{
			Index:    i,
			RecordID: rec.ID,
			Status:   domain.OutcomePending,
		}
	}

	o.emitRunEvent(ctx, events.KindRunStart)
	o.logger.Info("batch run starting",
		"records", total,
		"workers", o.config.Workers,
		"provider", spec.Settings.Provider,
		"streaming", spec.Settings.Streaming)

	// fatalErr is set at most once, by the worker that observes an auth
	// failure; the dispatcher gate reads it before issuing new work.
	var fatal atomic.Bool
	var fatalErr atomic.Value

	workCh := make(chan int)
	settledCh := make(chan *domain.RecordOutcome)

	// Dispatcher: issues indices in input order until done, cancelled,
	// or aborted. Records it never issues remain pending and are
	// finalized as cancelled below.
	go func() {
		defer close(workCh)
		for i := 0; i < total; i++ {
			if ctx.Err() != nil || fatal.Load() {
				return
			}
			select {
			case workCh <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := o.config.Workers
	if workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				outcome := result.Outcomes[i]
				o.processRecord(ctx, spec, spec.Records[i], outcome)
				if outcome.Status == domain.OutcomeFailed && outcome.ErrKind == "auth" {
					if fatal.CompareAndSwap(false, true) {
						fatalErr.Store(outcome.ErrMessage)
					}
				}
				settledCh <- outcome
			}
		}()
	}

	go func() {
		wg.Wait()
		close(settledCh)
	}()

	// Reporter: re-establishes input order before invoking onProgress,
	// regardless of the order workers settle in. Dispatched indices
	// always form a prefix of the input, so buffering by index is
	// sufficient.
	pending := make(map[int]*domain.RecordOutcome)
	next := 0
	report := func(outcome *domain.RecordOutcome) {
		result.Counts.Add(outcome.Status)
		o.emitOutcomeEvent(ctx, outcome)
		if onProgress != nil {
			onProgress(outcome.Index, outcome, result.Counts)
		}
	}

	for outcome := range settledCh {
		pending[outcome.Index] = outcome
		for {
			buffered, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			report(buffered)
			next++
		}
	}

	// Finalize the undispatched tail as cancelled, still in order.
	for ; next < total; next++ {
		outcome := result.Outcomes[next]
		outcome.Status = domain.OutcomeCancelled
		report(outcome)
	}

	if fatal.Load() {
		if msg, ok := fatalErr.Load().(string); ok {
			result.FatalErr = msg
		}
	}

	o.emitRunEvent(ctx, events.KindRunEnd)
	o.logger.Info("batch run finished",
		"succeeded", result.Counts.Succeeded,
		"failed", result.Counts.Failed,
		"skipped", result.Counts.Skipped,
		"cancelled", result.Counts.Cancelled,
		"fatal", result.FatalErr != "")

	return result, nil
}

// processRecord takes one record through the state machine. It is the
// only writer of the outcome it is handed.
func (o *Orchestrator) processRecord(
	ctx context.Context,
	spec *domain.JobSpec,
	rec *domain.Record,
	outcome *domain.RecordOutcome,
) {
	if ctx.Err() != nil {
		outcome.Status = domain.OutcomeCancelled
		return
	}

	resolved, err := prompt.Resolve(spec.Template, rec)
	if err != nil {
		var missing *prompt.FieldMissingError
		if errors.As(err, &missing) {
			outcome.Status = domain.OutcomeSkipped
			outcome.ErrKind = "field_missing"
			outcome.ErrMessage = err.Error()
			o.logger.Warn("record skipped, template field missing",
				"record_index", outcome.Index,
				"field", missing.Field)
			return
		}
		outcome.Status = domain.OutcomeSkipped
		outcome.ErrKind = "resolve"
		outcome.ErrMessage = err.Error()
		return
	}
	outcome.Prompt = resolved

	outcome.Status = domain.OutcomeInFlight

	attempt := 0
	text, attempts, err := o.policy.Execute(ctx, func(attemptCtx context.Context) (string, error) {
		attempt++
		if attempt > 1 {
			o.emitAttemptEvent(ctx, events.KindRetry, outcome.Index, attempt, nil)
		}
		o.emitAttemptEvent(ctx, events.KindRequestStart, outcome.Index, attempt, nil)

		var text string
		var genErr error
		if spec.Settings.Streaming {
			stream, streamErr := o.generator.GenerateStream(attemptCtx, resolved)
			if streamErr != nil {
				genErr = streamErr
			} else {
				text, genErr = generation.Collect(attemptCtx, stream)
			}
		} else {
			text, genErr = o.generator.Generate(attemptCtx, resolved)
		}

		o.emitAttemptEvent(ctx, events.KindRequestEnd, outcome.Index, attempt, genErr)
		return text, genErr
	})
	outcome.Attempts = attempts

	switch {
	case err == nil:
		outcome.Status = domain.OutcomeSucceeded
		outcome.Text = text
		outcome.Approved = true
	case ctx.Err() != nil:
		outcome.Status = domain.OutcomeCancelled
	default:
		outcome.Status = domain.OutcomeFailed
		outcome.ErrKind = generation.ErrKind(err)
		outcome.ErrMessage = redact.Error(err)
	}
}

func (o *Orchestrator) emitRunEvent(ctx context.Context, kind string) {
	o.emitter.EmitEvent(ctx, events.NewGenerationEvent(o.runID, kind, -1))
}

func (o *Orchestrator) emitOutcomeEvent(ctx context.Context, outcome *domain.RecordOutcome) {
	event := events.NewGenerationEvent(o.runID, events.KindOutcome, outcome.Index)
	event.Status = string(outcome.Status)
	event.ErrKind = outcome.ErrKind
	event.Attempt = outcome.Attempts
	o.emitter.EmitEvent(ctx, event)
}

func (o *Orchestrator) emitAttemptEvent(ctx context.Context, kind string, index, attempt int, err error) {
	event := events.NewGenerationEvent(o.runID, kind, index)
	event.Attempt = attempt
	event.ErrKind = generation.ErrKind(err)
	o.emitter.EmitEvent(ctx, event)
}
