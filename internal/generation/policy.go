package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Pacer is the shared spacing clock for one run. Every request attempt,
// across all concurrent workers, reserves a start slot at least the
// configured delay after the previous slot. The delay is applied before
// the first attempt too: it is a provider rate-limit control, not a
// congestion signal, so the spacing is fixed rather than adaptive.
type Pacer struct {
	mu    sync.Mutex
	delay time.Duration
	next  time.Time
}

// NewPacer creates a Pacer enforcing the given minimum spacing. A zero
// or negative delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks until the caller's reserved start slot arrives or ctx is
// cancelled. Slots are handed out under the mutex, so no two concurrent
// callers can violate the minimum spacing.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now) {
		p.next = now
	}
	p.next = p.next.Add(p.delay)
	target := p.next
	p.mu.Unlock()

	wait := time.Until(target)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Policy wraps a single provider invocation with a per-attempt timeout,
// bounded retries on retryable errors, and the shared inter-request
// delay. Non-retryable errors propagate immediately without consuming a
// retry.
type Policy struct {
	timeout    time.Duration
	maxRetries int
	pacer      *Pacer
	logger     *slog.Logger
}

// NewPolicy creates a retry/timeout policy. maxRetries is the number of
// additional attempts after the first; negative values are treated as
// zero. pacer must be shared by every policy execution belonging to the
// same run.
func NewPolicy(timeout time.Duration, maxRetries int, pacer *Pacer, logger *slog.Logger) *Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if pacer == nil {
		pacer = NewPacer(0)
	}
	return &Policy{
		timeout:    timeout,
		maxRetries: maxRetries,
		pacer:      pacer,
		logger:     logger.With("component", "retry_policy"),
	}
}

// Execute runs fn under the policy and returns the generated text along
// with the number of attempts consumed. Retries use the same fixed delay
// as the initial spacing; exhausting the retry budget returns the last
// error observed.
func (p *Policy) Execute(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := p.pacer.Wait(ctx); err != nil {
			if attempts == 0 {
				return "", attempts, err
			}
			return "", attempts, fmt.Errorf("%w: %v", lastErr, err)
		}

		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.timeout)
		}

		attempts++
		p.logger.Debug("provider attempt starting",
			"attempt", attempts,
			"max_attempts", p.maxRetries+1)

		text, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return text, attempts, nil
		}

		// A deadline on the attempt context is this policy's timeout;
		// fold it into the taxonomy so the retry decision is uniform.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w: attempt exceeded %s", ErrTimeout, p.timeout)
		}
		lastErr = err

		// The enclosing run was cancelled; stop immediately.
		if ctx.Err() != nil {
			return "", attempts, ctx.Err()
		}

		if !Retryable(err) {
			p.logger.Debug("non-retryable provider error",
				"attempt", attempts,
				"error_kind", ErrKind(err))
			return "", attempts, err
		}

		p.logger.Info("retryable provider error",
			"attempt", attempts,
			"max_attempts", p.maxRetries+1,
			"error_kind", ErrKind(err))
	}

	return "", attempts, fmt.Errorf("retries exhausted after %d attempts: %w", attempts, lastErr)
}
