package domain

import (
	"github.com/google/uuid"
)

// OutcomeStatus represents the per-record state machine:
// pending → in_flight → {succeeded | failed | skipped}; any → cancelled.
// Cancelled is terminal and is checked before each transition.
type OutcomeStatus string

// Possible outcome status values
const (
	OutcomePending   OutcomeStatus = "pending"
	OutcomeInFlight  OutcomeStatus = "in_flight"
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Terminal reports whether the status is a terminal state.
func (s OutcomeStatus) Terminal() bool {
	switch s {
	case OutcomeSucceeded, OutcomeFailed, OutcomeSkipped, OutcomeCancelled:
		return true
	}
	return false
}

// RecordOutcome holds the result of one generation attempt for one
// record. Generated text lives here, and only here, until the review
// stage commits it; the underlying record is never touched during a run.
type RecordOutcome struct {
	// Index is the record's position in the job's original ordering.
	Index int `json:"index"`

	// RecordID references the host record this outcome belongs to.
	RecordID uuid.UUID `json:"record_id"`

	// Prompt is the fully resolved prompt sent to the provider. Empty
	// for records skipped before resolution succeeded.
	Prompt string `json:"prompt,omitempty"`

	// Text is the generated text for succeeded outcomes, possibly
	// edited during review.
	Text string `json:"text,omitempty"`

	// Status is the outcome's position in the state machine.
	Status OutcomeStatus `json:"status"`

	// ErrKind and ErrMessage describe the failure for failed or skipped
	// outcomes.
	ErrKind    string `json:"error_kind,omitempty"`
	ErrMessage string `json:"error,omitempty"`

	// Approved marks the outcome for commit. Succeeded outcomes are
	// approved by default; review may revoke or re-grant approval.
	Approved bool `json:"approved"`

	// Attempts counts provider request attempts, including retries.
	Attempts int `json:"attempts"`
}

// Counts aggregates terminal outcome states for progress reporting and
// the final summary.
type Counts struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Cancelled int `json:"cancelled"`
}

// Settled returns how many records have reached a terminal state.
func (c Counts) Settled() int {
	return c.Succeeded + c.Failed + c.Skipped + c.Cancelled
}

// Add records one terminal outcome in the aggregate.
func (c *Counts) Add(status OutcomeStatus) {
	switch status {
	case OutcomeSucceeded:
		c.Succeeded++
	case OutcomeFailed:
		c.Failed++
	case OutcomeSkipped:
		c.Skipped++
	case OutcomeCancelled:
		c.Cancelled++
	}
}

// BatchResult is the ordered product of one run: one outcome per input
// record, in input order, plus the aggregate counts. FatalErr is set when
// the run was aborted by a batch-fatal condition (an authentication
// failure) rather than running to completion.
type BatchResult struct {
	Outcomes []*RecordOutcome `json:"outcomes"`
	Counts   Counts           `json:"counts"`
	FatalErr string           `json:"fatal_error,omitempty"`
}

// Succeeded returns the outcomes that completed successfully, in input
// order.
func (b *BatchResult) Succeeded() []*RecordOutcome {
	var out []*RecordOutcome
	for _, o := range b.Outcomes {
		if o.Status == OutcomeSucceeded {
			out = append(out, o)
		}
	}
	return out
}
