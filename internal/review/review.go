package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/redact"
)

// Common errors returned by the review package
var (
	// ErrOutcomeIndex is returned when an index does not address an
	// outcome in the set.
	ErrOutcomeIndex = errors.New("no outcome at index")

	// ErrNotEditable is returned when editing an outcome that did not
	// succeed; there is no generated text to edit.
	ErrNotEditable = errors.New("outcome is not editable")

	// ErrDiscarded is returned when a set is used after Discard.
	ErrDiscarded = errors.New("review set has been discarded")
)

// FieldWriter is the slice of the host collaborator the commit stage
// needs: writing one named field on one record.
type FieldWriter interface {
	UpdateField(ctx context.Context, recordID uuid.UUID, field, text string) error
}

// CommitFailure describes one record whose write failed during commit.
type CommitFailure struct {
	Index    int       `json:"index"`
	RecordID uuid.UUID `json:"record_id"`
	Error    string    `json:"error"`
}

// CommitReport summarizes what a commit actually changed, for the final
// confirmation message.
type CommitReport struct {
	Updated  int             `json:"updated"`
	Failed   int             `json:"failed"`
	Failures []CommitFailure `json:"failures,omitempty"`
}

// Set holds one run's outcomes for review. All mutation goes through
// the Set under its lock; the underlying records are untouched until
// Commit.
type Set struct {
	mu          sync.Mutex
	result      *domain.BatchResult
	targetField string
	writer      FieldWriter
	logger      *slog.Logger
	discarded   bool
}

// NewSet wraps a finished batch result for review. Succeeded outcomes
// arrive pre-approved; review may revoke approval or edit text before
// committing.
func NewSet(result *domain.BatchResult, targetField string, writer FieldWriter, logger *slog.Logger) (*Set, error) {
	if result == nil {
		return nil, errors.New("batch result cannot be nil")
	}
	if targetField == "" {
		return nil, domain.ErrJobTargetFieldEmpty
	}
	if writer == nil {
		return nil, errors.New("field writer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Set{
		result:      result,
		targetField: targetField,
		writer:      writer,
		logger:      logger.With("component", "review_set"),
	}, nil
}

// Outcomes returns the ordered outcomes under review.
func (s *Set) Outcomes() []*domain.RecordOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result.Outcomes
}

// SnapshotOutcomes returns value copies of the outcomes, taken under the
// set's lock so concurrent edits cannot tear a read.
func (s *Set) SnapshotOutcomes() []domain.RecordOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make([]domain.RecordOutcome, len(s.result.Outcomes))
	for i, outcome := range s.result.Outcomes {
		snap[i] = *outcome
	}
	return snap
}

// Edit replaces the generated text of a succeeded outcome. Only the
// in-memory outcome changes; the record is untouched. Editing re-approves
// the outcome, since the user is expressing intent to keep it.
func (s *Set) Edit(index int, newText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discarded {
		return ErrDiscarded
	}
	outcome, err := s.outcome(index)
	if err != nil {
		return err
	}
	if outcome.Status != domain.OutcomeSucceeded {
		return fmt.Errorf("%w: status %s", ErrNotEditable, outcome.Status)
	}

	outcome.Text = newText
	outcome.Approved = true
	return nil
}

// Approve marks a succeeded outcome for commit.
func (s *Set) Approve(index int) error {
	return s.setApproved(index, true)
}

// Unapprove excludes a succeeded outcome from commit.
func (s *Set) Unapprove(index int) error {
	return s.setApproved(index, false)
}

func (s *Set) setApproved(index int, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discarded {
		return ErrDiscarded
	}
	outcome, err := s.outcome(index)
	if err != nil {
		return err
	}
	if outcome.Status != domain.OutcomeSucceeded {
		return fmt.Errorf("%w: status %s", ErrNotEditable, outcome.Status)
	}
	outcome.Approved = approved
	return nil
}

// Commit writes every approved outcome's text into the target field of
// its record, one record at a time. A write failure on one record is
// recorded in the report and does not prevent committing the rest.
// Commit is idempotent: a second call re-applies the same text, which is
// observationally a no-op on the host store.
func (s *Set) Commit(ctx context.Context) (*CommitReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discarded {
		return nil, ErrDiscarded
	}

	report := &CommitReport{}
	for _, outcome := range s.result.Outcomes {
		if outcome.Status != domain.OutcomeSucceeded || !outcome.Approved {
			continue
		}

		if err := s.writer.UpdateField(ctx, outcome.RecordID, s.targetField, outcome.Text); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, CommitFailure{
				Index:    outcome.Index,
				RecordID: outcome.RecordID,
				Error:    redact.Error(err),
			})
			s.logger.Error("commit write failed",
				"record_index", outcome.Index,
				"record_id", outcome.RecordID,
				"error", err)
			continue
		}
		report.Updated++
	}

	s.logger.Info("commit finished",
		"updated", report.Updated,
		"failed", report.Failed)
	return report, nil
}

// Discard releases all outcomes without touching any record. The set is
// unusable afterwards; the host data store is guaranteed unchanged by
// the discarded run.
func (s *Set) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discarded = true
	s.logger.Info("review set discarded", "outcomes", len(s.result.Outcomes))
}

func (s *Set) outcome(index int) (*domain.RecordOutcome, error) {
	if index < 0 || index >= len(s.result.Outcomes) {
		return nil, fmt.Errorf("%w: %d", ErrOutcomeIndex, index)
	}
	return s.result.Outcomes[index], nil
}
