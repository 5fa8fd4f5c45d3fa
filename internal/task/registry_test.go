package task

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/review"
)

func TestRegistryAddAndGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	run := NewRun(uuid.New(), "Back", 3)
	reg.Add(run)

	got, err := reg.Get(run.ID())
	require.NoError(t, err)
	assert.Same(t, run, got)
}

func TestRegistryGetUnknownRun(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := reg.Get(uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunSnapshotIsPending(t *testing.T) {
	t.Parallel()

	run := NewRun(uuid.New(), "Back", 2)
	snap := run.Snapshot()

	assert.Equal(t, RunPending, snap.Status)
	assert.Equal(t, "Back", snap.TargetField)
	assert.Len(t, snap.Outcomes, 2)
	assert.Nil(t, snap.StartedAt)
	assert.Nil(t, snap.FinishedAt)
}

func TestRunCancelBeforeStart(t *testing.T) {
	t.Parallel()

	run := NewRun(uuid.New(), "Back", 2)
	run.Cancel()

	snap := run.Snapshot()
	assert.Equal(t, RunCancelled, snap.Status)
	assert.NotNil(t, snap.FinishedAt)

	assert.False(t, run.bind(func() {}), "a cancelled run must refuse to start")
}

func TestRunReviewBeforeFinish(t *testing.T) {
	t.Parallel()

	run := NewRun(uuid.New(), "Back", 1)
	_, err := run.Review()
	assert.ErrorIs(t, err, ErrRunNotFinished)

	require.True(t, run.bind(func() {}))
	_, err = run.Review()
	assert.ErrorIs(t, err, ErrRunNotFinished)
}

func TestRunCompleteFatalResult(t *testing.T) {
	t.Parallel()

	run := NewRun(uuid.New(), "Back", 2)
	require.True(t, run.bind(func() {}))

	result := &domain.BatchResult{
		Outcomes: []*domain.RecordOutcome{
			{
				Index:      0,
				RecordID:   uuid.New(),
				Status:     domain.OutcomeFailed,
				ErrKind:    "auth",
				ErrMessage: "authentication failed: status 401",
				Attempts:   1,
			},
			{Index: 1, RecordID: uuid.New(), Status: domain.OutcomeCancelled},
		},
		Counts:   domain.Counts{Failed: 1, Cancelled: 1},
		FatalErr: "authentication failed: status 401",
	}
	set, err := review.NewSet(result, "Back", newMockWriter(), testLogger())
	require.NoError(t, err)

	run.complete(result, set)

	snap := run.Snapshot()
	assert.Equal(t, RunFailed, snap.Status)
	assert.Equal(t, "authentication failed: status 401", snap.FatalErr)
	assert.Equal(t, domain.Counts{Failed: 1, Cancelled: 1}, snap.Counts)
	assert.NotNil(t, snap.FinishedAt)
}

func TestRunProgressSnapshotIsolation(t *testing.T) {
	t.Parallel()

	run := NewRun(uuid.New(), "Back", 2)
	require.True(t, run.bind(func() {}))

	outcome := &domain.RecordOutcome{
		Index:    0,
		RecordID: uuid.New(),
		Status:   domain.OutcomeSucceeded,
		Text:     "bonjour",
	}
	counts := domain.Counts{Succeeded: 1}
	run.recordProgress(0, outcome, counts)

	snap := run.Snapshot()
	assert.Equal(t, RunRunning, snap.Status)
	assert.Equal(t, "bonjour", snap.Outcomes[0].Text)
	assert.Equal(t, 1, snap.Counts.Succeeded)

	// Mutating the snapshot must not leak back into the run.
	snap.Outcomes[0].Text = "mutated"
	assert.Equal(t, "bonjour", run.Snapshot().Outcomes[0].Text)
}
