package workflow

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

func TestStageName(t *testing.T) {
	assert.Equal(t, "Initial Inquiry", StageName(1))
	assert.Equal(t, "Payment Processing", StageName(5))
	assert.Equal(t, "Enrollment Confirmation", StageName(6))
	assert.Empty(t, StageName(0))
	assert.Empty(t, StageName(7))
	assert.Len(t, Stages(), 6)
}

func TestNewLedger(t *testing.T) {
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	got := NewLedger("enr-1", now)

	want := []models.EnrollmentStep{
		{EnrollmentID: "enr-1", StepNumber: 1, StepName: "Initial Inquiry", Completed: true, CompletedAt: &now},
		{EnrollmentID: "enr-1", StepNumber: 2, StepName: "Counseling Session"},
		{EnrollmentID: "enr-1", StepNumber: 3, StepName: "Document Submission"},
		{EnrollmentID: "enr-1", StepNumber: 4, StepName: "Document Verification"},
		{EnrollmentID: "enr-1", StepNumber: 5, StepName: "Payment Processing"},
		{EnrollmentID: "enr-1", StepNumber: 6, StepName: "Enrollment Confirmation"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ledger mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, LedgerComplete(got))
}

func TestMissingStagesAndDecorate(t *testing.T) {
	steps := []models.EnrollmentStep{{StepNumber: 4}, {StepNumber: 1}, {StepNumber: 2}}
	assert.Equal(t, []int{3, 5, 6}, MissingStages(steps))
	assert.False(t, LedgerComplete(steps))

	decorated := Decorate(steps)
	got := make([]string, 0, len(decorated))
	for _, s := range decorated {
		got = append(got, s.StepName)
	}
	if diff := cmp.Diff([]string{"Initial Inquiry", "Counseling Session", "Document Verification"}, got); diff != "" {
		t.Fatalf("decorated names (-want +got):\n%s", diff)
	}
}

func TestPlanAdvance(t *testing.T) {
	tests := []struct {
		name    string
		current int
		outcome Outcome
		to      int
	}{
		{name: "first stage", current: 1, outcome: OutcomeMoved, to: 2},
		{name: "penultimate", current: 5, outcome: OutcomeMoved, to: 6},
		{name: "terminal", current: 6, outcome: OutcomeAtTerminalStage, to: 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := PlanAdvance(tc.current)
			require.NoError(t, err)
			assert.Equal(t, tc.outcome, plan.Outcome)
			assert.Equal(t, tc.to, plan.To)
			assert.Equal(t, StageName(tc.to), plan.Status())
			assert.Equal(t, tc.outcome == OutcomeMoved, plan.Mutates())
		})
	}

	_, err := PlanAdvance(0)
	require.ErrorIs(t, err, ErrInvalidStage)
}

func TestPlanAdvanceWalk(t *testing.T) {
	current := FirstStage
	var notes []string
	for i := 0; i < 5; i++ {
		plan, err := PlanAdvance(current)
		require.NoError(t, err)
		require.Equal(t, current+1, plan.To)
		notes = append(notes, plan.Note)
		current = plan.To
	}
	require.Equal(t, LastStage, current)
	assert.Equal(t, "Advanced from Initial Inquiry to Counseling Session", notes[0])
	assert.Equal(t, "Advanced from Payment Processing to Enrollment Confirmation", notes[4])

	plan, err := PlanAdvance(current)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAtTerminalStage, plan.Outcome)
	assert.Empty(t, plan.Note)
}

func TestPlanRetreat(t *testing.T) {
	plan, err := PlanRetreat(3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMoved, plan.Outcome)
	assert.Equal(t, 2, plan.To)
	assert.Zero(t, plan.CompleteStep)
	assert.Equal(t, "Moved back from Document Submission to Counseling Session", plan.Note)

	plan, err = PlanRetreat(1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAtInitialStage, plan.Outcome)
	assert.False(t, plan.Mutates())
}

func TestPlanCompletion(t *testing.T) {
	plan, err := PlanCompletion(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.CompleteStep)
	assert.Equal(t, 3, plan.To)
	assert.True(t, plan.MovesPointer())
	assert.Equal(t, "Completed Counseling Session, now at Document Submission", plan.Note)

	plan, err = PlanCompletion(2, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.CompleteStep)
	assert.Equal(t, 2, plan.To)
	assert.False(t, plan.MovesPointer())
	assert.True(t, plan.Mutates())
	assert.Equal(t, "Completed Document Verification", plan.Note)

	plan, err = PlanCompletion(6, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, plan.To)
	assert.False(t, plan.MovesPointer())

	_, err = PlanCompletion(2, 9)
	require.ErrorIs(t, err, ErrInvalidStage)
}
