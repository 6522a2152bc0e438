// Package workflow holds the canonical enrollment stage table and the pure
// transition rules applied by the enrollment services.
package workflow

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

const (
	FirstStage = 1
	LastStage  = 6
)

// ErrInvalidStage is returned for stage numbers outside [FirstStage, LastStage].
var ErrInvalidStage = errors.New("workflow: stage out of range")

var stageNames = [LastStage + 1]string{
	"",
	"Initial Inquiry",
	"Counseling Session",
	"Document Submission",
	"Document Verification",
	"Payment Processing",
	"Enrollment Confirmation",
}

// Stage is one row of the canonical table.
type Stage struct {
	Number int    `json:"step_number"`
	Name   string `json:"step_name"`
}

// Valid reports whether n names a stage.
func Valid(n int) bool {
	return n >= FirstStage && n <= LastStage
}

// StageName returns the canonical name for n, or "" when n is out of range.
func StageName(n int) string {
	if !Valid(n) {
		return ""
	}
	return stageNames[n]
}

// Stages lists the table in order.
func Stages() []Stage {
	out := make([]Stage, 0, LastStage)
	for n := FirstStage; n <= LastStage; n++ {
		out = append(out, Stage{Number: n, Name: stageNames[n]})
	}
	return out
}

// NewLedger builds the six entries written when an enrollment is created.
// Stage one is already complete at now.
func NewLedger(enrollmentID string, now time.Time) []models.EnrollmentStep {
	ledger := make([]models.EnrollmentStep, 0, LastStage)
	for n := FirstStage; n <= LastStage; n++ {
		step := models.EnrollmentStep{EnrollmentID: enrollmentID, StepNumber: n, StepName: stageNames[n]}
		if n == FirstStage {
			ts := now
			step.Completed = true
			step.CompletedAt = &ts
		}
		ledger = append(ledger, step)
	}
	return ledger
}

// Decorate sorts steps by number and fills in the derived names.
func Decorate(steps []models.EnrollmentStep) []models.EnrollmentStep {
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })
	for i := range steps {
		steps[i].StepName = StageName(steps[i].StepNumber)
	}
	return steps
}

// MissingStages returns the stage numbers absent from steps, in order.
func MissingStages(steps []models.EnrollmentStep) []int {
	seen := make(map[int]struct{}, len(steps))
	for _, s := range steps {
		seen[s.StepNumber] = struct{}{}
	}
	var missing []int
	for n := FirstStage; n <= LastStage; n++ {
		if _, ok := seen[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// LedgerComplete reports whether steps hold exactly one entry per stage.
func LedgerComplete(steps []models.EnrollmentStep) bool {
	if len(steps) != LastStage {
		return false
	}
	return len(MissingStages(steps)) == 0
}

// Outcome classifies the result of a transition request.
type Outcome string

const (
	OutcomeMoved           Outcome = "moved"
	OutcomeCompleted       Outcome = "completed"
	OutcomeAtTerminalStage Outcome = "already_at_terminal_stage"
	OutcomeAtInitialStage  Outcome = "already_at_initial_stage"
)

// Plan describes the writes for one transition. A plan with Outcome at a
// boundary carries no writes.
type Plan struct {
	Outcome Outcome
	From    int
	To      int
	// CompleteStep is the ledger entry to timestamp, zero for none.
	CompleteStep int
	Note         string
}

// Mutates reports whether the plan writes anything.
func (p Plan) Mutates() bool {
	return p.Outcome == OutcomeMoved || p.Outcome == OutcomeCompleted
}

// MovesPointer reports whether the current stage changes.
func (p Plan) MovesPointer() bool {
	return p.Mutates() && p.From != p.To
}

// Status is the enrollment status matching the plan target.
func (p Plan) Status() string {
	return StageName(p.To)
}

// PlanAdvance moves the pointer one stage forward.
func PlanAdvance(current int) (Plan, error) {
	if !Valid(current) {
		return Plan{}, fmt.Errorf("%w: current stage %d", ErrInvalidStage, current)
	}
	if current >= LastStage {
		return Plan{Outcome: OutcomeAtTerminalStage, From: current, To: current}, nil
	}
	next := current + 1
	return Plan{
		Outcome: OutcomeMoved,
		From:    current,
		To:      next,
		Note:    fmt.Sprintf("Advanced from %s to %s", stageNames[current], stageNames[next]),
	}, nil
}

// PlanRetreat moves the pointer one stage back. Ledger entries are untouched.
func PlanRetreat(current int) (Plan, error) {
	if !Valid(current) {
		return Plan{}, fmt.Errorf("%w: current stage %d", ErrInvalidStage, current)
	}
	if current <= FirstStage {
		return Plan{Outcome: OutcomeAtInitialStage, From: current, To: current}, nil
	}
	prev := current - 1
	return Plan{
		Outcome: OutcomeMoved,
		From:    current,
		To:      prev,
		Note:    fmt.Sprintf("Moved back from %s to %s", stageNames[current], stageNames[prev]),
	}, nil
}

// PlanCompletion timestamps step. Completing the current stage also moves the
// pointer to the next stage, capped at LastStage; any other step leaves it alone.
func PlanCompletion(current, step int) (Plan, error) {
	if !Valid(step) {
		return Plan{}, fmt.Errorf("%w: step %d", ErrInvalidStage, step)
	}
	if !Valid(current) {
		return Plan{}, fmt.Errorf("%w: current stage %d", ErrInvalidStage, current)
	}
	plan := Plan{Outcome: OutcomeCompleted, From: current, To: current, CompleteStep: step}
	if step != current {
		plan.Note = fmt.Sprintf("Completed %s", stageNames[step])
		return plan, nil
	}
	next := step + 1
	if next > LastStage {
		next = LastStage
	}
	plan.To = next
	plan.Note = fmt.Sprintf("Completed %s, now at %s", stageNames[step], stageNames[next])
	return plan, nil
}

// CreationNote is the first note written for a new enrollment.
func CreationNote(programName string) string {
	if programName == "" {
		return "Enrollment created at " + stageNames[FirstStage]
	}
	return fmt.Sprintf("Enrollment created for program %s", programName)
}

// PromotionNote is the first note written for an enrollment promoted from an inquiry.
func PromotionNote(programName string) string {
	if programName == "" {
		return "Enrollment created from inquiry"
	}
	return fmt.Sprintf("Enrollment created from inquiry for program %s", programName)
}
