package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

// EnrollmentStepRepository reads and repairs step ledgers.
type EnrollmentStepRepository struct {
	db *sqlx.DB
}

// NewEnrollmentStepRepository constructs the repository.
func NewEnrollmentStepRepository(db *sqlx.DB) *EnrollmentStepRepository {
	return &EnrollmentStepRepository{db: db}
}

// ListByEnrollment returns the ledger ordered by step number.
func (r *EnrollmentStepRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentStep, error) {
	const query = `SELECT enrollment_id, step_number, completed, completed_at
FROM enrollment_steps
WHERE enrollment_id = $1
ORDER BY step_number ASC`
	var steps []models.EnrollmentStep
	if err := r.db.SelectContext(ctx, &steps, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment steps: %w", err)
	}
	return steps, nil
}

// InsertMissing writes steps, skipping any step number that already exists.
func (r *EnrollmentStepRepository) InsertMissing(ctx context.Context, steps []models.EnrollmentStep) error {
	return insertSteps(ctx, r.db, steps, true)
}

func insertSteps(ctx context.Context, exec sqlx.ExecerContext, steps []models.EnrollmentStep, skipExisting bool) error {
	if len(steps) == 0 {
		return nil
	}
	var query strings.Builder
	query.WriteString("INSERT INTO enrollment_steps (enrollment_id, step_number, completed, completed_at) VALUES ")
	args := make([]interface{}, 0, len(steps)*4)
	for i, step := range steps {
		if i > 0 {
			query.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&query, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, step.EnrollmentID, step.StepNumber, step.Completed, step.CompletedAt)
	}
	if skipExisting {
		query.WriteString(" ON CONFLICT (enrollment_id, step_number) DO NOTHING")
	}
	if _, err := exec.ExecContext(ctx, query.String(), args...); err != nil {
		return fmt.Errorf("insert enrollment steps: %w", err)
	}
	return nil
}
