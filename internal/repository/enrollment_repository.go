package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/pkg/database"
)

// EnrollmentInquiryConstraint is the unique constraint guarding one enrollment
// per inquiry. It is the name Postgres generates for UNIQUE (inquiry_id) and the
// name migrations/0001_init.up.sql declares explicitly.
const EnrollmentInquiryConstraint = "enrollments_inquiry_id_key"

var (
	// ErrInquiryAlreadyPromoted is returned by Create when another enrollment
	// already references the inquiry.
	ErrInquiryAlreadyPromoted = errors.New("inquiry already promoted")
	// ErrStepNotFound is returned when a ledger entry is missing.
	ErrStepNotFound = errors.New("enrollment step not found")
)

const enrollmentColumns = `e.id, e.inquiry_id, e.student_name, e.program_id, e.counselor_id, e.status, e.current_step, e.is_registered, e.version, e.created_by, e.updated_by, e.created_at, e.updated_at`

// EnrollmentRepository persists enrollments and the writes that move them through the workflow.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns the bare enrollment row.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// FindDetail returns the enrollment joined with its program name. Steps and
// notes are loaded separately.
func (r *EnrollmentRepository) FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := `SELECT ` + enrollmentColumns + `, COALESCE(p.name, '') AS program_name
FROM enrollments e
LEFT JOIN programs p ON p.id = e.program_id
WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment detail: %w", err)
	}
	return &detail, nil
}

// FindByInquiryID returns the enrollment promoted from inquiryID.
func (r *EnrollmentRepository) FindByInquiryID(ctx context.Context, inquiryID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.inquiry_id = $1 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, inquiryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment by inquiry: %w", err)
	}
	return &enrollment, nil
}

// ProgramName resolves a program reference.
func (r *EnrollmentRepository) ProgramName(ctx context.Context, programID string) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT name FROM programs WHERE id = $1`, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("find program: %w", err)
	}
	return name, nil
}

// List returns enrollments matching filter with the total count.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		args = append(args, filter.ProgramID)
		conditions = append(conditions, fmt.Sprintf("e.program_id = $%d", len(args)))
	}
	if filter.CounselorID != "" {
		args = append(args, filter.CounselorID)
		conditions = append(conditions, fmt.Sprintf("e.counselor_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filter.CurrentStep > 0 {
		args = append(args, filter.CurrentStep)
		conditions = append(conditions, fmt.Sprintf("e.current_step = $%d", len(args)))
	}
	if filter.Registered != nil {
		if *filter.Registered {
			conditions = append(conditions, "e.is_registered IS TRUE")
		} else {
			conditions = append(conditions, "e.is_registered IS NOT TRUE")
		}
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(e.student_name) LIKE $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("e.created_at >= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := models.NewPagination(filter.Page, filter.PageSize, 0)
	listQuery := fmt.Sprintf(`SELECT %s, COALESCE(p.name, '') AS program_name
FROM enrollments e
LEFT JOIN programs p ON p.id = e.program_id%s
ORDER BY e.created_at DESC LIMIT %d OFFSET %d`, enrollmentColumns, where, page.PageSize, page.Offset())

	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM enrollments e`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return items, total, nil
}

// CreateEnrollmentParams bundles the writes that bring an enrollment into existence.
type CreateEnrollmentParams struct {
	Enrollment *models.Enrollment
	Steps      []models.EnrollmentStep
	Note       *models.EnrollmentNote
	// InquiryStatus, when set, is written to the source inquiry.
	InquiryStatus models.InquiryStatus
}

// Create inserts the enrollment, seeds its ledger when empty, appends the
// creation note and flips the source inquiry, all in one transaction.
func (r *EnrollmentRepository) Create(ctx context.Context, params CreateEnrollmentParams) (err error) {
	enrollment := params.Enrollment
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	enrollment.UpdatedAt = enrollment.CreatedAt
	if enrollment.Version == 0 {
		enrollment.Version = 1
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO enrollments (id, inquiry_id, student_name, program_id, counselor_id, status, current_step, is_registered, version, created_by, updated_by, created_at, updated_at)
VALUES (:id, :inquiry_id, :student_name, :program_id, :counselor_id, :status, :current_step, :is_registered, :version, :created_by, :updated_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		if database.IsUniqueViolation(err, EnrollmentInquiryConstraint) {
			return ErrInquiryAlreadyPromoted
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}

	var existing int
	if err = tx.GetContext(ctx, &existing, `SELECT COUNT(*) FROM enrollment_steps WHERE enrollment_id = $1`, enrollment.ID); err != nil {
		return fmt.Errorf("count enrollment steps: %w", err)
	}
	if existing == 0 {
		for i := range params.Steps {
			params.Steps[i].EnrollmentID = enrollment.ID
		}
		if err = insertSteps(ctx, tx, params.Steps, false); err != nil {
			return err
		}
	}

	if params.Note != nil {
		params.Note.EnrollmentID = enrollment.ID
		if err = insertNote(ctx, tx, params.Note); err != nil {
			return err
		}
	}

	if params.InquiryStatus != "" && enrollment.InquiryID != nil {
		const flipQuery = `UPDATE inquiries SET status = $2, updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, flipQuery, *enrollment.InquiryID, params.InquiryStatus, enrollment.CreatedAt); err != nil {
			return fmt.Errorf("update inquiry status: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment transaction: %w", err)
	}
	return nil
}

// TransitionParams describes one version-guarded workflow write.
type TransitionParams struct {
	EnrollmentID    string
	ExpectedVersion int
	Status          string
	CurrentStep     int
	UpdatedBy       string
	// CompleteStep is the ledger entry to timestamp, zero for none.
	CompleteStep int
	Note         *models.EnrollmentNote
	At           time.Time
}

// ApplyTransition updates the enrollment pointer, optionally completes a
// ledger entry, and appends a note in a single transaction. It returns
// sql.ErrNoRows when the version no longer matches or the enrollment is registered.
func (r *EnrollmentRepository) ApplyTransition(ctx context.Context, params TransitionParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE enrollments
SET status = $3, current_step = $4, updated_by = $5, updated_at = $6, version = version + 1
WHERE id = $1 AND version = $2 AND is_registered IS NOT TRUE`
	result, err := tx.ExecContext(ctx, updateQuery, params.EnrollmentID, params.ExpectedVersion, params.Status, params.CurrentStep, params.UpdatedBy, params.At)
	if err != nil {
		return fmt.Errorf("update enrollment stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("enrollment stage rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if params.CompleteStep > 0 {
		const stepQuery = `UPDATE enrollment_steps SET completed = TRUE, completed_at = COALESCE(completed_at, $3)
WHERE enrollment_id = $1 AND step_number = $2`
		result, err = tx.ExecContext(ctx, stepQuery, params.EnrollmentID, params.CompleteStep, params.At)
		if err != nil {
			return fmt.Errorf("complete enrollment step: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("enrollment step rows affected: %w", err)
		}
		if rows == 0 {
			return ErrStepNotFound
		}
	}

	if params.Note != nil {
		params.Note.EnrollmentID = params.EnrollmentID
		if params.Note.CreatedAt.IsZero() {
			params.Note.CreatedAt = params.At
		}
		if err = insertNote(ctx, tx, params.Note); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transition transaction: %w", err)
	}
	return nil
}

// FinalizeParams describes the registration close-out write.
type FinalizeParams struct {
	EnrollmentID    string
	ExpectedVersion int
	UpdatedBy       string
	Pending         *models.Registration
	Note            *models.EnrollmentNote
	At              time.Time
}

// Finalize saves pending registration details, marks the enrollment
// registered and stamps the registration completion in one transaction.
// It returns sql.ErrNoRows on a version mismatch.
func (r *EnrollmentRepository) Finalize(ctx context.Context, params FinalizeParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	pending := params.Pending
	if pending == nil {
		pending = &models.Registration{}
	}
	pending.EnrollmentID = params.EnrollmentID
	pending.UpdatedBy = params.UpdatedBy
	pending.UpdatedAt = params.At
	completedAt := params.At
	pending.CompletedAt = &completedAt
	if err = upsertRegistration(ctx, tx, pending); err != nil {
		return err
	}

	const updateQuery = `UPDATE enrollments
SET is_registered = TRUE, status = $3, updated_by = $4, updated_at = $5, version = version + 1
WHERE id = $1 AND version = $2`
	result, err := tx.ExecContext(ctx, updateQuery, params.EnrollmentID, params.ExpectedVersion, models.StatusRegistered, params.UpdatedBy, params.At)
	if err != nil {
		return fmt.Errorf("finalize enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if params.Note != nil {
		params.Note.EnrollmentID = params.EnrollmentID
		if params.Note.CreatedAt.IsZero() {
			params.Note.CreatedAt = params.At
		}
		if err = insertNote(ctx, tx, params.Note); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize transaction: %w", err)
	}
	return nil
}

// StageCounts returns the number of open enrollments per current stage and
// the number already registered.
func (r *EnrollmentRepository) StageCounts(ctx context.Context) ([]models.StageCount, int, error) {
	const countsQuery = `SELECT current_step, COUNT(*) AS total
FROM enrollments
WHERE is_registered IS NOT TRUE
GROUP BY current_step
ORDER BY current_step`
	var counts []models.StageCount
	if err := r.db.SelectContext(ctx, &counts, countsQuery); err != nil {
		return nil, 0, fmt.Errorf("count enrollments by stage: %w", err)
	}
	var registered int
	if err := r.db.GetContext(ctx, &registered, `SELECT COUNT(*) FROM enrollments WHERE is_registered IS TRUE`); err != nil {
		return nil, 0, fmt.Errorf("count registered enrollments: %w", err)
	}
	return counts, registered, nil
}
