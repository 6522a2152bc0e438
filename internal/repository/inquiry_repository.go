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
)

const inquiryColumns = `i.id, i.student_name, i.email, i.phone, i.program_id, i.counselor_id, i.lead_source_id, i.status, i.notes, i.action_plan, i.created_by, i.created_at, i.updated_at`

// InquiryRepository persists prospective student inquiries.
type InquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository constructs the repository.
func NewInquiryRepository(db *sqlx.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// Create inserts an inquiry.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inquiry.CreatedAt.IsZero() {
		inquiry.CreatedAt = now
	}
	inquiry.UpdatedAt = inquiry.CreatedAt
	if inquiry.ActionPlan == nil {
		inquiry.ActionPlan = models.ActionPlan{}
	}
	const query = `INSERT INTO inquiries (id, student_name, email, phone, program_id, counselor_id, lead_source_id, status, notes, action_plan, created_by, created_at, updated_at)
VALUES (:id, :student_name, :email, :phone, :program_id, :counselor_id, :lead_source_id, :status, :notes, :action_plan, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// FindByID returns the inquiry with program and counselor names.
func (r *InquiryRepository) FindByID(ctx context.Context, id string) (*models.InquiryDetail, error) {
	query := `SELECT ` + inquiryColumns + `, COALESCE(p.name, '') AS program_name, u.full_name AS counselor_name
FROM inquiries i
LEFT JOIN programs p ON p.id = i.program_id
LEFT JOIN users u ON u.id = i.counselor_id
WHERE i.id = $1`
	var detail models.InquiryDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find inquiry: %w", err)
	}
	return &detail, nil
}

// List returns inquiries matching filter with the total count.
func (r *InquiryRepository) List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		args = append(args, filter.ProgramID)
		conditions = append(conditions, fmt.Sprintf("i.program_id = $%d", len(args)))
	}
	if filter.CounselorID != "" {
		args = append(args, filter.CounselorID)
		conditions = append(conditions, fmt.Sprintf("i.counselor_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(i.student_name) LIKE $%d OR LOWER(i.email) LIKE $%d)", len(args), len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("i.created_at >= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := models.NewPagination(filter.Page, filter.PageSize, 0)
	listQuery := fmt.Sprintf(`SELECT %s, COALESCE(p.name, '') AS program_name, u.full_name AS counselor_name
FROM inquiries i
LEFT JOIN programs p ON p.id = i.program_id
LEFT JOIN users u ON u.id = i.counselor_id%s
ORDER BY i.created_at DESC LIMIT %d OFFSET %d`, inquiryColumns, where, page.PageSize, page.Offset())

	var items []models.InquiryDetail
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM inquiries i`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}
	return items, total, nil
}

// UpdateStatus sets the inquiry status.
func (r *InquiryRepository) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus, updatedAt time.Time) error {
	const query = `UPDATE inquiries SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update inquiry status: %w", err)
	}
	return expectOneRow(result, "update inquiry status")
}

// UpdateActionPlan replaces the task list and status together.
func (r *InquiryRepository) UpdateActionPlan(ctx context.Context, id string, plan models.ActionPlan, status models.InquiryStatus, updatedAt time.Time) error {
	const query = `UPDATE inquiries SET action_plan = $2, status = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, plan, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update inquiry action plan: %w", err)
	}
	return expectOneRow(result, "update inquiry action plan")
}

func expectOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
