package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

// RegistrationRepository stores per-enrollment registration details.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindByEnrollmentID returns the registration row for an enrollment.
func (r *RegistrationRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Registration, error) {
	const query = `SELECT enrollment_id, COALESCE(personal, '{}') AS personal, COALESCE(academic, '{}') AS academic,
	COALESCE(payment, '{}') AS payment, updated_by, updated_at, completed_at
FROM registrations WHERE enrollment_id = $1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// Upsert writes the supplied blobs; blobs left empty keep their stored value.
func (r *RegistrationRepository) Upsert(ctx context.Context, reg *models.Registration) error {
	return upsertRegistration(ctx, r.db, reg)
}

func upsertRegistration(ctx context.Context, exec sqlx.ExecerContext, reg *models.Registration) error {
	const query = `INSERT INTO registrations (enrollment_id, personal, academic, payment, updated_by, updated_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (enrollment_id) DO UPDATE SET
	personal = COALESCE(EXCLUDED.personal, registrations.personal),
	academic = COALESCE(EXCLUDED.academic, registrations.academic),
	payment = COALESCE(EXCLUDED.payment, registrations.payment),
	updated_by = EXCLUDED.updated_by,
	updated_at = EXCLUDED.updated_at,
	completed_at = COALESCE(registrations.completed_at, EXCLUDED.completed_at)`
	if _, err := exec.ExecContext(ctx, query,
		reg.EnrollmentID,
		nullableJSON(reg.Personal),
		nullableJSON(reg.Academic),
		nullableJSON(reg.Payment),
		reg.UpdatedBy,
		reg.UpdatedAt,
		reg.CompletedAt,
	); err != nil {
		return fmt.Errorf("upsert registration: %w", err)
	}
	return nil
}

func nullableJSON(blob types.JSONText) interface{} {
	if len(blob) == 0 {
		return nil
	}
	return []byte(blob)
}
