package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

// EnrollmentNoteRepository stores the append-only audit notes. There is no
// update or delete path.
type EnrollmentNoteRepository struct {
	db *sqlx.DB
}

// NewEnrollmentNoteRepository constructs the repository.
func NewEnrollmentNoteRepository(db *sqlx.DB) *EnrollmentNoteRepository {
	return &EnrollmentNoteRepository{db: db}
}

// Create appends a note.
func (r *EnrollmentNoteRepository) Create(ctx context.Context, note *models.EnrollmentNote) error {
	return insertNote(ctx, r.db, note)
}

// ListByEnrollment returns notes newest first. Notes sharing a timestamp are
// ordered by insertion sequence.
func (r *EnrollmentNoteRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentNote, error) {
	const query = `SELECT id, enrollment_id, content, author_name, created_at
FROM enrollment_notes
WHERE enrollment_id = $1
ORDER BY created_at DESC, seq DESC`
	var notes []models.EnrollmentNote
	if err := r.db.SelectContext(ctx, &notes, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment notes: %w", err)
	}
	return notes, nil
}

func insertNote(ctx context.Context, exec sqlx.ExecerContext, note *models.EnrollmentNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollment_notes (id, enrollment_id, content, author_name, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := exec.ExecContext(ctx, query, note.ID, note.EnrollmentID, note.Content, note.AuthorName, note.CreatedAt); err != nil {
		return fmt.Errorf("insert enrollment note: %w", err)
	}
	return nil
}
