package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

// DocumentRepository stores enrollment document metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts document metadata together with its audit note.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.EnrollmentDocument, note *models.EnrollmentNote) (err error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO enrollment_documents (id, enrollment_id, document_type, file_name, file_path, mime_type, size_bytes, uploaded_by, created_at)
VALUES (:id, :enrollment_id, :document_type, :file_name, :file_path, :mime_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if note != nil {
		note.EnrollmentID = doc.EnrollmentID
		if err = insertNote(ctx, tx, note); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document transaction: %w", err)
	}
	return nil
}

// FindByID returns a document by id.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentDocument, error) {
	const query = `SELECT id, enrollment_id, document_type, file_name, file_path, mime_type, size_bytes, uploaded_by, created_at
FROM enrollment_documents WHERE id = $1`
	var doc models.EnrollmentDocument
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &doc, nil
}

// ListByEnrollment returns the documents for an enrollment, newest first.
func (r *DocumentRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentDocument, error) {
	const query = `SELECT id, enrollment_id, document_type, file_name, file_path, mime_type, size_bytes, uploaded_by, created_at
FROM enrollment_documents WHERE enrollment_id = $1 ORDER BY created_at DESC`
	var docs []models.EnrollmentDocument
	if err := r.db.SelectContext(ctx, &docs, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}
