package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

type noteStore interface {
	Create(ctx context.Context, note *models.EnrollmentNote) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentNote, error)
}

type enrollmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

// NoteService appends and lists enrollment notes. Notes are never edited or removed.
type NoteService struct {
	notes       noteStore
	enrollments enrollmentFinder
	validator   *validator.Validate
	now         func() time.Time
}

// NewNoteService constructs the service.
func NewNoteService(notes noteStore, enrollments enrollmentFinder, validate *validator.Validate) *NoteService {
	if validate == nil {
		validate = validator.New()
	}
	return &NoteService{notes: notes, enrollments: enrollments, validator: validate, now: func() time.Time { return time.Now().UTC() }}
}

// Append writes a free-text note authored by actor.
func (s *NoteService) Append(ctx context.Context, enrollmentID string, req dto.CreateNoteRequest, actor *models.JWTClaims) (*models.EnrollmentNote, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	if err := s.ensureEnrollment(ctx, enrollmentID); err != nil {
		return nil, err
	}
	note := &models.EnrollmentNote{
		EnrollmentID: enrollmentID,
		Content:      req.Content,
		AuthorName:   actor.DisplayName(),
		CreatedAt:    s.now(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, appErrors.Internal(err, "failed to append note")
	}
	return note, nil
}

// List returns notes newest first.
func (s *NoteService) List(ctx context.Context, enrollmentID string) ([]models.EnrollmentNote, error) {
	if err := s.ensureEnrollment(ctx, enrollmentID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notes")
	}
	if notes == nil {
		notes = []models.EnrollmentNote{}
	}
	return notes, nil
}

func (s *NoteService) ensureEnrollment(ctx context.Context, id string) error {
	if _, err := s.enrollments.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Internal(err, "failed to load enrollment")
	}
	return nil
}
