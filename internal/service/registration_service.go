package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	"github.com/noah-isme/campus-admissions-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

// RegistrationCompletedNote is appended when an enrollment is finalized.
const RegistrationCompletedNote = "Registration completed"

type registrationStore interface {
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Registration, error)
	Upsert(ctx context.Context, reg *models.Registration) error
}

type finalizeStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Finalize(ctx context.Context, params repository.FinalizeParams) error
}

// RegistrationServiceConfig tunes finalization.
type RegistrationServiceConfig struct {
	// RequireConfirmedStage rejects finalization before the last stage.
	RequireConfirmedStage bool
}

// RegistrationService stores registration details and closes out enrollments.
type RegistrationService struct {
	registrations registrationStore
	enrollments   finalizeStore
	details       enrollmentDetailReader
	audit         auditLogger
	logger        *zap.Logger
	cfg           RegistrationServiceConfig
	now           func() time.Time
}

// NewRegistrationService constructs the service.
func NewRegistrationService(registrations registrationStore, enrollments finalizeStore, details enrollmentDetailReader, audit auditLogger, logger *zap.Logger, cfg RegistrationServiceConfig) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		registrations: registrations,
		enrollments:   enrollments,
		details:       details,
		audit:         audit,
		logger:        logger,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Get returns stored registration details; an enrollment without any yields empty blobs.
func (s *RegistrationService) Get(ctx context.Context, enrollmentID string) (*models.Registration, error) {
	if _, err := s.loadEnrollment(ctx, enrollmentID); err != nil {
		return nil, err
	}
	reg, err := s.registrations.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Registration{
				EnrollmentID: enrollmentID,
				Personal:     types.JSONText("{}"),
				Academic:     types.JSONText("{}"),
				Payment:      types.JSONText("{}"),
			}, nil
		}
		return nil, appErrors.Internal(err, "failed to load registration")
	}
	return reg, nil
}

// Save upserts the supplied blobs.
func (s *RegistrationService) Save(ctx context.Context, enrollmentID string, req dto.SaveRegistrationRequest, actor *models.JWTClaims) (*models.Registration, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	reg, err := registrationFromRequest(req)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one of personal, academic or payment is required")
	}
	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Registered() {
		return nil, appErrors.ErrFinalized
	}

	reg.EnrollmentID = enrollmentID
	reg.UpdatedBy = actor.Stamp()
	reg.UpdatedAt = s.now()
	if err := s.registrations.Upsert(ctx, reg); err != nil {
		return nil, appErrors.Internal(err, "failed to save registration")
	}
	return s.Get(ctx, enrollmentID)
}

// Finalize saves any pending details and marks the enrollment registered.
// An enrollment that is already registered is returned as is with finalized=false.
func (s *RegistrationService) Finalize(ctx context.Context, enrollmentID string, req dto.FinalizeRegistrationRequest, actor *models.JWTClaims) (detail *models.EnrollmentDetail, finalized bool, err error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	var pending *models.Registration
	if req.Pending != nil {
		if pending, err = registrationFromRequest(*req.Pending); err != nil {
			return nil, false, err
		}
	}

	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, false, err
	}
	if enrollment.Registered() {
		detail, err = s.details.Get(ctx, enrollmentID)
		return detail, false, err
	}
	if s.cfg.RequireConfirmedStage && enrollment.CurrentStep != workflow.LastStage {
		return nil, false, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment must reach "+workflow.StageName(workflow.LastStage)+" before registration")
	}

	at := s.now()
	err = s.enrollments.Finalize(ctx, repository.FinalizeParams{
		EnrollmentID:    enrollmentID,
		ExpectedVersion: enrollment.Version,
		UpdatedBy:       actor.Stamp(),
		Pending:         pending,
		Note:            &models.EnrollmentNote{Content: RegistrationCompletedNote, AuthorName: actor.DisplayName(), CreatedAt: at},
		At:              at,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.ErrConcurrentUpdate
		}
		return nil, false, appErrors.Internal(err, "failed to finalize registration")
	}

	s.details.InvalidatePipeline(ctx)
	if s.audit != nil {
		userID := actor.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionRegistrationFinalize,
			Resource:   "enrollment",
			ResourceID: &enrollmentID,
		}); err != nil {
			s.logger.Warn("failed to record finalize audit log", zap.Error(err))
		}
	}

	detail, err = s.details.Get(ctx, enrollmentID)
	if err != nil {
		return nil, false, err
	}
	return detail, true, nil
}

func (s *RegistrationService) loadEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	return enrollment, nil
}

// registrationFromRequest returns nil when no blob was supplied.
func registrationFromRequest(req dto.SaveRegistrationRequest) (*models.Registration, error) {
	personal, err := jsonBlob(req.Personal, "personal")
	if err != nil {
		return nil, err
	}
	academic, err := jsonBlob(req.Academic, "academic")
	if err != nil {
		return nil, err
	}
	payment, err := jsonBlob(req.Payment, "payment")
	if err != nil {
		return nil, err
	}
	if personal == nil && academic == nil && payment == nil {
		return nil, nil
	}
	return &models.Registration{Personal: personal, Academic: academic, Payment: payment}, nil
}

func jsonBlob(raw json.RawMessage, field string) (types.JSONText, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be a JSON object")
	}
	return types.JSONText(append([]byte(nil), trimmed...)), nil
}
