package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	"github.com/noah-isme/campus-admissions-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

type inquiryFinder interface {
	FindByID(ctx context.Context, id string) (*models.InquiryDetail, error)
}

type promotionStore interface {
	FindByInquiryID(ctx context.Context, inquiryID string) (*models.Enrollment, error)
	Create(ctx context.Context, params repository.CreateEnrollmentParams) error
}

type enrollmentDetailReader interface {
	Get(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	InvalidatePipeline(ctx context.Context)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// PromotionService turns an inquiry into an enrollment at most once.
type PromotionService struct {
	inquiries   inquiryFinder
	enrollments promotionStore
	details     enrollmentDetailReader
	audit       auditLogger
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewPromotionService constructs the service.
func NewPromotionService(inquiries inquiryFinder, enrollments promotionStore, details enrollmentDetailReader, audit auditLogger, metrics *MetricsService, logger *zap.Logger) *PromotionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{
		inquiries:   inquiries,
		enrollments: enrollments,
		details:     details,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Promote returns the enrollment for inquiryID, creating it when none exists.
// created is false when an existing enrollment was returned unchanged.
func (s *PromotionService) Promote(ctx context.Context, inquiryID string, actor *models.JWTClaims) (detail *models.EnrollmentDetail, created bool, err error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}

	if detail, err := s.existing(ctx, inquiryID); err != nil || detail != nil {
		return detail, false, err
	}

	inquiry, err := s.inquiries.FindByID(ctx, inquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, false, appErrors.Internal(err, "failed to load inquiry")
	}

	now := s.now()
	enrollment := &models.Enrollment{
		InquiryID:   &inquiry.ID,
		StudentName: inquiry.StudentName,
		ProgramID:   inquiry.ProgramID,
		CounselorID: inquiry.CounselorID,
		Status:      workflow.StageName(workflow.FirstStage),
		CurrentStep: workflow.FirstStage,
		CreatedBy:   actor.Stamp(),
		CreatedAt:   now,
	}
	err = s.enrollments.Create(ctx, repository.CreateEnrollmentParams{
		Enrollment:    enrollment,
		Steps:         workflow.NewLedger("", now),
		Note:          &models.EnrollmentNote{Content: workflow.PromotionNote(inquiry.ProgramName), AuthorName: actor.DisplayName(), CreatedAt: now},
		InquiryStatus: models.InquiryStatusCompleted,
	})
	if errors.Is(err, repository.ErrInquiryAlreadyPromoted) {
		s.logger.Info("concurrent promotion resolved to existing enrollment", zap.String("inquiry_id", inquiryID))
		detail, err := s.existing(ctx, inquiryID)
		if err == nil && detail == nil {
			err = appErrors.Clone(appErrors.ErrConflict, "inquiry promotion conflicted")
		}
		return detail, false, err
	}
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to promote inquiry")
	}

	s.metrics.RecordPromotion(true)
	s.details.InvalidatePipeline(ctx)
	s.emitAudit(ctx, actor, enrollment)

	detail, err = s.details.Get(ctx, enrollment.ID)
	if err != nil {
		return nil, false, err
	}
	return detail, true, nil
}

func (s *PromotionService) existing(ctx context.Context, inquiryID string) (*models.EnrollmentDetail, error) {
	found, err := s.enrollments.FindByInquiryID(ctx, inquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to look up existing enrollment")
	}
	s.metrics.RecordPromotion(false)
	return s.details.Get(ctx, found.ID)
}

func (s *PromotionService) emitAudit(ctx context.Context, actor *models.JWTClaims, enrollment *models.Enrollment) {
	if s.audit == nil {
		return
	}
	userID := actor.UserID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionInquiryPromote,
		Resource:   "enrollment",
		ResourceID: &enrollment.ID,
		NewValues:  []byte(fmt.Sprintf(`{"inquiry_id":%q}`, *enrollment.InquiryID)),
	}); err != nil {
		s.logger.Warn("failed to record promotion audit log", zap.Error(err))
	}
}
