package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

type inquiryStore interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	FindByID(ctx context.Context, id string) (*models.InquiryDetail, error)
	List(ctx context.Context, filter models.InquiryFilter) ([]models.InquiryDetail, int, error)
	UpdateStatus(ctx context.Context, id string, status models.InquiryStatus, updatedAt time.Time) error
	UpdateActionPlan(ctx context.Context, id string, plan models.ActionPlan, status models.InquiryStatus, updatedAt time.Time) error
}

// InquiryService manages inquiries up to the point they are promoted.
type InquiryService struct {
	repo      inquiryStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewInquiryService constructs the service.
func NewInquiryService(repo inquiryStore, validate *validator.Validate, logger *zap.Logger) *InquiryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InquiryService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Create records a new inquiry with status "new".
func (s *InquiryService) Create(ctx context.Context, req dto.CreateInquiryRequest, actor *models.JWTClaims) (*models.InquiryDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.StudentName = strings.TrimSpace(req.StudentName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inquiry payload")
	}
	now := s.now()
	inquiry := &models.Inquiry{
		StudentName:  req.StudentName,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		ProgramID:    req.ProgramID,
		CounselorID:  req.CounselorID,
		LeadSourceID: req.LeadSourceID,
		Status:       models.InquiryStatusNew,
		Notes:        req.Notes,
		ActionPlan:   buildActionPlan(nil, req.ActionPlan, now),
		CreatedBy:    actor.Stamp(),
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, inquiry); err != nil {
		return nil, appErrors.Internal(err, "failed to create inquiry")
	}
	return s.Get(ctx, inquiry.ID)
}

// Get returns a single inquiry.
func (s *InquiryService) Get(ctx context.Context, id string) (*models.InquiryDetail, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Internal(err, "failed to load inquiry")
	}
	return inquiry, nil
}

// List returns a page of inquiries.
func (s *InquiryService) List(ctx context.Context, query dto.InquiryQuery) ([]models.InquiryDetail, *models.Pagination, error) {
	filter := models.InquiryFilter{
		ProgramID:   query.ProgramID,
		CounselorID: query.CounselorID,
		Status:      models.InquiryStatus(query.Status),
		Search:      query.Search,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown inquiry status")
	}
	from, err := parseDateParam(query.CreatedFrom, "created_from")
	if err != nil {
		return nil, nil, err
	}
	filter.CreatedFrom = from

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list inquiries")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// UpdateStatus changes the inquiry status. "completed" is only set by promotion
// and a completed inquiry can no longer change.
func (s *InquiryService) UpdateStatus(ctx context.Context, id string, req dto.UpdateInquiryStatusRequest, actor *models.JWTClaims) (*models.InquiryDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown inquiry status")
	}
	if req.Status == models.InquiryStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status completed is set by promotion")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.InquiryStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "inquiry already promoted")
	}
	if current.Status == req.Status {
		return current, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		}
		return nil, appErrors.Internal(err, "failed to update inquiry status")
	}
	s.logger.Info("inquiry status changed", zap.String("inquiry_id", id), zap.String("from", string(current.Status)), zap.String("to", string(req.Status)))
	return s.Get(ctx, id)
}

// ReplaceActionPlan swaps the task list. Tasks keep their id and completion
// time when resubmitted with the same id.
func (s *InquiryService) ReplaceActionPlan(ctx context.Context, id string, req dto.ReplaceActionPlanRequest, actor *models.JWTClaims) (*models.InquiryDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid action plan payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	plan := buildActionPlan(current.ActionPlan, req.Tasks, now)
	if err := s.repo.UpdateActionPlan(ctx, id, plan, current.Status, now); err != nil {
		return nil, s.mapUpdateErr(err)
	}
	return s.Get(ctx, id)
}

// CompleteTask marks one action plan task done. The first completed task
// moves a "new" inquiry to "contacted".
func (s *InquiryService) CompleteTask(ctx context.Context, id, taskID string, actor *models.JWTClaims) (*models.InquiryDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, task := range current.ActionPlan {
		if task.ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	if current.ActionPlan[idx].Status == models.TaskCompleted {
		return current, nil
	}

	now := s.now()
	plan := append(models.ActionPlan(nil), current.ActionPlan...)
	plan[idx].Status = models.TaskCompleted
	plan[idx].CompletedAt = &now

	status := current.Status
	if status == models.InquiryStatusNew {
		status = models.InquiryStatusContacted
	}
	if err := s.repo.UpdateActionPlan(ctx, id, plan, status, now); err != nil {
		return nil, s.mapUpdateErr(err)
	}
	return s.Get(ctx, id)
}

func (s *InquiryService) mapUpdateErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
	}
	return appErrors.Internal(err, "failed to update action plan")
}

func buildActionPlan(existing models.ActionPlan, tasks []dto.ActionTaskRequest, now time.Time) models.ActionPlan {
	previous := make(map[string]models.ActionTask, len(existing))
	for _, t := range existing {
		previous[t.ID] = t
	}
	plan := make(models.ActionPlan, 0, len(tasks))
	for _, req := range tasks {
		task := models.ActionTask{ID: req.ID, Title: strings.TrimSpace(req.Title), Status: req.Status}
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if task.Status == "" {
			task.Status = models.TaskPending
		}
		if task.Status == models.TaskCompleted {
			if prev, ok := previous[task.ID]; ok && prev.CompletedAt != nil {
				task.CompletedAt = prev.CompletedAt
			} else {
				ts := now
				task.CompletedAt = &ts
			}
		}
		plan = append(plan, task)
	}
	return plan
}
