package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/repository"
	"github.com/noah-isme/campus-admissions-api/internal/workflow"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

// PipelineCacheKey holds the cached pipeline summary.
const PipelineCacheKey = "enrollments:pipeline"

type enrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetail(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ProgramName(ctx context.Context, programID string) (string, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	Create(ctx context.Context, params repository.CreateEnrollmentParams) error
	ApplyTransition(ctx context.Context, params repository.TransitionParams) error
	StageCounts(ctx context.Context) ([]models.StageCount, int, error)
}

type stepReader interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentStep, error)
}

type noteReader interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.EnrollmentNote, error)
}

type ledgerRepairScheduler interface {
	Schedule(enrollmentID string)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// TransitionResult is the refreshed enrollment plus how the request resolved.
// Boundary outcomes carry the unchanged enrollment and are not errors.
type TransitionResult struct {
	Enrollment *models.EnrollmentDetail `json:"enrollment"`
	Outcome    workflow.Outcome         `json:"outcome"`
}

// EnrollmentServiceConfig tunes the enrollment service.
type EnrollmentServiceConfig struct {
	PipelineTTL time.Duration
}

// EnrollmentService runs the stage transition engine and serves enrollment reads.
type EnrollmentService struct {
	enrollments enrollmentStore
	steps       stepReader
	notes       noteReader
	repairs     ledgerRepairScheduler
	cache       summaryCache
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         EnrollmentServiceConfig
	now         func() time.Time
}

// NewEnrollmentService constructs the service. repairs and cache may be nil.
func NewEnrollmentService(enrollments enrollmentStore, steps stepReader, notes noteReader, repairs ledgerRepairScheduler, cache summaryCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg EnrollmentServiceConfig) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.PipelineTTL <= 0 {
		cfg.PipelineTTL = 2 * time.Minute
	}
	return &EnrollmentService{
		enrollments: enrollments,
		steps:       steps,
		notes:       notes,
		repairs:     repairs,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns a page of enrollments.
func (s *EnrollmentService) List(ctx context.Context, query dto.EnrollmentQuery) ([]models.EnrollmentDetail, *models.Pagination, error) {
	filter, err := enrollmentFilterFromQuery(query)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list enrollments")
	}
	for i := range items {
		items[i].Steps = []models.EnrollmentStep{}
		items[i].Notes = []models.EnrollmentNote{}
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns the enrollment with its ledger and notes. An incomplete ledger
// is returned as found and scheduled for repair.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.enrollments.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}

	steps, err := s.steps.ListByEnrollment(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollment steps")
	}
	if !workflow.LedgerComplete(steps) {
		s.logger.Warn("incomplete step ledger", zap.String("enrollment_id", id), zap.Ints("missing", workflow.MissingStages(steps)))
		if s.repairs != nil {
			s.repairs.Schedule(id)
		}
	}
	if steps == nil {
		steps = []models.EnrollmentStep{}
	}
	detail.Steps = workflow.Decorate(steps)

	notes, err := s.notes.ListByEnrollment(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollment notes")
	}
	if notes == nil {
		notes = []models.EnrollmentNote{}
	}
	detail.Notes = notes
	return detail, nil
}

// Create starts an enrollment that has no source inquiry.
func (s *EnrollmentService) Create(ctx context.Context, req dto.CreateEnrollmentRequest, actor *models.JWTClaims) (*models.EnrollmentDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	programName, err := s.enrollments.ProgramName(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Internal(err, "failed to load program")
	}

	now := s.now()
	enrollment := &models.Enrollment{
		StudentName: req.StudentName,
		ProgramID:   req.ProgramID,
		CounselorID: req.CounselorID,
		Status:      workflow.StageName(workflow.FirstStage),
		CurrentStep: workflow.FirstStage,
		CreatedBy:   actor.Stamp(),
		CreatedAt:   now,
	}
	err = s.enrollments.Create(ctx, repository.CreateEnrollmentParams{
		Enrollment: enrollment,
		Steps:      workflow.NewLedger("", now),
		Note:       &models.EnrollmentNote{Content: workflow.CreationNote(programName), AuthorName: actor.DisplayName(), CreatedAt: now},
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create enrollment")
	}
	s.InvalidatePipeline(ctx)
	return s.Get(ctx, enrollment.ID)
}

// Advance moves the enrollment to the next stage.
func (s *EnrollmentService) Advance(ctx context.Context, id string, actor *models.JWTClaims) (*TransitionResult, error) {
	return s.transition(ctx, "advance", id, actor, func(e *models.Enrollment) (workflow.Plan, error) {
		return workflow.PlanAdvance(e.CurrentStep)
	})
}

// Retreat moves the enrollment to the previous stage. Ledger entries keep their completion.
func (s *EnrollmentService) Retreat(ctx context.Context, id string, actor *models.JWTClaims) (*TransitionResult, error) {
	return s.transition(ctx, "retreat", id, actor, func(e *models.Enrollment) (workflow.Plan, error) {
		return workflow.PlanRetreat(e.CurrentStep)
	})
}

// CompleteStep timestamps a ledger entry. Completing the current stage also
// moves the pointer forward; other stages only update the ledger.
func (s *EnrollmentService) CompleteStep(ctx context.Context, id string, step int, actor *models.JWTClaims) (*TransitionResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !workflow.Valid(step) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("step must be between %d and %d", workflow.FirstStage, workflow.LastStage))
	}
	return s.transition(ctx, "complete_step", id, actor, func(e *models.Enrollment) (workflow.Plan, error) {
		return workflow.PlanCompletion(e.CurrentStep, step)
	})
}

func (s *EnrollmentService) transition(ctx context.Context, operation, id string, actor *models.JWTClaims, plan func(*models.Enrollment) (workflow.Plan, error)) (*TransitionResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	if enrollment.Registered() {
		return nil, appErrors.ErrFinalized
	}

	p, err := plan(enrollment)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidStage) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "enrollment stage is out of range")
		}
		return nil, appErrors.Internal(err, "failed to plan transition")
	}

	if p.Mutates() {
		at := s.now()
		err = s.enrollments.ApplyTransition(ctx, repository.TransitionParams{
			EnrollmentID:    enrollment.ID,
			ExpectedVersion: enrollment.Version,
			Status:          p.Status(),
			CurrentStep:     p.To,
			UpdatedBy:       actor.Stamp(),
			CompleteStep:    p.CompleteStep,
			Note:            &models.EnrollmentNote{Content: p.Note, AuthorName: actor.DisplayName(), CreatedAt: at},
			At:              at,
		})
		switch {
		case err == nil:
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.ErrConcurrentUpdate
		case errors.Is(err, repository.ErrStepNotFound):
			if s.repairs != nil {
				s.repairs.Schedule(enrollment.ID)
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment step not found")
		default:
			return nil, appErrors.Internal(err, "failed to apply transition")
		}
		s.InvalidatePipeline(ctx)
		s.logger.Info("enrollment transition",
			zap.String("enrollment_id", enrollment.ID),
			zap.String("operation", operation),
			zap.Int("from", p.From),
			zap.Int("to", p.To),
			zap.String("actor", actor.Stamp()),
		)
	}
	s.metrics.RecordTransition(operation, string(p.Outcome))

	detail, err := s.Get(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Enrollment: detail, Outcome: p.Outcome}, nil
}

// Pipeline counts enrollments per stage. Results are cached until the next
// write; cached reports whether the summary came from the cache.
func (s *EnrollmentService) Pipeline(ctx context.Context) (summary *models.PipelineSummary, cached bool, err error) {
	if s.cache != nil {
		var hit models.PipelineSummary
		if ok, err := s.cache.Get(ctx, PipelineCacheKey, &hit); err == nil && ok {
			return &hit, true, nil
		}
	}

	counts, registered, err := s.enrollments.StageCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to summarise pipeline")
	}
	byStage := make(map[int]int, len(counts))
	for _, c := range counts {
		byStage[c.StepNumber] = c.Count
	}
	summary = &models.PipelineSummary{Registered: registered, Total: registered, GeneratedAt: s.now()}
	for _, stage := range workflow.Stages() {
		n := byStage[stage.Number]
		summary.Stages = append(summary.Stages, models.StageCount{StepNumber: stage.Number, StepName: stage.Name, Count: n})
		summary.Total += n
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, PipelineCacheKey, summary, s.cfg.PipelineTTL); err != nil {
			s.logger.Warn("failed to cache pipeline summary", zap.Error(err))
		}
	}
	return summary, false, nil
}

// InvalidatePipeline drops the cached pipeline summary.
func (s *EnrollmentService) InvalidatePipeline(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, PipelineCacheKey); err != nil {
		s.logger.Warn("failed to invalidate pipeline cache", zap.Error(err))
	}
}

func enrollmentFilterFromQuery(query dto.EnrollmentQuery) (models.EnrollmentFilter, error) {
	filter := models.EnrollmentFilter{
		ProgramID:   query.ProgramID,
		CounselorID: query.CounselorID,
		Status:      query.Status,
		CurrentStep: query.CurrentStep,
		Search:      query.Search,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if query.CurrentStep != 0 && !workflow.Valid(query.CurrentStep) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "current_step must be between 1 and 6")
	}
	switch query.Registered {
	case "":
	case "true":
		v := true
		filter.Registered = &v
	case "false":
		v := false
		filter.Registered = &v
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "registered must be true or false")
	}
	from, err := parseDateParam(query.CreatedFrom, "created_from")
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom = from
	return filter, nil
}

func parseDateParam(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, name+" must be a date (YYYY-MM-DD) or RFC3339 timestamp")
}
