package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/middleware"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/service"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
	"github.com/noah-isme/campus-admissions-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, query dto.EnrollmentQuery) ([]models.EnrollmentDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Create(ctx context.Context, req dto.CreateEnrollmentRequest, actor *models.JWTClaims) (*models.EnrollmentDetail, error)
	Advance(ctx context.Context, id string, actor *models.JWTClaims) (*service.TransitionResult, error)
	Retreat(ctx context.Context, id string, actor *models.JWTClaims) (*service.TransitionResult, error)
	CompleteStep(ctx context.Context, id string, step int, actor *models.JWTClaims) (*service.TransitionResult, error)
	Pipeline(ctx context.Context) (*models.PipelineSummary, bool, error)
}

type enrollmentExporter interface {
	Export(ctx context.Context, query dto.EnrollmentQuery) (*service.ExportFile, error)
}

// EnrollmentHandler serves the enrollment workflow endpoints.
type EnrollmentHandler struct {
	service  enrollmentService
	exporter enrollmentExporter
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc enrollmentService, exporter enrollmentExporter) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param program_id query string false "Program ID"
// @Param counselor_id query string false "Counselor ID"
// @Param status query string false "Status"
// @Param current_step query int false "Current step (1-6)"
// @Param registered query bool false "Registered flag"
// @Param search query string false "Student name search"
// @Param created_from query string false "Created on or after (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	query, ok := bindEnrollmentQuery(c)
	if !ok {
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get enrollment with ledger and notes
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create enrollment
// @Description Creates a walk-in enrollment with no source inquiry.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Advance godoc
// @Summary Advance to the next stage
// @Description At the last stage the enrollment is returned unchanged with meta.outcome already_at_terminal_stage.
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/advance [post]
func (h *EnrollmentHandler) Advance(c *gin.Context) {
	result, err := h.service.Advance(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	writeTransition(c, result, err)
}

// Retreat godoc
// @Summary Move back to the previous stage
// @Description At the first stage the enrollment is returned unchanged with meta.outcome already_at_initial_stage.
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/retreat [post]
func (h *EnrollmentHandler) Retreat(c *gin.Context) {
	result, err := h.service.Retreat(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	writeTransition(c, result, err)
}

// CompleteStep godoc
// @Summary Mark a ledger step completed
// @Description Completing the current stage also advances the pointer; other stages only update the ledger.
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param step path int true "Step number (1-6)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/steps/{step}/complete [post]
func (h *EnrollmentHandler) CompleteStep(c *gin.Context) {
	step, err := stepParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.CompleteStep(c.Request.Context(), c.Param("id"), step, claimsFromContext(c))
	writeTransition(c, result, err)
}

func writeTransition(c *gin.Context, result *service.TransitionResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Enrollment, nil, map[string]interface{}{"outcome": result.Outcome})
}

// Pipeline godoc
// @Summary Enrollment counts per stage
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/pipeline [get]
func (h *EnrollmentHandler) Pipeline(c *gin.Context) {
	summary, cached, err := h.service.Pipeline(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export enrollment roster
// @Description Accepts the listing filters plus format=csv|pdf.
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	query, ok := bindEnrollmentQuery(c)
	if !ok {
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}

func bindEnrollmentQuery(c *gin.Context) (dto.EnrollmentQuery, bool) {
	var query dto.EnrollmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return query, false
	}
	return query, true
}
