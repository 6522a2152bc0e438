package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
	"github.com/noah-isme/campus-admissions-api/pkg/response"
)

type inquiryService interface {
	Create(ctx context.Context, req dto.CreateInquiryRequest, actor *models.JWTClaims) (*models.InquiryDetail, error)
	Get(ctx context.Context, id string) (*models.InquiryDetail, error)
	List(ctx context.Context, query dto.InquiryQuery) ([]models.InquiryDetail, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateInquiryStatusRequest, actor *models.JWTClaims) (*models.InquiryDetail, error)
	ReplaceActionPlan(ctx context.Context, id string, req dto.ReplaceActionPlanRequest, actor *models.JWTClaims) (*models.InquiryDetail, error)
	CompleteTask(ctx context.Context, id, taskID string, actor *models.JWTClaims) (*models.InquiryDetail, error)
}

type inquiryPromoter interface {
	Promote(ctx context.Context, inquiryID string, actor *models.JWTClaims) (*models.EnrollmentDetail, bool, error)
}

// InquiryHandler serves inquiry intake and promotion.
type InquiryHandler struct {
	service  inquiryService
	promoter inquiryPromoter
}

// NewInquiryHandler constructs the handler.
func NewInquiryHandler(svc inquiryService, promoter inquiryPromoter) *InquiryHandler {
	return &InquiryHandler{service: svc, promoter: promoter}
}

// List godoc
// @Summary List inquiries
// @Tags Inquiries
// @Produce json
// @Param status query string false "Inquiry status"
// @Param program_id query string false "Program ID"
// @Param counselor_id query string false "Counselor ID"
// @Param search query string false "Student name search"
// @Param created_from query string false "Created on or after (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /inquiries [get]
func (h *InquiryHandler) List(c *gin.Context) {
	var query dto.InquiryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
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
// @Summary Get inquiry
// @Tags Inquiries
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /inquiries/{id} [get]
func (h *InquiryHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Record inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param payload body dto.CreateInquiryRequest true "Inquiry payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /inquiries [post]
func (h *InquiryHandler) Create(c *gin.Context) {
	var req dto.CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid inquiry payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateStatus godoc
// @Summary Change inquiry status
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param payload body dto.UpdateInquiryStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /inquiries/{id}/status [patch]
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateInquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	item, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// ReplaceActionPlan godoc
// @Summary Replace inquiry action plan
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param payload body dto.ReplaceActionPlanRequest true "Action plan"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /inquiries/{id}/action-plan [put]
func (h *InquiryHandler) ReplaceActionPlan(c *gin.Context) {
	var req dto.ReplaceActionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action plan payload"))
		return
	}
	item, err := h.service.ReplaceActionPlan(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CompleteTask godoc
// @Summary Complete action plan task
// @Tags Inquiries
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param taskId path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /inquiries/{id}/action-plan/{taskId}/complete [post]
func (h *InquiryHandler) CompleteTask(c *gin.Context) {
	item, err := h.service.CompleteTask(c.Request.Context(), c.Param("id"), c.Param("taskId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Promote godoc
// @Summary Promote inquiry to enrollment
// @Description Idempotent: repeated calls return the enrollment created by the first call.
// @Tags Inquiries
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /inquiries/{id}/promote [post]
func (h *InquiryHandler) Promote(c *gin.Context) {
	detail, created, err := h.promoter.Promote(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(c, status, detail, nil, map[string]interface{}{"created": created})
}
