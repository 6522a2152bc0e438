package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
	"github.com/noah-isme/campus-admissions-api/pkg/response"
)

type registrationService interface {
	Get(ctx context.Context, enrollmentID string) (*models.Registration, error)
	Save(ctx context.Context, enrollmentID string, req dto.SaveRegistrationRequest, actor *models.JWTClaims) (*models.Registration, error)
	Finalize(ctx context.Context, enrollmentID string, req dto.FinalizeRegistrationRequest, actor *models.JWTClaims) (*models.EnrollmentDetail, bool, error)
}

// RegistrationHandler serves registration details and finalization.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Get godoc
// @Summary Get registration details
// @Tags Registration
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/registration [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	reg, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// Save godoc
// @Summary Save registration details
// @Description Omitted sections are left unchanged. Rejected once the enrollment is registered.
// @Tags Registration
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.SaveRegistrationRequest true "Registration details"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/registration [put]
func (h *RegistrationHandler) Save(c *gin.Context) {
	var req dto.SaveRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	reg, err := h.service.Save(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// Finalize godoc
// @Summary Finalize registration
// @Description Marks the enrollment registered. Repeating the call returns the enrollment with meta.finalized=false.
// @Tags Registration
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.FinalizeRegistrationRequest false "Pending details"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/registration/finalize [post]
func (h *RegistrationHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid finalize payload"))
		return
	}
	detail, finalized, err := h.service.Finalize(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil, map[string]interface{}{"finalized": finalized})
}
