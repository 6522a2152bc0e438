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

type noteService interface {
	Append(ctx context.Context, enrollmentID string, req dto.CreateNoteRequest, actor *models.JWTClaims) (*models.EnrollmentNote, error)
	List(ctx context.Context, enrollmentID string) ([]models.EnrollmentNote, error)
}

// NoteHandler exposes the enrollment audit note log.
type NoteHandler struct {
	service noteService
}

// NewNoteHandler constructs the handler.
func NewNoteHandler(svc noteService) *NoteHandler {
	return &NoteHandler{service: svc}
}

// List godoc
// @Summary List enrollment notes, newest first
// @Tags Notes
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// Create godoc
// @Summary Append enrollment note
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.CreateNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}
	note, err := h.service.Append(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}
