package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	"github.com/noah-isme/campus-admissions-api/internal/models"
	"github.com/noah-isme/campus-admissions-api/internal/service"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
	"github.com/noah-isme/campus-admissions-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, enrollmentID string, meta dto.UploadDocumentRequest, upload service.DocumentUpload, actor *models.JWTClaims) (*dto.DocumentResponse, error)
	List(ctx context.Context, enrollmentID string) ([]dto.DocumentResponse, error)
	Download(ctx context.Context, token string) (*service.DocumentDownload, error)
}

// DocumentHandler serves enrollment document uploads and signed downloads.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// List godoc
// @Summary List enrollment documents
// @Tags Documents
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Upload godoc
// @Summary Upload enrollment document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param document_type formData string true "TRANSCRIPT, IDENTITY, PHOTO, PAYMENT_PROOF, RECOMMENDATION or OTHER"
// @Param file formData file true "Document file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	var meta dto.UploadDocumentRequest
	if err := c.ShouldBind(&meta); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid document metadata"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read upload"))
		return
	}
	defer file.Close()

	upload := service.DocumentUpload{Filename: header.Filename, Size: header.Size, Content: file}
	doc, err := h.service.Upload(c.Request.Context(), c.Param("id"), meta, upload, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Download godoc
// @Summary Download document via signed token
// @Tags Documents
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /documents/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}
