package dto

import (
	"time"

	"github.com/noah-isme/campus-admissions-api/internal/models"
)

// UploadDocumentRequest is the form metadata sent with a document file.
type UploadDocumentRequest struct {
	DocumentType models.DocumentType `form:"document_type" validate:"required"`
}

// DocumentResponse enriches metadata with a signed download link.
type DocumentResponse struct {
	models.EnrollmentDocument
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
