package models

import "time"

// DocumentType classifies uploaded enrollment documents.
type DocumentType string

const (
	DocumentTranscript     DocumentType = "TRANSCRIPT"
	DocumentIdentity       DocumentType = "IDENTITY"
	DocumentPhoto          DocumentType = "PHOTO"
	DocumentPaymentProof   DocumentType = "PAYMENT_PROOF"
	DocumentRecommendation DocumentType = "RECOMMENDATION"
	DocumentOther          DocumentType = "OTHER"
)

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTranscript, DocumentIdentity, DocumentPhoto, DocumentPaymentProof, DocumentRecommendation, DocumentOther:
		return true
	}
	return false
}

// EnrollmentDocument is metadata for a file submitted for an enrollment.
type EnrollmentDocument struct {
	ID           string       `db:"id" json:"id"`
	EnrollmentID string       `db:"enrollment_id" json:"enrollment_id"`
	DocumentType DocumentType `db:"document_type" json:"document_type"`
	FileName     string       `db:"file_name" json:"file_name"`
	FilePath     string       `db:"file_path" json:"-"`
	MimeType     string       `db:"mime_type" json:"mime_type"`
	SizeBytes    int64        `db:"size_bytes" json:"size_bytes"`
	UploadedBy   string       `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
