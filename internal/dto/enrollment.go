package dto

import "encoding/json"

// CreateEnrollmentRequest creates an enrollment without a source inquiry.
type CreateEnrollmentRequest struct {
	StudentName string  `json:"student_name" validate:"required,max=200"`
	ProgramID   string  `json:"program_id" validate:"required"`
	CounselorID *string `json:"counselor_id"`
}

// EnrollmentQuery mirrors the supported listing filters.
type EnrollmentQuery struct {
	ProgramID   string `form:"program_id"`
	CounselorID string `form:"counselor_id"`
	Status      string `form:"status"`
	CurrentStep int    `form:"current_step"`
	Registered  string `form:"registered"`
	Search      string `form:"search"`
	CreatedFrom string `form:"created_from"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	Format      string `form:"format"`
}

// CreateNoteRequest appends a free-text audit note.
type CreateNoteRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// SaveRegistrationRequest carries registration blobs; omitted blobs are left unchanged.
type SaveRegistrationRequest struct {
	Personal json.RawMessage `json:"personal"`
	Academic json.RawMessage `json:"academic"`
	Payment  json.RawMessage `json:"payment"`
}

// Empty reports whether no blob was supplied.
func (r SaveRegistrationRequest) Empty() bool {
	return len(r.Personal) == 0 && len(r.Academic) == 0 && len(r.Payment) == 0
}

// FinalizeRegistrationRequest optionally carries details still pending at finalization.
type FinalizeRegistrationRequest struct {
	Pending *SaveRegistrationRequest `json:"pending"`
}
