package models

import "time"

// StatusRegistered is the terminal status written by registration finalization.
// It sits outside the six-stage name table.
const StatusRegistered = "Registered"

// Enrollment is the six-stage workflow record.
type Enrollment struct {
	ID           string    `db:"id" json:"id"`
	InquiryID    *string   `db:"inquiry_id" json:"inquiry_id,omitempty"`
	StudentName  string    `db:"student_name" json:"student_name"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	CounselorID  *string   `db:"counselor_id" json:"counselor_id,omitempty"`
	Status       string    `db:"status" json:"status"`
	CurrentStep  int       `db:"current_step" json:"current_step"`
	IsRegistered *bool     `db:"is_registered" json:"is_registered"`
	Version      int       `db:"version" json:"version"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	UpdatedBy    *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Registered reports whether the enrollment has been finalized.
func (e Enrollment) Registered() bool {
	return e.IsRegistered != nil && *e.IsRegistered
}

// EnrollmentStep is one ledger entry. StepName is derived from the stage
// table on read and is not persisted.
type EnrollmentStep struct {
	EnrollmentID string     `db:"enrollment_id" json:"-"`
	StepNumber   int        `db:"step_number" json:"step_number"`
	StepName     string     `db:"-" json:"step_name"`
	Completed    bool       `db:"completed" json:"completed"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// EnrollmentNote is an append-only audit note.
type EnrollmentNote struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	Content      string    `db:"content" json:"content"`
	AuthorName   string    `db:"author_name" json:"author_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail is an enrollment with its ledger and notes.
type EnrollmentDetail struct {
	Enrollment
	ProgramName string           `db:"program_name" json:"program_name"`
	Steps       []EnrollmentStep `db:"-" json:"steps"`
	Notes       []EnrollmentNote `db:"-" json:"notes"`
}

// EnrollmentFilter constrains enrollment listings.
type EnrollmentFilter struct {
	ProgramID   string
	CounselorID string
	Status      string
	CurrentStep int
	Registered  *bool
	Search      string
	CreatedFrom *time.Time
	Page        int
	PageSize    int
}

// StageCount is one row of the pipeline summary.
type StageCount struct {
	StepNumber int    `db:"current_step" json:"step_number"`
	StepName   string `db:"-" json:"step_name"`
	Count      int    `db:"total" json:"count"`
}

// PipelineSummary aggregates enrollments per stage.
type PipelineSummary struct {
	Stages      []StageCount `json:"stages"`
	Registered  int          `json:"registered"`
	Total       int          `json:"total"`
	GeneratedAt time.Time    `json:"generated_at"`
}
