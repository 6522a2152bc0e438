package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// InquiryStatus tracks a prospective student's contact lifecycle.
type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "new"
	InquiryStatusContacted InquiryStatus = "contacted"
	InquiryStatusFollowUp  InquiryStatus = "follow-up"
	InquiryStatusConverted InquiryStatus = "converted"
	InquiryStatusCompleted InquiryStatus = "completed"
	InquiryStatusLost      InquiryStatus = "lost"
)

// Valid reports whether s is a known inquiry status.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryStatusNew, InquiryStatusContacted, InquiryStatusFollowUp,
		InquiryStatusConverted, InquiryStatusCompleted, InquiryStatusLost:
		return true
	}
	return false
}

// TaskStatus is the state of an action plan task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// ActionTask is one counseling follow-up item.
type ActionTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      TaskStatus `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ActionPlan is the ordered task list stored as JSONB.
type ActionPlan []ActionTask

// Value implements driver.Valuer.
func (p ActionPlan) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *ActionPlan) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = ActionPlan{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("action plan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*p = ActionPlan{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Pending counts tasks not yet completed.
func (p ActionPlan) Pending() int {
	n := 0
	for _, t := range p {
		if t.Status != TaskCompleted {
			n++
		}
	}
	return n
}

// Inquiry is a prospective student's first contact record.
type Inquiry struct {
	ID           string        `db:"id" json:"id"`
	StudentName  string        `db:"student_name" json:"student_name"`
	Email        string        `db:"email" json:"email"`
	Phone        string        `db:"phone" json:"phone"`
	ProgramID    string        `db:"program_id" json:"program_id"`
	CounselorID  *string       `db:"counselor_id" json:"counselor_id,omitempty"`
	LeadSourceID *string       `db:"lead_source_id" json:"lead_source_id,omitempty"`
	Status       InquiryStatus `db:"status" json:"status"`
	Notes        string        `db:"notes" json:"notes"`
	ActionPlan   ActionPlan    `db:"action_plan" json:"action_plan"`
	CreatedBy    string        `db:"created_by" json:"created_by"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// InquiryDetail adds joined reference names.
type InquiryDetail struct {
	Inquiry
	ProgramName   string  `db:"program_name" json:"program_name"`
	CounselorName *string `db:"counselor_name" json:"counselor_name,omitempty"`
}

// InquiryFilter constrains inquiry listings.
type InquiryFilter struct {
	ProgramID   string
	CounselorID string
	Status      InquiryStatus
	Search      string
	CreatedFrom *time.Time
	Page        int
	PageSize    int
}
