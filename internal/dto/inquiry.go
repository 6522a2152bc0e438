package dto

import "github.com/noah-isme/campus-admissions-api/internal/models"

// CreateInquiryRequest records a first contact.
type CreateInquiryRequest struct {
	StudentName  string              `json:"student_name" validate:"required,max=200"`
	Email        string              `json:"email" validate:"omitempty,email"`
	Phone        string              `json:"phone" validate:"omitempty,max=40"`
	ProgramID    string              `json:"program_id" validate:"required"`
	CounselorID  *string             `json:"counselor_id"`
	LeadSourceID *string             `json:"lead_source_id"`
	Notes        string              `json:"notes" validate:"max=4000"`
	ActionPlan   []ActionTaskRequest `json:"action_plan" validate:"dive"`
}

// ActionTaskRequest is one task in a submitted action plan. ID is kept when
// replacing an existing plan.
type ActionTaskRequest struct {
	ID     string            `json:"id"`
	Title  string            `json:"title" validate:"required,max=200"`
	Status models.TaskStatus `json:"status" validate:"omitempty,oneof=pending completed"`
}

// ReplaceActionPlanRequest swaps the whole task list.
type ReplaceActionPlanRequest struct {
	Tasks []ActionTaskRequest `json:"tasks" validate:"dive"`
}

// UpdateInquiryStatusRequest changes the contact lifecycle status.
type UpdateInquiryStatusRequest struct {
	Status models.InquiryStatus `json:"status" validate:"required"`
}

// InquiryQuery mirrors the supported listing filters.
type InquiryQuery struct {
	ProgramID   string `form:"program_id"`
	CounselorID string `form:"counselor_id"`
	Status      string `form:"status"`
	Search      string `form:"search"`
	CreatedFrom string `form:"created_from"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}
