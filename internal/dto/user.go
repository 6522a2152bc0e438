package dto

import "github.com/noah-isme/campus-admissions-api/internal/models"

// CreateUserRequest provisions a staff account.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN COUNSELOR REGISTRAR"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
}

// UpdateUserRequest changes the name, role or active flag of a staff account.
// Omitted fields are left as they are.
type UpdateUserRequest struct {
	FullName *string          `json:"full_name" validate:"omitempty,min=1,max=200"`
	Role     *models.UserRole `json:"role" validate:"omitempty,oneof=SUPERADMIN ADMIN COUNSELOR REGISTRAR"`
	Active   *bool            `json:"active"`
}

// UserQuery mirrors the staff listing filters.
type UserQuery struct {
	Role     string `form:"role"`
	Active   *bool  `form:"active"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
