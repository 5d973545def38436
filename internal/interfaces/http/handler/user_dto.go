package handler

import "github.com/crm/backend/internal/interfaces/http/dto"

// CreateUserRequest represents the request body for creating a CRM user
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Role      string `json:"role" binding:"required,oneof=admin manager agent"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

// UpdateUserRequest carries optional changes; absent fields are left alone
type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Role      *string `json:"role" binding:"omitempty,oneof=admin manager agent"`
}

// ResetPasswordRequest sets a new password for another user
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// UserListQuery filters the user list
type UserListQuery struct {
	dto.ListRequest
	Role   string `form:"role" binding:"omitempty,oneof=admin manager agent"`
	Status string `form:"status" binding:"omitempty,oneof=active disabled"`
}
