package handler

import "github.com/crm/backend/internal/interfaces/http/dto"

// CreateEntityRequest represents the request body for creating a lead.
// Field values are normalized by the domain, so the binding tags only
// bound sizes.
type CreateEntityRequest struct {
	FirstName     string `json:"first_name" binding:"required,max=100"`
	LastName      string `json:"last_name" binding:"max=100"`
	Email         string `json:"email" binding:"max=254"`
	Phone         string `json:"phone" binding:"max=50"`
	Country       string `json:"country" binding:"max=100"`
	Language      string `json:"language" binding:"max=50"`
	Campaign      string `json:"campaign" binding:"max=100"`
	Source        string `json:"source" binding:"max=100"`
	Notes         string `json:"notes" binding:"max=2000"`
	OwnerID       string `json:"owner_id" binding:"omitempty,uuid"`
	AccountTypeID string `json:"account_type_id" binding:"omitempty,uuid"`
}

// UpdateEntityRequest sets several fields at once, keyed by field key
type UpdateEntityRequest struct {
	Fields map[string]string `json:"fields" binding:"required,min=1"`
}

// SetFieldRequest sets a single field from raw user input
type SetFieldRequest struct {
	Key   string `json:"key" binding:"required,max=64"`
	Value string `json:"value" binding:"max=2000"`
}

// AssignEntityRequest changes the owning agent; an empty owner unassigns
type AssignEntityRequest struct {
	OwnerID string `json:"owner_id" binding:"omitempty,uuid"`
}

// ChangeStatusRequest sets the sales status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new no_answer call_back interested not_interested converted"`
}

// RecordContactRequest logs a contact attempt with an optional outcome
type RecordContactRequest struct {
	Outcome string `json:"outcome" binding:"omitempty,oneof=new no_answer call_back interested not_interested converted"`
}

// SetAccountTypeRequest links the entity to an account type
type SetAccountTypeRequest struct {
	AccountTypeID string `json:"account_type_id" binding:"required,uuid"`
}

// EntityListQuery filters the entity list
type EntityListQuery struct {
	dto.ListRequest
	Stage    string `form:"stage" binding:"omitempty,oneof=lead client"`
	Status   string `form:"status"`
	OwnerID  string `form:"owner_id" binding:"omitempty,uuid"`
	Campaign string `form:"campaign"`
	Source   string `form:"source"`
}

// ImportLeadsForm is the multipart form of a CSV lead import
type ImportLeadsForm struct {
	Delimiter      string `form:"delimiter" binding:"omitempty,len=1"`
	SkipDuplicates bool   `form:"skip_duplicates"`
	OwnerID        string `form:"owner_id" binding:"omitempty,uuid"`
	Campaign       string `form:"campaign" binding:"max=100"`
	Source         string `form:"source" binding:"max=100"`
}
