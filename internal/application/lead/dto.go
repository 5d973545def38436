package lead

import (
	"time"

	"github.com/crm/backend/internal/domain/lead"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateEntityInput contains the data for a new lead
type CreateEntityInput struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Country       string
	Language      string
	Campaign      string
	Source        string
	Notes         string
	OwnerID       *uuid.UUID
	AccountTypeID *uuid.UUID
}

// EntityListFilter filters the entity list
type EntityListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Stage    string
	Status   string
	OwnerID  *uuid.UUID
	Campaign string
	Source   string
}

// EntityResponse is the API view of a lead or client
type EntityResponse struct {
	ID            uuid.UUID       `json:"id"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Country       string          `json:"country,omitempty"`
	Language      string          `json:"language,omitempty"`
	Stage         string          `json:"stage"`
	Status        string          `json:"status"`
	OwnerID       *uuid.UUID      `json:"owner_id,omitempty"`
	Campaign      string          `json:"campaign,omitempty"`
	Source        string          `json:"source,omitempty"`
	AccountTypeID *uuid.UUID      `json:"account_type_id,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Credit        decimal.Decimal `json:"credit"`
	Equity        decimal.Decimal `json:"equity"`
	FTD           bool            `json:"ftd"`
	FTDDate       *time.Time      `json:"ftd_date,omitempty"`
	FTDAmount     decimal.Decimal `json:"ftd_amount"`
	FTW           bool            `json:"ftw"`
	FTWDate       *time.Time      `json:"ftw_date,omitempty"`
	LastContactAt *time.Time      `json:"last_contact_at,omitempty"`
	ConvertedAt   *time.Time      `json:"converted_at,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToEntityResponse converts a domain entity to its response
func ToEntityResponse(e *lead.Entity) EntityResponse {
	return EntityResponse{
		ID:            e.ID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		FullName:      e.FullName(),
		Email:         e.Email,
		Phone:         e.Phone,
		Country:       e.Country,
		Language:      e.Language,
		Stage:         string(e.Stage),
		Status:        string(e.Status),
		OwnerID:       e.OwnerID,
		Campaign:      e.Campaign,
		Source:        e.Source,
		AccountTypeID: e.AccountTypeID,
		Balance:       e.Balance,
		Credit:        e.Credit,
		Equity:        e.Equity(),
		FTD:           e.FTD,
		FTDDate:       e.FTDDate,
		FTDAmount:     e.FTDAmount,
		FTW:           e.FTW,
		FTWDate:       e.FTWDate,
		LastContactAt: e.LastContactAt,
		ConvertedAt:   e.ConvertedAt,
		Notes:         e.Notes,
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ImportOptions controls a CSV lead import
type ImportOptions struct {
	Delimiter rune
	// SkipDuplicates drops rows whose email already exists instead of
	// reporting them as errors
	SkipDuplicates bool
	OwnerID        *uuid.UUID
	Campaign       string
	Source         string
}
