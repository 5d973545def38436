package settings

import (
	"time"

	"github.com/crm/backend/internal/domain/settings"
	"github.com/google/uuid"
)

// TemplateRequest carries the editable attributes of an email template
type TemplateRequest struct {
	Name     string
	Category string
	Subject  string
	Body     string
	Enabled  bool
}

func (r TemplateRequest) toDomain() settings.TemplateInput {
	return settings.TemplateInput{
		Name:     r.Name,
		Category: settings.Category(r.Category),
		Subject:  r.Subject,
		Body:     r.Body,
		Enabled:  r.Enabled,
	}
}

// PreviewInput selects the contact and extra variables of a preview
type PreviewInput struct {
	EntityID  *uuid.UUID
	Variables map[string]string
}

// TemplateResponse is the API view of an email template
type TemplateResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Enabled      bool      `json:"enabled"`
	Placeholders []string  `json:"placeholders"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToTemplateResponse converts a domain template to its response
func ToTemplateResponse(t *settings.EmailTemplate) TemplateResponse {
	placeholders := t.Placeholders()
	if placeholders == nil {
		placeholders = []string{}
	}
	return TemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		Category:     string(t.Category),
		Subject:      t.Subject,
		Body:         t.Body,
		Enabled:      t.Enabled,
		Placeholders: placeholders,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
