package settings

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/crm/backend/internal/domain/fieldkit"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Category groups templates by purpose
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryOnboarding Category = "onboarding"
	CategoryDeposit    Category = "deposit"
	CategoryWithdrawal Category = "withdrawal"
	CategoryMarketing  Category = "marketing"
	CategoryCompliance Category = "compliance"
)

// Categories lists every template category
var Categories = []Category{CategoryGeneral, CategoryOnboarding, CategoryDeposit, CategoryWithdrawal, CategoryMarketing, CategoryCompliance}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	return slices.Contains(Categories, c)
}

// placeholder matches {{ key }} with optional inner whitespace
var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// EmailTemplate is a reusable message with {{ key }} placeholders
type EmailTemplate struct {
	shared.BaseEntity
	Name     string
	Category Category
	Subject  string
	Body     string
	Enabled  bool
}

// TemplateInput carries the editable attributes of a template
type TemplateInput struct {
	Name     string
	Category Category
	Subject  string
	Body     string
	Enabled  bool
}

// NewEmailTemplate creates a template
func NewEmailTemplate(in TemplateInput) (*EmailTemplate, error) {
	t := &EmailTemplate{BaseEntity: shared.NewBaseEntity()}
	if err := t.Update(in); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the template attributes
func (t *EmailTemplate) Update(in TemplateInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Template name is required and cannot exceed 100 characters")
	}
	category := in.Category
	if category == "" {
		category = CategoryGeneral
	}
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid category %q", in.Category))
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" || len(subject) > 255 {
		return shared.NewDomainError("INVALID_INPUT", "Subject is required and cannot exceed 255 characters")
	}
	if strings.TrimSpace(in.Body) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Body is required")
	}

	t.Name = name
	t.Category = category
	t.Subject = subject
	t.Body = in.Body
	t.Enabled = in.Enabled
	t.Touch()
	return nil
}

// Placeholders lists the distinct keys used in subject and body
func (t *EmailTemplate) Placeholders() []string {
	var keys []string
	for _, text := range []string{t.Subject, t.Body} {
		for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
			if !slices.Contains(keys, m[1]) {
				keys = append(keys, m[1])
			}
		}
	}
	return keys
}

// Rendered is the result of filling a template
type Rendered struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Missing []string `json:"missing,omitempty"`
}

// Render substitutes placeholders. Unknown keys stay verbatim and are
// reported in Missing.
func (t *EmailTemplate) Render(vars map[string]string) Rendered {
	var missing []string
	fill := func(text string) string {
		return placeholder.ReplaceAllStringFunc(text, func(m string) string {
			key := placeholder.FindStringSubmatch(m)[1]
			if v, ok := vars[key]; ok {
				return v
			}
			if !slices.Contains(missing, key) {
				missing = append(missing, key)
			}
			return m
		})
	}
	return Rendered{Subject: fill(t.Subject), Body: fill(t.Body), Missing: missing}
}

// EntityVariables are the standard template variables of a contact
func EntityVariables(e *lead.Entity) map[string]string {
	vars := map[string]string{
		"full_name": e.FullName(),
		"status":    string(e.Status),
		"stage":     string(e.Stage),
	}
	for _, key := range []string{
		lead.FieldFirstName, lead.FieldLastName, lead.FieldEmail, lead.FieldPhone,
		lead.FieldCountry, lead.FieldCampaign, lead.FieldSource,
	} {
		v, _ := e.Value(key)
		vars[key] = fieldkit.Format(fieldkit.KindText, v)
	}
	vars[lead.FieldBalance] = fieldkit.Format(fieldkit.KindMoney, e.Balance)
	vars[lead.FieldCredit] = fieldkit.Format(fieldkit.KindMoney, e.Credit)
	vars[lead.FieldEquity] = fieldkit.Format(fieldkit.KindMoney, e.Equity())
	if e.FTD {
		vars[lead.FieldFTDAmount] = fieldkit.Format(fieldkit.KindMoney, e.FTDAmount)
		vars[lead.FieldFTDDate] = fieldkit.Format(fieldkit.KindDate, e.FTDDate)
	}
	return vars
}

// Preview renders the template for a contact, with extra variables
// taking precedence
func (t *EmailTemplate) Preview(e *lead.Entity, extra map[string]string) Rendered {
	vars := EntityVariables(e)
	for k, v := range extra {
		vars[k] = v
	}
	return t.Render(vars)
}

// TemplateRepository persists email templates
type TemplateRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*EmailTemplate, error)
	FindAll(ctx context.Context, category Category) ([]EmailTemplate, error)
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, template *EmailTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
}
