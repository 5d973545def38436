package models

import "github.com/crm/backend/internal/domain/settings"

// EmailTemplateModel is the persistence model for an email template.
type EmailTemplateModel struct {
	BaseModel
	Name     string            `gorm:"type:varchar(120);not null;uniqueIndex"`
	Category settings.Category `gorm:"type:varchar(20);not null;index"`
	Subject  string            `gorm:"type:varchar(255);not null"`
	Body     string            `gorm:"type:text;not null"`
	Enabled  bool              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EmailTemplateModel) TableName() string {
	return "email_templates"
}

// ToDomain converts the persistence model to a domain EmailTemplate.
func (m *EmailTemplateModel) ToDomain() *settings.EmailTemplate {
	return &settings.EmailTemplate{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Category:   m.Category,
		Subject:    m.Subject,
		Body:       m.Body,
		Enabled:    m.Enabled,
	}
}

// EmailTemplateModelFromDomain creates a persistence model from a domain EmailTemplate.
func EmailTemplateModelFromDomain(t *settings.EmailTemplate) *EmailTemplateModel {
	m := &EmailTemplateModel{
		Name:     t.Name,
		Category: t.Category,
		Subject:  t.Subject,
		Body:     t.Body,
		Enabled:  t.Enabled,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
