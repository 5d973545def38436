package settings

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/settings"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateService manages email templates
type TemplateService struct {
	repo       settings.TemplateRepository
	entityRepo lead.EntityRepository
	logger     *zap.Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(repo settings.TemplateRepository, entityRepo lead.EntityRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{repo: repo, entityRepo: entityRepo, logger: logger}
}

// List returns the templates of a category, or all when category is empty
func (s *TemplateService) List(ctx context.Context, category string) ([]TemplateResponse, error) {
	if category != "" && !settings.Category(category).IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown template category")
	}
	templates, err := s.repo.FindAll(ctx, settings.Category(category))
	if err != nil {
		return nil, err
	}
	items := make([]TemplateResponse, len(templates))
	for i := range templates {
		items[i] = ToTemplateResponse(&templates[i])
	}
	return items, nil
}

// GetByID returns one template
func (s *TemplateService) GetByID(ctx context.Context, id uuid.UUID) (*TemplateResponse, error) {
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTemplateResponse(tmpl)
	return &response, nil
}

// Create adds a template with a unique name
func (s *TemplateService) Create(ctx context.Context, req TemplateRequest) (*TemplateResponse, error) {
	tmpl, err := settings.NewEmailTemplate(req.toDomain())
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, tmpl.Name, nil); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, tmpl); err != nil {
		s.logger.Error("Failed to save email template", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Email template created", zap.String("template_id", tmpl.ID.String()), zap.String("name", tmpl.Name))
	response := ToTemplateResponse(tmpl)
	return &response, nil
}

// Update replaces a template
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, req TemplateRequest) (*TemplateResponse, error) {
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tmpl.Update(req.toDomain()); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, tmpl.Name, &tmpl.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, tmpl); err != nil {
		return nil, err
	}
	response := ToTemplateResponse(tmpl)
	return &response, nil
}

// Delete removes a template
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Email template deleted", zap.String("template_id", id.String()))
	return nil
}

// Preview renders a template, filled with a contact's variables when one is
// given. Placeholders without a value are returned in Missing.
func (s *TemplateService) Preview(ctx context.Context, id uuid.UUID, input PreviewInput) (*settings.Rendered, error) {
	tmpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.EntityID == nil {
		rendered := tmpl.Render(input.Variables)
		return &rendered, nil
	}

	entity, err := s.entityRepo.FindByID(ctx, *input.EntityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_INPUT", "Contact does not exist")
		}
		return nil, err
	}
	rendered := tmpl.Preview(entity, input.Variables)
	return &rendered, nil
}

func (s *TemplateService) ensureNameFree(ctx context.Context, name string, excludeID *uuid.UUID) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A template with this name already exists")
	}
	return nil
}
