package lead

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/fieldkit"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EntityService handles lead and client operations
type EntityService struct {
	entityRepo      lead.EntityRepository
	userRepo        identity.UserRepository
	accountTypeRepo accounttype.Repository
	events          shared.EventPublisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewEntityService creates a new EntityService
func NewEntityService(
	entityRepo lead.EntityRepository,
	userRepo identity.UserRepository,
	accountTypeRepo accounttype.Repository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *EntityService {
	return &EntityService{
		entityRepo:      entityRepo,
		userRepo:        userRepo,
		accountTypeRepo: accountTypeRepo,
		events:          events,
		logger:          logger,
		now:             time.Now,
	}
}

// Fields returns the editable field specs in form order
func (s *EntityService) Fields() []fieldkit.Spec {
	return lead.EditableFields()
}

// Create creates a lead. Without an explicit account type the default one
// is used when configured.
func (s *EntityService) Create(ctx context.Context, input CreateEntityInput) (_ *EntityResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lead", "create")
	defer func() { telemetry.EndSpan(span, err) }()

	entity, err := lead.NewEntity(lead.NewEntityInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Country:   input.Country,
		Language:  input.Language,
		Campaign:  input.Campaign,
		Source:    input.Source,
		Notes:     input.Notes,
	})
	if err != nil {
		return nil, err
	}

	if entity.Email != "" {
		if err := s.ensureEmailFree(ctx, entity.Email); err != nil {
			return nil, err
		}
	}
	if input.OwnerID != nil {
		if err := s.checkOwner(ctx, *input.OwnerID); err != nil {
			return nil, err
		}
		if err := entity.AssignOwner(*input.OwnerID); err != nil {
			return nil, err
		}
	}
	if err := s.applyAccountType(ctx, entity, input.AccountTypeID); err != nil {
		return nil, err
	}

	if err := s.entityRepo.Save(ctx, entity); err != nil {
		s.logger.Error("Failed to save entity", zap.Error(err))
		return nil, err
	}
	s.publish(ctx, entity)

	s.logger.Info("Lead created", zap.String("entity_id", entity.ID.String()))
	response := ToEntityResponse(entity)
	return &response, nil
}

// GetByID returns one entity
func (s *EntityService) GetByID(ctx context.Context, id uuid.UUID) (*EntityResponse, error) {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToEntityResponse(entity)
	return &response, nil
}

// List returns a page of entities
func (s *EntityService) List(ctx context.Context, filter EntityListFilter) ([]EntityResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = min(filter.PageSize, 100)
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Stage != "" {
		domainFilter.Filters["stage"] = filter.Stage
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.OwnerID != nil {
		domainFilter.Filters["owner_id"] = *filter.OwnerID
	}
	if filter.Campaign != "" {
		domainFilter.Filters["campaign"] = filter.Campaign
	}
	if filter.Source != "" {
		domainFilter.Filters["source"] = filter.Source
	}

	entities, err := s.entityRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.entityRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]EntityResponse, len(entities))
	for i := range entities {
		items[i] = ToEntityResponse(&entities[i])
	}
	return items, total, nil
}

// SetField edits one field from raw form input
func (s *EntityService) SetField(ctx context.Context, id uuid.UUID, key, raw string) (*EntityResponse, error) {
	return s.Update(ctx, id, map[string]string{key: raw})
}

// Update applies several raw field edits at once. Either all of them are
// saved or none.
func (s *EntityService) Update(ctx context.Context, id uuid.UUID, fields map[string]string) (*EntityResponse, error) {
	if len(fields) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No fields to update")
	}
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	previousEmail := entity.Email
	for _, key := range keys {
		if err := entity.SetField(key, fields[key]); err != nil {
			return nil, err
		}
	}
	if entity.Email != "" && entity.Email != previousEmail {
		if err := s.ensureEmailFree(ctx, entity.Email); err != nil {
			return nil, err
		}
	}

	return s.save(ctx, entity)
}

// Assign hands the entity to an agent; a nil owner unassigns it
func (s *EntityService) Assign(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (*EntityResponse, error) {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID == nil {
		entity.Unassign()
	} else {
		if err := s.checkOwner(ctx, *ownerID); err != nil {
			return nil, err
		}
		if err := entity.AssignOwner(*ownerID); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, entity)
}

// ChangeStatus moves the sales status
func (s *EntityService) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*EntityResponse, error) {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entity.ChangeStatus(lead.Status(status)); err != nil {
		return nil, err
	}
	return s.save(ctx, entity)
}

// Convert turns a lead into a client
func (s *EntityService) Convert(ctx context.Context, id uuid.UUID) (_ *EntityResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lead", "convert", attribute.String("entity.id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entity.ConvertToClient(s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, entity)
}

// RecordContact stores a contact attempt with an optional status outcome
func (s *EntityService) RecordContact(ctx context.Context, id uuid.UUID, outcome string) (*EntityResponse, error) {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entity.RecordContact(s.now(), lead.Status(outcome)); err != nil {
		return nil, err
	}
	return s.save(ctx, entity)
}

// SetAccountType links the entity to an enabled account type
func (s *EntityService) SetAccountType(ctx context.Context, id, accountTypeID uuid.UUID) (*EntityResponse, error) {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyAccountType(ctx, entity, &accountTypeID); err != nil {
		return nil, err
	}
	return s.save(ctx, entity)
}

// Delete removes a lead. Clients with money on the account are kept.
func (s *EntityService) Delete(ctx context.Context, id uuid.UUID) error {
	entity, err := s.entityRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !entity.Equity().IsZero() {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a client with a non-zero balance or credit")
	}
	if err := s.entityRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete entity", zap.Error(err))
		return err
	}
	entity.AddDomainEvent(lead.NewEntityDeletedEvent(entity))
	s.publish(ctx, entity)

	s.logger.Info("Entity deleted", zap.String("entity_id", id.String()))
	return nil
}

func (s *EntityService) save(ctx context.Context, entity *lead.Entity) (*EntityResponse, error) {
	if err := s.entityRepo.SaveWithLock(ctx, entity); err != nil {
		return nil, err
	}
	s.publish(ctx, entity)
	response := ToEntityResponse(entity)
	return &response, nil
}

func (s *EntityService) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.entityRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A contact with this email already exists")
	}
	return nil
}

func (s *EntityService) checkOwner(ctx context.Context, ownerID uuid.UUID) error {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_INPUT", "Owner does not exist")
		}
		return err
	}
	if owner.Status != identity.StatusActive {
		return shared.NewDomainError("INVALID_INPUT", "Owner account is disabled")
	}
	return nil
}

func (s *EntityService) applyAccountType(ctx context.Context, entity *lead.Entity, id *uuid.UUID) error {
	if id == nil {
		def, err := s.defaultAccountTypeID(ctx)
		if err != nil || def == nil {
			return err
		}
		entity.SetAccountType(*def)
		return nil
	}
	at, err := s.accountTypeRepo.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_INPUT", "Account type does not exist")
		}
		return err
	}
	if !at.Enabled {
		return shared.NewDomainError("INVALID_INPUT", "Account type is disabled")
	}
	entity.SetAccountType(at.ID)
	return nil
}

// defaultAccountTypeID returns nil when no default is configured
func (s *EntityService) defaultAccountTypeID(ctx context.Context) (*uuid.UUID, error) {
	def, err := s.accountTypeRepo.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &def.ID, nil
}

func (s *EntityService) publish(ctx context.Context, entity *lead.Entity) {
	if err := shared.PublishPending(ctx, s.events, entity); err != nil {
		s.logger.Error("Failed to publish entity events", zap.String("entity_id", entity.ID.String()), zap.Error(err))
	}
}
