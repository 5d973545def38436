package accounttype

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountTypeService manages account types and their asset rules
type AccountTypeService struct {
	repo       accounttype.Repository
	entityRepo lead.EntityRepository
	logger     *zap.Logger
}

// NewAccountTypeService creates a new AccountTypeService
func NewAccountTypeService(repo accounttype.Repository, entityRepo lead.EntityRepository, logger *zap.Logger) *AccountTypeService {
	return &AccountTypeService{repo: repo, entityRepo: entityRepo, logger: logger}
}

// List returns every account type with its rules
func (s *AccountTypeService) List(ctx context.Context) ([]AccountTypeResponse, error) {
	types, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]AccountTypeResponse, len(types))
	for i := range types {
		items[i] = ToAccountTypeResponse(&types[i])
	}
	return items, nil
}

// GetByID returns one account type
func (s *AccountTypeService) GetByID(ctx context.Context, id uuid.UUID) (*AccountTypeResponse, error) {
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToAccountTypeResponse(at)
	return &response, nil
}

// Create adds an account type. The first one becomes the default.
func (s *AccountTypeService) Create(ctx context.Context, req AccountTypeRequest) (*AccountTypeResponse, error) {
	at, err := accounttype.NewAccountType(req.Name, req.Currency, req.MinDeposit, req.DefaultLeverage)
	if err != nil {
		return nil, err
	}
	if err := at.Update(req.Name, req.Description, req.Currency, req.MinDeposit, req.DefaultLeverage); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(repo accounttype.Repository) error {
		if err := ensureNameFree(ctx, repo, at.Name, nil); err != nil {
			return err
		}
		if _, err := repo.FindDefault(ctx); errors.Is(err, shared.ErrNotFound) {
			if err := at.MarkDefault(); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return repo.Save(ctx, at)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account type created",
		zap.String("account_type_id", at.ID.String()),
		zap.String("name", at.Name),
		zap.Bool("default", at.IsDefault))
	response := ToAccountTypeResponse(at)
	return &response, nil
}

// Update replaces the basic attributes of an account type
func (s *AccountTypeService) Update(ctx context.Context, id uuid.UUID, req AccountTypeRequest) (*AccountTypeResponse, error) {
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := at.Update(req.Name, req.Description, req.Currency, req.MinDeposit, req.DefaultLeverage); err != nil {
		return nil, err
	}
	if err := ensureNameFree(ctx, s.repo, at.Name, &at.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, at); err != nil {
		return nil, err
	}
	response := ToAccountTypeResponse(at)
	return &response, nil
}

// SetDefault makes one account type the default and clears the flag on
// all others in the same transaction
func (s *AccountTypeService) SetDefault(ctx context.Context, id uuid.UUID) (*AccountTypeResponse, error) {
	var at *accounttype.AccountType
	err := s.repo.WithTx(ctx, func(repo accounttype.Repository) error {
		var err error
		at, err = repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := at.MarkDefault(); err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, at.ID); err != nil {
			return err
		}
		return repo.Save(ctx, at)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Default account type changed", zap.String("account_type_id", id.String()))
	response := ToAccountTypeResponse(at)
	return &response, nil
}

// Enable makes an account type selectable again
func (s *AccountTypeService) Enable(ctx context.Context, id uuid.UUID) (*AccountTypeResponse, error) {
	return s.mutate(ctx, id, func(at *accounttype.AccountType) error {
		at.Enable()
		return nil
	})
}

// Disable hides an account type from new assignments
func (s *AccountTypeService) Disable(ctx context.Context, id uuid.UUID) (*AccountTypeResponse, error) {
	return s.mutate(ctx, id, func(at *accounttype.AccountType) error {
		return at.Disable()
	})
}

// UpsertRule creates or replaces the rule of an asset class
func (s *AccountTypeService) UpsertRule(ctx context.Context, id uuid.UUID, assetClass string, req AssetRuleRequest) (*AccountTypeResponse, error) {
	return s.mutate(ctx, id, func(at *accounttype.AccountType) error {
		_, err := at.UpsertRule(accounttype.AssetRuleInput{
			AssetClass:       accounttype.AssetClass(assetClass),
			Leverage:         req.Leverage,
			SpreadMarkup:     req.SpreadMarkup,
			CommissionPerLot: req.CommissionPerLot,
			MaxVolume:        req.MaxVolume,
			Enabled:          req.Enabled,
		})
		return err
	})
}

// RemoveRule drops the rule of an asset class; the type defaults apply again
func (s *AccountTypeService) RemoveRule(ctx context.Context, id uuid.UUID, assetClass string) (*AccountTypeResponse, error) {
	return s.mutate(ctx, id, func(at *accounttype.AccountType) error {
		return at.RemoveRule(accounttype.AssetClass(assetClass))
	})
}

// Delete removes an account type no contact uses. The default cannot be
// deleted.
func (s *AccountTypeService) Delete(ctx context.Context, id uuid.UUID) error {
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if at.IsDefault {
		return shared.NewDomainError("INVALID_STATE", "The default account type cannot be deleted")
	}

	filter := shared.DefaultFilter()
	filter.Filters["account_type_id"] = id
	inUse, err := s.entityRepo.Count(ctx, filter)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return shared.NewDomainError("INVALID_STATE", "Account type is assigned to contacts; disable it instead")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Account type deleted", zap.String("account_type_id", id.String()))
	return nil
}

func (s *AccountTypeService) mutate(ctx context.Context, id uuid.UUID, fn func(at *accounttype.AccountType) error) (*AccountTypeResponse, error) {
	at, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(at); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, at); err != nil {
		return nil, err
	}
	response := ToAccountTypeResponse(at)
	return &response, nil
}

func ensureNameFree(ctx context.Context, repo accounttype.Repository, name string, excludeID *uuid.UUID) error {
	exists, err := repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "An account type with this name already exists")
	}
	return nil
}
