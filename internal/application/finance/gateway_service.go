package finance

import (
	"context"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GatewayService manages payment gateways
type GatewayService struct {
	gatewayRepo finance.GatewayRepository
	logger      *zap.Logger
}

// NewGatewayService creates a new GatewayService
func NewGatewayService(gatewayRepo finance.GatewayRepository, logger *zap.Logger) *GatewayService {
	return &GatewayService{gatewayRepo: gatewayRepo, logger: logger}
}

// List returns all gateways, or only the enabled ones
func (s *GatewayService) List(ctx context.Context, enabledOnly bool) ([]GatewayResponse, error) {
	gateways, err := s.gatewayRepo.FindAll(ctx, enabledOnly)
	if err != nil {
		return nil, err
	}
	items := make([]GatewayResponse, len(gateways))
	for i := range gateways {
		items[i] = ToGatewayResponse(&gateways[i])
	}
	return items, nil
}

// GetByID returns one gateway
func (s *GatewayService) GetByID(ctx context.Context, id uuid.UUID) (*GatewayResponse, error) {
	gateway, err := s.gatewayRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToGatewayResponse(gateway)
	return &response, nil
}

// Create adds a gateway with a unique name
func (s *GatewayService) Create(ctx context.Context, req GatewayRequest) (*GatewayResponse, error) {
	gateway, err := finance.NewGateway(req.toDomain())
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, gateway.Name, nil); err != nil {
		return nil, err
	}
	if err := s.gatewayRepo.Save(ctx, gateway); err != nil {
		s.logger.Error("Failed to save gateway", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Gateway created", zap.String("gateway_id", gateway.ID.String()), zap.String("name", gateway.Name))
	response := ToGatewayResponse(gateway)
	return &response, nil
}

// Update replaces the attributes of a gateway
func (s *GatewayService) Update(ctx context.Context, id uuid.UUID, req GatewayRequest) (*GatewayResponse, error) {
	gateway, err := s.gatewayRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := gateway.Update(req.toDomain()); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, gateway.Name, &gateway.ID); err != nil {
		return nil, err
	}
	if err := s.gatewayRepo.Save(ctx, gateway); err != nil {
		return nil, err
	}
	response := ToGatewayResponse(gateway)
	return &response, nil
}

// Delete removes a gateway no transaction refers to; used gateways can
// only be disabled
func (s *GatewayService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.gatewayRepo.FindByID(ctx, id); err != nil {
		return err
	}
	inUse, err := s.gatewayRepo.IsInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return shared.NewDomainError("INVALID_STATE", "Gateway has transactions; disable it instead")
	}
	if err := s.gatewayRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Gateway deleted", zap.String("gateway_id", id.String()))
	return nil
}

func (s *GatewayService) ensureNameFree(ctx context.Context, name string, excludeID *uuid.UUID) error {
	exists, err := s.gatewayRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A gateway with this name already exists")
	}
	return nil
}
