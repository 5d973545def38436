package finance

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the money flow a gateway handles
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Gateway is a payment provider used for deposits and withdrawals
type Gateway struct {
	shared.BaseEntity
	Name               string
	Provider           string
	Currencies         []string
	SupportsDeposit    bool
	SupportsWithdrawal bool
	MinAmount          decimal.Decimal
	// MaxAmount of zero means no upper limit
	MaxAmount decimal.Decimal
	Enabled   bool
}

// GatewayInput carries the editable attributes of a gateway
type GatewayInput struct {
	Name               string
	Provider           string
	Currencies         []string
	SupportsDeposit    bool
	SupportsWithdrawal bool
	MinAmount          decimal.Decimal
	MaxAmount          decimal.Decimal
	Enabled            bool
}

// NewGateway creates a gateway
func NewGateway(in GatewayInput) (*Gateway, error) {
	g := &Gateway{BaseEntity: shared.NewBaseEntity()}
	if err := g.Update(in); err != nil {
		return nil, err
	}
	return g, nil
}

// Update replaces the gateway attributes
func (g *Gateway) Update(in GatewayInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Gateway name is required and cannot exceed 100 characters")
	}
	if !in.SupportsDeposit && !in.SupportsWithdrawal {
		return shared.NewDomainError("INVALID_INPUT", "Gateway must support deposits or withdrawals")
	}
	if in.MinAmount.IsNegative() || in.MaxAmount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Gateway limits cannot be negative")
	}
	if in.MaxAmount.IsPositive() && in.MaxAmount.LessThan(in.MinAmount) {
		return shared.NewDomainError("INVALID_INPUT", "Gateway maximum cannot be below its minimum")
	}
	currencies := make([]string, 0, len(in.Currencies))
	for _, c := range in.Currencies {
		c = strings.ToUpper(strings.TrimSpace(c))
		if len(c) != 3 {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid currency %q", c))
		}
		if !slices.Contains(currencies, c) {
			currencies = append(currencies, c)
		}
	}

	g.Name = name
	g.Provider = strings.TrimSpace(in.Provider)
	g.Currencies = currencies
	g.SupportsDeposit = in.SupportsDeposit
	g.SupportsWithdrawal = in.SupportsWithdrawal
	g.MinAmount = in.MinAmount
	g.MaxAmount = in.MaxAmount
	g.Enabled = in.Enabled
	g.Touch()
	return nil
}

// Accepts checks that the gateway can carry an amount in a direction.
// A gateway without currencies accepts any currency.
func (g *Gateway) Accepts(direction Direction, currency string, amount decimal.Decimal) error {
	if !g.Enabled {
		return shared.NewDomainError("GATEWAY_DISABLED", fmt.Sprintf("Gateway %s is disabled", g.Name))
	}
	if direction == DirectionIn && !g.SupportsDeposit {
		return shared.NewDomainError("GATEWAY_UNSUPPORTED", fmt.Sprintf("Gateway %s does not accept deposits", g.Name))
	}
	if direction == DirectionOut && !g.SupportsWithdrawal {
		return shared.NewDomainError("GATEWAY_UNSUPPORTED", fmt.Sprintf("Gateway %s does not pay withdrawals", g.Name))
	}
	if len(g.Currencies) > 0 && !slices.Contains(g.Currencies, strings.ToUpper(currency)) {
		return shared.NewDomainError("GATEWAY_UNSUPPORTED", fmt.Sprintf("Gateway %s does not support %s", g.Name, currency))
	}
	if amount.LessThan(g.MinAmount) {
		return shared.NewDomainError("AMOUNT_OUT_OF_RANGE", fmt.Sprintf("Minimum amount for %s is %s", g.Name, g.MinAmount.StringFixed(2)))
	}
	if g.MaxAmount.IsPositive() && amount.GreaterThan(g.MaxAmount) {
		return shared.NewDomainError("AMOUNT_OUT_OF_RANGE", fmt.Sprintf("Maximum amount for %s is %s", g.Name, g.MaxAmount.StringFixed(2)))
	}
	return nil
}

// GatewayRepository persists gateways
type GatewayRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Gateway, error)
	FindAll(ctx context.Context, enabledOnly bool) ([]Gateway, error)
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, gateway *Gateway) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IsInUse reports whether transactions reference the gateway
	IsInUse(ctx context.Context, id uuid.UUID) (bool, error)
}
