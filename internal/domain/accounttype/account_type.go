package accounttype

import (
	"context"
	"fmt"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetClass groups tradable instruments
type AssetClass string

const (
	AssetForex       AssetClass = "forex"
	AssetCrypto      AssetClass = "crypto"
	AssetStocks      AssetClass = "stocks"
	AssetIndices     AssetClass = "indices"
	AssetCommodities AssetClass = "commodities"
	AssetMetals      AssetClass = "metals"
)

// AssetClasses lists every asset class
var AssetClasses = []AssetClass{AssetForex, AssetCrypto, AssetStocks, AssetIndices, AssetCommodities, AssetMetals}

// IsValid reports whether c is a known asset class
func (c AssetClass) IsValid() bool {
	for _, known := range AssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

const maxLeverage = 1000

// AssetRule holds the trading conditions of one asset class for an account type
type AssetRule struct {
	ID               uuid.UUID
	AccountTypeID    uuid.UUID
	AssetClass       AssetClass
	Leverage         int
	SpreadMarkup     decimal.Decimal
	CommissionPerLot decimal.Decimal
	// MaxVolume in lots; zero means unlimited
	MaxVolume decimal.Decimal
	Enabled   bool
}

// AssetRuleInput carries the editable attributes of a rule
type AssetRuleInput struct {
	AssetClass       AssetClass
	Leverage         int
	SpreadMarkup     decimal.Decimal
	CommissionPerLot decimal.Decimal
	MaxVolume        decimal.Decimal
	Enabled          bool
}

func (in AssetRuleInput) validate() error {
	if !in.AssetClass.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid asset class %q", in.AssetClass))
	}
	if in.Leverage < 1 || in.Leverage > maxLeverage {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Leverage must be between 1 and %d", maxLeverage))
	}
	if in.SpreadMarkup.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Spread markup cannot be negative")
	}
	if in.CommissionPerLot.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Commission cannot be negative")
	}
	if in.MaxVolume.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Max volume cannot be negative")
	}
	return nil
}

// AccountType is a trading account configuration offered to clients
type AccountType struct {
	shared.BaseAggregateRoot
	Name            string
	Description     string
	Currency        string
	MinDeposit      decimal.Decimal
	DefaultLeverage int
	Enabled         bool
	IsDefault       bool
	Rules           []AssetRule
}

// NewAccountType creates an enabled account type
func NewAccountType(name, currency string, minDeposit decimal.Decimal, leverage int) (*AccountType, error) {
	a := &AccountType{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Enabled:           true,
	}
	if err := a.Update(name, "", currency, minDeposit, leverage); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the basic attributes
func (a *AccountType) Update(name, description, currency string, minDeposit decimal.Decimal, leverage int) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Name is required and cannot exceed 100 characters")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return shared.NewDomainError("INVALID_INPUT", "Currency must be a 3-letter ISO code")
	}
	if minDeposit.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Minimum deposit cannot be negative")
	}
	if leverage < 1 || leverage > maxLeverage {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Leverage must be between 1 and %d", maxLeverage))
	}
	a.Name = name
	a.Description = strings.TrimSpace(description)
	a.Currency = currency
	a.MinDeposit = minDeposit
	a.DefaultLeverage = leverage
	a.Touch()
	return nil
}

// Enable makes the account type available
func (a *AccountType) Enable() {
	a.Enabled = true
	a.Touch()
}

// Disable hides the account type; the default cannot be disabled
func (a *AccountType) Disable() error {
	if a.IsDefault {
		return shared.NewDomainError("INVALID_STATE", "The default account type cannot be disabled")
	}
	a.Enabled = false
	a.Touch()
	return nil
}

// MarkDefault flags this type as the default; callers unset the previous one
func (a *AccountType) MarkDefault() error {
	if !a.Enabled {
		return shared.NewDomainError("INVALID_STATE", "A disabled account type cannot be the default")
	}
	a.IsDefault = true
	a.Touch()
	return nil
}

// UnmarkDefault clears the default flag
func (a *AccountType) UnmarkDefault() {
	a.IsDefault = false
	a.Touch()
}

// UpsertRule creates or replaces the rule for an asset class
func (a *AccountType) UpsertRule(in AssetRuleInput) (*AssetRule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	for i := range a.Rules {
		r := &a.Rules[i]
		if r.AssetClass == in.AssetClass {
			r.Leverage = in.Leverage
			r.SpreadMarkup = in.SpreadMarkup
			r.CommissionPerLot = in.CommissionPerLot
			r.MaxVolume = in.MaxVolume
			r.Enabled = in.Enabled
			a.Touch()
			return r, nil
		}
	}
	a.Rules = append(a.Rules, AssetRule{
		ID:               uuid.New(),
		AccountTypeID:    a.ID,
		AssetClass:       in.AssetClass,
		Leverage:         in.Leverage,
		SpreadMarkup:     in.SpreadMarkup,
		CommissionPerLot: in.CommissionPerLot,
		MaxVolume:        in.MaxVolume,
		Enabled:          in.Enabled,
	})
	a.Touch()
	return &a.Rules[len(a.Rules)-1], nil
}

// RemoveRule deletes the rule of an asset class
func (a *AccountType) RemoveRule(class AssetClass) error {
	for i, r := range a.Rules {
		if r.AssetClass == class {
			a.Rules = append(a.Rules[:i], a.Rules[i+1:]...)
			a.Touch()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("No rule for asset class %q", class))
}

// Rule returns the rule of an asset class
func (a *AccountType) Rule(class AssetClass) (AssetRule, bool) {
	for _, r := range a.Rules {
		if r.AssetClass == class {
			return r, true
		}
	}
	return AssetRule{}, false
}

// CheckTrade verifies that an asset class may be traded with the given
// volume. Asset classes without a rule trade with the type defaults.
func (a *AccountType) CheckTrade(class AssetClass, volume decimal.Decimal) error {
	rule, ok := a.Rule(class)
	if !ok {
		return nil
	}
	if !rule.Enabled {
		return shared.NewDomainError("ASSET_DISABLED", fmt.Sprintf("%s trading is disabled for account type %s", class, a.Name))
	}
	if rule.MaxVolume.IsPositive() && volume.GreaterThan(rule.MaxVolume) {
		return shared.NewDomainError("VOLUME_LIMIT_EXCEEDED",
			fmt.Sprintf("Volume %s exceeds the %s limit of %s lots", volume.String(), class, rule.MaxVolume.String()))
	}
	return nil
}

// LeverageFor returns the leverage applied to an asset class
func (a *AccountType) LeverageFor(class AssetClass) int {
	if rule, ok := a.Rule(class); ok {
		return rule.Leverage
	}
	return a.DefaultLeverage
}

// CommissionFor returns the commission for a volume of an asset class
func (a *AccountType) CommissionFor(class AssetClass, volume decimal.Decimal) decimal.Decimal {
	if rule, ok := a.Rule(class); ok {
		return rule.CommissionPerLot.Mul(volume).Round(2)
	}
	return decimal.Zero
}

// Repository persists account types with their rules
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AccountType, error)
	FindByName(ctx context.Context, name string) (*AccountType, error)
	FindDefault(ctx context.Context) (*AccountType, error)
	FindAll(ctx context.Context) ([]AccountType, error)
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, accountType *AccountType) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearDefault unsets the default flag on every type except keepID
	ClearDefault(ctx context.Context, keepID uuid.UUID) error
	// WithTx runs fn with a repository bound to one transaction
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}
