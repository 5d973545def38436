package accounttype

import (
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStandard(t *testing.T) *AccountType {
	t.Helper()
	a, err := NewAccountType(" Standard ", "usd", decimal.NewFromInt(100), 100)
	require.NoError(t, err)
	return a
}

func TestNewAccountType(t *testing.T) {
	a := newStandard(t)
	assert.Equal(t, "Standard", a.Name)
	assert.Equal(t, "USD", a.Currency)
	assert.True(t, a.Enabled)
	assert.False(t, a.IsDefault)

	_, err := NewAccountType("", "USD", decimal.Zero, 100)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewAccountType("VIP", "US", decimal.Zero, 100)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewAccountType("VIP", "USD", decimal.NewFromInt(-1), 100)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewAccountType("VIP", "USD", decimal.Zero, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAccountType_UpsertRule(t *testing.T) {
	a := newStandard(t)
	rule, err := a.UpsertRule(AssetRuleInput{AssetClass: AssetCrypto, Leverage: 5, MaxVolume: decimal.NewFromInt(2), Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, a.ID, rule.AccountTypeID)

	_, err = a.UpsertRule(AssetRuleInput{AssetClass: AssetCrypto, Leverage: 10, Enabled: true})
	require.NoError(t, err)
	require.Len(t, a.Rules, 1, "asset class stays unique")
	assert.Equal(t, 10, a.Rules[0].Leverage)

	_, err = a.UpsertRule(AssetRuleInput{AssetClass: "bonds", Leverage: 1})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = a.UpsertRule(AssetRuleInput{AssetClass: AssetForex, Leverage: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = a.UpsertRule(AssetRuleInput{AssetClass: AssetForex, Leverage: 1, SpreadMarkup: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, a.RemoveRule(AssetCrypto))
	assert.Empty(t, a.Rules)
	assert.ErrorIs(t, a.RemoveRule(AssetCrypto), shared.ErrNotFound)
}

func TestAccountType_CheckTrade(t *testing.T) {
	a := newStandard(t)
	_, err := a.UpsertRule(AssetRuleInput{AssetClass: AssetCrypto, Leverage: 2, MaxVolume: decimal.NewFromInt(1), Enabled: true})
	require.NoError(t, err)
	_, err = a.UpsertRule(AssetRuleInput{AssetClass: AssetStocks, Leverage: 1, Enabled: false})
	require.NoError(t, err)
	_, err = a.UpsertRule(AssetRuleInput{AssetClass: AssetForex, Leverage: 100, Enabled: true, CommissionPerLot: decimal.NewFromInt(7)})
	require.NoError(t, err)

	assert.NoError(t, a.CheckTrade(AssetCrypto, decimal.NewFromInt(1)))
	assert.Error(t, a.CheckTrade(AssetCrypto, decimal.RequireFromString("1.01")))
	assert.Error(t, a.CheckTrade(AssetStocks, decimal.RequireFromString("0.1")))
	assert.NoError(t, a.CheckTrade(AssetForex, decimal.NewFromInt(500)), "zero max volume is unlimited")
	assert.NoError(t, a.CheckTrade(AssetMetals, decimal.NewFromInt(1)), "no rule means defaults")

	assert.Equal(t, 2, a.LeverageFor(AssetCrypto))
	assert.Equal(t, 100, a.LeverageFor(AssetMetals))
	assert.True(t, a.CommissionFor(AssetForex, decimal.RequireFromString("0.5")).Equal(decimal.RequireFromString("3.5")))
}

func TestAccountType_Default(t *testing.T) {
	a := newStandard(t)
	require.NoError(t, a.MarkDefault())
	assert.ErrorIs(t, a.Disable(), shared.ErrInvalidState)

	a.UnmarkDefault()
	require.NoError(t, a.Disable())
	assert.ErrorIs(t, a.MarkDefault(), shared.ErrInvalidState)
}
