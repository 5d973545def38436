package trading

import (
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func openEURUSD(t *testing.T, side Side) *Position {
	t.Helper()
	p, err := Open(OpenInput{
		EntityID:   uuid.New(),
		Symbol:     "eurusd",
		AssetClass: accounttype.AssetForex,
		Side:       side,
		Volume:     d("0.5"),
		OpenPrice:  d("1.1000"),
	}, nil)
	require.NoError(t, err)
	return p
}

func TestOpen(t *testing.T) {
	p := openEURUSD(t, SideBuy)
	assert.Equal(t, "EURUSD", p.Symbol)
	assert.True(t, p.ContractSize.Equal(d("100000")))
	assert.Equal(t, StatusOpen, p.Status)
	assert.Equal(t, 1, p.Leverage)
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, EventTypePositionOpened, p.GetDomainEvents()[0].EventType())
}

func TestOpen_Validation(t *testing.T) {
	base := OpenInput{EntityID: uuid.New(), Symbol: "BTCUSD", AssetClass: accounttype.AssetCrypto, Side: SideBuy, Volume: d("1"), OpenPrice: d("60000")}

	tests := []struct {
		name   string
		mutate func(in *OpenInput)
	}{
		{"no client", func(in *OpenInput) { in.EntityID = uuid.Nil }},
		{"no symbol", func(in *OpenInput) { in.Symbol = " " }},
		{"bad asset", func(in *OpenInput) { in.AssetClass = "bonds" }},
		{"bad side", func(in *OpenInput) { in.Side = "hold" }},
		{"zero volume", func(in *OpenInput) { in.Volume = decimal.Zero }},
		{"negative price", func(in *OpenInput) { in.OpenPrice = d("-1") }},
		{"buy stop above open", func(in *OpenInput) { in.StopLoss = dp("61000") }},
		{"buy target below open", func(in *OpenInput) { in.TakeProfit = dp("59000") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := Open(in, nil)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestOpen_AccountTypeRules(t *testing.T) {
	at, err := accounttype.NewAccountType("Standard", "USD", decimal.Zero, 100)
	require.NoError(t, err)
	_, err = at.UpsertRule(accounttype.AssetRuleInput{AssetClass: accounttype.AssetCrypto, Leverage: 2, MaxVolume: d("1"), CommissionPerLot: d("10"), Enabled: true})
	require.NoError(t, err)
	_, err = at.UpsertRule(accounttype.AssetRuleInput{AssetClass: accounttype.AssetStocks, Leverage: 1})
	require.NoError(t, err)

	in := OpenInput{EntityID: uuid.New(), Symbol: "BTCUSD", AssetClass: accounttype.AssetCrypto, Side: SideBuy, Volume: d("0.5"), OpenPrice: d("60000")}
	p, err := Open(in, at)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Leverage)
	assert.True(t, p.Commission.Equal(d("5")))

	in.Volume = d("2")
	_, err = Open(in, at)
	assert.Error(t, err)

	in.AssetClass = accounttype.AssetStocks
	in.Volume = d("1")
	_, err = Open(in, at)
	assert.Error(t, err)
}

func TestPnL(t *testing.T) {
	buy := openEURUSD(t, SideBuy)
	// (1.1050 - 1.1000) * 0.5 * 100000 = 250
	assert.True(t, buy.PnL(d("1.1050")).Equal(d("250")))

	sell := openEURUSD(t, SideSell)
	assert.True(t, sell.PnL(d("1.1050")).Equal(d("-250")))

	buy.Commission = d("3.5")
	buy.Swap = d("-1.25")
	assert.True(t, buy.PnL(d("1.1050")).Equal(d("245.25")))
}

func TestUpdatePrice_TriggersExits(t *testing.T) {
	p := openEURUSD(t, SideBuy)
	require.NoError(t, p.SetExits(dp("1.0950"), dp("1.1100")))

	reason, err := p.UpdatePrice(d("1.1020"))
	require.NoError(t, err)
	assert.Empty(t, reason)
	assert.True(t, p.FloatingPnL().Equal(d("100")))

	reason, err = p.UpdatePrice(d("1.0940"))
	require.NoError(t, err)
	assert.Equal(t, CloseStopLoss, reason)

	sell := openEURUSD(t, SideSell)
	require.NoError(t, sell.SetExits(nil, dp("1.0900")))
	reason, err = sell.UpdatePrice(d("1.0899"))
	require.NoError(t, err)
	assert.Equal(t, CloseTakeProfit, reason)

	_, err = p.UpdatePrice(decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestClose(t *testing.T) {
	p := openEURUSD(t, SideSell)
	p.ClearDomainEvents()
	at := time.Now()

	pnl, err := p.Close(d("1.0900"), "", at)
	require.NoError(t, err)
	assert.True(t, pnl.Equal(d("500")))
	assert.True(t, p.IsClosed())
	assert.Equal(t, CloseManual, p.CloseReason)
	assert.True(t, p.FloatingPnL().Equal(d("500")))
	require.Len(t, p.GetDomainEvents(), 1)
	assert.Equal(t, EventTypePositionClosed, p.GetDomainEvents()[0].EventType())

	_, err = p.Close(d("1.0900"), "", at)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = p.UpdatePrice(d("1.2"))
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	v, ok := p.Value("close_price")
	assert.True(t, ok)
	assert.True(t, v.(decimal.Decimal).Equal(d("1.09")))
}
