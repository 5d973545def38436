package fieldkit

import (
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOnChange(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  string
		want string
	}{
		{"phone keeps formatting", KindPhone, "+44 (20) 7946-0958", "+44 (20) 7946-0958"},
		{"phone drops letters", KindPhone, "12ab34", "1234"},
		{"phone single leading plus", KindPhone, "  +1+2", "+12"},
		{"number single dot", KindNumber, "1.2.3", "1.23"},
		{"number leading minus only", KindNumber, "-12-3", "-123"},
		{"money two decimals", KindMoney, "10.999", "10.99"},
		{"money strips grouping", KindMoney, "1,234.5", "1234.5"},
		{"percent no sign", KindPercent, "-12.5%", "12.5"},
		{"integer no dot", KindInteger, "-3.7", "-37"},
		{"email no spaces", KindEmail, " john @ex.com ", "john@ex.com"},
		{"text untouched", KindText, "  Hello ", "  Hello "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOnChange(tt.kind, tt.raw))
		})
	}
}

func TestNormalizeOnCommit_Empty(t *testing.T) {
	v, err := NormalizeOnCommit(Spec{Key: "notes", Kind: KindText}, "   ")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = NormalizeOnCommit(Spec{Key: "email", Label: "Email", Kind: KindEmail, Required: true}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Contains(t, err.Error(), "Email is required")
}

func TestNormalizeOnCommit_Values(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		raw  string
		want any
	}{
		{"email lowercased", Spec{Kind: KindEmail}, " John.Doe@Example.COM ", "john.doe@example.com"},
		{"phone stripped", Spec{Kind: KindPhone}, "+44 (20) 7946-0958", "+442079460958"},
		{"integer", Spec{Kind: KindInteger}, "1,200", int64(1200)},
		{"select canonical", Spec{Kind: KindSelect, Options: []string{"Forex", "Crypto"}}, "crypto", "Crypto"},
		{"select free when no options", Spec{Kind: KindSelect}, "web", "web"},
		{"boolean yes", Spec{Kind: KindBoolean}, "Yes", true},
		{"boolean off", Spec{Kind: KindBoolean}, "off", false},
		{"text trimmed", Spec{Kind: KindText, MaxLength: 5}, "  abc  ", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOnCommit(tt.spec, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeOnCommit_Decimals(t *testing.T) {
	got, err := NormalizeOnCommit(Spec{Kind: KindMoney}, "1,234.567")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234.57").Equal(got.(decimal.Decimal)))

	got, err = NormalizeOnCommit(Spec{Kind: KindPercent}, "12.5%")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.(decimal.Decimal)))

	got, err = NormalizeOnCommit(Spec{Kind: KindNumber}, "-0.25")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-0.25").Equal(got.(decimal.Decimal)))
}

func TestNormalizeOnCommit_Dates(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-15", "15/03/2024", "2024/03/15"} {
		got, err := NormalizeOnCommit(Spec{Kind: KindDate}, raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got.(time.Time)), raw)
	}

	got, err := NormalizeOnCommit(Spec{Kind: KindDate}, "2024-03-15T10:30:00+02:00")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC).Equal(got.(time.Time)))
}

func TestNormalizeOnCommit_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		raw  string
	}{
		{"bad email", Spec{Kind: KindEmail}, "not-an-email"},
		{"short phone", Spec{Kind: KindPhone}, "12345"},
		{"long phone", Spec{Kind: KindPhone}, "1234567890123456"},
		{"phone letters", Spec{Kind: KindPhone}, "555-CALL-NOW"},
		{"number", Spec{Kind: KindNumber}, "abc"},
		{"integer fraction", Spec{Kind: KindInteger}, "1.5"},
		{"percent above range", Spec{Kind: KindPercent}, "101"},
		{"percent negative", Spec{Kind: KindPercent}, "-1"},
		{"date", Spec{Kind: KindDate}, "March 15"},
		{"boolean", Spec{Kind: KindBoolean}, "maybe"},
		{"select", Spec{Kind: KindSelect, Options: []string{"a", "b"}}, "c"},
		{"text too long", Spec{Kind: KindText, MaxLength: 3}, "abcd"},
		{"unknown kind", Spec{Kind: "color"}, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeOnCommit(tt.spec, tt.raw)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestFormat(t *testing.T) {
	day := time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		kind  Kind
		value any
		want  string
	}{
		{"nil", KindMoney, nil, ""},
		{"money grouping", KindMoney, decimal.RequireFromString("1234.5"), "1,234.50"},
		{"money millions negative", KindMoney, decimal.RequireFromString("-1234567.891"), "-1,234,567.89"},
		{"money small", KindMoney, decimal.NewFromInt(12), "12.00"},
		{"percent", KindPercent, decimal.RequireFromString("12.50"), "12.5%"},
		{"date", KindDate, day, "2024-01-02"},
		{"nil date pointer", KindDate, (*time.Time)(nil), ""},
		{"zero date", KindDate, time.Time{}, ""},
		{"boolean yes", KindBoolean, true, "Yes"},
		{"boolean no", KindBoolean, false, "No"},
		{"text", KindText, "hello", "hello"},
		{"integer", KindInteger, int64(42), "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.kind, tt.value))
		})
	}
}
