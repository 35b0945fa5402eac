package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		minor    int64
		currency string
		wantCode string
	}{
		{"us dollars", 1250, USD, USD},
		{"canadian dollars", 1575, CAD, CAD},
		{"lowercase code", 100, "cad", CAD},
		{"empty code defaults to USD", 100, "", USD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.minor, tt.currency)
			assert.Equal(t, tt.minor, m.Amount())
			assert.Equal(t, tt.wantCode, m.Currency())
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"plain", "12.50", 1250, false},
		{"thousands", "1,234.56", 123456, false},
		{"canadian prefix", "CA$15.75", 1575, false},
		{"us prefix", "US$0.37", 37, false},
		{"bare dollar", "$9.00", 900, false},
		{"spaces", "  3.10 ", 310, false},
		{"rounds half up", "0.125", 13, false},
		{"sentinel", "Not Available", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.in, CAD)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, CAD, m.Currency())
		})
	}
}

func TestAdd(t *testing.T) {
	sum, err := New(1250, CAD).Add(New(325, CAD))
	require.NoError(t, err)
	assert.Equal(t, int64(1575), sum.Amount())

	var nilMoney *Money
	sum, err = nilMoney.Add(New(100, USD))
	require.NoError(t, err)
	assert.Equal(t, int64(100), sum.Amount())

	sum, err = New(100, USD).Add(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), sum.Amount())

	_, err = New(100, USD).Add(New(100, CAD))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestSum(t *testing.T) {
	total, err := Sum(USD, New(100, USD), nil, New(250, USD))
	require.NoError(t, err)
	assert.Equal(t, "3.50", total.String())

	empty, err := Sum(CAD)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
	assert.Equal(t, CAD, empty.Currency())

	_, err = Sum(USD, New(1, CAD))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestConversions(t *testing.T) {
	m := NewFromDecimal(decimal.RequireFromString("1234.5"), CAD)

	assert.Equal(t, int64(123450), m.Amount())
	assert.True(t, decimal.RequireFromString("1234.50").Equal(m.ToDecimal()))
	assert.Equal(t, "1234.50", m.String())
	assert.Equal(t, "$1,234.50", m.Display())

	var nilMoney *Money
	assert.Equal(t, "0.00", nilMoney.String())
	assert.True(t, nilMoney.IsZero())
}
