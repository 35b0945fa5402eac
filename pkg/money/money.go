// Package money holds receipt amounts as integer minor units tagged with an
// ISO-4217 currency. Amounts of different currencies never mix.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currencies issued by the built-in receipt locales.
const (
	USD = "USD"
	CAD = "CAD"
)

// ErrCurrencyMismatch is returned when amounts of different currencies are combined.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an amount in one currency.
type Money struct {
	m *money.Money
}

// New creates Money from minor units.
func New(minor int64, currency string) *Money {
	return &Money{m: money.New(minor, normalizeCode(currency))}
}

// Zero returns a zero amount.
func Zero(currency string) *Money {
	return New(0, currency)
}

// NewFromDecimal rounds amount to the currency's minor unit.
func NewFromDecimal(amount decimal.Decimal, currency string) *Money {
	code := normalizeCode(currency)
	fraction := 2
	if c := money.GetCurrency(code); c != nil {
		fraction = c.Fraction
	}
	minor := amount.Shift(int32(fraction)).Round(0).IntPart()
	return New(minor, code)
}

// Parse reads a receipt capture such as "1,234.56" or "CA$12.50".
func Parse(amount, currency string) (*Money, error) {
	d, err := ParseDecimal(amount)
	if err != nil {
		return nil, err
	}
	return NewFromDecimal(d, currency), nil
}

// ParseDecimal reads a receipt capture into a decimal, ignoring thousands
// separators and currency prefixes.
func ParseDecimal(amount string) (decimal.Decimal, error) {
	s := strings.TrimSpace(amount)
	if i := strings.LastIndex(s, "$"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return d, nil
}

// Amount returns the value in minor units.
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 code.
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero reports whether the amount is zero. A nil Money is zero.
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// Add returns m + other. A nil operand acts as zero.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}
	sum, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return &Money{m: sum}, nil
}

// ToDecimal converts to a decimal in major units.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// String returns the plain amount with the currency's precision, e.g. "1234.50".
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction))
}

// Display returns the amount with its currency symbol, e.g. "$1,234.50".
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.m.Display()
}

// Sum adds amounts of one currency. Nil entries are skipped.
func Sum(currency string, amounts ...*Money) (*Money, error) {
	total := Zero(currency)
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return USD
	}
	return code
}
