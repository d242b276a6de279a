// Package core holds the ledger domain types shared by the assistant, the
// storage layer and the HTTP surface.
//
// Amounts are integer cents; conversion to and from text goes through
// shopspring/decimal so no float ever touches a stored value.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (paise, cents).
type Money struct {
	Cents int64
}

var hundred = decimal.NewFromInt(100)

// maxAmount bounds a single amount, in major units. It leaves room for sums
// of many amounts to stay inside int64 cents.
var maxAmount = decimal.New(1, 13)

// ParseMoney parses a positive amount such as "1200", "1,200.50" or "₹99.9".
//
// Commas are treated as thousands separators. Fractions beyond two digits
// are rounded half away from zero. Zero and negative values are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, CurrencySymbol)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil || m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// MoneyFromDecimal rounds d to two places and converts it to cents. Amounts
// beyond maxAmount in either direction fail with ErrInvalidAmount.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.Abs().GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Round(2).Mul(hundred).IntPart()}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in major units for chart payloads.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// String renders the amount with two decimals and no grouping: "1200.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Grouped renders the amount with thousands separators: "1,200.00".
func (m Money) Grouped() string {
	s := m.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Format renders the amount with the currency symbol and grouping: "₹1,200.00".
func (m Money) Format() string {
	return CurrencySymbol + m.Grouped()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON encodes the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(string(data), ",", ""))
	if err != nil {
		return ErrInvalidAmount
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
