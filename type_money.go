package operar

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a monetary value in a given currency, kept as a decimal in major
// units. Display formatting is delegated to go-money so amounts render with
// the proper symbol and separators.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M builds a Money from a decimal value and an ISO currency code.
func M(value decimal.Decimal, currency string) Money {
	return Money{value: value, cur: currency}
}

// ARS builds an Argentine peso amount; bCBA option premiums are quoted in ARS.
func ARS(value decimal.Decimal) Money { return M(value, money.ARS) }

// currency returns a never-nil currency by going through the money constructor.
func (m Money) currency() money.Currency {
	return *money.New(0, m.cur).Currency()
}

// String formats the amount with its currency symbol.
func (m Money) String() string {
	cur := m.currency()
	minor := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// SignedString is like String but keeps an explicit sign for gains.
func (m Money) SignedString() string {
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }
