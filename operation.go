package operar

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nahuelrabey/operar-marketdata-fetch/date"
)

// Side is the direction of an operation.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide parses a string into a Side. It is case-insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown operation side: %q", s)
	}
}

func (s Side) String() string { return string(s) }

// Validate checks that s is a known side.
func (s Side) Validate() error {
	if s != Buy && s != Sell {
		return fmt.Errorf("invalid operation side: %q", s)
	}
	return nil
}

// Operation is a single trade on an option contract: one leg of a strategy.
// Operations are immutable once recorded; they can only be unlinked from
// their position.
type Operation struct {
	ID             int64
	ContractSymbol string
	Side           Side
	Quantity       int64
	Price          decimal.Decimal // entry price per contract
	TradeDate      date.Date
}

// SignedQuantity returns the quantity with the sign convention used across
// the engine: BUY positive exposure, SELL negative.
func (o Operation) SignedQuantity() int64 {
	if o.Side == Sell {
		return -o.Quantity
	}
	return o.Quantity
}

// Validate fails fast on malformed operations so the engine can assume
// well-formed input.
func (o Operation) Validate() error {
	if o.ContractSymbol == "" {
		return fmt.Errorf("operation has no contract symbol")
	}
	if err := o.Side.Validate(); err != nil {
		return fmt.Errorf("operation on %s: %w", o.ContractSymbol, err)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("operation on %s: quantity must be positive, got %d", o.ContractSymbol, o.Quantity)
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("operation on %s: price must be positive, got %s", o.ContractSymbol, o.Price)
	}
	return nil
}
