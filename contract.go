package operar

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nahuelrabey/operar-marketdata-fetch/date"
)

// OptionType identifies the payoff family of an option contract.
type OptionType string

const (
	// Call pays max(S−K, 0) at expiration.
	Call OptionType = "Call"
	// Put pays max(K−S, 0) at expiration.
	Put OptionType = "Put"
)

// ParseOptionType parses a string into an OptionType. It is case-insensitive.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(s) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return "", fmt.Errorf("unknown option type: %q", s)
	}
}

func (t OptionType) String() string { return string(t) }

// Validate checks that t is a known option type.
func (t OptionType) Validate() error {
	if t != Call && t != Put {
		return fmt.Errorf("invalid option type: %q", t)
	}
	return nil
}

// Contract describes an option contract as listed by the broker.
// Contracts are identified by their symbol and upserted on it.
type Contract struct {
	Symbol      string
	Underlying  string
	Type        OptionType
	Strike      decimal.Decimal
	Expiration  date.Date
	Description string
}

// Validate checks a contract for the fields the engine and store rely on.
func (c Contract) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("contract has no symbol")
	}
	if err := c.Type.Validate(); err != nil {
		return fmt.Errorf("contract %s: %w", c.Symbol, err)
	}
	if c.Strike.IsNegative() {
		return fmt.Errorf("contract %s: negative strike %s", c.Symbol, c.Strike)
	}
	return nil
}
