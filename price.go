package operar

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one market price for a contract. Observations are
// append-only; the "current price" of a symbol is the observation with the
// highest system time (ties broken by highest row id in the store).
type PriceObservation struct {
	ContractSymbol string
	Price          decimal.Decimal
	BrokerTime     *time.Time // as reported by the broker, nil when unknown
	SystemTime     time.Time
	Volume         int64
}

// ContractQuote is a contract joined with its latest observed price, as
// listed by the prices report.
type ContractQuote struct {
	Symbol string
	Type   OptionType
	Strike decimal.Decimal
	Price  decimal.Decimal
	Time   *time.Time
}
