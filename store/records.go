package store

import (
	"time"

	"github.com/shopspring/decimal"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/date"
)

// contractRecord mirrors operar.Contract in the options_contracts table.
// Contracts are upserted on their symbol.
type contractRecord struct {
	ID          uint            `gorm:"primaryKey"`
	Symbol      string          `gorm:"column:symbol;uniqueIndex;not null"`
	Underlying  string          `gorm:"column:underlying_symbol;index;not null"`
	Type        string          `gorm:"column:type;not null"`
	Strike      decimal.Decimal `gorm:"column:strike;type:numeric"`
	Expiration  date.Date       `gorm:"column:expiration_date;type:date"`
	Description string          `gorm:"column:description"`
}

func (contractRecord) TableName() string { return "options_contracts" }

func newContractRecord(c operar.Contract) contractRecord {
	return contractRecord{
		Symbol:      c.Symbol,
		Underlying:  c.Underlying,
		Type:        string(c.Type),
		Strike:      c.Strike,
		Expiration:  c.Expiration,
		Description: c.Description,
	}
}

func (r contractRecord) contract() operar.Contract {
	return operar.Contract{
		Symbol:      r.Symbol,
		Underlying:  r.Underlying,
		Type:        operar.OptionType(r.Type),
		Strike:      r.Strike,
		Expiration:  r.Expiration,
		Description: r.Description,
	}
}

// priceRecord is one append-only market price observation. The latest price
// of a symbol is the row with the highest system timestamp, ties broken by
// the highest id.
type priceRecord struct {
	ID              uint            `gorm:"primaryKey"`
	ContractSymbol  string          `gorm:"column:contract_symbol;index:idx_symbol_time;not null"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	BrokerTimestamp *time.Time      `gorm:"column:broker_timestamp"`
	SystemTimestamp time.Time       `gorm:"column:system_timestamp;index:idx_symbol_time;not null"`
	Volume          int64           `gorm:"column:volume"`
}

func (priceRecord) TableName() string { return "market_prices" }

func newPriceRecord(p operar.PriceObservation) priceRecord {
	return priceRecord{
		ContractSymbol:  p.ContractSymbol,
		Price:           p.Price,
		BrokerTimestamp: p.BrokerTime,
		SystemTimestamp: p.SystemTime,
		Volume:          p.Volume,
	}
}

// positionRecord is a named strategy.
type positionRecord struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	Status      string    `gorm:"column:status;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (positionRecord) TableName() string { return "positions" }

func (r positionRecord) position() operar.Position {
	return operar.Position{
		ID:          int64(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Status:      operar.Status(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}

// operationRecord is a single recorded trade.
type operationRecord struct {
	ID             uint            `gorm:"primaryKey"`
	ContractSymbol string          `gorm:"column:contract_symbol;index;not null"`
	Side           string          `gorm:"column:operation_type;not null"`
	Quantity       int64           `gorm:"column:quantity;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric;not null"`
	TradeDate      date.Date       `gorm:"column:operation_date;type:date"`
}

func (operationRecord) TableName() string { return "operations" }

func newOperationRecord(o operar.Operation) operationRecord {
	return operationRecord{
		ContractSymbol: o.ContractSymbol,
		Side:           string(o.Side),
		Quantity:       o.Quantity,
		Price:          o.Price,
		TradeDate:      o.TradeDate,
	}
}

func (r operationRecord) operation() operar.Operation {
	return operar.Operation{
		ID:             int64(r.ID),
		ContractSymbol: r.ContractSymbol,
		Side:           operar.Side(r.Side),
		Quantity:       r.Quantity,
		Price:          r.Price,
		TradeDate:      r.TradeDate,
	}
}

// positionOperationRecord links operations to positions. The link permits an
// operation to belong to several positions, although in practice each
// operation is added to exactly one.
type positionOperationRecord struct {
	ID          uint `gorm:"primaryKey"`
	PositionID  uint `gorm:"column:position_id;index:idx_position_operation;not null"`
	OperationID uint `gorm:"column:operation_id;index:idx_position_operation;not null"`
}

func (positionOperationRecord) TableName() string { return "position_contains_operations" }
