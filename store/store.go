// Package store persists contracts, prices, positions and operations in a
// PostgreSQL database. It is the single owner of the schema; the engine in
// the root package only ever sees the domain types read back from here.
package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
)

// Store is an explicitly constructed storage handle. Callers create one and
// pass it down; there is no package-level connection state.
type Store struct {
	db *gorm.DB
}

// Open connects to the database at url and migrates the schema.
func Open(url string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	for _, model := range []any{
		&contractRecord{},
		&priceRecord{},
		&positionRecord{},
		&operationRecord{},
		&positionOperationRecord{},
	} {
		if err := db.AutoMigrate(model); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// UpsertContract inserts the contract or, if its symbol is already known,
// refreshes the stored details. Idempotent on symbol.
func (s *Store) UpsertContract(c operar.Contract) error {
	if c.Symbol == "" {
		return fmt.Errorf("contract has no symbol")
	}
	record := newContractRecord(c)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"underlying_symbol", "type", "strike", "expiration_date", "description"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert contract %s: %w", c.Symbol, err)
	}
	return nil
}

// UpsertContracts upserts a batch of contracts.
func (s *Store) UpsertContracts(contracts []operar.Contract) error {
	for _, c := range contracts {
		if err := s.UpsertContract(c); err != nil {
			return err
		}
	}
	return nil
}

// InsertPrice appends one market price observation and returns its row id.
func (s *Store) InsertPrice(p operar.PriceObservation) (int64, error) {
	record := newPriceRecord(p)
	if err := s.db.Create(&record).Error; err != nil {
		return 0, fmt.Errorf("failed to insert price for %s: %w", p.ContractSymbol, err)
	}
	return int64(record.ID), nil
}

// InsertPriceBatch appends a batch of market price observations.
func (s *Store) InsertPriceBatch(prices []operar.PriceObservation) error {
	if len(prices) == 0 {
		return nil
	}
	records := make([]priceRecord, 0, len(prices))
	for _, p := range prices {
		records = append(records, newPriceRecord(p))
	}
	if err := s.db.CreateInBatches(records, 200).Error; err != nil {
		return fmt.Errorf("failed to batch insert %d prices: %w", len(prices), err)
	}
	log.Debugf("inserted %d price observations", len(records))
	return nil
}

// CreatePosition creates a new strategy in OPEN status.
func (s *Store) CreatePosition(name, description string) (operar.Position, error) {
	record := positionRecord{
		Name:        name,
		Description: description,
		Status:      string(operar.Open),
		CreatedAt:   time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return operar.Position{}, fmt.Errorf("failed to create position %q: %w", name, err)
	}
	return record.position(), nil
}

// Positions lists all positions, most recent first.
func (s *Store) Positions() ([]operar.Position, error) {
	var records []positionRecord
	if err := s.db.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	positions := make([]operar.Position, 0, len(records))
	for _, r := range records {
		positions = append(positions, r.position())
	}
	return positions, nil
}

// Position returns one position by id.
func (s *Store) Position(id int64) (operar.Position, error) {
	var record positionRecord
	if err := s.db.First(&record, id).Error; err != nil {
		return operar.Position{}, fmt.Errorf("position %d: %w", id, err)
	}
	return record.position(), nil
}

// ClosePosition transitions a position to CLOSED. The transition is terminal:
// closing an already closed position is an error.
func (s *Store) ClosePosition(id int64) error {
	result := s.db.Model(&positionRecord{}).
		Where("id = ? AND status = ?", id, string(operar.Open)).
		Update("status", string(operar.Closed))
	if result.Error != nil {
		return fmt.Errorf("failed to close position %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		pos, err := s.Position(id)
		if err != nil {
			return err
		}
		return notOpenError(pos)
	}
	return nil
}

// notOpenError explains why closing a position changed no row when the
// position does exist.
func notOpenError(pos operar.Position) error {
	return fmt.Errorf("position %d is already %s", pos.ID, pos.Status)
}

// AddOperation records a validated trade and links it to the position.
func (s *Store) AddOperation(positionID int64, op operar.Operation) (int64, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	record := newOperationRecord(op)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var position positionRecord
		if err := tx.First(&position, positionID).Error; err != nil {
			return fmt.Errorf("position %d: %w", positionID, err)
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to insert operation: %w", err)
		}
		link := positionOperationRecord{PositionID: uint(positionID), OperationID: record.ID}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to link operation to position %d: %w", positionID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(record.ID), nil
}

// RemoveOperation unlinks an operation from a position. The operation row
// itself is kept: records are immutable, only the membership changes.
func (s *Store) RemoveOperation(positionID, operationID int64) error {
	result := s.db.
		Where("position_id = ? AND operation_id = ?", positionID, operationID).
		Delete(&positionOperationRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove operation %d from position %d: %w", operationID, positionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("operation %d is not part of position %d", operationID, positionID)
	}
	return nil
}

// Operations returns all operations currently linked to a position.
func (s *Store) Operations(positionID int64) ([]operar.Operation, error) {
	var records []operationRecord
	err := s.db.
		Joins("JOIN position_contains_operations pco ON pco.operation_id = operations.id").
		Where("pco.position_id = ?", positionID).
		Order("operations.id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load operations of position %d: %w", positionID, err)
	}
	ops := make([]operar.Operation, 0, len(records))
	for _, r := range records {
		ops = append(ops, r.operation())
	}
	return ops, nil
}

// Legs returns the position's operations joined with the strike and option
// type of their contracts, as needed by the expiration curve. Operations on
// symbols with no stored contract keep a zero strike and an empty type; the
// engine skips those when evaluating payoffs.
func (s *Store) Legs(positionID int64) ([]operar.Leg, error) {
	ops, err := s.Operations(positionID)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, nil
	}

	symbols := make([]string, 0, len(ops))
	for _, op := range ops {
		symbols = append(symbols, op.ContractSymbol)
	}
	var contracts []contractRecord
	if err := s.db.Where("symbol IN ?", symbols).Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to load contracts for position %d: %w", positionID, err)
	}
	bySymbol := make(map[string]contractRecord, len(contracts))
	for _, c := range contracts {
		bySymbol[c.Symbol] = c
	}

	legs := make([]operar.Leg, 0, len(ops))
	for _, op := range ops {
		leg := operar.Leg{Operation: op}
		if c, ok := bySymbol[op.ContractSymbol]; ok {
			leg.Strike = c.Strike
			leg.Type = operar.OptionType(c.Type)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// Underlyings returns the distinct underlying symbols of the contracts
// traded in a position, sorted.
func (s *Store) Underlyings(positionID int64) ([]string, error) {
	var underlyings []string
	err := s.db.Model(&contractRecord{}).
		Distinct("options_contracts.underlying_symbol").
		Joins("JOIN operations op ON op.contract_symbol = options_contracts.symbol").
		Joins("JOIN position_contains_operations pco ON pco.operation_id = op.id").
		Where("pco.position_id = ?", positionID).
		Order("options_contracts.underlying_symbol").
		Pluck("options_contracts.underlying_symbol", &underlyings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load underlyings of position %d: %w", positionID, err)
	}
	return underlyings, nil
}

// LatestPrices returns the most recent observed price for each of the given
// symbols. Symbols with no observation are simply absent from the map.
func (s *Store) LatestPrices(symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	if len(symbols) == 0 {
		return prices, nil
	}
	var records []priceRecord
	err := s.db.
		Where("contract_symbol IN ?", symbols).
		Order("system_timestamp DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load latest prices: %w", err)
	}
	// rows come newest first: keep the first one seen per symbol
	for _, r := range records {
		if _, ok := prices[r.ContractSymbol]; !ok {
			prices[r.ContractSymbol] = r.Price
		}
	}
	return prices, nil
}

// LatestPrice returns the most recent observed price for one symbol.
func (s *Store) LatestPrice(symbol string) (decimal.Decimal, bool, error) {
	prices, err := s.LatestPrices([]string{symbol})
	if err != nil {
		return decimal.Zero, false, err
	}
	price, ok := prices[symbol]
	return price, ok, nil
}

// LatestQuotesByUnderlying returns every contract of the given underlying
// with its latest observed price, ordered by strike. Contracts that were
// never priced are included with a zero price.
func (s *Store) LatestQuotesByUnderlying(underlying string) ([]operar.ContractQuote, error) {
	var contracts []contractRecord
	err := s.db.
		Where("underlying_symbol = ?", underlying).
		Order("strike ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts for %s: %w", underlying, err)
	}
	if len(contracts) == 0 {
		return nil, nil
	}

	symbols := make([]string, 0, len(contracts))
	for _, c := range contracts {
		symbols = append(symbols, c.Symbol)
	}
	var records []priceRecord
	err = s.db.
		Where("contract_symbol IN ?", symbols).
		Order("system_timestamp DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for %s: %w", underlying, err)
	}
	latest := make(map[string]priceRecord, len(symbols))
	for _, r := range records {
		if _, ok := latest[r.ContractSymbol]; !ok {
			latest[r.ContractSymbol] = r
		}
	}

	quotes := make([]operar.ContractQuote, 0, len(contracts))
	for _, c := range contracts {
		quote := operar.ContractQuote{
			Symbol: c.Symbol,
			Type:   operar.OptionType(c.Type),
			Strike: c.Strike,
		}
		if r, ok := latest[c.Symbol]; ok {
			quote.Price = r.Price
			if r.BrokerTimestamp != nil {
				quote.Time = r.BrokerTimestamp
			} else {
				t := r.SystemTimestamp
				quote.Time = &t
			}
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// ContractSymbols lists every contract symbol currently stored.
func (s *Store) ContractSymbols() ([]string, error) {
	var symbols []string
	if err := s.db.Model(&contractRecord{}).Pluck("symbol", &symbols).Error; err != nil {
		return nil, fmt.Errorf("failed to list contract symbols: %w", err)
	}
	return symbols, nil
}
