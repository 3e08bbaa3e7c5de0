package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
)

func TestPositionsEmpty(t *testing.T) {
	got := Positions(nil)
	if !strings.Contains(got, "No strategies found") {
		t.Errorf("Positions(nil) = %q, want the empty-list message", got)
	}
}

func TestPositionsTable(t *testing.T) {
	got := Positions([]operar.Position{{
		ID: 3, Name: "bull call spread", Status: operar.Open,
		CreatedAt: time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC),
	}})
	for _, want := range []string{"| 3 |", "bull call spread", "OPEN"} {
		if !strings.Contains(got, want) {
			t.Errorf("Positions() missing %q in:\n%s", want, got)
		}
	}
}

func detail() *StrategyDetail {
	leg := operar.Leg{
		Operation: operar.Operation{
			ID: 7, ContractSymbol: "GFGC2654OC", Side: operar.Buy,
			Quantity: 10, Price: decimal.NewFromInt(100),
		},
		Strike: decimal.NewFromInt(2654),
		Type:   operar.Call,
	}
	return &StrategyDetail{
		Position:    operar.Position{ID: 1, Name: "long call", Status: operar.Open},
		Legs:        []operar.Leg{leg},
		Composition: []operar.LegBalance{{Symbol: "GFGC2654OC", NetQuantity: 10}},
		LegPnL:      []decimal.Decimal{decimal.NewFromInt(205)},
		TotalPnL:    decimal.NewFromInt(205),
	}
}

func TestStrategyReport(t *testing.T) {
	got := Strategy(detail())
	for _, want := range []string{
		"# Strategy 1: long call",
		"## Composition",
		"| GFGC2654OC | 10 |",
		"## Current P&L",
		"**+$205,00**", // go-money renders ARS with es-AR separators
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Strategy() missing %q in:\n%s", want, got)
		}
	}
}

func TestStrategyReportsUnpricedLegs(t *testing.T) {
	d := detail()
	d.Unpriced = []string{"GFGC2654OC"}
	got := Strategy(d)
	if !strings.Contains(got, "No market price for GFGC2654OC") {
		t.Errorf("Strategy() should mention unpriced legs, got:\n%s", got)
	}
}

func TestStrategyNoTrades(t *testing.T) {
	d := &StrategyDetail{Position: operar.Position{ID: 2, Name: "empty", Status: operar.Open}}
	got := Strategy(d)
	if !strings.Contains(got, "no trades") {
		t.Errorf("Strategy() = %q, want the no-trades message", got)
	}
}

func TestStrategyCurveSection(t *testing.T) {
	d := detail()
	d.ReferencePrice = 2700
	d.Grid = []float64{2430, 2700, 2970}
	d.Curve = []float64{-1000, -540, 2160}
	d.Stats = &operar.CurveStats{MaxProfit: 2160, MaxLoss: -1000, Breakevens: []float64{2754}}
	got := Strategy(d)
	for _, want := range []string{
		"## P&L at Expiration",
		"reference price of 2700.00",
		"Max profit in range",
		"Breakeven underlying price(s): 2754.00",
		"| 2430.00 |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Strategy() missing %q in:\n%s", want, got)
		}
	}
}

func TestPrices(t *testing.T) {
	now := time.Date(2025, time.June, 2, 11, 30, 0, 0, time.UTC)
	got := Prices("GGAL", []operar.ContractQuote{
		{Symbol: "GFGC2654OC", Type: operar.Call, Strike: decimal.NewFromFloat(2654.90), Price: decimal.NewFromFloat(120.5), Time: &now},
	})
	for _, want := range []string{"# Latest prices for GGAL", "GFGC2654OC", "2654.90", "$120,50", "2025-06-02 11:30"} {
		if !strings.Contains(got, want) {
			t.Errorf("Prices() missing %q in:\n%s", want, got)
		}
	}
}

func TestSampleIndexes(t *testing.T) {
	got := sampleIndexes(100, 11)
	if len(got) != 11 || got[0] != 0 || got[10] != 99 {
		t.Errorf("sampleIndexes(100, 11) = %v, want 11 indexes from 0 to 99", got)
	}
	if got := sampleIndexes(3, 11); len(got) != 3 {
		t.Errorf("sampleIndexes(3, 11) = %v, want all 3 indexes", got)
	}
}
