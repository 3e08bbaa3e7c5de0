// Package renderer turns engine outputs into markdown reports for the CLI.
// Rendering never reinterprets the engine's sign convention: BUY positive
// exposure, SELL negative.
package renderer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
)

// Positions renders the strategy list as a markdown table.
func Positions(positions []operar.Position) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Strategies\n\n")
	if len(positions) == 0 {
		fmt.Fprintln(&b, "No strategies found.")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Name | Status | Created |")
	fmt.Fprintln(&b, "|---:|:---|:---|:---|")
	for _, p := range positions {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", p.ID, p.Name, p.Status, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// StrategyDetail carries everything the strategy view renders: the raw legs,
// the derived composition, the mark-to-market P&L and the expiration curve.
type StrategyDetail struct {
	Position    operar.Position
	Legs        []operar.Leg
	Composition []operar.LegBalance

	LegPnL   []decimal.Decimal // aligned 1:1 with Legs
	TotalPnL decimal.Decimal
	Unpriced []string // symbols valued at entry price for lack of market data

	ReferencePrice float64
	Grid, Curve    []float64
	Stats          *operar.CurveStats
}

// Strategy renders the full strategy report.
func Strategy(d *StrategyDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Strategy %d: %s\n\n", d.Position.ID, d.Position.Name)
	if d.Position.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Position.Description)
	}
	fmt.Fprintf(&b, "Status: %s\n\n", d.Position.Status)

	if len(d.Legs) == 0 {
		fmt.Fprintln(&b, "This strategy has no trades.")
		return b.String()
	}

	fmt.Fprint(&b, "## Composition\n\n")
	fmt.Fprintln(&b, "| Symbol | Net Qty |")
	fmt.Fprintln(&b, "|:---|---:|")
	for _, c := range d.Composition {
		fmt.Fprintf(&b, "| %s | %d |\n", c.Symbol, c.NetQuantity)
	}
	if len(d.Composition) == 0 {
		fmt.Fprintln(&b, "| _all legs flat_ | 0 |")
	}

	fmt.Fprint(&b, "\n## Current P&L\n\n")
	fmt.Fprintln(&b, "| Trade | Symbol | Side | Qty | Entry | P&L |")
	fmt.Fprintln(&b, "|---:|:---|:---|---:|---:|---:|")
	for i, leg := range d.Legs {
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %s | %s |\n",
			leg.ID, leg.ContractSymbol, leg.Side, leg.Quantity,
			operar.ARS(leg.Price), operar.ARS(d.LegPnL[i]).SignedString())
	}
	fmt.Fprintf(&b, "| | | | | **Total** | **%s** |\n", operar.ARS(d.TotalPnL).SignedString())
	if len(d.Unpriced) > 0 {
		fmt.Fprintf(&b, "\nNo market price for %s: those legs are valued at entry price (zero P&L).\n",
			strings.Join(d.Unpriced, ", "))
	}

	if len(d.Curve) > 0 {
		b.WriteString(curveSection(d))
	}
	return b.String()
}

// curveSection renders the expiration payoff simulation: headline stats and
// a sampled grid of the curve.
func curveSection(d *StrategyDetail) string {
	var b strings.Builder
	fmt.Fprint(&b, "\n## P&L at Expiration\n\n")
	fmt.Fprintf(&b, "Simulated around an underlying reference price of %.2f.\n\n", d.ReferencePrice)

	if d.Stats != nil {
		fmt.Fprintf(&b, "- Max profit in range: %s\n", ars(d.Stats.MaxProfit).SignedString())
		fmt.Fprintf(&b, "- Max loss in range: %s\n", ars(d.Stats.MaxLoss).SignedString())
		if len(d.Stats.Breakevens) > 0 {
			evens := make([]string, 0, len(d.Stats.Breakevens))
			for _, price := range d.Stats.Breakevens {
				evens = append(evens, fmt.Sprintf("%.2f", price))
			}
			fmt.Fprintf(&b, "- Breakeven underlying price(s): %s\n", strings.Join(evens, ", "))
		} else {
			fmt.Fprintln(&b, "- No breakeven inside the simulated range")
		}
	}

	fmt.Fprint(&b, "\n| Underlying | P&L |\n")
	fmt.Fprintln(&b, "|---:|---:|")
	for _, i := range sampleIndexes(len(d.Grid), 11) {
		fmt.Fprintf(&b, "| %.2f | %s |\n", d.Grid[i], ars(d.Curve[i]).SignedString())
	}
	return b.String()
}

func ars(v float64) operar.Money { return operar.ARS(decimal.NewFromFloat(v)) }

// sampleIndexes picks up to max evenly spaced indexes from a slice of length
// n, always including both ends.
func sampleIndexes(n, max int) []int {
	if n <= 0 {
		return nil
	}
	if n <= max {
		indexes := make([]int, n)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes
	}
	indexes := make([]int, max)
	for i := range indexes {
		indexes[i] = i * (n - 1) / (max - 1)
	}
	return indexes
}
