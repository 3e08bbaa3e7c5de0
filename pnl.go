package operar

import (
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// Default simulation parameters for the expiration curve.
const (
	DefaultRangePct = 0.20
	DefaultSteps    = 100
)

// CurrentPnL computes the mark-to-market P&L of a set of operations against
// the given price map. It returns the total and the per-leg P&L aligned 1:1
// with the input operations.
//
// A symbol absent from prices falls back to its entry price, so an unpriced
// leg contributes exactly zero. This is the deliberate unknown-price default;
// callers that want to surface missing market data can use UnpricedSymbols.
func CurrentPnL(ops []Operation, prices map[string]decimal.Decimal) (decimal.Decimal, []decimal.Decimal) {
	total := decimal.Zero
	legs := make([]decimal.Decimal, 0, len(ops))
	for _, op := range ops {
		current, ok := prices[op.ContractSymbol]
		if !ok {
			current = op.Price
		}
		pnl := current.Sub(op.Price).Mul(decimal.NewFromInt(op.SignedQuantity()))
		legs = append(legs, pnl)
		total = total.Add(pnl)
	}
	return total, legs
}

// UnpricedSymbols returns the contract symbols of ops that have no entry in
// prices, sorted and deduplicated. Those legs contribute zero to CurrentPnL.
func UnpricedSymbols(ops []Operation, prices map[string]decimal.Decimal) []string {
	seen := make(map[string]bool)
	for _, op := range ops {
		if _, ok := prices[op.ContractSymbol]; !ok {
			seen[op.ContractSymbol] = true
		}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Leg is an operation enriched with the strike and type of its contract,
// as required to evaluate the payoff at expiration. The join against the
// contract is performed by the store, not here.
type Leg struct {
	Operation
	Strike decimal.Decimal
	Type   OptionType
}

// ExpirationCurve simulates the total P&L of the legs at expiration over a
// range of underlying prices centered on referencePrice. The grid holds
// steps values linearly spanning [ref×(1−rangePct), ref×(1+rangePct)], both
// endpoints included, and curve[i] is the total P&L at grid[i].
//
// All legs are assumed to expire at the same instant: this is a terminal
// value approximation, with no time value. Legs with an unrecognized option
// type contribute zero at every point.
func ExpirationCurve(legs []Leg, referencePrice, rangePct float64, steps int) (grid, curve []float64) {
	if len(legs) == 0 {
		return nil, nil
	}
	grid = linspace(referencePrice*(1-rangePct), referencePrice*(1+rangePct), steps)
	curve = make([]float64, len(grid))

	for _, leg := range legs {
		strike := leg.Strike.InexactFloat64()
		entry := leg.Price.InexactFloat64()
		quantity := float64(leg.SignedQuantity())

		switch leg.Type {
		case Call:
			for i, s := range grid {
				curve[i] += quantity * (max(s-strike, 0) - entry)
			}
		case Put:
			for i, s := range grid {
				curve[i] += quantity * (max(strike-s, 0) - entry)
			}
		}
	}
	return grid, curve
}

// linspace returns n evenly spaced values from lo to hi inclusive. For n=1
// it degenerates to [lo], the left edge of the two-point formula.
func linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	step := (hi - lo) / float64(n-1)
	values := make([]float64, n)
	for i := range values {
		values[i] = lo + float64(i)*step
	}
	values[n-1] = hi
	return values
}

// CurveStats summarizes an expiration curve within the simulated range.
type CurveStats struct {
	MaxProfit  float64
	MaxLoss    float64
	Breakevens []float64
}

// NewCurveStats computes the best and worst P&L on the curve and the
// underlying prices where the P&L crosses zero (linearly interpolated
// between grid points).
func NewCurveStats(grid, curve []float64) (CurveStats, error) {
	maxProfit, err := stats.Max(curve)
	if err != nil {
		return CurveStats{}, err
	}
	maxLoss, err := stats.Min(curve)
	if err != nil {
		return CurveStats{}, err
	}

	var breakevens []float64
	for i := 1; i < len(curve); i++ {
		prev, cur := curve[i-1], curve[i]
		if prev == 0 {
			breakevens = append(breakevens, grid[i-1])
			continue
		}
		if prev*cur < 0 {
			// interpolate the zero crossing between the two grid points
			t := prev / (prev - cur)
			breakevens = append(breakevens, grid[i-1]+t*(grid[i]-grid[i-1]))
		}
	}
	if len(curve) > 0 && curve[len(curve)-1] == 0 {
		breakevens = append(breakevens, grid[len(grid)-1])
	}
	return CurveStats{MaxProfit: maxProfit, MaxLoss: maxLoss, Breakevens: breakevens}, nil
}
