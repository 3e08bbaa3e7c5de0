package operar

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func prices(pairs map[string]float64) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(pairs))
	for symbol, price := range pairs {
		m[symbol] = decimal.NewFromFloat(price)
	}
	return m
}

func TestCurrentPnL(t *testing.T) {
	ops := []Operation{
		op("A", Buy, 10, 100),
		op("B", Sell, 5, 50),
	}
	total, legs := CurrentPnL(ops, prices(map[string]float64{"A": 110, "B": 40}))

	// BUY leg gains when price rises, SELL leg gains when price falls.
	if len(legs) != 2 {
		t.Fatalf("CurrentPnL() returned %d legs, want 2", len(legs))
	}
	if !legs[0].Equal(decimal.NewFromInt(100)) {
		t.Errorf("leg[0] = %s, want 100", legs[0])
	}
	if !legs[1].Equal(decimal.NewFromInt(50)) {
		t.Errorf("leg[1] = %s, want 50", legs[1])
	}
	if !total.Equal(decimal.NewFromInt(150)) {
		t.Errorf("total = %s, want 150", total)
	}
}

func TestCurrentPnLUnpricedFallback(t *testing.T) {
	ops := []Operation{
		op("A", Buy, 10, 100),
		op("MISSING", Buy, 7, 42),
	}
	total, legs := CurrentPnL(ops, prices(map[string]float64{"A": 101}))
	if !legs[1].IsZero() {
		t.Errorf("unpriced leg = %s, want exactly 0", legs[1])
	}
	if !total.Equal(decimal.NewFromInt(10)) {
		t.Errorf("total = %s, want 10", total)
	}

	unpriced := UnpricedSymbols(ops, prices(map[string]float64{"A": 101}))
	if len(unpriced) != 1 || unpriced[0] != "MISSING" {
		t.Errorf("UnpricedSymbols() = %v, want [MISSING]", unpriced)
	}
}

func TestCurrentPnLIsLinearInQuantity(t *testing.T) {
	ops := []Operation{
		op("A", Buy, 3, 10),
		op("B", Sell, 2, 20),
	}
	doubled := make([]Operation, len(ops))
	for i, o := range ops {
		o.Quantity *= 2
		doubled[i] = o
	}
	m := prices(map[string]float64{"A": 12.5, "B": 19})

	total, _ := CurrentPnL(ops, m)
	total2, _ := CurrentPnL(doubled, m)
	if !total2.Equal(total.Mul(decimal.NewFromInt(2))) {
		t.Errorf("doubling quantities: total = %s, want %s", total2, total.Mul(decimal.NewFromInt(2)))
	}
}

func TestCurrentPnLEmptyInput(t *testing.T) {
	total, legs := CurrentPnL(nil, nil)
	if !total.IsZero() {
		t.Errorf("total = %s, want 0", total)
	}
	if len(legs) != 0 {
		t.Errorf("legs = %v, want empty", legs)
	}
}

func leg(side Side, quantity int64, typ OptionType, strike, entry float64) Leg {
	return Leg{
		Operation: op("LEG", side, quantity, entry),
		Strike:    decimal.NewFromFloat(strike),
		Type:      typ,
	}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestExpirationCurveGridEndpoints(t *testing.T) {
	grid, _ := ExpirationCurve([]Leg{leg(Buy, 1, Call, 100, 5)}, 100, 0.1, 3)
	want := []float64{90, 100, 110}
	if len(grid) != len(want) {
		t.Fatalf("grid = %v, want %v", grid, want)
	}
	for i := range want {
		if !almostEqual(grid[i], want[i]) {
			t.Errorf("grid[%d] = %g, want %g", i, grid[i], want[i])
		}
	}
}

func TestExpirationCurveLongCall(t *testing.T) {
	// BUY 1 CALL strike=100 entry=5: below the strike the premium is lost,
	// at S=110 the payoff covers the premium twice over.
	_, curve := ExpirationCurve([]Leg{leg(Buy, 1, Call, 100, 5)}, 100, 0.1, 3)
	want := []float64{-5, -5, 5}
	if len(curve) != len(want) {
		t.Fatalf("curve = %v, want %v", curve, want)
	}
	for i := range want {
		if !almostEqual(curve[i], want[i]) {
			t.Errorf("curve[%d] = %g, want %g", i, curve[i], want[i])
		}
	}
}

func TestExpirationCurveShortPut(t *testing.T) {
	// SELL 2 PUT strike=100 entry=4: collects the premium above the strike,
	// loses quantity×(K−S−entry) below it.
	_, curve := ExpirationCurve([]Leg{leg(Sell, 2, Put, 100, 4)}, 100, 0.1, 3)
	want := []float64{-12, 8, 8}
	for i := range want {
		if !almostEqual(curve[i], want[i]) {
			t.Errorf("curve[%d] = %g, want %g", i, curve[i], want[i])
		}
	}
}

func TestExpirationCurveUnknownTypeContributesZero(t *testing.T) {
	known := leg(Buy, 1, Call, 100, 5)
	unknown := leg(Buy, 3, OptionType("Warrant"), 90, 2)

	_, withUnknown := ExpirationCurve([]Leg{known, unknown}, 100, 0.1, 3)
	_, withoutUnknown := ExpirationCurve([]Leg{known}, 100, 0.1, 3)
	for i := range withoutUnknown {
		if !almostEqual(withUnknown[i], withoutUnknown[i]) {
			t.Errorf("curve[%d] = %g, want %g (unknown type must be skipped)", i, withUnknown[i], withoutUnknown[i])
		}
	}
}

func TestExpirationCurveEmptyInput(t *testing.T) {
	grid, curve := ExpirationCurve(nil, 100, 0.2, 100)
	if len(grid) != 0 || len(curve) != 0 {
		t.Errorf("ExpirationCurve(nil) = (%v, %v), want empty", grid, curve)
	}
}

func TestExpirationCurveSingleStep(t *testing.T) {
	grid, curve := ExpirationCurve([]Leg{leg(Buy, 1, Call, 100, 5)}, 100, 0.2, 1)
	if len(grid) != 1 || len(curve) != 1 {
		t.Fatalf("steps=1: got %d grid points, want 1", len(grid))
	}
	// the grid degenerates to the left edge of the range
	if !almostEqual(grid[0], 80) {
		t.Errorf("grid[0] = %g, want 80", grid[0])
	}
}

func TestNewCurveStats(t *testing.T) {
	grid, curve := ExpirationCurve([]Leg{leg(Buy, 1, Call, 100, 5)}, 100, 0.1, 3)
	s, err := NewCurveStats(grid, curve)
	if err != nil {
		t.Fatalf("NewCurveStats() unexpected error: %v", err)
	}
	if !almostEqual(s.MaxProfit, 5) {
		t.Errorf("MaxProfit = %g, want 5", s.MaxProfit)
	}
	if !almostEqual(s.MaxLoss, -5) {
		t.Errorf("MaxLoss = %g, want -5", s.MaxLoss)
	}
	// curve was [-5, -5, 5] over [90, 100, 110]: the sign change between 100
	// and 110 interpolates to 105, the true breakeven (strike + premium).
	if len(s.Breakevens) != 1 || !almostEqual(s.Breakevens[0], 105) {
		t.Errorf("Breakevens = %v, want [105]", s.Breakevens)
	}
}

func TestNewCurveStatsEmpty(t *testing.T) {
	if _, err := NewCurveStats(nil, nil); err == nil {
		t.Error("NewCurveStats(nil) expected an error, got nil")
	}
}
