package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/renderer"
	"github.com/nahuelrabey/operar-marketdata-fetch/store"
)

// strategyCmd is the top-level command for strategy management.
type strategyCmd struct{}

func (*strategyCmd) Name() string     { return "strategy" }
func (*strategyCmd) Synopsis() string { return "manage options strategies" }
func (*strategyCmd) Usage() string {
	return `strategy <subcommand> <options>

Manage options strategies: create, list, inspect and close them.
`
}
func (c *strategyCmd) SetFlags(f *flag.FlagSet) {}

func (c *strategyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "strategy")
	commander.Register(&strategyNewCmd{}, "")
	commander.Register(&strategyListCmd{}, "")
	commander.Register(&strategyViewCmd{}, "")
	commander.Register(&strategyCloseCmd{}, "")
	return commander.Execute(ctx, args...)
}

// strategyNewCmd implements the "strategy new" command.
type strategyNewCmd struct {
	name string
	desc string
}

func (*strategyNewCmd) Name() string     { return "new" }
func (*strategyNewCmd) Synopsis() string { return "create a new open strategy" }
func (*strategyNewCmd) Usage() string {
	return `strategy new -n <name> [-desc <description>]

Create a new strategy in the OPEN state. Trades are attached to it
afterwards with 'trade add'.
`
}
func (c *strategyNewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "n", "", "Name of the strategy (e.g. \"GGAL bull spread oct\")")
	f.StringVar(&c.desc, "desc", "", "Free-form description")
}

func (c *strategyNewCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -n <name> is required")
		return subcommands.ExitUsageError
	}
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	pos, err := st.CreatePosition(c.name, c.desc)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created strategy %d: %s\n", pos.ID, pos.Name)
	return subcommands.ExitSuccess
}

// strategyListCmd implements the "strategy list" command.
type strategyListCmd struct{}

func (*strategyListCmd) Name() string     { return "list" }
func (*strategyListCmd) Synopsis() string { return "list all strategies" }
func (*strategyListCmd) Usage() string {
	return `strategy list

List all strategies, newest first.
`
}
func (c *strategyListCmd) SetFlags(f *flag.FlagSet) {}

func (c *strategyListCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	positions, err := st.Positions()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Positions(positions))
	return subcommands.ExitSuccess
}

// strategyViewCmd implements the "strategy view" command.
type strategyViewCmd struct {
	id       int64
	ref      float64
	rangePct float64
	steps    int
}

func (*strategyViewCmd) Name() string { return "view" }
func (*strategyViewCmd) Synopsis() string {
	return "show a strategy's composition, current P&L and expiration curve"
}
func (*strategyViewCmd) Usage() string {
	return `strategy view -id <id> [-ref <price>] [-range <pct>] [-steps <n>]

Show the net composition of a strategy, its mark-to-market P&L against the
latest stored prices, and the simulated P&L at expiration over a range of
underlying prices.

The simulation is centered on the latest stored price of the underlying;
use -ref to override it. When no underlying price is stored, the average
strike of the legs is used instead.
`
}
func (c *strategyViewCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Strategy id (see 'strategy list')")
	f.Float64Var(&c.ref, "ref", 0, "Reference underlying price for the simulation")
	f.Float64Var(&c.rangePct, "range", operar.DefaultRangePct, "Half-width of the simulated price range, as a fraction of the reference price")
	f.IntVar(&c.steps, "steps", operar.DefaultSteps, "Number of simulated price points")
}

func (c *strategyViewCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		fmt.Fprintln(os.Stderr, "Error: -id <id> is required")
		return subcommands.ExitUsageError
	}
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	detail, err := strategyDetail(st, c.id, c.ref, c.rangePct, c.steps)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Strategy(detail))
	return subcommands.ExitSuccess
}

// strategyDetail assembles the full report of a strategy: composition,
// mark-to-market P&L and expiration curve. A ref of zero means "pick one":
// the latest stored price of the underlying, or failing that the average
// strike of the legs.
func strategyDetail(st *store.Store, id int64, ref, rangePct float64, steps int) (*renderer.StrategyDetail, error) {
	pos, err := st.Position(id)
	if err != nil {
		return nil, err
	}
	legs, err := st.Legs(id)
	if err != nil {
		return nil, err
	}

	ops := make([]operar.Operation, len(legs))
	for i, leg := range legs {
		ops[i] = leg.Operation
	}

	symbols := make([]string, len(ops))
	for i, op := range ops {
		symbols[i] = op.ContractSymbol
	}
	prices, err := st.LatestPrices(symbols)
	if err != nil {
		return nil, err
	}

	total, legPnL := operar.CurrentPnL(ops, prices)

	detail := &renderer.StrategyDetail{
		Position:    pos,
		Legs:        legs,
		Composition: operar.Composition(ops),
		LegPnL:      legPnL,
		TotalPnL:    total,
		Unpriced:    operar.UnpricedSymbols(ops, prices),
	}

	if len(legs) == 0 {
		return detail, nil
	}

	if ref == 0 {
		ref, err = referencePrice(st, id, legs)
		if err != nil {
			return nil, err
		}
	}
	detail.ReferencePrice = ref
	detail.Grid, detail.Curve = operar.ExpirationCurve(legs, ref, rangePct, steps)
	if stats, err := operar.NewCurveStats(detail.Grid, detail.Curve); err == nil {
		detail.Stats = &stats
	}
	return detail, nil
}

// referencePrice picks the center of the simulated price range: the latest
// stored price of the strategy's underlying, falling back to the average
// strike of the legs when none has been fetched yet.
func referencePrice(st *store.Store, id int64, legs []operar.Leg) (float64, error) {
	underlyings, err := st.Underlyings(id)
	if err != nil {
		return 0, err
	}
	for _, u := range underlyings {
		price, ok, err := st.LatestPrice(u)
		if err != nil {
			return 0, err
		}
		if ok {
			return price.InexactFloat64(), nil
		}
	}

	var sum float64
	var n int
	for _, leg := range legs {
		if leg.Strike.IsZero() {
			continue
		}
		sum += leg.Strike.InexactFloat64()
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("no reference price available for strategy %d, use -ref", id)
	}
	return sum / float64(n), nil
}

// strategyCloseCmd implements the "strategy close" command.
type strategyCloseCmd struct {
	id int64
}

func (*strategyCloseCmd) Name() string     { return "close" }
func (*strategyCloseCmd) Synopsis() string { return "close an open strategy" }
func (*strategyCloseCmd) Usage() string {
	return `strategy close -id <id>

Mark an open strategy as CLOSED. Closing is terminal: a closed strategy
cannot be reopened, and closing it again is an error.
`
}
func (c *strategyCloseCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Strategy id (see 'strategy list')")
}

func (c *strategyCloseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		fmt.Fprintln(os.Stderr, "Error: -id <id> is required")
		return subcommands.ExitUsageError
	}
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := st.ClosePosition(c.id); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Closed strategy %d\n", c.id)
	return subcommands.ExitSuccess
}
