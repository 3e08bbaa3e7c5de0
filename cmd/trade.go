package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/date"
)

// tradeCmd is the top-level command for recording trades.
type tradeCmd struct{}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "record trades on a strategy" }
func (*tradeCmd) Usage() string {
	return `trade <subcommand> <options>

Attach buy/sell operations to a strategy, or detach them.
`
}
func (c *tradeCmd) SetFlags(f *flag.FlagSet) {}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "trade")
	commander.Register(&tradeAddCmd{}, "")
	commander.Register(&tradeRemoveCmd{}, "")
	return commander.Execute(ctx, args...)
}

// tradeAddCmd implements the "trade add" command.
type tradeAddCmd struct {
	id       int64
	symbol   string
	side     string
	quantity int64
	price    string
	date     string
}

func (*tradeAddCmd) Name() string     { return "add" }
func (*tradeAddCmd) Synopsis() string { return "record a trade on a strategy" }
func (*tradeAddCmd) Usage() string {
	return `trade add -id <strategy> -s <symbol> -side <BUY|SELL> -q <quantity> -p <price> [-d <date>]

Record a buy or sell of an option contract and attach it to a strategy.
The trade date defaults to today.

Example:
$ operar trade add -id 3 -s GFGC2654OC -side BUY -q 10 -p 205.0
`
}
func (c *tradeAddCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Strategy id (see 'strategy list')")
	f.StringVar(&c.symbol, "s", "", "Contract symbol (e.g. GFGC2654OC)")
	f.StringVar(&c.side, "side", "", "Trade side: BUY or SELL")
	f.Int64Var(&c.quantity, "q", 0, "Number of contracts, strictly positive")
	f.StringVar(&c.price, "p", "", "Price per contract")
	f.StringVar(&c.date, "d", "", "Trade date (YYYY-MM-DD), defaults to today")
}

func (c *tradeAddCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 {
		fmt.Fprintln(os.Stderr, "Error: -id <strategy> is required")
		return subcommands.ExitUsageError
	}
	side, err := operar.ParseSide(c.side)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid price %q: %v\n", c.price, err)
		return subcommands.ExitUsageError
	}
	tradeDate := date.Today()
	if c.date != "" {
		tradeDate, err = date.Parse(c.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
	}

	op := operar.Operation{
		ContractSymbol: c.symbol,
		Side:           side,
		Quantity:       c.quantity,
		Price:          price,
		TradeDate:      tradeDate,
	}
	if err := op.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	opID, err := st.AddOperation(c.id, op)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded trade %d: %s %d %s @ %s on strategy %d\n", opID, side, c.quantity, c.symbol, operar.ARS(price), c.id)
	return subcommands.ExitSuccess
}

// tradeRemoveCmd implements the "trade remove" command.
type tradeRemoveCmd struct {
	id int64
	op int64
}

func (*tradeRemoveCmd) Name() string     { return "remove" }
func (*tradeRemoveCmd) Synopsis() string { return "detach a trade from a strategy" }
func (*tradeRemoveCmd) Usage() string {
	return `trade remove -id <strategy> -op <operation>

Detach an operation from a strategy. The operation record itself is kept,
only the link to the strategy is removed.
`
}
func (c *tradeRemoveCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Strategy id")
	f.Int64Var(&c.op, "op", 0, "Operation id (shown by 'strategy view')")
}

func (c *tradeRemoveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == 0 || c.op == 0 {
		fmt.Fprintln(os.Stderr, "Error: -id <strategy> and -op <operation> are required")
		return subcommands.ExitUsageError
	}
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := st.RemoveOperation(c.id, c.op); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed operation %d from strategy %d\n", c.op, c.id)
	return subcommands.ExitSuccess
}
