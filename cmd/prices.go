package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/nahuelrabey/operar-marketdata-fetch/renderer"
)

// pricesCmd implements the "prices" command.
type pricesCmd struct {
	underlying string
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "show the latest stored prices of an option chain" }
func (*pricesCmd) Usage() string {
	return `prices [-u <underlying>]

Show the latest stored price of every contract on an underlying, ordered by
strike. Only reads the database; run 'fetch chain' first to refresh.
`
}
func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.underlying, "u", "GGAL", "Underlying symbol")
}

func (c *pricesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	quotes, err := st.LatestQuotesByUnderlying(c.underlying)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Prices(c.underlying, quotes))
	return subcommands.ExitSuccess
}
