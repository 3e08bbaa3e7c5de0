package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/date"
	"github.com/nahuelrabey/operar-marketdata-fetch/iol"
)

const iolTokenEnv = "IOL_TOKEN"

// iolToken resolves the bearer token from the flag, the environment, or the
// token cache, in that order.
func iolToken(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if t := os.Getenv(iolTokenEnv); t != "" {
		return t, nil
	}
	token, err := readToken()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("no IOL token: use -token, the %s environment variable, or run 'token update'", iolTokenEnv)
	}
	return token, nil
}

// fetchCmd is the top-level command for IOL market data operations.
type fetchCmd struct{}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "IOL market data commands" }
func (*fetchCmd) Usage() string {
	return `fetch <subcommand> <options>

Fetch market data from the InvertirOnline (IOL) API.
`
}
func (c *fetchCmd) SetFlags(f *flag.FlagSet) {}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "fetch")
	commander.Register(&fetchChainCmd{}, "")
	commander.Register(&fetchContractsCmd{}, "")
	commander.Register(&fetchHistoryCmd{}, "")
	return commander.Execute(ctx, args...)
}

// fetchChainCmd implements the "fetch chain" command.
type fetchChainCmd struct {
	underlying string
	tokenFlag  string
	dataDir    string
}

func (*fetchChainCmd) Name() string     { return "chain" }
func (*fetchChainCmd) Synopsis() string { return "fetch an option chain and its prices from IOL" }
func (*fetchChainCmd) Usage() string {
	return `fetch chain [-u <underlying>] [-token <token>] [-data-dir <dir>]

Fetch the full option chain of an underlying from IOL, upsert the contracts
and append their prices, then fetch the underlying's spot quote and store it
as a price observation too. The spot price centers the expiration curve of
'strategy view'.

Requires a bearer token: the -token flag, the ` + iolTokenEnv + ` environment
variable, or the cached token from 'token update', in that order.
`
}
func (c *fetchChainCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.underlying, "u", "GGAL", "Underlying symbol")
	f.StringVar(&c.tokenFlag, "token", "", "IOL bearer token. Takes precedence over the "+iolTokenEnv+" environment variable and the cached token.")
	f.StringVar(&c.dataDir, "data-dir", "", "Directory for raw JSON snapshots of the chain responses")
}

func (c *fetchChainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	token, err := iolToken(c.tokenFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	client := iol.New(token)
	client.DataDir = c.dataDir

	contracts, prices, err := client.FetchOptionChain(ctx, c.underlying)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := st.UpsertContracts(contracts); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := st.InsertPriceBatch(prices); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	spot, err := client.FetchUnderlyingQuote(ctx, c.underlying)
	if err != nil {
		// The chain is already stored, a missing spot only degrades the
		// expiration curve's reference price.
		fmt.Fprintf(os.Stderr, "Warning: could not fetch %s spot quote: %v\n", c.underlying, err)
	} else {
		_, err = st.InsertPrice(operar.PriceObservation{
			ContractSymbol: c.underlying,
			Price:          decimal.NewFromFloat(spot),
			SystemTime:     time.Now(),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
	}

	fmt.Printf("Fetched %d contracts and %d prices for %s", len(contracts), len(prices), c.underlying)
	if err == nil {
		fmt.Printf(" (spot %.2f)", spot)
	}
	fmt.Println()
	return subcommands.ExitSuccess
}

// fetchContractsCmd implements the "fetch contracts" command.
type fetchContractsCmd struct {
	tokenFlag string
}

func (*fetchContractsCmd) Name() string { return "contracts" }
func (*fetchContractsCmd) Synopsis() string {
	return "refresh the latest price of every stored contract"
}
func (*fetchContractsCmd) Usage() string {
	return `fetch contracts [-token <token>]

Fetch the current quote of every contract already stored, across all
underlyings, and append one price observation per contract. Lighter than
refetching whole chains when the contracts are already known.
`
}
func (c *fetchContractsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tokenFlag, "token", "", "IOL bearer token. Takes precedence over the "+iolTokenEnv+" environment variable and the cached token.")
}

func (c *fetchContractsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	token, err := iolToken(c.tokenFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	symbols, err := st.ContractSymbols()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if len(symbols) == 0 {
		fmt.Println("No contracts stored yet, run 'fetch chain' first.")
		return subcommands.ExitSuccess
	}

	client := iol.New(token)
	prices := make([]operar.PriceObservation, 0, len(symbols))
	for _, symbol := range symbols {
		p, err := client.FetchQuote(ctx, symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		prices = append(prices, p)
	}
	if err := st.InsertPriceBatch(prices); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Refreshed %d of %d contract prices\n", len(prices), len(symbols))
	return subcommands.ExitSuccess
}

// fetchHistoryCmd implements the "fetch history" command.
type fetchHistoryCmd struct {
	from      string
	to        string
	tokenFlag string
}

func (*fetchHistoryCmd) Name() string { return "history" }
func (*fetchHistoryCmd) Synopsis() string {
	return "fetch historical prices for all stored contracts"
}
func (*fetchHistoryCmd) Usage() string {
	return `fetch history [-from <date>] [-to <date>] [-token <token>]

Fetch the historical price series of every stored contract over the date
range and append the observations. Responses are cached on disk for a day,
so rerunning a bulk fetch is cheap.
`
}
func (c *fetchHistoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "2025-01-01", "Start date (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "End date (YYYY-MM-DD), defaults to today")
	f.StringVar(&c.tokenFlag, "token", "", "IOL bearer token. Takes precedence over the "+iolTokenEnv+" environment variable and the cached token.")
}

func (c *fetchHistoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, err := date.Parse(c.from)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	to := date.Today()
	if c.to != "" {
		to, err = date.Parse(c.to)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
	}

	token, err := iolToken(c.tokenFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	symbols, err := st.ContractSymbols()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if len(symbols) == 0 {
		fmt.Println("No contracts stored yet, run 'fetch chain' first.")
		return subcommands.ExitSuccess
	}

	client := iol.New(token)
	var total int
	for _, symbol := range symbols {
		prices, err := client.FetchHistory(ctx, symbol, from, to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		if err := st.InsertPriceBatch(prices); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		total += len(prices)
	}
	fmt.Printf("Stored %d historical prices across %d contracts\n", total, len(symbols))
	return subcommands.ExitSuccess
}
