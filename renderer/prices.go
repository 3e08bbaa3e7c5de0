package renderer

import (
	"fmt"
	"strings"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
)

// Prices renders the latest-known quotes of an underlying's option chain.
func Prices(underlying string, quotes []operar.ContractQuote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Latest prices for %s\n\n", underlying)
	if len(quotes) == 0 {
		fmt.Fprintf(&b, "No prices found for %s.\n", underlying)
		return b.String()
	}
	fmt.Fprintln(&b, "| Symbol | Type | Strike | Price | Timestamp |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|:---|")
	for _, q := range quotes {
		timestamp := "-"
		if q.Time != nil {
			timestamp = q.Time.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			q.Symbol, q.Type, q.Strike.StringFixed(2), operar.ARS(q.Price), timestamp)
	}
	return b.String()
}
