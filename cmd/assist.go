package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/agent"
	"github.com/nahuelrabey/operar-marketdata-fetch/renderer"
	"github.com/nahuelrabey/operar-marketdata-fetch/store"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `assist [initial question]

Start an interactive session with the AI assistant. The assistant can list
strategies, report on one, and read the latest stored prices.
`
}
func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	st, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	a := agent.New(os.Stdout, os.Stdin, agent.NewAnalyst(analystTools(st)))
	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// analystTools builds the function library the assistant uses to read the
// strategy database.
func analystTools(st *store.Store) []agent.Function {
	listStrategies := &agent.Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "ListStrategies",
			Description: "List all of the user's strategies with their id, name and status (OPEN or CLOSED), newest first.",
			Parameters:  &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table of strategies.",
			},
		},
		Func: func(_ context.Context, id string, _ map[string]any) *genai.FunctionResponse {
			positions, err := st.Positions()
			if err != nil {
				return agent.Error(id, "ListStrategies", err)
			}
			return agent.Output(id, "ListStrategies", renderer.Positions(positions))
		},
	}

	strategyReport := &agent.Func{
		Decl: &genai.FunctionDeclaration{
			Name: "StrategyReport",
			Description: `Full report of one strategy: net composition, current P&L of each
			leg against the latest stored prices, and the simulated P&L at expiration.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id": {
						Type:        genai.TypeNumber,
						Description: "The strategy id, as listed by ListStrategies.",
					},
				},
				Required: []string{"id"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report of the strategy.",
			},
		},
		Func: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
			raw, ok := args["id"].(float64)
			if !ok {
				return agent.Error(id, "StrategyReport", fmt.Errorf("argument 'id' is not a number but %T", args["id"]))
			}
			detail, err := strategyDetail(st, int64(raw), 0, operar.DefaultRangePct, operar.DefaultSteps)
			if err != nil {
				return agent.Error(id, "StrategyReport", err)
			}
			return agent.Output(id, "StrategyReport", renderer.Strategy(detail))
		},
	}

	latestPrices := &agent.Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "LatestPrices",
			Description: "The latest stored price of every option contract on an underlying, ordered by strike.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"underlying": {
						Type:        genai.TypeString,
						Description: "The underlying symbol, e.g. GGAL.",
					},
				},
				Required: []string{"underlying"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table of contracts and prices.",
			},
		},
		Func: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
			underlying, ok := args["underlying"].(string)
			if !ok {
				return agent.Error(id, "LatestPrices", fmt.Errorf("argument 'underlying' is not a string but %T", args["underlying"]))
			}
			quotes, err := st.LatestQuotesByUnderlying(underlying)
			if err != nil {
				return agent.Error(id, "LatestPrices", err)
			}
			return agent.Output(id, "LatestPrices", renderer.Prices(underlying, quotes))
		},
	}

	return []agent.Function{listStrategies, strategyReport, latestPrices}
}
