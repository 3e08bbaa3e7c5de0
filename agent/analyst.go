package agent

import "google.golang.org/genai"

const model = "gemini-2.5-pro"

// NewAnalyst creates the options strategy analyst. The functions give it
// read access to the strategy database; see cmd/assist.go for the wiring.
func NewAnalyst(functions []Function) *Expert {
	return &Expert{
		Name: "Analyst",
		Description: `An expert on the user's options strategies: what they hold,
		what each strategy is worth right now, and how it behaves at expiration.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(functions)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an analyst in charge of the user's options strategies.
			Use the available tools to answer questions about their strategies:
			  - list of strategies and their status
			  - full report of one strategy: composition, current P&L, P&L at expiration
			  - latest market prices of an option chain

			Tools return markdown tables, quote the relevant figures rather than
			dumping whole tables. Amounts are in Argentine pesos (ARS).
			Never invent figures: if a tool reports missing market data, say so.
		`}}},
		},
		Library: NewLibrary(functions),
	}
}
