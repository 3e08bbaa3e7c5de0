package operar

import "sort"

// LegBalance is the net signed quantity held on one contract symbol within
// a position.
type LegBalance struct {
	Symbol      string
	NetQuantity int64
}

// Composition reduces a list of operations into the net signed quantity per
// contract symbol. Symbols that net to exactly zero are omitted: a fully
// closed leg disappears from the composition. A negative net quantity is a
// net short leg.
//
// Aggregation is commutative, so the input order is irrelevant. The result
// is sorted by symbol to keep reports stable.
func Composition(ops []Operation) []LegBalance {
	net := make(map[string]int64)
	for _, op := range ops {
		net[op.ContractSymbol] += op.SignedQuantity()
	}

	balances := make([]LegBalance, 0, len(net))
	for symbol, quantity := range net {
		if quantity == 0 {
			continue
		}
		balances = append(balances, LegBalance{Symbol: symbol, NetQuantity: quantity})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Symbol < balances[j].Symbol })
	return balances
}
