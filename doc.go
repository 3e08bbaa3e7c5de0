// Package operar tracks option-trading strategies on the Buenos Aires
// exchange (bCBA): positions composed of individual BUY/SELL operations on
// option contracts, with profit-and-loss computed both at current market
// prices and at expiration across a simulated range of underlying prices.
//
// The package holds the domain types and the pure computation engine
// (composition aggregation and P&L). Persistence lives in the store
// subpackage, market data fetching in the iol subpackage, and presentation
// in cmd and renderer.
package operar
