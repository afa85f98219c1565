// Package entity defines the domain models for the quotes feature.
package entity

// Instrument is a tradable metal as known to the upstream quote API.
type Instrument struct {
	Code string // Upstream instrument code (e.g., "GOLD", "Silver")
	Name string // Human readable name shown next to prices
}

// DefaultInstruments is the gold/silver/platinum set shown on the live price board.
var DefaultInstruments = []Instrument{
	{Code: "GOLD", Name: "Gold"},
	{Code: "Silver", Name: "Silver"},
	{Code: "Platinum", Name: "Platinum"},
}

// MarketKind selects the upstream market segment. Metals are quoted on the forex segment.
type MarketKind string

const (
	MarketForex MarketKind = "forex"
	MarketStock MarketKind = "stock"
)

// MarketKindOf maps the upstream isStock flag to a MarketKind.
func MarketKindOf(isStock bool) MarketKind {
	if isStock {
		return MarketStock
	}
	return MarketForex
}
