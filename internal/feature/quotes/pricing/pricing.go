// Package pricing turns raw ticks and kline bars into display-ready prices.
// Every function here is pure; callers own all state.
package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/quotes/domain/entity"
)

// Placeholder is rendered for any price field that has no data behind it.
const Placeholder = "--"

var (
	// GramsPerTroyOunce is the troy ounce to gram factor used for per-gram pricing.
	GramsPerTroyOunce = decimal.RequireFromString("31.1035")
	// DefaultSpreadPercent is the retail spread applied around spot (1.6%).
	DefaultSpreadPercent = decimal.RequireFromString("1.6")

	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// BidAsk splits spreadPercent symmetrically around spot.
func BidAsk(spot, spreadPercent decimal.Decimal) (bid, ask decimal.Decimal) {
	half := spreadPercent.Div(hundred).Div(two)
	return spot.Mul(one.Sub(half)), spot.Mul(one.Add(half))
}

// OzToGrams converts a price per troy ounce into a price per gram.
func OzToGrams(pricePerOz decimal.Decimal) decimal.Decimal {
	return pricePerOz.Div(GramsPerTroyOunce)
}

// PercentChange returns (current-previous)/previous*100, or zero when previous is zero.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Mul(hundred).Div(previous)
}

// LatestBarChange compares the close of the newest bar with the one before it.
// Bars must be ordered oldest to newest. Fewer than two bars report a flat change.
func LatestBarChange(bars []entity.KlineBar) decimal.Decimal {
	if len(bars) < 2 {
		return decimal.Zero
	}
	return PercentChange(bars[len(bars)-1].Close, bars[len(bars)-2].Close)
}

// Input is everything BuildDisplayQuote needs for one instrument.
type Input struct {
	Instrument    entity.Instrument
	Tick          *entity.Tick // latest trade, nil when none has arrived
	TickAt        time.Time
	Bars          []entity.KlineBar
	Stale         bool
	SpreadPercent decimal.Decimal // zero means DefaultSpreadPercent
}

// BuildDisplayQuote derives a DisplayQuote. The spot price comes from the tick when one is
// present, otherwise from the close of the newest bar. Without either the quote is marked
// unavailable and all price fields stay zero; renderers must use Placeholder for them.
func BuildDisplayQuote(in Input) entity.DisplayQuote {
	q := entity.DisplayQuote{
		Symbol: strings.ToUpper(in.Instrument.Code),
		Name:   in.Instrument.Name,
		Stale:  in.Stale,
	}

	switch {
	case in.Tick != nil:
		q.USDPerOz = in.Tick.Price
		q.RawPrice = in.Tick.RawPrice
		q.Timestamp = in.TickAt
	case len(in.Bars) > 0:
		last := in.Bars[len(in.Bars)-1]
		q.USDPerOz = last.Close
		q.RawPrice = last.Close.String()
		q.Timestamp = last.Time
	default:
		return q
	}

	spread := in.SpreadPercent
	if spread.IsZero() {
		spread = DefaultSpreadPercent
	}

	q.Available = true
	q.PerGram = OzToGrams(q.USDPerOz)
	q.BidPrice, q.AskPrice = BidAsk(q.USDPerOz, spread)
	q.ChangePercent = LatestBarChange(in.Bars)
	return q
}

// FormatUSD renders a dollar amount with two decimals, or Placeholder when !ok.
func FormatUSD(v decimal.Decimal, ok bool) string {
	if !ok {
		return Placeholder
	}
	return "$" + v.StringFixed(2)
}

// FormatPercent renders a signed percentage with two decimals, or Placeholder when !ok.
func FormatPercent(v decimal.Decimal, ok bool) string {
	if !ok {
		return Placeholder
	}
	s := v.StringFixed(2)
	if !v.IsNegative() {
		s = "+" + s
	}
	return s + "%"
}
