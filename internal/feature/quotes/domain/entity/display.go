package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisplayQuote is the render-ready view of one instrument.
// It is rebuilt from the latest tick/kline data on every read and never mutated.
// When Available is false every price field is meaningless and must be rendered
// as a placeholder rather than as zero.
type DisplayQuote struct {
	Symbol        string
	Name          string
	USDPerOz      decimal.Decimal
	PerGram       decimal.Decimal
	ChangePercent decimal.Decimal
	BidPrice      decimal.Decimal
	AskPrice      decimal.Decimal
	Timestamp     time.Time
	RawPrice      string
	Available     bool
	Stale         bool
}
