package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RawResponse is an upstream JSON body as returned by the quote API or replayed from cache.
// The body is kept opaque until the usecase decodes it.
type RawResponse struct {
	Body     json.RawMessage
	Stale    bool      // true when served from cache after a failed live fetch
	StoredAt time.Time // when the body was received from upstream
}

// Tick is the latest trade price of one instrument.
type Tick struct {
	Code     string
	Price    decimal.Decimal
	RawPrice string // price exactly as sent by upstream
}

// TickSnapshot is one decoded trade-tick response.
type TickSnapshot struct {
	Ticks     []Tick
	Stale     bool
	FetchedAt time.Time
}

// Find returns the tick for code, if the snapshot carries one.
func (s TickSnapshot) Find(code string) (Tick, bool) {
	for _, t := range s.Ticks {
		if t.Code == code {
			return t, true
		}
	}
	return Tick{}, false
}

// KlineType is the bar interval in minutes as understood by the kline endpoint.
type KlineType int

const (
	KlineOneMinute      KlineType = 1
	KlineFiveMinutes    KlineType = 5
	KlineFifteenMinutes KlineType = 15
	KlineThirtyMinutes  KlineType = 30
	KlineOneHour        KlineType = 60
	KlineOneDay         KlineType = 1440
	KlineOneWeek        KlineType = 10080
	KlineOneMonth       KlineType = 43200
)

// Valid reports whether t is one of the intervals the upstream API accepts.
func (t KlineType) Valid() bool {
	switch t {
	case KlineOneMinute, KlineFiveMinutes, KlineFifteenMinutes, KlineThirtyMinutes,
		KlineOneHour, KlineOneDay, KlineOneWeek, KlineOneMonth:
		return true
	}
	return false
}

// KlineBar is one OHLCV interval record.
type KlineBar struct {
	Time   time.Time
	Open   decimal.Decimal
	Close  decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Volume decimal.Decimal
}

// KlineSeries is a decoded kline response, ordered oldest to newest.
type KlineSeries struct {
	Code      string
	Type      KlineType
	Bars      []KlineBar
	Stale     bool
	FetchedAt time.Time
}
