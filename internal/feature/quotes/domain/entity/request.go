package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Cache key prefixes, one namespace per endpoint.
const (
	TickCachePrefix  = "trade-tick-cache"
	KlineCachePrefix = "kline-cache"
)

// Kline request defaults applied when a field is left at its zero value.
const (
	DefaultKlineNum    = 50
	DefaultAdjustType  = 0
	DefaultKlineEndSec = 0 // 0 means "up to the latest bar"
)

// TickRequest asks the trade-tick endpoint for the latest price of each code.
type TickRequest struct {
	Codes   []string
	IsStock bool
	Trace   string // optional; generated per request when empty
}

// CacheKey derives the tick cache key. Code order and duplicates do not matter.
func (r TickRequest) CacheKey() string {
	return CacheKey(TickCachePrefix, r.Codes, MarketKindOf(r.IsStock), 0)
}

// KlineRequest asks the kline endpoint for a bar series of one code.
type KlineRequest struct {
	Code         string
	Type         KlineType
	EndTimestamp int64 // epoch seconds, 0 = latest
	Num          int
	AdjustType   int
	IsStock      bool
}

// WithDefaults returns a copy with unset fields filled in.
func (r KlineRequest) WithDefaults() KlineRequest {
	if r.Num <= 0 {
		r.Num = DefaultKlineNum
	}
	if r.Type == 0 {
		r.Type = KlineOneMinute
	}
	return r
}

// CacheKey derives the kline cache key.
func (r KlineRequest) CacheKey() string {
	return CacheKey(KlineCachePrefix, []string{r.Code}, MarketKindOf(r.IsStock), r.Type)
}

// CacheKey builds "<prefix>-<market>-<codes>[-<interval>]".
// Codes are de-duplicated and sorted before joining so that logically identical
// requests always share one key. A zero interval is omitted.
func CacheKey(prefix string, codes []string, market MarketKind, interval KlineType) string {
	key := fmt.Sprintf("%s-%s-%s", prefix, market, strings.Join(normalizeCodes(codes), ","))
	if interval != 0 {
		key = fmt.Sprintf("%s-%d", key, int(interval))
	}
	return key
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
