package alltick

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/quotes/adapters/alltick/dto"
	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/usecase"
)

// Codec decodes AllTick response bodies into domain entities.
type Codec struct {
	log *slog.Logger
}

var _ usecase.ResponseDecoder = (*Codec)(nil)

// NewCodec returns a Codec. A nil logger means slog.Default().
func NewCodec(log *slog.Logger) *Codec {
	if log == nil {
		log = slog.Default()
	}
	return &Codec{log: log}
}

// DecodeTicks extracts data.tick_list. Ticks without a usable price are skipped.
func (c *Codec) DecodeTicks(body json.RawMessage) ([]entity.Tick, error) {
	var res dto.TickResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: tick response: %w", domain.ErrParse, err)
	}
	if res.Data == nil {
		return nil, nil
	}

	ticks := make([]entity.Tick, 0, len(res.Data.TickList))
	for _, item := range res.Data.TickList {
		if item.Code == "" {
			c.log.Warn("skipping tick without code")
			continue
		}
		price, raw, ok := parseDecimal(item.Price)
		if !ok {
			c.log.Warn("skipping tick with unusable price", "code", item.Code, "price", string(item.Price))
			continue
		}
		ticks = append(ticks, entity.Tick{Code: item.Code, Price: price, RawPrice: raw})
	}
	return ticks, nil
}

// DecodeKlines extracts data.kline_list ordered oldest to newest.
// Bars with any unusable price or timestamp are skipped.
func (c *Codec) DecodeKlines(body json.RawMessage) ([]entity.KlineBar, error) {
	var res dto.KlineResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: kline response: %w", domain.ErrParse, err)
	}
	if res.Data == nil {
		return nil, nil
	}

	bars := make([]entity.KlineBar, 0, len(res.Data.KlineList))
	for i, item := range res.Data.KlineList {
		bar, ok := toBar(item)
		if !ok {
			c.log.Warn("skipping malformed kline bar", "code", res.Data.Code, "index", i)
			continue
		}
		bars = append(bars, bar)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func toBar(item dto.KlineItem) (entity.KlineBar, bool) {
	_, rawTS, ok := parseDecimal(item.Timestamp)
	if !ok {
		return entity.KlineBar{}, false
	}
	sec, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return entity.KlineBar{}, false
	}

	var bar entity.KlineBar
	bar.Time = time.Unix(sec, 0).UTC()
	fields := []struct {
		raw json.RawMessage
		dst *decimal.Decimal
	}{
		{item.OpenPrice, &bar.Open},
		{item.ClosePrice, &bar.Close},
		{item.HighPrice, &bar.High},
		{item.LowPrice, &bar.Low},
	}
	for _, f := range fields {
		v, _, ok := parseDecimal(f.raw)
		if !ok {
			return entity.KlineBar{}, false
		}
		*f.dst = v
	}
	// Volume is informational; a missing volume does not invalidate the prices.
	if v, _, ok := parseDecimal(item.Volume); ok {
		bar.Volume = v
	}
	return bar, true
}

// parseDecimal accepts a JSON string or number holding a finite decimal.
// It returns the value, its textual form and whether it was usable.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Decimal{}, "", false
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, "", false
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, "", false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, "", false
	}
	return d, s, true
}
