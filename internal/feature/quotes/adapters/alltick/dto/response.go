package dto

import "encoding/json"

// Numeric fields are kept raw: upstream sends them as strings, but numbers and nulls
// have been observed, and a bad value must only drop its own record.

// TickResponse is the trade-tick endpoint response.
type TickResponse struct {
	Ret   int       `json:"ret"`
	Msg   string    `json:"msg"`
	Trace string    `json:"trace"`
	Data  *TickData `json:"data"`
}

// TickData wraps the tick list.
type TickData struct {
	TickList []TickItem `json:"tick_list"`
}

// TickItem is the latest trade of one code.
type TickItem struct {
	Code     string          `json:"code"`
	Price    json.RawMessage `json:"price"`
	TickTime json.RawMessage `json:"tick_time"`
}

// KlineResponse is the kline endpoint response.
type KlineResponse struct {
	Ret   int        `json:"ret"`
	Msg   string     `json:"msg"`
	Trace string     `json:"trace"`
	Data  *KlineData `json:"data"`
}

// KlineData wraps the bar list of one code.
type KlineData struct {
	Code      string      `json:"code"`
	KlineType int         `json:"kline_type"`
	KlineList []KlineItem `json:"kline_list"`
}

// KlineItem is one OHLCV bar. Timestamp is epoch seconds.
type KlineItem struct {
	Timestamp  json.RawMessage `json:"timestamp"`
	OpenPrice  json.RawMessage `json:"open_price"`
	ClosePrice json.RawMessage `json:"close_price"`
	HighPrice  json.RawMessage `json:"high_price"`
	LowPrice   json.RawMessage `json:"low_price"`
	Volume     json.RawMessage `json:"volume"`
	Turnover   json.RawMessage `json:"turnover,omitempty"`
}
