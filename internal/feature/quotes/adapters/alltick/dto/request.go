// Package dto holds the AllTick wire formats.
package dto

// TickSymbol is one entry of symbol_list.
type TickSymbol struct {
	Code string `json:"code"`
}

// TickQuery is the inner "data" object of a trade-tick request.
type TickQuery struct {
	SymbolList []TickSymbol `json:"symbol_list"`
}

// TickRequestData carries the request plus replay protection fields.
type TickRequestData struct {
	IsStock   bool      `json:"isStock"`
	Data      TickQuery `json:"data"`
	Trace     string    `json:"trace"`
	Timestamp int64     `json:"timestamp"` // epoch ms
}

// TickRequestBody is POSTed to the trade-tick endpoint.
type TickRequestBody struct {
	Data TickRequestData `json:"data"`
}

// KlineRequestData is the inner object of a kline request.
type KlineRequestData struct {
	Code              string `json:"code"`
	KlineType         int    `json:"kline_type"`
	KlineTimestampEnd int64  `json:"kline_timestamp_end"`
	QueryKlineNum     int    `json:"query_kline_num"`
	AdjustType        int    `json:"adjust_type"`
	IsStock           bool   `json:"isStock"`
}

// KlineRequestBody is POSTed to the kline endpoint.
type KlineRequestBody struct {
	Data KlineRequestData `json:"data"`
}
