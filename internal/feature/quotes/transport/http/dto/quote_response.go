package dto

// QuoteResponse は1銘柄の表示用相場データのレスポンスDTOです。
// 価格が取得できていない項目は "--" になります。
type QuoteResponse struct {
	Symbol        string `json:"symbol"`              // 銘柄コード（大文字）
	Name          string `json:"name"`                // 表示名
	USDPerOz      string `json:"usd_per_oz"`          // 1トロイオンスあたりの価格
	PerGram       string `json:"per_gram"`            // 1グラムあたりの価格
	ChangePercent string `json:"change_percent"`      // 直前の足からの騰落率
	BidPrice      string `json:"bid_price"`           // 買取価格
	AskPrice      string `json:"ask_price"`           // 販売価格
	RawPrice      string `json:"raw_price,omitempty"` // 上流から受け取った価格文字列
	Timestamp     string `json:"timestamp,omitempty"` // RFC3339
	Available     bool   `json:"available"`           // 価格が取得できているか
	Stale         bool   `json:"stale"`               // キャッシュからの代替データか
}

// KlineBarResponse はK線1本分のレスポンスDTOです。
type KlineBarResponse struct {
	Time   string `json:"time"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Volume string `json:"volume"`
}

// KlineResponse はK線系列のレスポンスDTOです。
type KlineResponse struct {
	Code      string             `json:"code"`
	KlineType int                `json:"kline_type"`
	Stale     bool               `json:"stale"`
	Bars      []KlineBarResponse `json:"bars"`
}

// ConvertResponse は重量単位換算のレスポンスDTOです。
type ConvertResponse struct {
	Value  string `json:"value"`
	From   string `json:"from"`
	To     string `json:"to"`
	Result string `json:"result"`
}

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}
