// Package handler はquotesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/pricing"
	"bullion_backend/internal/feature/quotes/transport/http/dto"
)

// convertPlaces is the number of decimals returned by the converter.
const convertPlaces = 6

// QuoteDashboard は相場ボードの読み取り・操作インターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type QuoteDashboard interface {
	Quotes() []entity.DisplayQuote
	Quote(code string) (entity.DisplayQuote, error)
	Klines(code string) (entity.KlineSeries, error)
	Refresh(ctx context.Context, code string) (entity.DisplayQuote, error)
	ClearCache(ctx context.Context)
}

// QuotesHandler は相場データのHTTPリクエストを処理します。
type QuotesHandler struct {
	dash QuoteDashboard
}

// NewQuotesHandler は指定されたダッシュボードでQuotesHandlerの新しいインスタンスを生成します。
func NewQuotesHandler(dash QuoteDashboard) *QuotesHandler {
	return &QuotesHandler{dash: dash}
}

// ListQuotes は全銘柄の表示用相場をJSONで返します。
//
// GET /quotes
func (h *QuotesHandler) ListQuotes(c *gin.Context) {
	quotes := h.dash.Quotes()
	out := make([]dto.QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, toQuoteResponse(q))
	}
	c.JSON(http.StatusOK, out)
}

// GetQuote は1銘柄の表示用相場をJSONで返します。
//
// GET /quotes/:code
func (h *QuotesHandler) GetQuote(c *gin.Context) {
	q, err := h.dash.Quote(c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toQuoteResponse(q))
}

// GetKlines は1銘柄の最新K線系列をJSONで返します。
//
// GET /quotes/:code/klines
func (h *QuotesHandler) GetKlines(c *gin.Context) {
	s, err := h.dash.Klines(c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}

	bars := make([]dto.KlineBarResponse, 0, len(s.Bars))
	for _, b := range s.Bars {
		bars = append(bars, dto.KlineBarResponse{
			Time:   b.Time.UTC().Format(time.RFC3339),
			Open:   b.Open.String(),
			Close:  b.Close.String(),
			High:   b.High.String(),
			Low:    b.Low.String(),
			Volume: b.Volume.String(),
		})
	}
	c.JSON(http.StatusOK, dto.KlineResponse{
		Code:      s.Code,
		KlineType: int(s.Type),
		Stale:     s.Stale,
		Bars:      bars,
	})
}

// RefreshQuote は1銘柄を即時に再取得し、更新後の表示用相場を返します。
//
// POST /quotes/:code/refresh
func (h *QuotesHandler) RefreshQuote(c *gin.Context) {
	q, err := h.dash.Refresh(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toQuoteResponse(q))
}

// ClearCache はティック・K線のキャッシュを全て削除します。
//
// DELETE /cache
func (h *QuotesHandler) ClearCache(c *gin.Context) {
	h.dash.ClearCache(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// Convert は重量単位を換算します。
//
// GET /convert?value=1&from=tael&to=grams
func (h *QuotesHandler) Convert(c *gin.Context) {
	raw := c.Query("value")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "value must be a number"})
		return
	}
	from := pricing.Unit(c.DefaultQuery("from", string(pricing.UnitGram)))
	to := pricing.Unit(c.DefaultQuery("to", string(pricing.UnitGram)))

	res, err := pricing.Convert(value, from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ConvertResponse{
		Value:  value.String(),
		From:   string(from),
		To:     string(to),
		Result: res.StringFixed(convertPlaces),
	})
}

func toQuoteResponse(q entity.DisplayQuote) dto.QuoteResponse {
	out := dto.QuoteResponse{
		Symbol:        q.Symbol,
		Name:          q.Name,
		USDPerOz:      pricing.FormatUSD(q.USDPerOz, q.Available),
		PerGram:       pricing.FormatUSD(q.PerGram, q.Available),
		ChangePercent: pricing.FormatPercent(q.ChangePercent, q.Available),
		BidPrice:      pricing.FormatUSD(q.BidPrice, q.Available),
		AskPrice:      pricing.FormatUSD(q.AskPrice, q.Available),
		RawPrice:      q.RawPrice,
		Available:     q.Available,
		Stale:         q.Stale,
	}
	if !q.Timestamp.IsZero() {
		out.Timestamp = q.Timestamp.UTC().Format(time.RFC3339)
	}
	return out
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownInstrument):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoData):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
	}
}
