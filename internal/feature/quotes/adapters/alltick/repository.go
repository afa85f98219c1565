package alltick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bullion_backend/internal/feature/quotes/adapters/alltick/dto"
	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/usecase"
	"bullion_backend/internal/shared/ratelimiter"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 4 << 20

// AllTickMarket はAllTick外部APIからティック・K線データを取得するQuoteRepository実装です。
type AllTickMarket struct {
	cfg      Config
	client   *http.Client
	limiter  ratelimiter.Limiter
	now      func() time.Time
	newTrace func() string
}

// AllTickMarketがQuoteRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.QuoteRepository = (*AllTickMarket)(nil)

// NewAllTickMarket は指定された設定とHTTPクライアントでAllTickMarketの新しいインスタンスを生成します。
// limiter が nil の場合は送信頻度を制限しません。
func NewAllTickMarket(cfg Config, client *http.Client, limiter ratelimiter.Limiter) *AllTickMarket {
	return &AllTickMarket{
		cfg:      cfg,
		client:   client,
		limiter:  limiter,
		now:      time.Now,
		newTrace: uuid.NewString,
	}
}

// FetchTicks はtrade-tickエンドポイントへ最新価格を問い合わせ、レスポンス本文をそのまま返します。
func (a *AllTickMarket) FetchTicks(ctx context.Context, req entity.TickRequest) (entity.RawResponse, error) {
	trace := req.Trace
	if trace == "" {
		trace = a.newTrace()
	}
	symbols := make([]dto.TickSymbol, 0, len(req.Codes))
	for _, c := range req.Codes {
		symbols = append(symbols, dto.TickSymbol{Code: c})
	}
	body := dto.TickRequestBody{Data: dto.TickRequestData{
		IsStock:   req.IsStock,
		Data:      dto.TickQuery{SymbolList: symbols},
		Trace:     trace,
		Timestamp: a.now().UnixMilli(),
	}}

	raw, err := a.post(ctx, a.cfg.TickURL, body)
	if err != nil {
		return entity.RawResponse{}, err
	}
	return entity.RawResponse{Body: raw, StoredAt: a.now()}, nil
}

// FetchKlines はklineエンドポイントからK線データを取得します。未指定の項目には既定値を使います。
func (a *AllTickMarket) FetchKlines(ctx context.Context, req entity.KlineRequest) (entity.RawResponse, error) {
	req = req.WithDefaults()
	body := dto.KlineRequestBody{Data: dto.KlineRequestData{
		Code:              req.Code,
		KlineType:         int(req.Type),
		KlineTimestampEnd: req.EndTimestamp,
		QueryKlineNum:     req.Num,
		AdjustType:        req.AdjustType,
		IsStock:           req.IsStock,
	}}

	raw, err := a.post(ctx, a.cfg.KlineURL, body)
	if err != nil {
		return entity.RawResponse{}, err
	}
	return entity.RawResponse{Body: raw, StoredAt: a.now()}, nil
}

// post sends payload as JSON and returns the validated response body.
func (a *AllTickMarket) post(ctx context.Context, url string, payload any) (json.RawMessage, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrNetwork, err)
		}
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("alltick: encode request: %w", err)
	}

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	// リクエストを実行
	res, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("%w: alltick http %d", domain.ErrNetwork, res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrNetwork, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: alltick body is not JSON", domain.ErrParse)
	}
	return data, nil
}
