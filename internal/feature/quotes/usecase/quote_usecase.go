// Package usecase は相場データの取得・ポーリング・表示用データ生成のビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
)

// QuoteUsecase fetches raw responses through a QuoteRepository and decodes them into
// entities. Identical concurrent requests share one upstream call.
type QuoteUsecase struct {
	repo    QuoteRepository
	decoder ResponseDecoder
	group   singleflight.Group
	now     func() time.Time
	log     *slog.Logger
}

// NewQuoteUsecase はQuoteUsecaseの新しいインスタンスを生成します。
func NewQuoteUsecase(repo QuoteRepository, decoder ResponseDecoder, log *slog.Logger) *QuoteUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &QuoteUsecase{repo: repo, decoder: decoder, now: time.Now, log: log}
}

// Ticks returns the latest trade snapshot for req.Codes.
func (u *QuoteUsecase) Ticks(ctx context.Context, req entity.TickRequest) (entity.TickSnapshot, error) {
	v, err, _ := u.group.Do(req.CacheKey(), func() (any, error) {
		res, err := u.repo.FetchTicks(ctx, req)
		if err != nil {
			return entity.TickSnapshot{}, err
		}
		ticks, err := u.decoder.DecodeTicks(res.Body)
		if err != nil {
			u.log.Warn("undecodable tick response", "key", req.CacheKey(), "stale", res.Stale, "error", err)
			return entity.TickSnapshot{}, fmt.Errorf("%w: %w", domain.ErrNoData, err)
		}
		return entity.TickSnapshot{Ticks: ticks, Stale: res.Stale, FetchedAt: u.fetchedAt(res)}, nil
	})
	if err != nil {
		return entity.TickSnapshot{}, err
	}
	return v.(entity.TickSnapshot), nil
}

// Klines returns the bar series described by req. Unset request fields take defaults.
func (u *QuoteUsecase) Klines(ctx context.Context, req entity.KlineRequest) (entity.KlineSeries, error) {
	req = req.WithDefaults()
	v, err, _ := u.group.Do(req.CacheKey(), func() (any, error) {
		res, err := u.repo.FetchKlines(ctx, req)
		if err != nil {
			return entity.KlineSeries{}, err
		}
		bars, err := u.decoder.DecodeKlines(res.Body)
		if err != nil {
			u.log.Warn("undecodable kline response", "key", req.CacheKey(), "stale", res.Stale, "error", err)
			return entity.KlineSeries{}, fmt.Errorf("%w: %w", domain.ErrNoData, err)
		}
		return entity.KlineSeries{
			Code:      req.Code,
			Type:      req.Type,
			Bars:      bars,
			Stale:     res.Stale,
			FetchedAt: u.fetchedAt(res),
		}, nil
	})
	if err != nil {
		return entity.KlineSeries{}, err
	}
	return v.(entity.KlineSeries), nil
}

func (u *QuoteUsecase) fetchedAt(res entity.RawResponse) time.Time {
	if res.StoredAt.IsZero() {
		return u.now()
	}
	return res.StoredAt
}
