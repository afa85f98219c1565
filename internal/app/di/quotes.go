// Package di provides dependency injection factories for creating application components.
package di

import (
	"log/slog"
	"time"

	"bullion_backend/internal/app/config"
	"bullion_backend/internal/feature/quotes/adapters/alltick"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/usecase"
	"bullion_backend/internal/platform/cache"
	infrahttp "bullion_backend/internal/platform/http"
	"bullion_backend/internal/shared/ratelimiter"
)

// NewMarket creates a fully configured AllTickMarket with HTTP client and rate limiter.
func NewMarket(cfg alltick.Config) *alltick.AllTickMarket {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	limiter := ratelimiter.NewRateLimiter(cfg.RateLimit, time.Minute)
	return alltick.NewAllTickMarket(cfg, httpClient, limiter)
}

// NewQuoteRepository wraps inner with the tick and kline caches stored in backend.
func NewQuoteRepository(inner usecase.QuoteRepository, backend cache.Backend, cfg config.Config,
	recorder cache.FetchRecorder, log *slog.Logger) *cache.CachingQuoteRepository {
	ticks := cache.NewStore(backend, cfg.TickTTL, entity.TickCachePrefix, cache.WithLogger(log))
	klines := cache.NewStore(backend, cfg.KlineTTL, entity.KlineCachePrefix, cache.WithLogger(log))
	return cache.NewCachingQuoteRepository(inner, ticks, klines, recorder, log)
}

// NewDashboard builds one board per configured instrument over repo.
func NewDashboard(repo *cache.CachingQuoteRepository, cfg config.Config, log *slog.Logger) *usecase.Dashboard {
	uc := usecase.NewQuoteUsecase(repo, alltick.NewCodec(log), log)

	boards := make([]*usecase.Board, 0, len(cfg.Instruments))
	for _, in := range cfg.Instruments {
		boards = append(boards, usecase.NewBoard(uc, usecase.BoardConfig{
			Instrument:    in,
			IsStock:       cfg.IsStock,
			KlineType:     cfg.KlineType,
			KlineNum:      cfg.KlineNum,
			SpreadPercent: cfg.SpreadPercent,
			Poll:          usecase.PollerConfig{Interval: cfg.PollInterval},
		}, log))
	}
	return usecase.NewDashboard(boards, repo)
}
