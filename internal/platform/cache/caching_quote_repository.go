package cache

import (
	"context"
	"fmt"
	"log/slog"

	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/usecase"
)

// Fetch outcomes reported to a FetchRecorder.
const (
	OutcomeFresh  = "fresh"
	OutcomeStale  = "stale"
	OutcomeFailed = "failed"
)

// Endpoint labels reported to a FetchRecorder.
const (
	EndpointTick  = "tick"
	EndpointKline = "kline"
)

// FetchRecorder receives one observation per fetch. It may be nil.
type FetchRecorder interface {
	ObserveFetch(endpoint, outcome string)
}

// CachingQuoteRepository decorates a QuoteRepository with write-through caching and
// stale fallback: every successful response is stored, and when the upstream call fails
// an unexpired cached response is served instead, flagged as stale.
type CachingQuoteRepository struct {
	inner    usecase.QuoteRepository
	ticks    *Store
	klines   *Store
	recorder FetchRecorder
	log      *slog.Logger
}

var _ usecase.QuoteRepository = (*CachingQuoteRepository)(nil)

// NewCachingQuoteRepository decorates inner. A nil store disables caching for that endpoint.
func NewCachingQuoteRepository(inner usecase.QuoteRepository, ticks, klines *Store, recorder FetchRecorder, log *slog.Logger) *CachingQuoteRepository {
	if log == nil {
		log = slog.Default()
	}
	return &CachingQuoteRepository{
		inner:    inner,
		ticks:    ticks,
		klines:   klines,
		recorder: recorder,
		log:      log.With("component", "quote_cache"),
	}
}

// FetchTicks fetches trade ticks, falling back to the tick cache on failure.
func (c *CachingQuoteRepository) FetchTicks(ctx context.Context, req entity.TickRequest) (entity.RawResponse, error) {
	return c.fetch(ctx, EndpointTick, c.ticks, req.CacheKey(), func(ctx context.Context) (entity.RawResponse, error) {
		return c.inner.FetchTicks(ctx, req)
	})
}

// FetchKlines fetches a kline series, falling back to the kline cache on failure.
func (c *CachingQuoteRepository) FetchKlines(ctx context.Context, req entity.KlineRequest) (entity.RawResponse, error) {
	req = req.WithDefaults()
	return c.fetch(ctx, EndpointKline, c.klines, req.CacheKey(), func(ctx context.Context) (entity.RawResponse, error) {
		return c.inner.FetchKlines(ctx, req)
	})
}

// ClearAll drops every cached tick and kline response.
func (c *CachingQuoteRepository) ClearAll(ctx context.Context) {
	if c.ticks != nil {
		c.ticks.ClearByPrefix(ctx, entity.TickCachePrefix)
	}
	if c.klines != nil {
		c.klines.ClearByPrefix(ctx, entity.KlineCachePrefix)
	}
}

func (c *CachingQuoteRepository) fetch(ctx context.Context, endpoint string, store *Store, key string,
	call func(context.Context) (entity.RawResponse, error)) (entity.RawResponse, error) {
	res, err := call(ctx)
	if store == nil {
		c.observe(endpoint, err == nil)
		if err != nil {
			return entity.RawResponse{}, fmt.Errorf("%w: %w", domain.ErrNoData, err)
		}
		return res, nil
	}

	// The live call may have failed because ctx expired; cache access must still work.
	cctx := context.WithoutCancel(ctx)

	if err == nil {
		store.Set(cctx, key, res.Body)
		c.observe(endpoint, true)
		return res, nil
	}

	// 1) Live fetch failed: try the cache
	if entry, ok := store.Get(cctx, key); ok {
		c.log.Warn("upstream failed, serving cached quote", "endpoint", endpoint, "key", key,
			"stored_at", entry.StoredAt, "error", err)
		if c.recorder != nil {
			c.recorder.ObserveFetch(endpoint, OutcomeStale)
		}
		return entity.RawResponse{Body: entry.Payload, Stale: true, StoredAt: entry.StoredAt}, nil
	}

	// 2) Nothing usable cached
	c.observe(endpoint, false)
	c.log.Error("upstream failed with no cache fallback", "endpoint", endpoint, "key", key, "error", err)
	return entity.RawResponse{}, fmt.Errorf("%w: %w", domain.ErrNoData, err)
}

func (c *CachingQuoteRepository) observe(endpoint string, ok bool) {
	if c.recorder == nil {
		return
	}
	if ok {
		c.recorder.ObserveFetch(endpoint, OutcomeFresh)
		return
	}
	c.recorder.ObserveFetch(endpoint, OutcomeFailed)
}
