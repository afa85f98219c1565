package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullion_backend/internal/feature/quotes/adapters/alltick"
	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/pricing"
	"bullion_backend/internal/feature/quotes/usecase"
	"bullion_backend/internal/platform/cache"
)

// metalsRepository serves fixed ticks and two-bar series per code, failing for codes in down.
type metalsRepository struct {
	prices map[string][2]string // code -> {previous close, latest price}
	down   map[string]bool
	fail   atomic.Bool
}

func (r *metalsRepository) FetchTicks(_ context.Context, req entity.TickRequest) (entity.RawResponse, error) {
	code := req.Codes[0]
	if r.down[code] || r.fail.Load() {
		return entity.RawResponse{}, fmt.Errorf("%w: http 503", domain.ErrNetwork)
	}
	body := fmt.Sprintf(`{"data":{"tick_list":[{"code":%q,"price":%q}]}}`, code, r.prices[code][1])
	return entity.RawResponse{Body: raw(body)}, nil
}

func (r *metalsRepository) FetchKlines(_ context.Context, req entity.KlineRequest) (entity.RawResponse, error) {
	if r.down[req.Code] || r.fail.Load() {
		return entity.RawResponse{}, fmt.Errorf("%w: http 503", domain.ErrNetwork)
	}
	p := r.prices[req.Code]
	body := fmt.Sprintf(`{"data":{"code":%q,"kline_list":[
		{"timestamp":"1700000000","open_price":%q,"close_price":%q,"high_price":%q,"low_price":%q,"volume":"1"},
		{"timestamp":"1700000060","open_price":%q,"close_price":%q,"high_price":%q,"low_price":%q,"volume":"1"}
	]}}`, req.Code, p[0], p[0], p[0], p[0], p[1], p[1], p[1], p[1])
	return entity.RawResponse{Body: raw(body)}, nil
}

func newMetalsRepository() *metalsRepository {
	return &metalsRepository{
		prices: map[string][2]string{
			"GOLD":     {"1980", "2000"},
			"Silver":   {"40", "50"},
			"Platinum": {"1000", "990"},
		},
		down: map[string]bool{},
	}
}

func newDashboard(repo usecase.QuoteRepository, clearer usecase.CacheClearer) *usecase.Dashboard {
	uc := usecase.NewQuoteUsecase(repo, alltick.NewCodec(nil), nil)
	boards := make([]*usecase.Board, 0, len(entity.DefaultInstruments))
	for _, in := range entity.DefaultInstruments {
		boards = append(boards, usecase.NewBoard(uc, usecase.BoardConfig{
			Instrument: in,
			Poll:       usecase.PollerConfig{Manual: true, Timeout: time.Second},
		}, nil))
	}
	return usecase.NewDashboard(boards, clearer)
}

// TestDashboard_IndependentBoards はプラチナの取得に失敗しても金・銀の表示に影響しないことを検証します。
func TestDashboard_IndependentBoards(t *testing.T) {
	t.Parallel()

	repo := newMetalsRepository()
	repo.down["Platinum"] = true
	d := newDashboard(cache.NewCachingQuoteRepository(repo, nil, nil, nil, nil), nil)
	ctx := context.Background()

	for _, in := range d.Instruments() {
		_, err := d.Refresh(ctx, in.Code)
		require.NoError(t, err)
	}

	quotes := d.Quotes()
	require.Len(t, quotes, 3)

	gold, silver, platinum := quotes[0], quotes[1], quotes[2]
	assert.Equal(t, "GOLD", gold.Symbol)
	assert.True(t, gold.Available)
	assert.Equal(t, "$1984.00", pricing.FormatUSD(gold.BidPrice, gold.Available))
	assert.Equal(t, "$2016.00", pricing.FormatUSD(gold.AskPrice, gold.Available))
	assert.Equal(t, "+1.01%", pricing.FormatPercent(gold.ChangePercent, gold.Available))

	assert.Equal(t, "$49.60", pricing.FormatUSD(silver.BidPrice, silver.Available))
	assert.Equal(t, "+25.00%", pricing.FormatPercent(silver.ChangePercent, silver.Available))

	assert.Equal(t, "PLATINUM", platinum.Symbol)
	assert.False(t, platinum.Available)
	assert.Equal(t, pricing.Placeholder, pricing.FormatUSD(platinum.BidPrice, platinum.Available))

	_, err := d.Klines("Platinum")
	assert.ErrorIs(t, err, domain.ErrNoData)
	series, err := d.Klines("gold")
	require.NoError(t, err)
	assert.Len(t, series.Bars, 2)
}

// TestDashboard_StaleFlagPropagates はキャッシュからの代替応答が表示データの stale フラグまで伝わることを検証します。
func TestDashboard_StaleFlagPropagates(t *testing.T) {
	t.Parallel()

	repo := newMetalsRepository()
	backend := cache.NewMemoryBackend()
	caching := cache.NewCachingQuoteRepository(repo,
		cache.NewStore(backend, 5*time.Minute, entity.TickCachePrefix),
		cache.NewStore(backend, 2*time.Minute, entity.KlineCachePrefix),
		nil, nil)
	d := newDashboard(caching, caching)
	ctx := context.Background()

	q, err := d.Refresh(ctx, "GOLD")
	require.NoError(t, err)
	assert.True(t, q.Available)
	assert.False(t, q.Stale)

	repo.fail.Store(true)
	q, err = d.Refresh(ctx, "GOLD")
	require.NoError(t, err)
	assert.True(t, q.Available)
	assert.True(t, q.Stale)
	assert.Equal(t, "2000", q.RawPrice)

	d.ClearCache(ctx)
	assert.Equal(t, 0, backend.Len())

	q, err = d.Refresh(ctx, "GOLD")
	require.NoError(t, err)
	assert.True(t, q.Available, "poller keeps the last data after a failed refresh")
}

func TestDashboard_UnknownInstrument(t *testing.T) {
	t.Parallel()

	d := newDashboard(newMetalsRepository(), nil)

	_, err := d.Quote("Copper")
	assert.ErrorIs(t, err, domain.ErrUnknownInstrument)
	_, err = d.Klines("Copper")
	assert.ErrorIs(t, err, domain.ErrUnknownInstrument)
	_, err = d.Refresh(context.Background(), "Copper")
	assert.ErrorIs(t, err, domain.ErrUnknownInstrument)

	q, err := d.Quote(" silver ")
	require.NoError(t, err)
	assert.False(t, q.Available)
}

func TestDashboard_StartStopReady(t *testing.T) {
	t.Parallel()

	uc := usecase.NewQuoteUsecase(newMetalsRepository(), alltick.NewCodec(nil), nil)
	board := usecase.NewBoard(uc, usecase.BoardConfig{
		Instrument: entity.Instrument{Code: "GOLD", Name: "Gold"},
		Poll:       usecase.PollerConfig{Interval: 10 * time.Millisecond},
	}, nil)
	d := usecase.NewDashboard([]*usecase.Board{board}, nil)

	assert.False(t, d.Ready())
	d.Start(context.Background())
	require.Eventually(t, d.Ready, time.Second, time.Millisecond)

	q, err := d.Quote("GOLD")
	require.NoError(t, err)
	assert.True(t, q.Available)
	assert.NotNil(t, board.TickState().Data)
	assert.NotNil(t, board.KlineState().Data)

	d.Stop()
	assert.False(t, d.Ready())
}
