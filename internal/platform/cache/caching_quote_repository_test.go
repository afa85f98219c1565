package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
)

// mockQuoteRepository はテスト用の QuoteRepository モック実装です。
type mockQuoteRepository struct {
	ticksFn  func(ctx context.Context, req entity.TickRequest) (entity.RawResponse, error)
	klinesFn func(ctx context.Context, req entity.KlineRequest) (entity.RawResponse, error)
}

func (m *mockQuoteRepository) FetchTicks(ctx context.Context, req entity.TickRequest) (entity.RawResponse, error) {
	return m.ticksFn(ctx, req)
}

func (m *mockQuoteRepository) FetchKlines(ctx context.Context, req entity.KlineRequest) (entity.RawResponse, error) {
	return m.klinesFn(ctx, req)
}

// recorder counts observations per endpoint/outcome.
type recorder struct {
	mu   sync.Mutex
	seen map[string]int
}

func (r *recorder) ObserveFetch(endpoint, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string]int{}
	}
	r.seen[endpoint+"/"+outcome]++
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[key]
}

var errUpstream = errors.New("dial tcp: connection refused")

func newTestRepo(inner *mockQuoteRepository, clock *fakeClock, rec FetchRecorder) (*CachingQuoteRepository, *MemoryBackend) {
	backend := NewMemoryBackend()
	ticks := NewStore(backend, 300*time.Second, entity.TickCachePrefix, WithClock(clock.Now))
	klines := NewStore(backend, 120*time.Second, entity.KlineCachePrefix, WithClock(clock.Now))
	return NewCachingQuoteRepository(inner, ticks, klines, rec, nil), backend
}

// TestCachingQuoteRepository_StaleFallback は取得失敗時に TTL 内のキャッシュを stale として返し、
// TTL 超過後は ErrNoData を返すことを検証します。
func TestCachingQuoteRepository_StaleFallback(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{"data":{"tick_list":[{"code":"GOLD","price":"2350.5"}]}}`)
	fail := false
	inner := &mockQuoteRepository{
		ticksFn: func(context.Context, entity.TickRequest) (entity.RawResponse, error) {
			if fail {
				return entity.RawResponse{}, errUpstream
			}
			return entity.RawResponse{Body: payload}, nil
		},
	}
	clock := newFakeClock(t0)
	rec := &recorder{}
	repo, _ := newTestRepo(inner, clock, rec)
	ctx := context.Background()
	req := entity.TickRequest{Codes: []string{"GOLD"}}

	res, err := repo.FetchTicks(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.JSONEq(t, string(payload), string(res.Body))

	fail = true
	clock.Set(t0 + 100_000)
	res, err = repo.FetchTicks(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.JSONEq(t, string(payload), string(res.Body))
	assert.Equal(t, t0, res.StoredAt.UnixMilli())

	clock.Set(t0 + 400_000)
	_, err = repo.FetchTicks(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoData)
	assert.ErrorIs(t, err, errUpstream)

	assert.Equal(t, 1, rec.count("tick/fresh"))
	assert.Equal(t, 1, rec.count("tick/stale"))
	assert.Equal(t, 1, rec.count("tick/failed"))
}

// TestCachingQuoteRepository_KeyIgnoresCodeOrder は銘柄順序が異なってもキャッシュを共有することを検証します。
func TestCachingQuoteRepository_KeyIgnoresCodeOrder(t *testing.T) {
	t.Parallel()

	calls := 0
	inner := &mockQuoteRepository{
		ticksFn: func(context.Context, entity.TickRequest) (entity.RawResponse, error) {
			calls++
			if calls > 1 {
				return entity.RawResponse{}, errUpstream
			}
			return entity.RawResponse{Body: json.RawMessage(`{"n":1}`)}, nil
		},
	}
	repo, backend := newTestRepo(inner, newFakeClock(t0), nil)
	ctx := context.Background()

	_, err := repo.FetchTicks(ctx, entity.TickRequest{Codes: []string{"GOLD", "Silver"}})
	require.NoError(t, err)

	res, err := repo.FetchTicks(ctx, entity.TickRequest{Codes: []string{"Silver", "GOLD"}})
	require.NoError(t, err)
	assert.True(t, res.Stale)

	_, err = backend.Get(ctx, "trade-tick-cache-forex-GOLD,Silver")
	assert.NoError(t, err)
}

func TestCachingQuoteRepository_KlinesUseDefaultsAndOwnTTL(t *testing.T) {
	t.Parallel()

	var got []entity.KlineRequest
	fail := false
	inner := &mockQuoteRepository{
		klinesFn: func(_ context.Context, req entity.KlineRequest) (entity.RawResponse, error) {
			got = append(got, req)
			if fail {
				return entity.RawResponse{}, errUpstream
			}
			return entity.RawResponse{Body: json.RawMessage(`{"kline":[]}`)}, nil
		},
	}
	clock := newFakeClock(t0)
	repo, backend := newTestRepo(inner, clock, nil)
	ctx := context.Background()

	_, err := repo.FetchKlines(ctx, entity.KlineRequest{Code: "GOLD"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entity.DefaultKlineNum, got[0].Num)
	assert.Equal(t, entity.KlineOneMinute, got[0].Type)

	_, err = backend.Get(ctx, "kline-cache-forex-GOLD-1")
	require.NoError(t, err)

	fail = true
	clock.Set(t0 + 119_000)
	res, err := repo.FetchKlines(ctx, entity.KlineRequest{Code: "GOLD"})
	require.NoError(t, err)
	assert.True(t, res.Stale)

	clock.Set(t0 + 121_000)
	_, err = repo.FetchKlines(ctx, entity.KlineRequest{Code: "GOLD"})
	assert.ErrorIs(t, err, domain.ErrNoData)
}

// TestCachingQuoteRepository_FallbackAfterContextTimeout は呼び出し元のコンテキストが期限切れでもキャッシュを参照できることを検証します。
func TestCachingQuoteRepository_FallbackAfterContextTimeout(t *testing.T) {
	t.Parallel()

	first := true
	inner := &mockQuoteRepository{
		ticksFn: func(ctx context.Context, _ entity.TickRequest) (entity.RawResponse, error) {
			if first {
				first = false
				return entity.RawResponse{Body: json.RawMessage(`1`)}, nil
			}
			<-ctx.Done()
			return entity.RawResponse{}, ctx.Err()
		},
	}
	repo, _ := newTestRepo(inner, newFakeClock(t0), nil)
	req := entity.TickRequest{Codes: []string{"GOLD"}}

	_, err := repo.FetchTicks(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res, err := repo.FetchTicks(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.Stale)
}

func TestCachingQuoteRepository_NilStoresPassThrough(t *testing.T) {
	t.Parallel()

	inner := &mockQuoteRepository{
		ticksFn: func(context.Context, entity.TickRequest) (entity.RawResponse, error) {
			return entity.RawResponse{}, errUpstream
		},
		klinesFn: func(context.Context, entity.KlineRequest) (entity.RawResponse, error) {
			return entity.RawResponse{Body: json.RawMessage(`2`)}, nil
		},
	}
	repo := NewCachingQuoteRepository(inner, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := repo.FetchTicks(ctx, entity.TickRequest{Codes: []string{"GOLD"}})
	assert.ErrorIs(t, err, domain.ErrNoData)

	res, err := repo.FetchKlines(ctx, entity.KlineRequest{Code: "GOLD"})
	require.NoError(t, err)
	assert.Equal(t, "2", string(res.Body))

	assert.NotPanics(t, func() { repo.ClearAll(ctx) })
}

func TestCachingQuoteRepository_ClearAll(t *testing.T) {
	t.Parallel()

	inner := &mockQuoteRepository{
		ticksFn: func(context.Context, entity.TickRequest) (entity.RawResponse, error) {
			return entity.RawResponse{Body: json.RawMessage(`1`)}, nil
		},
		klinesFn: func(context.Context, entity.KlineRequest) (entity.RawResponse, error) {
			return entity.RawResponse{Body: json.RawMessage(`2`)}, nil
		},
	}
	repo, backend := newTestRepo(inner, newFakeClock(t0), nil)
	ctx := context.Background()

	_, _ = repo.FetchTicks(ctx, entity.TickRequest{Codes: []string{"GOLD"}})
	_, _ = repo.FetchKlines(ctx, entity.KlineRequest{Code: "GOLD"})
	require.NoError(t, backend.Set(ctx, "other", []byte("x"), 0))
	require.Equal(t, 3, backend.Len())

	repo.ClearAll(ctx)
	assert.Equal(t, 1, backend.Len())
}
