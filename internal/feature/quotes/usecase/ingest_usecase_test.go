package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullion_backend/internal/feature/quotes/domain"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/usecase"
)

func TestIngestUsecase_IngestAll(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var tickReqs []entity.TickRequest
	var klineReqs []entity.KlineRequest
	repo := &mockQuoteRepository{
		FetchTicksFunc: func(_ context.Context, req entity.TickRequest) (entity.RawResponse, error) {
			mu.Lock()
			tickReqs = append(tickReqs, req)
			mu.Unlock()
			return entity.RawResponse{Body: raw(`{}`)}, nil
		},
		FetchKlinesFunc: func(_ context.Context, req entity.KlineRequest) (entity.RawResponse, error) {
			mu.Lock()
			klineReqs = append(klineReqs, req)
			mu.Unlock()
			if req.Code == "Platinum" && req.Type == entity.KlineOneDay {
				return entity.RawResponse{}, domain.ErrNoData
			}
			return entity.RawResponse{Body: raw(`{}`)}, nil
		},
	}

	codes := []string{"GOLD", "Silver", "Platinum"}
	res := usecase.NewIngestUsecase(repo, nil).IngestAll(context.Background(), codes, false,
		[]entity.KlineType{entity.KlineOneMinute, entity.KlineOneDay}, 100)

	// 1 tick call + 3 codes * 2 intervals, one of which fails
	assert.Equal(t, usecase.IngestResult{Succeeded: 6, Failed: 1}, res)
	require.Len(t, tickReqs, 1)
	assert.Equal(t, codes, tickReqs[0].Codes)
	require.Len(t, klineReqs, 6)
	for _, r := range klineReqs {
		assert.Equal(t, 100, r.Num)
	}
}

// TestIngestUsecase_StopsOnCancel はコンテキストがキャンセルされたらK線の取得を打ち切ることを検証します。
func TestIngestUsecase_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	repo := &mockQuoteRepository{
		FetchTicksFunc: func(context.Context, entity.TickRequest) (entity.RawResponse, error) {
			cancel()
			return entity.RawResponse{}, context.Canceled
		},
	}

	res := usecase.NewIngestUsecase(repo, nil).IngestAll(ctx, []string{"GOLD"}, false,
		[]entity.KlineType{entity.KlineOneMinute}, 0)

	assert.Equal(t, usecase.IngestResult{Failed: 1}, res)
	assert.Equal(t, int32(0), repo.KlineCalls.Load())
}
