package usecase

import (
	"context"
	"log/slog"

	"bullion_backend/internal/feature/quotes/domain/entity"
)

// IngestResult counts the upstream calls made by IngestAll.
type IngestResult struct {
	Succeeded int
	Failed    int
}

// IngestUsecase は外部APIから相場データを一括取得し、リポジトリ経由でキャッシュに保存するユースケースです。
type IngestUsecase struct {
	repo QuoteRepository
	log  *slog.Logger
}

// NewIngestUsecase は新しい IngestUsecase を作成します。repo は通常キャッシュ付きリポジトリです。
func NewIngestUsecase(repo QuoteRepository, log *slog.Logger) *IngestUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &IngestUsecase{repo: repo, log: log}
}

// IngestAll は全銘柄のティックを1回のリクエストで取得し、続けて銘柄ごと・時間足ごとにK線を取得します。
// 1件の失敗で処理を止めずにログに出力して次へ進みます。ctx が終了した時点で打ち切ります。
func (iu *IngestUsecase) IngestAll(ctx context.Context, codes []string, isStock bool, types []entity.KlineType, num int) IngestResult {
	var res IngestResult
	record := func(err error, attrs ...any) {
		if err != nil {
			res.Failed++
			iu.log.Error("failed to ingest quotes", append(attrs, "error", err)...)
			return
		}
		res.Succeeded++
	}

	_, err := iu.repo.FetchTicks(ctx, entity.TickRequest{Codes: codes, IsStock: isStock})
	record(err, "endpoint", "tick", "codes", codes)

	for _, code := range codes {
		for _, kt := range types {
			if ctx.Err() != nil {
				iu.log.Warn("ingest aborted", "error", ctx.Err())
				return res
			}
			_, err := iu.repo.FetchKlines(ctx, entity.KlineRequest{Code: code, Type: kt, Num: num, IsStock: isStock})
			record(err, "endpoint", "kline", "code", code, "kline_type", int(kt))
		}
	}
	return res
}
