package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bullion_backend/internal/app/config"
	"bullion_backend/internal/app/di"
	"bullion_backend/internal/feature/quotes/adapters/alltick"
	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/usecase"
	"bullion_backend/internal/platform/logging"
)

// ingest fetches every configured instrument once and stores the responses in the
// configured cache backend, so a freshly started server has fallback data.
func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.CacheBackend == config.CacheMemory {
		log.Warn("CACHE_BACKEND=memory: ingested data is lost when this process exits")
	}
	backend, closeBackend := di.NewCacheBackend(ctx, cfg.CacheBackend, log)
	defer func() { _ = closeBackend() }()

	market := di.NewMarket(alltick.LoadConfig())
	repo := di.NewQuoteRepository(market, backend, cfg, nil, log)

	codes := make([]string, 0, len(cfg.Instruments))
	for _, in := range cfg.Instruments {
		codes = append(codes, in.Code)
	}

	res := usecase.NewIngestUsecase(repo, log).IngestAll(ctx, codes, cfg.IsStock,
		[]entity.KlineType{cfg.KlineType}, cfg.KlineNum)
	log.Info("ingest finished", "succeeded", res.Succeeded, "failed", res.Failed)
	if res.Succeeded == 0 {
		os.Exit(1)
	}
}
