package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bullion_backend/internal/app/config"
	"bullion_backend/internal/app/di"
	"bullion_backend/internal/app/router"
	"bullion_backend/internal/feature/quotes/adapters/alltick"
	quoteshandler "bullion_backend/internal/feature/quotes/transport/handler"
	"bullion_backend/internal/platform/http/handler"
	"bullion_backend/internal/platform/logging"
	"bullion_backend/internal/platform/metrics"
)

func main() {
	// .envを読み込む
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Cache backend
	backend, closeBackend := di.NewCacheBackend(ctx, cfg.CacheBackend, log)
	defer func() {
		if err := closeBackend(); err != nil {
			log.Error("failed to close cache backend", "error", err)
		}
	}()

	// Repository → Usecase
	market := di.NewMarket(alltick.LoadConfig())
	repo := di.NewQuoteRepository(market, backend, cfg, m, log)
	dash := di.NewDashboard(repo, cfg, log)

	dash.Start(ctx)
	defer dash.Stop()

	// Handler
	r := router.NewRouter(router.Deps{
		Quotes:       quoteshandler.NewQuotesHandler(dash),
		Health:       handler.NewHealthHandler(dash),
		Metrics:      m,
		Gatherer:     reg,
		AllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "cache_backend", cfg.CacheBackend,
			"instruments", len(cfg.Instruments), "poll_interval", cfg.PollInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
