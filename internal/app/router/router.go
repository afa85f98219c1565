// Package router wires HTTP routes to handlers.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	quoteshandler "bullion_backend/internal/feature/quotes/transport/handler"
	"bullion_backend/internal/platform/http/handler"
	"bullion_backend/internal/platform/metrics"
)

// Deps bundles what the router serves.
type Deps struct {
	Quotes       *quoteshandler.QuotesHandler
	Health       *handler.HealthHandler
	Metrics      *metrics.Metrics    // optional
	Gatherer     prometheus.Gatherer // optional; /metrics is not mounted when nil
	AllowOrigins []string
}

// NewRouter builds the gin engine with CORS, metrics and every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(d.AllowOrigins)))

	// 導通確認用
	r.GET("/healthz", d.Health.Health)
	r.HEAD("/healthz", d.Health.Health)
	r.GET("/readyz", d.Health.Ready)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	// 相場データ
	r.GET("/quotes", d.Quotes.ListQuotes)
	r.GET("/quotes/:code", d.Quotes.GetQuote)
	r.GET("/quotes/:code/klines", d.Quotes.GetKlines)
	r.POST("/quotes/:code/refresh", d.Quotes.RefreshQuote)
	r.DELETE("/cache", d.Quotes.ClearCache)

	// 重量換算
	r.GET("/convert", d.Quotes.Convert)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
