// Package alltick provides a client for the AllTick quote API.
package alltick

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Default upstream endpoints.
const (
	DefaultTickURL  = "https://mdx.aatest.online/quote/trade-tick"
	DefaultKlineURL = "https://alltick.co/quote/kline"
)

// Config holds configuration for the AllTick API client.
type Config struct {
	TickURL   string        // trade-tick endpoint
	KlineURL  string        // kline endpoint
	Timeout   time.Duration // HTTP request timeout
	RateLimit int           // requests per minute, 0 = unlimited
}

// LoadConfig loads AllTick configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		TickURL:   os.Getenv("ALLTICK_TICK_URL"),
		KlineURL:  os.Getenv("ALLTICK_KLINE_URL"),
		Timeout:   10 * time.Second,
		RateLimit: 0,
	}
	if cfg.TickURL == "" {
		cfg.TickURL = DefaultTickURL
	}
	if cfg.KlineURL == "" {
		cfg.KlineURL = DefaultKlineURL
	}
	if v := os.Getenv("ALLTICK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		} else {
			slog.Warn("ignoring invalid ALLTICK_TIMEOUT", "value", v)
		}
	}
	if v := os.Getenv("ALLTICK_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RateLimit = n
		} else {
			slog.Warn("ignoring invalid ALLTICK_RATE_LIMIT", "value", v)
		}
	}
	return cfg
}
