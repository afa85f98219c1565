// Package config loads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bullion_backend/internal/feature/quotes/domain/entity"
	"bullion_backend/internal/feature/quotes/pricing"
	"bullion_backend/internal/feature/quotes/usecase"
)

// Cache backends selectable with CACHE_BACKEND.
const (
	CacheMemory   = "memory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

// Config is the service level configuration. Adapter specific settings (AllTick, DB,
// Redis) are loaded by their own packages.
type Config struct {
	Port             string
	LogLevel         string
	CORSAllowOrigins []string
	Instruments      []entity.Instrument
	PollInterval     time.Duration
	TickTTL          time.Duration
	KlineTTL         time.Duration
	KlineType        entity.KlineType
	KlineNum         int
	SpreadPercent    decimal.Decimal
	IsStock          bool
	CacheBackend     string
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Port:             "8080",
		LogLevel:         "info",
		CORSAllowOrigins: []string{"*"},
		Instruments:      append([]entity.Instrument(nil), entity.DefaultInstruments...),
		PollInterval:     usecase.DefaultPollInterval,
		TickTTL:          5 * time.Minute,
		KlineTTL:         2 * time.Minute,
		KlineType:        entity.KlineOneMinute,
		KlineNum:         entity.DefaultKlineNum,
		SpreadPercent:    pricing.DefaultSpreadPercent,
		CacheBackend:     CacheSQLite,
	}
}

// LoadConfig overlays environment variables on Default. Every invalid value is reported.
func LoadConfig() (Config, error) {
	cfg := Default()
	var errs []error

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORSAllowOrigins = splitList(v)
	}
	if v := os.Getenv("QUOTE_INSTRUMENTS"); v != "" {
		ins, err := ParseInstruments(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Instruments = ins
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"QUOTE_POLL_INTERVAL", &cfg.PollInterval},
		{"QUOTE_TICK_TTL", &cfg.TickTTL},
		{"QUOTE_KLINE_TTL", &cfg.KlineTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", d.key, v))
			continue
		}
		*d.dst = parsed
	}

	if v := os.Getenv("QUOTE_KLINE_TYPE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !entity.KlineType(n).Valid() {
			errs = append(errs, fmt.Errorf("QUOTE_KLINE_TYPE: unsupported kline type %q", v))
		} else {
			cfg.KlineType = entity.KlineType(n)
		}
	}
	if v := os.Getenv("QUOTE_KLINE_NUM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("QUOTE_KLINE_NUM: invalid count %q", v))
		} else {
			cfg.KlineNum = n
		}
	}
	if v := os.Getenv("QUOTE_SPREAD_PERCENT"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			errs = append(errs, fmt.Errorf("QUOTE_SPREAD_PERCENT: invalid percentage %q", v))
		} else {
			cfg.SpreadPercent = d
		}
	}
	if v := os.Getenv("QUOTE_IS_STOCK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("QUOTE_IS_STOCK: invalid bool %q", v))
		} else {
			cfg.IsStock = b
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		switch v = strings.ToLower(v); v {
		case CacheMemory, CacheSQLite, CachePostgres, CacheRedis:
			cfg.CacheBackend = v
		default:
			errs = append(errs, fmt.Errorf("CACHE_BACKEND: unknown backend %q", v))
		}
	}

	return cfg, errors.Join(errs...)
}

// ParseInstruments parses "CODE[:Name],..." such as "GOLD:Gold,Silver".
// A missing name defaults to the code.
func ParseInstruments(s string) ([]entity.Instrument, error) {
	var out []entity.Instrument
	seen := map[string]bool{}
	for _, item := range splitList(s) {
		code, name, _ := strings.Cut(item, ":")
		code, name = strings.TrimSpace(code), strings.TrimSpace(name)
		if code == "" {
			return nil, fmt.Errorf("QUOTE_INSTRUMENTS: empty code in %q", s)
		}
		if seen[strings.ToUpper(code)] {
			return nil, fmt.Errorf("QUOTE_INSTRUMENTS: duplicate code %q", code)
		}
		seen[strings.ToUpper(code)] = true
		if name == "" {
			name = code
		}
		out = append(out, entity.Instrument{Code: code, Name: name})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("QUOTE_INSTRUMENTS: no instruments in %q", s)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
