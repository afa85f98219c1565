// Package db opens the gorm connection backing the persistent cache.
package db

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLitePath is used when SQLITE_PATH is unset.
const DefaultSQLitePath = "bullion_cache.db"

// Config holds the database connection settings.
type Config struct {
	Driver     string
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
}

// LoadConfig reads connection settings for driver from environment variables.
func LoadConfig(driver string) Config {
	cfg := Config{
		Driver:     driver,
		SQLitePath: os.Getenv("SQLITE_PATH"),
		Host:       os.Getenv("DB_HOST"),
		Port:       os.Getenv("DB_PORT"),
		User:       os.Getenv("DB_USER"),
		Password:   os.Getenv("DB_PASSWORD"),
		Name:       os.Getenv("DB_NAME"),
		SSLMode:    os.Getenv("DB_SSLMODE"),
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = DefaultSQLitePath
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg
}

// BuildDSN returns the driver specific data source name.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
	}
	return cfg.SQLitePath
}

// retry settings for servers that may still be starting (docker compose).
var (
	connectTimeout = 60 * time.Second
	retryWait      = 3 * time.Second
)

// OpenDB opens the database. PostgreSQL connections are retried for up to a minute.
func OpenDB(cfg Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: newGormLogger()}

	switch cfg.Driver {
	case DriverSQLite, "":
		db, err := gorm.Open(sqlite.Open(BuildDSN(cfg)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %q: %w", cfg.SQLitePath, err)
		}
		return db, nil
	case DriverPostgres:
		return openWithRetry(func() (*gorm.DB, error) {
			return gorm.Open(postgres.Open(BuildDSN(cfg)), gcfg)
		}, connectTimeout, retryWait)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openWithRetry(open func() (*gorm.DB, error), timeout, wait time.Duration) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open()
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(wait)
	}
}

// newGormLogger keeps gorm quiet about cache misses, which are expected.
func newGormLogger() logger.Interface {
	return logger.New(log.New(os.Stderr, "", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
