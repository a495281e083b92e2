package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vibecheck.dev/vibecheck/internal/config"
)

// Pool wraps the shared gorm handle plus its underlying sql.DB for pool
// tuning and pings.
type Pool struct {
	gdb   *gorm.DB
	sqlDB *sql.DB
}

// NewPool opens the configured Postgres database, tunes the connection pool,
// verifies connectivity, and migrates the schema.
func NewPool(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	logLevel := resolveGormLogLevel(cfg.LogLevel, cfg.Environment)
	dialector := postgres.Open(cfg.DatabaseURL)

	pool, err := Open(dialector, logLevel)
	if err != nil {
		return nil, err
	}

	maxOpen := int(cfg.DBMaxConns)
	if maxOpen <= 0 {
		maxOpen = 8
	}
	pool.sqlDB.SetMaxOpenConns(maxOpen)
	pool.sqlDB.SetMaxIdleConns(max(1, min(int(cfg.DBMinConns), maxOpen)))
	pool.sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	pool.sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := pool.Ping(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Open opens a database through an arbitrary gorm dialector and migrates the
// schema. Tests use this with the pure-Go sqlite driver.
func Open(dialector gorm.Dialector, logLevel logger.LogLevel) (*Pool, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}

	if err := gdb.AutoMigrate(autoMigrateModels()...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate schema: %w", err)
	}

	return &Pool{gdb: gdb, sqlDB: sqlDB}, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.sqlDB == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	return p.sqlDB.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.sqlDB == nil {
		return nil
	}
	return p.sqlDB.Close()
}

// GORM returns the shared gorm handle.
func (p *Pool) GORM() *gorm.DB {
	if p == nil {
		return nil
	}
	return p.gdb
}

func resolveGormLogLevel(appLogLevel, environment string) logger.LogLevel {
	level := strings.ToLower(strings.TrimSpace(appLogLevel))
	switch level {
	case "trace", "debug":
		return logger.Info
	case "warn", "warning", "info", "":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		if strings.EqualFold(strings.TrimSpace(environment), "local") {
			return logger.Warn
		}
		return logger.Error
	}
}
