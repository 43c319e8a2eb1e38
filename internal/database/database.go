// Package database opens the store backends used by the example server.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TeraWattHour/go-authstore/adapters"
	"github.com/gofiber/fiber/v2/log"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxRetries = 5
	retryDelay = 2 * time.Second
)

// Retry controls how often a connection is attempted before giving up.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

var DefaultRetry = Retry{Attempts: maxRetries, Delay: retryDelay}

var gormOpen = gorm.Open

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(adapters.SQLiteDSN(dsn)), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// OpenGorm connects through gorm, retrying failed attempts.
func OpenGorm(ctx context.Context, driver, dsn string, debug bool, retry Retry) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	var db *gorm.DB
	err = withRetry(ctx, retry, func() error {
		var openErr error
		db, openErr = connectGorm(ctx, d, &gorm.Config{Logger: logger.Default.LogMode(level)})
		return openErr
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// connectGorm makes one connection attempt. A failed attempt closes its pool.
func connectGorm(ctx context.Context, d gorm.Dialector, config *gorm.Config) (*gorm.DB, error) {
	db, err := gormOpen(d, config)
	if err != nil {
		closeGorm(db)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return db, nil
}

func closeGorm(db *gorm.DB) {
	if db == nil || db.Config == nil || db.ConnPool == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// OpenSQL connects through database/sql for the raw SQL adapter.
func OpenSQL(ctx context.Context, driver, dsn string, retry Retry) (*sql.DB, error) {
	var driverName string
	switch driver {
	case "postgres":
		driverName = "postgres"
	case "sqlite":
		driverName = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == "sqlite" {
		dsn = adapters.SQLiteDSN(dsn)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if err := withRetry(ctx, retry, func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func withRetry(ctx context.Context, retry Retry, connect func() error) error {
	attempts := max(retry.Attempts, 1)

	var err error
	for i := 0; i < attempts; i++ {
		if err = connect(); err == nil {
			return nil
		}

		log.Errorf("failed to connect to database (try %d/%d): %v", i+1, attempts, err)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retry.Delay):
			}
		}
	}

	return fmt.Errorf("connecting to database: %w", err)
}
