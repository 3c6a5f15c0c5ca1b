package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"anoa.com/housecup/internal/logger"
)

// Options configures the PostgreSQL connection
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
	// ConnectTimeout bounds the total time spent retrying the first connection.
	ConnectTimeout time.Duration
}

// Connect opens the relational store, retrying with exponential backoff while
// the database is still starting up.
func Connect(ctx context.Context, opts Options) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if opts.Debug {
		logLevel = gormlogger.Info
	}

	var db *gorm.DB
	operation := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(logLevel),
			TranslateError: true,
		})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		return sqlDB.PingContext(ctx)
	}

	if err := retry(ctx, "postgres", opts.ConnectTimeout, operation); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	maxOpen, maxIdle, lifetime := opts.MaxOpenConns, opts.MaxIdleConns, opts.ConnMaxLifetime
	if maxOpen == 0 {
		maxOpen = 20
	}
	if maxIdle == 0 {
		maxIdle = 5
	}
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	return db, nil
}

func retry(ctx context.Context, name string, timeout time.Duration, operation backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = timeout
	if timeout == 0 {
		b.MaxElapsedTime = 30 * time.Second
	}

	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		logger.Warn("Connection attempt failed, retrying",
			zap.String("store", name),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
}
