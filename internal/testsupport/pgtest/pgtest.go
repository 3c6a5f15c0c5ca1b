// Package pgtest starts one PostgreSQL container per test binary for
// repository tests. Set TEST_DB_DSN to reuse an external database instead.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"anoa.com/housecup/internal/bootstrap"
)

var (
	once      sync.Once
	db        *gorm.DB
	container *postgres.PostgresContainer
	startErr  error
)

var tables = []string{
	"user_badges", "badge_types", "weekly_house_standings",
	"point_transactions", "notifications", "users", "roles",
}

// DB returns the migrated shared database. The test is skipped in -short mode
// or when no container runtime is available.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres repository test skipped in -short mode")
	}

	once.Do(start)
	if startErr != nil {
		t.Skipf("postgres unavailable: %v", startErr)
	}

	reset(t)
	return db
}

// Terminate stops the container. Call it from TestMain after m.Run.
func Terminate() {
	if container == nil {
		return
	}
	if err := container.Terminate(context.Background()); err != nil {
		fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
	}
}

func start() {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		container, startErr = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("housecup_test"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if startErr != nil {
			return
		}

		dsn, startErr = container.ConnectionString(ctx, "sslmode=disable")
		if startErr != nil {
			return
		}
	}

	db, startErr = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if startErr != nil {
		return
	}
	startErr = bootstrap.Migrate(db)
}

func reset(t *testing.T) {
	t.Helper()
	for _, table := range tables {
		if err := db.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE").Error; err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
