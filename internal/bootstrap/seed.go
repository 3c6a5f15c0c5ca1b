// Package bootstrap prepares the stores before the server accepts traffic.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.PointTransaction{},
		&entity.WeeklyHouseStanding{},
		&entity.BadgeType{},
		&entity.UserBadge{},
		&entity.Notification{},
	)
}

var defaultRoles = []entity.Role{
	{Name: entity.RoleAdmin, Description: "Administrator"},
	{Name: entity.RoleMentor, Description: "Mentor"},
	{Name: entity.RoleStudent, Description: "Student"},
}

type RoleSeeder interface {
	EnsureRoles(ctx context.Context, roles []entity.Role) error
}

type CatalogSeeder interface {
	SeedCatalog(ctx context.Context) error
}

// Indexer creates the secondary indexes of a document collection or search index.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// IndexerFunc adapts a plain function to Indexer.
type IndexerFunc func(ctx context.Context) error

func (f IndexerFunc) EnsureIndexes(ctx context.Context) error { return f(ctx) }

// Seed inserts the reference data. Existing rows are left alone, so it is
// safe on every start.
func Seed(ctx context.Context, roles RoleSeeder, badges CatalogSeeder) error {
	seeds := make([]entity.Role, len(defaultRoles))
	copy(seeds, defaultRoles)
	if err := roles.EnsureRoles(ctx, seeds); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := badges.SeedCatalog(ctx); err != nil {
		return fmt.Errorf("seed badge catalog: %w", err)
	}
	logger.Info("reference data seeded", zap.Int("roles", len(seeds)))
	return nil
}

// EnsureIndexes runs every indexer. Named indexers that fail are logged and
// skipped when optional is set for them.
func EnsureIndexes(ctx context.Context, required map[string]Indexer, optional map[string]Indexer) error {
	for name, idx := range required {
		if err := idx.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}
	for name, idx := range optional {
		if err := idx.EnsureIndexes(ctx); err != nil {
			logger.Warn("optional index setup failed", zap.String("index", name), zap.Error(err))
		}
	}
	return nil
}
