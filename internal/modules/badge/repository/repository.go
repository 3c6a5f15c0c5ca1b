package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/pkg/apperror"
)

type BadgeRepository interface {
	// UpsertTypes writes the catalog keyed by name.
	UpsertTypes(ctx context.Context, types []entity.BadgeType) error
	FindTypeByName(ctx context.Context, name string) (*entity.BadgeType, error)
	ListTypes(ctx context.Context) ([]entity.BadgeType, error)
	ListTypesByCategory(ctx context.Context, category string) ([]entity.BadgeType, error)
	// Grant inserts the user badge and reports false when the pair already exists.
	Grant(ctx context.Context, badge *entity.UserBadge) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error)
}

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) UpsertTypes(ctx context.Context, types []entity.BadgeType) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "icon", "category", "requirement"}),
	}).Create(&types).Error
}

func (r *badgeRepository) FindTypeByName(ctx context.Context, name string) (*entity.BadgeType, error) {
	var bt entity.BadgeType
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&bt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bt, nil
}

func (r *badgeRepository) ListTypes(ctx context.Context) ([]entity.BadgeType, error) {
	var types []entity.BadgeType
	err := r.db.WithContext(ctx).Order("category ASC, requirement ASC").Find(&types).Error
	return types, err
}

func (r *badgeRepository) ListTypesByCategory(ctx context.Context, category string) ([]entity.BadgeType, error) {
	var types []entity.BadgeType
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("requirement ASC").
		Find(&types).Error
	return types, err
}

func (r *badgeRepository) Grant(ctx context.Context, badge *entity.UserBadge) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_type_id"}},
			DoNothing: true,
		}).
		Omit("BadgeType").
		Create(badge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *badgeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error) {
	var badges []entity.UserBadge
	err := r.db.WithContext(ctx).
		Preload("BadgeType").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&badges).Error
	return badges, err
}
