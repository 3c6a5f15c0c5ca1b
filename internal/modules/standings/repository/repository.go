package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"anoa.com/housecup/internal/entity"
)

type StandingRepository interface {
	// Upsert writes the row keyed by (house, week_start), replacing every total.
	Upsert(ctx context.Context, standing *entity.WeeklyHouseStanding) error
	ListByWeek(ctx context.Context, weekStart time.Time) ([]entity.WeeklyHouseStanding, error)
}

type standingRepository struct {
	db *gorm.DB
}

func NewStandingRepository(db *gorm.DB) StandingRepository {
	return &standingRepository{db: db}
}

func (r *standingRepository) Upsert(ctx context.Context, standing *entity.WeeklyHouseStanding) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "house"}, {Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"week_end", "total_points", "member_count", "post_count", "progress_count", "updated_at",
		}),
	}).Create(standing).Error
}

func (r *standingRepository) ListByWeek(ctx context.Context, weekStart time.Time) ([]entity.WeeklyHouseStanding, error) {
	var standings []entity.WeeklyHouseStanding
	err := r.db.WithContext(ctx).
		Where("week_start = ?", weekStart).
		Find(&standings).Error
	return standings, err
}
