package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/pkg/apperror"
)

// ContributorRow is one user's summed points inside a house.
type ContributorRow struct {
	UserID   uuid.UUID
	Username string
	Points   int
}

// LedgerRepository gives append and aggregate access to point_transactions.
// Rows are never updated or deleted.
type LedgerRepository interface {
	Append(ctx context.Context, tx *entity.PointTransaction) error
	SumByHouseBetween(ctx context.Context, house entity.House, start, end time.Time) (int, error)
	CountByReasonBetween(ctx context.Context, house entity.House, start, end time.Time) (map[entity.Reason]int, error)
	SumAllByHouse(ctx context.Context) (map[entity.House]int, error)
	TopContributors(ctx context.Context, house entity.House, limit int) ([]ContributorRow, error)
	SumByUser(ctx context.Context, userID uuid.UUID, since *time.Time) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, reason *entity.Reason, offset, limit int) ([]entity.PointTransaction, int64, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// Append fails with apperror.ErrAlreadyExists when tx carries an
// idempotency key that is already in the ledger.
func (r *ledgerRepository) Append(ctx context.Context, tx *entity.PointTransaction) error {
	err := r.db.WithContext(ctx).Omit("User").Create(tx).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.ErrAlreadyExists
	}
	return err
}

func (r *ledgerRepository) SumByHouseBetween(ctx context.Context, house entity.House, start, end time.Time) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&entity.PointTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("house = ? AND created_at >= ? AND created_at <= ?", house, start, end).
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepository) CountByReasonBetween(ctx context.Context, house entity.House, start, end time.Time) (map[entity.Reason]int, error) {
	type result struct {
		Reason entity.Reason
		Count  int
	}
	var results []result

	err := r.db.WithContext(ctx).
		Model(&entity.PointTransaction{}).
		Select("reason, COUNT(*) AS count").
		Where("house = ? AND created_at >= ? AND created_at <= ?", house, start, end).
		Group("reason").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.Reason]int, len(results))
	for _, res := range results {
		counts[res.Reason] = res.Count
	}
	return counts, nil
}

func (r *ledgerRepository) SumAllByHouse(ctx context.Context) (map[entity.House]int, error) {
	type result struct {
		House entity.House
		Total int
	}
	var results []result

	err := r.db.WithContext(ctx).
		Model(&entity.PointTransaction{}).
		Select("house, COALESCE(SUM(points), 0) AS total").
		Group("house").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[entity.House]int, len(results))
	for _, res := range results {
		totals[res.House] = res.Total
	}
	return totals, nil
}

func (r *ledgerRepository) TopContributors(ctx context.Context, house entity.House, limit int) ([]ContributorRow, error) {
	var rows []ContributorRow
	err := r.db.WithContext(ctx).
		Table("point_transactions AS pt").
		Select("pt.user_id AS user_id, u.username AS username, SUM(pt.points) AS points").
		Joins("JOIN users u ON u.id = pt.user_id").
		Where("pt.house = ?", house).
		Group("pt.user_id, u.username").
		Order("points DESC").
		Order("u.username ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *ledgerRepository) SumByUser(ctx context.Context, userID uuid.UUID, since *time.Time) (int, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.PointTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}

	var total int
	err := query.Scan(&total).Error
	return total, err
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, reason *entity.Reason, offset, limit int) ([]entity.PointTransaction, int64, error) {
	var txs []entity.PointTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PointTransaction{}).Where("user_id = ?", userID)
	if reason != nil {
		query = query.Where("reason = ?", *reason)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
