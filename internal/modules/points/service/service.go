package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	pointsDto "anoa.com/housecup/internal/modules/points/dto"
	pointsRepo "anoa.com/housecup/internal/modules/points/repository"
	standingsService "anoa.com/housecup/internal/modules/standings/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
	"anoa.com/housecup/pkg/dto"
)

// StandingsUpdater recomputes a house's current week after every award.
type StandingsUpdater interface {
	UpdateWeeklyStandings(ctx context.Context, house entity.House) (*entity.WeeklyHouseStanding, error)
}

type AwardInput struct {
	UserID      uuid.UUID
	House       entity.House
	Reason      entity.Reason
	Description string
	Metadata    map[string]string

	// IdempotencyKey, when set, makes a repeated award fail with
	// apperror.ErrAlreadyExists instead of paying twice.
	IdempotencyKey string
}

type PointsService interface {
	// AwardPoints appends one ledger row and refreshes the house's weekly standing.
	AwardPoints(ctx context.Context, in AwardInput) (*entity.PointTransaction, error)
	UserTotal(ctx context.Context, userID uuid.UUID) (int, error)
	GetUserSummary(ctx context.Context, userID uuid.UUID) (*dto.GamificationStatus, error)
	ListUserTransactions(ctx context.Context, userID uuid.UUID, query pointsDto.TransactionQuery) (*pointsDto.PaginatedTransactionResponse, error)
}

type pointsService struct {
	repo      pointsRepo.LedgerRepository
	standings StandingsUpdater
	clock     clock.Clock
}

func NewPointsService(repo pointsRepo.LedgerRepository, standings StandingsUpdater, clk clock.Clock) PointsService {
	return &pointsService{
		repo:      repo,
		standings: standings,
		clock:     clk,
	}
}

func (s *pointsService) AwardPoints(ctx context.Context, in AwardInput) (*entity.PointTransaction, error) {
	points, ok := PointsFor(in.Reason)
	if !ok {
		return nil, fmt.Errorf("unknown reason %q: %w", in.Reason, apperror.ErrInvalidInput)
	}
	if !in.House.Valid() {
		return nil, fmt.Errorf("unknown house %q: %w", in.House, apperror.ErrInvalidInput)
	}
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing user: %w", apperror.ErrInvalidInput)
	}

	tx := &entity.PointTransaction{
		UserID:    in.UserID,
		House:     in.House,
		Points:    points,
		Reason:    in.Reason,
		CreatedAt: s.clock.Now(),
	}
	if in.Description != "" {
		desc := in.Description
		tx.Description = &desc
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		tx.IdempotencyKey = &key
	}
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		tx.Metadata = datatypes.JSON(raw)
	}

	if err := s.repo.Append(ctx, tx); err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return nil, fmt.Errorf("award %s: %w", in.IdempotencyKey, err)
		}
		err = apperror.Storage("append point transaction", err)
		logger.ErrorCtx(ctx, err,
			zap.String("user_id", in.UserID.String()),
			zap.String("house", in.House.String()),
			zap.String("reason", string(in.Reason)),
		)
		return nil, err
	}

	// The ledger row is the source of truth; a failed recompute is repaired by
	// the next award or the scheduled rebuild.
	if s.standings != nil {
		if _, err := s.standings.UpdateWeeklyStandings(ctx, in.House); err != nil {
			logger.WarnCtx(ctx, "failed to refresh weekly standing",
				zap.String("house", in.House.String()), zap.Error(err))
		}
	}

	logger.InfoCtx(ctx, "points awarded",
		zap.String("user_id", in.UserID.String()),
		zap.String("house", in.House.String()),
		zap.String("reason", string(in.Reason)),
		zap.Int("points", points),
	)

	return tx, nil
}

func (s *pointsService) UserTotal(ctx context.Context, userID uuid.UUID) (int, error) {
	total, err := s.repo.SumByUser(ctx, userID, nil)
	if err != nil {
		return 0, apperror.Storage("sum user points", err)
	}
	return total, nil
}

func (s *pointsService) GetUserSummary(ctx context.Context, userID uuid.UUID) (*dto.GamificationStatus, error) {
	total, err := s.UserTotal(ctx, userID)
	if err != nil {
		return nil, err
	}

	weekStart, _ := standingsService.WeekBoundaries(s.clock.Now())
	weekly, err := s.repo.SumByUser(ctx, userID, &weekStart)
	if err != nil {
		return nil, apperror.Storage("sum weekly user points", err)
	}

	status := GamificationStatus(total, weekly)
	return &status, nil
}

func (s *pointsService) ListUserTransactions(ctx context.Context, userID uuid.UUID, query pointsDto.TransactionQuery) (*pointsDto.PaginatedTransactionResponse, error) {
	var reason *entity.Reason
	if query.Reason != "" {
		r := entity.Reason(query.Reason)
		if _, ok := PointsFor(r); !ok {
			return nil, fmt.Errorf("unknown reason %q: %w", query.Reason, apperror.ErrInvalidInput)
		}
		reason = &r
	}

	txs, total, err := s.repo.ListByUser(ctx, userID, reason, query.Offset(), query.Limit)
	if err != nil {
		return nil, apperror.Storage("list point transactions", err)
	}

	data := make([]pointsDto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		data = append(data, pointsDto.NewTransactionResponse(tx))
	}

	return &pointsDto.PaginatedTransactionResponse{
		Data: data,
		Meta: dto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}
