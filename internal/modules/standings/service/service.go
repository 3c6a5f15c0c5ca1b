package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	standingRepo "anoa.com/housecup/internal/modules/standings/repository"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
)

// LedgerAggregator is the read side of the point ledger the aggregator needs.
type LedgerAggregator interface {
	SumByHouseBetween(ctx context.Context, house entity.House, start, end time.Time) (int, error)
	CountByReasonBetween(ctx context.Context, house entity.House, start, end time.Time) (map[entity.Reason]int, error)
}

type MemberCounter interface {
	CountByHouse(ctx context.Context, house entity.House) (int64, error)
}

// CacheInvalidator drops anything derived from the weekly standings.
type CacheInvalidator interface {
	InvalidateWeekly(ctx context.Context) error
}

type StandingsService interface {
	UpdateWeeklyStandings(ctx context.Context, house entity.House) (*entity.WeeklyHouseStanding, error)
	// RebuildStandings replays the ledger into this week's row of every house.
	RebuildStandings(ctx context.Context) ([]entity.WeeklyHouseStanding, error)
}

type standingsService struct {
	repo     standingRepo.StandingRepository
	ledger   LedgerAggregator
	members  MemberCounter
	cache    CacheInvalidator
	clock    clock.Clock
	poolSize int
}

func NewStandingsService(
	repo standingRepo.StandingRepository,
	ledger LedgerAggregator,
	members MemberCounter,
	cache CacheInvalidator,
	clk clock.Clock,
	poolSize int,
) StandingsService {
	if poolSize < 1 {
		poolSize = 1
	}
	return &standingsService{
		repo:     repo,
		ledger:   ledger,
		members:  members,
		cache:    cache,
		clock:    clk,
		poolSize: poolSize,
	}
}

func (s *standingsService) UpdateWeeklyStandings(ctx context.Context, house entity.House) (*entity.WeeklyHouseStanding, error) {
	if !house.Valid() {
		return nil, fmt.Errorf("house %q: %w", house, apperror.ErrInvalidInput)
	}

	now := s.clock.Now()
	start, end := WeekBoundaries(now)

	total, err := s.ledger.SumByHouseBetween(ctx, house, start, end)
	if err != nil {
		return nil, apperror.Storage("sum weekly points", err)
	}

	counts, err := s.ledger.CountByReasonBetween(ctx, house, start, end)
	if err != nil {
		return nil, apperror.Storage("count weekly activity", err)
	}

	members, err := s.members.CountByHouse(ctx, house)
	if err != nil {
		return nil, apperror.Storage("count house members", err)
	}

	standing := &entity.WeeklyHouseStanding{
		House:         house,
		WeekStart:     start,
		WeekEnd:       end,
		TotalPoints:   total,
		MemberCount:   int(members),
		PostCount:     counts[entity.ReasonPostCreated],
		ProgressCount: counts[entity.ReasonProgressLog],
		UpdatedAt:     now,
	}

	if err := s.repo.Upsert(ctx, standing); err != nil {
		return nil, apperror.Storage("upsert weekly standing", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateWeekly(ctx); err != nil {
			logger.WarnCtx(ctx, "failed to invalidate weekly leaderboard cache",
				zap.String("house", house.String()), zap.Error(err))
		}
	}

	return standing, nil
}

func (s *standingsService) RebuildStandings(ctx context.Context) ([]entity.WeeklyHouseStanding, error) {
	pool := pond.NewResultPool[*entity.WeeklyHouseStanding](s.poolSize, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, house := range entity.Houses {
		group.SubmitErr(func() (*entity.WeeklyHouseStanding, error) {
			return s.UpdateWeeklyStandings(ctx, house)
		})
	}

	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("rebuild standings: %w", err)
	}

	standings := make([]entity.WeeklyHouseStanding, 0, len(results))
	for _, st := range results {
		if st != nil {
			standings = append(standings, *st)
		}
	}

	logger.InfoCtx(ctx, "rebuilt weekly standings", zap.Int("houses", len(standings)))
	return standings, nil
}
