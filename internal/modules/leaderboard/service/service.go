package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	leaderboardDto "anoa.com/housecup/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/housecup/internal/modules/leaderboard/repository"
	pointsRepo "anoa.com/housecup/internal/modules/points/repository"
	pointsService "anoa.com/housecup/internal/modules/points/service"
	standingsService "anoa.com/housecup/internal/modules/standings/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
)

const (
	DefaultContributors = 10
	MaxContributors     = 50
)

type StandingsReader interface {
	ListByWeek(ctx context.Context, weekStart time.Time) ([]entity.WeeklyHouseStanding, error)
}

type LedgerReader interface {
	SumAllByHouse(ctx context.Context) (map[entity.House]int, error)
	TopContributors(ctx context.Context, house entity.House, limit int) ([]pointsRepo.ContributorRow, error)
}

type MemberCounter interface {
	CountByHouse(ctx context.Context, house entity.House) (int64, error)
}

type LeaderboardService interface {
	GetWeeklyHouseLeaderboard(ctx context.Context) (*leaderboardDto.WeeklyLeaderboardResponse, error)
	// GetAllTimeHouseStandings always reads the ledger; it is never cached.
	GetAllTimeHouseStandings(ctx context.Context) (*leaderboardDto.AllTimeStandingsResponse, error)
	GetHouseTopContributors(ctx context.Context, house entity.House, limit int) (*leaderboardDto.HouseContributorsResponse, error)
}

type leaderboardService struct {
	standings StandingsReader
	ledger    LedgerReader
	members   MemberCounter
	cache     leaderboardRepo.WeeklyCache
	clock     clock.Clock
}

// NewLeaderboardService composes house leaderboards. cache may be nil.
func NewLeaderboardService(standings StandingsReader, ledger LedgerReader, members MemberCounter, cache leaderboardRepo.WeeklyCache, clk clock.Clock) LeaderboardService {
	return &leaderboardService{
		standings: standings,
		ledger:    ledger,
		members:   members,
		cache:     cache,
		clock:     clk,
	}
}

func (s *leaderboardService) GetWeeklyHouseLeaderboard(ctx context.Context) (*leaderboardDto.WeeklyLeaderboardResponse, error) {
	start, end := standingsService.WeekBoundaries(s.clock.Now())

	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		cached, v, ok, err := s.cache.GetWeekly(ctx, start)
		switch {
		case err != nil:
			logger.WarnCtx(ctx, "weekly leaderboard cache read failed", zap.Error(err))
		case ok:
			return cached, nil
		default:
			version, cacheable = v, true
		}
	}

	rows, err := s.standings.ListByWeek(ctx, start)
	if err != nil {
		return nil, apperror.Storage("list weekly standings", err)
	}

	byHouse := make(map[entity.House]entity.WeeklyHouseStanding, len(rows))
	for _, row := range rows {
		byHouse[row.House] = row
	}

	entries := make([]leaderboardDto.HouseStandingEntry, 0, len(entity.Houses))
	for _, house := range entity.Houses {
		row, ok := byHouse[house]
		if !ok {
			// No activity yet this week.
			members, err := s.members.CountByHouse(ctx, house)
			if err != nil {
				return nil, apperror.Storage("count house members", err)
			}
			row = entity.WeeklyHouseStanding{House: house, MemberCount: int(members)}
		}
		entries = append(entries, leaderboardDto.HouseStandingEntry{
			House:         house,
			TotalPoints:   row.TotalPoints,
			MemberCount:   row.MemberCount,
			PostCount:     row.PostCount,
			ProgressCount: row.ProgressCount,
		})
	}
	rankHouses(entries)

	resp := &leaderboardDto.WeeklyLeaderboardResponse{
		WeekStart: start.Format(time.RFC3339),
		WeekEnd:   end.Format(time.RFC3339),
		Houses:    entries,
	}

	if cacheable {
		if err := s.cache.SetWeekly(ctx, start, version, resp); err != nil {
			logger.WarnCtx(ctx, "weekly leaderboard cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

func (s *leaderboardService) GetAllTimeHouseStandings(ctx context.Context) (*leaderboardDto.AllTimeStandingsResponse, error) {
	totals, err := s.ledger.SumAllByHouse(ctx)
	if err != nil {
		return nil, apperror.Storage("sum ledger by house", err)
	}

	entries := make([]leaderboardDto.HouseStandingEntry, 0, len(entity.Houses))
	for _, house := range entity.Houses {
		members, err := s.members.CountByHouse(ctx, house)
		if err != nil {
			return nil, apperror.Storage("count house members", err)
		}
		entries = append(entries, leaderboardDto.HouseStandingEntry{
			House:       house,
			TotalPoints: totals[house],
			MemberCount: int(members),
		})
	}
	rankHouses(entries)

	return &leaderboardDto.AllTimeStandingsResponse{Houses: entries}, nil
}

func (s *leaderboardService) GetHouseTopContributors(ctx context.Context, house entity.House, limit int) (*leaderboardDto.HouseContributorsResponse, error) {
	if !house.Valid() {
		return nil, fmt.Errorf("house %q: %w", house, apperror.ErrNotFound)
	}
	if limit == 0 {
		limit = DefaultContributors
	}
	if limit < 1 || limit > MaxContributors {
		return nil, fmt.Errorf("limit %d outside 1..%d: %w", limit, MaxContributors, apperror.ErrInvalidInput)
	}

	rows, err := s.ledger.TopContributors(ctx, house, limit)
	if err != nil {
		return nil, apperror.Storage("top contributors", err)
	}

	contributors := make([]leaderboardDto.ContributorEntry, 0, len(rows))
	for i, row := range rows {
		contributors = append(contributors, leaderboardDto.ContributorEntry{
			Position: i + 1,
			UserID:   row.UserID.String(),
			Username: row.Username,
			Points:   row.Points,
			RankName: pointsService.GamificationStatus(row.Points, 0).RankName,
		})
	}

	return &leaderboardDto.HouseContributorsResponse{House: house, Contributors: contributors}, nil
}

// rankHouses orders by total points, highest first, breaking ties by house
// name, then fills in positions and per-member averages.
func rankHouses(entries []leaderboardDto.HouseStandingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].House < entries[j].House
	})

	for i := range entries {
		entries[i].Position = i + 1
		entries[i].PointsPerMember = pointsPerMember(entries[i].TotalPoints, entries[i].MemberCount)
	}
}

func pointsPerMember(total, members int) int {
	if members <= 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(members)))
}
