package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/fakes"
	leaderboardRepo "anoa.com/housecup/internal/modules/leaderboard/repository"
	"anoa.com/housecup/internal/modules/leaderboard/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
)

var (
	now       = time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)
	weekStart = time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
)

func newCache(t *testing.T) (leaderboardRepo.WeeklyCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return leaderboardRepo.NewWeeklyCache(client, time.Minute), mr
}

func upsert(t *testing.T, repo *fakes.Standings, house entity.House, total, members int) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &entity.WeeklyHouseStanding{
		House:       house,
		WeekStart:   weekStart,
		WeekEnd:     weekStart.AddDate(0, 0, 7).Add(-time.Nanosecond),
		TotalPoints: total,
		MemberCount: members,
		PostCount:   1,
	}))
}

func TestWeeklyLeaderboardRanksAndFillsHouses(t *testing.T) {
	repo := fakes.NewStandings()
	upsert(t, repo, entity.HousePhoenix, 120, 4)
	upsert(t, repo, entity.HouseDragon, 120, 3)
	upsert(t, repo, entity.HouseKraken, 200, 0)
	members := fakes.Members{entity.HouseGriffin: 5}

	svc := service.NewLeaderboardService(repo, fakes.NewLedger(), members, nil, clock.Fixed(now))
	resp, err := svc.GetWeeklyHouseLeaderboard(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.Houses, 4)
	assert.Equal(t, "2024-05-13T00:00:00Z", resp.WeekStart)

	got := make([]entity.House, 0, 4)
	for i, h := range resp.Houses {
		assert.Equal(t, i+1, h.Position)
		got = append(got, h.House)
	}
	// Equal totals fall back to house name.
	assert.Equal(t, []entity.House{entity.HouseKraken, entity.HouseDragon, entity.HousePhoenix, entity.HouseGriffin}, got)

	assert.Equal(t, 0, resp.Houses[0].PointsPerMember, "no members means no average")
	assert.Equal(t, 40, resp.Houses[1].PointsPerMember)
	assert.Equal(t, 30, resp.Houses[2].PointsPerMember)

	griffin := resp.Houses[3]
	assert.Equal(t, 0, griffin.TotalPoints)
	assert.Equal(t, 5, griffin.MemberCount)
	assert.Equal(t, 0, griffin.PostCount)
}

func TestWeeklyLeaderboardRoundsAverage(t *testing.T) {
	repo := fakes.NewStandings()
	upsert(t, repo, entity.HousePhoenix, 10, 4)

	svc := service.NewLeaderboardService(repo, fakes.NewLedger(), fakes.Members{}, nil, clock.Fixed(now))
	resp, err := svc.GetWeeklyHouseLeaderboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.HousePhoenix, resp.Houses[0].House)
	assert.Equal(t, 3, resp.Houses[0].PointsPerMember, "2.5 rounds half away from zero")
}

func TestWeeklyLeaderboardServedFromCache(t *testing.T) {
	repo := fakes.NewStandings()
	upsert(t, repo, entity.HousePhoenix, 50, 2)
	cache, mr := newCache(t)

	svc := service.NewLeaderboardService(repo, fakes.NewLedger(), fakes.Members{}, cache, clock.Fixed(now))
	first, err := svc.GetWeeklyHouseLeaderboard(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists("leaderboard:weekly:2024-05-13:v0"))

	// A change in the table is hidden until the cache is invalidated.
	upsert(t, repo, entity.HouseDragon, 500, 2)
	cached, err := svc.GetWeeklyHouseLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	require.NoError(t, cache.InvalidateWeekly(context.Background()))
	fresh, err := svc.GetWeeklyHouseLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.HouseDragon, fresh.Houses[0].House)
}

// invalidatingStandings runs onRead once, right after the first week listing,
// the way a concurrent award lands between a reader's query and its cache write.
type invalidatingStandings struct {
	*fakes.Standings
	onRead func()
}

func (s *invalidatingStandings) ListByWeek(ctx context.Context, weekStart time.Time) ([]entity.WeeklyHouseStanding, error) {
	rows, err := s.Standings.ListByWeek(ctx, weekStart)
	if s.onRead != nil {
		s.onRead()
		s.onRead = nil
	}
	return rows, err
}

func TestWeeklyLeaderboardStaleWriteBackIsNotServed(t *testing.T) {
	repo := fakes.NewStandings()
	upsert(t, repo, entity.HousePhoenix, 50, 2)
	cache, _ := newCache(t)
	ctx := context.Background()

	standings := &invalidatingStandings{Standings: repo, onRead: func() {
		upsert(t, repo, entity.HouseDragon, 500, 2)
		require.NoError(t, cache.InvalidateWeekly(ctx))
	}}
	svc := service.NewLeaderboardService(standings, fakes.NewLedger(), fakes.Members{}, cache, clock.Fixed(now))

	stale, err := svc.GetWeeklyHouseLeaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.HousePhoenix, stale.Houses[0].House)

	fresh, err := svc.GetWeeklyHouseLeaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.HouseDragon, fresh.Houses[0].House)
	assert.Equal(t, 500, fresh.Houses[0].TotalPoints)
}

func TestWeeklyLeaderboardIgnoresCacheOutage(t *testing.T) {
	repo := fakes.NewStandings()
	upsert(t, repo, entity.HousePhoenix, 50, 2)
	cache, mr := newCache(t)
	mr.Close()

	svc := service.NewLeaderboardService(repo, fakes.NewLedger(), fakes.Members{}, cache, clock.Fixed(now))
	resp, err := svc.GetWeeklyHouseLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.HousePhoenix, resp.Houses[0].House)
}

func TestWeeklyLeaderboardStorageError(t *testing.T) {
	repo := fakes.NewStandings()
	repo.Err = errors.New("connection refused")

	svc := service.NewLeaderboardService(repo, fakes.NewLedger(), fakes.Members{}, nil, clock.Fixed(now))
	_, err := svc.GetWeeklyHouseLeaderboard(context.Background())
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
}

func TestAllTimeHouseStandings(t *testing.T) {
	ledger := fakes.NewLedger()
	ctx := context.Background()
	for _, tx := range []entity.PointTransaction{
		{UserID: uuid.New(), House: entity.HouseGriffin, Points: 30, CreatedAt: now.AddDate(0, -3, 0)},
		{UserID: uuid.New(), House: entity.HouseGriffin, Points: 10, CreatedAt: now},
		{UserID: uuid.New(), House: entity.HouseKraken, Points: 25, CreatedAt: now},
	} {
		require.NoError(t, ledger.Append(ctx, &tx))
	}
	members := fakes.Members{entity.HouseGriffin: 4, entity.HouseKraken: 1}

	svc := service.NewLeaderboardService(fakes.NewStandings(), ledger, members, nil, clock.Fixed(now))
	resp, err := svc.GetAllTimeHouseStandings(ctx)
	require.NoError(t, err)

	require.Len(t, resp.Houses, 4)
	assert.Equal(t, entity.HouseGriffin, resp.Houses[0].House)
	assert.Equal(t, 40, resp.Houses[0].TotalPoints)
	assert.Equal(t, 10, resp.Houses[0].PointsPerMember)
	assert.Equal(t, entity.HouseKraken, resp.Houses[1].House)
	assert.Equal(t, entity.HouseDragon, resp.Houses[2].House)
	assert.Equal(t, 0, resp.Houses[2].TotalPoints)
	assert.Equal(t, entity.HousePhoenix, resp.Houses[3].House)
}

func TestHouseTopContributors(t *testing.T) {
	ledger := fakes.NewLedger()
	ctx := context.Background()
	mira, theo, ivy := uuid.New(), uuid.New(), uuid.New()
	ledger.SetUsername(mira, "mira")
	ledger.SetUsername(theo, "theo")
	ledger.SetUsername(ivy, "ivy")

	for _, tx := range []entity.PointTransaction{
		{UserID: mira, House: entity.HousePhoenix, Points: 300},
		{UserID: theo, House: entity.HousePhoenix, Points: 40},
		{UserID: ivy, House: entity.HousePhoenix, Points: 40},
		{UserID: uuid.New(), House: entity.HouseDragon, Points: 900},
	} {
		require.NoError(t, ledger.Append(ctx, &tx))
	}

	svc := service.NewLeaderboardService(fakes.NewStandings(), ledger, fakes.Members{}, nil, clock.Fixed(now))
	resp, err := svc.GetHouseTopContributors(ctx, entity.HousePhoenix, 0)
	require.NoError(t, err)

	require.Len(t, resp.Contributors, 3)
	assert.Equal(t, "mira", resp.Contributors[0].Username)
	assert.Equal(t, "Adept", resp.Contributors[0].RankName)
	assert.Equal(t, "ivy", resp.Contributors[1].Username)
	assert.Equal(t, 2, resp.Contributors[1].Position)
	assert.Equal(t, "theo", resp.Contributors[2].Username)
	assert.Equal(t, "Novice", resp.Contributors[2].RankName)

	limited, err := svc.GetHouseTopContributors(ctx, entity.HousePhoenix, 1)
	require.NoError(t, err)
	assert.Len(t, limited.Contributors, 1)
}

func TestHouseTopContributorsRejectsInput(t *testing.T) {
	svc := service.NewLeaderboardService(fakes.NewStandings(), fakes.NewLedger(), fakes.Members{}, nil, clock.Fixed(now))
	ctx := context.Background()

	_, err := svc.GetHouseTopContributors(ctx, entity.House("hufflepuff"), 10)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.GetHouseTopContributors(ctx, entity.HousePhoenix, 51)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.GetHouseTopContributors(ctx, entity.HousePhoenix, -1)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
