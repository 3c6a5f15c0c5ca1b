package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/modules/standings/repository"
	"anoa.com/housecup/internal/testsupport/pgtest"
)

func TestMain(m *testing.M) {
	code := m.Run()
	pgtest.Terminate()
	os.Exit(code)
}

func TestUpsertOverwritesTotals(t *testing.T) {
	repo := repository.NewStandingRepository(pgtest.DB(t))
	ctx := context.Background()

	start := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7).Add(-time.Microsecond)

	require.NoError(t, repo.Upsert(ctx, &entity.WeeklyHouseStanding{
		House: entity.HouseGriffin, WeekStart: start, WeekEnd: end, TotalPoints: 15, MemberCount: 3, PostCount: 1, ProgressCount: 1,
	}))
	require.NoError(t, repo.Upsert(ctx, &entity.WeeklyHouseStanding{
		House: entity.HouseGriffin, WeekStart: start, WeekEnd: end, TotalPoints: 12, MemberCount: 4, PostCount: 0, ProgressCount: 2,
	}))
	require.NoError(t, repo.Upsert(ctx, &entity.WeeklyHouseStanding{
		House: entity.HouseGriffin, WeekStart: start.AddDate(0, 0, -7), WeekEnd: start.Add(-time.Microsecond), TotalPoints: 99,
	}))

	rows, err := repo.ListByWeek(ctx, start)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, entity.HouseGriffin, got.House)
	assert.True(t, got.WeekStart.Equal(start))
	assert.Equal(t, 12, got.TotalPoints)
	assert.Equal(t, 4, got.MemberCount)
	assert.Equal(t, 0, got.PostCount)
	assert.Equal(t, 2, got.ProgressCount)
}
