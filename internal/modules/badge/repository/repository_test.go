package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/modules/badge/repository"
	"anoa.com/housecup/internal/testsupport/pgtest"
	"anoa.com/housecup/pkg/apperror"
)

func TestMain(m *testing.M) {
	code := m.Run()
	pgtest.Terminate()
	os.Exit(code)
}

var catalog = []entity.BadgeType{
	{Name: "first_log", Title: "First Step", Category: entity.BadgeCategoryLogs, Requirement: 1},
	{Name: "7_day_streak", Title: "Week Warrior", Category: entity.BadgeCategoryStreak, Requirement: 7},
	{Name: "30_day_streak", Title: "Monthly Master", Category: entity.BadgeCategoryStreak, Requirement: 30},
}

func TestUpsertTypesIsIdempotent(t *testing.T) {
	repo := repository.NewBadgeRepository(pgtest.DB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertTypes(ctx, append([]entity.BadgeType(nil), catalog...)))

	renamed := append([]entity.BadgeType(nil), catalog...)
	renamed[0].Title = "Getting Started"
	require.NoError(t, repo.UpsertTypes(ctx, renamed))

	types, err := repo.ListTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 3)

	first, err := repo.FindTypeByName(ctx, "first_log")
	require.NoError(t, err)
	assert.Equal(t, "Getting Started", first.Title)

	streaks, err := repo.ListTypesByCategory(ctx, entity.BadgeCategoryStreak)
	require.NoError(t, err)
	require.Len(t, streaks, 2)
	assert.Equal(t, "7_day_streak", streaks[0].Name)

	_, err = repo.FindTypeByName(ctx, "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGrantReportsExistingPair(t *testing.T) {
	repo := repository.NewBadgeRepository(pgtest.DB(t))
	ctx := context.Background()
	require.NoError(t, repo.UpsertTypes(ctx, append([]entity.BadgeType(nil), catalog...)))

	bt, err := repo.FindTypeByName(ctx, "7_day_streak")
	require.NoError(t, err)

	userID := uuid.New()
	at := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

	granted, err := repo.Grant(ctx, &entity.UserBadge{UserID: userID, BadgeTypeID: bt.ID, AwardedAt: at})
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = repo.Grant(ctx, &entity.UserBadge{UserID: userID, BadgeTypeID: bt.ID, AwardedAt: at.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, granted)

	badges, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, "7_day_streak", badges[0].BadgeType.Name)
	assert.True(t, badges[0].AwardedAt.Equal(at))
}
