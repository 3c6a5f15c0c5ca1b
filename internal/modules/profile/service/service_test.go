package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/fakes"
	badgeService "anoa.com/housecup/internal/modules/badge/service"
	pointsService "anoa.com/housecup/internal/modules/points/service"
	"anoa.com/housecup/internal/modules/profile/service"
	progressService "anoa.com/housecup/internal/modules/progress/service"
	userService "anoa.com/housecup/internal/modules/user/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
)

var now = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func TestGetCurrentProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	users := fakes.NewUsers(entity.User{ID: userID, Username: "juno", House: entity.HouseKraken, IsActive: true, CreatedAt: now.AddDate(0, -2, 0)})
	clk := clock.Fixed(now)

	ledger := fakes.NewLedger()
	points := pointsService.NewPointsService(ledger, nil, clk)
	badges := badgeService.NewBadgeService(fakes.NewBadges(), users, points, &fakes.Notifier{}, clk)
	require.NoError(t, badges.SeedCatalog(ctx))

	logs := fakes.NewProgress()
	for _, off := range []int{-2, -1, 0} {
		require.NoError(t, logs.Insert(ctx, &entity.ProgressLog{
			UserID: userID.String(), Day: now.AddDate(0, 0, off).Format("2006-01-02"), Category: entity.CategoryStudy, Intensity: 1,
		}))
	}
	progress := progressService.NewProgressService(logs, users, points, badges, nil, clk)

	_, err := badges.AwardBadge(ctx, userID, "first_log")
	require.NoError(t, err)

	svc := service.NewProfileService(userService.NewUserService(users), points, progress, badges)
	profile, err := svc.GetCurrentProfile(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, "juno", profile.Username)
	assert.Equal(t, entity.HouseKraken, profile.House)
	assert.Equal(t, 3, profile.Streak.Current)
	assert.Equal(t, 3, profile.Streak.Longest)

	require.Len(t, profile.Badges, 1)
	assert.Equal(t, "first_log", profile.Badges[0].Name)
	assert.Equal(t, now, profile.Badges[0].EarnedAt)

	total, err := points.UserTotal(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, total, profile.GamificationStatus.CurrentPoints)
}

func TestGetCurrentProfileErrors(t *testing.T) {
	ctx := context.Background()
	clk := clock.Fixed(now)
	ledger := fakes.NewLedger()
	points := pointsService.NewPointsService(ledger, nil, clk)
	users := fakes.NewUsers()
	badges := badgeService.NewBadgeService(fakes.NewBadges(), users, points, nil, clk)
	progress := progressService.NewProgressService(fakes.NewProgress(), users, points, badges, nil, clk)
	svc := service.NewProfileService(userService.NewUserService(users), points, progress, badges)

	_, err := svc.GetCurrentProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	userID := uuid.New()
	require.NoError(t, users.CreateIfMissing(ctx, &entity.User{ID: userID, Username: "ren", House: entity.HouseDragon, IsActive: true}))
	ledger.Err = errors.New("connection refused")
	_, err = svc.GetCurrentProfile(ctx, userID)
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
}
