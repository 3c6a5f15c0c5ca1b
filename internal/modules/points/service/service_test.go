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
	pointsDto "anoa.com/housecup/internal/modules/points/dto"
	"anoa.com/housecup/internal/modules/points/service"
	standingsService "anoa.com/housecup/internal/modules/standings/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
	commonDto "anoa.com/housecup/pkg/dto"
)

var now = time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)

type harness struct {
	ledger    *fakes.Ledger
	standings *fakes.Standings
	svc       service.PointsService
}

func newHarness(members fakes.Members) *harness {
	ledger := fakes.NewLedger()
	standings := fakes.NewStandings()
	clk := clock.Fixed(now)
	aggregator := standingsService.NewStandingsService(standings, ledger, members, nil, clk, 1)
	return &harness{
		ledger:    ledger,
		standings: standings,
		svc:       service.NewPointsService(ledger, aggregator, clk),
	}
}

func TestAwardPoints(t *testing.T) {
	h := newHarness(fakes.Members{entity.HousePhoenix: 1})
	userID := uuid.New()

	tx, err := h.svc.AwardPoints(context.Background(), service.AwardInput{
		UserID:      userID,
		House:       entity.HousePhoenix,
		Reason:      entity.ReasonPostCreated,
		Description: "Created post: Study tips",
		Metadata:    map[string]string{"post_id": "6650a1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 10, tx.Points)
	assert.Equal(t, now, tx.CreatedAt)
	require.NotNil(t, tx.Description)
	assert.Equal(t, "Created post: Study tips", *tx.Description)
	assert.JSONEq(t, `{"post_id":"6650a1"}`, string(tx.Metadata))
	assert.Len(t, h.ledger.Rows(), 1)

	weekStart, _ := standingsService.WeekBoundaries(now)
	st, ok := h.standings.Get(entity.HousePhoenix, weekStart)
	require.True(t, ok)
	assert.Equal(t, 10, st.TotalPoints)
	assert.Equal(t, 1, st.PostCount)
	assert.Equal(t, 1, st.MemberCount)
}

func TestAwardPointsRejectsUnknownInput(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()

	_, err := h.svc.AwardPoints(ctx, service.AwardInput{UserID: uuid.New(), House: entity.HouseDragon, Reason: "DAILY_LOGIN"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = h.svc.AwardPoints(ctx, service.AwardInput{UserID: uuid.New(), House: "slytherin", Reason: entity.ReasonPostLiked})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	assert.Empty(t, h.ledger.Rows())
	assert.Zero(t, h.standings.Upserts)
}

func TestAwardPointsStorageFailure(t *testing.T) {
	h := newHarness(nil)
	h.ledger.Err = errors.New("connection refused")

	_, err := h.svc.AwardPoints(context.Background(), service.AwardInput{UserID: uuid.New(), House: entity.HouseKraken, Reason: entity.ReasonProgressLog})
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)
	assert.Zero(t, h.standings.Upserts)
}

func TestAwardPointsIdempotencyKey(t *testing.T) {
	h := newHarness(nil)
	ctx := context.Background()
	in := service.AwardInput{
		UserID:         uuid.New(),
		House:          entity.HouseGriffin,
		Reason:         entity.ReasonStreak7,
		IdempotencyKey: "STREAK_7:run-2024-05-09",
	}

	tx, err := h.svc.AwardPoints(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 20, tx.Points)

	_, err = h.svc.AwardPoints(ctx, in)
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)
	assert.NotErrorIs(t, err, apperror.ErrStorageUnavailable)
	assert.Len(t, h.ledger.Rows(), 1)

	in.IdempotencyKey = "STREAK_7:run-2024-05-20"
	_, err = h.svc.AwardPoints(ctx, in)
	require.NoError(t, err)
	assert.Len(t, h.ledger.Rows(), 2)
}

func TestAwardPointsKeepsLedgerRowWhenStandingsFail(t *testing.T) {
	h := newHarness(nil)
	h.standings.Err = errors.New("lock timeout")

	tx, err := h.svc.AwardPoints(context.Background(), service.AwardInput{UserID: uuid.New(), House: entity.HouseKraken, Reason: entity.ReasonProgressLog})
	require.NoError(t, err)
	assert.Equal(t, 5, tx.Points)
	assert.Len(t, h.ledger.Rows(), 1)
}

func TestStandingsEqualLedgerAfterManyAwards(t *testing.T) {
	h := newHarness(fakes.Members{})
	ctx := context.Background()
	reasons := []entity.Reason{
		entity.ReasonProgressLog, entity.ReasonPostCreated, entity.ReasonCommentCreated,
		entity.ReasonPostLiked, entity.ReasonStreak7, entity.ReasonBadgeEarned,
	}

	for i := 0; i < 40; i++ {
		house := entity.Houses[i%len(entity.Houses)]
		_, err := h.svc.AwardPoints(ctx, service.AwardInput{UserID: uuid.New(), House: house, Reason: reasons[i%len(reasons)]})
		require.NoError(t, err)
	}

	start, end := standingsService.WeekBoundaries(now)
	for _, house := range entity.Houses {
		want, err := h.ledger.SumByHouseBetween(ctx, house, start, end)
		require.NoError(t, err)
		st, ok := h.standings.Get(house, start)
		require.True(t, ok)
		assert.Equal(t, want, st.TotalPoints, house)
	}
}

func TestGetUserSummary(t *testing.T) {
	h := newHarness(nil)
	userID := uuid.New()
	ctx := context.Background()

	// Last week's row counts toward the rank but not toward weekly activity.
	require.NoError(t, h.ledger.Append(ctx, &entity.PointTransaction{UserID: userID, House: entity.HouseDragon, Reason: entity.ReasonStreak30, Points: 50, CreatedAt: now.AddDate(0, 0, -7)}))
	for i := 0; i < 3; i++ {
		_, err := h.svc.AwardPoints(ctx, service.AwardInput{UserID: userID, House: entity.HouseDragon, Reason: entity.ReasonStreak7})
		require.NoError(t, err)
	}

	summary, err := h.svc.GetUserSummary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 110, summary.CurrentPoints)
	assert.Equal(t, 60, summary.WeeklyPoints)
	assert.Equal(t, "Apprentice", summary.RankName)
	assert.Equal(t, "Adept", summary.NextRank)
	assert.Equal(t, "⚡ Trending", summary.WeeklyLabel)
}

func TestListUserTransactions(t *testing.T) {
	h := newHarness(nil)
	userID := uuid.New()
	ctx := context.Background()

	for _, r := range []entity.Reason{entity.ReasonProgressLog, entity.ReasonPostCreated, entity.ReasonProgressLog} {
		_, err := h.svc.AwardPoints(ctx, service.AwardInput{UserID: userID, House: entity.HouseGriffin, Reason: r})
		require.NoError(t, err)
	}

	page, err := h.svc.ListUserTransactions(ctx, userID, pointsDto.TransactionQuery{
		PaginationQuery: commonDto.PaginationQuery{Page: 1, Limit: 2},
	})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Meta.TotalItems)
	assert.Equal(t, 2, page.Meta.TotalPages)

	filtered, err := h.svc.ListUserTransactions(ctx, userID, pointsDto.TransactionQuery{
		PaginationQuery: commonDto.PaginationQuery{Page: 1, Limit: 10},
		Reason:          string(entity.ReasonProgressLog),
	})
	require.NoError(t, err)
	assert.Len(t, filtered.Data, 2)

	_, err = h.svc.ListUserTransactions(ctx, userID, pointsDto.TransactionQuery{
		PaginationQuery: commonDto.PaginationQuery{Page: 1, Limit: 10},
		Reason:          "NOPE",
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
