package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	badgeDto "anoa.com/housecup/internal/modules/badge/dto"
	pointsService "anoa.com/housecup/internal/modules/points/service"
	progressDto "anoa.com/housecup/internal/modules/progress/dto"
	progressRepo "anoa.com/housecup/internal/modules/progress/repository"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
)

const dayLayout = "2006-01-02"

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type PointsAwarder interface {
	AwardPoints(ctx context.Context, in pointsService.AwardInput) (*entity.PointTransaction, error)
}

type BadgeEvaluator interface {
	CheckAndAwardStreakBadges(ctx context.Context, userID uuid.UUID, currentStreak int) ([]badgeDto.AwardResult, error)
	CheckAndAwardLogBadges(ctx context.Context, userID uuid.UUID, totalLogs int) ([]badgeDto.AwardResult, error)
}

// ProgressSharer publishes a log to the community feed.
type ProgressSharer interface {
	ShareProgress(ctx context.Context, user *entity.User, log *entity.ProgressLog) error
}

type ProgressService interface {
	LogProgress(ctx context.Context, userID uuid.UUID, req progressDto.LogProgressRequest) (*progressDto.LogProgressResponse, error)
	CalculateStreak(ctx context.Context, userID uuid.UUID) (StreakResult, error)
	ListProgress(ctx context.Context, userID uuid.UUID, query progressDto.ListProgressQuery) ([]entity.ProgressLog, error)
}

type progressService struct {
	repo   progressRepo.ProgressRepository
	users  UserFinder
	points PointsAwarder
	badges BadgeEvaluator
	sharer ProgressSharer
	clock  clock.Clock
}

func NewProgressService(
	repo progressRepo.ProgressRepository,
	users UserFinder,
	points PointsAwarder,
	badges BadgeEvaluator,
	sharer ProgressSharer,
	clk clock.Clock,
) ProgressService {
	return &progressService{
		repo:   repo,
		users:  users,
		points: points,
		badges: badges,
		sharer: sharer,
		clock:  clk,
	}
}

func (s *progressService) CalculateStreak(ctx context.Context, userID uuid.UUID) (StreakResult, error) {
	days, err := s.repo.ListDays(ctx, userID.String())
	if err != nil {
		return StreakResult{}, apperror.Storage("list progress days", err)
	}
	now := s.clock.Now()
	return ComputeStreak(parseDays(days, now.Location()), now), nil
}

func (s *progressService) LogProgress(ctx context.Context, userID uuid.UUID, req progressDto.LogProgressRequest) (*progressDto.LogProgressResponse, error) {
	now := s.clock.Now()

	category := entity.ProgressCategory(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("category %q: %w", req.Category, apperror.ErrInvalidInput)
	}
	if req.Intensity < 1 || req.Intensity > 4 {
		return nil, fmt.Errorf("intensity %d: %w", req.Intensity, apperror.ErrInvalidInput)
	}

	day := now.Format(dayLayout)
	if req.Date != "" {
		d, err := time.ParseInLocation(dayLayout, req.Date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", req.Date, apperror.ErrInvalidInput)
		}
		if d.After(now) {
			return nil, fmt.Errorf("date %q is in the future: %w", req.Date, apperror.ErrInvalidInput)
		}
		day = req.Date
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, apperror.Storage("find user", err)
	}

	days, err := s.repo.ListDays(ctx, userID.String())
	if err != nil {
		return nil, apperror.Storage("list progress days", err)
	}
	firstOfDay := !slices.Contains(days, day)
	before := ComputeStreak(parseDays(days, now.Location()), now)

	log := &entity.ProgressLog{
		UserID:     userID.String(),
		Day:        day,
		LoggedAt:   now,
		Category:   category,
		Intensity:  req.Intensity,
		Note:       req.Note,
		AutoShared: req.AutoShared,
	}
	if err := s.repo.Insert(ctx, log); err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return nil, err
		}
		return nil, apperror.Storage("insert progress log", err)
	}

	resp := &progressDto.LogProgressResponse{Log: *log, NewBadges: []badgeDto.AwardResult{}}

	resp.PointsAwarded += s.award(ctx, user, entity.ReasonProgressLog,
		fmt.Sprintf("Logged %s progress", category), map[string]string{"log_id": log.ID.Hex(), "day": day})

	if firstOfDay {
		days = append(days, day)
	}
	streak := ComputeStreak(parseDays(days, now.Location()), now)
	resp.Streak = ToStreakResponse(streak)

	// A milestone pays when this log grew the current streak past it, once per run.
	if crossed := pointsService.StreakMilestonesCrossed(before.Current, streak.Current); len(crossed) > 0 {
		runStart := streak.LastLogDate.AddDate(0, 0, 1-streak.Current).Format(dayLayout)
		for _, m := range crossed {
			resp.PointsAwarded += s.awardOnce(ctx, user, m.Reason,
				fmt.Sprintf("Reached a %d day streak", m.Days),
				map[string]string{"day": day, "run_start": runStart},
				fmt.Sprintf("%s:%s:%s", m.Reason, userID, runStart))
		}
	}

	if s.badges != nil {
		granted, err := s.badges.CheckAndAwardStreakBadges(ctx, userID, streak.Current)
		if err != nil {
			logger.WarnCtx(ctx, "streak badge check failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
		resp.NewBadges = appendAwarded(resp.NewBadges, granted)

		total, err := s.repo.CountByUser(ctx, userID.String())
		if err != nil {
			logger.WarnCtx(ctx, "failed to count progress logs", zap.String("user_id", userID.String()), zap.Error(err))
		} else {
			granted, err = s.badges.CheckAndAwardLogBadges(ctx, userID, int(total))
			if err != nil {
				logger.WarnCtx(ctx, "log badge check failed", zap.String("user_id", userID.String()), zap.Error(err))
			}
			resp.NewBadges = appendAwarded(resp.NewBadges, granted)
		}
	}

	if log.AutoShared && s.sharer != nil {
		if err := s.sharer.ShareProgress(ctx, user, log); err != nil {
			logger.WarnCtx(ctx, "failed to share progress log", zap.String("log_id", log.ID.Hex()), zap.Error(err))
		}
	}

	return resp, nil
}

func (s *progressService) ListProgress(ctx context.Context, userID uuid.UUID, query progressDto.ListProgressQuery) ([]entity.ProgressLog, error) {
	if query.From != "" && query.To != "" && query.From > query.To {
		return nil, fmt.Errorf("from %s after to %s: %w", query.From, query.To, apperror.ErrInvalidInput)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	logs, err := s.repo.ListByUser(ctx, userID.String(), query.From, query.To, limit)
	if err != nil {
		return nil, apperror.Storage("list progress logs", err)
	}
	return logs, nil
}

// award returns the points granted, or 0 when the ledger write failed. The
// progress log stays stored either way.
func (s *progressService) award(ctx context.Context, user *entity.User, reason entity.Reason, desc string, meta map[string]string) int {
	return s.awardOnce(ctx, user, reason, desc, meta, "")
}

// awardOnce is award with an idempotency key. An award already in the
// ledger under key grants nothing.
func (s *progressService) awardOnce(ctx context.Context, user *entity.User, reason entity.Reason, desc string, meta map[string]string, key string) int {
	tx, err := s.points.AwardPoints(ctx, pointsService.AwardInput{
		UserID:         user.ID,
		House:          user.House,
		Reason:         reason,
		Description:    desc,
		Metadata:       meta,
		IdempotencyKey: key,
	})
	if errors.Is(err, apperror.ErrAlreadyExists) {
		logger.Debug("streak milestone already paid", zap.String("key", key))
		return 0
	}
	if err != nil {
		logger.WarnCtx(ctx, "points not awarded",
			zap.String("user_id", user.ID.String()),
			zap.String("reason", string(reason)),
			zap.Error(err))
		return 0
	}
	return tx.Points
}

func appendAwarded(dst, results []badgeDto.AwardResult) []badgeDto.AwardResult {
	for _, r := range results {
		if r.Status == badgeDto.StatusAwarded {
			dst = append(dst, r)
		}
	}
	return dst
}

func parseDays(days []string, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		t, err := time.ParseInLocation(dayLayout, d, loc)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ToStreakResponse renders a StreakResult with a YYYY-MM-DD last log date.
func ToStreakResponse(r StreakResult) progressDto.StreakResponse {
	resp := progressDto.StreakResponse{CurrentStreak: r.Current, LongestStreak: r.Longest}
	if r.LastLogDate != nil {
		d := r.LastLogDate.Format(dayLayout)
		resp.LastLogDate = &d
	}
	return resp
}

