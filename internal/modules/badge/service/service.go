package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	badgeDto "anoa.com/housecup/internal/modules/badge/dto"
	badgeRepo "anoa.com/housecup/internal/modules/badge/repository"
	pointsService "anoa.com/housecup/internal/modules/points/service"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type PointsAwarder interface {
	AwardPoints(ctx context.Context, in pointsService.AwardInput) (*entity.PointTransaction, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type BadgeService interface {
	SeedCatalog(ctx context.Context) error
	AwardBadge(ctx context.Context, userID uuid.UUID, badgeName string) (*badgeDto.AwardResult, error)
	// CheckAndAwardStreakBadges attempts every streak badge whose requirement
	// is at most currentStreak, not only the highest.
	CheckAndAwardStreakBadges(ctx context.Context, userID uuid.UUID, currentStreak int) ([]badgeDto.AwardResult, error)
	CheckAndAwardLogBadges(ctx context.Context, userID uuid.UUID, totalLogs int) ([]badgeDto.AwardResult, error)
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error)
	ListBadgeTypes(ctx context.Context) ([]entity.BadgeType, error)
}

type badgeService struct {
	repo     badgeRepo.BadgeRepository
	users    UserFinder
	points   PointsAwarder
	notifier Notifier
	clock    clock.Clock
}

func NewBadgeService(repo badgeRepo.BadgeRepository, users UserFinder, points PointsAwarder, notifier Notifier, clk clock.Clock) BadgeService {
	return &badgeService{
		repo:     repo,
		users:    users,
		points:   points,
		notifier: notifier,
		clock:    clk,
	}
}

func (s *badgeService) SeedCatalog(ctx context.Context) error {
	types := make([]entity.BadgeType, len(Catalog))
	copy(types, Catalog)
	if err := s.repo.UpsertTypes(ctx, types); err != nil {
		return apperror.Storage("seed badge catalog", err)
	}
	return nil
}

func (s *badgeService) AwardBadge(ctx context.Context, userID uuid.UUID, badgeName string) (*badgeDto.AwardResult, error) {
	bt, err := s.repo.FindTypeByName(ctx, badgeName)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("badge %q: %w", badgeName, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, apperror.Storage("find badge type", err)
	}
	return s.grant(ctx, userID, *bt)
}

func (s *badgeService) CheckAndAwardStreakBadges(ctx context.Context, userID uuid.UUID, currentStreak int) ([]badgeDto.AwardResult, error) {
	return s.checkAndAward(ctx, userID, entity.BadgeCategoryStreak, currentStreak)
}

func (s *badgeService) CheckAndAwardLogBadges(ctx context.Context, userID uuid.UUID, totalLogs int) ([]badgeDto.AwardResult, error) {
	return s.checkAndAward(ctx, userID, entity.BadgeCategoryLogs, totalLogs)
}

func (s *badgeService) checkAndAward(ctx context.Context, userID uuid.UUID, category string, value int) ([]badgeDto.AwardResult, error) {
	types, err := s.repo.ListTypesByCategory(ctx, category)
	if err != nil {
		return nil, apperror.Storage("list badge types", err)
	}

	var (
		results []badgeDto.AwardResult
		errs    []error
	)
	for _, bt := range types {
		if bt.Requirement > value {
			continue
		}
		res, err := s.grant(ctx, userID, bt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, *res)
	}

	return results, errors.Join(errs...)
}

func (s *badgeService) grant(ctx context.Context, userID uuid.UUID, bt entity.BadgeType) (*badgeDto.AwardResult, error) {
	granted, err := s.repo.Grant(ctx, &entity.UserBadge{
		UserID:      userID,
		BadgeTypeID: bt.ID,
		AwardedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, apperror.Storage("grant badge "+bt.Name, err)
	}
	if !granted {
		return &badgeDto.AwardResult{Badge: bt, Status: badgeDto.StatusAlreadyAwarded}, nil
	}

	logger.InfoCtx(ctx, "badge awarded", zap.String("user_id", userID.String()), zap.String("badge", bt.Name))
	s.celebrate(ctx, userID, bt)

	return &badgeDto.AwardResult{Badge: bt, Status: badgeDto.StatusAwarded}, nil
}

// celebrate pays BADGE_EARNED and notifies the user. The grant stands even if
// either step fails.
func (s *badgeService) celebrate(ctx context.Context, userID uuid.UUID, bt entity.BadgeType) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logger.WarnCtx(ctx, "badge bonus skipped, user lookup failed", zap.String("user_id", userID.String()), zap.Error(err))
	} else if s.points != nil {
		if _, err := s.points.AwardPoints(ctx, pointsService.AwardInput{
			UserID:      userID,
			House:       user.House,
			Reason:      entity.ReasonBadgeEarned,
			Description: "Earned badge: " + bt.Title,
			Metadata:    map[string]string{"badge": bt.Name},
		}); err != nil {
			logger.WarnCtx(ctx, "badge bonus not awarded", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	if s.notifier != nil {
		err := s.notifier.CreateNotification(ctx, &entity.Notification{
			UserID:     userID,
			EntityID:   bt.Name,
			EntityType: "badge",
			Type:       entity.NotificationBadgeEarned,
			Message:    fmt.Sprintf("%s You earned the %s badge!", bt.Icon, bt.Title),
		})
		if err != nil {
			logger.WarnCtx(ctx, "badge notification failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
}

func (s *badgeService) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error) {
	badges, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("list user badges", err)
	}
	return badges, nil
}

func (s *badgeService) ListBadgeTypes(ctx context.Context) ([]entity.BadgeType, error) {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, apperror.Storage("list badge types", err)
	}
	return types, nil
}
