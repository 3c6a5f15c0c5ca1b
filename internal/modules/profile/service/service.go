package service

import (
	"context"

	"github.com/google/uuid"

	"anoa.com/housecup/internal/entity"
	profileDto "anoa.com/housecup/internal/modules/profile/dto"
	progressService "anoa.com/housecup/internal/modules/progress/service"
	"anoa.com/housecup/pkg/dto"
)

type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type PointsSummarizer interface {
	GetUserSummary(ctx context.Context, userID uuid.UUID) (*dto.GamificationStatus, error)
}

type StreakCalculator interface {
	CalculateStreak(ctx context.Context, userID uuid.UUID) (progressService.StreakResult, error)
}

type BadgeLister interface {
	ListUserBadges(ctx context.Context, userID uuid.UUID) ([]entity.UserBadge, error)
}

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error)
}

type profileService struct {
	users   UserGetter
	points  PointsSummarizer
	streaks StreakCalculator
	badges  BadgeLister
}

func NewProfileService(users UserGetter, points PointsSummarizer, streaks StreakCalculator, badges BadgeLister) ProfileService {
	return &profileService{
		users:   users,
		points:  points,
		streaks: streaks,
		badges:  badges,
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	status, err := s.points.GetUserSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak, err := s.streaks.CalculateStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	held, err := s.badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges := make([]profileDto.EarnedBadge, 0, len(held))
	for _, b := range held {
		badges = append(badges, profileDto.EarnedBadge{
			Name:     b.BadgeType.Name,
			Title:    b.BadgeType.Title,
			Icon:     b.BadgeType.Icon,
			EarnedAt: b.AwardedAt,
		})
	}

	return &profileDto.ProfileResponse{
		ID:                 user.ID.String(),
		Username:           user.Username,
		House:              user.House,
		Role:               user.Role.Name,
		AvatarURL:          user.AvatarURL,
		JoinedAt:           user.CreatedAt,
		GamificationStatus: *status,
		Streak: profileDto.StreakSummary{
			Current:     streak.Current,
			Longest:     streak.Longest,
			LastLogDate: streak.LastLogDate,
		},
		Badges: badges,
	}, nil
}
