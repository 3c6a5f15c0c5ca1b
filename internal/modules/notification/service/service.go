package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	notifRepo "anoa.com/housecup/internal/modules/notification/repository"
	"anoa.com/housecup/pkg/apperror"
)

// Channel is the Redis pub/sub channel carrying a user's live notifications.
func Channel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return apperror.Storage("create notification", err)
	}

	// Live delivery is best effort; the row above is what the inbox reads.
	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err != nil {
			return nil
		}
		if err := s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err(); err != nil {
			logger.WarnCtx(ctx, "failed to publish notification",
				zap.String("user_id", notification.UserID.String()), zap.Error(err))
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	notifications, err := s.repo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Storage("list notifications", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	updated, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return apperror.Storage("mark notification read", err)
	}
	if !updated {
		return fmt.Errorf("notification %s: %w", id, apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return apperror.Storage("mark notifications read", err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Storage("count unread notifications", err)
	}
	return count, nil
}
