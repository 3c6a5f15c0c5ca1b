package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/logger"
	"anoa.com/housecup/pkg/apperror"
)

const (
	pendingKey  = "pending:post_views"
	viewerTTL   = time.Hour
	viewerValue = "viewed"
)

// ViewSink persists flushed view counts.
type ViewSink interface {
	AddViews(ctx context.Context, postID string, n int) error
}

type ViewService interface {
	// IncrementView counts at most one view per user per post per hour.
	IncrementView(ctx context.Context, postID string, userID uuid.UUID) error
	PendingViews(ctx context.Context, postID string) (int, error)
	// PendingViewsOf reads many counters in one round trip. Posts without
	// pending views are left out of the result.
	PendingViewsOf(ctx context.Context, postIDs []string) (map[string]int, error)
	// SyncViews moves pending counters into the sink and reports how many posts were flushed.
	SyncViews(ctx context.Context) (int, error)
}

type viewService struct {
	redisClient *redis.Client
	sink        ViewSink
}

func NewViewService(redisClient *redis.Client, sink ViewSink) ViewService {
	return &viewService{
		redisClient: redisClient,
		sink:        sink,
	}
}

func viewerKey(postID string, userID uuid.UUID) string {
	return fmt.Sprintf("post:user_view:%s:%s", postID, userID)
}

func counterKey(postID string) string {
	return fmt.Sprintf("post:views:%s", postID)
}

func (s *viewService) IncrementView(ctx context.Context, postID string, userID uuid.UUID) error {
	// SET NX claims the viewer slot and starts its hour in one round trip.
	fresh, err := s.redisClient.SetNX(ctx, viewerKey(postID, userID), viewerValue, viewerTTL).Result()
	if err != nil {
		return apperror.Storage("check post viewer", err)
	}
	if !fresh {
		return nil
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Incr(ctx, counterKey(postID))
	pipe.SAdd(ctx, pendingKey, postID)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperror.Storage("increment post view", err)
	}
	return nil
}

func (s *viewService) PendingViews(ctx context.Context, postID string) (int, error) {
	n, err := s.redisClient.Get(ctx, counterKey(postID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, apperror.Storage("read pending views", err)
	}
	return n, nil
}

func (s *viewService) PendingViewsOf(ctx context.Context, postIDs []string) (map[string]int, error) {
	pending := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return pending, nil
	}

	keys := make([]string, len(postIDs))
	for i, id := range postIDs {
		keys[i] = counterKey(id)
	}
	vals, err := s.redisClient.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperror.Storage("read pending views", err)
	}

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pending[postIDs[i]] = n
		}
	}
	return pending, nil
}

func (s *viewService) SyncViews(ctx context.Context) (int, error) {
	postIDs, err := s.redisClient.SMembers(ctx, pendingKey).Result()
	if err != nil {
		return 0, apperror.Storage("list pending views", err)
	}

	synced := 0
	for _, postID := range postIDs {
		// Remove from the pending set before draining so a concurrent view re-adds it.
		if err := s.redisClient.SRem(ctx, pendingKey, postID).Err(); err != nil {
			return synced, apperror.Storage("clear pending view", err)
		}

		n, err := s.redisClient.GetDel(ctx, counterKey(postID)).Int()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			logger.Error(err, zap.String("post_id", postID), zap.String("op", "drain view counter"))
			continue
		}
		if n <= 0 {
			continue
		}

		if err := s.sink.AddViews(ctx, postID, n); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				logger.Warn("dropping views for missing post", zap.String("post_id", postID), zap.Int("views", n))
				continue
			}
			// Put the drained count back for the next run.
			pipe := s.redisClient.TxPipeline()
			pipe.IncrBy(ctx, counterKey(postID), int64(n))
			pipe.SAdd(ctx, pendingKey, postID)
			if _, rerr := pipe.Exec(ctx); rerr != nil {
				logger.Error(rerr, zap.String("post_id", postID), zap.Int("lost_views", n))
			}
			logger.Error(err, zap.String("post_id", postID), zap.String("op", "persist views"))
			continue
		}
		synced++
	}

	if synced > 0 {
		logger.Info("synced post views", zap.Int("posts", synced))
	}
	return synced, nil
}
