package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/pkg/apperror"
)

const collectionName = "progress_logs"

type ProgressRepository interface {
	EnsureIndexes(ctx context.Context) error
	// Insert returns apperror.ErrAlreadyExists for a second log of the same
	// (user, category, day).
	Insert(ctx context.Context, log *entity.ProgressLog) error
	ListDays(ctx context.Context, userID string) ([]string, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	// ListByUser returns logs with from <= day <= to, newest first. Empty bounds are open.
	ListByUser(ctx context.Context, userID, from, to string, limit int64) ([]entity.ProgressLog, error)
}

type progressRepository struct {
	coll *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) ProgressRepository {
	return &progressRepository{coll: db.Collection(collectionName)}
}

func (r *progressRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "category", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_category_day"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "day", Value: -1}},
			Options: options.Index().SetName("user_day"),
		},
	})
	if err != nil {
		return fmt.Errorf("create progress indexes: %w", err)
	}
	return nil
}

func (r *progressRepository) Insert(ctx context.Context, log *entity.ProgressLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, log)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s log for %s: %w", log.Category, log.Day, apperror.ErrAlreadyExists)
	}
	return err
}

func (r *progressRepository) ListDays(ctx context.Context, userID string) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "day", bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			days = append(days, s)
		}
	}
	return days, nil
}

func (r *progressRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"userId": userID})
}

func (r *progressRepository) ListByUser(ctx context.Context, userID, from, to string, limit int64) ([]entity.ProgressLog, error) {
	filter := bson.M{"userId": userID}
	dayFilter := bson.M{}
	if from != "" {
		dayFilter["$gte"] = from
	}
	if to != "" {
		dayFilter["$lte"] = to
	}
	if len(dayFilter) > 0 {
		filter["day"] = dayFilter
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "day", Value: -1}, {Key: "loggedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []entity.ProgressLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
