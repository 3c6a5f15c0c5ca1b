package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/pkg/apperror"
)

const (
	postCollection    = "community_posts"
	commentCollection = "post_comments"
)

type PostRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, post *entity.CommunityPost) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*entity.CommunityPost, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]entity.CommunityPost, error)
	// ListRecent returns posts newest first.
	ListRecent(ctx context.Context, offset, limit int64) ([]entity.CommunityPost, error)
	Count(ctx context.Context) (int64, error)

	// SetVote adds userID to the dir array and removes it from the opposite
	// one when active, or removes it from dir otherwise. The post is stamped
	// updated at at and returned.
	SetVote(ctx context.Context, id primitive.ObjectID, userID string, dir entity.VoteDirection, active bool, at time.Time) (*entity.CommunityPost, error)
	SetReaction(ctx context.Context, id primitive.ObjectID, userID string, kind entity.ReactionKind, active bool, at time.Time) (*entity.CommunityPost, error)
	// MarkLiked reports true only the first time userID is recorded for the post.
	MarkLiked(ctx context.Context, id primitive.ObjectID, userID string) (bool, error)
	// AddViews takes the hex ID so flushed view counters can be applied directly.
	AddViews(ctx context.Context, postID string, n int) error

	CreateComment(ctx context.Context, comment *entity.PostComment) error
	ListComments(ctx context.Context, postID primitive.ObjectID, limit int64) ([]entity.PostComment, error)
}

type postRepository struct {
	posts    *mongo.Collection
	comments *mongo.Collection
}

func NewPostRepository(db *mongo.Database) PostRepository {
	return &postRepository{
		posts:    db.Collection(postCollection),
		comments: db.Collection(commentCollection),
	}
}

func (r *postRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("created_desc")},
		{Keys: bson.D{{Key: "authorId", Value: 1}}, Options: options.Index().SetName("author")},
	}); err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}

	if _, err := r.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("post_created"),
	}); err != nil {
		return fmt.Errorf("create comment indexes: %w", err)
	}
	return nil
}

func (r *postRepository) Create(ctx context.Context, post *entity.CommunityPost) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	// Empty arrays instead of null so $addToSet and $pull always apply.
	if post.Upvotes == nil {
		post.Upvotes = []string{}
	}
	if post.Downvotes == nil {
		post.Downvotes = []string{}
	}
	if post.LikedBy == nil {
		post.LikedBy = []string{}
	}
	if post.Reactions.Fire == nil {
		post.Reactions.Fire = []string{}
	}
	if post.Reactions.Rocket == nil {
		post.Reactions.Rocket = []string{}
	}
	if post.Reactions.Bulb == nil {
		post.Reactions.Bulb = []string{}
	}

	_, err := r.posts.InsertOne(ctx, post)
	return err
}

func (r *postRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*entity.CommunityPost, error) {
	var post entity.CommunityPost
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("post %s: %w", id.Hex(), apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]entity.CommunityPost, error) {
	posts := []entity.CommunityPost{}
	if len(ids) == 0 {
		return posts, nil
	}

	cursor, err := r.posts.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListRecent(ctx context.Context, offset, limit int64) ([]entity.CommunityPost, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []entity.CommunityPost{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	return r.posts.CountDocuments(ctx, bson.M{})
}

func (r *postRepository) SetVote(ctx context.Context, id primitive.ObjectID, userID string, dir entity.VoteDirection, active bool, at time.Time) (*entity.CommunityPost, error) {
	field, opposite := "upvotes", "downvotes"
	if dir == entity.VoteDown {
		field, opposite = opposite, field
	}

	var update bson.M
	if active {
		update = bson.M{
			"$addToSet": bson.M{field: userID},
			"$pull":     bson.M{opposite: userID},
		}
	} else {
		update = bson.M{"$pull": bson.M{field: userID}}
	}
	return r.findAndUpdate(ctx, id, update, at)
}

func (r *postRepository) SetReaction(ctx context.Context, id primitive.ObjectID, userID string, kind entity.ReactionKind, active bool, at time.Time) (*entity.CommunityPost, error) {
	field := "reactions." + string(kind)

	op := "$pull"
	if active {
		op = "$addToSet"
	}
	return r.findAndUpdate(ctx, id, bson.M{op: bson.M{field: userID}}, at)
}

func (r *postRepository) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M, at time.Time) (*entity.CommunityPost, error) {
	update["$set"] = bson.M{"updatedAt": at.UTC()}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post entity.CommunityPost
	err := r.posts.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("post %s: %w", id.Hex(), apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) MarkLiked(ctx context.Context, id primitive.ObjectID, userID string) (bool, error) {
	// The filter makes the check and the insert a single atomic step.
	res, err := r.posts.UpdateOne(ctx,
		bson.M{"_id": id, "likedBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likedBy": userID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *postRepository) AddViews(ctx context.Context, postID string, n int) error {
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("post %q: %w", postID, apperror.ErrNotFound)
	}
	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": n}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post %s: %w", id.Hex(), apperror.ErrNotFound)
	}
	return nil
}

func (r *postRepository) CreateComment(ctx context.Context, comment *entity.PostComment) error {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	_, err := r.comments.InsertOne(ctx, comment)
	return err
}

func (r *postRepository) ListComments(ctx context.Context, postID primitive.ObjectID, limit int64) ([]entity.PostComment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.comments.Find(ctx, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []entity.PostComment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
