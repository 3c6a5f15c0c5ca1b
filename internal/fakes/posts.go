package fakes

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"anoa.com/housecup/internal/entity"
	postRepo "anoa.com/housecup/internal/modules/post/repository"
	"anoa.com/housecup/pkg/apperror"
)

// Posts is an in-memory postRepo.PostRepository. Documents are kept in
// insertion order; ListRecent sorts by CreatedAt.
type Posts struct {
	mu       sync.Mutex
	posts    []*entity.CommunityPost
	comments []entity.PostComment

	Err error
}

var _ postRepo.PostRepository = (*Posts)(nil)

func NewPosts() *Posts {
	return &Posts{}
}

// Add stores a copy of post as-is, for seeding tests.
func (p *Posts) Add(post entity.CommunityPost) primitive.ObjectID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	p.posts = append(p.posts, &post)
	return post.ID
}

func (p *Posts) Comments() []entity.PostComment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.comments)
}

func (p *Posts) EnsureIndexes(context.Context) error { return nil }

func (p *Posts) Create(_ context.Context, post *entity.CommunityPost) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	cp := clonePost(post)
	p.posts = append(p.posts, cp)
	return nil
}

func (p *Posts) find(id primitive.ObjectID) (*entity.CommunityPost, error) {
	for _, post := range p.posts {
		if post.ID == id {
			return post, nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", id.Hex(), apperror.ErrNotFound)
}

func (p *Posts) FindByID(_ context.Context, id primitive.ObjectID) (*entity.CommunityPost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	post, err := p.find(id)
	if err != nil {
		return nil, err
	}
	return clonePost(post), nil
}

func (p *Posts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]entity.CommunityPost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	out := []entity.CommunityPost{}
	for _, post := range p.posts {
		if slices.Contains(ids, post.ID) {
			out = append(out, *clonePost(post))
		}
	}
	return out, nil
}

func (p *Posts) ListRecent(_ context.Context, offset, limit int64) ([]entity.CommunityPost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	sorted := slices.Clone(p.posts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })

	out := []entity.CommunityPost{}
	for i := offset; i < int64(len(sorted)) && i < offset+limit; i++ {
		out = append(out, *clonePost(sorted[i]))
	}
	return out, nil
}

func (p *Posts) Count(context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return 0, p.Err
	}
	return int64(len(p.posts)), nil
}

func (p *Posts) SetVote(_ context.Context, id primitive.ObjectID, userID string, dir entity.VoteDirection, active bool, at time.Time) (*entity.CommunityPost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	post, err := p.find(id)
	if err != nil {
		return nil, err
	}

	field, opposite := &post.Upvotes, &post.Downvotes
	if dir == entity.VoteDown {
		field, opposite = opposite, field
	}
	if active {
		*field = addToSet(*field, userID)
		*opposite = pull(*opposite, userID)
	} else {
		*field = pull(*field, userID)
	}
	post.UpdatedAt = at
	return clonePost(post), nil
}

func (p *Posts) SetReaction(_ context.Context, id primitive.ObjectID, userID string, kind entity.ReactionKind, active bool, at time.Time) (*entity.CommunityPost, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	post, err := p.find(id)
	if err != nil {
		return nil, err
	}

	var field *[]string
	switch kind {
	case entity.ReactionFire:
		field = &post.Reactions.Fire
	case entity.ReactionRocket:
		field = &post.Reactions.Rocket
	case entity.ReactionBulb:
		field = &post.Reactions.Bulb
	default:
		return nil, fmt.Errorf("reaction %q: %w", kind, apperror.ErrInvalidInput)
	}
	if active {
		*field = addToSet(*field, userID)
	} else {
		*field = pull(*field, userID)
	}
	post.UpdatedAt = at
	return clonePost(post), nil
}

func (p *Posts) MarkLiked(_ context.Context, id primitive.ObjectID, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return false, p.Err
	}
	post, err := p.find(id)
	if err != nil {
		return false, err
	}
	if slices.Contains(post.LikedBy, userID) {
		return false, nil
	}
	post.LikedBy = append(post.LikedBy, userID)
	return true, nil
}

func (p *Posts) AddViews(_ context.Context, postID string, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("post %q: %w", postID, apperror.ErrNotFound)
	}
	post, err := p.find(id)
	if err != nil {
		return err
	}
	post.Views += n
	return nil
}

func (p *Posts) CreateComment(_ context.Context, comment *entity.PostComment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	p.comments = append(p.comments, *comment)
	return nil
}

func (p *Posts) ListComments(_ context.Context, postID primitive.ObjectID, limit int64) ([]entity.PostComment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	out := []entity.PostComment{}
	for _, c := range p.comments {
		if c.PostID == postID && int64(len(out)) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func clonePost(post *entity.CommunityPost) *entity.CommunityPost {
	cp := *post
	cp.Upvotes = slices.Clone(post.Upvotes)
	cp.Downvotes = slices.Clone(post.Downvotes)
	cp.LikedBy = slices.Clone(post.LikedBy)
	cp.Reactions = entity.Reactions{
		Fire:   slices.Clone(post.Reactions.Fire),
		Rocket: slices.Clone(post.Reactions.Rocket),
		Bulb:   slices.Clone(post.Reactions.Bulb),
	}
	return &cp
}

func addToSet(set []string, v string) []string {
	if slices.Contains(set, v) {
		return set
	}
	return append(set, v)
}

func pull(set []string, v string) []string {
	return slices.DeleteFunc(set, func(s string) bool { return s == v })
}
