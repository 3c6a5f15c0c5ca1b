package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	pointsService "anoa.com/housecup/internal/modules/points/service"
	postDto "anoa.com/housecup/internal/modules/post/dto"
	postRepo "anoa.com/housecup/internal/modules/post/repository"
	"anoa.com/housecup/pkg/apperror"
	"anoa.com/housecup/pkg/clock"
	commonDto "anoa.com/housecup/pkg/dto"
	"anoa.com/housecup/pkg/storage"
)

const maxComments = 200

type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error)
}

type PointsAwarder interface {
	AwardPoints(ctx context.Context, in pointsService.AwardInput) (*entity.PointTransaction, error)
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type ViewCounter interface {
	IncrementView(ctx context.Context, postID string, userID uuid.UUID) error
	PendingViews(ctx context.Context, postID string) (int, error)
	PendingViewsOf(ctx context.Context, postIDs []string) (map[string]int, error)
}

type SearchIndex interface {
	IndexPost(ctx context.Context, post *entity.CommunityPost) error
	SearchPostIDs(ctx context.Context, query string, limit int) ([]string, error)
}

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, req postDto.CreatePostRequest, image *commonDto.ImageFile) (*postDto.PostResponse, error)
	GetPost(ctx context.Context, postID string, viewerID uuid.UUID) (*postDto.PostDetailResponse, error)
	ListPosts(ctx context.Context, viewerID uuid.UUID, query postDto.ListPostsQuery) (*postDto.PaginatedPostResponse, error)
	SearchPosts(ctx context.Context, viewerID uuid.UUID, query postDto.SearchPostsQuery) ([]postDto.PostResponse, error)
	// Vote toggles the viewer's vote. Switching direction moves the vote.
	Vote(ctx context.Context, userID uuid.UUID, postID string, req postDto.VoteRequest) (*postDto.PostResponse, error)
	React(ctx context.Context, userID uuid.UUID, postID string, req postDto.ReactRequest) (*postDto.PostResponse, error)
	AddComment(ctx context.Context, userID uuid.UUID, postID string, req postDto.CreateCommentRequest) (*postDto.CommentResponse, error)
	// ShareProgress publishes a progress log as a community post.
	ShareProgress(ctx context.Context, user *entity.User, log *entity.ProgressLog) error
}

type postService struct {
	repo        postRepo.PostRepository
	users       UserFinder
	points      PointsAwarder
	notifier    Notifier
	views       ViewCounter
	search      SearchIndex
	images      storage.ImageStorage
	imageFolder string
	content     *bluemonday.Policy
	plain       *bluemonday.Policy
	clock       clock.Clock
}

// NewPostService builds the community feed service. search and images may be
// nil, which disables search and image uploads.
func NewPostService(
	repo postRepo.PostRepository,
	users UserFinder,
	points PointsAwarder,
	notifier Notifier,
	views ViewCounter,
	search SearchIndex,
	images storage.ImageStorage,
	imageFolder string,
	clk clock.Clock,
) PostService {
	return &postService{
		repo:        repo,
		users:       users,
		points:      points,
		notifier:    notifier,
		views:       views,
		search:      search,
		images:      images,
		imageFolder: imageFolder,
		content:     bluemonday.UGCPolicy(),
		plain:       bluemonday.StrictPolicy(),
		clock:       clk,
	}
}

func parsePostID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("post %q: %w", raw, apperror.ErrNotFound)
	}
	return id, nil
}

// storeErr keeps not-found results and marks everything else as a storage failure.
func storeErr(op string, err error) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return apperror.Storage(op, err)
}

func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, req postDto.CreatePostRequest, image *commonDto.ImageFile) (*postDto.PostResponse, error) {
	title := strings.TrimSpace(s.plain.Sanitize(req.Title))
	content := strings.TrimSpace(s.content.Sanitize(req.Content))
	if title == "" || content == "" {
		return nil, apperror.New(http.StatusBadRequest, "title and content must not be empty", apperror.ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("find author", err)
	}

	var imageURL *string
	if image != nil {
		url, err := s.uploadImage(ctx, image)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	post := &entity.CommunityPost{
		AuthorID: user.ID.String(),
		House:    user.House,
		Title:    title,
		Content:  content,
		ImageURL: imageURL,
	}
	if err := s.publish(ctx, post); err != nil {
		if imageURL != nil {
			if derr := s.images.DeleteImage(ctx, *imageURL); derr != nil {
				logger.WarnCtx(ctx, "orphaned post image", zap.String("url", *imageURL), zap.Error(derr))
			}
		}
		return nil, err
	}

	s.award(ctx, pointsService.AwardInput{
		UserID:      user.ID,
		House:       user.House,
		Reason:      entity.ReasonPostCreated,
		Description: "Created a community post",
		Metadata:    map[string]string{"post_id": post.ID.Hex()},
	})

	resp := s.toResponse(post, user, userID, nil)
	return &resp, nil
}

func (s *postService) uploadImage(ctx context.Context, image *commonDto.ImageFile) (string, error) {
	if s.images == nil {
		return "", apperror.New(http.StatusBadRequest, "image uploads are not enabled", apperror.ErrInvalidInput)
	}

	reader, _, err := storage.SniffImage(image.Reader)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		return "", apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput)
	}
	if err != nil {
		return "", err
	}

	url, err := s.images.UploadImage(ctx, reader, s.imageFolder+"/posts", image.FileName)
	if err != nil {
		return "", fmt.Errorf("upload post image: %w", err)
	}
	return url, nil
}

// publish stores a new post and adds it to the search index.
func (s *postService) publish(ctx context.Context, post *entity.CommunityPost) error {
	now := s.clock.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.repo.Create(ctx, post); err != nil {
		return apperror.Storage("create post", err)
	}

	if s.search != nil {
		if err := s.search.IndexPost(ctx, post); err != nil {
			logger.WarnCtx(ctx, "post not indexed", zap.String("post_id", post.ID.Hex()), zap.Error(err))
		}
	}
	return nil
}

func (s *postService) ShareProgress(ctx context.Context, user *entity.User, log *entity.ProgressLog) error {
	content := fmt.Sprintf("Logged a %s session (intensity %d/4) for %s.", log.Category, log.Intensity, log.Day)
	if note := strings.TrimSpace(s.content.Sanitize(log.Note)); note != "" {
		content = note
	}

	logID := log.ID
	post := &entity.CommunityPost{
		AuthorID:  user.ID.String(),
		House:     user.House,
		Title:     fmt.Sprintf("%s logged %s", user.Username, log.Category),
		Content:   content,
		SharedLog: &logID,
	}
	return s.publish(ctx, post)
}

func (s *postService) GetPost(ctx context.Context, postID string, viewerID uuid.UUID) (*postDto.PostDetailResponse, error) {
	id, err := parsePostID(postID)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find post", err)
	}

	if err := s.views.IncrementView(ctx, postID, viewerID); err != nil {
		logger.WarnCtx(ctx, "view not counted", zap.String("post_id", postID), zap.Error(err))
	}
	if pending, err := s.views.PendingViews(ctx, postID); err == nil {
		post.Views += pending
	}

	comments, err := s.repo.ListComments(ctx, id, maxComments)
	if err != nil {
		return nil, apperror.Storage("list comments", err)
	}

	authorIDs := []string{post.AuthorID}
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors := s.lookupAuthors(ctx, authorIDs)

	detail := &postDto.PostDetailResponse{
		PostResponse: s.toResponse(post, authors[post.AuthorID], viewerID, nil),
		Comments:     make([]postDto.CommentResponse, 0, len(comments)),
	}
	for i := range comments {
		detail.Comments = append(detail.Comments, toCommentResponse(&comments[i], authors[comments[i].AuthorID]))
	}
	return detail, nil
}

func (s *postService) ListPosts(ctx context.Context, viewerID uuid.UUID, query postDto.ListPostsQuery) (*postDto.PaginatedPostResponse, error) {
	mode := SortMode(query.Sort)
	if mode == "" {
		mode = SortHot
	}

	candidates, err := s.repo.ListRecent(ctx, int64(query.Offset()), int64(candidateWindow(mode, query.Limit)))
	if err != nil {
		return nil, apperror.Storage("list posts", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, apperror.Storage("count posts", err)
	}

	if mode == SortHot {
		s.addPendingViews(ctx, candidates)
	}
	ranked := RankPosts(candidates, mode, s.clock.Now(), query.Limit)

	authorIDs := make([]string, 0, len(ranked))
	for _, r := range ranked {
		authorIDs = append(authorIDs, r.Post.AuthorID)
	}
	authors := s.lookupAuthors(ctx, authorIDs)

	data := make([]postDto.PostResponse, 0, len(ranked))
	for i := range ranked {
		var score *float64
		if mode != SortNew {
			score = &ranked[i].Score
		}
		data = append(data, s.toResponse(&ranked[i].Post, authors[ranked[i].Post.AuthorID], viewerID, score))
	}

	return &postDto.PaginatedPostResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(query.Page, query.Limit, total),
	}, nil
}

func (s *postService) SearchPosts(ctx context.Context, viewerID uuid.UUID, query postDto.SearchPostsQuery) ([]postDto.PostResponse, error) {
	if s.search == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "search is not enabled", apperror.ErrStorageUnavailable)
	}

	hits, err := s.search.SearchPostIDs(ctx, query.Q, query.Limit)
	if err != nil {
		return nil, apperror.Storage("search posts", err)
	}

	ids := make([]primitive.ObjectID, 0, len(hits))
	for _, h := range hits {
		if id, err := primitive.ObjectIDFromHex(h); err == nil {
			ids = append(ids, id)
		}
	}

	posts, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Storage("load search hits", err)
	}
	// Restore relevance order; the index may also hold posts already deleted.
	byID := make(map[primitive.ObjectID]*entity.CommunityPost, len(posts))
	authorIDs := make([]string, 0, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
		authorIDs = append(authorIDs, posts[i].AuthorID)
	}
	authors := s.lookupAuthors(ctx, authorIDs)

	out := make([]postDto.PostResponse, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, s.toResponse(p, authors[p.AuthorID], viewerID, nil))
		}
	}
	return out, nil
}

func (s *postService) Vote(ctx context.Context, userID uuid.UUID, postID string, req postDto.VoteRequest) (*postDto.PostResponse, error) {
	if req.Direction != entity.VoteUp && req.Direction != entity.VoteDown {
		return nil, fmt.Errorf("vote %q: %w", req.Direction, apperror.ErrInvalidInput)
	}
	id, err := parsePostID(postID)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find post", err)
	}

	voter := userID.String()
	current := post.Upvotes
	if req.Direction == entity.VoteDown {
		current = post.Downvotes
	}
	active := !slices.Contains(current, voter)

	updated, err := s.repo.SetVote(ctx, id, voter, req.Direction, active, s.clock.Now())
	if err != nil {
		return nil, storeErr("record vote", err)
	}

	if req.Direction == entity.VoteUp && active && post.AuthorID != voter {
		s.rewardLike(ctx, updated, userID)
	}

	return s.singleResponse(ctx, updated, userID), nil
}

// rewardLike pays the author once per voter. Removing or re-adding the vote
// later never pays or reverses anything.
func (s *postService) rewardLike(ctx context.Context, post *entity.CommunityPost, voterID uuid.UUID) {
	first, err := s.repo.MarkLiked(ctx, post.ID, voterID.String())
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("op", "mark liked"), zap.String("post_id", post.ID.Hex()))
		return
	}
	if !first {
		return
	}

	author, err := s.findAuthor(ctx, post.AuthorID)
	if err != nil {
		logger.WarnCtx(ctx, "like reward skipped", zap.String("post_id", post.ID.Hex()), zap.Error(err))
		return
	}

	s.award(ctx, pointsService.AwardInput{
		UserID:      author.ID,
		House:       author.House,
		Reason:      entity.ReasonPostLiked,
		Description: "Your post received an upvote",
		Metadata:    map[string]string{"post_id": post.ID.Hex(), "voter_id": voterID.String()},
	})
	s.notify(ctx, &entity.Notification{
		UserID:     author.ID,
		ActorID:    &voterID,
		EntityID:   post.ID.Hex(),
		EntityType: "post",
		Type:       entity.NotificationPostLiked,
		Message:    fmt.Sprintf("Someone upvoted your post: %s", snippet(post.Title)),
	})
}

func (s *postService) React(ctx context.Context, userID uuid.UUID, postID string, req postDto.ReactRequest) (*postDto.PostResponse, error) {
	switch req.Kind {
	case entity.ReactionFire, entity.ReactionRocket, entity.ReactionBulb:
	default:
		return nil, fmt.Errorf("reaction %q: %w", req.Kind, apperror.ErrInvalidInput)
	}
	id, err := parsePostID(postID)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find post", err)
	}

	active := !slices.Contains(post.Reactions.Of(req.Kind), userID.String())
	updated, err := s.repo.SetReaction(ctx, id, userID.String(), req.Kind, active, s.clock.Now())
	if err != nil {
		return nil, storeErr("record reaction", err)
	}

	return s.singleResponse(ctx, updated, userID), nil
}

func (s *postService) AddComment(ctx context.Context, userID uuid.UUID, postID string, req postDto.CreateCommentRequest) (*postDto.CommentResponse, error) {
	content := strings.TrimSpace(s.content.Sanitize(req.Content))
	if content == "" {
		return nil, apperror.New(http.StatusBadRequest, "comment must not be empty", apperror.ErrInvalidInput)
	}
	id, err := parsePostID(postID)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("find post", err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("find commenter", err)
	}

	comment := &entity.PostComment{
		PostID:    id,
		AuthorID:  userID.String(),
		Content:   content,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, apperror.Storage("create comment", err)
	}

	s.award(ctx, pointsService.AwardInput{
		UserID:      user.ID,
		House:       user.House,
		Reason:      entity.ReasonCommentCreated,
		Description: "Commented on a community post",
		Metadata:    map[string]string{"post_id": postID, "comment_id": comment.ID.Hex()},
	})

	if post.AuthorID != userID.String() {
		if authorID, err := uuid.Parse(post.AuthorID); err == nil {
			s.notify(ctx, &entity.Notification{
				UserID:     authorID,
				ActorID:    &userID,
				EntityID:   postID,
				EntityType: "post",
				Type:       entity.NotificationPostCommented,
				Message:    fmt.Sprintf("%s commented on your post: %s", user.Username, snippet(post.Title)),
			})
		}
	}

	resp := toCommentResponse(comment, user)
	return &resp, nil
}

// award logs failures; the triggering action has already been stored.
func (s *postService) award(ctx context.Context, in pointsService.AwardInput) {
	if s.points == nil {
		return
	}
	if _, err := s.points.AwardPoints(ctx, in); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("op", "award points"), zap.String("reason", string(in.Reason)), zap.String("user_id", in.UserID.String()))
	}
}

// addPendingViews folds view counts not yet synced into posts, so a hot
// score matches the views GetPost reports.
func (s *postService) addPendingViews(ctx context.Context, posts []entity.CommunityPost) {
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID.Hex()
	}
	pending, err := s.views.PendingViewsOf(ctx, ids)
	if err != nil {
		logger.WarnCtx(ctx, "pending views not applied to feed", zap.Error(err))
		return
	}
	for i := range posts {
		posts[i].Views += pending[ids[i]]
	}
}

func (s *postService) notify(ctx context.Context, n *entity.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CreateNotification(ctx, n); err != nil {
		logger.WarnCtx(ctx, "notification not sent", zap.String("type", n.Type), zap.Error(err))
	}
}

func (s *postService) findAuthor(ctx context.Context, authorID string) (*entity.User, error) {
	id, err := uuid.Parse(authorID)
	if err != nil {
		return nil, fmt.Errorf("author %q: %w", authorID, apperror.ErrNotFound)
	}
	return s.users.FindByID(ctx, id)
}

// lookupAuthors resolves author IDs in one query. Unknown authors are absent from the map.
func (s *postService) lookupAuthors(ctx context.Context, authorIDs []string) map[string]*entity.User {
	ids := make([]uuid.UUID, 0, len(authorIDs))
	for _, raw := range authorIDs {
		if id, err := uuid.Parse(raw); err == nil && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	out := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return out
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		logger.WarnCtx(ctx, "author lookup failed", zap.Error(err))
		return out
	}
	for i := range users {
		out[users[i].ID.String()] = &users[i]
	}
	return out
}

func (s *postService) singleResponse(ctx context.Context, post *entity.CommunityPost, viewerID uuid.UUID) *postDto.PostResponse {
	authors := s.lookupAuthors(ctx, []string{post.AuthorID})
	resp := s.toResponse(post, authors[post.AuthorID], viewerID, nil)
	return &resp
}

func (s *postService) toResponse(post *entity.CommunityPost, author *entity.User, viewerID uuid.UUID, score *float64) postDto.PostResponse {
	viewer := viewerID.String()

	resp := postDto.PostResponse{
		ID:        post.ID.Hex(),
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		House:     post.House,
		Author:    toAuthor(post.AuthorID, author),
		Upvotes:   len(post.Upvotes),
		Downvotes: len(post.Downvotes),
		NetVotes:  post.NetVotes(),
		Reactions: postDto.ReactionCounts{
			Fire:   len(post.Reactions.Fire),
			Rocket: len(post.Reactions.Rocket),
			Bulb:   len(post.Reactions.Bulb),
		},
		Views:         post.Views,
		Score:         score,
		UserReactions: []string{},
		CreatedAt:     postDto.FormatTime(post.CreatedAt),
	}

	switch {
	case slices.Contains(post.Upvotes, viewer):
		resp.UserVote = string(entity.VoteUp)
	case slices.Contains(post.Downvotes, viewer):
		resp.UserVote = string(entity.VoteDown)
	}
	for _, kind := range []entity.ReactionKind{entity.ReactionFire, entity.ReactionRocket, entity.ReactionBulb} {
		if slices.Contains(post.Reactions.Of(kind), viewer) {
			resp.UserReactions = append(resp.UserReactions, string(kind))
		}
	}
	return resp
}

func toCommentResponse(c *entity.PostComment, author *entity.User) postDto.CommentResponse {
	return postDto.CommentResponse{
		ID:        c.ID.Hex(),
		PostID:    c.PostID.Hex(),
		Author:    toAuthor(c.AuthorID, author),
		Content:   c.Content,
		CreatedAt: postDto.FormatTime(c.CreatedAt),
	}
}

func toAuthor(id string, user *entity.User) commonDto.AuthorResponse {
	if user == nil {
		return commonDto.AuthorResponse{ID: id, Username: "unknown"}
	}
	return commonDto.AuthorResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
	}
}

func snippet(title string) string {
	r := []rune(title)
	if len(r) > 40 {
		return string(r[:40]) + "..."
	}
	return title
}
