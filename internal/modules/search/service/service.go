package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
)

const postsIndex = "posts"

type PostDocument struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	House     string `json:"house"`
	AuthorID  string `json:"author_id"`
	CreatedAt int64  `json:"created_at"`
}

// MeiliSearchService keeps the posts index in step with the document store.
type MeiliSearchService interface {
	InitIndexes(ctx context.Context) error
	IndexPost(ctx context.Context, post *entity.CommunityPost) error
	DeletePost(ctx context.Context, id string) error
	// SearchPostIDs returns matching post IDs in relevance order.
	SearchPostIDs(ctx context.Context, query string, limit int) ([]string, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(host, apiKey string) MeiliSearchService {
	return &meiliSearchService{
		client:    meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *meiliSearchService) InitIndexes(_ context.Context) error {
	index := s.client.Index(postsIndex)

	searchable := []string{"title", "content"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		return fmt.Errorf("update searchable attributes: %w", err)
	}

	sortable := []string{"created_at"}
	if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
		return fmt.Errorf("update sortable attributes: %w", err)
	}

	logger.Info("meilisearch indexes initialized", zap.String("index", postsIndex))
	return nil
}

// cleanContentForIndex strips markup and collapses whitespace.
func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	cleanText := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexPost(_ context.Context, post *entity.CommunityPost) error {
	doc := PostDocument{
		ID:        post.ID.Hex(),
		Title:     post.Title,
		Content:   s.cleanContentForIndex(post.Content),
		House:     post.House.String(),
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt.Unix(),
	}

	task, err := s.client.Index(postsIndex).AddDocuments([]PostDocument{doc}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index post %s: %w", doc.ID, err)
	}
	logger.Debug("indexed post", zap.String("post_id", doc.ID), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *meiliSearchService) DeletePost(_ context.Context, id string) error {
	_, err := s.client.Index(postsIndex).DeleteDocument(id)
	return err
}

type idHits struct {
	Hits []struct {
		ID string `json:"id"`
	} `json:"hits"`
}

func (s *meiliSearchService) SearchPostIDs(_ context.Context, query string, limit int) ([]string, error) {
	raw, err := s.client.Index(postsIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}

	var res idHits
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
