package dto

import (
	"time"

	"anoa.com/housecup/internal/entity"
	commonDto "anoa.com/housecup/pkg/dto"
)

type CreatePostRequest struct {
	Title   string `form:"title" json:"title" binding:"required,min=3,max=150"`
	Content string `form:"content" json:"content" binding:"required,max=5000"`
}

type VoteRequest struct {
	Direction entity.VoteDirection `json:"direction" binding:"required,oneof=up down"`
}

type ReactRequest struct {
	Kind entity.ReactionKind `json:"kind" binding:"required,oneof=fire rocket bulb"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

type ListPostsQuery struct {
	commonDto.PaginationQuery
	Sort string `form:"sort,default=hot" binding:"oneof=new hot top"`
}

type SearchPostsQuery struct {
	Q     string `form:"q" binding:"required,max=200"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=50"`
}

type ReactionCounts struct {
	Fire   int `json:"fire"`
	Rocket int `json:"rocket"`
	Bulb   int `json:"bulb"`
}

type PostResponse struct {
	ID            string                   `json:"id"`
	Title         string                   `json:"title"`
	Content       string                   `json:"content"`
	ImageURL      *string                  `json:"image_url,omitempty"`
	House         entity.House             `json:"house"`
	Author        commonDto.AuthorResponse `json:"author"`
	Upvotes       int                      `json:"upvotes"`
	Downvotes     int                      `json:"downvotes"`
	NetVotes      int                      `json:"net_votes"`
	Reactions     ReactionCounts           `json:"reactions"`
	Views         int                      `json:"views"`
	Score         *float64                 `json:"score,omitempty"`
	UserVote      string                   `json:"user_vote,omitempty"`
	UserReactions []string                 `json:"user_reactions"`
	CreatedAt     string                   `json:"created_at"`
}

type CommentResponse struct {
	ID        string                   `json:"id"`
	PostID    string                   `json:"post_id"`
	Author    commonDto.AuthorResponse `json:"author"`
	Content   string                   `json:"content"`
	CreatedAt string                   `json:"created_at"`
}

type PostDetailResponse struct {
	PostResponse
	Comments []CommentResponse `json:"comments"`
}

type PaginatedPostResponse struct {
	Data []PostResponse           `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
