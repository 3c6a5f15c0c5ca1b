package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anoa.com/housecup/internal/entity"
)

var rankNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func votes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i%26))
	}
	return out
}

func TestScoreHotDecay(t *testing.T) {
	fresh := entity.CommunityPost{Title: "fresh", Upvotes: votes(10), CreatedAt: rankNow.Add(-time.Hour)}
	older := entity.CommunityPost{Title: "older", Upvotes: votes(20), CreatedAt: rankNow.Add(-10 * time.Hour)}

	assert.InDelta(t, 1.925, Score(&fresh, SortHot, rankNow), 0.001)
	assert.InDelta(t, 0.481, Score(&older, SortHot, rankNow), 0.001)

	ranked := RankPosts([]entity.CommunityPost{older, fresh}, SortHot, rankNow, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "fresh", ranked[0].Post.Title)
}

func TestScoreComponents(t *testing.T) {
	post := entity.CommunityPost{
		Upvotes:   votes(5),
		Downvotes: votes(2),
		Reactions: entity.Reactions{Fire: votes(1), Rocket: votes(2), Bulb: votes(1)},
		Views:     250,
		CreatedAt: rankNow,
	}

	assert.Equal(t, 7.0, Score(&post, SortTop, rankNow))
	// (3 + 4 + 2.5) / 2^1.5
	assert.InDelta(t, 3.3588, Score(&post, SortHot, rankNow), 0.0001)
	assert.Equal(t, 0.0, Score(&post, SortNew, rankNow))
}

func TestScoreClampsFutureCreation(t *testing.T) {
	future := entity.CommunityPost{Upvotes: votes(4), CreatedAt: rankNow.Add(3 * time.Hour)}
	justNow := entity.CommunityPost{Upvotes: votes(4), CreatedAt: rankNow}

	assert.Equal(t, Score(&justNow, SortHot, rankNow), Score(&future, SortHot, rankNow))
}

func TestScoreNegativeNetVotes(t *testing.T) {
	post := entity.CommunityPost{Downvotes: votes(3), CreatedAt: rankNow}
	assert.Equal(t, -3.0, Score(&post, SortTop, rankNow))
	assert.Less(t, Score(&post, SortHot, rankNow), 0.0)
}

func TestRankPostsStableAndTruncated(t *testing.T) {
	posts := []entity.CommunityPost{
		{Title: "a", Upvotes: votes(1), CreatedAt: rankNow},
		{Title: "b", Upvotes: votes(3), CreatedAt: rankNow},
		{Title: "c", Upvotes: votes(1), CreatedAt: rankNow},
		{Title: "d", Upvotes: votes(3), CreatedAt: rankNow},
		{Title: "e", CreatedAt: rankNow},
	}

	ranked := RankPosts(posts, SortTop, rankNow, 4)

	titles := make([]string, len(ranked))
	for i, r := range ranked {
		titles[i] = r.Post.Title
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, titles)
	assert.Equal(t, 3.0, ranked[0].Score)
}

func TestRankPostsNewKeepsOrder(t *testing.T) {
	posts := []entity.CommunityPost{
		{Title: "newest", CreatedAt: rankNow},
		{Title: "popular", Upvotes: votes(9), CreatedAt: rankNow.Add(-time.Hour)},
	}

	ranked := RankPosts(posts, SortNew, rankNow, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, "newest", ranked[0].Post.Title)
}

func TestRankPostsEmpty(t *testing.T) {
	assert.Empty(t, RankPosts(nil, SortHot, rankNow, 10))
}

func TestCandidateWindow(t *testing.T) {
	assert.Equal(t, 20, candidateWindow(SortHot, 10))
	assert.Equal(t, 20, candidateWindow(SortTop, 10))
	assert.Equal(t, 10, candidateWindow(SortNew, 10))
}
