package service

import (
	"math"
	"sort"
	"time"

	"anoa.com/housecup/internal/entity"
)

type SortMode string

const (
	SortNew SortMode = "new"
	SortHot SortMode = "hot"
	SortTop SortMode = "top"
)

const (
	hotGravity     = 1.5
	hotAgeOffset   = 2.0
	viewsPerPoint  = 100.0
	overFetchRatio = 2
)

// Score computes a post's feed score at now. SortNew has no score and returns 0.
//
//	top = netVotes + reactions
//	hot = (netVotes + reactions + views/100) / (ageHours + 2)^1.5
func Score(post *entity.CommunityPost, mode SortMode, now time.Time) float64 {
	engagement := float64(post.NetVotes() + post.Reactions.Count())

	switch mode {
	case SortTop:
		return engagement
	case SortHot:
		age := max(now.Sub(post.CreatedAt), 0)
		ageHours := age.Hours()
		return (engagement + float64(post.Views)/viewsPerPoint) / math.Pow(ageHours+hotAgeOffset, hotGravity)
	}
	return 0
}

type RankedPost struct {
	Post  entity.CommunityPost
	Score float64
}

// RankPosts orders candidates by score, highest first, and keeps at most
// limit of them. Equal scores keep their candidate order.
func RankPosts(posts []entity.CommunityPost, mode SortMode, now time.Time, limit int) []RankedPost {
	ranked := make([]RankedPost, len(posts))
	for i := range posts {
		ranked[i] = RankedPost{Post: posts[i], Score: Score(&posts[i], mode, now)}
	}

	if mode != SortNew {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		})
	}

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// candidateWindow is how many newest posts a ranked page is chosen from.
func candidateWindow(mode SortMode, limit int) int {
	if mode == SortNew {
		return limit
	}
	return limit * overFetchRatio
}
