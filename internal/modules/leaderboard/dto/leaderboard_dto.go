package dto

import "anoa.com/housecup/internal/entity"

// HouseStandingEntry is one house's row on a leaderboard.
// Position is 1-based; equal totals are ordered by house name.
type HouseStandingEntry struct {
	Position        int          `json:"position"`
	House           entity.House `json:"house"`
	TotalPoints     int          `json:"total_points"`
	MemberCount     int          `json:"member_count"`
	PointsPerMember int          `json:"points_per_member"` // 0 for a house without members
	PostCount       int          `json:"post_count,omitempty"`
	ProgressCount   int          `json:"progress_count,omitempty"`
}

type WeeklyLeaderboardResponse struct {
	WeekStart string               `json:"week_start"`
	WeekEnd   string               `json:"week_end"`
	Houses    []HouseStandingEntry `json:"houses"`
}

type AllTimeStandingsResponse struct {
	Houses []HouseStandingEntry `json:"houses"`
}

type ContributorsQuery struct {
	Limit int `form:"limit,default=10" binding:"min=1,max=50"`
}

type ContributorEntry struct {
	Position int    `json:"position"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	RankName string `json:"rank_name"`
}

type HouseContributorsResponse struct {
	House        entity.House       `json:"house"`
	Contributors []ContributorEntry `json:"contributors"`
}
