package service

import (
	"math"

	"anoa.com/housecup/pkg/dto"
)

// Personal rank thresholds, all-time points. A rank never demotes because the
// ledger never shrinks.
const (
	PointsLegend     = 5000
	PointsChampion   = 2000
	PointsPrefect    = 800
	PointsAdept      = 250
	PointsApprentice = 50
)

// Weekly activity thresholds, points earned since Monday.
const (
	WeeklyOnFire   = 100
	WeeklyTrending = 50
	WeeklyActive   = 20
)

type rankStep struct {
	name      string
	threshold int
}

var rankLadder = []rankStep{
	{"Novice", 0},
	{"Apprentice", PointsApprentice},
	{"Adept", PointsAdept},
	{"Prefect", PointsPrefect},
	{"Champion", PointsChampion},
	{"Legend", PointsLegend},
}

// GamificationStatus derives a user's personal rank from all-time points and
// an activity label from this week's points.
func GamificationStatus(allTimePoints, weeklyPoints int) dto.GamificationStatus {
	status := dto.GamificationStatus{
		CurrentPoints: allTimePoints,
		WeeklyPoints:  weeklyPoints,
	}

	idx := 0
	for i, step := range rankLadder {
		if allTimePoints >= step.threshold {
			idx = i
		}
	}

	status.RankName = rankLadder[idx].name
	if idx == len(rankLadder)-1 {
		status.NextRank = "Max Level"
		status.TargetPoints = PointsLegend
		status.Progress = 100
	} else {
		next := rankLadder[idx+1]
		status.NextRank = next.name
		status.TargetPoints = next.threshold
		if allTimePoints > 0 {
			status.Progress = float64(allTimePoints) / float64(next.threshold) * 100
		}
	}

	switch {
	case weeklyPoints >= WeeklyOnFire:
		status.WeeklyLabel = "🔥 On Fire!"
	case weeklyPoints >= WeeklyTrending:
		status.WeeklyLabel = "⚡ Trending"
	case weeklyPoints >= WeeklyActive:
		status.WeeklyLabel = "📈 Active"
	}

	status.Progress = math.Round(status.Progress*100) / 100

	return status
}
