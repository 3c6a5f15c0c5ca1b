package service

import "anoa.com/housecup/internal/entity"

// reasonPoints is the only place point values are defined.
var reasonPoints = map[entity.Reason]int{
	entity.ReasonProgressLog:    5,
	entity.ReasonPostCreated:    10,
	entity.ReasonCommentCreated: 2,
	entity.ReasonPostLiked:      1,
	entity.ReasonStreak7:        20,
	entity.ReasonStreak30:       50,
	entity.ReasonStreak100:      150,
	entity.ReasonBadgeEarned:    10,
}

// PointsFor returns the fixed value of reason and whether reason is known.
func PointsFor(reason entity.Reason) (int, bool) {
	p, ok := reasonPoints[reason]
	return p, ok
}

type StreakMilestone struct {
	Days   int
	Reason entity.Reason
}

var streakMilestones = []StreakMilestone{
	{Days: 7, Reason: entity.ReasonStreak7},
	{Days: 30, Reason: entity.ReasonStreak30},
	{Days: 100, Reason: entity.ReasonStreak100},
}

// StreakMilestonesCrossed returns the milestones a streak passed when it grew
// from before to after. A streak that did not grow crosses none.
func StreakMilestonesCrossed(before, after int) []StreakMilestone {
	var crossed []StreakMilestone
	for _, m := range streakMilestones {
		if before < m.Days && after >= m.Days {
			crossed = append(crossed, m)
		}
	}
	return crossed
}
