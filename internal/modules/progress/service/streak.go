package service

import (
	"slices"
	"time"
)

// StreakResult describes a user's consecutive-day activity.
type StreakResult struct {
	Current     int        `json:"current_streak"`
	Longest     int        `json:"longest_streak"`
	LastLogDate *time.Time `json:"last_log_date"`
}

// civilDay numbers calendar days so that consecutive days differ by exactly 1
// regardless of DST or the zone's UTC offset.
func civilDay(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// ComputeStreak derives current and longest streaks from log timestamps.
// Days are taken in now's location; days after today are ignored.
func ComputeStreak(dates []time.Time, now time.Time) StreakResult {
	loc := now.Location()
	today := civilDay(now, loc)

	days := make([]int64, 0, len(dates))
	for _, d := range dates {
		if day := civilDay(d, loc); day <= today {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return StreakResult{}
	}

	slices.Sort(days)
	days = slices.Compact(days)
	slices.Reverse(days)

	var result StreakResult

	last := time.Unix(days[0]*86400, 0).UTC()
	lastLocal := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc)
	result.LastLogDate = &lastLocal

	if today-days[0] <= 1 {
		result.Current = 1
		for i := 1; i < len(days) && days[i-1]-days[i] == 1; i++ {
			result.Current++
		}
	}

	run := 1
	result.Longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
		} else {
			run = 1
		}
		result.Longest = max(result.Longest, run)
	}
	result.Longest = max(result.Longest, result.Current)

	return result
}
