package service

import "time"

// WeekBoundaries returns the Monday 00:00:00 and Sunday 23:59:59.999999999
// that enclose now, in now's location. Day arithmetic goes through AddDate so
// a week spanning a DST change still covers seven calendar days.
func WeekBoundaries(now time.Time) (start, end time.Time) {
	offset := int(now.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6 // Sunday
	}

	y, m, d := now.Date()
	start = time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
	end = start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}
