package clock

import "time"

// Clock abstracts wall-clock reads so week boundaries and streaks can be tested
// at fixed instants.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package
type RealClock struct {
	loc *time.Location
}

// New returns a clock reporting time in loc. A nil loc means time.Local.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return &RealClock{loc: loc}
}

func (c *RealClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a Clock that always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
