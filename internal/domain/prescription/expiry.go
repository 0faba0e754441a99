package prescription

import (
	"math"
	"time"
)

const (
	day = 24 * time.Hour

	// WindowDays is the last day-count at which an alert is still eligible.
	WindowDays = 7
)

// ComputeExpiry returns local midnight of now's calendar day plus days.
func ComputeExpiry(now time.Time, days int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+days, 0, 0, 0, 0, now.Location())
}

// DaysLeft counts calendar days from now's date to expiry's date in now's location.
// Both sides are reduced to civil dates first, so DST shifts never leak into the count.
func DaysLeft(now, expiry time.Time) int {
	today := civilMidnight(now, now.Location())
	exp := civilMidnight(expiry, now.Location())
	return int(math.Ceil(float64(exp.Sub(today)) / float64(day)))
}

// InWindow reports whether daysLeft falls in the notification window [0, WindowDays].
func InWindow(daysLeft int) bool {
	return daysLeft >= 0 && daysLeft <= WindowDays
}

func civilMidnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
