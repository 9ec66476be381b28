package utils

import "time"

// CurrentWeekBounds returns the start and end of the trading week containing
// now: Monday 00:00:00 UTC through Sunday 23:59:59 UTC.
func CurrentWeekBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()

	daysSinceMonday := int(now.Weekday()) - int(time.Monday)
	if daysSinceMonday < 0 {
		daysSinceMonday += 7 // Sunday
	}

	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
	weekEnd := weekStart.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	return weekStart, weekEnd
}

// NextWeekBounds returns the bounds of the trading week after the one
// containing now.
func NextWeekBounds(now time.Time) (time.Time, time.Time) {
	weekStart, _ := CurrentWeekBounds(now)
	nextStart := weekStart.AddDate(0, 0, 7)
	nextEnd := nextStart.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return nextStart, nextEnd
}
