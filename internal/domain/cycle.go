package domain

import "time"

// NextCycleEnd advances a cycle end by one calendar month, clamping to the
// last day of the target month (Jan 31 renews to Feb 28/29). A subscription
// that never had a cycle end starts one month from now.
func NextCycleEnd(current *time.Time, now time.Time) time.Time {
	base := now
	if current != nil {
		base = *current
	}

	year, month, day := base.Date()
	firstOfNext := time.Date(year, month+1, 1, base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
	lastDay := daysIn(firstOfNext.Year(), firstOfNext.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
