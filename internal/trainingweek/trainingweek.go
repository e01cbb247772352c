// Package trainingweek computes the club's reporting week.
//
// The training week does not align with the calendar week: it opens Monday at
// 02:00 local time and closes Sunday at 20:00. Anything before Monday 02:00
// still belongs to the previous week. Dashboard stats, the activity feed and
// the weekly report all bucket by this window, so the math lives here once.
package trainingweek

import "time"

// Window is the current training week, both bounds in local time.
type Window struct {
	Start time.Time // Monday 02:00:00
	End   time.Time // Sunday 20:00:00
}

// Current returns the training week that `now` falls into.
func Current(now time.Time) Window {
	// Walk back to this calendar week's Monday. time.Sunday is 0, so a
	// Sunday is six days past Monday, not minus one.
	diffToMonday := int(now.Weekday()) - 1
	if now.Weekday() == time.Sunday {
		diffToMonday = 6
	}

	monday := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, now.Location())
	monday = monday.AddDate(0, 0, -diffToMonday)

	// Before Monday 02:00 the previous week is still open.
	if now.Before(monday) {
		monday = monday.AddDate(0, 0, -7)
	}

	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 20, 0, 0, 0, sunday.Location())

	return Window{Start: monday, End: sunday}
}
