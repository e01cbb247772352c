package domain

import "time"

// DateLayout is the wire format for all calendar dates (assigned, target, log
// dates). Keeping them as strings in this layout makes "before/after"
// comparisons plain string comparisons, exactly how the stores filter them.
const DateLayout = "2006-01-02"

// FormatDate renders t as a local calendar date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
