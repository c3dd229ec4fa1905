// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// Tomorrow returns the start of the day after t.
func Tomorrow(t time.Time) time.Time {
	return BeginningOfDay(t).AddDate(0, 0, 1)
}

// ParseDate parses a "YYYY-MM-DD" date string as UTC midnight.
// Clock-derived dates must be computed from UTC times so both sides of
// a date comparison land on the same calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
