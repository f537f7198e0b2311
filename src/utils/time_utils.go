package utils

import "time"

// StartOfDay returns midnight of t's calendar day in the given location.
// The daily trade quota is counted from this boundary, so the location
// must match the one the audit rows were written with.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
