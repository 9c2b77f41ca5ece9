package factory

import (
	"time"

	"factory-status-backend/internal/parse"
)

// Shift is the fixed daily production window, anchored to calendar dates in Location.
type Shift struct {
	Start    parse.Clock
	End      parse.Clock
	Location *time.Location
}

// DefaultShift is 08:00-16:00 in loc.
func DefaultShift(loc *time.Location) Shift {
	return Shift{Start: parse.Clock{Hour: 8}, End: parse.Clock{Hour: 16}, Location: loc}
}

// Window returns the shift bounds on the calendar date of day.
func (s Shift) Window(day time.Time) (start, end time.Time) {
	d := parse.Day(day, s.Location)
	return s.Start.On(d), s.End.On(d)
}


// Hours is the number of hourly buckets that fit in the shift. A trailing
// partial hour gets its own bucket, so every bucket starts before End.
func (s Shift) Hours() int {
	return (s.End.Minutes() - s.Start.Minutes() + 59) / 60
}
