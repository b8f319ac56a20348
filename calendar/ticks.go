package calendar

import (
	"time"
)

// DayTicks returns the local-midnight instant of every calendar day from
// start's day up to end's day, inclusive of the end day only when
// inclusiveEnd is set. Each step is one calendar day in loc, not a fixed 24
// hours, so the 23- and 25-hour days around a DST transition produce correct
// ticks. An empty slice is returned when start's day is after end's day.
func DayTicks(start, end time.Time, loc *time.Location, inclusiveEnd bool) ([]time.Time, error) {
	first, err := Midnight(start, loc)
	if err != nil {
		return nil, err
	}
	last, err := Midnight(end, loc)
	if err != nil {
		return nil, err
	}

	var ticks []time.Time
	for cur := first; cur.Before(last) || (inclusiveEnd && cur.Equal(last)); cur = cur.AddDate(0, 0, 1) {
		ticks = append(ticks, cur)
	}
	return ticks, nil
}
