// Package calendar provides timezone-aware date arithmetic used by the
// recurrence engine and the day-bucketed cache. All operations take the
// governing zone as an explicit parameter; nothing in this package reads
// ambient process state such as time.Local.
package calendar

import (
	"time"
)

// The domain only deals in civil calendar years; anything outside this range
// is a sign of corrupted input rather than a real timestamp.
const (
	minYear = 1
	maxYear = 9999
)

// Add applies u to t in loc's wall-clock calendar, field by field in the
// order years, months, days, hours, minutes. Year/month/day steps are
// calendar steps (a day added across a DST transition is 23 or 25 absolute
// hours); hour/minute steps are absolute durations. Overflowing dates
// normalize forward per the usual calendar rules, e.g. Jan 31 plus one month
// lands in early March. Clamping to month end is deliberately not performed
// here.
func Add(t time.Time, u Units, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, invalidComponent("nil location")
	}
	if err := checkInstant(t); err != nil {
		return time.Time{}, err
	}

	out := t.In(loc)
	if u.Years != 0 {
		out = out.AddDate(u.Years, 0, 0)
	}
	if u.Months != 0 {
		out = out.AddDate(0, u.Months, 0)
	}
	if u.Days != 0 {
		out = out.AddDate(0, 0, u.Days)
	}
	if u.Hours != 0 {
		out = out.Add(time.Duration(u.Hours) * time.Hour)
	}
	if u.Minutes != 0 {
		out = out.Add(time.Duration(u.Minutes) * time.Minute)
	}

	if err := checkInstant(out); err != nil {
		return time.Time{}, err
	}
	return out, nil
}

// Midnight truncates t to 00:00:00.000 of the same calendar day in loc,
// returned as an absolute instant.
func Midnight(t time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, invalidComponent("nil location")
	}
	if err := checkInstant(t); err != nil {
		return time.Time{}, err
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), nil
}

// DaysInMonth returns the number of days in the given month, accounting for
// leap years.
func DaysInMonth(year int, m time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func checkInstant(t time.Time) error {
	if t.IsZero() {
		return invalidComponent("zero instant")
	}
	if y := t.Year(); y < minYear || y > maxYear {
		return invalidComponent("year %d out of range", y)
	}
	return nil
}
