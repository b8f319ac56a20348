package calendar

import (
	"time"
)

// Remainder reports the sub-minute residue of a Diff call. Domain timestamps
// are expected to be minute-granular, so a non-zero residue usually points at
// a data-entry bug upstream. It is a diagnostic, not an error: the whole-unit
// result is still valid, computed over floored values.
type Remainder struct {
	SubMinute time.Duration
}

// Exact reports whether the two instants differed by a whole number of
// minutes.
func (r Remainder) Exact() bool {
	return r.SubMinute == 0
}

// Diff returns the whole-unit calendar difference between a and b in loc's
// calendar. Field values are magnitudes; Sign is +1 when b is after a, -1
// when before, 0 when equal. The larger instant is normalized first so the
// result is symmetric: Diff(a, b) and Diff(b, a) differ only in Sign.
func Diff(a, b time.Time, loc *time.Location) (Units, int, Remainder, error) {
	if loc == nil {
		return Units{}, 0, Remainder{}, invalidComponent("nil location")
	}
	if err := checkInstant(a); err != nil {
		return Units{}, 0, Remainder{}, err
	}
	if err := checkInstant(b); err != nil {
		return Units{}, 0, Remainder{}, err
	}

	sign := 0
	from, to := a.In(loc), b.In(loc)
	switch {
	case a.Before(b):
		sign = 1
	case a.After(b):
		sign = -1
		from, to = to, from
	default:
		return Units{}, 0, Remainder{}, nil
	}

	var u Units

	// Whole months are counted from the smaller instant; the guess can
	// overshoot when date normalization pushes a short month forward (Dec 30
	// plus two months lands in March), so step the total back until it fits.
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months < 0 {
		months = 0
	}
	for months > 0 && from.AddDate(0, months, 0).After(to) {
		months--
	}
	u.Years = months / 12
	u.Months = months % 12
	cursor := from.AddDate(0, months, 0)

	// Estimate days from absolute time, then correct in calendar steps so a
	// DST-shortened or -lengthened day still counts as one day.
	u.Days = int(to.Sub(cursor) / (24 * time.Hour))
	cursor = cursor.AddDate(0, 0, u.Days)
	for cursor.After(to) {
		u.Days--
		cursor = cursor.AddDate(0, 0, -1)
	}
	for !cursor.AddDate(0, 0, 1).After(to) {
		u.Days++
		cursor = cursor.AddDate(0, 0, 1)
	}

	rest := to.Sub(cursor)
	u.Hours = int(rest / time.Hour)
	rest -= time.Duration(u.Hours) * time.Hour
	u.Minutes = int(rest / time.Minute)
	rest -= time.Duration(u.Minutes) * time.Minute

	return u, sign, Remainder{SubMinute: rest}, nil
}
