package cache

import (
	"time"

	"github.com/cyp0633/libagenda/calendar"
)

// ResolveFetchGaps computes the missing sub-ranges of [windowStart,
// windowEnd) given the set of already-fetched day ticks. Maximal runs of
// uncached days become candidate ranges; candidates separated by at most
// mergeTolerance cached days are coalesced, and any result longer than
// chunkTolerance days is split into consecutive chunks. The returned ranges
// are midnight-aligned in loc, sorted ascending, and never overlap. An empty
// result means the window is fully covered.
//
// The function has no side effects; it does not record the returned ranges
// as fetched.
func ResolveFetchGaps(windowStart, windowEnd time.Time, cached TickSet, mergeTolerance, chunkTolerance int, loc *time.Location) ([]Range, error) {
	if chunkTolerance < 1 {
		return nil, &Error{Type: ErrInvalidInput, Message: "chunk tolerance must be >= 1"}
	}
	if mergeTolerance < 0 {
		return nil, &Error{Type: ErrInvalidInput, Message: "merge tolerance must be >= 0"}
	}

	first, err := calendar.Midnight(windowStart, loc)
	if err != nil {
		return nil, &Error{Type: ErrInvalidInput, Message: "bad window start", Err: err}
	}

	// Every local-midnight tick of the window, end exclusive.
	var ticks []time.Time
	for cur := first; cur.Before(windowEnd); cur = cur.AddDate(0, 0, 1) {
		ticks = append(ticks, cur)
	}
	if len(ticks) == 0 {
		return nil, nil
	}

	// Maximal runs of uncached days, as inclusive tick-index pairs.
	type run struct{ first, last int }
	var runs []run
	for i, tick := range ticks {
		if cached.Has(tick) {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].last == i-1 {
			runs[n-1].last = i
		} else {
			runs = append(runs, run{first: i, last: i})
		}
	}
	if len(runs) == 0 {
		return nil, nil
	}

	merged := runs[:1]
	for _, r := range runs[1:] {
		prev := &merged[len(merged)-1]
		if r.first-prev.last-1 <= mergeTolerance {
			prev.last = r.last
		} else {
			merged = append(merged, r)
		}
	}

	// endOf maps an inclusive last-day index to its exclusive end instant.
	endOf := func(i int) time.Time {
		if i+1 < len(ticks) {
			return ticks[i+1]
		}
		return ticks[i].AddDate(0, 0, 1)
	}

	var out []Range
	for _, r := range merged {
		for first := r.first; first <= r.last; first += chunkTolerance {
			last := first + chunkTolerance - 1
			if last > r.last {
				last = r.last
			}
			out = append(out, Range{Start: ticks[first], End: endOf(last)})
		}
	}
	return out, nil
}
