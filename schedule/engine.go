// Package schedule models stored recurrence rules and expands them into the
// concrete occurrences intersecting a query window. Expansion is a pure
// function of its inputs: the same schedule and window always produce the
// same occurrences with the same identifiers.
package schedule

import (
	"io"
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"
)

// Engine expands schedules into occurrences. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an expansion engine. A nil logger disables diagnostics.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{logger: logger}
}

// Expand generates every occurrence of s whose start falls within
// [windowStart, windowEnd). Period arithmetic runs in the schedule's own
// zone, so a rule anchored at 09:00 in its zone keeps firing at 09:00 there
// across DST transitions regardless of the viewer's zone. Duration is carried
// over from the anchor verbatim, never recomputed per occurrence.
//
// Monthly and yearly rules anchored on a day that does not exist in a target
// month (the 31st in February, Feb 29 in a non-leap year) skip that cycle
// entirely rather than clamping to the month's last day.
func (e *Engine) Expand(s Schedule, windowStart, windowEnd time.Time) ([]Occurrence, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !windowEnd.After(windowStart) {
		return nil, nil
	}

	loc, err := s.Location()
	if err != nil {
		return nil, err
	}

	if s.Start.Second() != 0 || s.Start.Nanosecond() != 0 {
		// Domain stamps are minute-granular; anything finer is an upstream
		// data-entry bug. Expansion proceeds with the value as given.
		e.logger.Warn("schedule anchor is not minute-granular",
			"schedule_id", s.ID,
			"start", s.Start)
	}

	if s.Expired(windowStart) || !s.Start.Before(windowEnd) {
		return nil, nil
	}

	if s.Period == PeriodSingle {
		if s.Start.Before(windowStart) {
			return nil, nil
		}
		return []Occurrence{e.materialize(s, s.Start)}, nil
	}

	upper := windowEnd
	until, hasUntil := s.Until.Get()
	if hasUntil && until.Before(upper) {
		upper = until
	}

	rule, err := e.buildRule(s, loc, windowStart)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	for _, start := range rule.Between(windowStart, upper, true) {
		// Between is inclusive of both endpoints; the window and the until
		// bound are exclusive.
		if !start.Before(upper) || !start.Before(windowEnd) {
			break
		}
		if start.Before(s.Start) {
			continue
		}
		out = append(out, e.materialize(s, start))
	}
	return out, nil
}

func (e *Engine) materialize(s Schedule, start time.Time) Occurrence {
	return Occurrence{
		ID:         OccurrenceID(s.ID, start),
		ScheduleID: s.ID,
		Path:       s.Path,
		Start:      start,
		End:        start.Add(s.Duration()),
		TimeZone:   s.TimeZone,
		Virtual:    true,
	}
}

// buildRule translates the schedule into an rrule iterator whose DTSTART has
// been fast-forwarded close to the window. Long-running schedules would
// otherwise replay every cycle since their original anchor on each call.
func (e *Engine) buildRule(s Schedule, loc *time.Location, windowStart time.Time) (*rrule.RRule, error) {
	anchor := s.Start.In(loc)

	opt := rrule.ROption{
		Interval: s.Interval,
		Dtstart:  anchor,
	}
	if until, ok := s.Until.Get(); ok {
		opt.Until = until.In(loc)
	}

	switch s.Period {
	case PeriodDaily:
		opt.Freq = rrule.DAILY
		opt.Dtstart = fastForwardDays(anchor, windowStart, s.Interval)
	case PeriodWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Dtstart = fastForwardDays(anchor, windowStart, 7*s.Interval)
	case PeriodMonthly:
		opt.Freq = rrule.MONTHLY
		// The anchor's day-of-month drives generation; DTSTART is pinned to
		// the 1st so that fast-forwarding can never land on a nonexistent
		// date. Months lacking the day are skipped by the BYMONTHDAY filter.
		opt.Bymonthday = []int{anchor.Day()}
		opt.Dtstart = fastForwardMonths(anchor, windowStart, s.Interval, loc)
	case PeriodYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(anchor.Month())}
		opt.Bymonthday = []int{anchor.Day()}
		opt.Dtstart = fastForwardYears(anchor, windowStart, s.Interval, loc)
	default:
		return nil, invalid("period %q is not recurring", s.Period)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, &Error{Type: ErrInvalid, Message: "building recurrence rule", Err: err}
	}
	return rule, nil
}

// fastForwardDays advances anchor toward windowStart in whole steps of
// stepDays calendar days, stopping at least one step short so no occurrence
// near the window edge is lost to DST rounding.
func fastForwardDays(anchor, windowStart time.Time, stepDays int) time.Time {
	if !anchor.Before(windowStart) {
		return anchor
	}
	elapsed := int(windowStart.Sub(anchor) / (24 * time.Hour))
	steps := elapsed/stepDays - 1
	if steps <= 0 {
		return anchor
	}
	return anchor.AddDate(0, 0, steps*stepDays)
}

// fastForwardMonths returns a DTSTART on day 1 of a month that is a whole
// multiple of intervalMonths after the anchor's month, at most one interval
// before windowStart's month. Keeping the step a multiple of the interval
// preserves the rule's phase.
func fastForwardMonths(anchor, windowStart time.Time, intervalMonths int, loc *time.Location) time.Time {
	ws := windowStart.In(loc)
	elapsed := (ws.Year()-anchor.Year())*12 + int(ws.Month()) - int(anchor.Month())
	steps := elapsed/intervalMonths - 1
	if steps < 0 {
		steps = 0
	}
	return time.Date(anchor.Year(), anchor.Month()+time.Month(steps*intervalMonths), 1,
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0, loc)
}

func fastForwardYears(anchor, windowStart time.Time, intervalYears int, loc *time.Location) time.Time {
	ws := windowStart.In(loc)
	steps := (ws.Year()-anchor.Year())/intervalYears - 1
	if steps < 0 {
		steps = 0
	}
	return time.Date(anchor.Year()+steps*intervalYears, time.January, 1,
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0, loc)
}
