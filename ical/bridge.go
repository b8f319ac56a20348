// Package ical converts between the in-memory schedule model and the
// boundary formats spoken by external collaborators: ISO-8601 stamps in
// backend records, iCalendar VEVENTs, and xCal XML for XML-consuming view
// layers.
package ical

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"

	"github.com/cyp0633/libagenda/schedule"
)

// ParseStamp parses an ISO-8601 instant as found in backend records.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stamp %q: %w", s, err)
	}
	return t, nil
}

// FormatStamp renders an instant the way backend records expect it.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var periodToFreq = map[schedule.Period]rrule.Frequency{
	schedule.PeriodDaily:   rrule.DAILY,
	schedule.PeriodWeekly:  rrule.WEEKLY,
	schedule.PeriodMonthly: rrule.MONTHLY,
	schedule.PeriodYearly:  rrule.YEARLY,
}

var freqToPeriod = map[rrule.Frequency]schedule.Period{
	rrule.DAILY:   schedule.PeriodDaily,
	rrule.WEEKLY:  schedule.PeriodWeekly,
	rrule.MONTHLY: schedule.PeriodMonthly,
	rrule.YEARLY:  schedule.PeriodYearly,
}

// EncodeSchedule renders a schedule as an iCalendar VEVENT. Single schedules
// carry no RRULE; recurring ones get FREQ/INTERVAL and, when bounded, UNTIL.
func EncodeSchedule(s schedule.Schedule) (*ical.Event, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	loc, err := s.Location()
	if err != nil {
		return nil, err
	}

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, s.ID)
	if s.Path != "" {
		ev.Props.SetText(ical.PropCategories, s.Path)
	}
	ev.Props.SetDateTime(ical.PropDateTimeStart, s.Start.In(loc))
	ev.Props.SetDateTime(ical.PropDateTimeEnd, s.End.In(loc))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if s.Period != schedule.PeriodSingle {
		parts := []string{
			"FREQ=" + freqName(periodToFreq[s.Period]),
			fmt.Sprintf("INTERVAL=%d", s.Interval),
		}
		if until, ok := s.Until.Get(); ok {
			parts = append(parts, "UNTIL="+until.UTC().Format("20060102T150405Z"))
		}
		// RRULE is a RECUR value, not TEXT; SetText would escape the
		// structural semicolons.
		rr := ical.NewProp(ical.PropRecurrenceRule)
		rr.Value = strings.Join(parts, ";")
		ev.Props.Set(rr)
	}
	return ev, nil
}

// DecodeSchedule reads a VEVENT back into a schedule. tz names the zone
// governing the schedule's period arithmetic; VEVENTs do not reliably carry
// one once stamps are normalized to UTC at the backend boundary.
func DecodeSchedule(ev *ical.Event, tz string) (schedule.Schedule, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("bad timezone %q: %w", tz, err)
	}

	s := schedule.Schedule{
		Period:   schedule.PeriodSingle,
		Interval: 1,
		TimeZone: tz,
	}
	if prop := ev.Props.Get(ical.PropUID); prop != nil {
		s.ID = prop.Value
	}
	if prop := ev.Props.Get(ical.PropCategories); prop != nil {
		s.Path = prop.Value
	}

	start, err := ev.Props.DateTime(ical.PropDateTimeStart, loc)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("reading DTSTART: %w", err)
	}
	s.Start = start

	end, err := ev.Props.DateTime(ical.PropDateTimeEnd, loc)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("reading DTEND: %w", err)
	}
	s.End = end

	if prop := ev.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		opt, err := rrule.StrToROption(prop.Value)
		if err != nil {
			return schedule.Schedule{}, fmt.Errorf("parsing RRULE %q: %w", prop.Value, err)
		}
		period, ok := freqToPeriod[opt.Freq]
		if !ok {
			return schedule.Schedule{}, fmt.Errorf("unsupported RRULE frequency in %q", prop.Value)
		}
		s.Period = period
		if opt.Interval > 0 {
			s.Interval = opt.Interval
		}
		if !opt.Until.IsZero() {
			s.Until = mo.Some(opt.Until)
		}
	}

	if err := s.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	return s, nil
}

func freqName(f rrule.Frequency) string {
	switch f {
	case rrule.DAILY:
		return "DAILY"
	case rrule.WEEKLY:
		return "WEEKLY"
	case rrule.MONTHLY:
		return "MONTHLY"
	case rrule.YEARLY:
		return "YEARLY"
	default:
		return ""
	}
}
