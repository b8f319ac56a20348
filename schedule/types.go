package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Error types
type ErrorType string

const (
	ErrInvalid ErrorType = "invalid_schedule"
)

// Error represents a schedule validation or expansion error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// ErrInvalidSchedule is a prototype for errors.Is checks.
var ErrInvalidSchedule = &Error{Type: ErrInvalid}

func invalid(format string, args ...any) *Error {
	return &Error{Type: ErrInvalid, Message: fmt.Sprintf(format, args...)}
}

// Period is the repetition frequency of a schedule.
type Period string

const (
	PeriodSingle  Period = "single"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod parses a period name as found in stored schedule records.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodSingle, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, nil
	default:
		return "", invalid("unrecognized period %q", s)
	}
}

// Schedule is a stored recurrence rule. The anchor occurrence runs from Start
// to End; Period and Interval describe how it repeats, with all period
// arithmetic performed in TimeZone's calendar. Schedules are created and
// edited elsewhere; this package only reads them.
type Schedule struct {
	// ID is empty until the schedule has been persisted.
	ID string
	// Path is a free-text slash-delimited grouping label. It is carried
	// through to occurrences and never parsed here.
	Path string

	Period   Period
	Interval int

	// Start and End are the anchor occurrence's absolute instants. Their
	// difference is the duration of every generated occurrence.
	Start time.Time
	End   time.Time

	// Until excludes occurrences starting at or after it. None = unbounded.
	Until mo.Option[time.Time]

	// TimeZone is the IANA zone governing rollover and DST behavior.
	TimeZone string
}

// NewID returns a fresh identifier for a schedule about to be persisted.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the schedule for the malformed shapes rejected by the
// expansion engine.
func (s Schedule) Validate() error {
	if _, err := ParsePeriod(string(s.Period)); err != nil {
		return err
	}
	if s.Interval < 1 {
		return invalid("interval must be >= 1, got %d", s.Interval)
	}
	if s.Start.IsZero() || s.End.IsZero() {
		return invalid("anchor stamps are required")
	}
	if s.End.Before(s.Start) {
		return invalid("anchor end precedes start")
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the schedule's IANA zone.
func (s Schedule) Location() (*time.Location, error) {
	if s.TimeZone == "" {
		return nil, invalid("missing timezone")
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, &Error{Type: ErrInvalid, Message: fmt.Sprintf("bad timezone %q", s.TimeZone), Err: err}
	}
	return loc, nil
}

// Duration is the anchor duration, constant across all occurrences.
func (s Schedule) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Expired reports whether the schedule can produce no occurrence at or after
// the given instant.
func (s Schedule) Expired(at time.Time) bool {
	until, ok := s.Until.Get()
	if !ok {
		return false
	}
	// A bound at or before the anchor start excludes even the anchor itself.
	return until.Before(at) || !until.After(s.Start)
}

// Occurrence is one concrete instance produced by expanding a schedule
// against a window. Occurrences are ephemeral: they are regenerated on every
// expansion and never stored.
type Occurrence struct {
	// ID is deterministic in (ScheduleID, Start), so repeated expansions of
	// the same schedule yield identical identifiers and a persisted
	// exception event can be matched against its virtual counterpart.
	ID         string
	ScheduleID string
	Path       string
	Start      time.Time
	End        time.Time
	TimeZone   string
	// Virtual is true for recurrence-derived instances, false for
	// occurrences backed by a persisted event.
	Virtual bool
}

// OccurrenceID synthesizes the identifier for the instance of scheduleID
// starting at start.
func OccurrenceID(scheduleID string, start time.Time) string {
	return scheduleID + "_" + start.UTC().Format(time.RFC3339)
}

// MatchOccurrence is the inverse of OccurrenceID. It reports the schedule
// and instance start encoded in id, or ok=false if id is not an occurrence
// identifier.
func MatchOccurrence(id string) (scheduleID string, start time.Time, ok bool) {
	// Schedule IDs may themselves contain underscores; the stamp never does.
	idx := strings.LastIndex(id, "_")
	if idx < 0 {
		return "", time.Time{}, false
	}
	start, err := time.Parse(time.RFC3339, id[idx+1:])
	if err != nil {
		return "", time.Time{}, false
	}
	return id[:idx], start, true
}
