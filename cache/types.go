package cache

import (
	"fmt"
	"time"
)

// Error types
type ErrorType string

const (
	ErrMissingID    ErrorType = "missing_identifier"
	ErrInvalidInput ErrorType = "invalid_input"
)

// Error represents a cache or gap-resolution error
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

// Prototypes for errors.Is checks.
var (
	ErrMissingIdentifier = &Error{Type: ErrMissingID}
	ErrBadInput          = &Error{Type: ErrInvalidInput}
)

// Entry is anything the day cache can hold: a stable identifier plus the
// absolute interval it occupies.
type Entry interface {
	EntryID() string
	Span() (start, end time.Time)
}

// Range is a half-open [Start, End) block of local days, aligned to local
// midnights by the functions producing it.
type Range struct {
	Start time.Time
	End   time.Time
}

// TickSet is a set of day ticks (local-midnight instants, keyed by unix
// seconds).
type TickSet map[int64]struct{}

// NewTickSet builds a set from the given midnight instants.
func NewTickSet(ticks ...time.Time) TickSet {
	s := make(TickSet, len(ticks))
	for _, t := range ticks {
		s.Add(t)
	}
	return s
}

func (s TickSet) Add(t time.Time)      { s[t.Unix()] = struct{}{} }
func (s TickSet) Has(t time.Time) bool { _, ok := s[t.Unix()]; return ok }

// Clone returns an independent copy.
func (s TickSet) Clone() TickSet {
	out := make(TickSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
