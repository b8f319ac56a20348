package calendar

import (
	"fmt"
)

// Error types
type ErrorType string

const (
	ErrInvalidComponent ErrorType = "invalid_date_component"
)

// Error represents a date arithmetic error
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

// Is reports whether target is a *Error with the same Type, so callers can
// match on a prototype value via errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// ErrInvalidDateComponent is a prototype for errors.Is checks.
var ErrInvalidDateComponent = &Error{Type: ErrInvalidComponent}

func invalidComponent(format string, args ...any) *Error {
	return &Error{Type: ErrInvalidComponent, Message: fmt.Sprintf(format, args...)}
}

// Units is a bundle of calendar-unit deltas. Zero fields are no-ops when
// applied with Add.
type Units struct {
	Years   int
	Months  int
	Days    int
	Hours   int
	Minutes int
}

// IsZero reports whether every field is zero.
func (u Units) IsZero() bool {
	return u == Units{}
}
