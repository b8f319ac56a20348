package agenda

import (
	"time"
)

// Cache kinds used by the view layer.
const (
	KindEvent     = "event"
	KindChecklist = "checklist"
)

// Event is a persisted calendar event as returned by the backend, reduced to
// the fields this core interprets. Arbitrary payload fields stay with the
// caller.
type Event struct {
	ID    string
	Path  string
	Start time.Time
	End   time.Time
	// Overrides carries the occurrence identifier this event replaces when
	// it was materialized out of a recurring schedule's virtual instance.
	// Empty for ordinary events.
	Overrides string
}

func (e Event) EntryID() string              { return e.ID }
func (e Event) Span() (time.Time, time.Time) { return e.Start, e.End }

// Item is a checklist entry pinned to a single instant.
type Item struct {
	ID    string
	Path  string
	Label string
	Done  bool
	Stamp time.Time
}

func (i Item) EntryID() string              { return i.ID }
func (i Item) Span() (time.Time, time.Time) { return i.Stamp, i.Stamp }
