// Package agenda glues the recurrence engine and the day cache together into
// the occurrence stream a calendar view renders. It owns no I/O: fetch
// results are handed in by the caller, guarded by a request generation
// counter so a stale fetch completing after the user has moved on never
// mutates shared state.
package agenda

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cyp0633/libagenda/cache"
	"github.com/cyp0633/libagenda/schedule"
)

// View coordinates gap planning, cache commits and occurrence merging for
// one displayed calendar, in one zone.
type View struct {
	logger *slog.Logger
	cache  *cache.DayCache
	engine *schedule.Engine
	loc    *time.Location
	gen    atomic.Uint64
}

// NewView creates a view over the given cache and engine. A nil logger
// disables diagnostics.
func NewView(c *cache.DayCache, e *schedule.Engine, loc *time.Location, logger *slog.Logger) (*View, error) {
	if c == nil || e == nil {
		return nil, fmt.Errorf("cache and engine are required")
	}
	if loc == nil {
		return nil, fmt.Errorf("location is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &View{logger: logger, cache: c, engine: e, loc: loc}, nil
}

// Generation returns the current request generation.
func (v *View) Generation() uint64 {
	return v.gen.Load()
}

// Advance supersedes all in-flight work and returns the new generation.
// Callers stamp each batch of fetches with the generation current when the
// request was issued.
func (v *View) Advance() uint64 {
	return v.gen.Add(1)
}

// Plan returns the ranges of [windowStart, windowEnd) that must be fetched
// before the window can be rendered from cache.
func (v *View) Plan(kind string, windowStart, windowEnd time.Time) ([]cache.Range, error) {
	return v.cache.MissingRanges(kind, windowStart, windowEnd)
}

// Commit applies a completed fetch to the cache: every entry is inserted and
// every fetched range recorded as covered. If gen is no longer the current
// generation the whole batch is discarded untouched and Commit reports
// false. The check-then-apply sequence is the serialization point the cache
// itself does not provide.
func (v *View) Commit(gen uint64, kind string, fetched []cache.Entry, ranges []cache.Range) (bool, error) {
	if gen != v.gen.Load() {
		v.logger.Debug("discarding stale fetch result",
			"kind", kind,
			"fetch_generation", gen,
			"current_generation", v.gen.Load())
		return false, nil
	}
	for _, e := range fetched {
		if err := v.cache.Put(kind, e); err != nil {
			return false, fmt.Errorf("committing fetch result: %w", err)
		}
	}
	for _, r := range ranges {
		v.cache.MarkFetched(kind, r)
	}
	return true, nil
}

// Occurrences merges the cached persisted events intersecting [windowStart,
// windowEnd) with the virtual instances of the given schedules. A virtual
// instance is suppressed when a persisted event overrides it, either through
// an explicit override reference or by carrying the occurrence identifier as
// its own id. The result is sorted by start, then id.
func (v *View) Occurrences(schedules []schedule.Schedule, windowStart, windowEnd time.Time) ([]schedule.Occurrence, error) {
	entries, err := v.cache.QueryRange(KindEvent, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("querying cached events: %w", err)
	}

	suppressed := make(map[string]struct{})
	var merged []schedule.Occurrence
	for _, entry := range entries {
		ev, ok := entry.(Event)
		if !ok {
			v.logger.Warn("unexpected entry type in event cache", "id", entry.EntryID())
			continue
		}
		if ev.Overrides != "" {
			suppressed[ev.Overrides] = struct{}{}
		}
		occ := schedule.Occurrence{
			ID:       ev.ID,
			Path:     ev.Path,
			Start:    ev.Start,
			End:      ev.End,
			TimeZone: v.loc.String(),
		}
		if schedID, _, ok := schedule.MatchOccurrence(ev.ID); ok {
			// A materialized instance keeps its synthesized id; it both
			// links back to its schedule and suppresses the virtual copy.
			suppressed[ev.ID] = struct{}{}
			occ.ScheduleID = schedID
		}
		// Day bucketing can return events outside the requested window;
		// keep any event whose span overlaps it, even partially.
		if ev.End.After(windowStart) && ev.Start.Before(windowEnd) {
			merged = append(merged, occ)
		}
	}

	for _, s := range schedules {
		occs, err := v.engine.Expand(s, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("expanding schedule %s: %w", s.ID, err)
		}
		for _, occ := range occs {
			if _, gone := suppressed[occ.ID]; gone {
				continue
			}
			merged = append(merged, occ)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Start.Equal(merged[j].Start) {
			return merged[i].Start.Before(merged[j].Start)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged, nil
}
