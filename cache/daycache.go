// Package cache provides a day-bucketed object cache and the gap resolution
// used to avoid re-fetching already-covered days. Objects are bucketed by
// every local calendar day their interval touches, so a window query is a
// union over day buckets rather than a scan of all entries.
//
// The cache is deliberately not locked internally. Per the caller's
// generation discipline, all mutations for one request generation are applied
// together after checking the generation is still current; see the agenda
// package.
package cache

import (
	"sort"
	"time"

	"github.com/cyp0633/libagenda/calendar"
)

// DayCache maps local calendar days to the entries touching them, segregated
// by kind (e.g. "event", "checklist").
type DayCache struct {
	loc   *time.Location
	cfg   Config
	kinds map[string]*kindCache
}

type kindCache struct {
	byID    map[string]Entry
	buckets map[int64]map[string]struct{}
	// ticksByID remembers each entry's bucket footprint so an update with
	// different day coverage can drop the buckets it no longer touches.
	ticksByID map[string][]int64
	fetched   TickSet
}

// New creates a day cache bucketing in the given zone.
func New(loc *time.Location, cfg Config) (*DayCache, error) {
	if loc == nil {
		return nil, &Error{Type: ErrInvalidInput, Message: "nil location"}
	}
	return &DayCache{loc: loc, cfg: cfg, kinds: make(map[string]*kindCache)}, nil
}

func (c *DayCache) kind(kind string) *kindCache {
	k, ok := c.kinds[kind]
	if !ok {
		k = &kindCache{
			byID:      make(map[string]Entry),
			buckets:   make(map[int64]map[string]struct{}),
			ticksByID: make(map[string][]int64),
			fetched:   make(TickSet),
		}
		c.kinds[kind] = k
	}
	return k
}

// Put inserts or updates e in the kind cache, bucketing it under every local
// day touched by its span, endpoints inclusive: an entry crossing midnight
// belongs to both days.
func (c *DayCache) Put(kind string, e Entry) error {
	if e == nil || e.EntryID() == "" {
		return &Error{Type: ErrMissingID, Message: "entry has no identifier"}
	}
	start, end := e.Span()
	ticks, err := calendar.DayTicks(start, end, c.loc, true)
	if err != nil {
		return &Error{Type: ErrInvalidInput, Message: "bad entry span", Err: err}
	}
	if len(ticks) == 0 {
		// Reversed span: admitting it would leave an entry no bucket
		// references.
		return &Error{Type: ErrInvalidInput, Message: "entry span ends before it starts"}
	}

	k := c.kind(kind)
	id := e.EntryID()
	k.removeFromBuckets(id)

	keys := make([]int64, 0, len(ticks))
	for _, tick := range ticks {
		key := tick.Unix()
		keys = append(keys, key)
		ids, ok := k.buckets[key]
		if !ok {
			ids = make(map[string]struct{})
			k.buckets[key] = ids
		}
		ids[id] = struct{}{}
	}
	k.byID[id] = e
	k.ticksByID[id] = keys
	return nil
}

// Evict removes the entry from every bucket referencing it and from the id
// map. Absent ids are a no-op.
func (c *DayCache) Evict(kind, id string) {
	k, ok := c.kinds[kind]
	if !ok {
		return
	}
	k.removeFromBuckets(id)
	delete(k.byID, id)
}

func (k *kindCache) removeFromBuckets(id string) {
	for _, key := range k.ticksByID[id] {
		if ids, ok := k.buckets[key]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(k.buckets, key)
			}
		}
	}
	delete(k.ticksByID, id)
}

// QueryRange returns every entry of kind referenced by a day bucket in
// [windowStart, windowEnd), ordered by id.
func (c *DayCache) QueryRange(kind string, windowStart, windowEnd time.Time) ([]Entry, error) {
	k, ok := c.kinds[kind]
	if !ok {
		return nil, nil
	}
	first, err := calendar.Midnight(windowStart, c.loc)
	if err != nil {
		return nil, &Error{Type: ErrInvalidInput, Message: "bad window start", Err: err}
	}

	seen := make(map[string]struct{})
	var out []Entry
	for cur := first; cur.Before(windowEnd); cur = cur.AddDate(0, 0, 1) {
		for id := range k.buckets[cur.Unix()] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, k.byID[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID() < out[j].EntryID() })
	return out, nil
}

// EvictOutsideWindow removes every entry of kind whose day footprint does not
// intersect keep, and forgets fetched coverage for days outside keep so
// evicted days are re-fetched rather than reported as cached.
func (c *DayCache) EvictOutsideWindow(kind string, keep TickSet) {
	k, ok := c.kinds[kind]
	if !ok {
		return
	}
	var doomed []string
	for id, keys := range k.ticksByID {
		retained := false
		for _, key := range keys {
			if _, ok := keep[key]; ok {
				retained = true
				break
			}
		}
		if !retained {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		k.removeFromBuckets(id)
		delete(k.byID, id)
	}
	for key := range k.fetched {
		if _, ok := keep[key]; !ok {
			delete(k.fetched, key)
		}
	}
}

// MarkFetched records every day of r as fully fetched for kind.
func (c *DayCache) MarkFetched(kind string, r Range) {
	k := c.kind(kind)
	for cur := r.Start; cur.Before(r.End); cur = cur.AddDate(0, 0, 1) {
		k.fetched.Add(cur)
	}
}

// Covered returns the fetched-day record for kind. The returned set is live;
// callers that need a snapshot should Clone it.
func (c *DayCache) Covered(kind string) TickSet {
	return c.kind(kind).fetched
}

// MissingRanges resolves the fetch gaps of [windowStart, windowEnd) for kind
// using the cache's configured tolerances.
func (c *DayCache) MissingRanges(kind string, windowStart, windowEnd time.Time) ([]Range, error) {
	return ResolveFetchGaps(windowStart, windowEnd, c.Covered(kind), c.cfg.MergeTolerance, c.cfg.ChunkTolerance, c.loc)
}

// Len reports the number of entries currently retained for kind.
func (c *DayCache) Len(kind string) int {
	k, ok := c.kinds[kind]
	if !ok {
		return 0
	}
	return len(k.byID)
}

// OverBudget reports whether kind has outgrown the configured retention
// budget and should be pruned with EvictOutsideWindow.
func (c *DayCache) OverBudget(kind string) bool {
	return c.cfg.MaxEntriesPerKind > 0 && c.Len(kind) > c.cfg.MaxEntriesPerKind
}
