package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/libagenda/cache"
	"github.com/cyp0633/libagenda/schedule"
)

func newTestView(t *testing.T) *View {
	t.Helper()
	c, err := cache.New(time.UTC, cache.Config{MergeTolerance: 1, ChunkTolerance: 31, MaxEntriesPerKind: 100})
	require.NoError(t, err)
	v, err := NewView(c, schedule.NewEngine(nil), time.UTC, nil)
	require.NoError(t, err)
	return v
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestView_PlanCommitCycle(t *testing.T) {
	v := newTestView(t)
	gen := v.Advance()

	gaps, err := v.Plan(KindEvent, day(1), day(8))
	require.NoError(t, err)
	require.Len(t, gaps, 1)

	fetched := []cache.Entry{
		Event{ID: "ev1", Path: "home", Start: day(3).Add(9 * time.Hour), End: day(3).Add(10 * time.Hour)},
	}
	committed, err := v.Commit(gen, KindEvent, fetched, gaps)
	require.NoError(t, err)
	assert.True(t, committed)

	// The window is now fully covered.
	gaps, err = v.Plan(KindEvent, day(1), day(8))
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestView_StaleCommitIsDiscarded(t *testing.T) {
	v := newTestView(t)
	stale := v.Advance()

	gaps, err := v.Plan(KindEvent, day(1), day(8))
	require.NoError(t, err)

	// A newer request supersedes the in-flight fetch.
	v.Advance()

	fetched := []cache.Entry{
		Event{ID: "ev1", Start: day(3).Add(9 * time.Hour), End: day(3).Add(10 * time.Hour)},
	}
	committed, err := v.Commit(stale, KindEvent, fetched, gaps)
	require.NoError(t, err)
	assert.False(t, committed)

	// Nothing was mutated: the same gaps come back and no entry is cached.
	again, err := v.Plan(KindEvent, day(1), day(8))
	require.NoError(t, err)
	assert.Equal(t, gaps, again)

	occs, err := v.Occurrences(nil, day(1), day(8))
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestView_OccurrencesMergeAndSuppression(t *testing.T) {
	v := newTestView(t)
	gen := v.Advance()

	s := schedule.Schedule{
		ID:       "standup",
		Path:     "work",
		Period:   schedule.PeriodDaily,
		Interval: 1,
		Start:    day(1).Add(9 * time.Hour),
		End:      day(1).Add(9*time.Hour + 30*time.Minute),
		TimeZone: "UTC",
	}

	// June 3's instance was edited into a real event (moved to 14:00); it
	// keeps the synthesized occurrence id.
	exception := Event{
		ID:    schedule.OccurrenceID("standup", day(3).Add(9*time.Hour)),
		Path:  "work",
		Start: day(3).Add(14 * time.Hour),
		End:   day(3).Add(15 * time.Hour),
	}
	ordinary := Event{
		ID:    "dentist-123",
		Path:  "home",
		Start: day(2).Add(11 * time.Hour),
		End:   day(2).Add(12 * time.Hour),
	}
	committed, err := v.Commit(gen, KindEvent, []cache.Entry{exception, ordinary},
		[]cache.Range{{Start: day(1), End: day(6)}})
	require.NoError(t, err)
	require.True(t, committed)

	occs, err := v.Occurrences([]schedule.Schedule{s}, day(1), day(6))
	require.NoError(t, err)

	// 5 virtual instances, minus the suppressed June 3 one, plus two
	// persisted events.
	require.Len(t, occs, 6)

	var virtualStarts []int
	for _, occ := range occs {
		if occ.Virtual {
			virtualStarts = append(virtualStarts, occ.Start.Day())
		}
	}
	assert.Equal(t, []int{1, 2, 4, 5}, virtualStarts)

	// The materialized instance links back to its schedule.
	for _, occ := range occs {
		if occ.ID == exception.ID {
			assert.Equal(t, "standup", occ.ScheduleID)
			assert.False(t, occ.Virtual)
			assert.Equal(t, 14, occ.Start.Hour())
		}
	}

	// Sorted by start.
	for i := 1; i < len(occs); i++ {
		assert.False(t, occs[i].Start.Before(occs[i-1].Start))
	}
}

func TestView_ExplicitOverrideReference(t *testing.T) {
	v := newTestView(t)
	gen := v.Advance()

	s := schedule.Schedule{
		ID:       "yoga",
		Period:   schedule.PeriodWeekly,
		Interval: 1,
		Start:    day(3).Add(18 * time.Hour), // a Monday
		End:      day(3).Add(19 * time.Hour),
		TimeZone: "UTC",
	}

	// Cancellation record: overrides the June 10 instance without reusing
	// its id.
	cancel := Event{
		ID:        "cancel-42",
		Overrides: schedule.OccurrenceID("yoga", day(10).Add(18*time.Hour)),
		Start:     day(10).Add(18 * time.Hour),
		End:       day(10).Add(18 * time.Hour),
	}
	committed, err := v.Commit(gen, KindEvent, []cache.Entry{cancel},
		[]cache.Range{{Start: day(1), End: day(15)}})
	require.NoError(t, err)
	require.True(t, committed)

	occs, err := v.Occurrences([]schedule.Schedule{s}, day(1), day(15))
	require.NoError(t, err)

	days := make(map[int]bool)
	for _, occ := range occs {
		if occ.Virtual {
			days[occ.Start.Day()] = true
		}
	}
	assert.True(t, days[3])
	assert.False(t, days[10], "overridden instance still present")
}

func TestChecklistKindIsSeparate(t *testing.T) {
	v := newTestView(t)
	gen := v.Advance()

	items := []cache.Entry{
		Item{ID: "milk", Path: "home/groceries", Label: "buy milk", Stamp: day(2).Add(8 * time.Hour)},
		Item{ID: "taxes", Path: "home", Label: "file taxes", Done: true, Stamp: day(9).Add(8 * time.Hour)},
	}
	committed, err := v.Commit(gen, KindChecklist, items, []cache.Range{{Start: day(1), End: day(15)}})
	require.NoError(t, err)
	require.True(t, committed)

	// Checklist coverage does not satisfy event planning.
	gaps, err := v.Plan(KindEvent, day(1), day(15))
	require.NoError(t, err)
	assert.NotEmpty(t, gaps)

	gaps, err = v.Plan(KindChecklist, day(1), day(15))
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestView_WindowEdgeSpill(t *testing.T) {
	v := newTestView(t)
	gen := v.Advance()

	// Ends after midnight of June 5, so it is bucketed under June 5 as well,
	// but its span still intersects a [June 5, ...) window.
	spill := Event{
		ID:    "late-party",
		Start: day(4).Add(22 * time.Hour),
		End:   day(5).Add(1 * time.Hour),
	}
	committed, err := v.Commit(gen, KindEvent, []cache.Entry{spill},
		[]cache.Range{{Start: day(4), End: day(6)}})
	require.NoError(t, err)
	require.True(t, committed)

	occs, err := v.Occurrences(nil, day(5), day(6))
	require.NoError(t, err)
	require.Len(t, occs, 1)

	// A window the event does not intersect at all stays empty even though
	// day bucketing is day-granular.
	occs, err = v.Occurrences(nil, day(5).Add(2*time.Hour), day(6))
	require.NoError(t, err)
	assert.Empty(t, occs)
}
