package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveFetchGaps_MergedHole(t *testing.T) {
	// Days 1-5 and 8-10 cached, days 6-7 missing. The hole comes back as one
	// range covering exactly days 6-7; cached regions are not re-fetched.
	cached := NewTickSet(day(1), day(2), day(3), day(4), day(5), day(8), day(9), day(10))

	gaps, err := ResolveFetchGaps(day(1), day(11), cached, 2, 45, time.UTC)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.True(t, gaps[0].Start.Equal(day(6)))
	assert.True(t, gaps[0].End.Equal(day(8)))
}

func TestResolveFetchGaps_MergeAcrossCachedIsland(t *testing.T) {
	// Two holes separated by a two-day cached island.
	cached := NewTickSet(day(4), day(5))

	gaps, err := ResolveFetchGaps(day(1), day(9), cached, 2, 45, time.UTC)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.True(t, gaps[0].Start.Equal(day(1)))
	assert.True(t, gaps[0].End.Equal(day(9)))

	// A tighter tolerance keeps them separate.
	gaps, err = ResolveFetchGaps(day(1), day(9), cached, 1, 45, time.UTC)
	require.NoError(t, err)
	require.Len(t, gaps, 2)
	assert.True(t, gaps[0].End.Equal(day(4)))
	assert.True(t, gaps[1].Start.Equal(day(6)))
}

func TestResolveFetchGaps_ChunkBound(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 100)

	gaps, err := ResolveFetchGaps(start, end, NewTickSet(), 2, 30, time.UTC)
	require.NoError(t, err)
	require.Len(t, gaps, 4)

	total := 0
	for i, g := range gaps {
		days := int(g.End.Sub(g.Start) / (24 * time.Hour))
		assert.LessOrEqual(t, days, 30)
		total += days
		if i > 0 {
			assert.False(t, g.Start.Before(gaps[i-1].End), "ranges overlap or are unsorted")
		}
	}
	assert.Equal(t, 100, total)
}

func TestResolveFetchGaps_CoverageInvariant(t *testing.T) {
	cached := NewTickSet(day(2), day(9), day(15), day(16), day(17))
	start, end := day(1), day(25)

	gaps, err := ResolveFetchGaps(start, end, cached, 1, 7, time.UTC)
	require.NoError(t, err)
	require.NotEmpty(t, gaps)

	for _, g := range gaps {
		for cur := g.Start; cur.Before(g.End); cur = cur.AddDate(0, 0, 1) {
			cached.Add(cur)
		}
	}

	again, err := ResolveFetchGaps(start, end, cached, 1, 7, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestResolveFetchGaps_FullyCachedAndEmptyWindows(t *testing.T) {
	cached := NewTickSet(day(1), day(2), day(3))

	gaps, err := ResolveFetchGaps(day(1), day(4), cached, 2, 45, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, gaps)

	gaps, err = ResolveFetchGaps(day(4), day(4), cached, 2, 45, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestResolveFetchGaps_WindowAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-03-08 .. 2024-03-12 in New York spans the spring-forward day.
	start := time.Date(2024, 3, 8, 0, 0, 0, 0, ny)
	end := time.Date(2024, 3, 12, 0, 0, 0, 0, ny)

	gaps, err := ResolveFetchGaps(start, end, NewTickSet(), 0, 45, ny)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.True(t, gaps[0].Start.Equal(start))
	assert.True(t, gaps[0].End.Equal(end))
}

func TestResolveFetchGaps_BadTolerances(t *testing.T) {
	_, err := ResolveFetchGaps(day(1), day(5), NewTickSet(), 2, 0, time.UTC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadInput))

	_, err = ResolveFetchGaps(day(1), day(5), NewTickSet(), -1, 10, time.UTC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadInput))
}
