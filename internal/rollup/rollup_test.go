package rollup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/rollup"
	"beaconly/internal/testsupport"
	"beaconly/internal/timerange"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIncrement(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	d := day(2024, 3, 1)

	t.Run("first increment creates the row", func(t *testing.T) {
		require.NoError(t, rollup.Increment(db, rollup.MetricPageViews, d))

		var row rollup.DailyStat
		require.NoError(t, db.First(&row, "date = ?", d).Error)
		assert.Equal(t, int64(1), row.PageViews)
		assert.Equal(t, int64(0), row.Sessions)
	})

	t.Run("later increments bump in place", func(t *testing.T) {
		require.NoError(t, rollup.Increment(db, rollup.MetricPageViews, d))
		require.NoError(t, rollup.Increment(db, rollup.MetricClicks, d))

		var count int64
		require.NoError(t, db.Model(&rollup.DailyStat{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		var row rollup.DailyStat
		require.NoError(t, db.First(&row, "date = ?", d).Error)
		assert.Equal(t, int64(2), row.PageViews)
		assert.Equal(t, int64(1), row.Clicks)
	})

	t.Run("different days get different rows", func(t *testing.T) {
		require.NoError(t, rollup.Increment(db, rollup.MetricPageViews, day(2024, 3, 2)))

		var count int64
		require.NoError(t, db.Model(&rollup.DailyStat{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestSumRange(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, rollup.Increment(db, rollup.MetricSessions, day(2024, 3, 1)))
	}
	require.NoError(t, rollup.Increment(db, rollup.MetricSessions, day(2024, 3, 3)))
	require.NoError(t, rollup.Increment(db, rollup.MetricSessions, day(2024, 3, 10)))
	require.NoError(t, rollup.Increment(db, rollup.MetricGoals, day(2024, 3, 1)))

	t.Run("nil range sums everything", func(t *testing.T) {
		total, err := rollup.SumRange(db, rollup.MetricSessions, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		rng := &timerange.Range{GTE: day(2024, 3, 1), LTE: day(2024, 3, 3)}
		total, err := rollup.SumRange(db, rollup.MetricSessions, rng)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})

	t.Run("intraday upper bound still covers its whole day", func(t *testing.T) {
		rng := &timerange.Range{
			GTE: day(2024, 3, 1),
			LTE: time.Date(2024, 3, 3, 0, 0, 1, 0, time.UTC),
		}
		total, err := rollup.SumRange(db, rollup.MetricSessions, rng)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})

	t.Run("metrics do not bleed into each other", func(t *testing.T) {
		total, err := rollup.SumRange(db, rollup.MetricGoals, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("empty range sums to zero", func(t *testing.T) {
		rng := &timerange.Range{GTE: day(2020, 1, 1), LTE: day(2020, 1, 31)}
		total, err := rollup.SumRange(db, rollup.MetricSessions, rng)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestRowsInRange(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	require.NoError(t, rollup.Increment(db, rollup.MetricPings, day(2024, 3, 5)))
	require.NoError(t, rollup.Increment(db, rollup.MetricPings, day(2024, 3, 1)))
	require.NoError(t, rollup.Increment(db, rollup.MetricPings, day(2024, 3, 9)))

	t.Run("ordered by date ascending", func(t *testing.T) {
		rows, err := rollup.RowsInRange(db, nil)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, day(2024, 3, 1), rows[0].Date.UTC())
		assert.Equal(t, day(2024, 3, 5), rows[1].Date.UTC())
		assert.Equal(t, day(2024, 3, 9), rows[2].Date.UTC())
	})

	t.Run("range filters rows", func(t *testing.T) {
		rng := &timerange.Range{GTE: day(2024, 3, 2), LTE: day(2024, 3, 9)}
		rows, err := rollup.RowsInRange(db, rng)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, day(2024, 3, 5), rows[0].Date.UTC())
	})
}

func TestParseMetric(t *testing.T) {
	t.Run("accepts the five counters", func(t *testing.T) {
		for _, name := range []string{"sessions", "pageViews", "pings", "clicks", "goals"} {
			m, err := rollup.ParseMetric(name)
			require.NoError(t, err)
			assert.Equal(t, rollup.Metric(name), m)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := rollup.ParseMetric("page_views")
		assert.Error(t, err)
		_, err = rollup.ParseMetric("")
		assert.Error(t, err)
	})
}
