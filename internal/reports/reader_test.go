package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/events"
	"beaconly/internal/reports"
	"beaconly/internal/rollup"
	"beaconly/internal/testsupport"
	"beaconly/internal/timerange"
)

func newReader(t *testing.T) (*reports.Reader, *events.Recorder) {
	t.Helper()
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	return reports.NewReader(db, logger, 8*time.Second), events.NewRecorder(db, logger)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, reports.DefaultLimit, reports.ClampLimit(0))
	assert.Equal(t, 1, reports.ClampLimit(-5))
	assert.Equal(t, 1, reports.ClampLimit(1))
	assert.Equal(t, 42, reports.ClampLimit(42))
	assert.Equal(t, reports.MaxLimit, reports.ClampLimit(100))
	assert.Equal(t, reports.MaxLimit, reports.ClampLimit(5000))
}

func TestOverview(t *testing.T) {
	reader, recorder := newReader(t)

	t.Run("empty store yields zeroes, not division errors", func(t *testing.T) {
		overview, err := reader.Overview(nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), overview.Totals.Sessions)
		assert.Equal(t, float64(0), overview.ClickThroughRate)
		assert.Equal(t, float64(0), overview.GoalsPerSession)
	})

	t.Run("ratios are rounded to four decimals", func(t *testing.T) {
		// one session, one view, one click and one goal on the same day
		require.NoError(t, recorder.TrackPageView(events.Payload{
			"sessionId": "ov-1",
			"path":      "/",
			"timestamp": "2024-03-01T10:00:00Z",
			"duration":  120,
		}))
		require.NoError(t, recorder.TrackPageView(events.Payload{
			"sessionId": "ov-1",
			"path":      "/pricing",
			"timestamp": "2024-03-01T10:01:00Z",
		}))
		require.NoError(t, recorder.TrackPageView(events.Payload{
			"sessionId": "ov-1",
			"path":      "/docs",
			"timestamp": "2024-03-01T10:02:00Z",
		}))
		require.NoError(t, recorder.TrackClick(events.Payload{
			"sessionId": "ov-1",
			"kind":      "link",
			"label":     "Twitter",
			"url":       "https://twitter.com/example",
			"timestamp": "2024-03-01T10:03:00Z",
		}))

		overview, err := reader.Overview(nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), overview.Totals.Sessions)
		assert.Equal(t, int64(3), overview.Totals.PageViews)
		assert.Equal(t, int64(1), overview.Totals.Clicks)
		// 1 click / 3 views
		assert.Equal(t, 0.3333, overview.ClickThroughRate)
		assert.Equal(t, float64(0), overview.GoalsPerSession)
		assert.Equal(t, int64(120), overview.AvgSessionDuration)
		assert.Equal(t, int64(120), overview.MaxSessionDuration)
	})

	t.Run("range excludes other days", func(t *testing.T) {
		rng := &timerange.Range{
			GTE: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			LTE: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		}
		overview, err := reader.Overview(rng)
		require.NoError(t, err)
		assert.Equal(t, int64(0), overview.Totals.PageViews)
	})
}

func TestStatsByRange(t *testing.T) {
	reader, recorder := newReader(t)

	require.NoError(t, recorder.TrackPageView(events.Payload{
		"sessionId": "st-1",
		"timestamp": "2024-03-05T12:00:00Z",
	}))
	require.NoError(t, recorder.TrackGoal(events.Payload{
		"name":      "signup",
		"timestamp": "2024-03-05T12:01:00Z",
	}))

	stats, err := reader.StatsByRange(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Totals.Sessions)
	assert.Equal(t, int64(1), stats.Totals.PageViews)
	assert.Equal(t, int64(1), stats.Totals.Goals)
	assert.Equal(t, int64(0), stats.Totals.Clicks)
	assert.False(t, stats.CollectingSince.IsZero())
}

// Rollup counters are a derived cache of raw event rows. Counts read the
// rollup for performance and never reconcile against the raw tables, so a
// rollup row mutated out of band diverges silently. Known limitation.
func TestCountsTrustRollupOverRawRows(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	reader := reports.NewReader(db, logger, 8*time.Second)
	recorder := events.NewRecorder(db, logger)

	require.NoError(t, recorder.TrackPageView(events.Payload{
		"sessionId": "dv-1",
		"timestamp": "2024-03-01T10:00:00Z",
	}))

	require.NoError(t, db.Exec("UPDATE daily_stats SET page_views = 99").Error)

	metric, err := rollup.ParseMetric("pageViews")
	require.NoError(t, err)
	count, err := reader.Count(nil, metric)
	require.NoError(t, err)
	assert.Equal(t, int64(99), count)

	var raw int64
	require.NoError(t, db.Model(&events.PageView{}).Count(&raw).Error)
	assert.Equal(t, int64(1), raw)
}

func TestTimeseries(t *testing.T) {
	reader, recorder := newReader(t)

	require.NoError(t, recorder.TrackPageView(events.Payload{
		"sessionId": "ts-1",
		"timestamp": "2024-03-01T08:00:00Z",
	}))
	require.NoError(t, recorder.TrackPageView(events.Payload{
		"sessionId": "ts-1",
		"timestamp": "2024-03-03T08:00:00Z",
	}))

	t.Run("one point per day with data", func(t *testing.T) {
		points, err := reader.Timeseries(nil)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, "2024-03-01", points[0].Date)
		assert.Equal(t, int64(1), points[0].PageViews)
		assert.Equal(t, int64(1), points[0].Sessions)
		assert.Equal(t, "2024-03-03", points[1].Date)
		assert.Equal(t, int64(0), points[1].Sessions)
	})

	t.Run("single metric series", func(t *testing.T) {
		metric, err := rollup.ParseMetric("pageViews")
		require.NoError(t, err)
		points, err := reader.TimeseriesForMetric(nil, metric)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, int64(1), points[0].Count)
		assert.Equal(t, int64(1), points[1].Count)
	})
}
