// Package reports answers count, engagement, time-series and dimensional
// breakdown queries over the rollup table and the raw event tables.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"beaconly/internal/rollup"
	"beaconly/internal/timerange"
)

// ErrTimeout marks a read that exceeded its bounded wait. The HTTP layer
// maps it to a 504 instead of the generic 500.
var ErrTimeout = errors.New("query timed out")

const (
	// DefaultLimit applies when the caller did not supply one.
	DefaultLimit = 20
	// MaxLimit caps caller-supplied limits.
	MaxLimit = 100
)

// ClampLimit normalizes a caller-supplied breakdown limit. Zero means
// "absent" and resolves to the default.
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Totals holds the five rollup counters for one interval.
type Totals struct {
	Sessions  int64 `json:"sessions"`
	PageViews int64 `json:"pageViews"`
	Pings     int64 `json:"pings"`
	Clicks    int64 `json:"clicks"`
	Goals     int64 `json:"goals"`
}

// Stats is the summary response of the stats endpoints.
type Stats struct {
	Totals          Totals    `json:"totals"`
	CollectingSince time.Time `json:"collectingSince"`
}

// Overview extends the totals with engagement metrics derived from raw
// session storage.
type Overview struct {
	Totals             Totals  `json:"totals"`
	ClickThroughRate   float64 `json:"clickThroughRate"`
	GoalsPerSession    float64 `json:"goalsPerSession"`
	AvgSessionDuration int64   `json:"avgSessionDuration"`
	MaxSessionDuration int64   `json:"maxSessionDuration"`
}

// Point is one day of the full time series.
type Point struct {
	Date      string `json:"date"`
	Sessions  int64  `json:"sessions"`
	PageViews int64  `json:"pageViews"`
	Pings     int64  `json:"pings"`
	Clicks    int64  `json:"clicks"`
	Goals     int64  `json:"goals"`
}

// MetricPoint is one day of a single-metric time series.
type MetricPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Reader executes all read queries. Every logical query runs under the
// configured timeout; exceeding it surfaces as ErrTimeout rather than
// hanging the caller. The underlying query may still finish in the
// background, only the wait is abandoned.
type Reader struct {
	db        *gorm.DB
	logger    *slog.Logger
	timeout   time.Duration
	startedAt time.Time
}

func NewReader(db *gorm.DB, logger *slog.Logger, timeout time.Duration) *Reader {
	return &Reader{
		db:        db,
		logger:    logger,
		timeout:   timeout,
		startedAt: time.Now().UTC(),
	}
}

// run executes one logical query with the bounded wait applied.
func (r *Reader) run(fn func(db *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := fn(r.db.WithContext(ctx))
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// Count returns one metric's rollup sum over the interval (all time when
// rng is nil).
func (r *Reader) Count(rng *timerange.Range, metric rollup.Metric) (int64, error) {
	var count int64
	err := r.run(func(db *gorm.DB) error {
		var err error
		count, err = rollup.SumRange(db, metric, rng)
		return err
	})
	return count, err
}

// StatsByRange returns the five rollup sums. Each sum is an independent
// read-only query; no transaction is needed.
func (r *Reader) StatsByRange(rng *timerange.Range) (*Stats, error) {
	totals, err := r.totals(rng)
	if err != nil {
		return nil, err
	}
	return &Stats{Totals: *totals, CollectingSince: r.startedAt}, nil
}

func (r *Reader) totals(rng *timerange.Range) (*Totals, error) {
	var totals Totals
	dests := map[rollup.Metric]*int64{
		rollup.MetricSessions:  &totals.Sessions,
		rollup.MetricPageViews: &totals.PageViews,
		rollup.MetricPings:     &totals.Pings,
		rollup.MetricClicks:    &totals.Clicks,
		rollup.MetricGoals:     &totals.Goals,
	}

	for _, metric := range rollup.Metrics {
		count, err := r.Count(rng, metric)
		if err != nil {
			return nil, err
		}
		*dests[metric] = count
	}
	return &totals, nil
}

// Overview returns the five sums plus engagement ratios and session
// duration aggregates. Durations come from raw session rows because a mean
// cannot be rolled up as a simple sum.
func (r *Reader) Overview(rng *timerange.Range) (*Overview, error) {
	totals, err := r.totals(rng)
	if err != nil {
		return nil, err
	}

	durations, err := r.SessionDuration(rng)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Totals:             *totals,
		ClickThroughRate:   ratio(totals.Clicks, totals.PageViews),
		GoalsPerSession:    ratio(totals.Goals, totals.Sessions),
		AvgSessionDuration: durations.AvgSeconds,
		MaxSessionDuration: durations.MaxSeconds,
	}, nil
}

// ratio divides rounded to 4 decimal places, yielding 0 for an empty
// denominator instead of propagating a division by zero.
func ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*10000) / 10000
}

// Timeseries returns all five counters per rollup day in range.
func (r *Reader) Timeseries(rng *timerange.Range) ([]Point, error) {
	rows, err := r.rowsInRange(rng)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(rows))
	for i, row := range rows {
		points[i] = Point{
			Date:      row.Date.UTC().Format("2006-01-02"),
			Sessions:  row.Sessions,
			PageViews: row.PageViews,
			Pings:     row.Pings,
			Clicks:    row.Clicks,
			Goals:     row.Goals,
		}
	}
	return points, nil
}

// TimeseriesForMetric returns a single counter per rollup day in range.
func (r *Reader) TimeseriesForMetric(rng *timerange.Range, metric rollup.Metric) ([]MetricPoint, error) {
	rows, err := r.rowsInRange(rng)
	if err != nil {
		return nil, err
	}

	points := make([]MetricPoint, len(rows))
	for i, row := range rows {
		points[i] = MetricPoint{
			Date:  row.Date.UTC().Format("2006-01-02"),
			Count: metricValue(row, metric),
		}
	}
	return points, nil
}

func (r *Reader) rowsInRange(rng *timerange.Range) ([]rollup.DailyStat, error) {
	var rows []rollup.DailyStat
	err := r.run(func(db *gorm.DB) error {
		var err error
		rows, err = rollup.RowsInRange(db, rng)
		return err
	})
	return rows, err
}

func metricValue(row rollup.DailyStat, metric rollup.Metric) int64 {
	switch metric {
	case rollup.MetricSessions:
		return row.Sessions
	case rollup.MetricPageViews:
		return row.PageViews
	case rollup.MetricPings:
		return row.Pings
	case rollup.MetricClicks:
		return row.Clicks
	case rollup.MetricGoals:
		return row.Goals
	default:
		return 0
	}
}
