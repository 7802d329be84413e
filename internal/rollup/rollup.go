// Package rollup maintains the per-calendar-day pre-aggregated counters that
// back the cheap range-summed count queries.
package rollup

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"beaconly/internal/timerange"
)

// Metric identifies one of the five rollup counters. The set is closed:
// Column() rejects anything else before a name reaches SQL.
type Metric string

const (
	MetricSessions  Metric = "sessions"
	MetricPageViews Metric = "pageViews"
	MetricPings     Metric = "pings"
	MetricClicks    Metric = "clicks"
	MetricGoals     Metric = "goals"
)

// Metrics lists all counters in their canonical order.
var Metrics = []Metric{MetricSessions, MetricPageViews, MetricPings, MetricClicks, MetricGoals}

// columns maps each metric to its daily_stats column.
var columns = map[Metric]string{
	MetricSessions:  "sessions",
	MetricPageViews: "page_views",
	MetricPings:     "pings",
	MetricClicks:    "clicks",
	MetricGoals:     "goals",
}

// ParseMetric validates a caller-supplied metric name.
func ParseMetric(name string) (Metric, error) {
	m := Metric(name)
	if _, ok := columns[m]; !ok {
		return "", fmt.Errorf("unknown metric: %s", name)
	}
	return m, nil
}

// Column returns the daily_stats column for the metric.
func (m Metric) Column() (string, error) {
	col, ok := columns[m]
	if !ok {
		return "", fmt.Errorf("unknown metric: %s", m)
	}
	return col, nil
}

// DailyStat is a derived cache of raw event data, keyed by UTC calendar
// date. It is created lazily on the first event of a day and updated by
// atomic increments afterwards; the reader trusts it for performance but it
// is never authoritative over raw counts.
type DailyStat struct {
	Date      time.Time `gorm:"primaryKey;type:datetime"`
	Sessions  int64     `gorm:"not null;default:0"`
	PageViews int64     `gorm:"not null;default:0"`
	Pings     int64     `gorm:"not null;default:0"`
	Clicks    int64     `gorm:"not null;default:0"`
	Goals     int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Increment atomically creates the day's row with the metric set to 1, or
// bumps that metric by exactly 1 when the row exists. The upsert is a single
// statement so concurrent increments to the same day cannot lose updates.
func Increment(tx *gorm.DB, metric Metric, day time.Time) error {
	col, err := metric.Column()
	if err != nil {
		return err
	}

	init := map[Metric]int{metric: 1}
	now := time.Now().UTC()
	query := fmt.Sprintf(`
		INSERT INTO daily_stats (date, sessions, page_views, pings, clicks, goals, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			%s = daily_stats.%s + 1,
			updated_at = ?
	`, col, col)

	return tx.Exec(query,
		day,
		init[MetricSessions], init[MetricPageViews], init[MetricPings], init[MetricClicks], init[MetricGoals],
		now, now, now,
	).Error
}

// SumRange returns the sum of the metric's counter over rollup rows whose
// date falls in the interval, or over all rows when rng is nil. Both bounds
// are floored to UTC calendar dates before matching.
func SumRange(db *gorm.DB, metric Metric, rng *timerange.Range) (int64, error) {
	col, err := metric.Column()
	if err != nil {
		return 0, err
	}

	var result struct {
		Total int64
	}

	query := db.Table("daily_stats").Select(fmt.Sprintf("COALESCE(SUM(%s), 0) AS total", col))
	if rng != nil {
		from, to := rng.DayBounds()
		query = query.Where("date >= ? AND date <= ?", from, to)
	}

	if err := query.Scan(&result).Error; err != nil {
		return 0, fmt.Errorf("error summing %s rollup: %w", metric, err)
	}
	return result.Total, nil
}

// RowsInRange returns the rollup rows in the (day-floored) interval ordered
// by date ascending, or all rows when rng is nil.
func RowsInRange(db *gorm.DB, rng *timerange.Range) ([]DailyStat, error) {
	var rows []DailyStat

	query := db.Model(&DailyStat{}).Order("date ASC")
	if rng != nil {
		from, to := rng.DayBounds()
		query = query.Where("date >= ? AND date <= ?", from, to)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching rollup rows: %w", err)
	}
	return rows, nil
}
