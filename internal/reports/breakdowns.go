package reports

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"beaconly/internal/pkg/useragent"
	"beaconly/internal/timerange"
)

// Dimensional breakdowns group raw click/page-view/session rows, not
// rollups: rollups are single-metric-per-day and cannot answer group-bys.
// Unbounded ranges are replaced with the [epoch, now] sentinel interval so
// every raw query runs with explicit bounds.

// LinkCount is one referral link with its click count. URL stays nullable;
// label falls back to "unknown".
type LinkCount struct {
	Label  string  `json:"label"`
	URL    *string `json:"url"`
	Clicks int64   `json:"clicks"`
}

// ItemCount is one setup interaction item with its count.
type ItemCount struct {
	Item  string `json:"item"`
	Count int64  `json:"count"`
}

// PageCount is one page path with its view count.
type PageCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// DeviceCount is one classified device type with its session count.
type DeviceCount struct {
	Device string `json:"device"`
	Count  int64  `json:"count"`
}

// CityCount is one city with its session count.
type CityCount struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}

// LabelCount is one button label with its click count.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// DayCount is one calendar day with an access count.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DurationSummary aggregates session durations over an interval.
type DurationSummary struct {
	Sessions   int64 `json:"sessions"`
	AvgSeconds int64 `json:"avgSeconds"`
	MaxSeconds int64 `json:"maxSeconds"`
}

// TopLinks groups clicks carrying a metadata url, by label and url.
func (r *Reader) TopLinks(rng *timerange.Range, limit int) ([]LinkCount, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	limit = ClampLimit(limit)

	var results []LinkCount
	query := `
    SELECT
        COALESCE(NULLIF(json_extract(metadata, '$.label'), ''), 'unknown') AS label,
        json_extract(metadata, '$.url') AS url,
        COUNT(*) AS clicks
    FROM clicks
    WHERE timestamp BETWEEN ? AND ?
    AND json_extract(metadata, '$.url') IS NOT NULL
    GROUP BY label, url
    ORDER BY clicks DESC
    LIMIT ?
    `

	err := r.run(func(db *gorm.DB) error {
		return db.Raw(query, bounds.GTE, bounds.LTE, limit).Scan(&results).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching top links: %w", err)
	}
	return results, nil
}

// TopSetupItems groups clicks whose metadata kind is "setup" by item.
func (r *Reader) TopSetupItems(rng *timerange.Range, limit int) ([]ItemCount, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	limit = ClampLimit(limit)

	var results []ItemCount
	query := `
    SELECT
        COALESCE(
            NULLIF(json_extract(metadata, '$.item'), ''),
            NULLIF(json_extract(metadata, '$.label'), ''),
            'unknown'
        ) AS item,
        COUNT(*) AS count
    FROM clicks
    WHERE timestamp BETWEEN ? AND ?
    AND json_extract(metadata, '$.kind') = 'setup'
    GROUP BY item
    ORDER BY count DESC
    LIMIT ?
    `

	err := r.run(func(db *gorm.DB) error {
		return db.Raw(query, bounds.GTE, bounds.LTE, limit).Scan(&results).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching top setup items: %w", err)
	}
	return results, nil
}

// Pages groups page views by path.
func (r *Reader) Pages(rng *timerange.Range, limit int) ([]PageCount, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	limit = ClampLimit(limit)

	var results []PageCount
	query := `
    SELECT
        path,
        COUNT(*) AS views
    FROM page_views
    WHERE timestamp BETWEEN ? AND ?
    GROUP BY path
    ORDER BY views DESC
    LIMIT ?
    `

	err := r.run(func(db *gorm.DB) error {
		return db.Raw(query, bounds.GTE, bounds.LTE, limit).Scan(&results).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching pages: %w", err)
	}
	return results, nil
}

// Devices groups sessions by classified device type. Classification falls
// back from the explicit deviceType field to user-agent heuristics, so it
// happens in Go over the matching session rows rather than in SQL.
func (r *Reader) Devices(rng *timerange.Range, limit int) ([]DeviceCount, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	limit = ClampLimit(limit)

	var rows []struct {
		DeviceType string
		UserAgent  string
	}
	err := r.run(func(db *gorm.DB) error {
		return db.Table("sessions").
			Select("device_type, user_agent").
			Where("start_time BETWEEN ? AND ?", bounds.GTE, bounds.LTE).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching sessions for device breakdown: %w", err)
	}

	counts := map[string]int64{}
	for _, row := range rows {
		counts[useragent.Classify(row.DeviceType, row.UserAgent)]++
	}

	results := make([]DeviceCount, 0, len(counts))
	for device, count := range counts {
		results = append(results, DeviceCount{Device: device, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Device < results[j].Device
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeviceTop returns the most common classified device type, or nil when no
// sessions matched.
func (r *Reader) DeviceTop(rng *timerange.Range) (*DeviceCount, error) {
	devices, err := r.Devices(rng, 1)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}
	return &devices[0], nil
}

// Cities groups sessions by city, with "unknown" for sessions lacking one.
func (r *Reader) Cities(rng *timerange.Range, limit int) ([]CityCount, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	limit = ClampLimit(limit)

	var results []CityCount
	query := `
    SELECT
        COALESCE(NULLIF(city, ''), 'unknown') AS city,
        COUNT(*) AS count
    FROM sessions
    WHERE start_time BETWEEN ? AND ?
    GROUP BY city
    ORDER BY count DESC
    LIMIT ?
    `

	err := r.run(func(db *gorm.DB) error {
		return db.Raw(query, bounds.GTE, bounds.LTE, limit).Scan(&results).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching cities: %w", err)
	}
	return results, nil
}

// ButtonClicks groups clicks whose metadata kind is "button" by label.
func (r *Reader) ButtonClicks(rng *timerange.Range, limit int) ([]LabelCount, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	limit = ClampLimit(limit)

	var results []LabelCount
	query := `
    SELECT
        COALESCE(NULLIF(json_extract(metadata, '$.label'), ''), 'unknown') AS label,
        COUNT(*) AS count
    FROM clicks
    WHERE timestamp BETWEEN ? AND ?
    AND json_extract(metadata, '$.kind') = 'button'
    GROUP BY label
    ORDER BY count DESC
    LIMIT ?
    `

	err := r.run(func(db *gorm.DB) error {
		return db.Raw(query, bounds.GTE, bounds.LTE, limit).Scan(&results).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching button clicks: %w", err)
	}
	return results, nil
}

// BaseAccesses counts page views of one path per calendar day.
func (r *Reader) BaseAccesses(rng *timerange.Range, path string, limit int) ([]DayCount, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	limit = ClampLimit(limit)
	if path == "" {
		path = "/"
	}

	var results []DayCount
	query := `
    SELECT
        strftime('%Y-%m-%d', timestamp) AS date,
        COUNT(*) AS count
    FROM page_views
    WHERE timestamp BETWEEN ? AND ?
    AND path = ?
    GROUP BY date
    ORDER BY count DESC
    LIMIT ?
    `

	err := r.run(func(db *gorm.DB) error {
		return db.Raw(query, bounds.GTE, bounds.LTE, path, limit).Scan(&results).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching base accesses: %w", err)
	}
	return results, nil
}

// SessionDuration aggregates duration over sessions started in the
// interval. SQLite's ROUND rounds halves away from zero.
func (r *Reader) SessionDuration(rng *timerange.Range) (*DurationSummary, error) {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())

	var result DurationSummary
	query := `
    SELECT
        COUNT(*) AS sessions,
        CAST(COALESCE(ROUND(AVG(duration)), 0) AS INTEGER) AS avg_seconds,
        COALESCE(MAX(duration), 0) AS max_seconds
    FROM sessions
    WHERE start_time BETWEEN ? AND ?
    `

	err := r.run(func(db *gorm.DB) error {
		return db.Raw(query, bounds.GTE, bounds.LTE).Scan(&result).Error
	})
	if err != nil {
		return nil, fmt.Errorf("error calculating session durations: %w", err)
	}
	return &result, nil
}
