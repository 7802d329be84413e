// Package timerange resolves user-supplied period selectors into concrete
// datetime intervals used by the rollup and report queries.
package timerange

import (
	"errors"
	"fmt"
	"time"
)

// Period represents the available named time range options
type Period string

const (
	PeriodDay    Period = "day"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"

	// PeriodAll is the label echoed back when no period was given.
	PeriodAll Period = "all"
)

// ErrInvalidRange is returned for a missing or inconsistent custom range.
// The HTTP layer maps it to a 400.
var ErrInvalidRange = errors.New("invalid range")

// timestampLayouts are the accepted input formats, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Query carries the raw range selector from the request.
type Query struct {
	Period Period
	From   string
	To     string
}

// Range is a closed [GTE, LTE] interval.
type Range struct {
	GTE time.Time
	LTE time.Time
}

// TimeProvider abstracts the clock so resolution is testable.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider uses the system clock in UTC.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// Resolver turns range queries into concrete intervals.
type Resolver struct {
	timeProvider TimeProvider
}

func NewResolver(timeProvider ...TimeProvider) *Resolver {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}
	return &Resolver{timeProvider: provider}
}

// Resolve returns the concrete interval for a query, or nil for "all time".
// "Now" is captured exactly once so the multiple metric reads of a single
// request see a consistent upper bound.
func (r *Resolver) Resolve(q Query) (*Range, error) {
	if q.Period == "" {
		return nil, nil
	}

	now := r.timeProvider.Now()

	switch q.Period {
	case PeriodDay:
		return &Range{GTE: now.AddDate(0, 0, -1), LTE: now}, nil
	case PeriodWeek:
		return &Range{GTE: now.AddDate(0, 0, -7), LTE: now}, nil
	case PeriodMonth:
		// Calendar-aware subtraction, not a fixed 30-day duration.
		return &Range{GTE: now.AddDate(0, -1, 0), LTE: now}, nil
	case PeriodYear:
		return &Range{GTE: now.AddDate(-1, 0, 0), LTE: now}, nil
	case PeriodCustom:
		return resolveCustom(q, now)
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidRange, q.Period)
	}
}

func resolveCustom(q Query, now time.Time) (*Range, error) {
	from, ok := ParseTimestamp(q.From)
	if !ok {
		return nil, fmt.Errorf("%w: custom period requires a valid 'from' date", ErrInvalidRange)
	}

	to, ok := ParseTimestamp(q.To)
	if !ok {
		to = now
	} else if to.Equal(DayFloor(to)) {
		// A date-only upper bound covers its whole day, so raw-table
		// queries see the same rows the day-floored rollup reads do.
		to = DayFloor(to).AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	if from.After(to) {
		return nil, fmt.Errorf("%w: 'from' is after 'to'", ErrInvalidRange)
	}

	return &Range{GTE: from, LTE: to}, nil
}

// ParseTimestamp parses a client-supplied timestamp string. Invalid values
// report ok=false rather than an error so callers can apply their own
// defaulting policy.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// OrEpoch substitutes the [epoch, now] sentinel interval for an unbounded
// range. Raw-table breakdown queries always run with explicit bounds.
func OrEpoch(rng *Range, now time.Time) Range {
	if rng != nil {
		return *rng
	}
	return Range{GTE: time.Unix(0, 0).UTC(), LTE: now}
}

// DayFloor truncates a timestamp to its UTC calendar date.
func DayFloor(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// DayBounds floors both ends of an interval to UTC calendar dates for
// indexing into day-granularity rollups. The LTE bound is floored, not
// ceilinged: an upper bound of today at any time still includes all of
// today's rollup row.
func (r Range) DayBounds() (time.Time, time.Time) {
	return DayFloor(r.GTE), DayFloor(r.LTE)
}

// Label returns the period label to echo back in report envelopes.
func (q Query) Label() Period {
	if q.Period == "" {
		return PeriodAll
	}
	return q.Period
}
