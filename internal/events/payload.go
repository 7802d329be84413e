package events

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"beaconly/internal/timerange"
)

// Payload is the loosely-typed key/value map sent by untrusted client
// instrumentation. Normalization helpers below turn it into the strongly
// typed event structs before persistence.
type Payload map[string]interface{}

// sessionIDAliases are checked in priority order.
var sessionIDAliases = []string{"sessionId", "session_id", "id"}

// SessionID resolves the session id from its payload aliases.
func (p Payload) SessionID() (string, bool) {
	for _, key := range sessionIDAliases {
		if s := p.String(key); s != "" {
			return s, true
		}
	}
	return "", false
}

// String returns the first non-empty string value among the given keys.
// Numeric values are rendered as strings so numeric ids remain usable.
func (p Payload) String(keys ...string) string {
	for _, key := range keys {
		switch v := p[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Int returns the first parseable integer value among the given keys.
func (p Payload) Int(keys ...string) int {
	for _, key := range keys {
		switch v := p[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

// Float returns the first parseable float value among the given keys.
func (p Payload) Float(keys ...string) float64 {
	for _, key := range keys {
		switch v := p[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// Time resolves a timestamp from the given alias keys, falling back to def
// when every candidate is absent or unparsable. Numeric values are read as
// Unix milliseconds.
func (p Payload) Time(def time.Time, keys ...string) time.Time {
	for _, key := range keys {
		switch v := p[key].(type) {
		case string:
			if t, ok := timerange.ParseTimestamp(v); ok {
				return t
			}
		case float64:
			if v > 0 {
				return time.UnixMilli(int64(v)).UTC()
			}
		case json.Number:
			if n, err := v.Int64(); err == nil && n > 0 {
				return time.UnixMilli(n).UTC()
			}
		}
	}
	return def
}

// Has reports whether any of the keys carries a non-empty string value.
func (p Payload) Has(keys ...string) bool {
	return p.String(keys...) != ""
}

// JSON renders the full original payload as the metadata blob stored next to
// every event row, so dimensions not captured by dedicated columns can be
// recovered later without a schema migration.
func (p Payload) JSON() string {
	if len(p) == 0 {
		return "{}"
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}
