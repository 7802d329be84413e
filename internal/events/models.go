package events

import (
	"database/sql"
	"time"
)

// Session represents a client visit, identified by an opaque id supplied by
// the instrumentation (or generated server-side). Created on the first event
// referencing its id; mutable fields are updated by later events, StartTime
// and ID never change.
type Session struct {
	ID           string    `gorm:"primaryKey;size:64"`
	StartTime    time.Time `gorm:"index;not null"`
	LastPingTime sql.NullTime
	Duration     int `gorm:"not null;default:0"`
	UserAgent    string
	DeviceType   string
	Browser      string
	OS           string
	Country      string
	City         string
	IPAddress    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PageView is an immutable page view event.
type PageView struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"index;size:64;not null"`
	Path      string    `gorm:"index;not null"`
	Timestamp time.Time `gorm:"index;not null"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time
}

// Ping is an immutable heartbeat event carrying the session's current duration.
type Ping struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"index;size:64;not null"`
	Duration  int       `gorm:"not null;default:0"`
	Timestamp time.Time `gorm:"index;not null"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time
}

// Click is an immutable click event. Dimension fields (kind, label, url) live
// in the metadata blob.
type Click struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"index;size:64;not null"`
	Element   string
	X         int
	Y         int
	Timestamp time.Time `gorm:"index;not null"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time
}

// Goal is an immutable goal conversion event. Its session reference is
// optional: goals may be recorded anonymously.
type Goal struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	SessionID sql.NullString `gorm:"index;size:64"`
	Name      string         `gorm:"index;not null"`
	Value     float64        `gorm:"not null;default:0"`
	Timestamp time.Time      `gorm:"index;not null"`
	Metadata  string         `gorm:"type:text"`
	CreatedAt time.Time
}
