package events

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"beaconly/internal/rollup"
	"beaconly/internal/timerange"
)

// Recorder persists incoming event beacons. Every track call performs its
// session upsert, event insert and rollup increment inside one transaction:
// either all of them complete or the whole call fails.
type Recorder struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRecorder(db *gorm.DB, logger *slog.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// TrackSession upserts the session described by the payload. Only a
// genuinely new session bumps the sessions rollup counter; repeated calls
// for the same id update mutable fields and leave StartTime untouched.
func (r *Recorder) TrackSession(p Payload) error {
	sid := r.resolveSessionID(p)
	ts := p.Time(time.Now().UTC(), "timestamp", "startTime", "start_time", "time", "ts")

	err := r.db.Transaction(func(tx *gorm.DB) error {
		created, err := upsertSession(tx, sid, p, ts)
		if err != nil {
			return err
		}
		if created {
			return rollup.Increment(tx, rollup.MetricSessions, timerange.DayFloor(ts))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to track session: %w", err)
	}

	r.logger.Debug("Tracked session", slog.String("session_id", sid))
	return nil
}

// TrackPageView records a page view and upserts its owning session.
func (r *Recorder) TrackPageView(p Payload) error {
	sid := r.resolveSessionID(p)
	ts := p.Time(time.Now().UTC(), "timestamp", "viewedAt", "time", "ts")

	path := p.String("path", "page")
	if path == "" {
		path = "/"
	}

	view := &PageView{
		SessionID: sid,
		Path:      path,
		Timestamp: ts,
		Metadata:  p.JSON(),
	}

	err := r.track(sid, p, ts, rollup.MetricPageViews, func(tx *gorm.DB) error {
		return tx.Create(view).Error
	})
	if err != nil {
		return fmt.Errorf("failed to track page view: %w", err)
	}
	return nil
}

// TrackPing records a heartbeat and additionally moves the session's
// LastPingTime and Duration to the ping's values (last-write-wins).
func (r *Recorder) TrackPing(p Payload) error {
	sid := r.resolveSessionID(p)
	ts := p.Time(time.Now().UTC(), "timestamp", "pingedAt", "time", "ts")
	duration := p.Int("duration")

	ping := &Ping{
		SessionID: sid,
		Duration:  duration,
		Timestamp: ts,
		Metadata:  p.JSON(),
	}

	err := r.track(sid, p, ts, rollup.MetricPings, func(tx *gorm.DB) error {
		if err := tx.Create(ping).Error; err != nil {
			return err
		}
		return tx.Model(&Session{}).Where("id = ?", sid).Updates(map[string]interface{}{
			"last_ping_time": ts,
			"duration":       duration,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to track ping: %w", err)
	}
	return nil
}

// TrackClick records a click event and upserts its owning session.
func (r *Recorder) TrackClick(p Payload) error {
	sid := r.resolveSessionID(p)
	ts := p.Time(time.Now().UTC(), "timestamp", "clickedAt", "time", "ts")

	click := &Click{
		SessionID: sid,
		Element:   p.String("element", "target"),
		X:         p.Int("x"),
		Y:         p.Int("y"),
		Timestamp: ts,
		Metadata:  p.JSON(),
	}

	err := r.track(sid, p, ts, rollup.MetricClicks, func(tx *gorm.DB) error {
		return tx.Create(click).Error
	})
	if err != nil {
		return fmt.Errorf("failed to track click: %w", err)
	}
	return nil
}

// TrackGoal records a goal conversion. A missing session reference is legal:
// the goal is stored with no session link and no session upsert happens.
func (r *Recorder) TrackGoal(p Payload) error {
	ts := p.Time(time.Now().UTC(), "timestamp", "convertedAt", "time", "ts")

	goal := &Goal{
		Name:      p.String("name", "goal", "goalName"),
		Value:     p.Float("value"),
		Timestamp: ts,
		Metadata:  p.JSON(),
	}

	sid, hasSession := p.SessionID()
	if hasSession {
		goal.SessionID = sql.NullString{String: sid, Valid: true}
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		created := false
		if hasSession {
			var err error
			created, err = upsertSession(tx, sid, p, ts)
			if err != nil {
				return err
			}
		}
		if err := tx.Create(goal).Error; err != nil {
			return err
		}
		if err := rollup.Increment(tx, rollup.MetricGoals, timerange.DayFloor(ts)); err != nil {
			return err
		}
		if created {
			return rollup.Increment(tx, rollup.MetricSessions, timerange.DayFloor(ts))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to track goal: %w", err)
	}

	r.logger.Debug("Tracked goal", slog.String("name", goal.Name))
	return nil
}

// resolveSessionID applies the payload alias order and generates an opaque
// id when the client did not send one.
func (r *Recorder) resolveSessionID(p Payload) string {
	if sid, ok := p.SessionID(); ok {
		return sid
	}
	return uuid.NewString()
}

// track runs the common write path: session upsert, event insert, rollup
// increment for the event's metric, plus a sessions increment when the
// upsert created a brand-new session.
func (r *Recorder) track(sid string, p Payload, ts time.Time, metric rollup.Metric, insert func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		created, err := upsertSession(tx, sid, p, ts)
		if err != nil {
			return err
		}
		if err := insert(tx); err != nil {
			return err
		}
		if err := rollup.Increment(tx, metric, timerange.DayFloor(ts)); err != nil {
			return err
		}
		if created {
			return rollup.Increment(tx, rollup.MetricSessions, timerange.DayFloor(ts))
		}
		return nil
	})
}

// upsertSession creates the session on first sight or updates its mutable
// fields. StartTime and ID are never changed after creation. Returns whether
// a new session row was created.
//
// The insert goes through ON CONFLICT DO NOTHING so two concurrent first
// beacons for the same id cannot race into a unique-constraint failure;
// the loser simply falls through to the update path.
func upsertSession(tx *gorm.DB, sid string, p Payload, eventTime time.Time) (bool, error) {
	startTime := p.Time(eventTime, "startTime", "start_time", "timestamp")
	session := &Session{
		ID:         sid,
		StartTime:  startTime,
		Duration:   p.Int("duration"),
		UserAgent:  p.String("userAgent", "user_agent"),
		DeviceType: p.String("deviceType", "device_type"),
		Browser:    p.String("browser"),
		OS:         p.String("os"),
		Country:    p.String("country"),
		City:       p.String("city"),
		IPAddress:  p.String("ipAddress", "ip_address", "ip"),
	}

	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(session)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	updates := sessionUpdates(p)
	if len(updates) == 0 {
		return false, nil
	}
	return false, tx.Model(&Session{}).Where("id = ?", sid).Updates(updates).Error
}

// sessionUpdates collects the mutable device/location fields present in the
// payload. Absent fields are left alone so later sparse beacons do not wipe
// data captured earlier.
func sessionUpdates(p Payload) map[string]interface{} {
	updates := map[string]interface{}{}
	if v := p.String("userAgent", "user_agent"); v != "" {
		updates["user_agent"] = v
	}
	if v := p.String("deviceType", "device_type"); v != "" {
		updates["device_type"] = v
	}
	if v := p.String("browser"); v != "" {
		updates["browser"] = v
	}
	if v := p.String("os"); v != "" {
		updates["os"] = v
	}
	if v := p.String("country"); v != "" {
		updates["country"] = v
	}
	if v := p.String("city"); v != "" {
		updates["city"] = v
	}
	if v := p.String("ipAddress", "ip_address", "ip"); v != "" {
		updates["ip_address"] = v
	}
	return updates
}
