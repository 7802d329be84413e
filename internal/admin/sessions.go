package admin

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is an opaque bearer-token login session.
type Session struct {
	Token     string `gorm:"primaryKey;size:64"`
	UserID    uint   `gorm:"index;not null"`
	ExpiresAt time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName keeps login sessions separate from visitor sessions, which own
// the plain "sessions" table.
func (Session) TableName() string {
	return "admin_sessions"
}

// IssueSession creates a new opaque bearer token for the user.
func IssueSession(db *gorm.DB, userID uint, ttl time.Duration) (*Session, error) {
	session := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateToken resolves a bearer token to its user. Unknown and expired
// tokens report ok=false without an error.
func ValidateToken(db *gorm.DB, token string) (*User, bool, error) {
	if token == "" {
		return nil, false, nil
	}

	var session Session
	err := db.Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, false, nil
	}

	user, err := FindByID(db, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}

// RevokeToken deletes a session. Revoking an unknown token is not an error;
// logout is idempotent.
func RevokeToken(db *gorm.DB, token string) error {
	if token == "" {
		return nil
	}
	return db.Where("token = ?", token).Delete(&Session{}).Error
}
