// Package admin holds the credential and bearer-token session records that
// gate the administrative endpoints.
package admin

import (
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an administrative account.
type User struct {
	ID                uint   `gorm:"primaryKey"`
	Email             string `gorm:"uniqueIndex"`
	EncryptedPassword string
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// TableName keeps admin accounts out of the visitor tables.
func (User) TableName() string {
	return "admin_users"
}

// ErrUserExists is returned when attempting to create a user that already exists.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidCredentials is returned for a failed login. It carries no detail
// about whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash keeps bcrypt comparison time constant for unknown emails.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// FindByEmail retrieves a user by email.
func FindByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func FindByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new admin user. It returns ErrUserExists if the
// email is already registered.
func CreateUser(db *gorm.DB, email, password string) (*User, error) {
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	if _, err := FindByEmail(db, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:             email,
		EncryptedPassword: string(hashed),
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a credential pair and returns the matching user.
// Unknown emails still pay the bcrypt comparison cost.
func Authenticate(db *gorm.DB, email, password string) (*User, error) {
	user, err := FindByEmail(db, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetupUserIfNotExists seeds the admin account from configuration at
// startup. Missing credentials or an existing account are not errors.
func SetupUserIfNotExists(db *gorm.DB, logger *slog.Logger, email, password string) {
	if email == "" || password == "" {
		logger.Debug("Admin bootstrap credentials not configured, skipping seed")
		return
	}

	_, err := CreateUser(db, email, password)
	if errors.Is(err, ErrUserExists) {
		return
	}
	if err != nil {
		logger.Error("Failed to seed admin user", slog.String("email", email), slog.Any("error", err))
		return
	}
	logger.Info("Seeded admin user", slog.String("email", email))
}
