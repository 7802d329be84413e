// Package database manages the SQLite connection and schema migrations.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"beaconly/internal/admin"
	"beaconly/internal/config"
	"beaconly/internal/events"
	"beaconly/internal/rollup"
)

// Manager owns the application's database connection.
type Manager struct {
	db     *gorm.DB
	logger *slog.Logger
	cfg    *config.Config
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Init opens the connection, configures the pool and applies the SQLite
// pragmas. The storage directory is created if needed.
func (m *Manager) Init() error {
	if dir := filepath.Dir(m.cfg.DatabaseName); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(m.cfg.DatabaseName), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(m.cfg.GetMaxIdleConns())

	db.Exec("PRAGMA journal_mode = WAL")
	db.Exec("PRAGMA busy_timeout = 5000")
	db.Exec("PRAGMA foreign_keys = ON")

	m.db = db
	m.logger.Info("Database connection initialized", slog.String("path", m.cfg.DatabaseName))
	return nil
}

// GetConnection returns the shared gorm handle.
func (m *Manager) GetConnection() *gorm.DB {
	return m.db
}

// AllModels returns every persisted model for migration.
func AllModels() []any {
	return []any{
		&events.Session{},
		&events.PageView{},
		&events.Ping{},
		&events.Click{},
		&events.Goal{},
		&rollup.DailyStat{},
		&admin.User{},
		&admin.Session{},
	}
}

// Migrate runs schema migrations in a transaction.
func (m *Manager) Migrate() error {
	if m.db == nil {
		return gorm.ErrInvalidDB
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(AllModels()...)
	})
	if err != nil {
		m.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	m.logger.Info("Database migration completed successfully")
	return nil
}

// Close shuts the connection pool down.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
