// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// Admin bootstrap credentials
	AdminEmail    string `mapstructure:"adminemail"`
	AdminPassword string `mapstructure:"adminpassword"`

	// Admin login session lifetime
	LoginSessionTimeoutSeconds int `mapstructure:"loginsessiontimeoutseconds"`

	// File paths
	DatabasePath string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings
	GeoDBPath    string `mapstructure:"geodbpath"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Read-path settings
	QueryTimeoutSeconds int `mapstructure:"querytimeoutseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "beaconly")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("adminemail", "")
		v.SetDefault("adminpassword", "")
		v.SetDefault("loginsessiontimeoutseconds", 604800) // 1 week
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("querytimeoutseconds", 8)

		// Bind environment variables
		v.BindEnv("appname", "BEACONLY_APP_NAME")
		v.BindEnv("appport", "BEACONLY_APP_PORT")
		v.BindEnv("environment", "BEACONLY_ENV")
		v.BindEnv("loglevel", "BEACONLY_LOG_LEVEL")
		v.BindEnv("adminemail", "BEACONLY_ADMIN_EMAIL")
		v.BindEnv("adminpassword", "BEACONLY_ADMIN_PASSWORD")
		v.BindEnv("loginsessiontimeoutseconds", "BEACONLY_LOGIN_SESSION_TIMEOUT_SECONDS")
		v.BindEnv("storagepath", "BEACONLY_STORAGE_PATH")
		v.BindEnv("geodbpath", "BEACONLY_GEO_DB_PATH")
		v.BindEnv("logsdir", "BEACONLY_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "BEACONLY_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "BEACONLY_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "BEACONLY_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "BEACONLY_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "BEACONLY_DB_MAX_IDLE_CONNS")
		v.BindEnv("querytimeoutseconds", "BEACONLY_QUERY_TIMEOUT_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.QueryTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid query timeout: %d", c.QueryTimeoutSeconds)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetLoginSessionTimeout returns the admin login session lifetime.
func (c *Config) GetLoginSessionTimeout() time.Duration {
	return time.Duration(c.LoginSessionTimeoutSeconds) * time.Second
}

// GetQueryTimeout returns the bounded wait applied to each read query.
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment.
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (required for in-memory SQLite stability)
// - Development/Production: 10 (allows concurrent reads for parallel report queries)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment.
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
