// Package logging builds the application's structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"beaconly/internal/config"
)

// NewLogger creates a slog.Logger writing to stdout and a rotated log file.
// The file sink is skipped when the logs directory cannot be created.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.LogLevel)

	writers := []io.Writer{os.Stdout}
	if cfg.LogsDirectory != "" {
		if err := os.MkdirAll(cfg.LogsDirectory, 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   filepath.Join(cfg.LogsDirectory, cfg.AppName+".log"),
				MaxSize:    cfg.LogsMaxSizeInMb,
				MaxBackups: cfg.LogsMaxBackups,
				MaxAge:     cfg.LogsMaxAgeInDays,
				Compress:   true,
			})
		}
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func parseLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelInfo:
		return slog.LevelInfo
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
