// Package logger provides structured logging for the suggestion service.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// globalLogger is the global logger instance
	globalLogger *Logger
	// once ensures the logger is initialized only once
	once sync.Once
)

// Logger wraps charmbracelet/log with prefix support.
type Logger struct {
	logger *log.Logger
}

// Config holds logger configuration.
type Config struct {
	Level   string
	File    string
	Console bool
}

// DefaultConfig returns default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Console: true,
	}
}

// Initialize initializes the global logger.
func Initialize(cfg Config) error {
	var initErr error
	once.Do(func() {
		initErr = initLogger(cfg)
	})
	return initErr
}

func initLogger(cfg Config) error {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, os.Stderr)
	}

	if cfg.File != "" {
		dir := filepath.Dir(cfg.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	l := log.New(writer)
	l.SetLevel(parseLevel(cfg.Level))
	l.SetTimeFormat(time.RFC3339)
	l.SetReportTimestamp(true)

	globalLogger = &Logger{logger: l}
	return nil
}

// Get returns the global logger instance.
func Get() *Logger {
	if globalLogger == nil {
		_ = Initialize(DefaultConfig())
	}
	return globalLogger
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(msg string, keyvals ...any) {
	l.logger.Fatal(msg, keyvals...)
}

// With returns a logger with the given prefix.
func (l *Logger) With(prefix string) *Logger {
	return &Logger{logger: l.logger.WithPrefix(prefix)}
}

// Convenience functions for the global logger

// Debug logs a debug message using the global logger.
func Debug(msg string, keyvals ...any) {
	Get().Debug(msg, keyvals...)
}

// Info logs an info message using the global logger.
func Info(msg string, keyvals ...any) {
	Get().Info(msg, keyvals...)
}

// Warn logs a warning message using the global logger.
func Warn(msg string, keyvals ...any) {
	Get().Warn(msg, keyvals...)
}

// Error logs an error message using the global logger.
func Error(msg string, keyvals ...any) {
	Get().Error(msg, keyvals...)
}

// With returns the global logger with a prefix.
func With(prefix string) *Logger {
	return Get().With(prefix)
}

// parseLevel parses a level string.
func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
