package logging

import (
	"context"
	"log/slog"
)

// Logger is the logging interface accepted by the drive client. Arguments
// are alternating key-value pairs or slog.Attr values, as with slog.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// ComponentDrive tags records written by the drive client.
const ComponentDrive = "drive"

// SlogAdapter adapts an slog.Logger to Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger and tags every record with component
// "drive". If logger is nil, slog.Default() at call time is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return ForComponent(logger, ComponentDrive)
}

// ForComponent wraps logger and tags every record with component.
func ForComponent(logger *slog.Logger, component string) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger.With(slog.String("component", component))}
}

func (a *SlogAdapter) Debug(msg string, args ...interface{}) { a.log(slog.LevelDebug, msg, args) }
func (a *SlogAdapter) Info(msg string, args ...interface{})  { a.log(slog.LevelInfo, msg, args) }
func (a *SlogAdapter) Warn(msg string, args ...interface{})  { a.log(slog.LevelWarn, msg, args) }
func (a *SlogAdapter) Error(msg string, args ...interface{}) { a.log(slog.LevelError, msg, args) }

func (a *SlogAdapter) log(level slog.Level, msg string, args []interface{}) {
	a.logger.Log(context.Background(), level, msg, args...)
}

// With returns an adapter that adds args to every record.
func (a *SlogAdapter) With(args ...interface{}) *SlogAdapter {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// DefaultLogger returns the drive adapter over slog.Default().
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(nil)
}
