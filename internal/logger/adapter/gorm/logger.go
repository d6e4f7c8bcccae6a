// Package gorm adapts the application's zerolog logger to GORM's logger
// interface so database traffic shares the configured log sinks.
package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormdb "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Logger implements gorm.io/gorm/logger.Interface on top of zerolog.
type Logger struct {
	// SlowThreshold is the duration after which a query is logged as slow.
	SlowThreshold time.Duration
}

// New creates a GORM logger adapter with the default slow query threshold.
func New() *Logger {
	return &Logger{
		SlowThreshold: 200 * time.Millisecond, //nolint:mnd
	}
}

// LogMode implements the GORM logger interface. Level filtering is handled by
// zerolog's global level, so the mode is ignored.
func (l *Logger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

// Info logs an informational message from GORM.
func (l *Logger) Info(_ context.Context, msg string, data ...interface{}) {
	log.Info().Msgf(msg, data...)
}

// Warn logs a warning message from GORM.
func (l *Logger) Warn(_ context.Context, msg string, data ...interface{}) {
	log.Warn().Msgf(msg, data...)
}

// Error logs an error message from GORM.
func (l *Logger) Error(_ context.Context, msg string, data ...interface{}) {
	log.Error().Msgf(msg, data...)
}

// Trace logs a completed SQL statement with its timing and row count.
// Record-not-found results are expected during permission checks and are not
// logged as errors.
func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	var event *zerolog.Event

	switch {
	case err != nil && !errors.Is(err, gormdb.ErrRecordNotFound):
		event = log.Error().Err(err)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold:
		event = log.Warn().Bool("slow", true)
	default:
		event = log.Trace()
	}

	event.
		Str("sql", sql).
		Int64("rows", rows).
		Dur("elapsed", elapsed).
		Send()
}
