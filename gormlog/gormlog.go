// Package gormlog adapts a *logger.Logger to gorm's logger.Interface.
// Every SQL statement is logged at TRACE, slow ones at WARNING and failed
// ones at ERROR.
package gormlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/mordilloSan/simplelogger/logger"
)

// DefaultSlowThreshold marks queries as slow.
const DefaultSlowThreshold = 200 * time.Millisecond

// Logger is a gorm logger writing to a *logger.Logger.
type Logger struct {
	log                  *logger.Logger
	logLevel             gormlogger.LogLevel
	slowThreshold        time.Duration
	ignoreRecordNotFound bool
}

var _ gormlogger.Interface = (*Logger)(nil)

// Option configures New.
type Option func(*Logger)

// WithLogLevel sets gorm's own verbosity.
func WithLogLevel(level gormlogger.LogLevel) Option {
	return func(l *Logger) { l.logLevel = level }
}

// WithSlowThreshold sets the duration above which queries are reported as
// slow; zero disables slow query reporting.
func WithSlowThreshold(threshold time.Duration) Option {
	return func(l *Logger) { l.slowThreshold = threshold }
}

// IgnoreRecordNotFound drops gorm.ErrRecordNotFound from error reporting.
func IgnoreRecordNotFound() Option {
	return func(l *Logger) { l.ignoreRecordNotFound = true }
}

// New returns a gorm logger at gorm's Info verbosity.
func New(l *logger.Logger, opts ...Option) *Logger {
	gl := &Logger{
		log:           l,
		logLevel:      gormlogger.Info,
		slowThreshold: DefaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// ParseLogLevel maps "silent", "error", "warn" and "info" to gorm levels.
// Anything else is Info.
func ParseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn", "warning":
		return gormlogger.Warn
	default:
		return gormlogger.Info
	}
}

// LogMode returns a copy at the given gorm verbosity.
func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

// Info logs gorm's informational messages.
func (l *Logger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Info {
		l.log.InfoKV(sprintf(msg, data), "source", "database")
	}
}

// Warn logs gorm's warnings.
func (l *Logger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Warn {
		l.log.WarningKV(sprintf(msg, data), "source", "database")
	}
}

// Error logs gorm's errors.
func (l *Logger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= gormlogger.Error {
		l.log.ErrorKV(sprintf(msg, data), "source", "database")
	}
}

// Trace logs one SQL statement.
func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.logLevel >= gormlogger.Error &&
		!(l.ignoreRecordNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)):
		sql, rows := fc()
		l.log.ErrorKV("SQL error", append(fields(sql, rows, elapsed, utils.FileWithLineNum()), "error", err)...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn:
		sql, rows := fc()
		l.log.WarningKV("slow SQL query", append(fields(sql, rows, elapsed, utils.FileWithLineNum()), "threshold", l.slowThreshold)...)
	case l.logLevel >= gormlogger.Info && l.log.Enabled(logger.TraceLevel):
		sql, rows := fc()
		l.log.TraceKV("SQL query", fields(sql, rows, elapsed, utils.FileWithLineNum())...)
	}
}

func sprintf(msg string, data []interface{}) string {
	if len(data) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, data...)
}

// fields renders a statement. caller is the call site as seen from Trace.
func fields(sql string, rows int64, elapsed time.Duration, caller string) []any {
	rowsField := any(rows)
	if rows == -1 {
		rowsField = "-"
	}
	return []any{
		"elapsed_ms", float64(elapsed.Nanoseconds()) / 1e6,
		"rows", rowsField,
		"sql", sql,
		"caller", caller,
	}
}
