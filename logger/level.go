package logger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Level defines log severity. Levels are plain integers on a total order;
// any integer is a valid level, the named ones are just well-known points.
type Level int

const (
	// NotSet marks a logger without its own level; it inherits from its ancestors.
	NotSet Level = 0
	// TraceLevel enables call-tracing output, finer than debug.
	TraceLevel Level = DebugLevel - 5
	// DebugLevel enables debug logging.
	DebugLevel Level = 10
	// InfoLevel enables informational logging.
	InfoLevel Level = 20
	// WarningLevel enables warning logging.
	WarningLevel Level = 30
	// WarnLevel is an alias for WarningLevel.
	WarnLevel = WarningLevel
	// ErrorLevel enables error logging.
	ErrorLevel Level = 40
	// CriticalLevel enables critical logging.
	CriticalLevel Level = 50
	// FatalLevel is an alias for CriticalLevel. It does not exit the process.
	FatalLevel = CriticalLevel
)

var levelNames = map[Level]string{
	NotSet:        "NOTSET",
	TraceLevel:    "TRACE",
	DebugLevel:    "DEBUG",
	InfoLevel:     "INFO",
	WarningLevel:  "WARNING",
	ErrorLevel:    "ERROR",
	CriticalLevel: "CRITICAL",
}

// AllLevels returns the named levels, lowest first.
func AllLevels() []Level {
	return []Level{
		TraceLevel,
		DebugLevel,
		InfoLevel,
		WarningLevel,
		ErrorLevel,
		CriticalLevel,
	}
}

// String returns the level name, or "Level N" for unnamed levels.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level %d", int(l))
}

// ParseLevel parses a level name (case-insensitive, WARN and FATAL accepted)
// or an integer string.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "TRACE":
		return TraceLevel, nil
	case "DEBUG":
		return DebugLevel, nil
	case "INFO":
		return InfoLevel, nil
	case "WARNING", "WARN":
		return WarningLevel, nil
	case "ERROR":
		return ErrorLevel, nil
	case "CRITICAL", "CRIT", "FATAL":
		return CriticalLevel, nil
	case "NOTSET":
		return NotSet, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return NotSet, errors.Wrapf(ErrInvalidArgument, "unknown level %q", s)
	}
	return Level(n), nil
}

// LevelFromValue converts an arbitrary value to a Level. Only integers
// (any Go integer kind, or a whole float) are accepted.
func LevelFromValue(v any) (Level, error) {
	switch n := v.(type) {
	case Level:
		return n, nil
	case int:
		return Level(n), nil
	case int8:
		return Level(n), nil
	case int16:
		return Level(n), nil
	case int32:
		return Level(n), nil
	case int64:
		return Level(n), nil
	case uint:
		return Level(n), nil
	case uint8:
		return Level(n), nil
	case uint16:
		return Level(n), nil
	case uint32:
		return Level(n), nil
	case uint64:
		return Level(n), nil
	case float32:
		return levelFromFloat(float64(n))
	case float64:
		return levelFromFloat(n)
	}
	return NotSet, errors.Wrapf(ErrInvalidArgument, "level must be an integer, got %T", v)
}

func levelFromFloat(f float64) (Level, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return NotSet, errors.Wrapf(ErrInvalidArgument, "level must be an integer, got %v", f)
	}
	return Level(f), nil
}
