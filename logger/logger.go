package logger

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Logger is a named node of a hierarchy. Loggers are created by
// Registry.NewLogger and Logger.GetChild and must not be copied.
type Logger struct {
	h         *hierarchy
	name      string
	parentKey string
	root      bool

	level     atomic.Int64
	propagate atomic.Bool

	// guarded by h.mu
	handlers []Handler
}

// Option configures NewLogger and GetChild.
type Option func(*options)

type options struct {
	name     string
	hasName  bool
	level    Level
	hasLevel bool
	format   string
	newRoot  bool
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName names the logger instead of using the calling function's name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
		o.hasName = true
	}
}

// WithLevel sets the logger's level.
func WithLevel(level Level) Option {
	return func(o *options) {
		o.level = level
		o.hasLevel = true
	}
}

// WithFormat sets the handler format used by NewLogger.
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// AsNewRoot makes NewLogger start a new hierarchy even when a root exists.
func AsNewRoot() Option {
	return func(o *options) {
		o.newRoot = true
	}
}

// Name returns the dotted name. Children of a root are named by their suffix alone.
func (l *Logger) Name() string {
	return l.name
}

// IsRoot reports whether l heads its hierarchy.
func (l *Logger) IsRoot() bool {
	return l.root
}

// Level returns the logger's own level, possibly NotSet.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// SetLevel changes the logger's own level. Existing handlers keep theirs.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int64(level))
}

// Propagate reports whether records continue to the parent's handlers.
func (l *Logger) Propagate() bool {
	return l.propagate.Load()
}

// SetPropagate turns propagation to the parent on or off.
func (l *Logger) SetPropagate(on bool) {
	l.propagate.Store(on)
}

// Parent returns the parent logger, nil for a root.
func (l *Logger) Parent() *Logger {
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	return l.h.parentLocked(l)
}

// EffectiveLevel returns the own level, else the nearest ancestor's, else the
// registry default.
func (l *Logger) EffectiveLevel() Level {
	if level := l.Level(); level != NotSet {
		return level
	}
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	for cur := l.h.parentLocked(l); cur != nil; cur = l.h.parentLocked(cur) {
		if level := cur.Level(); level != NotSet {
			return level
		}
	}
	return l.h.reg.DefaultLevel()
}

// Enabled reports whether a record at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.EffectiveLevel()
}

// GetChild returns the child named suffix, creating it if needed. An empty
// suffix means the calling function's name. The child takes the propagation
// flag of l and either the given level or l's own level.
func (l *Logger) GetChild(suffix string, opts ...Option) *Logger {
	o := applyOptions(opts)
	if suffix == "" {
		suffix = callerName()
	}
	if suffix == "" {
		suffix = "unknown"
	}
	name := suffix
	if !l.root {
		name = l.name + "." + suffix
	}
	level := l.Level()
	if o.hasLevel {
		level = o.level
	}

	l.h.mu.Lock()
	child := l.h.getOrCreateLocked(l, name)
	l.h.mu.Unlock()

	child.propagate.Store(l.Propagate())
	child.level.Store(int64(level))
	return child
}

// Handlers returns a copy of the attached handlers.
func (l *Logger) Handlers() []Handler {
	l.h.mu.RLock()
	defer l.h.mu.RUnlock()
	return append([]Handler(nil), l.handlers...)
}

// AddHandler attaches another handler.
func (l *Logger) AddHandler(handler Handler) {
	if handler == nil {
		return
	}
	l.h.mu.Lock()
	l.handlers = append(l.handlers, handler)
	l.h.mu.Unlock()
}

// SetHandler replaces all handlers with handler (none when nil) and closes
// the previous ones. Records already being written finish first.
func (l *Logger) SetHandler(handler Handler) error {
	l.h.mu.Lock()
	old := l.handlers
	l.handlers = nil
	if handler != nil {
		l.handlers = []Handler{handler}
	}
	l.h.mu.Unlock()

	var err error
	for _, h := range old {
		if h != handler {
			err = multierr.Append(err, h.Close())
		}
	}
	return err
}

// Close releases l from its registry.
func (l *Logger) Close() error {
	return l.h.reg.Release(l)
}

// emit resolves the caller and dispatches the record. The level check has
// already been made.
func (l *Logger) emit(level Level, msg string) {
	l.dispatch(Record{
		Level:   level,
		Name:    l.name,
		Message: msg,
		Caller:  ResolveCaller(0),
	})
}

// dispatch hands rec to the handlers on the propagation path. Handlers run
// under the read lock so SetHandler cannot close one that is still writing.
func (l *Logger) dispatch(rec Record) {
	reg := l.h.reg
	var errs []error
	found := false

	l.h.mu.RLock()
	for cur := l; cur != nil; cur = l.h.parentLocked(cur) {
		for _, h := range cur.handlers {
			found = true
			if rec.Level >= h.Level() {
				if err := h.Handle(rec); err != nil {
					errs = append(errs, err)
				}
			}
		}
		if !cur.Propagate() {
			break
		}
	}
	l.h.mu.RUnlock()

	if !found && rec.Level >= reg.lastResort.Level() {
		if err := reg.lastResort.Handle(rec); err != nil {
			errs = append(errs, err)
		}
	}
	for _, err := range errs {
		reg.reportError(errors.Wrapf(err, "logger %q", l.name))
	}
}

func (l *Logger) logv(level Level, v []any) {
	if l.Enabled(level) {
		l.emit(level, fmt.Sprint(v...))
	}
}

func (l *Logger) logf(level Level, format string, v []any) {
	if l.Enabled(level) {
		l.emit(level, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) logKV(level Level, msg string, keyvals []any) {
	if l.Enabled(level) {
		l.emit(level, msg+encodeFields(keyvals...))
	}
}

func (l *Logger) logJSON(level Level, args []any) {
	if l.Enabled(level) {
		l.emit(level, describeArgs(args...))
	}
}

// encodeFields renders key/value pairs as " k=v k=v". Non-string keys and a
// trailing odd value are skipped.
func encodeFields(keyvals ...any) string {
	if len(keyvals) == 0 {
		return ""
	}
	parts := make([]string, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, keyvals[i+1]))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// Log emits v at level.
func (l *Logger) Log(level Level, v ...any) { l.logv(level, v) }

// Logf emits a formatted message at level.
func (l *Logger) Logf(level Level, format string, v ...any) { l.logf(level, format, v) }

// LogKV emits msg followed by key=value pairs at level.
func (l *Logger) LogKV(level Level, msg string, keyvals ...any) { l.logKV(level, msg, keyvals) }

// LogJSON emits a structured rendering of args at level. A (string, value)
// pair renders as a labeled value; anything else as a values/named container.
func (l *Logger) LogJSON(level Level, args ...any) { l.logJSON(level, args) }

// Trace logs v at TRACE.
func (l *Logger) Trace(v ...any) { l.logv(TraceLevel, v) }
// Tracef logs a formatted message at TRACE.
func (l *Logger) Tracef(format string, v ...any) { l.logf(TraceLevel, format, v) }
// TraceKV logs msg with key=value pairs at TRACE.
func (l *Logger) TraceKV(msg string, keyvals ...any) { l.logKV(TraceLevel, msg, keyvals) }
// TraceJSON logs a structured rendering of args at TRACE.
func (l *Logger) TraceJSON(args ...any) { l.logJSON(TraceLevel, args) }

// Debug logs v at DEBUG.
func (l *Logger) Debug(v ...any) { l.logv(DebugLevel, v) }
// Debugf logs a formatted message at DEBUG.
func (l *Logger) Debugf(format string, v ...any) { l.logf(DebugLevel, format, v) }
// DebugKV logs msg with key=value pairs at DEBUG.
func (l *Logger) DebugKV(msg string, keyvals ...any) { l.logKV(DebugLevel, msg, keyvals) }
// DebugJSON logs a structured rendering of args at DEBUG.
func (l *Logger) DebugJSON(args ...any) { l.logJSON(DebugLevel, args) }

// Info logs v at INFO.
func (l *Logger) Info(v ...any) { l.logv(InfoLevel, v) }
// Infof logs a formatted message at INFO.
func (l *Logger) Infof(format string, v ...any) { l.logf(InfoLevel, format, v) }
// InfoKV logs msg with key=value pairs at INFO.
func (l *Logger) InfoKV(msg string, keyvals ...any) { l.logKV(InfoLevel, msg, keyvals) }
// InfoJSON logs a structured rendering of args at INFO.
func (l *Logger) InfoJSON(args ...any) { l.logJSON(InfoLevel, args) }

// Warning logs v at WARNING.
func (l *Logger) Warning(v ...any) { l.logv(WarningLevel, v) }
// Warningf logs a formatted message at WARNING.
func (l *Logger) Warningf(format string, v ...any) { l.logf(WarningLevel, format, v) }
// WarningKV logs msg with key=value pairs at WARNING.
func (l *Logger) WarningKV(msg string, keyvals ...any) { l.logKV(WarningLevel, msg, keyvals) }
// WarningJSON logs a structured rendering of args at WARNING.
func (l *Logger) WarningJSON(args ...any) { l.logJSON(WarningLevel, args) }

// Warn is an alias for Warning.
func (l *Logger) Warn(v ...any) { l.logv(WarnLevel, v) }
// Warnf is an alias for Warningf.
func (l *Logger) Warnf(format string, v ...any) { l.logf(WarnLevel, format, v) }
// WarnKV is an alias for WarningKV.
func (l *Logger) WarnKV(msg string, keyvals ...any) { l.logKV(WarnLevel, msg, keyvals) }
// WarnJSON is an alias for WarningJSON.
func (l *Logger) WarnJSON(args ...any) { l.logJSON(WarnLevel, args) }

// Error logs v at ERROR.
func (l *Logger) Error(v ...any) { l.logv(ErrorLevel, v) }
// Errorf logs a formatted message at ERROR.
func (l *Logger) Errorf(format string, v ...any) { l.logf(ErrorLevel, format, v) }
// ErrorKV logs msg with key=value pairs at ERROR.
func (l *Logger) ErrorKV(msg string, keyvals ...any) { l.logKV(ErrorLevel, msg, keyvals) }
// ErrorJSON logs a structured rendering of args at ERROR.
func (l *Logger) ErrorJSON(args ...any) { l.logJSON(ErrorLevel, args) }

// Critical logs v at CRITICAL.
func (l *Logger) Critical(v ...any) { l.logv(CriticalLevel, v) }
// Criticalf logs a formatted message at CRITICAL.
func (l *Logger) Criticalf(format string, v ...any) { l.logf(CriticalLevel, format, v) }
// CriticalKV logs msg with key=value pairs at CRITICAL.
func (l *Logger) CriticalKV(msg string, keyvals ...any) { l.logKV(CriticalLevel, msg, keyvals) }
// CriticalJSON logs a structured rendering of args at CRITICAL.
func (l *Logger) CriticalJSON(args ...any) { l.logJSON(CriticalLevel, args) }

// Fatal logs at CRITICAL. The process keeps running.
func (l *Logger) Fatal(v ...any) { l.logv(FatalLevel, v) }
// Fatalf logs a formatted message at CRITICAL.
func (l *Logger) Fatalf(format string, v ...any) { l.logf(FatalLevel, format, v) }
// FatalKV logs msg with key=value pairs at CRITICAL.
func (l *Logger) FatalKV(msg string, keyvals ...any) { l.logKV(FatalLevel, msg, keyvals) }
// FatalJSON logs a structured rendering of args at CRITICAL.
func (l *Logger) FatalJSON(args ...any) { l.logJSON(FatalLevel, args) }

type stackTracer interface {
	StackTrace() errors.StackTrace
}

const noActiveException = "Traceback: no active exception"

// ErrorTB logs v at ERROR followed by a second ERROR record holding the stack
// of err: the one recorded by github.com/pkg/errors if err carries one, otherwise
// the stack at this call.
func (l *Logger) ErrorTB(err error, v ...any) {
	if !l.Enabled(ErrorLevel) {
		return
	}
	l.emit(ErrorLevel, fmt.Sprint(v...))
	l.emit(ErrorLevel, traceback(err))
}

func traceback(err error) string {
	if err == nil {
		return noActiveException
	}
	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("Traceback:\n%s%+v", err.Error(), st.StackTrace())
	}
	here := errors.WithStack(err).(stackTracer).StackTrace()
	return fmt.Sprintf("Traceback:\n%s%+v", err.Error(), callerStack(here))
}

// callerStack drops the leading frames that belong to this package.
func callerStack(st errors.StackTrace) errors.StackTrace {
	for i, f := range st {
		pc := uintptr(f) - 1
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			return st[i:]
		}
		file, line := fn.FileLine(pc)
		if !isFacilityFrame(runtime.Frame{Function: fn.Name(), File: file, Line: line}) {
			return st[i:]
		}
	}
	return nil
}

// API logs an HTTP outcome as "[status] msg": INFO below 400, WARNING for
// 4xx and ERROR from 500.
func (l *Logger) API(statusCode int, msg string, keyvals ...any) {
	level := statusCodeToLevel(statusCode)
	if l.Enabled(level) {
		l.emit(level, fmt.Sprintf("[%d] %s", statusCode, msg)+encodeFields(keyvals...))
	}
}

func statusCodeToLevel(code int) Level {
	switch {
	case code >= 500:
		return ErrorLevel
	case code >= 400:
		return WarningLevel
	default:
		return InfoLevel // 1xx, 2xx, 3xx
	}
}
