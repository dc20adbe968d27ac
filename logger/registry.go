package logger

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const lastResortFormat = "%(message)s"

// Registry holds the process-wide logging state: the default level, the live
// hierarchies, the most recently created root and logger, and the handler
// factory used by NewLogger. The zero value is not usable; use NewRegistry.
type Registry struct {
	defaultLevel atomic.Int64

	mu         sync.Mutex
	lastRoot   *Logger
	lastLogger *Logger
	roots      map[*hierarchy]struct{}
	factory    HandlerFactory

	errMu      sync.Mutex
	errOut     io.Writer
	lastResort Handler
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaultLevel sets the initial default level.
func WithDefaultLevel(level Level) RegistryOption {
	return func(r *Registry) {
		r.defaultLevel.Store(int64(level))
	}
}

// WithHandlerFactory sets the factory that builds each new logger's handler.
func WithHandlerFactory(factory HandlerFactory) RegistryOption {
	return func(r *Registry) {
		r.factory = factory
	}
}

// WithErrorOutput sets where the registry reports its own failures.
func WithErrorOutput(w io.Writer) RegistryOption {
	return func(r *Registry) {
		r.errOut = w
	}
}

// NewRegistry returns a registry with INFO as default level and console
// handlers on stderr.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		roots:      make(map[*hierarchy]struct{}),
		lastResort: NewStreamHandler(stderrWriter{}, WarningLevel, lastResortFormat, false),
	}
	r.defaultLevel.Store(int64(InfoLevel))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the registry behind the package-level functions.
var Default = NewRegistry()

// DefaultLevel returns the level given to loggers created without one.
func (r *Registry) DefaultLevel() Level {
	return Level(r.defaultLevel.Load())
}

// SetDefaultLevel replaces the default level and returns it.
// Existing loggers keep their own levels.
func (r *Registry) SetDefaultLevel(level Level) Level {
	r.defaultLevel.Store(int64(level))
	return level
}

// SetDefaultLevelFrom accepts any integer-valued v. Other values leave the
// default unchanged and return ErrInvalidArgument.
func (r *Registry) SetDefaultLevelFrom(v any) (Level, error) {
	level, err := LevelFromValue(v)
	if err != nil {
		return r.DefaultLevel(), err
	}
	return r.SetDefaultLevel(level), nil
}

// SetHandlerFactory replaces the factory used by later NewLogger calls.
func (r *Registry) SetHandlerFactory(factory HandlerFactory) {
	r.mu.Lock()
	r.factory = factory
	r.mu.Unlock()
}

func (r *Registry) handlerFactory() HandlerFactory {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factory == nil {
		return Config{}.HandlerFactory()
	}
	return r.factory
}

// LastRoot returns the root NewLogger attaches to when no parent is given.
func (r *Registry) LastRoot() *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRoot
}

// LastLogger returns the logger most recently returned by NewLogger.
func (r *Registry) LastLogger() *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLogger
}

// NewLogger creates or reuses a logger and gives it a fresh handler.
//
// A nil parent means the last root, unless AsNewRoot is given or no root
// exists yet, in which case a new hierarchy is started. A parent whose
// hierarchy has been released counts as nil. The name defaults to the
// calling function and the level to the registry default.
func (r *Registry) NewLogger(parent *Logger, opts ...Option) *Logger {
	o := applyOptions(opts)
	name := o.name
	if !o.hasName {
		name = callerName()
	}
	level := r.DefaultLevel()
	if o.hasLevel {
		level = o.level
	}

	l := r.place(parent, o.newRoot, name, level)

	format := o.format
	if format == "" {
		format = DefaultFormat
	}
	r.attachHandler(l, level, format)

	r.mu.Lock()
	if _, live := r.roots[l.h]; live {
		r.lastLogger = l
	}
	r.mu.Unlock()
	return l
}

// place finds or creates the node for NewLogger. Choosing the root and
// creating the node share one critical section on r.mu.
func (r *Registry) place(parent *Logger, newRoot bool, name string, level Level) *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parent != nil {
		if _, live := r.roots[parent.h]; !live {
			parent = nil
		}
	}
	if parent == nil && !newRoot {
		parent = r.lastRoot
	}
	if parent == nil {
		h := newHierarchy(r, name, level)
		r.roots[h] = struct{}{}
		if r.lastRoot == nil {
			r.lastRoot = h.root
		}
		return h.root
	}

	if r.lastRoot == nil {
		r.lastRoot = parent.h.root
	}
	return parent.GetChild(name, WithLevel(level))
}

func (r *Registry) attachHandler(l *Logger, level Level, format string) {
	handler, err := r.handlerFactory()(level, format)
	if err != nil {
		r.reportError(errors.Wrapf(err, "logger %q: build handler", l.Name()))
		if handler == nil {
			handler = NewStreamHandler(stderrWriter{}, level, format, false)
		}
	}
	if err := l.SetHandler(handler); err != nil {
		r.reportError(errors.Wrapf(err, "logger %q: close previous handler", l.Name()))
	}
}

// Release removes l from its hierarchy together with its descendants; a root
// takes its whole hierarchy with it. Handlers of removed loggers are closed.
func (r *Registry) Release(l *Logger) error {
	if l == nil {
		return nil
	}
	r.mu.Lock()
	removed, handlers := l.h.detach(l)
	if l.root {
		delete(r.roots, l.h)
	}
	for _, node := range removed {
		if node == r.lastRoot {
			r.lastRoot = nil
		}
		if node == r.lastLogger {
			r.lastLogger = nil
		}
	}
	r.mu.Unlock()
	if len(removed) == 0 {
		return nil
	}

	var err error
	for _, handler := range handlers {
		err = multierr.Append(err, handler.Close())
	}
	return err
}

// Close releases every hierarchy of the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	roots := make([]*Logger, 0, len(r.roots))
	for h := range r.roots {
		roots = append(roots, h.root)
	}
	r.mu.Unlock()

	var err error
	for _, root := range roots {
		err = multierr.Append(err, r.Release(root))
	}
	return err
}

func (r *Registry) errorOutput() io.Writer {
	if r.errOut != nil {
		return r.errOut
	}
	return outStderr
}

// reportError writes a failure of the facility itself and carries on.
func (r *Registry) reportError(err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	fmt.Fprintf(r.errorOutput(), "logger: %v\n", err)
}

// SetDefaultLevel sets the default level of the Default registry.
func SetDefaultLevel(level Level) Level {
	return Default.SetDefaultLevel(level)
}

// SetDefaultLevelFrom sets the default level of the Default registry from an integer value.
func SetDefaultLevelFrom(v any) (Level, error) {
	return Default.SetDefaultLevelFrom(v)
}

// GetDefaultLevel returns the default level of the Default registry.
func GetDefaultLevel() Level {
	return Default.DefaultLevel()
}

// NewLogger creates a logger in the Default registry.
func NewLogger(parent *Logger, opts ...Option) *Logger {
	return Default.NewLogger(parent, opts...)
}

// Close releases every logger of the Default registry and closes their handlers.
func Close() error {
	return Default.Close()
}
