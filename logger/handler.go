package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Record is one log event on its way to the handlers.
type Record struct {
	Level   Level
	Name    string
	Message string
	Caller  Frame
}

// Handler writes records to a medium. Handle is only called for records whose
// level is at or above Level(); it must flush before returning.
type Handler interface {
	Level() Level
	Handle(rec Record) error
	Flush() error
	Close() error
}

// HandlerFactory builds the handler attached by NewLogger, bound to the
// logger's level and the requested format.
type HandlerFactory func(level Level, format string) (Handler, error)

// Dependency injection points for testing outputs.
var (
	outStdout io.Writer = os.Stdout
	outStderr io.Writer = os.Stderr
)

// stderrWriter and stdoutWriter resolve the injected outputs at write time.
type (
	stderrWriter struct{}
	stdoutWriter struct{}
)

func (stderrWriter) Write(p []byte) (int, error) { return outStderr.Write(p) }
func (stdoutWriter) Write(p []byte) (int, error) { return outStdout.Write(p) }

var levelColors = map[Level]string{
	TraceLevel:    "\033[90m",
	DebugLevel:    "\033[36m",
	InfoLevel:     "\033[32m",
	WarningLevel:  "\033[33m",
	ErrorLevel:    "\033[31m",
	CriticalLevel: "\033[91m",
}

const colorReset = "\033[0m"

func levelColor(level Level) string {
	return levelColors[level]
}

// StreamHandler writes formatted lines to an io.Writer it does not own.
type StreamHandler struct {
	mu        sync.Mutex
	w         io.Writer
	level     Level
	formatter *Formatter
	journald  bool
}

// NewStreamHandler returns a handler writing to w. Plain (non-colour) output
// gets journald priority prefixes when JOURNAL_STREAM is set.
func NewStreamHandler(w io.Writer, level Level, format string, colorize bool) *StreamHandler {
	return &StreamHandler{
		w:         w,
		level:     level,
		formatter: NewFormatter(format, colorize),
		journald:  !colorize && shouldUseSyslogPrefix(),
	}
}

// Level returns the handler's threshold.
func (h *StreamHandler) Level() Level {
	return h.level
}

// Handle formats and writes rec, then flushes the writer if it buffers.
func (h *StreamHandler) Handle(rec Record) error {
	line := h.formatter.Format(rec) + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()

	var w io.Writer = h.w
	if h.journald {
		w = &syslogPrefixWriter{w: h.w, prefix: syslogPrefixForLevel(rec.Level)}
	}
	if _, err := io.WriteString(w, line); err != nil {
		return errors.Wrap(err, "write log record")
	}
	return h.flushLocked()
}

// Flush flushes the writer if it buffers.
func (h *StreamHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushLocked()
}

func (h *StreamHandler) flushLocked() error {
	if f, ok := h.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes; the stream itself stays open.
func (h *StreamHandler) Close() error {
	return h.Flush()
}

// FileHandler appends timestamped lines to a file it owns.
type FileHandler struct {
	mu        sync.Mutex
	file      *os.File
	w         io.Writer
	level     Level
	formatter *Formatter
}

// OpenFileHandler opens (creating or appending to) path.
func OpenFileHandler(path string, level Level, format string) (*FileHandler, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %s", path)
	}
	return &FileHandler{
		file:      f,
		w:         &timestampWriter{w: f},
		level:     level,
		formatter: NewFormatter(format, false),
	}, nil
}

// Level returns the handler's threshold.
func (h *FileHandler) Level() Level {
	return h.level
}

// Handle writes rec as one timestamped line.
func (h *FileHandler) Handle(rec Record) error {
	line := h.formatter.Format(rec) + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return errors.Wrap(os.ErrClosed, "write log record")
	}
	if _, err := io.WriteString(h.w, line); err != nil {
		return errors.Wrap(err, "write log record")
	}
	return nil
}

// Flush commits the file to stable storage.
func (h *FileHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	return h.file.Sync()
}

// Close closes the file. Closing twice is a no-op.
func (h *FileHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

// MultiHandler tees records to several handlers, e.g. console and file.
type MultiHandler struct {
	handlers []Handler
}

// NewMultiHandler combines handlers; nil entries are dropped.
func NewMultiHandler(handlers ...Handler) *MultiHandler {
	m := &MultiHandler{}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

// Level returns the lowest threshold of the members.
func (m *MultiHandler) Level() Level {
	if len(m.handlers) == 0 {
		return NotSet
	}
	lowest := m.handlers[0].Level()
	for _, h := range m.handlers[1:] {
		if h.Level() < lowest {
			lowest = h.Level()
		}
	}
	return lowest
}

// Handle passes rec to each member whose threshold it meets.
func (m *MultiHandler) Handle(rec Record) error {
	var err error
	for _, h := range m.handlers {
		if rec.Level >= h.Level() {
			err = multierr.Append(err, h.Handle(rec))
		}
	}
	return err
}

// Flush flushes every member.
func (m *MultiHandler) Flush() error {
	var err error
	for _, h := range m.handlers {
		err = multierr.Append(err, h.Flush())
	}
	return err
}

// Close closes every member, even when some fail.
func (m *MultiHandler) Close() error {
	var err error
	for _, h := range m.handlers {
		err = multierr.Append(err, h.Close())
	}
	return err
}

func shouldUseSyslogPrefix() bool {
	return os.Getenv("JOURNAL_STREAM") != ""
}

func syslogPrefixForLevel(level Level) string {
	switch {
	case level >= CriticalLevel:
		return "<2>"
	case level >= ErrorLevel:
		return "<3>"
	case level >= WarningLevel:
		return "<4>"
	case level >= InfoLevel:
		return "<6>"
	default:
		return "<7>"
	}
}

// syslogPrefixWriter prepends the syslog priority prefix to each line.
type syslogPrefixWriter struct {
	w      io.Writer
	prefix string
}

func (s *syslogPrefixWriter) Write(data []byte) (int, error) {
	if s.prefix == "" {
		return s.w.Write(data)
	}
	if len(data) == 0 {
		return 0, nil
	}
	buf := make([]byte, 0, len(data)+len(s.prefix))
	buf = append(buf, s.prefix...)
	for i, b := range data {
		buf = append(buf, b)
		if b == '\n' && i != len(data)-1 {
			buf = append(buf, s.prefix...)
		}
	}
	if _, err := s.w.Write(buf); err != nil {
		return 0, err
	}
	return len(data), nil
}

// timestampWriter prepends a timestamp to each record written to a file.
type timestampWriter struct {
	w io.Writer
}

func (t *timestampWriter) Write(data []byte) (int, error) {
	ts := time.Now().Format("2006/01/02 15:04:05 ")
	buf := make([]byte, 0, len(ts)+len(data))
	buf = append(buf, ts...)
	buf = append(buf, data...)
	if _, err := t.w.Write(buf); err != nil {
		return 0, err
	}
	return len(data), nil
}
