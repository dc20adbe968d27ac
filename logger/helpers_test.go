package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer shared by several handlers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Lines() []string {
	s := strings.TrimRight(b.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// newBufferRegistry returns a registry whose loggers write into out and
// report their own failures into errOut.
func newBufferRegistry(t *testing.T, level Level) (r *Registry, out, errOut *syncBuffer) {
	t.Helper()
	t.Setenv("JOURNAL_STREAM", "")
	out, errOut = &syncBuffer{}, &syncBuffer{}
	r = NewRegistry(
		WithDefaultLevel(level),
		WithErrorOutput(errOut),
		WithHandlerFactory(func(level Level, format string) (Handler, error) {
			return NewStreamHandler(out, level, format, false), nil
		}),
	)
	t.Cleanup(func() { _ = r.Close() })
	return r, out, errOut
}

func captureOutputs(t *testing.T) (stdout, stderr *syncBuffer) {
	t.Helper()
	stdout, stderr = &syncBuffer{}, &syncBuffer{}
	oldStdout, oldStderr := outStdout, outStderr
	outStdout, outStderr = stdout, stderr
	t.Cleanup(func() { outStdout, outStderr = oldStdout, oldStderr })
	return stdout, stderr
}

// recordingHandler keeps records in memory.
type recordingHandler struct {
	mu      sync.Mutex
	level   Level
	records []Record
	closed  int
	failing error
}

func (h *recordingHandler) Level() Level { return h.level }

func (h *recordingHandler) Handle(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return h.failing
}

func (h *recordingHandler) Flush() error { return nil }

func (h *recordingHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *recordingHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := make([]string, len(h.records))
	for i, rec := range h.records {
		msgs[i] = rec.Message
	}
	return msgs
}
