package logger

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmission_InfoLoggerFiltersTraceAndDebug(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithFormat("%(message)s"))

	l.Fatal("Start")
	l.Critical("C")
	l.Trace("T")
	l.Debug("D")
	l.Info("I")
	l.Warning("W")
	l.Warn("W2")
	l.Error("E")
	l.Fatal("End")

	assert.Equal(t, []string{"Start", "C", "I", "W", "W2", "E", "End"}, out.Lines())
}

func TestEmission_AutoNameAppearsInOutput(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil)

	l.Info("hello")

	assert.Equal(t, "TestEmission_AutoNameAppearsInOutput", l.Name())
	line := out.Lines()[0]
	assert.True(t, strings.HasPrefix(line, "--- INFO:TestEmission_AutoNameAppearsInOutput:"), line)
	assert.True(t, strings.HasSuffix(line, ": hello"), line)
}

func TestEmission_FilteringIsMonotonic(t *testing.T) {
	for _, threshold := range AllLevels() {
		r, out, _ := newBufferRegistry(t, threshold)
		l := r.NewLogger(nil, WithName("mono"), WithFormat("%(levelname)s"))

		for _, level := range AllLevels() {
			l.Log(level, "x")
		}

		var want []string
		for _, level := range AllLevels() {
			if level >= threshold {
				want = append(want, level.String())
			}
		}
		assert.Equal(t, want, out.Lines(), "threshold %s", threshold)
	}
}

func TestEmission_TraceOnlyAtTraceLevel(t *testing.T) {
	r, out, _ := newBufferRegistry(t, DebugLevel)
	l := r.NewLogger(nil, WithName("t"), WithFormat("%(message)s"))

	l.Trace("hidden")
	l.Debug("shown")
	assert.Equal(t, []string{"shown"}, out.Lines())

	l.SetLevel(TraceLevel)
	require.NoError(t, l.SetHandler(NewStreamHandler(out, TraceLevel, "%(levelname)s %(message)s", false)))
	l.Trace("visible")
	assert.Contains(t, out.String(), "TRACE visible")
}

func TestEmission_Variants(t *testing.T) {
	r, out, _ := newBufferRegistry(t, TraceLevel)
	l := r.NewLogger(nil, WithName("v"), WithFormat("%(message)s"))

	l.Infof("port %d", 8080)
	l.InfoKV("request completed", "status", 200, "path", "/api", 7, "skipped", "odd")
	l.Info("a", 1, 2, "b")
	l.DebugJSON("user", map[string]int{"id": 1})
	l.Logf(Level(25), "custom %s", "level")

	got := out.String()
	assert.Contains(t, got, "port 8080\n")
	assert.Contains(t, got, "request completed status=200 path=/api\n")
	assert.Contains(t, got, "a1 2b\n")
	assert.Contains(t, got, "user type:map[string]int data:\n")
	assert.Contains(t, got, `"id": 1`)
	assert.Contains(t, got, "custom level\n")
}

func TestEmission_JSONNotSerializedWhenFiltered(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithName("j"))

	l.DebugJSON("never", panickyMarshaler{})
	assert.Empty(t, out.String())
}

func TestErrorTB(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithName("tb"), WithFormat("%(levelname)s %(message)s"))

	l.ErrorTB(nil, "nothing failed")
	assert.Equal(t, "ERROR nothing failed\nERROR "+noActiveException+"\n", out.String())
}

func TestErrorTB_UsesRecordedStack(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithName("tb"), WithFormat("%(message)s"))

	err := errors.Wrap(errors.New("disk full"), "save")
	l.ErrorTB(err, "save failed")

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "save failed\nTraceback:\nsave: disk full"), got)
	assert.Contains(t, got, "TestErrorTB_UsesRecordedStack")
	assert.Contains(t, got, "logger_behavior_test.go")
}

func TestErrorTB_PlainErrorGetsCallStack(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithName("tb"), WithFormat("%(message)s"))

	l.ErrorTB(assert.AnError, "boom")

	got := out.String()
	assert.Contains(t, got, assert.AnError.Error())
	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 4, got)
	assert.Equal(t, "Traceback:", lines[1])
	assert.True(t, strings.HasSuffix(lines[3], ".TestErrorTB_PlainErrorGetsCallStack"), "stack starts at the caller: %q", lines[3])
	assert.NotContains(t, got, "(*Logger).ErrorTB")
	assert.NotContains(t, got, "logger.traceback")
}

func TestAPI_LevelFromStatus(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithName("api"), WithFormat("%(levelname)s %(message)s"))

	l.API(200, "ok")
	l.API(301, "moved")
	l.API(404, "missing", "path", "/x")
	l.API(503, "down")

	assert.Equal(t, []string{
		"INFO [200] ok",
		"INFO [301] moved",
		"WARNING [404] missing path=/x",
		"ERROR [503] down",
	}, out.Lines())
}

func TestInit_RoutesToConfiguredStream(t *testing.T) {
	t.Setenv("JOURNAL_STREAM", "")
	stdout, stderr := captureOutputs(t)
	r := NewRegistry(WithHandlerFactory(Config{Output: "stdout"}.HandlerFactory()))
	t.Cleanup(func() { _ = r.Close() })

	l := r.NewLogger(nil, WithName("routing"))
	l.Info("to stdout")

	assert.Contains(t, stdout.String(), "to stdout")
	assert.Empty(t, stderr.String())
}

func TestInit_SetsDefaultRegistry(t *testing.T) {
	t.Setenv("JOURNAL_STREAM", "")
	_, stderr := captureOutputs(t)
	old := Default
	Default = NewRegistry()
	t.Cleanup(func() {
		_ = Default.Close()
		Default = old
	})

	Init(Config{Level: DebugLevel, Format: "%(levelname)s:%(message)s"})
	assert.Equal(t, DebugLevel, GetDefaultLevel())

	l := NewLogger(nil, WithName("init"))
	l.Debug("dbg")
	assert.Equal(t, "DEBUG:dbg\n", stderr.String())
}

func TestInit_LevelFromEnvironment(t *testing.T) {
	t.Setenv("LOGGER_LEVEL", "warning")
	assert.Equal(t, WarningLevel, Config{}.defaultLevel())
	assert.Equal(t, ErrorLevel, Config{Level: ErrorLevel}.defaultLevel())

	t.Setenv("LOGGER_LEVEL", "nonsense")
	assert.Equal(t, InfoLevel, Config{}.defaultLevel())
}

func TestPlainOutput_NoAnsi(t *testing.T) {
	t.Setenv("JOURNAL_STREAM", "")
	_, stderr := captureOutputs(t)
	r := NewRegistry()
	t.Cleanup(func() { _ = r.Close() })

	r.NewLogger(nil, WithName("plain")).Error("plain-error")

	assert.Contains(t, stderr.String(), "plain-error")
	assert.NotContains(t, stderr.String(), "\033[")
}

func TestColorizedOutput_UsesAnsi(t *testing.T) {
	_, stderr := captureOutputs(t)
	r := NewRegistry(WithHandlerFactory(Config{Colorize: true}.HandlerFactory()))
	t.Cleanup(func() { _ = r.Close() })

	r.NewLogger(nil, WithName("color")).Info("color-info")

	assert.Contains(t, stderr.String(), "\033[32mINFO\033[0m")
}

func TestSyslogPrefixWhenJournalStreamSet(t *testing.T) {
	t.Setenv("JOURNAL_STREAM", "1:2")
	var buf syncBuffer
	h := NewStreamHandler(&buf, TraceLevel, "%(message)s", false)

	require.NoError(t, h.Handle(Record{Level: DebugLevel, Message: "dbg"}))
	require.NoError(t, h.Handle(Record{Level: ErrorLevel, Message: "line1\nline2"}))

	assert.Equal(t, "<7>dbg\n<3>line1\n<3>line2\n", buf.String())
}

func TestSyslogPrefixForLevels(t *testing.T) {
	cases := map[Level]string{
		TraceLevel:    "<7>",
		DebugLevel:    "<7>",
		InfoLevel:     "<6>",
		WarningLevel:  "<4>",
		ErrorLevel:    "<3>",
		CriticalLevel: "<2>",
		Level(45):     "<3>",
	}
	for level, want := range cases {
		assert.Equal(t, want, syslogPrefixForLevel(level), level.String())
	}
}

func TestHandlerWriteErrorsAreReported(t *testing.T) {
	r, _, errOut := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithName("failing"))
	require.NoError(t, l.SetHandler(&recordingHandler{level: InfoLevel, failing: assert.AnError}))

	assert.NotPanics(t, func() { l.Info("lost") })
	assert.Contains(t, errOut.String(), assert.AnError.Error())
}

func TestFactoryFailureFallsBack(t *testing.T) {
	t.Setenv("JOURNAL_STREAM", "")
	_, stderr := captureOutputs(t)
	var errOut syncBuffer
	r := NewRegistry(
		WithErrorOutput(&errOut),
		WithHandlerFactory(func(Level, string) (Handler, error) {
			return nil, errors.New("no sink")
		}),
	)
	t.Cleanup(func() { _ = r.Close() })

	l := r.NewLogger(nil, WithName("fallback"), WithFormat("%(message)s"))
	l.Info("still logged")

	assert.Contains(t, errOut.String(), "no sink")
	assert.Equal(t, "still logged\n", stderr.String())
}
