package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOrdering(t *testing.T) {
	levels := AllLevels()
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1], levels[i])
	}
	assert.Less(t, TraceLevel, DebugLevel)
	assert.Greater(t, TraceLevel, NotSet)
	assert.Equal(t, Level(5), TraceLevel)
	assert.Equal(t, WarningLevel, WarnLevel)
	assert.Equal(t, CriticalLevel, FatalLevel)
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		TraceLevel:    "TRACE",
		DebugLevel:    "DEBUG",
		InfoLevel:     "INFO",
		WarningLevel:  "WARNING",
		ErrorLevel:    "ERROR",
		CriticalLevel: "CRITICAL",
		NotSet:        "NOTSET",
		Level(17):     "Level 17",
	}
	for level, want := range cases {
		assert.Equal(t, want, level.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":    TraceLevel,
		"DEBUG":    DebugLevel,
		" info ":   InfoLevel,
		"warn":     WarningLevel,
		"Warning":  WarningLevel,
		"fatal":    CriticalLevel,
		"critical": CriticalLevel,
		"15":       Level(15),
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.True(t, IsInvalidArgument(err))
}

func TestLevelFromValue(t *testing.T) {
	for _, v := range []any{int8(5), 5, int64(5), uint(5), 5.0, TraceLevel} {
		got, err := LevelFromValue(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, TraceLevel, got)
	}

	for _, v := range []any{"5", 5.5, nil, []int{5}} {
		_, err := LevelFromValue(v)
		assert.True(t, IsInvalidArgument(err), "%T", v)
	}
}

func TestSetDefaultLevelFrom(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, InfoLevel, r.DefaultLevel())

	got, err := r.SetDefaultLevelFrom(5)
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, got)
	assert.Equal(t, TraceLevel, r.DefaultLevel())

	_, err = r.SetDefaultLevelFrom("debug")
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	assert.Equal(t, TraceLevel, r.DefaultLevel(), "failed call must not change the default")

	assert.Equal(t, Level(33), r.SetDefaultLevel(Level(33)), "unnamed levels are accepted")
}

func TestDefaultLevelDoesNotChangeExistingLoggers(t *testing.T) {
	r, out, _ := newBufferRegistry(t, InfoLevel)
	l := r.NewLogger(nil, WithName("app"), WithFormat("%(message)s"))

	r.SetDefaultLevel(TraceLevel)
	l.Debug("still filtered")

	assert.Empty(t, out.String())
	assert.Equal(t, InfoLevel, l.Level())
}
