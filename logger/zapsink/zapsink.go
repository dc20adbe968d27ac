// Package zapsink provides a logger.Handler that encodes records with zap,
// as JSON for log shippers or as zap's console layout.
package zapsink

import (
	"io"
	"math"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mordilloSan/simplelogger/logger"
)

// Encodings understood by New and Factory.
const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

// Options configures Factory.
type Options struct {
	// Encoding is EncodingJSON or EncodingConsole.
	// Default: EncodingConsole
	Encoding string
	// OutputPaths are opened with zap.Open ("stdout", "stderr" or file paths).
	// Default: ["stderr"]
	OutputPaths []string
}

// Handler writes records through a zapcore.Core. Level numbers are passed to
// zap unchanged and rendered with logger.Level names.
type Handler struct {
	core     zapcore.Core
	out      zapcore.WriteSyncer
	closeOut func()
	level    logger.Level
	encoding string
}

// New returns a handler encoding to w. w is not closed by Close.
func New(w io.Writer, level logger.Level, encoding string) *Handler {
	return newHandler(zapcore.AddSync(w), nil, level, encoding)
}

// Factory returns a logger.HandlerFactory opening opts.OutputPaths for every
// new logger. The format argument is ignored; zap owns the layout.
func Factory(opts Options) logger.HandlerFactory {
	return func(level logger.Level, _ string) (logger.Handler, error) {
		paths := opts.OutputPaths
		if len(paths) == 0 {
			paths = []string{"stderr"}
		}
		out, closeOut, err := zap.Open(paths...)
		if err != nil {
			return nil, errors.Wrapf(err, "open zap outputs %s", strings.Join(paths, ","))
		}
		return newHandler(out, closeOut, level, opts.Encoding), nil
	}
}

func newHandler(out zapcore.WriteSyncer, closeOut func(), level logger.Level, encoding string) *Handler {
	h := &Handler{out: out, closeOut: closeOut, level: level, encoding: encoding}

	var enc zapcore.Encoder
	if encoding == EncodingJSON {
		enc = zapcore.NewJSONEncoder(encoderConfig(zap.NewProductionEncoderConfig()))
	} else {
		h.encoding = EncodingConsole
		enc = zapcore.NewConsoleEncoder(encoderConfig(zap.NewDevelopmentEncoderConfig()))
	}
	enabled := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return logger.Level(l) >= h.level
	})
	// zap syncs after every entry above its own ErrorLevel, which covers
	// nearly every level here; syncing is left to Flush instead.
	h.core = zapcore.NewCore(enc, noSync{out}, enabled)
	return h
}

func encoderConfig(cfg zapcore.EncoderConfig) zapcore.EncoderConfig {
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.NameKey = "logger"
	cfg.FunctionKey = "func"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = encodeLevel
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(logger.Level(l).String())
}

// toZapLevel clamps level into zapcore.Level's int8 range.
func toZapLevel(level logger.Level) zapcore.Level {
	switch {
	case level > math.MaxInt8:
		return zapcore.Level(math.MaxInt8)
	case level < math.MinInt8:
		return zapcore.Level(math.MinInt8)
	}
	return zapcore.Level(level)
}

// Level returns the handler's threshold.
func (h *Handler) Level() logger.Level {
	return h.level
}

// Encoding returns EncodingJSON or EncodingConsole.
func (h *Handler) Encoding() string {
	return h.encoding
}

// Handle encodes rec as one zap entry.
func (h *Handler) Handle(rec logger.Record) error {
	ent := zapcore.Entry{
		Level:      toZapLevel(rec.Level),
		Time:       time.Now(),
		LoggerName: rec.Name,
		Message:    rec.Message,
		Caller: zapcore.EntryCaller{
			Defined:  rec.Caller.Line > 0,
			File:     rec.Caller.File,
			Line:     rec.Caller.Line,
			Function: rec.Caller.Function,
		},
	}
	if err := h.core.Write(ent, nil); err != nil {
		return errors.Wrap(err, "zap write")
	}
	return nil
}

// Flush syncs the outputs. Terminals and pipes that cannot sync are not an error.
func (h *Handler) Flush() error {
	err := h.out.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// Close flushes and closes outputs opened by Factory.
func (h *Handler) Close() error {
	err := h.Flush()
	if h.closeOut != nil {
		h.closeOut()
		h.closeOut = nil
	}
	return err
}

// noSync hides Sync from zapcore so entries are not synced one by one.
type noSync struct {
	zapcore.WriteSyncer
}

func (noSync) Sync() error { return nil }
