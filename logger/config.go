package logger

import (
	"io"
	"os"
	"strings"
)

// Config defines the console and file handlers built for every new logger.
type Config struct {
	// Level is the default level for new loggers; NotSet falls back to
	// LOGGER_LEVEL when set, otherwise INFO.
	// Default: NotSet
	Level Level
	// Format is the record layout, see Formatter.
	// Default: DefaultFormat
	Format string
	// Colorize enables ANSI color output for the level name on the console.
	// Default: false
	Colorize bool
	// Output selects the console stream: "stderr" or "stdout".
	// Default: "stderr"
	Output string
	// FilePath also writes records to this file (created/appended); empty disables file logging.
	// Default: "" (file logging disabled)
	FilePath string
}

// HandlerFactory returns a factory building a console handler and, when
// FilePath is set, a file handler next to it. The format passed by NewLogger
// wins over Config.Format unless it is the default one.
func (c Config) HandlerFactory() HandlerFactory {
	return func(level Level, format string) (Handler, error) {
		if c.Format != "" && (format == "" || format == DefaultFormat) {
			format = c.Format
		}
		console := NewStreamHandler(c.consoleWriter(), level, format, c.Colorize)
		if c.FilePath == "" {
			return console, nil
		}
		file, err := OpenFileHandler(c.FilePath, level, format)
		if err != nil {
			return console, err
		}
		return NewMultiHandler(console, file), nil
	}
}

func (c Config) consoleWriter() io.Writer {
	if strings.EqualFold(c.Output, "stdout") {
		return stdoutWriter{}
	}
	return stderrWriter{}
}

func (c Config) defaultLevel() Level {
	if c.Level != NotSet {
		return c.Level
	}
	if s := os.Getenv("LOGGER_LEVEL"); s != "" {
		if level, err := ParseLevel(s); err == nil {
			return level
		}
	}
	return InfoLevel
}

// Init configures the Default registry: its default level and the handlers
// given to loggers created from now on. Call Close when shutting down so log
// files are flushed and closed.
func Init(config Config) {
	Default.SetDefaultLevel(config.defaultLevel())
	Default.SetHandlerFactory(config.HandlerFactory())
}

// InitWithFile initializes the Default registry with a file path override.
func InitWithFile(config Config, filePath string) {
	config.FilePath = filePath
	Init(config)
}
