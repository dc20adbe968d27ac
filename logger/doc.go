// Package logger provides hierarchical, level-filtered loggers with a TRACE
// level below DEBUG, caller attribution, structured value dumps and a
// function tracer.
//
// # Levels
//
// Levels are plain integers: TRACE(5) < DEBUG(10) < INFO(20) < WARNING(30) <
// ERROR(40) < CRITICAL(50). FATAL is an alias of CRITICAL and never exits the
// process. New loggers get the registry's default level, INFO unless changed:
//
//	logger.SetDefaultLevel(logger.TraceLevel)
//	LOGGER_LEVEL=debug ./myapp
//
// # Loggers
//
// The first NewLogger call starts a hierarchy; later calls without a parent
// create children of that root. Names default to the calling function:
//
//	log := logger.NewLogger(nil)
//	db := log.GetChild("db")
//	db.Infof("connected to %s", dsn)
//	db.InfoKV("query", "rows", 12, "ms", 3)
//	db.DebugJSON("config", cfg)
//
// Every record carries the file and line of the code that issued it, never a
// location inside this package.
//
// # Tracing
//
// Trace wraps a function so each call logs its caller, arguments and return
// values at TRACE:
//
//	parse := logger.Trace(parseHeader)
//	hdr, err := parse(raw)
//
// # Output
//
// Records are rendered with a %(field)s format, DefaultFormat unless set.
// Init picks the console stream, ANSI colors and an optional log file;
// journald priority prefixes are added to plain output when JOURNAL_STREAM is
// set. Call Close at shutdown to close log files.
package logger
