package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultFormat is the line layout used when no format is supplied.
const DefaultFormat = "--- %(levelname)s:%(name)s:%(lineno)d: %(message)s"

const asctimeLayout = "2006-01-02 15:04:05,000"

// fieldPattern matches "%%" and "%(field)[flags][width][.precision]verb".
var fieldPattern = regexp.MustCompile(`%%|%\((\w+)\)([-+# 0]*[0-9]*(?:\.[0-9]+)?)([sdr])`)

// Formatter renders a Record into one line using named-field substitution.
//
// Supported fields: levelname, levelno, name, lineno, funcName, filename,
// pathname, module, message, asctime, process. Unknown fields are left as is.
type Formatter struct {
	format   string
	colorize bool
}

// NewFormatter returns a formatter for format; an empty format means DefaultFormat.
// When colorize is set the level name is wrapped in the level's ANSI colour.
func NewFormatter(format string, colorize bool) *Formatter {
	if format == "" {
		format = DefaultFormat
	}
	return &Formatter{format: format, colorize: colorize}
}

// Format renders rec. The timestamp is taken at formatting time.
func (f *Formatter) Format(rec Record) string {
	now := time.Now()
	return fieldPattern.ReplaceAllStringFunc(f.format, func(tok string) string {
		if tok == "%%" {
			return "%"
		}
		m := fieldPattern.FindStringSubmatch(tok)
		val, ok := recordField(m[1], rec, now)
		if !ok {
			return tok
		}

		verb := m[3]
		if verb == "r" {
			if _, isString := val.(string); isString {
				verb = "q"
			} else {
				verb = "v"
			}
		}
		out := fmt.Sprintf("%"+m[2]+verb, val)
		if f.colorize && m[1] == "levelname" {
			if color := levelColor(rec.Level); color != "" {
				out = color + out + colorReset
			}
		}
		return out
	})
}

func recordField(name string, rec Record, now time.Time) (any, bool) {
	switch name {
	case "levelname":
		return rec.Level.String(), true
	case "levelno":
		return int(rec.Level), true
	case "name":
		return rec.Name, true
	case "lineno":
		return rec.Caller.Line, true
	case "funcName":
		return rec.Caller.ShortFunction(), true
	case "filename":
		return filepath.Base(rec.Caller.File), true
	case "pathname":
		return rec.Caller.File, true
	case "module":
		pkg, _ := splitFuncName(rec.Caller.Function)
		return pkg, true
	case "message":
		return rec.Message, true
	case "asctime":
		return now.Format(asctimeLayout), true
	case "process":
		return os.Getpid(), true
	}
	return nil, false
}
