package logger

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Frame identifies the source location that issued a log call.
type Frame struct {
	File     string
	Line     int
	Function string
}

// UnknownFrame is returned when no frame outside the facility could be found.
var UnknownFrame = Frame{File: "(unknown file)", Line: 0, Function: "(unknown function)"}

const (
	// maxCallerDepth bounds the walk performed for every emitted record.
	maxCallerDepth = 64
	// callerNameLookBack bounds the walk used to auto-name loggers.
	callerNameLookBack = 8
)

// facilityPackage is the import path of this package, determined at startup.
var facilityPackage = reflect.TypeOf((*Logger)(nil)).Elem().PkgPath()

// facilityPrefixes are the function-name prefixes of frames that never count as a caller.
// reflect and runtime frames sit between a traced function's caller and the tracer.
var facilityPrefixes = []string{
	facilityPackage + ".",
	"reflect.",
	"runtime.",
}

// String renders the frame as file:line.
func (f Frame) String() string {
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// ShortFunction returns the function name without its package path.
func (f Frame) ShortFunction() string {
	_, fn := splitFuncName(f.Function)
	return fn
}

// isFacilityFrame reports whether frame belongs to the facility's own implementation.
// Test files of this package are treated as callers.
func isFacilityFrame(frame runtime.Frame) bool {
	if strings.HasSuffix(frame.File, "_test.go") {
		return false
	}
	for _, prefix := range facilityPrefixes {
		if strings.HasPrefix(frame.Function, prefix) {
			return true
		}
	}
	return false
}

// ResolveCaller walks the stack, starting skip frames above its own caller, and
// returns the first frame that does not belong to the facility. UnknownFrame is
// returned when the stack is exhausted.
func ResolveCaller(skip int) Frame {
	if skip < 0 {
		skip = 0
	}
	pcs := make([]uintptr, maxCallerDepth)
	// 0: Callers, 1: ResolveCaller.
	n := runtime.Callers(2+skip, pcs)
	if n == 0 {
		return UnknownFrame
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !isFacilityFrame(frame) {
			return Frame{File: frame.File, Line: frame.Line, Function: frame.Function}
		}
		if !more {
			break
		}
	}
	return UnknownFrame
}

// callerName returns the short name of the nearest function outside the facility,
// looking back at most callerNameLookBack frames. Empty when none is found.
func callerName() string {
	pcs := make([]uintptr, callerNameLookBack)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !isFacilityFrame(frame) {
			_, fn := splitFuncName(frame.Function)
			return fn
		}
		if !more {
			return ""
		}
	}
}

// splitFuncName splits "github.com/a/b.(*T).M" into "github.com/a/b" and "(*T).M".
func splitFuncName(full string) (pkg, fn string) {
	lastSlash := strings.LastIndex(full, "/")
	dot := strings.Index(full[lastSlash+1:], ".")
	if dot < 0 {
		return "", full
	}
	dot += lastSlash + 1
	return full[:dot], full[dot+1:]
}
