package logger

import (
	"fmt"
	"path"
	"reflect"
	"runtime"
)

const unknownCaller = "unknown:unknown"

// Trace wraps fn so that, while the Default registry's level is TRACE or
// finer, every call records its caller, arguments and results. Values that
// are not functions are returned unchanged.
func Trace[F any](fn F) F {
	return TraceIn(Default, fn)
}

// TraceIn is Trace against the registry r.
//
// For each call a logger named after the target is obtained from r and emits,
// at TRACE: the entering record with the caller location, one record per
// argument, the invoking record, then after the call the exiting record and
// the return value(s). The level is read at call time; above TRACE the call
// goes straight through. Panics in fn propagate unchanged.
func TraceIn[F any](r *Registry, fn F) F {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fn
	}
	target := targetLabel(v)

	wrapped := reflect.MakeFunc(v.Type(), func(args []reflect.Value) []reflect.Value {
		if r.DefaultLevel() > TraceLevel {
			return call(v, args)
		}

		caller := unknownCaller
		if frame := ResolveCaller(0); frame != UnknownFrame {
			caller = frame.String()
		}
		l := r.NewLogger(nil, WithName(target))

		l.Tracef("tracer-entering, caller %s", caller)
		for i, arg := range args {
			l.TraceJSON(fmt.Sprintf("Arg[%d]", i), arg.Interface())
		}
		l.Trace("tracer-invoking")
		out := call(v, args)
		l.Trace("tracer-exiting")

		switch len(out) {
		case 0:
			l.TraceJSON("Return", nil)
		case 1:
			l.TraceJSON("Return", out[0].Interface())
		default:
			for i, res := range out {
				l.TraceJSON(fmt.Sprintf("Return[%d]", i), res.Interface())
			}
		}
		return out
	})
	return wrapped.Interface().(F)
}

func call(fn reflect.Value, args []reflect.Value) []reflect.Value {
	if fn.Type().IsVariadic() {
		return fn.CallSlice(args)
	}
	return fn.Call(args)
}

// targetLabel names fn as "<package>/<function>:<declared line>".
func targetLabel(fn reflect.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return "unknown"
	}
	_, line := f.FileLine(f.Entry())
	pkg, name := splitFuncName(f.Name())
	return fmt.Sprintf("%s/%s:%d", path.Base(pkg), name, line)
}
