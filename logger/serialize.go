package logger

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Fields carries named values for the structured (*JSON) emission methods.
type Fields map[string]any

const (
	serializeIndent = 2
	// maxSerializeDepth bounds nesting; deeper values are treated as cyclic.
	maxSerializeDepth = 100
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Serialize renders v as indented JSON, each line shifted right to sit under
// the log prefix. ok is false when v cannot be serialized; it never panics.
func Serialize(v any) (out string, ok bool) {
	s, err := serialize(v, serializeIndent)
	if err != nil {
		return "", false
	}
	return s, true
}

func serialize(v any, indent int) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", errors.Wrapf(errSerialization, "marshal panicked: %v", r)
		}
	}()

	v = normalize(v)
	if cyclic(reflect.ValueOf(v), make(map[uintptr]bool), 0) {
		return "", errors.Wrapf(errSerialization, "%T: cyclic or too deeply nested", v)
	}
	b, err := jsonAPI.MarshalIndent(v, "", strings.Repeat(" ", indent))
	if err != nil {
		return "", errors.Wrapf(errSerialization, "%T: %v", v, err)
	}

	pad := strings.Repeat(" ", indent*2)
	lines := strings.Split(string(b), "\n")
	for i, line := range lines {
		lines[i] = pad + line
	}
	return strings.Join(lines, "\n"), nil
}

// normalize converts the recognised non-primitive values to an explicit textual form.
func normalize(v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = v
		}
	}()

	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(time.RFC3339Nano)
	case error:
		return t.Error()
	}
	return v
}

// cyclic reports whether v reaches a pointer or map already on the current
// path, or nests deeper than maxSerializeDepth. The encoder has no cycle
// detection of its own.
func cyclic(v reflect.Value, path map[uintptr]bool, depth int) bool {
	if depth > maxSerializeDepth {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		if v.IsNil() {
			return false
		}
		p := v.Pointer()
		if path[p] {
			return true
		}
		path[p] = true
		defer delete(path, p)
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return cyclic(v.Elem(), path, depth+1)
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).IsExported() && cyclic(v.Field(i), path, depth+1) {
				return true
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if cyclic(iter.Value(), path, depth+1) {
				return true
			}
		}
	case reflect.Slice, reflect.Array:
		if isScalarKind(v.Type().Elem().Kind()) {
			return false
		}
		for i := 0; i < v.Len(); i++ {
			if cyclic(v.Index(i), path, depth+1) {
				return true
			}
		}
	}
	return false
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

// Describe returns "<label> type:<T> data:\n<json>", or "<label> type:<T>"
// when v cannot be serialized.
func Describe(label string, v any) string {
	if s, ok := Serialize(v); ok {
		return fmt.Sprintf("%s type:%s data:\n%s", label, typeName(v), s)
	}
	return fmt.Sprintf("%s type:%s", label, typeName(v))
}

type describeContainer struct {
	Values []any          `json:"values"`
	Named  map[string]any `json:"named,omitempty"`
}

// DescribeAll wraps positional and named values into one structured rendering,
// falling back to a plain "[values, named]" form.
func DescribeAll(values []any, named map[string]any) string {
	if values == nil {
		values = []any{}
	}
	normalized := make([]any, len(values))
	for i, v := range values {
		normalized[i] = normalize(v)
	}
	var namedNorm map[string]any
	if len(named) > 0 {
		namedNorm = make(map[string]any, len(named))
		for k, v := range named {
			namedNorm[k] = normalize(v)
		}
	}

	if s, ok := Serialize(describeContainer{Values: normalized, Named: namedNorm}); ok {
		return s
	}
	return fmt.Sprintf("[%v, %v]", values, named)
}

// describeArgs picks the labeled form for exactly (string, value) and the
// general form otherwise, collecting Fields arguments as named values.
func describeArgs(args ...any) string {
	if len(args) == 2 {
		if label, ok := args[0].(string); ok {
			return Describe(label, args[1])
		}
	}

	var values []any
	var named map[string]any
	for _, arg := range args {
		if f, ok := arg.(Fields); ok {
			if named == nil {
				named = make(map[string]any, len(f))
			}
			for k, v := range f {
				named[k] = v
			}
			continue
		}
		values = append(values, arg)
	}
	return DescribeAll(values, named)
}
