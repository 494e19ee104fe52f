// Package starval converts between Go values and Starlark values, and
// evaluates literal expressions found in directive lines.
package starval

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
)

// ToStarlark converts a Go value to its Starlark representation.
// Unsupported types fall back to a Starlark string of their fmt rendering.
func ToStarlark(v any) starlark.Value {
	switch v := v.(type) {
	case nil:
		return starlark.None
	case bool:
		return starlark.Bool(v)
	case string:
		return starlark.String(v)
	case []byte:
		return starlark.Bytes(v)
	case int:
		return starlark.MakeInt(v)
	case int32:
		return starlark.MakeInt(int(v))
	case int64:
		return starlark.MakeInt64(v)
	case uint:
		return starlark.MakeUint(v)
	case uint64:
		return starlark.MakeUint64(v)
	case float32:
		return starlark.Float(v)
	case float64:
		return starlark.Float(v)
	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			elems[i] = ToStarlark(e)
		}
		return starlark.NewList(elems)
	case []string:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			elems[i] = starlark.String(e)
		}
		return starlark.NewList(elems)
	case map[string]any:
		d := starlark.NewDict(len(v))
		for k, e := range v {
			_ = d.SetKey(starlark.String(k), ToStarlark(e))
		}
		return d
	default:
		return starlark.String(fmt.Sprint(v))
	}
}

// FromStarlark converts a Starlark value to a plain Go value suitable for
// JSON serialization. Ints that do not fit in int64 are rendered as strings.
func FromStarlark(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.String:
		return string(v)
	case starlark.Bytes:
		return []byte(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case *starlark.List:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = FromStarlark(v.Index(i))
		}
		return out
	case starlark.Tuple:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = FromStarlark(e)
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				key = starlark.String(item[0].String())
			}
			out[string(key)] = FromStarlark(item[1])
		}
		return out
	default:
		return v.String()
	}
}

// EvalLiteral evaluates a right-hand-side expression as a literal value.
// When evaluation fails (the expression references names, calls functions,
// or is simply malformed) the raw text is returned as a string with
// surrounding quotes stripped, matching the parser's fallback contract.
func EvalLiteral(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	thread := &starlark.Thread{Name: "literal"}
	v, err := starlark.Eval(thread, "<literal>", raw, nil)
	if err != nil {
		return StripQuotes(raw)
	}
	return FromStarlark(v)
}

// StripQuotes removes one layer of matching single or double quotes.
func StripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
