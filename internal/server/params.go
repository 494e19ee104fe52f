package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notebookd/notebookd/internal/nb"
)

// resolveParams builds the value map for one run of a cell. For each
// declared parameter the request value wins, then the session's remembered
// value, then the stored default. Request keys that match no declared
// parameter are ignored.
func resolveParams(cell nb.Cell, session nb.Session, requested map[string]any) map[string]any {
	if len(cell.Parameters) == 0 {
		return nil
	}
	params := make(map[string]any, len(cell.Parameters))
	for _, p := range cell.Parameters {
		if v, ok := requested[p.Name]; ok {
			params[p.Name] = coerceValue(p, v)
			continue
		}
		if v, ok := session.ParamValues[nb.ParamKey(cell.ID, p.Name)]; ok {
			params[p.Name] = coerceValue(p, v)
			continue
		}
		params[p.Name] = defaultValue(p)
	}
	return params
}

// coerceValue converts a client-supplied value to the parameter's declared
// type. Form clients send everything as strings; JSON clients send typed
// values. An unconvertible value falls back to the stored default.
func coerceValue(p nb.Parameter, v any) any {
	switch p.Type {
	case nb.ParamBoolean:
		switch x := v.(type) {
		case bool:
			return x
		case string:
			return strings.EqualFold(x, "true") || x == "1" || x == "on"
		}
		return defaultValue(p)

	case nb.ParamNumber, nb.ParamSlider:
		switch x := v.(type) {
		case float64:
			return x
		case int64:
			return float64(x)
		case int:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return f
			}
		}
		return defaultValue(p)

	default:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
}

// defaultValue parses a parameter's stored default text into a typed value.
func defaultValue(p nb.Parameter) any {
	switch p.Type {
	case nb.ParamBoolean:
		return strings.EqualFold(p.Default, "true")
	case nb.ParamNumber, nb.ParamSlider:
		f, err := strconv.ParseFloat(p.Default, 64)
		if err != nil {
			return float64(0)
		}
		return f
	default:
		return p.Default
	}
}
