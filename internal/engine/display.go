package engine

import (
	"fmt"
	"html"
	"strings"

	"go.starlark.net/starlark"
)

// HTMLConvertible is implemented by Starlark values that can render
// themselves as an HTML fragment for the browser.
type HTMLConvertible interface {
	starlark.Value
	HTMLFragment() string
}

// OutputSink accumulates HTML fragments in display-call order. Each engine
// owns exactly one sink; the display builtins are bound to it when the
// namespace is seeded.
type OutputSink struct {
	parts []string
}

// Append adds one HTML fragment to the sink.
func (s *OutputSink) Append(fragment string) {
	s.parts = append(s.parts, fragment)
}

// Clear discards all accumulated fragments.
func (s *OutputSink) Clear() {
	s.parts = s.parts[:0]
}

// Fragments returns the accumulated fragments in call order.
func (s *OutputSink) Fragments() []string {
	return s.parts
}

// htmlValue is a raw HTML fragment, produced by the html() builtin.
type htmlValue struct {
	data string
}

func (h htmlValue) String() string        { return "" }
func (h htmlValue) Type() string          { return "html" }
func (h htmlValue) Freeze()               {}
func (h htmlValue) Truth() starlark.Bool  { return starlark.Bool(h.data != "") }
func (h htmlValue) Hash() (uint32, error) { return starlark.String(h.data).Hash() }
func (h htmlValue) HTMLFragment() string  { return h.data }

// markdownValue wraps markdown prose for front-end rendering.
type markdownValue struct {
	data string
}

func (m markdownValue) String() string        { return "" }
func (m markdownValue) Type() string          { return "markdown" }
func (m markdownValue) Freeze()               {}
func (m markdownValue) Truth() starlark.Bool  { return starlark.Bool(m.data != "") }
func (m markdownValue) Hash() (uint32, error) { return starlark.String(m.data).Hash() }

func (m markdownValue) HTMLFragment() string {
	return fmt.Sprintf(`<div class="markdown-content">%s</div>`, m.data)
}

// displayBuiltins returns the rich-output builtins bound to the given sink.
// The text writer receives the plain rendering of values that have no HTML
// representation, so they surface in the text output instead.
func displayBuiltins(sink *OutputSink, text *strings.Builder) starlark.StringDict {
	display := starlark.NewBuiltin("display", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		for _, v := range args {
			if conv, ok := v.(HTMLConvertible); ok {
				sink.Append(conv.HTMLFragment())
				continue
			}
			if v == starlark.None {
				continue
			}
			fmt.Fprintln(text, plainString(v))
		}
		return starlark.None, nil
	})

	htmlFn := starlark.NewBuiltin("html", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var data string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &data); err != nil {
			return nil, err
		}
		return htmlValue{data: data}, nil
	})

	markdownFn := starlark.NewBuiltin("markdown", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var data string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &data); err != nil {
			return nil, err
		}
		return markdownValue{data: data}, nil
	})

	clearOutput := starlark.NewBuiltin("clear_output", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		sink.Clear()
		return starlark.None, nil
	})

	return starlark.StringDict{
		"display":      display,
		"html":         htmlFn,
		"markdown":     markdownFn,
		"clear_output": clearOutput,
		"table":        starlark.NewBuiltin("table", makeTable),
		"bar_chart":    starlark.NewBuiltin("bar_chart", makeBarChart),
		"line_chart":   starlark.NewBuiltin("line_chart", makeLineChart),
	}
}

// plainString renders a value for the text stream: strings bare, everything
// else in Starlark notation.
func plainString(v starlark.Value) string {
	if s, ok := v.(starlark.String); ok {
		return string(s)
	}
	return v.String()
}

// escape is a convenience for chart/table rendering.
func escape(s string) string {
	return html.EscapeString(s)
}
