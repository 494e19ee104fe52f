package engine

import (
	"sort"
	"strings"
	"sync"
	"time"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/notebookd/notebookd/internal/starval"
)

// Result is the outcome of one cell execution.
type Result struct {
	// Output is the combined text stream: print output, with the warning
	// stream appended under a [stderr] separator when non-empty.
	Output string `json:"output_text"`
	// HTML holds the rich output fragments joined in call order.
	HTML string `json:"output_html"`
	// Error is empty on success; otherwise it carries the failure type,
	// message and backtrace. Execute never propagates an error.
	Error string `json:"error"`
	// Elapsed is the wall-clock execution time in seconds.
	Elapsed float64 `json:"execution_time"`
}

// OK reports whether the execution succeeded.
func (r Result) OK() bool { return r.Error == "" }

// Engine executes cell source against one session's persistent namespace.
// Safe for concurrent use: Execute, SetVar, GetVar and Reset serialize on an
// internal mutex, so at most one cell runs per session at a time.
type Engine struct {
	mu        sync.Mutex
	basePath  string
	namespace starlark.StringDict
	sink      *OutputSink
	stdout    strings.Builder
	stderr    strings.Builder
	fileOpts  *syntax.FileOptions
}

// New creates an engine. basePath, when non-empty, is exposed to cells as
// BASE_PATH/PATH and used to rewrite hosted-environment data paths.
func New(basePath string) *Engine {
	e := &Engine{
		basePath: basePath,
		sink:     &OutputSink{},
		fileOpts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
	}
	e.seedNamespace()
	return e
}

// Execute runs source against the namespace after substituting params and
// sanitizing hosted-notebook directives. The timeout argument is accepted
// for call-signature stability but not enforced; execution always runs to
// completion on the caller's goroutine.
func (e *Engine) Execute(source string, params map[string]any, timeout time.Duration) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = timeout

	e.sink.Clear()
	e.stdout.Reset()
	e.stderr.Reset()

	src := SubstituteParams(source, params)
	src = Sanitize(src, e.basePath)

	thread := &starlark.Thread{
		Name: "cell",
		Print: func(_ *starlark.Thread, msg string) {
			e.stdout.WriteString(msg)
			e.stdout.WriteByte('\n')
		},
	}

	start := time.Now()
	globals, err := e.run(thread, src)
	elapsed := time.Since(start).Seconds()

	// Keep whatever was defined before a failure: a failing cell must not
	// roll back earlier assignments, matching interpreter semantics.
	for name, v := range globals {
		e.namespace[name] = v
	}

	res := Result{Elapsed: elapsed}
	if err != nil {
		// A failed run yields no rich output, even when display calls ran
		// before the failure.
		res.Error = errorText(err)
	} else {
		fragments := append([]string(nil), e.sink.Fragments()...)
		fragments = append(fragments, e.collectCharts()...)
		res.HTML = strings.Join(fragments, "\n")
	}

	out := e.stdout.String()
	if e.stderr.Len() > 0 {
		out += "\n[stderr]\n" + e.stderr.String()
	}
	res.Output = out

	return res
}

// run parses and executes src. The namespace acts as the predeclared
// environment; the returned globals carry the cell's new top-level bindings.
// Globals are not frozen, so values stay mutable across cell runs.
func (e *Engine) run(thread *starlark.Thread, src string) (starlark.StringDict, error) {
	f, err := e.fileOpts.Parse("<cell>", src, 0)
	if err != nil {
		return nil, err
	}
	prog, err := starlark.FileProgram(f, e.namespace.Has)
	if err != nil {
		return nil, err
	}
	return prog.Init(thread, e.namespace)
}

// collectCharts returns the HTML of chart values still bound to namespace
// variables, in name order.
func (e *Engine) collectCharts() []string {
	var names []string
	for name, v := range e.namespace {
		if _, ok := v.(*Chart); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	fragments := make([]string, len(names))
	for i, name := range names {
		fragments[i] = e.namespace[name].(*Chart).HTMLFragment()
	}
	return fragments
}

// SetVar binds a Go value directly into the namespace.
func (e *Engine) SetVar(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.namespace[name] = starval.ToStarlark(value)
}

// GetVar reads a namespace variable as a Go value. The second result is
// false when the name is unbound.
func (e *Engine) GetVar(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.namespace[name]
	if !ok {
		return nil, false
	}
	return starval.FromStarlark(v), true
}

// Reset wipes the namespace and output buffers and re-seeds the builtins,
// common modules and base-path variables. Equivalent to a fresh engine with
// the same base path.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seedNamespace()
	e.sink.Clear()
	e.stdout.Reset()
	e.stderr.Reset()
}

// seedNamespace installs the initial environment: the json/math/time
// modules, the display builtins bound to this engine's sink, the warning
// stream builtin, and the base-path convenience variables.
func (e *Engine) seedNamespace() {
	ns := starlark.StringDict{
		"json": starlarkjson.Module,
		"math": starlarkmath.Module,
		"time": starlarktime.Module,
	}
	for name, v := range displayBuiltins(e.sink, &e.stdout) {
		ns[name] = v
	}
	ns["eprint"] = starlark.NewBuiltin("eprint", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		parts := make([]string, len(args))
		for i, v := range args {
			parts[i] = plainString(v)
		}
		e.stderr.WriteString(strings.Join(parts, " "))
		e.stderr.WriteByte('\n')
		return starlark.None, nil
	})
	if e.basePath != "" {
		ns["BASE_PATH"] = starlark.String(e.basePath)
		ns["PATH"] = starlark.String(e.basePath)
	}
	e.namespace = ns
}
