// Package engine executes notebook cells against a session-scoped Starlark
// namespace and owns the registry of live sessions.
//
// ARCHITECTURE:
//
// One Engine per session. The engine holds a single mutable name→value
// namespace that persists across Execute calls. Each Execute:
//
//  1. Substitutes parameter values textually into the source (first
//     top-level assignment per name, directive comments preserved).
//  2. Sanitizes hosted-notebook directives that have no meaning here
//     (dependency installs, drive mounts, import lines, title metadata)
//     and rewrites hosted-environment data paths to the configured base
//     path.
//  3. Runs the source with go.starlark.net, capturing print output and the
//     warning stream into per-run buffers.
//  4. Collects rich output through the engine's output sink: the display
//     builtins render HTML-convertible values into an ordered HTML list;
//     everything else is written to the text stream. Chart values still
//     bound in the namespace after the run are appended as well.
//  5. Converts any failure into an error string (type, message, backtrace).
//     Execute never returns a Go error.
//
// A per-engine mutex serializes Execute so concurrent requests against the
// same session observe one-at-a-time semantics. Different engines share no
// state. There is no cancellation and no timeout enforcement: the timeout
// argument is accepted for interface stability only.
//
// The output sink is an explicit per-engine capability handed to the display
// builtins when the namespace is seeded. Nothing routes through process-wide
// state, so two sessions can render rich output concurrently.
package engine
