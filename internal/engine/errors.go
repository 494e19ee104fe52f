package engine

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
)

// errorText renders an execution failure as the error string reported in a
// Result: failure type, message, and backtrace when one exists. Callers see
// failures only as data; nothing propagates.
func errorText(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return fmt.Sprintf("EvalError: %s\n%s", evalErr.Msg, evalErr.Backtrace())
	}
	// Syntax and resolve errors carry position info in their message.
	return fmt.Sprintf("%T: %v", err, err)
}
