package parser

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE []byte

// ValidationError reports a structured notebook file that does not satisfy
// the schema.
type ValidationError struct {
	Message string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s:\n%s", e.Message, e.Details)
	}
	return e.Message
}

// ValidateNotebookJSON checks a structured notebook file against the
// embedded CUE schema. A nil return means the file is safe to parse.
func ValidateNotebookJSON(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile notebook schema: %w", err)
	}

	expr, err := cuejson.Extract("notebook.json", data)
	if err != nil {
		return &ValidationError{
			Message: "notebook file is not valid JSON",
			Details: cueerrors.Details(err, nil),
		}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return &ValidationError{
			Message: "notebook file could not be loaded",
			Details: cueerrors.Details(err, nil),
		}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{
			Message: "notebook file does not match the expected layout",
			Details: cueerrors.Details(err, nil),
		}
	}
	return nil
}
