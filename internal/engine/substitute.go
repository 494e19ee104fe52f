package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SubstituteParams rewrites parameter assignments in source text with the
// given values, returning the rewritten source. The transform is purely
// textual and happens before execution.
//
// Policy for each (name, value) pair:
//   - Only the first top-level assignment to name is rewritten. Later
//     reassignments of the same name are deliberately left alone, so cells
//     that derive new values from a parameter keep working.
//   - A trailing comment on the assignment line is preserved verbatim.
//   - Occurrences of the name inside strings, comments, or indented code
//     are never touched: the match requires a bare assignment starting the
//     line. Comparisons like "n == 2" are not assignments and never match.
//
// Names are processed in sorted order so the transform is deterministic.
func SubstituteParams(source string, params map[string]any) string {
	if len(params) == 0 {
		return source
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		source = substituteOne(source, name, params[name])
	}
	return source
}

func substituteOne(source, name string, value any) string {
	// The right-hand side must not begin with "=", so "n == 2" is a
	// comparison, not a match.
	re, err := regexp.Compile(`(?m)^(` + regexp.QuoteMeta(name) + `[ \t]*=[ \t]*)([^=\n].*|)$`)
	if err != nil {
		return source
	}
	loc := re.FindStringSubmatchIndex(source)
	if loc == nil {
		return source
	}

	rhs := source[loc[4]:loc[5]]
	rendered := RenderLiteral(value)
	if comment := trailingComment(rhs); comment != "" {
		rendered += "  " + comment
	}

	return source[:loc[4]] + rendered + source[loc[5]:]
}

// trailingComment returns the comment portion of an assignment line's
// right-hand side, or "" when there is none. A hash inside a string literal
// does not start a comment.
func trailingComment(rhs string) string {
	var quote byte
	for i := 0; i < len(rhs); i++ {
		c := rhs[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return rhs[i:]
		}
	}
	return ""
}

// RenderLiteral renders a parameter value as a source literal: strings
// quoted, booleans as True/False, nil as None, numbers in their shortest
// form, and everything else via its default string form.
func RenderLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		return strconv.Quote(v)
	case float64:
		// JSON numbers arrive as float64; keep integral values integral.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = RenderLiteral(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
