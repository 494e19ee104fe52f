package importer

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/notebookd/notebookd/internal/nb"
)

// Export renders persisted cells back to annotated script text. Each cell
// emits its description as a triple-quoted block, a title directive when one
// exists, and its source with every parameter's assignment line rewritten to
// carry the stored default and a directive spec for the stored type.
func Export(notebook nb.Notebook, cells []nb.Cell) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("\n")
		}

		if cell.Type == nb.CellMarkdown {
			body := cell.Source
			if body == "" {
				body = cell.Description
			}
			b.WriteString("\"\"\"\n" + body + "\n\"\"\"\n")
			continue
		}

		if cell.Description != "" {
			b.WriteString("\"\"\"\n" + cell.Description + "\n\"\"\"\n")
		}
		if cell.Title != "" {
			line := "# @title " + cell.Title
			if cell.AutoRun {
				line += ` {"run":"auto"}`
			}
			b.WriteString(line + "\n")
		}

		b.WriteString(rewriteParamLines(cell) + "\n")
	}
	return b.String()
}

// rewriteParamLines replaces the first top-level assignment to each
// parameter's name with a directive line reflecting the stored record.
func rewriteParamLines(cell nb.Cell) string {
	src := cell.Source
	for _, p := range cell.Parameters {
		line := p.Name + " = " + defaultLiteral(p) + "  # @param " + directiveSpec(p)
		// Require a bare assignment: "n == 2" must not be rewritten.
		re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(p.Name) + `[ \t]*=[ \t]*([^=\n].*|)$`)
		if loc := re.FindStringIndex(src); loc != nil {
			src = src[:loc[0]] + line + src[loc[1]:]
		}
	}
	return src
}

// defaultLiteral renders a stored default as a source literal for its type.
func defaultLiteral(p nb.Parameter) string {
	switch p.Type {
	case nb.ParamBoolean:
		if strings.EqualFold(p.Default, "true") {
			return "True"
		}
		return "False"
	case nb.ParamNumber, nb.ParamSlider:
		if p.Default == "" {
			return "0"
		}
		return p.Default
	default:
		return strconv.Quote(p.Default)
	}
}

// directiveSpec renders the @param spec for a stored parameter. Number maps
// back to the null-typed form the parser treats as number.
func directiveSpec(p nb.Parameter) string {
	switch p.Type {
	case nb.ParamDropdown:
		opts, _ := json.Marshal(p.Options)
		return string(opts)
	case nb.ParamString:
		return `{"type":"string"}`
	case nb.ParamBoolean:
		return `{"type":"boolean"}`
	case nb.ParamSlider:
		return `{"type":"slider", "min":` + num(p.Min, 0) +
			`, "max":` + num(p.Max, 100) +
			`, "step":` + num(p.Step, 1) + `}`
	default:
		return `{"type":null}`
	}
}

func num(v *float64, def float64) string {
	f := def
	if v != nil {
		f = *v
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
