package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/notebookd/notebookd/internal/nb"
	"github.com/notebookd/notebookd/internal/starval"
)

var (
	// titleRe matches a title directive anywhere on a line. Group 1 is the
	// title text, group 2 the option JSON body (without braces).
	titleRe = regexp.MustCompile(`#\s*@title\s+(.+?)(?:\s*\{(.+?)\})?\s*$`)

	// paramRe matches a top-level assignment carrying a parameter directive.
	// Group 1 is the identifier, group 2 the value expression, group 3 the
	// directive spec (JSON object, JSON array, or empty).
	paramRe = regexp.MustCompile(`^(\w+)\s*=\s*(.+?)\s*#\s*@param\s*(.*)$`)
)

// ParseScript parses annotated script text into ordered cells.
func ParseScript(content string) []nb.ParsedCell {
	var cells []nb.ParsedCell

	lines := strings.Split(content, "\n")
	current := newCell()
	var currentLines []string
	var markdownLines []string
	inMarkdown := false
	pendingDescription := ""

	flush := func() {
		if len(currentLines) == 0 && current.Title == "" {
			return
		}
		current.Source = strings.Join(currentLines, "\n")
		if strings.TrimSpace(current.Source) != "" || current.Title != "" {
			cells = append(cells, current)
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Markdown block start. A one-line block like """text""" carries its
		// body directly; otherwise accumulate until the closing quotes.
		if strings.HasPrefix(trimmed, `"""`) && !inMarkdown {
			if strings.HasSuffix(trimmed, `"""`) && len(trimmed) > 6 {
				pendingDescription = trimmed[3 : len(trimmed)-3]
				continue
			}
			inMarkdown = true
			markdownLines = markdownLines[:0]
			if rest := trimmed[3:]; rest != "" {
				markdownLines = append(markdownLines, rest)
			}
			continue
		}
		if inMarkdown {
			if strings.HasSuffix(trimmed, `"""`) {
				if head := strings.TrimSuffix(trimmed, `"""`); head != "" {
					markdownLines = append(markdownLines, head)
				}
				pendingDescription = strings.Join(markdownLines, "\n")
				inMarkdown = false
			} else {
				markdownLines = append(markdownLines, line)
			}
			continue
		}

		// Title directive starts a new cell.
		if m := titleRe.FindStringSubmatch(line); m != nil {
			flush()
			current = newCell()
			current.Title = strings.TrimSpace(m[1])
			current.Description = pendingDescription
			pendingDescription = ""
			current.AutoRun = parseTitleOptions(m[2])
			currentLines = nil
			continue
		}

		// Parameter directive. The line remains part of the source.
		if m := paramRe.FindStringSubmatch(line); m != nil {
			current.Parameters = append(current.Parameters, parseParamLine(m[1], m[2], m[3]))
		}

		currentLines = append(currentLines, line)
	}

	if len(currentLines) > 0 || current.Title != "" {
		current.Source = strings.Join(currentLines, "\n")
		if strings.TrimSpace(current.Source) != "" || current.Title != "" {
			cells = append(cells, current)
		}
	}

	classifySetupCells(cells)
	return cells
}

// ParseCodeCell parses a single code block as one cell: title and parameter
// extraction apply as in script text, but no cell splitting happens.
func ParseCodeCell(source string) nb.ParsedCell {
	cell := newCell()
	cell.Source = source

	for _, line := range strings.Split(source, "\n") {
		if m := titleRe.FindStringSubmatch(line); m != nil && cell.Title == "" {
			cell.Title = strings.TrimSpace(m[1])
			cell.AutoRun = parseTitleOptions(m[2])
			continue
		}
		if m := paramRe.FindStringSubmatch(line); m != nil {
			cell.Parameters = append(cell.Parameters, parseParamLine(m[1], m[2], m[3]))
		}
	}
	return cell
}

func newCell() nb.ParsedCell {
	return nb.ParsedCell{Type: nb.CellCode}
}

// parseTitleOptions reports the auto_run flag from a title's option body.
// Malformed JSON is ignored.
func parseTitleOptions(body string) bool {
	if body == "" {
		return false
	}
	var opts map[string]any
	if err := json.Unmarshal([]byte("{"+body+"}"), &opts); err != nil {
		return false
	}
	run, _ := opts["run"].(string)
	return run == "auto"
}

// parseParamLine builds a parameter from a matched directive line.
//
// Spec forms:
//
//	(absent)                  -> number
//	{"type":null}             -> number
//	{"type":"string"}         -> string
//	{"type":"boolean"}        -> boolean
//	{"type":"integer"}        -> number
//	{"type":"slider", ...}    -> slider with min/max/step (0/100/1 default)
//	["a","b",...]             -> dropdown with those options
//
// Malformed spec JSON leaves the pre-set string type in place.
func parseParamLine(name, rawDefault, spec string) nb.ParsedParameter {
	p := nb.ParsedParameter{
		Name: name,
		Type: nb.ParamString,
	}
	p.Default = parseDefault(rawDefault)

	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		p.Type = nb.ParamNumber

	case strings.HasPrefix(spec, "["):
		var raw []any
		if err := json.Unmarshal([]byte(spec), &raw); err != nil {
			return p
		}
		p.Type = nb.ParamDropdown
		p.Options = make([]string, len(raw))
		for i, o := range raw {
			if s, ok := o.(string); ok {
				p.Options[i] = s
			} else {
				p.Options[i] = fmt.Sprint(o)
			}
		}

	case strings.HasPrefix(spec, "{"):
		var m map[string]any
		if err := json.Unmarshal([]byte(spec), &m); err != nil {
			return p
		}
		switch t := m["type"].(type) {
		case nil:
			p.Type = nb.ParamNumber
		case string:
			switch t {
			case "string":
				p.Type = nb.ParamString
			case "boolean":
				p.Type = nb.ParamBoolean
			case "integer":
				p.Type = nb.ParamNumber
			case "slider":
				p.Type = nb.ParamSlider
				p.Min = specFloat(m, "min", 0)
				p.Max = specFloat(m, "max", 100)
				p.Step = specFloat(m, "step", 1)
			}
		}
	}

	return p
}

// parseDefault evaluates the value expression as a literal, after dropping
// any trailing comment. Failed evaluation falls back to the quote-stripped
// raw text.
func parseDefault(raw string) any {
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	return starval.EvalLiteral(strings.TrimSpace(raw))
}

func specFloat(m map[string]any, key string, def float64) *float64 {
	v := def
	if f, ok := m[key].(float64); ok {
		v = f
	}
	return &v
}
