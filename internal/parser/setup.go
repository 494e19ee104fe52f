package parser

import (
	"strings"

	"github.com/notebookd/notebookd/internal/nb"
)

// setupKeywords mark cells containing imports, dependency installs,
// environment mounts, or initialization code. The match is a heuristic:
// false positives and negatives are possible and acceptable.
var setupKeywords = []string{
	"import ",
	"from ",
	"pip install",
	"!pip",
	"drive.mount",
	"load(",
	"initializing",
	"setup",
}

// classifySetupCells marks cells with no parameters whose source or title
// contains a setup keyword. Setup cells run once per session before any
// interactive cell.
func classifySetupCells(cells []nb.ParsedCell) {
	for i := range cells {
		cell := &cells[i]
		if len(cell.Parameters) > 0 {
			continue
		}
		source := strings.ToLower(cell.Source)
		title := strings.ToLower(cell.Title)
		for _, kw := range setupKeywords {
			if strings.Contains(source, kw) || strings.Contains(title, kw) {
				cell.IsSetup = true
				cell.Type = nb.CellSetup
				break
			}
		}
	}
}
