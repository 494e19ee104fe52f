package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/notebookd/notebookd/internal/nb"
)

// blockFile is the structured notebook-file layout: an ordered sequence of
// typed blocks. The same shape covers exported .ipynb files, whose source
// fields are arrays of line fragments.
type blockFile struct {
	Cells []block `json:"cells"`
}

type block struct {
	Type   string      `json:"cell_type"`
	Source sourceValue `json:"source"`
}

// sourceValue accepts either a single string or a list of line fragments.
type sourceValue string

func (s *sourceValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = sourceValue(single)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("source must be a string or a list of strings")
	}
	*s = sourceValue(strings.Join(parts, ""))
	return nil
}

// ParseNotebookFile parses a structured notebook file. Blocks are validated
// against the embedded CUE schema first; a markdown block's content becomes
// the description of the following code block, and each code block is parsed
// as a single script-text cell body.
func ParseNotebookFile(data []byte) ([]nb.ParsedCell, error) {
	if err := ValidateNotebookJSON(data); err != nil {
		return nil, err
	}

	var file blockFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode notebook file: %w", err)
	}

	var cells []nb.ParsedCell
	pendingDescription := ""

	for _, blk := range file.Cells {
		switch blk.Type {
		case "markdown":
			pendingDescription = string(blk.Source)
		case "code":
			cell := ParseCodeCell(string(blk.Source))
			cell.Description = pendingDescription
			pendingDescription = ""
			cells = append(cells, cell)
		}
	}

	classifySetupCells(cells)
	return cells, nil
}
