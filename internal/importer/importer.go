package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/notebookd/notebookd/internal/nb"
	"github.com/notebookd/notebookd/internal/parser"
	"github.com/notebookd/notebookd/internal/store"
)

// Importer persists parsed notebooks.
type Importer struct {
	store *store.Store
}

func New(st *store.Store) *Importer {
	return &Importer{store: st}
}

// ImportFile reads a notebook from disk and persists it. Files ending in
// .ipynb or .json are parsed as notebook-file JSON, anything else as script
// text. If name is empty the file's base name without extension is used.
// A missing or unreadable file is an error; there is no silent skip.
func (im *Importer) ImportFile(ctx context.Context, path, name, description string) (nb.Notebook, []nb.Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nb.Notebook{}, nil, fmt.Errorf("import notebook: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var parsed []nb.ParsedCell
	switch ext {
	case ".ipynb", ".json":
		parsed, err = parser.ParseNotebookFile(data)
		if err != nil {
			return nb.Notebook{}, nil, fmt.Errorf("import notebook %q: %w", path, err)
		}
	default:
		parsed = parser.ParseScript(string(data))
	}

	return im.Import(ctx, name, description, path, parsed)
}

// ImportReader parses script text from r and persists it under name.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader, name, description string) (nb.Notebook, []nb.Cell, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nb.Notebook{}, nil, fmt.Errorf("import notebook %q: %w", name, err)
	}
	return im.Import(ctx, name, description, "", parser.ParseScript(string(data)))
}

// Import persists parsed cells under a notebook derived from name. The
// notebook is upserted by slug and its cell set is replaced wholesale, so
// importing the same source twice leaves exactly one copy of every cell.
func (im *Importer) Import(ctx context.Context, name, description, sourceFile string, parsed []nb.ParsedCell) (nb.Notebook, []nb.Cell, error) {
	notebook := nb.Notebook{
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		SourceFile:  sourceFile,
		IsActive:    true,
	}
	cells := toCells(parsed)

	stored, err := im.store.ReplaceNotebook(ctx, notebook, cells)
	if err != nil {
		return nb.Notebook{}, nil, fmt.Errorf("import notebook %q: %w", name, err)
	}
	return stored, cells, nil
}

// toCells converts parser output to storable records. Positions are spaced
// in steps of five so cells can be inserted between neighbors without
// renumbering the whole notebook.
func toCells(parsed []nb.ParsedCell) []nb.Cell {
	cells := make([]nb.Cell, 0, len(parsed))
	for i, pc := range parsed {
		executable := pc.Type != nb.CellMarkdown && (len(pc.Parameters) > 0 || !pc.IsSetup)
		cell := nb.Cell{
			Position:     i * 5,
			Title:        pc.Title,
			Type:         pc.Type,
			Source:       pc.Source,
			Description:  pc.Description,
			IsExecutable: executable,
			AutoRun:      pc.AutoRun,
			IsSetup:      pc.IsSetup,
		}
		for j, pp := range pc.Parameters {
			cell.Parameters = append(cell.Parameters, nb.Parameter{
				Name:     pp.Name,
				Type:     pp.Type,
				Default:  renderDefault(pp.Default),
				Options:  pp.Options,
				Min:      pp.Min,
				Max:      pp.Max,
				Step:     pp.Step,
				Position: j,
			})
		}
		cells = append(cells, cell)
	}
	return cells
}

// renderDefault flattens a parsed default value to its stored text form.
// Strings are stored bare (without quotes); the parameter's type decides how
// the text is re-quoted during substitution and export.
func renderDefault(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
