package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/notebookd/notebookd/internal/engine"
	"github.com/notebookd/notebookd/internal/nb"
	"github.com/notebookd/notebookd/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	BasePath string
	Params   []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <slug> <position>",
		Short: "Run one cell of a stored notebook",
		Long: `Run one cell of a stored notebook in a fresh session.

Setup cells run first, then the cell at the given position with the stored
parameter defaults, overridden by --param flags. The execution is recorded
in the database.

Example:
  notebookd run --db ./notebookd.db weekly-report 10
  notebookd run --db ./notebookd.db weekly-report 10 --param n=20 --param label=Q3`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCell(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "notebookd.db", "path to SQLite database")
	cmd.Flags().StringVar(&opts.BasePath, "base-path", "./data/", "directory substituted for hosted storage paths")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "parameter override as name=value (repeatable)")

	return cmd
}

func runCell(opts *RunOptions, slug, positionArg string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	position, err := strconv.Atoi(positionArg)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid position %q", positionArg))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	notebook, err := st.GetNotebookBySlug(ctx, slug)
	if err != nil {
		return WrapExitError(ExitCommandError, "notebook not found", err)
	}
	cells, err := st.ListCells(ctx, notebook.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load cells", err)
	}

	var target *nb.Cell
	for i := range cells {
		if cells[i].Position == position {
			target = &cells[i]
			break
		}
	}
	if target == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("no cell at position %d in %s", position, slug))
	}
	if target.Type == nb.CellMarkdown {
		return NewExitError(ExitCommandError, "markdown cells are not executable")
	}

	overrides, err := parseParamFlags(opts.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --param", err)
	}

	eng := engine.New(opts.BasePath)
	for _, cell := range cells {
		if !cell.IsSetup || cell.ID == target.ID {
			continue
		}
		slog.Debug("running setup cell", "position", cell.Position)
		if res := eng.Execute(cell.Source, nil, 30*time.Second); !res.OK() {
			return NewExitError(ExitFailure, fmt.Sprintf("setup cell at position %d failed: %s", cell.Position, res.Error))
		}
	}

	params := cellParams(*target, overrides)
	res := eng.Execute(target.Source, params, 30*time.Second)

	status := nb.ExecSuccess
	if !res.OK() {
		status = nb.ExecError
	}
	if _, err := st.InsertExecution(ctx, nb.Execution{
		CellID:       target.ID,
		Params:       params,
		Status:       status,
		OutputText:   res.Output,
		OutputHTML:   res.HTML,
		ErrorMessage: res.Error,
		Elapsed:      res.Elapsed,
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to record execution", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		_ = formatter.Success(map[string]any{
			"success":        res.OK(),
			"output_text":    res.Output,
			"output_html":    res.HTML,
			"error":          res.Error,
			"execution_time": res.Elapsed,
		})
	} else {
		fmt.Fprint(cmd.OutOrStdout(), res.Output)
		if !res.OK() {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Error)
		}
	}

	if !res.OK() {
		return NewExitError(ExitFailure, "cell execution failed")
	}
	return nil
}

// parseParamFlags splits repeated name=value flags into a string map.
func parseParamFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", f)
		}
		out[name] = value
	}
	return out, nil
}

// cellParams resolves a cell's parameter values from stored defaults and
// command-line overrides, typed per the stored parameter type.
func cellParams(cell nb.Cell, overrides map[string]string) map[string]any {
	if len(cell.Parameters) == 0 {
		return nil
	}
	params := make(map[string]any, len(cell.Parameters))
	for _, p := range cell.Parameters {
		raw := p.Default
		if v, ok := overrides[p.Name]; ok {
			raw = v
		}
		params[p.Name] = typedValue(p.Type, raw)
	}
	return params
}

func typedValue(t nb.ParamType, raw string) any {
	switch t {
	case nb.ParamBoolean:
		return strings.EqualFold(raw, "true")
	case nb.ParamNumber, nb.ParamSlider:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return float64(0)
		}
		return f
	default:
		return raw
	}
}
