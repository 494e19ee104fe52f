package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/notebookd/notebookd/internal/importer"
	"github.com/notebookd/notebookd/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <slug>",
		Short: "Export a notebook back to script text",
		Long: `Export a stored notebook as annotated script text.

Parameter assignment lines are rewritten with the stored defaults and
directive specs, so the output re-imports to the same parameter set.

Example:
  notebookd export --db ./notebookd.db weekly-report
  notebookd export --db ./notebookd.db weekly-report -o report.py`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "notebookd.db", "path to SQLite database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, slug string, cmd *cobra.Command) error {
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

	script := importer.Export(notebook, cells)
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(script), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", slug, opts.Output)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), script)
	return nil
}
