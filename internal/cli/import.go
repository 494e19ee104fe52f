package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notebookd/notebookd/internal/importer"
	"github.com/notebookd/notebookd/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database    string
	Name        string
	Description string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an annotated script or notebook file",
		Long: `Import an annotated script or notebook file into the database.

Files ending in .ipynb or .json are validated and parsed as notebook-file
JSON; anything else is parsed as annotated script text. Re-importing the
same name replaces the notebook's cells in place.

Example:
  notebookd import --db ./notebookd.db analysis.py
  notebookd import --db ./notebookd.db report.ipynb --name "Weekly Report"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "notebookd.db", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Name, "name", "", "notebook name (defaults to the file name)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "notebook description")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	formatter.VerboseLog("importing %s", path)
	notebook, cells, err := importer.New(st).ImportFile(cmd.Context(), path, opts.Name, opts.Description)
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"slug":  notebook.Slug,
			"name":  notebook.Name,
			"cells": len(cells),
		})
	}
	return formatter.Success(fmt.Sprintf("imported %q as %s (%d cells)", notebook.Name, notebook.Slug, len(cells)))
}
