package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/notebookd/notebookd/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	All      bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored notebooks",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "notebookd.db", "path to SQLite database")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include inactive notebooks")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
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

	notebooks, err := st.ListNotebooks(cmd.Context(), !opts.All)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list notebooks", err)
	}

	if opts.Format == "json" {
		return formatter.Success(notebooks)
	}

	if len(notebooks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no notebooks")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tUPDATED")
	for _, n := range notebooks {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.Slug, n.Name, n.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
