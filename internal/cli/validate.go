package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notebookd/notebookd/internal/nb"
	"github.com/notebookd/notebookd/internal/parser"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a notebook file without importing it",
		Long: `Validate a notebook file without touching the database.

Notebook-file JSON (.ipynb, .json) is checked against the embedded schema.
Script text is parsed and summarized; parsing never fails, so validation
reports what the importer would produce.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".ipynb" || ext == ".json" {
		if err := parser.ValidateNotebookJSON(data); err != nil {
			_ = formatter.Error("E001", "schema validation failed", err.Error())
			return NewExitError(ExitFailure, "schema validation failed")
		}
	}

	var cells []countedCell
	parsed, err := parseAny(ext, data)
	if err != nil {
		_ = formatter.Error("E002", "parse failed", err.Error())
		return NewExitError(ExitFailure, "parse failed")
	}
	for _, pc := range parsed {
		cells = append(cells, countedCell{
			Title:      pc.Title,
			Type:       string(pc.Type),
			Setup:      pc.IsSetup,
			Parameters: len(pc.Parameters),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"valid": true, "cells": cells})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid, %d cells\n", path, len(cells))
	for i, c := range cells {
		label := c.Title
		if label == "" {
			label = "(untitled)"
		}
		kind := c.Type
		if c.Setup {
			kind = "setup"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %2d. %-10s %s (%d params)\n", i+1, kind, label, c.Parameters)
	}
	return nil
}

type countedCell struct {
	Title      string `json:"title"`
	Type       string `json:"cell_type"`
	Setup      bool   `json:"is_setup_cell"`
	Parameters int    `json:"parameters"`
}

func parseAny(ext string, data []byte) ([]nb.ParsedCell, error) {
	if ext == ".ipynb" || ext == ".json" {
		return parser.ParseNotebookFile(data)
	}
	return parser.ParseScript(string(data)), nil
}
