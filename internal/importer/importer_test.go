package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notebookd/notebookd/internal/engine"
	"github.com/notebookd/notebookd/internal/nb"
	"github.com/notebookd/notebookd/internal/store"
)

const testScript = `"""
Monthly traffic report.
"""
# @title Setup {"run":"auto"}
import pandas as pd

# @title Compute
n = 7  # @param {"type":"integer"}
print(n * 2)
`

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traffic.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFile(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	path := writeScript(t, testScript)

	notebook, _, err := New(st).ImportFile(ctx, path, "Traffic Report", "monthly numbers")
	require.NoError(t, err)
	assert.Equal(t, "traffic-report", notebook.Slug)
	assert.Equal(t, "monthly numbers", notebook.Description)

	cells, err := st.ListCells(ctx, notebook.ID)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	setup := cells[0]
	assert.Equal(t, 0, setup.Position)
	assert.True(t, setup.IsSetup)
	assert.True(t, setup.AutoRun)
	assert.False(t, setup.IsExecutable)
	assert.Equal(t, "Monthly traffic report.", setup.Description)

	compute := cells[1]
	assert.Equal(t, 5, compute.Position)
	assert.True(t, compute.IsExecutable)
	require.Len(t, compute.Parameters, 1)
	assert.Equal(t, "n", compute.Parameters[0].Name)
	assert.Equal(t, nb.ParamNumber, compute.Parameters[0].Type)
	assert.Equal(t, "7", compute.Parameters[0].Default)
}

func TestImportFileDefaultsNameFromFile(t *testing.T) {
	st := openTestStore(t)
	path := writeScript(t, testScript)

	notebook, _, err := New(st).ImportFile(context.Background(), path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "traffic", notebook.Name)
	assert.Equal(t, "traffic", notebook.Slug)
}

func TestImportFileMissingFile(t *testing.T) {
	st := openTestStore(t)

	_, _, err := New(st).ImportFile(context.Background(), "/nonexistent/nope.py", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportReader(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	notebook, _, err := New(st).ImportReader(ctx, strings.NewReader(testScript), "From Reader", "")
	require.NoError(t, err)
	assert.Equal(t, "from-reader", notebook.Slug)

	cells, err := st.ListCells(ctx, notebook.ID)
	require.NoError(t, err)
	assert.Len(t, cells, 2)
}

func TestImportIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	path := writeScript(t, testScript)
	im := New(st)

	first, _, err := im.ImportFile(ctx, path, "Traffic Report", "")
	require.NoError(t, err)
	second, _, err := im.ImportFile(ctx, path, "Traffic Report", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	cells, err := st.ListCells(ctx, second.ID)
	require.NoError(t, err)
	assert.Len(t, cells, 2)
}

func TestImportNotebookFileJSON(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "report.ipynb")
	data := `{
		"cells": [
			{"cell_type": "markdown", "source": "Intro."},
			{"cell_type": "code", "source": ["# @title Run\n", "n = 2  # @param\n", "print(n)\n"]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	notebook, _, err := New(st).ImportFile(ctx, path, "Report", "")
	require.NoError(t, err)

	cells, err := st.ListCells(ctx, notebook.ID)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, "Run", cells[0].Title)
	assert.Equal(t, "Intro.", cells[0].Description)
}

// TestImportThenRun drives the full path: import a script, run its setup
// cell and then the parameterized cell with an override, and check the
// recorded execution.
func TestImportThenRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	path := writeScript(t, testScript)

	notebook, _, err := New(st).ImportFile(ctx, path, "Traffic Report", "")
	require.NoError(t, err)
	cells, err := st.ListCells(ctx, notebook.ID)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	eng := engine.New("")
	setupRes := eng.Execute(cells[0].Source, nil, 30*time.Second)
	require.True(t, setupRes.OK(), setupRes.Error)

	params := map[string]any{"n": float64(7)}
	res := eng.Execute(cells[1].Source, params, 30*time.Second)
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "14\n", res.Output)

	execID, err := st.InsertExecution(ctx, nb.Execution{
		CellID:     cells[1].ID,
		Params:     params,
		Status:     nb.ExecSuccess,
		OutputText: res.Output,
		Elapsed:    res.Elapsed,
	})
	require.NoError(t, err)
	assert.NotZero(t, execID)

	execs, err := st.ListExecutions(ctx, notebook.ID, 100)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, "14\n", execs[0].OutputText)
	assert.Equal(t, nb.ExecSuccess, execs[0].Status)
}
