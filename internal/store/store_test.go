package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/notebookd/notebookd/internal/nb"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return st
}

func testNotebook() nb.Notebook {
	return nb.Notebook{
		Name:        "Traffic Report",
		Slug:        "traffic-report",
		Description: "monthly numbers",
		SourceFile:  "traffic.py",
		IsActive:    true,
	}
}

func testCells() []nb.Cell {
	min, max, step := 0.0, 100.0, 5.0
	return []nb.Cell{
		{
			Position:     0,
			Title:        "Setup",
			Type:         nb.CellSetup,
			Source:       "import pandas as pd",
			IsSetup:      true,
			IsExecutable: false,
		},
		{
			Position:     5,
			Title:        "Compute",
			Type:         nb.CellCode,
			Source:       "n = 10  # @param\nprint(n)",
			IsExecutable: true,
			Parameters: []nb.Parameter{
				{Name: "n", Type: nb.ParamNumber, Default: "10", Position: 0},
				{
					Name: "threshold", Type: nb.ParamSlider, Default: "50",
					Min: &min, Max: &max, Step: &step, Position: 1,
				},
				{
					Name: "region", Type: nb.ParamDropdown, Default: "west",
					Options: []string{"west", "east"}, Position: 2,
				},
			},
		},
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	st := openTestStore(t)

	var version int
	if err := st.DB().QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("user_version: %v", err)
	}
	if version != 1 {
		t.Errorf("user_version = %d, want 1", version)
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := st.ReplaceNotebook(ctx, testNotebook(), nil); err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	if _, err := st.GetNotebookBySlug(ctx, "traffic-report"); err != nil {
		t.Errorf("GetNotebookBySlug after reopen: %v", err)
	}
}

func TestReplaceNotebookRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	notebook, err := st.ReplaceNotebook(ctx, testNotebook(), testCells())
	if err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}
	if notebook.ID == 0 {
		t.Fatal("notebook ID not assigned")
	}

	cells, err := st.ListCells(ctx, notebook.ID)
	if err != nil {
		t.Fatalf("ListCells: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(cells))
	}
	if cells[0].Position != 0 || cells[1].Position != 5 {
		t.Errorf("cells out of position order: %d, %d", cells[0].Position, cells[1].Position)
	}

	params := cells[1].Parameters
	if len(params) != 3 {
		t.Fatalf("got %d parameters, want 3", len(params))
	}
	if params[0].Name != "n" || params[0].Type != nb.ParamNumber || params[0].Default != "10" {
		t.Errorf("unexpected first parameter: %+v", params[0])
	}
	slider := params[1]
	if slider.Min == nil || *slider.Min != 0 || slider.Max == nil || *slider.Max != 100 || slider.Step == nil || *slider.Step != 5 {
		t.Errorf("slider bounds not preserved: %+v", slider)
	}
	dropdown := params[2]
	if len(dropdown.Options) != 2 || dropdown.Options[0] != "west" {
		t.Errorf("dropdown options not preserved: %+v", dropdown)
	}
}

func TestReplaceNotebookIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	first, err := st.ReplaceNotebook(ctx, testNotebook(), testCells())
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	second, err := st.ReplaceNotebook(ctx, testNotebook(), testCells())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("slug upsert created a new notebook: %d != %d", first.ID, second.ID)
	}
	cells, err := st.ListCells(ctx, second.ID)
	if err != nil {
		t.Fatalf("ListCells: %v", err)
	}
	if len(cells) != 2 {
		t.Errorf("got %d cells after re-import, want 2", len(cells))
	}
}

func TestGetNotebookBySlugNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.GetNotebookBySlug(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListNotebooksActiveFilter(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.ReplaceNotebook(ctx, testNotebook(), nil); err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}
	other := testNotebook()
	other.Name = "Archived"
	other.Slug = "archived"
	if _, err := st.ReplaceNotebook(ctx, other, nil); err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}
	if err := st.SetNotebookActive(ctx, "archived", false); err != nil {
		t.Fatalf("SetNotebookActive: %v", err)
	}

	active, err := st.ListNotebooks(ctx, true)
	if err != nil {
		t.Fatalf("ListNotebooks: %v", err)
	}
	if len(active) != 1 || active[0].Slug != "traffic-report" {
		t.Errorf("active list = %+v, want just traffic-report", active)
	}

	all, err := st.ListNotebooks(ctx, false)
	if err != nil {
		t.Fatalf("ListNotebooks all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d notebooks, want 2", len(all))
	}
}

func TestListSetupCells(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	notebook, err := st.ReplaceNotebook(ctx, testNotebook(), testCells())
	if err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}

	setup, err := st.ListSetupCells(ctx, notebook.ID)
	if err != nil {
		t.Fatalf("ListSetupCells: %v", err)
	}
	if len(setup) != 1 || setup[0].Title != "Setup" {
		t.Errorf("setup cells = %+v, want just Setup", setup)
	}
}

func TestExecutionsAppendOnly(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	notebook, err := st.ReplaceNotebook(ctx, testNotebook(), testCells())
	if err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}
	cells, err := st.ListCells(ctx, notebook.ID)
	if err != nil {
		t.Fatalf("ListCells: %v", err)
	}
	cellID := cells[1].ID

	for i := 0; i < 3; i++ {
		_, err := st.InsertExecution(ctx, nb.Execution{
			CellID:     cellID,
			Params:     map[string]any{"n": float64(i)},
			Status:     nb.ExecSuccess,
			OutputText: "ok",
			Elapsed:    0.01,
		})
		if err != nil {
			t.Fatalf("InsertExecution %d: %v", i, err)
		}
	}

	execs, err := st.ListExecutions(ctx, notebook.ID, 100)
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if len(execs) != 3 {
		t.Fatalf("got %d executions, want 3", len(execs))
	}
	if execs[0].Params["n"] != float64(2) {
		t.Errorf("newest execution first: got params %v", execs[0].Params)
	}

	limited, err := st.ListExecutions(ctx, notebook.ID, 2)
	if err != nil {
		t.Fatalf("ListExecutions limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d executions", len(limited))
	}
}

func TestSessionLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	notebook, err := st.ReplaceNotebook(ctx, testNotebook(), testCells())
	if err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}

	session, err := st.GetOrCreateSession(ctx, notebook.ID, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	if session.ID == 0 {
		t.Fatal("session ID not assigned")
	}
	if session.SetupComplete() {
		t.Error("fresh session reports setup complete")
	}

	again, err := st.GetOrCreateSession(ctx, notebook.ID, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreateSession again: %v", err)
	}
	if again.ID != session.ID {
		t.Errorf("second call created a new session: %d != %d", again.ID, session.ID)
	}

	session.KernelState = map[string]any{"setup_complete": true}
	session.ParamValues = map[string]any{nb.ParamKey(7, "n"): float64(20)}
	if err := st.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	loaded, err := st.GetOrCreateSession(ctx, notebook.ID, "user-1")
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if !loaded.SetupComplete() {
		t.Error("kernel state not persisted")
	}
	if loaded.ParamValues[nb.ParamKey(7, "n")] != float64(20) {
		t.Errorf("parameter values not persisted: %v", loaded.ParamValues)
	}

	if err := st.DeleteSession(ctx, notebook.ID, "user-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	fresh, err := st.GetOrCreateSession(ctx, notebook.ID, "user-1")
	if err != nil {
		t.Fatalf("recreate session: %v", err)
	}
	if fresh.ID == loaded.ID {
		t.Error("delete did not remove the session row")
	}
	if fresh.SetupComplete() {
		t.Error("recreated session kept old kernel state")
	}

	// Deleting a missing session is a no-op.
	if err := st.DeleteSession(ctx, notebook.ID, "nobody"); err != nil {
		t.Errorf("DeleteSession missing: %v", err)
	}
}

func TestSessionsIsolatedByUser(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	notebook, err := st.ReplaceNotebook(ctx, testNotebook(), nil)
	if err != nil {
		t.Fatalf("ReplaceNotebook: %v", err)
	}

	a, err := st.GetOrCreateSession(ctx, notebook.ID, "user-a")
	if err != nil {
		t.Fatalf("session a: %v", err)
	}
	b, err := st.GetOrCreateSession(ctx, notebook.ID, "user-b")
	if err != nil {
		t.Fatalf("session b: %v", err)
	}
	if a.ID == b.ID {
		t.Error("distinct users share a session row")
	}
}
