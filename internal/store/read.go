package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/notebookd/notebookd/internal/nb"
)

// GetNotebookBySlug returns one notebook, or ErrNotFound.
func (s *Store) GetNotebookBySlug(ctx context.Context, slug string) (nb.Notebook, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, description, source_file, is_active, created_at, updated_at
		FROM notebooks WHERE slug = ?
	`, slug)
	notebook, err := scanNotebook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nb.Notebook{}, fmt.Errorf("notebook %q: %w", slug, ErrNotFound)
	}
	return notebook, err
}

// ListNotebooks returns notebooks newest-updated first. With activeOnly set,
// inactive notebooks are skipped.
func (s *Store) ListNotebooks(ctx context.Context, activeOnly bool) ([]nb.Notebook, error) {
	query := `
		SELECT id, name, slug, description, source_file, is_active, created_at, updated_at
		FROM notebooks
	`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY updated_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	defer rows.Close()

	var notebooks []nb.Notebook
	for rows.Next() {
		notebook, err := scanNotebook(rows)
		if err != nil {
			return nil, fmt.Errorf("list notebooks: %w", err)
		}
		notebooks = append(notebooks, notebook)
	}
	return notebooks, rows.Err()
}

// GetCell returns one cell with its parameters loaded, or ErrNotFound.
func (s *Store) GetCell(ctx context.Context, id int64) (nb.Cell, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, notebook_id, position, title, cell_type, source_code, description,
		       is_executable, auto_run, is_setup_cell, created_at
		FROM cells WHERE id = ?
	`, id)
	cell, err := scanCell(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nb.Cell{}, fmt.Errorf("cell %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nb.Cell{}, err
	}
	cell.Parameters, err = s.listParameters(ctx, cell.ID)
	return cell, err
}

// ListCells returns a notebook's cells in position order, parameters loaded.
func (s *Store) ListCells(ctx context.Context, notebookID int64) ([]nb.Cell, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, notebook_id, position, title, cell_type, source_code, description,
		       is_executable, auto_run, is_setup_cell, created_at
		FROM cells WHERE notebook_id = ?
		ORDER BY position ASC, id ASC
	`, notebookID)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", err)
	}
	defer rows.Close()

	var cells []nb.Cell
	for rows.Next() {
		cell, err := scanCell(rows)
		if err != nil {
			return nil, fmt.Errorf("list cells: %w", err)
		}
		cells = append(cells, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cells: %w", err)
	}

	for i := range cells {
		params, err := s.listParameters(ctx, cells[i].ID)
		if err != nil {
			return nil, err
		}
		cells[i].Parameters = params
	}
	return cells, nil
}

// ListSetupCells returns a notebook's setup cells in position order.
func (s *Store) ListSetupCells(ctx context.Context, notebookID int64) ([]nb.Cell, error) {
	cells, err := s.ListCells(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	var setup []nb.Cell
	for _, cell := range cells {
		if cell.IsSetup {
			setup = append(setup, cell)
		}
	}
	return setup, nil
}

// ListExecutions returns a notebook's execution history, newest first,
// capped at limit (<=0 means no cap).
func (s *Store) ListExecutions(ctx context.Context, notebookID int64, limit int) ([]nb.Execution, error) {
	query := `
		SELECT e.id, e.cell_id, e.parameters, e.status, e.output_text, e.output_html,
		       e.error_message, e.execution_time, e.created_at
		FROM executions e
		JOIN cells c ON c.id = e.cell_id
		WHERE c.notebook_id = ?
		ORDER BY e.created_at DESC, e.id DESC
	`
	args := []any{notebookID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var execs []nb.Execution
	for rows.Next() {
		var (
			exec        nb.Execution
			paramsJSON  string
			status      string
			createdText string
		)
		if err := rows.Scan(&exec.ID, &exec.CellID, &paramsJSON, &status, &exec.OutputText,
			&exec.OutputHTML, &exec.ErrorMessage, &exec.Elapsed, &createdText); err != nil {
			return nil, fmt.Errorf("list executions: %w", err)
		}
		exec.Status = nb.ExecStatus(status)
		if exec.Params, err = unmarshalJSONMap(paramsJSON); err != nil {
			return nil, fmt.Errorf("list executions: %w", err)
		}
		if exec.CreatedAt, err = unmarshalTime(createdText); err != nil {
			return nil, fmt.Errorf("list executions: %w", err)
		}
		execs = append(execs, exec)
	}
	return execs, rows.Err()
}

func (s *Store) listParameters(ctx context.Context, cellID int64) ([]nb.Parameter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cell_id, name, param_type, default_value, options,
		       min_value, max_value, step, position
		FROM parameters WHERE cell_id = ?
		ORDER BY position ASC, id ASC
	`, cellID)
	if err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	defer rows.Close()

	var params []nb.Parameter
	for rows.Next() {
		var (
			param       nb.Parameter
			paramType   string
			optionsJSON string
			minV, maxV  sql.NullFloat64
			stepV       sql.NullFloat64
		)
		if err := rows.Scan(&param.ID, &param.CellID, &param.Name, &paramType,
			&param.Default, &optionsJSON, &minV, &maxV, &stepV, &param.Position); err != nil {
			return nil, fmt.Errorf("list parameters: %w", err)
		}
		param.Type = nb.ParamType(paramType)
		if param.Options, err = unmarshalOptions(optionsJSON); err != nil {
			return nil, fmt.Errorf("list parameters: %w", err)
		}
		param.Min = floatPtr(minV)
		param.Max = floatPtr(maxV)
		param.Step = floatPtr(stepV)
		params = append(params, param)
	}
	return params, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotebook(row rowScanner) (nb.Notebook, error) {
	var (
		notebook    nb.Notebook
		isActive    int
		createdText string
		updatedText string
	)
	err := row.Scan(&notebook.ID, &notebook.Name, &notebook.Slug, &notebook.Description,
		&notebook.SourceFile, &isActive, &createdText, &updatedText)
	if err != nil {
		return nb.Notebook{}, err
	}
	notebook.IsActive = isActive != 0
	if notebook.CreatedAt, err = unmarshalTime(createdText); err != nil {
		return nb.Notebook{}, err
	}
	if notebook.UpdatedAt, err = unmarshalTime(updatedText); err != nil {
		return nb.Notebook{}, err
	}
	return notebook, nil
}

func scanCell(row rowScanner) (nb.Cell, error) {
	var (
		cell         nb.Cell
		cellType     string
		isExecutable int
		autoRun      int
		isSetup      int
		createdText  string
	)
	err := row.Scan(&cell.ID, &cell.NotebookID, &cell.Position, &cell.Title, &cellType,
		&cell.Source, &cell.Description, &isExecutable, &autoRun, &isSetup, &createdText)
	if err != nil {
		return nb.Cell{}, err
	}
	cell.Type = nb.CellType(cellType)
	cell.IsExecutable = isExecutable != 0
	cell.AutoRun = autoRun != 0
	cell.IsSetup = isSetup != 0
	if cell.CreatedAt, err = unmarshalTime(createdText); err != nil {
		return nb.Cell{}, err
	}
	return cell, nil
}
