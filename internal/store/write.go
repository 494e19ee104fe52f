package store

import (
	"context"
	"fmt"
	"time"

	"github.com/notebookd/notebookd/internal/nb"
)

// ReplaceNotebook upserts a notebook by slug and replaces its entire cell
// set with cells, all inside one transaction: readers either see the old
// cells or the new ones, never a mix. Parameters ride along on each cell.
// Returns the stored notebook with its ID filled in.
func (s *Store) ReplaceNotebook(ctx context.Context, notebook nb.Notebook, cells []nb.Cell) (nb.Notebook, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nb.Notebook{}, fmt.Errorf("replace notebook: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	nowText := marshalTime(now)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notebooks (name, slug, description, source_file, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name        = excluded.name,
			description = excluded.description,
			source_file = excluded.source_file,
			is_active   = 1,
			updated_at  = excluded.updated_at
	`,
		notebook.Name,
		notebook.Slug,
		notebook.Description,
		notebook.SourceFile,
		nowText,
		nowText,
	)
	if err != nil {
		return nb.Notebook{}, fmt.Errorf("replace notebook: upsert: %w", err)
	}

	var id int64
	var createdText string
	if err := tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM notebooks WHERE slug = ?`, notebook.Slug,
	).Scan(&id, &createdText); err != nil {
		return nb.Notebook{}, fmt.Errorf("replace notebook: read id: %w", err)
	}

	// Cascade removes the old cells' parameters and executions.
	if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE notebook_id = ?`, id); err != nil {
		return nb.Notebook{}, fmt.Errorf("replace notebook: clear cells: %w", err)
	}

	for i := range cells {
		cell := &cells[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO cells
			(notebook_id, position, title, cell_type, source_code, description,
			 is_executable, auto_run, is_setup_cell, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			cell.Position,
			cell.Title,
			string(cell.Type),
			cell.Source,
			cell.Description,
			boolInt(cell.IsExecutable),
			boolInt(cell.AutoRun),
			boolInt(cell.IsSetup),
			nowText,
		)
		if err != nil {
			return nb.Notebook{}, fmt.Errorf("replace notebook: insert cell %d: %w", cell.Position, err)
		}
		cellID, err := res.LastInsertId()
		if err != nil {
			return nb.Notebook{}, fmt.Errorf("replace notebook: cell id: %w", err)
		}
		cell.ID = cellID
		cell.NotebookID = id

		for j := range cell.Parameters {
			param := &cell.Parameters[j]
			optionsJSON, err := marshalOptions(param.Options)
			if err != nil {
				return nb.Notebook{}, fmt.Errorf("replace notebook: %w", err)
			}
			pres, err := tx.ExecContext(ctx, `
				INSERT INTO parameters
				(cell_id, name, param_type, default_value, options, min_value, max_value, step, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				cellID,
				param.Name,
				string(param.Type),
				param.Default,
				optionsJSON,
				nullFloat(param.Min),
				nullFloat(param.Max),
				nullFloat(param.Step),
				param.Position,
			)
			if err != nil {
				return nb.Notebook{}, fmt.Errorf("replace notebook: insert parameter %s: %w", param.Name, err)
			}
			paramID, err := pres.LastInsertId()
			if err != nil {
				return nb.Notebook{}, fmt.Errorf("replace notebook: parameter id: %w", err)
			}
			param.ID = paramID
			param.CellID = cellID
		}
	}

	if err := tx.Commit(); err != nil {
		return nb.Notebook{}, fmt.Errorf("replace notebook: commit: %w", err)
	}

	createdAt, err := unmarshalTime(createdText)
	if err != nil {
		return nb.Notebook{}, fmt.Errorf("replace notebook: %w", err)
	}

	notebook.ID = id
	notebook.IsActive = true
	notebook.CreatedAt = createdAt
	notebook.UpdatedAt = now.UTC()
	return notebook, nil
}

// InsertExecution appends one row to the execution log and returns its ID.
// The log is append-only: there is deliberately no update method.
func (s *Store) InsertExecution(ctx context.Context, exec nb.Execution) (int64, error) {
	paramsJSON, err := marshalJSONMap(exec.Params)
	if err != nil {
		return 0, fmt.Errorf("insert execution: %w", err)
	}

	createdAt := exec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO executions
		(cell_id, parameters, status, output_text, output_html, error_message, execution_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		exec.CellID,
		paramsJSON,
		string(exec.Status),
		exec.OutputText,
		exec.OutputHTML,
		exec.ErrorMessage,
		exec.Elapsed,
		marshalTime(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert execution: %w", err)
	}
	return res.LastInsertId()
}

// SetNotebookActive flips a notebook's active flag.
func (s *Store) SetNotebookActive(ctx context.Context, slug string, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notebooks SET is_active = ?, updated_at = ? WHERE slug = ?
	`, boolInt(active), marshalTime(time.Now()), slug)
	if err != nil {
		return fmt.Errorf("set notebook active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set notebook active: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set notebook active %q: %w", slug, ErrNotFound)
	}
	return nil
}
