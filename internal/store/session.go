package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/notebookd/notebookd/internal/nb"
)

// GetOrCreateSession returns the session row for (notebookID, userKey),
// creating an empty one if absent. The unique pair constraint guarantees at
// most one row per pair.
func (s *Store) GetOrCreateSession(ctx context.Context, notebookID int64, userKey string) (nb.Session, error) {
	session, err := s.getSession(ctx, notebookID, userKey)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nb.Session{}, err
	}

	now := marshalTime(time.Now())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notebook_sessions
		(notebook_id, user_key, kernel_state, parameter_values, created_at, updated_at)
		VALUES (?, ?, '{}', '{}', ?, ?)
		ON CONFLICT(notebook_id, user_key) DO NOTHING
	`, notebookID, userKey, now, now)
	if err != nil {
		return nb.Session{}, fmt.Errorf("create session: %w", err)
	}

	return s.getSession(ctx, notebookID, userKey)
}

// SaveSession persists a session's mutable state: kernel flags, parameter
// values, and the last executed cell. Reads after a successful save observe
// the new state.
func (s *Store) SaveSession(ctx context.Context, session nb.Session) error {
	kernelJSON, err := marshalJSONMap(session.KernelState)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	valuesJSON, err := marshalJSONMap(session.ParamValues)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE notebook_sessions
		SET kernel_state = ?, parameter_values = ?, last_executed_cell = ?, updated_at = ?
		WHERE notebook_id = ? AND user_key = ?
	`,
		kernelJSON,
		valuesJSON,
		nullInt(session.LastCellID),
		marshalTime(time.Now()),
		session.NotebookID,
		session.UserKey,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save session (%d, %q): %w", session.NotebookID, session.UserKey, ErrNotFound)
	}
	return nil
}

// DeleteSession removes the session row wholesale. Deleting a missing
// session is a no-op.
func (s *Store) DeleteSession(ctx context.Context, notebookID int64, userKey string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM notebook_sessions WHERE notebook_id = ? AND user_key = ?
	`, notebookID, userKey)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) getSession(ctx context.Context, notebookID int64, userKey string) (nb.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, notebook_id, user_key, kernel_state, parameter_values,
		       last_executed_cell, created_at, updated_at
		FROM notebook_sessions
		WHERE notebook_id = ? AND user_key = ?
	`, notebookID, userKey)

	var (
		session     nb.Session
		kernelJSON  string
		valuesJSON  string
		lastCell    sql.NullInt64
		createdText string
		updatedText string
	)
	err := row.Scan(&session.ID, &session.NotebookID, &session.UserKey,
		&kernelJSON, &valuesJSON, &lastCell, &createdText, &updatedText)
	if errors.Is(err, sql.ErrNoRows) {
		return nb.Session{}, fmt.Errorf("session (%d, %q): %w", notebookID, userKey, ErrNotFound)
	}
	if err != nil {
		return nb.Session{}, fmt.Errorf("get session: %w", err)
	}

	if session.KernelState, err = unmarshalJSONMap(kernelJSON); err != nil {
		return nb.Session{}, fmt.Errorf("get session: %w", err)
	}
	if session.ParamValues, err = unmarshalJSONMap(valuesJSON); err != nil {
		return nb.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.LastCellID = intPtr(lastCell)
	if session.CreatedAt, err = unmarshalTime(createdText); err != nil {
		return nb.Session{}, fmt.Errorf("get session: %w", err)
	}
	if session.UpdatedAt, err = unmarshalTime(updatedText); err != nil {
		return nb.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}
