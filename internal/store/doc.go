// Package store provides SQLite-backed persistence for notebooks, cells,
// parameters, the append-only execution log, and per-(notebook,user)
// sessions.
//
// Guarantees the rest of the system relies on:
//
//   - Notebook replace is atomic: ReplaceNotebook upserts the notebook by
//     slug and swaps its full cell set inside one transaction, so old cells
//     are fully gone before new ones are visible.
//   - Unique pairs are enforced in the schema: (notebook_id, position) for
//     cells, (cell_id, name) for parameters, (notebook_id, user_key) for
//     sessions, and a unique slug per notebook.
//   - Executions are append-only; rows are inserted once and never updated.
//   - Session updates are read-after-write consistent for one
//     (notebook, user) pair.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: cascade deletes from notebook to cells to parameters
package store
