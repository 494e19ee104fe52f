// Package nb defines the shared data model for notebookd.
//
// This package contains type definitions only. All other internal packages
// import nb; nb imports nothing internal. This keeps the data model the
// foundational layer with no circular dependencies.
//
// Two families of types live here:
//   - Parsed* types: transient values produced by the directive parser.
//     They have no identity and no ownership beyond the import call.
//   - Record types (Notebook, Cell, Parameter, Execution, Session): rows
//     owned by the store. Executions are append-only and never mutated
//     after creation.
package nb
