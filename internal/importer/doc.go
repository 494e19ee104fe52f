// Package importer orchestrates the parser and the store: it turns script
// or notebook files into persisted cell/parameter records, and renders
// persisted records back to script text.
//
// Import is idempotent: re-importing a file under the same name upserts one
// notebook by slug and fully replaces its cell set. Export honors the
// round-trip contract: every parameter's assignment line carries the stored
// default value and a directive spec equivalent to its type, options and
// bounds. Non-parameter code is carried through as stored; original
// formatting is not reproduced byte-for-byte.
package importer
