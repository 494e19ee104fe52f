// Package parser turns annotated script text and structured notebook files
// into ordered sequences of nb.ParsedCell.
//
// Script-text grammar (line oriented):
//   - `# @title <text> {<json-options>}` starts a new logical cell. The
//     accumulated lines since the previous title are flushed as the previous
//     cell's source, unless that cell is empty and untitled.
//   - A triple-quoted block becomes the markdown description of the next
//     cell, not executable source. Single-line form is supported.
//   - `<identifier> = <expr>  # @param <spec>` declares a typed parameter.
//     The directive line stays in the cell's source; only the metadata is
//     mirrored into the parameter list.
//
// Malformed directive JSON is swallowed: title options fall back to no
// options, parameter specs fall back to the string type. Parse-level errors
// never reach the caller.
//
// Structured notebook files are a JSON sequence of markdown/code blocks.
// Markdown content is carried forward as the next code block's description;
// each code block is parsed exactly like a single script-text cell body.
// Structured files are schema-checked with CUE before parsing.
package parser
