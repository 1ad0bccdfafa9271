// Package ast defines the structured program tree consumed by the GOTO
// program converter.
//
// The tree is produced by a front end (see internal/frontend for the Go
// adapter) and describes one function body at a time:
//   - statements: blocks, declarations, assignments, loops, switches,
//     labels, jumps, exception handling and atomic sections
//   - expressions: pure forms (symbols, constants, operators, member and
//     index access, casts) and effectful forms (increments, embedded
//     assignments, calls, allocations, throws)
//   - types: a small C-like type model (bool, integers, floats, enums,
//     pointers, arrays, structs and code)
//
// Statement and expression sets are closed: every variant implements an
// unexported marker method, so consumers dispatch with exhaustive type
// switches. Statement trees are treated as immutable input; the converter
// builds new expression nodes instead of editing the caller's tree.
package ast
