// Package interp executes structured statements and GOTO functions over
// integers and booleans.
//
// It is a reference semantics for lowering: a statement and the function
// lowered from it must end the same way from the same inputs, with the
// same user visible variables and the same calls in the same order.
//
// Modeled:
//   - integer and boolean arithmetic with wrap-around at the type width
//   - left to right evaluation of expressions with effects
//   - loops, switch fallthrough, break, continue and return
//   - assertions and assumptions
//   - calls, recorded in order and answered by Config.Funcs
//
// Out of scope (returns Unknown):
//   - pointers, arrays and structs
//   - exceptions and heap operations
//   - nondeterministic values in conditions
package interp
