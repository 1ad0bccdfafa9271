// Package gotoprog holds the GOTO program representation: instructions
// allocated in a per-function arena, program fragments that are spliced
// together during lowering, and the finished function handed to the
// symbolic execution engine.
package gotoprog
