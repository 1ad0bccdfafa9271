package interp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

// Value is a concrete value of the interpreter.
type Value interface {
	isValue()
	String() string
	Equal(other Value) bool
}

// IntValue represents an integer.
type IntValue struct {
	Val int64
}

func (IntValue) isValue() {}
func (v IntValue) String() string {
	return fmt.Sprintf("%d", v.Val)
}

func (v IntValue) Equal(other Value) bool {
	if o, ok := other.(IntValue); ok {
		return v.Val == o.Val
	}
	return false
}

// BoolValue represents a boolean.
type BoolValue struct {
	Val bool
}

func (BoolValue) isValue() {}
func (v BoolValue) String() string {
	return fmt.Sprintf("%t", v.Val)
}

func (v BoolValue) Equal(other Value) bool {
	if o, ok := other.(BoolValue); ok {
		return v.Val == o.Val
	}
	return false
}

// UnknownValue is a value the interpreter cannot compute, such as a
// nondeterministic choice.
type UnknownValue struct {
	Name string
}

func (UnknownValue) isValue() {}
func (v UnknownValue) String() string {
	return fmt.Sprintf("<%s>", v.Name)
}

func (v UnknownValue) Equal(other Value) bool {
	if o, ok := other.(UnknownValue); ok {
		return v.Name == o.Name
	}
	return false
}

// Zero returns the initial value of a variable of type t.
func Zero(t *ast.Type) Value {
	if t.IsBool() {
		return BoolValue{}
	}
	return IntValue{}
}

// Env maps variable names to values.
type Env struct {
	vars map[string]Value
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]Value)}
}

// Get returns the value of name and whether it is bound.
func (e *Env) Get(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *Env) Set(name string, val Value) {
	e.vars[name] = val
}

// Clone creates a copy of the environment.
func (e *Env) Clone() *Env {
	out := &Env{vars: make(map[string]Value, len(e.vars))}
	for k, v := range e.vars {
		out.vars[k] = v
	}
	return out
}

// Keys returns the bound names in sorted order.
func (e *Env) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Visible returns a copy without the auxiliary variables introduced by
// lowering (names containing '$').
func (e *Env) Visible() *Env {
	out := NewEnv()
	for k, v := range e.vars {
		if !strings.Contains(k, "$") {
			out.vars[k] = v
		}
	}
	return out
}

// Equal reports whether both environments bind the same names to equal
// values.
func (e *Env) Equal(other *Env) bool {
	if e == nil || other == nil {
		return e == other
	}
	if len(e.vars) != len(other.vars) {
		return false
	}
	for k, v := range e.vars {
		ov, ok := other.vars[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (e *Env) String() string {
	parts := make([]string, 0, len(e.vars))
	for _, k := range e.Keys() {
		parts = append(parts, k+": "+e.vars[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
