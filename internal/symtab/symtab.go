// Package symtab is the symbol table shared by the front end and the
// converter, plus the factory for the auxiliary symbols the converter
// introduces.
package symtab

import (
	"fmt"
	"go/token"
	"sort"
	"sync"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

// Symbol is one entry of the table.
type Symbol struct {
	Name     string // unique identifier
	BaseName string // source level name
	Type     *ast.Type
	// Value is the initial value of constants and globals, nil when unknown.
	Value ast.Expr

	StaticLifetime bool
	IsType         bool
	Lvalue         bool
	Module         string
	Location       token.Position
}

// Expr returns a reference to s.
func (s *Symbol) Expr() *ast.Symbol {
	return &ast.Symbol{Name: s.Name, Typ: s.Type, Loc: s.Location}
}

type Table struct {
	symbols map[string]*Symbol
	order   []string
	mutex   sync.RWMutex
}

func New() *Table {
	return &Table{
		symbols: make(map[string]*Symbol),
	}
}

// Insert adds s. It fails when the name is already taken.
func (t *Table) Insert(s *Symbol) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.symbols[s.Name]; exists {
		return fmt.Errorf("symbol %q already defined", s.Name)
	}
	t.symbols[s.Name] = s
	t.order = append(t.order, s.Name)
	return nil
}

func (t *Table) IsDefined(name string) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	_, exists := t.symbols[name]
	return exists
}

func (t *Table) Lookup(name string) (*Symbol, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	s, exists := t.symbols[name]
	return s, exists
}

// Symbols returns every symbol in insertion order.
func (t *Table) Symbols() []*Symbol {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]*Symbol, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.symbols[name])
	}
	return out
}

// Names returns the symbol names in lexical order.
func (t *Table) Names() []string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	names := make([]string, len(t.order))
	copy(names, t.order)
	sort.Strings(names)
	return names
}

func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.order)
}
