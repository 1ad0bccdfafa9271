package symtab

import (
	"fmt"
	"go/token"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

// Inserter is the part of a symbol table the factory needs.
type Inserter interface {
	Lookup(name string) (*Symbol, bool)
	Insert(s *Symbol) error
}

// Factory allocates uniquely named auxiliary variables. Names have the form
// base$N with a serial counter per base.
type Factory struct {
	table    Inserter
	module   string
	counters map[string]int
}

func NewFactory(table Inserter, module string) *Factory {
	return &Factory{
		table:    table,
		module:   module,
		counters: make(map[string]int),
	}
}

// Fresh creates and registers a new variable of type typ.
func (f *Factory) Fresh(base string, typ *ast.Type, loc token.Position) *Symbol {
	for {
		f.counters[base]++
		name := fmt.Sprintf("%s$%d", base, f.counters[base])
		if _, taken := f.table.Lookup(name); taken {
			continue
		}
		s := &Symbol{
			Name:     name,
			BaseName: name,
			Type:     typ,
			Lvalue:   true,
			Module:   f.module,
			Location: loc,
		}
		if err := f.table.Insert(s); err != nil {
			continue
		}
		return s
	}
}

// Next returns the next serial number for base without creating a symbol.
func (f *Factory) Next(base string) int {
	f.counters[base]++
	return f.counters[base]
}
