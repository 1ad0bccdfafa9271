// Package frontend turns the functions of a Go source file into structured
// statement trees and fills the symbol table they refer to.
//
// Parsing uses go/parser and typing uses go/types. Type errors are
// tolerated: the verification builtins (assert, assume, atomic_begin,
// atomic_end) are usually left undeclared by the programs under test.
package frontend

import (
	goast "go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/symtab"
)

// Rule under which translation warnings are reported.
const Rule = "frontend"

// Function is one translated function declaration.
type Function struct {
	Name string
	Body ast.Stmt
	// ReturnsValue is set when the function has a single result.
	ReturnsValue bool
	Pos          token.Position
}

// File is the result of translating one source file.
type File struct {
	Filename  string
	Package   string
	Table     *symtab.Table
	Functions []*Function
	// TypeErrors lists the type checker complaints that were ignored.
	TypeErrors []string
}

// Function returns the translated function called name.
func (f *File) Function(name string) (*Function, bool) {
	for _, fn := range f.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// Options configures a translation.
type Options struct {
	Sink   diag.Sink
	Logger *zap.Logger
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Sink == nil {
		o.Sink = diag.NewZapSink(o.Logger)
	}
}

// ParseFile reads and translates filename.
func ParseFile(filename string, opts Options) (*File, error) {
	return ParseSource(filename, nil, opts)
}

// ParseSource translates src, which may be a string, a []byte or nil (read
// filename).
func ParseSource(filename string, src any, opts Options) (*File, error) {
	opts.defaults()

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	return Translate(fset, node, opts)
}

// Translate type checks a parsed file and translates it.
func Translate(fset *token.FileSet, node *goast.File, opts Options) (*File, error) {
	opts.defaults()

	out := &File{
		Filename: fset.Position(node.Pos()).Filename,
		Package:  node.Name.Name,
		Table:    symtab.New(),
	}

	info := &types.Info{
		Types:      make(map[goast.Expr]types.TypeAndValue),
		Defs:       make(map[*goast.Ident]types.Object),
		Uses:       make(map[*goast.Ident]types.Object),
		Selections: make(map[*goast.SelectorExpr]*types.Selection),
	}
	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			out.TypeErrors = append(out.TypeErrors, err.Error())
		},
	}
	// errors are collected above
	pkg, _ := conf.Check(node.Name.Name, fset, []*goast.File{node}, info)

	t := &translator{
		fset:   fset,
		info:   info,
		pkg:    pkg,
		table:  out.Table,
		sink:   opts.Sink,
		logger: opts.Logger,
		names:  make(map[types.Object]string),
	}
	if err := t.globals(node); err != nil {
		return nil, err
	}

	for _, decl := range node.Decls {
		fd, ok := decl.(*goast.FuncDecl)
		if !ok || fd.Body == nil || fd.Recv != nil {
			continue
		}
		fn, err := t.function(fd)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, fn)
	}

	opts.Logger.Debug("translated file",
		zap.String("file", out.Filename),
		zap.Int("functions", len(out.Functions)),
		zap.Int("symbols", out.Table.Len()),
		zap.Int("type_errors", len(out.TypeErrors)),
	)
	return out, nil
}

// globals registers package level variables, constants and functions.
func (t *translator) globals(node *goast.File) error {
	scope := t.info.Defs
	idents := make([]*goast.Ident, 0, len(scope))
	for id, obj := range scope {
		if obj == nil || obj.Name() == "_" || obj.Pkg() == nil || obj.Parent() != obj.Pkg().Scope() {
			continue
		}
		idents = append(idents, id)
	}
	sort.Slice(idents, func(i, j int) bool { return idents[i].Pos() < idents[j].Pos() })

	for _, id := range idents {
		obj := scope[id]
		s := &symtab.Symbol{
			Name:           obj.Name(),
			BaseName:       obj.Name(),
			Type:           t.typeOf(obj.Type()),
			StaticLifetime: true,
			Module:         node.Name.Name,
			Location:       t.position(id.Pos()),
		}
		switch obj := obj.(type) {
		case *types.Var:
			s.Lvalue = true
		case *types.Const:
			s.Value = t.constant(obj.Val(), s.Type, id.Pos())
		case *types.Func:
			s.Type = ast.CodeType()
		case *types.TypeName:
			s.IsType = true
		default:
			continue
		}
		t.names[obj] = s.Name
		if err := t.table.Insert(s); err != nil {
			return diag.Errorf(s.Location, "%v", err)
		}
	}

	// constant initial values of package variables
	for _, decl := range node.Decls {
		gd, ok := decl.(*goast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*goast.ValueSpec)
			if len(vs.Values) != len(vs.Names) {
				continue
			}
			for i, id := range vs.Names {
				tv, ok := t.info.Types[vs.Values[i]]
				if !ok || tv.Value == nil {
					continue
				}
				if s, found := t.table.Lookup(id.Name); found {
					s.Value = t.constant(tv.Value, s.Type, vs.Values[i].Pos())
				}
			}
		}
	}
	return nil
}

func (t *translator) function(fd *goast.FuncDecl) (*Function, error) {
	t.fn = fd.Name.Name
	t.counts = make(map[string]int)

	var returnsValue bool
	if obj, ok := t.info.Defs[fd.Name].(*types.Func); ok {
		sig := obj.Type().(*types.Signature)
		returnsValue = sig.Results().Len() == 1
		for i := 0; i < sig.Params().Len(); i++ {
			param := sig.Params().At(i)
			if param.Name() == "" || param.Name() == "_" {
				continue
			}
			if _, err := t.local(param); err != nil {
				return nil, err
			}
		}
	}

	body, err := t.block(fd.Body)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("translated function",
		zap.String("function", fd.Name.Name),
		zap.Int("locals", len(t.counts)),
	)
	return &Function{
		Name:         fd.Name.Name,
		Body:         body,
		ReturnsValue: returnsValue,
		Pos:          t.position(fd.Pos()),
	}, nil
}
