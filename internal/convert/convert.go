// Package convert lowers structured statements into GOTO programs.
//
// A Converter is a conversion session: it owns the jump targets of the
// enclosing constructs, the label table and pending gotos of the function
// being lowered, the loop block stack used for k-induction and the factory
// that names auxiliary variables. A session is single threaded; convert
// different files with different converters.
package convert

import (
	"fmt"
	"go/token"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
	"github.com/gnoswap-labs/gotoconv/internal/symtab"
)

// SymbolTable is the symbol service the converter consumes.
type SymbolTable interface {
	Lookup(name string) (*symtab.Symbol, bool)
	Insert(s *symtab.Symbol) error
	Symbols() []*symtab.Symbol
}

// Destructors finds the cleanup function registered for a type. The
// returned expression is the callee; it receives the address of the object.
type Destructors interface {
	Destructor(typ *ast.Type) (ast.Expr, bool)
}

type noDestructors struct{}

func (noDestructors) Destructor(*ast.Type) (ast.Expr, bool) { return nil, false }

// Config collects the collaborators of a Converter. Only Table is required.
type Config struct {
	Table       SymbolTable
	Destructors Destructors
	Options     *config.Options
	Sink        diag.Sink
	Logger      *zap.Logger
	// Module is recorded on every symbol the converter introduces.
	Module string
}

type Converter struct {
	table   SymbolTable
	dtors   Destructors
	opts    *config.Options
	sink    diag.Sink
	logger  *zap.Logger
	factory *symtab.Factory
	module  string

	arena   *gotoprog.Arena
	targets targets
	labels  map[string]gotoprog.Target
	gotos   []*gotoprog.Instruction

	// temporaries created since the enclosing block statement started
	temps      []string
	introduced []string

	kind kinduction
}

// New creates a conversion session.
func New(cfg Config) *Converter {
	if cfg.Destructors == nil {
		cfg.Destructors = noDestructors{}
	}
	if cfg.Options == nil {
		cfg.Options = config.NewOptions()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sink == nil {
		cfg.Sink = diag.NewZapSink(cfg.Logger)
	}

	c := &Converter{
		table:   cfg.Table,
		dtors:   cfg.Destructors,
		opts:    cfg.Options,
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		factory: symtab.NewFactory(cfg.Table, cfg.Module),
		module:  cfg.Module,
		labels:  make(map[string]gotoprog.Target),
	}
	c.kind.init(cfg.Options)
	return c
}

// Convert appends the lowering of stmt to dest and resolves the gotos it
// contains. Labels are scoped to one call.
func (c *Converter) Convert(stmt ast.Stmt, dest *gotoprog.Program) error {
	c.arena = dest.Arena()
	c.labels = make(map[string]gotoprog.Target)
	c.gotos = nil
	c.temps = nil

	if err := c.convert(stmt, dest); err != nil {
		return err
	}
	return c.resolveGotos()
}

// ConvertFunction lowers the body of a function and finishes it. Returns
// jump to a trailing END_FUNCTION instruction. returnsValue states whether
// every return must carry a value.
func (c *Converter) ConvertFunction(name string, body ast.Stmt, returnsValue bool) (*gotoprog.Function, error) {
	arena := gotoprog.NewArena()
	p := arena.NewProgram()
	end := arena.New(gotoprog.EndFunction, body.Pos())

	saved := c.targets
	c.targets = targets{}
	c.targets.setReturn(end.ID, returnsValue)
	err := c.Convert(body, p)
	c.targets = saved
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	p.Push(end)
	fn, err := gotoprog.Finish(name, p)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("converted function",
		zap.String("function", name),
		zap.Int("instructions", len(fn.Instructions)),
		zap.Int("loops", len(fn.Loops())),
	)
	return fn, nil
}

// Introduced returns the names of the symbols the session has added to the
// symbol table, in creation order.
func (c *Converter) Introduced() []string {
	out := make([]string, len(c.introduced))
	copy(out, c.introduced)
	return out
}

// PendingGotos returns the number of gotos awaiting label resolution.
func (c *Converter) PendingGotos() int { return len(c.gotos) }

func (c *Converter) newProgram() *gotoprog.Program { return c.arena.NewProgram() }

func (c *Converter) warn(pos token.Position, rule, msg string) {
	c.sink.Warn(pos, rule, msg)
}

func (c *Converter) lookup(name string) (*symtab.Symbol, bool) {
	return c.table.Lookup(name)
}

// newTemp creates a fresh tmp$N of type typ.
func (c *Converter) newTemp(typ *ast.Type, loc token.Position) *ast.Symbol {
	return c.fresh("tmp", typ, loc)
}

func (c *Converter) fresh(base string, typ *ast.Type, loc token.Position) *ast.Symbol {
	s := c.factory.Fresh(base, typ, loc)
	c.temps = append(c.temps, s.Name)
	c.introduced = append(c.introduced, s.Name)
	return s.Expr()
}

func (c *Converter) convert(stmt ast.Stmt, dest *gotoprog.Program) error {
	if stmt == nil {
		return diag.Errorf(token.Position{}, "missing statement")
	}
	before := dest.Len()

	var err error
	switch s := stmt.(type) {
	case *ast.Block:
		err = c.convertBlock(s, dest)
	case *ast.Decl:
		err = c.convertDecl(s, dest)
	case *ast.ExprStmt:
		err = c.convertExprStmt(s, dest)
	case *ast.Assign:
		err = c.convertAssign(s.Lhs, s.Rhs, s.Loc, dest)
	case *ast.Init:
		err = c.convertAssign(s.Lhs, s.Rhs, s.Loc, dest)
	case *ast.Assert:
		err = c.convertAssert(s, dest)
	case *ast.Assume:
		err = c.convertAssume(s, dest)
	case *ast.FunctionCall:
		err = c.doFunctionCall(s.Lhs, s.Func, s.Args, s.Loc, dest)
	case *ast.Label:
		err = c.convertLabel(s, dest)
	case *ast.Case:
		err = c.convertCase(s, dest)
	case *ast.For:
		err = c.convertFor(s, dest)
	case *ast.While:
		err = c.convertWhile(s, dest)
	case *ast.DoWhile:
		err = c.convertDoWhile(s, dest)
	case *ast.Switch:
		err = c.convertSwitch(s, dest)
	case *ast.Break:
		err = c.convertBreak(s, dest)
	case *ast.Continue:
		err = c.convertContinue(s, dest)
	case *ast.Return:
		err = c.convertReturn(s, dest)
	case *ast.Goto:
		c.convertGoto(s, dest)
	case *ast.Skip:
		t := dest.Add(gotoprog.Skip, s.Loc)
		t.Code = s
	case *ast.IfThenElse:
		err = c.convertIfThenElse(s, dest)
	case *ast.AtomicBegin:
		dest.Add(gotoprog.AtomicBegin, s.Loc)
	case *ast.AtomicEnd:
		dest.Add(gotoprog.AtomicEnd, s.Loc)
	case *ast.Delete:
		err = c.convertDelete(s, dest)
	case *ast.TryCatch:
		err = c.convertTryCatch(s, dest)
	case *ast.ThrowDecl:
		c.convertThrowDecl(s, dest)
	case *ast.ThrowDeclEnd:
		dest.Add(gotoprog.ThrowDeclEnd, s.Loc)
	default:
		t := dest.Add(gotoprog.Other, stmt.Pos())
		t.Code = stmt
	}
	if err != nil {
		return err
	}

	if dest.Len() == before {
		t := dest.Add(gotoprog.Skip, stmt.Pos())
		t.Code = &ast.Skip{Loc: stmt.Pos()}
	}
	return nil
}

// convertBlock lowers the statements of a block in order. Every instruction
// of the block records the locals declared so far; on exit the registered
// destructors run for those locals in reverse declaration order.
func (c *Converter) convertBlock(b *ast.Block, dest *gotoprog.Program) error {
	var locals []string

	outer := c.temps
	c.temps = nil
	defer func() { c.temps = outer }()

	for _, stmt := range b.Stmts {
		if d, ok := stmt.(*ast.Decl); ok && d.Symbol != nil && c.isLocalDecl(d) {
			locals = append(locals, d.Symbol.Name)
		}

		tmp := c.newProgram()
		if err := c.convert(stmt, tmp); err != nil {
			return err
		}
		locals = append(locals, c.temps...)
		c.temps = nil

		addLocals(tmp, locals)
		dest.Append(tmp)
	}

	for i := len(locals) - 1; i >= 0; i-- {
		s, ok := c.lookup(locals[i])
		if !ok {
			continue
		}
		fn, ok := c.dtors.Destructor(s.Type)
		if !ok {
			continue
		}
		tmp := c.newProgram()
		args := []ast.Expr{ast.AddressOf(s.Expr())}
		if err := c.doFunctionCall(nil, fn, args, b.Loc, tmp); err != nil {
			return err
		}
		addLocals(tmp, locals)
		dest.Append(tmp)
	}
	return nil
}

func addLocals(p *gotoprog.Program, locals []string) {
	if len(locals) == 0 {
		return
	}
	for _, ins := range p.Instructions() {
		for _, name := range locals {
			if !contains(ins.Locals, name) {
				ins.Locals = append(ins.Locals, name)
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// declSymbol returns the table entry of the declared symbol, falling back
// to the information carried by the declaration itself.
func (c *Converter) declSymbol(d *ast.Decl) *symtab.Symbol {
	if s, ok := c.lookup(d.Symbol.Name); ok {
		return s
	}
	return &symtab.Symbol{
		Name:     d.Symbol.Name,
		BaseName: d.Symbol.Name,
		Type:     d.Symbol.Typ,
		Lvalue:   true,
		Location: d.Loc,
	}
}

func (c *Converter) isLocalDecl(d *ast.Decl) bool {
	s := c.declSymbol(d)
	return !s.StaticLifetime && !s.Type.IsCode()
}

func (c *Converter) convertDecl(d *ast.Decl, dest *gotoprog.Program) error {
	if d.Symbol == nil {
		return diag.Errorf(d.Loc, "declaration expects a symbol")
	}
	if !c.isLocalDecl(d) {
		return nil
	}

	if d.Init == nil {
		t := dest.Add(gotoprog.Other, d.Loc)
		t.Code = &ast.Decl{Symbol: d.Symbol, Loc: d.Loc}
		return nil
	}

	init, err := c.removeSideEffects(d.Init, dest, true)
	if err != nil {
		return err
	}
	init = c.atomicExpr(init, d.Loc, dest)

	t := dest.Add(gotoprog.Other, d.Loc)
	t.Code = &ast.Decl{Symbol: d.Symbol, Loc: d.Loc}

	a := dest.Add(gotoprog.Assign, d.Loc)
	a.Code = &ast.Assign{Lhs: d.Symbol, Rhs: init, Loc: d.Loc}
	return nil
}

func (c *Converter) convertExprStmt(s *ast.ExprStmt, dest *gotoprog.Program) error {
	if s.X == nil {
		return diag.Errorf(s.Loc, "expression statement takes one operand")
	}
	rest, err := c.removeSideEffects(s.X, dest, false)
	if err != nil {
		return err
	}
	if rest == nil || ast.IsConstant(rest) {
		return nil
	}
	if _, ok := rest.(*ast.Symbol); ok {
		return nil
	}
	t := dest.Add(gotoprog.Other, s.Loc)
	t.Code = &ast.ExprStmt{X: rest, Loc: s.Loc}
	return nil
}

// convertAssign lowers lhs = rhs. Calls and allocations on the right-hand
// side become a single instruction; everything else is reduced to a pure
// assignment, wrapped in an atomic section when shared state is read.
func (c *Converter) convertAssign(lhs, rhs ast.Expr, loc token.Position, dest *gotoprog.Program) error {
	if lhs == nil || rhs == nil {
		return diag.Errorf(loc, "assignment statement takes two operands")
	}

	lhs, err := c.removeSideEffects(lhs, dest, true)
	if err != nil {
		return err
	}

	switch r := rhs.(type) {
	case *ast.Call:
		return c.doFunctionCall(lhs, r.Func, r.Args, loc, dest)
	case *ast.New:
		n, err := c.lowerNew(r, dest)
		if err != nil {
			return err
		}
		c.emitAssign(lhs, n, loc, dest)
		return nil
	}

	rhs, err = c.removeSideEffects(rhs, dest, true)
	if err != nil {
		return err
	}
	if rhs == nil {
		return diag.Errorf(loc, "void value assigned to %s", lhs)
	}

	if tc, ok := lhs.(*ast.Typecast); ok {
		lhs = tc.X
		rhs = ast.Cast(rhs, lhs.Type())
	}

	atomic := false
	if c.opts.Bool(config.AtomicityCheck) && !isTemporary(lhs) {
		rhs, atomic = c.atomicAssign(lhs, rhs, loc, dest)
	}
	c.emitAssign(lhs, rhs, loc, dest)
	if atomic {
		dest.Add(gotoprog.AtomicEnd, loc)
	}

	if c.inductiveStep() && c.kind.current() != nil && !lhs.Type().IsEmpty() {
		c.captureExpr(lhs)
	}
	return nil
}

func (c *Converter) emitAssign(lhs, rhs ast.Expr, loc token.Position, dest *gotoprog.Program) *gotoprog.Instruction {
	t := dest.Add(gotoprog.Assign, loc)
	t.Code = &ast.Assign{Lhs: lhs, Rhs: rhs, Loc: loc}
	return t
}

// doFunctionCall emits a call after lowering the side effects of the
// destination, the callee and the arguments, in that order.
func (c *Converter) doFunctionCall(lhs, fn ast.Expr, args []ast.Expr, loc token.Position, dest *gotoprog.Program) error {
	if fn == nil {
		return diag.Errorf(loc, "function call expects a callee")
	}

	var err error
	if lhs != nil {
		if lhs, err = c.removeSideEffects(lhs, dest, true); err != nil {
			return err
		}
	}
	if fn, err = c.removeSideEffects(fn, dest, true); err != nil {
		return err
	}

	pure := make([]ast.Expr, len(args))
	for i, a := range args {
		v, err := c.removeSideEffects(a, dest, true)
		if err != nil {
			return err
		}
		if v == nil {
			return diag.Errorf(a.Pos(), "void value passed as argument %d", i+1)
		}
		pure[i] = v
	}

	t := dest.Add(gotoprog.FunctionCall, loc)
	t.Code = &ast.FunctionCall{Lhs: lhs, Func: fn, Args: pure, Loc: loc}
	return nil
}

func (c *Converter) convertAssert(s *ast.Assert, dest *gotoprog.Program) error {
	if s.Cond == nil {
		return diag.Errorf(s.Loc, "assert statement takes one operand")
	}
	cond, err := c.removeSideEffects(s.Cond, dest, true)
	if err != nil {
		return err
	}
	if c.opts.Bool(config.NoAssertions) {
		return nil
	}
	cond = c.atomicExpr(cond, s.Loc, dest)

	t := dest.Add(gotoprog.Assert, s.Loc)
	t.Guard = cond
	t.Property = "assertion"
	t.UserProvided = true
	t.Comment = s.Comment
	if t.Comment == "" {
		t.Comment = "assertion " + cond.String()
	}
	return nil
}

func (c *Converter) convertAssume(s *ast.Assume, dest *gotoprog.Program) error {
	if s.Cond == nil {
		return diag.Errorf(s.Loc, "assume statement takes one operand")
	}
	cond, err := c.removeSideEffects(s.Cond, dest, true)
	if err != nil {
		return err
	}
	cond = c.atomicExpr(cond, s.Loc, dest)

	t := dest.Add(gotoprog.Assume, s.Loc)
	t.Guard = cond
	return nil
}

// convertDelete runs the destructor of the pointed-to object, keeps the
// delete itself and marks the object as deallocated.
func (c *Converter) convertDelete(s *ast.Delete, dest *gotoprog.Program) error {
	if s.X == nil {
		return diag.Errorf(s.Loc, "delete statement takes one operand")
	}
	p, err := c.removeSideEffects(s.X, dest, true)
	if err != nil {
		return err
	}

	if !s.Array && p.Type().IsPointer() {
		if fn, ok := c.dtors.Destructor(p.Type().Elem); ok {
			if err := c.doFunctionCall(nil, fn, []ast.Expr{p}, s.Loc, dest); err != nil {
				return err
			}
		}
	}

	t := dest.Add(gotoprog.Other, s.Loc)
	t.Code = &ast.Delete{X: p, Array: s.Array, Loc: s.Loc}

	valid := &ast.ObjectState{Kind: ast.ValidObject, X: p, Loc: s.Loc}
	c.emitAssign(valid, ast.False(), s.Loc, dest)
	freed := &ast.ObjectState{Kind: ast.DeallocatedObject, X: p, Loc: s.Loc}
	c.emitAssign(freed, ast.True(), s.Loc, dest)
	return nil
}

func (c *Converter) convertReturn(s *ast.Return, dest *gotoprog.Program) error {
	if !c.targets.returnSet {
		return diag.Errorf(s.Loc, "return without target")
	}

	var value ast.Expr
	if s.Value != nil {
		v, err := c.removeSideEffects(s.Value, dest, true)
		if err != nil {
			return err
		}
		if v != nil {
			value = c.atomicExpr(v, s.Loc, dest)
		}
	}

	if c.targets.returnValue && value == nil {
		return diag.Errorf(s.Loc, "function must return value")
	}
	if !c.targets.returnValue && value != nil && !value.Type().IsEmpty() {
		return diag.Errorf(s.Loc, "function must not return value")
	}

	t := dest.Add(gotoprog.Return, s.Loc)
	t.Code = &ast.Return{Value: value, Loc: s.Loc}

	g := dest.Add(gotoprog.Goto, s.Loc)
	g.Guard = ast.True()
	g.SetTarget(c.targets.returnTarget)
	return nil
}

func (c *Converter) convertBreak(s *ast.Break, dest *gotoprog.Program) error {
	if !c.targets.breakSet {
		return diag.Errorf(s.Loc, "break without target")
	}
	if b := c.kind.current(); b != nil {
		b.hasBreak = true
	}
	t := dest.Add(gotoprog.Goto, s.Loc)
	t.Guard = ast.True()
	t.SetTarget(c.targets.breakTarget)
	return nil
}

func (c *Converter) convertContinue(s *ast.Continue, dest *gotoprog.Program) error {
	if !c.targets.continueSet {
		return diag.Errorf(s.Loc, "continue without target")
	}
	t := dest.Add(gotoprog.Goto, s.Loc)
	t.Guard = ast.True()
	t.SetTarget(c.targets.continueTarget)
	return nil
}

func isTemporary(e ast.Expr) bool {
	root := ast.RootSymbol(e)
	return root != nil && len(root.Name) > 4 && root.Name[:4] == "tmp$"
}
