package convert

import (
	"fmt"
	"go/token"
	"strings"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
	"github.com/gnoswap-labs/gotoconv/internal/symtab"
)

/*
k-induction instrumentation

Every loop converted while k-induction is enabled gets a loop block. The
block owns a state record (a struct type named state$vectorN) whose
components are the variables the loop reads or writes. An active loop is
lowered as

	cs$N = cs$N WITH [.x := nondet]   for every component, before the loop
	kindice$N = 0
	loop test
	s$N = s$N WITH [kindice$N := cs$N]
	body
	cs$N = cs$N WITH [.x := x]       for every component
	assume(s$N[kindice$N] != cs$N)
	kindice$N = kindice$N + 1
	loop back
	assume(!cond)                    (base case and inductive step)

so that the inductive step only explores executions in which no state
repeats. Anything the classifier cannot reason about turns k-induction off
for the rest of the run through the shared disable-inductive-step option.
*/

const kinductionRule = "k-induction"

// loopBlock is the k-induction record of one loop nesting level.
type loopBlock struct {
	ordinal  int
	state    *ast.Type
	vars     map[string]bool
	hasBreak bool
	active   bool
	// instrumented is set when the block carries state symbols.
	instrumented bool
}

type kinduction struct {
	inductive bool
	baseCase  bool
	forward   bool
	allStates bool

	stack     []*loopBlock
	counter   int
	anyActive bool

	globals      []ast.Field
	globalsReady bool
}

func (k *kinduction) init(o *config.Options) {
	k.inductive = o.Bool(config.InductiveStep)
	k.baseCase = o.Bool(config.BaseCase)
	k.forward = o.Bool(config.ForwardCondition)
	k.allStates = o.Bool(config.KInductionAllStates)
}

func (k *kinduction) current() *loopBlock {
	if len(k.stack) == 0 {
		return nil
	}
	return k.stack[len(k.stack)-1]
}

func (k *kinduction) enabled() bool {
	return k.inductive || k.baseCase
}

// HasActiveLoop reports whether some loop converted so far was
// instrumented for the inductive step.
func (c *Converter) HasActiveLoop() bool { return c.kind.anyActive }

func (c *Converter) disabled() bool {
	return c.opts.Bool(config.DisableInductiveStep)
}

func (c *Converter) inductiveStep() bool {
	return c.kind.inductive && !c.disabled()
}

func (c *Converter) baseCase() bool {
	return c.kind.baseCase && !c.disabled()
}

// activeLoop returns the innermost loop block when it is instrumented.
func (c *Converter) activeLoop() *loopBlock {
	b := c.kind.current()
	if b == nil || !b.active || !c.inductiveStep() {
		return nil
	}
	return b
}

// disableKInduction turns k-induction off for the remainder of the run.
func (c *Converter) disableKInduction(pos token.Position, msg string) {
	c.warn(pos, kinductionRule, msg)
	c.opts.SetBool(config.DisableInductiveStep, true)
	c.kind.inductive = false
	c.kind.baseCase = false
	c.kind.anyActive = false
	for _, b := range c.kind.stack {
		b.active = false
		b.instrumented = false
	}
}

// pushLoop opens a loop block. It reports whether a block was pushed; only
// then must the caller pop it.
func (c *Converter) pushLoop() bool {
	induction := c.inductiveStep() || c.baseCase()
	if !induction && !c.kind.forward {
		return false
	}

	c.kind.counter++
	n := c.kind.counter
	b := &loopBlock{
		ordinal:      n,
		state:        ast.StructOf(fmt.Sprintf("state$vector%d", n)),
		vars:         make(map[string]bool),
		instrumented: induction,
	}
	if c.inductiveStep() {
		for _, f := range c.globalState() {
			b.vars[f.Name] = true
			b.state.AddField(f.Name, f.Type)
		}
	}
	c.kind.stack = append(c.kind.stack, b)
	return true
}

// popLoop closes the innermost loop block and registers its state symbols.
func (c *Converter) popLoop(loc token.Position) {
	b := c.kind.current()
	c.kind.stack = c.kind.stack[:len(c.kind.stack)-1]

	if b.active && c.inductiveStep() {
		c.kind.anyActive = true
	}
	if !b.instrumented {
		return
	}

	n := b.ordinal
	syms := []*symtab.Symbol{
		{Name: fmt.Sprintf("state$vector%d", n), Type: b.state, IsType: true},
		{Name: fmt.Sprintf("kindice$%d", n), Type: ast.UintType(), StaticLifetime: true, Lvalue: true},
		{Name: fmt.Sprintf("s$%d", n), Type: ast.ArrayOf(b.state, -1), StaticLifetime: true, Lvalue: true},
		{Name: fmt.Sprintf("cs$%d", n), Type: b.state, StaticLifetime: true, Lvalue: true},
	}
	for _, s := range syms {
		s.BaseName = s.Name
		s.Module = c.module
		s.Location = loc
		if err := c.table.Insert(s); err != nil {
			c.logger.Debug("loop state symbol not registered", zap.String("symbol", s.Name), zap.Error(err))
			continue
		}
		c.introduced = append(c.introduced, s.Name)
	}
}

// globalState returns the static non-pointer variables that seed every
// state record.
func (c *Converter) globalState() []ast.Field {
	if c.kind.globalsReady {
		return c.kind.globals
	}
	c.kind.globalsReady = true
	for _, s := range c.table.Symbols() {
		if !s.StaticLifetime || s.IsType || s.Type.IsCode() || s.Type.IsPointer() || s.Type.IsEmpty() {
			continue
		}
		if isAuxiliary(s.Name) {
			continue
		}
		c.kind.globals = append(c.kind.globals, ast.Field{Name: s.Name, Type: s.Type})
	}
	return c.kind.globals
}

// isAuxiliary reports whether name belongs to a variable introduced by the
// converter or by the runtime library.
func isAuxiliary(name string) bool {
	return strings.Contains(name, "$") || strings.Contains(name, "__")
}

func (c *Converter) checkLoopCond(cond ast.Expr) {
	b := c.kind.current()
	if b == nil || !c.inductiveStep() {
		return
	}
	if cond == nil || ast.IsTrue(cond) {
		b.active = true
		return
	}
	c.classify(cond, b)
}

// checkLoopInit classifies the initialization of a for loop.
func (c *Converter) checkLoopInit(s ast.Stmt) {
	b := c.kind.current()
	if b == nil || s == nil || !c.inductiveStep() {
		return
	}
	switch s := s.(type) {
	case *ast.Assign:
		c.classify(s.Rhs, b)
	case *ast.Init:
		c.classify(s.Rhs, b)
	case *ast.Decl:
		if s.Init != nil {
			c.classify(s.Init, b)
		}
	case *ast.ExprStmt:
		// increments and calls leave nothing to classify
		if a, ok := s.X.(*ast.AssignExpr); ok {
			c.classify(a.Rhs, b)
		}
	case *ast.Block:
		for _, stmt := range s.Stmts {
			c.checkLoopInit(stmt)
		}
	}
}

// classify marks b active when e depends on a value that may change
// between iterations.
func (c *Converter) classify(e ast.Expr, b *loopBlock) {
	if !c.inductiveStep() {
		return
	}
	switch x := e.(type) {
	case *ast.Constant:
		return
	case *ast.Symbol:
		if !c.isLoopConstant(x) {
			b.active = true
		}
		return
	case *ast.Typecast:
		if !c.isLoopConstant(x.X) {
			b.active = true
		}
		return
	case *ast.Unary:
		if x.Op == ast.OpDeref || x.Op == ast.OpNot {
			c.classify(x.X, b)
			return
		}
	case *ast.Binary:
		switch x.Op {
		case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte, ast.OpEq:
			if !c.isLoopConstant(x.X) || !c.isLoopConstant(x.Y) {
				b.active = true
			}
			return
		case ast.OpAnd, ast.OpOr, ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpNeq:
			c.classify(x.X, b)
			c.classify(x.Y, b)
			return
		}
	case *ast.AssignExpr:
		c.classify(x.Rhs, b)
		return
	}
	c.unsupportedLoop(e.Pos(), e.String())
}

func (c *Converter) unsupportedLoop(pos token.Position, what string) {
	c.disableKInduction(pos, fmt.Sprintf("unsupported loop condition %s, the inductive step is disabled", what))
}

// isLoopConstant reports whether e cannot change: literals, pointers and
// symbols whose value is a known constant.
func (c *Converter) isLoopConstant(e ast.Expr) bool {
	if ast.IsConstant(e) || e.Type().IsPointer() {
		return true
	}
	sym, ok := e.(*ast.Symbol)
	if !ok {
		return false
	}
	s, ok := c.lookup(sym.Name)
	return ok && s.Value != nil && ast.IsConstant(s.Value)
}

// capture adds every variable in n to the state of the innermost loop.
func (c *Converter) capture(n ast.Node) {
	b := c.kind.current()
	if b == nil || n == nil {
		return
	}
	ast.Inspect(n, func(n ast.Node) bool {
		if s, ok := n.(*ast.Symbol); ok {
			c.captureSymbol(b, s)
		}
		return true
	})
}

func (c *Converter) captureExpr(e ast.Expr) {
	if e != nil {
		c.capture(e)
	}
}

func (c *Converter) captureStmt(s ast.Stmt) {
	if s != nil {
		c.capture(s)
	}
}

func (c *Converter) captureSymbol(b *loopBlock, s *ast.Symbol) {
	if b.vars[s.Name] || s.Typ.IsEmpty() || s.Typ.IsCode() || isAuxiliary(s.Name) {
		return
	}
	if entry, ok := c.lookup(s.Name); ok && entry.IsType {
		return
	}
	b.vars[s.Name] = true
	b.state.AddField(s.Name, s.Typ)
}

type stateSymbols struct {
	cs, s, k *ast.Symbol
}

func (b *loopBlock) symbols(loc token.Position) stateSymbols {
	n := b.ordinal
	return stateSymbols{
		cs: &ast.Symbol{Name: fmt.Sprintf("cs$%d", n), Typ: b.state, Loc: loc},
		s:  &ast.Symbol{Name: fmt.Sprintf("s$%d", n), Typ: ast.ArrayOf(b.state, -1), Loc: loc},
		k:  &ast.Symbol{Name: fmt.Sprintf("kindice$%d", n), Typ: ast.UintType(), Loc: loc},
	}
}

// havocState gives every component of the current state an arbitrary
// value.
func (c *Converter) havocState(b *loopBlock, loc token.Position, dest *gotoprog.Program) {
	st := b.symbols(loc)
	for _, f := range b.state.Fields {
		upd := &ast.With{X: st.cs, Field: f.Name, Value: ast.NondetOf(f.Type, loc), Typ: b.state, Loc: loc}
		c.emitAssign(st.cs, upd, loc, dest)
	}
}

func (c *Converter) resetCounter(b *loopBlock, loc token.Position, dest *gotoprog.Program) {
	st := b.symbols(loc)
	c.emitAssign(st.k, ast.IntConst(0, ast.UintType()), loc, dest)
}

// storeState records the current state at the counter position.
func (c *Converter) storeState(b *loopBlock, loc token.Position, dest *gotoprog.Program) {
	st := b.symbols(loc)
	upd := &ast.With{X: st.s, Index: st.k, Value: st.cs, Typ: st.s.Typ, Loc: loc}
	c.emitAssign(st.s, upd, loc, dest)
}

// copyState copies the live variables into the current state.
func (c *Converter) copyState(b *loopBlock, loc token.Position, dest *gotoprog.Program) {
	st := b.symbols(loc)
	for _, f := range b.state.Fields {
		v := &ast.Symbol{Name: f.Name, Typ: f.Type, Loc: loc}
		upd := &ast.With{X: st.cs, Field: f.Name, Value: v, Typ: b.state, Loc: loc}
		c.emitAssign(st.cs, upd, loc, dest)
	}
}

// stateDiffers is the comparison shared by both state checks.
func stateDiffers(st stateSymbols, idx ast.Expr) ast.Expr {
	return ast.Neq(ast.IndexOf(st.s, idx), st.cs)
}

// checkState restricts the execution to a state that was not seen at the
// current counter and advances the counter. With all states checking, the
// current state is compared against every stored entry by an explicit loop.
func (c *Converter) checkState(b *loopBlock, loc token.Position, dest *gotoprog.Program) {
	st := b.symbols(loc)
	if !c.kind.allStates {
		t := dest.Add(gotoprog.Assume, loc)
		t.Guard = stateDiffers(st, st.k)
	} else {
		c.checkAllStates(st, loc, dest)
	}
	inc := &ast.Binary{Op: ast.OpAdd, X: st.k, Y: ast.IntConst(1, ast.UintType()), Typ: ast.UintType(), Loc: loc}
	c.emitAssign(st.k, inc, loc, dest)
}

// checkAllStates emits
//
//	tmp = 0
//	v: if !(tmp <= kindice) goto z
//	   assume(s[tmp] != cs)
//	   tmp = tmp + 1
//	   goto v
//	z: skip
func (c *Converter) checkAllStates(st stateSymbols, loc token.Position, dest *gotoprog.Program) {
	i := c.newTemp(ast.UintType(), loc)
	c.emitAssign(i, ast.IntConst(0, ast.UintType()), loc, dest)

	z := c.arena.New(gotoprog.Skip, loc)
	v := dest.Add(gotoprog.Goto, loc)
	v.Guard = ast.Not(ast.Lte(i, st.k))
	v.SetTarget(z.ID)

	t := dest.Add(gotoprog.Assume, loc)
	t.Guard = stateDiffers(st, i)

	inc := &ast.Binary{Op: ast.OpAdd, X: i, Y: ast.IntConst(1, ast.UintType()), Typ: ast.UintType(), Loc: loc}
	c.emitAssign(i, inc, loc, dest)
	jump(dest, v.ID, loc)
	dest.Push(z)
}

// assumeExit emits the post-loop condition. It is omitted for a loop that
// only ends through break.
func (c *Converter) assumeExit(b *loopBlock, cond ast.Expr, loc token.Position, dest *gotoprog.Program) error {
	if cond == nil {
		cond = ast.True()
	}
	if ast.IsTrue(cond) && b != nil && b.hasBreak {
		return nil
	}

	switch {
	case c.inductiveStep() || c.baseCase():
		return c.convertAssume(&ast.Assume{Cond: ast.Not(cond), Loc: loc}, dest)
	case c.kind.forward:
		g, err := c.removeSideEffects(ast.Not(cond), dest, true)
		if err != nil {
			return err
		}
		t := dest.Add(gotoprog.Assert, loc)
		t.Guard = g
		t.Property = "forward condition"
		t.Comment = "forward condition"
	}
	return nil
}
