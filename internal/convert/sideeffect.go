package convert

import (
	"go/token"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// removeSideEffects emits the effectful parts of e into dest, in left to
// right evaluation order, and returns the pure expression that remains.
// When resultUsed is false the value of e is not needed; effect forms then
// return nil. The result never contains an effectful node.
func (c *Converter) removeSideEffects(e ast.Expr, dest *gotoprog.Program, resultUsed bool) (ast.Expr, error) {
	if e == nil || !ast.HasSideEffects(e) {
		return e, nil
	}

	switch x := e.(type) {
	case *ast.IncDec:
		return c.lowerIncDec(x, dest, resultUsed)
	case *ast.AssignExpr:
		return c.lowerAssignExpr(x, dest, resultUsed)
	case *ast.Call:
		return c.lowerCall(x, dest, resultUsed)
	case *ast.New:
		n, err := c.lowerNew(x, dest)
		if err != nil {
			return nil, err
		}
		tmp := c.newTemp(n.Type(), x.Loc)
		c.emitAssign(tmp, n, x.Loc, dest)
		return tmp, nil
	case *ast.Throw:
		return nil, c.lowerThrow(x, dest)
	case *ast.StmtExpr:
		return c.lowerStmtExpr(x, dest, resultUsed)
	case *ast.Binary:
		if x.Op.IsLogical() && ast.HasSideEffects(x.Y) {
			return c.lowerShortCircuit(x, dest)
		}
	case *ast.Cond:
		if ast.HasSideEffects(x.Then) || ast.HasSideEffects(x.Else) {
			return c.lowerCond(x, dest, resultUsed)
		}
	}

	var err error
	out := ast.MapOperands(e, func(op ast.Expr) ast.Expr {
		if err != nil {
			return op
		}
		v, opErr := c.removeSideEffects(op, dest, true)
		if opErr != nil {
			err = opErr
			return op
		}
		if v == nil {
			err = diag.Errorf(op.Pos(), "void value used in expression %s", e)
			return op
		}
		return v
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lowerIncDec rewrites x++ and friends to x = x ± 1. The old value of a
// post form is saved into a temporary when the result is used.
func (c *Converter) lowerIncDec(x *ast.IncDec, dest *gotoprog.Program, resultUsed bool) (ast.Expr, error) {
	if x.X == nil {
		return nil, diag.Errorf(x.Loc, "%s takes one operand", x.Op)
	}
	lv, err := c.removeSideEffects(x.X, dest, true)
	if err != nil {
		return nil, err
	}
	rhs, err := step(lv, x.Op.IsIncrement(), x.Loc)
	if err != nil {
		return nil, err
	}

	var old ast.Expr
	if resultUsed && x.Op.IsPost() {
		tmp := c.newTemp(lv.Type(), x.Loc)
		c.emitAssign(tmp, lv, x.Loc, dest)
		old = tmp
	}

	if err := c.convertAssign(lv, rhs, x.Loc, dest); err != nil {
		return nil, err
	}
	switch {
	case !resultUsed:
		return nil, nil
	case old != nil:
		return old, nil
	default:
		return lv, nil
	}
}

// step builds lv + 1 or lv - 1. Booleans and enums are computed in int and
// cast back; pointers step by one element.
func step(lv ast.Expr, inc bool, loc token.Position) (ast.Expr, error) {
	op := ast.OpSub
	if inc {
		op = ast.OpAdd
	}
	typ := lv.Type()

	switch {
	case typ.IsBool(), typ.IsEnum():
		sum := &ast.Binary{Op: op, X: ast.Cast(lv, ast.IntType()), Y: ast.Int(1), Typ: ast.IntType(), Loc: loc}
		return ast.Cast(sum, typ), nil
	case typ.IsPointer():
		return &ast.Binary{Op: op, X: lv, Y: ast.IntConst(1, ast.IndexType()), Typ: typ, Loc: loc}, nil
	case typ.IsNumber():
		return &ast.Binary{Op: op, X: lv, Y: ast.IntConst(1, typ), Typ: typ, Loc: loc}, nil
	default:
		return nil, diag.Errorf(loc, "no constant one of type %s", typ)
	}
}

func (c *Converter) lowerAssignExpr(x *ast.AssignExpr, dest *gotoprog.Program, resultUsed bool) (ast.Expr, error) {
	if x.Lhs == nil || x.Rhs == nil {
		return nil, diag.Errorf(x.Loc, "assignment takes two operands")
	}
	lhs, err := c.removeSideEffects(x.Lhs, dest, true)
	if err != nil {
		return nil, err
	}

	rhs := x.Rhs
	if x.Op != 0 {
		typ := lhs.Type()
		if typ.IsBool() {
			r := &ast.Binary{Op: x.Op, X: ast.Cast(lhs, ast.IntType()), Y: ast.Cast(rhs, ast.IntType()), Typ: ast.IntType(), Loc: x.Loc}
			rhs = ast.Cast(r, typ)
		} else {
			rhs = &ast.Binary{Op: x.Op, X: lhs, Y: rhs, Typ: typ, Loc: x.Loc}
		}
	}

	if err := c.convertAssign(lhs, rhs, x.Loc, dest); err != nil {
		return nil, err
	}
	if !resultUsed {
		return nil, nil
	}
	return lhs, nil
}

// lowerCall emits the call; a used, non-void result is received by a
// fresh temporary.
func (c *Converter) lowerCall(x *ast.Call, dest *gotoprog.Program, resultUsed bool) (ast.Expr, error) {
	if !resultUsed || x.Type().IsEmpty() {
		return nil, c.doFunctionCall(nil, x.Func, x.Args, x.Loc, dest)
	}
	tmp := c.newTemp(x.Type(), x.Loc)
	if err := c.doFunctionCall(tmp, x.Func, x.Args, x.Loc, dest); err != nil {
		return nil, err
	}
	return tmp, nil
}

// lowerNew lowers the element count of an allocation. Dynamic allocation
// cannot be handled by the inductive step, so k-induction is turned off.
func (c *Converter) lowerNew(x *ast.New, dest *gotoprog.Program) (*ast.New, error) {
	if c.kind.enabled() {
		c.disableKInduction(x.Loc, "this program contains dynamic memory allocation, so we are not applying the inductive step to this program")
	}
	count, err := c.removeSideEffects(x.Count, dest, true)
	if err != nil {
		return nil, err
	}
	return &ast.New{Elem: x.Elem, Count: count, Loc: x.Loc}, nil
}

// lowerStmtExpr lowers the body of a statement expression. Its value is
// the value of the final expression statement, copied to a temporary.
func (c *Converter) lowerStmtExpr(x *ast.StmtExpr, dest *gotoprog.Program, resultUsed bool) (ast.Expr, error) {
	b, ok := x.Body.(*ast.Block)
	if !ok {
		if x.Body == nil {
			return nil, diag.Errorf(x.Loc, "statement expression without body")
		}
		return nil, c.convert(x.Body, dest)
	}
	if len(b.Stmts) == 0 {
		return nil, nil
	}

	last := len(b.Stmts) - 1
	for _, s := range b.Stmts[:last] {
		if err := c.convert(s, dest); err != nil {
			return nil, err
		}
	}

	es, ok := b.Stmts[last].(*ast.ExprStmt)
	if !ok || !resultUsed {
		return nil, c.convert(b.Stmts[last], dest)
	}
	v, err := c.removeSideEffects(es.X, dest, true)
	if err != nil || v == nil {
		return v, err
	}
	if v.Type().IsEmpty() {
		return v, nil
	}
	tmp := c.newTemp(v.Type(), x.Loc)
	c.emitAssign(tmp, v, x.Loc, dest)
	return tmp, nil
}

// lowerShortCircuit evaluates x && y (or x || y) with effects in y through
// a boolean temporary so that y only runs when needed.
func (c *Converter) lowerShortCircuit(x *ast.Binary, dest *gotoprog.Program) (ast.Expr, error) {
	lhs, err := c.removeSideEffects(x.X, dest, true)
	if err != nil {
		return nil, err
	}
	tmp := c.newTemp(ast.BoolType(), x.Loc)
	c.emitAssign(tmp, ast.Cast(lhs, ast.BoolType()), x.Loc, dest)

	inner := c.newProgram()
	rhs, err := c.removeSideEffects(x.Y, inner, true)
	if err != nil {
		return nil, err
	}
	if rhs == nil {
		return nil, diag.Errorf(x.Y.Pos(), "void value used in expression %s", x)
	}
	c.emitAssign(tmp, ast.Cast(rhs, ast.BoolType()), x.Loc, inner)

	var guard ast.Expr = tmp
	if x.Op == ast.OpOr {
		guard = ast.Not(tmp)
	}
	if err := c.generateIfThenElse(guard, inner, c.newProgram(), x.Loc, dest); err != nil {
		return nil, err
	}
	return tmp, nil
}

// lowerCond lowers c ? a : b when a branch has effects. Only the selected
// branch runs; a used result is received by a temporary.
func (c *Converter) lowerCond(x *ast.Cond, dest *gotoprog.Program, resultUsed bool) (ast.Expr, error) {
	cond, err := c.removeSideEffects(x.Cond, dest, true)
	if err != nil {
		return nil, err
	}

	var tmp *ast.Symbol
	if resultUsed && !x.Type().IsEmpty() {
		tmp = c.newTemp(x.Type(), x.Loc)
	}

	branch := func(e ast.Expr) (*gotoprog.Program, error) {
		p := c.newProgram()
		v, err := c.removeSideEffects(e, p, resultUsed)
		if err != nil {
			return nil, err
		}
		if tmp != nil && v != nil {
			c.emitAssign(tmp, v, x.Loc, p)
		}
		return p, nil
	}
	then, err := branch(x.Then)
	if err != nil {
		return nil, err
	}
	els, err := branch(x.Else)
	if err != nil {
		return nil, err
	}

	if err := c.generateIfThenElse(cond, then, els, x.Loc, dest); err != nil {
		return nil, err
	}
	if tmp == nil {
		return nil, nil
	}
	return tmp, nil
}
