package convert

import (
	"go/token"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

func (c *Converter) convertIfThenElse(s *ast.IfThenElse, dest *gotoprog.Program) error {
	if s.Cond == nil || s.Then == nil {
		return diag.Errorf(s.Loc, "if-then-else takes a condition and a then branch")
	}

	if s.Init != nil {
		if err := c.convert(s.Init, dest); err != nil {
			return err
		}
	}

	then := c.newProgram()
	if err := c.convert(s.Then, then); err != nil {
		return err
	}
	els := c.newProgram()
	if s.Else != nil {
		if err := c.convert(s.Else, els); err != nil {
			return err
		}
	}

	guard := s.Cond
	if c.opts.Bool(config.ControlFlowTest) && !c.opts.Bool(config.DeadlockCheck) && needsFlowTest(guard) {
		g, err := c.removeSideEffects(guard, dest, true)
		if err != nil {
			return err
		}
		sym := c.fresh("cftest", g.Type(), s.Loc)
		c.emitAssign(sym, g, s.Loc, dest)
		guard = sym
	}

	return c.generateIfThenElse(guard, then, els, s.Loc, dest)
}

// needsFlowTest reports whether a guard is stored into its own variable
// for control flow testing. Plain comparisons, symbols and casts are not.
func needsFlowTest(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.Symbol, *ast.Typecast:
		return false
	case *ast.Binary:
		return x.Op != ast.OpEq && x.Op != ast.OpNeq
	default:
		return true
	}
}

// generateIfThenElse emits
//
//	v: if !guard goto y
//	w: trueCase
//	x: goto z
//	y: falseCase
//	z: skip
//
// consuming both fragments. Without a false case the guard jumps to z.
func (c *Converter) generateIfThenElse(guard ast.Expr, trueCase, falseCase *gotoprog.Program, loc token.Position, dest *gotoprog.Program) error {
	if trueCase.Empty() && falseCase.Empty() {
		if ast.HasSideEffects(guard) {
			_, err := c.removeSideEffects(guard, dest, false)
			return err
		}
		return nil
	}

	// if(c) goto L folds into a single conditional goto.
	if falseCase.Empty() && trueCase.Len() == 1 && !ast.HasSideEffects(guard) {
		if g := trueCase.First(); g.IsUnconditional() {
			g.Guard = c.atomicExpr(guard, loc, dest)
			dest.Append(trueCase)
			return nil
		}
	}

	if trueCase.Empty() {
		return c.generateIfThenElse(ast.Not(guard), falseCase, trueCase, loc, dest)
	}

	hasElse := !falseCase.Empty()
	z := c.arena.New(gotoprog.Skip, loc)

	target := z.ID
	if hasElse {
		target = falseCase.First().ID
	}

	v := c.newProgram()
	if err := c.generateConditionalBranch(ast.Not(guard), target, loc, v); err != nil {
		return err
	}

	dest.Append(v)
	dest.Append(trueCase)
	if hasElse {
		x := dest.Add(gotoprog.Goto, loc)
		x.Guard = ast.True()
		x.SetTarget(z.ID)
		dest.Append(falseCase)
	}
	dest.Push(z)
	return nil
}

// generateConditionalBranch emits a jump to target taken when guard holds
// and falls through otherwise.
func (c *Converter) generateConditionalBranch(guard ast.Expr, target gotoprog.Target, loc token.Position, dest *gotoprog.Program) error {
	if !ast.HasSideEffects(guard) {
		g := c.atomicExpr(guard, loc, dest)
		t := dest.Add(gotoprog.Goto, loc)
		t.Guard = g
		t.SetTarget(target)
		return nil
	}

	next := c.arena.New(gotoprog.Skip, loc)
	if err := c.generateConditionalBranch2(guard, target, next.ID, loc, dest); err != nil {
		return err
	}
	dest.Push(next)
	return nil
}

// generateConditionalBranch2 jumps to ifTrue when guard holds and to
// ifFalse otherwise. Conjunctions and disjunctions with effects are split
// into one branch per operand so that evaluation stops as early as in the
// source.
func (c *Converter) generateConditionalBranch2(guard ast.Expr, ifTrue, ifFalse gotoprog.Target, loc token.Position, dest *gotoprog.Program) error {
	if u, ok := guard.(*ast.Unary); ok && u.Op == ast.OpNot {
		return c.generateConditionalBranch2(u.X, ifFalse, ifTrue, loc, dest)
	}

	if !ast.HasSideEffects(guard) {
		c.emitBranchPair(c.atomicExpr(guard, loc, dest), ifTrue, ifFalse, loc, dest)
		return nil
	}

	if b, ok := guard.(*ast.Binary); ok && b.Op.IsLogical() {
		ops := flatten(b, b.Op)
		if b.Op == ast.OpAnd {
			for _, op := range ops {
				if err := c.generateConditionalBranch(ast.Not(op), ifFalse, loc, dest); err != nil {
					return err
				}
			}
			jump(dest, ifTrue, loc)
			return nil
		}
		for _, op := range ops {
			if err := c.generateConditionalBranch(op, ifTrue, loc, dest); err != nil {
				return err
			}
		}
		jump(dest, ifFalse, loc)
		return nil
	}

	cond, err := c.removeSideEffects(guard, dest, true)
	if err != nil {
		return err
	}
	c.emitBranchPair(c.atomicExpr(cond, loc, dest), ifTrue, ifFalse, loc, dest)
	return nil
}

func (c *Converter) emitBranchPair(guard ast.Expr, ifTrue, ifFalse gotoprog.Target, loc token.Position, dest *gotoprog.Program) {
	t := dest.Add(gotoprog.Goto, loc)
	t.Guard = guard
	t.SetTarget(ifTrue)
	jump(dest, ifFalse, loc)
}

func jump(dest *gotoprog.Program, target gotoprog.Target, loc token.Position) *gotoprog.Instruction {
	t := dest.Add(gotoprog.Goto, loc)
	t.Guard = ast.True()
	t.SetTarget(target)
	return t
}

// flatten collects the operands of a left-nested chain of op.
func flatten(e ast.Expr, op ast.BinaryOp) []ast.Expr {
	b, ok := e.(*ast.Binary)
	if !ok || b.Op != op {
		return []ast.Expr{e}
	}
	return append(flatten(b.X, op), flatten(b.Y, op)...)
}
