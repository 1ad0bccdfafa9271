package convert

import (
	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// beginLoop opens the loop block and classifies the loop condition.
func (c *Converter) beginLoop(cond ast.Expr) (b *loopBlock, pushed bool) {
	pushed = c.pushLoop()
	if !pushed {
		return nil, false
	}
	b = c.kind.current()
	c.checkLoopCond(cond)
	return b, true
}

// captureLoop adds the variables of an active loop to its state.
func (c *Converter) captureLoop(cond ast.Expr, body ast.Stmt) {
	if c.activeLoop() == nil {
		return
	}
	c.captureExpr(cond)
	c.captureStmt(body)
}

// convertWhile lowers while(c) P to
//
//	[havoc; kindice = 0]
//	v: side effects of c
//	   if !c goto z
//	   [store state]
//	w: P
//	   [copy state; check state]
//	y: goto v
//	z: skip
//	   [assume(!c)]
func (c *Converter) convertWhile(s *ast.While, dest *gotoprog.Program) error {
	if s.Cond == nil || s.Body == nil {
		return diag.Errorf(s.Loc, "while takes two operands")
	}

	b, pushed := c.beginLoop(s.Cond)
	if pushed {
		defer c.popLoop(s.Loc)
	}
	c.captureLoop(s.Cond, s.Body)

	saved := c.targets
	defer func() { c.targets = saved }()

	z := c.arena.New(gotoprog.Skip, s.Loc)
	test := c.newProgram()
	cond, err := c.removeSideEffects(s.Cond, test, true)
	if err != nil {
		return err
	}
	if cond == nil {
		return diag.Errorf(s.Loc, "while condition has no value")
	}
	if err := c.generateConditionalBranch(ast.Not(cond), z.ID, s.Loc, test); err != nil {
		return err
	}
	v := test.First()

	c.targets.setBreak(z.ID)
	c.targets.setContinue(v.ID)

	body := c.newProgram()
	if err := c.convert(s.Body, body); err != nil {
		return err
	}

	active := c.activeLoop()
	if active != nil {
		c.havocState(active, s.Loc, dest)
		c.resetCounter(active, s.Loc, dest)
	}
	dest.Append(test)
	if active != nil {
		c.storeState(active, s.Loc, dest)
	}
	dest.Append(body)
	if active != nil {
		c.copyState(active, s.Loc, dest)
		c.checkState(active, s.Loc, dest)
	}
	jump(dest, v.ID, s.Loc)
	dest.Push(z)

	return c.assumeExit(b, cond, s.Loc, dest)
}

// convertDoWhile lowers do P while(c) to
//
//	[kindice = 0; havoc]
//	w: P
//	x: side effects of c
//	y: if c goto w
//	   [store state; copy state; check state]
//	z: skip
//	   [assume(!c)]
//
// continue jumps to x.
func (c *Converter) convertDoWhile(s *ast.DoWhile, dest *gotoprog.Program) error {
	if s.Cond == nil || s.Body == nil {
		return diag.Errorf(s.Loc, "do-while takes two operands")
	}

	sideEffects := c.newProgram()
	cond, err := c.removeSideEffects(s.Cond, sideEffects, true)
	if err != nil {
		return err
	}
	if cond == nil {
		return diag.Errorf(s.Loc, "do-while condition has no value")
	}

	b, pushed := c.beginLoop(cond)
	if pushed {
		defer c.popLoop(s.Loc)
	}
	c.captureLoop(cond, s.Body)

	saved := c.targets
	defer func() { c.targets = saved }()

	y := c.arena.New(gotoprog.Goto, s.Loc)
	z := c.arena.New(gotoprog.Skip, s.Loc)

	x := y
	if !sideEffects.Empty() {
		x = sideEffects.First()
	}
	c.targets.setBreak(z.ID)
	c.targets.setContinue(x.ID)

	body := c.newProgram()
	if err := c.convert(s.Body, body); err != nil {
		return err
	}
	w := body.First()

	active := c.activeLoop()
	if active != nil {
		c.resetCounter(active, s.Loc, dest)
		c.havocState(active, s.Loc, dest)
	}
	dest.Append(body)
	dest.Append(sideEffects)

	y.Guard = cond
	y.SetTarget(w.ID)
	dest.Push(y)

	if active != nil {
		c.storeState(active, s.Loc, dest)
		c.copyState(active, s.Loc, dest)
		c.checkState(active, s.Loc, dest)
	}
	dest.Push(z)

	return c.assumeExit(b, cond, s.Loc, dest)
}

// convertFor lowers for(A; c; B) P to
//
//	A
//	[havoc; kindice = 0]
//	u: side effects of c
//	v: if !c goto z
//	   [store state]
//	w: P
//	x: B
//	   [copy state; check state]
//	y: goto u
//	z: skip
//	   [assume(!c)]
//
// continue jumps to x, or to u when there is no step.
func (c *Converter) convertFor(s *ast.For, dest *gotoprog.Program) error {
	if s.Body == nil {
		return diag.Errorf(s.Loc, "for takes four operands")
	}

	condExpr := s.Cond
	if condExpr == nil {
		condExpr = ast.True()
	}

	b, pushed := c.beginLoop(condExpr)
	if pushed {
		defer c.popLoop(s.Loc)
	}
	c.checkLoopInit(s.Init)
	c.captureLoop(condExpr, s.Body)

	if s.Init != nil {
		if err := c.convert(s.Init, dest); err != nil {
			return err
		}
	}

	saved := c.targets
	defer func() { c.targets = saved }()

	sideEffects := c.newProgram()
	cond, err := c.removeSideEffects(condExpr, sideEffects, true)
	if err != nil {
		return err
	}
	if cond == nil {
		return diag.Errorf(s.Loc, "for condition has no value")
	}

	v := c.arena.New(gotoprog.Goto, s.Loc)
	z := c.arena.New(gotoprog.Skip, s.Loc)

	u := v
	if !sideEffects.Empty() {
		u = sideEffects.First()
	}

	step := c.newProgram()
	if s.Post != nil {
		if err := c.convert(s.Post, step); err != nil {
			return err
		}
	}

	c.targets.setBreak(z.ID)
	if step.Empty() {
		c.targets.setContinue(u.ID)
	} else {
		c.targets.setContinue(step.First().ID)
	}

	v.Guard = ast.Not(cond)
	v.SetTarget(z.ID)

	body := c.newProgram()
	if err := c.convert(s.Body, body); err != nil {
		return err
	}

	active := c.activeLoop()
	if active != nil {
		c.havocState(active, s.Loc, dest)
		c.resetCounter(active, s.Loc, dest)
	}
	dest.Append(sideEffects)
	dest.Push(v)
	if active != nil {
		c.storeState(active, s.Loc, dest)
	}
	dest.Append(body)
	dest.Append(step)
	if active != nil {
		c.copyState(active, s.Loc, dest)
		c.checkState(active, s.Loc, dest)
	}
	jump(dest, u.ID, s.Loc)
	dest.Push(z)

	return c.assumeExit(b, cond, s.Loc, dest)
}
