package convert

import (
	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// convertSwitch lowers the body first, collecting the case labels it
// contains, and then emits the dispatch in front of it:
//
//	if v == a || v == b goto A
//	...
//	goto default (or z)
//	body
//	z: skip
func (c *Converter) convertSwitch(s *ast.Switch, dest *gotoprog.Program) error {
	if s.Value == nil || s.Body == nil {
		return diag.Errorf(s.Loc, "switch takes at least two operands")
	}

	sideEffects := c.newProgram()
	value, err := c.removeSideEffects(s.Value, sideEffects, true)
	if err != nil {
		return err
	}

	saved := c.targets
	defer func() { c.targets = saved }()

	z := c.arena.New(gotoprog.Skip, s.Loc)
	cases := newCaseTable(z.ID)
	c.targets.setBreak(z.ID)
	c.targets.cases = cases

	body := c.newProgram()
	if err := c.convert(s.Body, body); err != nil {
		return err
	}

	dispatch := c.newProgram()
	for _, target := range cases.order {
		values := cases.values[target]
		tests := make([]ast.Expr, len(values))
		for i, v := range values {
			tests[i] = ast.Eq(value, v)
		}
		loc := values[0].Pos()
		guard := c.atomicExpr(ast.Or(tests...), loc, dispatch)

		t := dispatch.Add(gotoprog.Goto, loc)
		t.Guard = guard
		t.SetTarget(target)
	}
	jump(dispatch, cases.defaultTarget, s.Loc)

	dest.Append(sideEffects)
	dest.Append(dispatch)
	dest.Append(body)
	dest.Push(z)
	return nil
}
