package convert

import (
	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// convertLabel lowers the labelled statement and names its first
// instruction. The configured error label is preceded by assert(false).
func (c *Converter) convertLabel(s *ast.Label, dest *gotoprog.Program) error {
	if s.Body == nil {
		return diag.Errorf(s.Loc, "label statement expected to have one operand")
	}

	tmp := c.newProgram()
	if err := c.convert(s.Body, tmp); err != nil {
		return err
	}

	target := tmp.First()
	if name := c.opts.Get(config.ErrorLabel); name != "" && name == s.Name {
		t := dest.Add(gotoprog.Assert, s.Loc)
		t.Guard = ast.False()
		t.Property = "error label"
		t.Comment = "error label"
		t.UserProvided = false
		target = t
	}
	dest.Append(tmp)

	if s.Name == "" {
		return nil
	}
	if _, dup := c.labels[s.Name]; dup {
		return diag.Errorf(s.Loc, "duplicate label %s", s.Name)
	}
	c.labels[s.Name] = target.ID
	target.AddLabel(s.Name)
	return nil
}

// convertCase lowers a case body and records its first instruction as the
// target for the case values of the enclosing switch.
func (c *Converter) convertCase(s *ast.Case, dest *gotoprog.Program) error {
	cases := c.targets.cases
	if cases == nil {
		return diag.Errorf(s.Loc, "case label outside switch")
	}
	if !s.Default && len(s.Values) == 0 {
		return diag.Errorf(s.Loc, "case label without value")
	}

	var body ast.Stmt = s.Body
	if body == nil {
		body = &ast.Skip{Loc: s.Loc}
	}
	tmp := c.newProgram()
	if err := c.convert(body, tmp); err != nil {
		return err
	}
	target := tmp.First()
	dest.Append(tmp)

	if s.Default {
		if cases.defaultSet {
			return diag.Errorf(s.Loc, "multiple default labels in one switch")
		}
		cases.defaultSet = true
		cases.defaultTarget = target.ID
		return nil
	}
	cases.add(target.ID, s.Values)
	return nil
}

// convertGoto emits a jump whose target is filled in by resolveGotos.
func (c *Converter) convertGoto(s *ast.Goto, dest *gotoprog.Program) {
	t := dest.Add(gotoprog.Goto, s.Loc)
	t.Guard = ast.True()
	t.Code = s
	t.PendingLabel = s.Label
	c.gotos = append(c.gotos, t)
}

// resolveGotos binds every pending goto to its label. Labels may follow
// their first use, so this runs once the whole body is lowered.
func (c *Converter) resolveGotos() error {
	for _, g := range c.gotos {
		target, ok := c.labels[g.PendingLabel]
		if !ok {
			return diag.Errorf(g.Location, "goto label %s not found", g.PendingLabel)
		}
		g.SetTarget(target)
		g.PendingLabel = ""
	}
	c.gotos = nil
	return nil
}
