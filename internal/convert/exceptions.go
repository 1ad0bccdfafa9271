package convert

import (
	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// convertTryCatch lowers
//
//	CATCH push [id1 -> h1, ..., idn -> hn]
//	try body
//	CATCH pop
//	goto end
//	h1: handler 1; goto end
//	...
//	end: skip
func (c *Converter) convertTryCatch(s *ast.TryCatch, dest *gotoprog.Program) error {
	if s.Body == nil || len(s.Handlers) == 0 {
		return diag.Errorf(s.Loc, "try/catch expects a body and at least one handler")
	}

	push := dest.Add(gotoprog.Catch, s.Loc)
	end := c.arena.New(gotoprog.Skip, s.Loc)

	body := c.newProgram()
	if err := c.convert(s.Body, body); err != nil {
		return err
	}
	dest.Append(body)

	dest.Add(gotoprog.Catch, s.Loc)
	jump(dest, end.ID, s.Loc)

	for _, h := range s.Handlers {
		var stmt ast.Stmt = h.Body
		if stmt == nil {
			stmt = &ast.Skip{Loc: s.Loc}
		}
		handler := c.newProgram()
		if err := c.convert(stmt, handler); err != nil {
			return err
		}
		push.ExceptionIDs = append(push.ExceptionIDs, h.ExceptionID)
		push.Targets = append(push.Targets, handler.First().ID)
		dest.Append(handler)
		jump(dest, end.ID, stmt.Pos())
	}

	dest.Push(end)
	return nil
}

// lowerThrow emits a THROW carrying the value and the exception types it
// matches.
func (c *Converter) lowerThrow(x *ast.Throw, dest *gotoprog.Program) error {
	value, err := c.removeSideEffects(x.Value, dest, true)
	if err != nil {
		return err
	}
	ids := append([]string(nil), x.ExceptionList...)

	t := dest.Add(gotoprog.Throw, x.Loc)
	t.Code = &ast.ExprStmt{X: &ast.Throw{Value: value, ExceptionList: ids, Loc: x.Loc}, Loc: x.Loc}
	t.ExceptionIDs = ids
	return nil
}

func (c *Converter) convertThrowDecl(s *ast.ThrowDecl, dest *gotoprog.Program) {
	t := dest.Add(gotoprog.ThrowDecl, s.Loc)
	t.Code = s
	t.ExceptionIDs = append([]string(nil), s.Exceptions...)
}
