package interp

import (
	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

// ExecStmt executes a structured statement in env, which it updates.
//
// Expressions are evaluated left to right and calls are recorded in
// order. Gotos, exceptions, heap operations and aggregate values are
// outside the modeled subset and yield ResultUnknown.
func (ev *Evaluator) ExecStmt(stmt ast.Stmt, env *Env) Result {
	m := ev.newMachine(env)
	kind, val, err := m.exec(stmt)
	return m.result(kind, val, err)
}

func (m *machine) exec(stmt ast.Stmt) (ResultKind, Value, error) {
	if err := m.tick(); err != nil {
		return ResultContinue, nil, err
	}

	switch s := stmt.(type) {
	case nil:
		return ResultContinue, nil, nil

	case *ast.Block:
		return m.execList(s.Stmts, 0)

	case *ast.Decl:
		v := Zero(s.Symbol.Typ)
		if s.Init != nil {
			var err error
			if v, err = m.eval(s.Init); err != nil {
				return ResultContinue, nil, err
			}
		}
		return ResultContinue, nil, m.assign(s.Symbol, v)

	case *ast.ExprStmt:
		_, err := m.eval(s.X)
		return ResultContinue, nil, err

	case *ast.Assign:
		return ResultContinue, nil, m.execAssign(s.Lhs, s.Rhs)

	case *ast.Init:
		return ResultContinue, nil, m.execAssign(s.Lhs, s.Rhs)

	case *ast.FunctionCall:
		v, err := m.call(s.Func, s.Args, resultType(s.Lhs))
		if err != nil || s.Lhs == nil {
			return ResultContinue, nil, err
		}
		return ResultContinue, nil, m.assign(s.Lhs, v)

	case *ast.Assert:
		ok, err := m.evalBool(s.Cond)
		if err != nil {
			return ResultContinue, nil, err
		}
		if !ok {
			return ResultAssertFailed, nil, nil
		}
		return ResultContinue, nil, nil

	case *ast.Assume:
		ok, err := m.evalBool(s.Cond)
		if err != nil {
			return ResultContinue, nil, err
		}
		if !ok {
			return ResultAssumeFailed, nil, nil
		}
		return ResultContinue, nil, nil

	case *ast.Label:
		return m.exec(s.Body)

	case *ast.Case:
		return m.exec(s.Body)

	case *ast.IfThenElse:
		if s.Init != nil {
			if kind, val, err := m.exec(s.Init); err != nil || kind != ResultContinue {
				return kind, val, err
			}
		}
		c, err := m.evalBool(s.Cond)
		if err != nil {
			return ResultContinue, nil, err
		}
		if c {
			return m.exec(s.Then)
		}
		return m.exec(s.Else)

	case *ast.While:
		return m.loop(nil, s.Cond, nil, s.Body, false)

	case *ast.DoWhile:
		return m.loop(nil, s.Cond, nil, s.Body, true)

	case *ast.For:
		return m.loop(s.Init, s.Cond, s.Post, s.Body, false)

	case *ast.Switch:
		return m.execSwitch(s)

	case *ast.Break:
		return ResultBreak, nil, nil

	case *ast.Continue:
		return ResultContinueLoop, nil, nil

	case *ast.Return:
		if s.Value == nil {
			return ResultReturn, nil, nil
		}
		v, err := m.eval(s.Value)
		if err != nil {
			return ResultContinue, nil, err
		}
		return ResultReturn, v, nil

	case *ast.Skip, *ast.AtomicBegin, *ast.AtomicEnd:
		return ResultContinue, nil, nil

	default:
		return ResultContinue, nil, unsupported("statement %T", stmt)
	}
}

func (m *machine) execList(stmts []ast.Stmt, from int) (ResultKind, Value, error) {
	for _, s := range stmts[from:] {
		kind, val, err := m.exec(s)
		if err != nil || kind != ResultContinue {
			return kind, val, err
		}
	}
	return ResultContinue, nil, nil
}

func (m *machine) execAssign(lhs, rhs ast.Expr) error {
	if call, ok := rhs.(*ast.Call); ok {
		v, err := m.call(call.Func, call.Args, call.Typ)
		if err != nil {
			return err
		}
		return m.assign(lhs, v)
	}
	v, err := m.eval(rhs)
	if err != nil {
		return err
	}
	return m.assign(lhs, v)
}

func resultType(lhs ast.Expr) *ast.Type {
	if lhs == nil {
		return ast.EmptyType()
	}
	return lhs.Type()
}

// loop runs init, then body while cond holds. A nil cond is true; doFirst
// runs the body once before the first test.
func (m *machine) loop(init ast.Stmt, cond ast.Expr, post, body ast.Stmt, doFirst bool) (ResultKind, Value, error) {
	if init != nil {
		if kind, val, err := m.exec(init); err != nil || kind != ResultContinue {
			return kind, val, err
		}
	}

	first := true
	for {
		if err := m.tick(); err != nil {
			return ResultContinue, nil, err
		}
		if !(first && doFirst) && cond != nil {
			c, err := m.evalBool(cond)
			if err != nil {
				return ResultContinue, nil, err
			}
			if !c {
				return ResultContinue, nil, nil
			}
		}
		first = false

		kind, val, err := m.exec(body)
		if err != nil {
			return kind, val, err
		}
		switch kind {
		case ResultBreak:
			return ResultContinue, nil, nil
		case ResultContinue, ResultContinueLoop:
		default:
			return kind, val, nil
		}

		if post != nil {
			if kind, val, err := m.exec(post); err != nil || kind != ResultContinue {
				return kind, val, err
			}
		}
	}
}

// execSwitch enters the top-level statements of the switch body at the
// first case matching the value, or at the default case, and falls through
// the following cases.
func (m *machine) execSwitch(s *ast.Switch) (ResultKind, Value, error) {
	v, err := m.eval(s.Value)
	if err != nil {
		return ResultContinue, nil, err
	}

	b, ok := s.Body.(*ast.Block)
	if !ok {
		return ResultContinue, nil, unsupported("switch body %T", s.Body)
	}

	entry, def := -1, -1
	for i, st := range b.Stmts {
		c, ok := st.(*ast.Case)
		if !ok {
			continue
		}
		if c.Default {
			def = i
			continue
		}
		for _, ce := range c.Values {
			cv, err := m.eval(ce)
			if err != nil {
				return ResultContinue, nil, err
			}
			eq, err := binary(ast.OpEq, v, cv)
			if err != nil {
				return ResultContinue, nil, err
			}
			if eq.(BoolValue).Val && entry < 0 {
				entry = i
			}
		}
	}
	if entry < 0 {
		entry = def
	}
	if entry < 0 {
		return ResultContinue, nil, nil
	}

	kind, val, err := m.execList(b.Stmts, entry)
	if err == nil && kind == ResultBreak {
		kind = ResultContinue
	}
	return kind, val, err
}
