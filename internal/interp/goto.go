package interp

import (
	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

// RunFunction executes a finished GOTO function in env, which it updates.
//
// Execution stops at END_FUNCTION or past the last instruction. A RETURN
// instruction records the return value; the goto that follows it reaches
// the end of the function. Exceptions yield ResultUnknown.
func (ev *Evaluator) RunFunction(fn *gotoprog.Function, env *Env) Result {
	m := ev.newMachine(env)
	kind, val, err := m.run(fn)
	return m.result(kind, val, err)
}

func (m *machine) run(fn *gotoprog.Function) (ResultKind, Value, error) {
	var (
		returned bool
		retVal   Value
	)
	finish := func() (ResultKind, Value, error) {
		if returned {
			return ResultReturn, retVal, nil
		}
		return ResultContinue, nil, nil
	}

	pc := 0
	for pc < len(fn.Instructions) {
		if err := m.tick(); err != nil {
			return ResultContinue, nil, err
		}
		ins := fn.Instructions[pc]
		next := pc + 1

		switch ins.Kind {
		case gotoprog.Goto:
			take := true
			if ins.Guard != nil {
				var err error
				if take, err = m.evalBool(ins.Guard); err != nil {
					return ResultContinue, nil, err
				}
			}
			if take {
				if len(ins.Targets) != 1 {
					return ResultContinue, nil, unsupported("goto with %d targets", len(ins.Targets))
				}
				next = int(ins.Targets[0])
			}

		case gotoprog.Assume, gotoprog.Assert:
			ok, err := m.evalBool(ins.Guard)
			if err != nil {
				return ResultContinue, nil, err
			}
			if !ok {
				if ins.Kind == gotoprog.Assert {
					return ResultAssertFailed, nil, nil
				}
				return ResultAssumeFailed, nil, nil
			}

		case gotoprog.Assign:
			a, ok := ins.Code.(*ast.Assign)
			if !ok {
				return ResultContinue, nil, unsupported("assignment %T", ins.Code)
			}
			if err := m.execAssign(a.Lhs, a.Rhs); err != nil {
				return ResultContinue, nil, err
			}

		case gotoprog.FunctionCall:
			kind, _, err := m.exec(ins.Code)
			if err != nil || kind != ResultContinue {
				return kind, nil, err
			}

		case gotoprog.Return:
			r, ok := ins.Code.(*ast.Return)
			if !ok {
				return ResultContinue, nil, unsupported("return %T", ins.Code)
			}
			returned = true
			retVal = nil
			if r.Value != nil {
				v, err := m.eval(r.Value)
				if err != nil {
					return ResultContinue, nil, err
				}
				retVal = v
			}

		case gotoprog.Other:
			switch code := ins.Code.(type) {
			case *ast.Decl:
				if err := m.assign(code.Symbol, Zero(code.Symbol.Typ)); err != nil {
					return ResultContinue, nil, err
				}
			case *ast.ExprStmt:
				if _, err := m.eval(code.X); err != nil {
					return ResultContinue, nil, err
				}
			default:
				return ResultContinue, nil, unsupported("instruction %s", ins.Describe())
			}

		case gotoprog.EndFunction:
			return finish()

		case gotoprog.Skip, gotoprog.NoInstruction, gotoprog.AtomicBegin, gotoprog.AtomicEnd,
			gotoprog.ThrowDecl, gotoprog.ThrowDeclEnd:

		default:
			return ResultContinue, nil, unsupported("instruction %s", ins.Kind)
		}
		pc = next
	}
	return finish()
}
