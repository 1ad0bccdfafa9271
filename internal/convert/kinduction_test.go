package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
	"github.com/gnoswap-labs/gotoconv/internal/symtab"
)

// stateUpdates counts the assignments cs = cs WITH [.f := v] whose value
// satisfies pred.
func stateUpdates(ins []*gotoprog.Instruction, pred func(ast.Expr) bool) int {
	n := 0
	for _, in := range ins {
		if in.Kind != gotoprog.Assign {
			continue
		}
		w, ok := in.Code.(*ast.Assign).Rhs.(*ast.With)
		if !ok || w.Field == "" {
			continue
		}
		if pred(w.Value) {
			n++
		}
	}
	return n
}

func isNondet(e ast.Expr) bool {
	_, ok := e.(*ast.Nondet)
	return ok
}

func isSymbol(e ast.Expr) bool {
	_, ok := e.(*ast.Symbol)
	return ok
}

func TestConstantBoundLoopIsInactive(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.InductiveStep)
	x := ast.Sym("x", ast.IntType())
	require.NoError(t, f.table.Insert(&symtab.Symbol{Name: "x", Type: ast.IntType(), Value: ast.Int(3)}))

	ins := f.lower(t, &ast.While{
		Cond: ast.Lt(x, ast.Int(5)),
		Body: &ast.FunctionCall{Func: ast.Sym("work", ast.CodeType())},
	})

	assert.Zero(t, stateUpdates(ins, func(ast.Expr) bool { return true }))
	assert.False(t, f.conv.HasActiveLoop())
	assert.False(t, f.opts.Bool(config.DisableInductiveStep))
	assert.Empty(t, f.sink.Issues())

	// test, call, back jump, exit, assume(!cond)
	require.Equal(t, []gotoprog.Kind{
		gotoprog.Goto, gotoprog.FunctionCall, gotoprog.Goto, gotoprog.Skip, gotoprog.Assume,
	}, kinds(ins))
	assert.Equal(t, "!(x < 5)", ins[4].Guard.String())
}

func TestActiveLoopInstrumentation(t *testing.T) {
	t.Parallel()

	i, n := ast.Sym("i", ast.IntType()), ast.Sym("n", ast.IntType())
	f := newFixture(t, config.InductiveStep)

	ins := f.lower(t, &ast.While{
		Cond: ast.Lt(i, n),
		Body: assign(i, ast.Add(i, ast.Int(1))),
	})

	// two captured variables: i and n
	assert.Equal(t, 2, stateUpdates(ins, isNondet))
	assert.Equal(t, 2, stateUpdates(ins, isSymbol))
	assert.True(t, f.conv.HasActiveLoop())

	require.Equal(t, []gotoprog.Kind{
		gotoprog.Assign, gotoprog.Assign, // havoc
		gotoprog.Assign,                  // kindice$1 = 0
		gotoprog.Goto,                    // test
		gotoprog.Assign,                  // store
		gotoprog.Assign,                  // body
		gotoprog.Assign, gotoprog.Assign, // copy
		gotoprog.Assume,                  // state differs
		gotoprog.Assign,                  // kindice$1 + 1
		gotoprog.Goto,
		gotoprog.Skip,
		gotoprog.Assume,                  // !(i < n)
	}, kinds(ins))

	assert.Equal(t, "kindice$1", assignTo(ins[2]))
	assert.Equal(t, "s$1", assignTo(ins[4]))
	assert.Equal(t, "s$1[kindice$1] != cs$1", ins[8].Guard.String())
	assert.Equal(t, ins[3].ID, ins[10].Targets[0])

	for _, name := range []string{"state$vector1", "kindice$1", "s$1", "cs$1"} {
		s, ok := f.table.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "test", s.Module)
	}
	state, _ := f.table.Lookup("state$vector1")
	assert.True(t, state.IsType)
	assert.Len(t, state.Type.Fields, 2)
	assert.Subset(t, f.conv.Introduced(), []string{"kindice$1", "s$1", "cs$1"})
}

func TestGlobalsSeedTheState(t *testing.T) {
	t.Parallel()

	f := newFixture(t, config.InductiveStep)
	f.declare(t, "g", ast.IntType(), true)
	f.declare(t, "gp", ast.PointerTo(ast.IntType()), true)
	f.declare(t, "__runtime", ast.IntType(), true)
	i := f.declare(t, "i", ast.IntType(), false)

	ins := f.lower(t, &ast.While{Cond: ast.True(), Body: assign(i, ast.Int(0))})

	// g and i; the pointer and the runtime variable are left out
	assert.Equal(t, 2, stateUpdates(ins, isNondet))
	state, ok := f.table.Lookup("state$vector1")
	require.True(t, ok)
	assert.Equal(t, "g", state.Type.Fields[0].Name)
}

func TestAllStatesCheck(t *testing.T) {
	t.Parallel()

	i := ast.Sym("i", ast.IntType())
	f := newFixture(t, config.InductiveStep, config.KInductionAllStates)
	ins := f.lower(t, &ast.While{Cond: ast.Lt(i, ast.Int(10)), Body: assign(i, ast.Add(i, ast.Int(1)))})

	pos := make(map[gotoprog.Target]int, len(ins))
	for k, in := range ins {
		pos[in.ID] = k
	}
	var loopBacks int
	for k, in := range ins {
		if in.IsGoto() && pos[in.Targets[0]] <= k {
			loopBacks++
		}
	}
	// the loop itself and the scan over the stored states
	assert.Equal(t, 2, loopBacks)
	assert.Contains(t, f.conv.Introduced(), "tmp$1")
}

func TestUnsupportedConditionDisablesInduction(t *testing.T) {
	t.Parallel()

	i := ast.Sym("i", ast.IntType())
	f := newFixture(t, config.InductiveStep)
	ins := f.lower(t, block(
		&ast.While{Cond: ast.Bin(ast.OpShl, i, ast.Int(1)), Body: &ast.Skip{}},
		&ast.While{Cond: ast.Lt(i, ast.Int(3)), Body: assign(i, ast.Add(i, ast.Int(1)))},
	))

	assert.True(t, f.opts.Bool(config.DisableInductiveStep))
	issues := f.sink.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, kinductionRule, issues[0].Rule)

	// neither loop is instrumented, including the second one
	assert.Zero(t, stateUpdates(ins, func(ast.Expr) bool { return true }))
}

func TestDynamicAllocationDisablesInduction(t *testing.T) {
	t.Parallel()

	p := ast.Sym("p", ast.PointerTo(ast.IntType()))
	f := newFixture(t, config.InductiveStep)
	f.lower(t, assign(p, &ast.New{Elem: ast.IntType()}))

	assert.True(t, f.opts.Bool(config.DisableInductiveStep))
	require.Len(t, f.sink.Issues(), 1)
	assert.Contains(t, f.sink.Issues()[0].Message, "dynamic memory allocation")
}

func TestForwardCondition(t *testing.T) {
	t.Parallel()

	i := ast.Sym("i", ast.IntType())
	f := newFixture(t, config.ForwardCondition)
	ins := f.lower(t, &ast.While{Cond: ast.Lt(i, ast.Int(10)), Body: assign(i, ast.Add(i, ast.Int(1)))})

	last := ins[len(ins)-1]
	require.Equal(t, gotoprog.Assert, last.Kind)
	assert.Equal(t, "forward condition", last.Property)
	assert.Equal(t, "!(i < 10)", last.Guard.String())
	_, registered := f.table.Lookup("cs$1")
	assert.False(t, registered)
}

func TestInfiniteLoopWithBreakHasNoExitAssumption(t *testing.T) {
	t.Parallel()

	i := ast.Sym("i", ast.IntType())
	f := newFixture(t, config.BaseCase)
	ins := f.lower(t, &ast.While{Cond: ast.True(), Body: block(
		assign(i, ast.Add(i, ast.Int(1))),
		&ast.IfThenElse{Cond: ast.Gt(i, ast.Int(3)), Then: &ast.Break{}},
	)})

	assert.Zero(t, countKind(ins, gotoprog.Assume))
}

func countKind(ins []*gotoprog.Instruction, k gotoprog.Kind) int {
	return len(ins) - countNot(ins, k)
}

func TestNestedLoopsGetOwnBlocks(t *testing.T) {
	t.Parallel()

	i, j := ast.Sym("i", ast.IntType()), ast.Sym("j", ast.IntType())
	f := newFixture(t, config.InductiveStep)
	f.lower(t, &ast.While{Cond: ast.Lt(i, ast.Int(3)), Body: &ast.While{
		Cond: ast.Lt(j, ast.Int(3)),
		Body: assign(j, ast.Add(j, ast.Int(1))),
	}})

	for _, name := range []string{"cs$1", "cs$2"} {
		_, ok := f.table.Lookup(name)
		assert.True(t, ok, name)
	}
}

func assignmentsTo(ins []*gotoprog.Instruction, name string) int {
	n := 0
	for _, in := range ins {
		if assignTo(in) == name {
			n++
		}
	}
	return n
}

func TestEffectfulLoopConditionRunsOnce(t *testing.T) {
	t.Parallel()

	loops := []struct {
		name string
		loop func(cond ast.Expr) ast.Stmt
	}{
		{"while", func(cond ast.Expr) ast.Stmt { return &ast.While{Cond: cond, Body: &ast.Skip{}} }},
		{"do-while", func(cond ast.Expr) ast.Stmt { return &ast.DoWhile{Cond: cond, Body: &ast.Skip{}} }},
		{"for", func(cond ast.Expr) ast.Stmt { return &ast.For{Cond: cond, Body: &ast.Skip{}} }},
	}
	modes := []struct {
		option string
		exit   gotoprog.Kind
	}{
		{"", gotoprog.Skip},
		{config.BaseCase, gotoprog.Assume},
		{config.InductiveStep, gotoprog.Assume},
		{config.ForwardCondition, gotoprog.Assert},
	}

	for _, l := range loops {
		for _, m := range modes {
			name := l.name + " " + m.option
			if m.option == "" {
				name = l.name + " plain"
			}
			l, m := l, m
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				var f *fixture
				if m.option == "" {
					f = newFixture(t)
				} else {
					f = newFixture(t, m.option)
				}
				i := ast.Sym("i", ast.IntType())
				cond := ast.Lt(&ast.IncDec{Op: ast.PostIncrement, X: i}, ast.Int(10))
				ins := f.lower(t, l.loop(cond))

				assert.Equal(t, 1, assignmentsTo(ins, "i"))
				assert.False(t, f.opts.Bool(config.DisableInductiveStep))

				last := ins[len(ins)-1]
				require.Equal(t, m.exit, last.Kind)
				if m.exit != gotoprog.Skip {
					assert.NotContains(t, last.Guard.String(), "++")
					assert.Contains(t, last.Guard.String(), "tmp$")
				}
			})
		}
	}
}

func TestForInitDoesNotDisableInduction(t *testing.T) {
	t.Parallel()

	i, n := ast.Sym("i", ast.IntType()), ast.Sym("n", ast.IntType())
	setup := ast.Sym("setup", ast.CodeType())

	tests := []struct {
		name string
		init ast.Stmt
	}{
		{"call statement", &ast.FunctionCall{Func: setup}},
		{"call expression", &ast.ExprStmt{X: &ast.Call{Func: setup}}},
		{"increment", &ast.ExprStmt{X: &ast.IncDec{Op: ast.PostIncrement, X: i}}},
		{"assignment expression", &ast.ExprStmt{X: &ast.AssignExpr{Lhs: i, Rhs: n}}},
		{"skip", &ast.Skip{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, config.InductiveStep)
			ins := f.lower(t, &ast.For{
				Init: tt.init,
				Cond: ast.Lt(i, n),
				Body: assign(i, ast.Add(i, ast.Int(1))),
			})

			assert.False(t, f.opts.Bool(config.DisableInductiveStep))
			assert.Empty(t, f.sink.Issues())
			assert.True(t, f.conv.HasActiveLoop())
			assert.NotZero(t, stateUpdates(ins, isNondet))
		})
	}
}

func TestUnsupportedForInitClearsActiveLoop(t *testing.T) {
	t.Parallel()

	i, n := ast.Sym("i", ast.IntType()), ast.Sym("n", ast.IntType())
	f := newFixture(t, config.InductiveStep)
	ins := f.lower(t, &ast.For{
		Init: assign(i, ast.Bin(ast.OpShl, n, ast.Int(1))),
		Cond: ast.Lt(i, n),
		Body: assign(i, ast.Add(i, ast.Int(1))),
	})

	assert.True(t, f.opts.Bool(config.DisableInductiveStep))
	require.Len(t, f.sink.Issues(), 1)
	assert.False(t, f.conv.HasActiveLoop())
	assert.Zero(t, stateUpdates(ins, func(ast.Expr) bool { return true }))
	_, registered := f.table.Lookup("cs$1")
	assert.False(t, registered)
}
