package gotoprog

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
)

var noPos token.Position

func TestAppendIsDestructive(t *testing.T) {
	t.Parallel()
	a := NewArena()
	p := a.NewProgram()
	q := a.NewProgram()

	p.Add(Assign, noPos)
	q.Add(Assert, noPos)
	q.Add(Skip, noPos)

	p.Append(q)
	assert.Equal(t, 3, p.Len())
	assert.True(t, q.Empty())
	assert.Equal(t, Skip, p.Last().Kind)
	assert.Equal(t, Assign, p.First().Kind)
}

func TestPrepend(t *testing.T) {
	t.Parallel()
	a := NewArena()
	p := a.NewProgram()
	q := a.NewProgram()

	p.Add(Assign, noPos)
	q.Add(Assert, noPos)
	p.Prepend(q)

	require.Equal(t, 2, p.Len())
	assert.Equal(t, Assert, p.First().Kind)
	assert.True(t, q.Empty())
}

func TestTargetsSurviveSplicing(t *testing.T) {
	t.Parallel()
	a := NewArena()
	body := a.NewProgram()
	end := a.New(Skip, noPos)

	jump := body.Add(Goto, noPos)
	jump.Guard = ast.True()
	jump.SetTarget(end.ID)

	outer := a.NewProgram()
	outer.Add(Assign, noPos)
	outer.Append(body)
	outer.Push(end)

	assert.Same(t, end, a.At(jump.Targets[0]))
	assert.Same(t, end, outer.Last())
}

func TestFinishEmpty(t *testing.T) {
	t.Parallel()
	a := NewArena()
	fn, err := Finish("f", a.NewProgram())
	require.NoError(t, err)
	require.Len(t, fn.Instructions, 1)
	assert.Equal(t, Skip, fn.Instructions[0].Kind)
}

func TestFinishRemovesSkips(t *testing.T) {
	t.Parallel()
	a := NewArena()
	p := a.NewProgram()

	// 0: if c goto 3
	// 1: x = 1
	// 2: skip
	// 3: skip (label L)
	// 4: y = 2
	// 5: skip
	g := p.Add(Goto, noPos)
	g.Guard = ast.Sym("c", ast.BoolType())
	p.Add(Assign, noPos)
	p.Add(Skip, noPos)
	join := p.Add(NoInstruction, noPos)
	join.AddLabel("L")
	p.Add(Assign, noPos)
	p.Add(Skip, noPos)
	g.SetTarget(join.ID)

	fn, err := Finish("f", p)
	require.NoError(t, err)
	require.Len(t, fn.Instructions, 4)

	kinds := make([]Kind, 0, len(fn.Instructions))
	for _, ins := range fn.Instructions {
		kinds = append(kinds, ins.Kind)
	}
	assert.Equal(t, []Kind{Goto, Assign, Assign, Skip}, kinds)
	assert.Equal(t, []Target{2}, fn.Instructions[0].Targets)
	assert.Equal(t, []string{"L"}, fn.Instructions[2].Labels)
	for i, ins := range fn.Instructions {
		assert.Equal(t, Target(i), ins.ID)
	}
}

func TestFinishRejectsForeignTarget(t *testing.T) {
	t.Parallel()
	a := NewArena()
	p := a.NewProgram()
	stray := a.New(Skip, noPos)
	g := p.Add(Goto, noPos)
	g.Guard = ast.True()
	g.SetTarget(stray.ID)

	_, err := Finish("f", p)
	assert.Error(t, err)
}

func TestLoopNumbers(t *testing.T) {
	t.Parallel()
	a := NewArena()
	p := a.NewProgram()

	head := p.Add(Assign, noPos)
	fwd := p.Add(Goto, noPos)
	fwd.Guard = ast.Sym("c", ast.BoolType())
	back := p.Add(Goto, noPos)
	back.Guard = ast.True()
	back.SetTarget(head.ID)
	inner := p.Add(Goto, noPos)
	inner.Guard = ast.True()
	inner.SetTarget(inner.ID)
	end := p.Add(Skip, noPos)
	fwd.SetTarget(end.ID)

	fn, err := Finish("f", p)
	require.NoError(t, err)

	loops := fn.Loops()
	require.Len(t, loops, 2)
	assert.Equal(t, Loop{Number: 1, Head: 0, Back: 2}, loops[0])
	assert.Equal(t, Loop{Number: 2, Head: 3, Back: 3}, loops[1])
	assert.Equal(t, 0, fn.Instructions[1].LoopNumber)
	assert.True(t, fn.Targeted()[4])
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	x := ast.Sym("x", ast.IntType())

	tests := []struct {
		name     string
		ins      Instruction
		expected string
	}{
		{"goto", Instruction{Kind: Goto, Guard: ast.True()}, "GOTO"},
		{"cond goto", Instruction{Kind: Goto, Guard: ast.Not(ast.Gt(x, ast.Int(0)))}, "IF !(x > 0) THEN GOTO"},
		{"assert", Instruction{Kind: Assert, Guard: ast.False()}, "ASSERT FALSE"},
		{"assign", Instruction{Kind: Assign, Code: &ast.Assign{Lhs: x, Rhs: ast.Int(1)}}, "x = 1"},
		{"catch pop", Instruction{Kind: Catch}, "CATCH []"},
		{"end", Instruction{Kind: EndFunction}, "END_FUNCTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ins.Describe())
		})
	}
}
