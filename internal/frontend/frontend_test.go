package frontend

import (
	goast "go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/convert"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/interp"
)

func parse(t *testing.T, src string) (*File, *diag.ZapSink) {
	t.Helper()
	sink := diag.NewZapSink(nil)
	f, err := ParseSource("test.go", src, Options{Sink: sink})
	require.NoError(t, err)
	return f, sink
}

func body(t *testing.T, f *File, name string) []ast.Stmt {
	t.Helper()
	fn, ok := f.Function(name)
	require.True(t, ok, name)
	b, ok := fn.Body.(*ast.Block)
	require.True(t, ok)
	return b.Stmts
}

func TestSymbols(t *testing.T) {
	t.Parallel()

	f, _ := parse(t, `package p

const limit = 10

var counter int
var ready = true
var buf *int

func step(n int) int {
	x := n
	{
		x := 2
		counter += x
	}
	return x
}
`)

	tests := []struct {
		name   string
		static bool
		lvalue bool
		kind   ast.TypeKind
	}{
		{"limit", true, false, ast.KindInt},
		{"counter", true, true, ast.KindInt},
		{"ready", true, true, ast.KindBool},
		{"buf", true, true, ast.KindPointer},
		{"step", true, false, ast.KindCode},
		{"step::n", false, true, ast.KindInt},
		{"step::x", false, true, ast.KindInt},
		{"step::x.2", false, true, ast.KindInt},
	}
	for _, tt := range tests {
		s, ok := f.Table.Lookup(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.static, s.StaticLifetime, tt.name)
		assert.Equal(t, tt.lvalue, s.Lvalue, tt.name)
		assert.Equal(t, tt.kind, s.Type.Kind, tt.name)
	}

	limit, _ := f.Table.Lookup("limit")
	require.NotNil(t, limit.Value)
	assert.Equal(t, "10", limit.Value.String())

	ready, _ := f.Table.Lookup("ready")
	require.NotNil(t, ready.Value)
	assert.True(t, ast.IsTrue(ready.Value))

	counter, _ := f.Table.Lookup("counter")
	assert.Nil(t, counter.Value)
	assert.Equal(t, "p", counter.Module)
	assert.Empty(t, f.TypeErrors)
}

func TestStatements(t *testing.T) {
	t.Parallel()

	f, sink := parse(t, `package p

func shapes(n int) {
	if m := n * 2; m > 3 {
		n = m
	} else if n < 0 {
		n = 0
	}
	for i := 0; i < n; i++ {
	}
	for n > 0 {
		n--
	}
	for {
		break
	}
loop:
	for n < 10 {
		n += 2
		if n == 7 {
			goto loop
		}
	}
}
`)
	stmts := body(t, f, "shapes")
	require.Len(t, stmts, 5)

	ifBlock, ok := stmts[0].(*ast.Block)
	require.True(t, ok, "if with init is scoped")
	ite := ifBlock.Stmts[0].(*ast.IfThenElse)
	_, isDecl := ite.Init.(*ast.Decl)
	assert.True(t, isDecl)
	assert.Equal(t, "shapes::m > 3", ite.Cond.String())
	_, nested := ite.Else.(*ast.IfThenElse)
	assert.True(t, nested)

	forBlock := stmts[1].(*ast.Block)
	loop := forBlock.Stmts[0].(*ast.For)
	assert.Equal(t, "shapes::i < shapes::n", loop.Cond.String())
	require.NotNil(t, loop.Post)

	w := stmts[2].(*ast.While)
	assert.Equal(t, "shapes::n > 0", w.Cond.String())

	forever := stmts[3].(*ast.While)
	assert.True(t, ast.IsTrue(forever.Cond))

	label := stmts[4].(*ast.Label)
	assert.Equal(t, "loop", label.Name)
	_, isWhile := label.Body.(*ast.While)
	assert.True(t, isWhile)

	assert.Empty(t, sink.Issues())
}

func TestSwitch(t *testing.T) {
	t.Parallel()

	f, _ := parse(t, `package p

func pick(x int) int {
	y := 0
	switch x {
	case 1, 2:
		y = 1
		fallthrough
	case 3:
		y++
	default:
		y = 9
	}
	return y
}
`)
	sw := body(t, f, "pick")[1].(*ast.Switch)
	assert.Equal(t, "pick::x", sw.Value.String())

	cases := sw.Body.(*ast.Block).Stmts
	require.Len(t, cases, 3)

	first := cases[0].(*ast.Case)
	assert.Len(t, first.Values, 2)
	firstBody := first.Body.(*ast.Block).Stmts
	_, endsInBreak := firstBody[len(firstBody)-1].(*ast.Break)
	assert.False(t, endsInBreak, "fallthrough drops the break")

	second := cases[1].(*ast.Case).Body.(*ast.Block).Stmts
	_, endsInBreak = second[len(second)-1].(*ast.Break)
	assert.True(t, endsInBreak)

	assert.True(t, cases[2].(*ast.Case).Default)
}

func TestBuiltins(t *testing.T) {
	t.Parallel()

	f, _ := parse(t, `package p

var shared int

func check(x int) {
	assume(x > 0)
	atomic_begin()
	shared = x
	atomic_end()
	assert(shared > 0, "shared is positive")
	if x > 100 {
		panic("too large")
	}
	p := new(int)
	*p = x
	report(x)
}
`)
	stmts := body(t, f, "check")

	_, ok := stmts[0].(*ast.Assume)
	assert.True(t, ok)
	_, ok = stmts[1].(*ast.AtomicBegin)
	assert.True(t, ok)
	_, ok = stmts[3].(*ast.AtomicEnd)
	assert.True(t, ok)

	a := stmts[4].(*ast.Assert)
	assert.Equal(t, "shared is positive", a.Comment)
	assert.Equal(t, "shared > 0", a.Cond.String())

	then := stmts[5].(*ast.IfThenElse).Then.(*ast.Block).Stmts
	th := then[0].(*ast.ExprStmt).X.(*ast.Throw)
	assert.Equal(t, []string{"string"}, th.ExceptionList)

	d := stmts[6].(*ast.Decl)
	n, ok := d.Init.(*ast.New)
	require.True(t, ok)
	assert.Equal(t, ast.KindInt, n.Elem.Kind)

	store := stmts[7].(*ast.Assign)
	assert.Equal(t, "*check::p", store.Lhs.String())

	call := stmts[8].(*ast.FunctionCall)
	assert.Equal(t, "report", call.Func.String())

	// assert, assume, atomic_* and report are undeclared
	assert.NotEmpty(t, f.TypeErrors)
}

func TestUnsupportedConstructs(t *testing.T) {
	t.Parallel()

	f, sink := parse(t, `package p

func odd(xs []int, m map[int]int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	v := m[1]
	a, b := pair()
	_ = a
	_ = b
	return s + v
}

func pair() (int, int) { return 1, 2 }
`)
	stmts := body(t, f, "odd")

	op, ok := stmts[1].(*ast.Opaque)
	require.True(t, ok)
	assert.Equal(t, "RangeStmt", op.Tag)

	d := stmts[2].(*ast.Decl)
	_, ok = d.Init.(*ast.Nondet)
	assert.True(t, ok, "map reads are nondeterministic")

	issues := sink.Issues()
	require.NotEmpty(t, issues)
	for _, is := range issues {
		assert.Equal(t, Rule, is.Rule)
		assert.Equal(t, "test.go", is.Filename)
	}
}

// Functions translated from Go and lowered must behave like their
// structured translation.
func TestLoweredMatchesSource(t *testing.T) {
	t.Parallel()

	f, _ := parse(t, `package p

func sum(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			continue
		}
		s += i
	}
	return s
}

func classify(x int) int {
	y := 0
	switch {
	case x < 0:
		y = -1
	case x == 0:
		y = 100
		fallthrough
	case x == 1:
		y++
	default:
		y = 7
	}
	return y
}

func shrink(x int) int {
	for x > 10 {
		x -= 3
		if x == 13 {
			break
		}
	}
	return x
}

func bits(x uint8) uint8 {
	x <<= 3
	x &^= 8
	return x >> 1
}
`)

	conv := convert.New(convert.Config{Table: f.Table, Module: f.Package})
	v := interp.NewVerifier(interp.DefaultConfig())

	tests := []struct {
		fn    string
		param string
	}{
		{"sum", "sum::n"},
		{"classify", "classify::x"},
		{"shrink", "shrink::x"},
		{"bits", "bits::x"},
	}
	for _, tt := range tests {
		fn, ok := f.Function(tt.fn)
		require.True(t, ok)
		lowered, err := conv.ConvertFunction(fn.Name, fn.Body, fn.ReturnsValue)
		require.NoError(t, err)

		for _, in := range []int64{-2, 0, 1, 5, 16, 31} {
			env := interp.NewEnv()
			env.Set(tt.param, interp.IntValue{Val: in})
			r := v.Check(fn.Body, lowered, env)
			require.Equal(t, interp.Equivalent, r.Result, "%s(%d): %s %s", tt.fn, in, r.Reason, r.Detail)
			require.Equal(t, interp.ResultReturn, r.Structured.Kind)
		}
	}
}

func analyze(t *testing.T, a *analysis.Analyzer, src string) []diag.Issue {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	require.NoError(t, err)
	issues, err := diag.RunAnalyzer(fset, []*goast.File{file}, a)
	require.NoError(t, err)
	return issues
}

func TestAnalyzer(t *testing.T) {
	t.Parallel()

	issues := analyze(t, Analyzer, `package p

func good(x int) int {
	return x + 1
}

func bad() {
	goto missing
}

func approx(m map[string]int) int {
	return m["k"]
}
`)
	require.Len(t, issues, 2)

	assert.Equal(t, diag.CategoryConversion, issues[0].Rule)
	assert.Equal(t, diag.SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "goto label missing not found")
	assert.Equal(t, 8, issues[0].Start.Line)

	assert.Equal(t, Rule, issues[1].Rule)
	assert.Equal(t, diag.SeverityWarning, issues[1].Severity)
	assert.Contains(t, issues[1].Message, "unsupported expression")
	assert.Equal(t, 12, issues[1].Start.Line)
}

func TestAnalyzerOptions(t *testing.T) {
	t.Parallel()

	src := `package p

func alloc() *int {
	return new(int)
}
`
	assert.Empty(t, analyze(t, Analyzer, src))

	opts := config.NewOptions()
	opts.SetBool(config.InductiveStep, true)
	issues := analyze(t, NewAnalyzer(opts), src)
	require.Len(t, issues, 1)
	assert.Equal(t, "k-induction", issues[0].Rule)
	assert.Equal(t, diag.SeverityWarning, issues[0].Severity)

	// the analyzer works on a copy
	assert.False(t, opts.Bool(config.DisableInductiveStep))
}
