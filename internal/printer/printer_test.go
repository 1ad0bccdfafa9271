package printer

import (
	"bytes"
	"encoding/json"
	"go/token"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/gotoconv/internal/ast"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var x = ast.Sym("x", ast.IntType())

func at(line int) token.Position {
	return token.Position{Filename: "/src/count.go", Line: line, Column: 2}
}

// countdown builds
//
//	0: IF !(x > 0) THEN GOTO 4
//	1: x = x - 1
//	2: ASSERT x >= 0
//	3: GOTO 0
//	4: END_FUNCTION
func countdown(t *testing.T) *gotoprog.Function {
	t.Helper()
	arena := gotoprog.NewArena()
	p := arena.NewProgram()
	end := arena.New(gotoprog.EndFunction, at(9))

	test := p.Add(gotoprog.Goto, at(4))
	test.Guard = ast.Not(ast.Gt(x, ast.Int(0)))
	test.SetTarget(end.ID)
	test.AddLabel("top")

	dec := p.Add(gotoprog.Assign, at(5))
	dec.Code = &ast.Assign{Lhs: x, Rhs: ast.Sub(x, ast.Int(1))}

	check := p.Add(gotoprog.Assert, at(6))
	check.Guard = ast.Gte(x, ast.Int(0))
	check.Property = "assertion"

	back := p.Add(gotoprog.Goto, at(4))
	back.Guard = ast.True()
	back.SetTarget(test.ID)
	p.Push(end)

	fn, err := gotoprog.Finish("countdown", p)
	require.NoError(t, err)
	return fn
}

func TestText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, countdown(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "countdown:\n"))
	assert.Contains(t, out, "        // 0 count.go:4\n")
	assert.Contains(t, out, "  top:\n")
	assert.Contains(t, out, "     0: IF !(x > 0) THEN GOTO 4\n")
	assert.Contains(t, out, "        x = x - 1\n")
	assert.Contains(t, out, "        // 2 count.go:6 [assertion]\n")
	assert.Contains(t, out, "        GOTO 0\n")
	assert.Contains(t, out, "     4: END_FUNCTION\n")
}

func TestLoops(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Loops(&buf, countdown(t)))
	assert.Equal(t, "countdown:\n  Loop 1: 3 -> 0 at count.go:4\n", buf.String())

	fn, err := gotoprog.Finish("empty", gotoprog.NewArena().NewProgram())
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, Loops(&buf, fn))
	assert.Contains(t, buf.String(), "no loops")
}

func TestDocument(t *testing.T) {
	t.Parallel()

	issues := []diag.Issue{{
		Rule:     "k-induction",
		Severity: diag.SeverityWarning,
		Filename: "count.go",
		Message:  "unsupported loop condition",
		Start:    token.Position{Line: 4, Column: 2},
	}}
	doc := Build("count.go", []*gotoprog.Function{countdown(t)}, issues)

	require.Len(t, doc.Functions, 1)
	fn := doc.Functions[0]
	assert.Equal(t, 1, fn.Loops)
	require.Len(t, fn.Instructions, 5)
	assert.Equal(t, "GOTO", fn.Instructions[0].Kind)
	assert.Equal(t, "!(x > 0)", fn.Instructions[0].Guard)
	assert.Equal(t, []int{4}, fn.Instructions[0].Targets)
	assert.Equal(t, []string{"top"}, fn.Instructions[0].Labels)
	assert.Equal(t, 1, fn.Instructions[3].Loop)
	assert.Equal(t, "/src/count.go:5", fn.Instructions[1].Location)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteJSON(&buf, doc))

		var back Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, doc, back)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteYAML(&buf, doc))
		assert.Contains(t, buf.String(), "targets: [4]")
		assert.Contains(t, buf.String(), "severity: warning")

		var back Document
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, doc, back)
	})
}

func TestDOT(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, DOT(&buf, countdown(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph \"countdown\" {\n"))
	assert.Contains(t, out, `n0 [label="0: IF !(x > 0) THEN GOTO", shape=diamond];`)
	assert.Contains(t, out, `n2 [label="2: ASSERT x >= 0", color=red];`)
	assert.Contains(t, out, `n0 -> n1;`)
	assert.Contains(t, out, `n0 -> n4 [style=bold, label="true"];`)
	assert.Contains(t, out, `n3 -> n0 [style=bold, xlabel="loop 1"];`)
	assert.NotContains(t, out, "n3 -> n4")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestFormatIssues(t *testing.T) {
	t.Parallel()

	src := &Source{Lines: []string{
		"package p",
		"",
		"func f() {",
		"\tfor x < n<<1 {",
		"\t}",
		"}",
	}}
	issues := []diag.Issue{
		{
			Rule:     "k-induction",
			Severity: diag.SeverityWarning,
			Filename: "f.go",
			Message:  "unsupported loop condition",
			Start:    token.Position{Line: 4, Column: 6},
		},
		{
			Rule:     "conversion",
			Severity: diag.SeverityError,
			Filename: "f.go",
			Message:  "goto label l not found",
		},
	}

	out := FormatIssues(issues, src)
	expected := "warning: k-induction\n" +
		" --> f.go:4:6\n" +
		"  |\n" +
		"4 |         for x < n<<1 {\n" +
		"  |             ^ unsupported loop condition\n\n" +
		"error: conversion\n" +
		" --> f.go\n" +
		"  goto label l not found\n\n"
	assert.Equal(t, expected, out)
}

func TestReadSource(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/a.go"
	require.NoError(t, os.WriteFile(path, []byte("package a\n\nvar x int\n"), 0o644))

	src, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"package a", "", "var x int", ""}, src.Lines)

	_, err = ReadSource(path + ".missing")
	assert.Error(t, err)
}
