package lower

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

const mixed = `package p

func sum(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

func lookup(m map[int]int, k int) int {
	return m[k]
}

func quiet(m map[int]int) int {
	//gotoconv:ignore:frontend
	return m[0]
}

func broken() {
	goto missing
}
`

func TestEngineRunSource(t *testing.T) {
	t.Parallel()

	engine := NewEngine("", config.Default(), nil)
	res, err := engine.RunSource("p.go", []byte(mixed))
	require.NoError(t, err)

	assert.Equal(t, "p", res.Package)
	require.Len(t, res.Functions, 3)
	for i, name := range []string{"sum", "lookup", "quiet"} {
		assert.Equal(t, name, res.Functions[i].Name)
	}

	sum, ok := res.Function("sum")
	require.True(t, ok)
	assert.Len(t, sum.Loops(), 1)
	assert.Equal(t, gotoprog.EndFunction, sum.Instructions[len(sum.Instructions)-1].Kind)

	require.Len(t, res.Issues, 2)
	assert.Equal(t, "frontend", res.Issues[0].Rule)
	assert.Equal(t, diag.SeverityWarning, res.Issues[0].Severity)
	assert.Equal(t, 12, res.Issues[0].Start.Line)
	assert.Equal(t, "unsupported expression: m[k]", res.Issues[0].Message)

	assert.Equal(t, RuleConversion, res.Issues[1].Rule)
	assert.Equal(t, diag.SeverityError, res.Issues[1].Severity)
	assert.Equal(t, "broken: goto label missing not found", res.Issues[1].Message)
	assert.True(t, res.HasErrors())
}

func TestEngineIgnoreRule(t *testing.T) {
	t.Parallel()

	engine := NewEngine("", config.Default(), nil)
	engine.IgnoreRule("frontend")
	engine.IgnoreRule(RuleConversion)

	res, err := engine.RunSource("p.go", []byte(mixed))
	require.NoError(t, err)

	require.Len(t, res.Issues, 1, "errors survive ignored rules")
	assert.Equal(t, diag.SeverityError, res.Issues[0].Severity)
}

func TestEngineSelectFunctions(t *testing.T) {
	t.Parallel()

	file := config.Default()
	file.Functions = []string{"sum", "broken"}
	engine := NewEngine("", file, nil)

	res, err := engine.RunSource("p.go", []byte(mixed))
	require.NoError(t, err)
	require.Len(t, res.Functions, 1)
	assert.Equal(t, "sum", res.Functions[0].Name)

	engine.SelectFunctions("lookup")
	res, err = engine.RunSource("p.go", []byte(mixed))
	require.NoError(t, err)
	require.Len(t, res.Functions, 1)
	assert.Equal(t, "lookup", res.Functions[0].Name)
	assert.False(t, res.HasErrors())
}

func TestEngineRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "p.go")
	require.NoError(t, os.WriteFile(path, []byte(mixed), 0o644))

	engine := NewEngine(dir, config.Default(), nil)
	res, err := engine.Run(path)
	require.NoError(t, err)
	assert.Equal(t, path, res.File)
	assert.Len(t, res.Functions, 3)

	_, err = engine.Run(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)

	_, err = engine.RunSource("bad.go", []byte("this is not go"))
	assert.ErrorContains(t, err, "error parsing bad.go")
}

func TestEngineOptions(t *testing.T) {
	t.Parallel()

	file := config.Default()
	file.Options[config.ErrorLabel] = "ERROR"
	file.Options[config.NoAssertions] = true

	engine := NewEngine("", file, nil)
	assert.Equal(t, "ERROR", engine.Options().Get(config.ErrorLabel))
	assert.True(t, engine.Options().Bool(config.NoAssertions))
}

func TestEngineSelectFunctionsWhileConverting(t *testing.T) {
	t.Parallel()

	engine := NewEngine("", config.Default(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			engine.SelectFunctions("sum", "lookup")
		}()
		go func() {
			defer wg.Done()
			_, err := engine.RunSource("p.go", []byte(mixed))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := engine.RunSource("p.go", []byte(mixed))
	require.NoError(t, err)
	assert.Len(t, res.Functions, 2)
}

func TestEngineSequential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		option string
		want   bool
	}{
		{"plain", "", false},
		{"forward condition", config.ForwardCondition, false},
		{"base case", config.BaseCase, true},
		{"inductive step", config.InductiveStep, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			file := config.Default()
			if tt.option != "" {
				file.Options[tt.option] = true
			}
			assert.Equal(t, tt.want, NewEngine("", file, nil).Sequential())
		})
	}
}

func TestEngineVet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "p.go")
	require.NoError(t, os.WriteFile(path, []byte(mixed), 0o644))

	engine := NewEngine(dir, config.Default(), nil)
	res, err := engine.Vet(path)
	require.NoError(t, err)

	assert.Equal(t, path, res.File)
	assert.Equal(t, "p", res.Package)
	assert.Empty(t, res.Functions)

	// quiet's warning is silenced by its directive
	require.Len(t, res.Issues, 2)
	assert.Equal(t, "frontend", res.Issues[0].Rule)
	assert.Equal(t, 12, res.Issues[0].Start.Line)
	assert.Equal(t, RuleConversion, res.Issues[1].Rule)
	assert.Equal(t, 21, res.Issues[1].Start.Line)
	assert.True(t, res.HasErrors())

	engine.IgnoreRule("frontend")
	res, err = engine.Vet(path)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, diag.SeverityError, res.Issues[0].Severity)

	_, err = engine.Vet(filepath.Join(dir, "missing.go"))
	assert.ErrorContains(t, err, "error parsing")
}

func TestEngineVetKeepsOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "alloc.go")
	require.NoError(t, os.WriteFile(path, []byte("package p\n\nfunc alloc() *int {\n\treturn new(int)\n}\n"), 0o644))

	file := config.Default()
	file.Options[config.InductiveStep] = true
	engine := NewEngine(dir, file, nil)

	res, err := engine.Vet(path)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "k-induction", res.Issues[0].Rule)
	assert.False(t, engine.Options().Bool(config.DisableInductiveStep))
}
