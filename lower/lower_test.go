package lower

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/internal/gotoprog"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Run(filename string) (*Result, error) {
	args := m.Called(filename)
	res, _ := args.Get(0).(*Result)
	return res, args.Error(1)
}

func (m *mockEngine) RunSource(filename string, src []byte) (*Result, error) {
	args := m.Called(filename, src)
	res, _ := args.Get(0).(*Result)
	return res, args.Error(1)
}

func (m *mockEngine) Vet(filename string) (*Result, error) {
	args := m.Called(filename)
	res, _ := args.Get(0).(*Result)
	return res, args.Error(1)
}

func (m *mockEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func warning(file string) *Result {
	return &Result{
		File: file,
		Issues: []diag.Issue{{
			Rule:     "frontend",
			Severity: diag.SeverityWarning,
			Filename: file,
			Start:    token.Position{Filename: file, Line: 3, Column: 2},
			Message:  "unsupported statement",
		}},
	}
}

func writeFiles(t *testing.T, dir string, n int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("f%d.go", i))
		src := fmt.Sprintf("package p\n\nfunc f%d(n int) int {\n\tfor n > 0 {\n\t\tn--\n\t}\n\treturn n\n}\n", i)
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestProcessPathSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFiles(t, dir, 1)[0]

	engine := new(mockEngine)
	engine.On("Run", path).Return(warning(path), nil)

	results, err := ProcessPath(context.Background(), zap.NewNop(), engine, path, Convert)
	require.NoError(t, err)
	assert.Equal(t, []*Result{warning(path)}, results)
	engine.AssertExpectations(t)
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := writeFiles(t, dir, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f_test.go"), []byte("package p\n"), 0o644))

	engine := new(mockEngine)
	for i, p := range paths {
		if i == 2 {
			engine.On("Run", p).Return(nil, errors.New("boom"))
			continue
		}
		engine.On("Run", p).Return(warning(p), nil)
	}

	results, err := ProcessPath(context.Background(), nil, engine, dir, Convert)
	require.NoError(t, err)
	require.Len(t, results, 4, "a failed file still yields a result")

	for i, res := range results {
		assert.Equal(t, paths[i], res.File, "results keep scan order")
	}
	assert.True(t, results[2].HasErrors())
	assert.Equal(t, "boom", results[2].Issues[0].Message)
	assert.False(t, results[0].HasErrors())
	engine.AssertExpectations(t)
	engine.AssertNotCalled(t, "Run", filepath.Join(dir, "f_test.go"))
}

func TestProcessPathVet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFiles(t, dir, 1)[0]

	engine := new(mockEngine)
	engine.On("Vet", path).Return(warning(path), nil)

	results, err := ProcessPath(context.Background(), nil, engine, dir, Vet)
	require.NoError(t, err)
	assert.Equal(t, []*Result{warning(path)}, results)
	engine.AssertExpectations(t)
	engine.AssertNotCalled(t, "Run", mock.Anything)
}

func instrumented(fn *gotoprog.Function) bool {
	for _, in := range fn.Instructions {
		if in.Code != nil && strings.Contains(in.Code.String(), "kindice$") {
			return true
		}
	}
	return false
}

func TestProcessPathSequentialUnderInduction(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"a.go": `package p

func alloc() *int {
	return new(int)
}
`,
		"b.go": `package p

func count(n int) int {
	for n > 0 {
		n--
	}
	return n
}
`,
	}
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}

	file := config.Default()
	file.Options[config.InductiveStep] = true

	// a.go turns k-induction off before b.go is converted, on every run
	for run := 0; run < 5; run++ {
		engine := NewEngine(dir, file, nil)
		require.True(t, engine.Sequential())

		results, err := ProcessPath(context.Background(), nil, engine, dir, Convert)
		require.NoError(t, err)
		require.Len(t, results, 2)

		require.Len(t, results[0].Issues, 1)
		assert.Equal(t, "k-induction", results[0].Issues[0].Rule)

		count, ok := results[1].Function("count")
		require.True(t, ok)
		assert.False(t, instrumented(count), "run %d", run)
		assert.True(t, engine.Options().Bool(config.DisableInductiveStep))
	}
}

func TestProcessPathMissing(t *testing.T) {
	t.Parallel()

	engine := new(mockEngine)
	_, err := ProcessPath(context.Background(), nil, engine, filepath.Join(t.TempDir(), "nope"), Convert)
	assert.ErrorContains(t, err, "error accessing")
	engine.AssertNotCalled(t, "Run", mock.Anything)
}

func TestProcessPathCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, 10)

	engine, err := New(dir, "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := ProcessPath(ctx, nil, engine, dir, Convert)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := writeFiles(t, dir, 3)

	engine, err := New(dir, "", nil)
	require.NoError(t, err)

	results, err := ProcessFiles(context.Background(), nil, engine, []string{paths[0], dir}, Convert)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, res := range results {
		require.Len(t, res.Functions, 1)
		assert.Len(t, res.Functions[0].Loops(), 1)
		assert.Empty(t, res.Issues)
	}

	results, err = ProcessFiles(context.Background(), nil, engine, []string{paths[1], filepath.Join(dir, "gone")}, Convert)
	assert.Error(t, err)
	assert.Len(t, results, 1, "results before the failing path are kept")
}

func TestProcessSources(t *testing.T) {
	t.Parallel()

	src := []byte("package p\n")
	engine := new(mockEngine)
	engine.On("RunSource", "a.go", src).Return(warning("a.go"), nil)
	engine.On("RunSource", "b.go", src).Return(nil, errors.New("parse error"))

	results, err := ProcessSources(context.Background(), nil, engine, []string{"a.go"}, [][]byte{src})
	require.NoError(t, err)
	assert.Equal(t, []*Result{warning("a.go")}, results)

	_, err = ProcessSources(context.Background(), nil, engine, []string{"a.go", "b.go"}, [][]byte{src, src})
	assert.EqualError(t, err, "parse error")

	_, err = ProcessSources(context.Background(), nil, engine, []string{"a.go"}, nil)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("missing file uses defaults", func(t *testing.T) {
		engine, err := New(dir, filepath.Join(dir, config.DefaultFileName), nil)
		require.NoError(t, err)
		assert.False(t, engine.Options().Bool(config.NoAssertions))
	})

	t.Run("file options", func(t *testing.T) {
		path := filepath.Join(dir, "custom.yaml")
		file := config.Default()
		file.Options[config.NoAssertions] = true
		require.NoError(t, file.Write(path))

		engine, err := New(dir, path, nil)
		require.NoError(t, err)
		assert.True(t, engine.Options().Bool(config.NoAssertions))
	})

	t.Run("unknown option", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("options:\n  bogus: true\n"), 0o644))

		_, err := New(dir, path, nil)
		assert.ErrorContains(t, err, "unknown option")
	})
}
