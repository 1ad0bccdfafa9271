package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
}

func TestProjectScanner(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"b.go":              "package main",
		"a.go":              "package main",
		"a_test.go":         "package main",
		"notes.txt":         "This is a text file",
		"subdir/c.go":       "package subdir",
		"testdata/d.go":     "package testdata",
		"_examples/e.go":    "package examples",
		".hidden/f.go":      "package hidden",
		"subdir/deep/g.go":  "package deep",
		"subdir/README.txt": "readme",
	})

	scannedFiles, err := New(tempDir, ".go").Scan()
	require.NoError(t, err)

	var paths []string
	for _, file := range scannedFiles {
		rel, err := filepath.Rel(tempDir, file.Path)
		require.NoError(t, err)
		paths = append(paths, rel)
		assert.Greater(t, file.Size, int64(0), "File size should be greater than 0")
	}
	assert.Equal(t, []string{"a.go", "b.go", "subdir/c.go", "subdir/deep/g.go"}, paths)
}

func TestScannerOptions(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"a.go":      "package main",
		"a_test.go": "package main",
		"notes.txt": "text",
	})

	s := New(tempDir, ".go")
	s.IncludeTests = true
	files, err := s.Scan()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	all, err := New(tempDir).Scan()
	require.NoError(t, err)
	assert.Len(t, all, 2, "test files stay excluded without extensions")

	assert.True(t, New(tempDir, ".go").Match("x/y.go"))
	assert.False(t, New(tempDir, ".go").Match("x/y_test.go"))

	_, err = New(filepath.Join(tempDir, "missing")).Scan()
	assert.Error(t, err)
}
