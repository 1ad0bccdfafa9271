package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokenSource = `package p

func f() {
	goto nowhere
}
`

// TestExitStatus runs the binary in a subprocess so the atexit handlers and
// the exit code can be observed.
func TestExitStatus(t *testing.T) {
	if os.Getenv("GOTOCONV_BE_MAIN") == "1" {
		os.Args = append([]string{"gotoconv"}, strings.Fields(os.Getenv("GOTOCONV_ARGS"))...)
		main()
		return
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.go")
	bad := filepath.Join(dir, "bad.go")
	require.NoError(t, os.WriteFile(good, []byte("package p\n\nfunc f(n int) int {\n\treturn n + 1\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(brokenSource), 0o644))

	tests := []struct {
		name     string
		args     string
		exitCode int
		stdout   string
	}{
		{"converts", "convert --config none.yaml " + good, 0, "f:"},
		{"root defaults to convert", "--config none.yaml " + good, 0, "END_FUNCTION"},
		{"conversion error", "convert --config none.yaml " + bad, 1, "goto label nowhere not found"},
		{"missing path", "convert --config none.yaml " + filepath.Join(dir, "gone.go"), 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := exec.Command(os.Args[0], "-test.run=TestExitStatus")
			c.Dir = dir
			c.Env = append(os.Environ(), "GOTOCONV_BE_MAIN=1", "GOTOCONV_ARGS="+tt.args)
			var stdout bytes.Buffer
			c.Stdout = &stdout

			err := c.Run()
			code := 0
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.exitCode, code)
			assert.Contains(t, stdout.String(), tt.stdout)
		})
	}
}
