package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	t.Parallel()
	o := NewOptions()
	assert.False(t, o.Bool(AtomicityCheck))

	o.SetBool(AtomicityCheck, true)
	assert.True(t, o.Bool(AtomicityCheck))
	assert.Equal(t, "1", o.Get(AtomicityCheck))

	o.Set(ErrorLabel, "ERROR")
	assert.Equal(t, "ERROR", o.Get(ErrorLabel))

	o.Set(BaseCase, "true")
	assert.True(t, o.Bool(BaseCase))
	o.Set(BaseCase, "no")
	assert.False(t, o.Bool(BaseCase))

	o.SetBool(AtomicityCheck, false)
	assert.False(t, o.Bool(AtomicityCheck))
	assert.Len(t, o.Snapshot(), 3)
}

func TestOptionsConcurrent(t *testing.T) {
	t.Parallel()
	o := NewOptions()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.SetBool(DisableInductiveStep, true)
			_ = o.Bool(DisableInductiveStep)
		}()
	}
	wg.Wait()
	assert.True(t, o.Bool(DisableInductiveStep))
}

func TestEnvName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "GOTOCONV_NO_ASSERTIONS", EnvName(NoAssertions))
	assert.Equal(t, "GOTOCONV_K_INDUCTION_ALL_STATES", EnvName(KInductionAllStates))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GOTOCONV_ERROR_LABEL", "ERROR")
	t.Setenv("GOTOCONV_NO_ASSERTIONS", "true")

	o := NewOptions()
	o.SetBool(AtomicityCheck, true)
	o.ApplyEnv()

	assert.Equal(t, "ERROR", o.Get(ErrorLabel))
	assert.True(t, o.Bool(NoAssertions))
	assert.True(t, o.Bool(AtomicityCheck), "unset variables keep the configured value")
}

func TestLoadAndApply(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	content := `name: test
options:
  error-label: ERROR
  atomicity-check: true
  no-assertions: false
functions:
  - main
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", f.Name)
	assert.True(t, f.Wants("main"))
	assert.False(t, f.Wants("helper"))

	o := NewOptions()
	f.Apply(o)
	assert.Equal(t, "ERROR", o.Get(ErrorLabel))
	assert.True(t, o.Bool(AtomicityCheck))
	assert.False(t, o.Bool(NoAssertions))
}

func TestLoadUnknownOption(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("options:\n  unwind: 3\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown option")
}

func TestDefaultRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, Default().Write(path))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gotoconv", f.Name)
	assert.True(t, f.Wants("anything"))
}
