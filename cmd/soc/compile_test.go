package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/vm"
)

func TestCompileAndRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.soc")
	require.NoError(t, os.WriteFile(path, []byte("let a = 3;\nlet b = 4;\na * a + b * b\n"), 0o644))

	mod, reg, err := compileFile(path)
	require.NoError(t, err)

	machine := vm.New(reg, os.Stdout)
	result, err := machine.Run(mod)
	require.NoError(t, err)
	assert.Equal(t, float64(25), result.AsNumber())
}

func TestCompileFileMissing(t *testing.T) {
	_, _, err := compileFile(filepath.Join(t.TempDir(), "missing.soc"))
	require.Error(t, err)
}
