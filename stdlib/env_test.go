package stdlib

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/values"
)

func TestEnvGetSet(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	_, err := call(t, reg, ctx, "env_set", values.NewString("SOC_TEST_VAR"), values.NewString("hello"))
	require.NoError(t, err)
	t.Cleanup(func() { os.Unsetenv("SOC_TEST_VAR") })

	result, err := call(t, reg, ctx, "env_get", values.NewString("SOC_TEST_VAR"))
	require.NoError(t, err)
	assert.Equal(t, "hello", result.AsString())

	result, err = call(t, reg, ctx, "env_get", values.NewString("SOC_TEST_VAR_MISSING"))
	require.NoError(t, err)
	assert.True(t, result.IsNull())
}

func TestEnvVarsIncludesSetValue(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	require.NoError(t, os.Setenv("SOC_TEST_VARS", "x"))
	t.Cleanup(func() { os.Unsetenv("SOC_TEST_VARS") })

	result, err := call(t, reg, ctx, "env_vars")
	require.NoError(t, err)
	rec := result.Data.(*values.Record)
	v, ok := rec.Get("SOC_TEST_VARS")
	require.True(t, ok)
	assert.Equal(t, "x", v.AsString())
}

func TestEnvLoadParsesDotEnvFile(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	path := t.TempDir() + "/test.env"
	require.NoError(t, os.WriteFile(path, []byte("# comment\nFOO=bar\nBAZ=\"quux\"\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FOO"); os.Unsetenv("BAZ") })

	result, err := call(t, reg, ctx, "env_load", values.NewString(path))
	require.NoError(t, err)
	rec := result.Data.(*values.Record)

	foo, ok := rec.Get("FOO")
	require.True(t, ok)
	assert.Equal(t, "bar", foo.AsString())
	assert.Equal(t, "bar", os.Getenv("FOO"))

	baz, ok := rec.Get("BAZ")
	require.True(t, ok)
	assert.Equal(t, "quux", baz.AsString())
}
