package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/values"
)

func TestStringsGroup(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	result, err := call(t, reg, ctx, "upper", values.NewString("soc"))
	require.NoError(t, err)
	assert.Equal(t, "SOC", result.AsString())

	result, err = call(t, reg, ctx, "trim", values.NewString("  hi  "))
	require.NoError(t, err)
	assert.Equal(t, "hi", result.AsString())

	result, err = call(t, reg, ctx, "contains", values.NewString("hello"), values.NewString("ell"))
	require.NoError(t, err)
	assert.True(t, result.Truthy())

	result, err = call(t, reg, ctx, "starts_with", values.NewString("hello"), values.NewString("he"))
	require.NoError(t, err)
	assert.True(t, result.Truthy())

	result, err = call(t, reg, ctx, "replace", values.NewString("a-b-c"), values.NewString("-"), values.NewString("+"))
	require.NoError(t, err)
	assert.Equal(t, "a+b+c", result.AsString())

	result, err = call(t, reg, ctx, "split", values.NewString("a,b,c"), values.NewString(","))
	require.NoError(t, err)
	vec := result.Data.(*values.Vector)
	require.Len(t, vec.Elements, 3)
	assert.Equal(t, "b", vec.Elements[1].AsString())

	result, err = call(t, reg, ctx, "join", vecOf(values.NewString("a"), values.NewString("b")), values.NewString("-"))
	require.NoError(t, err)
	assert.Equal(t, "a-b", result.AsString())

	result, err = call(t, reg, ctx, "substring", values.NewString("hello"), values.NewNumber(1), values.NewNumber(3))
	require.NoError(t, err)
	assert.Equal(t, "el", result.AsString())

	result, err = call(t, reg, ctx, "char_at", values.NewString("hello"), values.NewNumber(1))
	require.NoError(t, err)
	assert.Equal(t, "e", result.AsString())

	result, err = call(t, reg, ctx, "len", values.NewString("héllo"))
	require.NoError(t, err)
	assert.Equal(t, float64(5), result.AsNumber())

	result, err = call(t, reg, ctx, "len", vecOf(values.NewNumber(1), values.NewNumber(2)))
	require.NoError(t, err)
	assert.Equal(t, float64(2), result.AsNumber())

	_, err = call(t, reg, ctx, "char_at", values.NewString("hi"), values.NewNumber(5))
	require.Error(t, err)
}
