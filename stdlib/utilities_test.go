package stdlib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/values"
)

func TestUtilitiesOutputAndInspection(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	_, err := call(t, reg, ctx, "print", values.NewString("hi"))
	require.NoError(t, err)
	_, err = call(t, reg, ctx, "println", values.NewString("there"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "there\n"}, ctx.output)

	result, err := call(t, reg, ctx, "typeof", values.NewNumber(1))
	require.NoError(t, err)
	assert.Equal(t, "Number", result.AsString())

	result, err = call(t, reg, ctx, "str", values.NewNumber(42))
	require.NoError(t, err)
	assert.Equal(t, "42", result.AsString())

	result, err = call(t, reg, ctx, "isnan", values.NewNumber(math.NaN()))
	require.NoError(t, err)
	assert.True(t, result.Truthy())

	result, err = call(t, reg, ctx, "isinf", values.NewNumber(math.Inf(1)))
	require.NoError(t, err)
	assert.True(t, result.Truthy())

	result, err = call(t, reg, ctx, "isfinite", values.NewNumber(1))
	require.NoError(t, err)
	assert.True(t, result.Truthy())

	result, err = call(t, reg, ctx, "isfinite", values.NewNumber(math.Inf(-1)))
	require.NoError(t, err)
	assert.False(t, result.Truthy())
}
