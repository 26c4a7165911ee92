package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/values"
)

func TestVectorsMutateInPlace(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	vec := vecOf(values.NewNumber(1), values.NewNumber(2))
	_, err := call(t, reg, ctx, "push", vec, values.NewNumber(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, numbers(vec))

	popped, err := call(t, reg, ctx, "pop", vec)
	require.NoError(t, err)
	assert.Equal(t, float64(3), popped.AsNumber())
	assert.Equal(t, []float64{1, 2}, numbers(vec))

	_, err = call(t, reg, ctx, "insert", vec, values.NewNumber(1), values.NewNumber(99))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 99, 2}, numbers(vec))

	removed, err := call(t, reg, ctx, "remove", vec, values.NewNumber(1))
	require.NoError(t, err)
	assert.Equal(t, float64(99), removed.AsNumber())
	assert.Equal(t, []float64{1, 2}, numbers(vec))
}

func TestVectorsPureOperations(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	a := vecOf(values.NewNumber(1), values.NewNumber(2))
	b := vecOf(values.NewNumber(3), values.NewNumber(4))

	result, err := call(t, reg, ctx, "concat", a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, numbers(result))

	result, err = call(t, reg, ctx, "reverse", a)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, numbers(result))

	result, err = call(t, reg, ctx, "slice", vecOf(values.NewNumber(1), values.NewNumber(2), values.NewNumber(3), values.NewNumber(4)), values.NewNumber(1), values.NewNumber(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, numbers(result))

	result, err = call(t, reg, ctx, "take", vecOf(values.NewNumber(1), values.NewNumber(2), values.NewNumber(3)), values.NewNumber(2))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, numbers(result))

	result, err = call(t, reg, ctx, "drop", vecOf(values.NewNumber(1), values.NewNumber(2), values.NewNumber(3)), values.NewNumber(2))
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, numbers(result))

	result, err = call(t, reg, ctx, "unique", vecOf(values.NewNumber(1), values.NewNumber(1), values.NewNumber(2)))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, numbers(result))

	result, err = call(t, reg, ctx, "flatten", vecOf(vecOf(values.NewNumber(1), values.NewNumber(2)), values.NewNumber(3)))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, numbers(result))

	result, err = call(t, reg, ctx, "chunk", vecOf(values.NewNumber(1), values.NewNumber(2), values.NewNumber(3)), values.NewNumber(2))
	require.NoError(t, err)
	chunks := result.Data.(*values.Vector).Elements
	require.Len(t, chunks, 2)
	assert.Equal(t, []float64{1, 2}, numbers(chunks[0]))
	assert.Equal(t, []float64{3}, numbers(chunks[1]))

	result, err = call(t, reg, ctx, "zip", a, b)
	require.NoError(t, err)
	pairs := result.Data.(*values.Vector).Elements
	require.Len(t, pairs, 2)
	assert.Equal(t, []float64{1, 3}, numbers(pairs[0]))

	result, err = call(t, reg, ctx, "range", values.NewNumber(0), values.NewNumber(5), values.NewNumber(2))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4}, numbers(result))
}

func TestVectorsSortUsesCallback(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()
	ctx.callValue = func(callee *values.Value, args []*values.Value) (*values.Value, error) {
		return values.NewNumber(args[0].AsNumber() - args[1].AsNumber()), nil
	}

	input := vecOf(values.NewNumber(3), values.NewNumber(1), values.NewNumber(2))
	result, err := call(t, reg, ctx, "sort", input, values.NewNull())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, numbers(result))
}

func numbers(v *values.Value) []float64 {
	vec := v.Data.(*values.Vector)
	out := make([]float64, len(vec.Elements))
	for i, e := range vec.Elements {
		out[i] = e.AsNumber()
	}
	return out
}
