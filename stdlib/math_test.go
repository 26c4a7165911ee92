package stdlib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/values"
)

func TestMathUnary(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	cases := []struct {
		name string
		arg  float64
		want float64
	}{
		{"sqrt", 9, 3},
		{"abs", -4, 4},
		{"sign", -7, -1},
		{"floor", 1.9, 1},
		{"ceil", 1.1, 2},
		{"round", 1.5, 2},
		{"trunc", 1.9, 1},
		{"exp", 0, 1},
		{"ln", 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := call(t, reg, ctx, tc.name, values.NewNumber(tc.arg))
			require.NoError(t, err)
			assert.InDelta(t, tc.want, result.AsNumber(), 1e-9)
		})
	}
}

func TestMathBinary(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	result, err := call(t, reg, ctx, "pow", values.NewNumber(2), values.NewNumber(10))
	require.NoError(t, err)
	assert.Equal(t, float64(1024), result.AsNumber())

	result, err = call(t, reg, ctx, "min", values.NewNumber(3), values.NewNumber(1))
	require.NoError(t, err)
	assert.Equal(t, float64(1), result.AsNumber())

	result, err = call(t, reg, ctx, "max", values.NewNumber(3), values.NewNumber(1))
	require.NoError(t, err)
	assert.Equal(t, float64(3), result.AsNumber())

	result, err = call(t, reg, ctx, "atan2", values.NewNumber(1), values.NewNumber(1))
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, result.AsNumber(), 1e-9)

	result, err = call(t, reg, ctx, "log", values.NewNumber(8), values.NewNumber(2))
	require.NoError(t, err)
	assert.InDelta(t, float64(3), result.AsNumber(), 1e-9)
}
