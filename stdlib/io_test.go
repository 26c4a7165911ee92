package stdlib

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputReadsOneLine(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("first line\nsecond line\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	original := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = original })

	reg := testRegistry(t)
	ctx := newFakeCallContext()

	result, err := call(t, reg, ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, "first line", result.AsString())

	result, err = call(t, reg, ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, "second line", result.AsString())
}
