package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/soc/values"
)

func TestSleepResolvesImmediately(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	result, err := call(t, reg, ctx, "sleep", values.NewNumber(1000))
	require.NoError(t, err)
	fut := result.Data.(*values.Future)
	assert.Equal(t, values.FutureResolved, fut.State)
}

func TestChannelSendReceiveIsFIFO(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	ch, err := call(t, reg, ctx, "channel", values.NewNumber(0))
	require.NoError(t, err)

	_, err = call(t, reg, ctx, "channel_send", ch, values.NewNumber(1))
	require.NoError(t, err)
	_, err = call(t, reg, ctx, "channel_send", ch, values.NewNumber(2))
	require.NoError(t, err)

	first, err := call(t, reg, ctx, "channel_receive", ch)
	require.NoError(t, err)
	assert.Equal(t, float64(1), first.AsNumber())

	second, err := call(t, reg, ctx, "channel_receive", ch)
	require.NoError(t, err)
	assert.Equal(t, float64(2), second.AsNumber())

	empty, err := call(t, reg, ctx, "channel_receive", ch)
	require.NoError(t, err)
	assert.True(t, empty.IsNull())
}

func TestAsyncMutexLockUnlock(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	m, err := call(t, reg, ctx, "AsyncMutex")
	require.NoError(t, err)

	_, err = call(t, reg, ctx, "asyncmutex_lock", m)
	require.NoError(t, err)

	_, err = call(t, reg, ctx, "asyncmutex_lock", m)
	require.Error(t, err)

	_, err = call(t, reg, ctx, "asyncmutex_unlock", m)
	require.NoError(t, err)

	_, err = call(t, reg, ctx, "asyncmutex_lock", m)
	require.NoError(t, err)
}

func TestSignalFireSettlesFuture(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()

	sig, err := call(t, reg, ctx, "signal")
	require.NoError(t, err)

	_, err = call(t, reg, ctx, "signal_fire", sig, values.NewNumber(7))
	require.NoError(t, err)

	fut := sig.Data.(*values.Future)
	assert.Equal(t, values.FutureResolved, fut.State)
	assert.Equal(t, float64(7), fut.Value.AsNumber())
}

func TestEffectInvokesAndDiscardsResult(t *testing.T) {
	reg := testRegistry(t)
	ctx := newFakeCallContext()
	called := false
	ctx.callValue = func(callee *values.Value, args []*values.Value) (*values.Value, error) {
		called = true
		return values.NewNumber(123), nil
	}

	result, err := call(t, reg, ctx, "effect", values.NewNull())
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, result.IsNull())
}
