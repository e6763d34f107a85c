package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizedEvent_AcquireSetValueUnblocksWait(t *testing.T) {
	e := NewSynchronizedEvent[int]()

	token, ok := e.AcquireToken()
	require.True(t, ok)

	go func() {
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, token.SetValue(7))
	}()

	v, err := e.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSynchronizedEvent_SecondAcquireFailsWhileHeld(t *testing.T) {
	e := NewSynchronizedEvent[int]()

	_, ok := e.AcquireToken()
	require.True(t, ok)

	_, ok2 := e.AcquireToken()
	assert.False(t, ok2, "a second acquire must not block or succeed while the first token is outstanding")
}

func TestSynchronizedEvent_ReleaseAllowsReacquire(t *testing.T) {
	e := NewSynchronizedEvent[int]()

	token, ok := e.AcquireToken()
	require.True(t, ok)
	require.NoError(t, token.Release())

	_, ok2 := e.AcquireToken()
	assert.True(t, ok2, "releasing a token without resolving must let another holder acquire it")
}

func TestSynchronizedEvent_AcquireFailsAfterResolved(t *testing.T) {
	e := NewSynchronizedEvent[int]()

	token, _ := e.AcquireToken()
	require.NoError(t, token.SetValue(1))

	_, ok := e.AcquireToken()
	assert.False(t, ok, "a resolved event is no longer live, so no further token can be acquired")
}

func TestSynchronizedEvent_SetErrorSurfacesThroughWait(t *testing.T) {
	e := NewSynchronizedEvent[int]()
	token, _ := e.AcquireToken()
	require.NoError(t, token.SetError(assert.AnError))

	_, err := e.Wait(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSynchronizedEvent_WaitRespectsContextCancellation(t *testing.T) {
	e := NewSynchronizedEvent[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResultToken_DoubleResolveErrors(t *testing.T) {
	e := NewSynchronizedEvent[int]()
	token, _ := e.AcquireToken()
	require.NoError(t, token.SetValue(1))
	assert.Error(t, token.SetValue(2), "a token must not resolve twice")
}
