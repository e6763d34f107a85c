package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	tag   string
	value int
}

func (e testEvent) Tag() string { return e.tag }

func TestFamily_SyncDispatchRunsInline(t *testing.T) {
	f := NewFamily[testEvent]("test", Sync, nil)

	var got []int
	f.Subscribe("a", func(e testEvent) { got = append(got, e.value) })

	require.NoError(t, f.Dispatch(context.Background(), testEvent{tag: "a", value: 1}))
	require.NoError(t, f.Dispatch(context.Background(), testEvent{tag: "b", value: 2}))
	require.NoError(t, f.Dispatch(context.Background(), testEvent{tag: "a", value: 3}))

	assert.Equal(t, []int{1, 3}, got, "only tag \"a\" subscribers should fire, in dispatch order")
}

func TestFamily_SyncDispatchRejectsReentrantDispatch(t *testing.T) {
	f := NewFamily[testEvent]("test", Sync, nil)

	// Simulate a call arriving with this family's own in-flight marker
	// already set, as would happen if a subscriber threaded the same ctx
	// back into a second Dispatch on this family.
	ctx := context.WithValue(context.Background(), f.inflight, true)
	err := f.Dispatch(ctx, testEvent{tag: "a"})
	assert.Error(t, err, "a ctx already marked in-flight for this family must be rejected, not deadlock")
}

func TestFamily_DispatchSyncRejectsReentrantDispatchRegardlessOfMode(t *testing.T) {
	f := NewFamily[testEvent]("test", Async, nil)
	defer f.Stop()

	ctx := context.WithValue(context.Background(), f.inflight, true)
	err := f.DispatchSync(ctx, testEvent{tag: "a"})
	assert.Error(t, err)
}

func TestFamily_DispatchSyncRunsRegardlessOfMode(t *testing.T) {
	f := NewFamily[testEvent]("test", Async, nil)
	defer f.Stop()

	done := make(chan int, 1)
	f.Subscribe("a", func(e testEvent) { done <- e.value })

	require.NoError(t, f.DispatchSync(context.Background(), testEvent{tag: "a", value: 42}))
	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	default:
		t.Fatal("DispatchSync must deliver before returning, even for an Async family")
	}
}

func TestFamily_AsyncDispatchDeliversEventually(t *testing.T) {
	f := NewFamily[testEvent]("test", Async, nil)
	defer f.Stop()

	ch := make(chan int, 1)
	f.Subscribe("a", func(e testEvent) { ch <- e.value })

	require.NoError(t, f.Dispatch(context.Background(), testEvent{tag: "a", value: 7}))

	select {
	case v := <-ch:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("async dispatch never delivered")
	}
}

func TestFamily_SubscriptionCancelStopsDelivery(t *testing.T) {
	f := NewFamily[testEvent]("test", Sync, nil)

	var count int
	sub := f.Subscribe("a", func(e testEvent) { count++ })
	require.NoError(t, f.Dispatch(context.Background(), testEvent{tag: "a"}))
	assert.Equal(t, 1, count)

	sub.Cancel()
	require.NoError(t, f.Dispatch(context.Background(), testEvent{tag: "a"}))
	assert.Equal(t, 1, count, "canceled subscriptions must not receive further events")
}

func TestFamily_PanicInSubscriberDoesNotStopRemaining(t *testing.T) {
	f := NewFamily[testEvent]("test", Sync, nil)

	var secondRan bool
	f.Subscribe("a", func(e testEvent) { panic("boom") })
	f.Subscribe("a", func(e testEvent) { secondRan = true })

	assert.NotPanics(t, func() {
		_ = f.Dispatch(context.Background(), testEvent{tag: "a"})
	})
	assert.True(t, secondRan)
}
