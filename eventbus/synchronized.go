package eventbus

import (
	"context"
	"sync"

	"github.com/vda5050go/core/vda"
)

// SynchronizedEvent lets a sender await a result supplied by whichever
// recipient acquires the result token first. It mirrors
// vda5050pp::events::SynchronizedEvent: a shared, mutex-guarded, one-shot
// cell, not a bare channel, so "acquire" and "release" are expressible
// independently of sending the value.
type SynchronizedEvent[R any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value R
	err   error
	live  bool
}

// NewSynchronizedEvent constructs a live, unacquired SynchronizedEvent.
func NewSynchronizedEvent[R any]() *SynchronizedEvent[R] {
	return &SynchronizedEvent[R]{done: make(chan struct{}), live: true}
}

// Wait blocks until a token holder sets a value or exception, or ctx is
// canceled.
func (s *SynchronizedEvent[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-s.done:
		return s.value, s.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// AcquireToken tries to acquire the one result token. ok is false if another
// holder already acquired (and has not Released) or already resolved it.
// Mirrors SynchronizedEvent::acquireResultToken's try_lock: a holder that
// fails to acquire never blocks.
func (s *SynchronizedEvent[R]) AcquireToken() (_ *ResultToken[R], ok bool) {
	if !s.mu.TryLock() {
		return nil, false
	}
	if !s.live {
		s.mu.Unlock()
		return nil, false
	}
	return &ResultToken[R]{event: s}, true
}

// ResultToken is held by exactly one recipient at a time, obtained via
// SynchronizedEvent.AcquireToken. Exactly one of SetValue, SetError or
// Release must be called to relinquish it.
type ResultToken[R any] struct {
	event    *SynchronizedEvent[R]
	resolved bool
}

// SetValue resolves the event with value, unblocking Wait.
func (t *ResultToken[R]) SetValue(value R) error {
	if t.resolved {
		return vda.NewError(vda.ErrSynchronizedEventNotAcquired, "eventbus", "ResultToken.SetValue", "token already resolved", nil)
	}
	t.resolved = true
	t.event.value = value
	t.event.live = false
	close(t.event.done)
	t.event.mu.Unlock()
	return nil
}

// SetError resolves the event with an error, unblocking Wait.
func (t *ResultToken[R]) SetError(err error) error {
	if t.resolved {
		return vda.NewError(vda.ErrSynchronizedEventNotAcquired, "eventbus", "ResultToken.SetError", "token already resolved", nil)
	}
	t.resolved = true
	t.event.err = err
	t.event.live = false
	close(t.event.done)
	t.event.mu.Unlock()
	return nil
}

// Release relinquishes the token without resolving the event, allowing
// another subscriber to acquire it.
func (t *ResultToken[R]) Release() error {
	if t.resolved {
		return vda.NewError(vda.ErrSynchronizedEventNotAcquired, "eventbus", "ResultToken.Release", "token already resolved", nil)
	}
	t.resolved = true
	t.event.mu.Unlock()
	return nil
}
