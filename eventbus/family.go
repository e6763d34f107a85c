// Package eventbus implements the typed, per-family publish/subscribe fabric
// connecting the interpreter, scheduler, task state machines and the
// AGV-integration handler adapters (spec §4.1).
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/joeycumines/go-longpoll"
	"github.com/joeycumines/logiface"
)

// Event is implemented by every payload dispatched through a Family. Tag is
// the compile-time variant discriminator events are matched against.
type Event interface {
	Tag() string
}

// Mode selects a Family's dispatch model.
type Mode int

const (
	// Async runs one worker goroutine per family; Dispatch enqueues and
	// returns immediately.
	Async Mode = iota
	// Sync runs every subscriber on the caller's goroutine before Dispatch
	// returns, bypassing the worker. Used for tests and small deployments.
	Sync
)

type subscriber[E Event] struct {
	id int64
	cb func(E)
}

// Family is a typed, ordered, tag-dispatched event queue. Zero value is not
// usable; construct with NewFamily.
type Family[E Event] struct {
	name   string
	mode   Mode
	logger *logiface.Logger[logiface.Event]

	mu        sync.Mutex
	subs      map[string][]*subscriber[E]
	nextSubID int64

	ch       chan E
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	// reentrancy guard: the context key that a Sync-mode Dispatch and
	// DispatchSync set on the ctx they deliver with. The Async worker
	// delivers without it.
	inflight contextKey
}

type contextKey struct{ name string }

// NewFamily constructs a Family named name (used only for logging), running
// in the given Mode. Async families must be stopped with Stop.
func NewFamily[E Event](name string, mode Mode, logger *logiface.Logger[logiface.Event]) *Family[E] {
	f := &Family[E]{
		name:     name,
		mode:     mode,
		logger:   logger,
		subs:     make(map[string][]*subscriber[E]),
		ch:       make(chan E, 256),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		inflight: contextKey{name: "eventbus." + name},
	}
	if mode == Async {
		go f.run()
	} else {
		close(f.done)
	}
	return f
}

// Subscription is a scoped handle: Cancel removes the subscription. The zero
// value is a no-op.
type Subscription struct{ cancel func() }

// Cancel removes the subscription, if not already canceled. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers cb against tag, returning a scoped handle. cb runs on
// whichever goroutine dispatches a matching event (the family's worker in
// Async mode, the caller's goroutine in Sync mode).
func (f *Family[E]) Subscribe(tag string, cb func(E)) *Subscription {
	f.mu.Lock()
	f.nextSubID++
	id := f.nextSubID
	sub := &subscriber[E]{id: id, cb: cb}
	f.subs[tag] = append(f.subs[tag], sub)
	f.mu.Unlock()

	return &Subscription{cancel: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		list := f.subs[tag]
		for i, s := range list {
			if s.id == id {
				f.subs[tag] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}}
}

// Dispatch enqueues e (Async) or runs every matching subscriber inline
// (Sync), respecting FIFO order per tag. A panic inside a subscriber is
// recovered, logged, and does not stop the remaining subscribers or the
// worker loop. Returns an error only if ctx already carries this family's
// reentrancy marker (a subscriber synchronously re-dispatching into the
// same family it was invoked from).
func (f *Family[E]) Dispatch(ctx context.Context, e E) error {
	if ctx.Value(f.inflight) != nil && f.mode == Sync {
		return reentrantDispatchError(f.name)
	}
	if f.mode == Sync {
		f.deliver(context.WithValue(ctx, f.inflight, true), e)
		return nil
	}
	select {
	case f.ch <- e:
	case <-f.stop:
	}
	return nil
}

// DispatchSync runs every matching subscriber inline, regardless of the
// family's configured Mode, returning only once they have all run. Used
// where a caller's own state transition depends on the result being visible
// immediately (e.g. the navigation task's last-node-id notification to the
// state projection), independent of whether the family is otherwise used
// for fire-and-forget async delivery.
func (f *Family[E]) DispatchSync(ctx context.Context, e E) error {
	if ctx.Value(f.inflight) != nil {
		return reentrantDispatchError(f.name)
	}
	f.deliver(context.WithValue(ctx, f.inflight, true), e)
	return nil
}

func (f *Family[E]) deliver(ctx context.Context, e E) {
	f.mu.Lock()
	subs := append([]*subscriber[E](nil), f.subs[e.Tag()]...)
	f.mu.Unlock()

	for _, s := range subs {
		f.invoke(ctx, s, e)
	}
}

func (f *Family[E]) invoke(ctx context.Context, s *subscriber[E], e E) {
	defer func() {
		if r := recover(); r != nil {
			if f.logger != nil {
				f.logger.Err().Str("family", f.name).Str("tag", e.Tag()).
					Any("panic", r).Log("subscriber panicked")
			}
		}
	}()
	s.cb(e)
}

// run drains the ingress channel using longpoll's batched-receive idiom
// instead of a hand-rolled sleep/poll loop: MinSize 1 with a short
// PartialTimeout gives near-immediate delivery for the common case while
// still batching bursts efficiently.
func (f *Family[E]) run() {
	defer close(f.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-f.stop
		cancel()
	}()

	cfg := &longpoll.ChannelConfig{MaxSize: 64, MinSize: 1, PartialTimeout: 10 * time.Millisecond}
	for {
		err := longpoll.Channel(ctx, cfg, f.ch, func(e E) error {
			f.deliver(ctx, e)
			return nil
		})
		if err != nil {
			return
		}
	}
}

// Stop signals the worker to exit after draining what is already queued,
// and waits for it to exit. A no-op for Sync families.
func (f *Family[E]) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
	<-f.done
}

func reentrantDispatchError(family string) error {
	return &reentrantError{family: family}
}

type reentrantError struct{ family string }

func (e *reentrantError) Error() string {
	return "eventbus: reentrant synchronous dispatch into family " + e.family
}
