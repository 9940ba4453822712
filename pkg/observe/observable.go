// Package observe provides a minimal synchronous observable value holder.
//
// An Observable holds a single value and notifies registered subscribers,
// in registration order, whenever the value is replaced. Subscribing
// replays the current value once before Subscribe returns, so a new
// consumer never has to special-case "no value yet".
package observe

import (
	"log/slog"
	"sync"
)

// Unsubscribe removes a subscriber registered with Subscribe. Calling it
// more than once is harmless.
type Unsubscribe func()

// Option configures an Observable at construction.
type Option[T any] func(*Observable[T])

// WithRecoverHook installs fn as the handler for panics recovered from
// subscriber callbacks. The default hook logs through slog.
func WithRecoverHook[T any](fn func(recovered any)) Option[T] {
	return func(o *Observable[T]) {
		if fn != nil {
			o.recovered = fn
		}
	}
}

// Observable holds a value of type T and a set of subscribers.
//
// All methods are safe for concurrent use, though the intended model is a
// single logical owner driving Set. A Set issued from inside a subscriber
// callback does not interrupt the in-flight notification round; it queues
// and is delivered as its own round once the current one completes.
type Observable[T any] struct {
	mu        sync.Mutex
	value     T
	subs      []*subscriber[T]
	notifying bool
	pending   []T
	recovered func(recovered any)
}

type subscriber[T any] struct {
	fn func(T)
}

// New returns an Observable seeded with initial.
func New[T any](initial T, opts ...Option[T]) *Observable[T] {
	o := &Observable[T]{
		value: initial,
		recovered: func(r any) {
			slog.Error("observable subscriber panicked", "recovered", r)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Value returns the currently held value.
func (o *Observable[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set replaces the held value and notifies every registered subscriber
// with it, in registration order, before returning. When called from
// inside a subscriber callback the new value is queued and delivered
// after the in-flight round finishes.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	o.value = v
	if o.notifying {
		o.pending = append(o.pending, v)
		o.mu.Unlock()
		return
	}
	o.notifying = true
	subs := append([]*subscriber[T](nil), o.subs...)
	o.mu.Unlock()

	for {
		for _, s := range subs {
			o.dispatch(s.fn, v)
		}
		o.mu.Lock()
		if len(o.pending) == 0 {
			o.notifying = false
			o.mu.Unlock()
			return
		}
		v = o.pending[0]
		o.pending = o.pending[1:]
		subs = append([]*subscriber[T](nil), o.subs...)
		o.mu.Unlock()
	}
}

// Subscribe registers fn, immediately invokes it once with the current
// value, and returns a handle that removes the registration.
func (o *Observable[T]) Subscribe(fn func(T)) Unsubscribe {
	s := &subscriber[T]{fn: fn}
	o.mu.Lock()
	o.subs = append(o.subs, s)
	v := o.value
	o.mu.Unlock()

	o.dispatch(fn, v)

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, cur := range o.subs {
			if cur == s {
				o.subs = append(o.subs[:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

// dispatch isolates a single subscriber call: a panic in fn is recovered
// and reported so the remaining subscribers still get notified.
func (o *Observable[T]) dispatch(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			o.recovered(r)
		}
	}()
	fn(v)
}
