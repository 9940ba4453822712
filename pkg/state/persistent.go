package state

import (
	"log/slog"

	"github.com/idilsaglam/todostate/pkg/storage"
)

// PersistentOption configures a Persistent at construction.
type PersistentOption[T any] func(*Persistent[T])

// WithErrorSink routes storage write failures to fn instead of the
// default slog warning. The sink must not panic.
func WithErrorSink[T any](fn func(error)) PersistentOption[T] {
	return func(p *Persistent[T]) {
		if fn != nil {
			p.onError = fn
		}
	}
}

// Persistent is a Container wired to write through a storage.Provider.
//
// Construction reads the provider first: a well-formed value stored under
// key seeds the container, otherwise the supplied initial value does. From
// then on every state change is written back under the same key. Write
// failures are reported to the error sink and swallowed; the in-memory
// state stays authoritative and the next successful write re-syncs the
// backend.
type Persistent[T any] struct {
	*Container[T]

	key      string
	provider storage.Provider
	onError  func(error)
}

// NewPersistent builds a Persistent seeded from provider (falling back to
// initial) and subscribes the write-through. Note the subscription's
// replay means construction itself performs one write, re-syncing the
// backend with whatever state was settled on.
func NewPersistent[T any](initial T, key string, provider storage.Provider, opts ...PersistentOption[T]) *Persistent[T] {
	seed := initial
	var loaded T
	if provider.Get(key, &loaded) {
		seed = loaded
	}

	p := &Persistent[T]{
		Container: NewContainer(seed),
		key:       key,
		provider:  provider,
		onError: func(err error) {
			slog.Warn("state write-through failed", "key", key, "error", err)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.Container.Subscribe(func(s T) {
		if err := p.provider.Set(p.key, s); err != nil {
			p.onError(err)
		}
	})
	return p
}

// Key returns the storage key this manager owns.
func (p *Persistent[T]) Key() string { return p.key }
