// Package state builds on observe with two layers: Container, an
// observable record value with shallow-merge partial updates, and
// Persistent, a Container that writes every change through a
// storage.Provider.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/idilsaglam/todostate/pkg/observe"
)

// Container holds a record-shaped value of type T and notifies
// subscribers with the full new value on every change.
//
// Snapshots handed out by State (and delivered to subscribers) are to be
// treated as read-only; the container never mutates a previously returned
// value in place, and callers must not either.
type Container[T any] struct {
	obs *observe.Observable[T]
}

// NewContainer returns a Container seeded with initial. Options are
// forwarded to the underlying observable.
func NewContainer[T any](initial T, opts ...observe.Option[T]) *Container[T] {
	return &Container[T]{obs: observe.New(initial, opts...)}
}

// State returns the current value.
func (c *Container[T]) State() T { return c.obs.Value() }

// Set replaces the value wholesale and notifies subscribers.
func (c *Container[T]) Set(next T) { c.obs.Set(next) }

// Patch applies a shallow merge: each top-level key in partial replaces
// the corresponding field of the current value wholesale. Nested
// structures are never deep-merged. Keys are matched by JSON field name.
func (c *Container[T]) Patch(partial map[string]any) error {
	if len(partial) == 0 {
		return nil
	}
	next, err := shallowMerge(c.obs.Value(), partial)
	if err != nil {
		return err
	}
	c.obs.Set(next)
	return nil
}

// Subscribe registers fn for full-state notifications, invoking it once
// immediately with the current value.
func (c *Container[T]) Subscribe(fn func(T)) observe.Unsubscribe {
	return c.obs.Subscribe(fn)
}

// shallowMerge overlays partial onto current through the canonical JSON
// encoding: current is rendered to an object, top-level keys from partial
// replace the existing entries, and the result decodes back into T.
func shallowMerge[T any](current T, partial map[string]any) (T, error) {
	var zero T

	base, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("state: encode current value: %w", err)
	}
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &obj); err != nil {
		return zero, fmt.Errorf("state: current value is not a record: %w", err)
	}
	for k, v := range partial {
		raw, err := json.Marshal(v)
		if err != nil {
			return zero, fmt.Errorf("state: encode patch key %q: %w", k, err)
		}
		obj[k] = raw
	}
	merged, err := json.Marshal(obj)
	if err != nil {
		return zero, fmt.Errorf("state: encode merged value: %w", err)
	}
	var next T
	if err := json.Unmarshal(merged, &next); err != nil {
		return zero, fmt.Errorf("state: decode merged value: %w", err)
	}
	return next, nil
}
