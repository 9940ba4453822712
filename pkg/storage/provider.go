// Package storage defines the key/value persistence contract used by the
// state layer, plus in-memory, JSON-file and BadgerDB backends.
//
// Values are serialized as UTF-8 JSON. Reads fail softly: a missing key,
// an unreachable backend or corrupt bytes all report "not present" rather
// than surfacing an error, so a consumer can always fall back to its own
// defaults. Writes do return errors; whether to care is the caller's call.
package storage

import "fmt"

// Provider is the persistence boundary: a flat string-keyed namespace of
// JSON-encoded records.
type Provider interface {
	// Get decodes the value stored under key into out (a pointer) and
	// reports whether a well-formed value was present.
	Get(key string, out any) bool
	// Set encodes v and stores it under key, replacing any prior value.
	Set(key string, v any) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Clear deletes every key in the namespace.
	Clear() error
}

// Error wraps a backend failure with the operation and key it occurred on.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
