package storage

import (
	"encoding/json"
	"sync"
)

// Memory is an in-process Provider. It keeps the encoded bytes rather
// than the live values, so callers can never alias state through it and
// round-trip behavior matches the durable backends exactly.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ Provider = (*Memory)(nil)

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string, out any) bool {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (m *Memory) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}
