// Package store implements the todo domain store: CRUD, toggle, filter
// and reorder operations over an observable, persisted item list.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/pkg/observe"
	"github.com/idilsaglam/todostate/pkg/state"
	"github.com/idilsaglam/todostate/pkg/storage"
)

// DefaultKey is the flat storage namespace the item list lives under.
const DefaultKey = "todos"

// State is the full payload held by the store and delivered to
// subscribers on every change.
type State struct {
	Items []model.Todo `json:"items"`
}

// Store owns the live todo list and the authoritative position ordering.
// All mutation goes through its operations; consumers read snapshots via
// State/Filtered and react via Subscribe.
//
// Operations invoked from inside a subscriber callback are safe: the
// mutex only covers computing the next state, never the notify path, so
// a re-entrant update queues behind the in-flight round.
type Store struct {
	mu sync.Mutex // guards read-modify of the next state, released before Set
	st *state.Persistent[State]

	now   func() time.Time
	newID func() string
}

// Option configures a Store at construction.
type Option func(*Store)

// WithClock overrides the timestamp source. Test hook.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDFunc overrides id generation. Test hook.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New builds a Store persisted under DefaultKey in provider. Previously
// stored items are loaded; positions are renumbered in case the stored
// ordering has gaps or duplicates.
func New(provider storage.Provider, opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.st = state.NewPersistent(State{Items: []model.Todo{}}, DefaultKey, provider)

	// Restore the permutation invariant over whatever was loaded.
	loaded := append([]model.Todo(nil), s.st.State().Items...)
	if len(loaded) > 0 {
		byPos(loaded)
		s.st.Set(State{Items: renumber(loaded)})
	}
	return s
}

// State returns the current full snapshot.
func (s *Store) State() State { return s.st.State() }

// Subscribe registers fn for full-state snapshots, replaying the current
// one immediately.
func (s *Store) Subscribe(fn func(State)) observe.Unsubscribe {
	return s.st.Subscribe(fn)
}

// Add appends a new todo with the given title at the end of the list.
func (s *Store) Add(title string) (model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Todo{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	s.mu.Lock()
	items := s.items()
	now := s.now()
	t := model.Todo{
		ID:        s.newID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Position:  len(items),
	}
	next := State{Items: append(items, t)}
	s.mu.Unlock()

	s.st.Set(next)
	return t, nil
}

// Rename changes a todo's title.
func (s *Store) Rename(id, title string) (model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Todo{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	s.mu.Lock()
	items := s.items()
	i := indexOf(items, id)
	if i < 0 {
		s.mu.Unlock()
		return model.Todo{}, &NotFoundError{ID: id}
	}
	items[i].Title = title
	items[i].UpdatedAt = s.now()
	renamed := items[i]
	s.mu.Unlock()

	s.st.Set(State{Items: items})
	return renamed, nil
}

// Toggle flips a todo's completed flag and bumps its UpdatedAt.
func (s *Store) Toggle(id string) (model.Todo, error) {
	s.mu.Lock()
	items := s.items()
	i := indexOf(items, id)
	if i < 0 {
		s.mu.Unlock()
		return model.Todo{}, &NotFoundError{ID: id}
	}
	items[i].Completed = !items[i].Completed
	items[i].UpdatedAt = s.now()
	toggled := items[i]
	s.mu.Unlock()

	s.st.Set(State{Items: items})
	return toggled, nil
}

// Delete removes a todo and renumbers the remaining positions densely,
// preserving their prior relative order.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	items := s.items()
	i := indexOf(items, id)
	if i < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	items = append(items[:i], items[i+1:]...)
	byPos(items)
	next := State{Items: renumber(items)}
	s.mu.Unlock()

	s.st.Set(next)
	return nil
}

// Reorder moves the todo with id to position to (clamped to [0, n-1]).
// Every item between the old and new slot shifts by one in the direction
// that fills the gap; the relative order of the others is preserved.
func (s *Store) Reorder(id string, to int) error {
	s.mu.Lock()
	items := s.items()
	byPos(items)
	from := indexOf(items, id)
	if from < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	if to < 0 {
		to = 0
	}
	if to > len(items)-1 {
		to = len(items) - 1
	}
	if to == from {
		s.mu.Unlock()
		return nil
	}

	moved := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]model.Todo{moved}, items[to:]...)...)
	next := State{Items: renumber(items)}
	s.mu.Unlock()

	s.st.Set(next)
	return nil
}

// Filtered returns the todos passing f, ordered by position ascending.
// Pure: the returned slice is fresh and state is untouched.
func (s *Store) Filtered(f model.Filter) []model.Todo {
	items := s.items()
	byPos(items)
	out := make([]model.Todo, 0, len(items))
	for _, t := range items {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// items returns a fresh position-stable copy of the current list. Every
// transition mutates the copy and replaces the state wholesale, so
// snapshots already handed out stay intact.
func (s *Store) items() []model.Todo {
	return append([]model.Todo(nil), s.st.State().Items...)
}

func indexOf(items []model.Todo, id string) int {
	for i, t := range items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func byPos(items []model.Todo) { model.SortByPosition(items) }

// renumber restores the dense zero-based position permutation, assigning
// slots in the items' current slice order. Callers sort first when the
// slice order is not already the intended one.
func renumber(items []model.Todo) []model.Todo {
	for i := range items {
		items[i].Position = i
	}
	return items
}
