// Package model holds the todo domain entities.
package model

import (
	"sort"
	"strings"
	"time"
)

// Todo is the domain model for a todo entry.
//
// ID is assigned at creation and never changes. Position is a dense
// zero-based slot defining render order; across all live todos the
// positions form a contiguous permutation of [0, n).
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Position  int       `json:"position"`
}

// SortByPosition orders items by position ascending, stably, so equal
// positions (possible only in corrupted input) keep their given order.
func SortByPosition(items []Todo) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
}

// Status selects todos by completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ParseStatus maps user input onto a Status, defaulting to StatusAll.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "pending", "open":
		return StatusActive
	case "completed", "done":
		return StatusCompleted
	default:
		return StatusAll
	}
}

// Filter is a pure predicate over todos: completion status plus a
// case-insensitive substring match against the title. It never mutates
// anything.
type Filter struct {
	Status Status
	Search string
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Todo) bool {
	switch f.Status {
	case StatusActive:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		return strings.Contains(strings.ToLower(t.Title), strings.ToLower(q))
	}
	return true
}
