package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string         `json:"name"`
	Age   int            `json:"age"`
	Prefs map[string]any `json:"prefs"`
}

func TestPatchMergesTopLevelKeys(t *testing.T) {
	c := NewContainer(profile{Name: "ada", Age: 36, Prefs: map[string]any{"theme": "dark"}})

	require.NoError(t, c.Patch(map[string]any{"age": 37}))

	got := c.State()
	assert.Equal(t, "ada", got.Name)
	assert.Equal(t, 37, got.Age)
	assert.Equal(t, map[string]any{"theme": "dark"}, got.Prefs)
}

// TestPatchReplacesNestedValuesWholesale pins the non-deep-merge
// semantics: a nested structure in the patch replaces the whole field.
func TestPatchReplacesNestedValuesWholesale(t *testing.T) {
	c := NewContainer(profile{
		Name:  "ada",
		Prefs: map[string]any{"theme": "dark", "lang": "en"},
	})

	require.NoError(t, c.Patch(map[string]any{
		"prefs": map[string]any{"theme": "light"},
	}))

	// "lang" is gone: the nested map was replaced, not merged.
	assert.Equal(t, map[string]any{"theme": "light"}, c.State().Prefs)
}

func TestPatchNotifiesWithFullState(t *testing.T) {
	c := NewContainer(profile{Name: "ada", Age: 36})

	var seen []profile
	c.Subscribe(func(p profile) { seen = append(seen, p) })

	require.NoError(t, c.Patch(map[string]any{"name": "grace"}))

	require.Len(t, seen, 2) // replay + patch
	assert.Equal(t, "grace", seen[1].Name)
	assert.Equal(t, 36, seen[1].Age)
}

func TestPatchEmptyIsNoOp(t *testing.T) {
	c := NewContainer(profile{Name: "ada"})

	calls := 0
	c.Subscribe(func(profile) { calls++ })

	require.NoError(t, c.Patch(nil))
	assert.Equal(t, 1, calls) // replay only
}

// TestSnapshotsAreStable verifies that values seen by a subscriber are
// not mutated by later updates.
func TestSnapshotsAreStable(t *testing.T) {
	c := NewContainer(profile{Name: "ada", Prefs: map[string]any{"theme": "dark"}})

	var first profile
	unsub := c.Subscribe(func(p profile) { first = p })
	unsub()

	require.NoError(t, c.Patch(map[string]any{"prefs": map[string]any{"theme": "light"}}))

	assert.Equal(t, map[string]any{"theme": "dark"}, first.Prefs)
	assert.Equal(t, map[string]any{"theme": "light"}, c.State().Prefs)
}

func TestSetReplacesWholesale(t *testing.T) {
	c := NewContainer(profile{Name: "ada", Age: 36})
	c.Set(profile{Name: "grace"})

	got := c.State()
	assert.Equal(t, "grace", got.Name)
	assert.Zero(t, got.Age)
}
