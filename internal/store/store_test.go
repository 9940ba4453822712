package store

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/pkg/storage"
)

// newTestStore builds a store over in-memory storage with a stepping
// clock so successive timestamps are strictly increasing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	return New(storage.NewMemory(), WithClock(func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}))
}

func titles(items []model.Todo) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Title
	}
	return out
}

// assertPermutation checks the position invariant: positions of live
// todos are exactly {0, ..., n-1}.
func assertPermutation(t *testing.T, items []model.Todo) {
	t.Helper()
	seen := make(map[int]bool, len(items))
	for _, it := range items {
		require.GreaterOrEqual(t, it.Position, 0)
		require.Less(t, it.Position, len(items))
		require.False(t, seen[it.Position], "duplicate position %d", it.Position)
		seen[it.Position] = true
	}
}

func TestAddOnEmptyStore(t *testing.T) {
	s := newTestStore(t)

	added, err := s.Add("Buy milk")
	require.NoError(t, err)

	items := s.State().Items
	require.Len(t, items, 1)
	assert.Equal(t, "Buy milk", items[0].Title)
	assert.Equal(t, 0, items[0].Position)
	assert.False(t, items[0].Completed)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, added.CreatedAt, added.UpdatedAt)
}

func TestAddTrimsAndValidatesTitle(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add("   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, s.State().Items)

	added, err := s.Add("  padded  ")
	require.NoError(t, err)
	assert.Equal(t, "padded", added.Title)
}

func TestDeleteCompactsPositions(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add("A")
	s.Add("B")

	require.NoError(t, s.Delete(a.ID))

	items := s.State().Items
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].Title)
	assert.Equal(t, 0, items[0].Position)
}

func TestDeleteUnknownID(t *testing.T) {
	s := newTestStore(t)
	var nf *NotFoundError
	require.ErrorAs(t, s.Delete("nope"), &nf)
	assert.Equal(t, "nope", nf.ID)
}

func TestReorderMovesSingleItemStably(t *testing.T) {
	s := newTestStore(t)
	s.Add("A")
	s.Add("B")
	c, _ := s.Add("C")

	require.NoError(t, s.Reorder(c.ID, 0))

	got := s.Filtered(model.Filter{})
	assert.Equal(t, []string{"C", "A", "B"}, titles(got))
	for i, it := range got {
		assert.Equal(t, i, it.Position)
	}
}

func TestReorderClampsTarget(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add("A")
	s.Add("B")

	require.NoError(t, s.Reorder(a.ID, 99))
	assert.Equal(t, []string{"B", "A"}, titles(s.Filtered(model.Filter{})))

	require.NoError(t, s.Reorder(a.ID, -5))
	assert.Equal(t, []string{"A", "B"}, titles(s.Filtered(model.Filter{})))
}

// TestToggleTwiceIsInvolution: two toggles restore the completed flag,
// while each one individually bumps UpdatedAt.
func TestToggleTwiceIsInvolution(t *testing.T) {
	s := newTestStore(t)
	added, _ := s.Add("A")

	first, err := s.Toggle(added.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.True(t, first.UpdatedAt.After(added.UpdatedAt))

	second, err := s.Toggle(added.ID)
	require.NoError(t, err)
	assert.False(t, second.Completed)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestRename(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add("A")

	renamed, err := s.Rename(a.ID, "  A2  ")
	require.NoError(t, err)
	assert.Equal(t, "A2", renamed.Title)
	assert.True(t, renamed.UpdatedAt.After(a.UpdatedAt))

	_, err = s.Rename(a.ID, " ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = s.Rename("nope", "X")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestToggleUnknownID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Toggle("nope")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestFilteredByStatusAndSearch(t *testing.T) {
	s := newTestStore(t)
	milk, _ := s.Add("Buy milk")
	s.Add("Walk dog")

	got := s.Filtered(model.Filter{Status: model.StatusActive, Search: "milk"})
	require.Len(t, got, 1)
	assert.Equal(t, "Buy milk", got[0].Title)

	// Complete it; the active+milk filter now matches nothing.
	_, err := s.Toggle(milk.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Filtered(model.Filter{Status: model.StatusActive, Search: "milk"}))
	assert.Len(t, s.Filtered(model.Filter{Status: model.StatusCompleted}), 1)
}

func TestFilteredSearchIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	s.Add("Buy MILK")

	assert.Len(t, s.Filtered(model.Filter{Search: "milk"}), 1)
	assert.Len(t, s.Filtered(model.Filter{Search: "MiLk"}), 1)
	assert.Empty(t, s.Filtered(model.Filter{Search: "bread"}))
}

// TestFilteredIsPure: same filter twice with no mutation in between
// yields equal results and leaves state untouched.
func TestFilteredIsPure(t *testing.T) {
	s := newTestStore(t)
	s.Add("A")
	s.Add("B")
	before := s.State()

	f := model.Filter{Status: model.StatusActive}
	first := s.Filtered(f)
	second := s.Filtered(f)

	assert.Equal(t, first, second)
	assert.Equal(t, before, s.State())
}

// TestPositionPermutationUnderRandomOps drives a random add/delete/
// reorder sequence and checks the dense-permutation invariant after
// every step.
func TestPositionPermutationUnderRandomOps(t *testing.T) {
	s := newTestStore(t)
	rng := rand.New(rand.NewSource(1))

	var ids []string
	for step := 0; step < 200; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			added, err := s.Add(fmt.Sprintf("item-%d", step))
			require.NoError(t, err)
			ids = append(ids, added.ID)
		case op == 1:
			i := rng.Intn(len(ids))
			require.NoError(t, s.Delete(ids[i]))
			ids = append(ids[:i], ids[i+1:]...)
		default:
			i := rng.Intn(len(ids))
			require.NoError(t, s.Reorder(ids[i], rng.Intn(len(ids)+2)-1))
		}
		assertPermutation(t, s.State().Items)
	}
}

// TestSubscriberMutationQueuesBehindNotification: a subscriber reacting
// to a change may itself invoke a domain operation; the nested update
// must queue behind the in-flight round and both operations complete.
func TestSubscriberMutationQueuesBehindNotification(t *testing.T) {
	s := newTestStore(t)

	var reacted bool
	var nestedErr error
	s.Subscribe(func(st State) {
		if !reacted && len(st.Items) == 1 && !st.Items[0].Completed {
			reacted = true
			_, nestedErr = s.Toggle(st.Items[0].ID)
		}
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Add("A")
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Add did not return while a subscriber toggled re-entrantly")
	}

	require.NoError(t, nestedErr)
	items := s.State().Items
	require.Len(t, items, 1)
	assert.True(t, items[0].Completed)
	assertPermutation(t, items)
}

// TestDeepReentrantOperationsSettle drives a chain of nested operations
// (add triggers toggle triggers delete) and expects a consistent end
// state with no hang.
func TestDeepReentrantOperationsSettle(t *testing.T) {
	s := newTestStore(t)

	var errs []error
	s.Subscribe(func(st State) {
		if len(st.Items) != 1 {
			return
		}
		it := st.Items[0]
		switch {
		case !it.Completed:
			_, err := s.Toggle(it.ID)
			errs = append(errs, err)
		case it.Completed:
			errs = append(errs, s.Delete(it.ID))
		}
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.Add("A")
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Add did not return with chained re-entrant operations")
	}

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Empty(t, s.State().Items)
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	s := newTestStore(t)

	var counts []int
	unsub := s.Subscribe(func(st State) { counts = append(counts, len(st.Items)) })

	s.Add("A")
	s.Add("B")
	unsub()
	s.Add("C")

	assert.Equal(t, []int{0, 1, 2}, counts)
}

// TestStateSurvivesRestart rebuilds the store against the same provider
// and expects the last state back. Timestamps come from a wall-clock-only
// source so they compare equal after the JSON round trip.
func TestStateSurvivesRestart(t *testing.T) {
	mem := storage.NewMemory()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	first := New(mem, WithClock(func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}))
	a, err := first.Add("A")
	require.NoError(t, err)
	_, err = first.Add("B")
	require.NoError(t, err)
	_, err = first.Toggle(a.ID)
	require.NoError(t, err)

	second := New(mem)

	assert.Equal(t, first.State(), second.State())
	assertPermutation(t, second.State().Items)
}

func TestStorageFailureNeverReachesCallers(t *testing.T) {
	s := New(readOnlyProvider{})

	added, err := s.Add("A")
	require.NoError(t, err)
	_, err = s.Toggle(added.ID)
	require.NoError(t, err)

	// Memory stays authoritative even though nothing was persisted.
	assert.Len(t, s.State().Items, 1)
}

// readOnlyProvider refuses every write.
type readOnlyProvider struct{}

func (readOnlyProvider) Get(string, any) bool { return false }
func (readOnlyProvider) Set(key string, any2 any) error {
	return &storage.Error{Op: "set", Key: key, Err: fmt.Errorf("backend unavailable")}
}
func (readOnlyProvider) Remove(string) error { return nil }
func (readOnlyProvider) Clear() error        { return nil }
