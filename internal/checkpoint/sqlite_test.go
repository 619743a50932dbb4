package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/router"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	inv := state.New(ID("example.com"), "example.com")
	inv.Subdomains = []string{"a.example.com", "b.example.com"}
	require.NoError(t, inv.MarkCompleted(state.PhaseEnumeration))
	require.NoError(t, inv.MarkCompleted(state.PhaseIntelligence))

	require.NoError(t, store.Save(ctx, inv.ID, inv))

	got, err := store.Load(ctx, "osint-example.com")
	require.NoError(t, err)
	assert.Equal(t, inv.Target, got.Target)
	assert.Equal(t, inv.Subdomains, got.Subdomains)
	require.Len(t, got.CompletedPhases, 2)

	// A restored run picks up at the third phase.
	d, err := router.Route(got)
	require.NoError(t, err)
	assert.Equal(t, router.ActionRunPhase, d.Action)
	assert.Equal(t, state.PhaseFingerprinting, d.Phase)
}

func TestSaveOverwritesExisting(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	inv := state.New("osint-example.com", "example.com")
	require.NoError(t, store.Save(ctx, inv.ID, inv))

	inv.Subdomains = []string{"a.example.com"}
	require.NoError(t, inv.MarkCompleted(state.PhaseEnumeration))
	require.NoError(t, store.Save(ctx, inv.ID, inv))

	got, err := store.Load(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com"}, got.Subdomains)
	assert.Len(t, got.CompletedPhases, 1)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1, "saving twice must not duplicate the row")
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Load(context.Background(), "osint-nothere.example")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSummarizes(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := state.New("osint-first.example", "first.example")
	require.NoError(t, first.MarkCompleted(state.PhaseEnumeration))
	require.NoError(t, store.Save(ctx, first.ID, first))

	second := state.New("osint-second.example", "second.example")
	require.NoError(t, store.Save(ctx, second.ID, second))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]Entry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	assert.Equal(t, 1, byID["osint-first.example"].Phases)
	assert.Equal(t, "second.example", byID["osint-second.example"].Target)
	assert.Equal(t, 0, byID["osint-second.example"].Phases)
}

func TestID(t *testing.T) {
	assert.Equal(t, "osint-example.com", ID("example.com"))
}
