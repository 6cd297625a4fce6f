package prefs

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

// Helper to create a store on Fyne's in-memory test preferences
func newTestStore(t *testing.T) *Store {
	t.Helper()
	app := test.NewApp()
	store, err := NewStore(app.Preferences())
	require.NoError(t, err)
	return store
}

func TestNewStore_NilPreferences(t *testing.T) {
	_, err := NewStore(nil)
	assert.ErrorIs(t, err, domain.ErrPreferencesUnavailable)
}

func TestStore_SetGetDelete(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("playbackHistory")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, store.Set("playbackHistory", "[]"))
	got, err := store.Get("playbackHistory")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	require.NoError(t, store.Delete("playbackHistory"))
	_, err = store.Get("playbackHistory")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestStore_EmptyValueReadsAsMissing(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("k", ""))
	_, err := store.Get("k")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}
