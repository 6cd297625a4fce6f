package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/moodtune/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/repository/kv"
	"github.com/tejashwikalptaru/moodtune/internal/adapter/storage/sqlite"
	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/logger"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
	"github.com/tejashwikalptaru/moodtune/internal/testutil"
)

// fakeClock is a settable wall clock
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func at(day, month, year, hour, minute, second int) time.Time {
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
}

func item(id string) domain.MediaItem {
	return domain.MediaItem{ID: id, Title: "Title " + id, Artist: "Artist " + id, Thumbnail: id + ".png"}
}

// Helper to create a test history service on an in-memory sqlite store
func newTestHistoryService(t *testing.T) (*HistoryService, *kv.HistoryRepository, *fakeClock, *testutil.Recorder) {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repo := kv.NewHistoryRepository(logger.NewTestLogger(), store, "")
	bus := eventbus.NewSyncEventBus()
	events := testutil.NewRecorder(bus)

	service := NewHistoryService(logger.NewTestLogger(), repo, bus)
	clock := &fakeClock{now: at(1, 2, 2024, 14, 5, 0)}
	service.SetClock(clock.Now)

	return service, repo, clock, events
}

func TestHistoryService_EmptyOnStart(t *testing.T) {
	service, _, _, _ := newTestHistoryService(t)

	log := service.Log()
	assert.NotNil(t, log)
	assert.Empty(t, log)
}

func TestHistoryService_EndToEndCalm(t *testing.T) {
	service, repo, _, events := newTestHistoryService(t)

	assert.True(t, service.Record("Calm", domain.MediaItem{ID: "s1", Title: "Title", Artist: "Artist", Thumbnail: "thumb.png"}))
	assert.True(t, service.Record("Calm", domain.MediaItem{ID: "s2", Title: "Other", Artist: "Artist2", Thumbnail: "t2.png"}))

	log := service.Log()
	require.Len(t, log, 1)
	assert.Equal(t, "Calm", log[0].Mood)
	assert.Equal(t, "01/02/2024", log[0].Date)
	assert.Equal(t, "14:05", log[0].Time)
	require.Len(t, log[0].Songs, 2)
	assert.Equal(t, "s2", log[0].Songs[0].ID)
	assert.Equal(t, "s1", log[0].Songs[1].ID)
	assert.NotEmpty(t, log[0].ID)

	// Written through on every change
	assert.Equal(t, log, repo.Load())
	assert.Equal(t, 2, events.Count(domain.EventHistoryChanged))
}

func TestHistoryService_Idempotent(t *testing.T) {
	service, _, clock, events := newTestHistoryService(t)

	require.True(t, service.Record("Calm", item("a")))
	before := service.Log()

	clock.now = clock.now.Add(30 * time.Second) // same minute
	assert.False(t, service.Record("Calm", item("a")))

	assert.Equal(t, before, service.Log())
	assert.Equal(t, 1, events.Count(domain.EventHistoryChanged))
}

func TestHistoryService_MergeOrder(t *testing.T) {
	service, _, _, _ := newTestHistoryService(t)

	service.Record("Calm", item("A"))
	service.Record("Calm", item("B"))

	log := service.Log()
	require.Len(t, log, 1)
	assert.Equal(t, []string{"B", "A"}, songIDs(log[0]))
}

func TestHistoryService_BucketIsolation(t *testing.T) {
	t.Run("by mood", func(t *testing.T) {
		service, _, _, _ := newTestHistoryService(t)

		service.Record("Calm", item("a"))
		service.Record("Energetic", item("a"))

		log := service.Log()
		require.Len(t, log, 2)
		assert.Equal(t, "Energetic", log[0].Mood)
		assert.Equal(t, "Calm", log[1].Mood)
	})

	t.Run("by minute", func(t *testing.T) {
		service, _, clock, _ := newTestHistoryService(t)

		service.Record("Calm", item("a"))
		clock.now = at(1, 2, 2024, 14, 6, 0)
		service.Record("Calm", item("a"))

		log := service.Log()
		require.Len(t, log, 2)
		assert.Equal(t, "14:06", log[0].Time)
		assert.Equal(t, "14:05", log[1].Time)
	})

	t.Run("by date", func(t *testing.T) {
		service, _, clock, _ := newTestHistoryService(t)

		service.Record("Calm", item("a"))
		clock.now = at(2, 2, 2024, 14, 5, 0)
		service.Record("Calm", item("a"))

		log := service.Log()
		require.Len(t, log, 2)
		assert.Equal(t, "02/02/2024", log[0].Date)
	})

	t.Run("returning to an older bucket updates it in place", func(t *testing.T) {
		service, _, _, _ := newTestHistoryService(t)

		service.Record("Calm", item("a"))
		service.Record("Energetic", item("b"))
		service.Record("Calm", item("c"))

		log := service.Log()
		require.Len(t, log, 2)
		assert.Equal(t, "Energetic", log[0].Mood)
		assert.Equal(t, "Calm", log[1].Mood)
		assert.Equal(t, []string{"c", "a"}, songIDs(log[1]))
	})
}

func TestHistoryService_DefaultMood(t *testing.T) {
	service, _, _, _ := newTestHistoryService(t)

	service.Record("", item("a"))

	log := service.Log()
	require.Len(t, log, 1)
	assert.Equal(t, domain.DefaultMood, log[0].Mood)
}

func TestHistoryService_IgnoresItemWithoutID(t *testing.T) {
	service, _, _, events := newTestHistoryService(t)

	assert.False(t, service.Record("Calm", domain.MediaItem{Title: "no id"}))
	assert.Empty(t, service.Log())
	assert.Equal(t, 0, events.Count(domain.EventHistoryChanged))
}

func TestHistoryService_UniqueEntryIDs(t *testing.T) {
	service, _, clock, _ := newTestHistoryService(t)

	for i := 0; i < 5; i++ {
		clock.now = at(1, 2, 2024, 14, i, 0)
		service.Record("Calm", item(fmt.Sprint(i)))
	}

	seen := map[string]bool{}
	for _, e := range service.Log() {
		assert.False(t, seen[e.ID], "duplicate entry id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestHistoryService_ReloadsPersistedLog(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	repo := kv.NewHistoryRepository(logger.NewTestLogger(), store, "")

	first := NewHistoryService(logger.NewTestLogger(), repo, eventbus.NewSyncEventBus())
	first.SetClock(func() time.Time { return at(1, 2, 2024, 14, 5, 0) })
	first.Record("Calm", item("a"))
	first.Record("Calm", item("b"))

	second := NewHistoryService(logger.NewTestLogger(), repo, eventbus.NewSyncEventBus())
	second.SetClock(func() time.Time { return at(1, 2, 2024, 14, 5, 30) })
	assert.Equal(t, first.Log(), second.Log())

	// Plays continue to merge into the reloaded entry
	assert.False(t, second.Record("Calm", item("a")))
	assert.True(t, second.Record("Calm", item("c")))
	assert.Equal(t, []string{"c", "b", "a"}, songIDs(second.Log()[0]))
}

func TestHistoryService_Clear(t *testing.T) {
	service, repo, _, events := newTestHistoryService(t)

	service.Record("Calm", item("a"))
	service.Clear()

	assert.Empty(t, service.Log())
	assert.Empty(t, repo.Load())
	assert.Equal(t, 1, events.Count(domain.EventHistoryCleared))

	// A fresh service on the same repository starts empty
	reloaded := NewHistoryService(logger.NewTestLogger(), repo, eventbus.NewSyncEventBus())
	assert.Empty(t, reloaded.Log())
}

func TestHistoryService_LogIsACopy(t *testing.T) {
	service, _, _, _ := newTestHistoryService(t)
	service.Record("Calm", item("a"))

	log := service.Log()
	log[0].Songs[0].Title = "changed"
	log[0].Mood = "changed"

	fresh := service.Log()
	assert.Equal(t, "Calm", fresh[0].Mood)
	assert.Equal(t, "Title a", fresh[0].Songs[0].Title)
}

func TestHistoryService_EventCarriesSnapshot(t *testing.T) {
	service, _, _, events := newTestHistoryService(t)

	service.Record("Calm", item("a"))
	service.Record("Calm", item("b"))

	changes := events.OfType(domain.EventHistoryChanged)
	require.Len(t, changes, 2)
	first := changes[0].(domain.HistoryChangedEvent)
	assert.Equal(t, []string{"a"}, songIDs(first.Log[0]))
}

// failingRepository loads an empty log and fails every write
type failingRepository struct{}

func (failingRepository) Load() domain.HistoryLog          { return domain.HistoryLog{} }
func (failingRepository) Save(log domain.HistoryLog) error { return errors.New("disk full") }
func (failingRepository) Clear() error                     { return errors.New("disk full") }

var _ ports.HistoryRepository = failingRepository{}

func TestHistoryService_PersistenceFailureKeepsMemory(t *testing.T) {
	bus := eventbus.NewSyncEventBus()
	events := testutil.NewRecorder(bus)
	service := NewHistoryService(logger.NewTestLogger(), failingRepository{}, bus)

	assert.True(t, service.Record("Calm", item("a")))
	assert.Len(t, service.Log(), 1)
	assert.Equal(t, 1, events.Count(domain.EventHistoryChanged))

	service.Clear()
	assert.Empty(t, service.Log())
	assert.Equal(t, 1, events.Count(domain.EventHistoryCleared))
}

func songIDs(e domain.HistoryEntry) []string {
	ids := make([]string, len(e.Songs))
	for i, s := range e.Songs {
		ids[i] = s.ID
	}
	return ids
}
