package mpd

import (
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/logger"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

func TestMapState(t *testing.T) {
	tests := []struct {
		prev, state string
		want        domain.PlayerSignal
		ok          bool
	}{
		{"stop", "play", domain.SignalPlaying, true},
		{"pause", "play", domain.SignalPlaying, true},
		{"play", "play", domain.SignalPlaying, false},
		{"play", "pause", domain.SignalPaused, true},
		{"pause", "pause", domain.SignalPaused, false},
		{"play", "stop", domain.SignalEnded, true},
		{"pause", "stop", domain.SignalEnded, true},
		{"stop", "stop", domain.SignalUnstarted, false},
		{"", "stop", domain.SignalUnstarted, false},
		{"play", "", domain.SignalUnstarted, false},
	}

	for _, tt := range tests {
		t.Run(tt.prev+"->"+tt.state, func(t *testing.T) {
			got, ok := mapState(tt.prev, tt.state)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	modern := mpd.Attrs{"elapsed": "12.5", "duration": "201.3", "volume": "40"}
	assert.Equal(t, 12.5, parseElapsed(modern))
	assert.Equal(t, 201.3, parseDuration(modern))
	assert.Equal(t, 40, parseVolume(modern))

	legacy := mpd.Attrs{"time": "7:180"}
	assert.Equal(t, float64(7), parseElapsed(legacy))
	assert.Equal(t, float64(180), parseDuration(legacy))

	// No mixer configured
	assert.Equal(t, 100, parseVolume(mpd.Attrs{"volume": "-1"}))
	assert.Equal(t, 100, parseVolume(nil))
	assert.Equal(t, float64(0), parseElapsed(nil))
	assert.Equal(t, float64(0), parseDuration(mpd.Attrs{"time": "garbage"}))
}

func TestNewLibrary_Defaults(t *testing.T) {
	lib := NewLibrary(logger.NewTestLogger(), Config{})
	assert.Equal(t, "tcp", lib.cfg.Network)
	assert.Equal(t, "localhost:6600", lib.cfg.Address)
	assert.False(t, lib.Loaded())
	assert.NoError(t, lib.Close())
}

func TestNewPlayer_BeforeLoad(t *testing.T) {
	lib := NewLibrary(logger.NewTestLogger(), DefaultConfig())

	_, err := lib.NewPlayer("player", ports.PlayerOptions{}, ports.PlayerCallbacks{})
	assert.True(t, errors.Is(err, domain.ErrLibraryNotLoaded))
}

func TestLoad_UnreachableServerNeverCallsBack(t *testing.T) {
	// Reserve a port and close it so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	lib := NewLibrary(logger.NewTestLogger(), Config{Network: "tcp", Address: addr})

	var called int32
	lib.Load(func() { atomic.AddInt32(&called, 1) })

	// The dial fails and the library goes back to idle
	require.Eventually(t, func() bool {
		lib.mu.Lock()
		defer lib.mu.Unlock()
		return !lib.loading
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&called))
	assert.False(t, lib.Loaded())
}

func TestCommandsWithoutConnection(t *testing.T) {
	lib := NewLibrary(logger.NewTestLogger(), DefaultConfig())
	p := &Player{
		lib:    lib,
		logger: logger.NewTestLogger(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	// Commands fail quietly and queries fall back to neutral values
	p.LoadItemByID("song.mp3")
	p.Play()
	p.Pause()
	p.SeekTo(10, true)
	p.Mute()
	assert.False(t, p.IsMuted(), "mute needs a working mixer")
	assert.Equal(t, 100, p.Volume())
	assert.Equal(t, float64(0), p.CurrentTime())
	assert.Equal(t, float64(0), p.Duration())

	p.Destroy()
	p.Destroy()
}

func TestSetVolumeWhileMutedIsSavedForUnMute(t *testing.T) {
	lib := NewLibrary(logger.NewTestLogger(), DefaultConfig())
	p := &Player{lib: lib, logger: logger.NewTestLogger()}
	p.muted = true
	p.savedVolume = 70

	p.SetVolume(40)

	assert.Equal(t, 40, p.Volume())
	assert.True(t, p.IsMuted())
}

func loadLibrary(t *testing.T, addr string) *Library {
	t.Helper()

	lib := NewLibrary(logger.NewTestLogger(), Config{Network: "tcp", Address: addr})
	loaded := make(chan struct{})
	lib.Load(func() { close(loaded) })

	select {
	case <-loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("library never connected")
	}
	return lib
}

func TestDo_ReconnectsAfterDrop(t *testing.T) {
	srv := newFakeMPD(t)
	lib := loadLibrary(t, srv.addr())
	defer lib.Close()

	for i := 1; i <= 3; i++ {
		srv.dropAll()
		volume := 40 + i
		err := lib.do("setvol", func(c *mpd.Client) error { return c.SetVolume(volume) })
		require.NoError(t, err, "command after drop #%d", i)
	}

	assert.Equal(t, 4, srv.acceptedCount())
	assert.True(t, srv.received("setvol 43"))
	assert.True(t, lib.Loaded())
}

func TestDo_UnreachableAfterLoad(t *testing.T) {
	srv := newFakeMPD(t)
	lib := loadLibrary(t, srv.addr())
	defer lib.Close()

	srv.close()

	err := lib.do("play", func(c *mpd.Client) error { return c.Pause(false) })
	require.Error(t, err)
	assert.True(t, lib.Loaded(), "a lost server is redialed, not forgotten")
}

func TestSeekTo_KeepsFractionalSeconds(t *testing.T) {
	srv := newFakeMPD(t)
	lib := loadLibrary(t, srv.addr())
	defer lib.Close()

	p := &Player{lib: lib, logger: logger.NewTestLogger()}
	p.SeekTo(12.5, true)

	assert.True(t, srv.received("seekcur 12.500000"))
	assert.False(t, srv.received("status"))
}

func TestPlayer_WatcherReconnects(t *testing.T) {
	prev := watchRetryDelay
	watchRetryDelay = 10 * time.Millisecond
	defer func() { watchRetryDelay = prev }()

	srv := newFakeMPD(t)
	lib := loadLibrary(t, srv.addr())

	ready := make(chan struct{})
	signals := make(chan domain.PlayerSignal, 4)
	inst, err := lib.NewPlayer("player", ports.PlayerOptions{}, ports.PlayerCallbacks{
		OnReady: func(ports.PlayerInstance) { close(ready) },
		OnStateChange: func(_ ports.PlayerInstance, s domain.PlayerSignal) {
			signals <- s
		},
	})
	require.NoError(t, err)

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("player never became ready")
	}
	require.Eventually(t, func() bool { return srv.idleCount() == 1 }, 5*time.Second, 5*time.Millisecond)

	// Both the command connection and the watcher come back
	srv.dropAll()
	require.Eventually(t, func() bool {
		return srv.acceptedCount() >= 4 && srv.idleCount() == 1
	}, 5*time.Second, 5*time.Millisecond)

	srv.setState("play")
	select {
	case s := <-signals:
		assert.Equal(t, domain.SignalPlaying, s)
	case <-time.After(5 * time.Second):
		t.Fatal("no signal after the watcher reconnected")
	}

	// Close waits for the watcher to exit
	require.NoError(t, lib.Close())
	select {
	case <-inst.(*Player).done:
	default:
		t.Fatal("watcher still running after Close")
	}
	_, err = lib.NewPlayer("player", ports.PlayerOptions{}, ports.PlayerCallbacks{})
	assert.True(t, errors.Is(err, domain.ErrLibraryNotLoaded))
}
