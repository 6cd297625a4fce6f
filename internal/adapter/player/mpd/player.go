package mpd

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Player controls MPD playback. Mute is emulated by volume 0 and restore.
type Player struct {
	lib       *Library
	logger    *slog.Logger
	callbacks ports.PlayerCallbacks

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu          sync.Mutex
	lastState   string
	muted       bool
	savedVolume int
}

// watchRetryDelay is the pause between attempts to reopen a lost watcher.
var watchRetryDelay = time.Second

// run opens a watcher on the player and mixer subsystems, reports readiness,
// and then translates player changes into signals until Destroy. A watcher
// that fails after readiness is reopened.
func (p *Player) run() {
	defer close(p.done)

	w, err := p.openWatcher()
	if err != nil {
		p.logger.Error("failed to watch MPD", slog.Any("error", err))
		return
	}
	defer func() { closeWatcher(w) }()

	select {
	case <-p.stop:
		return
	default:
	}

	if attrs := p.lib.status(); attrs != nil {
		p.mu.Lock()
		p.lastState = attrs["state"]
		p.mu.Unlock()
	}

	if p.callbacks.OnReady != nil {
		p.callbacks.OnReady(p)
	}

	for {
		select {
		case <-p.stop:
			return
		case subsystem, ok := <-w.Event:
			if !ok {
				return
			}
			if subsystem == "player" {
				p.emitPlayerState()
			}
		case err, ok := <-w.Error:
			if !ok {
				return
			}
			p.logger.Warn("MPD watcher error, reconnecting", slog.Any("error", err))
			closeWatcher(w)
			if w = p.reopenWatcher(); w == nil {
				return
			}
			// Changes made while disconnected were never announced
			p.emitPlayerState()
		}
	}
}

func (p *Player) openWatcher() (*mpd.Watcher, error) {
	cfg := p.lib.cfg
	return mpd.NewWatcher(cfg.Network, cfg.Address, cfg.Password, "player", "mixer")
}

// reopenWatcher retries until a watcher opens or the player is destroyed,
// in which case it returns nil.
func (p *Player) reopenWatcher() *mpd.Watcher {
	for {
		select {
		case <-p.stop:
			return nil
		case <-time.After(watchRetryDelay):
		}

		w, err := p.openWatcher()
		if err == nil {
			p.logger.Info("MPD watcher reconnected")
			return w
		}
		p.logger.Debug("MPD watcher still unreachable", slog.Any("error", err))
	}
}

// closeWatcher closes w while draining its channels, which the watch loop
// may still be blocked sending on.
func closeWatcher(w *mpd.Watcher) {
	if w == nil {
		return
	}
	go func() {
		for range w.Event {
		}
	}()
	go func() {
		for range w.Error {
		}
	}()
	_ = w.Close()
}

func (p *Player) emitPlayerState() {
	attrs := p.lib.status()
	if attrs == nil {
		return
	}

	p.mu.Lock()
	prev := p.lastState
	p.lastState = attrs["state"]
	p.mu.Unlock()

	signal, ok := mapState(prev, attrs["state"])
	if !ok || p.callbacks.OnStateChange == nil {
		return
	}
	p.callbacks.OnStateChange(p, signal)
}

// mapState translates an MPD state change into a player signal.
// A stop is only reported as Ended when something was playing or paused.
func mapState(prev, state string) (domain.PlayerSignal, bool) {
	switch state {
	case "play":
		return domain.SignalPlaying, prev != "play"
	case "pause":
		return domain.SignalPaused, prev != "pause"
	case "stop":
		if prev == "play" || prev == "pause" {
			return domain.SignalEnded, true
		}
		return domain.SignalUnstarted, false
	default:
		return domain.SignalUnstarted, false
	}
}

// LoadItemByID replaces the queue with the item and starts it.
func (p *Player) LoadItemByID(id string) {
	_ = p.lib.do("load", func(c *mpd.Client) error {
		if err := c.Clear(); err != nil {
			return err
		}
		if err := c.Add(id); err != nil {
			return err
		}
		return c.Play(-1)
	})
}

// Play resumes playback.
func (p *Player) Play() {
	_ = p.lib.do("play", func(c *mpd.Client) error {
		return c.Pause(false)
	})
}

// Pause pauses playback.
func (p *Player) Pause() {
	_ = p.lib.do("pause", func(c *mpd.Client) error {
		return c.Pause(true)
	})
}

// SeekTo seeks within the current song.
func (p *Player) SeekTo(seconds float64, allowSeekAhead bool) {
	_ = p.lib.do("seek", func(c *mpd.Client) error {
		return c.SeekCur(time.Duration(seconds*float64(time.Second)), false)
	})
}

// SetVolume sets the mixer volume. While muted, the volume is kept for UnMute.
func (p *Player) SetVolume(volume int) {
	p.mu.Lock()
	if p.muted {
		p.savedVolume = volume
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	_ = p.lib.do("setvol", func(c *mpd.Client) error {
		return c.SetVolume(volume)
	})
}

// Volume returns the volume, or the saved volume while muted.
func (p *Player) Volume() int {
	p.mu.Lock()
	if p.muted {
		v := p.savedVolume
		p.mu.Unlock()
		return v
	}
	p.mu.Unlock()

	return parseVolume(p.lib.status())
}

// Mute saves the volume and sets the mixer to 0.
func (p *Player) Mute() {
	p.mu.Lock()
	if p.muted {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	saved := parseVolume(p.lib.status())
	if err := p.lib.do("mute", func(c *mpd.Client) error { return c.SetVolume(0) }); err != nil {
		return
	}

	p.mu.Lock()
	p.muted = true
	p.savedVolume = saved
	p.mu.Unlock()
}

// UnMute restores the saved volume.
func (p *Player) UnMute() {
	p.mu.Lock()
	if !p.muted {
		p.mu.Unlock()
		return
	}
	restore := p.savedVolume
	p.mu.Unlock()

	if err := p.lib.do("unmute", func(c *mpd.Client) error { return c.SetVolume(restore) }); err != nil {
		return
	}

	p.mu.Lock()
	p.muted = false
	p.mu.Unlock()
}

// IsMuted reports whether the player is muted.
func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// CurrentTime returns the elapsed time of the current song.
func (p *Player) CurrentTime() float64 {
	return parseElapsed(p.lib.status())
}

// Duration returns the length of the current song.
func (p *Player) Duration() float64 {
	return parseDuration(p.lib.status())
}

// Destroy stops watching MPD. Playback is left as it is.
func (p *Player) Destroy() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func parseVolume(attrs mpd.Attrs) int {
	v, err := strconv.Atoi(attrs["volume"])
	if err != nil || v < 0 {
		// No mixer configured
		return 100
	}
	return v
}

func parseElapsed(attrs mpd.Attrs) float64 {
	if v, err := strconv.ParseFloat(attrs["elapsed"], 64); err == nil {
		return v
	}
	elapsed, _ := splitTime(attrs["time"])
	return elapsed
}

func parseDuration(attrs mpd.Attrs) float64 {
	if v, err := strconv.ParseFloat(attrs["duration"], 64); err == nil {
		return v
	}
	_, total := splitTime(attrs["time"])
	return total
}

// splitTime parses the legacy "elapsed:total" time field.
func splitTime(s string) (elapsed, total float64) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0
	}
	elapsed, _ = strconv.ParseFloat(a, 64)
	total, _ = strconv.ParseFloat(b, 64)
	return elapsed, total
}

// Verify that Player implements the PlayerInstance interface
var _ ports.PlayerInstance = (*Player)(nil)
