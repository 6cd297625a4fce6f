package service

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// SessionSource exposes the current playback session.
type SessionSource interface {
	State() domain.PlaybackSession
}

// PlayerAdapterConfig configures a PlayerAdapter.
type PlayerAdapterConfig struct {
	// ContainerID names the surface the player instance is embedded in
	ContainerID string

	// Options are passed to the library when the instance is created
	Options ports.PlayerOptions

	// PollInterval is the period of position updates while playing
	PollInterval time.Duration

	// BootstrapTimeout is how long to wait for the library before reporting a stall.
	// Zero disables the report.
	BootstrapTimeout time.Duration
}

// DefaultPlayerAdapterConfig returns the default adapter configuration.
func DefaultPlayerAdapterConfig() PlayerAdapterConfig {
	return PlayerAdapterConfig{
		ContainerID:      "moodtune-player",
		Options:          ports.PlayerOptions{Width: 1, Height: 1, AutoPlay: true},
		PollInterval:     time.Second,
		BootstrapTimeout: 15 * time.Second,
	}
}

// PlayerAdapter drives an external player instance from the playback session.
//
// Lifecycle: Uninitialized -> BootstrappingAPI -> Initializing -> Ready, and
// Destroyed from any state. Commands reach the instance only while Ready.
// Session changes seen before Ready are remembered and applied once ready.
//
// All callbacks from the library are checked against the current instance and
// state, so callbacks arriving after Shutdown or from a replaced instance are ignored.
// Events are published after the internal lock is released.
type PlayerAdapter struct {
	// Dependencies (injected)
	logger    *slog.Logger
	library   ports.PlayerLibrary
	bootstrap *APIBootstrap
	bus       ports.EventBus
	source    SessionSource
	cfg       PlayerAdapterConfig

	mu sync.Mutex

	// Lifecycle
	state       domain.LifecycleState
	instance    ports.PlayerInstance
	subID       domain.SubscriptionID
	cancelAwait func()
	stallTimer  *time.Timer

	// Desired and delivered playback
	desired  domain.PlaybackSession
	loadedID string
	asserted bool

	// Display state
	volume   int
	muted    bool
	position float64
	duration float64
	degraded bool
	stalled  bool

	// Position polling
	poll          *poller
	activePollers atomic.Int32

	// outbox holds events to publish once mu is released
	outbox []domain.Event
}

// poller is one position polling goroutine.
type poller struct {
	stop chan struct{}
	done chan struct{}
}

// NewPlayerAdapter creates an adapter in the Uninitialized state.
// source may be nil; when set, Start reads the session that existed before the adapter subscribed.
func NewPlayerAdapter(
	logger *slog.Logger,
	library ports.PlayerLibrary,
	bootstrap *APIBootstrap,
	bus ports.EventBus,
	source SessionSource,
	cfg PlayerAdapterConfig,
) *PlayerAdapter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.ContainerID == "" {
		cfg.ContainerID = DefaultPlayerAdapterConfig().ContainerID
	}

	return &PlayerAdapter{
		logger:    logger.With(slog.String("component", "PlayerAdapter"), slog.String("container", cfg.ContainerID)),
		library:   library,
		bootstrap: bootstrap,
		bus:       bus,
		source:    source,
		cfg:       cfg,
		state:     domain.StateUninitialized,
		volume:    100,
	}
}

// Start subscribes to session changes and begins bootstrapping the player library.
// Calling Start more than once, or after Shutdown, is a no-op.
func (a *PlayerAdapter) Start() {
	a.mu.Lock()
	if a.state != domain.StateUninitialized {
		a.mu.Unlock()
		return
	}
	a.subID = a.bus.Subscribe(domain.EventSessionChanged, a.onSessionChanged)
	if a.source != nil {
		a.desired = a.source.State()
	}
	a.transitionLocked(domain.StateBootstrappingAPI)
	a.unlockAndFlush()

	ready, cancel := a.bootstrap.Await(a.onAPIReady)

	a.mu.Lock()
	if a.state == domain.StateDestroyed {
		a.mu.Unlock()
		cancel()
		return
	}
	a.cancelAwait = cancel
	if a.state == domain.StateBootstrappingAPI {
		if ready {
			a.initializeLocked()
		} else if a.cfg.BootstrapTimeout > 0 {
			a.stallTimer = time.AfterFunc(a.cfg.BootstrapTimeout, a.onBootstrapStall)
		}
	}
	a.unlockAndFlush()
}

// onAPIReady runs when the library finished loading.
func (a *PlayerAdapter) onAPIReady() {
	a.mu.Lock()
	if a.state != domain.StateBootstrappingAPI {
		a.mu.Unlock()
		return
	}
	if a.stallTimer != nil {
		a.stallTimer.Stop()
		a.stallTimer = nil
	}
	a.initializeLocked()
	a.unlockAndFlush()
}

// onBootstrapStall reports that the library did not load in time. Loading is not retried.
func (a *PlayerAdapter) onBootstrapStall() {
	a.mu.Lock()
	if a.state != domain.StateBootstrappingAPI || a.stalled {
		a.mu.Unlock()
		return
	}
	a.stalled = true
	a.logger.Warn("player library did not load", slog.Duration("waited", a.cfg.BootstrapTimeout))
	a.outbox = append(a.outbox, domain.NewBootstrapStalledEvent(a.cfg.BootstrapTimeout))
	a.unlockAndFlush()
}

// initializeLocked creates the player instance.
func (a *PlayerAdapter) initializeLocked() {
	a.stalled = false
	a.transitionLocked(domain.StateInitializing)

	var inst ports.PlayerInstance
	var err error
	ok := a.guardLocked("create", func() {
		inst, err = a.library.NewPlayer(a.cfg.ContainerID, a.cfg.Options, ports.PlayerCallbacks{
			OnReady:       a.onInstanceReady,
			OnStateChange: a.onStateChange,
		})
	})
	if !ok {
		return
	}
	if err != nil {
		a.degradeLocked("create", err)
		return
	}
	a.instance = inst
}

// onInstanceReady runs when the player instance accepts commands.
func (a *PlayerAdapter) onInstanceReady(inst ports.PlayerInstance) {
	a.mu.Lock()
	if a.state != domain.StateInitializing || inst != a.instance || a.degraded {
		a.mu.Unlock()
		return
	}

	a.transitionLocked(domain.StateReady)
	ok := a.guardLocked("ready", func() {
		a.volume = inst.Volume()
		a.muted = inst.IsMuted()
	})
	if ok {
		a.reconcileLocked()
	}
	a.unlockAndFlush()
}

// onStateChange runs on every playback state change of the instance.
func (a *PlayerAdapter) onStateChange(inst ports.PlayerInstance, signal domain.PlayerSignal) {
	a.mu.Lock()
	if a.state != domain.StateReady || inst != a.instance || a.degraded {
		a.mu.Unlock()
		return
	}

	a.logger.Debug("player signal", slog.String("signal", signal.String()))

	switch signal {
	case domain.SignalPlaying:
		if a.guardLocked("duration", func() { a.duration = inst.Duration() }) {
			a.startPollerLocked()
		}
	case domain.SignalPaused:
		a.stopPollerLocked()
	case domain.SignalEnded:
		a.stopPollerLocked()
		a.asserted = false
	}

	if !a.degraded {
		a.outbox = append(a.outbox, domain.NewPlayerSignalEvent(signal))
	}
	a.unlockAndFlush()
}

// onSessionChanged records the desired session and, once ready, delivers it.
func (a *PlayerAdapter) onSessionChanged(event domain.Event) {
	e, ok := event.(domain.SessionChangedEvent)
	if !ok {
		return
	}

	a.mu.Lock()
	if a.state == domain.StateDestroyed {
		a.mu.Unlock()
		return
	}
	a.desired = e.Current.Clone()
	if a.commandableLocked() {
		a.reconcileLocked()
	} else {
		a.logger.Debug("session change deferred", slog.String("state", a.state.String()))
	}
	a.unlockAndFlush()
}

// reconcileLocked issues the commands that bring the instance to the desired session.
// A load auto-plays, so the desired playing state is asserted after every load.
func (a *PlayerAdapter) reconcileLocked() {
	want := a.desired
	inst := a.instance

	a.guardLocked("reconcile", func() {
		switch {
		case want.CurrentItem == nil:
			if a.loadedID != "" {
				inst.Pause()
				a.loadedID = ""
				a.asserted = false
			}
		case want.CurrentItem.ID != a.loadedID:
			inst.LoadItemByID(want.CurrentItem.ID)
			a.loadedID = want.CurrentItem.ID
			a.position = 0
			a.duration = 0
			a.assertLocked(want.IsPlaying)
		case want.IsPlaying != a.asserted:
			a.assertLocked(want.IsPlaying)
		}
	})
}

func (a *PlayerAdapter) assertLocked(playing bool) {
	if playing {
		a.instance.Play()
	} else {
		a.instance.Pause()
	}
	a.asserted = playing
}

// SeekTo moves the playback position. It is ignored unless the player is ready.
func (a *PlayerAdapter) SeekTo(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}

	a.mu.Lock()
	if !a.commandableLocked() {
		a.ignoredLocked("seek")
		a.mu.Unlock()
		return
	}
	inst := a.instance
	a.guardLocked("seek", func() {
		inst.SeekTo(seconds, true)
		a.position = seconds
	})
	a.unlockAndFlush()
}

// SetVolume sets the volume, clamped to 0..100. It is ignored unless the player is ready.
// Volume 0 mutes the player; a positive volume unmutes it.
func (a *PlayerAdapter) SetVolume(volume int) {
	volume = clampVolume(volume)

	a.mu.Lock()
	if !a.commandableLocked() {
		a.ignoredLocked("volume")
		a.mu.Unlock()
		return
	}
	inst := a.instance
	a.guardLocked("volume", func() {
		inst.SetVolume(volume)
		a.volume = volume
		a.outbox = append(a.outbox, domain.NewVolumeChangedEvent(volume))

		switch {
		case volume == 0 && !a.muted:
			inst.Mute()
			a.muted = true
			a.outbox = append(a.outbox, domain.NewMuteToggledEvent(true))
		case volume > 0 && a.muted:
			inst.UnMute()
			a.muted = false
			a.outbox = append(a.outbox, domain.NewMuteToggledEvent(false))
		}
	})
	a.unlockAndFlush()
}

// ToggleMute flips the mute state without touching the volume.
// It is ignored unless the player is ready.
func (a *PlayerAdapter) ToggleMute() {
	a.mu.Lock()
	if !a.commandableLocked() {
		a.ignoredLocked("mute")
		a.mu.Unlock()
		return
	}
	inst := a.instance
	a.guardLocked("mute", func() {
		if a.muted {
			inst.UnMute()
		} else {
			inst.Mute()
		}
		a.muted = !a.muted
		a.outbox = append(a.outbox, domain.NewMuteToggledEvent(a.muted))
	})
	a.unlockAndFlush()
}

// State returns the lifecycle state.
func (a *PlayerAdapter) State() domain.LifecycleState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Snapshot returns the adapter state for display.
func (a *PlayerAdapter) Snapshot() domain.PlayerSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return domain.PlayerSnapshot{
		State:     a.state,
		StateName: a.state.String(),
		Ready:     a.state == domain.StateReady && !a.degraded,
		Degraded:  a.degraded,
		Stalled:   a.stalled,
		Polling:   a.poll != nil,
		Position:  a.position,
		Duration:  a.duration,
		Volume:    a.volume,
		Muted:     a.muted,
	}
}

// Shutdown destroys the instance and releases every resource of the adapter.
// It is safe to call more than once.
func (a *PlayerAdapter) Shutdown() {
	a.mu.Lock()
	if a.state == domain.StateDestroyed {
		a.mu.Unlock()
		return
	}

	p := a.stopPollerLocked()
	if a.stallTimer != nil {
		a.stallTimer.Stop()
		a.stallTimer = nil
	}
	cancel := a.cancelAwait
	a.cancelAwait = nil
	subID := a.subID
	a.subID = ""

	if inst := a.instance; inst != nil {
		a.instance = nil
		a.guardLocked("destroy", inst.Destroy)
	}
	a.transitionLocked(domain.StateDestroyed)
	a.unlockAndFlush()

	if cancel != nil {
		cancel()
	}
	if subID != "" {
		a.bus.Unsubscribe(subID)
	}
	if p != nil {
		<-p.done
	}

	a.logger.Debug("player adapter shut down")
}

// startPollerLocked replaces any running poller with a new one.
func (a *PlayerAdapter) startPollerLocked() {
	a.stopPollerLocked()

	p := &poller{stop: make(chan struct{}), done: make(chan struct{})}
	a.poll = p
	a.activePollers.Add(1)
	go a.runPoller(p)
}

// stopPollerLocked stops the running poller, if any, and returns it.
func (a *PlayerAdapter) stopPollerLocked() *poller {
	p := a.poll
	if p == nil {
		return nil
	}
	close(p.stop)
	a.poll = nil
	return p
}

func (a *PlayerAdapter) runPoller(p *poller) {
	defer close(p.done)
	defer a.activePollers.Add(-1)

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			a.pollTick(p)
		}
	}
}

func (a *PlayerAdapter) pollTick(p *poller) {
	a.mu.Lock()
	if a.poll != p || a.instance == nil {
		a.mu.Unlock()
		return
	}
	inst := a.instance
	a.guardLocked("poll", func() {
		a.position = inst.CurrentTime()
		a.outbox = append(a.outbox, domain.NewTrackProgressEvent(a.position, a.duration))
	})
	a.unlockAndFlush()
}

func (a *PlayerAdapter) commandableLocked() bool {
	return a.state == domain.StateReady && !a.degraded && a.instance != nil
}

func (a *PlayerAdapter) ignoredLocked(op string) {
	a.logger.Debug("command ignored",
		slog.String("op", op),
		slog.String("state", a.state.String()),
		slog.Bool("degraded", a.degraded))
}

// guardLocked runs fn and converts a panic into the degraded state.
func (a *PlayerAdapter) guardLocked(op string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.degradeLocked(op, r)
			ok = false
		}
	}()
	fn()
	return true
}

func (a *PlayerAdapter) degradeLocked(op string, cause any) {
	if a.degraded {
		return
	}
	a.degraded = true
	a.stopPollerLocked()

	reason := fmt.Sprintf("%s: %v", op, cause)
	a.logger.Error("player failed, commands disabled", slog.String("op", op), slog.Any("cause", cause))
	a.outbox = append(a.outbox, domain.NewPlayerDegradedEvent(reason))
}

func (a *PlayerAdapter) transitionLocked(to domain.LifecycleState) {
	from := a.state
	if from == to {
		return
	}
	a.state = to
	a.logger.Debug("lifecycle transition", slog.String("from", from.String()), slog.String("to", to.String()))
	a.outbox = append(a.outbox, domain.NewPlayerLifecycleEvent(from, to))
}

// unlockAndFlush releases mu and publishes the queued events.
func (a *PlayerAdapter) unlockAndFlush() {
	events := a.outbox
	a.outbox = nil
	a.mu.Unlock()

	for _, e := range events {
		a.bus.Publish(e)
	}
}

func clampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
