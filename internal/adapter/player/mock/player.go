package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Operation names recorded by Player and accepted by SetPanicOn.
const (
	OpLoad     = "load"
	OpPlay     = "play"
	OpPause    = "pause"
	OpSeek     = "seek"
	OpSetVol   = "setVolume"
	OpVolume   = "volume"
	OpMute     = "mute"
	OpUnMute   = "unmute"
	OpIsMuted  = "isMuted"
	OpTime     = "currentTime"
	OpDuration = "duration"
	OpDestroy  = "destroy"
)

// DefaultDuration is the length reported for every item in auto-pilot mode.
const DefaultDuration = 180.0

// Command is a single recorded call into a Player.
type Command struct {
	Op     string
	ItemID string
	Value  float64
}

// Player is a mock implementation of the PlayerInstance interface.
// It records every command in order.
type Player struct {
	ContainerID string
	Options     ports.PlayerOptions

	callbacks ports.PlayerCallbacks
	autoPilot bool

	mu        sync.Mutex
	commands  []Command
	itemID    string
	volume    int
	muted     bool
	position  float64
	duration  float64
	playing   bool
	startedAt time.Time
	destroyed bool
	panicOn   map[string]bool

	// auto-pilot callbacks run in order on a single goroutine
	pending []func()
	wake    chan struct{}
	quit    chan struct{}
}

func newPlayer(containerID string, opts ports.PlayerOptions, callbacks ports.PlayerCallbacks, autoPilot bool) *Player {
	p := &Player{
		ContainerID: containerID,
		Options:     opts,
		callbacks:   callbacks,
		autoPilot:   autoPilot,
		volume:      100,
		panicOn:     make(map[string]bool),
	}
	if autoPilot {
		p.wake = make(chan struct{}, 1)
		p.quit = make(chan struct{})
		go p.drain()
	}
	return p
}

// enqueueLocked schedules fn behind every callback queued before it.
// Nothing is queued once the player is destroyed.
func (p *Player) enqueueLocked(fn func()) {
	if p.wake == nil || p.destroyed {
		return
	}
	p.pending = append(p.pending, fn)
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Player) drain() {
	for {
		select {
		case <-p.quit:
			return
		case <-p.wake:
		}
		for {
			p.mu.Lock()
			if len(p.pending) == 0 || p.destroyed {
				p.pending = nil
				p.mu.Unlock()
				break
			}
			fn := p.pending[0]
			p.pending = p.pending[1:]
			p.mu.Unlock()
			fn()
		}
	}
}

func (p *Player) emitLocked(signal domain.PlayerSignal) {
	p.enqueueLocked(func() { p.EmitState(signal) })
}

// readyLater queues the ready callback in auto-pilot mode.
func (p *Player) readyLater() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enqueueLocked(p.Ready)
}

// begin locks the player, panics if op was configured to fail, and records
// cmd when it is non-nil. The caller must unlock.
func (p *Player) begin(op string, cmd *Command) {
	p.mu.Lock()
	if p.panicOn[op] {
		p.mu.Unlock()
		panic(fmt.Sprintf("mock player: %s failed", op))
	}
	if cmd != nil {
		cmd.Op = op
		p.commands = append(p.commands, *cmd)
	}
}

// advanceLocked folds elapsed real time into the position in auto-pilot mode.
func (p *Player) advanceLocked() {
	if !p.autoPilot || !p.playing {
		return
	}
	now := time.Now()
	p.position += now.Sub(p.startedAt).Seconds()
	p.startedAt = now
	if p.duration > 0 && p.position >= p.duration {
		p.position = p.duration
		p.playing = false
		p.emitLocked(domain.SignalEnded)
	}
}

// LoadItemByID loads the item and starts it.
func (p *Player) LoadItemByID(id string) {
	p.begin(OpLoad, &Command{ItemID: id})
	p.itemID = id
	p.position = 0
	if p.autoPilot {
		p.duration = DefaultDuration
		p.playing = true
		p.startedAt = time.Now()
		p.emitLocked(domain.SignalPlaying)
	}
	p.mu.Unlock()
}

// Play resumes playback.
func (p *Player) Play() {
	p.begin(OpPlay, &Command{})
	auto := p.autoPilot && p.itemID != ""
	if auto && !p.playing {
		if p.position >= p.duration {
			p.position = 0
		}
		p.playing = true
		p.startedAt = time.Now()
	}
	if auto {
		p.emitLocked(domain.SignalPlaying)
	}
	p.mu.Unlock()
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.begin(OpPause, &Command{})
	p.advanceLocked()
	p.playing = false
	if p.autoPilot && p.itemID != "" {
		p.emitLocked(domain.SignalPaused)
	}
	p.mu.Unlock()
}

// SeekTo moves the position.
func (p *Player) SeekTo(seconds float64, allowSeekAhead bool) {
	p.begin(OpSeek, &Command{Value: seconds})
	defer p.mu.Unlock()
	p.advanceLocked()
	p.position = seconds
}

// SetVolume sets the volume.
func (p *Player) SetVolume(volume int) {
	p.begin(OpSetVol, &Command{Value: float64(volume)})
	defer p.mu.Unlock()
	p.volume = volume
}

// Volume returns the volume.
func (p *Player) Volume() int {
	p.begin(OpVolume, nil)
	defer p.mu.Unlock()
	return p.volume
}

// Mute mutes the player.
func (p *Player) Mute() {
	p.begin(OpMute, &Command{})
	defer p.mu.Unlock()
	p.muted = true
}

// UnMute unmutes the player.
func (p *Player) UnMute() {
	p.begin(OpUnMute, &Command{})
	defer p.mu.Unlock()
	p.muted = false
}

// IsMuted reports whether the player is muted.
func (p *Player) IsMuted() bool {
	p.begin(OpIsMuted, nil)
	defer p.mu.Unlock()
	return p.muted
}

// CurrentTime returns the position in seconds.
func (p *Player) CurrentTime() float64 {
	p.begin(OpTime, nil)
	defer p.mu.Unlock()
	p.advanceLocked()
	return p.position
}

// Duration returns the item length in seconds.
func (p *Player) Duration() float64 {
	p.begin(OpDuration, nil)
	defer p.mu.Unlock()
	return p.duration
}

// Destroy releases the player.
func (p *Player) Destroy() {
	p.begin(OpDestroy, &Command{})
	defer p.mu.Unlock()
	if !p.destroyed && p.quit != nil {
		close(p.quit)
	}
	p.destroyed = true
	p.playing = false
	p.pending = nil
}

// Ready fires the ready callback, as the real player does once it is embedded.
func (p *Player) Ready() {
	if p.callbacks.OnReady != nil {
		p.callbacks.OnReady(p)
	}
}

// EmitState fires the state-change callback with signal.
func (p *Player) EmitState(signal domain.PlayerSignal) {
	if p.callbacks.OnStateChange != nil {
		p.callbacks.OnStateChange(p, signal)
	}
}

// SetPosition sets the value returned by CurrentTime.
func (p *Player) SetPosition(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = seconds
}

// SetDuration sets the value returned by Duration.
func (p *Player) SetDuration(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duration = seconds
}

// SetMuted sets the mute state without recording a command.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

// SetInitialVolume sets the volume without recording a command.
func (p *Player) SetInitialVolume(volume int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
}

// SetPanicOn makes the operation op panic until cleared.
func (p *Player) SetPanicOn(op string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panicOn[op] = on
}

// Commands returns a copy of the recorded commands.
func (p *Player) Commands() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// Ops returns the recorded operation names in order.
func (p *Player) Ops() []string {
	cmds := p.Commands()
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op
	}
	return out
}

// ClearCommands forgets the recorded commands.
func (p *Player) ClearCommands() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = nil
}

// ItemID returns the loaded item.
func (p *Player) ItemID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.itemID
}

// Destroyed reports whether Destroy was called.
func (p *Player) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// Verify that Player implements the PlayerInstance interface
var _ ports.PlayerInstance = (*Player)(nil)
