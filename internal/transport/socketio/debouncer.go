package socketio

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of state and history triggers into one callback
// each, fired once the window elapses without further triggers.
type Debouncer struct {
	window          time.Duration
	stateCallback   func()
	historyCallback func()

	mu             sync.Mutex
	pendingState   bool
	pendingHistory bool
	timer          *time.Timer
	stopped        bool
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration, stateCallback, historyCallback func()) *Debouncer {
	return &Debouncer{
		window:          window,
		stateCallback:   stateCallback,
		historyCallback: historyCallback,
	}
}

// TriggerState schedules a state broadcast.
func (d *Debouncer) TriggerState() {
	d.trigger(func() { d.pendingState = true })
}

// TriggerHistory schedules a history broadcast.
func (d *Debouncer) TriggerHistory() {
	d.trigger(func() { d.pendingHistory = true })
}

func (d *Debouncer) trigger(mark func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	mark()

	// Reset the timer
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires callbacks for any pending flags and resets them.
func (d *Debouncer) flush() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	doState := d.pendingState
	doHistory := d.pendingHistory
	d.pendingState = false
	d.pendingHistory = false
	d.mu.Unlock()

	if doState && d.stateCallback != nil {
		d.stateCallback()
	}
	if doHistory && d.historyCallback != nil {
		d.historyCallback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pendingState = false
	d.pendingHistory = false
}
