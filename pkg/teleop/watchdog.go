package teleop

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Watchdog is a re-armable one-shot timer. Arm restarts the countdown;
// fire runs on its own goroutine once the timeout passes without a
// further Arm. A superseded timer never fires.
type Watchdog struct {
	timeout time.Duration
	fire    func()

	mu      deadlock.Mutex // to synchronize access to the fields below
	timer   *time.Timer
	gen     uint64
	armed   bool
	stopped bool
}

// NewWatchdog creates an idle watchdog.
func NewWatchdog(timeout time.Duration, fire func()) *Watchdog {
	return &Watchdog{timeout: timeout, fire: fire}
}

// Arm cancels any pending countdown and starts a new one.
func (w *Watchdog) Arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.armed = true
	w.timer = time.AfterFunc(w.timeout, func() { w.expire(gen) })
}

func (w *Watchdog) expire(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || w.stopped {
		// re-armed or cancelled after the runtime already scheduled us
		w.mu.Unlock()
		return
	}
	w.armed = false
	w.timer = nil
	w.mu.Unlock()

	w.fire()
}

// Cancel stops the pending countdown without firing. It returns false if
// nothing was armed.
func (w *Watchdog) Cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancelLocked()
}

func (w *Watchdog) cancelLocked() bool {
	if !w.armed {
		return false
	}
	w.timer.Stop()
	w.timer = nil
	w.gen++
	w.armed = false
	return true
}

// Stop cancels the countdown and ignores every later Arm.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
	w.stopped = true
}

// Armed reports whether a countdown is pending.
func (w *Watchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}
