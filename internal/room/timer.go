package room

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// StartTimer starts the shared round timer. While running it increments the
// elapsed seconds once per second and invokes onTick after each increment so
// the caller can broadcast a fresh snapshot. Starting an already running
// timer is a no-op, so two start events never produce a doubled tick stream.
func (r *Room) StartTimer(onTick func()) {
	r.mu.Lock()
	if r.Timer.cancel != nil {
		r.mu.Unlock()
		return
	}
	cancel := make(chan struct{})
	ticker := r.clock.NewTicker(time.Second)
	r.Timer.cancel = cancel
	r.Timer.ticker = ticker
	r.Timer.Running = true
	r.touchLocked()
	r.mu.Unlock()

	go r.runTicker(ticker, cancel, onTick)
}

// StopTimer halts the timer, cancelling the tick goroutine so abandoned rooms
// never accumulate background work. The elapsed seconds are kept; only a
// round reset zeroes them.
func (r *Room) StopTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTimerLocked()
	r.touchLocked()
}

// stopTimerLocked stops the ticker synchronously so no further tick can fire
// once the caller releases the room lock.
func (r *Room) stopTimerLocked() {
	r.Timer.Running = false
	if r.Timer.cancel != nil {
		close(r.Timer.cancel)
		r.Timer.ticker.Stop()
		r.Timer.cancel = nil
		r.Timer.ticker = nil
	}
}

func (r *Room) runTicker(ticker clockwork.Ticker, cancel <-chan struct{}, onTick func()) {
	for {
		select {
		case <-cancel:
			return
		case <-ticker.Chan():
			r.mu.Lock()
			if !r.Timer.Running {
				// A stop raced the final tick; drop it.
				r.mu.Unlock()
				return
			}
			r.Timer.Seconds++
			r.touchLocked()
			r.mu.Unlock()

			if onTick != nil {
				onTick()
			}
		}
	}
}
