package session

import (
	"sync"
	"time"
)

// TickFunc performs one tick and returns the delay until the next one.
type TickFunc func() time.Duration

// Driver fires a TickFunc on a self-rescheduling timer. The delay is read
// from each tick's return value, so a changed interval applies from the
// next firing on.
type Driver struct {
	tick    TickFunc
	initial time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewDriver creates a stopped driver whose first tick fires after initial.
func NewDriver(initial time.Duration, tick TickFunc) *Driver {
	return &Driver{
		tick:    tick,
		initial: initial,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the timer goroutine. Later calls do nothing.
func (d *Driver) Start() {
	d.startOnce.Do(func() {
		go d.run()
	})
}

// Stop halts the driver and waits for an in-flight tick to finish. It is
// safe to call more than once and on a driver that was never started.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	started := true
	d.startOnce.Do(func() {
		started = false
		close(d.done)
	})
	if started {
		<-d.done
	}
}

func (d *Driver) run() {
	defer close(d.done)

	timer := time.NewTimer(d.initial)
	defer timer.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-timer.C:
		}

		// A stop that raced the timer wins.
		select {
		case <-d.stop:
			return
		default:
		}

		next := d.tick()
		if next <= 0 {
			next = d.initial
		}
		timer.Reset(next)
	}
}
