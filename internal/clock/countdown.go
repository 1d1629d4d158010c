package clock

import (
	"sync"
	"time"
)

// Countdown counts whole seconds down from a budget and calls onTick with
// the remaining seconds after each one. It stops by itself at zero.
type Countdown struct {
	sched  Scheduler
	onTick func(remaining int)

	mu        sync.Mutex
	gen       uint64
	remaining int
	stop      func()
}

func NewCountdown(sched Scheduler, onTick func(remaining int)) *Countdown {
	return &Countdown{sched: sched, onTick: onTick}
}

// Start (re)starts the countdown at budget seconds. A previous run is
// cancelled and its pending callbacks are ignored.
func (c *Countdown) Start(budget int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.gen++
	c.remaining = budget
	if budget <= 0 {
		return
	}
	gen := c.gen
	c.stop = c.sched.Every(time.Second, func() { c.tick(gen) })
}

// Cancel stops the countdown. It is safe to call at any time, repeatedly.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
}

// Running reports whether seconds are still being counted.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.stop == nil {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if remaining <= 0 {
		c.stopLocked()
	}
	c.mu.Unlock()

	// onTick may call back into Cancel or Start.
	c.onTick(remaining)
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}
