package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Hooks are the callbacks a Countdown invokes. Both are optional.
// They run on the tick goroutine (or the caller of Tick) without the countdown lock held,
// so they may call back into the Countdown or take other locks.
type Hooks struct {
	// OnTick receives the remaining count before it is decremented.
	OnTick func(remaining int64)
	// OnComplete runs exactly once, after the tick that brings the count to zero.
	OnComplete func()
}

// Countdown is a pausable, cancellable periodic countdown. Once cancelled or completed it is
// inert; a new Countdown must be built for a new run.
type Countdown struct {
	clock    clockwork.Clock
	interval time.Duration
	hooks    Hooks

	mu        sync.Mutex
	remaining int64
	paused    bool
	done      bool
	started   bool
	stop      chan struct{}
}

// New creates a Countdown that will tick every interval, starting from ticks.
func New(clock clockwork.Clock, interval time.Duration, ticks int64, hooks Hooks) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{
		clock:     clock,
		interval:  interval,
		hooks:     hooks,
		remaining: ticks,
		done:      ticks <= 0,
		stop:      make(chan struct{}),
	}
}

// Start launches the tick loop. Calling it more than once, or on an inert countdown, does nothing.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.started || c.done {
		c.mu.Unlock()
		return
	}
	c.started = true
	ticker := c.clock.NewTicker(c.interval)
	c.mu.Unlock()

	go c.run(ticker)
}

func (c *Countdown) run(ticker clockwork.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.Chan():
			if finished := c.Tick(); finished {
				return
			}
		}
	}
}

// Tick advances the countdown by one step. It returns true once the countdown is inert.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return true
	}
	if c.paused {
		c.mu.Unlock()
		return false
	}
	current := c.remaining
	c.remaining--
	completed := c.remaining <= 0
	if completed {
		c.finishLocked()
	}
	c.mu.Unlock()

	if c.hooks.OnTick != nil {
		c.hooks.OnTick(current)
	}
	if completed && c.hooks.OnComplete != nil {
		c.hooks.OnComplete()
	}
	return completed
}

// Cancel stops the countdown. It is idempotent and never invokes OnComplete.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.finishLocked()
}

func (c *Countdown) finishLocked() {
	c.done = true
	close(c.stop)
}

// SetPaused toggles the pause flag without touching the remaining count.
// It returns whether the flag changed.
func (c *Countdown) SetPaused(paused bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || c.paused == paused {
		return false
	}
	c.paused = paused
	return true
}

func (c *Countdown) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Countdown) Remaining() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Done reports whether the countdown was cancelled or ran to completion.
func (c *Countdown) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
