// Package carousel implements a cyclic pane index with optional
// auto-advance.
package carousel

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the auto-advance cadence.
const DefaultInterval = 5 * time.Second

// Carousel cycles an index over a fixed number of panes. Manual moves take
// effect at once and do not reset the auto-advance cadence.
type Carousel struct {
	mu       sync.Mutex
	panes    int
	index    int
	autoplay bool
	interval time.Duration
	ticker   TickerFunc

	changes chan int
	cancel  context.CancelFunc
	done    chan struct{}
}

// TickerFunc starts a ticker firing every d and returns its channel and a
// stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Config holds carousel configuration
type Config struct {
	Panes    int
	Autoplay bool
	Interval time.Duration
	// Ticker drives auto-advance; nil means time.NewTicker.
	Ticker TickerFunc
}

func New(cfg Config) *Carousel {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Panes < 0 {
		cfg.Panes = 0
	}
	if cfg.Ticker == nil {
		cfg.Ticker = systemTicker
	}
	return &Carousel{
		panes:    cfg.Panes,
		autoplay: cfg.Autoplay,
		interval: cfg.Interval,
		ticker:   cfg.Ticker,
		changes:  make(chan int, 1),
	}
}

// Index returns the current pane.
func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Panes returns the pane count.
func (c *Carousel) Panes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panes
}

// Next moves forward, wrapping to 0 after the last pane.
func (c *Carousel) Next() int { return c.move(1) }

// Prev moves back, wrapping to the last pane from 0.
func (c *Carousel) Prev() int { return c.move(-1) }

// Jump moves to pane i modulo the pane count.
func (c *Carousel) Jump(i int) int {
	c.mu.Lock()
	if c.panes == 0 {
		c.mu.Unlock()
		return 0
	}
	c.index = mod(i, c.panes)
	idx := c.index
	c.mu.Unlock()
	c.notify(idx)
	return idx
}

func (c *Carousel) move(delta int) int {
	c.mu.Lock()
	if c.panes == 0 {
		c.mu.Unlock()
		return 0
	}
	c.index = mod(c.index+delta, c.panes)
	idx := c.index
	c.mu.Unlock()
	c.notify(idx)
	return idx
}

// notify delivers the latest index, replacing one the reader has not
// consumed yet.
func (c *Carousel) notify(idx int) {
	for {
		select {
		case c.changes <- idx:
			return
		default:
		}
		select {
		case <-c.changes:
		default:
		}
	}
}

// Changes emits the index after every move. Only the latest value is kept.
func (c *Carousel) Changes() <-chan int { return c.changes }

// Running reports whether the auto-advance ticker is active.
func (c *Carousel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Start launches auto-advance. It does nothing when autoplay is off, when
// there is at most one pane, or when already running. The ticker stops when
// ctx is done or Stop is called.
func (c *Carousel) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.autoplay || c.panes <= 1 || c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	ticks, stop := c.ticker(c.interval)
	go c.run(ctx, ticks, stop, c.done)
}

// run advances once per tick. Manual moves never touch the ticker, so they
// shift the position but not the cadence.
func (c *Carousel) run(ctx context.Context, ticks <-chan time.Time, stop func(), done chan struct{}) {
	defer close(done)
	defer stop()
	for {
		select {
		case <-ticks:
			c.Next()
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels auto-advance and waits for the ticker goroutine to exit.
// Safe to call more than once.
func (c *Carousel) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SetPanes changes the pane count, keeping the index in range. Going to one
// pane or fewer stops auto-advance.
func (c *Carousel) SetPanes(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.panes = n
	if n == 0 {
		c.index = 0
	} else {
		c.index = mod(c.index, n)
	}
	c.mu.Unlock()
	if n <= 1 {
		c.Stop()
	}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
