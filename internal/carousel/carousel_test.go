package carousel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualTicker hands out one channel the test fires by hand and records how
// it was started.
type manualTicker struct {
	mu       sync.Mutex
	ch       chan time.Time
	starts   int
	interval time.Duration
	stopped  bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) start(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	m.interval = d
	return m.ch, func() {
		m.mu.Lock()
		m.stopped = true
		m.mu.Unlock()
	}
}

func (m *manualTicker) stats() (starts int, interval time.Duration, stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.interval, m.stopped
}

// tick fires once and waits for the carousel to publish the new index.
func tick(t *testing.T, m *manualTicker, c *Carousel) int {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(time.Second):
		require.FailNow(t, "carousel is not consuming ticks")
	}
	select {
	case idx := <-c.Changes():
		return idx
	case <-time.After(time.Second):
		require.FailNow(t, "tick did not advance the carousel")
	}
	return -1
}

func TestNextWrapsModuloPanes(t *testing.T) {
	for _, k := range []int{1, 2, 3, 5} {
		c := New(Config{Panes: k})
		for n := 1; n <= 12; n++ {
			c.Next()
			assert.Equal(t, n%k, c.Index(), "k=%d n=%d", k, n)
		}
	}
}

func TestPrevFromZeroWraps(t *testing.T) {
	c := New(Config{Panes: 4})
	assert.Equal(t, 3, c.Prev())
	assert.Equal(t, 2, c.Prev())
}

func TestJump(t *testing.T) {
	c := New(Config{Panes: 3})
	assert.Equal(t, 2, c.Jump(2))
	assert.Equal(t, 1, c.Jump(4))
	assert.Equal(t, 2, c.Jump(-1))
}

func TestZeroPanesIsNoop(t *testing.T) {
	c := New(Config{Panes: 0, Autoplay: true})
	assert.Equal(t, 0, c.Next())
	assert.Equal(t, 0, c.Prev())
	assert.Equal(t, 0, c.Jump(5))
	c.Start(context.Background())
	assert.False(t, c.Running())
}

func TestChangesKeepsLatest(t *testing.T) {
	c := New(Config{Panes: 5})
	c.Next()
	c.Next()
	c.Next()
	select {
	case idx := <-c.Changes():
		assert.Equal(t, 3, idx)
	default:
		require.FailNow(t, "expected a pending change")
	}
}

func TestStartRequiresAutoplayAndPanes(t *testing.T) {
	single := New(Config{Panes: 1, Autoplay: true, Interval: time.Millisecond})
	single.Start(context.Background())
	assert.False(t, single.Running())

	off := New(Config{Panes: 3, Autoplay: false, Interval: time.Millisecond})
	off.Start(context.Background())
	assert.False(t, off.Running())
}

func TestAutoAdvanceAndStop(t *testing.T) {
	c := New(Config{Panes: 3, Autoplay: true, Interval: 10 * time.Millisecond})
	c.Start(context.Background())
	require.True(t, c.Running())

	select {
	case <-c.Changes():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "carousel did not advance")
	}

	c.Stop()
	assert.False(t, c.Running())
	stopped := c.Index()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, c.Index())

	c.Stop()
}

func TestContextCancelStopsTicker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(Config{Panes: 2, Autoplay: true, Interval: 5 * time.Millisecond})
	c.Start(ctx)
	cancel()
	c.Stop()
	idx := c.Index()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, idx, c.Index())
}

func TestSetPanesClampsAndStops(t *testing.T) {
	c := New(Config{Panes: 4, Autoplay: true, Interval: time.Hour})
	c.Jump(3)
	c.Start(context.Background())
	c.SetPanes(2)
	assert.Equal(t, 1, c.Index())
	assert.True(t, c.Running())
	c.SetPanes(1)
	assert.False(t, c.Running())
	assert.Equal(t, 0, c.Index())
}

func TestAutoAdvanceIndexIsTicksModPanes(t *testing.T) {
	for _, k := range []int{2, 3, 4} {
		ticker := newManualTicker()
		c := New(Config{Panes: k, Autoplay: true, Interval: 5 * time.Second, Ticker: ticker.start})
		c.Start(context.Background())

		for n := 1; n <= 2*k+1; n++ {
			assert.Equal(t, n%k, tick(t, ticker, c), "k=%d n=%d", k, n)
		}
		c.Stop()
	}
}

func TestManualMovesKeepCadence(t *testing.T) {
	ticker := newManualTicker()
	c := New(Config{Panes: 3, Autoplay: true, Interval: 5 * time.Second, Ticker: ticker.start})
	c.Start(context.Background())

	assert.Equal(t, 1, tick(t, ticker, c))

	// Manual moves apply immediately.
	assert.Equal(t, 0, c.Prev())
	assert.Equal(t, 0, <-c.Changes())
	assert.Equal(t, 2, c.Jump(2))
	assert.Equal(t, 2, <-c.Changes())

	// The next tick continues from the manual position on the same ticker.
	assert.Equal(t, 0, tick(t, ticker, c))
	assert.Equal(t, 1, c.Next())
	<-c.Changes()
	assert.Equal(t, 2, tick(t, ticker, c))

	starts, interval, stopped := ticker.stats()
	assert.Equal(t, 1, starts, "manual moves must not restart the ticker")
	assert.Equal(t, 5*time.Second, interval)
	assert.False(t, stopped)

	c.Stop()
	_, _, stopped = ticker.stats()
	assert.True(t, stopped)
}
