package presentation

import (
	"sync"
	"time"
)

const DefaultInterval = 4000 * time.Millisecond

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type systemClock struct{}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop() { s.t.Stop() }

func (systemClock) NewTicker(d time.Duration) Ticker { return systemTicker{t: time.NewTicker(d)} }

func SystemClock() Clock { return systemClock{} }

// Carousel rotates through count slides. It auto-advances only when there is
// more than one slide and the pointer is not over it. Manual navigation moves
// the index without rescheduling the next tick.
type Carousel struct {
	mu       sync.Mutex
	count    int
	index    int
	interval time.Duration
	clock    Clock
	hovered  bool
	running  bool
	ticker   Ticker
	done     chan struct{}
	onChange func(index int)
}

type CarouselOption func(*Carousel)

func WithInterval(d time.Duration) CarouselOption {
	return func(c *Carousel) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithClock(clock Clock) CarouselOption {
	return func(c *Carousel) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// OnChange is called after every index change, outside the lock.
func OnChange(fn func(index int)) CarouselOption {
	return func(c *Carousel) { c.onChange = fn }
}

func NewCarousel(count int, opts ...CarouselOption) *Carousel {
	if count < 0 {
		count = 0
	}
	c := &Carousel{count: count, interval: DefaultInterval, clock: SystemClock()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Carousel) Count() int { return c.count }

func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Controls reports whether navigation arrows and dots are shown.
func (c *Carousel) Controls() bool { return c.count > 1 }

// Scheduled reports whether an auto-advance timer is registered.
func (c *Carousel) Scheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker != nil
}

// Start begins auto-advancing. It is a no-op for zero or one slide.
func (c *Carousel) Start() {
	c.mu.Lock()
	c.running = true
	c.arm()
	c.mu.Unlock()
}

// Stop cancels the timer for good, as when the carousel is unmounted.
func (c *Carousel) Stop() {
	c.mu.Lock()
	c.running = false
	c.disarm()
	c.mu.Unlock()
}

// Hover pauses auto-advance while the pointer is over the carousel. Leaving
// starts a fresh interval.
func (c *Carousel) Hover(over bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hovered == over {
		return
	}
	c.hovered = over
	if over {
		c.disarm()
	} else {
		c.arm()
	}
}

func (c *Carousel) Next() { c.move(func(i int) int { return (i + 1) % c.count }) }

func (c *Carousel) Prev() { c.move(func(i int) int { return (i - 1 + c.count) % c.count }) }

// GoTo jumps to slide i. Out-of-range indexes are ignored.
func (c *Carousel) GoTo(i int) {
	if i < 0 || i >= c.count {
		return
	}
	c.move(func(int) int { return i })
}

func (c *Carousel) move(next func(int) int) {
	if c.count == 0 {
		return
	}
	c.mu.Lock()
	c.index = next(c.index)
	idx := c.index
	c.mu.Unlock()
	if c.onChange != nil {
		c.onChange(idx)
	}
}

// arm must be called with c.mu held.
func (c *Carousel) arm() {
	if !c.running || c.hovered || c.count <= 1 || c.ticker != nil {
		return
	}
	t := c.clock.NewTicker(c.interval)
	done := make(chan struct{})
	c.ticker, c.done = t, done
	go c.loop(t, done)
}

// disarm must be called with c.mu held.
func (c *Carousel) disarm() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.done)
	c.ticker, c.done = nil, nil
}

func (c *Carousel) loop(t Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-t.C():
			select {
			case <-done:
				return
			default:
			}
			c.Next()
		}
	}
}

// CarouselView is what a template needs to render the carousel and let the
// page script drive it.
type CarouselView struct {
	Count      int   `json:"count"`
	Controls   bool  `json:"controls"`
	Autoplay   bool  `json:"autoplay"`
	IntervalMS int64 `json:"interval_ms"`
}

func (c *Carousel) View() CarouselView {
	return CarouselView{
		Count:      c.count,
		Controls:   c.Controls(),
		Autoplay:   c.count > 1,
		IntervalMS: c.interval.Milliseconds(),
	}
}
