package lifecycle

import (
	"context"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is the single user-visible message for a terminal outcome.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Action  string `json:"action"`
	Kind    string `json:"kind"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Notifiers fans a notification out to every non-nil notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, n Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(ctx, n)
		}
	}
}

// Collector records notifications in order.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()
}

func (c *Collector) All() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collector) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
