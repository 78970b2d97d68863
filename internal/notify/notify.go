// Package notify is the transient success/error/info message surface.
//
// One Center exists per process and is rendered once by the root layout.
// Each browser publishes through its own Channel.
package notify

import (
	"sync"
	"time"

	"finspark-backoffice/internal/observability/metrics"

	"github.com/google/uuid"
)

// Level is the kind of notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelLoading Level = "loading"
)

const (
	// DefaultDuration is how long a notification stays visible
	DefaultDuration = 4 * time.Second
	// ErrorDuration keeps errors on screen slightly longer
	ErrorDuration = 5 * time.Second
	// maxQueued bounds the per-browser backlog
	maxQueued = 20
)

// DurationFor returns the visible duration for a level. Zero means
// the notification stays until it is replaced.
func DurationFor(level Level) time.Duration {
	switch level {
	case LevelError:
		return ErrorDuration
	case LevelLoading:
		return 0
	default:
		return DefaultDuration
	}
}

// Notification is one transient message
type Notification struct {
	ID        string
	Audience  string
	Level     Level
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// Sticky reports whether the notification waits to be replaced
func (n Notification) Sticky() bool {
	return n.Duration == 0
}

// Expired reports whether the notification is past its visible window
func (n Notification) Expired(now time.Time) bool {
	return !n.Sticky() && now.After(n.CreatedAt.Add(n.Duration))
}

// Remaining returns how long the notification should still be shown
func (n Notification) Remaining(now time.Time) time.Duration {
	if n.Sticky() {
		return 0
	}
	left := n.CreatedAt.Add(n.Duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Center holds pending notifications for every browser
type Center struct {
	mu      sync.Mutex
	queues  map[string][]Notification
	subs    map[int]func(Notification)
	nextSub int
	now     func() time.Time
}

// NewCenter creates the notification center
func NewCenter() *Center {
	return &Center{
		queues: make(map[string][]Notification),
		subs:   make(map[int]func(Notification)),
		now:    time.Now,
	}
}

// Channel returns the publishing surface for one browser
func (c *Center) Channel(audience string) *Channel {
	return &Channel{center: c, audience: audience}
}

// Publish queues a notification. A notification with an ID already
// queued for the same audience replaces it in place.
func (c *Center) Publish(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = c.now()
	}

	c.mu.Lock()
	queue := c.queues[n.Audience]
	replaced := false
	for i := range queue {
		if queue[i].ID == n.ID {
			queue[i] = n
			replaced = true
			break
		}
	}
	if !replaced {
		queue = append(queue, n)
		if len(queue) > maxQueued {
			queue = queue[len(queue)-maxQueued:]
		}
	}
	c.queues[n.Audience] = queue

	subs := make([]func(Notification), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	metrics.ObserveNotification(string(n.Level))
	for _, fn := range subs {
		fn(n)
	}
	return n
}

// Subscribe registers an observer for every published notification
func (c *Center) Subscribe(fn func(Notification)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Drain hands the visible notifications to the renderer. Delivered
// notifications leave the queue; sticky ones stay until replaced.
func (c *Center) Drain(audience string) []Notification {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.queues[audience]
	if len(queue) == 0 {
		return nil
	}

	visible := make([]Notification, 0, len(queue))
	kept := queue[:0]
	for _, n := range queue {
		if n.Expired(now) {
			continue
		}
		visible = append(visible, n)
		if n.Sticky() {
			kept = append(kept, n)
		}
	}

	if len(kept) == 0 {
		delete(c.queues, audience)
	} else {
		c.queues[audience] = kept
	}
	return visible
}

// Pending returns queued notifications without delivering them
func (c *Center) Pending(audience string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.queues[audience]))
	copy(out, c.queues[audience])
	return out
}

// Forget drops everything queued for a browser
func (c *Center) Forget(audience string) {
	c.mu.Lock()
	delete(c.queues, audience)
	c.mu.Unlock()
}

// Sweep removes expired notifications for every browser
func (c *Center) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()

	for audience, queue := range c.queues {
		kept := queue[:0]
		for _, n := range queue {
			if n.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			delete(c.queues, audience)
		} else {
			c.queues[audience] = kept
		}
	}
	return removed
}
