// Package notify holds the transient toast queue shown to the user. It is
// independent of every other piece of client state.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification for presentation.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is one toast.
type Notification struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Center is a bounded FIFO of notifications. Queued entries wait until a
// surface drains them and never expire unseen; when full, the oldest entry
// is dropped. Drained entries stay visible through Active for the
// configured TTL.
type Center struct {
	mu     sync.Mutex
	ttl    time.Duration
	max    int
	queued []Notification
	shown  []shownEntry
	now    func() time.Time
}

type shownEntry struct {
	n  Notification
	at time.Time
}

// NewCenter creates a Center. A zero ttl forgets entries once drained.
func NewCenter(ttl time.Duration, max int) *Center {
	if max <= 0 {
		max = 20
	}
	return &Center{ttl: ttl, max: max, now: time.Now}
}

// Push enqueues a message at the given level.
func (c *Center) Push(level Level, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: c.now(),
	}
	if len(c.queued) >= c.max {
		c.queued = c.queued[len(c.queued)-c.max+1:]
	}
	c.queued = append(c.queued, n)
	return n
}

func (c *Center) Info(message string) Notification    { return c.Push(LevelInfo, message) }
func (c *Center) Success(message string) Notification { return c.Push(LevelSuccess, message) }
func (c *Center) Error(message string) Notification   { return c.Push(LevelError, message) }

// Drain returns every queued notification, oldest first, and empties the
// queue.
func (c *Center) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queued
	c.queued = nil
	if c.ttl > 0 {
		at := c.now()
		for _, n := range out {
			c.shown = append(c.shown, shownEntry{n: n, at: at})
		}
		if len(c.shown) > c.max {
			c.shown = c.shown[len(c.shown)-c.max:]
		}
	}
	return out
}

// Active returns the notifications shown within the TTL followed by the
// ones still queued.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()
	out := make([]Notification, 0, len(c.shown)+len(c.queued))
	for _, e := range c.shown {
		out = append(out, e.n)
	}
	return append(out, c.queued...)
}

func (c *Center) prune() {
	cutoff := c.now().Add(-c.ttl)
	i := 0
	for i < len(c.shown) && !c.shown[i].at.After(cutoff) {
		i++
	}
	c.shown = c.shown[i:]
}
