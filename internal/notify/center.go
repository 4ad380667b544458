package notify

import (
	"context"
	"sync"
	"time"
)

// maxPerSession bounds memory for a session that never reads its notices.
const maxPerSession = 20

// Center keeps the active notices of every session in memory.
// Each notice is removed by its own timer once its duration elapses, and
// Active additionally filters by the clock so a late timer is never visible.
type Center struct {
	mu       sync.Mutex
	sessions map[string][]Notice
	timers   map[string]*time.Timer
	now      func() time.Time
	closed   bool
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CenterOption {
	return func(c *Center) { c.now = now }
}

// NewCenter creates an empty notice center.
func NewCenter(opts ...CenterOption) *Center {
	c := &Center{
		sessions: make(map[string][]Notice),
		timers:   make(map[string]*time.Timer),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify stores n for the session, newest first, and schedules its removal.
func (c *Center) Notify(_ context.Context, sessionID string, n Notice) error {
	n = n.normalize(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	list := append([]Notice{n}, c.sessions[sessionID]...)
	if len(list) > maxPerSession {
		for _, dropped := range list[maxPerSession:] {
			c.stopTimer(dropped.ID)
		}
		list = list[:maxPerSession]
	}
	c.sessions[sessionID] = list

	id := n.ID
	c.stopTimer(id)
	c.timers[id] = time.AfterFunc(n.Duration, func() {
		c.remove(sessionID, id)
	})
	return nil
}

// Active returns the session's unexpired notices, newest first.
func (c *Center) Active(sessionID string) []Notice {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Notice
	for _, n := range c.sessions[sessionID] {
		if now.Before(n.ExpiresAt()) {
			out = append(out, n)
		}
	}
	return out
}

// Dismiss removes a notice before its duration elapses.
func (c *Center) Dismiss(sessionID, id string) {
	c.remove(sessionID, id)
}

func (c *Center) remove(sessionID, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.sessions[sessionID]
	for i, n := range list {
		if n.ID == id {
			c.stopTimer(id)
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.sessions, sessionID)
		return
	}
	c.sessions[sessionID] = list
}

// stopTimer must be called with c.mu held.
func (c *Center) stopTimer(id string) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}

// Close stops all pending removal timers and drops every notice.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.timers {
		c.stopTimer(id)
	}
	c.sessions = make(map[string][]Notice)
	c.closed = true
}
