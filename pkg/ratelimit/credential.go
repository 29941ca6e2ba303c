package ratelimit

import (
	"sync"
	"time"
)

// Credential is one API key together with its usage window.
type Credential struct {
	key         string
	windowSize  time.Duration
	windowLimit int
	now         func() time.Time

	mu          sync.Mutex
	windowStart time.Time
	uses        int
}

// NewCredential creates a credential whose window starts now.
func NewCredential(key string, limit int, window time.Duration) *Credential {
	return newCredential(key, limit, window, time.Now)
}

func newCredential(key string, limit int, window time.Duration, now func() time.Time) *Credential {
	return &Credential{
		key:         key,
		windowSize:  window,
		windowLimit: limit,
		now:         now,
		windowStart: now(),
	}
}

// Redacted returns a shortened form of the key for logs and metric labels.
func (c *Credential) Redacted() string {
	return Redact(c.key)
}

// WindowExpired reports whether the current window has run its full length.
func (c *Credential) WindowExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiredLocked(c.now())
}

// CanConsume reports whether a request could be made with this key right now.
// It never mutates the window; use TryConsume to actually spend quota.
func (c *Credential) CanConsume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uses < c.windowLimit || c.expiredLocked(c.now())
}

// TryConsume spends one request of quota and returns the key, or returns
// false if the window is exhausted. A stale window is reset before the check.
func (c *Credential) TryConsume() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.expiredLocked(now) {
		c.windowStart = now
		c.uses = 0
	}

	if c.uses >= c.windowLimit {
		return "", false
	}
	c.uses++
	return c.key, true
}

// refund returns one request of quota taken by TryConsume.
func (c *Credential) refund() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uses > 0 {
		c.uses--
	}
}

// Uses returns the number of requests consumed in the current window.
func (c *Credential) Uses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uses
}

// ResetIn returns the time until the current window ends, 0 if it already has.
func (c *Credential) ResetIn() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.windowSize - c.elapsedLocked(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// State returns a snapshot of the window.
func (c *Credential) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Credential:  Redact(c.key),
		Uses:        c.uses,
		Limit:       c.windowLimit,
		WindowStart: c.windowStart,
		ResetAt:     c.windowStart.Add(c.windowSize),
	}
}

// SyncFromServer aligns the local window with the quota the API reported.
// The server's reset delay replaces the local window timing. Within one
// window the use count never decreases; it is lowered only once the server
// reports a window that starts after the local one ended.
func (c *Credential) SyncFromServer(remaining int, resetIn time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uses := c.windowLimit - remaining
	if uses < 0 {
		uses = 0
	}
	if uses > c.windowLimit {
		uses = c.windowLimit
	}
	if resetIn < 0 {
		resetIn = 0
	}
	if resetIn > c.windowSize {
		resetIn = c.windowSize
	}

	now := c.now()
	serverStart := now.Add(resetIn - c.windowSize)
	newWindow := c.expiredLocked(now) || !serverStart.Before(c.windowStart.Add(c.windowSize))
	if !newWindow && c.uses > uses {
		uses = c.uses
	}

	c.uses = uses
	c.windowStart = serverStart
}

// lowerLimit shrinks the window limit to what the server enforces. A larger
// server limit is ignored.
func (c *Credential) lowerLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > 0 && limit < c.windowLimit {
		c.windowLimit = limit
		if c.uses > limit {
			c.uses = limit
		}
	}
}

// elapsedLocked treats a clock that moved backwards as zero elapsed time.
func (c *Credential) elapsedLocked(now time.Time) time.Duration {
	elapsed := now.Sub(c.windowStart)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (c *Credential) expiredLocked(now time.Time) bool {
	return c.elapsedLocked(now) >= c.windowSize
}

// Redact shortens a key to a form safe for logs and metric labels.
func Redact(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "…"
}
