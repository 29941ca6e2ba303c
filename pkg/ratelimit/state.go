// Package ratelimit implements per-credential quota windows and the pool that
// hands out API keys while respecting the Hypixel request quota.
//
// Every key is allowed a fixed number of requests per window (120 requests per
// 60 seconds by default). The pool scans its keys in insertion order and hands
// out the first one that still has quota; when every key is spent it waits for
// the earliest window reset instead of polling.
package ratelimit

import (
	"time"
)

// Default quota of a single API key.
const (
	// DefaultWindowSize is the length of one quota window.
	DefaultWindowSize = 60 * time.Second

	// DefaultWindowLimit is the number of requests one key may make per window.
	DefaultWindowLimit = 120

	// DefaultPollInterval bounds a single wait of Pool.Acquire before it rescans,
	// so quota changes reported by the server are picked up while waiting.
	DefaultPollInterval = time.Second
)

// Quota headers sent by the API on every keyed response.
const (
	HeaderLimit     = "RateLimit-Limit"
	HeaderRemaining = "RateLimit-Remaining"
	HeaderReset     = "RateLimit-Reset"
)

// State is a point-in-time snapshot of one credential's window.
type State struct {
	// Credential is the redacted key, safe for logs and metric labels.
	Credential string `json:"credential"`

	// Uses is the number of requests consumed in the current window.
	Uses int `json:"uses"`

	// Limit is the number of requests allowed per window.
	Limit int `json:"limit"`

	// WindowStart is when the current window began.
	WindowStart time.Time `json:"window_start"`

	// ResetAt is when the current window ends.
	ResetAt time.Time `json:"reset_at"`
}

// Remaining returns how many requests are left in the current window.
// An expired window reports the full limit.
func (s State) Remaining() int {
	if s.Expired() {
		return s.Limit
	}
	if s.Uses >= s.Limit {
		return 0
	}
	return s.Limit - s.Uses
}

// Exhausted returns true if the window is live and has no quota left.
func (s State) Exhausted() bool {
	return s.Remaining() == 0
}

// Expired returns true if the window has already ended.
func (s State) Expired() bool {
	return !time.Now().Before(s.ResetAt)
}

// TimeUntilReset returns the duration until the window ends.
// Returns 0 if the reset time has already passed.
func (s State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
