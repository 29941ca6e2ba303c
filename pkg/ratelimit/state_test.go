package ratelimit

import (
	"testing"
	"time"
)

func TestState_Remaining(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected int
	}{
		{
			name: "fresh window",
			state: State{
				Uses:    0,
				Limit:   120,
				ResetAt: time.Now().Add(time.Minute),
			},
			expected: 120,
		},
		{
			name: "partially used",
			state: State{
				Uses:    100,
				Limit:   120,
				ResetAt: time.Now().Add(time.Minute),
			},
			expected: 20,
		},
		{
			name: "exhausted",
			state: State{
				Uses:    120,
				Limit:   120,
				ResetAt: time.Now().Add(time.Minute),
			},
			expected: 0,
		},
		{
			name: "expired window reports full limit",
			state: State{
				Uses:    120,
				Limit:   120,
				ResetAt: time.Now().Add(-time.Second),
			},
			expected: 120,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Remaining(); got != tt.expected {
				t.Errorf("Remaining() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestState_Exhausted(t *testing.T) {
	tests := []struct {
		name     string
		uses     int
		resetIn  time.Duration
		expected bool
	}{
		{
			name:     "below limit",
			uses:     5,
			resetIn:  time.Minute,
			expected: false,
		},
		{
			name:     "at limit",
			uses:     10,
			resetIn:  time.Minute,
			expected: true,
		},
		{
			name:     "at limit but expired",
			uses:     10,
			resetIn:  -time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{
				Uses:    tt.uses,
				Limit:   10,
				ResetAt: time.Now().Add(tt.resetIn),
			}
			if got := state.Exhausted(); got != tt.expected {
				t.Errorf("Exhausted() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	tests := []struct {
		name      string
		resetAt   time.Time
		expectMin time.Duration
		expectMax time.Duration
	}{
		{
			name:      "reset in future",
			resetAt:   time.Now().Add(30 * time.Second),
			expectMin: 29 * time.Second,
			expectMax: 31 * time.Second,
		},
		{
			name:      "reset in past",
			resetAt:   time.Now().Add(-10 * time.Second),
			expectMin: 0,
			expectMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{ResetAt: tt.resetAt}
			got := state.TimeUntilReset()
			if got < tt.expectMin || got > tt.expectMax {
				t.Errorf("TimeUntilReset() = %v, want between %v and %v", got, tt.expectMin, tt.expectMax)
			}
		})
	}
}
