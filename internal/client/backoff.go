package client

import (
	"sync"
	"time"
)

// Backoff computes exponential reconnect delays capped at a maximum.
// The sequence for initial=2s max=32s is 2, 4, 8, 16, 32, 32, ...
type Backoff struct {
	mu      sync.Mutex
	initial time.Duration
	max     time.Duration
	attempt int
}

// NewBackoff creates a backoff starting at initial and capped at max
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = 2 * time.Second
	}
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
	}
}

// Next returns the delay for the next attempt and advances the counter
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.initial << b.attempt
	if delay > b.max || delay <= 0 {
		delay = b.max
	} else {
		b.attempt++
	}
	return delay
}

// Reset restores the backoff to its initial delay. Called once a
// connection reaches a healthy subscribed state.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.attempt = 0
	b.mu.Unlock()
}

// Attempt returns how many escalations have occurred since the last reset
func (b *Backoff) Attempt() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempt
}
