package monitor

import (
	"sync"
)

// SigCache remembers recently seen transaction signatures so each one is
// processed at most once. Eviction is FIFO: once capacity is reached, each
// new signature pushes out the oldest reservation.
type SigCache struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	ring     []string
	head     int

	hits   uint64
	misses uint64
}

// NewSigCache creates a signature cache holding up to capacity entries
func NewSigCache(capacity int) *SigCache {
	if capacity <= 0 {
		capacity = 10_000
	}
	return &SigCache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		ring:     make([]string, capacity),
	}
}

// CheckAndReserve atomically tests and records a signature. It returns true
// when the signature was unseen and is now reserved, false for a duplicate.
// Reservation happens before processing, so concurrent notifications for the
// same signature can never both proceed.
func (c *SigCache) CheckAndReserve(signature string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.seen[signature]; exists {
		c.hits++
		return false
	}
	c.misses++

	if evicted := c.ring[c.head]; evicted != "" {
		delete(c.seen, evicted)
	}
	c.ring[c.head] = signature
	c.head = (c.head + 1) % c.capacity

	c.seen[signature] = struct{}{}
	return true
}

// Contains reports whether a signature is currently reserved
func (c *SigCache) Contains(signature string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.seen[signature]
	return exists
}

// Len returns the number of reserved signatures
func (c *SigCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// GetStats returns cache hit/miss counters
func (c *SigCache) GetStats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]interface{}{
		"capacity":   c.capacity,
		"size":       len(c.seen),
		"duplicates": c.hits,
		"unique":     c.misses,
	}
}
