package monitor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSigCache_Idempotent(t *testing.T) {
	cache := NewSigCache(100)

	if !cache.CheckAndReserve("sig-1") {
		t.Fatal("first reservation should succeed")
	}
	if cache.CheckAndReserve("sig-1") {
		t.Error("second reservation of same signature should fail")
	}
	if !cache.Contains("sig-1") {
		t.Error("reserved signature should be present")
	}
}

func TestSigCache_FIFOEviction(t *testing.T) {
	capacity := 10
	cache := NewSigCache(capacity)

	for i := 0; i < capacity; i++ {
		cache.CheckAndReserve(fmt.Sprintf("sig-%d", i))
	}
	if cache.Len() != capacity {
		t.Fatalf("expected %d entries, got %d", capacity, cache.Len())
	}

	// One more pushes out the oldest
	cache.CheckAndReserve("sig-overflow")

	if cache.Len() != capacity {
		t.Errorf("expected size to stay at %d, got %d", capacity, cache.Len())
	}
	if cache.Contains("sig-0") {
		t.Error("oldest entry should have been evicted")
	}
	if !cache.Contains("sig-1") {
		t.Error("second oldest entry should survive")
	}

	// The evicted signature can be reserved again
	if !cache.CheckAndReserve("sig-0") {
		t.Error("evicted signature should be reservable again")
	}
}

func TestSigCache_ConcurrentReserve(t *testing.T) {
	cache := NewSigCache(1000)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cache.CheckAndReserve("contested-sig") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly one successful reservation, got %d", wins.Load())
	}
}

func TestSigCache_DefaultCapacity(t *testing.T) {
	cache := NewSigCache(0)
	if cache.capacity != 10_000 {
		t.Errorf("expected default capacity 10000, got %d", cache.capacity)
	}
}
