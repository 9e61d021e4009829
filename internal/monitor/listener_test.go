package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-copy-monitor/internal/client"
	"sol-copy-monitor/internal/dex"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	err     error
	delay   time.Duration
	current atomic.Int32
	peak    atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int)}
}

func (f *fakeFetcher) FetchTransaction(ctx context.Context, signature string) (*client.RawTransaction, error) {
	cur := f.current.Add(1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	defer f.current.Add(-1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls[signature]++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &client.RawTransaction{Signature: signature, Slot: 1}, nil
}

func (f *fakeFetcher) callCount(signature string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[signature]
}

type fakeDispatcher struct {
	err     error
	noMatch bool
}

func (d *fakeDispatcher) Dispatch(tx *client.RawTransaction) (*dex.TradeSignal, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.noMatch {
		return nil, nil
	}
	return &dex.TradeSignal{
		Signature: tx.Signature,
		Slot:      tx.Slot,
		Dex:       dex.VariantJupiter,
		AmountIn:  1_000_000,
	}, nil
}

func runListener(t *testing.T, fetcher TransactionFetcher, dispatcher SignalDecoder, events chan client.NotificationEvent) (*Listener, *Output, func()) {
	t.Helper()

	output := NewOutput(16, PolicyDropOldest, 0, testLogger())
	listener := NewListener(fetcher, dispatcher, NewSigCache(100), output, ListenerConfig{
		FetchConcurrency: 2,
		DrainTimeout:     2 * time.Second,
	}, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		listener.Run(context.Background(), events)
	}()

	wait := func() {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("listener did not stop")
		}
	}
	return listener, output, wait
}

func TestListener_DuplicateNotificationsFetchOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	events := make(chan client.NotificationEvent, 10)

	listener, output, wait := runListener(t, fetcher, &fakeDispatcher{}, events)

	for i := 0; i < 5; i++ {
		events <- client.NotificationEvent{Signature: "dup-sig", Slot: 10}
	}
	close(events)
	wait()

	assert.Equal(t, 1, fetcher.callCount("dup-sig"))

	var signals []*dex.TradeSignal
	for signal := range output.Signals() {
		signals = append(signals, signal)
	}
	require.Len(t, signals, 1)
	assert.Equal(t, "dup-sig", signals[0].Signature)

	stats := listener.GetStats()
	assert.Equal(t, uint64(4), stats["duplicates"])
}

func TestListener_SkipsFailedTransactions(t *testing.T) {
	fetcher := newFakeFetcher()
	events := make(chan client.NotificationEvent, 10)

	listener, output, wait := runListener(t, fetcher, &fakeDispatcher{}, events)

	events <- client.NotificationEvent{
		Signature: "failed-sig",
		Err:       map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
	}
	close(events)
	wait()

	assert.Equal(t, 0, fetcher.callCount("failed-sig"))
	_, open := <-output.Signals()
	assert.False(t, open)

	stats := listener.GetStats()
	assert.Equal(t, uint64(1), stats["failed_skipped"])
	// A failed transaction never reserves the signature
	assert.False(t, listener.cache.Contains("failed-sig"))
}

func TestListener_FetchFailureKeepsReservation(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.err = errors.New("rpc unavailable")
	events := make(chan client.NotificationEvent, 10)

	listener, output, wait := runListener(t, fetcher, &fakeDispatcher{}, events)

	events <- client.NotificationEvent{Signature: "lost-sig"}
	// Give the first fetch time to fail before the retry notification
	time.Sleep(50 * time.Millisecond)
	events <- client.NotificationEvent{Signature: "lost-sig"}
	close(events)
	wait()

	// Exhausted fetches are not retried by later notifications
	assert.Equal(t, 1, fetcher.callCount("lost-sig"))
	assert.True(t, listener.cache.Contains("lost-sig"))

	_, open := <-output.Signals()
	assert.False(t, open)

	stats := listener.GetStats()
	assert.Equal(t, uint64(1), stats["fetch_failures"])
}

func TestListener_NonDexTransactionEmitsNothing(t *testing.T) {
	fetcher := newFakeFetcher()
	events := make(chan client.NotificationEvent, 10)

	listener, output, wait := runListener(t, fetcher, &fakeDispatcher{noMatch: true}, events)

	events <- client.NotificationEvent{Signature: "transfer-sig"}
	close(events)
	wait()

	assert.Equal(t, 1, fetcher.callCount("transfer-sig"))
	_, open := <-output.Signals()
	assert.False(t, open)

	stats := listener.GetStats()
	assert.Equal(t, uint64(0), stats["signals_emitted"])
}

func TestListener_DecodeErrorCounted(t *testing.T) {
	fetcher := newFakeFetcher()
	events := make(chan client.NotificationEvent, 10)

	listener, output, wait := runListener(t, fetcher, &fakeDispatcher{err: errors.New("bad layout")}, events)

	events <- client.NotificationEvent{Signature: "odd-sig"}
	close(events)
	wait()

	_, open := <-output.Signals()
	assert.False(t, open)

	stats := listener.GetStats()
	assert.Equal(t, uint64(1), stats["decode_failures"])
}

func TestListener_ConcurrencyBounded(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.delay = 30 * time.Millisecond
	events := make(chan client.NotificationEvent, 20)

	_, output, wait := runListener(t, fetcher, &fakeDispatcher{}, events)

	for i := 0; i < 10; i++ {
		events <- client.NotificationEvent{Signature: string(rune('a' + i))}
	}
	close(events)
	wait()

	assert.LessOrEqual(t, fetcher.peak.Load(), int32(2))

	count := 0
	for range output.Signals() {
		count++
	}
	assert.Equal(t, 10, count)
}

func TestListener_DrainClosesOutput(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.delay = 20 * time.Millisecond
	events := make(chan client.NotificationEvent, 5)

	_, output, wait := runListener(t, fetcher, &fakeDispatcher{}, events)

	events <- client.NotificationEvent{Signature: "in-flight"}
	close(events)
	wait()

	// The in-flight fetch completed during drain and its signal was kept
	signal, open := <-output.Signals()
	require.True(t, open)
	assert.Equal(t, "in-flight", signal.Signature)

	_, open = <-output.Signals()
	assert.False(t, open)
}
