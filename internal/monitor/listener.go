package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"sol-copy-monitor/internal/client"
	"sol-copy-monitor/internal/dex"
)

// TransactionFetcher retrieves a confirmed transaction by signature
type TransactionFetcher interface {
	FetchTransaction(ctx context.Context, signature string) (*client.RawTransaction, error)
}

// SignalDecoder classifies a transaction and decodes its swap
type SignalDecoder interface {
	Dispatch(tx *client.RawTransaction) (*dex.TradeSignal, error)
}

var _ TransactionFetcher = (*client.RPCFetcher)(nil)
var _ SignalDecoder = (*dex.Dispatcher)(nil)

// ListenerConfig contains pipeline settings
type ListenerConfig struct {
	FetchConcurrency int
	DrainTimeout     time.Duration
}

// Listener drives the notification pipeline: it consumes wallet log events,
// deduplicates signatures, fetches the full transactions with bounded
// concurrency and emits decoded trade signals to the output queue.
//
// Dedup reservation happens on the single consuming goroutine before any
// fetch is started, so a burst of duplicate notifications yields one fetch.
type Listener struct {
	fetcher    TransactionFetcher
	dispatcher SignalDecoder
	cache      *SigCache
	output     *Output
	logger     *logrus.Logger
	cfg        ListenerConfig

	sem chan struct{}
	wg  sync.WaitGroup

	// Counters
	notificationsSeen atomic.Uint64
	failedSkipped     atomic.Uint64
	duplicates        atomic.Uint64
	fetchFailures     atomic.Uint64
	decodeFailures    atomic.Uint64
	signalsEmitted    atomic.Uint64
}

// NewListener creates a pipeline listener
func NewListener(fetcher TransactionFetcher, dispatcher SignalDecoder, cache *SigCache, output *Output, cfg ListenerConfig, logger *logrus.Logger) *Listener {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 8
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}
	return &Listener{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		cache:      cache,
		output:     output,
		logger:     logger,
		cfg:        cfg,
		sem:        make(chan struct{}, cfg.FetchConcurrency),
	}
}

// Run consumes notification events until the channel closes or the context
// is cancelled, then drains in-flight fetches. The output queue is closed
// once the drain completes so consumers observe a clean end of stream.
func (l *Listener) Run(ctx context.Context, events <-chan client.NotificationEvent) error {
	defer l.drain()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			l.handleNotification(ctx, event)
		}
	}
}

// handleNotification filters and reserves one event, then hands it to a
// fetch worker. Runs on the consuming goroutine only.
func (l *Listener) handleNotification(ctx context.Context, event client.NotificationEvent) {
	l.notificationsSeen.Add(1)

	if event.Signature == "" {
		return
	}

	// Failed transactions carry no executable swap
	if event.Err != nil {
		l.failedSkipped.Add(1)
		l.logger.WithField("signature", event.Signature).Debug("⏭️ Skipping failed transaction")
		return
	}

	if !l.cache.CheckAndReserve(event.Signature) {
		l.duplicates.Add(1)
		l.logger.WithField("signature", event.Signature).Debug("⏭️ Duplicate signature, already reserved")
		return
	}

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() { <-l.sem }()
		l.processSignature(ctx, event)
	}()
}

// processSignature fetches, decodes and emits one reserved signature
func (l *Listener) processSignature(ctx context.Context, event client.NotificationEvent) {
	startTime := time.Now()

	tx, err := l.fetcher.FetchTransaction(ctx, event.Signature)
	if err != nil {
		l.fetchFailures.Add(1)
		if !errors.Is(err, context.Canceled) {
			l.logger.WithFields(logrus.Fields{
				"signature": event.Signature,
				"slot":      event.Slot,
			}).WithError(err).Error("❌ Transaction fetch failed")
		}
		return
	}

	signal, err := l.dispatcher.Dispatch(tx)
	if err != nil {
		l.decodeFailures.Add(1)
		l.logger.WithFields(logrus.Fields{
			"signature": event.Signature,
		}).WithError(err).Warn("⚠️ Swap decode failed")
		return
	}
	if signal == nil {
		// Not a DEX transaction, nothing to emit
		return
	}

	if l.output.Publish(signal) {
		l.signalsEmitted.Add(1)
		l.logger.WithFields(signal.LogFields()).WithFields(logrus.Fields{
			"processing_ms": time.Since(startTime).Milliseconds(),
			"queue_depth":   l.output.Depth(),
		}).Info("📬 Trade signal emitted")
	}
}

// drain waits for in-flight fetches up to the drain timeout, then closes
// the output queue
func (l *Listener) drain() {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("✅ Pipeline drained cleanly")
	case <-time.After(l.cfg.DrainTimeout):
		l.logger.WithField("timeout", l.cfg.DrainTimeout.String()).Warn("⚠️ Drain timeout reached with fetches still in flight")
	}

	l.output.Close()
}

// GetStats returns pipeline counters
func (l *Listener) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"notifications_seen": l.notificationsSeen.Load(),
		"failed_skipped":     l.failedSkipped.Load(),
		"duplicates":         l.duplicates.Load(),
		"fetch_failures":     l.fetchFailures.Load(),
		"decode_failures":    l.decodeFailures.Load(),
		"signals_emitted":    l.signalsEmitted.Load(),
	}
}
