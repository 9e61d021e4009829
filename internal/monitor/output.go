package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"sol-copy-monitor/internal/dex"
)

// Output queue overflow policies
const (
	PolicyDropOldest = "drop_oldest"
	PolicyBlock      = "block"
)

// Output is the bounded trade signal queue handed to the consumer. When the
// consumer falls behind, PolicyDropOldest sheds the oldest queued signal to
// make room, while PolicyBlock waits up to the configured timeout before
// shedding the new one.
type Output struct {
	ch           chan *dex.TradeSignal
	policy       string
	blockTimeout time.Duration
	logger       *logrus.Logger

	closeMu sync.RWMutex
	closed  bool

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// NewOutput creates a signal queue with the given capacity and policy
func NewOutput(capacity int, policy string, blockTimeout time.Duration, logger *logrus.Logger) *Output {
	if capacity <= 0 {
		capacity = 256
	}
	if policy != PolicyBlock {
		policy = PolicyDropOldest
	}
	if blockTimeout <= 0 {
		blockTimeout = 5 * time.Second
	}
	return &Output{
		ch:           make(chan *dex.TradeSignal, capacity),
		policy:       policy,
		blockTimeout: blockTimeout,
		logger:       logger,
	}
}

// Signals returns the consumer side of the queue
func (o *Output) Signals() <-chan *dex.TradeSignal {
	return o.ch
}

// Publish enqueues a signal according to the overflow policy. Returns true
// when the signal made it into the queue. Publishing after Close is a no-op.
func (o *Output) Publish(signal *dex.TradeSignal) bool {
	o.closeMu.RLock()
	defer o.closeMu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return false
	}

	select {
	case o.ch <- signal:
		o.emitted.Add(1)
		return true
	default:
	}

	if o.policy == PolicyDropOldest {
		return o.publishDropOldest(signal)
	}
	return o.publishBlock(signal)
}

// publishDropOldest sheds queued signals until the new one fits. A consumer
// racing us can drain the queue between steps, so both arms retry.
func (o *Output) publishDropOldest(signal *dex.TradeSignal) bool {
	for {
		select {
		case o.ch <- signal:
			o.emitted.Add(1)
			return true
		default:
		}

		select {
		case old := <-o.ch:
			o.dropped.Add(1)
			o.logger.WithFields(logrus.Fields{
				"signature": old.Signature,
				"dex":       old.Dex.String(),
			}).Warn("⚠️ Output queue full, dropped oldest signal")
		default:
		}
	}
}

// publishBlock waits for queue space up to the block timeout
func (o *Output) publishBlock(signal *dex.TradeSignal) bool {
	timer := time.NewTimer(o.blockTimeout)
	defer timer.Stop()

	select {
	case o.ch <- signal:
		o.emitted.Add(1)
		return true
	case <-timer.C:
		o.dropped.Add(1)
		o.logger.WithFields(logrus.Fields{
			"signature": signal.Signature,
			"timeout":   o.blockTimeout.String(),
		}).Warn("⚠️ Output queue blocked past timeout, dropping signal")
		return false
	}
}

// Close closes the consumer channel. Late publishes are dropped.
func (o *Output) Close() {
	o.closeMu.Lock()
	defer o.closeMu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}

// Depth returns the number of queued signals
func (o *Output) Depth() int {
	return len(o.ch)
}

// GetStats returns queue counters
func (o *Output) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"policy":  o.policy,
		"depth":   len(o.ch),
		"emitted": o.emitted.Load(),
		"dropped": o.dropped.Load(),
	}
}
