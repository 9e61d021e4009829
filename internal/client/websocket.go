package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ConnState describes the subscription connection lifecycle
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateSubscribing
	StateActive
	StateDegraded
	StateReconnecting
	StateShuttingDown
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateDegraded:
		return "degraded"
	case StateReconnecting:
		return "reconnecting"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// WSConfig contains connection manager settings
type WSConfig struct {
	URL                string
	TargetWallet       string
	Commitment         string
	NotificationBuffer int
	ReconnectInitial   time.Duration
	ReconnectMax       time.Duration
	ProbeInterval      time.Duration
	ProbeFailLimit     int
}

// WSClient maintains a persistent logsSubscribe stream for a single wallet.
// It reconnects with capped exponential backoff and resubscribes silently,
// so consumers only ever see a channel of notification events.
type WSClient struct {
	cfg    WSConfig
	logger *logrus.Logger

	mu       sync.RWMutex
	conn     *websocket.Conn
	writeMu  sync.Mutex
	state    atomic.Int32
	backoff  *Backoff
	events   chan NotificationEvent
	lastPong atomic.Int64 // unix nanos

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	nextID int64

	// Debug counters
	messagesReceived     atomic.Uint64
	notificationsDropped atomic.Uint64
	reconnectCount       atomic.Uint64
}

// wsRequest is an outgoing JSON-RPC request
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// wsMessage is any incoming frame: subscription confirmation, error, or notification
type wsMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Error   *wsError        `json:"error,omitempty"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// logsNotification is the payload of a logsNotification frame
type logsNotification struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
			Logs      []string    `json:"logs"`
		} `json:"value"`
	} `json:"result"`
}

// NewWSClient creates a connection manager for the given wallet subscription
func NewWSClient(cfg WSConfig, logger *logrus.Logger) *WSClient {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.NotificationBuffer <= 0 {
		cfg.NotificationBuffer = 1000
	}
	if cfg.ProbeFailLimit <= 0 {
		cfg.ProbeFailLimit = 2
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}

	ws := &WSClient{
		cfg:     cfg,
		logger:  logger,
		backoff: NewBackoff(cfg.ReconnectInitial, cfg.ReconnectMax),
		events:  make(chan NotificationEvent, cfg.NotificationBuffer),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	ws.state.Store(int32(StateDisconnected))
	return ws
}

// Events returns the notification stream. Closed after Close() completes.
func (ws *WSClient) Events() <-chan NotificationEvent {
	return ws.events
}

// State returns the current connection state
func (ws *WSClient) State() ConnState {
	return ConnState(ws.state.Load())
}

func (ws *WSClient) setState(s ConnState) {
	prev := ConnState(ws.state.Swap(int32(s)))
	if prev != s {
		ws.logger.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   s.String(),
		}).Debug("🔌 Connection state changed")
	}
}

// Start launches the connection loop. Returns an error only when the first
// connection attempt fails outright; later failures are retried internally.
func (ws *WSClient) Start() error {
	if ws.State() == StateShuttingDown {
		return fmt.Errorf("client is shutting down")
	}

	go ws.run()
	return nil
}

// run drives the connect/subscribe/serve cycle until shutdown
func (ws *WSClient) run() {
	defer close(ws.done)
	defer ws.logger.Info("🛑 Subscription loop stopped")

	for {
		if ws.ctx.Err() != nil {
			return
		}

		err := ws.connectAndServe()
		if ws.ctx.Err() != nil {
			return
		}

		ws.setState(StateReconnecting)
		ws.reconnectCount.Add(1)
		delay := ws.backoff.Next()

		ws.logger.WithFields(logrus.Fields{
			"delay":           delay.String(),
			"reconnect_count": ws.reconnectCount.Load(),
		}).WithError(err).Warn("🔄 Connection lost, reconnecting...")

		select {
		case <-ws.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// connectAndServe performs one full connection cycle: dial, subscribe, then
// probe the connection until it dies or shutdown begins
func (ws *WSClient) connectAndServe() error {
	ws.setState(StateConnecting)
	ws.logger.WithField("url", ws.cfg.URL).Info("🔌 Connecting to Solana WebSocket...")

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.DialContext(ws.ctx, ws.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			ws.logger.WithFields(logrus.Fields{
				"status": resp.Status,
				"url":    ws.cfg.URL,
			}).Error("❌ WebSocket connection failed")
		}
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	conn.SetReadLimit(1024 * 1024) // 1MB read limit
	ws.lastPong.Store(time.Now().UnixNano())
	conn.SetPongHandler(func(string) error {
		ws.lastPong.Store(time.Now().UnixNano())
		return nil
	})

	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()

	connClosed := make(chan struct{})
	confirmed := make(chan int64, 1)
	subErr := make(chan error, 1)

	// Closing the connection unblocks the read loop; waiting for it here
	// means no goroutine can touch the event channel once this cycle returns
	defer func() {
		ws.mu.Lock()
		ws.conn = nil
		ws.mu.Unlock()
		conn.Close()
		<-connClosed
	}()

	go ws.readLoop(conn, connClosed, confirmed, subErr)

	if err := ws.subscribe(conn, confirmed, subErr, connClosed); err != nil {
		return err
	}

	ws.setState(StateActive)
	ws.backoff.Reset()
	ws.logger.WithFields(logrus.Fields{
		"wallet":     ws.cfg.TargetWallet,
		"commitment": ws.cfg.Commitment,
	}).Info("✅ Wallet subscription active")

	return ws.probeLoop(conn, connClosed)
}

// subscribe sends the logsSubscribe request and waits for its confirmation
func (ws *WSClient) subscribe(conn *websocket.Conn, confirmed chan int64, subErr chan error, connClosed chan struct{}) error {
	ws.setState(StateSubscribing)

	id := atomic.AddInt64(&ws.nextID, 1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{
				"mentions": []string{ws.cfg.TargetWallet},
			},
			map[string]interface{}{
				"commitment": ws.cfg.Commitment,
			},
		},
	}

	ws.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"id":     id,
		"wallet": ws.cfg.TargetWallet,
	}).Info("📡 Sending WebSocket subscription request")

	if err := ws.writeJSON(conn, req); err != nil {
		return fmt.Errorf("failed to send subscription: %w", err)
	}

	select {
	case subID := <-confirmed:
		ws.logger.WithFields(logrus.Fields{
			"id":           id,
			"subscription": subID,
		}).Info("✅ WebSocket subscription confirmed")
		return nil
	case err := <-subErr:
		return fmt.Errorf("subscription rejected: %w", err)
	case <-connClosed:
		return fmt.Errorf("connection closed before subscription confirmed")
	case <-time.After(15 * time.Second):
		return fmt.Errorf("timed out waiting for subscription confirmation")
	case <-ws.ctx.Done():
		return ws.ctx.Err()
	}
}

// readLoop consumes frames until the connection fails
func (ws *WSClient) readLoop(conn *websocket.Conn, connClosed chan struct{}, confirmed chan int64, subErr chan error) {
	defer close(connClosed)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ws.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.WithError(err).Error("❌ WebSocket read error")
			}
			return
		}

		ws.messagesReceived.Add(1)

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			ws.logger.WithError(err).Error("❌ Failed to unmarshal WebSocket message")
			continue
		}

		switch {
		case msg.Error != nil:
			ws.logger.WithFields(logrus.Fields{
				"code":    msg.Error.Code,
				"message": msg.Error.Message,
			}).Error("❌ WebSocket error received")
			if msg.ID != nil {
				select {
				case subErr <- fmt.Errorf("rpc error %d: %s", msg.Error.Code, msg.Error.Message):
				default:
				}
			}

		case msg.ID != nil && len(msg.Result) > 0:
			var subID int64
			if err := json.Unmarshal(msg.Result, &subID); err != nil {
				ws.logger.WithError(err).Debug("Non-subscription result frame")
				continue
			}
			select {
			case confirmed <- subID:
			default:
			}

		case msg.Method == "logsNotification":
			ws.handleLogsNotification(msg.Params)

		case msg.Method != "":
			ws.logger.WithField("method", msg.Method).Debug("❓ Unknown notification method")
		}
	}
}

// handleLogsNotification converts a frame into a NotificationEvent and hands
// it to the consumer without blocking the read loop
func (ws *WSClient) handleLogsNotification(params json.RawMessage) {
	var notification logsNotification
	if err := json.Unmarshal(params, &notification); err != nil {
		ws.logger.WithError(err).Error("❌ Failed to unmarshal logs notification")
		return
	}

	event := NotificationEvent{
		Signature: notification.Result.Value.Signature,
		Slot:      notification.Result.Context.Slot,
		Logs:      notification.Result.Value.Logs,
		Err:       notification.Result.Value.Err,
	}

	ws.logger.WithFields(logrus.Fields{
		"signature":  event.Signature,
		"slot":       event.Slot,
		"logs_count": len(event.Logs),
		"has_error":  event.Err != nil,
	}).Debug("📋 Logs notification received")

	select {
	case ws.events <- event:
	default:
		ws.notificationsDropped.Add(1)
		ws.logger.WithFields(logrus.Fields{
			"signature":     event.Signature,
			"dropped_total": ws.notificationsDropped.Load(),
		}).Warn("⚠️ Notification buffer full, dropping event")
	}
}

// probeLoop pings the connection on an interval. A single missed pong marks
// the connection degraded, a second consecutive miss forces a reconnect.
func (ws *WSClient) probeLoop(conn *websocket.Conn, connClosed chan struct{}) error {
	ticker := time.NewTicker(ws.cfg.ProbeInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	for {
		select {
		case <-ws.ctx.Done():
			return nil
		case <-connClosed:
			return fmt.Errorf("connection closed")
		case <-ticker.C:
			healthy := true

			if err := ws.writePing(conn); err != nil {
				healthy = false
			} else if time.Since(time.Unix(0, ws.lastPong.Load())) > ws.cfg.ProbeInterval+10*time.Second {
				healthy = false
			}

			if healthy {
				consecutiveFailures = 0
				if ws.State() == StateDegraded {
					ws.setState(StateActive)
					ws.logger.Info("✅ Connection recovered from degraded state")
				}
				continue
			}

			consecutiveFailures++
			ws.logger.WithField("consecutive_failures", consecutiveFailures).Warn("⚠️ Health probe failed")
			ws.setState(StateDegraded)

			if consecutiveFailures >= ws.cfg.ProbeFailLimit {
				return fmt.Errorf("health probe failed %d times", consecutiveFailures)
			}
		}
	}
}

func (ws *WSClient) writeJSON(conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (ws *WSClient) writePing(conn *websocket.Conn) error {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// Close terminates the subscription loop and closes the event stream
func (ws *WSClient) Close() error {
	ws.setState(StateShuttingDown)
	ws.cancel()

	ws.mu.Lock()
	if ws.conn != nil {
		ws.conn.Close()
	}
	ws.mu.Unlock()

	// The event channel is only closed once the subscription loop has
	// stopped, so no read loop can still be sending into it
	select {
	case <-ws.done:
		close(ws.events)
	case <-time.After(5 * time.Second):
		ws.logger.Warn("⚠️ Timed out waiting for subscription loop to stop")
	}

	ws.logger.Info("🔌 WebSocket client closed")
	return nil
}

// GetConnectionStats returns current connection statistics
func (ws *WSClient) GetConnectionStats() map[string]interface{} {
	return map[string]interface{}{
		"state":                 ws.State().String(),
		"messages_received":     ws.messagesReceived.Load(),
		"notifications_dropped": ws.notificationsDropped.Load(),
		"reconnect_count":       ws.reconnectCount.Load(),
		"target_wallet":         ws.cfg.TargetWallet,
	}
}
