package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)

	log.SetOutput(os.Stdout)

	// Set log format based on configuration
	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			ForceColors:     true,
			DisableQuote:    true,
		})
	default:
		// Default to a custom text format with clear timestamp
		log.SetFormatter(&CustomFormatter{})
	}

	return &Logger{
		Logger: log,
		config: config,
	}, nil
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	// Color coding for different log levels
	var levelColor string
	switch entry.Level {
	case logrus.DebugLevel:
		levelColor = "\033[36m" // Cyan
	case logrus.InfoLevel:
		levelColor = "\033[32m" // Green
	case logrus.WarnLevel:
		levelColor = "\033[33m" // Yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = "\033[31m" // Red
	default:
		levelColor = "\033[0m" // Reset
	}

	resetColor := "\033[0m"

	msg := fmt.Sprintf("%s [%s%s%s] %s",
		timestamp,
		levelColor,
		level,
		resetColor,
		entry.Message)

	// Add fields if present
	if len(entry.Data) > 0 {
		msg += " |"
		for key, value := range entry.Data {
			msg += fmt.Sprintf(" %s=%v", key, value)
		}
	}

	msg += "\n"
	return []byte(msg), nil
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// Monitoring-specific logging methods with timestamps

// LogSwapDetected logs when a swap by the tracked wallet is decoded
func (l *Logger) LogSwapDetected(signature, dex string, amountIn, minAmountOut uint64, slippageBps uint16) {
	l.WithFields(logrus.Fields{
		"event":          "swap_detected",
		"signature":      signature,
		"dex":            dex,
		"amount_in":      amountIn,
		"min_amount_out": minAmountOut,
		"slippage_bps":   slippageBps,
		"timestamp":      time.Now().Format(time.RFC3339),
	}).Info("🔍 Swap detected")
}

// LogSignalEmitted logs when a trade signal is handed to the output queue
func (l *Logger) LogSignalEmitted(signature, dex string, queueDepth int) {
	l.WithFields(logrus.Fields{
		"event":       "signal_emitted",
		"signature":   signature,
		"dex":         dex,
		"queue_depth": queueDepth,
		"timestamp":   time.Now().Format(time.RFC3339),
	}).Info("📬 Trade signal emitted")
}

// LogSignalDropped logs when the output queue sheds a signal under backpressure
func (l *Logger) LogSignalDropped(signature, reason string) {
	l.WithFields(logrus.Fields{
		"event":     "signal_dropped",
		"signature": signature,
		"reason":    reason,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Warn("⚠️ Trade signal dropped")
}

// LogFetchRetry logs a transaction fetch retry attempt
func (l *Logger) LogFetchRetry(signature string, attempt, maxAttempts int, err error) {
	l.WithFields(logrus.Fields{
		"event":        "fetch_retry",
		"signature":    signature,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
		"timestamp":    time.Now().Format(time.RFC3339),
	}).WithError(err).Warn("🔄 Transaction fetch retry")
}

// LogFetchFailed logs when all fetch attempts for a signature are exhausted
func (l *Logger) LogFetchFailed(signature string, attempts int, err error) {
	l.WithFields(logrus.Fields{
		"event":     "fetch_failed",
		"signature": signature,
		"attempts":  attempts,
		"timestamp": time.Now().Format(time.RFC3339),
	}).WithError(err).Error("❌ Transaction fetch failed")
}

// LogWebSocketEvent logs WebSocket events
func (l *Logger) LogWebSocketEvent(eventType string, data interface{}) {
	l.WithFields(logrus.Fields{
		"event":     "websocket_" + eventType,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Debug("🔌 WebSocket event")
}

// LogError logs general errors with context
func (l *Logger) LogError(component, operation string, err error, fields logrus.Fields) {
	logFields := logrus.Fields{
		"event":     "error",
		"component": component,
		"operation": operation,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	// Merge additional fields
	for k, v := range fields {
		logFields[k] = v
	}

	l.WithFields(logFields).WithError(err).Error("💥 Component error")
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(version, network, targetWallet string) {
	l.WithFields(logrus.Fields{
		"event":         "startup",
		"version":       version,
		"network":       network,
		"target_wallet": targetWallet,
		"timestamp":     time.Now().Format(time.RFC3339),
	}).Info("🚀 Monitor starting up")
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(reason string) {
	l.WithFields(logrus.Fields{
		"event":     "shutdown",
		"reason":    reason,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("🛑 Monitor shutting down")
}

// Context-aware logging methods

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// WithTransaction returns a logger with transaction context
func (l *Logger) WithTransaction(signature string) *logrus.Entry {
	return l.WithField("transaction", signature)
}

// Performance logging

// LogLatency logs operation latency
func (l *Logger) LogLatency(operation string, duration time.Duration) {
	l.WithFields(logrus.Fields{
		"event":     "latency",
		"operation": operation,
		"duration":  duration.Milliseconds(),
		"unit":      "ms",
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("⏱️ Operation latency")
}

// Utility logging methods

// LogConnection logs connection status
func (l *Logger) LogConnection(service, status string, details interface{}) {
	l.WithFields(logrus.Fields{
		"event":     "connection",
		"service":   service,
		"status":    status,
		"details":   details,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("🔗 Connection status")
}
