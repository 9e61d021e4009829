package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sol-copy-monitor/internal/client"
	"sol-copy-monitor/internal/config"
	"sol-copy-monitor/internal/dex"
	"sol-copy-monitor/internal/logger"
	"sol-copy-monitor/internal/monitor"
	"sol-copy-monitor/pkg/utils"
)

const Version = "1.0.0"

// CLI flags
var (
	configFile   = flag.String("config", "", "Path to config file")
	targetWallet = flag.String("wallet", "", "Wallet address to track (overrides config)")
	network      = flag.String("network", "", "Network to use (mainnet/devnet)")
	commitment   = flag.String("commitment", "", "Subscription commitment (confirmed/finalized)")
	logLevel     = flag.String("log-level", "", "Log level (debug/info/warn/error)")
	outputPolicy = flag.String("output-policy", "", "Output queue policy (drop_oldest/block)")
)

// App wires the subscription, pipeline and output together
type App struct {
	config     *config.Config
	logger     *logger.Logger
	wsClient   *client.WSClient
	fetcher    *client.RPCFetcher
	dispatcher *dex.Dispatcher
	cache      *monitor.SigCache
	output     *monitor.Output
	listener   *monitor.Listener
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	flag.Parse()

	cfg := loadConfigurationWithOverrides()
	log := initializeLogger(cfg)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	if err := app.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start application")
	}
}

func loadConfigurationWithOverrides() *config.Config {
	// Target wallet may come from the flag, so defer validation errors
	// until overrides are applied
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		if *targetWallet == "" {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Warning: configuration not loaded, falling back to defaults: %v\n", err)
	}
	if cfg == nil {
		cfg = fallbackConfig()
	}

	applyCliOverrides(cfg)

	if err := validateTargetWallet(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// fallbackConfig covers the flags-only invocation with no readable config file
func fallbackConfig() *config.Config {
	cfg := &config.Config{
		Network: "mainnet",
		RPCUrl:  config.SolanaMainnetRPC,
		WSUrl:   config.SolanaMainnetWS,
	}
	cfg.Watch.Commitment = "confirmed"
	return cfg
}

// validateTargetWallet checks the effective wallet after flag overrides, so
// a flag-supplied address gets the same scrutiny as a configured one
func validateTargetWallet(cfg *config.Config) error {
	if cfg.Watch.TargetWallet == "" {
		return fmt.Errorf("target wallet is required (set watch.target_wallet or -wallet)")
	}
	if !utils.IsValidSolanaAddress(cfg.Watch.TargetWallet) {
		return fmt.Errorf("target wallet is not a valid Solana address: %s", cfg.Watch.TargetWallet)
	}
	return nil
}

func applyCliOverrides(cfg *config.Config) {
	if *targetWallet != "" {
		cfg.Watch.TargetWallet = *targetWallet
	}
	if *network != "" {
		cfg.Network = *network
		cfg.RPCUrl = config.GetRPCEndpoint(*network)
		cfg.WSUrl = config.GetWSEndpoint(*network)
	}
	if *commitment != "" {
		cfg.Watch.Commitment = *commitment
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *outputPolicy != "" {
		cfg.Output.Policy = *outputPolicy
	}
}

func initializeLogger(cfg *config.Config) *logger.Logger {
	logConfig := logger.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if logConfig.Level == "" {
		logConfig.Level = "info"
	}

	log, err := logger.NewLogger(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return log
}

// NewApp builds the full pipeline from configuration
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	wsClient := client.NewWSClient(client.WSConfig{
		URL:                cfg.WSUrl,
		TargetWallet:       cfg.Watch.TargetWallet,
		Commitment:         cfg.Watch.Commitment,
		NotificationBuffer: cfg.Monitor.NotificationBuffer,
		ReconnectInitial:   cfg.ReconnectInitialDelay(),
		ReconnectMax:       cfg.ReconnectMaxDelay(),
		ProbeInterval:      cfg.ProbeInterval(),
		ProbeFailLimit:     cfg.Reconnect.ProbeFailLimit,
	}, log.Logger)

	fetcher := client.NewRPCFetcher(client.RPCConfig{
		Endpoint:   cfg.RPCUrl,
		APIKey:     cfg.RPCAPIKey,
		Commitment: cfg.Watch.Commitment,
		Retries:    cfg.Monitor.FetchRetries,
		RetryDelay: cfg.FetchRetryDelay(),
	}, log.Logger)

	dispatcher := dex.NewDispatcher(log.Logger)
	cache := monitor.NewSigCache(cfg.Monitor.DedupCacheSize)
	output := monitor.NewOutput(cfg.Output.QueueSize, cfg.Output.Policy, cfg.BlockTimeout(), log.Logger)

	listener := monitor.NewListener(fetcher, dispatcher, cache, output, monitor.ListenerConfig{
		FetchConcurrency: cfg.Monitor.FetchConcurrency,
		DrainTimeout:     cfg.DrainTimeout(),
	}, log.Logger)

	return &App{
		config:     cfg,
		logger:     log,
		wsClient:   wsClient,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		cache:      cache,
		output:     output,
		listener:   listener,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start runs the monitor until a shutdown signal arrives
func (a *App) Start() error {
	a.logger.LogStartup(Version, a.config.Network, a.config.Watch.TargetWallet)

	if err := a.wsClient.Start(); err != nil {
		return fmt.Errorf("failed to start subscription: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- a.listener.Run(a.ctx, a.wsClient.Events())
	}()

	go a.consumeSignals()
	go a.statsLoop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a.logger.WithField("wallet", a.config.Watch.TargetWallet).Info("🎯 Monitor started - tracking wallet activity")

	select {
	case sig := <-sigChan:
		a.logger.Info(fmt.Sprintf("🛑 Received signal: %v", sig))
		a.shutdown(errChan)
		return nil
	case err := <-errChan:
		a.shutdown(nil)
		if err != nil && err != context.Canceled {
			return err
		}
		return nil
	}
}

// consumeSignals logs emitted trade signals until the output queue closes
func (a *App) consumeSignals() {
	for signal := range a.output.Signals() {
		a.logger.LogSwapDetected(
			signal.Signature,
			signal.Dex.String(),
			signal.AmountIn,
			signal.MinAmountOut,
			signal.SlippageBps,
		)
		a.logger.WithField("url", signal.SolscanURL()).Debug("🔍 " + signal.Description())
	}
}

// statsLoop periodically reports pipeline statistics
func (a *App) statsLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			stats := a.listener.GetStats()
			for k, v := range a.wsClient.GetConnectionStats() {
				stats["ws_"+k] = v
			}
			for k, v := range a.output.GetStats() {
				stats["output_"+k] = v
			}
			for k, v := range a.cache.GetStats() {
				stats["dedup_"+k] = v
			}
			a.logger.WithFields(stats).Info("📊 Pipeline Statistics")
		}
	}
}

func (a *App) shutdown(pipelineDone <-chan error) {
	a.logger.LogShutdown("signal received")

	// Stop the subscription first so the event channel closes, then give
	// the listener its drain window before tearing down the context
	a.wsClient.Close()

	if pipelineDone != nil {
		select {
		case <-pipelineDone:
		case <-time.After(a.config.DrainTimeout() + time.Second):
			a.logger.Warn("⚠️ Pipeline did not stop within drain window")
		}
	}
	a.cancel()

	a.logger.WithFields(a.listener.GetStats()).Info("📊 Final Pipeline Statistics")
	a.logger.Info("✅ Shutdown complete")
}
