package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sol-copy-monitor/pkg/utils"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network   string `mapstructure:"network" yaml:"network"`
	RPCUrl    string `mapstructure:"rpc_url" yaml:"rpc_url"`
	WSUrl     string `mapstructure:"ws_url" yaml:"ws_url"`
	RPCAPIKey string `mapstructure:"rpc_api_key" yaml:"rpc_api_key"`

	// Watch settings
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`

	// Monitor pipeline settings
	Monitor MonitorConfig `mapstructure:"monitor" yaml:"monitor"`

	// Reconnect/health settings
	Reconnect ReconnectConfig `mapstructure:"reconnect" yaml:"reconnect"`

	// Output queue settings
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// WatchConfig identifies the tracked account and notification scope
type WatchConfig struct {
	TargetWallet string `mapstructure:"target_wallet" yaml:"target_wallet"`
	Commitment   string `mapstructure:"commitment" yaml:"commitment"` // "confirmed" or "finalized"
}

// MonitorConfig contains transaction pipeline settings
type MonitorConfig struct {
	DedupCacheSize     int `mapstructure:"dedup_cache_size" yaml:"dedup_cache_size"`
	FetchRetries       int `mapstructure:"fetch_retries" yaml:"fetch_retries"`
	FetchRetryDelayMs  int `mapstructure:"fetch_retry_delay_ms" yaml:"fetch_retry_delay_ms"`
	FetchConcurrency   int `mapstructure:"fetch_concurrency" yaml:"fetch_concurrency"`
	NotificationBuffer int `mapstructure:"notification_buffer" yaml:"notification_buffer"`
	DrainTimeoutSec    int `mapstructure:"drain_timeout_sec" yaml:"drain_timeout_sec"`
}

// ReconnectConfig contains subscription reconnect and health probe settings
type ReconnectConfig struct {
	InitialDelaySec  int `mapstructure:"initial_delay_sec" yaml:"initial_delay_sec"`
	MaxDelaySec      int `mapstructure:"max_delay_sec" yaml:"max_delay_sec"`
	ProbeIntervalSec int `mapstructure:"probe_interval_sec" yaml:"probe_interval_sec"`
	ProbeFailLimit   int `mapstructure:"probe_fail_limit" yaml:"probe_fail_limit"`
}

// OutputConfig contains trade signal queue settings
type OutputConfig struct {
	QueueSize      int    `mapstructure:"queue_size" yaml:"queue_size"`
	Policy         string `mapstructure:"policy" yaml:"policy"` // "drop_oldest" or "block"
	BlockTimeoutMs int    `mapstructure:"block_timeout_ms" yaml:"block_timeout_ms"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("monitor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/sol-copy-monitor/")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("COPYMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, continue with defaults and env vars
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("network", "mainnet")
	viper.SetDefault("rpc_url", SolanaMainnetRPC)
	viper.SetDefault("ws_url", SolanaMainnetWS)

	viper.SetDefault("watch.commitment", "confirmed")

	viper.SetDefault("monitor.dedup_cache_size", DefaultDedupCacheSize)
	viper.SetDefault("monitor.fetch_retries", DefaultFetchRetries)
	viper.SetDefault("monitor.fetch_retry_delay_ms", DefaultFetchRetryDelay)
	viper.SetDefault("monitor.fetch_concurrency", DefaultFetchConcurrency)
	viper.SetDefault("monitor.notification_buffer", 1000)
	viper.SetDefault("monitor.drain_timeout_sec", DefaultDrainTimeoutSec)

	viper.SetDefault("reconnect.initial_delay_sec", DefaultReconnectInitialSec)
	viper.SetDefault("reconnect.max_delay_sec", DefaultReconnectMaxSec)
	viper.SetDefault("reconnect.probe_interval_sec", DefaultProbeIntervalSec)
	viper.SetDefault("reconnect.probe_fail_limit", DefaultProbeFailLimit)

	viper.SetDefault("output.queue_size", DefaultOutputQueueSize)
	viper.SetDefault("output.policy", "drop_oldest")
	viper.SetDefault("output.block_timeout_ms", 5000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// bindEnvVariables manually binds environment variables that viper might miss
func bindEnvVariables() {
	viper.BindEnv("network", "COPYMON_NETWORK")
	viper.BindEnv("rpc_url", "COPYMON_RPC_URL")
	viper.BindEnv("ws_url", "COPYMON_WS_URL")
	viper.BindEnv("rpc_api_key", "COPYMON_RPC_API_KEY")

	viper.BindEnv("watch.target_wallet", "COPYMON_WATCH_TARGET_WALLET")
	viper.BindEnv("watch.commitment", "COPYMON_WATCH_COMMITMENT")

	viper.BindEnv("monitor.dedup_cache_size", "COPYMON_MONITOR_DEDUP_CACHE_SIZE")
	viper.BindEnv("monitor.fetch_retries", "COPYMON_MONITOR_FETCH_RETRIES")
	viper.BindEnv("monitor.fetch_concurrency", "COPYMON_MONITOR_FETCH_CONCURRENCY")

	viper.BindEnv("output.policy", "COPYMON_OUTPUT_POLICY")
	viper.BindEnv("output.queue_size", "COPYMON_OUTPUT_QUEUE_SIZE")

	viper.BindEnv("logging.level", "COPYMON_LOGGING_LEVEL")
	viper.BindEnv("logging.format", "COPYMON_LOGGING_FORMAT")
}

// validateConfig validates configuration values
func validateConfig(config *Config) error {
	if config.Watch.TargetWallet == "" {
		return fmt.Errorf("watch.target_wallet is required")
	}
	if !utils.IsValidSolanaAddress(config.Watch.TargetWallet) {
		return fmt.Errorf("watch.target_wallet is not a valid Solana address: %s", config.Watch.TargetWallet)
	}

	switch config.Watch.Commitment {
	case "confirmed", "finalized":
	default:
		return fmt.Errorf("watch.commitment must be \"confirmed\" or \"finalized\", got %q", config.Watch.Commitment)
	}

	if !strings.HasPrefix(config.RPCUrl, "http://") && !strings.HasPrefix(config.RPCUrl, "https://") {
		return fmt.Errorf("rpc_url must start with http:// or https://")
	}
	if !strings.HasPrefix(config.WSUrl, "ws://") && !strings.HasPrefix(config.WSUrl, "wss://") {
		return fmt.Errorf("ws_url must start with ws:// or wss://")
	}

	if config.Monitor.DedupCacheSize <= 0 {
		config.Monitor.DedupCacheSize = DefaultDedupCacheSize
	}
	if config.Monitor.FetchRetries <= 0 {
		config.Monitor.FetchRetries = DefaultFetchRetries
	}
	if config.Monitor.FetchConcurrency <= 0 {
		config.Monitor.FetchConcurrency = DefaultFetchConcurrency
	}

	switch config.Output.Policy {
	case "drop_oldest", "block":
	default:
		return fmt.Errorf("output.policy must be \"drop_oldest\" or \"block\", got %q", config.Output.Policy)
	}

	return nil
}

// FetchRetryDelay returns the base delay between fetch retry attempts
func (c *Config) FetchRetryDelay() time.Duration {
	return time.Duration(c.Monitor.FetchRetryDelayMs) * time.Millisecond
}

// ReconnectInitialDelay returns the initial reconnect backoff delay
func (c *Config) ReconnectInitialDelay() time.Duration {
	return time.Duration(c.Reconnect.InitialDelaySec) * time.Second
}

// ReconnectMaxDelay returns the reconnect backoff cap
func (c *Config) ReconnectMaxDelay() time.Duration {
	return time.Duration(c.Reconnect.MaxDelaySec) * time.Second
}

// ProbeInterval returns the health probe interval
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.Reconnect.ProbeIntervalSec) * time.Second
}

// DrainTimeout returns the shutdown drain window
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.Monitor.DrainTimeoutSec) * time.Second
}

// BlockTimeout returns the output queue block-policy timeout
func (c *Config) BlockTimeout() time.Duration {
	return time.Duration(c.Output.BlockTimeoutMs) * time.Millisecond
}
