package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "So11111111111111111111111111111111111111112"

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	path := writeConfigFile(t, `
watch:
  target_wallet: `+testWallet+`
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, SolanaMainnetRPC, cfg.RPCUrl)
	assert.Equal(t, SolanaMainnetWS, cfg.WSUrl)
	assert.Equal(t, "confirmed", cfg.Watch.Commitment)
	assert.Equal(t, DefaultDedupCacheSize, cfg.Monitor.DedupCacheSize)
	assert.Equal(t, DefaultFetchRetries, cfg.Monitor.FetchRetries)
	assert.Equal(t, DefaultFetchConcurrency, cfg.Monitor.FetchConcurrency)
	assert.Equal(t, "drop_oldest", cfg.Output.Policy)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Equal(t, 2*time.Second, cfg.ReconnectInitialDelay())
	assert.Equal(t, 32*time.Second, cfg.ReconnectMaxDelay())
	assert.Equal(t, time.Second, cfg.FetchRetryDelay())
	assert.Equal(t, 10*time.Second, cfg.DrainTimeout())
}

func TestLoadConfig_Overrides(t *testing.T) {
	viper.Reset()
	path := writeConfigFile(t, `
network: devnet
rpc_url: https://rpc.example.com
ws_url: wss://ws.example.com
watch:
  target_wallet: `+testWallet+`
  commitment: finalized
monitor:
  fetch_concurrency: 4
output:
  policy: block
  queue_size: 64
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "devnet", cfg.Network)
	assert.Equal(t, "https://rpc.example.com", cfg.RPCUrl)
	assert.Equal(t, "finalized", cfg.Watch.Commitment)
	assert.Equal(t, 4, cfg.Monitor.FetchConcurrency)
	assert.Equal(t, "block", cfg.Output.Policy)
	assert.Equal(t, 64, cfg.Output.QueueSize)
}

func TestLoadConfig_MissingWallet(t *testing.T) {
	viper.Reset()
	path := writeConfigFile(t, `network: mainnet`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_wallet")
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			RPCUrl: SolanaMainnetRPC,
			WSUrl:  SolanaMainnetWS,
		}
		cfg.Watch.TargetWallet = testWallet
		cfg.Watch.Commitment = "confirmed"
		cfg.Output.Policy = "drop_oldest"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(valid()))
	})

	t.Run("bad wallet", func(t *testing.T) {
		cfg := valid()
		cfg.Watch.TargetWallet = "not-base58-0OIl"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("bad commitment", func(t *testing.T) {
		cfg := valid()
		cfg.Watch.Commitment = "processed"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("bad rpc scheme", func(t *testing.T) {
		cfg := valid()
		cfg.RPCUrl = "ftp://example.com"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("bad ws scheme", func(t *testing.T) {
		cfg := valid()
		cfg.WSUrl = "http://example.com"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("bad output policy", func(t *testing.T) {
		cfg := valid()
		cfg.Output.Policy = "drop_newest"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("non-positive limits replaced", func(t *testing.T) {
		cfg := valid()
		cfg.Monitor.DedupCacheSize = -1
		cfg.Monitor.FetchConcurrency = 0
		require.NoError(t, validateConfig(cfg))
		assert.Equal(t, DefaultDedupCacheSize, cfg.Monitor.DedupCacheSize)
		assert.Equal(t, DefaultFetchConcurrency, cfg.Monitor.FetchConcurrency)
	})
}

func TestGetEndpoints(t *testing.T) {
	assert.Equal(t, SolanaDevnetRPC, GetRPCEndpoint("devnet"))
	assert.Equal(t, SolanaMainnetRPC, GetRPCEndpoint("mainnet"))
	assert.Equal(t, SolanaMainnetRPC, GetRPCEndpoint(""))
	assert.Equal(t, SolanaDevnetWS, GetWSEndpoint("devnet"))
	assert.Equal(t, SolanaMainnetWS, GetWSEndpoint("mainnet"))
}
