package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-copy-monitor/internal/config"
)

func TestValidateTargetWallet(t *testing.T) {
	cfg := fallbackConfig()

	require.Error(t, validateTargetWallet(cfg), "empty wallet must be rejected")

	cfg.Watch.TargetWallet = "not-a-wallet"
	require.Error(t, validateTargetWallet(cfg), "flag-supplied wallet must be base58 validated")

	cfg.Watch.TargetWallet = "So11111111111111111111111111111111111111112"
	assert.NoError(t, validateTargetWallet(cfg))
}

func TestApplyCliOverrides(t *testing.T) {
	cfg := fallbackConfig()

	*targetWallet = "So11111111111111111111111111111111111111112"
	*network = "devnet"
	*commitment = "finalized"
	defer func() {
		*targetWallet = ""
		*network = ""
		*commitment = ""
	}()

	applyCliOverrides(cfg)

	assert.Equal(t, "So11111111111111111111111111111111111111112", cfg.Watch.TargetWallet)
	assert.Equal(t, "devnet", cfg.Network)
	assert.Equal(t, config.SolanaDevnetRPC, cfg.RPCUrl)
	assert.Equal(t, config.SolanaDevnetWS, cfg.WSUrl)
	assert.Equal(t, "finalized", cfg.Watch.Commitment)
}
