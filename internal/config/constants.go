package config

import "github.com/blocto/solana-go-sdk/common"

// Solana network constants
const (
	SolanaMainnetRPC = "https://api.mainnet-beta.solana.com"
	SolanaDevnetRPC  = "https://api.devnet.solana.com"

	// WebSocket endpoints
	SolanaMainnetWS = "wss://api.mainnet-beta.solana.com"
	SolanaDevnetWS  = "wss://api.devnet.solana.com"

	// Solana constants
	LamportsPerSol = 1_000_000_000
)

// Monitored DEX program addresses
var (
	// Jupiter aggregator V6
	JupiterV6ProgramID = common.PublicKeyFromString("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")

	// Raydium AMM V4
	RaydiumV4ProgramID = common.PublicKeyFromString("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	// Orca Whirlpool
	OrcaWhirlpoolProgramID = common.PublicKeyFromString("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

	// Compute Budget program (priority fee instructions)
	ComputeBudgetProgramID = common.PublicKeyFromString("ComputeBudget111111111111111111111111111111")

	// System program
	SystemProgramID = common.PublicKeyFromString("11111111111111111111111111111111")

	// Token program
	TokenProgramID = common.PublicKeyFromString("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Native SOL mint (wrapped SOL)
	NativeSOLMint = common.PublicKeyFromString("So11111111111111111111111111111111111111112")
)

// Pipeline defaults
const (
	// Dedup cache capacity (recently seen transaction signatures)
	DefaultDedupCacheSize = 10_000

	// Transaction fetch retry policy
	DefaultFetchRetries     = 3
	DefaultFetchRetryDelay  = 1000 // ms, grows linearly per attempt
	DefaultFetchConcurrency = 8

	// Reconnect backoff bounds (seconds): 2, 4, 8, 16, 32 capped
	DefaultReconnectInitialSec = 2
	DefaultReconnectMaxSec     = 32

	// Health probe while the subscription is active
	DefaultProbeIntervalSec = 30
	DefaultProbeFailLimit   = 2

	// Output queue
	DefaultOutputQueueSize = 256

	// Graceful shutdown drain window
	DefaultDrainTimeoutSec = 10
)

// GetRPCEndpoint returns RPC endpoint based on network
func GetRPCEndpoint(network string) string {
	switch network {
	case "devnet":
		return SolanaDevnetRPC
	default:
		return SolanaMainnetRPC
	}
}

// GetWSEndpoint returns WebSocket endpoint based on network
func GetWSEndpoint(network string) string {
	switch network {
	case "devnet":
		return SolanaDevnetWS
	default:
		return SolanaMainnetWS
	}
}
