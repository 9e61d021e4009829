package client

import (
	"context"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// RPCConfig contains configuration for the Solana RPC fetcher
type RPCConfig struct {
	Endpoint   string
	APIKey     string
	Commitment string
	Retries    int
	RetryDelay time.Duration
}

// RPCFetcher retrieves confirmed transactions by signature with bounded retries
type RPCFetcher struct {
	client *rpc.Client
	cfg    RPCConfig
	logger *logrus.Logger
}

// NewRPCFetcher creates a new transaction fetcher
func NewRPCFetcher(cfg RPCConfig, logger *logrus.Logger) *RPCFetcher {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}

	var rpcClient *rpc.Client
	if cfg.APIKey != "" {
		// Create client with API key authentication
		rpcClient = rpc.NewWithHeaders(cfg.Endpoint, map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		})
	} else {
		rpcClient = rpc.New(cfg.Endpoint)
	}

	return &RPCFetcher{
		client: rpcClient,
		cfg:    cfg,
		logger: logger,
	}
}

// FetchTransaction fetches a transaction by signature, retrying transient
// failures with a linearly growing delay. Confirmed transactions can lag the
// log notification by a slot or two, so not-found responses are retried too.
func (f *RPCFetcher) FetchTransaction(ctx context.Context, signature string) (*RawTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentType(f.cfg.Commitment),
		MaxSupportedTransactionVersion: &maxVersion,
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.Retries; attempt++ {
		result, err := f.client.GetTransaction(ctx, sig, opts)
		if err == nil && result != nil && result.Transaction != nil {
			tx, decodeErr := result.Transaction.GetTransaction()
			if decodeErr != nil {
				return nil, fmt.Errorf("failed to decode transaction: %w", decodeErr)
			}
			var blockTime int64
			if result.BlockTime != nil {
				blockTime = int64(*result.BlockTime)
			}
			return flattenTransaction(signature, result.Slot, blockTime, tx, result.Meta), nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("transaction not found")
		}

		if attempt < f.cfg.Retries {
			delay := f.cfg.RetryDelay * time.Duration(attempt)
			f.logger.WithFields(logrus.Fields{
				"signature": signature,
				"attempt":   attempt,
				"delay":     delay.String(),
			}).WithError(lastErr).Warn("🔄 Transaction fetch retry")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil, fmt.Errorf("getTransaction failed after %d attempts: %w", f.cfg.Retries, lastErr)
}

// flattenTransaction converts a decoded transaction into the decoder view:
// the full account key table (static keys plus lookup-table loaded
// addresses, writable first) and the top-level compiled instructions
func flattenTransaction(signature string, slot uint64, blockTime int64, tx *solana.Transaction, meta *rpc.TransactionMeta) *RawTransaction {
	keys := make([]common.PublicKey, 0, len(tx.Message.AccountKeys))
	for _, key := range tx.Message.AccountKeys {
		keys = append(keys, common.PublicKeyFromBytes(key.Bytes()))
	}
	if meta != nil {
		for _, key := range meta.LoadedAddresses.Writable {
			keys = append(keys, common.PublicKeyFromBytes(key.Bytes()))
		}
		for _, key := range meta.LoadedAddresses.ReadOnly {
			keys = append(keys, common.PublicKeyFromBytes(key.Bytes()))
		}
	}

	instructions := make([]Instruction, 0, len(tx.Message.Instructions))
	for _, ix := range tx.Message.Instructions {
		instructions = append(instructions, Instruction{
			ProgramIDIndex: ix.ProgramIDIndex,
			Accounts:       ix.Accounts,
			Data:           []byte(ix.Data),
		})
	}

	return &RawTransaction{
		Signature:    signature,
		Slot:         slot,
		BlockTime:    blockTime,
		AccountKeys:  keys,
		Instructions: instructions,
	}
}
