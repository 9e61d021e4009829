package dex

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sirupsen/logrus"

	"sol-copy-monitor/internal/client"
	"sol-copy-monitor/internal/config"
)

// TradeSignal is the decoded outcome of one swap by the tracked wallet
type TradeSignal struct {
	Signature     string
	Slot          uint64
	Dex           Variant
	InputAccount  common.PublicKey
	OutputAccount common.PublicKey
	AmountIn      uint64
	MinAmountOut  uint64

	// SlippageBps is the tolerance implied by amount_in vs min_amount_out,
	// in basis points
	SlippageBps uint16

	// FeeBps is the DEX platform fee when the instruction exposes one,
	// zero otherwise
	FeeBps uint16

	// PriorityFeeMicroLamports is the compute unit price the tracked wallet
	// attached, zero when no ComputeBudget instruction was present
	PriorityFeeMicroLamports uint64

	ObservedAt time.Time
}

// LogFields returns structured fields for logging this signal
func (s *TradeSignal) LogFields() logrus.Fields {
	return logrus.Fields{
		"signature":      s.Signature,
		"slot":           s.Slot,
		"dex":            s.Dex.String(),
		"input_account":  s.InputAccount.ToBase58(),
		"output_account": s.OutputAccount.ToBase58(),
		"amount_in":      s.AmountIn,
		"min_amount_out": s.MinAmountOut,
		"slippage_bps":   s.SlippageBps,
	}
}

// Description returns a one-line human readable summary
func (s *TradeSignal) Description() string {
	return fmt.Sprintf("%s swap %d -> min %d (slippage %d bps) sig=%s",
		s.Dex, s.AmountIn, s.MinAmountOut, s.SlippageBps, s.Signature)
}

// SolscanURL returns the explorer link for the source transaction
func (s *TradeSignal) SolscanURL() string {
	return "https://solscan.io/tx/" + s.Signature
}

// slippageBps derives the tolerance implied by the swap amounts. A zero
// min_amount_out means no minimum was set, and a min_amount_out above
// amount_in (cross-decimal swaps) carries no usable tolerance; both yield
// zero.
func slippageBps(amountIn, minAmountOut uint64) uint16 {
	if amountIn == 0 || minAmountOut == 0 || minAmountOut >= amountIn {
		return 0
	}
	return uint16((amountIn - minAmountOut) * 10_000 / amountIn)
}

// ComputeBudget SetComputeUnitPrice opcode
const computeUnitPriceOpcode = 0x03

// extractPriorityFee scans the transaction for a ComputeBudget
// SetComputeUnitPrice instruction and returns its micro-lamport price
func extractPriorityFee(tx *client.RawTransaction) uint64 {
	for _, ix := range tx.Instructions {
		programID, ok := tx.ProgramID(ix)
		if !ok || programID != config.ComputeBudgetProgramID {
			continue
		}
		if len(ix.Data) < 9 || ix.Data[0] != computeUnitPriceOpcode {
			continue
		}
		return binary.LittleEndian.Uint64(ix.Data[1:9])
	}
	return 0
}
