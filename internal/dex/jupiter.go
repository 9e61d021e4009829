package dex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"sol-copy-monitor/internal/client"
)

// Jupiter V6 swap instruction discriminators
var (
	RouteDiscriminator               = []byte{0xe5, 0x17, 0xcb, 0x97, 0x7a, 0xe3, 0xad, 0x42}
	SharedAccountsRouteDiscriminator = []byte{0xc1, 0x20, 0x9b, 0x33, 0x41, 0xd6, 0x9c, 0x81}
)

// Instruction account positions for Jupiter route instructions
const (
	jupiterInputAccountPos  = 1
	jupiterOutputAccountPos = 2
)

// JupiterDecoder decodes Jupiter V6 route instructions into trade signals
type JupiterDecoder struct{}

var _ Decoder = (*JupiterDecoder)(nil)

func NewJupiterDecoder() *JupiterDecoder {
	return &JupiterDecoder{}
}

func (d *JupiterDecoder) Variant() Variant {
	return VariantJupiter
}

// Decode extracts the swap amounts and token accounts from a route
// instruction. Amounts are little-endian u64 immediately after the 8-byte
// discriminator: amount_in then minimum_amount_out.
func (d *JupiterDecoder) Decode(tx *client.RawTransaction, ix client.Instruction) (*TradeSignal, error) {
	if !isJupiterSwap(ix.Data) {
		return nil, newDecodeError(VariantJupiter, "discriminator", ErrNoSwapInstruction)
	}

	if len(ix.Data) < 24 {
		return nil, newDecodeError(VariantJupiter, "amounts",
			fmt.Errorf("%w: data length %d", ErrMalformedInstruction, len(ix.Data)))
	}

	amountIn := binary.LittleEndian.Uint64(ix.Data[8:16])
	minAmountOut := binary.LittleEndian.Uint64(ix.Data[16:24])

	inputAccount, ok := tx.AccountAt(ix, jupiterInputAccountPos)
	if !ok {
		return nil, newDecodeError(VariantJupiter, "accounts",
			fmt.Errorf("%w: missing input token account", ErrMalformedInstruction))
	}
	outputAccount, ok := tx.AccountAt(ix, jupiterOutputAccountPos)
	if !ok {
		return nil, newDecodeError(VariantJupiter, "accounts",
			fmt.Errorf("%w: missing output token account", ErrMalformedInstruction))
	}

	return &TradeSignal{
		Signature:                tx.Signature,
		Slot:                     tx.Slot,
		Dex:                      VariantJupiter,
		InputAccount:             inputAccount,
		OutputAccount:            outputAccount,
		AmountIn:                 amountIn,
		MinAmountOut:             minAmountOut,
		SlippageBps:              slippageBps(amountIn, minAmountOut),
		PriorityFeeMicroLamports: extractPriorityFee(tx),
		ObservedAt:               time.Now(),
	}, nil
}

// isJupiterSwap reports whether the instruction data starts with a known
// route discriminator
func isJupiterSwap(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	discriminator := data[:8]
	return bytes.Equal(discriminator, RouteDiscriminator) ||
		bytes.Equal(discriminator, SharedAccountsRouteDiscriminator)
}
