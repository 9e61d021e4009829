package dex

import (
	"sol-copy-monitor/internal/client"
)

// RaydiumDecoder is the placeholder for Raydium AMM V4 swapBaseIn/swapBaseOut
// decoding. Classification works today; decoding returns ErrNotImplemented
// until the instruction layout is wired in.
type RaydiumDecoder struct{}

var _ Decoder = (*RaydiumDecoder)(nil)

func NewRaydiumDecoder() *RaydiumDecoder {
	return &RaydiumDecoder{}
}

func (d *RaydiumDecoder) Variant() Variant {
	return VariantRaydium
}

func (d *RaydiumDecoder) Decode(tx *client.RawTransaction, ix client.Instruction) (*TradeSignal, error) {
	return nil, newDecodeError(VariantRaydium, "decode", ErrNotImplemented)
}
