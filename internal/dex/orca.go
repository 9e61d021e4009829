package dex

import (
	"sol-copy-monitor/internal/client"
)

// OrcaDecoder is the placeholder for Orca Whirlpool swap decoding.
// Classification works today; decoding returns ErrNotImplemented until the
// instruction layout is wired in.
type OrcaDecoder struct{}

var _ Decoder = (*OrcaDecoder)(nil)

func NewOrcaDecoder() *OrcaDecoder {
	return &OrcaDecoder{}
}

func (d *OrcaDecoder) Variant() Variant {
	return VariantOrca
}

func (d *OrcaDecoder) Decode(tx *client.RawTransaction, ix client.Instruction) (*TradeSignal, error) {
	return nil, newDecodeError(VariantOrca, "decode", ErrNotImplemented)
}
