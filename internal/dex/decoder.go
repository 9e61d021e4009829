package dex

import (
	"errors"
	"fmt"

	"sol-copy-monitor/internal/client"
)

var (
	// ErrNotImplemented marks a DEX whose decoder is registered but not yet built
	ErrNotImplemented = errors.New("decoder not implemented")

	// ErrNoSwapInstruction means the program matched but the instruction is
	// not a recognized swap
	ErrNoSwapInstruction = errors.New("no swap instruction")

	// ErrMalformedInstruction means a recognized swap instruction carried
	// truncated or inconsistent data
	ErrMalformedInstruction = errors.New("malformed swap instruction")
)

// Decoder extracts a trade signal from one instruction of a classified transaction
type Decoder interface {
	Variant() Variant
	Decode(tx *client.RawTransaction, ix client.Instruction) (*TradeSignal, error)
}

// DecodeError wraps a decoder failure with the DEX and pipeline stage it
// occurred in
type DecodeError struct {
	Variant Variant
	Stage   string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode failed at %s: %v", e.Variant, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(variant Variant, stage string, err error) *DecodeError {
	return &DecodeError{Variant: variant, Stage: stage, Err: err}
}
