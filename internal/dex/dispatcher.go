package dex

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/sirupsen/logrus"

	"sol-copy-monitor/internal/client"
)

// Dispatcher classifies fetched transactions against the program registry
// and routes them to the matching decoder
type Dispatcher struct {
	registry *Registry
	decoders map[Variant]Decoder
	logger   *logrus.Logger
}

// NewDispatcher creates a dispatcher with the default registry and decoders
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(),
		decoders: make(map[Variant]Decoder),
		logger:   logger,
	}
	d.RegisterDecoder(NewJupiterDecoder())
	d.RegisterDecoder(NewRaydiumDecoder())
	d.RegisterDecoder(NewOrcaDecoder())
	return d
}

// NewDispatcherWith creates a dispatcher from an explicit registry and
// decoder set
func NewDispatcherWith(registry *Registry, decoders []Decoder, logger *logrus.Logger) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		decoders: make(map[Variant]Decoder),
		logger:   logger,
	}
	for _, decoder := range decoders {
		d.RegisterDecoder(decoder)
	}
	return d
}

// RegisterDecoder installs a decoder for its variant
func (d *Dispatcher) RegisterDecoder(decoder Decoder) {
	d.decoders[decoder.Variant()] = decoder
}

// Dispatch classifies the transaction and decodes its swap. A transaction
// touching no registered DEX program returns (nil, nil) and is skipped.
// Decoders are tried against every instruction of the matched program; the
// first successful decode wins.
func (d *Dispatcher) Dispatch(tx *client.RawTransaction) (*TradeSignal, error) {
	variant, _, ok := d.registry.Identify(tx)
	if !ok {
		d.logger.WithField("signature", tx.Signature).Debug("❓ No registered DEX program in transaction")
		return nil, nil
	}

	decoder, ok := d.decoders[variant]
	if !ok {
		d.logger.WithFields(logrus.Fields{
			"signature": tx.Signature,
			"dex":       variant.String(),
		}).Warn("⚠️ No decoder registered for matched DEX")
		return nil, nil
	}

	programID := d.programIDFor(variant)

	var lastErr error
	for _, ix := range tx.Instructions {
		ixProgram, ok := tx.ProgramID(ix)
		if !ok || ixProgram != programID {
			continue
		}

		signal, err := decoder.Decode(tx, ix)
		if err == nil {
			return signal, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (d *Dispatcher) programIDFor(variant Variant) (programID common.PublicKey) {
	for _, entry := range d.registry.entries {
		if entry.variant == variant {
			return entry.programID
		}
	}
	return
}
