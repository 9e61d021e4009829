package dex

import (
	"github.com/blocto/solana-go-sdk/common"

	"sol-copy-monitor/internal/client"
	"sol-copy-monitor/internal/config"
)

// Variant identifies which DEX a swap instruction belongs to
type Variant int

const (
	VariantUnknown Variant = iota
	VariantJupiter
	VariantRaydium
	VariantOrca
)

func (v Variant) String() string {
	switch v {
	case VariantJupiter:
		return "jupiter"
	case VariantRaydium:
		return "raydium"
	case VariantOrca:
		return "orca"
	default:
		return "unknown"
	}
}

type registryEntry struct {
	programID common.PublicKey
	variant   Variant
}

// Registry maps known DEX program IDs to their variant. Entries are ordered
// and classification is first-match-wins, so a transaction routing through
// multiple known programs is attributed to the earliest registered one.
type Registry struct {
	entries []registryEntry
}

// NewRegistry creates a registry preloaded with the supported DEX programs
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(config.JupiterV6ProgramID, VariantJupiter)
	r.Register(config.RaydiumV4ProgramID, VariantRaydium)
	r.Register(config.OrcaWhirlpoolProgramID, VariantOrca)
	return r
}

// Register appends a program ID mapping. Later registrations never shadow
// earlier ones for the same program.
func (r *Registry) Register(programID common.PublicKey, variant Variant) {
	r.entries = append(r.entries, registryEntry{programID: programID, variant: variant})
}

// Lookup returns the variant for a single program ID
func (r *Registry) Lookup(programID common.PublicKey) Variant {
	for _, entry := range r.entries {
		if entry.programID == programID {
			return entry.variant
		}
	}
	return VariantUnknown
}

// Identify classifies a transaction by scanning its instructions in order
// and returning the variant of the first one whose program is registered,
// along with that instruction. A transaction touching multiple known DEX
// programs is attributed to the earliest instruction.
func (r *Registry) Identify(tx *client.RawTransaction) (Variant, client.Instruction, bool) {
	for _, ix := range tx.Instructions {
		programID, ok := tx.ProgramID(ix)
		if !ok {
			continue
		}
		if variant := r.Lookup(programID); variant != VariantUnknown {
			return variant, ix, true
		}
	}
	return VariantUnknown, client.Instruction{}, false
}
