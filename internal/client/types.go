package client

import (
	"github.com/blocto/solana-go-sdk/common"
)

// NotificationEvent is a single logsNotification delivered by the subscription
type NotificationEvent struct {
	Signature string
	Slot      uint64
	Logs      []string
	Err       interface{} // non-nil when the transaction failed on-chain
}

// Instruction is one top-level instruction of a fetched transaction
type Instruction struct {
	ProgramIDIndex uint16
	Accounts       []uint16
	Data           []byte
}

// RawTransaction is the flattened view of a confirmed transaction used by
// the decoders: the full account key table plus top-level instructions
type RawTransaction struct {
	Signature    string
	Slot         uint64
	BlockTime    int64
	AccountKeys  []common.PublicKey
	Instructions []Instruction
}

// ProgramID resolves an instruction's program account, returning false when
// the index points outside the key table
func (tx *RawTransaction) ProgramID(ix Instruction) (common.PublicKey, bool) {
	if int(ix.ProgramIDIndex) >= len(tx.AccountKeys) {
		return common.PublicKey{}, false
	}
	return tx.AccountKeys[ix.ProgramIDIndex], true
}

// AccountAt resolves an instruction-relative account position to a key from
// the table, returning false on any out-of-range index
func (tx *RawTransaction) AccountAt(ix Instruction, pos int) (common.PublicKey, bool) {
	if pos < 0 || pos >= len(ix.Accounts) {
		return common.PublicKey{}, false
	}
	keyIdx := int(ix.Accounts[pos])
	if keyIdx >= len(tx.AccountKeys) {
		return common.PublicKey{}, false
	}
	return tx.AccountKeys[keyIdx], true
}
