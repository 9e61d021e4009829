package client

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
)

func testKeys(n int) []common.PublicKey {
	keys := make([]common.PublicKey, n)
	for i := range keys {
		keys[i][0] = byte(i + 1)
	}
	return keys
}

func TestRawTransaction_ProgramID(t *testing.T) {
	tx := &RawTransaction{AccountKeys: testKeys(3)}

	ix := Instruction{ProgramIDIndex: 2}
	key, ok := tx.ProgramID(ix)
	if !ok {
		t.Fatal("expected program ID to resolve")
	}
	if key != tx.AccountKeys[2] {
		t.Error("resolved wrong key")
	}

	if _, ok := tx.ProgramID(Instruction{ProgramIDIndex: 3}); ok {
		t.Error("out-of-range program index should not resolve")
	}
}

func TestRawTransaction_AccountAt(t *testing.T) {
	tx := &RawTransaction{AccountKeys: testKeys(4)}
	ix := Instruction{Accounts: []uint16{3, 1}}

	key, ok := tx.AccountAt(ix, 1)
	if !ok {
		t.Fatal("expected account to resolve")
	}
	if key != tx.AccountKeys[1] {
		t.Error("resolved wrong key")
	}

	if _, ok := tx.AccountAt(ix, 2); ok {
		t.Error("position past instruction accounts should not resolve")
	}
	if _, ok := tx.AccountAt(ix, -1); ok {
		t.Error("negative position should not resolve")
	}

	// Account index pointing past the key table
	bad := Instruction{Accounts: []uint16{9}}
	if _, ok := tx.AccountAt(bad, 0); ok {
		t.Error("dangling key index should not resolve")
	}
}
