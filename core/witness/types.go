// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package witness builds and represents the execution witness a block's
// stateless re-execution needs: every account, storage slot, contract
// code, and recent block hash a block's transactions actually touched,
// each proven against the block's pre-state root. The zkvm package
// consumes what this package produces.
package witness

import (
	"github.com/corechain/execd/common"
)

// StorageProof is one storage slot's inclusion or exclusion MPT proof
// against the owning account's pre-state storage root.
type StorageProof struct {
	Slot  common.Hash
	Proof [][]byte
}

// AccountProof is one account's inclusion or exclusion MPT proof against
// the block's pre-state root, plus the storage proofs for every slot of
// that account any transaction in the block read.
type AccountProof struct {
	Address common.Address
	Proof   [][]byte
	Storage []StorageProof
}

// CodeEntry carries the bytecode for a code hash some transaction's
// CODECOPY/CALL/EXTCODEHASH read resolved, since the witness's proofs
// only cover trie nodes — contract code itself lives outside any trie.
type CodeEntry struct {
	Hash common.Hash
	Code []byte
}

// BlockHashEntry carries one BLOCKHASH resolution; only the 256 most
// recent blocks are ever a valid argument, so a witness never needs more
// than 256 of these regardless of how large the replayed block is.
type BlockHashEntry struct {
	Number uint64
	Hash   common.Hash
}

// Witness is everything a block's stateless re-execution needs beyond
// the block itself: proofs tying every touched account/slot to the
// pre-state root, the bytecode behind every touched code hash, and the
// block hashes any BLOCKHASH opcode resolved during the original
// execution. RLP round-trips through the package's ordinary
// reflection-based struct encoding (maps are never used so field order
// stays deterministic across encode/decode).
type Witness struct {
	PreStateRoot common.Hash
	Accounts     []AccountProof
	Codes        []CodeEntry
	BlockHashes  []BlockHashEntry
}

// AccountProofFor returns the proof for addr and whether it was recorded.
func (w *Witness) AccountProofFor(addr common.Address) (AccountProof, bool) {
	for _, a := range w.Accounts {
		if a.Address == addr {
			return a, true
		}
	}
	return AccountProof{}, false
}

// CodeFor returns the bytecode recorded for hash and whether it was found.
func (w *Witness) CodeFor(hash common.Hash) ([]byte, bool) {
	for _, c := range w.Codes {
		if c.Hash == hash {
			return c.Code, true
		}
	}
	return nil, false
}

// BlockHashFor returns the hash recorded for number and whether it was found.
func (w *Witness) BlockHashFor(number uint64) (common.Hash, bool) {
	for _, b := range w.BlockHashes {
		if b.Number == number {
			return b.Hash, true
		}
	}
	return common.Hash{}, false
}
