// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package witness

import (
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/state"
)

// Tracer wraps a live *state.StateDB and records every account, storage
// slot, and code hash any read method resolves, without altering the
// read's result or any write behavior (writes pass straight through to
// the embedded StateDB unchanged). Wrapping rather than re-implementing
// state.StateDB's 31-method vm.StateDB surface keeps every other read
// (balance/nonce passthrough plumbing, write journaling, access lists)
// exactly as state.StateDB already implements it; only the handful of
// methods a proof must eventually cover are overridden here.
type Tracer struct {
	*state.StateDB

	accounts    map[common.Address]struct{}
	storage     map[common.Address]map[common.Hash]struct{}
	codes       map[common.Hash]struct{}
	blockHashes map[uint64]struct{}
}

// Wrap returns a Tracer recording reads made through it against sdb.
func Wrap(sdb *state.StateDB) *Tracer {
	return &Tracer{
		StateDB:     sdb,
		accounts:    make(map[common.Address]struct{}),
		storage:     make(map[common.Address]map[common.Hash]struct{}),
		codes:       make(map[common.Hash]struct{}),
		blockHashes: make(map[uint64]struct{}),
	}
}

func (t *Tracer) touchAccount(addr common.Address) { t.accounts[addr] = struct{}{} }

func (t *Tracer) touchSlot(addr common.Address, slot common.Hash) {
	t.touchAccount(addr)
	m, ok := t.storage[addr]
	if !ok {
		m = make(map[common.Hash]struct{})
		t.storage[addr] = m
	}
	m[slot] = struct{}{}
}

func (t *Tracer) GetBalance(addr common.Address) *big.Int {
	t.touchAccount(addr)
	return t.StateDB.GetBalance(addr)
}

func (t *Tracer) GetNonce(addr common.Address) uint64 {
	t.touchAccount(addr)
	return t.StateDB.GetNonce(addr)
}

func (t *Tracer) Exist(addr common.Address) bool {
	t.touchAccount(addr)
	return t.StateDB.Exist(addr)
}

func (t *Tracer) Empty(addr common.Address) bool {
	t.touchAccount(addr)
	return t.StateDB.Empty(addr)
}

func (t *Tracer) GetCodeHash(addr common.Address) common.Hash {
	t.touchAccount(addr)
	hash := t.StateDB.GetCodeHash(addr)
	if !hash.IsZero() {
		t.codes[hash] = struct{}{}
	}
	return hash
}

func (t *Tracer) GetCode(addr common.Address) []byte {
	t.touchAccount(addr)
	code := t.StateDB.GetCode(addr)
	if hash := t.StateDB.GetCodeHash(addr); !hash.IsZero() {
		t.codes[hash] = struct{}{}
	}
	return code
}

func (t *Tracer) GetState(addr common.Address, key common.Hash) common.Hash {
	t.touchSlot(addr, key)
	return t.StateDB.GetState(addr, key)
}

func (t *Tracer) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	t.touchSlot(addr, key)
	return t.StateDB.GetCommittedState(addr, key)
}

// WrapGetHash returns a BLOCKHASH resolver that records every block
// number looked up before delegating to getHash, the way the block
// executor's vm.BlockContext.GetHash field expects.
func (t *Tracer) WrapGetHash(getHash func(uint64) common.Hash) func(uint64) common.Hash {
	return func(num uint64) common.Hash {
		t.blockHashes[num] = struct{}{}
		return getHash(num)
	}
}

// TouchedAccounts returns every address read through this tracer.
func (t *Tracer) TouchedAccounts() map[common.Address]struct{} { return t.accounts }

// TouchedStorage returns every (address, slot) pair read through this tracer.
func (t *Tracer) TouchedStorage() map[common.Address]map[common.Hash]struct{} { return t.storage }

// TouchedCodes returns every code hash resolved through this tracer.
func (t *Tracer) TouchedCodes() map[common.Hash]struct{} { return t.codes }

// TouchedBlockHashes returns every block number BLOCKHASH looked up
// through the resolver WrapGetHash returned.
func (t *Tracer) TouchedBlockHashes() map[uint64]struct{} { return t.blockHashes }
