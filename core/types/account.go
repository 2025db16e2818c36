// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.
package types

import (
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// StateAccount is the RLP-encoded value stored in the world-state trie at
// keccak(address).
type StateAccount struct {
	Nonce       uint64
	Balance     *big.Int
	StorageRoot common.Hash
	CodeHash    []byte
}

// EmptyStateAccount returns a fresh zero-value account with canonical
// storage root and code hash, the value new accounts start from.
func EmptyStateAccount() *StateAccount {
	return &StateAccount{
		Balance:     new(big.Int),
		StorageRoot: common.KeccakEmptyTrie,
		CodeHash:    common.KeccakEmpty.Bytes(),
	}
}

// IsEmpty reports whether the account satisfies EIP-161 emptiness: zero
// nonce, zero balance, and no code.
func (a *StateAccount) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.Sign() == 0) &&
		common.BytesToHash(a.CodeHash) == common.KeccakEmpty
}

// Copy returns a deep copy safe to mutate independently.
func (a *StateAccount) Copy() *StateAccount {
	cp := &StateAccount{
		Nonce:       a.Nonce,
		Balance:     new(big.Int),
		StorageRoot: a.StorageRoot,
		CodeHash:    common.CopyBytes(a.CodeHash),
	}
	if a.Balance != nil {
		cp.Balance.Set(a.Balance)
	}
	return cp
}

// EncodeRLP is the canonical account encoding stored in the trie.
func (a *StateAccount) EncodeRLP() ([]byte, error) {
	balance := a.Balance
	if balance == nil {
		balance = new(big.Int)
	}
	return rlp.NewList().
		Add(a.Nonce).
		Add(*balance).
		Add(a.StorageRoot).
		Add(a.CodeHash).
		Bytes()
}

// DecodeAccountRLP decodes the trie-stored account value.
func DecodeAccountRLP(data []byte) (*StateAccount, error) {
	var raw struct {
		Nonce       uint64
		Balance     big.Int
		StorageRoot common.Hash
		CodeHash    []byte
	}
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return nil, err
	}
	return &StateAccount{
		Nonce:       raw.Nonce,
		Balance:     &raw.Balance,
		StorageRoot: raw.StorageRoot,
		CodeHash:    raw.CodeHash,
	}, nil
}
