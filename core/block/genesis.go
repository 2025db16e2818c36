// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package block

import (
	"fmt"
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
)

// GenesisAlloc is the initial account balances/code/storage a chain
// starts from, keyed by address — the in-memory shape a `compute-state-root`
// or `run` invocation decodes its genesis file into before ToBlock builds
// the real trie and header from it.
type GenesisAlloc map[common.Address]GenesisAccount

// GenesisAccount is one genesis-time account's starting state.
type GenesisAccount struct {
	Balance *big.Int
	Nonce   uint64
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// Genesis is the chain's starting configuration: the initial account set
// plus the handful of header fields a genesis block fixes for the life of
// the chain (nothing here has a parent to inherit from).
type Genesis struct {
	ChainID    uint64
	GasLimit   uint64
	Timestamp  uint64
	ExtraData  []byte
	Difficulty *big.Int
	Coinbase   common.Address
	Alloc      GenesisAlloc
}

// ToBlock writes g.Alloc into a fresh world-state trie rooted at db,
// commits it, and returns the resulting genesis block — number 0, no
// parent, no transactions. An empty alloc on mainnet genesis leaves the
// post-state root equal to the pre-state (empty-trie) root, computed
// once here and sealed into block 0 rather than diffed against anything.
func (g *Genesis) ToBlock(db *state.Database) (*types.Block, error) {
	statedb, err := state.New(common.Hash{}, db)
	if err != nil {
		return nil, fmt.Errorf("block: opening empty genesis trie: %w", err)
	}
	for addr, acct := range g.Alloc {
		statedb.CreateAccount(addr)
		if acct.Balance != nil {
			statedb.SetBalance(addr, acct.Balance)
		}
		if acct.Nonce != 0 {
			statedb.SetNonce(addr, acct.Nonce)
		}
		if len(acct.Code) > 0 {
			statedb.SetCode(addr, acct.Code)
		}
		for k, v := range acct.Storage {
			statedb.SetState(addr, k, v)
		}
	}
	root, err := statedb.Commit(false)
	if err != nil {
		return nil, fmt.Errorf("block: committing genesis state: %w", err)
	}

	difficulty := g.Difficulty
	if difficulty == nil {
		difficulty = new(big.Int)
	}
	header := &types.Header{
		ParentHash:  common.Hash{},
		Root:        root,
		TxHash:      EmptyRootsHash(),
		ReceiptHash: EmptyRootsHash(),
		Difficulty:  difficulty,
		Number:      new(big.Int),
		GasLimit:    g.GasLimit,
		GasUsed:     0,
		Time:        g.Timestamp,
		Extra:       g.ExtraData,
		Coinbase:    g.Coinbase,
	}
	return types.NewBlock(header, types.Body{}), nil
}

// EmptyRootsHash is the root of the RLP empty-list Merkle-Patricia trie,
// the transactions/receipts root every block with no transactions
// shares, including an empty genesis block.
func EmptyRootsHash() common.Hash {
	return DeriveReceiptsRoot(nil)
}
