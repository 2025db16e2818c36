// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package chainstore is execd's canonical-chain bookkeeping: the head
// pointer and the by-number/by-hash block index every other component
// (the L2 Block Producer, the State Updater, `import`/`export`) reads
// and writes through, backed by the same core/state.Database the block
// executor commits state into. Grounded on luxfi-evm's own
// core/blockchain.go header/body index, narrowed down to exactly the
// surface this module's single-process, single-writer execd needs (no
// fork-choice, no reorg handling — the L2 Block Producer is the only
// writer and it only ever extends the chain).
package chainstore

import (
	"fmt"
	"sync"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/chainconfig"
)

// Store is an in-memory canonical chain index atop a state.Database.
// Safe for concurrent use by the L2 actors (one writer, many readers).
type Store struct {
	mu       sync.RWMutex
	db       *state.Database
	config   *chainconfig.ChainConfig
	byNumber map[uint64]*types.Block
	byHash   map[common.Hash]*types.Block
	head     *types.Header
}

// New seeds a Store with genesis as block 0 and the current head.
func New(db *state.Database, config *chainconfig.ChainConfig, genesis *types.Block) *Store {
	s := &Store{
		db:       db,
		config:   config,
		byNumber: make(map[uint64]*types.Block),
		byHash:   make(map[common.Hash]*types.Block),
	}
	s.byNumber[0] = genesis
	s.byHash[genesis.Hash()] = genesis
	s.head = genesis.Header()
	return s
}

// Head returns the current canonical head header.
func (s *Store) Head() *types.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.head
}

// StateAt opens a StateDB at root against the shared trie database —
// every block this store has ever committed shares db, so any
// previously-committed root is reachable regardless of how long ago it
// was canonical.
func (s *Store) StateAt(root common.Hash) (*state.StateDB, error) {
	return state.New(root, s.db)
}

// InsertBlock records blk as the new canonical head. The caller (the L2
// State Updater) is responsible for having already committed blk's state
// root into the same state.Database this Store was built with; InsertBlock
// only rejects a block that does not extend the current head.
func (s *Store) InsertBlock(blk *types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	header := blk.Header()
	if header.ParentHash != s.head.Hash() {
		return fmt.Errorf("chainstore: block %d does not extend head %d (%s != %s)", header.Number, s.head.Number, header.ParentHash, s.head.Hash())
	}
	s.byNumber[header.Number.Uint64()] = blk
	s.byHash[blk.Hash()] = blk
	s.head = header
	return nil
}

// BlockByNumber returns the canonical block at number, if any.
func (s *Store) BlockByNumber(number uint64) (*types.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byNumber[number]
	return b, ok
}

// BlockByHash returns the block with the given hash, if any.
func (s *Store) BlockByHash(hash common.Hash) (*types.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHash[hash]
	return b, ok
}

// Import re-executes and inserts blk as the next block after the current
// head, the shared path both the `import` subcommand and any non-actor
// block ingestion (e.g. a future full-sync follower) uses.
func (s *Store) Import(executor *block.Executor, blk *types.Block) error {
	s.mu.RLock()
	parent := s.head
	s.mu.RUnlock()

	statedb, err := s.StateAt(parent.Root)
	if err != nil {
		return fmt.Errorf("chainstore: opening parent state: %w", err)
	}
	if _, err := executor.Execute(blk, parent, statedb); err != nil {
		return fmt.Errorf("chainstore: executing block %d: %w", blk.NumberU64(), err)
	}
	rules := s.config.Rules(blk.Header().Number, blk.Header().Time)
	if _, err := statedb.Commit(rules.IsEIP158); err != nil {
		return fmt.Errorf("chainstore: committing block %d: %w", blk.NumberU64(), err)
	}
	return s.InsertBlock(blk)
}
