// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package zkvm

import (
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/core/witness"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/triedb"
)

// GuestContext is the restricted environment a stateless proof replay
// runs in: a block plus its witness, and nothing else — no live trie,
// no peer network, no access to any state the witness didn't already
// prove.
type GuestContext struct {
	config *chainconfig.ChainConfig
	w      *witness.Witness
	parent *types.Header
}

// NewGuestContext builds a guest context from a witness produced by
// core/witness.Build against the block this guest will replay.
func NewGuestContext(config *chainconfig.ChainConfig, w *witness.Witness, parent *types.Header) *GuestContext {
	return &GuestContext{config: config, w: w, parent: parent}
}

// Execute replays block statelessly: every account/storage/code/
// block-hash read the original execution made is satisfied purely from
// the witness's proofs, verified against the witness's own claimed
// pre-state root before any of it is trusted. The resulting state root,
// receipts root and gas used are cross-checked against the block's
// header exactly as block.Executor.Execute already does for a
// trie-backed run — the witness path and the live path share that one
// assertion surface.
func (g *GuestContext) Execute(blk *types.Block) (*ExecutionResult, error) {
	if g.parent != nil && g.w.PreStateRoot != g.parent.Root {
		return nil, fmt.Errorf("zkvm: witness pre-state root %s does not match parent state root %s", g.w.PreStateRoot, g.parent.Root)
	}
	if err := VerifyWitness(g.w); err != nil {
		return nil, err
	}

	nodeDB, err := reconstructTrieNodes(g.w)
	if err != nil {
		return nil, err
	}
	sdb := state.NewDatabase(nodeDB)
	for _, c := range g.w.Codes {
		sdb.PutContractCode(c.Hash, c.Code)
	}

	statedb, err := state.New(g.w.PreStateRoot, sdb)
	if err != nil {
		return nil, fmt.Errorf("zkvm: opening witness pre-state: %w", err)
	}

	getHash := func(num uint64) common.Hash {
		h, _ := g.w.BlockHashFor(num)
		return h
	}
	executor := block.NewExecutor(g.config, sdb, getHash)
	result, err := executor.Execute(blk, g.parent, statedb)
	if err != nil {
		return nil, fmt.Errorf("zkvm: stateless replay: %w", err)
	}

	return &ExecutionResult{
		PreStateRoot:  g.w.PreStateRoot,
		PostStateRoot: result.StateRoot,
		ReceiptsRoot:  block.DeriveReceiptsRoot(result.Receipts),
		GasUsed:       result.GasUsed,
		Success:       true,
	}, nil
}

// ExecutionResult is the outcome of a guest replay; MockBackend copies
// its roots into the proof's PublicInputs.
type ExecutionResult struct {
	PreStateRoot  common.Hash
	PostStateRoot common.Hash
	ReceiptsRoot  common.Hash
	GasUsed       uint64
	Success       bool
}

// reconstructTrieNodes rebuilds a content-addressed node store purely
// from the witness's proof lists: every node Prove walked on the way to
// (or the point of divergence from) a touched key. A read the original
// execution made resolves the same way here as it did live, since the
// same path was recorded; a write that perturbs only nodes already on a
// proven path succeeds the same way. Writes that would need to descend
// into a subtree no proof ever touched cannot happen, because the
// pre-image execution that produced this witness never read (and so
// never could have written under) that subtree either.
func reconstructTrieNodes(w *witness.Witness) (*triedb.Database, error) {
	nodes := triedb.New(triedb.DefaultConfig())
	put := func(raw []byte) {
		nodes.Put(common.Keccak256Hash(raw), raw)
	}
	for _, acct := range w.Accounts {
		for _, raw := range acct.Proof {
			put(raw)
		}
		for _, sp := range acct.Storage {
			for _, raw := range sp.Proof {
				put(raw)
			}
		}
	}
	return nodes, nil
}
