// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"context"
	"fmt"

	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/core/witness"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/rlp"
)

// ChainWriter is the narrow canonical-chain mutation surface the State
// Updater needs: persist a block (header plus body) as the new canonical
// head once its state root has been committed to the trie database.
type ChainWriter interface {
	Chain
	InsertBlock(blk *types.Block) error
}

// StateUpdater re-executes a Block Producer's candidate block against
// the persistent trie database, commits the resulting state, and
// advances the canonical head — mirroring the real/propose split a
// miner-and-blockchain pair keeps in a single-node setting: the Block
// Producer only ever touches throwaway state to compute roots, and only
// the State Updater's Commit makes a block's state durable and
// canonical.
type StateUpdater struct {
	config   *chainconfig.ChainConfig
	executor *block.Executor
	chain    ChainWriter
	in       BlockInbox
	out      Mailbox
	diffs    *DiffStore
	log      *xlog.Logger
}

func NewStateUpdater(config *chainconfig.ChainConfig, executor *block.Executor, chain ChainWriter, in BlockInbox, out Mailbox, diffs *DiffStore, log *xlog.Logger) *StateUpdater {
	return &StateUpdater{config: config, executor: executor, chain: chain, in: in, out: out, diffs: diffs, log: log.With("actor", "state-updater")}
}

func (u *StateUpdater) Name() string { return "state-updater" }

func (u *StateUpdater) Run(ctx context.Context) error {
	for {
		blk, err := u.in.Recv(ctx)
		if err != nil {
			return nil // context cancelled
		}
		if err := u.apply(ctx, blk); err != nil {
			u.log.Error("rejecting candidate block", "number", blk.NumberU64(), "err", err)
			continue
		}
		if err := u.out.Post(ctx, blk); err != nil {
			return fmt.Errorf("state-updater: posting block %d: %w", blk.NumberU64(), err)
		}
	}
}

// apply re-executes blk against durable state, commits it, verifies the
// committed root matches what the Block Producer already computed (a
// cheap consistency check — re-execution is deterministic, so any
// mismatch means either state corruption or a non-deterministic
// precompile, both of which must halt rather than silently diverge),
// and advances the canonical head.
func (u *StateUpdater) apply(ctx context.Context, blk *types.Block) error {
	header := blk.Header()
	parent := u.chain.Head()
	if parent.Hash() != header.ParentHash {
		return fmt.Errorf("parent hash mismatch: head is %d (%s), block wants parent %s", parent.Number, parent.Hash(), header.ParentHash)
	}

	statedb, err := u.chain.StateAt(parent.Root)
	if err != nil {
		return fmt.Errorf("opening durable state at parent root: %w", err)
	}
	before, err := u.chain.StateAt(parent.Root)
	if err != nil {
		return fmt.Errorf("opening pre-state at parent root: %w", err)
	}

	result, err := u.executor.ExecuteRaw(u.executor.BlockContext(header), header, blk.Transactions(), statedb)
	if err != nil {
		return fmt.Errorf("re-executing block %d: %w", header.Number, err)
	}
	if result.StateRoot != header.Root {
		return fmt.Errorf("state root mismatch at block %d: recomputed %s, header has %s", header.Number, result.StateRoot, header.Root)
	}

	rules := u.config.Rules(header.Number, header.Time)
	committedRoot, err := statedb.Commit(rules.IsEIP158)
	if err != nil {
		return fmt.Errorf("committing state for block %d: %w", header.Number, err)
	}
	if committedRoot != header.Root {
		return fmt.Errorf("committed root mismatch at block %d: committed %s, header has %s", header.Number, committedRoot, header.Root)
	}

	if err := u.chain.InsertBlock(blk); err != nil {
		return fmt.Errorf("advancing head to block %d: %w", header.Number, err)
	}
	if u.diffs != nil {
		blockRLP, witnessRLP := u.buildGuestMaterial(blk, parent)
		u.diffs.record(blk, before, result.Touched, result.Receipts, blockRLP, witnessRLP)
	}
	u.log.Info("committed block", "number", header.Number, "root", header.Root, "txs", len(blk.Transactions()))
	return nil
}

// buildGuestMaterial replays blk a second time through a Tracer-wrapped
// StateDB to produce its execution witness, then RLP-encodes both block
// and witness for the Proof Coordinator's GuestInput. Replay failures are
// logged and swallowed rather than rejecting the block: the block is
// already durable and canonical by the time this runs, so a witness
// problem can only cost this batch its proof, not the chain's
// consistency. No historical-header map is threaded through here, so any
// BLOCKHASH read during replay resolves to the zero hash — acceptable for
// now since no L2 predeploy or privileged transaction relies on it.
func (u *StateUpdater) buildGuestMaterial(blk *types.Block, parent *types.Header) (blockRLP, witnessRLP []byte) {
	w, err := witness.Replay(u.config, u.executor.Database(), parent.Root, blk.Header(), blk.Transactions(), nil)
	if err != nil {
		u.log.Error("witness replay failed, batch containing this block cannot be proved", "number", blk.NumberU64(), "err", err)
		return nil, nil
	}
	blockRLP, err = blk.EncodeRLP()
	if err != nil {
		u.log.Error("encoding block for guest input failed", "number", blk.NumberU64(), "err", err)
		return nil, nil
	}
	witnessRLP, err = rlp.EncodeToBytes(w)
	if err != nil {
		u.log.Error("encoding witness for guest input failed", "number", blk.NumberU64(), "err", err)
		return nil, nil
	}
	return blockRLP, witnessRLP
}
