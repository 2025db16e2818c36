// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package witness

import (
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/chainconfig"
)

// Replay drives header's transactions through executor exactly as a
// live block execution would, but against a Tracer wrapping a StateDB
// freshly opened at parentRoot — recording every account/slot/code/
// block-hash read along the way — and hands the result to Build. This
// is the seam between ordinary block execution and the Proof
// Coordinator: the State Updater calls this once a block is committed
// to produce the witness that accompanies it into a GuestInput.
//
// It deliberately does not reuse the StateDB the State Updater already
// committed with: a Tracer can only record reads made through itself,
// so it needs its own StateDB wrapping the same pre-state root, not one
// that has already finished executing.
func Replay(config *chainconfig.ChainConfig, db *state.Database, parentRoot common.Hash, header *types.Header, txs []*types.Transaction, headers map[uint64]*types.Header) (*Witness, error) {
	statedb, err := state.New(parentRoot, db)
	if err != nil {
		return nil, fmt.Errorf("witness: opening pre-state at %s: %w", parentRoot, err)
	}
	tracer := Wrap(statedb)

	executor := block.NewExecutor(config, db, nil)
	blockCtx := executor.BlockContext(header)
	blockCtx.GetHash = tracer.WrapGetHash(blockHashResolver(headers))

	if _, _, _, err := executor.ExecTxLoop(blockCtx, header, txs, tracer); err != nil {
		return nil, fmt.Errorf("witness: replaying block %d: %w", header.Number, err)
	}

	return Build(db, parentRoot, tracer, headers)
}

// blockHashResolver resolves BLOCKHASH lookups from the same header map
// Build later uses to turn a recorded number into a hash, so a witness
// replay sees exactly the hashes the witness it produces can prove.
func blockHashResolver(headers map[uint64]*types.Header) func(uint64) common.Hash {
	return func(num uint64) common.Hash {
		if h, ok := headers[num]; ok {
			return h.Hash()
		}
		return common.Hash{}
	}
}
