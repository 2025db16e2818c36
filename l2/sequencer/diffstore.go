// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"fmt"
	"sync"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/l2/contracts"
	"github.com/corechain/execd/l2/dacodec"
)

// blockDiff is one block's contribution to a batch's state-diff, computed
// once by the State Updater right after it commits the block and looked
// up later by the L1 Committer when it seals a batch spanning that block.
type blockDiff struct {
	accounts    []dacodec.ModifiedAccount
	withdrawals []dacodec.WithdrawalLog
	privileged  []dacodec.PrivilegedTxLog
	blockRLP    []byte
	witnessRLP  []byte
}

// DiffStore retains one blockDiff per committed block, keyed by hash,
// until the L1 Committer consumes it while sealing a batch. Grounded on
// the same "compute once where the information is available, consume
// later where it is needed" split the Block Producer / State Updater
// pair already uses for candidate-versus-durable state.
type DiffStore struct {
	mu   sync.Mutex
	byID map[common.Hash]blockDiff
}

func NewDiffStore() *DiffStore {
	return &DiffStore{byID: make(map[common.Hash]blockDiff)}
}

// record stores blk's diff, along with the RLP-encoded block and
// execution witness the Proof Coordinator's guest program needs to
// reprove it. Called by the State Updater once per committed block,
// after SnapshotDirty/Commit have both already run. blockRLP/witnessRLP
// may be nil if witness construction is unavailable (e.g. an L1-only
// chain, where nothing ever proves a batch).
func (d *DiffStore) record(blk *types.Block, before *state.StateDB, touched []state.DirtyAccount, receipts types.Receipts, blockRLP, witnessRLP []byte) {
	accounts := make([]dacodec.ModifiedAccount, 0, len(touched))
	for _, t := range touched {
		accounts = append(accounts, toModifiedAccount(before, t))
	}

	var withdrawals []dacodec.WithdrawalLog
	for _, r := range receipts {
		for _, l := range r.Logs {
			if l.Address != contracts.L2ToL1MessagePasser || len(l.Topics) == 0 || l.Topics[0] != contracts.WithdrawalInitiatedTopic {
				continue
			}
			w, err := contracts.DecodeWithdrawalInitiated(l.TxHash, l.Topics, l.Data)
			if err != nil {
				continue // malformed withdrawal log from a misbehaving predeploy call; skip rather than abort the batch
			}
			withdrawals = append(withdrawals, dacodec.WithdrawalLog{Account: w.Account, Amount: w.Amount, LogHash: w.LogHash})
		}
	}

	var privileged []dacodec.PrivilegedTxLog
	for _, tx := range blk.Transactions() {
		if tx.IsPrivileged() {
			privileged = append(privileged, dacodec.PrivilegedTxLog{L1TxHash: tx.L1TxHash(), TxHash: tx.Hash()})
		}
	}

	d.mu.Lock()
	d.byID[blk.Hash()] = blockDiff{
		accounts: accounts, withdrawals: withdrawals, privileged: privileged,
		blockRLP: blockRLP, witnessRLP: witnessRLP,
	}
	d.mu.Unlock()
}

// toModifiedAccount compares t's post-block values against before (the
// StateDB opened at the block's parent root, read before any of this
// block's transactions ran) to decide which fields actually changed.
func toModifiedAccount(before *state.StateDB, t state.DirtyAccount) dacodec.ModifiedAccount {
	m := dacodec.ModifiedAccount{Address: t.Address}
	if t.Destroyed {
		return m
	}
	if priorBalance := before.GetBalance(t.Address); priorBalance.Cmp(t.Balance) != 0 {
		m.Balance = t.Balance
	}
	if priorNonce := before.GetNonce(t.Address); t.Nonce > priorNonce {
		incr := t.Nonce - priorNonce
		if incr > 0xffff {
			incr = 0xffff // dacodec.NonceIncr is a uint16; a single block can't plausibly increment a nonce this far
		}
		m.NonceIncr = uint16(incr)
	}
	if priorHash := before.GetCodeHash(t.Address); priorHash != common.BytesToHash(t.CodeHash) {
		m.NewCode = t.Code
	}
	for slot, v := range t.DirtyStorage {
		m.Storage = append(m.Storage, dacodec.StorageChange{Slot: slot, NewValue: v})
	}
	return m
}

// AccountDiffs, WithdrawalLogs and PrivilegedLogs implement DiffSource by
// concatenating each block's recorded diff in order. encodeBatch probes
// these on every incoming block (to measure the candidate blob before
// deciding whether to seal), so reads here are non-destructive — Forget
// is the only thing that retires an entry, called once a batch actually
// seals.
func (d *DiffStore) AccountDiffs(blocks []*types.Block) ([]dacodec.ModifiedAccount, error) {
	var out []dacodec.ModifiedAccount
	for _, blk := range blocks {
		diff, err := d.peek(blk)
		if err != nil {
			return nil, err
		}
		out = append(out, diff.accounts...)
	}
	return mergeAccounts(out), nil
}

func (d *DiffStore) WithdrawalLogs(blocks []*types.Block) ([]dacodec.WithdrawalLog, error) {
	var out []dacodec.WithdrawalLog
	for _, blk := range blocks {
		diff, err := d.peek(blk)
		if err != nil {
			return nil, err
		}
		out = append(out, diff.withdrawals...)
	}
	return out, nil
}

func (d *DiffStore) PrivilegedLogs(blocks []*types.Block) ([]dacodec.PrivilegedTxLog, error) {
	var out []dacodec.PrivilegedTxLog
	for _, blk := range blocks {
		diff, err := d.peek(blk)
		if err != nil {
			return nil, err
		}
		out = append(out, diff.privileged...)
	}
	return out, nil
}

// GuestMaterial returns the RLP-encoded block and execution witness for
// the last block in blocks — the one whose header fields encodeBatch
// already uses to summarize a multi-block batch's commitment, so proving
// follows the same "batch is represented by its final block" convention
// rather than introducing a second one. Errors if that block's diff (or
// its witness) was never recorded.
func (d *DiffStore) GuestMaterial(blocks []*types.Block) (blockRLP, witnessRLP []byte, err error) {
	last := blocks[len(blocks)-1]
	diff, err := d.peek(last)
	if err != nil {
		return nil, nil, err
	}
	if diff.witnessRLP == nil {
		return nil, nil, fmt.Errorf("diffstore: no recorded witness for block %d (%s)", last.NumberU64(), last.Hash())
	}
	return diff.blockRLP, diff.witnessRLP, nil
}

// peek reads blk's diff without removing it.
func (d *DiffStore) peek(blk *types.Block) (blockDiff, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	diff, ok := d.byID[blk.Hash()]
	if !ok {
		return blockDiff{}, fmt.Errorf("diffstore: no recorded diff for block %d (%s)", blk.NumberU64(), blk.Hash())
	}
	return diff, nil
}

// Forget retires blocks' recorded diffs once the L1 Committer has sealed
// a batch covering them — nothing will look them up again.
func (d *DiffStore) Forget(blocks []*types.Block) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, blk := range blocks {
		delete(d.byID, blk.Hash())
	}
}

// mergeAccounts collapses repeated touches of the same address across a
// multi-block batch into one entry — later blocks' balance/nonce/code
// states win, storage writes from every block accumulate (a later write
// to the same slot overwrites an earlier one in the same pass, matching
// how the slot's trie value itself only reflects the most recent write).
func mergeAccounts(in []dacodec.ModifiedAccount) []dacodec.ModifiedAccount {
	order := make([]common.Address, 0, len(in))
	byAddr := make(map[common.Address]*dacodec.ModifiedAccount, len(in))
	for i := range in {
		a := in[i]
		existing, ok := byAddr[a.Address]
		if !ok {
			cp := a
			byAddr[a.Address] = &cp
			order = append(order, a.Address)
			continue
		}
		if a.Balance != nil {
			existing.Balance = a.Balance
		}
		existing.NonceIncr += a.NonceIncr
		if len(a.NewCode) > 0 {
			existing.NewCode = a.NewCode
		}
		if len(a.Storage) > 0 {
			slots := make(map[common.Hash]common.Hash, len(existing.Storage)+len(a.Storage))
			for _, s := range existing.Storage {
				slots[s.Slot] = s.NewValue
			}
			for _, s := range a.Storage {
				slots[s.Slot] = s.NewValue
			}
			existing.Storage = existing.Storage[:0]
			for slot, v := range slots {
				existing.Storage = append(existing.Storage, dacodec.StorageChange{Slot: slot, NewValue: v})
			}
		}
	}
	out := make([]dacodec.ModifiedAccount, 0, len(order))
	for _, addr := range order {
		out = append(out, *byAddr[addr])
	}
	return out
}
