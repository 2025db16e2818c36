// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package storagerange implements snap-sync's storage-range download
// stage: accounts are grouped by distinct storage root (so a root
// shared by many clone/uninitialised contracts is only ever downloaded
// once), and an account whose storage trie is too large for a single
// response is fetched through follow-up per-account sub-range requests.
package storagerange

import (
	"context"
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/sync/headers"
	"github.com/corechain/execd/sync/peerset"
	"github.com/corechain/execd/sync/protocol"
	"github.com/corechain/execd/trie"
)

// GroupSize is the approximate number of distinct storage roots batched
// into one GetStorageRanges request.
const GroupSize = 300

// TargetSlotsPerChunk is the nominal slot count of one sub-range chunk of
// a big account's storage trie; downloadBigAccount does not use it to
// size its requests.
const TargetSlotsPerChunk = 10000

// Account is a downloaded account the storage stage needs StorageRoot
// and the account's own trie key (keccak(address)) from.
type Account struct {
	Hash        common.Hash
	StorageRoot common.Hash
}

// Slot is one verified storage slot.
type Slot struct {
	AccountHash common.Hash
	SlotHash    common.Hash
	Value       []byte
}

// Sink receives verified storage slots in account/then-ascending-hash
// order.
type Sink interface {
	Flush(slots []Slot) error
}

// Download fetches storage for every account in accounts against the
// world-state root. Accounts sharing a non-empty StorageRoot are
// deduplicated: the shared root's slots are downloaded once and flushed
// to the sink under the hash of the first account seen with that root;
// the other accounts sharing it receive no slots from the sink.
func Download(ctx context.Context, peers *peerset.Set, root common.Hash, accounts []Account, sink Sink) error {
	byRoot := map[common.Hash][]common.Hash{}
	order := []common.Hash{}
	for _, a := range accounts {
		if a.StorageRoot == common.KeccakEmptyTrie {
			continue
		}
		if _, seen := byRoot[a.StorageRoot]; !seen {
			order = append(order, a.StorageRoot)
		}
		byRoot[a.StorageRoot] = append(byRoot[a.StorageRoot], a.Hash)
	}

	for i := 0; i < len(order); i += GroupSize {
		end := i + GroupSize
		if end > len(order) {
			end = len(order)
		}
		group := order[i:end]
		reqAccounts := make([]common.Hash, len(group))
		for j, r := range group {
			// One representative account hash per distinct root; the
			// peer returns that account's full range (the root is what
			// governs the trie content, not which address owns it).
			reqAccounts[j] = byRoot[r][0]
		}
		if err := downloadGroup(ctx, peers, root, reqAccounts, byRoot, sink); err != nil {
			return err
		}
	}
	return nil
}

func downloadGroup(ctx context.Context, peers *peerset.Set, root common.Hash, reqAccounts []common.Hash, byRoot map[common.Hash][]common.Hash, sink Sink) error {
	var zero, max common.Hash
	for i := range max {
		max[i] = 0xff
	}

	peer, err := peers.Reserve()
	if err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, headers.RequestTimeout)
	resp, err := peer.GetStorageRanges(reqCtx, protocol.GetStorageRanges{
		Root:     root,
		Accounts: reqAccounts,
		Start:    zero,
		Limit:    max,
	})
	cancel()
	if err != nil {
		peers.Penalize(peer.ID())
		return fmt.Errorf("storagerange: %w", err)
	}
	peers.Release(peer.ID(), true)

	if len(resp.Slots) != len(reqAccounts) {
		return fmt.Errorf("storagerange: response covers %d accounts, requested %d", len(resp.Slots), len(reqAccounts))
	}

	for i, acctHash := range reqAccounts {
		entries := resp.Slots[i]
		keys := make([][]byte, len(entries))
		values := make([][]byte, len(entries))
		for j, e := range entries {
			keys[j] = e.Hash.Bytes()
			values[j] = e.Value
		}
		// Only the last account in the batch carries a proof (the snap
		// protocol convention: every earlier account's range is
		// implicitly complete).
		var proof [][]byte
		isLast := i == len(reqAccounts)-1
		if isLast {
			proof = resp.Proof
		}
		ok, hasMore, err := trie.VerifyRangeProof(root, keys, values, proof, proof)
		if err != nil || !ok {
			peers.Penalize(peer.ID())
			return fmt.Errorf("storagerange: invalid proof for account %s: %w", acctHash, err)
		}

		slots := make([]Slot, len(entries))
		for j, e := range entries {
			slots[j] = Slot{AccountHash: acctHash, SlotHash: e.Hash, Value: e.Value}
		}
		if err := sink.Flush(slots); err != nil {
			return err
		}

		if isLast && hasMore && len(entries) > 0 {
			if err := downloadBigAccount(ctx, peers, root, acctHash, entries[len(entries)-1].Hash, sink); err != nil {
				return err
			}
		}
	}
	return nil
}

// downloadBigAccount fetches the remainder of one account's storage
// trie in sequential requests, each running from just past the last
// slot received to the end of the hash space, until the proof reports
// no more keys or a response is empty. It does not estimate slot
// density, split the remainder into sub-ranges, or record covered
// ranges beyond the next start hash.
func downloadBigAccount(ctx context.Context, peers *peerset.Set, root common.Hash, acctHash, lastSeen common.Hash, sink Sink) error {
	start := nextHash(lastSeen)
	var max common.Hash
	for i := range max {
		max[i] = 0xff
	}

	for {
		peer, err := peers.Reserve()
		if err != nil {
			return err
		}
		reqCtx, cancel := context.WithTimeout(ctx, headers.RequestTimeout)
		resp, err := peer.GetStorageRanges(reqCtx, protocol.GetStorageRanges{
			Root:     root,
			Accounts: []common.Hash{acctHash},
			Start:    start,
			Limit:    max,
		})
		cancel()
		if err != nil {
			peers.Penalize(peer.ID())
			return fmt.Errorf("storagerange: big account %s: %w", acctHash, err)
		}
		peers.Release(peer.ID(), true)

		if len(resp.Slots) != 1 {
			return fmt.Errorf("storagerange: big account sub-range response malformed")
		}
		entries := resp.Slots[0]
		keys := make([][]byte, len(entries))
		values := make([][]byte, len(entries))
		for j, e := range entries {
			keys[j] = e.Hash.Bytes()
			values[j] = e.Value
		}
		ok, hasMore, err := trie.VerifyRangeProof(root, keys, values, resp.Proof, resp.Proof)
		if err != nil || !ok {
			peers.Penalize(peer.ID())
			return fmt.Errorf("storagerange: invalid sub-range proof for %s: %w", acctHash, err)
		}
		slots := make([]Slot, len(entries))
		for j, e := range entries {
			slots[j] = Slot{AccountHash: acctHash, SlotHash: e.Hash, Value: e.Value}
		}
		if err := sink.Flush(slots); err != nil {
			return err
		}
		if !hasMore || len(entries) == 0 {
			return nil
		}
		start = nextHash(entries[len(entries)-1].Hash)
	}
}

func nextHash(h common.Hash) common.Hash {
	var out common.Hash
	copy(out[:], h[:])
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}
