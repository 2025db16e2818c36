// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package accountrange implements snap-sync's account-range download
// stage: GetAccountRange requests against a chosen pivot root, each
// response checked with trie.VerifyRangeProof before any account in it
// is accepted, streamed onward in 64 MiB-ish batches for bulk ingest.
package accountrange

import (
	"bytes"
	"context"
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/sync/headers"
	"github.com/corechain/execd/sync/peerset"
	"github.com/corechain/execd/sync/protocol"
	"github.com/corechain/execd/trie"
)

// BatchByteBudget segments account-range ingestion by a memory budget
// of roughly 64 MiB: Sink.Flush is called once accumulated account RLP
// crosses this many bytes, rather than only at the very end.
const BatchByteBudget = 64 * 1024 * 1024

// Account is one verified leaf of the world-state trie.
type Account struct {
	Hash    common.Hash
	Account []byte
}

// Sink receives verified account batches in ascending-hash order, ready
// for bulk ingest into the backend store's native sorted format.
type Sink interface {
	Flush(batch []Account) error
}

// Download requests the full account range [0, 2^256-1) at root from
// peers, verifying every response against root and streaming accepted
// accounts to sink in order. It terminates once a response reports
// has_more=false.
func Download(ctx context.Context, peers *peerset.Set, root common.Hash, sink Sink) error {
	start := common.Hash{}
	var limit common.Hash
	for i := range limit {
		limit[i] = 0xff
	}
	batch := make([]Account, 0, 1024)
	batchBytes := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.Flush(batch); err != nil {
			return err
		}
		batch = batch[:0]
		batchBytes = 0
		return nil
	}

	for {
		peer, err := peers.Reserve()
		if err != nil {
			return err
		}
		reqCtx, cancel := context.WithTimeout(ctx, headers.RequestTimeout)
		resp, err := peer.GetAccountRange(reqCtx, protocol.GetAccountRange{
			Root:      root,
			StartHash: start,
			LimitHash: limit,
			MaxBytes:  BatchByteBudget,
		})
		cancel()
		if err != nil {
			peers.Penalize(peer.ID())
			return fmt.Errorf("accountrange: %w", err)
		}
		peers.Release(peer.ID(), true)

		if len(resp.Accounts) == 0 && len(resp.Proof) == 0 {
			break
		}
		keys := make([][]byte, len(resp.Accounts))
		values := make([][]byte, len(resp.Accounts))
		for i, a := range resp.Accounts {
			keys[i] = a.Hash.Bytes()
			values[i] = a.Account
		}
		var leftProof, rightProof [][]byte
		if len(resp.Proof) > 0 {
			leftProof = resp.Proof
			rightProof = resp.Proof
		}
		ok, hasMore, err := trie.VerifyRangeProof(root, keys, values, leftProof, rightProof)
		if err != nil || !ok {
			peers.Penalize(peer.ID())
			return fmt.Errorf("accountrange: invalid range proof from peer %s: %w", peer.ID(), err)
		}

		for _, a := range resp.Accounts {
			batch = append(batch, Account{Hash: a.Hash, Account: a.Account})
			batchBytes += len(a.Account)
			if batchBytes >= BatchByteBudget {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		if !hasMore || len(resp.Accounts) == 0 {
			break
		}
		last := resp.Accounts[len(resp.Accounts)-1].Hash
		if bytes.Compare(last.Bytes(), limit.Bytes()) >= 0 {
			break
		}
		start = nextHash(last)
	}

	return flush()
}

// nextHash returns h+1 as a common.Hash, the start of the next request
// once the previous one's last key has been fully consumed.
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
