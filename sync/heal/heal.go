// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package heal implements snap-sync's healing stage: a top-down MPT
// reconstruction driven by GetTrieNodes requests, staging
// not-yet-complete nodes in a content-addressed membatch and cascading
// them into the committed store as their last missing child arrives —
// maintaining the invariant that if a node is in the store, every
// descendant is in the store.
package heal

import (
	"context"
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/sync/headers"
	"github.com/corechain/execd/sync/peerset"
	"github.com/corechain/execd/sync/protocol"
	"github.com/corechain/execd/trie"
	"github.com/corechain/execd/triedb"
)

// staged is one membatch entry: a node's own bytes plus which of its
// child hashes are still missing from the committed store.
type staged struct {
	raw     []byte
	missing map[common.Hash]struct{}
}

// Healer reconstructs the trie rooted at a pivot into db, top-down,
// resuming correctly across a pivot change because every already-
// committed subtree is keyed by content hash and so is still valid
// under a new root.
type Healer struct {
	db       *triedb.Database
	membatch map[common.Hash]*staged
	// waiters maps a missing child hash to every membatch entry hash
	// that is blocked on it, so committing one node can cascade upward
	// without rescanning the whole membatch.
	waiters map[common.Hash][]common.Hash
}

// New creates a Healer committing reconstructed nodes into db.
func New(db *triedb.Database) *Healer {
	return &Healer{
		db:       db,
		membatch: make(map[common.Hash]*staged),
		waiters:  make(map[common.Hash][]common.Hash),
	}
}

// Heal drives reconstruction of the trie rooted at root, requesting
// missing nodes from peers breadth-first until every node reachable
// from root is committed.
func (h *Healer) Heal(ctx context.Context, peers *peerset.Set, root common.Hash) error {
	if h.db.Has(root) {
		return nil
	}
	pending := []common.Hash{root}
	for len(pending) > 0 {
		batch := pending
		pending = nil

		var need []common.Hash
		for _, hash := range batch {
			if h.db.Has(hash) {
				continue
			}
			if _, staged := h.membatch[hash]; staged {
				continue
			}
			need = append(need, hash)
		}
		if len(need) == 0 {
			continue
		}

		nodes, err := h.request(ctx, peers, root, need)
		if err != nil {
			return err
		}
		for i, hash := range need {
			raw := nodes[i]
			if raw == nil {
				return fmt.Errorf("heal: no peer had node %s", hash)
			}
			children, err := trie.ChildHashes(raw)
			if err != nil {
				return fmt.Errorf("heal: node %s: %w", hash, err)
			}
			missing := map[common.Hash]struct{}{}
			for _, c := range children {
				if !h.db.Has(c) {
					missing[c] = struct{}{}
					pending = append(pending, c)
				}
			}
			if len(missing) == 0 {
				h.commit(hash, raw)
				continue
			}
			h.membatch[hash] = &staged{raw: raw, missing: missing}
			for c := range missing {
				h.waiters[c] = append(h.waiters[c], hash)
			}
		}
	}
	return nil
}

// commit moves a node from the membatch into the store and cascades:
// every membatch entry waiting on hash has one fewer missing child,
// and any whose missing set is now empty commits in turn.
func (h *Healer) commit(hash common.Hash, raw []byte) {
	h.db.Put(hash, raw)
	delete(h.membatch, hash)

	queue := []common.Hash{hash}
	for len(queue) > 0 {
		done := queue[0]
		queue = queue[1:]
		for _, waiter := range h.waiters[done] {
			entry, ok := h.membatch[waiter]
			if !ok {
				continue
			}
			delete(entry.missing, done)
			if len(entry.missing) == 0 {
				h.db.Put(waiter, entry.raw)
				delete(h.membatch, waiter)
				queue = append(queue, waiter)
			}
		}
		delete(h.waiters, done)
	}
}

// request issues GetTrieNodes for the given node hashes, retrying
// against a different peer on failure. Paths are the hashes themselves
// since this healer addresses nodes purely by content hash (no
// path-based backend is wired in — see triedb's package doc).
func (h *Healer) request(ctx context.Context, peers *peerset.Set, root common.Hash, want []common.Hash) ([][]byte, error) {
	paths := make([][]byte, len(want))
	for i, w := range want {
		paths[i] = w.Bytes()
	}
	for {
		peer, err := peers.Reserve()
		if err != nil {
			return nil, err
		}
		reqCtx, cancel := context.WithTimeout(ctx, headers.RequestTimeout)
		resp, err := peer.GetTrieNodes(reqCtx, protocol.GetTrieNodes{Root: root, Paths: paths})
		cancel()
		if err != nil || resp == nil || len(resp.Nodes) != len(want) {
			peers.Penalize(peer.ID())
			continue
		}
		for i, raw := range resp.Nodes {
			if raw == nil {
				continue
			}
			if common.Keccak256Hash(raw) != want[i] {
				peers.Penalize(peer.ID())
				resp = nil
				break
			}
		}
		if resp == nil {
			continue
		}
		peers.Release(peer.ID(), true)
		return resp.Nodes, nil
	}
}
