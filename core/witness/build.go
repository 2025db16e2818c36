// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package witness

import (
	"sort"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/trie"
)

// Build runs after a block has executed against tracer: it reopens the
// world-state trie fresh at preStateRoot (tracer's own trie has already
// advanced past it) and proves every account/slot the tracer recorded,
// retrieving the inclusion or exclusion MPT proof against the
// pre-state root for each. headers supplies the hash for
// every BLOCKHASH number the tracer recorded; a number with no entry is
// silently skipped (BLOCKHASH itself already returned the zero hash for
// it during execution, since only the last 256 blocks resolve).
func Build(db *state.Database, preStateRoot common.Hash, tracer *Tracer, headers map[uint64]*types.Header) (*Witness, error) {
	preTrie, err := db.OpenTrie(preStateRoot)
	if err != nil {
		return nil, err
	}

	addrs := sortedAddresses(tracer.TouchedAccounts())
	w := &Witness{PreStateRoot: preStateRoot}

	for _, addr := range addrs {
		proofDB := trie.MapProofDB{}
		nodes, err := preTrie.Prove(addr.Bytes(), proofDB)
		if err != nil {
			return nil, err
		}
		acctProof := AccountProof{Address: addr, Proof: nodes}

		if slots, ok := tracer.TouchedStorage()[addr]; ok && len(slots) > 0 {
			enc, err := preTrie.Get(addr.Bytes())
			if err != nil {
				return nil, err
			}
			if len(enc) > 0 {
				acct, err := types.DecodeAccountRLP(enc)
				if err != nil {
					return nil, err
				}
				storageTrie, err := db.OpenStorageTrie(acct.StorageRoot)
				if err != nil {
					return nil, err
				}
				for _, slot := range sortedSlots(slots) {
					sProofDB := trie.MapProofDB{}
					sNodes, err := storageTrie.Prove(slot.Bytes(), sProofDB)
					if err != nil {
						return nil, err
					}
					acctProof.Storage = append(acctProof.Storage, StorageProof{Slot: slot, Proof: sNodes})
				}
			}
			// An account with no trie entry but recorded slot reads means
			// every slot resolved to zero without the account existing;
			// there is nothing to prove beyond the account's own
			// exclusion proof already captured above.
		}
		w.Accounts = append(w.Accounts, acctProof)
	}

	for hash := range tracer.TouchedCodes() {
		code, ok := db.ContractCode(hash)
		if !ok {
			continue // code for an empty/absent account's hash; nothing to ship
		}
		w.Codes = append(w.Codes, CodeEntry{Hash: hash, Code: code})
	}
	sort.Slice(w.Codes, func(i, j int) bool { return w.Codes[i].Hash.Cmp(w.Codes[j].Hash) < 0 })

	for num := range tracer.TouchedBlockHashes() {
		h, ok := headers[num]
		if !ok {
			continue
		}
		w.BlockHashes = append(w.BlockHashes, BlockHashEntry{Number: num, Hash: h.Hash()})
	}
	sort.Slice(w.BlockHashes, func(i, j int) bool { return w.BlockHashes[i].Number < w.BlockHashes[j].Number })

	return w, nil
}

func sortedAddresses(set map[common.Address]struct{}) []common.Address {
	out := make([]common.Address, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func sortedSlots(set map[common.Hash]struct{}) []common.Hash {
	out := make([]common.Hash, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}
