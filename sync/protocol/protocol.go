// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package protocol defines the snap-sync wire request/response shapes
// and the Peer seam every downloader stage talks through, grounded on
// the snap protocol's GetAccountRange/AccountRange,
// GetStorageRanges/StorageRanges, GetByteCodes/ByteCodes,
// GetTrieNodes/TrieNodes and the header-chunk download's GetHeaders/
// Headers pair.
package protocol

import (
	"context"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
)

// GetHeaders requests a contiguous run of headers by number.
type GetHeaders struct {
	Start uint64
	Count uint64
}

// Headers is the response to GetHeaders; empty when the peer has none
// of the requested range.
type Headers struct {
	Headers []*types.Header
}

// GetAccountRange requests accounts in [StartHash, LimitHash] of the
// world-state trie rooted at Root, bounded by MaxBytes of response.
type GetAccountRange struct {
	Root      common.Hash
	StartHash common.Hash
	LimitHash common.Hash
	MaxBytes  uint64
}

// AccountRangeEntry is one leaf of an AccountRange response.
type AccountRangeEntry struct {
	Hash    common.Hash // keccak(address), the trie key
	Account []byte      // RLP-encoded StateAccount
}

// AccountRange is a peer's reply to GetAccountRange: a contiguous slice
// of accounts plus the flanking proof nodes needed to verify it against
// Root without trusting the peer.
type AccountRange struct {
	Accounts []AccountRangeEntry
	Proof    [][]byte
}

// GetStorageRanges requests storage slots for a batch of accounts (all
// sharing one world-state Root) in [Start, Limit] of each account's
// storage trie.
type GetStorageRanges struct {
	Root     common.Hash
	Accounts []common.Hash // keccak(address) per account in this request
	Start    common.Hash
	Limit    common.Hash
	MaxBytes uint64
}

// StorageRangeEntry is one storage slot.
type StorageRangeEntry struct {
	Hash  common.Hash // keccak(slot), the storage trie key
	Value []byte      // RLP-encoded trimmed big-endian value
}

// StorageRange is a peer's reply: one slice of entries per requested
// account, in request order, plus a proof for the *last* account in the
// batch only (the snap protocol's convention — every earlier account's
// range is implicitly complete because the response covers every slot
// up to the point the last account's proof picks up).
type StorageRange struct {
	Slots [][]StorageRangeEntry
	Proof [][]byte
}

// GetByteCodes requests contract bytecode by hash.
type GetByteCodes struct {
	Hashes   []common.Hash
	MaxBytes uint64
}

// ByteCodes is the response: codes in the same order as the request,
// with a missing entry represented by a nil slice.
type ByteCodes struct {
	Codes [][]byte
}

// GetTrieNodes requests raw trie nodes (world-state or storage) by
// path, used by the healer once it knows which nodes a partially
// reconstructed subtree is still missing.
type GetTrieNodes struct {
	Root     common.Hash
	Paths    [][]byte
	MaxBytes uint64
}

// TrieNodes is the response: node RLP in request order, nil for any
// path the peer doesn't have.
type TrieNodes struct {
	Nodes [][]byte
}

// Peer is the session a downloader stage issues requests against. Each
// request carries a context so a caller can enforce a 10s per-request
// wall-clock timeout; a timed-out or failed peer is the caller's signal
// to apply a score penalty via peerset and retry
// against a different peer.
type Peer interface {
	ID() string
	GetHeaders(ctx context.Context, req GetHeaders) (*Headers, error)
	GetAccountRange(ctx context.Context, req GetAccountRange) (*AccountRange, error)
	GetStorageRanges(ctx context.Context, req GetStorageRanges) (*StorageRange, error)
	GetByteCodes(ctx context.Context, req GetByteCodes) (*ByteCodes, error)
	GetTrieNodes(ctx context.Context, req GetTrieNodes) (*TrieNodes, error)
}
