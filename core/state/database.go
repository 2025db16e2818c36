// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package state is the caching overlay atop the world-state trie: account
// balances/nonces/code/storage, dirty-account tracking, and commit into
// triedb. Reads go through an in-memory object cache first; writes are
// journaled so a reverted call frame (or a failed transaction) undoes
// exactly the mutations it made.
package state

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/hashicorp/golang-lru/simplelru"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/trie"
	"github.com/corechain/execd/triedb"
)

// Database is the backing store StateDB commits through: the world-state
// SecureTrie plus a code-by-hash store, a code cache and an LRU of opened
// storage tries.
type Database struct {
	nodes     *triedb.Database
	codeCache *fastcache.Cache
	trieCache *simplelru.LRU // hash -> *trie.SecureTrie, for reused storage tries across accounts in one block
}

func NewDatabase(nodes *triedb.Database) *Database {
	lru, _ := simplelru.NewLRU(256, nil)
	return &Database{
		nodes:     nodes,
		codeCache: fastcache.New(16 * 1024 * 1024),
		trieCache: lru,
	}
}

func (db *Database) OpenTrie(root common.Hash) (*trie.SecureTrie, error) {
	return db.nodes.OpenTrie(root)
}

func (db *Database) OpenStorageTrie(root common.Hash) (*trie.SecureTrie, error) {
	if v, ok := db.trieCache.Get(root); ok {
		return v.(*trie.SecureTrie), nil
	}
	st, err := db.nodes.OpenStorageTrie(root)
	if err != nil {
		return nil, err
	}
	db.trieCache.Add(root, st)
	return st, nil
}

func (db *Database) ContractCode(codeHash common.Hash) ([]byte, bool) {
	if v, ok := db.codeCache.HasGet(nil, codeHash.Bytes()); ok {
		return v, true
	}
	v, ok := db.nodes.Node(codeHash)
	if ok {
		db.codeCache.Set(codeHash.Bytes(), v)
	}
	return v, ok
}

func (db *Database) PutContractCode(codeHash common.Hash, code []byte) {
	db.nodes.Put(codeHash, code)
	db.codeCache.Set(codeHash.Bytes(), code)
}

// TrieDB exposes the underlying node store for the block executor's
// witness construction.
func (db *Database) TrieDB() *triedb.Database { return db.nodes }
