// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.
//
// Package triedb sits between core/state and the raw trie package: it is
// the node-database seam the state layer commits through, shaped so a
// future path-based backend (go-ethereum's pathdb) or an Osaka-successor
// Verkle/IPA backend could be swapped in without touching core/state.
// Today it is a single hash-based Database.
package triedb

import (
	"github.com/VictoriaMetrics/fastcache"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/trie"
)

// Config tunes the node cache sizing; mirrors luxfi-evm's node-database
// config knobs (cache size in bytes, journal directory for persistence
// — on-disk store layout is out of scope here).
type Config struct {
	CacheSizeBytes int
}

func DefaultConfig() Config {
	return Config{CacheSizeBytes: 64 * 1024 * 1024}
}

// Database is the trie node store used by core/state: a content-addressed
// backing store (trie.Database) fronted by a fastcache byte-cache, the
// same pairing luxfi-evm's go.mod pulls in `VictoriaMetrics/fastcache`
// for (trie node / account cache).
type Database struct {
	backing *trie.Database
	cache   *fastcache.Cache
}

func New(cfg Config) *Database {
	return &Database{
		backing: trie.NewDatabase(),
		cache:   fastcache.New(cfg.CacheSizeBytes),
	}
}

func (db *Database) Node(hash common.Hash) ([]byte, bool) {
	if v, ok := db.cache.HasGet(nil, hash.Bytes()); ok {
		return v, true
	}
	v, ok := db.backing.Node(hash)
	if ok {
		db.cache.Set(hash.Bytes(), v)
	}
	return v, ok
}

func (db *Database) Put(hash common.Hash, enc []byte) {
	db.backing.Put(hash, enc)
	db.cache.Set(hash.Bytes(), enc)
}

func (db *Database) Has(hash common.Hash) bool { return db.backing.Has(hash) }

// OpenTrie opens the world-state trie at root.
func (db *Database) OpenTrie(root common.Hash) (*trie.SecureTrie, error) {
	t, err := trie.New(root, db.backing)
	if err != nil {
		return nil, err
	}
	return trie.NewSecureTrie(t), nil
}

// OpenStorageTrie opens an account's storage trie at root.
func (db *Database) OpenStorageTrie(root common.Hash) (*trie.SecureTrie, error) {
	return db.OpenTrie(root)
}

// Underlying exposes the raw node store for components (snap-sync healing,
// execution-witness reconstruction) that need the pruned-trie primitives
// directly instead of going through a *trie.SecureTrie.
func (db *Database) Underlying() *trie.Database { return db.backing }
