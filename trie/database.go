package trie

import (
	"errors"
	"fmt"
	"sync"

	"github.com/corechain/execd/common"
)

// MissingNodeError is returned when an operation needs to descend into a
// hashed child that the current NodeReader does not have — the defining
// condition of a pruned trie.
type MissingNodeError struct {
	NodeHash common.Hash
	Path     []byte
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("trie: missing node %s at path %x", e.NodeHash, e.Path)
}

// NodeReader resolves a node by its content hash. The full trie's database
// always resolves; a pruned trie's reader resolves only the subset it was
// given and returns MissingNodeError otherwise.
type NodeReader interface {
	Node(hash common.Hash) ([]byte, bool)
}

// Database is an in-memory, content-addressed node store: the full trie's
// backing store, and also the shape the snap-sync "membatch" and the
// execution-witness's pruned-trie reconstruction use. It is safe for
// concurrent readers; writes are expected to be single-writer.
type Database struct {
	mu    sync.RWMutex
	nodes map[common.Hash][]byte
}

func NewDatabase() *Database {
	return &Database{nodes: make(map[common.Hash][]byte)}
}

func (db *Database) Node(hash common.Hash) ([]byte, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.nodes[hash]
	return v, ok
}

func (db *Database) Put(hash common.Hash, enc []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nodes[hash] = common.CopyBytes(enc)
}

func (db *Database) Has(hash common.Hash) bool {
	_, ok := db.Node(hash)
	return ok
}

func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.nodes)
}

// ErrNotFound is a generic "key absent" sentinel distinct from
// MissingNodeError (which means "cannot tell, pruned").
var ErrNotFound = errors.New("trie: key not found")
