package trie

import (
	"github.com/corechain/execd/common"
)

// SecureTrie wraps a Trie so that every key is looked up and stored under
// its keccak256 hash rather than its raw bytes. Both the world-state trie
// (keyed by address) and every account's storage trie (keyed by slot) use
// this wrapper; a bare Trie is never addressed by raw account/slot key
// directly, which also means an adversary who can only see trie contents
// cannot enumerate addresses or storage slots in sorted order.
//
// The preimage of each hashed key is retained so callers that need to
// recover the original key (e.g. producing an account-range response that
// must report addresses, not their hashes) can do so.
type SecureTrie struct {
	trie      *Trie
	preimages map[common.Hash][]byte
}

func NewSecureTrie(t *Trie) *SecureTrie {
	return &SecureTrie{trie: t, preimages: make(map[common.Hash][]byte)}
}

func NewSecureEmpty(db *Database) *SecureTrie {
	return NewSecureTrie(NewEmpty(db))
}

func SecureRoot(root common.Hash, reader NodeReader) (*SecureTrie, error) {
	t, err := New(root, reader)
	if err != nil {
		return nil, err
	}
	return NewSecureTrie(t), nil
}

func (s *SecureTrie) hashKey(key []byte) common.Hash {
	h := common.Keccak256Hash(key)
	if _, ok := s.preimages[h]; !ok {
		s.preimages[h] = common.CopyBytes(key)
	}
	return h
}

func (s *SecureTrie) Get(key []byte) ([]byte, error) {
	return s.trie.Get(s.hashKey(key).Bytes())
}

func (s *SecureTrie) Put(key, value []byte) error {
	return s.trie.Put(s.hashKey(key).Bytes(), value)
}

func (s *SecureTrie) Delete(key []byte) error {
	return s.trie.Delete(s.hashKey(key).Bytes())
}

// Preimage returns the original key for a hashed key previously seen by
// this SecureTrie instance (not persisted — a fresh instance over the same
// root has no preimages until it touches those keys again).
func (s *SecureTrie) Preimage(hashedKey common.Hash) ([]byte, bool) {
	k, ok := s.preimages[hashedKey]
	return k, ok
}

func (s *SecureTrie) Hash() common.Hash      { return s.trie.Hash() }
func (s *SecureTrie) Commit() (common.Hash, error) { return s.trie.Commit() }

// Prove proves the hashed key, the same shape the raw Trie uses; secure-trie
// proofs are always over the hashed key since that is what the trie
// structure is actually keyed by.
func (s *SecureTrie) Prove(key []byte, proofDB ProofDB) ([][]byte, error) {
	return s.trie.Prove(s.hashKey(key).Bytes(), proofDB)
}

// Raw exposes the underlying Trie for callers (e.g. the state package) that
// need direct access to commit/copy semantics.
func (s *SecureTrie) Raw() *Trie { return s.trie }
