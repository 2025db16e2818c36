package trie

import (
	"github.com/corechain/execd/common"
)

// Trie is a (possibly pruned) Merkle-Patricia Trie. Keys passed to Get/Put/
// Delete are the raw, pre-secure-hashing keys: callers that want the
// "secure trie" semantics (state/storage tries keyed by
// keccak(address)/keccak(slot)) go through SecureTrie below.
type Trie struct {
	root   node
	reader NodeReader
	db     *Database // writable backing store; nil for a read-only view
}

// New opens a trie rooted at root, resolving hashed nodes through reader.
// A zero root (common.Hash{}) or the empty-trie hash opens an empty trie.
func New(root common.Hash, reader NodeReader) (*Trie, error) {
	t := &Trie{reader: reader}
	if db, ok := reader.(*Database); ok {
		t.db = db
	}
	if root.IsZero() || root == common.KeccakEmptyTrie {
		return t, nil
	}
	t.root = hashNode(root.Bytes())
	return t, nil
}

// NewEmpty returns a trie with no entries backed by db, ready for Put.
func NewEmpty(db *Database) *Trie {
	return &Trie{db: db, reader: db}
}

func (t *Trie) resolve(n node, path []byte) (node, error) {
	hn, ok := n.(hashNode)
	if !ok {
		return n, nil
	}
	hash := common.BytesToHash(hn)
	enc, ok := t.reader.Node(hash)
	if !ok {
		return nil, &MissingNodeError{NodeHash: hash, Path: path}
	}
	return decodeNode(hn, enc)
}

// Get returns the value stored at key, or nil if absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	v, newroot, didResolve, err := t.get(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, err
	}
	if didResolve {
		t.root = newroot
	}
	if v == nil {
		return nil, nil
	}
	return []byte(v.(valueNode)), nil
}

func (t *Trie) get(n node, key []byte, pos int) (value node, newnode node, didResolve bool, err error) {
	switch n := n.(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytesEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, n, false, nil
		}
		value, newnode, didResolve, err = t.get(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			cp := n.copy()
			cp.Val = newnode
			return value, cp, true, nil
		}
		return value, n, didResolve, err
	case *fullNode:
		value, newnode, didResolve, err = t.get(n.Children[key[pos]], key, pos+1)
		if err == nil && didResolve {
			cp := n.copy()
			cp.Children[key[pos]] = newnode
			return value, cp, true, nil
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := t.resolve(n, key[:pos])
		if err != nil {
			return nil, n, true, err
		}
		value, newnode, _, err := t.get(child, key, pos)
		return value, newnode, true, err
	}
	return nil, nil, false, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Put inserts or updates key -> value. An empty value is equivalent to
// Delete (a zero value is treated as a deletion for storage slots).
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	k := keybytesToHex(key)
	n, err := t.insert(t.root, nil, k, valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			_ = v
			return value, nil
		}
		return value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		match := prefixLen(key, n.Key)
		if match == len(n.Key) {
			newVal, err := t.insert(n.Val, append(prefix, key[:match]...), key[match:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: newVal, flags: nodeFlag{dirty: true}}, nil
		}
		branch := &fullNode{flags: nodeFlag{dirty: true}}
		var err error
		branch.Children[n.Key[match]], err = t.insert(nil, append(prefix, n.Key[:match+1]...), n.Key[match+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[key[match]], err = t.insert(nil, append(prefix, key[:match+1]...), key[match+1:], value)
		if err != nil {
			return nil, err
		}
		if match == 0 {
			return branch, nil
		}
		return &shortNode{Key: key[:match], Val: branch, flags: nodeFlag{dirty: true}}, nil
	case *fullNode:
		cp := n.copy()
		cp.flags = nodeFlag{dirty: true}
		var err error
		cp.Children[key[0]], err = t.insert(n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if err != nil {
			return nil, err
		}
		return cp, nil
	case nil:
		return &shortNode{Key: key, Val: value, flags: nodeFlag{dirty: true}}, nil
	case hashNode:
		rn, err := t.resolve(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.insert(rn, prefix, key, value)
	default:
		panic("trie: invalid node type in insert")
	}
}

// Delete removes key. A branch left with a single child collapses into a
// shortNode; if that child is a hash reference the reader cannot resolve,
// Delete returns a *CollapseNeedsSiblingError.
func (t *Trie) Delete(key []byte) error {
	k := keybytesToHex(key)
	n, err := t.delete(t.root, nil, k)
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n node, prefix, key []byte) (node, error) {
	switch n := n.(type) {
	case *shortNode:
		match := prefixLen(key, n.Key)
		if match < len(n.Key) {
			return n, nil // key not present
		}
		if match == len(key) {
			return nil, nil // remove this leaf/extension entirely
		}
		child, err := t.delete(n.Val, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if err != nil {
			return nil, err
		}
		switch child := child.(type) {
		case nil:
			return nil, nil
		case *shortNode:
			// Merge consecutive shortNodes (extension collapses into child).
			return &shortNode{Key: concatNibbles(n.Key, child.Key), Val: child.Val, flags: nodeFlag{dirty: true}}, nil
		default:
			return &shortNode{Key: n.Key, Val: child, flags: nodeFlag{dirty: true}}, nil
		}
	case *fullNode:
		cp := n.copy()
		cp.flags = nodeFlag{dirty: true}
		child, err := t.delete(n.Children[key[0]], append(prefix, key[0]), key[1:])
		if err != nil {
			return nil, err
		}
		cp.Children[key[0]] = child
		return collapseFullNode(t, cp, prefix)
	case hashNode:
		rn, err := t.resolve(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.delete(rn, prefix, key)
	case valueNode:
		return nil, nil // key ends at a branch's value slot
	case nil:
		return nil, nil
	default:
		panic("trie: invalid node type in delete")
	}
}

// collapseFullNode handles the case where exactly one child remains after a
// removal: the branch collapses into a shortNode whose key is that child's
// nibble prepended to the child's own path. If the remaining child is
// itself a hashNode we cannot inspect its path without resolving it —
// callers operating on a pruned trie that cannot resolve it must fall back
// to a post-state exclusion proof fetched out-of-band.
func collapseFullNode(t *Trie, n *fullNode, prefix []byte) (node, error) {
	used := -1
	count := 0
	for i, c := range n.Children {
		if c != nil {
			count++
			used = i
		}
	}
	if count > 1 {
		return n, nil
	}
	if count == 0 {
		return nil, nil
	}
	child := n.Children[used]
	if used == 16 {
		// Only the value slot remains: collapse to a 0-length-key leaf.
		return &shortNode{Key: []byte{16}, Val: child, flags: nodeFlag{dirty: true}}, nil
	}
	resolved, err := t.resolve(child, append(prefix, byte(used)))
	if err != nil {
		if mnErr, ok := err.(*MissingNodeError); ok {
			// Case A: cannot construct the replacement leaf without the
			// sibling. Surface distinctly so callers can fetch the
			// post-state exclusion proof.
			return nil, &CollapseNeedsSiblingError{MissingNodeError: *mnErr, Branch: n, Nibble: used}
		}
		return nil, err
	}
	switch rc := resolved.(type) {
	case *shortNode:
		return &shortNode{Key: concatNibbles([]byte{byte(used)}, rc.Key), Val: rc.Val, flags: nodeFlag{dirty: true}}, nil
	default:
		return &shortNode{Key: []byte{byte(used)}, Val: resolved, flags: nodeFlag{dirty: true}}, nil
	}
}

// CollapseNeedsSiblingError signals that a branch removal needs the one
// remaining sibling's path, which the current pruned view does not have.
type CollapseNeedsSiblingError struct {
	MissingNodeError
	Branch *fullNode
	Nibble int
}

func concatNibbles(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// Hash returns the trie's current root hash, computing it (and, if db is
// set, committing dirty nodes) as needed.
func (t *Trie) Hash() common.Hash {
	h, err := t.Commit()
	if err != nil {
		panic(err)
	}
	return h
}

// Commit persists every dirty node into the backing Database and returns
// the new root hash. A read-only trie (db == nil) still computes the hash
// without persisting.
func (t *Trie) Commit() (common.Hash, error) {
	if t.root == nil {
		return common.KeccakEmptyTrie, nil
	}
	hn, raw, err := hashOf(t.root)
	if err != nil {
		return common.Hash{}, err
	}
	if hn == nil {
		// Root is embedded (tiny trie); its identity is keccak of its own
		// RLP even though children encode it inline.
		h := common.Keccak256Hash(raw)
		if t.db != nil {
			if err := t.commitNode(t.root); err != nil {
				return common.Hash{}, err
			}
			t.db.Put(h, raw)
		}
		t.root = hashNode(h.Bytes())
		return h, nil
	}
	if t.db != nil {
		if err := t.commitNode(t.root); err != nil {
			return common.Hash{}, err
		}
	}
	root := common.BytesToHash(hn)
	t.root = hashNode(hn)
	return root, nil
}

func (t *Trie) commitNode(n node) error {
	switch n := n.(type) {
	case *shortNode:
		if err := t.commitNode(n.Val); err != nil {
			return err
		}
	case *fullNode:
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			if err := t.commitNode(c); err != nil {
				return err
			}
		}
	case hashNode, valueNode, nil:
		return nil
	}
	hn, raw, err := hashOf(n)
	if err != nil {
		return err
	}
	if hn != nil {
		t.db.Put(common.BytesToHash(hn), raw)
	}
	return nil
}
