package trie

import (
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// node is implemented by fullNode, shortNode, hashNode and valueNode.
type node interface {
	fstring(indent string) string
	cache() (hashNode, bool)
}

// fullNode is a Branch{children[16], value?}: 16 nibble slots plus one
// value slot, matching go-ethereum's 17-wide representation.
type fullNode struct {
	Children [17]node
	flags    nodeFlag
}

// shortNode is either an Extension (Val is another node) or a Leaf (Val is
// a valueNode), disambiguated by whether the nibble key ends in the
// terminator 16 — see hasTerm.
type shortNode struct {
	Key   []byte
	Val   node
	flags nodeFlag
}

// hashNode is a reference to a node stored elsewhere, keccak256(rlp(node)).
// A node is embedded by value instead when its RLP is under 32 bytes.
type hashNode []byte

// valueNode is a leaf's stored value (an RLP-encoded account or storage
// word).
type valueNode []byte

type nodeFlag struct {
	hash  hashNode
	dirty bool
}

func (n *fullNode) cache() (hashNode, bool)  { return n.flags.hash, n.flags.dirty }
func (n *shortNode) cache() (hashNode, bool) { return n.flags.hash, n.flags.dirty }
func (n hashNode) cache() (hashNode, bool)   { return nil, true }
func (n valueNode) cache() (hashNode, bool)  { return nil, true }

func (n *fullNode) copy() *fullNode {
	cp := *n
	return &cp
}
func (n *shortNode) copy() *shortNode {
	cp := *n
	return &cp
}

func (n *fullNode) fstring(ind string) string {
	resp := "[\n"
	for i, c := range n.Children {
		if c == nil {
			continue
		}
		resp += fmt.Sprintf("%s  [%d]: %v\n", ind, i, c.fstring(ind+"  "))
	}
	return resp + ind + "]"
}
func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}
func (n hashNode) fstring(ind string) string  { return fmt.Sprintf("<%x>", []byte(n)) }
func (n valueNode) fstring(ind string) string { return fmt.Sprintf("%x", []byte(n)) }

// encodeNode RLP-encodes a node's on-disk representation. Children that are
// themselves nodes (not yet hashed) are encoded inline if their own RLP is
// short enough ("embedded"), otherwise by their hashNode reference — the
// node identity rule: embed small nodes by value, reference large ones by hash.
func encodeNode(n node) ([]byte, error) {
	switch n := n.(type) {
	case *fullNode:
		enc := rlp.NewList()
		for _, c := range n.Children {
			if err := addChild(enc, c); err != nil {
				return nil, err
			}
		}
		return enc.Bytes()
	case *shortNode:
		enc := rlp.NewList().Add(hexToCompact(n.Key))
		if err := addChild(enc, n.Val); err != nil {
			return nil, err
		}
		return enc.Bytes()
	case hashNode:
		return rlp.EncodeToBytes([]byte(n))
	case valueNode:
		return rlp.EncodeToBytes([]byte(n))
	case nil:
		return rlp.EncodeToBytes([]byte(nil))
	default:
		return nil, fmt.Errorf("trie: cannot encode node type %T", n)
	}
}

func addChild(enc *rlp.ListEncoder, c node) error {
	if c == nil {
		enc.Add([]byte(nil))
		return nil
	}
	if hn, ok := c.(hashNode); ok {
		enc.Add([]byte(hn))
		return nil
	}
	if vn, ok := c.(valueNode); ok {
		enc.Add([]byte(vn))
		return nil
	}
	raw, err := encodeNode(c)
	if err != nil {
		return err
	}
	if len(raw) >= 32 {
		hashed, err := rlp.EncodeToBytes(common.Keccak256(raw))
		if err != nil {
			return err
		}
		enc.Add(rlp.RawValue(hashed))
		return nil
	}
	enc.Add(rlp.RawValue(raw))
	return nil
}

// hashOf returns the node identity: keccak(rlp(node)) if that RLP is >= 32
// bytes, else the node is its own (embedded) identity and has no separate
// hash.
func hashOf(n node) (hashNode, []byte, error) {
	raw, err := encodeNode(n)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) < 32 {
		return nil, raw, nil
	}
	return hashNode(common.Keccak256(raw)), raw, nil
}

// decodeNode parses the on-disk RLP of one node, given the hash it was
// fetched by (used to populate the flags cache).
func decodeNode(hash, buf []byte) (node, error) {
	item, n, err := rlp.Decode(buf)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, fmt.Errorf("trie: %d trailing bytes after node", len(buf)-n)
	}
	if !item.IsList {
		return nil, fmt.Errorf("trie: expected list node")
	}
	switch len(item.List) {
	case 2:
		return decodeShort(hash, item.List)
	case 17:
		return decodeFull(hash, item.List)
	default:
		return nil, fmt.Errorf("trie: invalid node children count %d", len(item.List))
	}
}

func decodeShort(hash []byte, list []rlpItemLike) (node, error) {
	kbuf := list[0].Bytes
	key := compactToHex(kbuf)
	if hasTerm(key) {
		val := list[1].Bytes
		return &shortNode{Key: key, Val: valueNode(val), flags: nodeFlag{hash: hash}}, nil
	}
	child, err := decodeChild(list[1])
	if err != nil {
		return nil, err
	}
	return &shortNode{Key: key, Val: child, flags: nodeFlag{hash: hash}}, nil
}

func decodeFull(hash []byte, list []rlpItemLike) (node, error) {
	n := &fullNode{flags: nodeFlag{hash: hash}}
	for i := 0; i < 16; i++ {
		child, err := decodeChild(list[i])
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	if len(list[16].Bytes) > 0 || list[16].IsList {
		n.Children[16] = valueNode(list[16].Bytes)
	}
	return n, nil
}

// rlpItemLike aliases rlp.Item to keep this file decoupled from the exact
// exported shape (both live in this module so this is just documentation).
type rlpItemLike = rlp.Item

func decodeChild(it rlpItemLike) (node, error) {
	if it.IsList {
		// Embedded child: re-encode and decode recursively.
		raw, err := reencodeItem(it)
		if err != nil {
			return nil, err
		}
		return decodeNode(nil, raw)
	}
	if len(it.Bytes) == 0 {
		return nil, nil
	}
	if len(it.Bytes) == 32 {
		return hashNode(it.Bytes), nil
	}
	return nil, fmt.Errorf("trie: invalid child reference length %d", len(it.Bytes))
}

func reencodeItem(it rlpItemLike) ([]byte, error) {
	if !it.IsList {
		return rlp.EncodeToBytes(it.Bytes)
	}
	enc := rlp.NewList()
	for _, sub := range it.List {
		raw, err := reencodeItem(sub)
		if err != nil {
			return nil, err
		}
		enc.Add(rlp.RawValue(raw))
	}
	return enc.Bytes()
}
