package trie

import (
	"bytes"
	"errors"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// ProofDB is the destination for Prove: one entry per node touched on the
// path, keyed by its hash (or, for an embedded node, by the keccak of its
// RLP so exclusion proofs can still be looked up uniformly).
type ProofDB interface {
	Put(key, value []byte)
}

// MapProofDB is the common in-memory ProofDB implementation used both as
// the wire format (a node_rlp list) and as
// the witness's extra-nodes set.
type MapProofDB map[string][]byte

func (m MapProofDB) Put(key, value []byte) { m[string(key)] = common.CopyBytes(value) }

// Prove walks from the root to key, writing every node's RLP encoding
// (inclusion proof) or as far as the trie diverges from key (exclusion
// proof) into proofDB. Returns the ordered list of node RLPs as well, the
// wire shape a `list<node_rlp>`.
func (t *Trie) Prove(key []byte, proofDB ProofDB) ([][]byte, error) {
	var nodes [][]byte
	n := t.root
	k := keybytesToHex(key)
	for len(k) > 0 && n != nil {
		switch cur := n.(type) {
		case *shortNode:
			match := prefixLen(k, cur.Key)
			raw, err := encodeNode(cur)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, raw)
			if match < len(cur.Key) {
				n = nil // diverges: exclusion proof complete
				break
			}
			k = k[len(cur.Key):]
			n = cur.Val
		case *fullNode:
			raw, err := encodeNode(cur)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, raw)
			n = cur.Children[k[0]]
			k = k[1:]
		case hashNode:
			resolved, err := t.resolve(cur, nil)
			if err != nil {
				return nil, err
			}
			n = resolved
		case valueNode:
			n = nil
		default:
			n = nil
		}
	}
	for _, raw := range nodes {
		proofDB.Put(common.Keccak256(raw), raw)
	}
	return nodes, nil
}

// VerifyProof checks that key maps to value (inclusion) or is absent
// (exclusion, value == nil) under rootHash, given the node list from Prove.
func VerifyProof(rootHash common.Hash, key []byte, proof [][]byte) (value []byte, err error) {
	want := rootHash.Bytes()
	k := keybytesToHex(key)
	for _, raw := range proof {
		got := common.Keccak256(raw)
		if !bytes.Equal(got, want) {
			return nil, errors.New("trie: broken proof chain")
		}
		item, _, derr := rlp.Decode(raw)
		if derr != nil {
			return nil, derr
		}
		switch len(item.List) {
		case 2:
			nkey := compactToHex(item.List[0].Bytes)
			if prefixLen(k, nkey) < len(nkey) {
				return nil, nil // exclusion: path diverges here
			}
			k = k[len(nkey):]
			if hasTerm(nkey) {
				return item.List[1].Bytes, nil
			}
			want = childRef(item.List[1])
		case 17:
			if len(k) == 0 {
				if len(item.List[16].Bytes) == 0 {
					return nil, nil
				}
				return item.List[16].Bytes, nil
			}
			child := item.List[k[0]]
			if len(child.Bytes) == 0 && !child.IsList {
				return nil, nil // exclusion: empty slot
			}
			k = k[1:]
			want = childRef(child)
		default:
			return nil, errors.New("trie: invalid proof node")
		}
	}
	return nil, errors.New("trie: proof ended before reaching a leaf or empty slot")
}

// childRef returns the hash (or, for an embedded child, the keccak of its
// re-encoded RLP) the next proof entry must match.
func childRef(it rlp.Item) []byte {
	if !it.IsList {
		return it.Bytes
	}
	raw, _ := reencodeItem(it)
	return common.Keccak256(raw)
}
