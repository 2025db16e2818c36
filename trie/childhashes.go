package trie

import "github.com/corechain/execd/common"

// ChildHashes parses a single trie node's raw RLP and returns the hash
// references (32-byte children not embedded by value) it points at. This
// is the primitive snap-sync healing needs from outside this package: to
// decide whether a staged node can move from the membatch into the
// committed store, it must know exactly which child hashes that node
// still needs without re-implementing node decoding itself.
func ChildHashes(raw []byte) ([]common.Hash, error) {
	n, err := decodeNode(nil, raw)
	if err != nil {
		return nil, err
	}
	var out []common.Hash
	collectChildHashes(n, &out)
	return out, nil
}

func collectChildHashes(n node, out *[]common.Hash) {
	switch n := n.(type) {
	case *fullNode:
		for _, c := range n.Children {
			addChildHash(c, out)
		}
	case *shortNode:
		addChildHash(n.Val, out)
	}
}

func addChildHash(n node, out *[]common.Hash) {
	switch n := n.(type) {
	case hashNode:
		*out = append(*out, common.BytesToHash(n))
	case *fullNode:
		collectChildHashes(n, out)
	case *shortNode:
		collectChildHashes(n, out)
	}
}
