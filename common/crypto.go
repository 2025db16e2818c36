package common

import "golang.org/x/crypto/sha3"

// KeccakEmpty is keccak256(nil), the code hash of an account with no code.
var KeccakEmpty = HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

// KeccakEmptyTrie is the root hash of a trie with no entries:
// keccak256(rlp("")) = keccak256(0x80).
var KeccakEmptyTrie = HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash hashes the concatenation of data into a Hash.
func Keccak256Hash(data ...[]byte) Hash {
	return BytesToHash(Keccak256(data...))
}
