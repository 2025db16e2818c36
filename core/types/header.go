package types

import (
	"fmt"
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// Header is a block header. The pointer fields after BaseFee are nil
// before the fork that introduced them (WithdrawalsHash from Shanghai,
// BlobGasUsed/ExcessBlobGas/ParentBeaconRoot from Cancun, RequestsHash
// from Prague) — see internal/chainconfig for the fork lattice that
// governs which are validated.
type Header struct {
	ParentHash       common.Hash
	UncleHash        common.Hash
	Coinbase         common.Address
	Root             common.Hash // state root
	TxHash           common.Hash // transactions root
	ReceiptHash      common.Hash // receipts root
	Bloom            [256]byte
	Difficulty       *big.Int
	Number           *big.Int
	GasLimit         uint64
	GasUsed          uint64
	Time             uint64
	Extra            []byte
	MixDigest        common.Hash
	Nonce            [8]byte
	BaseFee          *big.Int     // London+
	WithdrawalsHash  *common.Hash `rlp:"-"` // Shanghai+, nil before
	BlobGasUsed      *uint64      `rlp:"-"` // Cancun+
	ExcessBlobGas    *uint64      `rlp:"-"` // Cancun+
	ParentBeaconRoot *common.Hash `rlp:"-"` // Cancun+
	RequestsHash     *common.Hash `rlp:"-"` // Prague+
}

// Hash returns the keccak256 of the RLP encoding of the header, the value
// that chains into ParentHash of its children and is the block hash.
func (h *Header) Hash() common.Hash {
	enc, err := h.encodeForHash()
	if err != nil {
		panic(err)
	}
	return common.Keccak256Hash(enc)
}

// encodeForHash RLP-encodes the header including only the optional fields
// actually present, matching go-ethereum's variable-arity header encoding
// across forks.
func (h *Header) encodeForHash() ([]byte, error) {
	l := rlp.NewList().
		Add(h.ParentHash).
		Add(h.UncleHash).
		Add(h.Coinbase).
		Add(h.Root).
		Add(h.TxHash).
		Add(h.ReceiptHash).
		Add(h.Bloom).
		Add(zeroIfNil(h.Difficulty)).
		Add(zeroIfNil(h.Number)).
		Add(h.GasLimit).
		Add(h.GasUsed).
		Add(h.Time).
		Add(h.Extra).
		Add(h.MixDigest).
		Add(h.Nonce)
	if h.BaseFee != nil {
		l.Add(*h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		l.Add(*h.WithdrawalsHash)
	}
	if h.BlobGasUsed != nil {
		l.Add(*h.BlobGasUsed)
	}
	if h.ExcessBlobGas != nil {
		l.Add(*h.ExcessBlobGas)
	}
	if h.ParentBeaconRoot != nil {
		l.Add(*h.ParentBeaconRoot)
	}
	if h.RequestsHash != nil {
		l.Add(*h.RequestsHash)
	}
	return l.Bytes()
}

func zeroIfNil(b *big.Int) big.Int {
	if b == nil {
		return *big.NewInt(0)
	}
	return *b
}

// EncodeRLP is the header's canonical wire/storage encoding; identical to
// encodeForHash since the block hash is keccak256 of exactly this byte
// string.
func (h *Header) EncodeRLP() ([]byte, error) { return h.encodeForHash() }

// DecodeHeaderRLP decodes a header encoded by EncodeRLP. The optional
// post-London fields are variable-arity: however many of the six trailing
// fields (BaseFee, WithdrawalsHash, BlobGasUsed, ExcessBlobGas,
// ParentBeaconRoot, RequestsHash) are present, they always appear as a
// prefix of that fixed sequence, since a chain only ever activates forks
// in order.
func DecodeHeaderRLP(enc []byte) (*Header, error) {
	item, n, err := rlp.Decode(enc)
	if err != nil {
		return nil, err
	}
	if n != len(enc) {
		return nil, fmt.Errorf("rlp: %d trailing bytes", len(enc)-n)
	}
	if !item.IsList || len(item.List) < 15 {
		return nil, fmt.Errorf("rlp: header expects at least 15 fields, got %d", len(item.List))
	}
	f := item.List
	h := &Header{
		ParentHash:  common.BytesToHash(f[0].Bytes),
		UncleHash:   common.BytesToHash(f[1].Bytes),
		Coinbase:    common.BytesToAddress(f[2].Bytes),
		Root:        common.BytesToHash(f[3].Bytes),
		TxHash:      common.BytesToHash(f[4].Bytes),
		ReceiptHash: common.BytesToHash(f[5].Bytes),
		Difficulty:  new(big.Int).SetBytes(f[7].Bytes),
		Number:      new(big.Int).SetBytes(f[8].Bytes),
		GasLimit:    new(big.Int).SetBytes(f[9].Bytes).Uint64(),
		GasUsed:     new(big.Int).SetBytes(f[10].Bytes).Uint64(),
		Time:        new(big.Int).SetBytes(f[11].Bytes).Uint64(),
		Extra:       append([]byte(nil), f[12].Bytes...),
		MixDigest:   common.BytesToHash(f[13].Bytes),
	}
	copy(h.Bloom[:], f[6].Bytes)
	copy(h.Nonce[:], f[14].Bytes)

	extra := len(f) - 15
	idx := 15
	if extra >= 1 {
		h.BaseFee = new(big.Int).SetBytes(f[idx].Bytes)
		idx++
	}
	if extra >= 2 {
		v := common.BytesToHash(f[idx].Bytes)
		h.WithdrawalsHash = &v
		idx++
	}
	if extra >= 3 {
		v := new(big.Int).SetBytes(f[idx].Bytes).Uint64()
		h.BlobGasUsed = &v
		idx++
	}
	if extra >= 4 {
		v := new(big.Int).SetBytes(f[idx].Bytes).Uint64()
		h.ExcessBlobGas = &v
		idx++
	}
	if extra >= 5 {
		v := common.BytesToHash(f[idx].Bytes)
		h.ParentBeaconRoot = &v
		idx++
	}
	if extra >= 6 {
		v := common.BytesToHash(f[idx].Bytes)
		h.RequestsHash = &v
		idx++
	}
	return h, nil
}

// Copy returns a deep copy of the header for mutation during block
// assembly (L2 Block Producer) without aliasing the parent's fields.
func (h *Header) Copy() *Header {
	cp := *h
	if h.Difficulty != nil {
		cp.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cp.Number = new(big.Int).Set(h.Number)
	}
	if h.BaseFee != nil {
		v := new(big.Int).Set(h.BaseFee)
		cp.BaseFee = v
	}
	cp.Extra = common.CopyBytes(h.Extra)
	return &cp
}
