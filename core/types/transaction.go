package types

import (
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// Transaction type tags per EIP-2718, plus the L2 PrivilegedL2TxType this
// module adds.
const (
	LegacyTxType = 0x00
	AccessListTxType = 0x01 // EIP-2930
	DynamicFeeTxType = 0x02 // EIP-1559
	BlobTxType       = 0x03 // EIP-4844
	SetCodeTxType    = 0x04 // EIP-7702
	PrivilegedL2TxType = 0x7E
)

var (
	ErrInvalidSig        = errors.New("transaction: invalid signature")
	ErrTxTypeNotSupported = errors.New("transaction: unsupported type")
)

// AccessTuple is one entry of an EIP-2930 access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// AccessList prewarms (address, slot) pairs, exempting them from the cold-access gas surcharge.
type AccessList []AccessTuple

// AuthorizationTuple is one EIP-7702 delegation authorization.
type AuthorizationTuple struct {
	ChainID *big.Int
	Address common.Address
	Nonce   uint64
	V       uint8
	R, S    *big.Int
}

// TxData is the per-type payload; Transaction wraps one of these plus
// caches.
type TxData interface {
	txType() byte
	chainID() *big.Int
	nonce() uint64
	gas() uint64
	gasFeeCap() *big.Int
	gasTipCap() *big.Int
	to() *common.Address
	value() *big.Int
	data() []byte
	accessList() AccessList
	rawSignatureValues() (v, r, s *big.Int)
	setSignatureValues(chainID, v, r, s *big.Int)
	copy() TxData
}

// Transaction is the tagged-sum envelope over the concrete tx types below. Hash is cached
// the way go-ethereum caches it, since it is recomputed on every pool
// lookup and trie key derivation otherwise.
type Transaction struct {
	inner TxData
	hash  atomic.Pointer[common.Hash]
	size  atomic.Uint64
}

func NewTx(inner TxData) *Transaction { return &Transaction{inner: inner.copy()} }

func (tx *Transaction) Type() uint8          { return tx.inner.txType() }
func (tx *Transaction) ChainId() *big.Int    { return tx.inner.chainID() }
func (tx *Transaction) Nonce() uint64        { return tx.inner.nonce() }
func (tx *Transaction) Gas() uint64          { return tx.inner.gas() }
func (tx *Transaction) GasFeeCap() *big.Int  { return tx.inner.gasFeeCap() }
func (tx *Transaction) GasTipCap() *big.Int  { return tx.inner.gasTipCap() }
func (tx *Transaction) To() *common.Address  { return tx.inner.to() }
func (tx *Transaction) Value() *big.Int      { return tx.inner.value() }
func (tx *Transaction) Data() []byte         { return tx.inner.data() }
func (tx *Transaction) AccessList() AccessList { return tx.inner.accessList() }

// IsPrivileged reports whether this is a privileged L2 transaction:
// authorised on L1, unsigned on L2, free gas, value minted on entry.
func (tx *Transaction) IsPrivileged() bool { return tx.inner.txType() == PrivilegedL2TxType }

// PrivilegedFrom returns the L1-authenticated sender of a PrivilegedL2Tx,
// the zero address for any other type.
func (tx *Transaction) PrivilegedFrom() common.Address {
	if p, ok := tx.inner.(*PrivilegedL2Tx); ok {
		return p.From
	}
	return common.Address{}
}

// L1TxHash returns the authorising L1 deposit/message hash of a
// PrivilegedL2Tx, the zero hash for any other type.
func (tx *Transaction) L1TxHash() common.Hash {
	if p, ok := tx.inner.(*PrivilegedL2Tx); ok {
		return p.L1TxHash
	}
	return common.Hash{}
}

// EffectiveGasTip returns min(gasTipCap, gasFeeCap-baseFee), the priority
// fee actually paid to the coinbase.
func (tx *Transaction) EffectiveGasTip(baseFee *big.Int) (*big.Int, error) {
	if baseFee == nil {
		return new(big.Int).Set(tx.GasTipCap()), nil
	}
	feeCap := tx.GasFeeCap()
	if feeCap.Cmp(baseFee) < 0 {
		return nil, errors.New("transaction: max fee per gas less than block base fee")
	}
	tip := tx.GasTipCap()
	headroom := new(big.Int).Sub(feeCap, baseFee)
	if tip.Cmp(headroom) < 0 {
		return new(big.Int).Set(tip), nil
	}
	return headroom, nil
}

// Hash returns the canonical transaction hash: keccak256 of the typed
// encoding (type-byte prefixed for non-legacy types), cached after first
// computation.
func (tx *Transaction) Hash() common.Hash {
	if h := tx.hash.Load(); h != nil {
		return *h
	}
	enc, err := tx.MarshalBinary()
	if err != nil {
		panic(err)
	}
	h := common.Keccak256Hash(enc)
	tx.hash.Store(&h)
	return h
}

// MarshalBinary is the EIP-2718 typed transaction encoding used for hashing,
// the transactions trie, and wire transport.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	payload, err := rlp.EncodeToBytes(tx.inner)
	if err != nil {
		return nil, err
	}
	if tx.Type() == LegacyTxType {
		return payload, nil
	}
	return append([]byte{tx.Type()}, payload...), nil
}

// RawSignatureValues returns the (v, r, s) signature triple; all three are
// nil for privileged transactions, which carry none.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) { return tx.inner.rawSignatureValues() }

// WithSignature returns a copy of tx with v,r,s populated, as produced by a
// signer after hashing the unsigned payload.
func (tx *Transaction) WithSignature(v, r, s *big.Int) *Transaction {
	cp := tx.inner.copy()
	cp.setSignatureValues(tx.ChainId(), v, r, s)
	return &Transaction{inner: cp}
}

// LegacyTx is a pre-EIP-2718 transaction.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

func (t *LegacyTx) txType() byte         { return LegacyTxType }
func (t *LegacyTx) chainID() *big.Int    { return deriveChainID(t.V) }
func (t *LegacyTx) nonce() uint64        { return t.Nonce }
func (t *LegacyTx) gas() uint64          { return t.Gas }
func (t *LegacyTx) gasFeeCap() *big.Int  { return t.GasPrice }
func (t *LegacyTx) gasTipCap() *big.Int  { return t.GasPrice }
func (t *LegacyTx) to() *common.Address  { return t.To }
func (t *LegacyTx) value() *big.Int      { return t.Value }
func (t *LegacyTx) data() []byte         { return t.Data }
func (t *LegacyTx) accessList() AccessList { return nil }
func (t *LegacyTx) rawSignatureValues() (v, r, s *big.Int) { return t.V, t.R, t.S }
func (t *LegacyTx) setSignatureValues(chainID, v, r, s *big.Int) {
	if chainID != nil && chainID.Sign() != 0 {
		v = new(big.Int).Add(v, new(big.Int).Add(new(big.Int).Mul(chainID, big.NewInt(2)), big.NewInt(35)))
	}
	t.V, t.R, t.S = v, r, s
}
func (t *LegacyTx) copy() TxData {
	cp := *t
	cp.GasPrice = copyBig(t.GasPrice)
	cp.Value = copyBig(t.Value)
	cp.Data = common.CopyBytes(t.Data)
	cp.V, cp.R, cp.S = copyBig(t.V), copyBig(t.R), copyBig(t.S)
	return &cp
}

// EncodeRLP: legacy is a bare list of its 9 fields, no type byte.
func (t *LegacyTx) EncodeRLP() ([]byte, error) {
	l := rlp.NewList().Add(t.Nonce).Add(zeroIfNilBig(t.GasPrice)).Add(t.Gas)
	addOptionalAddr(l, t.To)
	l.Add(zeroIfNilBig(t.Value)).Add(t.Data).
		Add(zeroIfNilBig(t.V)).Add(zeroIfNilBig(t.R)).Add(zeroIfNilBig(t.S))
	return l.Bytes()
}

// DynamicFeeTx is an EIP-1559 transaction.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *common.Address `rlp:"nil"`
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int
}

func (t *DynamicFeeTx) txType() byte        { return DynamicFeeTxType }
func (t *DynamicFeeTx) chainID() *big.Int   { return t.ChainID }
func (t *DynamicFeeTx) nonce() uint64       { return t.Nonce }
func (t *DynamicFeeTx) gas() uint64         { return t.Gas }
func (t *DynamicFeeTx) gasFeeCap() *big.Int { return t.GasFeeCap }
func (t *DynamicFeeTx) gasTipCap() *big.Int { return t.GasTipCap }
func (t *DynamicFeeTx) to() *common.Address { return t.To }
func (t *DynamicFeeTx) value() *big.Int     { return t.Value }
func (t *DynamicFeeTx) data() []byte        { return t.Data }
func (t *DynamicFeeTx) accessList() AccessList { return t.AccessList }
func (t *DynamicFeeTx) rawSignatureValues() (v, r, s *big.Int) { return t.V, t.R, t.S }
func (t *DynamicFeeTx) setSignatureValues(chainID, v, r, s *big.Int) { t.V, t.R, t.S = v, r, s }
func (t *DynamicFeeTx) copy() TxData {
	cp := *t
	cp.ChainID = copyBig(t.ChainID)
	cp.GasTipCap = copyBig(t.GasTipCap)
	cp.GasFeeCap = copyBig(t.GasFeeCap)
	cp.Value = copyBig(t.Value)
	cp.Data = common.CopyBytes(t.Data)
	cp.V, cp.R, cp.S = copyBig(t.V), copyBig(t.R), copyBig(t.S)
	return &cp
}

func (t *DynamicFeeTx) EncodeRLP() ([]byte, error) {
	l := rlp.NewList().Add(zeroIfNilBig(t.ChainID)).Add(t.Nonce).
		Add(zeroIfNilBig(t.GasTipCap)).Add(zeroIfNilBig(t.GasFeeCap)).Add(t.Gas)
	addOptionalAddr(l, t.To)
	l.Add(zeroIfNilBig(t.Value)).Add(t.Data).Add(encodeAccessList(t.AccessList)).
		Add(zeroIfNilBig(t.V)).Add(zeroIfNilBig(t.R)).Add(zeroIfNilBig(t.S))
	return l.Bytes()
}

// PrivilegedL2Tx carries no signature: it is authorised on L1.
// Nonce is informational only (never incremented by execution); Value is
// minted to To on entry.
type PrivilegedL2Tx struct {
	ChainID   *big.Int
	From      common.Address // authenticated by the L1 bridge, not a signature
	Nonce     uint64
	Gas       uint64
	To        *common.Address `rlp:"nil"`
	Value     *big.Int
	Data      []byte
	L1TxHash  common.Hash // the L1 deposit/message tx that authorised this
}

func (t *PrivilegedL2Tx) txType() byte        { return PrivilegedL2TxType }
func (t *PrivilegedL2Tx) chainID() *big.Int   { return t.ChainID }
func (t *PrivilegedL2Tx) nonce() uint64       { return t.Nonce }
func (t *PrivilegedL2Tx) gas() uint64         { return t.Gas }
func (t *PrivilegedL2Tx) gasFeeCap() *big.Int { return new(big.Int) }
func (t *PrivilegedL2Tx) gasTipCap() *big.Int { return new(big.Int) }
func (t *PrivilegedL2Tx) to() *common.Address { return t.To }
func (t *PrivilegedL2Tx) value() *big.Int     { return t.Value }
func (t *PrivilegedL2Tx) data() []byte        { return t.Data }
func (t *PrivilegedL2Tx) accessList() AccessList { return nil }
func (t *PrivilegedL2Tx) rawSignatureValues() (v, r, s *big.Int) { return nil, nil, nil }
func (t *PrivilegedL2Tx) setSignatureValues(chainID, v, r, s *big.Int) {}
func (t *PrivilegedL2Tx) copy() TxData {
	cp := *t
	cp.ChainID = copyBig(t.ChainID)
	cp.Value = copyBig(t.Value)
	cp.Data = common.CopyBytes(t.Data)
	return &cp
}

func (t *PrivilegedL2Tx) EncodeRLP() ([]byte, error) {
	l := rlp.NewList().Add(zeroIfNilBig(t.ChainID)).Add(t.From).Add(t.Nonce).Add(t.Gas)
	addOptionalAddr(l, t.To)
	l.Add(zeroIfNilBig(t.Value)).Add(t.Data).Add(t.L1TxHash)
	return l.Bytes()
}

func encodeAccessList(al AccessList) [][2]interface{} {
	out := make([][2]interface{}, 0, len(al))
	for _, tuple := range al {
		out = append(out, [2]interface{}{tuple.Address, tuple.StorageKeys})
	}
	return out
}

func addOptionalAddr(l *rlp.ListEncoder, to *common.Address) {
	if to == nil {
		l.Add([]byte(nil))
		return
	}
	l.Add(*to)
}

func copyBig(b *big.Int) *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).Set(b)
}

func zeroIfNilBig(b *big.Int) big.Int {
	if b == nil {
		return *new(big.Int)
	}
	return *b
}

// deriveChainID recovers the chain id encoded into a legacy tx's V value
// per EIP-155: v = chainId*2 + 35 + {0,1}.
func deriveChainID(v *big.Int) *big.Int {
	if v == nil || v.BitLen() <= 8 {
		return new(big.Int)
	}
	vv := new(big.Int).Sub(v, big.NewInt(35))
	return vv.Rsh(vv, 1)
}
