// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package dacodec implements the batch state-diff codec: a compact,
// version-tagged encoding of what changed across one batch of L2
// blocks, framed for blob-carrying DA submission. Grounded on
// luxfi-evm's own hand-rolled wire codecs (rlp/, the header/transaction
// EncodeRLP methods) for the "encode fields by hand into a byte
// buffer, field order fixed by the format" idiom — this format is not
// RLP, so it is encoded directly against its own byte layout rather
// than through the rlp package.
package dacodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/trie"
	"github.com/golang/snappy"
)

// Version is the one codec version this module implements.
const Version byte = 0x01

// Change-type bitmask bits.
const (
	ChangeBalance      = 0x01
	ChangeNonce        = 0x02
	ChangeStorage      = 0x04
	ChangeNewCode      = 0x08
	ChangeKnownCode    = 0x10
)

// HeaderInfo is the last block's header fields the batch diff commits to.
type HeaderInfo struct {
	TxRoot      common.Hash
	ReceiptRoot common.Hash
	ParentHash  common.Hash
	GasLimit    uint64
	GasUsed     uint64
	Timestamp   uint64
	BlockNumber uint64
	BaseFee     uint64
}

// StorageChange is one modified slot.
type StorageChange struct {
	Slot     common.Hash
	NewValue common.Hash
}

// ModifiedAccount is one account's changes within a batch.
type ModifiedAccount struct {
	Address      common.Address
	Balance      *big.Int // present iff ChangeBalance
	NonceIncr    uint16   // present iff ChangeNonce
	Storage      []StorageChange
	NewCode      []byte      // present iff ChangeNewCode
	KnownCodeHash common.Hash // present iff ChangeKnownCode

	// WithdrawalOnly marks an account whose only change in this batch was
	// caused by a withdrawal credit, reconstructable as
	// "nonce++; balance -= amount" without carrying an explicit entry.
	// Encode skips such accounts from the modified-accounts list
	// entirely; Decode never sets this field since it only ever applies
	// at encode time.
	WithdrawalOnly bool
}

func (m ModifiedAccount) changeType() byte {
	var t byte
	if m.Balance != nil {
		t |= ChangeBalance
	}
	if m.NonceIncr != 0 {
		t |= ChangeNonce
	}
	if len(m.Storage) > 0 {
		t |= ChangeStorage
	}
	if len(m.NewCode) > 0 {
		t |= ChangeNewCode
	}
	if m.KnownCodeHash != (common.Hash{}) {
		t |= ChangeKnownCode
	}
	return t
}

// WithdrawalLog is one L2-to-L1 withdrawal recorded in the batch.
type WithdrawalLog struct {
	Account common.Address
	Amount  *big.Int
	LogHash common.Hash
}

// PrivilegedTxLog is one privileged L2 transaction executed in the batch,
// in the order it was applied (the rolling-hash input).
type PrivilegedTxLog struct {
	L1TxHash common.Hash
	TxHash   common.Hash
}

// Batch is the full decoded/pre-encode state-diff for one batch.
type Batch struct {
	Header       HeaderInfo
	Accounts     []ModifiedAccount
	Withdrawals  []WithdrawalLog
	Privileged   []PrivilegedTxLog
}

// Encode serializes b into the versioned wire format, with accounts
// whose WithdrawalOnly flag is set elided from the modified-accounts
// list (the compression rule).
func Encode(b *Batch) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(Version)

	writeHash(&buf, b.Header.TxRoot)
	writeHash(&buf, b.Header.ReceiptRoot)
	writeHash(&buf, b.Header.ParentHash)
	writeU64(&buf, b.Header.GasLimit)
	writeU64(&buf, b.Header.GasUsed)
	writeU64(&buf, b.Header.Timestamp)
	writeU64(&buf, b.Header.BlockNumber)
	writeU64(&buf, b.Header.BaseFee)

	included := make([]ModifiedAccount, 0, len(b.Accounts))
	for _, a := range b.Accounts {
		if a.WithdrawalOnly {
			continue
		}
		included = append(included, a)
	}
	writeU16(&buf, uint16(len(included)))
	for _, a := range included {
		if err := encodeAccount(&buf, a); err != nil {
			return nil, err
		}
	}

	writeU16(&buf, uint16(len(b.Withdrawals)))
	for _, w := range b.Withdrawals {
		buf.Write(a32(w.Account))
		writeU256(&buf, w.Amount)
		writeHash(&buf, w.LogHash)
	}

	writeU16(&buf, uint16(len(b.Privileged)))
	for _, p := range b.Privileged {
		writeHash(&buf, p.L1TxHash)
		writeHash(&buf, p.TxHash)
	}

	return buf.Bytes(), nil
}

func encodeAccount(buf *bytes.Buffer, a ModifiedAccount) error {
	buf.WriteByte(a.changeType())
	buf.Write(a.Address[:])
	if a.Balance != nil {
		writeU256(buf, a.Balance)
	}
	if a.NonceIncr != 0 {
		writeU16(buf, a.NonceIncr)
	}
	if len(a.Storage) > 0 {
		writeU16(buf, uint16(len(a.Storage)))
		for _, s := range a.Storage {
			writeHash(buf, s.Slot)
			writeHash(buf, s.NewValue)
		}
	}
	if len(a.NewCode) > 0 {
		if len(a.NewCode) > 0xffff {
			return fmt.Errorf("dacodec: bytecode too large (%d bytes)", len(a.NewCode))
		}
		writeU16(buf, uint16(len(a.NewCode)))
		buf.Write(a.NewCode)
	}
	if a.KnownCodeHash != (common.Hash{}) {
		writeHash(buf, a.KnownCodeHash)
	}
	return nil
}

// Decode parses the output of Encode.
func Decode(data []byte) (*Batch, error) {
	r := bytes.NewReader(data)
	ver, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("dacodec: empty input")
	}
	if ver != Version {
		return nil, fmt.Errorf("dacodec: unsupported version 0x%02x", ver)
	}

	b := &Batch{}
	b.Header.TxRoot, err = readHash(r)
	if err != nil {
		return nil, err
	}
	if b.Header.ReceiptRoot, err = readHash(r); err != nil {
		return nil, err
	}
	if b.Header.ParentHash, err = readHash(r); err != nil {
		return nil, err
	}
	if b.Header.GasLimit, err = readU64(r); err != nil {
		return nil, err
	}
	if b.Header.GasUsed, err = readU64(r); err != nil {
		return nil, err
	}
	if b.Header.Timestamp, err = readU64(r); err != nil {
		return nil, err
	}
	if b.Header.BlockNumber, err = readU64(r); err != nil {
		return nil, err
	}
	if b.Header.BaseFee, err = readU64(r); err != nil {
		return nil, err
	}

	nAccounts, err := readU16(r)
	if err != nil {
		return nil, err
	}
	for i := uint16(0); i < nAccounts; i++ {
		a, err := decodeAccount(r)
		if err != nil {
			return nil, fmt.Errorf("dacodec: account %d: %w", i, err)
		}
		b.Accounts = append(b.Accounts, a)
	}

	nWithdrawals, err := readU16(r)
	if err != nil {
		return nil, err
	}
	for i := uint16(0); i < nWithdrawals; i++ {
		var w WithdrawalLog
		addr, err := readAddress(r)
		if err != nil {
			return nil, err
		}
		w.Account = addr
		if w.Amount, err = readU256(r); err != nil {
			return nil, err
		}
		if w.LogHash, err = readHash(r); err != nil {
			return nil, err
		}
		b.Withdrawals = append(b.Withdrawals, w)
	}

	nPrivileged, err := readU16(r)
	if err != nil {
		return nil, err
	}
	for i := uint16(0); i < nPrivileged; i++ {
		var p PrivilegedTxLog
		if p.L1TxHash, err = readHash(r); err != nil {
			return nil, err
		}
		if p.TxHash, err = readHash(r); err != nil {
			return nil, err
		}
		b.Privileged = append(b.Privileged, p)
	}

	return b, nil
}

func decodeAccount(r *bytes.Reader) (ModifiedAccount, error) {
	var a ModifiedAccount
	t, err := r.ReadByte()
	if err != nil {
		return a, err
	}
	addr, err := readAddress(r)
	if err != nil {
		return a, err
	}
	a.Address = addr
	if t&ChangeBalance != 0 {
		if a.Balance, err = readU256(r); err != nil {
			return a, err
		}
	}
	if t&ChangeNonce != 0 {
		if a.NonceIncr, err = readU16(r); err != nil {
			return a, err
		}
	}
	if t&ChangeStorage != 0 {
		n, err := readU16(r)
		if err != nil {
			return a, err
		}
		for i := uint16(0); i < n; i++ {
			var s StorageChange
			if s.Slot, err = readHash(r); err != nil {
				return a, err
			}
			if s.NewValue, err = readHash(r); err != nil {
				return a, err
			}
			a.Storage = append(a.Storage, s)
		}
	}
	if t&ChangeNewCode != 0 {
		n, err := readU16(r)
		if err != nil {
			return a, err
		}
		code := make([]byte, n)
		if _, err := r.Read(code); err != nil {
			return a, err
		}
		a.NewCode = code
	}
	if t&ChangeKnownCode != 0 {
		if a.KnownCodeHash, err = readHash(r); err != nil {
			return a, err
		}
	}
	return a, nil
}

// CompressBlob snappy-compresses an encoded batch ahead of blob framing,
// using golang/snappy (luxfi-evm's own block-compression dependency).
func CompressBlob(encoded []byte) []byte {
	return snappy.Encode(nil, encoded)
}

// DecompressBlob inverts CompressBlob.
func DecompressBlob(compressed []byte) ([]byte, error) {
	return snappy.Decode(nil, compressed)
}

// FrameForBlob packs data into the blob's field-element layout: a zero
// byte before every 31-byte chunk so each resulting 32-byte word is a
// valid BLS12-381 scalar (always < the field modulus, since the top byte
// is always zero). The final chunk is zero-padded to 31 bytes.
func FrameForBlob(data []byte) []byte {
	const chunk = 31
	n := (len(data) + chunk - 1) / chunk
	if n == 0 {
		n = 1
	}
	out := make([]byte, 0, n*32)
	for i := 0; i < n; i++ {
		start := i * chunk
		end := start + chunk
		var word [32]byte // word[0] stays zero
		if start < len(data) {
			if end > len(data) {
				end = len(data)
			}
			copy(word[1:], data[start:end])
		}
		out = append(out, word[:]...)
	}
	return out
}

// UnframeFromBlob inverts FrameForBlob, dropping the leading zero byte of
// every 32-byte word. Trailing zero padding in the final chunk is left to
// the caller to trim (the codec's own length-prefixed fields make this
// unambiguous once decoded).
func UnframeFromBlob(framed []byte) ([]byte, error) {
	if len(framed)%32 != 0 {
		return nil, fmt.Errorf("dacodec: framed blob length %d not a multiple of 32", len(framed))
	}
	out := make([]byte, 0, len(framed)/32*31)
	for i := 0; i < len(framed); i += 32 {
		out = append(out, framed[i+1:i+32]...)
	}
	return out, nil
}

// RollingHash folds a batch's privileged transactions into the single
// commitment the L1 Committer submits alongside commitBatch, each step
// hashing the previous accumulator together with the next transaction's
// L1 origin hash and its L2 execution hash — so a verifier who only has
// the batch's privileged-tx log list (not the transactions themselves)
// can still recompute and check the same value.
func RollingHash(logs []PrivilegedTxLog) common.Hash {
	acc := common.Hash{}
	for _, l := range logs {
		acc = common.Keccak256Hash(acc.Bytes(), l.L1TxHash.Bytes(), l.TxHash.Bytes())
	}
	return acc
}

// WithdrawalsRoot builds the Merkle root over a batch's withdrawal logs
// using the module's own ephemeral trie, the same throwaway-trie
// convention core/block.DeriveReceiptsRoot uses for receipts/transactions
// roots (keyed by rlp(uint(index)) would require the rlp package; here
// the index is encoded directly as a 2-byte big-endian key since this
// trie never needs to interoperate with a consensus-RLP-keyed trie).
func WithdrawalsRoot(logs []WithdrawalLog) (common.Hash, error) {
	t := trie.NewEmpty(trie.NewDatabase())
	for i, l := range logs {
		key := make([]byte, 2)
		binary.BigEndian.PutUint16(key, uint16(i))
		leaf, err := encodeWithdrawalLeaf(l)
		if err != nil {
			return common.Hash{}, err
		}
		if err := t.Put(key, leaf); err != nil {
			return common.Hash{}, err
		}
	}
	return t.Commit()
}

func encodeWithdrawalLeaf(l WithdrawalLog) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(l.Account[:])
	writeU256(&buf, l.Amount)
	writeHash(&buf, l.LogHash)
	return buf.Bytes(), nil
}

func a32(a common.Address) []byte { return a[:] }

func writeHash(buf *bytes.Buffer, h common.Hash) { buf.Write(h[:]) }

func readHash(r *bytes.Reader) (common.Hash, error) {
	var h common.Hash
	if _, err := r.Read(h[:]); err != nil {
		return h, fmt.Errorf("dacodec: short hash: %w", err)
	}
	return h, nil
}

func readAddress(r *bytes.Reader) (common.Address, error) {
	var a common.Address
	if _, err := r.Read(a[:]); err != nil {
		return a, fmt.Errorf("dacodec: short address: %w", err)
	}
	return a, nil
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readU64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, fmt.Errorf("dacodec: short u64: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, fmt.Errorf("dacodec: short u16: %w", err)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// writeU256 writes v as a big-endian 32-byte word, the fixed-width
// field shape used for balances and slot keys/values.
func writeU256(buf *bytes.Buffer, v *big.Int) {
	var word [32]byte
	if v != nil {
		v.FillBytes(word[:])
	}
	buf.Write(word[:])
}

func readU256(r *bytes.Reader) (*big.Int, error) {
	var word [32]byte
	if _, err := r.Read(word[:]); err != nil {
		return nil, fmt.Errorf("dacodec: short u256: %w", err)
	}
	return new(big.Int).SetBytes(word[:]), nil
}
