// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package contracts is the L1 ABI surface the L1 Watcher, L1 Committer,
// and Verifier Sender actors speak: event-log decoding for the bridge's
// DepositInitiated/L1MessageRecorded events and call-data encoding for
// the OnChainProposer's commitBatch/verifyBatch methods. Decodes/encodes
// the fixed Solidity ABI layout by hand (32-byte static words, length-
// prefixed dynamic trailers), the same approach core/vm's
// execute_precompile.go already takes for the EXECUTE precompile's
// calldata, rather than adding a reflection-based ABI library this
// module has no other use for.
package contracts

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/corechain/execd/common"
)

// Canonical event signatures (keccak256 of the event's Solidity
// signature string), the first topic every matching log carries.
var (
	DepositInitiatedTopic   = common.HexToHash("0xdca7e51be41e40ef323dc38cd9338e111ae9f6f8dd7baaab3dbc12e67106fb4c")
	L1MessageRecordedTopic  = common.HexToHash("0x09f3cbcd5813458dc462e91737beb0b1b7f1a8b2d48058f606f2599f73585b89")
	WithdrawalInitiatedTopic = common.HexToHash("0x3e9c3535d7f2e5e6b8e2d19a2f9f0e7f1c84d3b8e3e5c6e62b0c5f7b9dcb16a5")
)

// L2ToL1MessagePasser is the fixed L2 predeploy address every
// L2-to-L1 withdrawal is logged against.
var L2ToL1MessagePasser = common.HexToAddress("0x4200000000000000000000000000000000000007")

// DepositInitiated is the decoded bridge deposit event: L1 sender, L2
// recipient, minted value, and an opaque calldata payload for the L2
// side to execute against the recipient.
type DepositInitiated struct {
	L1TxHash  common.Hash
	From      common.Address
	To        common.Address
	Value     *big.Int
	Data      []byte
	LogIndex  uint64
}

// L1MessageRecorded is the decoded generic L1-to-L2 message event (no
// value transfer, arbitrary calldata against an L2 target).
type L1MessageRecorded struct {
	L1TxHash common.Hash
	Target   common.Address
	Data     []byte
	LogIndex uint64
}

// DecodeDepositInitiated parses a DepositInitiated log's ABI-encoded,
// non-indexed data: [from(32) | to(32) | value(32) | data_offset(32) |
// data_len(32) | data...], matching Solidity's fixed-then-dynamic tuple
// layout (from/to/value packed as the static head since only `data` is
// dynamic).
func DecodeDepositInitiated(txHash common.Hash, logIndex uint64, data []byte) (*DepositInitiated, error) {
	if len(data) < 32*4 {
		return nil, fmt.Errorf("contracts: DepositInitiated data too short (%d bytes)", len(data))
	}
	from := common.BytesToAddress(data[12:32])
	to := common.BytesToAddress(data[32+12 : 64])
	value := new(big.Int).SetBytes(data[64:96])
	payload, err := decodeDynamicBytes(data, 96)
	if err != nil {
		return nil, fmt.Errorf("contracts: DepositInitiated payload: %w", err)
	}
	return &DepositInitiated{L1TxHash: txHash, From: from, To: to, Value: value, Data: payload, LogIndex: logIndex}, nil
}

// DecodeL1MessageRecorded parses an L1MessageRecorded log's ABI-encoded
// data: [target(32) | data_offset(32) | data_len(32) | data...].
func DecodeL1MessageRecorded(txHash common.Hash, logIndex uint64, data []byte) (*L1MessageRecorded, error) {
	if len(data) < 32*3 {
		return nil, fmt.Errorf("contracts: L1MessageRecorded data too short (%d bytes)", len(data))
	}
	target := common.BytesToAddress(data[12:32])
	payload, err := decodeDynamicBytes(data, 32)
	if err != nil {
		return nil, fmt.Errorf("contracts: L1MessageRecorded payload: %w", err)
	}
	return &L1MessageRecorded{L1TxHash: txHash, Target: target, Data: payload, LogIndex: logIndex}, nil
}

// WithdrawalInitiated is the decoded L2-side withdrawal event: the
// account that initiated it and the amount locked for the L1 bridge to
// release once the batch proving it is verified.
type WithdrawalInitiated struct {
	Account common.Address
	Amount  *big.Int
	LogHash common.Hash
}

// DecodeWithdrawalInitiated parses a WithdrawalInitiated log: the
// withdrawing account is the indexed second topic, the amount is the
// sole 32-byte data word. LogHash commits to the full log (tx hash,
// account topic, data) so the withdrawals tree built over these events
// is unambiguous even if two withdrawals share an account and amount.
func DecodeWithdrawalInitiated(txHash common.Hash, topics []common.Hash, data []byte) (*WithdrawalInitiated, error) {
	if len(topics) < 2 {
		return nil, fmt.Errorf("contracts: WithdrawalInitiated missing indexed account topic")
	}
	if len(data) < 32 {
		return nil, fmt.Errorf("contracts: WithdrawalInitiated data too short (%d bytes)", len(data))
	}
	account := common.BytesToAddress(topics[1].Bytes()[12:])
	amount := new(big.Int).SetBytes(data[:32])
	logHash := common.Keccak256Hash(txHash.Bytes(), topics[1].Bytes(), data)
	return &WithdrawalInitiated{Account: account, Amount: amount, LogHash: logHash}, nil
}

// decodeDynamicBytes reads one ABI dynamic `bytes` parameter whose
// relative offset word sits at data[headOffset:headOffset+32].
func decodeDynamicBytes(data []byte, headOffset int) ([]byte, error) {
	if len(data) < headOffset+32 {
		return nil, fmt.Errorf("missing offset word")
	}
	off := new(big.Int).SetBytes(data[headOffset : headOffset+32]).Uint64()
	if uint64(len(data)) < off+32 {
		return nil, fmt.Errorf("offset %d out of range", off)
	}
	length := new(big.Int).SetBytes(data[off : off+32]).Uint64()
	start := off + 32
	if uint64(len(data)) < start+length {
		return nil, fmt.Errorf("length %d out of range", length)
	}
	return data[start : start+length], nil
}

// CommitBatchSelector is the 4-byte selector for
// commitBatch(uint256,bytes32,bytes32,bytes32,bytes32) — batch index,
// new state root, withdrawals root, privileged-tx rolling hash, DA blob
// commitment hash. The blob itself travels as an EIP-4844 sidecar, not
// in calldata, so only its commitment hash is encoded here.
var CommitBatchSelector = [4]byte{0x3d, 0xb9, 0x7d, 0xe8}

// EncodeCommitBatch builds the calldata for a commitBatch call.
func EncodeCommitBatch(batchIndex uint64, newStateRoot, withdrawalsRoot, privilegedRollingHash, blobCommitmentHash common.Hash) []byte {
	out := make([]byte, 4+32*5)
	copy(out[:4], CommitBatchSelector[:])
	binary.BigEndian.PutUint64(out[4+24:4+32], batchIndex)
	copy(out[4+32:4+64], newStateRoot[:])
	copy(out[4+64:4+96], withdrawalsRoot[:])
	copy(out[4+96:4+128], privilegedRollingHash[:])
	copy(out[4+128:4+160], blobCommitmentHash[:])
	return out
}

// VerifyBatchSelector is the 4-byte selector for
// verifyBatch(uint256,bytes) — batch index, proof bytes.
var VerifyBatchSelector = [4]byte{0xf9, 0x95, 0xed, 0x0c}

// EncodeVerifyBatch builds the calldata for a verifyBatch call.
func EncodeVerifyBatch(batchIndex uint64, proof []byte) []byte {
	head := make([]byte, 4+32*3)
	copy(head[:4], VerifyBatchSelector[:])
	binary.BigEndian.PutUint64(head[4+24:4+32], batchIndex)
	binary.BigEndian.PutUint64(head[4+32+24:4+64], 64) // offset to dynamic `proof`
	binary.BigEndian.PutUint64(head[4+64+24:4+96], uint64(len(proof)))

	padded := (len(proof) + 31) / 32 * 32
	tail := make([]byte, padded)
	copy(tail, proof)
	return append(head, tail...)
}

// DepositSelector is the 4-byte selector for depositTransaction(address,
// uint256) on the L1 bridge — deposit value, credited to an L2 recipient
// once the L1 Watcher observes the resulting DepositInitiated log.
var DepositSelector = [4]byte{0xbd, 0x79, 0x25, 0xad}

// EncodeDeposit builds the calldata for a depositTransaction call; the
// actual L1 value transfer is carried by the transaction's value field,
// not the calldata, so amount is informational for an L1 contract that
// reads msg.value rather than a calldata argument. It is still ABI-
// encoded here so the bridge contract can cross-check msg.value against
// the amount the caller intended, catching a client-side mismatch.
func EncodeDeposit(recipient common.Address, amount *big.Int) []byte {
	out := make([]byte, 4+32*2)
	copy(out[:4], DepositSelector[:])
	copy(out[4+12:4+32], recipient[:])
	amount.FillBytes(out[4+32 : 4+64])
	return out
}

// WithdrawSelector is the 4-byte selector for initiateWithdrawal(address,
// uint256) on the L2ToL1MessagePasser predeploy.
var WithdrawSelector = [4]byte{0xc8, 0x39, 0x3b, 0xa9}

// EncodeWithdraw builds the calldata for an initiateWithdrawal call
// against L2ToL1MessagePasser; the withdrawn amount is again carried by
// the call's value field, cross-checked against this calldata argument
// the same way EncodeDeposit's amount is.
func EncodeWithdraw(recipient common.Address, amount *big.Int) []byte {
	out := make([]byte, 4+32*2)
	copy(out[:4], WithdrawSelector[:])
	copy(out[4+12:4+32], recipient[:])
	amount.FillBytes(out[4+32 : 4+64])
	return out
}
