// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/internal/errs"
)

// l2ExecuteAddress and AnchorAddress name the two native-rollup
// addresses: EXECUTE at 0x...0101 re-executes an L2 block against a
// claimed pre-state root (the based/native-rollup settlement hook);
// AnchorAddress (0x...0102) names the anchor predeploy for bridged L1
// header info. Only EXECUTE is installed as a precompile, and no code in
// this module calls or writes to AnchorAddress.
var (
	l2ExecuteAddress = addr16(0x0101)
	AnchorAddress    = addr16(0x0102)
)

func addr16(v uint16) common.Address {
	var a common.Address
	a[common.AddressLength-2] = byte(v >> 8)
	a[common.AddressLength-1] = byte(v)
	return a
}

// ExecuteRequest is the decoded form of the EXECUTE precompile's ABI input.
type ExecuteRequest struct {
	PreStateRoot     common.Hash
	PostStateRoot    common.Hash
	PostReceiptsRoot common.Hash
	BlockNumber      uint64
	GasLimit         uint64
	Coinbase         common.Address
	PrevRandao       common.Hash
	Timestamp        uint64
	ParentBaseFee    *big.Int
	ParentGasLimit   uint64
	ParentGasUsed    uint64
	L1Anchor         common.Hash
	TransactionsRLP  []byte
	Witness          []byte
}

// ExecuteResult is the ABI output: the recomputed post-state root, the
// block number re-executed, total gas used, fees burned (EIP-1559 base fee
// portion), and the base fee the block itself declared.
type ExecuteResult struct {
	PostStateRoot common.Hash
	BlockNumber   uint64
	GasUsed       uint64
	BurnedFees    *big.Int
	BaseFeePerGas *big.Int
}

// BlockReExecutor is set by core/block.ConfigureReExecution so core/vm's
// EXECUTE precompile can drive a full block replay without core/vm
// importing core/block (which imports core/vm for the EVM itself). It is
// nil until that call; a precompile call before then fails closed with
// errs.ErrUnknownProverBackend rather than silently no-opping.
var BlockReExecutor func(req ExecuteRequest) (ExecuteResult, error)

type executePrecompile struct{}

// RequiredGas charges per re-executed byte of transaction payload plus a
// fixed base, since the real cost is the nested block replay the Run call
// triggers rather than the ABI decode itself.
func (executePrecompile) RequiredGas(input []byte) uint64 {
	return 100000 + 16*uint64(len(input))
}

func (executePrecompile) Run(input []byte) ([]byte, error) {
	req, err := decodeExecuteInput(input)
	if err != nil {
		return nil, err
	}
	if BlockReExecutor == nil {
		return nil, errs.ErrUnknownProverBackend
	}
	res, err := BlockReExecutor(req)
	if err != nil {
		return nil, err
	}
	if res.PostStateRoot != req.PostStateRoot {
		return nil, errs.ErrAnchorMismatch
	}
	return encodeExecuteOutput(res), nil
}

// decodeExecuteInput reads the fixed 12 32-byte head words (static fields,
// Solidity ABI tuple order) followed by two dynamic byte arrays
// (transactions_rlp, witness) addressed by trailing offset words.
func decodeExecuteInput(input []byte) (ExecuteRequest, error) {
	const headWords = 14 // 12 static fields + 2 dynamic-offset words
	if len(input) < headWords*32 {
		return ExecuteRequest{}, errs.ErrExecutionReverted
	}
	word := func(i int) []byte { return input[i*32 : (i+1)*32] }

	req := ExecuteRequest{
		PreStateRoot:     common.BytesToHash(word(0)),
		PostStateRoot:    common.BytesToHash(word(1)),
		PostReceiptsRoot: common.BytesToHash(word(2)),
		BlockNumber:      new(big.Int).SetBytes(word(3)).Uint64(),
		GasLimit:         new(big.Int).SetBytes(word(4)).Uint64(),
		Coinbase:         common.BytesToAddress(word(5)),
		PrevRandao:       common.BytesToHash(word(6)),
		Timestamp:        new(big.Int).SetBytes(word(7)).Uint64(),
		ParentBaseFee:    new(big.Int).SetBytes(word(8)),
		ParentGasLimit:   new(big.Int).SetBytes(word(9)).Uint64(),
		ParentGasUsed:    new(big.Int).SetBytes(word(10)).Uint64(),
		L1Anchor:         common.BytesToHash(word(11)),
	}

	txOff := new(big.Int).SetBytes(word(12)).Uint64()
	witnessOff := new(big.Int).SetBytes(word(13)).Uint64()

	txs, err := readDynamicBytes(input, txOff)
	if err != nil {
		return ExecuteRequest{}, err
	}
	wit, err := readDynamicBytes(input, witnessOff)
	if err != nil {
		return ExecuteRequest{}, err
	}
	req.TransactionsRLP = txs
	req.Witness = wit
	return req, nil
}

func readDynamicBytes(input []byte, offset uint64) ([]byte, error) {
	if offset+32 > uint64(len(input)) {
		return nil, errs.ErrExecutionReverted
	}
	size := new(big.Int).SetBytes(input[offset : offset+32]).Uint64()
	start := offset + 32
	if start+size > uint64(len(input)) {
		return nil, errs.ErrExecutionReverted
	}
	return input[start : start+size], nil
}

func encodeExecuteOutput(res ExecuteResult) []byte {
	out := make([]byte, 5*32)
	copy(out[0:32], res.PostStateRoot.Bytes())
	new(big.Int).SetUint64(res.BlockNumber).FillBytes(out[32:64])
	new(big.Int).SetUint64(res.GasUsed).FillBytes(out[64:96])
	if res.BurnedFees != nil {
		res.BurnedFees.FillBytes(out[96:128])
	}
	if res.BaseFeePerGas != nil {
		res.BaseFeePerGas.FillBytes(out[128:160])
	}
	return out
}
