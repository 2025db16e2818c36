// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package block

import (
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/core/vm"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/internal/errs"
	"github.com/corechain/execd/rlp"
)

// reExecDB/reExecConfig back the EXECUTE precompile's nested block replay.
// They are nil until ConfigureReExecution runs (cmd/execd does this once,
// at startup, for any chain with IsL2 set); a call before that fails
// closed via vm.BlockReExecutor staying nil, which the precompile already
// turns into errs.ErrUnknownProverBackend.
var (
	reExecDB     *state.Database
	reExecConfig *chainconfig.ChainConfig
)

// ConfigureReExecution wires this package's re-execution path into
// core/vm's EXECUTE precompile. Only an L2 chain configuration ever calls
// this; an L1 chain leaves vm.BlockReExecutor nil so 0x0101 reverts.
func ConfigureReExecution(db *state.Database, config *chainconfig.ChainConfig) {
	reExecDB = db
	reExecConfig = config
	vm.BlockReExecutor = reExecuteBlock
}

// reExecuteBlock is the vm.BlockReExecutor implementation: open the
// claimed pre-state root, decode the transaction list, replay it under an
// EVM built from the request's block-level fields, and report the
// resulting root/gas so the precompile can assert it against what the
// settlement caller claimed.
func reExecuteBlock(req vm.ExecuteRequest) (vm.ExecuteResult, error) {
	if reExecDB == nil || reExecConfig == nil {
		return vm.ExecuteResult{}, errs.ErrUnknownProverBackend
	}
	statedb, err := state.New(req.PreStateRoot, reExecDB)
	if err != nil {
		return vm.ExecuteResult{}, err
	}
	txs, err := decodeTransactionList(req.TransactionsRLP)
	if err != nil {
		return vm.ExecuteResult{}, err
	}

	number := new(big.Int).SetUint64(req.BlockNumber)
	parentHeader := &types.Header{
		Number:   new(big.Int).Sub(number, big.NewInt(1)),
		GasLimit: req.ParentGasLimit,
		GasUsed:  req.ParentGasUsed,
		BaseFee:  req.ParentBaseFee,
	}
	baseFee := CalcBaseFee(parentHeader)
	header := &types.Header{
		Number:     number,
		GasLimit:   req.GasLimit,
		Time:       req.Timestamp,
		Coinbase:   req.Coinbase,
		MixDigest:  req.PrevRandao,
		BaseFee:    baseFee,
		ParentHash: req.L1Anchor,
	}

	blockCtx := vm.BlockContext{
		CanTransfer: canTransfer,
		Transfer:    transfer,
		GetHash:     func(uint64) common.Hash { return common.Hash{} },
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: number,
		Time:        header.Time,
		Difficulty:  new(big.Int).SetBytes(header.MixDigest.Bytes()),
		BaseFee:     baseFee,
	}

	executor := NewExecutor(reExecConfig, reExecDB, nil)
	result, err := executor.ExecuteRaw(blockCtx, header, txs, statedb)
	if err != nil {
		return vm.ExecuteResult{}, err
	}
	if DeriveReceiptsRoot(result.Receipts) != req.PostReceiptsRoot {
		return vm.ExecuteResult{}, errs.ErrAnchorMismatch
	}
	root, err := statedb.Commit(true)
	if err != nil {
		return vm.ExecuteResult{}, err
	}

	burned := new(big.Int).Mul(baseFee, new(big.Int).SetUint64(result.GasUsed))
	return vm.ExecuteResult{
		PostStateRoot: root,
		BlockNumber:   req.BlockNumber,
		GasUsed:       result.GasUsed,
		BurnedFees:    burned,
		BaseFeePerGas: baseFee,
	}, nil
}

// decodeTransactionList parses a flat RLP list of EIP-2718 typed-or-legacy
// transaction encodings, the same shape a block body's transactions field
// takes in the transactions trie.
func decodeTransactionList(enc []byte) ([]*types.Transaction, error) {
	if len(enc) == 0 {
		return nil, nil
	}
	item, n, err := rlp.Decode(enc)
	if err != nil {
		return nil, err
	}
	if n != len(enc) {
		return nil, rlp.ErrExpectedList
	}
	if !item.IsList {
		return nil, rlp.ErrExpectedList
	}
	txs := make([]*types.Transaction, 0, len(item.List))
	for _, sub := range item.List {
		tx, err := types.DecodeTransactionFromItem(sub)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
