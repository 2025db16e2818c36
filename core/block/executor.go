// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package block is the block executor: it replays a block's transactions
// against a StateDB and checks the result against the header the block
// carries, grounded on luxfi-evm's core/state_processor.go (Process/
// applyTransaction/ProcessBeaconBlockRoot) and generalized to this
// module's own vm.Message/ApplyMessage surface and to the privileged L2
// transaction type luxfi-evm's processor never had to handle.
package block

import (
	"fmt"
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/core/vm"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/internal/errs"
	"github.com/corechain/execd/rlp"
	"github.com/corechain/execd/trie"
)

// SystemAddress is the caller EIP-4788/2935 system calls run under; it
// never holds balance or nonce and is never touched by ordinary execution.
var SystemAddress = common.HexToAddress("0xfffffffffffffffffffffffffffffffffffffffe")

// BeaconRootsAddress is the EIP-4788 beacon-block-root history contract.
var BeaconRootsAddress = common.HexToAddress("0x000F3df6D732807Ef1319fB7B8bB8522d0Beac02")

// HistoryStorageAddress is the EIP-2935 parent-hash history contract.
var HistoryStorageAddress = common.HexToAddress("0x0000F90827F1C53a10cb7A02335B175320002935")

const systemCallGas = 30_000_000

// GasPool tracks the gas remaining within a block; every transaction's
// gas limit is drawn from it before execution, so the sum charged can
// never exceed the header's GasLimit regardless of how much gas any one
// transaction actually used.
type GasPool uint64

func (gp *GasPool) AddGas(amount uint64) *GasPool {
	*(*uint64)(gp) += amount
	return gp
}

func (gp *GasPool) SubGas(amount uint64) error {
	if uint64(*gp) < amount {
		return errs.ErrGasLimitReached
	}
	*(*uint64)(gp) -= amount
	return nil
}

func (gp *GasPool) Gas() uint64 { return uint64(*gp) }

// Result is everything one block's execution produces, checked against
// the block's own header by Execute and handed back to the caller
// (importer, sequencer Block Producer, or the EXECUTE precompile's
// re-execution hook) for further use.
type Result struct {
	Receipts  types.Receipts
	Logs      []*types.Log
	GasUsed   uint64
	StateRoot common.Hash

	// Touched is every account this block's transactions modified,
	// snapshotted right before IntermediateRoot clears the StateDB's
	// dirty window — the L2 State Updater feeds this to the state-diff
	// encoder without re-deriving it from a trie comparison.
	Touched []state.DirtyAccount
}

// Executor replays blocks against a state database under one chain
// configuration. One Executor is reused across an entire chain's history.
type Executor struct {
	config  *chainconfig.ChainConfig
	db      *state.Database
	getHash func(uint64) common.Hash
}

// NewExecutor builds an Executor. getHash resolves BLOCKHASH lookups for
// the last 256 blocks; pass nil to always resolve to the zero hash (valid
// only in contexts, such as witness-driven one-block re-execution, where
// no BLOCKHASH-dependent contract is expected to run).
func NewExecutor(config *chainconfig.ChainConfig, db *state.Database, getHash func(uint64) common.Hash) *Executor {
	if getHash == nil {
		getHash = func(uint64) common.Hash { return common.Hash{} }
	}
	return &Executor{config: config, db: db, getHash: getHash}
}

// Database returns the trie database this executor re-executes against,
// so a caller that only holds an Executor (the State Updater) can open a
// second, independent StateDB against it — e.g. witness.Replay opening a
// fresh pre-state copy to record reads through a Tracer.
func (e *Executor) Database() *state.Database { return e.db }

// Execute replays block's transactions against statedb (already opened at
// parent's state root), applies withdrawals, and verifies the resulting
// state root, receipts root and cumulative gas used all match what the
// header claims. statedb is mutated in place; on a mismatch the caller
// should discard it rather than attempt to reuse the partially-applied
// state.
func (e *Executor) Execute(block *types.Block, parent *types.Header, statedb *state.StateDB) (*Result, error) {
	header := block.Header()
	if err := ValidateHeader(e.config, header, parent); err != nil {
		return nil, err
	}

	blockCtx := vm.BlockContext{
		CanTransfer: canTransfer,
		Transfer:    transfer,
		GetHash:     e.getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  header.Difficulty,
		BaseFee:     header.BaseFee,
		BlobBaseFee: calcBlobBaseFee(header),
	}
	result, err := e.runTransactions(blockCtx, header, block.Transactions(), block.Withdrawals(), statedb)
	if err != nil {
		return nil, err
	}

	if result.StateRoot != header.Root {
		return nil, fmt.Errorf("block: state root mismatch: have %s want %s", result.StateRoot, header.Root)
	}
	if receiptsRoot := DeriveReceiptsRoot(result.Receipts); receiptsRoot != header.ReceiptHash {
		return nil, fmt.Errorf("block: receipt root mismatch: have %s want %s", receiptsRoot, header.ReceiptHash)
	}
	if result.GasUsed != header.GasUsed {
		return nil, fmt.Errorf("block: gas used mismatch: have %d want %d", result.GasUsed, header.GasUsed)
	}
	return result, nil
}

// runTransactions drives the withdrawal crediting and dirty-account
// snapshot shared by Execute (full header-checked replay) and
// ExecuteRaw (the EXECUTE precompile's nested re-execution, which has
// no prior header to check against); the system-call and per-transaction
// work itself lives in execTxLoop so a witness replay (core/witness)
// can drive the identical sequence against a Tracer instead of a
// concrete StateDB.
func (e *Executor) runTransactions(blockCtx vm.BlockContext, header *types.Header, txs []*types.Transaction, withdrawals []*types.Withdrawal, statedb *state.StateDB) (*Result, error) {
	rules := e.config.Rules(header.Number, header.Time)
	receipts, allLogs, usedGas, err := e.execTxLoop(blockCtx, header, txs, statedb)
	if err != nil {
		return nil, err
	}

	if rules.IsShanghai {
		for _, w := range withdrawals {
			wei := new(big.Int).Mul(new(big.Int).SetUint64(w.Amount), big.NewInt(1_000_000_000))
			statedb.AddBalance(w.Address, wei)
		}
	}

	touched := statedb.SnapshotDirty()
	root, err := statedb.IntermediateRoot(rules.IsEIP158)
	if err != nil {
		return nil, fmt.Errorf("block: computing state root: %w", err)
	}
	return &Result{Receipts: receipts, Logs: allLogs, GasUsed: usedGas, StateRoot: root, Touched: touched}, nil
}

// ExecTxLoop runs the beacon-root/parent-hash system calls followed by
// every transaction in txs against statedb, exported so core/witness's
// replay path can reuse the exact sequence a live block execution runs
// while recording reads through a Tracer instead of committing them to
// a trie.
func (e *Executor) ExecTxLoop(blockCtx vm.BlockContext, header *types.Header, txs []*types.Transaction, statedb vm.StateDB) (types.Receipts, []*types.Log, uint64, error) {
	return e.execTxLoop(blockCtx, header, txs, statedb)
}

func (e *Executor) execTxLoop(blockCtx vm.BlockContext, header *types.Header, txs []*types.Transaction, statedb vm.StateDB) (types.Receipts, []*types.Log, uint64, error) {
	rules := e.config.Rules(header.Number, header.Time)
	evm := vm.NewEVM(blockCtx, vm.TxContext{}, statedb, e.config, vm.Config{})

	if rules.IsCancun && header.ParentBeaconRoot != nil {
		processBeaconBlockRoot(evm, statedb, *header.ParentBeaconRoot)
	}
	if rules.IsPrague {
		processParentBlockHash(evm, statedb, header.ParentHash)
	}

	gp := new(GasPool).AddGas(header.GasLimit)
	var (
		receipts types.Receipts
		allLogs  []*types.Log
		usedGas  uint64
	)
	for i, tx := range txs {
		receipt, err := e.applyTransaction(evm, statedb, gp, header, tx, i, &usedGas)
		if err != nil {
			return nil, nil, 0, err
		}
		receipts = append(receipts, receipt)
		allLogs = append(allLogs, receipt.Logs...)
	}
	return receipts, allLogs, usedGas, nil
}

// ExecuteRaw replays txs against statedb under the given block context and
// header metadata without any parent-header cross-check, the shape the
// EXECUTE precompile's nested re-execution needs (it has only the fields
// ExecuteRequest carries, not a full stored parent header).
func (e *Executor) ExecuteRaw(blockCtx vm.BlockContext, header *types.Header, txs []*types.Transaction, statedb *state.StateDB) (*Result, error) {
	return e.runTransactions(blockCtx, header, txs, nil, statedb)
}

// BlockContext builds the vm.BlockContext for header, using this
// Executor's own BLOCKHASH resolver. Exposed so a block assembler (the
// L2 Block Producer) can drive ExecuteRaw against a not-yet-sealed
// candidate header without reaching into this package's unexported
// CanTransfer/Transfer wiring.
func (e *Executor) BlockContext(header *types.Header) vm.BlockContext {
	return vm.BlockContext{
		CanTransfer: canTransfer,
		Transfer:    transfer,
		GetHash:     e.getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        header.Time,
		Difficulty:  header.Difficulty,
		BaseFee:     header.BaseFee,
		BlobBaseFee: calcBlobBaseFee(header),
	}
}

// applyTransaction runs one transaction to completion and builds its
// receipt, stamping CumulativeGasUsed/logs/bloom/index the way a receipts
// trie entry needs them.
func (e *Executor) applyTransaction(evm *vm.EVM, statedb vm.StateDB, gp *GasPool, header *types.Header, tx *types.Transaction, txIndex int, usedGas *uint64) (*types.Receipt, error) {
	msg, err := TransactionToMessage(tx, e.config.ChainID, header.BaseFee)
	if err != nil {
		return nil, fmt.Errorf("block: tx %d [%s]: %w", txIndex, tx.Hash(), err)
	}
	if err := gp.SubGas(msg.GasLimit); err != nil {
		return nil, fmt.Errorf("block: tx %d [%s]: %w", txIndex, tx.Hash(), err)
	}

	statedb.Prepare(tx.Hash(), txIndex)
	evm.ResetTxContext(vm.TxContext{Origin: msg.From, GasPrice: msg.GasPrice})

	result, err := vm.ApplyMessage(evm, msg)
	if err != nil {
		return nil, fmt.Errorf("block: tx %d [%s]: %w", txIndex, tx.Hash(), err)
	}
	*usedGas += result.UsedGas

	receipt := &types.Receipt{
		Type:              tx.Type(),
		CumulativeGasUsed: *usedGas,
		TxHash:            tx.Hash(),
		GasUsed:           result.UsedGas,
		BlockNumber:       header.Number.Uint64(),
		TransactionIndex:  uint(txIndex),
	}
	if result.Failed() {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		receipt.Status = types.ReceiptStatusSuccess
	}
	if msg.To == nil && result.ContractAddr != nil {
		receipt.ContractAddress = *result.ContractAddr
	}
	receipt.Logs = statedb.GetLogs(tx.Hash())
	receipt.Bloom = types.CreateBloom(receipt.Logs)
	return receipt, nil
}

// TransactionToMessage resolves a transaction's signer and effective gas
// price into the vm.Message shape ApplyMessage consumes. A privileged L2
// transaction carries no fee market participation at all: gas price is
// zero and both the nonce and balance checks are skipped.
func TransactionToMessage(tx *types.Transaction, chainID *big.Int, baseFee *big.Int) (*vm.Message, error) {
	from, err := Sender(tx, chainID)
	if err != nil {
		return nil, err
	}
	msg := &vm.Message{
		From:       from,
		To:         tx.To(),
		Nonce:      tx.Nonce(),
		Value:      tx.Value(),
		GasLimit:   tx.Gas(),
		Data:       tx.Data(),
		AccessList: tx.AccessList(),
	}
	if tx.IsPrivileged() {
		msg.IsPrivileged = true
		msg.SkipNonceCheck = true
		msg.SkipBalanceCheck = true
		msg.GasPrice = new(big.Int)
		return msg, nil
	}
	if baseFee == nil {
		msg.GasPrice = new(big.Int).Set(tx.GasFeeCap())
		return msg, nil
	}
	tip, err := tx.EffectiveGasTip(baseFee)
	if err != nil {
		return nil, err
	}
	msg.GasPrice = new(big.Int).Add(baseFee, tip)
	return msg, nil
}

// processBeaconBlockRoot runs the EIP-4788 system call that records the
// parent beacon block root into the beacon-roots history contract.
func processBeaconBlockRoot(evm *vm.EVM, statedb vm.StateDB, beaconRoot common.Hash) {
	evm.ResetTxContext(vm.TxContext{Origin: SystemAddress, GasPrice: new(big.Int)})
	statedb.AddAddressToAccessList(BeaconRootsAddress)
	_, _, _ = evm.Call(SystemAddress, BeaconRootsAddress, beaconRoot.Bytes(), systemCallGas, new(big.Int), false)
}

// processParentBlockHash runs the EIP-2935 system call that records the
// parent block's hash into the history-storage contract.
func processParentBlockHash(evm *vm.EVM, statedb vm.StateDB, parentHash common.Hash) {
	evm.ResetTxContext(vm.TxContext{Origin: SystemAddress, GasPrice: new(big.Int)})
	statedb.AddAddressToAccessList(HistoryStorageAddress)
	_, _, _ = evm.Call(SystemAddress, HistoryStorageAddress, parentHash.Bytes(), systemCallGas, new(big.Int), false)
}

func canTransfer(db vm.StateDB, addr common.Address, amount *big.Int) bool {
	return db.GetBalance(addr).Cmp(amount) >= 0
}

func transfer(db vm.StateDB, from, to common.Address, amount *big.Int) {
	db.SubBalance(from, amount)
	db.AddBalance(to, amount)
}

// calcBlobBaseFee is left nil until blob-carrying transactions are
// produced by this module's own transaction pool; a block with no blob
// transactions never consults it.
func calcBlobBaseFee(*types.Header) *big.Int { return nil }

// DeriveReceiptsRoot builds the ephemeral (non-secure) Merkle-Patricia
// trie go-ethereum uses for both the transactions and receipts roots,
// keyed by rlp(txIndex), and returns its hash.
func DeriveReceiptsRoot(receipts types.Receipts) common.Hash {
	t := trie.NewEmpty(trie.NewDatabase())
	for i, r := range receipts {
		key, err := rlp.EncodeToBytes(uint(i))
		if err != nil {
			panic(err)
		}
		enc, err := r.EncodeRLP()
		if err != nil {
			panic(err)
		}
		if err := t.Put(key, enc); err != nil {
			panic(err)
		}
	}
	return t.Hash()
}

// DeriveTransactionsRoot builds the transactions root the same way.
func DeriveTransactionsRoot(txs []*types.Transaction) common.Hash {
	t := trie.NewEmpty(trie.NewDatabase())
	for i, tx := range txs {
		key, err := rlp.EncodeToBytes(uint(i))
		if err != nil {
			panic(err)
		}
		enc, err := tx.MarshalBinary()
		if err != nil {
			panic(err)
		}
		if err := t.Put(key, enc); err != nil {
			panic(err)
		}
	}
	return t.Hash()
}
