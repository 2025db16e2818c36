// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package vm is the EVM execution engine: opcode interpreter, gas
// metering, call-frame management and the precompile table, grounded on
// go-ethereum's core/vm package shape (as represented in other_examples/)
// and generalized to this module's own StateDB and chain-config types
// rather than luxfi-evm's deleted core/vm, which imported an
// unavailable external monorepo package end to end.
package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/chainconfig"
)

// StateDB is the account/storage/log surface the interpreter reads and
// writes through. core/state.StateDB satisfies this; kept as an interface
// here (rather than a direct import) the way go-ethereum's vm package
// depends on vm.StateDB instead of state.StateDB, so the interpreter can
// be tested against fakes.
type StateDB interface {
	CreateAccount(common.Address)
	Exist(common.Address) bool
	Empty(common.Address) bool

	GetBalance(common.Address) *big.Int
	AddBalance(common.Address, *big.Int)
	SubBalance(common.Address, *big.Int)
	SetBalance(common.Address, *big.Int)

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	GetCodeHash(common.Address) common.Hash
	GetCode(common.Address) []byte
	SetCode(common.Address, []byte)

	GetState(common.Address, common.Hash) common.Hash
	GetCommittedState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)

	GetTransientState(common.Address, common.Hash) common.Hash
	SetTransientState(common.Address, common.Hash, common.Hash)

	SelfDestruct(common.Address)
	HasSelfDestructed(common.Address) bool

	Snapshot() int
	RevertToSnapshot(int)

	AddRefund(uint64)
	SubRefund(uint64)
	GetRefund() uint64

	AddLog(*types.Log)
	GetLogs(common.Hash) []*types.Log

	AddAddressToAccessList(common.Address)
	AddressInAccessList(common.Address) bool
	AddSlotToAccessList(common.Address, common.Hash)
	SlotInAccessList(common.Address, common.Hash) (bool, bool)

	Prepare(txHash common.Hash, txIndex int)
}

// BlockContext carries block-level, transaction-independent environment
// values the interpreter never mutates.
type BlockContext struct {
	CanTransfer func(StateDB, common.Address, *big.Int) bool
	Transfer    func(StateDB, common.Address, common.Address, *big.Int)
	GetHash     func(uint64) common.Hash // BLOCKHASH, only the last 256 blocks resolve

	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        uint64
	Difficulty  *big.Int // PrevRandao post-Merge, reinterpreted as entropy not difficulty
	BaseFee     *big.Int
	BlobBaseFee *big.Int
}

// TxContext carries per-transaction values.
type TxContext struct {
	Origin     common.Address
	GasPrice   *big.Int
	BlobHashes []common.Hash
}

// Config toggles interpreter behaviour orthogonal to the fork lattice
// (tracing hooks, gas-estimation no-charge mode).
type Config struct {
	NoBaseFee bool // gas estimation / eth_call: skip FeeCap >= BaseFee enforcement
}

// EVM couples the block/tx context, state, chain config and call depth
// into the single object every frame executes against. One EVM instance
// is built per block and reused across every transaction in it.
type EVM struct {
	BlockContext
	TxContext
	StateDB StateDB

	chainConfig *chainconfig.ChainConfig
	chainRules  chainconfig.Rules
	Config      Config

	interpreter *Interpreter
	precompiles PrecompileSet

	depth int

	// abort is not set or read anywhere in this package.
	abort bool
}

// NewEVM builds an EVM ready to execute transactions against state for one
// block. chainConfig.Rules(blockContext.BlockNumber, blockContext.Time) is
// resolved once, up front, since it does not change mid-block.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, chainConfig *chainconfig.ChainConfig, cfg Config) *EVM {
	rules := chainConfig.Rules(blockCtx.BlockNumber, blockCtx.Time)
	evm := &EVM{
		BlockContext: blockCtx,
		TxContext:    txCtx,
		StateDB:      statedb,
		chainConfig:  chainConfig,
		chainRules:   rules,
		Config:       cfg,
		precompiles:  precompilesFor(rules),
	}
	evm.interpreter = NewInterpreter(evm)
	return evm
}

func (evm *EVM) ChainConfig() *chainconfig.ChainConfig { return evm.chainConfig }
func (evm *EVM) Rules() chainconfig.Rules              { return evm.chainRules }

// ResetTxContext is called by the block executor between transactions
// within the same block/EVM instance.
func (evm *EVM) ResetTxContext(txCtx TxContext) { evm.TxContext = txCtx }

// uint256ToBig and bigToUint256 bridge the interpreter's uint256 stack
// words to the *big.Int APIs the StateDB/BlockContext surface uses.
func uint256ToBig(v *uint256.Int) *big.Int { return v.ToBig() }

func bigToUint256(v *big.Int) *uint256.Int {
	var u uint256.Int
	u.SetFromBig(v)
	return &u
}

func newLog(addr common.Address, topics []common.Hash, data []byte) *types.Log {
	return &types.Log{Address: addr, Topics: topics, Data: data}
}
