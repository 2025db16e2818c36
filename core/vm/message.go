// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/errs"
)

// Message is the EVM-facing view of a transaction: sender already
// recovered (or, for a privileged L2 transaction, asserted by the L1
// bridge rather than a signature), fee fields already resolved against the
// block's base fee. core/block builds one Message per transaction.
type Message struct {
	From       common.Address
	To         *common.Address
	Nonce      uint64
	Value      *big.Int
	GasLimit   uint64
	GasPrice   *big.Int // effective gas price already resolved from fee cap/tip/base fee
	Data       []byte
	AccessList types.AccessList

	IsPrivileged    bool // true for a PrivilegedL2Tx: free gas, minted value, nonce not incremented
	SkipNonceCheck  bool
	SkipBalanceCheck bool
}

// ExecutionResult is what ApplyMessage reports back to the block executor:
// gas actually used (after refunds), any revert/halt reason, and the
// output bytes (only meaningful for eth_call-style simulation).
type ExecutionResult struct {
	UsedGas    uint64
	Err        error
	ReturnData []byte
	ContractAddr *common.Address
}

// Failed reports whether execution halted abnormally; a REVERT still
// counts as failed even though it is not a protocol-level error.
func (r *ExecutionResult) Failed() bool { return r.Err != nil }

// IntrinsicGas computes the EIP-2028/2930/3860 intrinsic gas floor for a
// transaction: base cost, calldata zero/non-zero byte costs, access-list
// costs, and (pre-execution) init-code word cost for contract creation.
func IntrinsicGas(data []byte, accessList types.AccessList, isContractCreation bool, isHomestead, isIstanbul, isShanghai bool) (uint64, error) {
	var gas uint64
	if isContractCreation && isHomestead {
		gas = CreateGas
	} else {
		gas = 21000
	}
	if len(data) > 0 {
		var nz uint64
		for _, b := range data {
			if b != 0 {
				nz++
			}
		}
		nonZeroGas := uint64(16)
		if !isIstanbul {
			nonZeroGas = 68
		}
		if (1<<64-1)/nonZeroGas < nz {
			return 0, errs.ErrGasUintOverflow
		}
		gas += nz * nonZeroGas

		z := uint64(len(data)) - nz
		if (1<<64-1-gas)/4 < z {
			return 0, errs.ErrGasUintOverflow
		}
		gas += z * 4

		if isContractCreation && isShanghai {
			words := toWordSize(uint64(len(data)))
			gas += words * 2 // EIP-3860 init-code word gas
		}
	}
	if accessList != nil {
		gas += uint64(len(accessList)) * 2400
		for _, tuple := range accessList {
			gas += uint64(len(tuple.StorageKeys)) * 1900
		}
	}
	return gas, nil
}

// ApplyMessage runs one transaction's message to completion: intrinsic gas
// deduction, CALL or CREATE dispatch, refund capping, and (for ordinary
// transactions) debits/credits against the sender/coinbase balances. A
// privileged L2 message skips nonce increment and fee collection entirely,
// matching the "free gas, minted value" semantics privileged transactions
// are authorised under.
func ApplyMessage(evm *EVM, msg *Message) (*ExecutionResult, error) {
	sender := msg.From
	rules := evm.Rules()

	if msg.IsPrivileged {
		if msg.Value.Sign() != 0 {
			evm.StateDB.AddBalance(sender, msg.Value) // mint: privileged deposits originate off-chain
		}
	} else {
		if !msg.SkipNonceCheck {
			stNonce := evm.StateDB.GetNonce(sender)
			if stNonce < msg.Nonce {
				return nil, errs.ErrNonceTooHigh
			} else if stNonce > msg.Nonce {
				return nil, errs.ErrNonceTooLow
			} else if stNonce+1 < stNonce {
				return nil, errs.ErrNonceUintOverflow
			}
		}
		if !msg.SkipBalanceCheck {
			need := new(big.Int).Mul(msg.GasPrice, new(big.Int).SetUint64(msg.GasLimit))
			need.Add(need, msg.Value)
			if evm.StateDB.GetBalance(sender).Cmp(need) < 0 {
				return nil, errs.ErrInsufficientFunds
			}
		}
	}

	intrinsic, err := IntrinsicGas(msg.Data, msg.AccessList, msg.To == nil, rules.IsHomestead, rules.IsIstanbul, rules.IsShanghai)
	if err != nil {
		return nil, err
	}
	if msg.GasLimit < intrinsic {
		return nil, errs.ErrIntrinsicGas
	}
	gasRemaining := msg.GasLimit - intrinsic

	if !msg.IsPrivileged {
		evm.StateDB.SetNonce(sender, msg.Nonce+1)
		prepay := new(big.Int).Mul(msg.GasPrice, new(big.Int).SetUint64(msg.GasLimit))
		evm.StateDB.SubBalance(sender, prepay)
	}

	evm.prewarm(sender, msg.To, msg.AccessList)

	var (
		ret          []byte
		leftoverGas  uint64
		vmerr        error
		contractAddr *common.Address
	)
	if msg.To == nil {
		var addr common.Address
		ret, addr, leftoverGas, vmerr = evm.create(sender, msg.Data, gasRemaining, msg.Value, false, nil)
		contractAddr = &addr
	} else {
		ret, leftoverGas, vmerr = evm.Call(sender, *msg.To, msg.Data, gasRemaining, msg.Value, false)
	}

	refund := evm.StateDB.GetRefund()
	maxRefund := (msg.GasLimit - leftoverGas) / RefundQuotientEIP3529
	if refund > maxRefund {
		refund = maxRefund
	}
	leftoverGas += refund
	gasUsed := msg.GasLimit - leftoverGas

	if !msg.IsPrivileged {
		refundValue := new(big.Int).Mul(msg.GasPrice, new(big.Int).SetUint64(leftoverGas))
		evm.StateDB.AddBalance(sender, refundValue)
		fee := new(big.Int).Mul(msg.GasPrice, new(big.Int).SetUint64(gasUsed))
		evm.StateDB.AddBalance(evm.Coinbase, fee)
	}

	return &ExecutionResult{UsedGas: gasUsed, Err: vmerr, ReturnData: ret, ContractAddr: contractAddr}, nil
}

// prewarm applies EIP-2929's access-list prewarming: sender, recipient,
// coinbase (post-Shanghai, EIP-3651) and every access-list entry become
// warm before execution starts. A creation's new contract address is
// warmed by create once it is derived.
func (evm *EVM) prewarm(sender common.Address, to *common.Address, accessList types.AccessList) {
	if !evm.Rules().IsBerlin {
		return
	}
	evm.StateDB.AddAddressToAccessList(sender)
	if to != nil {
		evm.StateDB.AddAddressToAccessList(*to)
	}
	if evm.Rules().IsShanghai {
		evm.StateDB.AddAddressToAccessList(evm.Coinbase)
	}
	for _, tuple := range accessList {
		evm.StateDB.AddAddressToAccessList(tuple.Address)
		for _, key := range tuple.StorageKeys {
			evm.StateDB.AddSlotToAccessList(tuple.Address, key)
		}
	}
}
