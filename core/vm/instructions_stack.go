// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"github.com/holiman/uint256"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/internal/errs"
)

func makePush(size int) instructionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		codeLen := uint64(len(scope.Contract.Code))
		start := *pc + 1
		var b [32]byte
		for i := 0; i < size; i++ {
			idx := start + uint64(i)
			if idx < codeLen {
				b[32-size+i] = scope.Contract.Code[idx]
			}
		}
		var v uint256.Int
		v.SetBytes(b[32-size:])
		scope.Stack.push(&v)
		*pc += uint64(size)
		return nil, nil
	}
}

func opPush0(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	scope.Stack.push(&v)
	return nil, nil
}

func makeDup(n int) instructionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.dup(n)
		return nil, nil
	}
}

func makeSwap(n int) instructionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.swap(n)
		return nil, nil
	}
}

func opPop(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.pop()
	return nil, nil
}

func opMload(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset := scope.Stack.peek()
	data := scope.Memory.GetPtr(int64(offset.Uint64()), 32)
	offset.SetBytes(data)
	return nil, nil
}

func opMstore(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Set32(offset.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.store[offset.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opMcopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	dst, src, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	n := length.Uint64()
	if n == 0 {
		return nil, nil
	}
	copyGas := CopyGas * toWordSize(n)
	if !scope.Contract.UseGas(copyGas) {
		return nil, errOutOfGas
	}
	copy(scope.Memory.store[dst.Uint64():dst.Uint64()+n], scope.Memory.store[src.Uint64():src.Uint64()+n])
	return nil, nil
}

func opSload(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	key := common.BytesToHash(loc.Bytes())
	addr := scope.Contract.Address
	if interp.evm.Rules().IsBerlin {
		_, slotWarm := interp.evm.StateDB.SlotInAccessList(addr, key)
		if !slotWarm {
			interp.evm.StateDB.AddSlotToAccessList(addr, key)
			if !scope.Contract.UseGas(ColdSloadCostEIP2929 - WarmStorageReadCostEIP2929) {
				return nil, errOutOfGas
			}
		}
	}
	val := interp.evm.StateDB.GetState(addr, key)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.Contract.IsStatic {
		return nil, errs.ErrWriteProtection
	}
	loc, val := scope.Stack.pop(), scope.Stack.pop()
	key := common.BytesToHash(loc.Bytes())
	addr := scope.Contract.Address

	rules := interp.evm.Rules()
	if rules.IsIstanbul && scope.Contract.Gas <= SstoreSentryGasEIP2200 {
		return nil, errOutOfGas
	}

	gas := sstoreGas(interp.evm, addr, key, &val, rules.IsBerlin)
	if !scope.Contract.UseGas(gas) {
		return nil, errOutOfGas
	}
	interp.evm.StateDB.SetState(addr, key, common.BytesToHash(val.Bytes()))
	return nil, nil
}

// sstoreGas implements the EIP-2200/3529-style SSTORE metering: cold-access
// surcharge, then one of {no-op, fresh-write, clear (with refund),
// dirty-rewrite} cases based on original vs. current vs. new value.
func sstoreGas(evm *EVM, addr common.Address, key common.Hash, newVal *uint256.Int, berlinActive bool) uint64 {
	var cold uint64
	if berlinActive {
		if _, slotWarm := evm.StateDB.SlotInAccessList(addr, key); !slotWarm {
			evm.StateDB.AddSlotToAccessList(addr, key)
			cold = ColdSloadCostEIP2929
		}
	}
	current := evm.StateDB.GetState(addr, key)
	newHash := common.BytesToHash(newVal.Bytes())
	if current == newHash {
		return cold + WarmStorageReadCostEIP2929
	}
	original := evm.StateDB.GetCommittedState(addr, key)
	if original == current {
		if original.IsZero() {
			return cold + SstoreSetGas
		}
		if newHash.IsZero() {
			evm.StateDB.AddRefund(SstoreClearRefund)
		}
		return cold + SstoreResetGas
	}
	return cold + WarmStorageReadCostEIP2929
}

func opJump(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	dest := scope.Stack.pop()
	if !scope.Contract.validJumpdest(&dest) {
		return nil, errs.ErrInvalidJump
	}
	*pc = dest.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	dest, cond := scope.Stack.pop(), scope.Stack.pop()
	if cond.IsZero() {
		*pc++
		return nil, nil
	}
	if !scope.Contract.validJumpdest(&dest) {
		return nil, errs.ErrInvalidJump
	}
	*pc = dest.Uint64()
	return nil, nil
}

func opPc(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(*pc)
	scope.Stack.push(&v)
	return nil, nil
}

func opMsize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(uint64(scope.Memory.Len()))
	scope.Stack.push(&v)
	return nil, nil
}

func opGas(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(scope.Contract.Gas)
	scope.Stack.push(&v)
	return nil, nil
}

func opJumpdest(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) { return nil, nil }

func opTload(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	val := interp.evm.StateDB.GetTransientState(scope.Contract.Address, common.BytesToHash(loc.Bytes()))
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opTstore(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.Contract.IsStatic {
		return nil, errs.ErrWriteProtection
	}
	loc, val := scope.Stack.pop(), scope.Stack.pop()
	interp.evm.StateDB.SetTransientState(scope.Contract.Address, common.BytesToHash(loc.Bytes()), common.BytesToHash(val.Bytes()))
	return nil, nil
}
