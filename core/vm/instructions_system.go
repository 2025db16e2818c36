// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/internal/errs"
)

func opReturn(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	return ret, errStopToken
}

func opRevert(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	return ret, errs.ErrExecutionReverted
}

func opInvalid(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return nil, errInvalidOpcode
}

func opSelfdestruct(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	if scope.Contract.IsStatic {
		return nil, errs.ErrWriteProtection
	}
	beneficiarySlot := scope.Stack.pop()
	beneficiary := common.BytesToAddress(beneficiarySlot.Bytes())
	if err := accessAccount(interp, beneficiary, scope); err != nil {
		return nil, err
	}
	addr := scope.Contract.Address
	balance := interp.evm.StateDB.GetBalance(addr)
	if balance.Sign() != 0 && !interp.evm.StateDB.Exist(beneficiary) {
		if !scope.Contract.UseGas(CallNewAccountGas) {
			return nil, errOutOfGas
		}
	}
	interp.evm.StateDB.AddBalance(beneficiary, balance)
	interp.evm.StateDB.SelfDestruct(addr)
	return nil, errStopToken
}

// opCreate and opCreate2 share the interpreter's Create entry point; they
// differ only in address derivation (nonce-based vs. salted).
func opCreate(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return createCommon(interp, scope, false)
}

func opCreate2(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return createCommon(interp, scope, true)
}

func createCommon(interp *Interpreter, scope *ScopeContext, isCreate2 bool) ([]byte, error) {
	if scope.Contract.IsStatic {
		return nil, errs.ErrWriteProtection
	}
	value, offset, size := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	var salt uint256.Int
	if isCreate2 {
		salt = scope.Stack.pop()
	}
	if size.Uint64() > MaxInitCodeSize {
		return nil, errs.ErrMaxCodeSizeExceeded
	}
	initGas := CreateDataGas * toWordSize(size.Uint64())
	if !scope.Contract.UseGas(initGas) {
		return nil, errOutOfGas
	}
	input := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))

	gas := scope.Contract.Gas
	gas -= gas / 64 // EIP-150: retain 1/64th
	scope.Contract.Gas -= gas

	var retAddr common.Address
	ret, addr, returnGas, err := interp.evm.create(scope.Contract.Address, input, gas, value.ToBig(), isCreate2, &salt)
	retAddr = addr

	scope.Contract.Gas += returnGas

	result := scope.Stack
	if err != nil {
		var v uint256.Int
		result.push(&v)
	} else {
		v := addrToUint256(retAddr)
		result.push(&v)
	}
	interp.returnData = ret
	if err == errs.ErrExecutionReverted {
		return ret, nil
	}
	return nil, nil
}

func opCall(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return callCommon(interp, scope, callKindCall)
}
func opCallCode(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return callCommon(interp, scope, callKindCallCode)
}
func opDelegateCall(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return callCommon(interp, scope, callKindDelegate)
}
func opStaticCall(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	return callCommon(interp, scope, callKindStatic)
}

type callKind int

const (
	callKindCall callKind = iota
	callKindCallCode
	callKindDelegate
	callKindStatic
)

func callCommon(interp *Interpreter, scope *ScopeContext, kind callKind) ([]byte, error) {
	stack := scope.Stack
	gasArg := stack.pop()
	addrSlot := stack.pop()
	addr := common.BytesToAddress(addrSlot.Bytes())

	var value *big.Int = new(big.Int)
	if kind == callKindCall || kind == callKindCallCode {
		v := stack.pop()
		value = v.ToBig()
	}
	if kind == callKindCall && scope.Contract.IsStatic && value.Sign() != 0 {
		return nil, errs.ErrWriteProtection
	}
	argsOffset, argsSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	if err := accessAccount(interp, addr, scope); err != nil {
		return nil, err
	}

	args := scope.Memory.GetCopy(int64(argsOffset.Uint64()), int64(argsSize.Uint64()))

	gas := gasArg.Uint64()
	if gas > scope.Contract.Gas {
		gas = scope.Contract.Gas
	}
	if value.Sign() != 0 {
		gas += CallStipend
	}
	if !scope.Contract.UseGas(gasArg.Uint64()) {
		if !scope.Contract.UseGas(scope.Contract.Gas) {
			return nil, errOutOfGas
		}
	}

	var (
		ret       []byte
		returnGas uint64
		err       error
	)
	switch kind {
	case callKindCall:
		ret, returnGas, err = interp.evm.Call(scope.Contract.Address, addr, args, gas, value, scope.Contract.IsStatic)
	case callKindCallCode:
		ret, returnGas, err = interp.evm.CallCode(scope.Contract.Address, addr, args, gas, value)
	case callKindDelegate:
		ret, returnGas, err = interp.evm.DelegateCall(scope.Contract, addr, args, gas)
	case callKindStatic:
		ret, returnGas, err = interp.evm.StaticCall(scope.Contract.Address, addr, args, gas)
	}

	if err == nil || err == errs.ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), minU64(retSize.Uint64(), uint64(len(ret))), ret)
	}
	scope.Contract.Gas += returnGas
	interp.returnData = ret

	var success uint256.Int
	if err == nil {
		success.SetOne()
	}
	stack.push(&success)
	return nil, nil
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
