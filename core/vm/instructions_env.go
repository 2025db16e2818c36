// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"github.com/holiman/uint256"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/internal/errs"
)

func addrToUint256(a common.Address) uint256.Int {
	var v uint256.Int
	v.SetBytes(a.Bytes())
	return v
}

func opAddress(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	v := addrToUint256(scope.Contract.Address)
	scope.Stack.push(&v)
	return nil, nil
}

func accessAccount(interp *Interpreter, addr common.Address, scope *ScopeContext) error {
	if !interp.evm.Rules().IsBerlin {
		return nil
	}
	if interp.evm.StateDB.AddressInAccessList(addr) {
		return nil
	}
	interp.evm.StateDB.AddAddressToAccessList(addr)
	if !scope.Contract.UseGas(ColdAccountAccessCostEIP2929 - WarmStorageReadCostEIP2929) {
		return errOutOfGas
	}
	return nil
}

func opBalance(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.BytesToAddress(slot.Bytes())
	if err := accessAccount(interp, addr, scope); err != nil {
		return nil, err
	}
	bal := interp.evm.StateDB.GetBalance(addr)
	slot.SetFromBig(bal)
	return nil, nil
}

func opOrigin(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	v := addrToUint256(interp.evm.Origin)
	scope.Stack.push(&v)
	return nil, nil
}

func opCaller(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	v := addrToUint256(scope.Contract.CallerAddress)
	scope.Stack.push(&v)
	return nil, nil
}

func opCallValue(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(scope.Contract.Value())
	scope.Stack.push(&v)
	return nil, nil
}

func getData(data []byte, start, size uint64) []byte {
	out := make([]byte, size)
	if start > uint64(len(data)) {
		return out
	}
	end := start + size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(out, data[start:end])
	return out
}

func opCallDataLoad(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	offset := scope.Stack.peek()
	data := getData(scope.Contract.Input, offset.Uint64(), 32)
	offset.SetBytes(data)
	return nil, nil
}

func opCallDataSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(uint64(len(scope.Contract.Input)))
	scope.Stack.push(&v)
	return nil, nil
}

func opCallDataCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOff, dataOff, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	if err := chargeCopyGas(scope, length.Uint64()); err != nil {
		return nil, err
	}
	data := getData(scope.Contract.Input, dataOff.Uint64(), length.Uint64())
	scope.Memory.Set(memOff.Uint64(), length.Uint64(), data)
	return nil, nil
}

func chargeCopyGas(scope *ScopeContext, size uint64) error {
	if size == 0 {
		return nil
	}
	if !scope.Contract.UseGas(CopyGas * toWordSize(size)) {
		return errOutOfGas
	}
	return nil
}

func opCodeSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(uint64(len(scope.Contract.Code)))
	scope.Stack.push(&v)
	return nil, nil
}

func opCodeCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOff, codeOff, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	if err := chargeCopyGas(scope, length.Uint64()); err != nil {
		return nil, err
	}
	data := getData(scope.Contract.Code, codeOff.Uint64(), length.Uint64())
	scope.Memory.Set(memOff.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opGasPrice(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(interp.evm.GasPrice)
	scope.Stack.push(&v)
	return nil, nil
}

func opExtCodeSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.BytesToAddress(slot.Bytes())
	if err := accessAccount(interp, addr, scope); err != nil {
		return nil, err
	}
	slot.SetUint64(uint64(len(interp.evm.StateDB.GetCode(addr))))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.pop()
	addr := common.BytesToAddress(slot.Bytes())
	memOff, codeOff, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	if err := accessAccount(interp, addr, scope); err != nil {
		return nil, err
	}
	if err := chargeCopyGas(scope, length.Uint64()); err != nil {
		return nil, err
	}
	code := interp.evm.StateDB.GetCode(addr)
	data := getData(code, codeOff.Uint64(), length.Uint64())
	scope.Memory.Set(memOff.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opReturnDataSize(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(uint64(len(interp.returnData)))
	scope.Stack.push(&v)
	return nil, nil
}

func opReturnDataCopy(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	memOff, dataOff, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	end := new(uint256.Int).Add(&dataOff, &length)
	if !end.IsUint64() || uint64(len(interp.returnData)) < end.Uint64() {
		return nil, errs.ErrReturnDataOutOfBounds
	}
	if err := chargeCopyGas(scope, length.Uint64()); err != nil {
		return nil, err
	}
	scope.Memory.Set(memOff.Uint64(), length.Uint64(), interp.returnData[dataOff.Uint64():end.Uint64()])
	return nil, nil
}

func opExtCodeHash(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.BytesToAddress(slot.Bytes())
	if err := accessAccount(interp, addr, scope); err != nil {
		return nil, err
	}
	if interp.evm.StateDB.Empty(addr) {
		slot.Clear()
		return nil, nil
	}
	slot.SetBytes(interp.evm.StateDB.GetCodeHash(addr).Bytes())
	return nil, nil
}

func opBlockhash(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	num := scope.Stack.peek()
	if !num.IsUint64() {
		num.Clear()
		return nil, nil
	}
	n := num.Uint64()
	upper := interp.evm.BlockNumber.Uint64()
	var lower uint64
	if upper > 256 {
		lower = upper - 256
	}
	if n >= upper || n < lower {
		num.Clear()
		return nil, nil
	}
	num.SetBytes(interp.evm.GetHash(n).Bytes())
	return nil, nil
}

func opCoinbase(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	v := addrToUint256(interp.evm.Coinbase)
	scope.Stack.push(&v)
	return nil, nil
}

func opTimestamp(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(interp.evm.Time)
	scope.Stack.push(&v)
	return nil, nil
}

func opNumber(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(interp.evm.BlockNumber)
	scope.Stack.push(&v)
	return nil, nil
}

func opDifficulty(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	if interp.evm.Difficulty != nil {
		v.SetFromBig(interp.evm.Difficulty)
	}
	scope.Stack.push(&v)
	return nil, nil
}

func opGasLimit(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetUint64(interp.evm.GasLimit)
	scope.Stack.push(&v)
	return nil, nil
}

func opChainID(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(interp.evm.chainConfig.ChainID)
	scope.Stack.push(&v)
	return nil, nil
}

func opSelfBalance(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	v.SetFromBig(interp.evm.StateDB.GetBalance(scope.Contract.Address))
	scope.Stack.push(&v)
	return nil, nil
}

func opBaseFee(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	if interp.evm.BaseFee != nil {
		v.SetFromBig(interp.evm.BaseFee)
	}
	scope.Stack.push(&v)
	return nil, nil
}

func opBlobHash(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	idx := scope.Stack.peek()
	if idx.IsUint64() && idx.Uint64() < uint64(len(interp.evm.BlobHashes)) {
		idx.SetBytes(interp.evm.BlobHashes[idx.Uint64()].Bytes())
	} else {
		idx.Clear()
	}
	return nil, nil
}

func opBlobBaseFee(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
	var v uint256.Int
	if interp.evm.BlobBaseFee != nil {
		v.SetFromBig(interp.evm.BlobBaseFee)
	}
	scope.Stack.push(&v)
	return nil, nil
}

func makeLog(topicCount int) instructionFunc {
	return func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error) {
		if scope.Contract.IsStatic {
			return nil, errs.ErrWriteProtection
		}
		offset, size := scope.Stack.pop(), scope.Stack.pop()
		topics := make([]common.Hash, topicCount)
		for i := 0; i < topicCount; i++ {
			t := scope.Stack.pop()
			topics[i] = common.BytesToHash(t.Bytes())
		}
		data := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))

		gas := uint64(topicCount)*LogTopicGas + size.Uint64()*LogDataGas
		if !scope.Contract.UseGas(gas) {
			return nil, errOutOfGas
		}
		interp.evm.StateDB.AddLog(newLog(scope.Contract.Address, topics, data))
		return nil, nil
	}
}
