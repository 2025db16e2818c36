// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/internal/errs"
)

// Call executes the code at addr as a message call from caller, optionally
// transferring value. It is the entry point both for top-level transaction
// execution and for the CALL opcode.
func (evm *EVM) Call(caller, addr common.Address, input []byte, gas uint64, value *big.Int, readOnly bool) ([]byte, uint64, error) {
	if evm.depth > callMaxDepth {
		return nil, gas, errs.ErrDepth
	}
	if value.Sign() != 0 && !evm.CanTransfer(evm.StateDB, caller, value) {
		return nil, gas, errs.ErrInsufficientBalance
	}

	if precompile, ok := evm.precompiles[addr]; ok {
		snapshot := evm.StateDB.Snapshot()
		if value.Sign() != 0 {
			evm.Transfer(evm.StateDB, caller, addr, value)
		}
		ret, remaining, err := runPrecompile(precompile, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, remaining, err
	}

	snapshot := evm.StateDB.Snapshot()
	if !evm.StateDB.Exist(addr) {
		if value.Sign() == 0 {
			return nil, gas, nil
		}
		evm.StateDB.CreateAccount(addr)
	}
	if value.Sign() != 0 {
		evm.Transfer(evm.StateDB, caller, addr, value)
	}

	code := evm.StateDB.GetCode(addr)
	contract := NewContract(caller, addr, value, gas)
	contract.IsStatic = readOnly
	contract.SetCode(evm.StateDB.GetCodeHash(addr), code)

	evm.depth++
	ret, err := evm.interpreter.Run(contract, input, readOnly)
	evm.depth--
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != errs.ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, err
}

// CallCode executes addr's code in the caller's own storage context: the
// new frame's address is caller itself, so value is checked against
// caller's balance but never moves to addr.
func (evm *EVM) CallCode(caller, addr common.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > callMaxDepth {
		return nil, gas, errs.ErrDepth
	}
	if value.Sign() != 0 && !evm.CanTransfer(evm.StateDB, caller, value) {
		return nil, gas, errs.ErrInsufficientBalance
	}
	if precompile, ok := evm.precompiles[addr]; ok {
		return evm.runPrecompileFramed(precompile, input, gas)
	}

	snapshot := evm.StateDB.Snapshot()
	code := evm.StateDB.GetCode(addr)
	contract := NewContract(caller, caller, value, gas)
	contract.SetCode(evm.StateDB.GetCodeHash(addr), code)

	evm.depth++
	ret, err := evm.interpreter.Run(contract, input, false)
	evm.depth--
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != errs.ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, err
}

// DelegateCall executes addr's code with the CURRENT frame's caller/value
// preserved (the calling contract's storage, balance, and msg.sender all
// stay as they were — only the code being run changes).
func (evm *EVM) DelegateCall(current *Contract, addr common.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > callMaxDepth {
		return nil, gas, errs.ErrDepth
	}
	if precompile, ok := evm.precompiles[addr]; ok {
		return evm.runPrecompileFramed(precompile, input, gas)
	}

	snapshot := evm.StateDB.Snapshot()
	code := evm.StateDB.GetCode(addr)
	contract := NewContract(current.CallerAddress, current.Address, current.Value(), gas)
	contract.IsStatic = current.IsStatic
	contract.SetCode(evm.StateDB.GetCodeHash(addr), code)

	evm.depth++
	ret, err := evm.interpreter.Run(contract, input, current.IsStatic)
	evm.depth--
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != errs.ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, err
}

// StaticCall executes addr's code with write-protection forced on for the
// entire nested call tree.
func (evm *EVM) StaticCall(caller, addr common.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > callMaxDepth {
		return nil, gas, errs.ErrDepth
	}
	if precompile, ok := evm.precompiles[addr]; ok {
		return evm.runPrecompileFramed(precompile, input, gas)
	}

	snapshot := evm.StateDB.Snapshot()
	code := evm.StateDB.GetCode(addr)
	contract := NewContract(caller, addr, new(big.Int), gas)
	contract.IsStatic = true
	contract.SetCode(evm.StateDB.GetCodeHash(addr), code)

	evm.depth++
	ret, err := evm.interpreter.Run(contract, input, true)
	evm.depth--
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != errs.ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, err
}

func (evm *EVM) runPrecompileFramed(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	snapshot := evm.StateDB.Snapshot()
	ret, remaining, err := runPrecompile(p, input, gas)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, remaining, err
}

// create is the shared CREATE/CREATE2 implementation: nonce-based address
// derivation for CREATE, salted keccak256(0xff ++ sender ++ salt ++
// keccak256(initcode)) for CREATE2.
func (evm *EVM) create(caller common.Address, initCode []byte, gas uint64, value *big.Int, isCreate2 bool, salt *uint256.Int) ([]byte, common.Address, uint64, error) {
	nonce := evm.StateDB.GetNonce(caller)
	if !isCreate2 {
		evm.StateDB.SetNonce(caller, nonce+1)
	}

	var addr common.Address
	if isCreate2 {
		saltBytes := salt.Bytes32()
		addr = create2Address(caller, saltBytes[:], initCode)
	} else {
		addr = createAddress(caller, nonce)
	}
	if evm.chainRules.IsBerlin {
		evm.StateDB.AddAddressToAccessList(addr) // EIP-2929: the new address is warm
	}

	if evm.depth > callMaxDepth {
		return nil, common.Address{}, gas, errs.ErrDepth
	}
	if value.Sign() != 0 && !evm.CanTransfer(evm.StateDB, caller, value) {
		return nil, common.Address{}, gas, errs.ErrInsufficientBalance
	}
	if evm.StateDB.Exist(addr) && (evm.StateDB.GetNonce(addr) != 0 || len(evm.StateDB.GetCode(addr)) != 0) {
		return nil, common.Address{}, gas, errs.ErrContractAddrCollision
	}

	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(addr)
	evm.StateDB.SetNonce(addr, 1)
	if value.Sign() != 0 {
		evm.Transfer(evm.StateDB, caller, addr, value)
	}

	contract := NewContract(caller, addr, value, gas)
	contract.SetCode(common.Hash{}, initCode)

	evm.depth++
	ret, err := evm.interpreter.Run(contract, nil, false)
	evm.depth--

	if err == nil {
		createDataGas := CreateDataGas * uint64(len(ret))
		if uint64(len(ret)) > MaxCodeSize {
			err = errs.ErrMaxCodeSizeExceeded
		} else if !contract.UseGas(createDataGas) {
			err = errs.ErrCodeStoreOutOfGas
		} else {
			evm.StateDB.SetCode(addr, ret)
		}
	}

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != errs.ErrExecutionReverted {
			contract.Gas = 0
		}
		return ret, addr, contract.Gas, err
	}
	return ret, addr, contract.Gas, nil
}

func createAddress(caller common.Address, nonce uint64) common.Address {
	enc := rlpEncodeCreateAddr(caller, nonce)
	return common.BytesToAddress(common.Keccak256(enc)[12:])
}

// rlpEncodeCreateAddr builds the 2-element RLP list [sender, nonce] used
// by CREATE address derivation, without pulling in the full rlp package's
// reflection-based encoder for this one fixed shape.
func rlpEncodeCreateAddr(caller common.Address, nonce uint64) []byte {
	nonceBytes := big.NewInt(0).SetUint64(nonce).Bytes()
	addrField := append([]byte{0x80 + 20}, caller.Bytes()...)
	var nonceField []byte
	switch {
	case nonce == 0:
		nonceField = []byte{0x80}
	case len(nonceBytes) == 1 && nonceBytes[0] < 0x80:
		nonceField = nonceBytes
	default:
		nonceField = append([]byte{0x80 + byte(len(nonceBytes))}, nonceBytes...)
	}
	payload := append(addrField, nonceField...)
	return append([]byte{0xC0 + byte(len(payload))}, payload...)
}

func create2Address(caller common.Address, salt, initCode []byte) common.Address {
	initHash := common.Keccak256(initCode)
	data := append([]byte{0xff}, caller.Bytes()...)
	data = append(data, salt...)
	data = append(data, initHash...)
	return common.BytesToAddress(common.Keccak256(data)[12:])
}
