// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"errors"

	"github.com/corechain/execd/internal/errs"
)

// errStopToken and errOutOfGas are internal control-flow sentinels, never
// surfaced past Run: a clean STOP/RETURN/SELFDESTRUCT halt collapses to a
// nil error with whatever output bytes were produced; out-of-gas collapses
// to errs.ErrOutOfGas.
var (
	errStopToken     = errors.New("stop token")
	errOutOfGas      = errs.ErrOutOfGas
	errInvalidOpcode = errors.New("invalid opcode")
)

const callMaxDepth = 1024

// Interpreter executes one call frame's bytecode against a jump table built
// for the EVM's active fork rules. One Interpreter is owned by the EVM and
// reused across every nested call within a transaction; returnData is reset
// at the start of each Run.
type Interpreter struct {
	evm   *EVM
	table *JumpTable

	returnData []byte
}

func NewInterpreter(evm *EVM) *Interpreter {
	return &Interpreter{evm: evm, table: newJumpTable(evm.chainRules)}
}

// Run executes contract.Code starting at pc 0 against input, returning the
// frame's output bytes. readOnly propagates STATICCALL's write-protection
// into contract.IsStatic for the duration of this frame.
func (in *Interpreter) Run(contract *Contract, input []byte, readOnly bool) ([]byte, error) {
	contract.Input = input
	if readOnly && !contract.IsStatic {
		contract.IsStatic = true
		defer func() { contract.IsStatic = false }()
	}

	in.returnData = nil

	if len(contract.Code) == 0 {
		return nil, nil
	}

	var (
		pc     = uint64(0)
		stack  = newStack()
		mem    = newMemory()
		scope  = &ScopeContext{Memory: mem, Stack: stack, Contract: contract}
		op     OpCode
		output []byte
		err    error
	)
	defer returnStack(stack)

	for {
		op = OpCode(contract.Code[pc])
		operation := in.table[op]
		if operation == nil {
			return nil, errInvalidOpcode
		}
		if sl := stack.len(); sl < operation.minStack {
			return nil, errs.ErrStackUnderflow
		} else if sl > operation.maxStack {
			return nil, errs.ErrStackOverflow
		}

		if operation.memorySize != nil {
			size, ok := operation.memorySize(stack)
			if !ok {
				return nil, errs.ErrGasUintOverflow
			}
			newSize, fee, merr := calcMemGasIncrease(mem, 0, size)
			_ = newSize
			if merr != nil {
				return nil, merr
			}
			if fee > 0 {
				if !contract.UseGas(fee) {
					return nil, errOutOfGas
				}
			}
			wantSize := roundUpWord(size)
			if wantSize > uint64(mem.Len()) {
				mem.Resize(wantSize)
			}
		}

		if operation.constantGas > 0 {
			if !contract.UseGas(operation.constantGas) {
				return nil, errOutOfGas
			}
		}

		output, err = operation.execute(&pc, in, scope)
		if err != nil {
			break
		}
		if stack.len() > stackLimit {
			return nil, errs.ErrStackOverflow
		}
		if !operation.jumps {
			pc++
		}
		if pc >= uint64(len(contract.Code)) {
			err = errStopToken
			break
		}
	}

	if err == errStopToken {
		return output, nil
	}
	return output, err
}

// roundUpWord is memorySize's sibling: memorySize callbacks return the
// number of bytes touched, which calcMemGasIncrease charges for, but the
// actual backing buffer must grow to a whole word so Set32/GetPtr never run
// past the slice.
func roundUpWord(size uint64) uint64 {
	return toWordSize(size) * 32
}
