// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/corechain/execd/common"
)

// Contract is one call frame's execution context: the code being run, its
// caller/value/input, and the gas meter. Analogous to go-ethereum's
// vm.Contract.
type Contract struct {
	CallerAddress common.Address
	Address       common.Address
	Code          []byte
	CodeHash      common.Hash
	Input         []byte

	Gas   uint64
	value *big.Int

	IsStatic bool
}

func NewContract(caller, addr common.Address, value *big.Int, gas uint64) *Contract {
	return &Contract{CallerAddress: caller, Address: addr, value: value, Gas: gas}
}

func (c *Contract) SetCode(hash common.Hash, code []byte) {
	c.Code = code
	c.CodeHash = hash
}

func (c *Contract) Value() *big.Int { return c.value }

func (c *Contract) UseGas(amount uint64) bool {
	if c.Gas < amount {
		return false
	}
	c.Gas -= amount
	return true
}

// validJumpdest reports whether dest is both in-bounds and a JUMPDEST not
// embedded inside PUSH data. Kept deliberately simple: the PUSH-data
// bitmap is recomputed per jump rather than cached across a Contract's
// lifetime or shared via a global analysis cache.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest := dest.Uint64()
	if dest.BitLen() >= 63 || udest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	return !codeBitmap(c.Code).isSet(udest)
}
