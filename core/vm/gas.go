// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Gas cost constants and dynamic gas calculators. Constants follow
// go-ethereum's params gas table (GasQuickStep/GasFastStep naming and
// values); dynamic functions implement memory expansion (quadratic beyond
// the linear region) and EIP-2929 cold/warm access surcharges.
package vm

import (
	"math"

	"github.com/corechain/execd/internal/errs"
)

const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20

	Sha3Gas     uint64 = 30
	Sha3WordGas uint64 = 6

	SstoreSetGas       uint64 = 20000
	SstoreResetGas     uint64 = 5000
	SstoreClearRefund  uint64 = 4800 // EIP-3529
	SstoreSentryGasEIP2200 uint64 = 2300

	JumpdestGas uint64 = 1

	CreateGas       uint64 = 32000
	CreateDataGas   uint64 = 200
	CallValueTransferGas uint64 = 9000
	CallNewAccountGas    uint64 = 25000
	CallStipend          uint64 = 2300

	ColdAccountAccessCostEIP2929 uint64 = 2600
	ColdSloadCostEIP2929         uint64 = 2100
	WarmStorageReadCostEIP2929   uint64 = 100

	LogGas      uint64 = 375
	LogTopicGas uint64 = 375
	LogDataGas  uint64 = 8

	CopyGas uint64 = 3

	MaxCodeSize      = 24576       // EIP-170
	MaxInitCodeSize  = 2 * 24576   // EIP-3860
	RefundQuotientEIP3529 uint64 = 5
)

// memoryGasCost returns the total (not incremental) linear+quadratic gas
// cost of memory grown to newSize bytes, rounded up to whole words;
// callers subtract memory.lastGasCost to get the incremental charge.
func memoryGasCost(mem *Memory, newSize uint64) (uint64, error) {
	if newSize == 0 {
		return 0, nil
	}
	if newSize > math.MaxUint64-31 {
		return 0, errs.ErrGasUintOverflow
	}
	words := toWordSize(newSize)
	if words > 0xFFFFFFFF {
		return 0, errs.ErrGasUintOverflow
	}
	linCoef := words * GasFastestStep
	quadCoef := words * words / 512
	total := linCoef + quadCoef
	return total, nil
}

// calcMemGasIncrease returns the size mem must reach to cover the region
// [offset, offset+size) and the additional gas needed to grow it there,
// recording the new total in mem.lastGasCost. It does not resize mem; the
// interpreter does that once the fee is charged.
func calcMemGasIncrease(mem *Memory, offset, size uint64) (uint64, uint64, error) {
	if size == 0 {
		return uint64(len(mem.store)), 0, nil
	}
	newSize := offset + size
	if newSize < offset {
		return 0, 0, errs.ErrGasUintOverflow
	}
	if newSize <= uint64(len(mem.store)) {
		return newSize, 0, nil
	}
	total, err := memoryGasCost(mem, newSize)
	if err != nil {
		return 0, 0, err
	}
	if total < mem.lastGasCost {
		return newSize, 0, nil
	}
	fee := total - mem.lastGasCost
	mem.lastGasCost = total
	return newSize, fee, nil
}
