// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package block

import (
	"fmt"
	"math/big"

	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/chainconfig"
)

// EIP-1559 tuning constants; luxfi-evm's own fee-window mechanism
// (plugin/evm/header.BaseFee) depends on a per-chain FeeConfig this module
// does not carry, so block validation here follows go-ethereum's original,
// simpler formula instead — documented in DESIGN.md as a deliberate
// simplification rather than a silent behavior swap.
const (
	baseFeeChangeDenominator = 8
	elasticityMultiplier     = 2
)

// ValidateHeader checks header against its parent: monotonic number/time,
// parent-hash linkage, gas-limit adjustment bounds, and (post-London) the
// base fee the header declares against what EIP-1559 would compute from
// the parent.
func ValidateHeader(config *chainconfig.ChainConfig, header, parent *types.Header) error {
	if parent == nil {
		return nil // genesis: nothing to check against
	}
	if header.ParentHash != parent.Hash() {
		return fmt.Errorf("block: parent hash mismatch: have %s want %s", header.ParentHash, parent.Hash())
	}
	if header.Number == nil || parent.Number == nil {
		return fmt.Errorf("block: missing block number")
	}
	wantNumber := new(big.Int).Add(parent.Number, big.NewInt(1))
	if header.Number.Cmp(wantNumber) != 0 {
		return fmt.Errorf("block: number mismatch: have %s want %s", header.Number, wantNumber)
	}
	if header.Time <= parent.Time {
		return fmt.Errorf("block: timestamp %d not after parent %d", header.Time, parent.Time)
	}
	if err := validateGasLimit(header.GasLimit, parent.GasLimit); err != nil {
		return err
	}
	if header.GasUsed > header.GasLimit {
		return fmt.Errorf("block: gas used %d exceeds gas limit %d", header.GasUsed, header.GasLimit)
	}

	rules := config.Rules(header.Number, header.Time)
	if rules.IsLondon {
		want := CalcBaseFee(parent)
		if header.BaseFee == nil || header.BaseFee.Cmp(want) != 0 {
			return fmt.Errorf("block: base fee mismatch: have %v want %v", header.BaseFee, want)
		}
	}
	return nil
}

// validateGasLimit enforces the +-1/1024 per-block adjustment bound every
// EIP-1559+ chain inherits from the pre-London gas-limit voting rule.
func validateGasLimit(gasLimit, parentGasLimit uint64) error {
	diff := int64(gasLimit) - int64(parentGasLimit)
	if diff < 0 {
		diff = -diff
	}
	limit := parentGasLimit / 1024
	if uint64(diff) >= limit {
		return fmt.Errorf("block: gas limit %d adjusts by more than 1/1024 of parent %d", gasLimit, parentGasLimit)
	}
	if gasLimit < 5000 {
		return fmt.Errorf("block: gas limit %d below minimum 5000", gasLimit)
	}
	return nil
}

// CalcBaseFee computes the EIP-1559 base fee for a block built on parent.
func CalcBaseFee(parent *types.Header) *big.Int {
	if parent.BaseFee == nil {
		return big.NewInt(1_000_000_000) // first London block with no EIP-1559 parent: 1 gwei initial
	}
	parentGasTarget := parent.GasLimit / elasticityMultiplier
	if parent.GasUsed == parentGasTarget {
		return new(big.Int).Set(parent.BaseFee)
	}

	if parent.GasUsed > parentGasTarget {
		gasUsedDelta := parent.GasUsed - parentGasTarget
		x := new(big.Int).Mul(parent.BaseFee, big.NewInt(int64(gasUsedDelta)))
		y := x.Div(x, big.NewInt(int64(parentGasTarget)))
		baseFeeDelta := y.Div(y, big.NewInt(baseFeeChangeDenominator))
		if baseFeeDelta.Sign() < 1 {
			baseFeeDelta = big.NewInt(1)
		}
		return new(big.Int).Add(parent.BaseFee, baseFeeDelta)
	}

	gasUsedDelta := parentGasTarget - parent.GasUsed
	x := new(big.Int).Mul(parent.BaseFee, big.NewInt(int64(gasUsedDelta)))
	y := x.Div(x, big.NewInt(int64(parentGasTarget)))
	baseFeeDelta := y.Div(y, big.NewInt(baseFeeChangeDenominator))
	result := new(big.Int).Sub(parent.BaseFee, baseFeeDelta)
	if result.Sign() < 0 {
		return big.NewInt(0)
	}
	return result
}
