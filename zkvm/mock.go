// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package zkvm

import (
	"fmt"

	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/core/witness"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/rlp"
)

// MockBackend is an in-process ProverBackend that actually replays the
// guest program instead of producing a real zero-knowledge proof: Prove
// runs GuestContext.Execute and packages its result as the proof's public
// inputs with a marker proof body ("mock-proof:" followed by the block
// hash), and Verify checks only that marker. It lets the Proof Coordinator drive its full pipeline — and
// a CI/test environment exercise it end to end — without a real prover
// client wired up.
type MockBackend struct {
	config *chainconfig.ChainConfig
}

// NewMockBackend returns a backend that replays guest inputs against config.
func NewMockBackend(config *chainconfig.ChainConfig) *MockBackend {
	return &MockBackend{config: config}
}

func (b *MockBackend) Name() string { return "mock" }

func (b *MockBackend) Prove(program *GuestProgram, input GuestInput) (*Proof, error) {
	result, blk, err := b.replay(input)
	if err != nil {
		return nil, err
	}
	return &Proof{
		Data: append([]byte("mock-proof:"), blk.Hash().Bytes()...),
		PublicInputs: PublicInputs{
			PreStateRoot:  result.PreStateRoot,
			PostStateRoot: result.PostStateRoot,
			ReceiptsRoot:  result.ReceiptsRoot,
			BlockHash:     blk.Hash(),
		},
	}, nil
}

// Verify checks that the proof body is "mock-proof:" followed by the
// public inputs' block hash. It does not replay the block or check the
// state and receipts roots; a mock prover has no soundness to rely on.
func (b *MockBackend) Verify(vk *VerificationKey, proof *Proof) (bool, error) {
	if proof == nil {
		return false, fmt.Errorf("zkvm: nil proof")
	}
	want := append([]byte("mock-proof:"), proof.PublicInputs.BlockHash.Bytes()...)
	if len(proof.Data) != len(want) {
		return false, nil
	}
	for i := range want {
		if proof.Data[i] != want[i] {
			return false, nil
		}
	}
	return true, nil
}

func (b *MockBackend) replay(input GuestInput) (*ExecutionResult, *types.Block, error) {
	blk, err := types.DecodeBlockRLP(input.BlockRLP)
	if err != nil {
		return nil, nil, fmt.Errorf("zkvm: decoding guest block: %w", err)
	}
	var w witness.Witness
	if err := rlp.DecodeBytes(input.WitnessRLP, &w); err != nil {
		return nil, nil, fmt.Errorf("zkvm: decoding guest witness: %w", err)
	}
	// GuestInput carries no parent header, so the parent-root cross-check
	// GuestContext.Execute performs when given one is skipped here; the
	// witness's proofs are still verified against its own claimed
	// PreStateRoot regardless.
	ctx := NewGuestContext(b.config, &w, nil)
	result, err := ctx.Execute(blk)
	if err != nil {
		return nil, nil, err
	}
	return result, blk, nil
}

var _ ProverBackend = (*MockBackend)(nil)
