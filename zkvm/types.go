// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package zkvm is the stateless-prover seam: a guest program replays one
// block using only its execution witness (no live trie access), and a
// ProverBackend wraps whatever zkVM toolchain turns that replay into a
// proof the Proof Coordinator hands to the Verifier Sender. The backend
// abstraction and guest input/output shapes are grounded on the native
// rollup's zkVM guest package: a compiled GuestProgram executed against
// a GuestInput, producing a Proof checked with a VerificationKey.
package zkvm

import (
	"github.com/corechain/execd/common"
)

// GuestProgram is a compiled zkVM guest program implementing the state
// transition function: decode a block plus its witness, re-execute, and
// commit the resulting public-input roots.
type GuestProgram struct {
	Code       []byte
	EntryPoint string
	Version    uint32
}

// VerificationKey is the public key a Verify call checks a Proof against,
// bound to the exact GuestProgram it was derived from.
type VerificationKey struct {
	Data        []byte
	ProgramHash common.Hash
}

// Proof is a zero-knowledge proof of correct guest execution, together
// with the public inputs a stateless verifier (on L1, or another node)
// checks it against.
type Proof struct {
	Data         []byte
	PublicInputs PublicInputs
}

// PublicInputs is what a batch proof commits to: pre/post state roots,
// receipts root, block hash, withdrawals root, the privileged-tx
// rolling hash, and the blob commitment (nil when the batch carries no
// blob).
type PublicInputs struct {
	PreStateRoot      common.Hash
	PostStateRoot     common.Hash
	ReceiptsRoot      common.Hash
	BlockHash         common.Hash
	WithdrawalsRoot   common.Hash
	PrivilegedTxRoot  common.Hash
	BlobCommitment    []byte
}

// ProverBackend lets the Proof Coordinator multiplex batch-proving work
// across interchangeable stateless prover clients (SP1, RISC Zero, or an
// in-process mock for tests), each wrapping a different proof system
// behind the same three calls.
type ProverBackend interface {
	Name() string
	Prove(program *GuestProgram, input GuestInput) (*Proof, error)
	Verify(vk *VerificationKey, proof *Proof) (bool, error)
}

// GuestInput is what a ProverBackend.Prove call feeds to the guest
// program: the RLP-encoded block and its execution witness.
type GuestInput struct {
	ChainID     uint64
	BlockRLP    []byte
	WitnessRLP  []byte
}
