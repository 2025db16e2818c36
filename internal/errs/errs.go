// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package errs defines the sentinel error kinds shared across the EVM,
// block executor, sync and L2 packages, grounded on luxfi-evm's own
// flat sentinel-error style (plain `errors.New` package-level vars,
// wrapped with `fmt.Errorf("...: %w", ...)` at call sites) rather than
// a custom error-code enum.
package errs

import "errors"

// EVM execution errors.
var (
	ErrOutOfGas            = errors.New("out of gas")
	ErrCodeStoreOutOfGas   = errors.New("contract creation code storage out of gas")
	ErrDepth               = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrContractAddrCollision = errors.New("contract address collision")
	ErrExecutionReverted   = errors.New("execution reverted")
	ErrMaxCodeSizeExceeded = errors.New("max code size exceeded")
	ErrInvalidJump         = errors.New("invalid jump destination")
	ErrWriteProtection     = errors.New("write protection")
	ErrReturnDataOutOfBounds = errors.New("return data out of bounds")
	ErrGasUintOverflow     = errors.New("gas uint64 overflow")
	ErrNonceUintOverflow   = errors.New("nonce uint64 overflow")
	ErrStackUnderflow      = errors.New("stack underflow")
	ErrStackOverflow       = errors.New("stack overflow")
)

// Transaction validation errors.
var (
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrNonceTooHigh      = errors.New("nonce too high")
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")
	ErrIntrinsicGas      = errors.New("intrinsic gas too low")
	ErrGasLimitReached   = errors.New("block gas limit reached")
	ErrFeeCapTooLow      = errors.New("max fee per gas less than block base fee")
	ErrTipAboveFeeCap    = errors.New("max priority fee per gas higher than max fee per gas")
	ErrSenderNoEOA       = errors.New("sender not an eoa")
	ErrPrivilegedTxMustBeUnsigned = errors.New("privileged L2 transaction must not carry a signature")
)

// Sync / state errors.
var (
	ErrRangeProofInvalid   = errors.New("range proof does not verify against root")
	ErrHealRequestMismatch = errors.New("heal response does not match requested hash")
	ErrPivotMoved          = errors.New("sync pivot moved past retry budget")
	ErrNoPeers             = errors.New("no peers available for request")
)

// L2 / DA errors.
var (
	ErrBatchTooLarge        = errors.New("batch exceeds maximum blob capacity")
	ErrBlobFrameCorrupt     = errors.New("blob frame failed integrity check")
	ErrAnchorMismatch       = errors.New("anchor predeploy state does not match L1 header")
	ErrProofVerifyFailed    = errors.New("zk proof verification failed")
	ErrUnknownProverBackend = errors.New("unknown prover backend")
)

// Execution witness errors.
var (
	ErrWitnessProofInvalid  = errors.New("witness proof does not verify against pre-state root")
	ErrWitnessMissingCode   = errors.New("witness missing bytecode for a read code hash")
	ErrWitnessMissingAccount = errors.New("witness missing proof for a touched account")
)
