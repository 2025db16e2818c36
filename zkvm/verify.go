// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package zkvm

import (
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/core/witness"
	"github.com/corechain/execd/internal/errs"
	"github.com/corechain/execd/trie"
)

// VerifyWitness is the guest's consumption-step precondition: every
// recorded value's MPT proof must verify against the witness's claimed
// pre-state root before a guest trusts any of it. Account proofs are
// checked against PreStateRoot directly; storage proofs are checked
// against the storage root the account's own (already-verified) proof
// decodes to, never against a root the witness merely asserts.
func VerifyWitness(w *witness.Witness) error {
	for _, acct := range w.Accounts {
		key := common.Keccak256(acct.Address.Bytes())
		value, err := trie.VerifyProof(w.PreStateRoot, key, acct.Proof)
		if err != nil {
			return fmt.Errorf("zkvm: account %s: %w", acct.Address, errs.ErrWitnessProofInvalid)
		}
		if len(acct.Storage) == 0 {
			continue
		}
		if len(value) == 0 {
			return fmt.Errorf("zkvm: account %s: storage proof present for an excluded account: %w", acct.Address, errs.ErrWitnessProofInvalid)
		}
		sa, err := types.DecodeAccountRLP(value)
		if err != nil {
			return fmt.Errorf("zkvm: account %s: decoding proven account: %w", acct.Address, err)
		}
		for _, sp := range acct.Storage {
			skey := common.Keccak256(sp.Slot.Bytes())
			if _, err := trie.VerifyProof(sa.StorageRoot, skey, sp.Proof); err != nil {
				return fmt.Errorf("zkvm: account %s slot %s: %w", acct.Address, sp.Slot, errs.ErrWitnessProofInvalid)
			}
		}
	}
	for _, c := range w.Codes {
		if common.Keccak256Hash(c.Code) != c.Hash {
			return fmt.Errorf("zkvm: code hash %s: %w", c.Hash, errs.ErrWitnessMissingCode)
		}
	}
	return nil
}
