// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"context"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/l2/contracts"
)

// ResultInbox is the Verifier Sender's work source: completed proofs the
// Proof Coordinator has announced.
type ResultInbox interface {
	Recv(ctx context.Context) (ProveResult, error)
}

// VerifierSender submits a finished batch proof to the on-chain
// OnChainProposer's verifyBatch, completing the commit/prove/verify
// pipeline. Grounded on the L1 Committer's own submit-and-log shape.
type VerifierSender struct {
	client   L1Client
	proposer common.Address
	in       ResultInbox
	log      *xlog.Logger
}

func NewVerifierSender(client L1Client, proposer common.Address, in ResultInbox, log *xlog.Logger) *VerifierSender {
	return &VerifierSender{client: client, proposer: proposer, in: in, log: log.With("actor", "verifier-sender")}
}

func (v *VerifierSender) Name() string { return "verifier-sender" }

func (v *VerifierSender) Run(ctx context.Context) error {
	for {
		res, err := v.in.Recv(ctx)
		if err != nil {
			return nil // context cancelled
		}
		if res.Err != nil || res.Proof == nil {
			v.log.Error("received failed proof result, not submitting", "batch", res.BatchID, "err", res.Err)
			continue
		}
		data := contracts.EncodeVerifyBatch(res.BatchID, res.Proof.Data)
		txHash, err := v.client.SendTransaction(ctx, v.proposer, data)
		if err != nil {
			v.log.Error("submitting verifyBatch failed", "batch", res.BatchID, "err", err)
			continue
		}
		v.log.Info("submitted verifyBatch", "batch", res.BatchID, "tx", txHash)
	}
}
