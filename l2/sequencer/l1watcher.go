// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/l2/contracts"
	"github.com/corechain/execd/l2/mempool"
)

// L1Watcher polls the L1 bridge contract for DepositInitiated and
// L1MessageRecorded events, turning each into a Privileged L2
// Transaction injected into the mempool in the exact order the events
// were observed on L1, including a re-org buffer ("block_delay") that
// keeps the watcher from acting on a block depth still liable to reorg.
type L1Watcher struct {
	client      L1Client
	bridge      common.Address
	chainID     *big.Int
	pool        *mempool.Pool
	pollPeriod  time.Duration
	blockDelay  uint64
	lastScanned uint64

	log *xlog.Logger
}

// NewL1Watcher builds a watcher starting from startBlock (exclusive —
// the first poll scans startBlock+1 onward).
func NewL1Watcher(client L1Client, bridge common.Address, chainID *big.Int, pool *mempool.Pool, pollPeriod time.Duration, blockDelay, startBlock uint64, log *xlog.Logger) *L1Watcher {
	return &L1Watcher{
		client: client, bridge: bridge, chainID: chainID, pool: pool,
		pollPeriod: pollPeriod, blockDelay: blockDelay, lastScanned: startBlock,
		log: log.With("actor", "l1-watcher"),
	}
}

func (w *L1Watcher) Name() string { return "l1-watcher" }

func (w *L1Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				w.log.Error("poll failed", "err", err)
			}
		}
	}
}

func (w *L1Watcher) poll(ctx context.Context) error {
	head, err := w.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("l1-watcher: head: %w", err)
	}
	if head < w.blockDelay {
		return nil
	}
	safe := head - w.blockDelay
	if safe <= w.lastScanned {
		return nil
	}

	logs, err := w.client.FilterLogs(ctx, w.lastScanned+1, safe, w.bridge,
		[]common.Hash{contracts.DepositInitiatedTopic, contracts.L1MessageRecordedTopic})
	if err != nil {
		return fmt.Errorf("l1-watcher: filter logs: %w", err)
	}

	for _, l := range logs {
		tx, err := w.toPrivilegedTx(l)
		if err != nil {
			return fmt.Errorf("l1-watcher: decoding log %s/%d: %w", l.TxHash, l.Index, err)
		}
		w.pool.AddPrivileged(tx)
	}
	w.lastScanned = safe
	return nil
}

// privilegedTxGas is the fixed gas limit granted to every privileged
// transaction; it never draws from a sender's balance (privileged
// transactions skip fee collection entirely) so a generous fixed limit
// costs nothing and just bounds worst-case execution.
const privilegedTxGas = 1_000_000

// toPrivilegedTx builds the Privileged L2 Transaction a bridge event
// authorizes: a deposit mints Value directly to To and carries Data as
// calldata; a generic message carries no value.
func (w *L1Watcher) toPrivilegedTx(l L1Log) (*types.Transaction, error) {
	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}
	switch l.Topics[0] {
	case contracts.DepositInitiatedTopic:
		d, err := contracts.DecodeDepositInitiated(l.TxHash, l.Index, l.Data)
		if err != nil {
			return nil, err
		}
		to := d.To
		return types.NewTx(&types.PrivilegedL2Tx{
			ChainID: w.chainID, From: d.From, Gas: privilegedTxGas,
			To: &to, Value: d.Value, Data: d.Data, L1TxHash: l.TxHash,
		}), nil
	case contracts.L1MessageRecordedTopic:
		m, err := contracts.DecodeL1MessageRecorded(l.TxHash, l.Index, l.Data)
		if err != nil {
			return nil, err
		}
		to := m.Target
		return types.NewTx(&types.PrivilegedL2Tx{
			ChainID: w.chainID, From: common.Address{}, Gas: privilegedTxGas,
			To: &to, Value: new(big.Int), Data: m.Data, L1TxHash: l.TxHash,
		}), nil
	default:
		return nil, fmt.Errorf("unrecognized topic %s", l.Topics[0])
	}
}
