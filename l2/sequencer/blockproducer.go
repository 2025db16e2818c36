// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package sequencer implements the six L2 sequencer actors: Block
// Producer, L1 Watcher, L1 Committer, Proof Coordinator, Verifier
// Sender, and State Updater. Each is an l2/actor.Actor running its own
// loop against an internal/mailbox.Mailbox, grounded on luxfi-evm's
// own long-running-subsystem shape (one goroutine, one responsibility,
// communicating only through channels).
package sequencer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/l2/mempool"
)

// Chain is the narrow view of chain state the Block Producer needs: the
// current head and a way to open a StateDB at its root.
type Chain interface {
	Head() *types.Header
	StateAt(root common.Hash) (*state.StateDB, error)
}

// BlockProducer assembles one new block per tick from the mempool,
// executes it, and posts the result downstream for the L1 Committer to
// batch: pulls transactions from the mempool in priority order,
// executes them, and seals a new block on a fixed period.
type BlockProducer struct {
	config   *chainconfig.ChainConfig
	executor *block.Executor
	pool     *mempool.Pool
	chain    Chain
	period   time.Duration
	gasLimit uint64
	coinbase common.Address
	out      Mailbox

	log *xlog.Logger
}

// Mailbox is the narrow posting surface BlockProducer needs from its
// downstream mailbox, so this file does not have to name the concrete
// block-envelope type generically.
type Mailbox interface {
	Post(ctx context.Context, b *types.Block) error
}

// NewBlockProducer builds a Block Producer actor.
func NewBlockProducer(config *chainconfig.ChainConfig, executor *block.Executor, pool *mempool.Pool, chain Chain, period time.Duration, gasLimit uint64, coinbase common.Address, out Mailbox, log *xlog.Logger) *BlockProducer {
	return &BlockProducer{config: config, executor: executor, pool: pool, chain: chain, period: period, gasLimit: gasLimit, coinbase: coinbase, out: out, log: log.With("actor", "block-producer")}
}

func (p *BlockProducer) Name() string { return "block-producer" }

// Run seals one block every period, for as long as ctx is alive.
func (p *BlockProducer) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			blk, err := p.produce(ctx)
			if err != nil {
				p.log.Error("block production failed", "err", err)
				continue
			}
			if blk == nil {
				continue // nothing pending; not every tick seals a block
			}
			if err := p.out.Post(ctx, blk); err != nil {
				return fmt.Errorf("block-producer: posting block %d: %w", blk.NumberU64(), err)
			}
		}
	}
}

func (p *BlockProducer) produce(ctx context.Context) (*types.Block, error) {
	parent := p.chain.Head()
	if p.pool.Len() == 0 {
		return nil, nil
	}

	txs := p.pool.Pull(4096, parent.BaseFee)
	if len(txs) == 0 {
		return nil, nil
	}

	statedb, err := p.chain.StateAt(parent.Root)
	if err != nil {
		return nil, fmt.Errorf("opening state at parent root: %w", err)
	}

	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number, big.NewInt(1)),
		GasLimit:   p.gasLimit,
		Time:       uint64(time.Now().Unix()),
		Coinbase:   p.coinbase,
	}
	rules := p.config.Rules(header.Number, header.Time)
	if rules.IsLondon {
		header.BaseFee = block.CalcBaseFee(parent)
	}

	result, err := p.executor.ExecuteRaw(p.executor.BlockContext(header), header, txs, statedb)
	if err != nil {
		return nil, fmt.Errorf("executing candidate block %d: %w", header.Number, err)
	}
	header.Root = result.StateRoot
	header.GasUsed = result.GasUsed
	header.ReceiptHash = block.DeriveReceiptsRoot(result.Receipts)
	header.TxHash = block.DeriveTransactionsRoot(txs)

	return types.NewBlock(header, types.Body{Transactions: txs}), nil
}
