// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"context"

	"github.com/corechain/execd/common"
)

// L1Log is one matched event log the L1 Watcher decodes.
type L1Log struct {
	BlockNumber uint64
	TxHash      common.Hash
	Index       uint64
	Topics      []common.Hash
	Data        []byte
}

// L1Client is the narrow RPC surface the L1 Watcher, L1 Committer, and
// Verifier Sender actors need, carved out of the much wider surface
// luxfi-evm's own ethclient.Client interface exposes (see
// ethclient/simulated/backend.go's Client/simClient split for the same
// "wrap the broad client behind a purpose-narrow interface" idiom) —
// only FilterLogs/BlockNumber/SendTransaction are needed here, so only
// those are named, rather than depending on the full client surface.
type L1Client interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addr common.Address, topics []common.Hash) ([]L1Log, error)
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}
