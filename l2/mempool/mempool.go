// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package mempool is the Block Producer's transaction source: regular
// transactions are ordered by (max_priority_fee_desc, nonce_asc), while
// privileged L2 transactions form a separate queue delivered strictly
// in the L1 event order the watcher observed them in — no other
// ordering is assumed for that lane.
package mempool

import (
	"container/heap"
	"math/big"
	"sort"
	"sync"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/types"
)

// Pool holds pending regular transactions (bucketed by sender, ordered
// by nonce within a bucket) and a strictly-ordered privileged-tx queue.
type Pool struct {
	mu         sync.Mutex
	chainID    *big.Int
	bySender   map[common.Address][]*types.Transaction // nonce-ascending
	privileged []*types.Transaction
}

func New(chainID *big.Int) *Pool {
	return &Pool{chainID: chainID, bySender: make(map[common.Address][]*types.Transaction)}
}

// AddRegular inserts a signed transaction, replacing any existing
// pending transaction from the same sender at the same nonce (a fee
// bump) — no underpriced-replacement check, left to a future gas-price
// validation pass.
func (p *Pool) AddRegular(tx *types.Transaction) error {
	from, err := block.Sender(tx, p.chainID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := p.bySender[from]
	idx := sort.Search(len(bucket), func(i int) bool { return bucket[i].Nonce() >= tx.Nonce() })
	if idx < len(bucket) && bucket[idx].Nonce() == tx.Nonce() {
		bucket[idx] = tx
	} else {
		bucket = append(bucket, nil)
		copy(bucket[idx+1:], bucket[idx:])
		bucket[idx] = tx
	}
	p.bySender[from] = bucket
	return nil
}

// AddPrivileged appends a privileged transaction the L1 Watcher
// constructed, preserving the order events were observed in — callers
// must only ever append in that order.
func (p *Pool) AddPrivileged(tx *types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.privileged = append(p.privileged, tx)
}

// heapItem is one sender's current head transaction, ordered by
// effective priority fee at baseFee (descending).
type heapItem struct {
	addr common.Address
	tx   *types.Transaction
	tip  *big.Int
}

type tipHeap []heapItem

func (h tipHeap) Len() int            { return len(h) }
func (h tipHeap) Less(i, j int) bool  { return h[i].tip.Cmp(h[j].tip) > 0 }
func (h tipHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *tipHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *tipHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Pull drains up to limit transactions ready for the next block:
// every pending privileged transaction first (L1 event order), then
// regular transactions merged across senders by effective priority fee
// at baseFee, nonce-ascending within a sender. Consumed transactions
// are removed from the pool.
func (p *Pool) Pull(limit int, baseFee *big.Int) []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []*types.Transaction
	take := len(p.privileged)
	if limit > 0 && take > limit {
		take = limit
	}
	out = append(out, p.privileged[:take]...)
	p.privileged = p.privileged[take:]
	remaining := limit - take
	if limit > 0 && remaining <= 0 {
		return out
	}

	// nextIdx[addr] is the index into bySender[addr] of the next
	// candidate for the heap; emitted[addr] is how many from the front
	// of that bucket have actually been appended to out.
	nextIdx := make(map[common.Address]int, len(p.bySender))
	emitted := make(map[common.Address]int, len(p.bySender))
	h := &tipHeap{}
	pushNext := func(addr common.Address) {
		bucket := p.bySender[addr]
		idx := nextIdx[addr]
		if idx >= len(bucket) {
			return
		}
		tip, err := bucket[idx].EffectiveGasTip(baseFee)
		if err != nil {
			return
		}
		heap.Push(h, heapItem{addr: addr, tx: bucket[idx], tip: tip})
		nextIdx[addr] = idx + 1
	}
	for addr := range p.bySender {
		pushNext(addr)
	}

	for h.Len() > 0 {
		if limit > 0 && len(out)-take >= remaining {
			break
		}
		top := heap.Pop(h).(heapItem)
		out = append(out, top.tx)
		emitted[top.addr]++
		pushNext(top.addr)
	}

	// Drop every sender's emitted prefix from the pool; transactions
	// that were pushed into the heap but never popped (loop exited on
	// limit) stay pending for the next Pull.
	for addr, n := range emitted {
		if n == 0 {
			continue
		}
		bucket := p.bySender[addr]
		if n >= len(bucket) {
			delete(p.bySender, addr)
		} else {
			p.bySender[addr] = bucket[n:]
		}
	}
	return out
}

// Len reports the number of pending transactions across both lanes.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.privileged)
	for _, b := range p.bySender {
		n += len(b)
	}
	return n
}
