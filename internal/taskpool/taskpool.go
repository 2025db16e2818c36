// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package taskpool bounds concurrent work for the snap-sync range
// downloaders and healer (account-range, storage-range, bytecode and
// trie-node fetches all fan out across many peers at once), grounded
// on luxfi-evm's own bounded-worker-pool usage in its sync
// subsystem and built on golang.org/x/sync's errgroup.SetLimit rather
// than a hand-rolled semaphore/channel pool.
package taskpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs tasks with bounded concurrency and aggregates the first
// error, cancelling in-flight tasks once one fails.
type Pool struct {
	g   *errgroup.Group
	ctx context.Context
}

// New creates a Pool that runs at most limit tasks concurrently. A
// limit <= 0 means unbounded, matching errgroup.SetLimit's contract.
func New(ctx context.Context, limit int) *Pool {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &Pool{g: g, ctx: ctx}
}

// Context returns the pool's derived context, cancelled once any
// submitted task returns an error.
func (p *Pool) Context() context.Context { return p.ctx }

// Go submits fn to run once a worker slot is free. It blocks if the
// pool is at its concurrency limit.
func (p *Pool) Go(fn func(context.Context) error) {
	p.g.Go(func() error { return fn(p.ctx) })
}

// Wait blocks until every submitted task has returned, yielding the
// first non-nil error (if any).
func (p *Pool) Wait() error { return p.g.Wait() }

// Map runs fn over every item in items with bounded concurrency limit
// and returns the first error encountered, if any — the shape the
// account-range/storage-range downloaders use to fan a batch of peer
// requests out and collapse them back into one error.
func Map[T any](ctx context.Context, limit int, items []T, fn func(context.Context, T) error) error {
	p := New(ctx, limit)
	for _, item := range items {
		item := item
		p.Go(func(ctx context.Context) error { return fn(ctx, item) })
	}
	return p.Wait()
}
