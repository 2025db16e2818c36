// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package mailbox implements the single-producer/single-consumer typed
// inbox each L2 actor (Block Producer, L1 Watcher, L1 Committer, Proof
// Coordinator, Verifier Sender, State Updater) reads its work items
// from, grounded on luxfi-evm's own actor/engine mailbox shape (a
// buffered channel plus a context-aware Post, a non-blocking TryPost and
// a context-aware Recv)
// and golang.org/x/sync's errgroup for fan-out draining.
package mailbox

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrFull is returned by TryPost when the mailbox is at capacity.
var ErrFull = errors.New("mailbox: full")

// Mailbox is a bounded, typed inbox for a single actor.
type Mailbox[T any] struct {
	ch chan T
}

// New creates a Mailbox with the given buffer capacity. A capacity of
// 0 makes Post block until a Recv is waiting, matching an actor that
// must not buffer unprocessed work.
func New[T any](capacity int) *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, capacity)}
}

// Post enqueues v, blocking until either space is available or ctx is
// done.
func (m *Mailbox[T]) Post(ctx context.Context, v T) error {
	select {
	case m.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPost enqueues v without blocking, returning ErrFull if the
// mailbox has no free capacity.
func (m *Mailbox[T]) TryPost(v T) error {
	select {
	case m.ch <- v:
		return nil
	default:
		return ErrFull
	}
}

// Recv blocks until a value is available or ctx is done.
func (m *Mailbox[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-m.ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close closes the underlying channel; further Post calls will panic,
// matching Go channel semantics — callers must stop posting before
// closing.
func (m *Mailbox[T]) Close() { close(m.ch) }

// Drain runs fn over every value received until ctx is cancelled or
// the mailbox is closed, using an errgroup so the first fn error
// cancels ctx and is returned once draining stops; it turns a "handle
// one message" function into a loop. The sequencer actors call Recv
// directly and do not use it.
func Drain[T any](ctx context.Context, m *Mailbox[T], fn func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			v, err := m.Recv(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			}
			if err := fn(ctx, v); err != nil {
				return err
			}
		}
	})
	return g.Wait()
}
