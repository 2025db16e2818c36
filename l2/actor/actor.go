// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package actor is the supervision shell every L2 sequencer actor (see
// l2/sequencer) runs inside: one actor, one goroutine, one main loop,
// no mutable state shared with another actor — communication is
// exclusively through internal/mailbox. A Supervisor restarts an actor
// whose loop returns a non-nil error (crash-and-restart, luxfi-evm's
// own long-running-subsystem pattern) up to maxRetries times (without
// limit when maxRetries <= 0) before giving up and reporting the failure
// upward.
package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/corechain/execd/internal/xlog"
)

// Actor is one independently-scheduled unit of the sequencer: Run
// blocks until ctx is cancelled or an unrecoverable error occurs.
type Actor interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor runs a fixed set of actors concurrently and restarts any
// that exit with an error, applying exponential backoff capped at
// maxBackoff between restarts so a persistently failing actor doesn't
// spin.
type Supervisor struct {
	log        *xlog.Logger
	maxRetries int
	maxBackoff time.Duration
}

// NewSupervisor creates a Supervisor. maxRetries <= 0 means unlimited.
func NewSupervisor(log *xlog.Logger, maxRetries int, maxBackoff time.Duration) *Supervisor {
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	return &Supervisor{log: log, maxRetries: maxRetries, maxBackoff: maxBackoff}
}

// Run starts every actor and blocks until ctx is cancelled or every
// actor has exhausted its restart budget, whichever comes first.
func (s *Supervisor) Run(ctx context.Context, actors ...Actor) error {
	done := make(chan error, len(actors))
	for _, a := range actors {
		a := a
		go func() { done <- s.supervise(ctx, a) }()
	}
	var firstErr error
	for range actors {
		if err := <-done; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Supervisor) supervise(ctx context.Context, a Actor) error {
	backoff := 100 * time.Millisecond
	attempts := 0
	for {
		err := a.Run(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		attempts++
		s.log.Error("actor exited, restarting", "actor", a.Name(), "attempt", attempts, "err", err)
		if s.maxRetries > 0 && attempts >= s.maxRetries {
			return fmt.Errorf("actor %s: exhausted %d restarts: %w", a.Name(), s.maxRetries, err)
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil
		}
		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}
