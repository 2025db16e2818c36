// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package sequencer

import (
	"context"
	"sync"
	"time"

	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/zkvm"
)

// ProveTask is one batch waiting for a proof.
type ProveTask struct {
	BatchID uint64
	Program *zkvm.GuestProgram
	Input   zkvm.GuestInput
}

// ProveResult is what a completed (or failed) proving attempt produces.
type ProveResult struct {
	BatchID uint64
	Proof   *zkvm.Proof
	Err     error
}

// TaskInbox is the Proof Coordinator's work queue, fed by the L1
// Committer (or block-finalization pipeline) once a batch is ready to
// prove.
type TaskInbox interface {
	Recv(ctx context.Context) (ProveTask, error)
}

// ResultOutbox is where a finished proof is announced for the Verifier
// Sender to pick up.
type ResultOutbox interface {
	Post(ctx context.Context, r ProveResult) error
}

// inFlight tracks one batch's current proving attempt. A taken task stays
// off the queue until its attempt resolves or the timeout sweep requeues
// it; a requeue does not stop the timed-out attempt, and only a result
// reported while the batch is in flight is accepted.
type inFlight struct {
	task      ProveTask
	startedAt time.Time
	worker    string
}

// ProofCoordinator multiplexes batch-proving work across an in-process
// ProverBackend (zkvm.MockBackend when no remote prover is configured)
// and any number of remote prover clients connected over the gRPC
// surface in proofcoordinator_grpc.go: hand out ProveBatch, accept
// Proof or Failed, re-queue on timeout; a batch is handed to one worker
// at a time until its attempt resolves or times out.
type ProofCoordinator struct {
	local   zkvm.ProverBackend
	timeout time.Duration
	in      TaskInbox
	out     ResultOutbox
	log     *xlog.Logger

	mu       sync.Mutex
	queue    []ProveTask
	inflight map[uint64]*inFlight
}

func NewProofCoordinator(local zkvm.ProverBackend, timeout time.Duration, in TaskInbox, out ResultOutbox, log *xlog.Logger) *ProofCoordinator {
	return &ProofCoordinator{
		local: local, timeout: timeout, in: in, out: out,
		log: log.With("actor", "proof-coordinator"), inflight: make(map[uint64]*inFlight),
	}
}

func (c *ProofCoordinator) Name() string { return "proof-coordinator" }

// Run drains incoming tasks into the queue and, concurrently, drains the
// queue into the local backend (remote prover clients pull from the
// queue themselves via TakeTask/CompleteTask below, driven by the gRPC
// handlers). A background sweep requeues any attempt that outlived
// timeout.
func (c *ProofCoordinator) Run(ctx context.Context) error {
	sweep := time.NewTicker(c.timeout / 2)
	defer sweep.Stop()

	errCh := make(chan error, 1)
	go func() {
		for {
			task, err := c.in.Recv(ctx)
			if err != nil {
				errCh <- nil
				return
			}
			c.mu.Lock()
			c.queue = append(c.queue, task)
			c.mu.Unlock()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case <-sweep.C:
			c.requeueTimedOut()
		default:
			task, ok := c.TakeTask("local")
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			proof, err := c.local.Prove(task.Program, task.Input)
			c.CompleteTask(ctx, task.BatchID, proof, err)
		}
	}
}

// TakeTask hands the next queued task to worker (a remote prover's
// connection ID, or "local" for the in-process backend), marking it
// in-flight. Returns ok=false if the queue is empty.
func (c *ProofCoordinator) TakeTask(worker string) (ProveTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return ProveTask{}, false
	}
	task := c.queue[0]
	c.queue = c.queue[1:]
	c.inflight[task.BatchID] = &inFlight{task: task, startedAt: time.Now(), worker: worker}
	return task, true
}

// CompleteTask records a worker's result. A failure re-queues the task
// for another worker rather than propagating immediately, for both
// explicit Failed responses and local-backend errors.
func (c *ProofCoordinator) CompleteTask(ctx context.Context, batchID uint64, proof *zkvm.Proof, proveErr error) {
	c.mu.Lock()
	f, ok := c.inflight[batchID]
	if !ok {
		c.mu.Unlock()
		return // already resolved by a timeout requeue racing this completion
	}
	delete(c.inflight, batchID)
	c.mu.Unlock()

	if proveErr != nil {
		c.log.Warn("proof attempt failed, requeuing", "batch", batchID, "worker", f.worker, "err", proveErr)
		c.RequeueFailed(f.task)
		return
	}
	if err := c.out.Post(ctx, ProveResult{BatchID: batchID, Proof: proof}); err != nil {
		c.log.Error("posting proof result failed", "batch", batchID, "err", err)
	}
}

// RequeueFailed puts a task back on the queue for another worker to
// pick up, used by CompleteTask's failure path above, which the gRPC
// CompleteTask handler also takes once a remote prover reports it could
// not produce a proof.
func (c *ProofCoordinator) RequeueFailed(task ProveTask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, task.BatchID)
	c.queue = append(c.queue, task)
}

// requeueTimedOut moves every in-flight task that has exceeded timeout
// back onto the queue for a different worker to pick up.
func (c *ProofCoordinator) requeueTimedOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for id, f := range c.inflight {
		if now.Sub(f.startedAt) > c.timeout {
			c.log.Warn("proof attempt timed out, requeuing", "batch", id, "worker", f.worker)
			delete(c.inflight, id)
			c.queue = append(c.queue, f.task)
		}
	}
}
