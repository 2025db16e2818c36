// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package headers implements the header-download stage of snap-sync:
// given (genesis, sync_head), the range is divided into fixed-size
// chunks and fetched by a pool of workers over a tasks/results channel
// pair. A coordinator drains results, stores headers strictly in
// order, and re-queues any chunk whose request failed or timed out.
package headers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/sync/peerset"
	"github.com/corechain/execd/sync/protocol"
)

// RequestTimeout is the default per-request wall-clock timeout applied
// to every peer request.
const RequestTimeout = 10 * time.Second

// Chunk is one fixed-size slice of the header range to download.
type Chunk struct {
	Start uint64
	Count uint64
}

// Store persists a contiguous, already-verified run of headers in
// order. Implementations (chain database, in-memory buffer for tests)
// are expected to reject out-of-order calls; Download always calls it
// with the next expected chunk.
type Store func(headers []*types.Header) error

// Download fetches every header in (genesis, syncHead] via chunkSize-
// sized requests fanned out across workers concurrent workers, each
// reserving a peer from peers for the duration of one request.
func Download(ctx context.Context, peers *peerset.Set, genesis, syncHead, chunkSize uint64, workers int, store Store) error {
	if syncHead <= genesis {
		return nil
	}
	if chunkSize == 0 {
		chunkSize = 192
	}

	var chunks []Chunk
	for start := genesis + 1; start <= syncHead; start += chunkSize {
		count := chunkSize
		if start+count-1 > syncHead {
			count = syncHead - start + 1
		}
		chunks = append(chunks, Chunk{Start: start, Count: count})
	}

	type result struct {
		chunk   Chunk
		headers []*types.Header
		err     error
		peerID  string
	}

	tasks := make(chan Chunk, len(chunks))
	results := make(chan result, len(chunks))
	for _, c := range chunks {
		tasks <- c
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case chunk, ok := <-tasks:
				if !ok {
					return
				}
				peer, err := peers.Reserve()
				if err != nil {
					// No peer free right now; give the pool a moment and
					// put the chunk back for another worker/retry.
					select {
					case <-time.After(50 * time.Millisecond):
					case <-runCtx.Done():
						return
					}
					tasks <- chunk
					continue
				}
				reqCtx, reqCancel := context.WithTimeout(runCtx, RequestTimeout)
				resp, err := peer.GetHeaders(reqCtx, protocol.GetHeaders{Start: chunk.Start, Count: chunk.Count})
				reqCancel()
				if err != nil || resp == nil || uint64(len(resp.Headers)) != chunk.Count {
					peers.Penalize(peer.ID())
					results <- result{chunk: chunk, err: fmt.Errorf("headers: chunk %d: %w", chunk.Start, errOrShort(err, resp))}
					continue
				}
				peers.Release(peer.ID(), true)
				results <- result{chunk: chunk, headers: resp.Headers, peerID: peer.ID()}
			}
		}
	}

	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	pending := map[uint64]result{}
	next := genesis + 1
	outstanding := len(chunks)
	var firstErr error

	for outstanding > 0 {
		r, ok := <-results
		if !ok {
			break
		}
		if r.err != nil {
			// Re-queue: another worker will retry it against a different
			// peer (the failed one was already penalized above).
			select {
			case tasks <- r.chunk:
			case <-runCtx.Done():
			}
			continue
		}
		outstanding--
		pending[r.chunk.Start] = r

		for {
			done, ok := pending[next]
			if !ok {
				break
			}
			if err := store(done.headers); err != nil {
				firstErr = err
				cancel()
				break
			}
			next += done.chunk.Count
			delete(pending, done.chunk.Start)
		}
		if firstErr != nil {
			break
		}
	}
	// Cancel unblocks every worker's runCtx.Done() select case; tasks is
	// never closed because workers and this coordinator both send on it
	// (re-queueing), and only the last sender may safely close a channel.
	cancel()
	wg.Wait()
	return firstErr
}

func errOrShort(err error, resp *protocol.Headers) error {
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("empty response")
	}
	return fmt.Errorf("short response: got %d headers", len(resp.Headers))
}
