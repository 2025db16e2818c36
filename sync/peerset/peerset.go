// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package peerset tracks the snap-sync peer pool each downloader stage
// reserves sessions from: a peer is checked out for the duration of one
// request and released afterward, with a score penalty applied on
// timeout or protocol error so repeatedly failing peers drop to the
// back of the selection order.
package peerset

import (
	"errors"
	"sort"
	"sync"

	"github.com/corechain/execd/sync/protocol"
)

// ErrNoPeers is returned when every known peer is either reserved or has
// been penalized out of consideration.
var ErrNoPeers = errors.New("peerset: no peer available")

const (
	// initialScore is every newly-added peer's starting score.
	initialScore = 100
	// minScore: a peer whose score falls to it after repeated failures
	// is excluded from Reserve. Only a reserved peer can earn
	// rewardOnSuccess and Add keeps a known peer's score, so it stays
	// excluded while it remains in the set.
	minScore = 0
	penaltyOnFailure = 20
	rewardOnSuccess  = 5
	maxScore         = 100
)

type entry struct {
	peer     protocol.Peer
	score    int
	reserved bool
}

// Set is a concurrency-safe pool of snap-sync peers.
type Set struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Set {
	return &Set{entries: make(map[string]*entry)}
}

// Add registers a peer, or replaces the stored handle of an already known
// peer, keeping its score and reservation.
func (s *Set) Add(p protocol.Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[p.ID()]; ok {
		e.peer = p
		return
	}
	s.entries[p.ID()] = &entry{peer: p, score: initialScore}
}

// Remove drops a peer entirely, e.g. on disconnect.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Len returns the number of known peers, reserved or not.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reserve checks out the highest-scoring unreserved peer with score
// above minScore. Callers must call Release when done with it.
func (s *Set) Reserve() (protocol.Peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*entry
	for _, e := range s.entries {
		if !e.reserved && e.score > minScore {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoPeers
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	best := candidates[0]
	best.reserved = true
	return best.peer, nil
}

// Release returns a peer to the pool, optionally rewarding it for a
// successful request.
func (s *Set) Release(id string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.reserved = false
	if success {
		e.score += rewardOnSuccess
		if e.score > maxScore {
			e.score = maxScore
		}
	}
}

// Penalize lowers a peer's score after a timeout or protocol violation.
func (s *Set) Penalize(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.reserved = false
	e.score -= penaltyOnFailure
	if e.score < minScore {
		e.score = minScore
	}
}
