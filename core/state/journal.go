// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package state

import (
	"math/big"

	"github.com/corechain/execd/common"
)

// journalEntry is one undoable mutation. revert must restore exactly the
// state the mutation overwrote, with no other side effects.
type journalEntry interface {
	revert(*StateDB)
	dirtied() *common.Address
}

type journal struct {
	entries []journalEntry
	dirties map[common.Address]int // address -> number of changes awaiting commit
}

func newJournal() *journal {
	return &journal{dirties: make(map[common.Address]int)}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
	if addr := entry.dirtied(); addr != nil {
		j.dirties[*addr]++
	}
}

// snapshot returns a revert point: the journal length at this instant.
func (j *journal) snapshot() int { return len(j.entries) }

func (j *journal) revertTo(db *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(db)
		if addr := j.entries[i].dirtied(); addr != nil {
			if j.dirties[*addr]--; j.dirties[*addr] == 0 {
				delete(j.dirties, *addr)
			}
		}
	}
	j.entries = j.entries[:snapshot]
}

type (
	createObjectChange struct{ account *common.Address }
	resetObjectChange  struct {
		account *common.Address
		prev    *stateObject
	}
	selfDestructChange struct {
		account     *common.Address
		prev        bool
		prevBalance *big.Int
	}
	balanceChange struct {
		account *common.Address
		prev    *big.Int
	}
	nonceChange struct {
		account *common.Address
		prev    uint64
	}
	codeChange struct {
		account            *common.Address
		prevCode, prevHash []byte
	}
	storageChange struct {
		account      *common.Address
		key, prevalue common.Hash
	}
	refundChange struct{ prev uint64 }
	addLogChange struct{ txhash common.Hash }
	touchChange  struct{ account *common.Address }
	transientStorageChange struct {
		account      *common.Address
		key, prevalue common.Hash
	}
)

func (c createObjectChange) revert(s *StateDB) { delete(s.stateObjects, *c.account) }
func (c createObjectChange) dirtied() *common.Address { return c.account }

func (c resetObjectChange) revert(s *StateDB) { s.setStateObject(c.account, c.prev) }
func (c resetObjectChange) dirtied() *common.Address { return nil }

func (c selfDestructChange) revert(s *StateDB) {
	obj := s.getStateObject(*c.account)
	if obj != nil {
		obj.selfDestructed = c.prev
		obj.setBalance(c.prevBalance)
	}
}
func (c selfDestructChange) dirtied() *common.Address { return c.account }

func (c balanceChange) revert(s *StateDB) { s.getStateObject(*c.account).setBalance(c.prev) }
func (c balanceChange) dirtied() *common.Address       { return c.account }

func (c nonceChange) revert(s *StateDB) { s.getStateObject(*c.account).setNonce(c.prev) }
func (c nonceChange) dirtied() *common.Address   { return c.account }

func (c codeChange) revert(s *StateDB) {
	s.getStateObject(*c.account).setCode(common.BytesToHash(c.prevHash), c.prevCode)
}
func (c codeChange) dirtied() *common.Address { return c.account }

func (c storageChange) revert(s *StateDB) {
	s.getStateObject(*c.account).setState(c.key, c.prevalue)
}
func (c storageChange) dirtied() *common.Address { return c.account }

func (c refundChange) revert(s *StateDB)        { s.refund = c.prev }
func (c refundChange) dirtied() *common.Address { return nil }

func (c addLogChange) revert(s *StateDB) {
	logs := s.logs[c.txhash]
	if len(logs) == 1 {
		delete(s.logs, c.txhash)
	} else {
		s.logs[c.txhash] = logs[:len(logs)-1]
	}
}
func (c addLogChange) dirtied() *common.Address { return nil }

func (c touchChange) revert(s *StateDB)        {}
func (c touchChange) dirtied() *common.Address { return c.account }

func (c transientStorageChange) revert(s *StateDB) {
	s.setTransientState(*c.account, c.key, c.prevalue)
}
func (c transientStorageChange) dirtied() *common.Address { return nil }
