// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package state

import (
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/trie"
)

// stateObject is the live, mutable view of one account: its StateAccount
// fields plus any storage slots touched so far this block. Storage reads
// populate originStorage (the trie value at block start); writes populate
// dirtyStorage, so IntermediateRoot/Commit only need to walk what actually
// changed.
type stateObject struct {
	address common.Address
	data    types.StateAccount

	db *StateDB

	storageTrie *trie.SecureTrie // lazily opened
	code        []byte           // lazily loaded contract bytecode

	originStorage map[common.Hash]common.Hash
	dirtyStorage  map[common.Hash]common.Hash

	selfDestructed bool
	newContract    bool // created earlier in this same state (affects EIP-6780 self-destruct semantics)
}

func newStateObject(db *StateDB, addr common.Address, data types.StateAccount) *stateObject {
	return &stateObject{
		db:            db,
		address:       addr,
		data:          data,
		originStorage: make(map[common.Hash]common.Hash),
		dirtyStorage:  make(map[common.Hash]common.Hash),
	}
}

func (s *stateObject) empty() bool { return s.data.IsEmpty() }

func (s *stateObject) Balance() *big.Int { return s.data.Balance }
func (s *stateObject) Nonce() uint64     { return s.data.Nonce }

func (s *stateObject) setBalance(amount *big.Int) { s.data.Balance = amount }
func (s *stateObject) setNonce(nonce uint64)       { s.data.Nonce = nonce }

func (s *stateObject) Code() ([]byte, error) {
	if s.code != nil {
		return s.code, nil
	}
	if len(s.data.CodeHash) == 0 || common.BytesToHash(s.data.CodeHash) == common.KeccakEmpty {
		return nil, nil
	}
	code, ok := s.db.db.ContractCode(common.BytesToHash(s.data.CodeHash))
	if !ok {
		return nil, &trie.MissingNodeError{NodeHash: common.BytesToHash(s.data.CodeHash)}
	}
	s.code = code
	return code, nil
}

func (s *stateObject) setCode(codeHash common.Hash, code []byte) {
	s.code = code
	s.data.CodeHash = codeHash.Bytes()
}

func (s *stateObject) openStorageTrie() (*trie.SecureTrie, error) {
	if s.storageTrie != nil {
		return s.storageTrie, nil
	}
	t, err := s.db.db.OpenStorageTrie(s.data.StorageRoot)
	if err != nil {
		return nil, err
	}
	s.storageTrie = t
	return t, nil
}

// GetState returns the current (dirty-aware) value at key.
func (s *stateObject) GetState(key common.Hash) (common.Hash, error) {
	if v, dirty := s.dirtyStorage[key]; dirty {
		return v, nil
	}
	return s.GetCommittedState(key)
}

// GetCommittedState returns the value as of the start of this state's life
// (ignores any pending dirty write), used by SSTORE gas-refund accounting.
func (s *stateObject) GetCommittedState(key common.Hash) (common.Hash, error) {
	if v, ok := s.originStorage[key]; ok {
		return v, nil
	}
	t, err := s.openStorageTrie()
	if err != nil {
		return common.Hash{}, err
	}
	enc, err := t.Get(key.Bytes())
	if err != nil {
		return common.Hash{}, err
	}
	var v common.Hash
	if len(enc) > 0 {
		v = common.BytesToHash(enc)
	}
	s.originStorage[key] = v
	return v, nil
}

func (s *stateObject) setState(key, value common.Hash) {
	s.dirtyStorage[key] = value
}

// finaliseStorage writes every dirty slot into the storage trie and
// refreshes the account's StorageRoot. Called by StateDB.IntermediateRoot.
func (s *stateObject) finaliseStorage() error {
	if len(s.dirtyStorage) == 0 {
		return nil
	}
	t, err := s.openStorageTrie()
	if err != nil {
		return err
	}
	for k, v := range s.dirtyStorage {
		if v.IsZero() {
			if err := t.Delete(k.Bytes()); err != nil {
				return err
			}
		} else {
			if err := t.Put(k.Bytes(), v.Bytes()); err != nil {
				return err
			}
		}
		s.originStorage[k] = v
	}
	s.dirtyStorage = make(map[common.Hash]common.Hash)
	root, err := t.Commit()
	if err != nil {
		return err
	}
	s.data.StorageRoot = root
	return nil
}

func (s *stateObject) deepCopy(db *StateDB) *stateObject {
	cp := &stateObject{
		db:             db,
		address:        s.address,
		data:           *s.data.Copy(),
		code:           s.code,
		originStorage:  make(map[common.Hash]common.Hash, len(s.originStorage)),
		dirtyStorage:   make(map[common.Hash]common.Hash, len(s.dirtyStorage)),
		selfDestructed: s.selfDestructed,
		newContract:    s.newContract,
	}
	for k, v := range s.originStorage {
		cp.originStorage[k] = v
	}
	for k, v := range s.dirtyStorage {
		cp.dirtyStorage[k] = v
	}
	return cp
}
