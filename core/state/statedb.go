// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package state

import (
	"math/big"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/trie"
)

// StateDB is the per-block (and, via Snapshot/RevertToSnapshot, per-call-
// frame) mutable view of the world state: the caching layer atop the
// account trie that the EVM interpreter and block executor read and write
// through. Nothing here touches the trie until IntermediateRoot or Commit
// is called, so a block of transactions runs entirely against in-memory
// state objects.
type StateDB struct {
	db       *Database
	worldTrie *trie.SecureTrie

	stateObjects map[common.Address]*stateObject

	// dirtiesInOrder preserves first-touched order for deterministic
	// Commit/IntermediateRoot iteration, independent of map iteration order.
	dirtiesInOrder []common.Address
	dirtySet       mapset.Set[common.Address]

	journal *journal

	refund uint64

	logs    map[common.Hash][]*types.Log
	logSize uint

	thash   common.Hash
	txIndex int

	// EIP-2929/2930 access lists.
	accessedAddresses mapset.Set[common.Address]
	accessedSlots     map[common.Address]mapset.Set[common.Hash]

	// EIP-1153 transient storage: cleared at the end of every transaction,
	// never touches the trie, so it lives here rather than on stateObject.
	transientStorage map[common.Address]map[common.Hash]common.Hash
}

func New(root common.Hash, db *Database) (*StateDB, error) {
	wt, err := db.OpenTrie(root)
	if err != nil {
		return nil, err
	}
	return &StateDB{
		db:                 db,
		worldTrie:          wt,
		stateObjects:       make(map[common.Address]*stateObject),
		dirtySet:           mapset.NewSet[common.Address](),
		journal:            newJournal(),
		logs:               make(map[common.Hash][]*types.Log),
		accessedAddresses:  mapset.NewSet[common.Address](),
		accessedSlots:      make(map[common.Address]mapset.Set[common.Hash]),
		transientStorage:   make(map[common.Address]map[common.Hash]common.Hash),
	}, nil
}

// GetTransientState reads a per-transaction EIP-1153 transient slot.
func (s *StateDB) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	if m, ok := s.transientStorage[addr]; ok {
		return m[key]
	}
	return common.Hash{}
}

func (s *StateDB) setTransientState(addr common.Address, key, value common.Hash) {
	m, ok := s.transientStorage[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		s.transientStorage[addr] = m
	}
	if value.IsZero() {
		delete(m, key)
	} else {
		m[key] = value
	}
}

// SetTransientState writes a per-transaction EIP-1153 transient slot,
// journaled so a call-frame revert undoes it like any other state change.
func (s *StateDB) SetTransientState(addr common.Address, key, value common.Hash) {
	prev := s.GetTransientState(addr, key)
	if prev == value {
		return
	}
	s.journal.append(transientStorageChange{account: &addr, key: key, prevalue: prev})
	s.setTransientState(addr, key, value)
}

// ClearTransientStorage discards all transient storage; Prepare calls this
// before every transaction, so each one starts with none (EIP-1153).
func (s *StateDB) ClearTransientStorage() {
	s.transientStorage = make(map[common.Address]map[common.Hash]common.Hash)
}

func (s *StateDB) markDirty(addr common.Address) {
	if s.dirtySet.Add(addr) {
		s.dirtiesInOrder = append(s.dirtiesInOrder, addr)
	}
}

func (s *StateDB) setStateObject(addr *common.Address, obj *stateObject) {
	if obj == nil {
		delete(s.stateObjects, *addr)
		return
	}
	s.stateObjects[*addr] = obj
}

func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	if obj, ok := s.stateObjects[addr]; ok {
		return obj
	}
	enc, err := s.worldTrie.Get(addr.Bytes())
	if err != nil || len(enc) == 0 {
		return nil
	}
	acct, err := types.DecodeAccountRLP(enc)
	if err != nil {
		return nil
	}
	obj := newStateObject(s, addr, *acct)
	s.stateObjects[addr] = obj
	return obj
}

func (s *StateDB) getOrNewStateObject(addr common.Address) *stateObject {
	if obj := s.getStateObject(addr); obj != nil && !obj.selfDestructed {
		return obj
	}
	return s.createObject(addr)
}

func (s *StateDB) createObject(addr common.Address) *stateObject {
	prev := s.stateObjects[addr]
	obj := newStateObject(s, addr, *types.EmptyStateAccount())
	obj.newContract = true
	if prev == nil {
		s.journal.append(createObjectChange{account: &addr})
	} else {
		s.journal.append(resetObjectChange{account: &addr, prev: prev})
	}
	s.stateObjects[addr] = obj
	s.markDirty(addr)
	return obj
}

// CreateAccount behaves like createObject; exposed for CREATE/CREATE2.
func (s *StateDB) CreateAccount(addr common.Address) { s.createObject(addr) }

func (s *StateDB) Exist(addr common.Address) bool { return s.getStateObject(addr) != nil }

func (s *StateDB) Empty(addr common.Address) bool {
	obj := s.getStateObject(addr)
	return obj == nil || obj.empty()
}

func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Balance()
	}
	return new(big.Int)
}

func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		s.touch(addr)
		return
	}
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{account: &addr, prev: new(big.Int).Set(obj.Balance())})
	obj.setBalance(new(big.Int).Add(obj.Balance(), amount))
	s.markDirty(addr)
}

func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{account: &addr, prev: new(big.Int).Set(obj.Balance())})
	obj.setBalance(new(big.Int).Sub(obj.Balance(), amount))
	s.markDirty(addr)
}

func (s *StateDB) SetBalance(addr common.Address, amount *big.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{account: &addr, prev: new(big.Int).Set(obj.Balance())})
	obj.setBalance(amount)
	s.markDirty(addr)
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.Nonce()
	}
	return 0
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{account: &addr, prev: obj.Nonce()})
	obj.setNonce(nonce)
	s.markDirty(addr)
}

func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return common.BytesToHash(obj.data.CodeHash)
	}
	return common.Hash{}
}

func (s *StateDB) GetCode(addr common.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		code, _ := obj.Code()
		return code
	}
	return nil
}

func (s *StateDB) SetCode(addr common.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	hash := common.Keccak256Hash(code)
	s.journal.append(codeChange{account: &addr, prevCode: obj.code, prevHash: obj.data.CodeHash})
	obj.setCode(hash, code)
	s.db.PutContractCode(hash, code)
	s.markDirty(addr)
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return common.Hash{}
	}
	v, err := obj.GetState(key)
	if err != nil {
		return common.Hash{}
	}
	return v
}

func (s *StateDB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return common.Hash{}
	}
	v, err := obj.GetCommittedState(key)
	if err != nil {
		return common.Hash{}
	}
	return v
}

func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	obj := s.getOrNewStateObject(addr)
	prev, _ := obj.GetState(key)
	if prev == value {
		return
	}
	s.journal.append(storageChange{account: &addr, key: key, prevalue: prev})
	obj.setState(key, value)
	s.markDirty(addr)
}

// SelfDestruct marks addr for removal at end of transaction (EIP-6780: only
// actually deletes the account if it was created earlier in this same
// transaction — callers implementing that check inspect newContract).
func (s *StateDB) SelfDestruct(addr common.Address) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return
	}
	s.journal.append(selfDestructChange{account: &addr, prev: obj.selfDestructed, prevBalance: new(big.Int).Set(obj.Balance())})
	obj.selfDestructed = true
	obj.setBalance(new(big.Int))
	s.markDirty(addr)
}

func (s *StateDB) HasSelfDestructed(addr common.Address) bool {
	obj := s.getStateObject(addr)
	return obj != nil && obj.selfDestructed
}

func (s *StateDB) touch(addr common.Address) {
	s.journal.append(touchChange{account: &addr})
	s.markDirty(addr)
}

// Snapshot/RevertToSnapshot back call-frame reverts (CALL/CREATE failure,
// REVERT opcode) without discarding the whole transaction's state.
func (s *StateDB) Snapshot() int { return s.journal.snapshot() }

func (s *StateDB) RevertToSnapshot(id int) { s.journal.revertTo(s, id) }

// Refund accounting (SSTORE gas refunds, EIP-3529 capped at gasUsed/5).
func (s *StateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *StateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		panic("state: refund counter below zero")
	}
	s.refund -= gas
}

func (s *StateDB) GetRefund() uint64 { return s.refund }

// SetTxContext records the pending transaction's hash/index, consumed by
// AddLog to stamp each log entry before the receipts are assembled.
func (s *StateDB) SetTxContext(thash common.Hash, ti int) {
	s.thash = thash
	s.txIndex = ti
}

func (s *StateDB) AddLog(log *types.Log) {
	log.TxHash = s.thash
	log.TxIndex = uint(s.txIndex)
	log.Index = s.logSize
	s.logs[s.thash] = append(s.logs[s.thash], log)
	s.logSize++
	s.journal.append(addLogChange{txhash: s.thash})
}

func (s *StateDB) GetLogs(txhash common.Hash) []*types.Log { return s.logs[txhash] }

// Prepare resets the per-transaction access list and transient storage and
// records the new transaction's hash/index, called by the block executor
// immediately before running each transaction (EIP-2929/1153 scope is one
// transaction, never the whole block).
func (s *StateDB) Prepare(thash common.Hash, ti int) {
	s.SetTxContext(thash, ti)
	s.accessedAddresses = mapset.NewSet[common.Address]()
	s.accessedSlots = make(map[common.Address]mapset.Set[common.Hash])
	s.ClearTransientStorage()
	s.refund = 0
}

// AddAddressToAccessList / AddSlotToAccessList implement EIP-2929/2930 warm
// tracking; AddressInAccessList/SlotInAccessList are the gas-metering
// lookups the EVM interpreter calls before every external address touch.
func (s *StateDB) AddAddressToAccessList(addr common.Address) { s.accessedAddresses.Add(addr) }

func (s *StateDB) AddressInAccessList(addr common.Address) bool {
	return s.accessedAddresses.Contains(addr)
}

func (s *StateDB) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	s.accessedAddresses.Add(addr)
	set, ok := s.accessedSlots[addr]
	if !ok {
		set = mapset.NewSet[common.Hash]()
		s.accessedSlots[addr] = set
	}
	set.Add(slot)
}

func (s *StateDB) SlotInAccessList(addr common.Address, slot common.Hash) (addrOk, slotOk bool) {
	addrOk = s.accessedAddresses.Contains(addr)
	set, ok := s.accessedSlots[addr]
	if !ok {
		return addrOk, false
	}
	return addrOk, set.Contains(slot)
}

// DirtyAccount is a snapshot of one account's accumulated changes within
// the StateDB's current dirty window.
type DirtyAccount struct {
	Address      common.Address
	Destroyed    bool
	Balance      *big.Int
	Nonce        uint64
	Code         []byte
	CodeHash     []byte
	DirtyStorage map[common.Hash]common.Hash
}

// SnapshotDirty captures every account touched since the StateDB was
// opened (or since the last IntermediateRoot/Commit cleared the dirty
// window), in first-touched order. Must be called before
// IntermediateRoot, which both finalises and clears that window — the
// block executor calls this once per block so the L2 State Updater can
// hand the snapshot to a batch's state-diff encoder without re-deriving
// it from a trie comparison.
func (s *StateDB) SnapshotDirty() []DirtyAccount {
	out := make([]DirtyAccount, 0, len(s.dirtiesInOrder))
	for _, addr := range s.dirtiesInOrder {
		obj, ok := s.stateObjects[addr]
		if !ok {
			out = append(out, DirtyAccount{Address: addr, Destroyed: true})
			continue
		}
		storage := make(map[common.Hash]common.Hash, len(obj.dirtyStorage))
		for k, v := range obj.dirtyStorage {
			storage[k] = v
		}
		out = append(out, DirtyAccount{
			Address:      addr,
			Destroyed:    obj.selfDestructed,
			Balance:      new(big.Int).Set(obj.data.Balance),
			Nonce:        obj.data.Nonce,
			Code:         obj.code,
			CodeHash:     obj.data.CodeHash,
			DirtyStorage: storage,
		})
	}
	return out
}

// IntermediateRoot finalises every dirty account's storage trie, writes its
// account RLP into the world trie, and returns the resulting root without
// persisting anything — the root a block header's StateRoot needs mid-
// execution.
func (s *StateDB) IntermediateRoot(deleteEmptyObjects bool) (common.Hash, error) {
	dirty := make([]common.Address, len(s.dirtiesInOrder))
	copy(dirty, s.dirtiesInOrder)
	sort.Slice(dirty, func(i, j int) bool { return dirty[i].Cmp(dirty[j]) < 0 })

	for _, addr := range dirty {
		obj, ok := s.stateObjects[addr]
		if !ok {
			continue
		}
		if obj.selfDestructed || (deleteEmptyObjects && obj.empty()) {
			if err := s.worldTrie.Delete(addr.Bytes()); err != nil {
				return common.Hash{}, err
			}
			delete(s.stateObjects, addr)
			continue
		}
		if err := obj.finaliseStorage(); err != nil {
			return common.Hash{}, err
		}
		enc, err := obj.data.EncodeRLP()
		if err != nil {
			return common.Hash{}, err
		}
		if err := s.worldTrie.Put(addr.Bytes(), enc); err != nil {
			return common.Hash{}, err
		}
	}
	s.dirtiesInOrder = nil
	s.dirtySet = mapset.NewSet[common.Address]()
	return s.worldTrie.Hash(), nil
}

// Commit finalises pending changes (as IntermediateRoot does) and persists
// every touched trie node into the backing triedb.Database.
func (s *StateDB) Commit(deleteEmptyObjects bool) (common.Hash, error) {
	if _, err := s.IntermediateRoot(deleteEmptyObjects); err != nil {
		return common.Hash{}, err
	}
	return s.worldTrie.Commit()
}

// Copy returns a StateDB sharing the same backing Database, with its own
// object cache, journal, logs and access lists. The world trie is shared,
// not copied: an IntermediateRoot or Commit on either one changes what the
// other reads for accounts it has not cached.
func (s *StateDB) Copy() *StateDB {
	cp := &StateDB{
		db:                s.db,
		worldTrie:         s.worldTrie,
		stateObjects:      make(map[common.Address]*stateObject, len(s.stateObjects)),
		dirtySet:          mapset.NewSet[common.Address](),
		journal:           newJournal(),
		logs:              make(map[common.Hash][]*types.Log),
		accessedAddresses: mapset.NewSet[common.Address](),
		accessedSlots:     make(map[common.Address]mapset.Set[common.Hash]),
		transientStorage:  make(map[common.Address]map[common.Hash]common.Hash),
	}
	for addr, obj := range s.stateObjects {
		cp.stateObjects[addr] = obj.deepCopy(cp)
	}
	return cp
}
