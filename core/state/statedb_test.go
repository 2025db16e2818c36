// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/triedb"
)

func newTestStateDB(t *testing.T) *StateDB {
	t.Helper()
	db := NewDatabase(triedb.New(triedb.DefaultConfig()))
	sdb, err := New(common.Hash{}, db)
	require.NoError(t, err)
	return sdb
}

func TestBalanceNonceRoundTrip(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x0102030405060708090a0b0c0d0e0f1011121314")

	sdb.AddBalance(addr, big.NewInt(100))
	require.Equal(t, big.NewInt(100), sdb.GetBalance(addr))

	sdb.SubBalance(addr, big.NewInt(40))
	require.Equal(t, big.NewInt(60), sdb.GetBalance(addr))

	sdb.SetNonce(addr, 7)
	require.Equal(t, uint64(7), sdb.GetNonce(addr))
}

func TestSnapshotRevert(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000abc")

	sdb.SetBalance(addr, big.NewInt(10))
	snap := sdb.Snapshot()
	sdb.AddBalance(addr, big.NewInt(90))
	require.Equal(t, big.NewInt(100), sdb.GetBalance(addr))

	sdb.RevertToSnapshot(snap)
	require.Equal(t, big.NewInt(10), sdb.GetBalance(addr))
}

func TestStorageSetGet(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000def")
	key := common.BytesToHash([]byte("slot"))
	val := common.BytesToHash([]byte("value-stored-in-slot"))

	sdb.SetState(addr, key, val)
	require.Equal(t, val, sdb.GetState(addr, key))

	sdb.SetState(addr, key, common.Hash{})
	require.True(t, sdb.GetState(addr, key).IsZero())
}

func TestIntermediateRootDeterministic(t *testing.T) {
	sdb := newTestStateDB(t)
	a1 := common.HexToAddress("0x0000000000000000000000000000000000aaaa")
	a2 := common.HexToAddress("0x0000000000000000000000000000000000bbbb")
	sdb.SetBalance(a1, big.NewInt(5))
	sdb.SetBalance(a2, big.NewInt(9))
	r1, err := sdb.IntermediateRoot(true)
	require.NoError(t, err)

	sdb2 := newTestStateDB(t)
	sdb2.SetBalance(a2, big.NewInt(9))
	sdb2.SetBalance(a1, big.NewInt(5))
	r2, err := sdb2.IntermediateRoot(true)
	require.NoError(t, err)

	require.Equal(t, r1, r2)
}

func TestSelfDestructRemovesAccountOnCommit(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x0000000000000000000000000000000000cccc")
	sdb.SetBalance(addr, big.NewInt(42))
	sdb.SelfDestruct(addr)
	require.True(t, sdb.HasSelfDestructed(addr))
	require.Equal(t, big.NewInt(0), sdb.GetBalance(addr))

	_, err := sdb.Commit(true)
	require.NoError(t, err)
	require.False(t, sdb.Exist(addr))
}

func TestAccessList(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x0000000000000000000000000000000000eeee")
	slot := common.BytesToHash([]byte("warm-slot"))

	require.False(t, sdb.AddressInAccessList(addr))
	sdb.AddSlotToAccessList(addr, slot)
	addrOk, slotOk := sdb.SlotInAccessList(addr, slot)
	require.True(t, addrOk)
	require.True(t, slotOk)
}
