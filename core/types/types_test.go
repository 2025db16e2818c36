package types

import (
	"math/big"
	"testing"

	"github.com/corechain/execd/common"
	"github.com/stretchr/testify/require"
)

func TestAccountEmptiness(t *testing.T) {
	a := EmptyStateAccount()
	require.True(t, a.IsEmpty())
	a.Nonce = 1
	require.False(t, a.IsEmpty())
}

func TestAccountRLPRoundTrip(t *testing.T) {
	a := &StateAccount{Nonce: 3, Balance: big.NewInt(42), StorageRoot: common.KeccakEmptyTrie, CodeHash: common.KeccakEmpty.Bytes()}
	enc, err := a.EncodeRLP()
	require.NoError(t, err)
	got, err := DecodeAccountRLP(enc)
	require.NoError(t, err)
	require.Equal(t, a.Nonce, got.Nonce)
	require.Equal(t, a.Balance.String(), got.Balance.String())
	require.Equal(t, a.StorageRoot, got.StorageRoot)
}

func TestEmptyBlockGenesis(t *testing.T) {
	// Seed scenario A: an empty body's receipts trie resolves to the
	// canonical empty-trie root 0x56e81f...b421; this checks that
	// common.KeccakEmptyTrie holds exactly that value.
	want := common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")
	require.Equal(t, want, common.KeccakEmptyTrie)
}

func TestDynamicFeeTxHashDeterministic(t *testing.T) {
	tx := NewTx(&DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     0,
		GasTipCap: big.NewInt(0),
		GasFeeCap: big.NewInt(1_000_000_000),
		Gas:       21000,
		Value:     big.NewInt(1),
		V:         big.NewInt(0),
		R:         big.NewInt(1),
		S:         big.NewInt(1),
	})
	h1 := tx.Hash()
	h2 := tx.Hash()
	require.Equal(t, h1, h2)
}

func TestPrivilegedTxHasNoSignature(t *testing.T) {
	tx := NewTx(&PrivilegedL2Tx{ChainID: big.NewInt(1), Value: big.NewInt(1)})
	require.True(t, tx.IsPrivileged())
	v, r, s := tx.RawSignatureValues()
	require.Nil(t, v)
	require.Nil(t, r)
	require.Nil(t, s)
}

func TestEffectiveGasTipCapsAtHeadroom(t *testing.T) {
	tx := NewTx(&DynamicFeeTx{
		ChainID: big.NewInt(1), GasTipCap: big.NewInt(5), GasFeeCap: big.NewInt(10),
	})
	tip, err := tx.EffectiveGasTip(big.NewInt(8))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(2), tip) // headroom = 10-8 = 2 < tipcap 5
}
