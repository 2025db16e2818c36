package rlp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBasics(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string // hex of canonical geth test-vectors
	}{
		{"zero string", "", "80"},
		{"single byte", "\x00", "00"},
		{"dog", "dog", "83646f67"},
		{"empty list", []string{}, "c0"},
		{"cat dog", []string{"cat", "dog"}, "c88363617483646f67"},
		{"int 0", uint64(0), "80"},
		{"int 15", uint64(15), "0f"},
		{"int 1024", uint64(1024), "820400"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := EncodeToBytes(c.in)
			require.NoError(t, err)
			require.Equal(t, c.want, hexEnc(got))
		})
	}
}

func TestDecodeRoundTripStruct(t *testing.T) {
	type account struct {
		Nonce    uint64
		Balance  *big.Int
		Storage  [32]byte
		CodeHash []byte
	}
	in := account{Nonce: 7, Balance: big.NewInt(1_000_000), CodeHash: []byte{1, 2, 3}}
	enc, err := EncodeToBytes(in)
	require.NoError(t, err)

	var out account
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, in.Nonce, out.Nonce)
	require.Equal(t, in.Balance.String(), out.Balance.String())
	require.Equal(t, in.CodeHash, out.CodeHash)
}

func TestSplitList(t *testing.T) {
	enc, err := EncodeToBytes([]string{"cat", "dog"})
	require.NoError(t, err)
	children, err := SplitList(enc)
	require.NoError(t, err)
	require.Len(t, children, 2)
}

func hexEnc(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0xF]
	}
	return string(out)
}
