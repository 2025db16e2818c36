package types

import (
	"fmt"
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// DecodeTransactionRLP parses a single transaction from its canonical
// binary form (the same bytes tx.MarshalBinary produces): a bare RLP list
// for legacy transactions, or a type byte followed by an RLP list for
// every typed transaction this module defines. Field-by-field, matching
// the hand-rolled EncodeRLP methods above rather than a reflection-based
// decoder, since only these three fixed shapes ever need to round-trip.
func DecodeTransactionRLP(enc []byte) (*Transaction, error) {
	if len(enc) == 0 {
		return nil, rlp.ErrUnexpectedEOF
	}
	if enc[0] >= 0xc0 {
		item, n, err := rlp.Decode(enc)
		if err != nil {
			return nil, err
		}
		if n != len(enc) {
			return nil, fmt.Errorf("rlp: %d trailing bytes", len(enc)-n)
		}
		inner, err := decodeLegacyItem(item)
		if err != nil {
			return nil, err
		}
		return &Transaction{inner: inner}, nil
	}

	typ := enc[0]
	item, n, err := rlp.Decode(enc[1:])
	if err != nil {
		return nil, err
	}
	if n != len(enc)-1 {
		return nil, fmt.Errorf("rlp: %d trailing bytes", len(enc)-1-n)
	}
	var inner TxData
	switch typ {
	case DynamicFeeTxType:
		inner, err = decodeDynamicFeeItem(item)
	case PrivilegedL2TxType:
		inner, err = decodePrivilegedItem(item)
	default:
		return nil, ErrTxTypeNotSupported
	}
	if err != nil {
		return nil, err
	}
	return &Transaction{inner: inner}, nil
}

// DecodeTransactionFromItem builds a Transaction from an already-decoded
// RLP Item: a list for a legacy transaction, or a byte string (type byte
// followed by the payload's RLP encoding) for any typed transaction — the
// shape each entry of a flat transactions list naturally decodes into.
func DecodeTransactionFromItem(item rlp.Item) (*Transaction, error) {
	if item.IsList {
		inner, err := decodeLegacyItem(item)
		if err != nil {
			return nil, err
		}
		return &Transaction{inner: inner}, nil
	}
	return DecodeTransactionRLP(item.Bytes)
}

func decodeLegacyItem(item rlp.Item) (TxData, error) {
	if !item.IsList || len(item.List) != 9 {
		return nil, fmt.Errorf("rlp: legacy transaction expects 9 fields, got %d", len(item.List))
	}
	f := item.List
	return &LegacyTx{
		Nonce:    bigFromItem(f[0]).Uint64(),
		GasPrice: bigFromItem(f[1]),
		Gas:      bigFromItem(f[2]).Uint64(),
		To:       addrFromItem(f[3]),
		Value:    bigFromItem(f[4]),
		Data:     append([]byte(nil), f[5].Bytes...),
		V:        bigFromItem(f[6]),
		R:        bigFromItem(f[7]),
		S:        bigFromItem(f[8]),
	}, nil
}

// decodeDynamicFeeItem expects the 12-field order DynamicFeeTx.EncodeRLP
// writes: ChainID, Nonce, GasTipCap, GasFeeCap, Gas, To, Value, Data,
// AccessList, V, R, S.
func decodeDynamicFeeItem(item rlp.Item) (TxData, error) {
	if !item.IsList || len(item.List) != 12 {
		return nil, fmt.Errorf("rlp: dynamic fee transaction expects 12 fields, got %d", len(item.List))
	}
	f := item.List
	al, err := accessListFromItem(f[8])
	if err != nil {
		return nil, err
	}
	return &DynamicFeeTx{
		ChainID:    bigFromItem(f[0]),
		Nonce:      bigFromItem(f[1]).Uint64(),
		GasTipCap:  bigFromItem(f[2]),
		GasFeeCap:  bigFromItem(f[3]),
		Gas:        bigFromItem(f[4]).Uint64(),
		To:         addrFromItem(f[5]),
		Value:      bigFromItem(f[6]),
		Data:       append([]byte(nil), f[7].Bytes...),
		AccessList: al,
		V:          bigFromItem(f[9]),
		R:          bigFromItem(f[10]),
		S:          bigFromItem(f[11]),
	}, nil
}

// decodePrivilegedItem expects the 8-field order PrivilegedL2Tx.EncodeRLP
// writes: ChainID, From, Nonce, Gas, To, Value, Data, L1TxHash.
func decodePrivilegedItem(item rlp.Item) (TxData, error) {
	if !item.IsList || len(item.List) != 8 {
		return nil, fmt.Errorf("rlp: privileged transaction expects 8 fields, got %d", len(item.List))
	}
	f := item.List
	return &PrivilegedL2Tx{
		ChainID:  bigFromItem(f[0]),
		From:     common.BytesToAddress(f[1].Bytes),
		Nonce:    bigFromItem(f[2]).Uint64(),
		Gas:      bigFromItem(f[3]).Uint64(),
		To:       addrFromItem(f[4]),
		Value:    bigFromItem(f[5]),
		Data:     append([]byte(nil), f[6].Bytes...),
		L1TxHash: common.BytesToHash(f[7].Bytes),
	}, nil
}

func bigFromItem(it rlp.Item) *big.Int {
	if len(it.Bytes) == 0 {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(it.Bytes)
}

func addrFromItem(it rlp.Item) *common.Address {
	if len(it.Bytes) == 0 {
		return nil
	}
	a := common.BytesToAddress(it.Bytes)
	return &a
}

func accessListFromItem(it rlp.Item) (AccessList, error) {
	if !it.IsList {
		return nil, rlp.ErrExpectedList
	}
	al := make(AccessList, 0, len(it.List))
	for _, tupleItem := range it.List {
		if !tupleItem.IsList || len(tupleItem.List) != 2 {
			return nil, fmt.Errorf("rlp: access list tuple expects 2 fields")
		}
		addr := common.BytesToAddress(tupleItem.List[0].Bytes)
		keysItem := tupleItem.List[1]
		if !keysItem.IsList {
			return nil, rlp.ErrExpectedList
		}
		keys := make([]common.Hash, 0, len(keysItem.List))
		for _, k := range keysItem.List {
			keys = append(keys, common.BytesToHash(k.Bytes))
		}
		al = append(al, AccessTuple{Address: addr, StorageKeys: keys})
	}
	return al, nil
}
