// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package block

import (
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/errs"
	"github.com/corechain/execd/rlp"
)

// Sender recovers the address that authorised tx: ecrecover against the
// type-specific signing hash for every signed type, or the carried From
// field for a privileged L2 transaction (authenticated by the L1 bridge,
// never by a signature).
func Sender(tx *types.Transaction, chainID *big.Int) (common.Address, error) {
	if tx.IsPrivileged() {
		v, r, s := tx.RawSignatureValues()
		if v != nil || r != nil || s != nil {
			return common.Address{}, errs.ErrPrivilegedTxMustBeUnsigned
		}
		return tx.PrivilegedFrom(), nil
	}

	v, r, s := tx.RawSignatureValues()
	if r == nil || s == nil || v == nil || r.Sign() == 0 || s.Sign() == 0 {
		return common.Address{}, errs.ErrSenderNoEOA
	}

	var (
		hash  common.Hash
		recID byte
	)
	switch tx.Type() {
	case types.LegacyTxType:
		h, rid, err := legacySigningHash(tx, v, chainID)
		if err != nil {
			return common.Address{}, err
		}
		hash, recID = h, rid
	case types.AccessListTxType, types.DynamicFeeTxType:
		h, err := typedSigningHash(tx)
		if err != nil {
			return common.Address{}, err
		}
		if v.BitLen() > 8 {
			return common.Address{}, errors.New("block: invalid typed-tx recovery id")
		}
		hash, recID = h, byte(v.Uint64())
	default:
		return common.Address{}, types.ErrTxTypeNotSupported
	}
	if recID > 1 {
		return common.Address{}, errors.New("block: invalid recovery id")
	}

	sig := make([]byte, 65)
	sig[0] = 27 + recID
	copy(sig[1:33], r.FillBytes(make([]byte, 32)))
	copy(sig[33:65], s.FillBytes(make([]byte, 32)))

	pub, _, err := secp256k1.RecoverCompact(sig, hash.Bytes())
	if err != nil || pub == nil {
		return common.Address{}, errs.ErrInvalidSig
	}
	pubBytes := pub.SerializeUncompressed()
	addrHash := common.Keccak256(pubBytes[1:])
	return common.BytesToAddress(addrHash[12:]), nil
}

// legacySigningHash returns the pre-signature hash and recovery id for a
// legacy transaction, handling both the Homestead plain-27/28 encoding and
// the EIP-155 chain-replay-protected encoding.
func legacySigningHash(tx *types.Transaction, v *big.Int, chainID *big.Int) (common.Hash, byte, error) {
	if v.BitLen() <= 8 && (v.Uint64() == 27 || v.Uint64() == 28) {
		h, err := legacyUnprotectedHash(tx)
		return h, byte(v.Uint64() - 27), err
	}
	// EIP-155: v = chainId*2 + 35 + {0,1}
	vv := new(big.Int).Sub(v, big.NewInt(35))
	rid := byte(new(big.Int).And(vv, big.NewInt(1)).Uint64())
	derivedChainID := new(big.Int).Rsh(vv, 1)
	if chainID != nil && chainID.Sign() != 0 && derivedChainID.Cmp(chainID) != 0 {
		return common.Hash{}, 0, errors.New("block: transaction chain id mismatch")
	}
	h, err := eip155Hash(tx, derivedChainID)
	return h, rid, err
}

func legacyUnprotectedHash(tx *types.Transaction) (common.Hash, error) {
	l := rlp.NewList().Add(tx.Nonce()).Add(zeroIfNil(tx.GasFeeCap())).Add(tx.Gas())
	addTo(l, tx.To())
	l.Add(zeroIfNil(tx.Value())).Add(tx.Data())
	payload, err := l.Bytes()
	if err != nil {
		return common.Hash{}, err
	}
	return common.Keccak256Hash(payload), nil
}

func eip155Hash(tx *types.Transaction, chainID *big.Int) (common.Hash, error) {
	l := rlp.NewList().Add(tx.Nonce()).Add(zeroIfNil(tx.GasFeeCap())).Add(tx.Gas())
	addTo(l, tx.To())
	l.Add(zeroIfNil(tx.Value())).Add(tx.Data()).
		Add(zeroIfNil(chainID)).Add(uint64(0)).Add(uint64(0))
	payload, err := l.Bytes()
	if err != nil {
		return common.Hash{}, err
	}
	return common.Keccak256Hash(payload), nil
}

// typedSigningHash covers EIP-2930/1559: keccak256(type || rlp(fields-
// without-signature)). Field order matches each type's EncodeRLP minus the
// trailing v,r,s.
func typedSigningHash(tx *types.Transaction) (common.Hash, error) {
	var l *rlp.ListEncoder
	switch tx.Type() {
	case types.AccessListTxType:
		l = rlp.NewList().Add(zeroIfNil(tx.ChainId())).Add(tx.Nonce()).Add(zeroIfNil(tx.GasFeeCap())).Add(tx.Gas())
		addTo(l, tx.To())
		l.Add(zeroIfNil(tx.Value())).Add(tx.Data()).Add(encodeAccessListForSig(tx.AccessList()))
	case types.DynamicFeeTxType:
		l = rlp.NewList().Add(zeroIfNil(tx.ChainId())).Add(tx.Nonce()).
			Add(zeroIfNil(tx.GasTipCap())).Add(zeroIfNil(tx.GasFeeCap())).Add(tx.Gas())
		addTo(l, tx.To())
		l.Add(zeroIfNil(tx.Value())).Add(tx.Data()).Add(encodeAccessListForSig(tx.AccessList()))
	default:
		return common.Hash{}, types.ErrTxTypeNotSupported
	}
	payload, err := l.Bytes()
	if err != nil {
		return common.Hash{}, err
	}
	return common.Keccak256Hash(append([]byte{tx.Type()}, payload...)), nil
}

func encodeAccessListForSig(al types.AccessList) [][2]interface{} {
	out := make([][2]interface{}, 0, len(al))
	for _, tuple := range al {
		out = append(out, [2]interface{}{tuple.Address, tuple.StorageKeys})
	}
	return out
}

func addTo(l *rlp.ListEncoder, to *common.Address) {
	if to == nil {
		l.Add([]byte(nil))
		return
	}
	l.Add(*to)
}

func zeroIfNil(b *big.Int) big.Int {
	if b == nil {
		return *new(big.Int)
	}
	return *b
}
