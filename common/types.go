// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.
//
// Package common defines the byte-string fixed-size types shared across the
// whole module: addresses, hashes, and their hex/JSON marshaling.
package common

import (
	"encoding/hex"
	"math/big"
)

const (
	// HashLength is the expected length of the keccak256 hash.
	HashLength = 32
	// AddressLength is the expected length of an Ethereum account address.
	AddressLength = 20
)

// Hash represents the 32-byte keccak256 hash of arbitrary data.
type Hash [HashLength]byte

// BytesToHash sets b to hash. If b is larger than len(h), b is cropped from
// the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash parses a hex string into a Hash, ignoring an optional 0x prefix.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// SetBytes sets the hash to the value of b, left-padding or truncating as
// needed.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) Hex() string    { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) String() string { return h.Hex() }
func (h Hash) IsZero() bool   { return h == Hash{} }

func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// Cmp orders hashes byte-lexicographically; used for range-proof bounds and
// sorted temp-file keys.
func (h Hash) Cmp(o Hash) int {
	for i := range h {
		if h[i] != o[i] {
			if h[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }
func (h *Hash) UnmarshalText(input []byte) error {
	h.SetBytes(FromHex(string(input)))
	return nil
}

// Address represents the 20-byte Ethereum account address.
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Hex() string    { return "0x" + hex.EncodeToString(a[:]) }
func (a Address) String() string { return a.Hex() }
func (a Address) IsZero() bool   { return a == Address{} }

// Cmp orders addresses byte-lexicographically, used to make StateDB's
// dirty-account iteration deterministic regardless of map order.
func (a Address) Cmp(o Address) int {
	for i := range a {
		if a[i] != o[i] {
			if a[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }
func (a *Address) UnmarshalText(input []byte) error {
	a.SetBytes(FromHex(string(input)))
	return nil
}

// FromHex decodes a hex string that may carry a 0x/0X prefix and may have an
// odd number of digits (left-padded with a zero nibble), matching the
// leniency go-ethereum's common.FromHex affords CLI and test inputs.
func FromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Bytes2Hex and Hex2Bytes mirror go-ethereum's common helpers used pervasively
// for log formatting and fixture loading.
func Bytes2Hex(b []byte) string { return hex.EncodeToString(b) }
func Hex2Bytes(s string) []byte {
	b, _ := hex.DecodeString(s)
	return b
}

// CopyBytes returns an independent copy of b.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// IsHexAddress reports whether s is a syntactically valid hex address.
func IsHexAddress(s string) bool {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s) != 2*AddressLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
