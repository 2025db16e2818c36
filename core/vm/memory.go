// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import "github.com/holiman/uint256"

// Memory is the byte-addressed, word-growing scratch space a call frame
// owns. Growth is always to a whole number of 32-byte words, matching the
// EVM's memory-expansion gas model.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

func newMemory() *Memory { return &Memory{} }

// Resize grows the memory to size bytes (rounded up by the caller to a
// word boundary via roundUpWord) if it is not already that large.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Set writes value into the memory region [offset, offset+len(value)).
// Caller must have already resized memory to cover the region.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("memory: write out of bounds")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val, left-padded to 32 bytes, at offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("memory: write out of bounds")
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

func (m *Memory) GetCopy(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	if len(m.store) > int(offset) {
		cpy := make([]byte, size)
		copy(cpy, m.store[offset:])
		return cpy
	}
	return make([]byte, size)
}

// GetPtr returns a slice aliasing memory, valid only until the next Resize.
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

func (m *Memory) Len() int { return len(m.store) }

func (m *Memory) Data() []byte { return m.store }

// toWordSize rounds a byte size up to the next 32-byte word count.
func toWordSize(size uint64) uint64 {
	if size > (1<<64-31)/1 {
		return (1<<64 - 1) / 32
	}
	return (size + 31) / 32
}
