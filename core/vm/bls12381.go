// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	blst "github.com/supranational/blst/bindings/go"

	"github.com/corechain/execd/internal/errs"
)

// BLS12-381 precompiles (EIP-2537, Prague), grounded on supranational/blst:
// encode/decode follow the EIP's padded 64-byte/128-byte field-element
// layout; point addition and scalar multiplication call straight through to
// blst's group operations. MultiExp is implemented as repeated scalar-mul
// plus accumulation rather than blst's batched Pippenger path — correct,
// not the fastest available, and noted in DESIGN.md as a simplification.

const (
	bls381FpSize   = 64
	bls381G1Size   = 2 * bls381FpSize
	bls381G2Size   = 4 * bls381FpSize
	bls381ScalarSz = 32
)

func fpFromPadded(b []byte) []byte {
	// EIP-2537 pads every 48-byte base field element to 64 bytes.
	if len(b) != bls381FpSize {
		return nil
	}
	return b[16:]
}

func padFp(b []byte) []byte {
	out := make([]byte, bls381FpSize)
	copy(out[16:], b)
	return out
}

func decodeG1(b []byte) (*blst.P1Affine, bool) {
	if len(b) != bls381G1Size {
		return nil, false
	}
	x := fpFromPadded(b[:bls381FpSize])
	y := fpFromPadded(b[bls381FpSize:])
	if x == nil || y == nil {
		return nil, false
	}
	raw := append(append([]byte{}, x...), y...)
	p := new(blst.P1Affine).Deserialize(raw)
	return p, p != nil
}

func encodeG1(p *blst.P1Affine) []byte {
	raw := p.Serialize()
	out := make([]byte, bls381G1Size)
	copy(out[:bls381FpSize], padFp(raw[:48]))
	copy(out[bls381FpSize:], padFp(raw[48:]))
	return out
}

func decodeG2(b []byte) (*blst.P2Affine, bool) {
	if len(b) != bls381G2Size {
		return nil, false
	}
	var raw []byte
	for i := 0; i < 4; i++ {
		part := fpFromPadded(b[i*bls381FpSize : (i+1)*bls381FpSize])
		if part == nil {
			return nil, false
		}
		raw = append(raw, part...)
	}
	p := new(blst.P2Affine).Deserialize(raw)
	return p, p != nil
}

func encodeG2(p *blst.P2Affine) []byte {
	raw := p.Serialize()
	out := make([]byte, bls381G2Size)
	for i := 0; i < 4; i++ {
		copy(out[i*bls381FpSize:], padFp(raw[i*48:(i+1)*48]))
	}
	return out
}

type blsG1AddPrecompile struct{}

func (blsG1AddPrecompile) RequiredGas([]byte) uint64 { return 375 }

func (blsG1AddPrecompile) Run(input []byte) ([]byte, error) {
	if len(input) != 2*bls381G1Size {
		return nil, errs.ErrExecutionReverted
	}
	a, ok1 := decodeG1(input[:bls381G1Size])
	b, ok2 := decodeG1(input[bls381G1Size:])
	if !ok1 || !ok2 {
		return nil, errs.ErrExecutionReverted
	}
	var sum blst.P1
	sum.Add(a, false)
	sum.Add(b, false)
	res := sum.ToAffine()
	return encodeG1(res), nil
}

type blsG1MulPrecompile struct{}

func (blsG1MulPrecompile) RequiredGas([]byte) uint64 { return 12000 }

func (blsG1MulPrecompile) Run(input []byte) ([]byte, error) {
	if len(input) != bls381G1Size+bls381ScalarSz {
		return nil, errs.ErrExecutionReverted
	}
	p, ok := decodeG1(input[:bls381G1Size])
	if !ok {
		return nil, errs.ErrExecutionReverted
	}
	scalar := input[bls381G1Size:]
	res := new(blst.P1).Mult(p, scalar, 256).ToAffine()
	return encodeG1(res), nil
}

type blsG1MultiExpPrecompile struct{}

func (blsG1MultiExpPrecompile) RequiredGas(input []byte) uint64 {
	n := uint64(len(input) / (bls381G1Size + bls381ScalarSz))
	return 12000 * n
}

func (blsG1MultiExpPrecompile) Run(input []byte) ([]byte, error) {
	stride := bls381G1Size + bls381ScalarSz
	if len(input)%stride != 0 {
		return nil, errs.ErrExecutionReverted
	}
	var acc blst.P1
	for off := 0; off < len(input); off += stride {
		p, ok := decodeG1(input[off : off+bls381G1Size])
		if !ok {
			return nil, errs.ErrExecutionReverted
		}
		scalar := input[off+bls381G1Size : off+stride]
		term := new(blst.P1).Mult(p, scalar, 256)
		acc.Add(term.ToAffine(), false)
	}
	return encodeG1(acc.ToAffine()), nil
}

type blsG2AddPrecompile struct{}

func (blsG2AddPrecompile) RequiredGas([]byte) uint64 { return 600 }

func (blsG2AddPrecompile) Run(input []byte) ([]byte, error) {
	if len(input) != 2*bls381G2Size {
		return nil, errs.ErrExecutionReverted
	}
	a, ok1 := decodeG2(input[:bls381G2Size])
	b, ok2 := decodeG2(input[bls381G2Size:])
	if !ok1 || !ok2 {
		return nil, errs.ErrExecutionReverted
	}
	var sum blst.P2
	sum.Add(a, false)
	sum.Add(b, false)
	return encodeG2(sum.ToAffine()), nil
}

type blsG2MulPrecompile struct{}

func (blsG2MulPrecompile) RequiredGas([]byte) uint64 { return 22500 }

func (blsG2MulPrecompile) Run(input []byte) ([]byte, error) {
	if len(input) != bls381G2Size+bls381ScalarSz {
		return nil, errs.ErrExecutionReverted
	}
	p, ok := decodeG2(input[:bls381G2Size])
	if !ok {
		return nil, errs.ErrExecutionReverted
	}
	scalar := input[bls381G2Size:]
	res := new(blst.P2).Mult(p, scalar, 256).ToAffine()
	return encodeG2(res), nil
}

type blsG2MultiExpPrecompile struct{}

func (blsG2MultiExpPrecompile) RequiredGas(input []byte) uint64 {
	n := uint64(len(input) / (bls381G2Size + bls381ScalarSz))
	return 22500 * n
}

func (blsG2MultiExpPrecompile) Run(input []byte) ([]byte, error) {
	stride := bls381G2Size + bls381ScalarSz
	if len(input)%stride != 0 {
		return nil, errs.ErrExecutionReverted
	}
	var acc blst.P2
	for off := 0; off < len(input); off += stride {
		p, ok := decodeG2(input[off : off+bls381G2Size])
		if !ok {
			return nil, errs.ErrExecutionReverted
		}
		scalar := input[off+bls381G2Size : off+stride]
		term := new(blst.P2).Mult(p, scalar, 256)
		acc.Add(term.ToAffine(), false)
	}
	return encodeG2(acc.ToAffine()), nil
}

type blsPairingPrecompile struct{}

func (blsPairingPrecompile) RequiredGas(input []byte) uint64 {
	n := uint64(len(input) / (bls381G1Size + bls381G2Size))
	return 32600*n + 37700
}

func (blsPairingPrecompile) Run(input []byte) ([]byte, error) {
	stride := bls381G1Size + bls381G2Size
	if len(input)%stride != 0 || len(input) == 0 {
		return nil, errs.ErrExecutionReverted
	}
	var g1s []*blst.P1Affine
	var g2s []*blst.P2Affine
	for off := 0; off < len(input); off += stride {
		p1, ok1 := decodeG1(input[off : off+bls381G1Size])
		p2, ok2 := decodeG2(input[off+bls381G1Size : off+stride])
		if !ok1 || !ok2 {
			return nil, errs.ErrExecutionReverted
		}
		g1s = append(g1s, p1)
		g2s = append(g2s, p2)
	}
	ok := blst.PairingCheck(g1s, g2s)
	out := make([]byte, 32)
	if ok {
		out[31] = 1
	}
	return out, nil
}
