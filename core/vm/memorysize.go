// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import "github.com/holiman/uint256"

// memorySize calculators: given the stack (top-down, index 0 is the top),
// return how many bytes of memory this op's arguments require, and
// whether that computation overflowed (in which case the op must fail
// with an out-of-gas/overflow halt rather than attempt a huge resize).

func memSha3(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(1))
}

func memMload(stack *Stack) (uint64, bool) {
	top := stack.Back(0)
	if top.BitLen() > 63 {
		return 0, false
	}
	return top.Uint64() + 32, true
}

func memMstore(stack *Stack) (uint64, bool) {
	top := stack.Back(0)
	if top.BitLen() > 63 {
		return 0, false
	}
	return top.Uint64() + 32, true
}

func memMstore8(stack *Stack) (uint64, bool) {
	top := stack.Back(0)
	if top.BitLen() > 63 {
		return 0, false
	}
	return top.Uint64() + 1, true
}

func memMcopy(stack *Stack) (uint64, bool) {
	dst, src, length := stack.Back(0), stack.Back(1), stack.Back(2)
	d, ok := calcMemSize(dst, length)
	if !ok {
		return 0, false
	}
	s, ok := calcMemSize(src, length)
	if !ok {
		return 0, false
	}
	if s > d {
		return s, true
	}
	return d, true
}

// memCopy returns a memorySize func for ops whose memory-offset and
// length operands sit at the given 0-indexed-from-the-top stack
// positions — NOT assumed adjacent, since several shapes (CALLDATACOPY,
// CODECOPY, RETURNDATACOPY, EXTCODECOPY) carry an irrelevant middle
// operand (the source offset) between the two.
func memCopy(offsetPos, lengthPos int) func(*Stack) (uint64, bool) {
	return func(stack *Stack) (uint64, bool) {
		return calcMemSize(stack.Back(offsetPos), stack.Back(lengthPos))
	}
}

// memCall computes the max of the two memory regions (args, retarea) a
// CALL-family opcode touches; argsPos/retPos are the stack index of the
// args-offset (length follows immediately).
func memCall(argsPos, retPos int) func(*Stack) (uint64, bool) {
	return func(stack *Stack) (uint64, bool) {
		a, ok := calcMemSize(stack.Back(argsPos), stack.Back(argsPos+1))
		if !ok {
			return 0, false
		}
		r, ok := calcMemSize(stack.Back(retPos), stack.Back(retPos+1))
		if !ok {
			return 0, false
		}
		if r > a {
			return r, true
		}
		return a, true
	}
}

func calcMemSize(off, length *uint256.Int) (uint64, bool) {
	if length.IsZero() {
		return 0, true
	}
	if off.BitLen() > 63 || length.BitLen() > 63 {
		return 0, false
	}
	o, l := off.Uint64(), length.Uint64()
	sum := o + l
	if sum < o {
		return 0, false
	}
	return sum, true
}
