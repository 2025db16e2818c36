// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import (
	"sync"

	"github.com/holiman/uint256"
)

// stackLimit is the maximum depth of the EVM stack.
const stackLimit = 1024

// Stack is the 256-bit-word operand stack, backed by holiman/uint256 the
// way go-ethereum's own interpreter is, rather than math/big: uint256.Int
// is a fixed 4-word array with no heap allocation per push/pop.
type Stack struct {
	data []uint256.Int
}

var stackPool = sync.Pool{
	New: func() interface{} { return &Stack{data: make([]uint256.Int, 0, 16)} },
}

func newStack() *Stack { return stackPool.Get().(*Stack) }

func returnStack(s *Stack) {
	s.data = s.data[:0]
	stackPool.Put(s)
}

func (st *Stack) push(d *uint256.Int) { st.data = append(st.data, *d) }

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return ret
}

func (st *Stack) len() int { return len(st.data) }

func (st *Stack) swap(n int) {
	i, j := len(st.data)-1, len(st.data)-1-n
	st.data[i], st.data[j] = st.data[j], st.data[i]
}

func (st *Stack) dup(n int) {
	st.push(&st.data[len(st.data)-n])
}

func (st *Stack) peek() *uint256.Int { return &st.data[len(st.data)-1] }

func (st *Stack) Back(n int) *uint256.Int { return &st.data[len(st.data)-n-1] }
