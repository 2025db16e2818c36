// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package vm

import "github.com/corechain/execd/internal/chainconfig"

// instructionFunc executes one opcode. It may push/pop the scope's stack,
// read/write its memory, and return non-nil output bytes only for
// RETURN/REVERT (which halt the frame).
type instructionFunc func(pc *uint64, interp *Interpreter, scope *ScopeContext) ([]byte, error)

// operation is one jump-table entry: fixed gas charged before execute
// runs, stack-depth bounds checked before execute runs, and the handler
// itself (which may charge further dynamic gas against scope.Contract).
type operation struct {
	execute     instructionFunc
	constantGas uint64
	minStack    int
	maxStack    int
	memorySize  func(stack *Stack) (size uint64, ok bool) // bytes of memory the op touches, if any
	jumps       bool // JUMP/JUMPI manage pc themselves; the loop must not also advance it
}

// JumpTable is a [256]*operation; nil entries are invalid opcodes under
// the active rules.
type JumpTable [256]*operation

// newJumpTable builds the opcode table active under rules. Every opcode is
// always present in the table; fork-gated opcodes (PUSH0, BASEFEE,
// TLOAD/TSTORE/MCOPY, BLOBHASH/BLOBBASEFEE) are nil'd out when the
// corresponding fork is not yet active, so the interpreter's "undefined
// opcode" path (a halt with ErrInvalidOpCode-equivalent) naturally fires
// for them pre-fork exactly as it would for a genuinely unassigned byte.
func newJumpTable(rules chainconfig.Rules) *JumpTable {
	jt := &JumpTable{
		STOP:       {execute: opStop, constantGas: 0, minStack: 0, maxStack: 1024},
		ADD:        {execute: opAdd, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		MUL:        {execute: opMul, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		SUB:        {execute: opSub, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		DIV:        {execute: opDiv, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		SDIV:       {execute: opSdiv, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		MOD:        {execute: opMod, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		SMOD:       {execute: opSmod, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		ADDMOD:     {execute: opAddmod, constantGas: GasMidStep, minStack: 3, maxStack: 1024},
		MULMOD:     {execute: opMulmod, constantGas: GasMidStep, minStack: 3, maxStack: 1024},
		EXP:        {execute: opExp, constantGas: GasSlowStep, minStack: 2, maxStack: 1024},
		SIGNEXTEND: {execute: opSignExtend, constantGas: GasFastStep, minStack: 2, maxStack: 1024},

		LT:     {execute: opLt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		GT:     {execute: opGt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SLT:    {execute: opSlt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SGT:    {execute: opSgt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		EQ:     {execute: opEq, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		ISZERO: {execute: opIszero, constantGas: GasFastestStep, minStack: 1, maxStack: 1024},
		AND:    {execute: opAnd, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		OR:     {execute: opOr, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		XOR:    {execute: opXor, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		NOT:    {execute: opNot, constantGas: GasFastestStep, minStack: 1, maxStack: 1024},
		BYTE:   {execute: opByte, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SHL:    {execute: opShl, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SHR:    {execute: opShr, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SAR:    {execute: opSar, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},

		SHA3: {execute: opSha3, constantGas: Sha3Gas, minStack: 2, maxStack: 1024, memorySize: memSha3},

		ADDRESS:      {execute: opAddress, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		BALANCE:      {execute: opBalance, constantGas: GasExtStep, minStack: 1, maxStack: 1024},
		ORIGIN:       {execute: opOrigin, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		CALLER:       {execute: opCaller, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		CALLVALUE:    {execute: opCallValue, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		CALLDATALOAD: {execute: opCallDataLoad, constantGas: GasFastestStep, minStack: 1, maxStack: 1024},
		CALLDATASIZE: {execute: opCallDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		CALLDATACOPY: {execute: opCallDataCopy, constantGas: GasFastestStep, minStack: 3, maxStack: 1024, memorySize: memCopy(0, 2)},
		CODESIZE:     {execute: opCodeSize, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		CODECOPY:     {execute: opCodeCopy, constantGas: GasFastestStep, minStack: 3, maxStack: 1024, memorySize: memCopy(0, 2)},
		GASPRICE:     {execute: opGasPrice, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		EXTCODESIZE:  {execute: opExtCodeSize, constantGas: GasExtStep, minStack: 1, maxStack: 1024},
		EXTCODECOPY:  {execute: opExtCodeCopy, constantGas: GasExtStep, minStack: 4, maxStack: 1024, memorySize: memCopy(1, 3)},
		RETURNDATASIZE: {execute: opReturnDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		RETURNDATACOPY: {execute: opReturnDataCopy, constantGas: GasFastestStep, minStack: 3, maxStack: 1024, memorySize: memCopy(0, 2)},
		EXTCODEHASH:  {execute: opExtCodeHash, constantGas: GasExtStep, minStack: 1, maxStack: 1024},

		BLOCKHASH:   {execute: opBlockhash, constantGas: GasExtStep, minStack: 1, maxStack: 1024},
		COINBASE:    {execute: opCoinbase, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		TIMESTAMP:   {execute: opTimestamp, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		NUMBER:      {execute: opNumber, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		DIFFICULTY:  {execute: opDifficulty, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		GASLIMIT:    {execute: opGasLimit, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		CHAINID:     {execute: opChainID, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		SELFBALANCE: {execute: opSelfBalance, constantGas: GasFastStep, minStack: 0, maxStack: 1024},

		POP:      {execute: opPop, constantGas: GasQuickStep, minStack: 1, maxStack: 1024},
		MLOAD:    {execute: opMload, constantGas: GasFastestStep, minStack: 1, maxStack: 1024, memorySize: memMload},
		MSTORE:   {execute: opMstore, constantGas: GasFastestStep, minStack: 2, maxStack: 1024, memorySize: memMstore},
		MSTORE8:  {execute: opMstore8, constantGas: GasFastestStep, minStack: 2, maxStack: 1024, memorySize: memMstore8},
		SLOAD:    {execute: opSload, constantGas: GasFastStep, minStack: 1, maxStack: 1024},
		SSTORE:   {execute: opSstore, constantGas: 0, minStack: 2, maxStack: 1024},
		JUMP:     {execute: opJump, constantGas: GasMidStep, minStack: 1, maxStack: 1024, jumps: true},
		JUMPI:    {execute: opJumpi, constantGas: GasSlowStep, minStack: 2, maxStack: 1024, jumps: true},
		PC:       {execute: opPc, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		MSIZE:    {execute: opMsize, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		GAS:      {execute: opGas, constantGas: GasQuickStep, minStack: 0, maxStack: 1024},
		JUMPDEST: {execute: opJumpdest, constantGas: JumpdestGas, minStack: 0, maxStack: 1024},

		LOG0: {execute: makeLog(0), constantGas: LogGas, minStack: 2, maxStack: 1024, memorySize: memCopy(0, 1)},
		LOG0 + 1: {execute: makeLog(1), constantGas: LogGas, minStack: 3, maxStack: 1024, memorySize: memCopy(0, 1)},
		LOG0 + 2: {execute: makeLog(2), constantGas: LogGas, minStack: 4, maxStack: 1024, memorySize: memCopy(0, 1)},
		LOG0 + 3: {execute: makeLog(3), constantGas: LogGas, minStack: 5, maxStack: 1024, memorySize: memCopy(0, 1)},
		LOG4:     {execute: makeLog(4), constantGas: LogGas, minStack: 6, maxStack: 1024, memorySize: memCopy(0, 1)},

		CREATE:       {execute: opCreate, constantGas: CreateGas, minStack: 3, maxStack: 1024, memorySize: memCopy(1, 2)},
		CALL:         {execute: opCall, constantGas: WarmStorageReadCostEIP2929, minStack: 7, maxStack: 1024, memorySize: memCall(3, 5)},
		CALLCODE:     {execute: opCallCode, constantGas: WarmStorageReadCostEIP2929, minStack: 7, maxStack: 1024, memorySize: memCall(3, 5)},
		RETURN:       {execute: opReturn, constantGas: 0, minStack: 2, maxStack: 1024, memorySize: memCopy(0, 1)},
		DELEGATECALL: {execute: opDelegateCall, constantGas: WarmStorageReadCostEIP2929, minStack: 6, maxStack: 1024, memorySize: memCall(2, 4)},
		CREATE2:      {execute: opCreate2, constantGas: CreateGas, minStack: 4, maxStack: 1024, memorySize: memCopy(1, 2)},
		STATICCALL:   {execute: opStaticCall, constantGas: WarmStorageReadCostEIP2929, minStack: 6, maxStack: 1024, memorySize: memCall(2, 4)},
		REVERT:       {execute: opRevert, constantGas: 0, minStack: 2, maxStack: 1024, memorySize: memCopy(0, 1)},
		INVALID:      {execute: opInvalid, constantGas: 0, minStack: 0, maxStack: 1024},
		SELFDESTRUCT: {execute: opSelfdestruct, constantGas: 5000, minStack: 1, maxStack: 1024},
	}

	for op := PUSH1; op <= PUSH32; op++ {
		n := int(op - PUSH1 + 1)
		jt[op] = &operation{execute: makePush(n), constantGas: GasFastestStep, minStack: 0, maxStack: 1024}
	}
	for op := DUP1; op <= DUP16; op++ {
		n := int(op - DUP1 + 1)
		jt[op] = &operation{execute: makeDup(n), constantGas: GasFastestStep, minStack: n, maxStack: 1024}
	}
	for op := SWAP1; op <= SWAP16; op++ {
		n := int(op - SWAP1 + 1)
		jt[op] = &operation{execute: makeSwap(n), constantGas: GasFastestStep, minStack: n + 1, maxStack: 1024}
	}

	jt[PUSH0] = &operation{execute: opPush0, constantGas: GasQuickStep, minStack: 0, maxStack: 1024}
	if !rules.IsShanghai {
		jt[PUSH0] = nil
	}

	jt[BASEFEE] = &operation{execute: opBaseFee, constantGas: GasQuickStep, minStack: 0, maxStack: 1024}
	if !rules.IsLondon {
		jt[BASEFEE] = nil
	}

	jt[TLOAD] = &operation{execute: opTload, constantGas: WarmStorageReadCostEIP2929, minStack: 1, maxStack: 1024}
	jt[TSTORE] = &operation{execute: opTstore, constantGas: WarmStorageReadCostEIP2929, minStack: 2, maxStack: 1024}
	jt[MCOPY] = &operation{execute: opMcopy, constantGas: GasFastestStep, minStack: 3, maxStack: 1024, memorySize: memMcopy}
	jt[BLOBHASH] = &operation{execute: opBlobHash, constantGas: GasFastestStep, minStack: 1, maxStack: 1024}
	jt[BLOBBASEFEE] = &operation{execute: opBlobBaseFee, constantGas: GasQuickStep, minStack: 0, maxStack: 1024}
	if !rules.IsCancun {
		jt[TLOAD], jt[TSTORE], jt[MCOPY], jt[BLOBHASH], jt[BLOBBASEFEE] = nil, nil, nil, nil, nil
	}

	return jt
}
