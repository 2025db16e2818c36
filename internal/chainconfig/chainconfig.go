// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package chainconfig is the fork lattice: which protocol rules are active
// at a given block/time, grounded on go-ethereum's params.ChainConfig shape
// (as represented in other_examples/) and luxfi-evm's own fork-gating
// conventions in its header/precompile activation checks.
package chainconfig

import "math/big"

// ChainConfig pins the fork-activation points a chain follows. Block-keyed
// forks gate on header.Number (pre-Merge style); time-keyed forks gate on
// header.Time (Shanghai onward), matching go-ethereum's split.
type ChainConfig struct {
	ChainID *big.Int

	HomesteadBlock   *big.Int
	EIP150Block      *big.Int
	EIP155Block      *big.Int
	EIP158Block      *big.Int
	ByzantiumBlock   *big.Int
	ConstantinopleBlock *big.Int
	PetersburgBlock  *big.Int
	IstanbulBlock    *big.Int
	BerlinBlock      *big.Int
	LondonBlock      *big.Int

	ShanghaiTime *uint64
	CancunTime   *uint64
	PragueTime   *uint64
	OsakaTime    *uint64

	// IsL2 installs the EXECUTE precompile at 0x0101; cmd/execd also reads
	// it to wire block re-execution and start the sequencer actors.
	IsL2 bool
}

// MainnetLikeConfig activates every block-keyed fork from genesis and
// leaves the time-gated ones (Shanghai/Cancun/Prague/Osaka) nil, so they
// stay inactive unless a caller sets the matching *Time field — the shape
// a genesis.json's "config" object takes in go-ethereum.
func MainnetLikeConfig(chainID int64) *ChainConfig {
	zero := big.NewInt(0)
	return &ChainConfig{
		ChainID:             big.NewInt(chainID),
		HomesteadBlock:      zero,
		EIP150Block:         zero,
		EIP155Block:         zero,
		EIP158Block:         zero,
		ByzantiumBlock:      zero,
		ConstantinopleBlock: zero,
		PetersburgBlock:     zero,
		IstanbulBlock:       zero,
		BerlinBlock:         zero,
		LondonBlock:         zero,
	}
}

// L2Config is MainnetLikeConfig plus IsL2 and the Shanghai, Cancun and
// Prague time forks pinned at t (i.e. active from genesis) — the common
// shape for a freshly deployed rollup that starts post-Prague. OsakaTime
// stays nil.
func L2Config(chainID int64, genesisTime uint64) *ChainConfig {
	cfg := MainnetLikeConfig(chainID)
	cfg.IsL2 = true
	cfg.ShanghaiTime = &genesisTime
	cfg.CancunTime = &genesisTime
	cfg.PragueTime = &genesisTime
	return cfg
}

func gte(n, fork *big.Int) bool {
	return fork != nil && n != nil && n.Cmp(fork) >= 0
}

func gteTime(t uint64, fork *uint64) bool { return fork != nil && t >= *fork }

func (c *ChainConfig) IsHomestead(num *big.Int) bool   { return gte(num, c.HomesteadBlock) }
func (c *ChainConfig) IsEIP150(num *big.Int) bool      { return gte(num, c.EIP150Block) }
func (c *ChainConfig) IsEIP155(num *big.Int) bool      { return gte(num, c.EIP155Block) }
func (c *ChainConfig) IsEIP158(num *big.Int) bool      { return gte(num, c.EIP158Block) }
func (c *ChainConfig) IsByzantium(num *big.Int) bool   { return gte(num, c.ByzantiumBlock) }
func (c *ChainConfig) IsConstantinople(num *big.Int) bool { return gte(num, c.ConstantinopleBlock) }
func (c *ChainConfig) IsPetersburg(num *big.Int) bool  { return gte(num, c.PetersburgBlock) }
func (c *ChainConfig) IsIstanbul(num *big.Int) bool    { return gte(num, c.IstanbulBlock) }
func (c *ChainConfig) IsBerlin(num *big.Int) bool      { return gte(num, c.BerlinBlock) }
func (c *ChainConfig) IsLondon(num *big.Int) bool      { return gte(num, c.LondonBlock) }

func (c *ChainConfig) IsShanghai(time uint64) bool { return gteTime(time, c.ShanghaiTime) }
func (c *ChainConfig) IsCancun(time uint64) bool   { return gteTime(time, c.CancunTime) }
func (c *ChainConfig) IsPrague(time uint64) bool   { return gteTime(time, c.PragueTime) }
func (c *ChainConfig) IsOsaka(time uint64) bool    { return gteTime(time, c.OsakaTime) }

// Rules is the resolved, block-specific snapshot the EVM and block
// executor consult per-block instead of re-deriving fork booleans from
// raw block numbers on every check.
type Rules struct {
	ChainID                                         *big.Int
	IsHomestead, IsEIP150, IsEIP155, IsEIP158        bool
	IsByzantium, IsConstantinople, IsPetersburg      bool
	IsIstanbul, IsBerlin, IsLondon                   bool
	IsShanghai, IsCancun, IsPrague, IsOsaka          bool
	IsL2                                             bool
}

func (c *ChainConfig) Rules(num *big.Int, time uint64) Rules {
	return Rules{
		ChainID:          c.ChainID,
		IsHomestead:      c.IsHomestead(num),
		IsEIP150:         c.IsEIP150(num),
		IsEIP155:         c.IsEIP155(num),
		IsEIP158:         c.IsEIP158(num),
		IsByzantium:      c.IsByzantium(num),
		IsConstantinople: c.IsConstantinople(num),
		IsPetersburg:     c.IsPetersburg(num),
		IsIstanbul:       c.IsIstanbul(num),
		IsBerlin:         c.IsBerlin(num),
		IsLondon:         c.IsLondon(num),
		IsShanghai:       c.IsShanghai(time),
		IsCancun:         c.IsCancun(time),
		IsPrague:         c.IsPrague(time),
		IsOsaka:          c.IsOsaka(time),
		IsL2:             c.IsL2,
	}
}
