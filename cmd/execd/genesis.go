// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/block"
)

// genesisFile is the on-disk genesis format `run`, `init`, and
// `compute-state-root` all read: go-ethereum's genesis.json shape
// (hex-quantity strings, address-keyed alloc map) rather than a
// bespoke encoding, since every pack example's own genesis tooling
// reads exactly this format.
type genesisFile struct {
	ChainID    uint64                        `json:"chainId"`
	GasLimit   string                        `json:"gasLimit"`
	Timestamp  string                        `json:"timestamp"`
	ExtraData  string                        `json:"extraData"`
	Difficulty string                        `json:"difficulty"`
	Coinbase   string                        `json:"coinbase"`
	Alloc      map[string]genesisAllocEntry  `json:"alloc"`
}

type genesisAllocEntry struct {
	Balance string            `json:"balance"`
	Nonce   string            `json:"nonce"`
	Code    string            `json:"code"`
	Storage map[string]string `json:"storage"`
}

// loadGenesis reads and decodes a genesis.json file at path into the
// block package's own Genesis type.
func loadGenesis(path string) (*block.Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}
	var gf genesisFile
	if err := json.Unmarshal(raw, &gf); err != nil {
		return nil, fmt.Errorf("decoding genesis file: %w", err)
	}

	alloc := make(block.GenesisAlloc, len(gf.Alloc))
	for addrHex, entry := range gf.Alloc {
		if !common.IsHexAddress(addrHex) {
			return nil, fmt.Errorf("genesis alloc: invalid address %q", addrHex)
		}
		acct := block.GenesisAccount{
			Balance: hexOrZeroBig(entry.Balance),
			Nonce:   hexOrZeroUint64(entry.Nonce),
			Code:    common.FromHex(entry.Code),
		}
		if len(entry.Storage) > 0 {
			acct.Storage = make(map[common.Hash]common.Hash, len(entry.Storage))
			for k, v := range entry.Storage {
				acct.Storage[common.HexToHash(k)] = common.HexToHash(v)
			}
		}
		alloc[common.HexToAddress(addrHex)] = acct
	}

	return &block.Genesis{
		ChainID:    gf.ChainID,
		GasLimit:   hexOrZeroUint64(gf.GasLimit),
		Timestamp:  hexOrZeroUint64(gf.Timestamp),
		ExtraData:  common.FromHex(gf.ExtraData),
		Difficulty: hexOrZeroBig(gf.Difficulty),
		Coinbase:   common.HexToAddress(gf.Coinbase),
		Alloc:      alloc,
	}, nil
}

func hexOrZeroBig(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	b := common.FromHex(s)
	if b == nil {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(b)
}

func hexOrZeroUint64(s string) uint64 {
	return hexOrZeroBig(s).Uint64()
}

// emptyPredeployAccount is the starting state for a predeploy whose
// bytecode is installed by the L2 client binary itself rather than
// carried in the genesis file (this module ships no Solidity compiler,
// an explicit non-goal) — a zero-balance, zero-code account reserved at
// a fixed address so contracts.L2ToL1MessagePasser is always present in
// alloc for the bridge and L1 Watcher to agree on.
func emptyPredeployAccount() block.GenesisAccount {
	return block.GenesisAccount{Balance: new(big.Int)}
}

// writeGenesis serializes genesis back to the on-disk genesis.json
// shape loadGenesis reads, the inverse encoding `l2 init` needs to
// produce a genesis file a later `run`/`compute-state-root` can load.
func writeGenesis(g *block.Genesis, path string) error {
	gf := genesisFile{
		ChainID:    g.ChainID,
		GasLimit:   hexutilUint64(g.GasLimit),
		Timestamp:  hexutilUint64(g.Timestamp),
		ExtraData:  hexutilBytes(g.ExtraData),
		Difficulty: hexutilBig(g.Difficulty),
		Coinbase:   g.Coinbase.Hex(),
		Alloc:      make(map[string]genesisAllocEntry, len(g.Alloc)),
	}
	for addr, acct := range g.Alloc {
		entry := genesisAllocEntry{
			Balance: hexutilBig(acct.Balance),
			Nonce:   hexutilUint64(acct.Nonce),
			Code:    hexutilBytes(acct.Code),
		}
		if len(acct.Storage) > 0 {
			entry.Storage = make(map[string]string, len(acct.Storage))
			for k, v := range acct.Storage {
				entry.Storage[k.Hex()] = v.Hex()
			}
		}
		gf.Alloc[addr.Hex()] = entry
	}
	raw, err := json.MarshalIndent(gf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis file: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}
	return nil
}

func hexutilUint64(v uint64) string { return fmt.Sprintf("0x%x", v) }

func hexutilBig(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return fmt.Sprintf("0x%x", v)
}

func hexutilBytes(b []byte) string {
	if len(b) == 0 {
		return "0x"
	}
	return "0x" + common.Bytes2Hex(b)
}
