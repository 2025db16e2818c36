// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/internal/chainstore"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/rlp"
	"github.com/corechain/execd/triedb"
)

var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "import and replay an RLP block archive, advancing the chain from genesis",
	ArgsUsage: "<genesis.json> <rlp-file>",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "chain-id", Value: 1},
		&cli.BoolFlag{Name: "l2"},
	},
	Action: importChain,
}

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "export a contiguous block range to an RLP archive",
	ArgsUsage: "<genesis.json> <source-rlp-file> <from..to> <out-file>",
	Action:    exportChain,
}

var computeStateRootCommand = &cli.Command{
	Name:      "compute-state-root",
	Usage:     "compute and print a genesis file's state root without starting the node",
	ArgsUsage: "<genesis.json>",
	Action:    computeStateRoot,
}

// importChain decodes the whole archive as one top-level RLP list —
// this package's rlp.Decode has no streaming variant, unlike the
// teacher's rlp.NewStream-based batch reader, so the entire file is
// read and split before any block is replayed. Every block must extend
// the previous one (and the first must extend genesis); a gap or
// out-of-order entry is a schema mismatch, not an unrecoverable error,
// since the archive itself is structurally fine — it just doesn't
// describe this chain.
func importChain(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return exitWith(1, fmt.Errorf("import: usage: import <genesis.json> <rlp-file>"))
	}
	genesis, err := loadGenesis(c.Args().Get(0))
	if err != nil {
		return exitWith(1, fmt.Errorf("import: %w", err))
	}
	raw, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return exitWith(1, fmt.Errorf("import: reading archive: %w", err))
	}
	blockEncs, err := rlp.SplitList(raw)
	if err != nil {
		return exitWith(2, fmt.Errorf("%w: archive is not a top-level RLP list: %v", errSchemaMismatch, err))
	}

	chainConfig := chainConfigFor(c)
	nodesDB := triedb.New(triedb.DefaultConfig())
	stateDB := state.NewDatabase(nodesDB)
	genesisBlock, err := genesis.ToBlock(stateDB)
	if err != nil {
		return exitWith(1, fmt.Errorf("import: building genesis: %w", err))
	}
	store := chainstore.New(stateDB, chainConfig, genesisBlock)
	executor := block.NewExecutor(chainConfig, stateDB, nil)

	log := xlog.Root().With("cmd", "import")
	for i, enc := range blockEncs {
		blk, err := types.DecodeBlockRLP(enc)
		if err != nil {
			return exitWith(2, fmt.Errorf("%w: archive entry %d: %v", errSchemaMismatch, i, err))
		}
		if head := store.Head(); blk.Header().ParentHash != head.Hash() {
			return exitWith(2, fmt.Errorf("%w: archive entry %d (block %d) does not extend head %d", errSchemaMismatch, i, blk.NumberU64(), head.Number))
		}
		if err := store.Import(executor, blk); err != nil {
			return exitWith(1, fmt.Errorf("import: block %d (archive entry %d): %w", blk.NumberU64(), i, err))
		}
		log.Info("imported block", "number", blk.NumberU64(), "root", blk.Header().Root)
	}
	log.Info("import complete", "blocks", len(blockEncs), "head", store.Head().Number)
	return nil
}

// exportChain needs a live chain to export from; since this binary
// keeps no on-disk store (no-goal, see runNode's comment), `export`
// only makes sense chained after `import` in one process — re-import
// the same archive, range the result, and write the slice back out.
// ArgsUsage: export <genesis.json> <source-rlp-file> <from..to> <out-file>
func exportChain(c *cli.Context) error {
	if c.Args().Len() < 4 {
		return exitWith(1, fmt.Errorf("export: usage: export <genesis.json> <source-rlp-file> <from..to> <out-file>"))
	}
	genesisPath, srcPath, rangeArg, outPath := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), c.Args().Get(3)
	from, to, err := parseRange(rangeArg)
	if err != nil {
		return exitWith(1, fmt.Errorf("export: %w", err))
	}

	genesis, err := loadGenesis(genesisPath)
	if err != nil {
		return exitWith(1, fmt.Errorf("export: %w", err))
	}
	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return exitWith(1, fmt.Errorf("export: reading source archive: %w", err))
	}
	blockEncs, err := rlp.SplitList(raw)
	if err != nil {
		return exitWith(2, fmt.Errorf("%w: source archive is not a top-level RLP list: %v", errSchemaMismatch, err))
	}

	chainConfig := chainConfigFor(c)
	nodesDB := triedb.New(triedb.DefaultConfig())
	stateDB := state.NewDatabase(nodesDB)
	genesisBlock, err := genesis.ToBlock(stateDB)
	if err != nil {
		return exitWith(1, fmt.Errorf("export: building genesis: %w", err))
	}
	store := chainstore.New(stateDB, chainConfig, genesisBlock)
	executor := block.NewExecutor(chainConfig, stateDB, nil)

	out := rlp.NewList()
	found := 0
	for i, enc := range blockEncs {
		blk, err := types.DecodeBlockRLP(enc)
		if err != nil {
			return exitWith(2, fmt.Errorf("%w: source archive entry %d: %v", errSchemaMismatch, i, err))
		}
		if err := store.Import(executor, blk); err != nil {
			return exitWith(1, fmt.Errorf("export: replaying block %d: %w", blk.NumberU64(), err))
		}
		if blk.NumberU64() < from || blk.NumberU64() > to {
			continue
		}
		out.Add(rlp.RawValue(enc))
		found++
	}
	if found == 0 {
		return exitWith(2, fmt.Errorf("%w: no blocks in range %d..%d", errSchemaMismatch, from, to))
	}
	encoded, err := out.Bytes()
	if err != nil {
		return exitWith(1, fmt.Errorf("export: encoding output archive: %w", err))
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return exitWith(1, fmt.Errorf("export: writing output archive: %w", err))
	}
	xlog.Root().Info("exported blocks", "count", found, "from", from, "to", to, "out", outPath)
	return nil
}

// computeStateRoot builds the genesis trie and reports its root without
// opening a store or running any actor — the offline check an operator
// runs before pointing `run` at a genesis file.
func computeStateRoot(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return exitWith(1, fmt.Errorf("compute-state-root: usage: compute-state-root <genesis.json>"))
	}
	genesis, err := loadGenesis(c.Args().First())
	if err != nil {
		return exitWith(1, fmt.Errorf("compute-state-root: %w", err))
	}
	nodesDB := triedb.New(triedb.DefaultConfig())
	stateDB := state.NewDatabase(nodesDB)
	blk, err := genesis.ToBlock(stateDB)
	if err != nil {
		return exitWith(1, fmt.Errorf("compute-state-root: %w", err))
	}
	fmt.Println(blk.Header().Root.Hex())
	return nil
}

func chainConfigFor(c *cli.Context) *chainconfig.ChainConfig {
	if c.Bool("l2") {
		return chainconfig.L2Config(c.Int64("chain-id"), 0)
	}
	return chainconfig.MainnetLikeConfig(c.Int64("chain-id"))
}

func parseRange(s string) (from, to uint64, err error) {
	parts := strings.SplitN(s, "..", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range must be <from>..<to>, got %q", s)
	}
	f, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	t, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}
	if f > t {
		return 0, 0, fmt.Errorf("range start %d is after end %d", f, t)
	}
	return f, t, nil
}
