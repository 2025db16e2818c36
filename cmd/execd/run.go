// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/core/block"
	"github.com/corechain/execd/core/state"
	"github.com/corechain/execd/core/types"
	"github.com/corechain/execd/internal/chainconfig"
	"github.com/corechain/execd/internal/chainstore"
	"github.com/corechain/execd/internal/mailbox"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/l2/actor"
	"github.com/corechain/execd/l2/mempool"
	"github.com/corechain/execd/l2/sequencer"
	"github.com/corechain/execd/triedb"
	"github.com/corechain/execd/zkvm"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "start the node: execute blocks and, in --l2 mode, run the sequencer actors",
	ArgsUsage: "<genesis.json>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "network", Value: "mainnet", Usage: "named network preset"},
		&cli.StringFlag{Name: "datadir", Value: "./execd-data", Usage: "data directory"},
		&cli.IntFlag{Name: "http.port", Value: 8545, Usage: "JSON-RPC listen port"},
		&cli.IntFlag{Name: "authrpc.port", Value: 8551, Usage: "authenticated engine-API listen port"},
		&cli.StringFlag{Name: "syncmode", Value: "snap", Usage: "full or snap"},
		&cli.StringFlag{Name: "evm", Value: "levm", Usage: "levm (built) or revm (not built; accepted for compatibility)"},
		&cli.Int64Flag{Name: "chain-id", Value: 1},
		&cli.BoolFlag{Name: "l2", Usage: "run in L2 mode with the sequencer actors"},
		&cli.StringSliceFlag{Name: "actors", Usage: "subset of producer,watcher,committer,prover,verifier,updater (default: all, l2 mode only)"},
		&cli.StringFlag{Name: "l1-rpc-endpoint", Usage: "L1 JSON-RPC endpoint"},
		&cli.StringFlag{Name: "l1-bridge-addr"},
		&cli.StringFlag{Name: "l1-proposer-addr"},
		&cli.Uint64Flag{Name: "l1-start-block"},
		&cli.DurationFlag{Name: "l1-poll-period", Value: 12 * time.Second},
		&cli.Uint64Flag{Name: "l1-block-delay", Value: 5},
		&cli.IntFlag{Name: "batch-max-blocks", Value: 32},
		&cli.Uint64Flag{Name: "batch-max-gas"},
		&cli.IntFlag{Name: "batch-max-blob-bytes", Value: 120 * 1024},
		&cli.DurationFlag{Name: "block-period", Value: 2 * time.Second},
		&cli.Uint64Flag{Name: "block-gas-limit", Value: 30_000_000},
		&cli.StringFlag{Name: "coinbase"},
		&cli.DurationFlag{Name: "prove-timeout", Value: 10 * time.Minute},
		&cli.StringFlag{Name: "prover-grpc-addr", Value: "127.0.0.1:50051"},
	},
	Action: runNode,
}

// --http.port/--authrpc.port are accepted for CLI-contract compatibility
// but otherwise unused: a user-facing JSON-RPC surface is an explicit
// non-goal here, so nothing in this command binds them to a listener.
// --datadir is only used for its LOCK file (see acquireDatadirLock); no
// chain or state data is written there.
func runNode(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return exitWith(1, fmt.Errorf("run: missing <genesis.json> argument"))
	}
	genesis, err := loadGenesis(c.Args().First())
	if err != nil {
		return exitWith(1, fmt.Errorf("run: %w", err))
	}

	lock, locked, err := acquireDatadirLock(c.String("datadir"))
	if err != nil {
		return exitWith(1, fmt.Errorf("run: %w", err))
	}
	if !locked {
		return exitWith(1, fmt.Errorf("run: datadir %q is already in use by another execd process", c.String("datadir")))
	}
	defer lock.Unlock()

	if genesis.ChainID != uint64(c.Int64("chain-id")) {
		return exitWith(2, fmt.Errorf("%w: genesis declares chain ID %d, --chain-id is %d", errSchemaMismatch, genesis.ChainID, c.Int64("chain-id")))
	}

	log := xlog.Root().With("network", c.String("network"))
	if c.String("evm") != "levm" {
		log.Warn("--evm requested a backend this module does not build; running on levm", "requested", c.String("evm"))
	}
	if c.String("syncmode") == "snap" {
		log.Warn("snap sync requested but no peer transport is wired yet; bootstrapping from genesis only")
	}

	var chainConfig *chainconfig.ChainConfig
	if c.Bool("l2") {
		chainConfig = chainconfig.L2Config(c.Int64("chain-id"), genesis.Timestamp)
	} else {
		chainConfig = chainconfig.MainnetLikeConfig(c.Int64("chain-id"))
	}

	nodesDB := triedb.New(triedb.DefaultConfig())
	stateDB := state.NewDatabase(nodesDB)

	genesisBlock, err := genesis.ToBlock(stateDB)
	if err != nil {
		return exitWith(1, fmt.Errorf("run: building genesis block: %w", err))
	}
	store := chainstore.New(stateDB, chainConfig, genesisBlock)
	executor := block.NewExecutor(chainConfig, stateDB, nil)

	if chainConfig.IsL2 {
		block.ConfigureReExecution(stateDB, chainConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	if !chainConfig.IsL2 {
		log.Info("node running in L1 mode; no sequencer actors to start", "chain-id", chainConfig.ChainID)
		<-ctx.Done()
		return nil
	}
	return runL2Actors(ctx, c, chainConfig, executor, store, log)
}

func runL2Actors(ctx context.Context, c *cli.Context, chainConfig *chainconfig.ChainConfig, executor *block.Executor, store *chainstore.Store, log *xlog.Logger) error {
	wanted := actorSet(c.StringSlice("actors"))
	pool := mempool.New(chainConfig.ChainID)

	candidates := mailbox.New[*types.Block](64)
	finalized := mailbox.New[*types.Block](64)
	tasks := mailbox.New[sequencer.ProveTask](64)
	results := mailbox.New[sequencer.ProveResult](64)

	diffs := sequencer.NewDiffStore()

	var client sequencer.L1Client
	if c.String("l1-rpc-endpoint") != "" {
		client = sequencer.NewHTTPL1Client(c.String("l1-rpc-endpoint"))
	}
	proposer := common.HexToAddress(c.String("l1-proposer-addr"))
	bridge := common.HexToAddress(c.String("l1-bridge-addr"))
	coinbase := common.HexToAddress(c.String("coinbase"))

	program := &zkvm.GuestProgram{EntryPoint: "main", Version: 1}
	local := zkvm.NewMockBackend(chainConfig)

	var actors []actor.Actor

	if wanted["producer"] {
		actors = append(actors, sequencer.NewBlockProducer(chainConfig, executor, pool, store,
			c.Duration("block-period"), c.Uint64("block-gas-limit"), coinbase, candidates, log))
	}
	if wanted["updater"] {
		actors = append(actors, sequencer.NewStateUpdater(chainConfig, executor, store, candidates, finalized, diffs, log))
	}

	if wanted["watcher"] {
		if client == nil {
			return exitWith(1, fmt.Errorf("run: l1 watcher requested but --l1-rpc-endpoint is empty"))
		}
		actors = append(actors, sequencer.NewL1Watcher(client, bridge, chainConfig.ChainID, pool,
			c.Duration("l1-poll-period"), c.Uint64("l1-block-delay"), c.Uint64("l1-start-block"), log))
	}
	if wanted["committer"] {
		if client == nil {
			return exitWith(1, fmt.Errorf("run: l1 committer requested but --l1-rpc-endpoint is empty"))
		}
		limits := sequencer.BatchLimits{
			MaxBlocks:    c.Int("batch-max-blocks"),
			MaxGas:       c.Uint64("batch-max-gas"),
			MaxBlobBytes: c.Int("batch-max-blob-bytes"),
		}
		actors = append(actors, sequencer.NewL1Committer(client, proposer, finalized, diffs, limits,
			tasks, program, chainConfig.ChainID.Uint64(), 0, log))
	}
	var coord *sequencer.ProofCoordinator
	if wanted["prover"] {
		coord = sequencer.NewProofCoordinator(local, c.Duration("prove-timeout"), tasks, results, log)
		actors = append(actors, coord)
	}
	if wanted["verifier"] {
		if client == nil {
			return exitWith(1, fmt.Errorf("run: verifier sender requested but --l1-rpc-endpoint is empty"))
		}
		actors = append(actors, sequencer.NewVerifierSender(client, proposer, results, log))
	}

	var grpcSrv *grpc.Server
	if coord != nil && c.String("prover-grpc-addr") != "" {
		lis, err := net.Listen("tcp", c.String("prover-grpc-addr"))
		if err != nil {
			log.Error("prover gRPC listen failed, remote provers disabled", "addr", c.String("prover-grpc-addr"), "err", err)
		} else {
			grpcSrv = grpc.NewServer()
			sequencer.NewGRPCServer(grpcSrv, coord)
			go func() {
				if err := grpcSrv.Serve(lis); err != nil {
					log.Error("prover gRPC server stopped", "err", err)
				}
			}()
		}
	}

	sup := actor.NewSupervisor(log, 0, 30*time.Second)
	err := sup.Run(ctx, actors...)
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	return err
}

// acquireDatadirLock takes an exclusive, non-blocking lock on a LOCK
// file inside datadir so two execd processes can't run against the same
// directory concurrently — a concurrency guard, not a statement about
// the directory's physical layout (that layout itself is out of scope
// here), the same purpose go-ethereum's own node directory lock serves.
func acquireDatadirLock(datadir string) (*flock.Flock, bool, error) {
	if err := os.MkdirAll(datadir, 0o755); err != nil {
		return nil, false, fmt.Errorf("creating datadir: %w", err)
	}
	lock := flock.New(filepath.Join(datadir, "LOCK"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("locking datadir: %w", err)
	}
	return lock, locked, nil
}

// actorSet resolves the --actors flag to the set to run; an empty list
// means "all six", the common case for a standalone sequencer.
func actorSet(names []string) map[string]bool {
	all := map[string]bool{"producer": true, "watcher": true, "committer": true, "prover": true, "verifier": true, "updater": true}
	if len(names) == 0 {
		return all
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.TrimSpace(n)] = true
	}
	return set
}
