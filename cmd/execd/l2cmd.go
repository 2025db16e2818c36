// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

package main

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/internal/mailbox"
	"github.com/corechain/execd/internal/xlog"
	"github.com/corechain/execd/l2/actor"
	"github.com/corechain/execd/l2/contracts"
	"github.com/corechain/execd/l2/sequencer"
	"github.com/corechain/execd/zkvm"
)

var l2Command = &cli.Command{
	Name:  "l2",
	Usage: "L2 rollup lifecycle: deploy, init, prover, deposit, withdraw",
	Subcommands: []*cli.Command{
		l2DeployCommand,
		l2InitCommand,
		l2ProverCommand,
		l2DepositCommand,
		l2WithdrawCommand,
	},
}

var l2DeployCommand = &cli.Command{
	Name:      "deploy",
	Usage:     "print the predeploy addresses and chain-ID a fresh L2 deployment needs in its genesis alloc",
	ArgsUsage: "<chain-id>",
	Action:    l2Deploy,
}

var l2InitCommand = &cli.Command{
	Name:      "init",
	Usage:     "merge the L2 predeploy set into a genesis.json, producing an L2-ready genesis file",
	ArgsUsage: "<genesis.json> <out-genesis.json>",
	Action:    l2Init,
}

var l2ProverCommand = &cli.Command{
	Name:  "prover",
	Usage: "run only the Proof Coordinator, serving remote ProverWorker clients over gRPC",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "chain-id", Value: 1},
		&cli.BoolFlag{Name: "l2"},
		&cli.DurationFlag{Name: "prove-timeout", Value: 10 * time.Minute},
		&cli.StringFlag{Name: "prover-grpc-addr", Value: "127.0.0.1:50051"},
	},
	Action: l2Prover,
}

var l2DepositCommand = &cli.Command{
	Name:      "deposit",
	Usage:     "build and submit a depositTransaction call against the L1 bridge",
	ArgsUsage: "<recipient> <amount-wei>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "l1-rpc-endpoint", Required: true},
		&cli.StringFlag{Name: "l1-bridge-addr", Required: true},
		&cli.BoolFlag{Name: "yes", Usage: "skip the confirmation prompt"},
	},
	Action: l2Deposit,
}

var l2WithdrawCommand = &cli.Command{
	Name:      "withdraw",
	Usage:     "build and submit an initiateWithdrawal call against the L2ToL1MessagePasser predeploy",
	ArgsUsage: "<recipient> <amount-wei>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "l1-rpc-endpoint", Required: true},
		&cli.BoolFlag{Name: "yes", Usage: "skip the confirmation prompt"},
	},
	Action: l2Withdraw,
}

// l2Deploy prints the fixed predeploy set every L2 genesis needs
// (L2ToL1MessagePasser today; more predeploys land here as the rollup
// gains them) rather than writing anything — `init` is the command that
// actually produces a genesis file.
func l2Deploy(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return exitWith(1, fmt.Errorf("l2 deploy: usage: l2 deploy <chain-id>"))
	}
	fmt.Printf("chain-id: %s\n", c.Args().First())
	fmt.Printf("predeploy L2ToL1MessagePasser: %s\n", contracts.L2ToL1MessagePasser.Hex())
	return nil
}

// l2Init loads a plain genesis.json and writes one back out with the
// fixed predeploy accounts present in alloc, giving the bridge contract
// somewhere to log WithdrawalInitiated events against on day one. An
// account already present in the source file is left untouched rather
// than overwritten, so a caller can pre-seed the predeploy with custom
// storage and re-run init idempotently.
func l2Init(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return exitWith(1, fmt.Errorf("l2 init: usage: l2 init <genesis.json> <out-genesis.json>"))
	}
	genesis, err := loadGenesis(c.Args().Get(0))
	if err != nil {
		return exitWith(1, fmt.Errorf("l2 init: %w", err))
	}
	if _, exists := genesis.Alloc[contracts.L2ToL1MessagePasser]; !exists {
		genesis.Alloc[contracts.L2ToL1MessagePasser] = emptyPredeployAccount()
	}
	if err := writeGenesis(genesis, c.Args().Get(1)); err != nil {
		return exitWith(1, fmt.Errorf("l2 init: %w", err))
	}
	xlog.Root().Info("wrote L2 genesis", "out", c.Args().Get(1))
	return nil
}

// l2Prover runs a standalone Proof Coordinator with no chain actors
// attached — a node operator dedicating a machine to proving without
// also sequencing, talking to remote ProverWorker clients over the same
// gRPC surface runNode wires into a full sequencer.
func l2Prover(c *cli.Context) error {
	log := xlog.Root().With("cmd", "l2-prover")
	chainConfig := chainConfigFor(c)

	tasks := mailbox.New[sequencer.ProveTask](64)
	results := mailbox.New[sequencer.ProveResult](64)
	local := zkvm.NewMockBackend(chainConfig)
	coord := sequencer.NewProofCoordinator(local, c.Duration("prove-timeout"), tasks, results, log)

	lis, err := net.Listen("tcp", c.String("prover-grpc-addr"))
	if err != nil {
		return exitWith(1, fmt.Errorf("l2 prover: listening on %s: %w", c.String("prover-grpc-addr"), err))
	}
	srv := grpc.NewServer()
	sequencer.NewGRPCServer(srv, coord)
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Error("prover gRPC server stopped", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	sup := actor.NewSupervisor(log, 0, 30*time.Second)
	err = sup.Run(ctx, coord)
	srv.GracefulStop()
	return err
}

// l2Deposit builds depositTransaction calldata and submits it through
// an endpoint-side signer (see HTTPL1Client's doc comment): this
// command never touches a private key, matching the same no-sender
// design as the L1 Committer and Verifier Sender actors.
func l2Deposit(c *cli.Context) error {
	recipient, amount, err := parseRecipientAmount(c)
	if err != nil {
		return exitWith(1, fmt.Errorf("l2 deposit: %w", err))
	}
	if !c.Bool("yes") && !confirm(fmt.Sprintf("deposit %s wei to %s on L1 bridge %s?", amount, recipient.Hex(), c.String("l1-bridge-addr"))) {
		return exitWith(3, errUserCancelled)
	}
	client := sequencer.NewHTTPL1Client(c.String("l1-rpc-endpoint"))
	data := contracts.EncodeDeposit(recipient, amount)
	txHash, err := client.SendTransaction(c.Context, common.HexToAddress(c.String("l1-bridge-addr")), data)
	if err != nil {
		return exitWith(1, fmt.Errorf("l2 deposit: %w", err))
	}
	fmt.Println(txHash.Hex())
	return nil
}

// l2Withdraw mirrors l2Deposit against the fixed L2ToL1MessagePasser
// predeploy instead of a configurable bridge address.
func l2Withdraw(c *cli.Context) error {
	recipient, amount, err := parseRecipientAmount(c)
	if err != nil {
		return exitWith(1, fmt.Errorf("l2 withdraw: %w", err))
	}
	if !c.Bool("yes") && !confirm(fmt.Sprintf("withdraw %s wei to %s via %s?", amount, recipient.Hex(), contracts.L2ToL1MessagePasser.Hex())) {
		return exitWith(3, errUserCancelled)
	}
	client := sequencer.NewHTTPL1Client(c.String("l1-rpc-endpoint"))
	data := contracts.EncodeWithdraw(recipient, amount)
	txHash, err := client.SendTransaction(c.Context, contracts.L2ToL1MessagePasser, data)
	if err != nil {
		return exitWith(1, fmt.Errorf("l2 withdraw: %w", err))
	}
	fmt.Println(txHash.Hex())
	return nil
}

func parseRecipientAmount(c *cli.Context) (common.Address, *big.Int, error) {
	if c.Args().Len() < 2 {
		return common.Address{}, nil, fmt.Errorf("usage: <recipient> <amount-wei>")
	}
	recipientHex := c.Args().Get(0)
	if !common.IsHexAddress(recipientHex) {
		return common.Address{}, nil, fmt.Errorf("invalid recipient address %q", recipientHex)
	}
	amount, ok := new(big.Int).SetString(c.Args().Get(1), 10)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("invalid amount %q", c.Args().Get(1))
	}
	return common.HexToAddress(recipientHex), amount, nil
}

// confirm reads a single y/n line from stdin; only an exact "y" or
// "yes" (case-insensitive) proceeds.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
