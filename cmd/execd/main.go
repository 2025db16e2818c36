// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// execd is the standalone node binary: run an L1 or L2 chain, import/
// export RLP block archives, compute a genesis state root offline, and
// drive the L2 rollup lifecycle (deploy, init, prover, deposit,
// withdraw) — the single entrypoint every core/, internal/, l2/ and
// sync/ package in this module is wired together behind.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/corechain/execd/internal/xlog"
)

const clientIdentifier = "execd"

// errSchemaMismatch and errUserCancelled back exit codes 2 and 3 of the
// CLI contract (0 normal, 1 unrecoverable error, 2 schema mismatch, 3
// user-cancelled); every other failure surfaces as a bare error and
// exits 1.
var (
	errSchemaMismatch = errors.New("schema mismatch")
	errUserCancelled  = errors.New("operation cancelled")
)

// cliError pins an exit code to an error so main can report it without
// every command threading a code back through cli.Command's plain
// `error` return.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func main() {
	app := &cli.App{
		Name:    clientIdentifier,
		Usage:   "corechain execution client: EVM + L2 rollup sequencer node",
		Version: "0.1.0",
		Commands: []*cli.Command{
			runCommand,
			importCommand,
			exportCommand,
			computeStateRootCommand,
			l2Command,
		},
		Before: func(c *cli.Context) error {
			xlog.SetRoot(xlog.New(parseLevel(c.String("log-level"))))
			return nil
		},
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, error"},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ce *cliError
		if errors.As(err, &ce) {
			os.Exit(ce.code)
		}
		os.Exit(1)
	}
}

// parseLevel maps a CLI-facing level name to xlog.Level; xlog itself
// carries no string parser since its only other caller (internal
// component wiring) always picks a Level constant directly.
func parseLevel(s string) xlog.Level {
	switch s {
	case "debug":
		return xlog.LevelDebug
	case "warn":
		return xlog.LevelWarn
	case "error":
		return xlog.LevelError
	default:
		return xlog.LevelInfo
	}
}
