// Copyright 2025 The corechain Authors
// This file is part of the corechain execution client.

// Package config loads execd's runtime configuration from flags,
// environment variables and an optional config file, layered the way
// luxfi-evm's own node configuration does (spf13/viper bound to
// spf13/pflag, env override, typed getters via spf13/cast).
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration for an execd process:
// data directory, network identity, RPC endpoints, sync mode, and the
// L2 actor set to run.
type Config struct {
	v *viper.Viper
}

// RegisterFlags adds execd's top-level flags to fs, mirroring
// luxfi-evm's own `cmd/.../flags.go` convention of one pflag.FlagSet
// shared between the CLI layer and viper.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("datadir", "./execd-data", "data directory for chain state and ancient data")
	fs.String("network", "mainnet", "named network preset (mainnet, sepolia, an l2 devnet name, ...)")
	fs.Int64("chain-id", 1, "chain ID this node executes")
	fs.Bool("l2", false, "run in L2 mode (EXECUTE precompile, sequencer actors)")
	fs.String("sync-mode", "snap", "sync mode: snap or full")
	fs.String("http-addr", "127.0.0.1:8545", "JSON-RPC listen address")
	fs.Int("http-port", 8545, "JSON-RPC listen port")
	fs.Int("authrpc-port", 8551, "authenticated engine-API listen port")
	fs.String("evm-backend", "levm", "EVM execution backend: levm (this module's own core/vm) or revm (not built; accepted for CLI-contract compatibility)")
	fs.StringSlice("actors", nil, "L2 actors to run: producer,watcher,committer,prover,verifier,updater")
	fs.String("da-endpoint", "", "data-availability layer endpoint for batch submission")
	fs.Duration("block-period", 2*time.Second, "L2 block production period")
	fs.String("log-level", "info", "minimum log level: debug, info, warn, error")

	fs.String("l1-rpc-endpoint", "", "L1 JSON-RPC endpoint the L2 actors read/write through")
	fs.String("l1-bridge-addr", "", "L1 bridge contract address (deposits, L1-to-L2 messages)")
	fs.String("l1-proposer-addr", "", "L1 OnChainProposer contract address (commitBatch/verifyBatch)")
	fs.Uint64("l1-start-block", 0, "L1 block to start the watcher/committer scan from")
	fs.Duration("l1-poll-period", 12*time.Second, "L1 watcher poll interval")
	fs.Uint64("l1-block-delay", 5, "L1 blocks to wait for reorg safety before acting on an event")

	fs.Int("batch-max-blocks", 32, "maximum L2 blocks per sealed batch")
	fs.Uint64("batch-max-gas", 0, "maximum cumulative gas per sealed batch (0 disables)")
	fs.Int("batch-max-blob-bytes", 120*1024, "maximum DA blob size per sealed batch")
	fs.Duration("prove-timeout", 10*time.Minute, "time before an in-flight proof attempt is requeued")
	fs.String("prover-grpc-addr", "127.0.0.1:50051", "listen address for remote ProverWorker clients")

	fs.Uint64("block-gas-limit", 30_000_000, "gas limit sealed into each produced block")
	fs.String("coinbase", "", "address credited with block rewards/fees the Block Producer seals")
}

// Load binds fs, environment variables (EXECD_-prefixed) and an
// optional config file at path into a resolved Config. An empty path
// skips the file layer — flags and environment still apply.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("execd")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return &Config{v: v}, nil
}

func (c *Config) DataDir() string        { return c.v.GetString("datadir") }
func (c *Config) Network() string        { return c.v.GetString("network") }
func (c *Config) ChainID() int64         { return c.v.GetInt64("chain-id") }
func (c *Config) IsL2() bool             { return c.v.GetBool("l2") }
func (c *Config) SyncMode() string       { return c.v.GetString("sync-mode") }
func (c *Config) HTTPAddr() string       { return c.v.GetString("http-addr") }
func (c *Config) HTTPPort() int          { return c.v.GetInt("http-port") }
func (c *Config) AuthRPCPort() int       { return c.v.GetInt("authrpc-port") }
func (c *Config) EVMBackend() string     { return c.v.GetString("evm-backend") }
func (c *Config) Actors() []string       { return c.v.GetStringSlice("actors") }
func (c *Config) DAEndpoint() string     { return c.v.GetString("da-endpoint") }
func (c *Config) BlockPeriod() time.Duration { return c.v.GetDuration("block-period") }
func (c *Config) LogLevel() string       { return c.v.GetString("log-level") }

func (c *Config) L1RPCEndpoint() string      { return c.v.GetString("l1-rpc-endpoint") }
func (c *Config) L1BridgeAddr() string       { return c.v.GetString("l1-bridge-addr") }
func (c *Config) L1ProposerAddr() string     { return c.v.GetString("l1-proposer-addr") }
func (c *Config) L1StartBlock() uint64       { return c.v.GetUint64("l1-start-block") }
func (c *Config) L1PollPeriod() time.Duration { return c.v.GetDuration("l1-poll-period") }
func (c *Config) L1BlockDelay() uint64       { return c.v.GetUint64("l1-block-delay") }

func (c *Config) BatchMaxBlocks() int       { return c.v.GetInt("batch-max-blocks") }
func (c *Config) BatchMaxGas() uint64       { return c.v.GetUint64("batch-max-gas") }
func (c *Config) BatchMaxBlobBytes() int    { return c.v.GetInt("batch-max-blob-bytes") }
func (c *Config) ProveTimeout() time.Duration { return c.v.GetDuration("prove-timeout") }
func (c *Config) ProverGRPCAddr() string    { return c.v.GetString("prover-grpc-addr") }

func (c *Config) BlockGasLimit() uint64 { return c.v.GetUint64("block-gas-limit") }
func (c *Config) Coinbase() string      { return c.v.GetString("coinbase") }
