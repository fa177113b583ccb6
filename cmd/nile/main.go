// Command nile is the CLI entrypoint wiring Factory/Router/Oracle/
// Treasury into a single process, following
// RovshanMuradov-solana-bot/cmd/bot/main.go's runner shape: build a
// logger, build a config, construct a long-lived runner, dispatch one
// subcommand, log and exit non-zero on failure.
//
// No cobra/cli-framework dependency is wired in (see SPEC_FULL.md
// §1a) — subcommand parsing stays on the standard library's flag
// package, matching cmd/tui/main.go in that same repo.
//
// Each invocation of this binary starts from an empty in-memory
// ledger; there is no cross-process persistence here, since a real
// deployment's store.Store would be backed by a durable KV engine
// this module does not provide (out of scope, see SPEC_FULL.md §3).
// This entrypoint exists to exercise the wiring end to end, not to be
// a production daemon.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nile-protocol/nile-core/internal/chain"
	"github.com/nile-protocol/nile-core/internal/config"
	"github.com/nile-protocol/nile-core/internal/core"
	"github.com/nile-protocol/nile-core/internal/fixedpoint"
	"github.com/nile-protocol/nile-core/internal/logging"
)

func main() {
	configPath := flag.String("config", "configs/nile.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("starting nile-core", zap.String("environment", cfg.Environment))

	threshold, err := uint256.FromDecimal(cfg.GraduationThreshold)
	if err != nil {
		logger.Fatal("invalid graduation_threshold", zap.Error(err))
		os.Exit(1)
	}

	ledger := core.New(
		chain.Address(cfg.OwnerAddress),
		chain.Address(cfg.ProtocolWalletAddress),
		threshold,
		logger,
	)

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: nile <create-soul-token|quote-buy> ...")
		os.Exit(1)
	}

	if err := dispatch(ledger, logger, args[0], args[1:]); err != nil {
		logger.Fatal("command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func dispatch(ledger *core.Ledger, logger *zap.Logger, cmd string, args []string) error {
	switch cmd {
	case "create-soul-token":
		return cmdCreateSoulToken(ledger, logger, args)
	case "quote-buy":
		return cmdQuoteBuy(ledger, logger, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdCreateSoulToken(ledger *core.Ledger, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("create-soul-token", flag.ContinueOnError)
	name := fs.String("name", "", "person name")
	symbol := fs.String("symbol", "", "token symbol")
	if err := fs.Parse(args); err != nil {
		return err
	}
	personID := uuid.New()
	pair, err := ledger.CreateSoulToken(ledger.Owner, personID, *name, *symbol)
	if err != nil {
		return err
	}
	logger.Info("soul token created",
		zap.String("person_id", personID.String()),
		zap.String("token", string(pair.Token)),
		zap.String("curve", string(pair.Curve)),
	)
	return nil
}

func cmdQuoteBuy(ledger *core.Ledger, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("quote-buy", flag.ContinueOnError)
	personIDStr := fs.String("person-id", "", "person id")
	amount := fs.Uint64("amount", 0, "whole-unit coin amount to quote")
	if err := fs.Parse(args); err != nil {
		return err
	}
	personID, err := uuid.Parse(*personIDStr)
	if err != nil {
		return err
	}
	tokensOut, err := ledger.Router.QuoteBuy(personID, fixedpoint.FromUint64(*amount))
	if err != nil {
		return err
	}
	logger.Info("quote", zap.String("tokens_out", tokensOut.Dec()))
	return nil
}
