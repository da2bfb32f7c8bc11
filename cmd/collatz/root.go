package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/internal/config"
	"github.com/katalvlaran/collatz/internal/logging"
	"github.com/katalvlaran/collatz/memostore"
	"github.com/katalvlaran/collatz/metrics"
)

// errQueriesFailed is returned when at least one query produced -1.
var errQueriesFailed = errors.New("one or more queries failed")

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string

	cfg config.Config
	log *slog.Logger
	reg *prometheus.Registry
	rec *metrics.Recorder
}

// newRootCmd builds the command tree. Each call returns a fresh tree, so
// tests can run commands in isolation.
func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "collatz",
		Short: "Smallest integers with a given Collatz path length",
		Long: `collatz finds, for a path length L, the smallest positive integer whose
Collatz trajectory (down to and including 1) holds exactly L values.

Arithmetic is checked: when a 3n+1 step leaves the configured integer width
the query fails and prints -1 instead of a wrong answer.

Examples:
  collatz find 112            # 27
  collatz find 1 2 3 --json
  collatz length 837799       # 525
  collatz chain 6
  collatz verify --to 40
  collatz serve --addr :8080`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.Int("bits", 0, "integer width in [4,128]")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")
	pf.String("metrics-out", "", "write Prometheus text exposition to this file on exit")
	pf.Int("max-memo", 0, "cap on memo entries, 0 for none (default from config)")

	root.AddCommand(
		newFindCmd(a),
		newLengthCmd(a),
		newChainCmd(a),
		newVerifyCmd(a),
		newServeCmd(a),
	)

	// Metrics are written even when a query failed.
	for _, sub := range root.Commands() {
		run := sub.RunE
		sub.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if ferr := a.flushMetrics(); ferr != nil && err == nil {
				err = ferr
			}
			return err
		}
	}
	return root
}

// setup loads configuration, applies flag overrides and builds the logger
// and metrics registry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("bits") {
		cfg.Bits, _ = flags.GetInt("bits")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("metrics-out") {
		cfg.MetricsOut, _ = flags.GetString("metrics-out")
	}
	if flags.Changed("max-memo") {
		cfg.MaxMemo, _ = flags.GetInt("max-memo")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("shared-memo") {
		cfg.SharedMemo, _ = flags.GetBool("shared-memo")
	}
	if flags.Changed("store") {
		cfg.Store.Path, _ = flags.GetString("store")
	}
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(logging.Config{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.Format == "json",
		Service: "collatz",
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	a.reg = prometheus.NewRegistry()
	a.rec, err = metrics.NewRecorder(a.reg)
	return err
}

func (a *app) flushMetrics() error {
	if a.cfg.MetricsOut == "" || a.reg == nil {
		return nil
	}
	if err := metrics.WriteTextfile(a.cfg.MetricsOut, a.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	a.log.Debug("metrics written", slog.String("path", a.cfg.MetricsOut))
	return nil
}

// options returns the collatz options every query of this invocation uses.
func (a *app) options(cmd *cobra.Command, memo *collatz.Memo) []collatz.Option {
	return []collatz.Option{
		collatz.WithContext(cmd.Context()),
		collatz.WithBits(a.cfg.Bits),
		collatz.WithMaxWalk(a.cfg.MaxWalk),
		collatz.WithMaxMemo(a.cfg.MaxMemo),
		collatz.WithMemo(memo),
		collatz.WithOnRecord(a.rec.OnRecord()),
	}
}

// openMemo returns the memo for this invocation: nil (fresh per query)
// unless sharing or a store is configured. When a store is configured the
// archived entries are loaded, and the returned closer saves them back.
func (a *app) openMemo(cmd *cobra.Command) (*collatz.Memo, func() error, error) {
	noop := func() error { return nil }
	if !a.cfg.SharedMemo && !a.cfg.Store.Enabled() {
		return nil, noop, nil
	}
	memo := collatz.NewMemo()
	if !a.cfg.Store.Enabled() {
		return memo, noop, nil
	}

	store, err := memostore.Open(memostore.Config{
		Path:       a.cfg.Store.Path,
		InMemory:   a.cfg.Store.InMemory,
		SyncWrites: a.cfg.Store.SyncWrites,
		Logger:     a.log.With(slog.String("component", "badger")),
	})
	if err != nil {
		return nil, noop, err
	}
	added, err := store.Load(cmd.Context(), memo)
	if err != nil {
		_ = store.Close()
		return nil, noop, err
	}
	a.log.Debug("memo loaded", slog.Int("entries", added))
	a.rec.SetMemoEntries(memo.Len())

	closer := func() error {
		defer store.Close()
		// Archive even when the run was interrupted.
		written, err := store.Save(context.WithoutCancel(cmd.Context()), memo)
		if err != nil {
			return fmt.Errorf("save memo: %w", err)
		}
		a.log.Debug("memo saved", slog.Int("written", written))
		return nil
	}
	return memo, closer, nil
}
