package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/metrics"
	"github.com/katalvlaran/collatz/u128"
)

// findOutcome is one line of find output.
type findOutcome struct {
	Length   int    `json:"length"`
	Value    string `json:"value"`
	Explored uint64 `json:"explored,omitempty"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
}

func newFindCmd(a *app) *cobra.Command {
	var (
		jsonOut bool
		below   string
	)

	cmd := &cobra.Command{
		Use:   "find L [L...]",
		Short: "Print the smallest integer with path length L",
		Long: `Print, for every path length L, the smallest positive integer whose
Collatz trajectory holds exactly L values. Output is "L<TAB>value" per line,
in argument order. A failed query prints -1 and the command exits non-zero.

Lengths 0 and 1 print themselves.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := make([]int, len(args))
			for i, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("length %q: %w", arg, err)
				}
				targets[i] = n
			}
			var extra []collatz.Option
			if below != "" {
				bound, err := u128.Parse(below)
				if err != nil {
					return fmt.Errorf("below: %w", err)
				}
				extra = append(extra, collatz.WithBound(bound))
			}
			return a.runFind(cmd, targets, jsonOut, extra)
		},
	}

	f := cmd.Flags()
	f.Int("workers", 0, "queries run concurrently (default from config)")
	f.Bool("shared-memo", false, "share one memo across all queries")
	f.String("store", "", "BadgerDB directory that persists the memo between runs")
	f.BoolVar(&jsonOut, "json", false, "print a JSON array instead of lines")
	f.StringVar(&below, "below", "", "search only starts below this value")
	return cmd
}

func (a *app) runFind(cmd *cobra.Command, targets []int, jsonOut bool, extra []collatz.Option) error {
	log := a.log.With(slog.String("query_id", uuid.NewString()))

	memo, saveMemo, err := a.openMemo(cmd)
	if err != nil {
		return err
	}

	out := make([]findOutcome, len(targets))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.cfg.Workers)
	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := collatz.Find(target, append(a.options(cmd, memo), extra...)...)
			a.rec.ObserveFind(res, err, time.Since(start))

			o := findOutcome{Length: target, Outcome: metrics.Classify(err)}
			if err != nil {
				o.Value, o.Error = "-1", err.Error()
				log.Warn("query failed", slog.Int("length", target), slog.Any("error", err))
			} else {
				o.Value, o.Explored = res.Value.String(), res.Explored
				log.Debug("query done",
					slog.Int("length", target),
					slog.String("value", o.Value),
					slog.Uint64("explored", res.Explored),
					slog.Duration("elapsed", time.Since(start)),
				)
			}
			out[i] = o
			return nil
		})
	}
	waitErr := g.Wait()
	saveErr := saveMemo()
	if waitErr != nil {
		return waitErr
	}
	if saveErr != nil {
		return saveErr
	}

	if err = printFind(cmd, out, jsonOut); err != nil {
		return err
	}
	for _, o := range out {
		if o.Error != "" {
			return errQueriesFailed
		}
	}
	return nil
}

func printFind(cmd *cobra.Command, out []findOutcome, jsonOut bool) error {
	w := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, o := range out {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", o.Length, o.Value); err != nil {
			return err
		}
	}
	return nil
}
