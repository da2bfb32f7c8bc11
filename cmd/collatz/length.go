package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/metrics"
	"github.com/katalvlaran/collatz/u128"
)

func newLengthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "length N [N...]",
		Short: "Print the path length of N",
		Long: `Print "N<TAB>length" for every N. PathLength(1) is 1 and PathLength(0) is 0.
A value whose trajectory leaves the integer width prints -1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(args)
			if err != nil {
				return err
			}

			memo, saveMemo, err := a.openMemo(cmd)
			if err != nil {
				return err
			}
			if memo == nil {
				// Consecutive values share suffixes; one memo serves the whole call.
				memo = collatz.NewMemo()
			}

			failed := false
			for _, v := range values {
				start := time.Now()
				l, err := collatz.PathLength(v, a.options(cmd, memo)...)
				a.rec.Observe(metrics.KindLength, err, time.Since(start))
				if err != nil {
					failed = true
					l = -1
					a.log.Warn("length failed", slog.String("value", v.String()), slog.Any("error", err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", v, l)
			}
			if err = saveMemo(); err != nil {
				return err
			}
			if failed {
				return errQueriesFailed
			}
			return nil
		},
	}
	cmd.Flags().String("store", "", "BadgerDB directory that persists the memo between runs")
	return cmd
}

func newChainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chain N",
		Short: "Print the trajectory of N down to 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseValues(args)
			if err != nil {
				return err
			}

			start := time.Now()
			traj, err := collatz.Trajectory(values[0], a.options(cmd, nil)...)
			a.rec.Observe(metrics.KindTrajectory, err, time.Since(start))
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), -1)
				return err
			}

			parts := make([]string, len(traj))
			for i, v := range traj {
				parts[i] = v.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
			return nil
		},
	}
}

func parseValues(args []string) ([]u128.Uint128, error) {
	out := make([]u128.Uint128, len(args))
	for i, arg := range args {
		v, err := u128.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", arg, err)
		}
		out[i] = v
	}
	return out, nil
}
