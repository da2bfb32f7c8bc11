package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/inverse"
	"github.com/katalvlaran/collatz/u128"
)

// errMismatch is returned when the two methods disagree.
var errMismatch = errors.New("find and inverse disagree")

// verifyRow compares both methods for one length.
type verifyRow struct {
	length   int
	forward  string
	backward string
	status   string
}

func newVerifyCmd(a *app) *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-check find against the predecessor tree",
		Long: `For every length in [from, to], compute the answer twice: once with the
forward memoized search and once as the minimum of the predecessor-tree level.
Prints "L<TAB>find<TAB>inverse<TAB>status".

status is "ok", "MISMATCH", or "skipped" when the forward search overflowed
(the tree prunes out-of-width values instead of failing).

Tree levels grow like (4/3)^L, so keep --to modest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from < 0 || to < from {
				return fmt.Errorf("invalid range [%d, %d]", from, to)
			}
			return a.runVerify(cmd, from, to)
		},
	}
	cmd.Flags().IntVar(&from, "from", 1, "first length")
	cmd.Flags().IntVar(&to, "to", 40, "last length")
	cmd.Flags().Int("workers", 0, "lengths checked concurrently (default from config)")
	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, from, to int) error {
	rows := make([]verifyRow, to-from+1)
	memo := collatz.NewMemo()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.cfg.Workers)
	for i := range rows {
		length := from + i
		g.Go(func() error {
			start := time.Now()
			res, ferr := collatz.Find(length, a.options(cmd, memo)...)
			a.rec.ObserveFind(res, ferr, time.Since(start))

			smallest, ierr := inverse.Smallest(length,
				inverse.WithContext(ctx),
				inverse.WithBits(a.cfg.Bits),
			)
			if ierr != nil && !errors.Is(ierr, inverse.ErrEmptyLevel) {
				return fmt.Errorf("inverse level %d: %w", length, ierr)
			}

			row := verifyRow{length: length, forward: "-1", backward: "-1"}
			if ferr == nil {
				row.forward = res.Value.String()
			}
			if ierr == nil {
				row.backward = smallest.String()
			}
			row.status = compare(res.Value, ferr, smallest, ierr)
			if row.status == "MISMATCH" {
				a.log.Error("mismatch", slog.Int("length", length),
					slog.String("find", row.forward), slog.String("inverse", row.backward))
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	mismatches := 0
	for _, r := range rows {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", r.length, r.forward, r.backward, r.status)
		if r.status == "MISMATCH" {
			mismatches++
		}
	}
	a.log.Info("verify done", slog.Int("lengths", len(rows)), slog.Int("mismatches", mismatches))
	if mismatches > 0 {
		return fmt.Errorf("%w on %d lengths", errMismatch, mismatches)
	}
	return nil
}

func compare(forward u128.Uint128, ferr error, backward u128.Uint128, ierr error) string {
	switch {
	case errors.Is(ferr, collatz.ErrOverflow):
		return "skipped"
	case ferr != nil || ierr != nil:
		return "MISMATCH"
	case forward != backward:
		return "MISMATCH"
	default:
		return "ok"
	}
}
