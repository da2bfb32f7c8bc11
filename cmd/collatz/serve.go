package main

import (
	"github.com/spf13/cobra"

	"github.com/katalvlaran/collatz/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP",
		Long: `Serve the finder over HTTP until interrupted.

  GET /v1/smallest/:length
  GET /v1/length/:value
  GET /v1/trajectory/:value
  GET /healthz
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			memo, saveMemo, err := a.openMemo(cmd)
			if err != nil {
				return err
			}
			srv := server.New(server.Deps{
				Config:   a.cfg,
				Memo:     memo,
				Recorder: a.rec,
				Gatherer: a.reg,
				Logger:   a.log,
			})
			runErr := srv.Run(cmd.Context())
			if err = saveMemo(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	cmd.Flags().Bool("shared-memo", false, "share one memo across all requests")
	cmd.Flags().String("store", "", "BadgerDB directory that persists the memo between runs")
	return cmd
}
