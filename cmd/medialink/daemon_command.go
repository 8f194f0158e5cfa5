package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"medialink/internal/daemon"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the reconciliation daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureService(); err != nil {
				return err
			}

			d := daemon.New(ctx.cfg, ctx.scanner, ctx.orch, ctx.logger)
			if err := d.Start(cmd.Context()); err != nil {
				return err
			}

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)

			select {
			case <-signals:
			case <-cmd.Context().Done():
			}

			d.Stop()
			return nil
		},
	}
}
