package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newIgnoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <path>",
		Short: "Hide a file from automatic processing and remove its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if err := svc.Ignore(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ignoring %s\n", path)
			return nil
		},
	}
}

func newUnignoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unignore <path>",
		Short: "Return an ignored file to automatic processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if err := svc.Unignore(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s will be reconsidered on the next scan\n", path)
			return nil
		},
	}
}
