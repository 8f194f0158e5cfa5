package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

// rebuild recovers from a lost or incompatible database: the old database is
// moved aside, link records are reconstructed from the symlinks already in
// the target tree, and a full scan restores the match records.
func newRebuildCommand(ctx *commandContext) *cobra.Command {
	var keepDBFlag bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild state from the existing symlink tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if !keepDBFlag {
				if err := archiveDatabase(cfg.DatabasePath); err != nil {
					return err
				}
			}

			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}

			count, err := svc.RebuildLinks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recovered %d link record(s) from %s\n", count, cfg.TargetDir)

			svc.TriggerScan(cmd.Context(), nil)
			ctx.orch.Wait()

			view, ok := svc.TaskStatus()
			if !ok {
				return errors.New("rebuild scan did not start")
			}
			if view.Err != "" {
				return fmt.Errorf("rebuild scan failed: %s", view.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %d match record(s) across %d group(s)\n",
				view.Counts.Matched+view.Counts.Uncertain+view.Counts.NotFound, view.Counts.Groups)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepDBFlag, "keep-db", false, "Reuse the existing database instead of archiving it")
	return cmd
}

// archiveDatabase moves the database and its WAL companions out of the way
// rather than deleting them.
func archiveDatabase(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		src := path + suffix
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.Rename(src, src+".bak"); err != nil {
			return fmt.Errorf("archive %s: %w", src, err)
		}
	}
	return nil
}
