package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

// absolutizePaths resolves scan scope arguments the same way the match and
// ignore commands resolve their path argument, so relative paths compare
// against the store's absolute source paths.
func absolutizePaths(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", arg, err)
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [path ...]",
		Short: "Run one reconciliation pass; paths limit the scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}

			scope, err := absolutizePaths(args)
			if err != nil {
				return err
			}
			svc.TriggerScan(cmd.Context(), scope)
			ctx.orch.Wait()

			view, ok := svc.TaskStatus()
			if !ok {
				return fmt.Errorf("scan did not start")
			}
			if view.Err != "" {
				return fmt.Errorf("scan failed: %s", view.Err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Files", "Groups", "Matched", "Uncertain", "Not Found", "Ignored", "Linked", "Removed", "Errors"},
				[][]string{{
					strconv.Itoa(view.Counts.Files),
					strconv.Itoa(view.Counts.Groups),
					strconv.Itoa(view.Counts.Matched),
					strconv.Itoa(view.Counts.Uncertain),
					strconv.Itoa(view.Counts.NotFound),
					strconv.Itoa(view.Counts.Ignored),
					strconv.Itoa(view.Counts.Linked),
					strconv.Itoa(view.Counts.Removed),
					strconv.Itoa(view.Counts.Errors),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}
