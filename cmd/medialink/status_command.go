package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"medialink/internal/media"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show record counts by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}

			counts, err := svc.StateCounts(cmd.Context())
			if err != nil {
				return err
			}

			states := media.AllStates()
			rows := make([][]string, 0, len(states)+1)
			total := 0
			for _, state := range states {
				rows = append(rows, []string{string(state), strconv.Itoa(counts[state])})
				total += counts[state]
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"State", "Records"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
