package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"medialink/internal/media"
	"medialink/internal/titles"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var stateFlag string

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List match records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}

			var states []media.MatchState
			if stateFlag != "" {
				state, ok := media.ParseState(stateFlag)
				if !ok {
					return fmt.Errorf("unknown state %q", stateFlag)
				}
				states = append(states, state)
			}

			records, err := svc.Records(cmd.Context(), states...)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				name := rec.CanonicalName
				if name == "" {
					// Unresolved records still get a readable name from the file.
					base := filepath.Base(rec.SourcePath)
					base = strings.TrimSuffix(base, filepath.Ext(base))
					name = titles.Display(titles.Parse(base).Title)
				}
				if rec.Kind == media.KindTV && rec.Episode > 0 {
					name = fmt.Sprintf("%s S%02dE%02d", name, rec.Season, rec.Episode)
				}
				rows = append(rows, []string{
					string(rec.State),
					string(rec.Kind),
					name,
					strconv.FormatInt(rec.MediaID, 10),
					rec.SourcePath,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"State", "Kind", "Name", "TMDB", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "Filter by state (matched, uncertain, notfound, manual, ignored)")
	return cmd
}
