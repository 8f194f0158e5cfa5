package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"medialink/internal/api"
	"medialink/internal/media"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var (
		queryFlag string
		yearFlag  int
		idFlag    int64
		kindFlag  string
		groupFlag bool
	)

	cmd := &cobra.Command{
		Use:   "match <path>",
		Short: "Pin a file (or its group) to a metadata identity",
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

			kind := media.KindUncertain
			if kindFlag != "" {
				parsed, ok := media.ParseKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown kind %q", kindFlag)
				}
				kind = parsed
			}

			result, err := svc.ManualMatch(cmd.Context(), api.MatchRequest{
				Path:         path,
				Query:        queryFlag,
				Year:         yearFlag,
				TMDBID:       idFlag,
				Kind:         kind,
				ApplyToGroup: groupFlag,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "matched %q to %s (%d), tmdb %d\n",
				filepath.Base(path), result.CanonicalName, result.Year, result.MediaID)
			fmt.Fprintf(out, "updated %d file(s), created %d link(s)\n", result.Updated, result.Linked)
			if result.SkippedManual > 0 {
				fmt.Fprintf(out, "left %d manually fixed sibling(s) untouched\n", result.SkippedManual)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&queryFlag, "query", "", "Search metadata by title")
	cmd.Flags().IntVar(&yearFlag, "year", 0, "Narrow the search to a year")
	cmd.Flags().Int64Var(&idFlag, "tmdb-id", 0, "Pin the TMDB id directly")
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Force movie or tv")
	cmd.Flags().BoolVar(&groupFlag, "group", false, "Apply the match to every member of the owning group")

	return cmd
}
