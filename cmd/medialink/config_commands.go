package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"medialink/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigInitCommand(ctx))
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source_dir = %q\n", cfg.SourceDir)
			fmt.Fprintf(out, "target_dir = %q\n", cfg.TargetDir)
			fmt.Fprintf(out, "database_path = %q\n", cfg.DatabasePath)
			for _, mapping := range cfg.PathMappings {
				fmt.Fprintf(out, "path_mapping: %q -> %q\n", mapping.From, mapping.To)
			}
			fmt.Fprintf(out, "tmdb.base_url = %q\n", cfg.TMDB.BaseURL)
			fmt.Fprintf(out, "tmdb.language = %q\n", cfg.TMDB.Language)
			fmt.Fprintf(out, "tmdb.confidence_threshold = %.2f\n", cfg.TMDB.ConfidenceThreshold)
			fmt.Fprintf(out, "watch.poll_interval_seconds = %d\n", cfg.Watch.PollIntervalSeconds)
			fmt.Fprintf(out, "watch.quiet_window_seconds = %d\n", cfg.Watch.QuietWindowSeconds)
			fmt.Fprintf(out, "logging.level = %q\n", cfg.Logging.Level)
			fmt.Fprintf(out, "logging.format = %q\n", cfg.Logging.Format)
			return nil
		},
	}
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *ctx.configFlag
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !forceFlag {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing file")
	return cmd
}
