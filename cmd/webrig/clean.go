package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webrig/webrig/config"
	"github.com/webrig/webrig/internal/fileutil"
)

func cleanCmd() *cobra.Command {
	var maxAgeHours int

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale report, video and log artifacts",
		Long: `Sweep the configured report, video and log output directories, removing
files older than the retention window. The directories themselves are kept.

Examples:
  webrig clean
  webrig clean --max-age-hours 24`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg := config.Load(config.Options{File: configFile, Logger: zap.NewNop()})

			if maxAgeHours <= 0 {
				maxAgeHours = cfg.IntOr("ARTIFACT_MAX_AGE_HOURS", 168)
			}
			maxAge := time.Duration(maxAgeHours) * time.Hour

			dirs := []string{
				cfg.StringOr("REPORT_OUTPUT_DIR", "./target/report"),
				cfg.StringOr("VIDEO_OUTPUT_DIR", "./target/videos"),
				cfg.Env("LOG_OUTPUT_DIR"),
			}
			total := 0
			for _, dir := range dirs {
				if dir == "" {
					continue
				}
				removed, err := fileutil.CleanDir(dir, maxAge, nil)
				if err != nil {
					fmt.Printf("  %s: %v\n", dir, err)
					continue
				}
				fmt.Printf("  %s: %d file(s) removed\n", dir, removed)
				total += removed
			}
			fmt.Printf("%d file(s) removed in total\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeHours, "max-age-hours", 0, "retention window in hours (default: configured)")
	return cmd
}
