package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webrig/webrig/config"
	"github.com/webrig/webrig/internal/history"
)

func historyCmd() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded test runs",
		Long: `Read the run-history database and list recent runs, or the per-test
results of one run.

Examples:
  webrig history
  webrig history --limit 5
  webrig history --run 2f9c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg := config.Load(config.Options{File: configFile, Logger: zap.NewNop()})

			path := cfg.StringOr("HISTORY_DB_PATH",
				filepath.Join(cfg.StringOr("REPORT_OUTPUT_DIR", "./target/report"), "history.db"))
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no history database at %s", path)
			}
			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return printResults(store, runID)
			}
			return printRuns(store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show per-test results for one run id")
	return cmd
}

func printRuns(store *history.Store, limit int) error {
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Run", "Title", "Started", "Pass", "Fail", "Skip", "Report"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range runs {
		table.Append([]string{
			shortID(r.ID),
			r.Title,
			r.StartedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%d", r.Passed),
			fmt.Sprintf("%d", r.Failed),
			fmt.Sprintf("%d", r.Skipped),
			r.ReportPath,
		})
	}
	table.Render()
	return nil
}

func printResults(store *history.Store, runID string) error {
	results, err := store.Results(runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("no results recorded for run %s\n", runID)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Class", "Method", "Status", "Duration", "Session", "Error"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range results {
		table.Append([]string{
			r.ClassName,
			r.Method,
			r.Status,
			r.Duration.Round(time.Millisecond).String(),
			r.SessionID,
			r.Error,
		})
	}
	table.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
