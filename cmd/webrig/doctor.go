package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webrig/webrig/config"
	"github.com/webrig/webrig/driver"
	"github.com/webrig/webrig/internal/history"
)

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the test environment and diagnose issues",
		Long: `Run diagnostics on the webrig setup.

Checks:
  - Configuration files and overrides
  - Output directories
  - Playwright driver availability
  - System browser binaries
  - History database`,
		Run: func(cmd *cobra.Command, args []string) {
			configFile, _ := cmd.Flags().GetString("config")
			runDoctor(configFile)
		},
	}
}

func runDoctor(configFile string) {
	fmt.Println("\033[1mwebrig doctor\033[0m")
	fmt.Println("=============")
	fmt.Println()

	cfg := config.Load(config.Options{File: configFile, Logger: zap.NewNop()})

	var results []checkResult
	results = append(results, checkConfig(cfg, configFile)...)
	results = append(results, checkDirectories(cfg)...)
	results = append(results, checkPlaywright())
	results = append(results, checkSystemBrowsers(cfg)...)
	results = append(results, checkHistory(cfg))

	okCount, warnCount, errorCount := 0, 0, 0
	for _, r := range results {
		switch r.status {
		case "ok":
			fmt.Printf("\033[32m✓\033[0m %s: %s\n", r.name, r.message)
			okCount++
		case "warn":
			fmt.Printf("\033[33m⚠\033[0m %s: %s\n", r.name, r.message)
			warnCount++
		case "error":
			fmt.Printf("\033[31m✗\033[0m %s: %s\n", r.name, r.message)
			errorCount++
		}
	}

	fmt.Println()
	fmt.Printf("Summary: \033[32m%d passed\033[0m", okCount)
	if warnCount > 0 {
		fmt.Printf("  \033[33m%d warnings\033[0m", warnCount)
	}
	if errorCount > 0 {
		fmt.Printf("  \033[31m%d errors\033[0m", errorCount)
	}
	fmt.Println()

	if errorCount > 0 {
		os.Exit(1)
	}
}

func checkConfig(cfg *config.Store, configFile string) []checkResult {
	var results []checkResult
	if err := cfg.LoadErr(); err != nil {
		results = append(results, checkResult{"Configuration", "error", err.Error()})
		return results
	}
	source := "packaged defaults"
	if configFile != "" {
		source = configFile
	} else if _, err := os.Stat(config.DefaultFile); err == nil {
		source = config.DefaultFile + " over packaged defaults"
	}
	results = append(results, checkResult{"Configuration", "ok", source})
	if n := len(cfg.Overrides()); n > 0 {
		results = append(results, checkResult{"Overrides", "ok", fmt.Sprintf("%d packaged defaults overridden", n)})
	}
	return results
}

func checkDirectories(cfg *config.Store) []checkResult {
	var results []checkResult
	dirs := map[string]string{
		"Report directory": cfg.StringOr("REPORT_OUTPUT_DIR", "./target/report"),
		"Video directory":  cfg.StringOr("VIDEO_OUTPUT_DIR", "./target/videos"),
		"Log directory":    cfg.Env("LOG_OUTPUT_DIR"),
	}
	for name, dir := range dirs {
		if dir == "" {
			results = append(results, checkResult{name, "warn", "not configured"})
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			results = append(results, checkResult{name, "error", fmt.Sprintf("%s not writable: %v", dir, err)})
			continue
		}
		results = append(results, checkResult{name, "ok", dir})
	}
	return results
}

func checkPlaywright() checkResult {
	pw, err := playwright.Run()
	if err != nil {
		return checkResult{"Playwright driver", "warn", "not installed, run 'webrig install'"}
	}
	defer pw.Stop()
	return checkResult{"Playwright driver", "ok", "driver starts"}
}

func checkSystemBrowsers(cfg *config.Store) []checkResult {
	var results []checkResult
	for _, family := range []string{"chrome", "edge", "firefox"} {
		exe, err := driver.FindExecutable(family, "")
		switch {
		case err != nil:
			results = append(results, checkResult{"Browser " + family, "warn", err.Error()})
		case exe == nil:
			results = append(results, checkResult{"Browser " + family, "warn", "no system install (bundled browser will be used)"})
		default:
			results = append(results, checkResult{"Browser " + family, "ok", exe.Path})
		}
	}
	if path := cfg.StringOr("DRIVER_PATH", ""); path != "" {
		if _, err := os.Stat(path); err != nil {
			results = append(results, checkResult{"DRIVER_PATH", "error", path + " does not exist"})
		} else {
			results = append(results, checkResult{"DRIVER_PATH", "ok", path})
		}
	}
	return results
}

func checkHistory(cfg *config.Store) checkResult {
	if !cfg.BoolOr("HISTORY_ENABLED", false) {
		return checkResult{"History store", "ok", "disabled"}
	}
	path := cfg.StringOr("HISTORY_DB_PATH", filepath.Join(cfg.StringOr("REPORT_OUTPUT_DIR", "./target/report"), "history.db"))
	store, err := history.Open(path)
	if err != nil {
		return checkResult{"History store", "error", err.Error()}
	}
	store.Close()
	return checkResult{"History store", "ok", path}
}
