package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/webrig/webrig/config"
	"github.com/webrig/webrig/logging"
)

func logsCmd() *cobra.Command {
	var (
		file    string
		test    string
		session string
		strict  bool
		maxRows int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Extract one test's segment from the shared log file",
		Long: `Scan the shared log file for the segment belonging to one test execution,
delimited by the configured start and end marker lines and tagged with the
test name and session id.

Examples:
  webrig logs --test testValidLogin --session 1a2b3c
  webrig logs --file ./target/logs/webrig.log --test testX --session s1 --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg := config.Load(config.Options{File: configFile, Logger: zap.NewNop()})

			if file == "" {
				dir := cfg.Env("LOG_OUTPUT_DIR")
				name := cfg.Env("LOG_FILE_NAME")
				if dir == "" || name == "" {
					return fmt.Errorf("no --file given and the logging namespace configures no log file")
				}
				file = filepath.Join(dir, name)
			}
			if maxRows <= 0 {
				maxRows = cfg.IntOr("LOG_MAX_CAPTURE_LINES", logging.DefaultMaxCaptureLines)
			}

			extractor := logging.Extractor{
				StartMarker: cfg.StringOr("LOG_MARKER_TEST_START", logging.DefaultStartMarker),
				PassMarker:  cfg.StringOr("LOG_MARKER_TEST_PASS", logging.DefaultPassMarker),
				FailMarker:  cfg.StringOr("LOG_MARKER_TEST_FAIL", logging.DefaultFailMarker),
				MaxLines:    maxRows,
				Strict:      strict,
				Logger:      stderrLogger(),
			}
			fmt.Println(extractor.Extract(file, test, session))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "log file to scan (default: the configured log sink)")
	cmd.Flags().StringVar(&test, "test", "", "test method name (required)")
	cmd.Flags().StringVar(&session, "session", "", "session id (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exact-match the structured sessionId/test fields instead of substring containment")
	cmd.Flags().IntVar(&maxRows, "max-lines", 0, "line budget after the start marker (default: configured)")
	cmd.MarkFlagRequired("test")
	cmd.MarkFlagRequired("session")
	return cmd
}

// stderrLogger surfaces extractor warnings (truncation without an end
// marker) without mixing them into the segment printed on stdout.
func stderrLogger() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.WarnLevel,
	)
	return zap.New(core)
}
