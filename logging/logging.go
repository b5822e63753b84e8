// Package logging builds the shared zap logger and extracts per-test
// segments back out of its file sink. Every worker logs through a child
// logger tagged with its session id and test name, so the single shared log
// file stays attributable even when workers interleave.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/webrig/webrig/config"
)

// Field keys stamped on every line a test worker writes. The extractor looks
// these up in strict mode.
const (
	SessionKey = "sessionId"
	TestKey    = "test"
)

// Marker defaults, aligned with the packaged configuration.
const (
	DefaultStartMarker = "Test case started"
	DefaultPassMarker  = "Test case pass"
	DefaultFailMarker  = "Test case fail"

	DefaultMaxCaptureLines = 500
)

// Options selects sinks and formats for the process logger.
type Options struct {
	Level         string // debug, info, warn, error; empty means info
	Dir           string // log file directory; empty disables the file sink
	FileName      string // log file name within Dir
	ConsoleFormat string // console, json, or off
	FileFormat    string // json or console; json keeps the extractor exact
}

// OptionsFromStore reads the exported logging namespace. Environment
// variables win over file values, matching the export semantics.
func OptionsFromStore(cfg *config.Store) Options {
	return Options{
		Level:         cfg.Env("LOG_ROOT_LEVEL"),
		Dir:           cfg.Env("LOG_OUTPUT_DIR"),
		FileName:      cfg.Env("LOG_FILE_NAME"),
		ConsoleFormat: cfg.Env("LOG_CONSOLE_FORMAT"),
		FileFormat:    cfg.Env("LOG_FILE_FORMAT"),
	}
}

// New constructs the process logger: a console core plus a shared append-only
// file core, teed. It returns the file path so the extractor knows where the
// segments live. The file sink is appended to, never truncated, because all
// workers write to it concurrently across the whole run.
func New(opts Options) (*zap.Logger, string, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if parsed, err := zapcore.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}

	var cores []zapcore.Core
	if opts.ConsoleFormat != "off" {
		cores = append(cores, zapcore.NewCore(encoderFor(opts.ConsoleFormat, "console"), zapcore.Lock(os.Stdout), level))
	}

	path := ""
	if opts.Dir != "" && opts.FileName != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create log directory %s: %w", opts.Dir, err)
		}
		path = filepath.Join(opts.Dir, opts.FileName)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, "", fmt.Errorf("open log file %s: %w", path, err)
		}
		cores = append(cores, zapcore.NewCore(encoderFor(opts.FileFormat, "json"), zapcore.Lock(zapcore.AddSync(f)), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), "", nil
	}
	return zap.New(zapcore.NewTee(cores...)), path, nil
}

func encoderFor(format, fallback string) zapcore.Encoder {
	if format == "" {
		format = fallback
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if format == "console" {
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

// WithSession returns a child logger whose every line carries the session id.
func WithSession(l *zap.Logger, sessionID string) *zap.Logger {
	return l.With(zap.String(SessionKey, sessionID))
}

// WithTest returns a child logger whose every line carries the test name.
func WithTest(l *zap.Logger, testName string) *zap.Logger {
	return l.With(zap.String(TestKey, testName))
}
