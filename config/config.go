// Package config loads the layered key=value configuration used across the
// library: packaged defaults first, then an optional consumer file on top.
// A second, independent namespace holds logging settings and is exported into
// the process environment at load time.
package config

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

//go:embed defaults/webrig.properties defaults/logging.properties
var packaged embed.FS

// File names probed in the working directory when Options leaves them unset.
const (
	DefaultFile        = "webrig.properties"
	DefaultLoggingFile = "logging.properties"
)

// ErrMissingKey is wrapped by the mandatory getters when a key is absent or
// has an empty value.
var ErrMissingKey = errors.New("missing mandatory configuration key")

// Override records a packaged default that was replaced by a consumer value.
// Kept only for diagnostic printing.
type Override struct {
	Key string
	Old string
	New string
}

// Options controls where consumer override files are read from.
type Options struct {
	// File is the consumer properties file. Empty means "webrig.properties
	// in the working directory, if present".
	File string
	// LoggingFile is the consumer logging-namespace file. Empty means
	// "logging.properties in the working directory, if present".
	LoggingFile string
	// Logger receives load diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Store holds the merged configuration. Values never change after Load, so
// reads need no locking.
type Store struct {
	opts      Options
	log       *zap.Logger
	values    map[string]string
	logNS     map[string]string
	overrides []Override
	loadErr   error
}

// Load builds a Store and performs the one-time load: packaged defaults,
// consumer overrides, then the logging namespace with its environment export.
// A load failure is logged and remembered but does not abort; mandatory
// getters on the missing keys fail individually instead.
func Load(opts Options) *Store {
	s := &Store{opts: opts, log: opts.Logger}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.load()
	return s
}

func (s *Store) load() {
	s.values = map[string]string{}
	s.logNS = map[string]string{}

	if err := s.loadNamespace("defaults/webrig.properties", s.consumerFile(s.opts.File, DefaultFile), s.values); err != nil {
		s.loadErr = err
		s.log.Warn("configuration load failed, continuing with whatever loaded", zap.Error(err))
	}
	if err := s.loadNamespace("defaults/logging.properties", s.consumerFile(s.opts.LoggingFile, DefaultLoggingFile), s.logNS); err != nil {
		if s.loadErr == nil {
			s.loadErr = err
		}
		s.log.Warn("logging namespace load failed, continuing with whatever loaded", zap.Error(err))
	}
	s.exportEnv()

	if s.BoolOr("LOG_SHOW_OVERRIDE", false) && len(s.overrides) > 0 {
		s.WriteOverrides(os.Stdout)
	}
}

// consumerFile resolves the override path: an explicit path is used as given
// (and missing is an error surfaced by loadNamespace), while the probed
// default is only used when it exists.
func (s *Store) consumerFile(explicit, probed string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(probed); err == nil {
		return probed
	}
	return ""
}

func (s *Store) loadNamespace(embedded, consumer string, dst map[string]string) error {
	raw, err := packaged.ReadFile(embedded)
	if err != nil {
		return fmt.Errorf("read packaged %s: %w", embedded, err)
	}
	base, err := godotenv.UnmarshalBytes(raw)
	if err != nil {
		return fmt.Errorf("parse packaged %s: %w", embedded, err)
	}
	for k, v := range base {
		dst[k] = v
	}
	if consumer == "" {
		return nil
	}
	over, err := godotenv.Read(consumer)
	if err != nil {
		return fmt.Errorf("read %s: %w", consumer, err)
	}
	for k, v := range over {
		if old, ok := dst[k]; ok && old != v {
			s.overrides = append(s.overrides, Override{Key: k, Old: old, New: v})
		}
		dst[k] = v
	}
	s.log.Debug("configuration layer applied", zap.String("file", consumer), zap.Int("keys", len(over)))
	return nil
}

// exportEnv publishes the logging namespace as environment variables. A
// variable that is already set externally is never overwritten.
func (s *Store) exportEnv() {
	for k, v := range s.logNS {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			s.log.Warn("environment export failed", zap.String("key", k), zap.Error(err))
		}
	}
}

// String returns the value for a mandatory key. Absent or empty values are
// an error; callers treat that as fatal for the current test.
func (s *Store) String(key string) (string, error) {
	v, ok := s.values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, nil
}

// Int returns the value for a mandatory integer key.
func (s *Store) Int(key string) (int, error) {
	v, err := s.String(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("configuration key %s is not an integer: %q", key, v)
	}
	return n, nil
}

// Bool returns the value for a mandatory boolean key. Only the literal
// "true" (any case) is true, everything else is false, mirroring the
// coercion used for PREF:/CAP: option values.
func (s *Store) Bool(key string) (bool, error) {
	v, err := s.String(key)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(v), "true"), nil
}

// StringOr returns the value for key, or def when absent or empty.
func (s *Store) StringOr(key, def string) string {
	if v, err := s.String(key); err == nil {
		return v
	}
	return def
}

// IntOr returns the integer value for key, or def when absent or malformed.
func (s *Store) IntOr(key string, def int) int {
	if v, err := s.Int(key); err == nil {
		return v
	}
	return def
}

// BoolOr returns the boolean value for key, or def when absent.
func (s *Store) BoolOr(key string, def bool) bool {
	if v, err := s.Bool(key); err == nil {
		return v
	}
	return def
}

// Has reports whether key is present with a non-empty value.
func (s *Store) Has(key string) bool {
	_, err := s.String(key)
	return err == nil
}

// Env returns the value of an exported logging-namespace key: the process
// environment wins, then the merged namespace, then empty.
func (s *Store) Env(key string) string {
	if v, set := os.LookupEnv(key); set {
		return v
	}
	return s.logNS[key]
}

// Overrides returns the recorded default-replacements in key order.
func (s *Store) Overrides() []Override {
	out := make([]Override, len(s.overrides))
	copy(out, s.overrides)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LoadErr returns the error remembered from loading, if any.
func (s *Store) LoadErr() error { return s.loadErr }

// WriteOverrides renders the override records as a table, used at startup
// when LOG_SHOW_OVERRIDE is set.
func (s *Store) WriteOverrides(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Packaged", "Override"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColWidth(40)
	for _, o := range s.Overrides() {
		table.Append([]string{o.Key, o.Old, o.New})
	}
	table.Render()
}
