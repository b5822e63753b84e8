// Package fileutil cleans artifact directories between runs.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// CleanDir removes files under dir whose modification time is older than
// maxAge, recursing into subdirectories and removing those that end up
// empty. The directory itself is kept. Per-file failures are logged and
// counted but never abort the sweep; the return value is the number of
// files removed. A missing dir is not an error, there is just nothing to
// clean.
func CleanDir(dir string, maxAge time.Duration, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var emptied []string

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("cleanup cannot visit entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			emptied = append(emptied, path)
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			log.Warn("cleanup cannot stat file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if fi.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			log.Warn("cleanup cannot remove file", zap.String("path", path), zap.Error(err))
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("walk %s: %w", dir, err)
	}

	// Deepest directories first so emptied parents collapse too. Remove
	// fails on non-empty directories, which is exactly the behavior wanted.
	for i := len(emptied) - 1; i >= 0; i-- {
		_ = os.Remove(emptied[i])
	}
	return removed, nil
}
