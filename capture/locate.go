package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrVideoNotFound is wrapped when no video exists for a method. Callers log
// a status line instead of failing the test.
var ErrVideoNotFound = errors.New("video not found")

// LocateVideo finds the video recorded for a method by the shared naming
// convention, matching the file name case-insensitively. Recorders can
// finalize files asynchronously, so when the file is not there yet the
// directory is watched for up to wait before giving up.
func LocateVideo(dir, methodName, ext string, wait time.Duration) (string, error) {
	if path, ok := scanFor(dir, methodName+ext); ok {
		return path, nil
	}
	if wait <= 0 {
		return "", fmt.Errorf("%w: %s in %s", ErrVideoNotFound, methodName+ext, dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("watch %s: %w", dir, err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return "", fmt.Errorf("watch %s: %w", dir, err)
	}

	// The file may have landed between the scan and the watch.
	if path, ok := scanFor(dir, methodName+ext); ok {
		return path, nil
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	for {
		select {
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if strings.EqualFold(filepath.Base(event.Name), methodName+ext) {
				return event.Name, nil
			}
		case err := <-watcher.Errors:
			return "", fmt.Errorf("watch %s: %w", dir, err)
		case <-deadline.C:
			return "", fmt.Errorf("%w: %s in %s", ErrVideoNotFound, methodName+ext, dir)
		}
	}
}

func scanFor(dir, name string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), name) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}
