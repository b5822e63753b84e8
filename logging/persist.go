package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// PersistExcerpt writes one test's extracted segment to
// <dir>/class-level-logs/<className>/<methodName>.logs and returns the path.
// Callers treat a failure here as a diagnostic degradation, not a test
// failure.
func PersistExcerpt(dir, className, methodName, text string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("persist excerpt: empty log directory")
	}
	target := filepath.Join(dir, "class-level-logs", className, methodName+".logs")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create excerpt directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write excerpt %s: %w", target, err)
	}
	return target, nil
}
