package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
}

func TestCleanDirRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "old.log"), 48*time.Hour)
	touch(t, filepath.Join(dir, "nested", "old.avi"), 48*time.Hour)
	touch(t, filepath.Join(dir, "fresh.log"), 0)

	removed, err := CleanDir(dir, 24*time.Hour, nil)
	if err != nil {
		t.Fatalf("CleanDir: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.log")); err != nil {
		t.Error("fresh file was removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "nested")); !os.IsNotExist(err) {
		t.Error("emptied subdirectory was kept")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("the swept directory itself must survive")
	}
}

func TestCleanDirMissingDirIsNoop(t *testing.T) {
	removed, err := CleanDir(filepath.Join(t.TempDir(), "absent"), time.Hour, nil)
	if err != nil {
		t.Errorf("CleanDir on missing dir = %v, want nil", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestCleanDirRejectsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	touch(t, path, 0)
	if _, err := CleanDir(path, time.Hour, nil); err == nil {
		t.Error("CleanDir on a file = nil error, want failure")
	}
}
