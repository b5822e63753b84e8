package capture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLocateVideoFindsExistingFile(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "testValidLogin.avi")
	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LocateVideo(dir, "testValidLogin", ".avi", 0)
	if err != nil {
		t.Fatalf("LocateVideo: %v", err)
	}
	if got != want {
		t.Errorf("LocateVideo = %q, want %q", got, want)
	}
}

func TestLocateVideoMatchesCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "TestValidLogin.AVI"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LocateVideo(dir, "testvalidlogin", ".avi", 0)
	if err != nil {
		t.Fatalf("LocateVideo: %v", err)
	}
	if filepath.Base(got) != "TestValidLogin.AVI" {
		t.Errorf("LocateVideo = %q, want the case-variant file", got)
	}
}

func TestLocateVideoMissingFile(t *testing.T) {
	_, err := LocateVideo(t.TempDir(), "testNothing", ".avi", 0)
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("LocateVideo error = %v, want ErrVideoNotFound", err)
	}
}

func TestLocateVideoWaitsForLateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testLate.avi")
	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(path, []byte("x"), 0o644)
	}()

	got, err := LocateVideo(dir, "testLate", ".avi", 3*time.Second)
	if err != nil {
		t.Fatalf("LocateVideo: %v", err)
	}
	if filepath.Base(got) != "testLate.avi" {
		t.Errorf("LocateVideo = %q, want testLate.avi", got)
	}
}

func TestLocateVideoTimesOut(t *testing.T) {
	start := time.Now()
	_, err := LocateVideo(t.TempDir(), "testNever", ".avi", 150*time.Millisecond)
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("LocateVideo error = %v, want ErrVideoNotFound", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("LocateVideo took %s, want prompt timeout", elapsed)
	}
}
