package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsCommandWarnsOnTruncation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "webrig.log")
	lines := []string{
		"s1 testValidLogin Test case started",
		"s1 step one",
		"s1 step two",
		"s1 step three",
	}
	if err := os.WriteFile(logFile, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	origErr, origOut := os.Stderr, os.Stdout
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr, os.Stdout = wErr, wOut

	cmd := logsCmd()
	cmd.SetArgs([]string{
		"--file", logFile,
		"--test", "testValidLogin",
		"--session", "s1",
		"--max-lines", "2",
	})
	runErr := cmd.Execute()

	wErr.Close()
	wOut.Close()
	os.Stderr, os.Stdout = origErr, origOut
	errOut, _ := io.ReadAll(rErr)
	stdOut, _ := io.ReadAll(rOut)

	if runErr != nil {
		t.Fatalf("Execute() error = %v", runErr)
	}
	if !strings.Contains(string(errOut), "log capture truncated") {
		t.Errorf("stderr = %q, want a truncation warning", errOut)
	}
	if !strings.Contains(string(stdOut), "Test case started") {
		t.Errorf("stdout = %q, want the captured segment", stdOut)
	}
}
