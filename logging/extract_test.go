package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestExtractHappyPath(t *testing.T) {
	start := "INFO Test case started sess-1 TestLogin"
	mid1 := "INFO opening login page sess-1"
	skip := "INFO unrelated worker sess-9 TestCheckout"
	mid2 := "DEBUG clicking submit TestLogin"
	end := "INFO Test case pass sess-1 TestLogin"

	path := writeLog(t,
		"INFO framework boot",
		start,
		mid1,
		skip,
		mid2,
		end,
		"INFO later noise sess-1 TestLogin",
	)

	got := Extractor{}.Extract(path, "TestLogin", "sess-1")
	want := strings.Join([]string{start, mid1, mid2, end}, "\n")
	if got != want {
		t.Errorf("Extract = %q, want %q", got, want)
	}
}

func TestExtractFailMarkerEndsSegment(t *testing.T) {
	start := "INFO Test case started sess-1 TestLogin"
	end := "ERROR Test case fail sess-1 TestLogin"
	path := writeLog(t, start, "INFO step sess-1", end)

	got := Extractor{}.Extract(path, "TestLogin", "sess-1")
	if !strings.HasSuffix(got, end) {
		t.Errorf("Extract = %q, want segment ending at fail marker", got)
	}
	if lines := strings.Split(got, "\n"); len(lines) != 3 {
		t.Errorf("len(lines) = %d, want 3", len(lines))
	}
}

func TestExtractNoStartMarker(t *testing.T) {
	path := writeLog(t,
		"INFO framework boot",
		"INFO some step sess-1 TestLogin",
		"INFO Test case pass sess-1 TestLogin",
	)

	got := Extractor{}.Extract(path, "TestLogin", "sess-1")
	if !strings.Contains(got, "no log segment found") {
		t.Errorf("Extract = %q, want a not-found message, never a partial segment", got)
	}
}

func TestExtractTruncation(t *testing.T) {
	lines := []string{"INFO Test case started sess-1 TestLogin"}
	for i := 0; i < 10; i++ {
		lines = append(lines, "INFO step sess-1")
	}
	path := writeLog(t, lines...)

	got := Extractor{MaxLines: 3}.Extract(path, "TestLogin", "sess-1")
	gotLines := strings.Split(got, "\n")
	if len(gotLines) != 4 {
		t.Fatalf("len(lines) = %d, want start + 3 captured before truncation", len(gotLines))
	}
	if strings.Contains(got, "Test case pass") {
		t.Error("truncated capture must not contain an end marker")
	}
}

func TestExtractSkippedLinesCountTowardBudget(t *testing.T) {
	lines := []string{"INFO Test case started sess-1 TestLogin"}
	for i := 0; i < 5; i++ {
		lines = append(lines, "INFO other worker sess-9")
	}
	lines = append(lines, "INFO Test case pass sess-1 TestLogin")
	path := writeLog(t, lines...)

	// Budget of 3 is consumed by skipped lines before the end marker shows up.
	got := Extractor{MaxLines: 3}.Extract(path, "TestLogin", "sess-1")
	if strings.Contains(got, "Test case pass") {
		t.Errorf("Extract = %q, want truncation before the end marker", got)
	}
}

func TestExtractMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")
	got := Extractor{}.Extract(path, "TestLogin", "sess-1")
	if !strings.Contains(got, "does not exist") {
		t.Errorf("Extract = %q, want missing-file message", got)
	}
}

func TestExtractBlankArguments(t *testing.T) {
	path := writeLog(t, "INFO Test case started sess-1 TestLogin")

	tests := []struct {
		name      string
		test      string
		sessionID string
	}{
		{"blank test", "", "sess-1"},
		{"blank session", "TestLogin", ""},
		{"whitespace test", "   ", "sess-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extractor{}.Extract(path, tt.test, tt.sessionID)
			if !strings.Contains(got, "blank") {
				t.Errorf("Extract = %q, want blank-argument message", got)
			}
		})
	}
}

func TestExtractEOFKeepsOpenSegment(t *testing.T) {
	start := "INFO Test case started sess-1 TestLogin"
	mid := "INFO step sess-1"
	path := writeLog(t, start, mid)

	got := Extractor{}.Extract(path, "TestLogin", "sess-1")
	want := start + "\n" + mid
	if got != want {
		t.Errorf("Extract = %q, want open segment up to EOF %q", got, want)
	}
}

func TestExtractStrictModeExactIdentifiers(t *testing.T) {
	// sess-1 is a substring of sess-10: containment would leak the other
	// worker's lines into this segment, exact field matching must not.
	mine := func(msg string) string {
		return `{"level":"INFO","msg":"` + msg + `","sessionId":"sess-1","test":"TestLogin"}`
	}
	other := `{"level":"INFO","msg":"other step","sessionId":"sess-10","test":"TestLoginCheck"}`

	path := writeLog(t,
		mine("Test case started"),
		other,
		mine("step one"),
		mine("Test case pass"),
	)

	got := Extractor{Strict: true}.Extract(path, "TestLogin", "sess-1")
	if strings.Contains(got, "other step") {
		t.Errorf("strict Extract leaked a foreign line:\n%s", got)
	}
	if lines := strings.Split(got, "\n"); len(lines) != 3 {
		t.Errorf("len(lines) = %d, want 3", len(lines))
	}
}

func TestExtractPlainModeOvermatchesSubstring(t *testing.T) {
	// Documents the containment behavior strict mode exists to avoid.
	path := writeLog(t,
		"INFO Test case started sess-1 TestLogin",
		"INFO other step sess-10 TestLoginCheck",
		"INFO Test case pass sess-1 TestLogin",
	)

	got := Extractor{}.Extract(path, "TestLogin", "sess-1")
	if !strings.Contains(got, "other step") {
		t.Errorf("plain Extract = %q, expected containment to retain the sess-10 line", got)
	}
}
