package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Extractor pulls one test's lines back out of the shared log file. A
// segment starts at a line carrying the session id, the test name and the
// start marker, and ends at a line carrying either identifier and one of the
// end markers. In between, only lines carrying either identifier are kept;
// everything scanned after the start line counts toward MaxLines regardless.
//
// Extract never fails: anything that prevents extraction comes back as a
// descriptive message in the returned string, so callers can attach it to
// the report as-is.
type Extractor struct {
	StartMarker string // default "Test case started"
	PassMarker  string // default "Test case pass"
	FailMarker  string // default "Test case fail"
	MaxLines    int    // default 500
	// Strict parses each line as JSON and compares the sessionId/test
	// fields exactly, which an identifier that is a substring of another
	// cannot fool. Non-JSON lines fall back to containment. Off means plain
	// literal substring containment for everything.
	Strict bool
	Logger *zap.Logger
}

type record struct {
	SessionID string `json:"sessionId"`
	Test      string `json:"test"`
	Msg       string `json:"msg"`
}

const (
	notCapturing = iota
	capturing
)

// Extract scans path for the segment belonging to testName/sessionID and
// returns its lines joined by newlines, or a human-readable message when
// there is nothing to return.
func (e Extractor) Extract(path, testName, sessionID string) string {
	if strings.TrimSpace(testName) == "" || strings.TrimSpace(sessionID) == "" {
		return "log extraction skipped: test name or session id is blank"
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("log extraction failed: %s does not exist", path)
		}
		return fmt.Sprintf("log extraction failed opening %s: %v", path, err)
	}
	defer f.Close()

	start := e.StartMarker
	if start == "" {
		start = DefaultStartMarker
	}
	pass := e.PassMarker
	if pass == "" {
		pass = DefaultPassMarker
	}
	fail := e.FailMarker
	if fail == "" {
		fail = DefaultFailMarker
	}
	maxLines := e.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxCaptureLines
	}

	var captured []string
	state := notCapturing
	counted := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		rec := e.parse(line)

		switch state {
		case notCapturing:
			if sessionMatches(line, rec, sessionID) && testMatches(line, rec, testName) && markerMatches(line, rec, start) {
				captured = append(captured, line)
				state = capturing
			}
		case capturing:
			counted++
			if sessionMatches(line, rec, sessionID) || testMatches(line, rec, testName) {
				captured = append(captured, line)
				if markerMatches(line, rec, pass) || markerMatches(line, rec, fail) {
					return strings.Join(captured, "\n")
				}
			}
			if counted >= maxLines {
				e.warn("log capture truncated before an end marker",
					zap.String("test", testName), zap.String("sessionId", sessionID), zap.Int("maxLines", maxLines))
				return strings.Join(captured, "\n")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Sprintf("log extraction failed reading %s: %v", path, err)
	}
	if len(captured) == 0 {
		return fmt.Sprintf("no log segment found for test %s with session %s", testName, sessionID)
	}
	// Start marker seen but the file ended before an end marker.
	return strings.Join(captured, "\n")
}

// parse returns the structured view of a line in strict mode, nil otherwise.
func (e Extractor) parse(line string) *record {
	if !e.Strict || !strings.HasPrefix(line, "{") {
		return nil
	}
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil
	}
	return &rec
}

func (e Extractor) warn(msg string, fields ...zap.Field) {
	if e.Logger != nil {
		e.Logger.Warn(msg, fields...)
	}
}

// Matching is literal: substring containment on the raw line, or exact field
// comparison when a structured record is available. No pattern compilation,
// so identifiers and markers containing metacharacters need no escaping.

func sessionMatches(line string, rec *record, id string) bool {
	if rec != nil {
		return rec.SessionID == id
	}
	return strings.Contains(line, id)
}

func testMatches(line string, rec *record, name string) bool {
	if rec != nil {
		return rec.Test == name
	}
	return strings.Contains(line, name)
}

func markerMatches(line string, rec *record, marker string) bool {
	if rec != nil {
		return strings.Contains(rec.Msg, marker)
	}
	return strings.Contains(line, marker)
}
