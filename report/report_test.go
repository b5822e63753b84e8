package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateClassNodeIsIdempotent(t *testing.T) {
	r := New("t", filepath.Join(t.TempDir(), "report.html"))

	first := r.GetOrCreateClassNode("LoginTest")
	second := r.GetOrCreateClassNode("LoginTest")
	if first != second {
		t.Error("GetOrCreateClassNode returned different nodes for the same name")
	}
	if other := r.GetOrCreateClassNode("CheckoutTest"); other == first {
		t.Error("distinct class names share a node")
	}
}

func TestGetOrCreateClassNodeUnderConcurrency(t *testing.T) {
	r := New("t", filepath.Join(t.TempDir(), "report.html"))

	const workers = 32
	nodes := make([]*ClassNode, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nodes[i] = r.GetOrCreateClassNode("Shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if nodes[i] != nodes[0] {
			t.Fatalf("worker %d got a different node", i)
		}
	}
	if len(r.Classes()) != 1 {
		t.Errorf("len(Classes()) = %d, want 1", len(r.Classes()))
	}
}

func TestMethodNodeStatusTransitions(t *testing.T) {
	r := New("t", filepath.Join(t.TempDir(), "report.html"))
	class := r.GetOrCreateClassNode("LoginTest")

	pass := class.CreateMethodNode("testValidLogin")
	pass.Log(StatusInfo, "navigating")
	pass.Pass("logged in")
	assert.Equal(t, StatusPass, pass.Status())

	fail := class.CreateMethodNode("testInvalidLogin")
	fail.Fail("wrong banner", errors.New("element not found"))
	assert.Equal(t, StatusFail, fail.Status())

	skip := class.CreateMethodNode("testSSO")
	skip.Skip("environment lacks IdP", nil)
	assert.Equal(t, StatusSkip, skip.Status())

	entries := fail.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Body, "element not found")
}

func TestFlushRendersOnceAndContainsArtifacts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.html")
	r := New("Nightly", out)

	node := r.GetOrCreateClassNode("LoginTest").CreateMethodNode("testValidLogin")
	node.Log(StatusInfo, "step with **markdown**")
	node.AttachScreenshot("after login", "aGVsbG8=")
	node.AttachLink("video", "videos/testValidLogin.avi")
	node.AttachText("logs", "line one\nline two")
	node.Pass("done")

	path, err := r.Flush()
	require.NoError(t, err)
	assert.Equal(t, out, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(raw)

	for _, want := range []string{
		"Nightly",
		"LoginTest",
		"testValidLogin",
		"<strong>markdown</strong>",
		"data:image/png;base64,aGVsbG8=",
		`href="videos/testValidLogin.avi"`,
		"line one",
		"1 passed",
	} {
		assert.Contains(t, html, want)
	}

	// A second flush returns the first result without re-rendering.
	node.Log(StatusInfo, "after flush")
	path2, err := r.Flush()
	require.NoError(t, err)
	assert.Equal(t, path, path2)
	raw2, err := os.ReadFile(path)
	require.NoError(t, err)
	if strings.Contains(string(raw2), "after flush") {
		t.Error("second Flush re-rendered the report")
	}
}

func TestRenderMarkdownFallsBackToEscapedText(t *testing.T) {
	got := string(renderMarkdown("plain <script> text"))
	if strings.Contains(got, "<script>") {
		t.Errorf("renderMarkdown kept raw script tag: %q", got)
	}
}
