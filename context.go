package webrig

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/webrig/webrig/capture"
	"github.com/webrig/webrig/driver"
	"github.com/webrig/webrig/logging"
	"github.com/webrig/webrig/report"
)

var (
	// ErrNilResource is returned when a setter is handed a nil resource.
	ErrNilResource = errors.New("nil resource")
	// ErrNoSession is returned when a context has no browser session.
	ErrNoSession = errors.New("no browser session registered for this test context")
	// ErrNoRecorder is returned when a context has no recorder.
	ErrNoRecorder = errors.New("no recorder registered for this test context")
)

// TestContext carries everything one running test method owns: its browser
// session, report node, recorder and tagged logger. It replaces ambient
// thread-local state; a context belongs to exactly one test goroutine and is
// never shared. Runtime.BeginTest creates it, End releases it.
type TestContext struct {
	rt         *Runtime
	className  string
	methodName string
	startedAt  time.Time

	mu       sync.Mutex
	log      *zap.Logger
	session  *driver.Session
	node     *report.MethodNode
	recorder capture.Recorder
	ended    bool
}

// ClassName returns the owning test class name.
func (t *TestContext) ClassName() string { return t.className }

// MethodName returns the owning test method name.
func (t *TestContext) MethodName() string { return t.methodName }

// Logger returns the context logger. Every line it writes carries the
// session id and test name, which is what keeps the shared log file
// attributable per test.
func (t *TestContext) Logger() *zap.Logger {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log
}

// SessionID returns the current session's id, empty when no session is set.
func (t *TestContext) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ""
	}
	return t.session.ID()
}

// SetSession stores the context's browser session, rejecting nil.
func (t *TestContext) SetSession(s *driver.Session) error {
	if s == nil {
		return fmt.Errorf("%w: session", ErrNilResource)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = s
	t.log = logging.WithSession(t.log, s.ID())
	return nil
}

// Session returns the context's browser session, or ErrNoSession when unset.
func (t *TestContext) Session() (*driver.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil, ErrNoSession
	}
	return t.session, nil
}

// Page returns the session's page, or an error when no session is set.
func (t *TestContext) Page() (playwright.Page, error) {
	s, err := t.Session()
	if err != nil {
		return nil, err
	}
	return s.Page(), nil
}

// RemoveSession closes the browser session and detaches it. Close errors are
// logged and swallowed so teardown always completes. Removing an absent
// session is a no-op.
func (t *TestContext) RemoveSession() {
	t.mu.Lock()
	s := t.session
	t.session = nil
	t.mu.Unlock()
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		t.Logger().Warn("browser session close failed during teardown", zap.Error(err))
	}
}

// SetRecorder stores the context's recorder, rejecting nil.
func (t *TestContext) SetRecorder(r capture.Recorder) error {
	if r == nil {
		return fmt.Errorf("%w: recorder", ErrNilResource)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recorder = r
	return nil
}

// Recorder returns the context's recorder, or ErrNoRecorder when unset.
func (t *TestContext) Recorder() (capture.Recorder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recorder == nil {
		return nil, ErrNoRecorder
	}
	return t.recorder, nil
}

// RemoveRecorder stops the recorder and detaches it, swallowing and logging
// stop errors. The finished file path is returned when there is one.
func (t *TestContext) RemoveRecorder() string {
	t.mu.Lock()
	r := t.recorder
	t.recorder = nil
	t.mu.Unlock()
	if r == nil {
		return ""
	}
	path, err := r.Stop(t.methodName)
	if err != nil {
		t.Logger().Info("video recorder stop", zap.String("detail", err.Error()))
		return ""
	}
	return path
}

// SetReportNode stores the context's active report node, rejecting nil.
func (t *TestContext) SetReportNode(n *report.MethodNode) error {
	if n == nil {
		return fmt.Errorf("%w: report node", ErrNilResource)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.node = n
	return nil
}

// ReportNode returns the active report node, nil when unset. Callers treat
// nil as "no active test" and skip attaching.
func (t *TestContext) ReportNode() *report.MethodNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.node
}

// RemoveReportNode detaches the active report node.
func (t *TestContext) RemoveReportNode() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.node = nil
}

// LogStep writes one step both to the report node and the tagged log.
func (t *TestContext) LogStep(status report.Status, message string) {
	if node := t.ReportNode(); node != nil {
		node.Log(status, message)
	}
	switch status {
	case report.StatusFail:
		t.Logger().Error(message)
	case report.StatusWarning, report.StatusSkip:
		t.Logger().Warn(message)
	default:
		t.Logger().Info(message)
	}
}

// CaptureScreenshot grabs the page as base64 PNG and attaches it under
// label. With no session or no active node it logs a clear message and
// attaches nothing; a diagnostics failure never fails the test.
func (t *TestContext) CaptureScreenshot(label string) {
	node := t.ReportNode()
	if node == nil {
		t.Logger().Info("screenshot skipped: no active report node", zap.String("label", label))
		return
	}
	page, err := t.Page()
	if err != nil {
		t.Logger().Info("screenshot skipped: no browser session", zap.String("label", label))
		return
	}
	b64, err := capture.Screenshot(page, t.rt.cfg.BoolOr("SCREENSHOT_FULL_PAGE", false))
	if err != nil {
		t.Logger().Warn("screenshot capture failed", zap.String("label", label), zap.Error(err))
		node.Log(report.StatusWarning, fmt.Sprintf("screenshot %q failed: %v", label, err))
		return
	}
	node.AttachScreenshot(label, b64)
}

// CaptureHighlighted outlines selector, captures a screenshot under label
// and restores the element's style. Highlight failures degrade to a plain
// screenshot.
func (t *TestContext) CaptureHighlighted(label, selector string) {
	if page, err := t.Page(); err == nil {
		if err := capture.Highlight(page, selector); err != nil {
			t.Logger().Debug("highlight failed, capturing without it", zap.String("selector", selector), zap.Error(err))
		} else {
			defer func() {
				if err := capture.Unhighlight(page, selector); err != nil {
					t.Logger().Debug("unhighlight failed", zap.String("selector", selector), zap.Error(err))
				}
			}()
		}
	}
	t.CaptureScreenshot(label)
}

// End finishes the test: it stops the recorder and attaches the video,
// writes the end marker, extracts and persists this test's log excerpt,
// attaches a failure screenshot, records the outcome and releases every
// resource. Each step is guarded on its own so one failing release never
// blocks the others. End is idempotent; only the first call does the work.
func (t *TestContext) End(status report.Status, cause error) {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.ended = true
	t.mu.Unlock()

	node := t.ReportNode()
	sessionID := t.SessionID()

	// Failure evidence needs the live session, so it comes first.
	if status == report.StatusFail {
		t.CaptureScreenshot("state at failure")
	}

	videoPath := t.RemoveRecorder()
	if videoPath == "" {
		videoPath = t.locateVideo()
	}
	if node != nil {
		if videoPath != "" {
			node.AttachLink("video recording", videoPath)
		} else {
			node.Log(report.StatusInfo, "no video recording found for this test")
		}
	}

	// The end marker must hit the file before extraction scans for it.
	t.logEndMarker(status, cause)
	t.attachLogExcerpt(node, sessionID)

	if node != nil {
		switch status {
		case report.StatusPass:
			node.Pass("test passed")
		case report.StatusSkip:
			node.Skip("test skipped", cause)
		default:
			node.Fail("test failed", cause)
		}
	}

	t.rt.finishTest(t, status, cause, videoPath)
	t.RemoveSession()
	t.RemoveReportNode()
}

func (t *TestContext) locateVideo() string {
	dir := t.rt.cfg.StringOr("VIDEO_OUTPUT_DIR", "./target/videos")
	ext := t.rt.cfg.StringOr("VIDEO_FILE_EXTENSION", ".avi")
	path, err := capture.LocateVideo(dir, t.methodName, ext, 2*time.Second)
	if err != nil {
		t.Logger().Info("video lookup", zap.String("detail", err.Error()))
		return ""
	}
	return path
}

func (t *TestContext) logEndMarker(status report.Status, cause error) {
	log := t.Logger()
	switch status {
	case report.StatusFail:
		if cause != nil {
			log.Error(t.rt.failMarker, zap.Error(cause))
		} else {
			log.Error(t.rt.failMarker)
		}
	case report.StatusSkip:
		log.Warn(t.rt.passMarker, zap.String("outcome", "skipped"))
	default:
		log.Info(t.rt.passMarker)
	}
}

func (t *TestContext) attachLogExcerpt(node *report.MethodNode, sessionID string) {
	if t.rt.logPath == "" {
		return
	}
	excerpt := t.rt.extractor().Extract(t.rt.logPath, t.methodName, sessionID)
	if node != nil {
		node.AttachText("log excerpt", excerpt)
	}
	logDir := t.rt.cfg.Env("LOG_OUTPUT_DIR")
	if logDir == "" {
		return
	}
	if _, err := logging.PersistExcerpt(logDir, t.className, t.methodName, excerpt); err != nil {
		t.Logger().Warn("log excerpt persistence failed", zap.Error(err))
	}
}
