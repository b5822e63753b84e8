// Package webrig is a support library for browser-driven UI tests. It wraps
// Playwright sessions, an HTML report, per-test video recording and a shared
// tagged log file behind an explicit Runtime/TestContext pair: the Runtime
// owns process-wide state, a TestContext owns everything one parallel test
// method touches.
//
// Typical use from a test:
//
//	rt, err := webrig.New(webrig.Options{})
//	defer rt.Close()
//
//	tc, err := rt.BeginTest("LoginTest", "testValidLogin")
//	defer tc.End(report.StatusPass, nil)
package webrig

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webrig/webrig/capture"
	"github.com/webrig/webrig/config"
	"github.com/webrig/webrig/driver"
	"github.com/webrig/webrig/internal/fileutil"
	"github.com/webrig/webrig/internal/history"
	"github.com/webrig/webrig/internal/hooks"
	"github.com/webrig/webrig/logging"
	"github.com/webrig/webrig/report"
)

// Options configures Runtime construction.
type Options struct {
	// ConfigFile overrides the probed webrig.properties path.
	ConfigFile string
	// LoggingFile overrides the probed logging.properties path.
	LoggingFile string
	// Logger replaces the constructed logger. With an external logger there
	// is no known file sink, so log-excerpt extraction is disabled.
	Logger *zap.Logger
}

// Runtime owns the process-scoped objects: configuration, logger, report,
// history store, hooks bus and the shared Playwright handle. Construct it
// once at startup, pass it to every test, Close it after all tests finish.
type Runtime struct {
	cfg     *config.Store
	log     *zap.Logger
	logPath string
	report  *report.Report
	history *history.Store
	bus     *hooks.Bus

	passMarker  string
	failMarker  string
	startMarker string

	builderOnce sync.Once
	builder     *driver.Builder
	builderErr  error

	profilesOnce sync.Once
	profiles     *driver.Profiles
	profilesErr  error

	mu       sync.Mutex
	contexts map[string]*TestContext
	closed   bool
}

// New constructs a Runtime: configuration load, environment export, logger
// construction, optional artifact cleanup, report and history setup.
// Playwright itself bootstraps lazily on the first session.
func New(opts Options) (*Runtime, error) {
	cfg := config.Load(config.Options{File: opts.ConfigFile, LoggingFile: opts.LoggingFile, Logger: opts.Logger})

	log := opts.Logger
	logPath := ""
	if log == nil {
		var err error
		log, logPath, err = logging.New(logging.OptionsFromStore(cfg))
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}

	rt := &Runtime{
		cfg:         cfg,
		log:         log,
		logPath:     logPath,
		bus:         hooks.NewBus(),
		startMarker: cfg.StringOr("LOG_MARKER_TEST_START", logging.DefaultStartMarker),
		passMarker:  cfg.StringOr("LOG_MARKER_TEST_PASS", logging.DefaultPassMarker),
		failMarker:  cfg.StringOr("LOG_MARKER_TEST_FAIL", logging.DefaultFailMarker),
		contexts:    make(map[string]*TestContext),
	}

	if cfg.BoolOr("CLEAN_OUTPUT_ON_START", false) {
		rt.cleanArtifacts()
	}

	reportDir := cfg.StringOr("REPORT_OUTPUT_DIR", "./target/report")
	reportName := cfg.StringOr("REPORT_NAME", "webrig-report.html")
	rt.report = report.New(cfg.StringOr("REPORT_TITLE", "WebRig Test Report"), filepath.Join(reportDir, reportName))

	if cfg.BoolOr("HISTORY_ENABLED", false) {
		store, err := history.Open(cfg.StringOr("HISTORY_DB_PATH", filepath.Join(reportDir, "history.db")))
		if err != nil {
			// History is a convenience; a broken store must not block a run.
			log.Warn("history store unavailable, continuing without it", zap.Error(err))
		} else {
			rt.history = store
			rt.bus.OnTestFinished(rt.recordHistory)
			if err := store.BeginRun(rt.report.RunID(), rt.report.Title()); err != nil {
				log.Warn("history run registration failed", zap.Error(err))
			}
		}
	}

	rt.bus.Emit(hooks.EventRunStarted, hooks.RunEventData{RunID: rt.report.RunID(), Title: rt.report.Title()})
	return rt, nil
}

// Config exposes the merged configuration store.
func (r *Runtime) Config() *config.Store { return r.cfg }

// Logger exposes the process logger.
func (r *Runtime) Logger() *zap.Logger { return r.log }

// Report exposes the report root, mainly for consumers that group nodes
// themselves.
func (r *Runtime) Report() *report.Report { return r.report }

// Hooks exposes the lifecycle bus for consumer subscriptions.
func (r *Runtime) Hooks() *hooks.Bus { return r.bus }

// BeginTest starts one test method using the configured browser, options
// and driver path. It builds the session, creates the report nodes, starts
// the recorder and returns the owning TestContext.
func (r *Runtime) BeginTest(className, methodName string) (*TestContext, error) {
	req := driver.Request{
		Browser:        r.cfg.StringOr("BROWSER", "chrome"),
		ExecutablePath: r.cfg.StringOr("DRIVER_PATH", ""),
		CustomOptions:  r.cfg.StringOr("BROWSER_CUSTOM_OPTIONS", ""),
	}
	return r.BeginTestWith(req, className, methodName)
}

// BeginTestWithProfile starts one test method using a named profile from the
// configured profiles file.
func (r *Runtime) BeginTestWithProfile(profile, className, methodName string) (*TestContext, error) {
	profiles, err := r.loadProfiles()
	if err != nil {
		return nil, err
	}
	p, err := profiles.Resolve(profile)
	if err != nil {
		return nil, err
	}
	return r.BeginTestWith(p.Request(), className, methodName)
}

// BeginTestWith starts one test method from an explicit session request.
func (r *Runtime) BeginTestWith(req driver.Request, className, methodName string) (*TestContext, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("runtime is closed")
	}
	r.mu.Unlock()

	builder, err := r.sessionBuilder()
	if err != nil {
		return nil, err
	}

	videoMode := r.cfg.StringOr("VIDEO_RECORD_MODE", capture.ModeDesktop)
	videoDir := r.cfg.StringOr("VIDEO_OUTPUT_DIR", "./target/videos")
	if videoMode == capture.ModeBrowser && req.VideoDir == "" {
		// Playwright binds recording to the context, so browser-mode video
		// must be requested at session creation.
		req.VideoDir = videoDir
	}

	tc := &TestContext{
		rt:         r,
		className:  className,
		methodName: methodName,
		startedAt:  time.Now(),
		log:        logging.WithTest(r.log, methodName),
	}

	session, err := builder.Build(req)
	if err != nil {
		return nil, fmt.Errorf("begin test %s.%s: %w", className, methodName, err)
	}
	if err := tc.SetSession(session); err != nil {
		return nil, err
	}

	node := r.report.GetOrCreateClassNode(className).CreateMethodNode(methodName)
	if err := tc.SetReportNode(node); err != nil {
		tc.RemoveSession()
		return nil, err
	}

	recorder := capture.NewRecorder(capture.RecorderConfig{
		Mode:      videoMode,
		OutputDir: videoDir,
		Extension: r.cfg.StringOr("VIDEO_FILE_EXTENSION", ""),
		FrameRate: r.cfg.IntOr("VIDEO_FRAME_RATE", 15),
		Logger:    tc.Logger(),
	}, session.Page())
	if err := recorder.Start(); err != nil {
		// Recording is diagnostics, never a reason to fail the test.
		tc.Logger().Info("video recording unavailable", zap.String("detail", err.Error()))
	} else if err := tc.SetRecorder(recorder); err != nil {
		tc.Logger().Warn("recorder registration failed", zap.Error(err))
	}

	tc.Logger().Info(r.startMarker)
	node.Log(report.StatusInfo, fmt.Sprintf("session %s on %s", session.ID(), session.BrowserName()))

	r.mu.Lock()
	r.contexts[className+"/"+methodName] = tc
	r.mu.Unlock()

	r.bus.Emit(hooks.EventTestStarted, hooks.TestEventData{
		RunID:     r.report.RunID(),
		ClassName: className,
		Method:    methodName,
		SessionID: session.ID(),
	})
	return tc, nil
}

// Close finishes the run: leaked contexts are swept, the report is flushed,
// history and Playwright are shut down. Safe to call more than once.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	leaked := make([]*TestContext, 0, len(r.contexts))
	for _, tc := range r.contexts {
		leaked = append(leaked, tc)
	}
	r.mu.Unlock()

	for _, tc := range leaked {
		r.log.Warn("test context never ended, sweeping",
			zap.String("class", tc.ClassName()), zap.String("method", tc.MethodName()))
		tc.End(report.StatusSkip, fmt.Errorf("runtime closed before the test ended"))
	}

	path, err := r.report.Flush()
	if err != nil {
		r.log.Error("report flush failed", zap.Error(err))
	} else {
		r.log.Info("report written", zap.String("path", path))
	}

	r.bus.Emit(hooks.EventRunFinished, hooks.RunEventData{
		RunID: r.report.RunID(), Title: r.report.Title(), ReportPath: path,
	})

	if r.history != nil {
		if herr := r.history.FinishRun(r.report.RunID(), path); herr != nil {
			r.log.Warn("history run finalization failed", zap.Error(herr))
		}
		if herr := r.history.Close(); herr != nil {
			r.log.Warn("history store close failed", zap.Error(herr))
		}
	}

	if serr := driver.Shutdown(); serr != nil {
		r.log.Warn("playwright shutdown failed", zap.Error(serr))
	}
	_ = r.log.Sync()
	return err
}

// finishTest clears the registry entry and emits the completion event. Part
// of TestContext.End, separated so the registry stays encapsulated here.
func (r *Runtime) finishTest(tc *TestContext, status report.Status, cause error, videoPath string) {
	r.mu.Lock()
	delete(r.contexts, tc.className+"/"+tc.methodName)
	r.mu.Unlock()

	r.bus.Emit(hooks.EventTestFinished, hooks.TestEventData{
		RunID:     r.report.RunID(),
		ClassName: tc.className,
		Method:    tc.methodName,
		SessionID: tc.SessionID(),
		Status:    string(status),
		Duration:  time.Since(tc.startedAt),
		VideoPath: videoPath,
		Error:     cause,
	})
}

func (r *Runtime) recordHistory(d hooks.TestEventData) {
	errText := ""
	if d.Error != nil {
		errText = d.Error.Error()
	}
	err := r.history.RecordResult(history.Result{
		RunID:     d.RunID,
		ClassName: d.ClassName,
		Method:    d.Method,
		SessionID: d.SessionID,
		Status:    d.Status,
		Duration:  d.Duration,
		VideoPath: d.VideoPath,
		Error:     errText,
	})
	if err != nil {
		r.log.Warn("history result recording failed", zap.Error(err))
	}
}

// extractor builds the segment extractor from the configured markers.
func (r *Runtime) extractor() logging.Extractor {
	return logging.Extractor{
		StartMarker: r.startMarker,
		PassMarker:  r.passMarker,
		FailMarker:  r.failMarker,
		MaxLines:    r.cfg.IntOr("LOG_MAX_CAPTURE_LINES", logging.DefaultMaxCaptureLines),
		Strict:      r.cfg.Env("LOG_FILE_FORMAT") == "json",
		Logger:      r.log,
	}
}

func (r *Runtime) sessionBuilder() (*driver.Builder, error) {
	r.builderOnce.Do(func() {
		pw, err := driver.Bootstrap()
		if err != nil {
			r.builderErr = err
			return
		}
		r.builder = driver.NewBuilder(pw, r.log)
	})
	return r.builder, r.builderErr
}

func (r *Runtime) loadProfiles() (*driver.Profiles, error) {
	r.profilesOnce.Do(func() {
		path := r.cfg.StringOr("BROWSER_PROFILES_FILE", "")
		if path == "" {
			r.profilesErr = fmt.Errorf("no browser profiles file configured (BROWSER_PROFILES_FILE)")
			return
		}
		r.profiles, r.profilesErr = driver.LoadProfiles(path)
	})
	return r.profiles, r.profilesErr
}

// cleanArtifacts sweeps stale files from the report, video and log output
// directories. Per-directory failures are logged, never fatal.
func (r *Runtime) cleanArtifacts() {
	maxAge := time.Duration(r.cfg.IntOr("ARTIFACT_MAX_AGE_HOURS", 168)) * time.Hour
	dirs := []string{
		r.cfg.StringOr("REPORT_OUTPUT_DIR", "./target/report"),
		r.cfg.StringOr("VIDEO_OUTPUT_DIR", "./target/videos"),
		r.cfg.Env("LOG_OUTPUT_DIR"),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		removed, err := fileutil.CleanDir(dir, maxAge, r.log)
		if err != nil {
			r.log.Warn("artifact cleanup failed", zap.String("dir", dir), zap.Error(err))
			continue
		}
		if removed > 0 {
			r.log.Info("stale artifacts removed", zap.String("dir", dir), zap.Int("files", removed))
		}
	}
}
