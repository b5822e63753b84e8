package capture

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Recorder is a per-test video recorder. Start begins recording, Stop ends
// it and returns the path of the finished file named after the test method.
// One recorder serves exactly one test; it is bound to the worker's context
// and never shared.
type Recorder interface {
	Start() error
	Stop(methodName string) (string, error)
}

// Recording modes selected by VIDEO_RECORD_MODE.
const (
	ModeDesktop = "desktop"
	ModeBrowser = "browser"
	ModeOff     = "off"
)

// RecorderConfig carries the settings shared by all recorder modes.
type RecorderConfig struct {
	Mode      string
	OutputDir string
	Extension string // including the dot, default ".avi" / ".webm" per mode
	FrameRate int
	Logger    *zap.Logger
}

// NewRecorder builds the recorder for the configured mode. The page is only
// used in browser mode, where Playwright binds recording to the context.
// Unknown modes degrade to off with a log line rather than failing the test.
func NewRecorder(cfg RecorderConfig, page playwright.Page) Recorder {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case ModeDesktop, "":
		ext := cfg.Extension
		if ext == "" {
			ext = ".avi"
		}
		return &desktopRecorder{dir: cfg.OutputDir, ext: ext, fps: cfg.FrameRate, log: log}
	case ModeBrowser:
		ext := cfg.Extension
		if ext == "" || ext == ".avi" {
			ext = ".webm"
		}
		return &browserRecorder{page: page, dir: cfg.OutputDir, ext: ext, log: log}
	case ModeOff:
		return offRecorder{}
	default:
		log.Warn("unknown video record mode, recording disabled", zap.String("mode", cfg.Mode))
		return offRecorder{}
	}
}

// offRecorder records nothing.
type offRecorder struct{}

func (offRecorder) Start() error { return nil }

func (offRecorder) Stop(string) (string, error) {
	return "", fmt.Errorf("video recording is off")
}

// browserRecorder relies on the Playwright context's own recording, which
// the session builder enabled at context creation. Stop saves the context
// video under the method's name.
type browserRecorder struct {
	page playwright.Page
	dir  string
	ext  string
	log  *zap.Logger
}

func (r *browserRecorder) Start() error {
	if r.page == nil {
		return fmt.Errorf("browser recording: no page")
	}
	if r.page.Video() == nil {
		return fmt.Errorf("browser recording: context was created without video")
	}
	return nil
}

func (r *browserRecorder) Stop(methodName string) (string, error) {
	if r.page == nil {
		return "", fmt.Errorf("browser recording: no page")
	}
	video := r.page.Video()
	if video == nil {
		return "", fmt.Errorf("browser recording: context was created without video")
	}
	target := videoPath(r.dir, methodName, r.ext)
	if err := video.SaveAs(target); err != nil {
		return "", fmt.Errorf("save context video: %w", err)
	}
	return target, nil
}
