package capture

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// desktopRecorder grabs frames of the primary display and muxes them into an
// MJPEG AVI. The method name is only known at Stop, so frames go to a
// temporary file that Stop renames into place.
type desktopRecorder struct {
	dir string
	ext string
	fps int
	log *zap.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	tmpPath string
	avi     *aviWriter
	grabErr error
}

func (r *desktopRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("desktop recording already started")
	}
	if screenshot.NumActiveDisplays() == 0 {
		return fmt.Errorf("desktop recording: no active display")
	}
	bounds := screenshot.GetDisplayBounds(0)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create video directory %s: %w", r.dir, err)
	}
	tmp, err := os.CreateTemp(r.dir, "recording-*"+r.ext)
	if err != nil {
		return fmt.Errorf("create recording file: %w", err)
	}
	r.tmpPath = tmp.Name()
	tmp.Close()

	fps := r.fps
	if fps <= 0 {
		fps = 15
	}
	avi, err := newAVIWriter(r.tmpPath, bounds.Dx(), bounds.Dy(), fps)
	if err != nil {
		os.Remove(r.tmpPath)
		return err
	}
	r.avi = avi
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.running = true

	go r.grab(bounds.Dx(), bounds.Dy(), time.Second/time.Duration(fps))
	return nil
}

func (r *desktopRecorder) grab(width, height int, interval time.Duration) {
	defer close(r.done)
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var buf bytes.Buffer
	for {
		select {
		case <-r.stop:
			return
		case <-tick.C:
			img, err := screenshot.Capture(0, 0, width, height)
			if err != nil {
				// A transient grab failure drops this frame only.
				r.log.Debug("frame capture failed", zap.Error(err))
				continue
			}
			buf.Reset()
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
				r.log.Debug("frame encode failed", zap.Error(err))
				continue
			}
			if err := r.avi.AddFrame(buf.Bytes()); err != nil {
				r.mu.Lock()
				r.grabErr = err
				r.mu.Unlock()
				return
			}
		}
	}
}

func (r *desktopRecorder) Stop(methodName string) (string, error) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return "", fmt.Errorf("desktop recording was never started")
	}
	r.running = false
	r.mu.Unlock()

	close(r.stop)
	<-r.done

	if err := r.avi.Close(); err != nil {
		os.Remove(r.tmpPath)
		return "", fmt.Errorf("finalize recording: %w", err)
	}
	if r.grabErr != nil {
		os.Remove(r.tmpPath)
		return "", fmt.Errorf("recording aborted: %w", r.grabErr)
	}

	target := videoPath(r.dir, methodName, r.ext)
	if err := os.Rename(r.tmpPath, target); err != nil {
		os.Remove(r.tmpPath)
		return "", fmt.Errorf("move recording into place: %w", err)
	}
	return target, nil
}

// videoPath is the naming convention every recorder and the locator share:
// <dir>/<methodName><ext>.
func videoPath(dir, methodName, ext string) string {
	return filepath.Join(dir, methodName+ext)
}
