// Package driver builds configured browser sessions on top of Playwright.
// A session is owned by exactly one test worker; the builder applies the
// browser identifier, an optional executable path and the ARG:/PREF:/CAP:
// custom-options string through a per-family interface.
package driver

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

var (
	pwOnce     sync.Once
	pwInstance *playwright.Playwright
	pwErr      error
)

// Bootstrap returns the shared Playwright handle, installing the driver and
// browser binaries on first use. Installation is the automatic resolution
// step: it only runs when no explicit executable path is in play, and it is
// quiet because test output belongs to the tests.
func Bootstrap() (*playwright.Playwright, error) {
	pwOnce.Do(func() {
		if err := playwright.Install(&playwright.RunOptions{
			Verbose: false,
			Stdout:  io.Discard,
			Stderr:  io.Discard,
		}); err != nil {
			pwErr = fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		pw, err := playwright.Run()
		if err != nil {
			pwErr = fmt.Errorf("failed to start playwright: %w", err)
			return
		}
		pwInstance = pw
	})
	return pwInstance, pwErr
}

// Shutdown stops the shared Playwright handle. Only meant for process
// teardown; sessions must be closed first.
func Shutdown() error {
	if pwInstance == nil {
		return nil
	}
	return pwInstance.Stop()
}
