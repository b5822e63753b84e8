// Package capture produces the diagnostic artifacts attached to report
// nodes: base64 screenshots, per-test videos and element highlighting.
// Everything here returns errors; the TestContext wrappers decide whether a
// failure degrades to a log line or propagates.
package capture

import (
	"encoding/base64"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Screenshot captures the page as a base64-encoded PNG.
func Screenshot(page playwright.Page, fullPage bool) (string, error) {
	if page == nil {
		return "", fmt.Errorf("screenshot: no page")
	}
	raw, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
