// Package wait provides bounded polling waits for page and element
// conditions. Every wait takes a caller-supplied timeout; expiry surfaces as
// a normal error so the test runner can fail the test and still run
// teardown.
package wait

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrTimeout is wrapped by every wait that expires.
var ErrTimeout = errors.New("condition not met before timeout")

const (
	DefaultTimeout  = 30 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// For polls cond every interval until it returns true, returns an error, the
// timeout expires, or ctx is done. The condition is checked once immediately.
func For(ctx context.Context, timeout, interval time.Duration, cond func() (bool, error)) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w after %s", ErrTimeout, timeout)
		case <-tick.C:
		}
	}
}

// Visible waits until selector resolves to a visible element.
func Visible(page playwright.Page, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	err := page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for %s visible: %w", selector, err)
	}
	return nil
}

// Hidden waits until selector resolves to no visible element.
func Hidden(page playwright.Page, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	err := page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for %s hidden: %w", selector, err)
	}
	return nil
}

// Clickable polls until selector is both visible and enabled. Lookup errors
// while polling count as not-ready so a late-attaching element does not
// abort the wait.
func Clickable(ctx context.Context, page playwright.Page, selector string, timeout, interval time.Duration) error {
	loc := page.Locator(selector)
	var lastErr error
	err := For(ctx, timeout, interval, func() (bool, error) {
		visible, err := loc.IsVisible()
		if err != nil {
			lastErr = err
			return false, nil
		}
		if !visible {
			return false, nil
		}
		enabled, err := loc.IsEnabled()
		if err != nil {
			lastErr = err
			return false, nil
		}
		return enabled, nil
	})
	if err != nil {
		if lastErr != nil {
			return fmt.Errorf("wait for %s clickable: %w (last check: %v)", selector, err, lastErr)
		}
		return fmt.Errorf("wait for %s clickable: %w", selector, err)
	}
	return nil
}

// URLContains polls until the page URL contains fragment.
func URLContains(ctx context.Context, page playwright.Page, fragment string, timeout, interval time.Duration) error {
	err := For(ctx, timeout, interval, func() (bool, error) {
		return strings.Contains(page.URL(), fragment), nil
	})
	if err != nil {
		return fmt.Errorf("wait for url containing %q: %w", fragment, err)
	}
	return nil
}

// TitleContains polls until the page title contains fragment.
func TitleContains(ctx context.Context, page playwright.Page, fragment string, timeout, interval time.Duration) error {
	err := For(ctx, timeout, interval, func() (bool, error) {
		title, err := page.Title()
		if err != nil {
			return false, nil
		}
		return strings.Contains(title, fragment), nil
	})
	if err != nil {
		return fmt.Errorf("wait for title containing %q: %w", fragment, err)
	}
	return nil
}
