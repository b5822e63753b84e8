package driver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// ErrUnsupportedBrowser is wrapped when a browser identifier matches no
// supported family.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// supportedBrowsers is the set enumerated in unsupported-identifier errors.
var supportedBrowsers = []string{"chrome", "edge", "firefox", "safari"}

// LaunchSpec carries the family-independent launch inputs the builder
// computed from the request.
type LaunchSpec struct {
	Headless       bool
	ExecutablePath string
	VideoDir       string // non-empty asks the context to record video here
	BaseURL        string
}

// launched bundles what a family launch produces. browser is nil when the
// family had to launch a persistent context.
type launched struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// Family is one supported browser family. The builder feeds parsed options
// through these methods instead of inspecting the family type: arguments a
// family does not take are ignored where they land, never an error.
type Family interface {
	Name() string
	ApplyArgument(arg string)
	ApplyPreference(key string, value any)
	ApplyCapability(key string, value any)
	Launch(pw *playwright.Playwright, spec LaunchSpec) (launched, error)
}

// familyFor picks the family by substring containment on the identifier,
// so "chrome headless" or "Edge 120" resolve naturally.
func familyFor(identifier string, log *zap.Logger) (Family, error) {
	if log == nil {
		log = zap.NewNop()
	}
	name := strings.ToLower(strings.TrimSpace(identifier))
	switch {
	case strings.Contains(name, "edge"):
		return &chromiumFamily{name: "edge", channel: "msedge", caps: newCapSet(log), prefs: map[string]any{}, log: log}, nil
	case strings.Contains(name, "chrome"):
		return &chromiumFamily{name: "chrome", caps: newCapSet(log), prefs: map[string]any{}, log: log}, nil
	case strings.Contains(name, "firefox"):
		return &firefoxFamily{caps: newCapSet(log), prefs: map[string]any{}, log: log}, nil
	case strings.Contains(name, "safari"):
		return &webkitFamily{caps: newCapSet(log), log: log}, nil
	default:
		return nil, fmt.Errorf("%w %q: supported browsers are %s",
			ErrUnsupportedBrowser, identifier, strings.Join(supportedBrowsers, ", "))
	}
}

// capSet holds capabilities all families understand the same way. Unknown
// keys are kept around and logged, they just never reach the browser.
type capSet struct {
	headless          *bool
	ignoreHTTPSErrors *bool
	slowMoMs          *float64
	viewportW         *int
	viewportH         *int
	channel           string
	extra             map[string]any
	log               *zap.Logger
}

func newCapSet(log *zap.Logger) *capSet {
	if log == nil {
		log = zap.NewNop()
	}
	return &capSet{extra: map[string]any{}, log: log}
}

func (c *capSet) apply(key string, value any) {
	switch key {
	case "acceptInsecureCerts":
		if b, ok := asBool(value); ok {
			c.ignoreHTTPSErrors = &b
		}
	case "headless":
		if b, ok := asBool(value); ok {
			c.headless = &b
		}
	case "channel":
		if s, ok := value.(string); ok {
			c.channel = s
		}
	case "slowMo":
		if f, ok := asFloat(value); ok {
			c.slowMoMs = &f
		}
	case "viewportWidth":
		if n, ok := asInt(value); ok {
			c.viewportW = &n
		}
	case "viewportHeight":
		if n, ok := asInt(value); ok {
			c.viewportH = &n
		}
	default:
		c.extra[key] = value
		c.log.Debug("capability has no mapping, keeping unapplied", zap.String("key", key))
	}
}

// headlessOr merges the capability override over the builder's computed
// headless flag.
func (c *capSet) headlessOr(spec bool) bool {
	if c.headless != nil {
		return *c.headless
	}
	return spec
}

// contextOptions translates the shared capabilities into context options.
func (c *capSet) contextOptions(spec LaunchSpec) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{}
	if c.ignoreHTTPSErrors != nil {
		opts.IgnoreHttpsErrors = c.ignoreHTTPSErrors
	}
	if c.viewportW != nil && c.viewportH != nil {
		opts.Viewport = &playwright.Size{Width: *c.viewportW, Height: *c.viewportH}
	}
	if spec.VideoDir != "" {
		opts.RecordVideo = &playwright.RecordVideo{Dir: spec.VideoDir}
	}
	if spec.BaseURL != "" {
		opts.BaseURL = playwright.String(spec.BaseURL)
	}
	return opts
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		if strings.EqualFold(t, "true") {
			return true, true
		}
		if strings.EqualFold(t, "false") {
			return false, true
		}
	}
	return false, false
}

func asInt(v any) (int, bool) {
	if s, ok := v.(string); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// chromiumFamily drives Chrome and Edge. Preferences are applied as a map
// written into a managed profile, which is why a session with preferences
// launches a persistent context instead of a plain browser.
type chromiumFamily struct {
	name    string
	channel string
	args    []string
	prefs   map[string]any
	caps    *capSet
	log     *zap.Logger
}

func (c *chromiumFamily) Name() string { return c.name }

func (c *chromiumFamily) ApplyArgument(arg string) {
	c.args = append(c.args, normalizeArg(arg))
}

func (c *chromiumFamily) ApplyPreference(key string, value any) {
	c.prefs[key] = value
}

func (c *chromiumFamily) ApplyCapability(key string, value any) {
	c.caps.apply(key, value)
}

func (c *chromiumFamily) Launch(pw *playwright.Playwright, spec LaunchSpec) (launched, error) {
	channel := c.channel
	if c.caps.channel != "" {
		channel = c.caps.channel
	}
	headless := c.caps.headlessOr(spec.Headless)

	if len(c.prefs) > 0 {
		profileDir, err := writeChromiumProfile(c.prefs)
		if err != nil {
			return launched{}, fmt.Errorf("failed to write chromium preferences: %w", err)
		}
		ctxOpts := c.caps.contextOptions(spec)
		opts := playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless:          playwright.Bool(headless),
			Args:              c.args,
			IgnoreHttpsErrors: ctxOpts.IgnoreHttpsErrors,
			Viewport:          ctxOpts.Viewport,
			RecordVideo:       ctxOpts.RecordVideo,
			BaseURL:           ctxOpts.BaseURL,
			SlowMo:            c.caps.slowMoMs,
		}
		if channel != "" {
			opts.Channel = playwright.String(channel)
		}
		if spec.ExecutablePath != "" {
			opts.ExecutablePath = playwright.String(spec.ExecutablePath)
		}
		context, err := pw.Chromium.LaunchPersistentContext(profileDir, opts)
		if err != nil {
			return launched{}, fmt.Errorf("failed to launch %s with preferences: %w", c.name, err)
		}
		page, err := firstPage(context)
		if err != nil {
			_ = context.Close()
			return launched{}, err
		}
		return launched{browser: context.Browser(), context: context, page: page}, nil
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     c.args,
		SlowMo:   c.caps.slowMoMs,
	}
	if channel != "" {
		opts.Channel = playwright.String(channel)
	}
	if spec.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(spec.ExecutablePath)
	}
	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		return launched{}, fmt.Errorf("failed to launch %s: %w", c.name, err)
	}
	return newContextAndPage(browser, c.caps.contextOptions(spec))
}

// firefoxFamily applies preferences as individually-typed user preferences.
type firefoxFamily struct {
	args  []string
	prefs map[string]any
	caps  *capSet
	log   *zap.Logger
}

func (f *firefoxFamily) Name() string { return "firefox" }

func (f *firefoxFamily) ApplyArgument(arg string) {
	f.args = append(f.args, normalizeArg(arg))
}

func (f *firefoxFamily) ApplyPreference(key string, value any) {
	f.prefs[key] = value
}

func (f *firefoxFamily) ApplyCapability(key string, value any) {
	f.caps.apply(key, value)
}

func (f *firefoxFamily) Launch(pw *playwright.Playwright, spec LaunchSpec) (launched, error) {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(f.caps.headlessOr(spec.Headless)),
		Args:     f.args,
		SlowMo:   f.caps.slowMoMs,
	}
	if len(f.prefs) > 0 {
		opts.FirefoxUserPrefs = f.prefs
	}
	if spec.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(spec.ExecutablePath)
	}
	browser, err := pw.Firefox.Launch(opts)
	if err != nil {
		return launched{}, fmt.Errorf("failed to launch firefox: %w", err)
	}
	return newContextAndPage(browser, f.caps.contextOptions(spec))
}

// webkitFamily is the family that takes no command-line arguments; only
// capabilities apply.
type webkitFamily struct {
	caps *capSet
	log  *zap.Logger
}

func (w *webkitFamily) Name() string { return "safari" }

func (w *webkitFamily) ApplyArgument(arg string) {
	w.log.Debug("safari takes no command-line arguments, ignoring", zap.String("arg", arg))
}

func (w *webkitFamily) ApplyPreference(key string, _ any) {
	w.log.Debug("safari takes no preferences, ignoring", zap.String("key", key))
}

func (w *webkitFamily) ApplyCapability(key string, value any) {
	w.caps.apply(key, value)
}

func (w *webkitFamily) Launch(pw *playwright.Playwright, spec LaunchSpec) (launched, error) {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(w.caps.headlessOr(spec.Headless)),
		SlowMo:   w.caps.slowMoMs,
	}
	if spec.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(spec.ExecutablePath)
	}
	browser, err := pw.WebKit.Launch(opts)
	if err != nil {
		return launched{}, fmt.Errorf("failed to launch safari: %w", err)
	}
	return newContextAndPage(browser, w.caps.contextOptions(spec))
}

func newContextAndPage(browser playwright.Browser, opts playwright.BrowserNewContextOptions) (launched, error) {
	context, err := browser.NewContext(opts)
	if err != nil {
		_ = browser.Close()
		return launched{}, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		_ = browser.Close()
		return launched{}, fmt.Errorf("failed to create page: %w", err)
	}
	return launched{browser: browser, context: context, page: page}, nil
}

func firstPage(context playwright.BrowserContext) (playwright.Page, error) {
	if pages := context.Pages(); len(pages) > 0 {
		return pages[0], nil
	}
	page, err := context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}

// normalizeArg makes "headless=new" and "--headless=new" equivalent.
func normalizeArg(arg string) string {
	if strings.HasPrefix(arg, "-") {
		return arg
	}
	return "--" + arg
}

// writeChromiumProfile materializes the preference map as a profile
// directory. Dotted keys nest the way the browser's preference file does.
func writeChromiumProfile(prefs map[string]any) (string, error) {
	dir, err := os.MkdirTemp("", "webrig-profile-")
	if err != nil {
		return "", err
	}
	defaultDir := filepath.Join(dir, "Default")
	if err := os.MkdirAll(defaultDir, 0o755); err != nil {
		return "", err
	}
	raw, err := json.Marshal(expandDotted(prefs))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(defaultDir, "Preferences"), raw, 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// expandDotted turns {"download.default_directory": x} into
// {"download": {"default_directory": x}}.
func expandDotted(flat map[string]any) map[string]any {
	out := map[string]any{}
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := node[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[part] = next
			}
			node = next
		}
		node[parts[len(parts)-1]] = value
	}
	return out
}
