package driver

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Session is one live browser session. It is owned by the test worker that
// built it and must never be shared.
type Session struct {
	mu     sync.Mutex
	closed bool

	id          string
	browserName string
	browser     playwright.Browser // nil when launched as a persistent context
	context     playwright.BrowserContext
	page        playwright.Page
	log         *zap.Logger
}

// ID returns the session identifier derived from this instance's identity.
// It tags every log line the owning worker writes.
func (s *Session) ID() string { return s.id }

// BrowserName returns the resolved family name, not the raw identifier.
func (s *Session) BrowserName() string { return s.browserName }

// Page returns the session's page.
func (s *Session) Page() playwright.Page { return s.page }

// Context returns the session's browser context.
func (s *Session) Context() playwright.BrowserContext { return s.context }

// Browser returns the underlying browser, nil for persistent-context
// launches.
func (s *Session) Browser() playwright.Browser { return s.browser }

// Close releases the page, context and browser. It is idempotent and keeps
// going past individual close failures so teardown always completes; the
// first failure is returned for the caller to log.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var first error
	if s.page != nil {
		if err := s.page.Close(); err != nil && first == nil {
			first = fmt.Errorf("close page: %w", err)
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil && first == nil {
			first = fmt.Errorf("close context: %w", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && first == nil {
			first = fmt.Errorf("close browser: %w", err)
		}
	}
	return first
}

// Request describes the session to build.
type Request struct {
	// Browser is the identifier, matched by substring containment, so
	// "chrome headless" works. Mandatory.
	Browser string
	// ExecutablePath overrides automatic binary resolution when non-empty.
	ExecutablePath string
	// CustomOptions is the raw comma-separated ARG:/PREF:/CAP: string.
	CustomOptions string
	// Headless forces headless on top of whatever the identifier says.
	Headless bool
	// VideoDir asks the context to record video into this directory.
	VideoDir string
	// BaseURL becomes the context's base URL when non-empty.
	BaseURL string
	// DefaultTimeout applies to the context when positive.
	DefaultTimeout time.Duration
}

// Builder constructs sessions against one Playwright handle.
type Builder struct {
	pw  *playwright.Playwright
	log *zap.Logger
}

// NewBuilder returns a Builder. A nil logger is replaced with a no-op one.
func NewBuilder(pw *playwright.Playwright, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{pw: pw, log: log}
}

// Build resolves the family, applies the parsed custom options through it,
// launches the browser and wraps everything in a Session. Unsupported
// identifiers fail with ErrUnsupportedBrowser listing the supported set.
func (b *Builder) Build(req Request) (*Session, error) {
	fam, err := familyFor(req.Browser, b.log)
	if err != nil {
		return nil, err
	}

	opts := ParseOptions(req.CustomOptions)
	for _, arg := range opts.Args {
		fam.ApplyArgument(arg)
	}
	for key, val := range opts.Prefs {
		fam.ApplyPreference(key, val)
	}
	for key, val := range opts.Caps {
		fam.ApplyCapability(key, val)
	}
	if len(opts.Ignored) > 0 {
		b.log.Warn("skipping malformed custom-option tokens", zap.Strings("tokens", opts.Ignored))
	}

	spec := LaunchSpec{
		Headless:       req.Headless || strings.Contains(strings.ToLower(req.Browser), "headless"),
		ExecutablePath: req.ExecutablePath,
		VideoDir:       req.VideoDir,
		BaseURL:        req.BaseURL,
	}
	l, err := fam.Launch(b.pw, spec)
	if err != nil {
		return nil, err
	}

	s := &Session{
		browserName: fam.Name(),
		browser:     l.browser,
		context:     l.context,
		page:        l.page,
		log:         b.log,
	}
	s.id = identity(s)
	if req.DefaultTimeout > 0 {
		s.context.SetDefaultTimeout(float64(req.DefaultTimeout.Milliseconds()))
	}
	b.log.Info("browser session created",
		zap.String("browser", s.browserName),
		zap.String("sessionId", s.id),
		zap.Bool("headless", spec.Headless))
	return s, nil
}

// identity stringifies the session instance's own identity. Two live
// sessions in one process can never collide.
func identity(s *Session) string {
	return strings.TrimPrefix(fmt.Sprintf("%p", s), "0x")
}
