// Package report maintains the run's report tree and renders it as a single
// self-contained HTML file. The tree is root → class nodes → method nodes;
// class-node creation is idempotent and race-safe, method nodes are owned by
// the worker that created them.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a test or step outcome.
type Status string

const (
	StatusInfo    Status = "info"
	StatusWarning Status = "warning"
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusSkip    Status = "skip"
)

// Entry kinds. Text entries are treated as markdown at render time.
const (
	kindText       = "text"
	kindScreenshot = "screenshot"
	kindLink       = "link"
	kindExcerpt    = "excerpt"
)

// Entry is one attached step, artifact or status line on a method node.
type Entry struct {
	Time   time.Time
	Status Status
	Kind   string
	Label  string
	Body   string // markdown, base64 image data or preformatted excerpt
	Href   string // link target for kindLink
}

// Report is the process-wide report root. One per Runtime.
type Report struct {
	mu      sync.Mutex
	title   string
	runID   string
	started time.Time
	outPath string
	classes map[string]*ClassNode
	order   []string

	flushOnce sync.Once
	flushPath string
	flushErr  error
}

// New creates an empty report writing to outPath on Flush.
func New(title, outPath string) *Report {
	return &Report{
		title:   title,
		runID:   uuid.NewString(),
		started: time.Now(),
		outPath: outPath,
		classes: make(map[string]*ClassNode),
	}
}

// RunID identifies this run in the history store.
func (r *Report) RunID() string { return r.runID }

// Title returns the report title.
func (r *Report) Title() string { return r.title }

// GetOrCreateClassNode returns the node for a test class, creating and
// caching it on first request. Calls with the same name always return the
// same node, also under concurrency.
func (r *Report) GetOrCreateClassNode(name string) *ClassNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, ok := r.classes[name]; ok {
		return node
	}
	node := &ClassNode{name: name}
	r.classes[name] = node
	r.order = append(r.order, name)
	return node
}

// Classes returns the class nodes in creation order.
func (r *Report) Classes() []*ClassNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ClassNode, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.classes[name])
	}
	return out
}

// Flush renders the report HTML exactly once, after all workers finish.
// Later calls return the first result. The rendered path is returned so the
// caller can surface it.
func (r *Report) Flush() (string, error) {
	r.flushOnce.Do(func() {
		html, err := r.render()
		if err != nil {
			r.flushErr = fmt.Errorf("render report: %w", err)
			return
		}
		if err := os.MkdirAll(filepath.Dir(r.outPath), 0o755); err != nil {
			r.flushErr = fmt.Errorf("create report directory: %w", err)
			return
		}
		if err := os.WriteFile(r.outPath, html, 0o644); err != nil {
			r.flushErr = fmt.Errorf("write report %s: %w", r.outPath, err)
			return
		}
		r.flushPath = r.outPath
	})
	return r.flushPath, r.flushErr
}

// ClassNode groups the method nodes of one test class. Shared across
// workers, so method creation takes the lock.
type ClassNode struct {
	mu      sync.Mutex
	name    string
	methods []*MethodNode
}

// Name returns the class name.
func (c *ClassNode) Name() string { return c.name }

// CreateMethodNode adds a child node for one test method. The caller stores
// it as its worker's active node; a class may accumulate many method nodes
// but each belongs to exactly one worker.
func (c *ClassNode) CreateMethodNode(method string) *MethodNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	node := &MethodNode{name: method, status: StatusInfo, started: time.Now()}
	c.methods = append(c.methods, node)
	return node
}

// Methods returns the method nodes in creation order.
func (c *ClassNode) Methods() []*MethodNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*MethodNode, len(c.methods))
	copy(out, c.methods)
	return out
}

// MethodNode is one test method's report entry. Owned by a single worker;
// the lock only protects against the renderer reading while the owner is
// still appending.
type MethodNode struct {
	mu      sync.Mutex
	name    string
	status  Status
	started time.Time
	ended   time.Time
	entries []Entry
}

// Name returns the method name.
func (m *MethodNode) Name() string { return m.name }

// Status returns the node's final status.
func (m *MethodNode) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Duration returns how long the method ran, up to now while still open.
func (m *MethodNode) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended.IsZero() {
		return time.Since(m.started)
	}
	return m.ended.Sub(m.started)
}

// Log appends a step line with an explicit status.
func (m *MethodNode) Log(status Status, message string) {
	m.append(Entry{Status: status, Kind: kindText, Body: message})
}

// Pass marks the node passed and logs the message.
func (m *MethodNode) Pass(message string) {
	m.finish(StatusPass)
	m.append(Entry{Status: StatusPass, Kind: kindText, Body: message})
}

// Fail marks the node failed, logging the message and the cause when given.
func (m *MethodNode) Fail(message string, cause error) {
	m.finish(StatusFail)
	m.append(Entry{Status: StatusFail, Kind: kindText, Body: withCause(message, cause)})
}

// Skip marks the node skipped, logging the message and the cause when given.
func (m *MethodNode) Skip(message string, cause error) {
	m.finish(StatusSkip)
	m.append(Entry{Status: StatusSkip, Kind: kindText, Body: withCause(message, cause)})
}

// AttachScreenshot attaches a base64-encoded PNG under a step label.
func (m *MethodNode) AttachScreenshot(label, b64 string) {
	m.append(Entry{Status: StatusInfo, Kind: kindScreenshot, Label: label, Body: b64})
}

// AttachLink attaches a clickable link, used for video files.
func (m *MethodNode) AttachLink(label, href string) {
	m.append(Entry{Status: StatusInfo, Kind: kindLink, Label: label, Href: href})
}

// AttachText attaches a preformatted text block, used for log excerpts. The
// body is rendered verbatim inside <pre>, not as markdown.
func (m *MethodNode) AttachText(label, text string) {
	m.append(Entry{Status: StatusInfo, Kind: kindExcerpt, Label: label, Body: text})
}

// Entries returns a snapshot of the node's entries.
func (m *MethodNode) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *MethodNode) append(e Entry) {
	e.Time = time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *MethodNode) finish(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	if m.ended.IsZero() {
		m.ended = time.Now()
	}
}

func withCause(message string, cause error) string {
	if cause == nil {
		return message
	}
	if message == "" {
		return cause.Error()
	}
	return fmt.Sprintf("%s\n\n```\n%v\n```", message, cause)
}
