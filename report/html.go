package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md goldmark.Markdown

func init() {
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
}

// renderMarkdown converts a step message to HTML. On a conversion error the
// raw text is shown escaped instead, so a bad message never loses a step.
func renderMarkdown(content string) template.HTML {
	if content == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(content) + "</p>")
	}
	return template.HTML(buf.String())
}

type reportView struct {
	Title     string
	RunID     string
	Started   string
	Generated string
	Classes   []classView
	Passed    int
	Failed    int
	Skipped   int
}

type classView struct {
	Name    string
	Methods []methodView
}

type methodView struct {
	Name     string
	Status   Status
	Duration string
	Entries  []entryView
}

type entryView struct {
	Time   string
	Status Status
	Kind   string
	Label  string
	HTML   template.HTML
	Raw    string
	Href   string
}

func (r *Report) render() ([]byte, error) {
	view := reportView{
		Title:     r.title,
		RunID:     r.runID,
		Started:   r.started.Format(time.RFC3339),
		Generated: time.Now().Format(time.RFC3339),
	}
	for _, class := range r.Classes() {
		cv := classView{Name: class.Name()}
		for _, method := range class.Methods() {
			switch method.Status() {
			case StatusPass:
				view.Passed++
			case StatusFail:
				view.Failed++
			case StatusSkip:
				view.Skipped++
			}
			mv := methodView{
				Name:     method.Name(),
				Status:   method.Status(),
				Duration: method.Duration().Round(time.Millisecond).String(),
			}
			for _, e := range method.Entries() {
				ev := entryView{
					Time:   e.Time.Format("15:04:05.000"),
					Status: e.Status,
					Kind:   e.Kind,
					Label:  e.Label,
					Href:   e.Href,
				}
				switch e.Kind {
				case kindText:
					ev.HTML = renderMarkdown(e.Body)
				default:
					ev.Raw = e.Body
				}
				mv.Entries = append(mv.Entries, ev)
			}
			cv.Methods = append(cv.Methods, mv)
		}
		view.Classes = append(view.Classes, cv)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 0; background: #f5f6f8; color: #1f2328; }
header { background: #24292f; color: #fff; padding: 16px 24px; }
header h1 { margin: 0; font-size: 20px; }
header .meta { color: #9da7b1; font-size: 12px; margin-top: 4px; }
.summary { display: flex; gap: 12px; padding: 16px 24px 0; }
.summary span { padding: 4px 12px; border-radius: 12px; font-size: 13px; font-weight: 600; }
.summary .pass { background: #dafbe1; color: #116329; }
.summary .fail { background: #ffebe9; color: #cf222e; }
.summary .skip { background: #fff8c5; color: #7d4e00; }
.class { margin: 16px 24px; background: #fff; border: 1px solid #d0d7de; border-radius: 6px; }
.class > h2 { margin: 0; padding: 12px 16px; font-size: 15px; border-bottom: 1px solid #d0d7de; }
.method { border-bottom: 1px solid #eaeef2; }
.method:last-child { border-bottom: none; }
.method > h3 { margin: 0; padding: 10px 16px; font-size: 13px; display: flex; justify-content: space-between; }
.method .duration { color: #656d76; font-weight: 400; }
.status-pass h3 { border-left: 4px solid #1a7f37; }
.status-fail h3 { border-left: 4px solid #cf222e; }
.status-skip h3 { border-left: 4px solid #9a6700; }
.status-info h3 { border-left: 4px solid #656d76; }
.entry { padding: 6px 16px 6px 20px; font-size: 13px; display: flex; gap: 12px; }
.entry .time { color: #8c959f; font-family: ui-monospace, monospace; white-space: nowrap; }
.entry .badge { text-transform: uppercase; font-size: 10px; font-weight: 700; align-self: flex-start; margin-top: 2px; }
.entry .badge.pass { color: #1a7f37; } .entry .badge.fail { color: #cf222e; }
.entry .badge.skip { color: #9a6700; } .entry .badge.info { color: #656d76; }
.entry .badge.warning { color: #9a6700; }
.entry .body { flex: 1; min-width: 0; }
.entry .body p { margin: 0 0 4px; }
.entry img { max-width: 640px; border: 1px solid #d0d7de; border-radius: 4px; display: block; margin-top: 4px; }
.entry pre.excerpt { background: #161b22; color: #e6edf3; padding: 12px; border-radius: 6px; overflow-x: auto; font-size: 12px; max-height: 400px; }
footer { color: #8c959f; font-size: 11px; padding: 16px 24px; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<div class="meta">run {{.RunID}} &middot; started {{.Started}}</div>
</header>
<div class="summary">
<span class="pass">{{.Passed}} passed</span>
<span class="fail">{{.Failed}} failed</span>
<span class="skip">{{.Skipped}} skipped</span>
</div>
{{range .Classes}}
<section class="class">
<h2>{{.Name}}</h2>
{{range .Methods}}
<div class="method status-{{.Status}}">
<h3><span>{{.Name}}</span><span class="duration">{{.Duration}}</span></h3>
{{range .Entries}}
<div class="entry">
<span class="time">{{.Time}}</span>
<span class="badge {{.Status}}">{{.Status}}</span>
<div class="body">
{{if eq .Kind "text"}}{{.HTML}}{{end}}
{{if eq .Kind "screenshot"}}{{if .Label}}<p>{{.Label}}</p>{{end}}<img src="data:image/png;base64,{{.Raw}}" alt="{{.Label}}">{{end}}
{{if eq .Kind "link"}}<a href="{{.Href}}">{{if .Label}}{{.Label}}{{else}}{{.Href}}{{end}}</a>{{end}}
{{if eq .Kind "excerpt"}}{{if .Label}}<p>{{.Label}}</p>{{end}}<pre class="excerpt">{{.Raw}}</pre>{{end}}
</div>
</div>
{{end}}
</div>
{{end}}
</section>
{{end}}
<footer>generated {{.Generated}}</footer>
</body>
</html>
`))
