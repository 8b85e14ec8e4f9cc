package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

// LineupData holds everything the lineup template renders.
type LineupData struct {
	Issue      IssueInfo
	Confirmed  []PitchInfo
	Maybe      []PitchInfo
	TotalWords int
	TotalPages int
}

var lineupTemplate = template.Must(template.New("lineup").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return "TBD"
		}
		return t.Format("January 2, 2006")
	},
	"stageLabel": stageLabel,
}).Parse(lineupTemplateHTML))

// RenderLineupHTML renders the lineup template with the provided data.
func RenderLineupHTML(data LineupData) (string, error) {
	var buf bytes.Buffer
	if err := lineupTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stageLabel renders a stage value for print. Machine-style values like
// DEFINITELY_IN become "Definitely In"; values that are already display
// strings ("Needs FC", "1st In Progress") pass through untouched.
func stageLabel(v string) string {
	if v == "" {
		return "—"
	}
	if !strings.Contains(v, "_") && v != strings.ToUpper(v) {
		return v
	}
	words := strings.Split(strings.ToLower(v), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

const lineupTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Issue.Name}} Lineup</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.5; margin: 0; color: #1a1a1a; }
    h1 { border-bottom: 3px solid #b01c2e; padding-bottom: 0.4rem; margin-bottom: 0.2rem; }
    h2 { margin-top: 2rem; color: #b01c2e; }
    .meta { color: #555; font-size: 0.9em; margin-bottom: 1.5rem; }
    table { width: 100%; border-collapse: collapse; font-size: 0.85em; }
    th { text-align: left; border-bottom: 2px solid #333; padding: 0.35rem 0.5rem; }
    td { border-bottom: 1px solid #ddd; padding: 0.35rem 0.5rem; vertical-align: top; }
    .title { font-weight: bold; }
    .desc { color: #555; font-size: 0.9em; }
    .totals { margin-top: 1.5rem; font-size: 0.9em; color: #333; }
    .empty { color: #777; font-style: italic; }
  </style>
</head>
<body>
  <h1>{{.Issue.Name}}</h1>
  <div class="meta">{{.Issue.Type}} issue &middot; releases {{formatDate .Issue.ReleaseDate}}</div>

  <h2>Confirmed</h2>
  {{if .Confirmed}}
  <table>
    <tr><th>Story</th><th>Writer</th><th>Editor</th><th>Edit</th><th>Fact check</th><th>Visuals</th><th>Layout</th><th>Words</th></tr>
    {{range .Confirmed}}
    <tr>
      <td><span class="title">{{.Title}}</span>{{if .Description}}<br><span class="desc">{{.Description}}</span>{{end}}</td>
      <td>{{if .Writer}}{{.Writer}}{{else}}&mdash;{{end}}</td>
      <td>{{.PrimaryEditor}}</td>
      <td>{{stageLabel .EditStatus}}</td>
      <td>{{stageLabel .FactCheckingStatus}}</td>
      <td>{{stageLabel .VisualStatus}}</td>
      <td>{{stageLabel .LayoutStatus}}</td>
      <td>{{if .WordCount}}{{.WordCount}}{{else}}&mdash;{{end}}</td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p class="empty">No confirmed stories yet.</p>
  {{end}}

  <h2>Maybe</h2>
  {{if .Maybe}}
  <table>
    <tr><th>Story</th><th>Writer</th><th>Editor</th><th>Edit</th><th>Fact check</th><th>Visuals</th><th>Layout</th><th>Words</th></tr>
    {{range .Maybe}}
    <tr>
      <td><span class="title">{{.Title}}</span>{{if .Description}}<br><span class="desc">{{.Description}}</span>{{end}}</td>
      <td>{{if .Writer}}{{.Writer}}{{else}}&mdash;{{end}}</td>
      <td>{{.PrimaryEditor}}</td>
      <td>{{stageLabel .EditStatus}}</td>
      <td>{{stageLabel .FactCheckingStatus}}</td>
      <td>{{stageLabel .VisualStatus}}</td>
      <td>{{stageLabel .LayoutStatus}}</td>
      <td>{{if .WordCount}}{{.WordCount}}{{else}}&mdash;{{end}}</td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p class="empty">Nothing tentatively slotted.</p>
  {{end}}

  <div class="totals">{{len .Confirmed}} confirmed / {{len .Maybe}} maybe &middot; {{.TotalWords}} words &middot; {{.TotalPages}} pages budgeted</div>
</body>
</html>`
