package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var historyTemplate = template.Must(template.New("history").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
}).Parse(historyTemplateHTML))

// TemplateData holds data for the history report template
type TemplateData struct {
	Title       string
	ItemID      string
	ItemType    string
	Status      string
	Version     int64
	Stage       int
	SubmittedBy string
	SubmittedAt time.Time
	Entries     []TemplateEntry
}

// TemplateEntry is one audit row in the report
type TemplateEntry struct {
	At     time.Time
	Actor  string
	Action string
	Detail string
}

// RenderHistoryHTML renders the report template with provided data
func RenderHistoryHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := historyTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const historyTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; vertical-align: top; }
    th { background: #f5f5f5; }
    .action { white-space: nowrap; font-weight: bold; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">
    {{.ItemID}} | {{.ItemType}} | status {{lower .Status}} | version {{.Version}}{{if .Stage}} | stage {{.Stage}}{{end}}<br>
    Submitted by {{.SubmittedBy}} on {{formatDate .SubmittedAt}}
  </div>
  <h2>Decision History</h2>
  {{if .Entries}}
  <table>
    <tr><th>When</th><th>Actor</th><th>Action</th><th>Detail</th></tr>
    {{range .Entries}}
    <tr>
      <td>{{formatDate .At}}</td>
      <td>{{.Actor}}</td>
      <td class="action">{{.Action}}</td>
      <td>{{.Detail}}</td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p>No decisions recorded.</p>
  {{end}}
</body>
</html>`
