package export

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
)

// Reporter renders an assembled report into an HTML document. The template
// only formats the report tree; it computes nothing.
type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"num": func(v float64) string {
			return fmt.Sprintf("%g", domain.Round2(v))
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
		"cat": func(title string, stat domain.CategoryStat) map[string]any {
			return map[string]any{"Title": title, "Stat": stat}
		},
	}

	t, err := template.New("report").Funcs(funcMap).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("%w: parse template: %v", domain.ErrRender, err)
	}
	if err := t.Execute(c.writer, report); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return nil
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin: 0.5em 0; }
th, td { border: 1px solid #999; padding: 2px 8px; text-align: left; }
h2 { border-bottom: 2px solid #333; }
.summary { color: #555; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Period: {{date .Period.From}} to {{date .Period.To}} ({{.Period.Days}} days)</p>

<h2>Builds</h2>
{{if .Builds}}
<table>
<tr><th>Build</th><th>Date</th><th>Stories</th><th>Bugs</th></tr>
{{range .Builds}}
<tr><td>{{.Name}}</td><td>{{date .Date}}</td><td>{{.Stories}}</td><td>{{.Bugs}}</td></tr>
{{end}}
</table>
{{else}}
<p>No builds in this period.</p>
{{end}}

{{range .Groups}}
<h2>{{.Name}}</h2>
{{range .Users}}
<h3>{{.Realname}} ({{.Account}})</h3>

{{template "bugDays" (cat "Opened bugs" .Bug.Open)}}
{{template "bugDays" (cat "Closed bugs" .Bug.Close)}}
{{template "bugDays" (cat "Activated bugs" .Bug.Active)}}
{{template "bugDays" (cat "Resolved bugs" .Bug.Resolve)}}
<p class="summary">Code error share of resolved bugs: {{percent .Bug.CodeErrorPercent}}</p>
{{template "bugAssign" (cat "Currently assigned bugs" .Bug.Current)}}

{{template "taskDays" (cat "Finished task work-hours" .Task.Do)}}
{{template "taskAssign" (cat "Currently assigned tasks" .Task.Current)}}

<h4>Tasks due within {{.Task.ShortPeriod.HorizonDays}} days</h4>
{{if .Task.ShortPeriod.Detail}}
<table>
<tr><th>Task</th><th>Status</th><th>Deadline</th><th>Estimate</th><th>Consumed</th><th>Left</th></tr>
{{range .Task.ShortPeriod.Detail}}
<tr><td>{{.TaskName}}</td><td>{{.Status}}</td><td>{{date .Deadline}}</td><td>{{num .Estimate}}</td><td>{{num .Consumed}}</td><td>{{num .Left}}</td></tr>
{{end}}
</table>
{{else}}
<p>None</p>
{{end}}
<p class="summary">Estimate: {{num .Task.ShortPeriod.Summary.Estimate}}h,
Consumed: {{num .Task.ShortPeriod.Summary.Consumed}}h,
Left: {{num .Task.ShortPeriod.Summary.Left}}h</p>

<h4>Tasks finished this month</h4>
<p class="summary">{{.Task.MonthDone.Count}} tasks,
Estimate: {{num .Task.MonthDone.Summary.Estimate}}h,
Consumed: {{num .Task.MonthDone.Summary.Consumed}}h,
Left: {{num .Task.MonthDone.Summary.Left}}h</p>
{{end}}
{{end}}
</body>
</html>

{{define "bugDays"}}
<h4>{{.Title}} (total {{num .Stat.Total}})</h4>
{{if .Stat.Detail}}
<table>
<tr><th>Date</th><th>Severity</th><th>Count</th><th>Bugs</th></tr>
{{range .Stat.Detail}}
<tr><td>{{date .Day}}</td><td>{{.Severity}}</td><td>{{.Count}}</td><td>{{.Bugs}}</td></tr>
{{end}}
</table>
<p class="summary">{{range $k, $v := .Stat.Summary}}{{$k}}: {{num $v}} {{end}}</p>
{{else}}
<p>None</p>
{{end}}
{{end}}

{{define "bugAssign"}}
<h4>{{.Title}} (total {{num .Stat.Total}})</h4>
{{if .Stat.Detail}}
<table>
<tr><th>Severity</th><th>Count</th><th>Bugs</th></tr>
{{range .Stat.Detail}}
<tr><td>{{.Severity}}</td><td>{{.Count}}</td><td>{{.Bugs}}</td></tr>
{{end}}
</table>
{{else}}
<p>None</p>
{{end}}
{{end}}

{{define "taskDays"}}
<h4>{{.Title}} (total {{num .Stat.Total}}h)</h4>
{{if .Stat.Detail}}
<table>
<tr><th>Date</th><th>Task</th><th>Consumed</th></tr>
{{range .Stat.Detail}}
<tr><td>{{date .Day}}</td><td>{{.TaskName}}</td><td>{{num .Consumed}}</td></tr>
{{end}}
</table>
{{else}}
<p>None</p>
{{end}}
{{end}}

{{define "taskAssign"}}
<h4>{{.Title}} (total {{num .Stat.Total}})</h4>
{{if .Stat.Detail}}
<table>
<tr><th>Status</th><th>Count</th><th>Tasks</th></tr>
{{range .Stat.Detail}}
<tr><td>{{.Status}}</td><td>{{.Count}}</td><td>{{.Tasks}}</td></tr>
{{end}}
</table>
{{else}}
<p>None</p>
{{end}}
{{end}}
`
