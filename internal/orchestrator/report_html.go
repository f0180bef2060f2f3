package orchestrator

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Record.Operation}} — {{.Record.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.pass { color: #2a7a2a; }
.fail { color: #b03030; }
table { border-collapse: collapse; margin-top: 1em; }
td, th { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
pre { background: #f5f5f5; padding: 1em; overflow-x: auto; }
</style>
</head>
<body>
<h1>{{.Record.Operation}} <span class="{{.Record.Status}}">{{.Record.Status}}</span></h1>
<table>
<tr><th>Run</th><td>{{.Record.RunID}}</td></tr>
<tr><th>Spec</th><td>{{.Record.SpecPath}}</td></tr>
<tr><th>Language</th><td>{{.Record.Language}}</td></tr>
<tr><th>Strategy</th><td>{{.Record.Strategy}}{{if .Record.Stub}} (stub){{end}}</td></tr>
{{if .Record.ErrorKind}}<tr><th>Error kind</th><td>{{.Record.ErrorKind}}</td></tr>{{end}}
<tr><th>Duration</th><td>{{.Record.DurationMs}} ms</td></tr>
<tr><th>Finished</th><td>{{.Record.Timestamp.Format "2006-01-02 15:04:05 MST"}}</td></tr>
</table>
{{if .Stderr}}<h2>Test output</h2><pre>{{.Stderr}}</pre>{{end}}
<h2>Bias weights</h2>
<table>
<tr><th>Strategy</th><th>Weight</th></tr>
{{range .Weights}}<tr><td>{{.Name}}</td><td>{{printf "%.4f" .Weight}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type reportWeight struct {
	Name   string
	Weight float64
}

type reportData struct {
	Record  RunRecord
	Stderr  string
	Weights []reportWeight
}

// writeHTMLReport renders report.html into the run directory and returns its
// path. Written for success and failure alike.
func writeHTMLReport(runDir string, rec RunRecord, stderr string) (string, error) {
	weights := make([]reportWeight, 0, len(rec.Bias))
	for name, w := range rec.Bias {
		weights = append(weights, reportWeight{Name: name, Weight: w})
	}
	sort.Slice(weights, func(i, j int) bool { return weights[i].Name < weights[j].Name })

	path := filepath.Join(runDir, "report.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	err = reportTemplate.Execute(f, reportData{Record: rec, Stderr: stderr, Weights: weights})
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return path, nil
}
