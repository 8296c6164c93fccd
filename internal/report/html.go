package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/zengchanghuan/gesture-analyzer-go/internal/gesture"
)

// htmlPage is the card-style run report. Styling mirrors the Markdown
// summary's structure: header, headline stats, accuracy, issues,
// recommendations with code blocks, then charts.
const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Gesture Analysis Report</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; background: #f5f7fa; padding: 20px; }
.container { max-width: 1200px; margin: 0 auto; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 40px; border-radius: 10px; margin-bottom: 30px; }
.header h1 { font-size: 32px; margin-bottom: 10px; }
.header p { opacity: 0.9; }
.card { background: white; border-radius: 10px; padding: 30px; margin-bottom: 20px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
.card h2 { font-size: 24px; margin-bottom: 20px; color: #2d3748; border-bottom: 2px solid #667eea; padding-bottom: 10px; }
.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 20px; }
.stat-box { background: #f7fafc; padding: 20px; border-radius: 8px; border-left: 4px solid #667eea; }
.stat-box .label { color: #718096; font-size: 14px; margin-bottom: 5px; }
.stat-box .value { font-size: 28px; font-weight: bold; color: #2d3748; }
.issue { padding: 15px; margin-bottom: 15px; border-radius: 4px; border-left: 4px solid #4299e1; background: #ebf8ff; }
.issue.high { border-left-color: #fc8181; background: #fff5f5; }
.issue.medium { border-left-color: #f6ad55; background: #fffaf0; }
.issue-title { font-weight: bold; margin-bottom: 5px; color: #2d3748; }
.issue-desc { color: #4a5568; font-size: 14px; }
.recommendation { background: #f0fff4; border-left: 4px solid #48bb78; padding: 15px; margin-bottom: 15px; border-radius: 4px; }
.rec-title { font-weight: bold; margin-bottom: 10px; color: #2d3748; }
.rec-action { color: #4a5568; margin-bottom: 10px; }
.code-block { background: #2d3748; color: #e2e8f0; padding: 15px; border-radius: 6px; font-family: Monaco, "Courier New", monospace; font-size: 13px; overflow-x: auto; margin-top: 10px; white-space: pre; }
.badge { display: inline-block; padding: 4px 12px; border-radius: 12px; font-size: 12px; font-weight: bold; margin-right: 10px; }
.badge.high { background: #fc8181; color: white; }
.badge.medium { background: #f6ad55; color: white; }
.badge.low, .badge.info { background: #4299e1; color: white; }
.chart { margin: 20px 0; text-align: center; }
.chart img { max-width: 100%; height: auto; border-radius: 8px; }
.footer { text-align: center; color: #718096; margin-top: 40px; padding: 20px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Gesture Analysis Report</h1>
    <p>{{.LogName}}</p>
    <p>{{.Generated}}</p>
  </div>

  <div class="card">
    <h2>Overview</h2>
    <div class="stats">
      <div class="stat-box"><div class="label">Total samples</div><div class="value">{{.TotalSamples}}</div></div>
      <div class="stat-box"><div class="label">Dominant gesture</div><div class="value">{{.Dominant}}</div></div>
      {{if .OverallAccuracy}}<div class="stat-box"><div class="label">Overall accuracy</div><div class="value">{{.OverallAccuracy}}</div></div>{{end}}
      {{if .ParseFailures}}<div class="stat-box"><div class="label">Unparsed lines</div><div class="value">{{.ParseFailures}}</div></div>{{end}}
    </div>
  </div>

  {{if .Groups}}
  <div class="card">
    <h2>Accuracy by Distance</h2>
    <div class="stats">
      {{range .Groups}}
      <div class="stat-box"><div class="label">{{.Name}} ({{.Samples}} samples)</div><div class="value">{{.Accuracy}}</div></div>
      {{end}}
    </div>
    {{if $.Charts}}<div class="chart"><img src="accuracy_analysis.png" alt="Accuracy analysis"></div>{{end}}
  </div>
  {{end}}

  {{if .Issues}}
  <div class="card">
    <h2>Issues</h2>
    {{range .Issues}}
    <div class="issue {{.Severity}}">
      <div class="issue-title"><span class="badge {{.Severity}}">{{.Severity}}</span>{{.Kind}}</div>
      <div class="issue-desc">{{.Description}}</div>
    </div>
    {{end}}
  </div>
  {{end}}

  {{if .Recommendations}}
  <div class="card">
    <h2>Recommendations</h2>
    {{range .Recommendations}}
    <div class="recommendation">
      <div class="rec-title"><span class="badge {{.Priority}}">{{.Priority}}</span>{{.Category}}</div>
      <div class="rec-action">{{.Description}}</div>
      {{if .Action}}<div class="rec-action"><strong>Action:</strong> {{.Action}}</div>{{end}}
      {{range .CodeSnippets}}<div class="code-block">{{.}}</div>{{end}}
    </div>
    {{end}}
  </div>
  {{end}}

  {{if .Charts}}
  <div class="card">
    <h2>Distribution</h2>
    <div class="chart"><img src="scale_distribution.png" alt="Scale distribution"></div>
  </div>
  {{end}}

  <div class="footer">
    <p>Generated by gesture-analyzer</p>
  </div>
</div>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Parse(htmlPage))

type htmlGroup struct {
	Name     string
	Samples  int
	Accuracy string
}

type htmlData struct {
	LogName         string
	Generated       string
	TotalSamples    int
	Dominant        string
	OverallAccuracy string
	ParseFailures   int
	Groups          []htmlGroup
	Issues          []gesture.Issue
	Recommendations []gesture.Recommendation
	Charts          bool
}

// WriteHTML renders the card-style HTML report.
func WriteHTML(path string, in *Input) error {
	b := in.Batch
	data := htmlData{
		LogName:         filepath.Base(in.LogFile),
		Generated:       in.GeneratedAt.Format("2006-01-02 15:04:05"),
		TotalSamples:    len(b.Samples),
		Dominant:        b.DominantLabel(),
		ParseFailures:   in.ParseFailures,
		Issues:          in.Issues,
		Recommendations: in.Recommendations,
		Charts:          in.Charts,
	}
	if acc, ok := b.OverallAccuracy(); ok {
		data.OverallAccuracy = fmt.Sprintf("%.1f%%", acc*100)
		for _, group := range gesture.DistanceGroups {
			acc, n, ok := b.GroupAccuracy(group)
			if !ok {
				continue
			}
			data.Groups = append(data.Groups, htmlGroup{
				Name:     string(group),
				Samples:  n,
				Accuracy: fmt.Sprintf("%.1f%%", acc*100),
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create HTML report: %w", err)
	}
	defer f.Close()

	if err := htmlTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}
