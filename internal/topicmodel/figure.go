package topicmodel

import (
	"fmt"
	"html/template"
	"io"
)

// Figure kinds.
const (
	KindHierarchy = "hierarchy"
	KindBarChart  = "barchart"
)

// Figure is a renderable description of topic structure. It marshals to JSON
// for the web surface and renders to a standalone HTML page.
type Figure struct {
	Kind   string     `json:"kind"`
	Title  string     `json:"title"`
	Bars   []BarPanel `json:"bars,omitempty"`
	Leaves []string   `json:"leaves,omitempty"`
	Merges []Merge    `json:"merges,omitempty"`
}

// BarPanel holds the top words of one topic.
type BarPanel struct {
	Topic int         `json:"topic"`
	Words []WordScore `json:"words"`
}

// Merge joins two groups of topics at a cosine distance.
type Merge struct {
	Left     []int   `json:"left"`
	Right    []int   `json:"right"`
	Distance float64 `json:"distance"`
}

var figureTemplate = template.Must(template.New("figure").Funcs(template.FuncMap{
	"width": func(score, max float64) string {
		if max <= 0 {
			return "0%"
		}
		return fmt.Sprintf("%.1f%%", score/max*100)
	},
	"maxScore": func(words []WordScore) float64 {
		var m float64
		for _, w := range words {
			if w.Score > m {
				m = w.Score
			}
		}
		return m
	},
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.panel { display: inline-block; vertical-align: top; width: 280px; margin: 0 1em 1.5em 0; }
.row { display: flex; align-items: center; margin: 2px 0; }
.word { width: 110px; text-align: right; padding-right: 6px; font-size: 13px; }
.bar { background: #4a7bd0; height: 14px; }
td, th { padding: 2px 10px; text-align: left; }
</style></head>
<body><h1>{{.Title}}</h1>
{{if eq .Kind "barchart"}}
{{range .Bars}}{{$max := maxScore .Words}}<div class="panel"><h3>Topic {{.Topic}}</h3>
{{range .Words}}<div class="row"><span class="word">{{.Word}}</span><div class="bar" style="width: {{width .Score $max}}" title="{{printf "%.3f" .Score}}"></div></div>
{{end}}</div>
{{end}}
{{else}}
<h2>Topics</h2><ul>{{range .Leaves}}<li>{{.}}</li>{{end}}</ul>
<h2>Merges</h2>
<table><tr><th>Step</th><th>Left</th><th>Right</th><th>Distance</th></tr>
{{range $i, $m := .Merges}}<tr><td>{{$i}}</td><td>{{$m.Left}}</td><td>{{$m.Right}}</td><td>{{printf "%.4f" $m.Distance}}</td></tr>
{{end}}</table>
{{end}}
</body></html>
`))

// WriteHTML renders f as a standalone HTML page.
func (f *Figure) WriteHTML(w io.Writer) error {
	return figureTemplate.Execute(w, f)
}
