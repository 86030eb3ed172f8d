// internal/workers/recommendation/send-recommendation-digest/template.go
package sendrecommendationdigest

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"bookreview-recommender/internal/models"
)

var funcs = map[string]interface{}{
	"inc":   func(i int) int { return i + 1 },
	"score": func(f float64) int { return int(f*100 + 0.5) },
}

var textDigest = texttemplate.Must(texttemplate.New("text").Funcs(funcs).Parse(
	`Here are {{len .}} books we think you will enjoy:
{{range $i, $r := .}}
{{inc $i}}. {{$r.Book.Title}} by {{$r.Book.Author}}
   {{$r.Reason}} (match {{score $r.Score}}%)
{{end}}
Happy reading!
`))

var htmlDigest = htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).Parse(
	`<html><body>
<h2>Here are {{len .}} books we think you will enjoy</h2>
<ol>
{{range .}}<li><strong>{{.Book.Title}}</strong> by {{.Book.Author}}<br><em>{{.Reason}}</em> (match {{score .Score}}%)</li>
{{end}}</ol>
<p>Happy reading!</p>
</body></html>`))

// renderDigest returns the plain text and HTML bodies for the digest.
func renderDigest(recs []models.Recommendation) (string, string, error) {
	var text, html bytes.Buffer
	if err := textDigest.Execute(&text, recs); err != nil {
		return "", "", err
	}
	if err := htmlDigest.Execute(&html, recs); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(text.String()), html.String(), nil
}
