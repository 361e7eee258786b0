package chi

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/kailas-cloud/facetsearch/internal/repository/devindex"
)

var itemsTmpl = template.Must(template.New("items").Parse(
	`{{range .}}<li class="search-result" data-type="{{.Type}}">` +
		`<a href="{{.URL}}">{{.Title}}</a>` +
		`{{if .Date}} <time datetime="{{.Date}}">{{.Date}}</time>{{end}}` +
		`{{if .Body}}<p>{{.Body}}</p>{{end}}</li>
{{end}}`))

var subscribeTmpl = template.Must(template.New("subscribe").Parse(
	`{{if .}}<div class="subscribe-widget" data-query="{{.}}">` +
		`<button type="button">Subscribe to this search</button></div>{{end}}`))

func renderItems(docs []devindex.Document) (string, error) {
	var sb strings.Builder
	if err := itemsTmpl.Execute(&sb, docs); err != nil {
		return "", fmt.Errorf("render items: %w", err)
	}
	return sb.String(), nil
}

func renderSubscribe(q string) (string, error) {
	var sb strings.Builder
	if err := subscribeTmpl.Execute(&sb, q); err != nil {
		return "", fmt.Errorf("render subscribe widget: %w", err)
	}
	return sb.String(), nil
}
