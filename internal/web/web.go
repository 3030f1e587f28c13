// Package web renders the public campaign page.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"money": func(amount int64, currency string) string {
		return strings.TrimSpace(fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency)))
	},
	// Campaign stories are authored by the operator in the admin and
	// stored as HTML.
	"trusted": func(s string) template.HTML { return template.HTML(s) },
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
