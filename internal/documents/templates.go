package documents

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type partyView struct {
	Label string
	Party Party
}

// Templates holds one parsed template set per document kind.
type Templates struct {
	sets map[Kind]*template.Template
}

// NewTemplates parses the embedded layouts.
func NewTemplates() (*Templates, error) {
	funcs := template.FuncMap{
		"partyBlock": func(label string, p Party) partyView { return partyView{Label: label, Party: p} },
	}
	t := &Templates{sets: make(map[Kind]*template.Template, len(kindTitles))}
	for kind := range kindTitles {
		set, err := template.New(string(kind)).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("documents: parse %s template: %w", kind, err)
		}
		t.sets[kind] = set
	}
	return t, nil
}

// Render writes the HTML page for p. Output depends only on p.
func (t *Templates) Render(p Payload) ([]byte, error) {
	set, ok := t.sets[p.Kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "base", p); err != nil {
		return nil, fmt.Errorf("documents: render %s: %w", p.Kind, err)
	}
	return buf.Bytes(), nil
}
