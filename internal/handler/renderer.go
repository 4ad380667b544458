package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

// Templates holds the HTML fragments the storefront serves to the page
// script: tooltips, checkout field errors and notices.
//
//go:embed templates/*.html
var Templates embed.FS

// Renderer keeps one isolated template set per fragment.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every *.html file under dir in fsys. A fragment is
// addressed by its base name without extension ("tooltip").
func NewRenderer(fsys fs.FS, dir string) (*Renderer, error) {
	pages, err := fs.Glob(fsys, path.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no templates found in %q", dir)
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), path.Ext(page))

		tmpl, err := template.New(path.Base(page)).Funcs(TemplateFuncs()).ParseFS(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		templates[name] = tmpl
	}

	return &Renderer{templates: templates}, nil
}

// NewEmbeddedRenderer parses the fragments compiled into the binary.
func NewEmbeddedRenderer() (*Renderer, error) {
	return NewRenderer(Templates, "templates")
}

// Render executes a named fragment into w.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.Execute(w, data)
}

// RenderHTTP renders a fragment as an HTML response with the given status.
// The fragment is rendered into a buffer first so a template error still
// produces a clean 500.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := r.Render(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render error")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}
