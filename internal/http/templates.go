package http

import (
	"embed"
	"fmt"
	"html/template"
	"path/filepath"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates parses the admin and auth pages. A non-empty dir replaces
// the embedded set, which helps when editing templates locally.
func LoadTemplates(dir string) (*template.Template, error) {
	var (
		tmpl *template.Template
		err  error
	)
	if dir != "" {
		tmpl, err = template.New("").ParseGlob(filepath.Join(dir, "*.html"))
	} else {
		tmpl, err = template.New("").ParseFS(templateFS, "templates/*.html")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
