// Package web renders the server-side HTML pages. Templates are embedded so
// the binary and the test suite carry them along.
package web

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Render writes the named page wrapped in the base layout.
func Render(w http.ResponseWriter, name string, data any) error {
	t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(w, "base", data)
}
