// Package web embeds the Recommendation View: one HTML template and the
// static assets that progressively enhance it.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"rating": func(r *float64) string {
		if r == nil {
			return ""
		}
		return strconv.FormatFloat(*r, 'f', 1, 64)
	},
}

// Templates parses the embedded templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded assets. Mount it with http.StripPrefix.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
