// Package web bundles the HTML templates and static assets into the binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"blog/internal/media"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"join":     strings.Join,
	"mediaURL": media.URL,
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
	"contains": func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	},
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
