// internal/app/resources/resources.go
//
// Package resources embeds the shared page layout and the static assets.
package resources

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/foliokit/contactd/templates"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// SharedSet is the layout template set.
func SharedSet() templates.Set {
	return templates.Set{Name: templates.SharedSet, FS: templateFS, Patterns: []string{"templates/*.gohtml"}}
}

// StaticHandler serves the embedded assets; mount it under /static/ with
// the prefix stripped.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the embed directive guarantees the directory
	}
	return http.FileServer(http.FS(sub))
}
