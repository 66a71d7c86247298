// Package web embeds the HTML templates and static assets served by the
// dashboard.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Templates returns the page templates.
func Templates() fs.FS {
	return templateFiles
}

// Static returns the static assets rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// static is embedded above, Sub cannot fail on it
		panic(err)
	}
	return sub
}
