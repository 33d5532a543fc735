// Package templates embeds the HTML views and static assets so the binary
// ships as a single artifact.
package templates

import (
	"embed"
	"html/template"
	"io/fs"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed views/*.html
var viewFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs are the helpers available to every view.
var Funcs = template.FuncMap{
	"title": cases.Title(language.English).String,
}

// Load parses all embedded views with the shared FuncMap.
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(viewFS, "views/*.html")
}

// Static returns the embedded static asset tree rooted at static/.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
