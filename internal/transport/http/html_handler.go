package http

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// ServeIndex serves the dashboard page with the heatmap chart.
func ServeIndex(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		data := struct{ Version string }{Version: version}
		if err := indexTemplate.Execute(w, data); err != nil {
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
		}
	}
}
