// Package swagger serves the OpenAPI document and a ReDoc viewer.
package swagger

import (
	"context"
	_ "embed"
	"html"
	"net/http"
)

// OpenAPI contains the embedded OpenAPI YAML specification.
//
//go:embed openapi.yaml
var OpenAPI []byte

// RedocURL is the default ReDoc bundle loaded by the viewer page.
const RedocURL = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

type options struct {
	redocURL string
}

// Option configures Register.
type Option func(*options)

// WithRedocURL loads the ReDoc bundle from url instead of RedocURL, e.g. a
// copy registered in the dashboard's static store.
func WithRedocURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.redocURL = url
		}
	}
}

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> Embedded OpenAPI spec
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}
	o := options{redocURL: RedocURL}
	for _, opt := range opts {
		opt(&o)
	}
	page := []byte(indexHead + html.EscapeString(o.redocURL) + indexTail)

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

const indexHead = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Weave Dashboard API</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="`

const indexTail = `"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
