// Package web holds the embedded page template, static assets and catalog content.
package web

import "embed"

//go:embed templates/*.html
var TemplateFiles embed.FS

//go:embed static
var StaticFiles embed.FS

//go:embed catalog.yaml
var CatalogYAML []byte
