// Package web holds the grid form page, its partial and the client assets.
package web

import "embed"

// TemplatesFS holds index.html and the "grid" partial it includes.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.js and app.css, served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
