// Package web holds the page templates and browser assets compiled into the
// server binary.
package web

import "embed"

// TemplatesFS holds the page and partial templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the chart and notification scripts.
//
//go:embed static/*
var StaticFS embed.FS
