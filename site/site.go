// Package site embeds the static web assets, including the debt-row template
// fragment clients fetch before their first render.
package site

import (
	"embed"
	"net/http"
)

//go:embed index.html templates/*
var assets embed.FS

// Handler serves the embedded site at the web root.
func Handler() http.Handler {
	return http.FileServer(http.FS(assets))
}
