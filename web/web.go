// Package web embeds the portal's static assets.
package web

import (
	"embed"
	"io/fs"
	"path"
)

//go:embed static
var assets embed.FS

// Static returns the static assets rooted at the static directory
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// HasAsset reports whether name exists under the static directory
func HasAsset(name string) bool {
	_, err := fs.Stat(assets, path.Join("static", name))
	return err == nil
}
