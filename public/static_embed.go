package public

import (
	"embed"
	"io/fs"
)

//go:embed assets/*
var assets embed.FS

// AssetsFS returns the static assets rooted at assets/.
func AssetsFS() (fs.FS, error) {
	return fs.Sub(assets, "assets")
}
