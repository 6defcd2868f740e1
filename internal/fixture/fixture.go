// Package fixture embeds a small but complete schema source tree and a
// template document used by tests and examples across the module.
package fixture

import (
	"embed"
	"io/fs"
)

//go:embed schema templates
var files embed.FS

// Schema returns the schema source tree rooted at its constants document.
func Schema() fs.FS { return sub("schema") }

// Templates returns the template documents.
func Templates() fs.FS { return sub("templates") }

// FS returns the whole tree with schema/ and templates/ directories.
func FS() fs.FS { return files }

func sub(dir string) fs.FS {
	s, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return s
}
