package milsym

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/jacoelho/milsym/internal/loader"
	"github.com/jacoelho/milsym/internal/resolve"
	"github.com/jacoelho/milsym/internal/template"
)

// DefaultTemplatePattern selects the template documents LoadDir reads.
const DefaultTemplatePattern = "templates/**/*.{yaml,yml}"

// Load loads a schema whose constants document sits at the root of fsys.
func Load(fsys fs.FS) (*Schema, error) {
	return LoadWithOptions(fsys, ".", NewLoadOptions())
}

// LoadWithOptions loads the schema under dir in fsys with explicit
// configuration. Template patterns are matched from the root of fsys.
func LoadWithOptions(fsys fs.FS, dir string, opts LoadOptions) (*Schema, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", dir, err)
	}
	taxonomy, err := loader.Load(loader.Config{
		FS:               fsys,
		Logger:           opts.logger,
		Root:             dir,
		ConstantsFile:    opts.constantsFile,
		SymbolSetPattern: opts.symbolSetPattern,
	})
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", dir, err)
	}

	registry := template.NewRegistry()
	if len(opts.templatePatterns) > 0 {
		templates, err := template.Load(template.Config{
			FS:       fsys,
			Schema:   taxonomy,
			Logger:   opts.logger,
			Patterns: opts.templatePatterns,
		})
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		if err := registry.RegisterAll(templates); err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
	}
	registry.Freeze()

	resolver, err := resolve.New(taxonomy, registry.All())
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", dir, err)
	}
	return &Schema{
		taxonomy:  taxonomy,
		templates: registry,
		resolver:  resolver,
		logger:    opts.logger,
	}, nil
}

// LoadDir loads a schema from a directory path with default options and
// the templates found under its templates/ subdirectory.
func LoadDir(path string) (*Schema, error) {
	opts := NewLoadOptions().WithTemplatePatterns(DefaultTemplatePattern)
	return LoadWithOptions(os.DirFS(path), ".", opts)
}
