// Package loader reads a schema source tree from an fs.FS: one constants
// document plus one document per symbol set, decoded with YAML (JSON is
// accepted as its flow subset) and fed to a schema.Builder in dependency order.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/schema"
)

// DefaultSymbolSetPattern selects every YAML or JSON document in the root directory.
const DefaultSymbolSetPattern = "*.{yaml,yml,json}"

var constantsCandidates = []string{"constants.yaml", "constants.yml", "constants.json"}

// Config configures a schema load.
type Config struct {
	FS               fs.FS
	Logger           *zap.Logger
	Root             string
	ConstantsFile    string
	SymbolSetPattern string
}

// Load reads the constants document and every symbol-set document and
// returns the built schema. Any error aborts the whole load.
func Load(cfg Config) (*schema.Schema, error) {
	if cfg.FS == nil {
		return nil, fmt.Errorf("load schema: nil fs")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fsys := cfg.FS
	if cfg.Root != "" && cfg.Root != "." {
		sub, err := fs.Sub(cfg.FS, cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("load schema %s: %w", cfg.Root, err)
		}
		fsys = sub
	}

	constantsPath, err := findConstants(fsys, cfg.ConstantsFile)
	if err != nil {
		return nil, err
	}
	var constants constantsDoc
	if err := decodeFile(fsys, constantsPath, &constants); err != nil {
		return nil, err
	}
	if section := constants.missing(); section != "" {
		return nil, symerrors.NewLoadErrorf(symerrors.ErrMissingSection, constantsPath, section, "required section %q not found", section)
	}

	b := schema.NewBuilder()
	if err := b.Constants(constants.def()); err != nil {
		return nil, withSource(err, constantsPath)
	}
	logger.Debug("constants loaded", zap.String("source", constantsPath))

	pattern := cfg.SymbolSetPattern
	if pattern == "" {
		pattern = DefaultSymbolSetPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("load schema: invalid symbol set pattern %q", pattern)
	}
	paths, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("load schema: glob %q: %w", pattern, err)
	}
	slices.Sort(paths)
	for _, p := range paths {
		if p == constantsPath {
			continue
		}
		var doc symbolSetDoc
		if err := decodeFile(fsys, p, &doc); err != nil {
			return nil, err
		}
		if doc.Set == "" {
			return nil, symerrors.NewLoadError(symerrors.ErrMissingSection, p, "set", "symbol set document has no set id")
		}
		skipped := func(key string) {
			logger.Debug("utility entity ignored", zap.String("source", p), zap.String("key", key))
		}
		if err := b.AddSymbolSet(doc.def(skipped)); err != nil {
			return nil, withSource(err, p)
		}
		logger.Debug("symbol set loaded", zap.String("source", p), zap.String("set", doc.Set))
	}

	s, err := b.Build()
	if err != nil {
		return nil, withSource(err, constantsPath)
	}
	logger.Debug("schema built",
		zap.Int("symbol_sets", len(s.SymbolSets())),
		zap.Int("entities", len(s.FlatEntities())),
	)
	return s, nil
}

func decodeFile(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return symerrors.WrapLoadError(symerrors.ErrMalformedDocument, name, "", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return symerrors.WrapLoadError(symerrors.ErrMalformedDocument, name, "", err)
	}
	return nil
}

func findConstants(fsys fs.FS, name string) (string, error) {
	if name != "" {
		if _, err := fs.Stat(fsys, name); err != nil {
			return "", symerrors.WrapLoadError(symerrors.ErrMissingSection, name, "", err)
		}
		return path.Clean(name), nil
	}
	for _, candidate := range constantsCandidates {
		if _, err := fs.Stat(fsys, candidate); err == nil {
			return candidate, nil
		}
	}
	return "", symerrors.NewLoadErrorf(symerrors.ErrMissingSection, "", "",
		"no constants document found (tried %v)", constantsCandidates)
}

func withSource(err error, source string) error {
	le, ok := symerrors.AsLoadError(err)
	if !ok || le.Source != "" {
		return err
	}
	cp := *le
	cp.Source = source
	return &cp
}
