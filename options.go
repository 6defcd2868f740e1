package milsym

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/jacoelho/milsym/internal/idcode"
	"github.com/jacoelho/milsym/internal/loader"
	"github.com/jacoelho/milsym/internal/resolve"
	"github.com/jacoelho/milsym/internal/schema"
)

// LoadOptions configures schema and template loading.
type LoadOptions struct {
	logger           *zap.Logger
	constantsFile    string
	symbolSetPattern string
	templatePatterns []string
}

// NewLoadOptions returns a default, valid load options value.
func NewLoadOptions() LoadOptions {
	return LoadOptions{}
}

// Validate validates load options values.
func (o LoadOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

// WithLogger sets the logger used while loading and, by default, while
// decoding and resolving.
func (o LoadOptions) WithLogger(logger *zap.Logger) LoadOptions {
	o.logger = logger
	return o
}

// WithConstantsFile names the constants document inside the schema directory.
func (o LoadOptions) WithConstantsFile(name string) LoadOptions {
	o.constantsFile = name
	return o
}

// WithSymbolSetPattern sets the doublestar glob selecting symbol-set documents.
func (o LoadOptions) WithSymbolSetPattern(pattern string) LoadOptions {
	o.symbolSetPattern = pattern
	return o
}

// WithTemplatePatterns sets the doublestar globs selecting template
// documents, relative to the filesystem root. No patterns loads no templates.
func (o LoadOptions) WithTemplatePatterns(patterns ...string) LoadOptions {
	o.templatePatterns = slices.Clone(patterns)
	return o
}

func (o LoadOptions) withDefaults() (LoadOptions, error) {
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.symbolSetPattern == "" {
		o.symbolSetPattern = loader.DefaultSymbolSetPattern
	}
	if !doublestar.ValidatePattern(o.symbolSetPattern) {
		return o, fmt.Errorf("symbol set pattern %q is invalid", o.symbolSetPattern)
	}
	for _, p := range o.templatePatterns {
		if !doublestar.ValidatePattern(p) {
			return o, fmt.Errorf("template pattern %q is invalid", p)
		}
	}
	return o, nil
}

// ResolveOptions configures text resolution.
type ResolveOptions struct {
	logger           *zap.Logger
	observer         func(PhaseResult)
	symbolSets       []string
	defaultSymbolSet string
	defaultEntity    string
	preferShortest   bool
}

// NewResolveOptions returns a default, valid resolve options value.
func NewResolveOptions() ResolveOptions {
	return ResolveOptions{}
}

// WithSymbolSets restricts entities to the given symbol set ids.
func (o ResolveOptions) WithSymbolSets(ids ...string) ResolveOptions {
	o.symbolSets = append(slices.Clone(o.symbolSets), ids...)
	return o
}

// WithPreferShortest makes shorter candidate names win length ties.
func (o ResolveOptions) WithPreferShortest(value bool) ResolveOptions {
	o.preferShortest = value
	return o
}

// WithDefaultEntity sets the symbol set and entity used when no entity matches.
func (o ResolveOptions) WithDefaultEntity(symbolSet, entity string) ResolveOptions {
	o.defaultSymbolSet = symbolSet
	o.defaultEntity = entity
	return o
}

// WithLogger overrides the schema logger for this resolution.
func (o ResolveOptions) WithLogger(logger *zap.Logger) ResolveOptions {
	o.logger = logger
	return o
}

// WithPhaseObserver registers a callback invoked after every phase that runs.
func (o ResolveOptions) WithPhaseObserver(fn func(PhaseResult)) ResolveOptions {
	o.observer = fn
	return o
}

func (o ResolveOptions) withDefaults(fallback *zap.Logger) (resolve.Options, error) {
	opts := resolve.Options{
		Logger:           o.logger,
		OnPhase:          o.observer,
		SymbolSets:       slices.Clone(o.symbolSets),
		DefaultSymbolSet: idcode.Normalize(o.defaultSymbolSet),
		DefaultEntity:    idcode.Normalize(o.defaultEntity),
		PreferShortest:   o.preferShortest,
	}
	if opts.Logger == nil {
		opts.Logger = fallback
	}
	if opts.DefaultEntity != "" && !idcode.Valid(opts.DefaultEntity, schema.EntityCodeLength) {
		return opts, fmt.Errorf("default entity %q must be %d hex digits", o.defaultEntity, schema.EntityCodeLength)
	}
	return opts, nil
}
