package milsym

import (
	"go.uber.org/zap"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/resolve"
	"github.com/jacoelho/milsym/internal/symbol"
	"github.com/jacoelho/milsym/internal/template"
)

// Schema wraps a loaded taxonomy, its templates and a resolver.
type Schema struct {
	taxonomy  *Taxonomy
	templates *template.Registry
	resolver  *resolve.Resolver
	logger    *zap.Logger
}

func (s *Schema) loaded() error {
	if s == nil || s.taxonomy == nil || s.resolver == nil {
		return symerrors.NewLoadError(symerrors.ErrSchemaNotLoaded, "", "", "schema not loaded")
	}
	return nil
}

// Taxonomy returns the loaded object model.
func (s *Schema) Taxonomy() *Taxonomy {
	if s == nil {
		return nil
	}
	return s.taxonomy
}

// FromCode decodes a structured code. Unknown or inapplicable field values
// decode as absent; only codes too short to hold every field are errors.
func (s *Schema) FromCode(code string) (*Symbol, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return symbol.Decode(s.taxonomy, code, s.logger)
}

// Resolve turns a free-text description into a symbol.
func (s *Schema) Resolve(text string, opts ResolveOptions) (*Symbol, error) {
	res, err := s.Explain(text, opts)
	if err != nil {
		return nil, err
	}
	return res.Symbol, nil
}

// Explain resolves text and returns the symbol with the trace of every
// phase and the words no phase consumed.
func (s *Schema) Explain(text string, opts ResolveOptions) (*Resolution, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	ropts, err := opts.withDefaults(s.logger)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(text, ropts)
}

// Templates returns the loaded templates in registration order.
func (s *Schema) Templates() []*Template {
	if s == nil || s.templates == nil {
		return nil
	}
	return s.templates.All()
}

// Template returns the template registered under name, or nil.
func (s *Schema) Template(name string) *Template {
	if s == nil || s.templates == nil {
		return nil
	}
	return s.templates.Lookup(name)
}
