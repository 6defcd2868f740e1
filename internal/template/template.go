// Package template implements named symbol presets. A template pins some
// fields of a symbol and leaves the rest to the resolver.
package template

import (
	"slices"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/match"
	"github.com/jacoelho/milsym/internal/symbol"
)

// Template is a named, possibly partial symbol with a mask of fixed fields.
type Template struct {
	symbol *symbol.Symbol
	names  []string
	source string
	fixed  symbol.Field
	weight float64
}

// New builds a template from names, a symbol and the fields it pins.
func New(names []string, sym *symbol.Symbol, fixed symbol.Field) (*Template, error) {
	t := &Template{names: dedupe(names), symbol: sym.Clone(), fixed: fixed & symbol.FieldAll}
	if len(t.names) == 0 {
		return nil, symerrors.NewLoadError(symerrors.ErrInvalidTemplate, "", "", "template has no names")
	}
	if t.symbol == nil {
		t.symbol = &symbol.Symbol{}
	}
	return t, nil
}

// WithWeight returns a copy of t with the given match weight.
func (t *Template) WithWeight(weight float64) *Template {
	cp := *t
	cp.weight = weight
	return &cp
}

// Name returns the primary name.
func (t *Template) Name() string { return t.names[0] }

// Names returns every name of the template.
func (t *Template) Names() []string { return slices.Clone(t.names) }

// Source returns the document the template was read from, if any.
func (t *Template) Source() string { return t.source }

// Symbol returns a copy of the template's symbol.
func (t *Template) Symbol() *symbol.Symbol { return t.symbol.Clone() }

// Fixed returns the mask of pinned fields.
func (t *Template) Fixed() symbol.Field { return t.fixed }

// IsFixed reports whether every field of f is pinned.
func (t *Template) IsFixed(f symbol.Field) bool { return t.fixed.Has(f) }

// Apply copies the pinned fields into dst.
func (t *Template) Apply(dst *symbol.Symbol) {
	dst.CopyFields(t.symbol, t.fixed)
}

// MatchNames returns the names matched against input text.
func (t *Template) MatchNames() []string { return t.Names() }

// MatchWeight returns the template's tie-break weight.
func (t *Template) MatchWeight() float64 { return t.weight }

// MatchKey returns the stable identity used for final tie-breaks.
func (t *Template) MatchKey() string { return "template:" + match.Normalize(t.Name()) }

// MatchKind returns match.KindTemplate.
func (t *Template) MatchKind() match.Kind { return match.KindTemplate }

func dedupe(names []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := match.Normalize(n)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
