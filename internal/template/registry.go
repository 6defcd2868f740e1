package template

import (
	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/match"
)

// Registry holds templates in registration order. Register is not safe for
// concurrent use; once frozen the registry is read-only and may be shared.
type Registry struct {
	byName    map[string]*Template
	templates []*Template
	frozen    bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Template)}
}

// Register adds t. A name already used by another template, or a frozen
// registry, is an error.
func (r *Registry) Register(t *Template) error {
	if t == nil {
		return symerrors.NewLoadError(symerrors.ErrInvalidTemplate, "", "", "nil template")
	}
	if r.frozen {
		return symerrors.NewLoadErrorf(symerrors.ErrInvalidTemplate, t.source, t.Name(), "registry is frozen")
	}
	for _, name := range t.names {
		if prev, dup := r.byName[match.Normalize(name)]; dup {
			return symerrors.NewLoadErrorf(symerrors.ErrDuplicateID, t.source, name,
				"template name %q already used by %q", name, prev.Name())
		}
	}
	for _, name := range t.names {
		r.byName[match.Normalize(name)] = t
	}
	r.templates = append(r.templates, t)
	return nil
}

// RegisterAll registers each template in order and stops at the first error.
func (r *Registry) RegisterAll(templates []*Template) error {
	for _, t := range templates {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// All returns the templates in registration order.
func (r *Registry) All() []*Template {
	return append([]*Template(nil), r.templates...)
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) *Template {
	return r.byName[match.Normalize(name)]
}

// Len returns the number of templates.
func (r *Registry) Len() int { return len(r.templates) }

// Freeze rejects further registrations.
func (r *Registry) Freeze() { r.frozen = true }

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool { return r.frozen }
