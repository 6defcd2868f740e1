package schema

import (
	"github.com/jacoelho/milsym/internal/idcode"
	"github.com/jacoelho/milsym/internal/xiter"
)

// DefaultVersion is the code version written when a schema declares none.
const DefaultVersion = "13"

// Schema is the immutable taxonomy. It has no mutation API and is safe for
// concurrent use once built.
type Schema struct {
	contexts           map[string]*Context
	affiliations       map[string]*Affiliation
	frameShapes        map[string]*FrameShape
	dimensions         map[string]*Dimension
	statuses           map[string]*Status
	hqtfds             map[string]*HQTFD
	amplifiers         map[string]*Amplifier
	symbolSets         map[string]*SymbolSet
	defaultContext     *Context
	unknownAffiliation *Affiliation
	version            string
	colorModes         []string
	fullFrameOrdering  []*Affiliation
	flatEntities       []*Entity
	commonSets         []*SymbolSet
}

func newSchema() *Schema {
	return &Schema{
		contexts:     make(map[string]*Context),
		affiliations: make(map[string]*Affiliation),
		frameShapes:  make(map[string]*FrameShape),
		dimensions:   make(map[string]*Dimension),
		statuses:     make(map[string]*Status),
		hqtfds:       make(map[string]*HQTFD),
		amplifiers:   make(map[string]*Amplifier),
		symbolSets:   make(map[string]*SymbolSet),
		version:      DefaultVersion,
	}
}

// Version returns the two-digit code version.
func (s *Schema) Version() string { return s.version }

// ColorModes returns the declared color modes.
func (s *Schema) ColorModes() []string { return append([]string(nil), s.colorModes...) }

// FullFrameOrdering returns the base affiliations in drawing order.
func (s *Schema) FullFrameOrdering() []*Affiliation {
	return append([]*Affiliation(nil), s.fullFrameOrdering...)
}

// DefaultContext returns the context used when none is given.
func (s *Schema) DefaultContext() *Context { return s.defaultContext }

// UnknownAffiliation returns the affiliation used when none is given.
func (s *Schema) UnknownAffiliation() *Affiliation { return s.unknownAffiliation }

// Context returns the context with the given id.
func (s *Schema) Context(id string) *Context { return s.contexts[idcode.Normalize(id)] }

// Contexts returns every context sorted by id.
func (s *Schema) Contexts() []*Context { return xiter.SortedValues(s.contexts) }

// Affiliation returns the affiliation with the given id.
func (s *Schema) Affiliation(id string) *Affiliation {
	return s.affiliations[idcode.Normalize(id)]
}

// Affiliations returns every affiliation sorted by id.
func (s *Schema) Affiliations() []*Affiliation { return xiter.SortedValues(s.affiliations) }

// FrameShape returns the frame shape with the given id.
func (s *Schema) FrameShape(id string) *FrameShape { return s.frameShapes[idcode.Normalize(id)] }

// FrameShapes returns every frame shape sorted by id.
func (s *Schema) FrameShapes() []*FrameShape { return xiter.SortedValues(s.frameShapes) }

// Dimension returns the dimension with the given key.
func (s *Schema) Dimension(id string) *Dimension { return s.dimensions[id] }

// Dimensions returns every dimension sorted by key.
func (s *Schema) Dimensions() []*Dimension { return xiter.SortedValues(s.dimensions) }

// Status returns the status with the given id.
func (s *Schema) Status(id string) *Status { return s.statuses[idcode.Normalize(id)] }

// Statuses returns every status sorted by id.
func (s *Schema) Statuses() []*Status { return xiter.SortedValues(s.statuses) }

// HQTFD returns the indicator with the given id.
func (s *Schema) HQTFD(id string) *HQTFD { return s.hqtfds[idcode.Normalize(id)] }

// HQTFDs returns every indicator sorted by id.
func (s *Schema) HQTFDs() []*HQTFD { return xiter.SortedValues(s.hqtfds) }

// Amplifier returns the amplifier with the given id.
func (s *Schema) Amplifier(id string) *Amplifier { return s.amplifiers[idcode.Normalize(id)] }

// Amplifiers returns every amplifier sorted by id.
func (s *Schema) Amplifiers() []*Amplifier { return xiter.SortedValues(s.amplifiers) }

// SymbolSet returns the symbol set with the given id.
func (s *Schema) SymbolSet(id string) *SymbolSet { return s.symbolSets[idcode.Normalize(id)] }

// SymbolSets returns every symbol set sorted by id.
func (s *Schema) SymbolSets() []*SymbolSet { return xiter.SortedValues(s.symbolSets) }

// CommonSymbolSets returns the common symbol sets sorted by id.
func (s *Schema) CommonSymbolSets() []*SymbolSet {
	return append([]*SymbolSet(nil), s.commonSets...)
}

// FlatEntities returns every entity of every set, by set id then code.
func (s *Schema) FlatEntities() []*Entity { return append([]*Entity(nil), s.flatEntities...) }

// CommonModifier finds a modifier in the common sets by its flag digit and code.
func (s *Schema) CommonModifier(slot int, flag byte, code string) *Modifier {
	id := string(flag) + idcode.Normalize(code)
	for _, set := range s.commonSets {
		if m := set.Modifier(slot, id); m != nil {
			return m
		}
	}
	return nil
}
