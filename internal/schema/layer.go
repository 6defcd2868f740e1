package schema

import (
	"slices"
	"strconv"

	"github.com/jacoelho/milsym/internal/idcode"
	"github.com/jacoelho/milsym/internal/match"
	"github.com/jacoelho/milsym/internal/xiter"
)

// EntityCodeLength is the width of an entity code.
const EntityCodeLength = 6

// ModifierCodeLength is the width of a modifier code inside a structured code.
const ModifierCodeLength = 2

// layer is the shared part of entities and modifiers: both belong to a
// symbol set and fall back to its weight.
type layer struct {
	item
	set     *SymbolSet
	icon    []any
	altIcon []any
}

// Set returns the owning symbol set.
func (l *layer) Set() *SymbolSet { return l.set }

// MatchWeight returns the layer's own weight if declared, else its set's.
func (l *layer) MatchWeight() float64 {
	if l.hasWeight || l.set == nil {
		return l.weight
	}
	return l.set.weight
}

// Icon returns the icon elements of the layer.
func (l *layer) Icon() []any { return slices.Clone(l.icon) }

// AltIcon returns the alternate icon elements of the layer.
func (l *layer) AltIcon() []any { return slices.Clone(l.altIcon) }

// Entity is a node of a symbol set's category, type and subtype tree.
// Entities live in an arena owned by the set and refer to each other by index.
type Entity struct {
	layer
	shortName     string
	modifierCats  []string
	children      []int
	parent        int
	level         int
	variants      int
	civilian      bool
	unfilledFrame bool
}

// MatchKey returns the stable identity used for final tie-breaks.
func (e *Entity) MatchKey() string { return "entity:" + e.set.id + ":" + e.id }

// MatchKind returns match.KindEntity.
func (e *Entity) MatchKind() match.Kind { return match.KindEntity }

// Code returns the six-digit entity code.
func (e *Entity) Code() string { return e.id }

// ShortName returns the primary name without the parent's name substituted.
func (e *Entity) ShortName() string { return e.shortName }

// Level returns 0 for a category, 1 for a type and 2 for a subtype.
func (e *Entity) Level() int { return e.level }

// Civilian reports whether the entity uses civilian coloring.
func (e *Entity) Civilian() bool { return e.civilian }

// UnfilledFrame reports whether the entity is drawn with an unfilled frame.
func (e *Entity) UnfilledFrame() bool { return e.unfilledFrame }

// Variants returns the number of icon variants.
func (e *Entity) Variants() int { return e.variants }

// ModifierCategories returns the categories of modifiers the entity accepts.
func (e *Entity) ModifierCategories() []string { return slices.Clone(e.modifierCats) }

// Parent returns the parent entity, or nil for a category.
func (e *Entity) Parent() *Entity {
	if e.parent < 0 {
		return nil
	}
	return &e.set.entities[e.parent]
}

// Children returns the direct child entities in code order.
func (e *Entity) Children() []*Entity {
	out := make([]*Entity, 0, len(e.children))
	for _, idx := range e.children {
		out = append(out, &e.set.entities[idx])
	}
	return out
}

// Modifier is a sector 1 or sector 2 qualifier.
type Modifier struct {
	layer
	category         string
	civilianOverride *bool
	slot             int
}

// MatchKey returns the stable identity used for final tie-breaks.
func (m *Modifier) MatchKey() string {
	return "modifier:" + m.set.id + ":" + strconv.Itoa(m.slot) + ":" + m.id
}

// MatchKind returns match.KindModifier.
func (m *Modifier) MatchKind() match.Kind { return match.KindModifier }

// Slot returns 1 or 2.
func (m *Modifier) Slot() int { return m.slot }

// Category returns the modifier category used to filter by entity.
func (m *Modifier) Category() string { return m.category }

// CivilianOverride returns the forced civilian coloring and whether one is set.
func (m *Modifier) CivilianOverride() (bool, bool) {
	if m.civilianOverride == nil {
		return false, false
	}
	return *m.civilianOverride, true
}

// Code returns the two digits written into the modifier field.
func (m *Modifier) Code() string { return m.id[len(m.id)-ModifierCodeLength:] }

// CommonFlag returns the flag digit selecting a common set, or '0'.
func (m *Modifier) CommonFlag() byte {
	if len(m.id) <= ModifierCodeLength {
		return '0'
	}
	return m.id[0]
}

// SymbolSet is a catalog of entities and modifiers for one dimension, or a
// common catalog of modifiers shared by every dimension.
type SymbolSet struct {
	item
	dimension   *Dimension
	entityIndex map[string]int
	m1          map[string]*Modifier
	m2          map[string]*Modifier
	entities    []Entity
	common      bool
}

// MatchKey returns the stable identity used for final tie-breaks.
func (s *SymbolSet) MatchKey() string { return "set:" + s.id }

// MatchKind returns match.KindSymbolSet.
func (s *SymbolSet) MatchKind() match.Kind { return match.KindSymbolSet }

// MatchWeight returns the set weight inherited by entities and modifiers.
func (s *SymbolSet) MatchWeight() float64 { return s.weight }

// Dimension returns the set's dimension, or nil for a common set.
func (s *SymbolSet) Dimension() *Dimension { return s.dimension }

// Common reports whether the set applies across every dimension.
func (s *SymbolSet) Common() bool { return s.common }

// Entity returns the entity with the given six-digit code.
func (s *SymbolSet) Entity(code string) *Entity {
	idx, ok := s.entityIndex[idcode.Normalize(code)]
	if !ok {
		return nil
	}
	return &s.entities[idx]
}

// Entities returns every entity in arena order, which is code order.
func (s *SymbolSet) Entities() []*Entity {
	out := make([]*Entity, len(s.entities))
	for i := range s.entities {
		out[i] = &s.entities[i]
	}
	return out
}

// Modifier returns the modifier in slot 1 or 2 with the given id.
func (s *SymbolSet) Modifier(slot int, id string) *Modifier {
	return s.modifiers(slot)[idcode.Normalize(id)]
}

// Modifiers returns every modifier of a slot sorted by id.
func (s *SymbolSet) Modifiers(slot int) []*Modifier {
	return xiter.SortedValues(s.modifiers(slot))
}

func (s *SymbolSet) modifiers(slot int) map[string]*Modifier {
	if slot == 1 {
		return s.m1
	}
	if slot == 2 {
		return s.m2
	}
	return nil
}
