// Package symbol holds the resolved Symbol value and its structured-code
// codec.
package symbol

import (
	"fmt"
	"strings"

	"github.com/jacoelho/milsym/internal/schema"
)

// Symbol is one resolved instance of the taxonomy. Every field is optional;
// nil means the field is unset and encodes as zeros. A Symbol only refers to
// immutable schema values, so copies are cheap and safe to share.
type Symbol struct {
	Context            *schema.Context
	Affiliation        *schema.Affiliation
	SymbolSet          *schema.SymbolSet
	Status             *schema.Status
	HQTFD              *schema.HQTFD
	Amplifier          *schema.Amplifier
	Entity             *schema.Entity
	Modifier1          *schema.Modifier
	Modifier2          *schema.Modifier
	FrameShapeOverride *schema.FrameShape
	Version            string
}

// Clone returns a copy of s.
func (s *Symbol) Clone() *Symbol {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// CopyFields copies the given fields of src into s.
func (s *Symbol) CopyFields(src *Symbol, fields Field) {
	for _, f := range fields.Fields() {
		switch f {
		case FieldContext:
			s.Context = src.Context
		case FieldAffiliation:
			s.Affiliation = src.Affiliation
		case FieldSymbolSet:
			s.SymbolSet = src.SymbolSet
		case FieldStatus:
			s.Status = src.Status
		case FieldHQTFD:
			s.HQTFD = src.HQTFD
		case FieldAmplifier:
			s.Amplifier = src.Amplifier
		case FieldEntity:
			s.Entity = src.Entity
		case FieldModifier1:
			s.Modifier1 = src.Modifier1
		case FieldModifier2:
			s.Modifier2 = src.Modifier2
		case FieldFrameShape:
			s.FrameShapeOverride = src.FrameShapeOverride
		}
	}
}

// Dimension returns the dimension of the symbol set, or nil.
func (s *Symbol) Dimension() *schema.Dimension {
	if s.SymbolSet == nil {
		return nil
	}
	return s.SymbolSet.Dimension()
}

// FrameShape returns the override shape if set, else the dimension's shape.
func (s *Symbol) FrameShape() *schema.FrameShape {
	if s.FrameShapeOverride != nil {
		return s.FrameShapeOverride
	}
	if d := s.Dimension(); d != nil {
		return d.FrameShape()
	}
	return nil
}

// IsHeadquarters reports whether the HQTFD marks a headquarters.
func (s *Symbol) IsHeadquarters() bool { return s.HQTFD != nil && s.HQTFD.Headquarters() }

// IsTaskForce reports whether the HQTFD marks a task force.
func (s *Symbol) IsTaskForce() bool { return s.HQTFD != nil && s.HQTFD.TaskForce() }

// IsDummy reports whether the HQTFD marks a feint or dummy.
func (s *Symbol) IsDummy() bool { return s.HQTFD != nil && s.HQTFD.Dummy() }

// IsFrameDashed reports whether the affiliation or the status dashes the frame.
func (s *Symbol) IsFrameDashed() bool {
	return (s.Affiliation != nil && s.Affiliation.Dashed()) || (s.Status != nil && s.Status.Dashed())
}

// IsCivilian reports whether the symbol uses civilian coloring. The entity or
// a modifier override asks for it; the affiliation must allow it.
func (s *Symbol) IsCivilian() bool {
	if s.Affiliation != nil && !s.Affiliation.ColorAffiliation().HasCivilianVariant() {
		return false
	}
	if s.Entity != nil && s.Entity.Civilian() {
		return true
	}
	for _, m := range []*schema.Modifier{s.Modifier1, s.Modifier2} {
		if m == nil {
			continue
		}
		if civ, ok := m.CivilianOverride(); ok && civ {
			return true
		}
	}
	return false
}

// Validate checks that every entity, modifier, amplifier and HQTFD on the
// symbol belongs to, or applies to, its symbol set.
func (s *Symbol) Validate() error {
	set := s.SymbolSet
	if s.Entity != nil && s.Entity.Set() != set {
		return fmt.Errorf("symbol: entity %s belongs to symbol set %s, not %s", s.Entity.ID(), s.Entity.Set().ID(), setID(set))
	}
	for slot, m := range []*schema.Modifier{s.Modifier1, s.Modifier2} {
		if m == nil {
			continue
		}
		if m.Slot() != slot+1 {
			return fmt.Errorf("symbol: modifier %s is a sector %d modifier, used in sector %d", m.ID(), m.Slot(), slot+1)
		}
		if m.Set() != set && !m.Set().Common() {
			return fmt.Errorf("symbol: modifier %s belongs to symbol set %s, not %s", m.ID(), m.Set().ID(), setID(set))
		}
	}
	if set == nil {
		return nil
	}
	if s.Amplifier != nil && !s.Amplifier.AppliesToSymbolSet(set) {
		return fmt.Errorf("symbol: amplifier %s does not apply to symbol set %s", s.Amplifier.ID(), set.ID())
	}
	if s.HQTFD != nil && !s.HQTFD.AppliesToSymbolSet(set) {
		return fmt.Errorf("symbol: hqtfd %s does not apply to symbol set %s", s.HQTFD.ID(), set.ID())
	}
	return nil
}

// Describe returns a natural-language description built from primary names,
// in an order the resolver reads back to the same symbol.
func (s *Symbol) Describe() string {
	var parts []string
	add := func(name string, ok bool) {
		if ok && name != "" {
			parts = append(parts, name)
		}
	}
	add(nameOf(s.Affiliation))
	add(nameOf(s.Status))
	add(nameOf(s.Entity))
	add(nameOf(s.Modifier1))
	add(nameOf(s.Modifier2))
	add(nameOf(s.Amplifier))
	add(nameOf(s.HQTFD))
	return strings.Join(parts, " ")
}

func (s *Symbol) String() string {
	return s.Code() + " " + s.Describe()
}

type named interface {
	comparable
	Name() string
}

func nameOf[T named](v T) (string, bool) {
	var zero T
	if v == zero {
		return "", false
	}
	return v.Name(), true
}

func setID(set *schema.SymbolSet) string {
	if set == nil {
		return "none"
	}
	return set.ID()
}
