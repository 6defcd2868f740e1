// Package schema holds the taxonomy object model: the value types for every
// code field, the symbol-set entity arenas, and the immutable Schema that a
// Builder produces once every cross-reference has been resolved.
package schema

import (
	"slices"

	"github.com/jacoelho/milsym/internal/match"
)

// item carries the id, display names and match tuning shared by every
// taxonomy value.
type item struct {
	id        string
	names     []string
	weight    float64
	hasWeight bool
	hidden    bool
}

func newItem(id string, names []string, weight *float64, matchName *bool) item {
	it := item{id: id, names: slices.Clone(names)}
	if weight != nil {
		it.weight = *weight
		it.hasWeight = true
	}
	if matchName != nil && !*matchName {
		it.hidden = true
	}
	return it
}

// ID returns the taxonomy id code.
func (i *item) ID() string { return i.id }

// Names returns every display name, primary first.
func (i *item) Names() []string { return slices.Clone(i.names) }

// Name returns the primary display name.
func (i *item) Name() string {
	if len(i.names) == 0 {
		return i.id
	}
	return i.names[0]
}

// Matchable reports whether the item takes part in text matching.
func (i *item) Matchable() bool { return !i.hidden && len(i.names) > 0 }

// MatchNames returns the names used for matching, or nil when hidden.
func (i *item) MatchNames() []string {
	if i.hidden {
		return nil
	}
	return i.names
}

// MatchWeight returns the item's tie-break weight.
func (i *item) MatchWeight() float64 { return i.weight }

// Context is the reality, exercise or simulation axis.
type Context struct {
	item
	base string
}

// BaseContext returns the id of the context this one is drawn like.
func (c *Context) BaseContext() string { return c.base }

// Affiliation is the allegiance axis. An affiliation can borrow its frame or
// its colors from another affiliation.
type Affiliation struct {
	item
	colors          map[string]string
	frameBase       *Affiliation
	colorBase       *Affiliation
	dashed          bool
	civilianVariant bool
}

// MatchKey returns the stable identity used for final tie-breaks.
func (a *Affiliation) MatchKey() string { return "affiliation:" + a.id }

// MatchKind returns match.KindAffiliation.
func (a *Affiliation) MatchKind() match.Kind { return match.KindAffiliation }

// Dashed reports whether frames of this affiliation are drawn dashed.
func (a *Affiliation) Dashed() bool { return a.dashed }

// HasCivilianVariant reports whether civilian coloring applies to this affiliation.
func (a *Affiliation) HasCivilianVariant() bool { return a.civilianVariant }

// FrameAffiliation returns the affiliation whose frames this one uses.
func (a *Affiliation) FrameAffiliation() *Affiliation {
	if a.frameBase == nil {
		return a
	}
	return a.frameBase
}

// ColorAffiliation returns the affiliation whose colors this one uses.
func (a *Affiliation) ColorAffiliation() *Affiliation {
	if a.colorBase == nil {
		return a
	}
	return a.colorBase
}

// IsBase reports whether the affiliation owns its frames.
func (a *Affiliation) IsBase() bool { return a.FrameAffiliation() == a }

// Color returns the fill color for a color mode, following the color base.
func (a *Affiliation) Color(mode string) (string, bool) {
	c, ok := a.ColorAffiliation().colors[mode]
	return c, ok
}

// AmplifierOffset is the vertical shift applied to amplifiers above and below a frame.
type AmplifierOffset struct {
	Top    [2]float64
	Bottom [2]float64
}

// FrameShape is a frame geometry set. A shape based on another starts from
// the parent's frames, overrides per affiliation and appends decorators.
type FrameShape struct {
	item
	base       *FrameShape
	own        map[string][]any
	decorators map[string][]any
	frames     map[string][]any
	offsets    map[string]AmplifierOffset
}

// Base returns the parent shape, or nil for a root shape.
func (f *FrameShape) Base() *FrameShape { return f.base }

// Lineage returns the shapes from the root ancestor down to f.
func (f *FrameShape) Lineage() []*FrameShape {
	var chain []*FrameShape
	for cur := f; cur != nil; cur = cur.base {
		chain = append(chain, cur)
	}
	slices.Reverse(chain)
	return chain
}

// Frame returns the effective frame elements for an affiliation.
func (f *FrameShape) Frame(a *Affiliation) []any {
	if a == nil {
		return nil
	}
	return slices.Clone(f.frames[a.FrameAffiliation().id])
}

// AmplifierOffset returns the offsets for an affiliation's frame.
func (f *FrameShape) AmplifierOffset(a *Affiliation) AmplifierOffset {
	if a == nil {
		return AmplifierOffset{}
	}
	for cur := f; cur != nil; cur = cur.base {
		if off, ok := cur.offsets[a.FrameAffiliation().id]; ok {
			return off
		}
	}
	return AmplifierOffset{}
}

// Dimension is the physical domain axis. Its id is a free-form key.
type Dimension struct {
	item
	frameShape *FrameShape
}

// FrameShape returns the shape used for symbols of this dimension.
func (d *Dimension) FrameShape() *FrameShape { return d.frameShape }

// IconSide names where a status or amplifier icon is placed.
type IconSide string

// Status is the operational condition axis.
type Status struct {
	item
	icon        []any
	altIcon     []any
	iconSide    IconSide
	altIconSide IconSide
	dashed      bool
	variant     bool
}

// MatchKey returns the stable identity used for final tie-breaks.
func (s *Status) MatchKey() string { return "status:" + s.id }

// MatchKind returns match.KindStatus.
func (s *Status) MatchKind() match.Kind { return match.KindStatus }

// Dashed reports whether the status draws the frame dashed.
func (s *Status) Dashed() bool { return s.dashed }

// Icon returns the status icon elements and their placement.
func (s *Status) Icon() ([]any, IconSide) { return slices.Clone(s.icon), s.iconSide }

// AltIcon returns the alternate status icon elements and their placement.
func (s *Status) AltIcon() ([]any, IconSide) { return slices.Clone(s.altIcon), s.altIconSide }

// Variant reports whether the status has an alternate representation.
func (s *Status) Variant() bool { return s.variant }

// IconFor returns the alternate icon when variants are requested and the
// status has one, and the regular icon otherwise.
func (s *Status) IconFor(useVariants bool) ([]any, IconSide) {
	if useVariants && s.variant {
		return s.AltIcon()
	}
	return s.Icon()
}

// HQTFD is the headquarters, task force and dummy indicator.
type HQTFD struct {
	item
	appliesTo    map[string]struct{}
	blacklist    [][]string
	headquarters bool
	taskForce    bool
	dummy        bool
	dashed       bool
}

// MatchKey returns the stable identity used for final tie-breaks.
func (h *HQTFD) MatchKey() string { return "hqtfd:" + h.id }

// MatchKind returns match.KindHQTFD.
func (h *HQTFD) MatchKind() match.Kind { return match.KindHQTFD }

// Headquarters reports the headquarters facet.
func (h *HQTFD) Headquarters() bool { return h.headquarters }

// TaskForce reports the task force facet.
func (h *HQTFD) TaskForce() bool { return h.taskForce }

// Dummy reports the dummy (feint) facet.
func (h *HQTFD) Dummy() bool { return h.dummy }

// Dashed reports whether the indicator draws the frame dashed.
func (h *HQTFD) Dashed() bool { return h.dashed }

// AppliesToSymbolSet reports whether the indicator can be used with set.
// Without an explicit list it applies to every non-common set.
func (h *HQTFD) AppliesToSymbolSet(set *SymbolSet) bool {
	if set == nil {
		return false
	}
	if h.appliesTo == nil {
		return !set.common
	}
	_, ok := h.appliesTo[set.id]
	return ok
}

// Blacklisted reports whether text contains a phrase that rules the indicator out.
func (h *HQTFD) Blacklisted(text string) bool {
	words := match.Words(text)
	for _, phrase := range h.blacklist {
		if containsWords(words, phrase) {
			return true
		}
	}
	return false
}

// Amplifier is a qualifying marker such as an echelon or mobility indicator.
type Amplifier struct {
	item
	category     string
	appliesTo    []*Dimension
	icon         []any
	iconSide     IconSide
	appliesToAll bool
	prerun       bool
}

// MatchKey returns the stable identity used for final tie-breaks.
func (a *Amplifier) MatchKey() string { return "amplifier:" + a.id }

// MatchKind returns match.KindAmplifier.
func (a *Amplifier) MatchKind() match.Kind { return match.KindAmplifier }

// Category returns the amplifier category, such as "echelon".
func (a *Amplifier) Category() string { return a.category }

// Prerun reports whether the amplifier is matched before entities.
func (a *Amplifier) Prerun() bool { return a.prerun }

// Icon returns the amplifier icon elements and their placement.
func (a *Amplifier) Icon() ([]any, IconSide) { return slices.Clone(a.icon), a.iconSide }

// AppliesTo returns the dimensions the amplifier is limited to.
func (a *Amplifier) AppliesTo() []*Dimension { return slices.Clone(a.appliesTo) }

// AppliesToDimension reports whether the amplifier can be used in dimension d.
func (a *Amplifier) AppliesToDimension(d *Dimension) bool {
	if a.appliesToAll {
		return true
	}
	return d != nil && slices.Contains(a.appliesTo, d)
}

// AppliesToSymbolSet reports whether the amplifier can be used with set.
// Common sets accept every amplifier.
func (a *Amplifier) AppliesToSymbolSet(set *SymbolSet) bool {
	if set == nil {
		return false
	}
	if set.common {
		return true
	}
	return a.AppliesToDimension(set.dimension)
}

// AppliesToEntity reports whether the amplifier can be used with e.
func (a *Amplifier) AppliesToEntity(e *Entity) bool {
	return e != nil && a.AppliesToSymbolSet(e.set)
}

func containsWords(text, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(text); i++ {
		if slices.Equal(text[i:i+len(phrase)], phrase) {
			return true
		}
	}
	return false
}
