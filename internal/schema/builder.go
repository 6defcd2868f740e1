package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/graphcycle"
	"github.com/jacoelho/milsym/internal/idcode"
	"github.com/jacoelho/milsym/internal/match"
	"github.com/jacoelho/milsym/internal/xiter"
)

type stage uint8

const (
	stageEmpty stage = iota
	stageConstants
	stageBuilt
)

// frameKeys maps the frame names used in shape documents to base affiliation ids.
var frameKeys = map[string]string{
	"unknown": "1",
	"friend":  "3",
	"neutral": "4",
	"hostile": "6",
}

var hqtfdFacets = []string{"headquarters", "task force", "dummy"}

// Builder assembles a Schema in dependency order: constants first, then
// symbol sets, then Build. A Builder is single use.
type Builder struct {
	s     *Schema
	stage stage
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{s: newSchema()}
}

// Constants loads contexts, color modes, affiliations, frame shapes,
// dimensions, statuses, indicators and amplifiers, in that order.
func (b *Builder) Constants(def ConstantsDef) error {
	if b.stage != stageEmpty {
		return fmt.Errorf("constants already loaded")
	}
	steps := []func(ConstantsDef) error{
		b.version,
		b.contexts,
		b.colorModes,
		b.affiliations,
		b.fullFrameOrdering,
		b.frameShapes,
		b.dimensions,
		b.statuses,
		b.hqtfds,
		b.amplifiers,
		b.defaults,
	}
	for _, step := range steps {
		if err := step(def); err != nil {
			return err
		}
	}
	b.stage = stageConstants
	return nil
}

// AddSymbolSet loads one symbol set with its entity tree and modifiers.
func (b *Builder) AddSymbolSet(def SymbolSetDef) error {
	switch b.stage {
	case stageEmpty:
		return fmt.Errorf("symbol set %s: constants not loaded", def.ID)
	case stageBuilt:
		return fmt.Errorf("symbol set %s: schema already built", def.ID)
	}
	id := idcode.Normalize(def.ID)
	path := "set"
	if !idcode.Valid(id, 2) {
		return symerrors.NewLoadErrorf(symerrors.ErrInvalidCode, "", path, "symbol set id %q must be 2 hex digits", def.ID)
	}
	if _, dup := b.s.symbolSets[id]; dup {
		return symerrors.NewLoadErrorf(symerrors.ErrDuplicateID, "", path, "symbol set %s declared twice", id)
	}
	if len(def.Names) == 0 {
		return symerrors.NewLoadErrorf(symerrors.ErrMissingSection, "", "names", "symbol set %s has no names", id)
	}
	set := &SymbolSet{
		item:   newItem(id, def.Names, def.Weight, def.MatchName),
		common: def.Common,
	}
	if def.Dimension != "" {
		dim, ok := b.s.dimensions[def.Dimension]
		if !ok {
			return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "dimension", "symbol set %s refers to unknown dimension %q", id, def.Dimension)
		}
		set.dimension = dim
	} else if !def.Common {
		return symerrors.NewLoadErrorf(symerrors.ErrMissingSection, "", "dimension", "symbol set %s has no dimension", id)
	}

	if err := buildEntities(set, def.Entities); err != nil {
		return err
	}
	var err error
	if set.m1, err = buildModifiers(set, 1, def.M1); err != nil {
		return err
	}
	if set.m2, err = buildModifiers(set, 2, def.M2); err != nil {
		return err
	}
	b.s.symbolSets[id] = set
	return nil
}

// Build validates references that span symbol sets and returns the schema.
func (b *Builder) Build() (*Schema, error) {
	switch b.stage {
	case stageEmpty:
		return nil, fmt.Errorf("build schema: constants not loaded")
	case stageBuilt:
		return nil, fmt.Errorf("build schema: already built")
	}
	for _, h := range xiter.SortedValues(b.s.hqtfds) {
		for _, setID := range xiter.SortedKeys(h.appliesTo) {
			if _, ok := b.s.symbolSets[setID]; !ok {
				return nil, symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "hqtfds/"+h.id+"/applies to",
					"indicator %s applies to unknown symbol set %s", h.id, setID)
			}
		}
	}
	for _, set := range xiter.SortedValues(b.s.symbolSets) {
		if set.common {
			b.s.commonSets = append(b.s.commonSets, set)
		}
		b.s.flatEntities = append(b.s.flatEntities, set.Entities()...)
	}
	b.stage = stageBuilt
	s := b.s
	b.s = nil
	return s, nil
}

func (b *Builder) version(def ConstantsDef) error {
	if def.Version == "" {
		return nil
	}
	if !idcode.Valid(def.Version, 2) {
		return symerrors.NewLoadErrorf(symerrors.ErrInvalidCode, "", "version", "version %q must be 2 hex digits", def.Version)
	}
	b.s.version = idcode.Normalize(def.Version)
	return nil
}

func (b *Builder) contexts(def ConstantsDef) error {
	if len(def.Contexts) == 0 {
		return symerrors.NewLoadError(symerrors.ErrMissingSection, "", "contexts", "at least one context is required")
	}
	for _, cd := range def.Contexts {
		id, err := checkID(cd.ItemDef, 1, "contexts", b.s.contexts)
		if err != nil {
			return err
		}
		base := idcode.Normalize(cd.BaseContext)
		if base == "" {
			base = id
		}
		b.s.contexts[id] = &Context{item: newItem(id, cd.Names, cd.Weight, cd.MatchName), base: base}
	}
	for _, c := range xiter.SortedValues(b.s.contexts) {
		if _, ok := b.s.contexts[c.base]; !ok {
			return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "contexts/"+c.id+"/base context",
				"context %s refers to unknown base context %s", c.id, c.base)
		}
	}
	return nil
}

func (b *Builder) colorModes(def ConstantsDef) error {
	if len(def.ColorModes) == 0 {
		return symerrors.NewLoadError(symerrors.ErrMissingSection, "", "color modes", "at least one color mode is required")
	}
	for _, mode := range def.ColorModes {
		mode = strings.ToLower(strings.TrimSpace(mode))
		if mode == "" || slices.Contains(b.s.colorModes, mode) {
			return symerrors.NewLoadErrorf(symerrors.ErrMalformedDocument, "", "color modes", "color mode %q is empty or repeated", mode)
		}
		b.s.colorModes = append(b.s.colorModes, mode)
	}
	return nil
}

func (b *Builder) affiliations(def ConstantsDef) error {
	if len(def.Affiliations) == 0 {
		return symerrors.NewLoadError(symerrors.ErrMissingSection, "", "affiliations", "at least one affiliation is required")
	}
	frameRefs := make(map[string]string)
	colorRefs := make(map[string]string)
	for _, ad := range def.Affiliations {
		id, err := checkID(ad.ItemDef, 1, "affiliations", b.s.affiliations)
		if err != nil {
			return err
		}
		a := &Affiliation{
			item:            newItem(id, ad.Names, ad.Weight, ad.MatchName),
			dashed:          ad.Dashed,
			civilianVariant: ad.CivilianVariant == nil || *ad.CivilianVariant,
		}
		if ad.Colors != nil {
			a.colors = make(map[string]string, len(ad.Colors))
			for mode, color := range ad.Colors {
				a.colors[strings.ToLower(mode)] = color
			}
			for _, mode := range b.s.colorModes {
				if _, ok := a.colors[mode]; !ok {
					return symerrors.NewLoadErrorf(symerrors.ErrMissingSection, "", "affiliations/"+id+"/colors",
						"affiliation %s has no color for mode %q", id, mode)
				}
			}
		}
		frameRefs[id] = idcode.Normalize(ad.FrameBase)
		colorRefs[id] = idcode.Normalize(ad.ColorBase)
		b.s.affiliations[id] = a
	}

	resolve := func(refs map[string]string, what string, assign func(a, base *Affiliation)) error {
		g := graphcycle.Graph[string]{
			Exists: func(id string) bool {
				_, ok := b.s.affiliations[id]
				return ok
			},
			Parent: func(id string) (string, bool) {
				ref := refs[id]
				return ref, ref != ""
			},
		}
		for _, id := range xiter.SortedKeys(refs) {
			lineage, err := g.Lineage(id)
			if err != nil {
				return chainError(err, "affiliations/"+id+"/"+what)
			}
			if root := lineage[0]; root != id {
				assign(b.s.affiliations[id], b.s.affiliations[root])
			}
		}
		return nil
	}
	if err := resolve(frameRefs, "frame base", func(a, base *Affiliation) { a.frameBase = base }); err != nil {
		return err
	}
	if err := resolve(colorRefs, "color base", func(a, base *Affiliation) { a.colorBase = base }); err != nil {
		return err
	}
	for _, a := range xiter.SortedValues(b.s.affiliations) {
		if a.ColorAffiliation().colors == nil {
			return symerrors.NewLoadErrorf(symerrors.ErrMissingSection, "", "affiliations/"+a.id+"/colors",
				"affiliation %s has no colors of its own or through its color base", a.id)
		}
	}
	return nil
}

func (b *Builder) fullFrameOrdering(def ConstantsDef) error {
	for _, name := range def.FullFrameOrdering {
		var found *Affiliation
		for _, a := range xiter.SortedValues(b.s.affiliations) {
			if a.IsBase() && strings.EqualFold(a.Name(), name) {
				found = a
				break
			}
		}
		if found == nil {
			return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "full frame ordering",
				"no base affiliation named %q", name)
		}
		b.s.fullFrameOrdering = append(b.s.fullFrameOrdering, found)
	}
	return nil
}

func (b *Builder) frameShapes(def ConstantsDef) error {
	if len(def.FrameShapes) == 0 {
		return symerrors.NewLoadError(symerrors.ErrMissingSection, "", "frame shapes", "at least one frame shape is required")
	}
	bases := make(map[string]string)
	for _, fd := range def.FrameShapes {
		if len(fd.Names) == 0 {
			fd.Names = []string{fd.ID}
		}
		id, err := checkID(fd.ItemDef, 1, "frame shapes", b.s.frameShapes)
		if err != nil {
			return err
		}
		path := "frame shapes/" + id
		own, err := b.frameMap(fd.Frames, path+"/frames")
		if err != nil {
			return err
		}
		decorators, err := b.frameMap(fd.Decorators, path+"/decorators")
		if err != nil {
			return err
		}
		offsets := make(map[string]AmplifierOffset, len(fd.Offsets))
		for key, off := range fd.Offsets {
			affID, err := b.frameKey(key, path+"/amplifier offsets")
			if err != nil {
				return err
			}
			offsets[affID] = off
		}
		bases[id] = idcode.Normalize(fd.Base)
		b.s.frameShapes[id] = &FrameShape{
			item:       newItem(id, fd.Names, fd.Weight, fd.MatchName),
			own:        own,
			decorators: decorators,
			offsets:    offsets,
		}
	}

	g := graphcycle.Graph[string]{
		Exists: func(id string) bool {
			_, ok := b.s.frameShapes[id]
			return ok
		},
		Parent: func(id string) (string, bool) {
			ref := bases[id]
			return ref, ref != ""
		},
	}
	if err := g.Check(xiter.SortedKeys(bases)); err != nil {
		return chainError(err, "frame shapes")
	}
	for _, id := range xiter.SortedKeys(bases) {
		f := b.s.frameShapes[id]
		if ref := bases[id]; ref != "" && ref != id {
			f.base = b.s.frameShapes[ref]
		}
	}
	for _, f := range xiter.SortedValues(b.s.frameShapes) {
		f.frames = make(map[string][]any)
		for _, level := range f.Lineage() {
			for affID, elems := range level.own {
				f.frames[affID] = slices.Clone(elems)
			}
			for affID, elems := range level.decorators {
				f.frames[affID] = append(f.frames[affID], elems...)
			}
		}
	}
	return nil
}

func (b *Builder) frameMap(in map[string][]any, path string) (map[string][]any, error) {
	out := make(map[string][]any, len(in))
	for key, elems := range in {
		affID, err := b.frameKey(key, path)
		if err != nil {
			return nil, err
		}
		out[affID] = elems
	}
	return out, nil
}

func (b *Builder) frameKey(key, path string) (string, error) {
	id, ok := frameKeys[strings.ToLower(key)]
	if !ok {
		id = idcode.Normalize(key)
	}
	if _, ok := b.s.affiliations[id]; !ok {
		return "", symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", path, "unknown affiliation %q", key)
	}
	return id, nil
}

func (b *Builder) dimensions(def ConstantsDef) error {
	if len(def.Dimensions) == 0 {
		return symerrors.NewLoadError(symerrors.ErrMissingSection, "", "dimensions", "at least one dimension is required")
	}
	for _, dd := range def.Dimensions {
		if dd.ID == "" {
			return symerrors.NewLoadError(symerrors.ErrInvalidCode, "", "dimensions", "dimension key is empty")
		}
		if _, dup := b.s.dimensions[dd.ID]; dup {
			return symerrors.NewLoadErrorf(symerrors.ErrDuplicateID, "", "dimensions/"+dd.ID, "dimension %s declared twice", dd.ID)
		}
		shape, ok := b.s.frameShapes[idcode.Normalize(dd.FrameShape)]
		if !ok {
			return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "dimensions/"+dd.ID+"/frame shape",
				"dimension %s refers to unknown frame shape %q", dd.ID, dd.FrameShape)
		}
		names := dd.Names
		if len(names) == 0 {
			names = []string{dd.ID}
		}
		b.s.dimensions[dd.ID] = &Dimension{item: newItem(dd.ID, names, dd.Weight, dd.MatchName), frameShape: shape}
	}
	return nil
}

func (b *Builder) statuses(def ConstantsDef) error {
	for _, sd := range def.Statuses {
		id, err := checkID(sd.ItemDef, 1, "statuses", b.s.statuses)
		if err != nil {
			return err
		}
		b.s.statuses[id] = &Status{
			item:        newItem(id, sd.Names, sd.Weight, sd.MatchName),
			dashed:      sd.Dashed,
			variant:     sd.Variant,
			icon:        sd.Icon,
			altIcon:     sd.AltIcon,
			iconSide:    side(sd.IconSide),
			altIconSide: side(sd.AltIconSide),
		}
	}
	return nil
}

func (b *Builder) hqtfds(def ConstantsDef) error {
	for _, hd := range def.HQTFDs {
		id, err := checkID(hd.ItemDef, 1, "hqtfds", b.s.hqtfds)
		if err != nil {
			return err
		}
		h := &HQTFD{item: newItem(id, hd.Names, hd.Weight, hd.MatchName), dashed: hd.Dashed}
		for _, facet := range hd.Facets {
			switch strings.ToLower(strings.TrimSpace(facet)) {
			case hqtfdFacets[0]:
				h.headquarters = true
			case hqtfdFacets[1]:
				h.taskForce = true
			case hqtfdFacets[2]:
				h.dummy = true
			default:
				return symerrors.NewLoadErrorf(symerrors.ErrMalformedDocument, "", "hqtfds/"+id+"/hqtfd",
					"unknown facet %q, want one of %s", facet, strings.Join(hqtfdFacets, ", "))
			}
		}
		for _, phrase := range hd.Blacklist {
			if words := match.Words(phrase); len(words) > 0 {
				h.blacklist = append(h.blacklist, words)
			}
		}
		if hd.AppliesTo != nil {
			h.appliesTo = make(map[string]struct{}, len(hd.AppliesTo))
			for _, setID := range hd.AppliesTo {
				setID = idcode.Normalize(setID)
				if !idcode.Valid(setID, 2) {
					return symerrors.NewLoadErrorf(symerrors.ErrInvalidCode, "", "hqtfds/"+id+"/applies to",
						"symbol set id %q must be 2 hex digits", setID)
				}
				h.appliesTo[setID] = struct{}{}
			}
		}
		b.s.hqtfds[id] = h
	}
	return nil
}

func (b *Builder) amplifiers(def ConstantsDef) error {
	for _, ad := range def.Amplifiers {
		id, err := checkID(ad.ItemDef, 2, "amplifiers", b.s.amplifiers)
		if err != nil {
			return err
		}
		a := &Amplifier{
			item:         newItem(id, ad.Names, ad.Weight, ad.MatchName),
			category:     ad.Category,
			prerun:       ad.Prerun,
			icon:         ad.Icon,
			iconSide:     side(ad.IconSide),
			appliesToAll: ad.AppliesToAll,
		}
		for _, dimID := range ad.AppliesTo {
			dim, ok := b.s.dimensions[dimID]
			if !ok {
				return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "amplifiers/"+id+"/applies to",
					"amplifier %s applies to unknown dimension %q", id, dimID)
			}
			a.appliesTo = append(a.appliesTo, dim)
		}
		b.s.amplifiers[id] = a
	}
	return nil
}

func (b *Builder) defaults(def ConstantsDef) error {
	ctxID := idcode.Normalize(def.Defaults.Context)
	if ctxID == "" {
		ctxID = "0"
		if _, ok := b.s.contexts[ctxID]; !ok {
			ctxID = xiter.SortedKeys(b.s.contexts)[0]
		}
	}
	ctx, ok := b.s.contexts[ctxID]
	if !ok {
		return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "defaults/context", "unknown context %q", ctxID)
	}
	b.s.defaultContext = ctx

	if affID := idcode.Normalize(def.Defaults.Affiliation); affID != "" {
		aff, ok := b.s.affiliations[affID]
		if !ok {
			return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", "defaults/affiliation", "unknown affiliation %q", affID)
		}
		b.s.unknownAffiliation = aff
		return nil
	}
	for _, a := range xiter.SortedValues(b.s.affiliations) {
		if slices.ContainsFunc(a.names, func(n string) bool { return strings.EqualFold(n, "unknown") }) {
			b.s.unknownAffiliation = a
			return nil
		}
	}
	return symerrors.NewLoadError(symerrors.ErrMissingSection, "", "defaults/affiliation",
		"no affiliation named unknown and no default affiliation declared")
}

func buildModifiers(set *SymbolSet, slot int, defs []ModifierDef) (map[string]*Modifier, error) {
	out := make(map[string]*Modifier, len(defs))
	section := fmt.Sprintf("m%d", slot)
	width := ModifierCodeLength
	if set.common {
		width = ModifierCodeLength + 1
	}
	for _, md := range defs {
		id, err := checkID(md.ItemDef, width, section, out)
		if err != nil {
			return nil, err
		}
		if set.common && id[0] == '0' {
			return nil, symerrors.NewLoadErrorf(symerrors.ErrInvalidCode, "", section+"/"+id,
				"common modifier %s must start with a non-zero flag digit", id)
		}
		out[id] = &Modifier{
			layer: layer{
				item: newItem(id, md.Names, md.Weight, md.MatchName),
				set:  set,
				icon: md.Icon,
			},
			slot:             slot,
			category:         md.Category,
			civilianOverride: md.Civilian,
		}
	}
	return out, nil
}

// checkID validates and normalizes an id, rejecting duplicates within seen and
// items without names.
func checkID[V any](def ItemDef, length int, section string, seen map[string]V) (string, error) {
	id := idcode.Normalize(def.ID)
	if !idcode.Valid(id, length) {
		return "", symerrors.NewLoadErrorf(symerrors.ErrInvalidCode, "", section+"/"+def.ID,
			"id %q must be %d hex digits", def.ID, length)
	}
	if _, dup := seen[id]; dup {
		return "", symerrors.NewLoadErrorf(symerrors.ErrDuplicateID, "", section+"/"+id, "id %s declared twice", id)
	}
	if len(def.Names) == 0 {
		return "", symerrors.NewLoadErrorf(symerrors.ErrMissingSection, "", section+"/"+id+"/names", "id %s has no names", id)
	}
	return id, nil
}

func chainError(err error, path string) error {
	var cycle graphcycle.CycleError[string]
	if errors.As(err, &cycle) {
		return symerrors.NewLoadErrorf(symerrors.ErrInheritanceCycle, "", path, "base chain loops through %s", cycle.Key)
	}
	var missing graphcycle.MissingError[string]
	if errors.As(err, &missing) {
		return symerrors.NewLoadErrorf(symerrors.ErrDanglingReference, "", path, "%s is based on unknown %s", missing.From, missing.Key)
	}
	return symerrors.WrapLoadError(symerrors.ErrMalformedDocument, "", path, err)
}

func side(s string) IconSide {
	if s == "" {
		return "middle"
	}
	return IconSide(strings.ToLower(s))
}
