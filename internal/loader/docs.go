package loader

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jacoelho/milsym/internal/schema"
	"github.com/jacoelho/milsym/internal/xiter"
)

// nameList accepts a single name or a list of names.
type nameList []string

func (n *nameList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*n = nameList{value.Value}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*n = names
		return nil
	default:
		return fmt.Errorf("line %d: names must be a string or a list of strings", value.Line)
	}
}

// appliesTo accepts the word "all" or a list of keys.
type appliesTo struct {
	keys []string
	all  bool
	set  bool
}

func (a *appliesTo) UnmarshalYAML(value *yaml.Node) error {
	a.set = true
	switch value.Kind {
	case yaml.ScalarNode:
		if strings.EqualFold(value.Value, "all") {
			a.all = true
			return nil
		}
		a.keys = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		return value.Decode(&a.keys)
	default:
		return fmt.Errorf("line %d: applies to must be \"all\" or a list", value.Line)
	}
}

func (a appliesTo) list() []string {
	if !a.set {
		return nil
	}
	if a.keys == nil {
		return []string{}
	}
	return a.keys
}

type itemDoc struct {
	Weight    *float64 `yaml:"match weight"`
	MatchName *bool    `yaml:"match name"`
	Name      string   `yaml:"name"`
	Names     nameList `yaml:"names"`
}

func (d itemDoc) def(id string) schema.ItemDef {
	names := []string(d.Names)
	if len(names) == 0 && d.Name != "" {
		names = []string{d.Name}
	}
	return schema.ItemDef{ID: id, Names: names, Weight: d.Weight, MatchName: d.MatchName}
}

type contextDoc struct {
	itemDoc     `yaml:",inline"`
	BaseContext string `yaml:"base context"`
}

type affiliationDoc struct {
	itemDoc         `yaml:",inline"`
	Colors          map[string]string `yaml:"colors"`
	CivilianVariant *bool             `yaml:"has civilian variant"`
	FrameBase       string            `yaml:"frame base"`
	ColorBase       string            `yaml:"color base"`
	Dashed          bool              `yaml:"dashed"`
}

type offsetDoc struct {
	Top    [2]float64 `yaml:"top"`
	Bottom [2]float64 `yaml:"bottom"`
}

type frameShapeDoc struct {
	itemDoc    `yaml:",inline"`
	Frames     map[string][]any     `yaml:"frames"`
	Decorators map[string][]any     `yaml:"decorators"`
	Offsets    map[string]offsetDoc `yaml:"amplifier offsets"`
	Base       string               `yaml:"frame base"`
}

type dimensionDoc struct {
	itemDoc    `yaml:",inline"`
	FrameShape string `yaml:"frame shape"`
}

type statusDoc struct {
	itemDoc     `yaml:",inline"`
	Icon        []any  `yaml:"icon"`
	AltIcon     []any  `yaml:"alt icon"`
	IconSide    string `yaml:"icon side"`
	AltIconSide string `yaml:"alt icon side"`
	Dashed      bool   `yaml:"dashed"`
	Variant     bool   `yaml:"variant"`
}

type hqtfdDoc struct {
	itemDoc   `yaml:",inline"`
	AppliesTo appliesTo `yaml:"applies to"`
	Facets    []string  `yaml:"hqtfd"`
	Blacklist []string  `yaml:"blacklist"`
	Dashed    bool      `yaml:"dashed"`
}

type amplifierDoc struct {
	itemDoc   `yaml:",inline"`
	AppliesTo appliesTo `yaml:"applies to"`
	Category  string    `yaml:"category"`
	Icon      []any     `yaml:"icon"`
	IconSide  string    `yaml:"icon side"`
	Prerun    bool      `yaml:"prerun"`
}

type defaultsDoc struct {
	Context     string `yaml:"context"`
	Affiliation string `yaml:"affiliation"`
}

type constantsDoc struct {
	Contexts          map[string]contextDoc     `yaml:"contexts"`
	Affiliations      map[string]affiliationDoc `yaml:"affiliations"`
	FrameShapes       map[string]frameShapeDoc  `yaml:"frame shapes"`
	Dimensions        map[string]dimensionDoc   `yaml:"dimensions"`
	Statuses          map[string]statusDoc      `yaml:"statuses"`
	HQTFDs            map[string]hqtfdDoc       `yaml:"hqtfds"`
	Amplifiers        map[string]amplifierDoc   `yaml:"amplifiers"`
	Defaults          defaultsDoc               `yaml:"defaults"`
	Version           string                    `yaml:"version"`
	ColorModes        []string                  `yaml:"color modes"`
	FullFrameOrdering []string                  `yaml:"full frame ordering"`
}

// missing returns the first required section the document lacks.
func (d constantsDoc) missing() string {
	switch {
	case d.Contexts == nil:
		return "contexts"
	case d.Affiliations == nil:
		return "affiliations"
	case d.ColorModes == nil:
		return "color modes"
	case d.FrameShapes == nil:
		return "frame shapes"
	case d.Dimensions == nil:
		return "dimensions"
	}
	return ""
}

func (d constantsDoc) def() schema.ConstantsDef {
	out := schema.ConstantsDef{
		Version:           d.Version,
		ColorModes:        d.ColorModes,
		FullFrameOrdering: d.FullFrameOrdering,
		Defaults:          schema.DefaultsDef{Context: d.Defaults.Context, Affiliation: d.Defaults.Affiliation},
	}
	for _, id := range xiter.SortedKeys(d.Contexts) {
		c := d.Contexts[id]
		out.Contexts = append(out.Contexts, schema.ContextDef{ItemDef: c.def(id), BaseContext: c.BaseContext})
	}
	for _, id := range xiter.SortedKeys(d.Affiliations) {
		a := d.Affiliations[id]
		out.Affiliations = append(out.Affiliations, schema.AffiliationDef{
			ItemDef:         a.def(id),
			Colors:          a.Colors,
			CivilianVariant: a.CivilianVariant,
			FrameBase:       a.FrameBase,
			ColorBase:       a.ColorBase,
			Dashed:          a.Dashed,
		})
	}
	for _, id := range xiter.SortedKeys(d.FrameShapes) {
		f := d.FrameShapes[id]
		var offsets map[string]schema.AmplifierOffset
		if f.Offsets != nil {
			offsets = make(map[string]schema.AmplifierOffset, len(f.Offsets))
			for k, o := range f.Offsets {
				offsets[k] = schema.AmplifierOffset{Top: o.Top, Bottom: o.Bottom}
			}
		}
		out.FrameShapes = append(out.FrameShapes, schema.FrameShapeDef{
			ItemDef:    f.def(id),
			Frames:     f.Frames,
			Decorators: f.Decorators,
			Offsets:    offsets,
			Base:       f.Base,
		})
	}
	for _, id := range xiter.SortedKeys(d.Dimensions) {
		dim := d.Dimensions[id]
		out.Dimensions = append(out.Dimensions, schema.DimensionDef{ItemDef: dim.def(id), FrameShape: dim.FrameShape})
	}
	for _, id := range xiter.SortedKeys(d.Statuses) {
		s := d.Statuses[id]
		out.Statuses = append(out.Statuses, schema.StatusDef{
			ItemDef:     s.def(id),
			Icon:        s.Icon,
			AltIcon:     s.AltIcon,
			IconSide:    s.IconSide,
			AltIconSide: s.AltIconSide,
			Dashed:      s.Dashed,
			Variant:     s.Variant,
		})
	}
	for _, id := range xiter.SortedKeys(d.HQTFDs) {
		h := d.HQTFDs[id]
		out.HQTFDs = append(out.HQTFDs, schema.HQTFDDef{
			ItemDef:   h.def(id),
			Facets:    h.Facets,
			Blacklist: h.Blacklist,
			AppliesTo: h.AppliesTo.list(),
			Dashed:    h.Dashed,
		})
	}
	for _, id := range xiter.SortedKeys(d.Amplifiers) {
		a := d.Amplifiers[id]
		out.Amplifiers = append(out.Amplifiers, schema.AmplifierDef{
			ItemDef:      a.def(id),
			Category:     a.Category,
			AppliesTo:    a.AppliesTo.list(),
			AppliesToAll: a.AppliesTo.all,
			Icon:         a.Icon,
			IconSide:     a.IconSide,
			Prerun:       a.Prerun,
		})
	}
	return out
}

// entityDoc is a tree node given as a name, a list of names or a mapping.
type entityDoc struct {
	itemDoc           `yaml:",inline"`
	Civilian          *bool                `yaml:"civilian"`
	Civ               *bool                `yaml:"civ"`
	CivilianInherit   *bool                `yaml:"civilian inherit"`
	Unfilled          *bool                `yaml:"unfilled"`
	UnfilledInherit   *bool                `yaml:"unfilled inherit"`
	Variants          *int                 `yaml:"variants"`
	VariantsInherit   *bool                `yaml:"variants inherit"`
	ModCats           []string             `yaml:"modcats"`
	ModCatsInherit    *bool                `yaml:"modcats inherit"`
	ModCatsAdditional []string             `yaml:"modcats additional"`
	Icon              []any                `yaml:"icon"`
	AltIcon           []any                `yaml:"alt icon"`
	Types             map[string]entityDoc `yaml:"entity types"`
	Subtypes          map[string]entityDoc `yaml:"entity subtypes"`
}

func (e *entityDoc) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		return value.Decode(&e.Names)
	case yaml.MappingNode:
		type plain entityDoc
		return value.Decode((*plain)(e))
	default:
		return fmt.Errorf("line %d: entity must be a name, a list of names or a mapping", value.Line)
	}
}

func (e entityDoc) def(key string, skipped func(string)) schema.EntityDef {
	civilian := e.Civilian
	if civilian == nil {
		civilian = e.Civ
	}
	out := schema.EntityDef{
		Key:       key,
		Names:     e.itemDoc.def(key).Names,
		Weight:    e.Weight,
		MatchName: e.MatchName,
		Civilian:  civilian,
		Unfilled:  e.Unfilled,
		Variants:  e.Variants,
		Inherit: schema.InheritDef{
			Civilian: e.CivilianInherit,
			Unfilled: e.UnfilledInherit,
			Variants: e.VariantsInherit,
			ModCats:  e.ModCatsInherit,
		},
		ModCats:           e.ModCats,
		ModCatsAdditional: e.ModCatsAdditional,
		Icon:              e.Icon,
		AltIcon:           e.AltIcon,
	}
	out.Children = entityDefs(e.Types, skipped)
	out.Children = append(out.Children, entityDefs(e.Subtypes, skipped)...)
	return out
}

func entityDefs(nodes map[string]entityDoc, skipped func(string)) []schema.EntityDef {
	var out []schema.EntityDef
	for _, key := range xiter.SortedKeys(nodes) {
		if strings.HasPrefix(key, ".") {
			skipped(key)
			continue
		}
		out = append(out, nodes[key].def(key, skipped))
	}
	return out
}

type modifierDoc struct {
	itemDoc  `yaml:",inline"`
	Civilian *bool  `yaml:"civilian"`
	Civ      *bool  `yaml:"civ"`
	Category string `yaml:"category"`
	Icon     []any  `yaml:"icon"`
}

func modifierDefs(nodes map[string]modifierDoc) []schema.ModifierDef {
	var out []schema.ModifierDef
	for _, id := range xiter.SortedKeys(nodes) {
		m := nodes[id]
		civilian := m.Civilian
		if civilian == nil {
			civilian = m.Civ
		}
		out = append(out, schema.ModifierDef{ItemDef: m.def(id), Civilian: civilian, Category: m.Category, Icon: m.Icon})
	}
	return out
}

type symbolSetDoc struct {
	itemDoc   `yaml:",inline"`
	Entities  map[string]entityDoc   `yaml:"entities"`
	M1        map[string]modifierDoc `yaml:"m1"`
	M2        map[string]modifierDoc `yaml:"m2"`
	Set       string                 `yaml:"set"`
	Dimension string                 `yaml:"dimension"`
	Common    bool                   `yaml:"common"`
}

func (d symbolSetDoc) def(skipped func(string)) schema.SymbolSetDef {
	return schema.SymbolSetDef{
		ItemDef:   d.itemDoc.def(d.Set),
		Dimension: d.Dimension,
		Common:    d.Common,
		Entities:  entityDefs(d.Entities, skipped),
		M1:        modifierDefs(d.M1),
		M2:        modifierDefs(d.M2),
	}
}
