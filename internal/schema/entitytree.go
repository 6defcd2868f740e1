package schema

import (
	"slices"
	"strings"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/idcode"
)

// maxEntityLevel is the deepest level of an entity tree: category 0, type 1, subtype 2.
const maxEntityLevel = 2

// bundle is the set of classification attributes a node hands to its children.
type bundle struct {
	modcats  []string
	name     string
	variants int
	civilian bool
	unfilled bool
}

type treeBuilder struct {
	set   *SymbolSet
	nodes []Entity
	index map[string]int
}

func buildEntities(set *SymbolSet, defs []EntityDef) error {
	tb := &treeBuilder{set: set, index: make(map[string]int)}
	if err := tb.walk(defs, "", 0, -1, bundle{}, "entities"); err != nil {
		return err
	}
	set.entities = tb.nodes
	set.entityIndex = tb.index
	return nil
}

func (tb *treeBuilder) walk(defs []EntityDef, prefix string, level, parent int, inherited bundle, path string) error {
	if len(defs) == 0 {
		return nil
	}
	if level > maxEntityLevel {
		return symerrors.NewLoadErrorf(symerrors.ErrTreeTooDeep, "", path,
			"entity tree of set %s nests deeper than subtypes", tb.set.id)
	}
	sorted := slices.Clone(defs)
	slices.SortStableFunc(sorted, func(a, b EntityDef) int {
		return strings.Compare(idcode.Normalize(a.Key), idcode.Normalize(b.Key))
	})
	for _, def := range sorted {
		key := idcode.Normalize(def.Key)
		if strings.HasPrefix(key, ".") {
			continue
		}
		nodePath := path + "/" + def.Key
		if !idcode.Valid(key, 2) {
			return symerrors.NewLoadErrorf(symerrors.ErrInvalidCode, "", nodePath, "entity key %q must be 2 hex digits", def.Key)
		}
		code := prefix + key + idcode.Zero(EntityCodeLength-len(prefix)-len(key))
		if _, dup := tb.index[code]; dup {
			return symerrors.NewLoadErrorf(symerrors.ErrDuplicateID, "", nodePath, "entity %s declared twice in set %s", code, tb.set.id)
		}
		if len(def.Names) == 0 {
			return symerrors.NewLoadErrorf(symerrors.ErrMissingSection, "", nodePath+"/names", "entity %s has no names", code)
		}

		names := make([]string, 0, len(def.Names))
		for _, n := range def.Names {
			names = append(names, substitute(n, inherited.name))
		}
		e := Entity{
			layer: layer{
				item:    newItem(code, names, def.Weight, def.MatchName),
				set:     tb.set,
				icon:    def.Icon,
				altIcon: def.AltIcon,
			},
			shortName:     substitute(def.Names[0], ""),
			parent:        parent,
			level:         level,
			civilian:      pick(def.Civilian, inherited.civilian),
			unfilledFrame: pick(def.Unfilled, inherited.unfilled),
			variants:      pick(def.Variants, inherited.variants),
		}
		base := inherited.modcats
		if def.ModCats != nil {
			base = def.ModCats
		}
		e.modifierCats = appendUnique(slices.Clone(base), def.ModCatsAdditional...)

		idx := len(tb.nodes)
		tb.nodes = append(tb.nodes, e)
		tb.index[code] = idx
		if parent >= 0 {
			tb.nodes[parent].children = append(tb.nodes[parent].children, idx)
		}

		next := bundle{name: names[0]}
		if inherits(def.Inherit.Civilian) {
			next.civilian = e.civilian
		}
		if inherits(def.Inherit.Unfilled) {
			next.unfilled = e.unfilledFrame
		}
		if inherits(def.Inherit.Variants) {
			next.variants = e.variants
		}
		if inherits(def.Inherit.ModCats) {
			next.modcats = base
		}
		if err := tb.walk(def.Children, prefix+key, level+1, idx, next, nodePath); err != nil {
			return err
		}
	}
	return nil
}

// substitute replaces "*" with the parent's name and tidies whitespace.
func substitute(name, parent string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "*", parent)), " ")
}

func pick[T any](own *T, inherited T) T {
	if own != nil {
		return *own
	}
	return inherited
}

func inherits(flag *bool) bool { return flag == nil || *flag }

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(dst, it) {
			dst = append(dst, it)
		}
	}
	return dst
}
