package template

import (
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/idcode"
	"github.com/jacoelho/milsym/internal/schema"
	"github.com/jacoelho/milsym/internal/symbol"
)

// DefaultPattern selects every YAML document in the root directory.
const DefaultPattern = "*.{yaml,yml}"

const wildcards = "*_"

// Config configures a template load.
type Config struct {
	FS       fs.FS
	Schema   *schema.Schema
	Logger   *zap.Logger
	Patterns []string
}

// Load reads every document matched by the patterns, in sorted path order,
// and parses its templates against the schema.
func Load(cfg Config) ([]*Template, error) {
	if cfg.Schema == nil {
		return nil, symerrors.NewLoadError(symerrors.ErrSchemaNotLoaded, "", "", "templates need a loaded schema")
	}
	if cfg.FS == nil {
		return nil, fmt.Errorf("load templates: nil fs")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}

	var paths []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("load templates: invalid pattern %q", pattern)
		}
		matches, err := doublestar.Glob(cfg.FS, pattern)
		if err != nil {
			return nil, fmt.Errorf("load templates: glob %q: %w", pattern, err)
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !slices.Contains(paths, m) {
				paths = append(paths, m)
			}
		}
	}

	var out []*Template
	for _, p := range paths {
		data, err := fs.ReadFile(cfg.FS, p)
		if err != nil {
			return nil, symerrors.WrapLoadError(symerrors.ErrMalformedDocument, p, "", err)
		}
		templates, err := Parse(cfg.Schema, p, data)
		if err != nil {
			return nil, err
		}
		logger.Debug("templates loaded", zap.String("source", p), zap.Int("count", len(templates)))
		out = append(out, templates...)
	}
	return out, nil
}

// Parse reads a template document: a mapping from template name to either a
// structured code with wildcards or a mapping of pinned fields. Templates
// are returned in document order.
func Parse(s *schema.Schema, source string, data []byte) ([]*Template, error) {
	if s == nil {
		return nil, symerrors.NewLoadError(symerrors.ErrSchemaNotLoaded, source, "", "templates need a loaded schema")
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, symerrors.WrapLoadError(symerrors.ErrMalformedDocument, source, "", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, nil
		}
		doc = doc.Content[0]
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	if doc.Kind != yaml.MappingNode {
		return nil, symerrors.NewLoadError(symerrors.ErrMalformedDocument, source, "", "template document must be a mapping")
	}

	var out []*Template
	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := doc.Content[i].Value
		var entry entryDoc
		if err := doc.Content[i+1].Decode(&entry); err != nil {
			return nil, &symerrors.LoadError{
				Code: symerrors.ErrInvalidTemplate, Source: source, Path: name, Message: "cannot decode template", Err: err,
			}
		}
		t, err := entry.build(s, name)
		if err != nil {
			if le, ok := symerrors.AsLoadError(err); ok {
				cp := *le
				cp.Source = source
				return nil, &cp
			}
			return nil, err
		}
		t.source = source
		out = append(out, t)
	}
	return out, nil
}

// entryDoc is one template entry, given as a code or as a mapping.
type entryDoc struct {
	pins   map[symbol.Field]string
	weight *float64
	code   string
	names  []string
}

func (e *entryDoc) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		e.code = value.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: template must be a code or a mapping", value.Line)
	}
	e.pins = make(map[symbol.Field]string)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch k := strings.ToLower(strings.TrimSpace(key.Value)); k {
		case "names", "name":
			switch val.Kind {
			case yaml.ScalarNode:
				e.names = append(e.names, val.Value)
			case yaml.SequenceNode:
				var names []string
				if err := val.Decode(&names); err != nil {
					return err
				}
				e.names = append(e.names, names...)
			default:
				return fmt.Errorf("line %d: names must be a string or a list of strings", val.Line)
			}
		case "code", "sidc":
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: code must be a string", val.Line)
			}
			e.code = val.Value
		case "match weight":
			var w float64
			if err := val.Decode(&w); err != nil {
				return err
			}
			e.weight = &w
		default:
			f, ok := symbol.FieldByName(strings.ReplaceAll(k, "_", " "))
			if !ok {
				return fmt.Errorf("line %d: unknown template key %q", key.Line, key.Value)
			}
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: %s must be an id code", val.Line, key.Value)
			}
			e.pins[f] = strings.TrimSpace(val.Value)
		}
	}
	return nil
}

func (e entryDoc) build(s *schema.Schema, name string) (*Template, error) {
	sym := &symbol.Symbol{Version: s.Version(), Context: s.DefaultContext(), Affiliation: s.UnknownAffiliation()}
	var fixed symbol.Field
	if e.code != "" {
		decoded, pinned, err := fromCode(s, name, e.code)
		if err != nil {
			return nil, err
		}
		sym, fixed = decoded, pinned
	}
	for _, f := range symbol.FieldAll.Fields() {
		value, ok := e.pins[f]
		if !ok {
			continue
		}
		if err := pin(s, sym, fixed, f, value); err != nil {
			return nil, symerrors.NewLoadErrorf(symerrors.ErrInvalidTemplate, "", name, "%s: %v", f, err)
		}
		fixed |= f
	}
	if err := sym.Validate(); err != nil {
		return nil, symerrors.NewLoadErrorf(symerrors.ErrInvalidTemplate, "", name, "%v", err)
	}
	t, err := New(append([]string{name}, e.names...), sym, fixed)
	if err != nil {
		return nil, err
	}
	if e.weight != nil {
		t.weight = *e.weight
	}
	return t, nil
}

// fromCode decodes a code whose wildcard fields are flexible. Fields past the
// end of a short code are flexible too.
func fromCode(s *schema.Schema, name, raw string) (*symbol.Symbol, symbol.Field, error) {
	code := strings.ToUpper(cleanCode(raw))
	if len(code) < symbol.VersionWidth {
		return nil, 0, symerrors.NewLoadErrorf(symerrors.ErrInvalidTemplate, "", name, "code %q is too short", raw)
	}
	decodable := strings.Map(func(r rune) rune {
		if strings.ContainsRune(wildcards, r) {
			return '0'
		}
		return r
	}, code)
	if len(decodable) < symbol.MinCodeLength {
		decodable += idcode.Zero(symbol.MinCodeLength - len(decodable))
	}
	sym, err := symbol.Decode(s, decodable, nil)
	if err != nil {
		return nil, 0, &symerrors.LoadError{Code: symerrors.ErrInvalidTemplate, Path: name, Message: "cannot decode code", Err: err}
	}

	encoded := sym.Code()
	var fixed symbol.Field
	for _, seg := range symbol.Segments() {
		if seg.End() > len(code) {
			continue
		}
		part := code[seg.Start:seg.End()]
		if strings.ContainsAny(part, wildcards) {
			continue
		}
		if !idcode.IsZero(part) && encoded[seg.Start:seg.End()] != part {
			return nil, 0, symerrors.NewLoadErrorf(symerrors.ErrInvalidTemplate, "", name,
				"%s %q in code %q does not resolve", seg.Name, part, raw)
		}
		fixed |= seg.Field
	}
	return sym, fixed, nil
}

func cleanCode(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case strings.ContainsRune(wildcards, r):
			return r
		}
		return -1
	}, s)
}

// pin sets one field from an id code. A zero code that names nothing pins
// the field empty.
func pin(s *schema.Schema, sym *symbol.Symbol, fixed, f symbol.Field, value string) error {
	seg, _ := symbol.SegmentOf(f)
	value = idcode.Normalize(value)
	width := seg.Width
	common := (f == symbol.FieldModifier1 || f == symbol.FieldModifier2) && len(value) == schema.ModifierCodeLength+1
	if common {
		width++
	}
	value = idcode.Pad(value, width)
	if !idcode.Valid(value, width) {
		return fmt.Errorf("%q must be %d hex digits", value, width)
	}
	needsSet := f == symbol.FieldEntity || ((f == symbol.FieldModifier1 || f == symbol.FieldModifier2) && !common)
	if needsSet && !fixed.Has(symbol.FieldSymbolSet) {
		return fmt.Errorf("%q needs a pinned symbol set", value)
	}

	var found bool
	switch f {
	case symbol.FieldContext:
		sym.Context = s.Context(value)
		found = sym.Context != nil
	case symbol.FieldAffiliation:
		sym.Affiliation = s.Affiliation(value)
		found = sym.Affiliation != nil
	case symbol.FieldSymbolSet:
		sym.SymbolSet = s.SymbolSet(value)
		found = sym.SymbolSet != nil
	case symbol.FieldStatus:
		sym.Status = s.Status(value)
		found = sym.Status != nil
	case symbol.FieldHQTFD:
		sym.HQTFD = s.HQTFD(value)
		found = sym.HQTFD != nil
	case symbol.FieldAmplifier:
		sym.Amplifier = s.Amplifier(value)
		found = sym.Amplifier != nil
	case symbol.FieldEntity:
		if sym.SymbolSet != nil {
			sym.Entity = sym.SymbolSet.Entity(value)
		}
		found = sym.Entity != nil
	case symbol.FieldModifier1, symbol.FieldModifier2:
		slot := 1
		if f == symbol.FieldModifier2 {
			slot = 2
		}
		var m *schema.Modifier
		switch {
		case common:
			m = s.CommonModifier(slot, value[0], value[1:])
		case sym.SymbolSet != nil:
			m = sym.SymbolSet.Modifier(slot, value)
		}
		if slot == 1 {
			sym.Modifier1 = m
		} else {
			sym.Modifier2 = m
		}
		found = m != nil
	case symbol.FieldFrameShape:
		sym.FrameShapeOverride = s.FrameShape(value)
		found = sym.FrameShapeOverride != nil
	}
	if !found && !idcode.IsZero(value) {
		return fmt.Errorf("%q names no item", value)
	}
	return nil
}
