package symbol

import (
	"strings"

	"go.uber.org/zap"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/idcode"
	"github.com/jacoelho/milsym/internal/schema"
)

type ider interface {
	comparable
	ID() string
}

func idOr[T ider](v T, width int) string {
	var zero T
	if v == zero {
		return idcode.Zero(width)
	}
	return v.ID()
}

// Code encodes the symbol as a structured code padded to CodeLength. Unset
// fields are written as zeros.
func (s *Symbol) Code() string {
	var b strings.Builder
	b.Grow(CodeLength)
	version := s.Version
	if version == "" {
		version = schema.DefaultVersion
	}
	b.WriteString(idcode.Pad(version, VersionWidth))
	b.WriteString(idOr(s.Context, 1))
	b.WriteString(idOr(s.Affiliation, 1))
	b.WriteString(idOr(s.SymbolSet, 2))
	b.WriteString(idOr(s.Status, 1))
	b.WriteString(idOr(s.HQTFD, 1))
	b.WriteString(idOr(s.Amplifier, 2))
	b.WriteString(idOr(s.Entity, schema.EntityCodeLength))
	b.WriteString(modifierCode(s.Modifier1))
	b.WriteString(modifierCode(s.Modifier2))
	b.WriteByte(commonFlag(s.Modifier1))
	b.WriteByte(commonFlag(s.Modifier2))
	b.WriteString(idOr(s.FrameShapeOverride, 1))
	for b.Len() < CodeLength {
		b.WriteByte('0')
	}
	return b.String()
}

func modifierCode(m *schema.Modifier) string {
	if m == nil {
		return idcode.Zero(schema.ModifierCodeLength)
	}
	return m.Code()
}

func commonFlag(m *schema.Modifier) byte {
	if m == nil {
		return '0'
	}
	return m.CommonFlag()
}

// decoder carries the state of one Decode call.
type decoder struct {
	schema *schema.Schema
	logger *zap.Logger
	code   string
}

// Decode parses a structured code against s. Separators are ignored. Only a
// code shorter than MinCodeLength is an error: any field that is unknown or
// does not apply to the decoded symbol set falls back to its default.
func Decode(s *schema.Schema, code string, logger *zap.Logger) (*Symbol, error) {
	if s == nil {
		return nil, symerrors.NewDecodeErrorf(symerrors.ErrSchemaNotLoaded, code, "no schema")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	clean := strings.ToUpper(idcode.StripSeparators(code))
	if len(clean) < MinCodeLength {
		return nil, symerrors.NewDecodeErrorf(symerrors.ErrCodeTooShort, code,
			"code has %d characters, need at least %d", len(clean), MinCodeLength)
	}
	d := decoder{schema: s, logger: logger.With(zap.String("code", clean)), code: clean}
	return d.decode(), nil
}

func (d *decoder) field(f Field) string {
	seg, _ := SegmentOf(f)
	if seg.End() > len(d.code) {
		return idcode.Zero(seg.Width)
	}
	return d.code[seg.Start:seg.End()]
}

func (d *decoder) digit(offset int) byte {
	if offset >= len(d.code) {
		return '0'
	}
	return d.code[offset]
}

// miss logs a field that did not resolve. All-zero fields are the normal way
// to leave a field unset and are not logged.
func (d *decoder) miss(f Field, value, reason string) {
	if idcode.IsZero(value) {
		return
	}
	d.logger.Debug("field fallback", zap.Stringer("field", f), zap.String("value", value), zap.String("reason", reason))
}

func (d *decoder) decode() *Symbol {
	s := d.schema
	sym := &Symbol{Version: d.code[:VersionWidth]}

	ctx := d.field(FieldContext)
	if sym.Context = s.Context(ctx); sym.Context == nil {
		sym.Context = s.DefaultContext()
		d.miss(FieldContext, ctx, "unknown context")
	}
	// Zero is an affiliation id like any other; only undefined ids fall back.
	aff := d.field(FieldAffiliation)
	if sym.Affiliation = s.Affiliation(aff); sym.Affiliation == nil {
		sym.Affiliation = s.UnknownAffiliation()
		d.miss(FieldAffiliation, aff, "unknown affiliation")
	}

	setCode := d.field(FieldSymbolSet)
	if sym.SymbolSet = s.SymbolSet(setCode); sym.SymbolSet == nil {
		d.miss(FieldSymbolSet, setCode, "unknown symbol set")
	}
	set := sym.SymbolSet

	status := d.field(FieldStatus)
	if sym.Status = s.Status(status); sym.Status == nil {
		d.miss(FieldStatus, status, "unknown status")
	}

	hqtfd := d.field(FieldHQTFD)
	switch h := s.HQTFD(hqtfd); {
	case h == nil:
		d.miss(FieldHQTFD, hqtfd, "unknown hqtfd")
	case set != nil && !h.AppliesToSymbolSet(set):
		d.miss(FieldHQTFD, hqtfd, "not applicable to symbol set "+set.ID())
	default:
		sym.HQTFD = h
	}

	amp := d.field(FieldAmplifier)
	switch a := s.Amplifier(amp); {
	case a == nil:
		d.miss(FieldAmplifier, amp, "unknown amplifier")
	case set != nil && !a.AppliesToSymbolSet(set):
		d.miss(FieldAmplifier, amp, "not applicable to symbol set "+set.ID())
	default:
		sym.Amplifier = a
	}

	if set != nil {
		sym.Entity = d.entity(set, d.field(FieldEntity))
	}
	sym.Modifier1 = d.modifier(set, 1, d.field(FieldModifier1), d.digit(modifier1FlagOffset))
	sym.Modifier2 = d.modifier(set, 2, d.field(FieldModifier2), d.digit(modifier2FlagOffset))

	if frame := d.digit(frameShapeOffset); frame != '0' {
		if sym.FrameShapeOverride = s.FrameShape(string(frame)); sym.FrameShapeOverride == nil {
			d.miss(FieldFrameShape, string(frame), "unknown frame shape")
		}
	}
	return sym
}

// entity walks the fallback chain: the exact code, then the type with the
// subtype zeroed, then the category alone.
func (d *decoder) entity(set *schema.SymbolSet, code string) *schema.Entity {
	chain := []string{
		code,
		code[:4] + idcode.Zero(2),
		code[:2] + idcode.Zero(4),
	}
	for i, candidate := range chain {
		if i > 0 && candidate == chain[i-1] {
			continue
		}
		if e := set.Entity(candidate); e != nil {
			if i > 0 {
				d.logger.Debug("entity fallback", zap.String("entity", code), zap.String("resolved", candidate))
			}
			return e
		}
	}
	d.miss(FieldEntity, code, "not found in symbol set "+set.ID())
	return nil
}

// modifier looks up a modifier in the set's dictionary, or in the common
// sets when the flag digit is non-zero.
func (d *decoder) modifier(set *schema.SymbolSet, slot int, code string, flag byte) *schema.Modifier {
	field := FieldModifier1
	if slot == 2 {
		field = FieldModifier2
	}
	if flag != '0' {
		if m := d.schema.CommonModifier(slot, flag, code); m != nil {
			return m
		}
		d.miss(field, string(flag)+code, "unknown common modifier")
		return nil
	}
	if set == nil {
		d.miss(field, code, "no symbol set")
		return nil
	}
	m := set.Modifier(slot, code)
	if m == nil {
		d.miss(field, code, "not found in symbol set "+set.ID())
	}
	return m
}
