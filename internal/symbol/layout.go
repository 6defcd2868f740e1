package symbol

import (
	"math/bits"
	"strings"
)

// Field identifies one taxonomy field of a structured code. Fields combine
// into a bitmask, which templates use to record the fields they pin.
type Field uint16

const (
	// FieldContext is the reality axis digit.
	FieldContext Field = 1 << iota
	// FieldAffiliation is the allegiance digit.
	FieldAffiliation
	// FieldSymbolSet is the two-digit symbol set.
	FieldSymbolSet
	// FieldStatus is the status digit.
	FieldStatus
	// FieldHQTFD is the headquarters, task force and dummy digit.
	FieldHQTFD
	// FieldAmplifier is the two-digit amplifier.
	FieldAmplifier
	// FieldEntity is the six-digit entity.
	FieldEntity
	// FieldModifier1 is the sector 1 modifier and its common flag.
	FieldModifier1
	// FieldModifier2 is the sector 2 modifier and its common flag.
	FieldModifier2
	// FieldFrameShape is the frame shape override digit.
	FieldFrameShape
)

// FieldNone is the empty field set.
const FieldNone Field = 0

// FieldAll contains every field.
const FieldAll = FieldContext | FieldAffiliation | FieldSymbolSet | FieldStatus | FieldHQTFD |
	FieldAmplifier | FieldEntity | FieldModifier1 | FieldModifier2 | FieldFrameShape

const (
	// VersionWidth is the width of the leading version field.
	VersionWidth = 2
	// MinCodeLength is the shortest code Decode accepts.
	MinCodeLength = 20
	// CodeLength is the width Code pads its output to.
	CodeLength = 30

	modifier1FlagOffset = 20
	modifier2FlagOffset = 21
	frameShapeOffset    = 22
)

// Segment is the position of a field inside a structured code.
type Segment struct {
	Name  string
	Field Field
	Start int
	Width int
}

// End returns the offset just past the segment.
func (s Segment) End() int { return s.Start + s.Width }

var segments = [...]Segment{
	{Field: FieldContext, Name: "context", Start: 2, Width: 1},
	{Field: FieldAffiliation, Name: "affiliation", Start: 3, Width: 1},
	{Field: FieldSymbolSet, Name: "symbol set", Start: 4, Width: 2},
	{Field: FieldStatus, Name: "status", Start: 6, Width: 1},
	{Field: FieldHQTFD, Name: "hqtfd", Start: 7, Width: 1},
	{Field: FieldAmplifier, Name: "amplifier", Start: 8, Width: 2},
	{Field: FieldEntity, Name: "entity", Start: 10, Width: 6},
	{Field: FieldModifier1, Name: "modifier 1", Start: 16, Width: 2},
	{Field: FieldModifier2, Name: "modifier 2", Start: 18, Width: 2},
	{Field: FieldFrameShape, Name: "frame shape", Start: frameShapeOffset, Width: 1},
}

// Segments returns the layout of every field in code order.
func Segments() []Segment {
	return append([]Segment(nil), segments[:]...)
}

// SegmentOf returns the layout of a single field.
func SegmentOf(f Field) (Segment, bool) {
	if bits.OnesCount16(uint16(f)) != 1 {
		return Segment{}, false
	}
	return segments[bits.TrailingZeros16(uint16(f))], true
}

// FieldByName returns the field whose segment has the given name.
func FieldByName(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range segments {
		if s.Name == name {
			return s.Field, true
		}
	}
	return FieldNone, false
}

// Has reports whether every field of g is in f.
func (f Field) Has(g Field) bool { return f&g == g }

// Fields splits f into single fields in code order.
func (f Field) Fields() []Field {
	var out []Field
	for _, s := range segments {
		if f.Has(s.Field) {
			out = append(out, s.Field)
		}
	}
	return out
}

func (f Field) String() string {
	if f == FieldNone {
		return "none"
	}
	var names []string
	for _, s := range segments {
		if f.Has(s.Field) {
			names = append(names, s.Name)
		}
	}
	return strings.Join(names, "|")
}
