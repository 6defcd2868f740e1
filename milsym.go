// Package milsym loads a military symbol taxonomy and converts between
// structured symbol codes, symbol values and free-text descriptions.
//
// A Schema is loaded once from a directory of YAML documents and is then
// immutable and safe for concurrent use.
package milsym

import (
	"github.com/jacoelho/milsym/internal/resolve"
	"github.com/jacoelho/milsym/internal/schema"
	"github.com/jacoelho/milsym/internal/symbol"
	"github.com/jacoelho/milsym/internal/template"
)

type (
	// Symbol is a fully or partially specified symbol.
	Symbol = symbol.Symbol
	// Field is a bitmask of symbol code fields.
	Field = symbol.Field
	// Taxonomy is the loaded object model behind a Schema.
	Taxonomy = schema.Schema
	// Context is the reality, exercise or simulation axis.
	Context = schema.Context
	// Affiliation is the allegiance axis.
	Affiliation = schema.Affiliation
	// Status is the operational condition axis.
	Status = schema.Status
	// HQTFD is the headquarters, task force and dummy indicator.
	HQTFD = schema.HQTFD
	// Amplifier is a qualifying marker such as an echelon.
	Amplifier = schema.Amplifier
	// SymbolSet is a catalog of entities and modifiers.
	SymbolSet = schema.SymbolSet
	// Entity is a category, type or subtype of a symbol set.
	Entity = schema.Entity
	// Modifier is a sector 1 or sector 2 qualifier.
	Modifier = schema.Modifier
	// FrameShape is a frame geometry set.
	FrameShape = schema.FrameShape
	// Dimension is the physical domain axis.
	Dimension = schema.Dimension
	// Template is a named partial symbol.
	Template = template.Template
	// Phase identifies one resolution step.
	Phase = resolve.Phase
	// PhaseResult records what one resolution step decided.
	PhaseResult = resolve.PhaseResult
	// Resolution is a resolved symbol with its phase trace.
	Resolution = resolve.Result
)

// Code fields.
const (
	FieldContext     = symbol.FieldContext
	FieldAffiliation = symbol.FieldAffiliation
	FieldSymbolSet   = symbol.FieldSymbolSet
	FieldStatus      = symbol.FieldStatus
	FieldHQTFD       = symbol.FieldHQTFD
	FieldAmplifier   = symbol.FieldAmplifier
	FieldEntity      = symbol.FieldEntity
	FieldModifier1   = symbol.FieldModifier1
	FieldModifier2   = symbol.FieldModifier2
	FieldFrameShape  = symbol.FieldFrameShape
)

// Resolution phases in the order they run.
const (
	PhaseTags            = resolve.PhaseTags
	PhaseTemplate        = resolve.PhaseTemplate
	PhaseAffiliation     = resolve.PhaseAffiliation
	PhasePrerunAmplifier = resolve.PhasePrerunAmplifier
	PhaseEntity          = resolve.PhaseEntity
	PhaseAmplifier       = resolve.PhaseAmplifier
	PhaseHQTFD           = resolve.PhaseHQTFD
	PhaseStatus          = resolve.PhaseStatus
	PhaseModifier1       = resolve.PhaseModifier1
	PhaseModifier2       = resolve.PhaseModifier2
)

// CodeLength is the width of an encoded structured code.
const CodeLength = symbol.CodeLength
