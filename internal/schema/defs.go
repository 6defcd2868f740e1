package schema

// ItemDef is the declared form shared by every taxonomy value.
type ItemDef struct {
	Weight    *float64
	MatchName *bool
	ID        string
	Names     []string
}

// ContextDef declares a context.
type ContextDef struct {
	ItemDef
	BaseContext string
}

// AffiliationDef declares an affiliation. FrameBase and ColorBase name the
// affiliation whose frames or colors are borrowed.
type AffiliationDef struct {
	ItemDef
	Colors          map[string]string
	CivilianVariant *bool
	FrameBase       string
	ColorBase       string
	Dashed          bool
}

// FrameShapeDef declares a frame shape. Frame and decorator keys are
// affiliation ids or the names unknown, friend, neutral and hostile.
type FrameShapeDef struct {
	ItemDef
	Frames     map[string][]any
	Decorators map[string][]any
	Offsets    map[string]AmplifierOffset
	Base       string
}

// DimensionDef declares a dimension bound to a frame shape.
type DimensionDef struct {
	ItemDef
	FrameShape string
}

// StatusDef declares a status.
type StatusDef struct {
	ItemDef
	Icon        []any
	AltIcon     []any
	IconSide    string
	AltIconSide string
	Dashed      bool
	Variant     bool
}

// HQTFDDef declares a headquarters, task force and dummy indicator.
// A nil AppliesTo means every non-common symbol set.
type HQTFDDef struct {
	ItemDef
	Facets    []string
	Blacklist []string
	AppliesTo []string
	Dashed    bool
}

// AmplifierDef declares an amplifier. AppliesToAll means every dimension;
// otherwise the amplifier is limited to AppliesTo, and an amplifier without
// AppliesTo fits only common symbol sets.
type AmplifierDef struct {
	ItemDef
	Category     string
	AppliesTo    []string
	Icon         []any
	IconSide     string
	AppliesToAll bool
	Prerun       bool
}

// DefaultsDef names the context and affiliation used when a code or text
// gives none. Empty values select context "0" and the affiliation named unknown.
type DefaultsDef struct {
	Context     string
	Affiliation string
}

// ConstantsDef is the content of the constants document.
type ConstantsDef struct {
	Defaults          DefaultsDef
	Version           string
	Contexts          []ContextDef
	ColorModes        []string
	Affiliations      []AffiliationDef
	FullFrameOrdering []string
	FrameShapes       []FrameShapeDef
	Dimensions        []DimensionDef
	Statuses          []StatusDef
	HQTFDs            []HQTFDDef
	Amplifiers        []AmplifierDef
}

// InheritDef switches off propagation of an attribute to children.
// A nil field propagates.
type InheritDef struct {
	Civilian *bool
	Unfilled *bool
	Variants *bool
	ModCats  *bool
}

// EntityDef declares one node of an entity tree. Key is the node's two
// digits at its level. A nil ModCats inherits; a non-nil one replaces.
type EntityDef struct {
	Weight            *float64
	MatchName         *bool
	Civilian          *bool
	Unfilled          *bool
	Variants          *int
	Inherit           InheritDef
	Key               string
	Names             []string
	ModCats           []string
	ModCatsAdditional []string
	Icon              []any
	AltIcon           []any
	Children          []EntityDef
}

// ModifierDef declares a modifier. Ids are two hex digits, or three in a
// common set where the first digit is the common flag.
type ModifierDef struct {
	ItemDef
	Civilian *bool
	Category string
	Icon     []any
}

// SymbolSetDef is the content of one symbol-set document.
type SymbolSetDef struct {
	ItemDef
	Dimension string
	Entities  []EntityDef
	M1        []ModifierDef
	M2        []ModifierDef
	Common    bool
}
