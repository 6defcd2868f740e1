package match

// Kind names the closed set of candidate variants the resolver matches.
type Kind uint8

const (
	KindTemplate Kind = iota + 1
	KindSymbolSet
	KindAffiliation
	KindAmplifier
	KindEntity
	KindHQTFD
	KindStatus
	KindModifier
)

// String returns the kind name used in traces and logs.
func (k Kind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindSymbolSet:
		return "symbol set"
	case KindAffiliation:
		return "affiliation"
	case KindAmplifier:
		return "amplifier"
	case KindEntity:
		return "entity"
	case KindHQTFD:
		return "hqtfd"
	case KindStatus:
		return "status"
	case KindModifier:
		return "modifier"
	default:
		return "unknown"
	}
}

// Candidate is anything the matching primitive can select.
// MatchNames returns display names in preference order; an empty list
// excludes the candidate from matching. MatchKey must be unique among
// candidates of one match call.
type Candidate interface {
	MatchNames() []string
	MatchWeight() float64
	MatchKey() string
	MatchKind() Kind
}
