package resolve

import "github.com/jacoelho/milsym/internal/match"

// Phase identifies one step of resolution. Phases run in declaration order.
type Phase uint8

const (
	// PhaseTags extracts [symbol set] restriction tags.
	PhaseTags Phase = iota + 1
	// PhaseTemplate matches registered templates.
	PhaseTemplate
	// PhaseAffiliation matches affiliations.
	PhaseAffiliation
	// PhasePrerunAmplifier matches amplifiers that constrain entities.
	PhasePrerunAmplifier
	// PhaseEntity matches entities across the allowed symbol sets.
	PhaseEntity
	// PhaseAmplifier confirms a pre-run amplifier or matches one for the resolved set.
	PhaseAmplifier
	// PhaseHQTFD matches headquarters, task force and dummy indicators.
	PhaseHQTFD
	// PhaseStatus matches statuses.
	PhaseStatus
	// PhaseModifier1 matches sector 1 modifiers.
	PhaseModifier1
	// PhaseModifier2 matches sector 2 modifiers.
	PhaseModifier2
)

var phaseNames = [...]string{
	PhaseTags:            "tags",
	PhaseTemplate:        "template",
	PhaseAffiliation:     "affiliation",
	PhasePrerunAmplifier: "prerun amplifier",
	PhaseEntity:          "entity",
	PhaseAmplifier:       "amplifier",
	PhaseHQTFD:           "hqtfd",
	PhaseStatus:          "status",
	PhaseModifier1:       "modifier 1",
	PhaseModifier2:       "modifier 2",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) && phaseNames[p] != "" {
		return phaseNames[p]
	}
	return "unknown"
}

// PhaseResult records what one phase saw and decided.
type PhaseResult struct {
	// Matched is the selected candidate, or nil when nothing matched.
	Matched match.Candidate
	// Input is the working text the phase started from.
	Input string
	// Remainder is the working text handed to the next phase.
	Remainder string
	// Name is the candidate name found in the text.
	Name string
	// Phase is the phase that ran.
	Phase Phase
	// Candidates is the number of candidates the phase considered.
	Candidates int
	// TiedWith names the runner-up when only MatchKey ordering separated it
	// from the selected candidate.
	TiedWith string
	// Score is the partial-ratio score, set when several candidates competed.
	Score int
	// Defaulted reports that the phase applied its default instead of a match.
	Defaulted bool
	// Dropped reports that a pre-run amplifier did not apply to the resolved set.
	Dropped bool
}
