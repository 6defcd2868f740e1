// Package match implements the matching primitive shared by every resolution
// phase: word-sequence containment, exact narrowing, partial-ratio scoring
// and a total tie-break order over weight, name length and key.
package match

import (
	"cmp"
	"slices"
	"strings"

	symerrors "github.com/jacoelho/milsym/errors"
)

// Span is a half-open range of word positions in a working string.
type Span struct {
	Start int
	End   int
}

// Len returns the number of words covered.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool { return s.Start <= o.Start && o.End <= s.End }

// Options tunes a single Match call.
type Options struct {
	// Reserved spans hide any occurrence that lies inside a longer reserved span.
	Reserved       []Span
	PreferShortest bool
}

// Result is the outcome of a Match call. Candidate is nil when nothing matched,
// in which case Remainder is the normalized input unchanged.
type Result struct {
	Candidate Candidate
	Name      string
	Remainder string
	// TiedWith names the runner-up when the winner was decided by MatchKey
	// alone, after weight, length and score all tied.
	TiedWith   string
	Span       Span
	Score      int
	Contenders int
}

// Matched reports whether a candidate was selected.
func (r Result) Matched() bool { return r.Candidate != nil }

type hit struct {
	cand   Candidate
	name   string
	span   Span
	length int
	score  int
	weight float64
}

// Match selects the best candidate whose name occurs in input and excises the
// matched words from it. Candidates must be comparable (pointer) values.
func Match(input string, candidates []Candidate, opts Options) (Result, error) {
	t := newText(input)
	hits := collect(t, candidates, opts.Reserved)
	if len(hits) == 0 {
		return Result{Remainder: t.raw}, nil
	}

	contenders := distinct(hits)
	if contenders > 1 {
		hits = narrowExact(hits, len(t.tokens))
		hits = narrowScore(hits, t.raw)
	}

	winner, tied, err := pick(hits, opts.PreferShortest)
	if err != nil {
		return Result{}, err
	}
	start := t.tokens[winner.span.Start].start
	end := t.tokens[winner.span.End-1].end
	return Result{
		Candidate:  winner.cand,
		Name:       winner.name,
		TiedWith:   tied,
		Span:       winner.span,
		Score:      winner.score,
		Contenders: contenders,
		Remainder:  Excise(t.raw, start, end),
	}, nil
}

// Spans returns every containment span any candidate name produces in input.
func Spans(input string, candidates []Candidate) []Span {
	t := newText(input)
	hits := collect(t, candidates, nil)
	out := make([]Span, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.span)
	}
	return out
}

func collect(t text, candidates []Candidate, reserved []Span) []hit {
	var hits []hit
	for _, c := range candidates {
		if c == nil {
			continue
		}
		seen := make(map[string]struct{})
		for _, name := range c.MatchNames() {
			words := Words(name)
			if len(words) == 0 {
				continue
			}
			key := strings.Join(words, " ")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			span, ok := find(t.tokens, words, reserved)
			if !ok {
				continue
			}
			hits = append(hits, hit{
				cand:   c,
				name:   name,
				span:   span,
				length: len([]rune(key)),
				weight: c.MatchWeight(),
			})
		}
	}
	return hits
}

// find returns the first occurrence of words in tokens that no longer
// reserved span covers.
func find(tokens []token, words []string, reserved []Span) (Span, bool) {
	n := len(words)
	for i := 0; i+n <= len(tokens); i++ {
		matched := true
		for j := range n {
			if tokens[i+j].text != words[j] {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		span := Span{Start: i, End: i + n}
		if shadowed(span, reserved) {
			continue
		}
		return span, true
	}
	return Span{}, false
}

func shadowed(span Span, reserved []Span) bool {
	for _, r := range reserved {
		if r.Len() > span.Len() && r.Contains(span) {
			return true
		}
	}
	return false
}

func distinct(hits []hit) int {
	seen := make(map[Candidate]struct{}, len(hits))
	for _, h := range hits {
		seen[h.cand] = struct{}{}
	}
	return len(seen)
}

func narrowExact(hits []hit, tokens int) []hit {
	exact := slices.DeleteFunc(slices.Clone(hits), func(h hit) bool {
		return h.span.Start != 0 || h.span.End != tokens
	})
	if len(exact) == 0 {
		return hits
	}
	return exact
}

func narrowScore(hits []hit, surface string) []hit {
	best := -1
	for i := range hits {
		hits[i].score = PartialRatio(Normalize(hits[i].name), surface)
		best = max(best, hits[i].score)
	}
	return slices.DeleteFunc(hits, func(h hit) bool { return h.score != best })
}

func rank(a, b hit, shortest bool) int {
	if c := cmp.Compare(b.weight, a.weight); c != 0 {
		return c
	}
	if shortest {
		return cmp.Compare(a.length, b.length)
	}
	return cmp.Compare(b.length, a.length)
}

// pick orders hits by rank, then MatchKey, then name. It also returns the
// name of the best distinct candidate that only lost on MatchKey.
func pick(hits []hit, shortest bool) (hit, string, error) {
	slices.SortStableFunc(hits, func(a, b hit) int {
		if c := rank(a, b, shortest); c != 0 {
			return c
		}
		if c := cmp.Compare(a.cand.MatchKey(), b.cand.MatchKey()); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	top := hits[0]
	var tied string
	for _, h := range hits[1:] {
		if rank(top, h, shortest) != 0 {
			break
		}
		if h.cand == top.cand {
			continue
		}
		if h.cand.MatchKey() == top.cand.MatchKey() {
			return hit{}, "", &symerrors.MatchError{
				Code:       symerrors.ErrAmbiguousMatch,
				Message:    "distinct candidates share match key " + top.cand.MatchKey(),
				Candidates: []string{top.name, h.name},
			}
		}
		if tied == "" {
			tied = h.name
		}
	}
	return top, tied, nil
}
