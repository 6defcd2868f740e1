// Package resolve turns free text into a Symbol by running an ordered series
// of matching phases over a shrinking working string.
package resolve

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/jacoelho/milsym/internal/idcode"
	"github.com/jacoelho/milsym/internal/match"
	"github.com/jacoelho/milsym/internal/schema"
	"github.com/jacoelho/milsym/internal/symbol"
	"github.com/jacoelho/milsym/internal/template"
	"github.com/jacoelho/milsym/internal/xiter"
)

const (
	// DefaultSymbolSet is the set used when no entity matches.
	DefaultSymbolSet = "10"
	// DefaultEntity is the entity used when no entity matches.
	DefaultEntity = "000000"
)

// Options tunes one resolution.
type Options struct {
	// Logger receives phase outcomes at debug level and fallbacks at warn level.
	Logger *zap.Logger
	// OnPhase is called after every phase that runs.
	OnPhase func(PhaseResult)
	// SymbolSets restricts entities to these set ids, in addition to any tags.
	SymbolSets []string
	// DefaultSymbolSet and DefaultEntity name the fallback entity.
	DefaultSymbolSet string
	DefaultEntity    string
	// PreferShortest makes shorter names win the length tie-break.
	PreferShortest bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.DefaultSymbolSet == "" {
		o.DefaultSymbolSet = DefaultSymbolSet
	}
	if o.DefaultEntity == "" {
		o.DefaultEntity = DefaultEntity
	}
	return o
}

// Result is a resolved symbol with the trace of the phases that produced it.
type Result struct {
	Symbol    *symbol.Symbol
	Remainder string
	Trace     []PhaseResult
}

// Resolver holds the candidate lists of one schema and template set.
// It is immutable and safe for concurrent use.
type Resolver struct {
	schema       *schema.Schema
	templates    []*template.Template
	sets         []*schema.SymbolSet
	affiliations []*schema.Affiliation
	amplifiers   []*schema.Amplifier
	hqtfds       []*schema.HQTFD
	statuses     []*schema.Status
	entities     []*schema.Entity
}

// New builds a resolver over s and the given templates.
func New(s *schema.Schema, templates []*template.Template) (*Resolver, error) {
	if s == nil {
		return nil, fmt.Errorf("resolve: nil schema")
	}
	r := &Resolver{
		schema:       s,
		templates:    slices.Clone(templates),
		sets:         s.SymbolSets(),
		affiliations: s.Affiliations(),
		amplifiers:   s.Amplifiers(),
		hqtfds:       s.HQTFDs(),
		statuses:     s.Statuses(),
	}
	for _, e := range s.FlatEntities() {
		if e.Matchable() {
			r.entities = append(r.entities, e)
		}
	}
	return r, nil
}

// Resolve resolves text into a symbol. Phases that find nothing apply their
// default, so the only errors are unknown option values and a broken
// candidate ordering.
func (r *Resolver) Resolve(text string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	st := &state{
		r:      r,
		opts:   opts,
		logger: opts.Logger,
		text:   match.Normalize(text),
		sym: &symbol.Symbol{
			Version: r.schema.Version(),
			Context: r.schema.DefaultContext(),
		},
	}
	if r.schema.SymbolSet(opts.DefaultSymbolSet) == nil {
		return nil, fmt.Errorf("resolve: unknown default symbol set %q", opts.DefaultSymbolSet)
	}
	for _, id := range opts.SymbolSets {
		set := r.schema.SymbolSet(id)
		if set == nil {
			return nil, fmt.Errorf("resolve: unknown symbol set %q", id)
		}
		st.allow(set)
	}

	phases := []func() error{
		st.tags,
		st.template,
		st.affiliation,
		st.prerunAmplifier,
		st.entity,
		st.amplifier,
		st.hqtfd,
		st.status,
		func() error { return st.modifier(1) },
		func() error { return st.modifier(2) },
	}
	for _, phase := range phases {
		if err := phase(); err != nil {
			return nil, err
		}
	}
	return &Result{Symbol: st.sym, Remainder: st.text, Trace: st.trace}, nil
}

// state is the working data of one Resolve call.
type state struct {
	r       *Resolver
	logger  *zap.Logger
	sym     *symbol.Symbol
	allowed map[*schema.SymbolSet]struct{}
	prerun  *schema.Amplifier
	source  string
	text    string
	trace   []PhaseResult
	opts    Options
	fixed   symbol.Field
}

func (st *state) allow(set *schema.SymbolSet) {
	if st.allowed == nil {
		st.allowed = make(map[*schema.SymbolSet]struct{})
	}
	st.allowed[set] = struct{}{}
}

func (st *state) allowedSet(set *schema.SymbolSet) bool {
	if st.allowed == nil {
		return true
	}
	_, ok := st.allowed[set]
	return ok
}

func (st *state) record(pr PhaseResult) {
	st.trace = append(st.trace, pr)
	if pr.Matched != nil {
		st.logger.Debug("phase matched",
			zap.Stringer("phase", pr.Phase),
			zap.String("key", pr.Matched.MatchKey()),
			zap.String("name", pr.Name),
			zap.String("remainder", pr.Remainder),
		)
		if pr.TiedWith != "" {
			st.logger.Debug("match key tie-break",
				zap.Stringer("phase", pr.Phase),
				zap.String("selected", pr.Name),
				zap.String("runner up", pr.TiedWith),
			)
		}
	} else {
		st.logger.Debug("phase unmatched", zap.Stringer("phase", pr.Phase), zap.Bool("defaulted", pr.Defaulted))
	}
	if st.opts.OnPhase != nil {
		st.opts.OnPhase(pr)
	}
}

// run matches the working text against candidates and consumes the match.
func (st *state) run(phase Phase, candidates []match.Candidate, reserved []match.Span) (PhaseResult, error) {
	res, err := match.Match(st.text, candidates, match.Options{
		Reserved:       reserved,
		PreferShortest: st.opts.PreferShortest,
	})
	if err != nil {
		return PhaseResult{}, fmt.Errorf("resolve %s: %w", phase, err)
	}
	pr := PhaseResult{
		Phase:      phase,
		Input:      st.text,
		Remainder:  res.Remainder,
		Candidates: len(candidates),
	}
	if res.Matched() {
		pr.Matched = res.Candidate
		pr.Name = res.Name
		pr.Score = res.Score
		pr.TiedWith = res.TiedWith
		st.text = res.Remainder
	}
	return pr, nil
}

func (st *state) tags() error {
	stripped, tags := extractTags(st.text)
	st.text = stripped
	if len(tags) == 0 {
		return nil
	}
	candidates := candidatesOf(st.r.sets, func(set *schema.SymbolSet) bool { return set.Matchable() })
	for _, tag := range tags {
		res, err := match.Match(tag, candidates, match.Options{PreferShortest: st.opts.PreferShortest})
		if err != nil {
			return fmt.Errorf("resolve %s: %w", PhaseTags, err)
		}
		pr := PhaseResult{Phase: PhaseTags, Input: tag, Remainder: stripped, Candidates: len(candidates)}
		if res.Matched() {
			pr.Matched, pr.Name, pr.TiedWith = res.Candidate, res.Name, res.TiedWith
			st.allow(res.Candidate.(*schema.SymbolSet))
		} else {
			st.logger.Warn("symbol set tag matched nothing", zap.String("tag", tag))
		}
		st.record(pr)
	}
	return nil
}

func (st *state) template() error {
	st.source = st.text
	candidates := candidatesOf(st.r.templates, func(t *template.Template) bool {
		if !t.IsFixed(symbol.FieldSymbolSet) {
			return true
		}
		set := t.Symbol().SymbolSet
		return set == nil || st.allowedSet(set)
	})
	if len(candidates) == 0 {
		return nil
	}
	pr, err := st.run(PhaseTemplate, candidates, nil)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		t := pr.Matched.(*template.Template)
		t.Apply(st.sym)
		st.fixed = t.Fixed()
	}
	st.record(pr)
	return nil
}

func (st *state) affiliation() error {
	if st.fixed.Has(symbol.FieldAffiliation) {
		return nil
	}
	// Entity names that cover an affiliation name keep their words.
	reserved := match.Spans(st.text, candidatesOf(st.r.entities, st.entityAllowed))
	pr, err := st.run(PhaseAffiliation, candidatesOf(st.r.affiliations, nil), reserved)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		st.sym.Affiliation = pr.Matched.(*schema.Affiliation)
	} else {
		st.sym.Affiliation = st.r.schema.UnknownAffiliation()
		pr.Defaulted = true
	}
	st.record(pr)
	return nil
}

func (st *state) prerunAmplifier() error {
	if st.fixed.Has(symbol.FieldAmplifier) {
		return nil
	}
	candidates := candidatesOf(st.r.amplifiers, func(a *schema.Amplifier) bool {
		if !a.Prerun() {
			return false
		}
		if st.fixed.Has(symbol.FieldSymbolSet) && st.sym.SymbolSet != nil {
			return a.AppliesToSymbolSet(st.sym.SymbolSet)
		}
		if st.allowed == nil {
			return true
		}
		for set := range st.allowed {
			if a.AppliesToSymbolSet(set) {
				return true
			}
		}
		return false
	})
	if len(candidates) == 0 {
		return nil
	}
	pr, err := st.run(PhasePrerunAmplifier, candidates, nil)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		st.prerun = pr.Matched.(*schema.Amplifier)
	}
	st.record(pr)
	return nil
}

// entityAllowed filters entities by the allow-list and a template-pinned set.
func (st *state) entityAllowed(e *schema.Entity) bool {
	if st.fixed.Has(symbol.FieldSymbolSet) && st.sym.SymbolSet != nil && e.Set() != st.sym.SymbolSet {
		return false
	}
	return st.allowedSet(e.Set())
}

func (st *state) entity() error {
	if st.fixed.Has(symbol.FieldEntity) {
		return nil
	}
	candidates := candidatesOf(st.r.entities, func(e *schema.Entity) bool {
		return st.entityAllowed(e) && (st.prerun == nil || st.prerun.AppliesToEntity(e))
	})
	pr, err := st.run(PhaseEntity, candidates, nil)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		e := pr.Matched.(*schema.Entity)
		st.sym.Entity = e
		st.sym.SymbolSet = e.Set()
	} else {
		set := st.sym.SymbolSet
		if set == nil || !st.fixed.Has(symbol.FieldSymbolSet) {
			set = st.r.schema.SymbolSet(st.opts.DefaultSymbolSet)
		}
		st.sym.SymbolSet = set
		st.sym.Entity = nil
		st.sym.Entity = set.Entity(idcode.Pad(st.opts.DefaultEntity, schema.EntityCodeLength))
		pr.Defaulted = true
		st.logger.Warn("no entity matched, using default",
			zap.String("text", st.source),
			zap.String("symbol_set", set.ID()),
			zap.String("entity", st.opts.DefaultEntity),
		)
	}
	st.record(pr)
	return nil
}

func (st *state) amplifier() error {
	if st.fixed.Has(symbol.FieldAmplifier) {
		return nil
	}
	set := st.sym.SymbolSet
	if st.prerun != nil {
		pr := PhaseResult{Phase: PhaseAmplifier, Input: st.text, Remainder: st.text, Candidates: 1}
		switch {
		case st.prerun.AppliesToSymbolSet(set):
			st.sym.Amplifier = st.prerun
			pr.Matched, pr.Name = st.prerun, st.prerun.Name()
		default:
			st.sym.Amplifier = nil
			pr.Dropped = true
			fields := []zap.Field{zap.String("amplifier", st.prerun.ID())}
			if set != nil {
				fields = append(fields, zap.String("symbol_set", set.ID()))
			}
			st.logger.Debug("prerun amplifier dropped", fields...)
		}
		st.record(pr)
		return nil
	}
	candidates := candidatesOf(st.r.amplifiers, func(a *schema.Amplifier) bool { return a.AppliesToSymbolSet(set) })
	pr, err := st.run(PhaseAmplifier, candidates, nil)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		st.sym.Amplifier = pr.Matched.(*schema.Amplifier)
	}
	st.record(pr)
	return nil
}

func (st *state) hqtfd() error {
	if st.fixed.Has(symbol.FieldHQTFD) {
		return nil
	}
	set := st.sym.SymbolSet
	candidates := candidatesOf(st.r.hqtfds, func(h *schema.HQTFD) bool {
		return h.AppliesToSymbolSet(set) && !h.Blacklisted(st.source)
	})
	pr, err := st.run(PhaseHQTFD, candidates, nil)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		st.sym.HQTFD = pr.Matched.(*schema.HQTFD)
	}
	st.record(pr)
	return nil
}

func (st *state) status() error {
	if st.fixed.Has(symbol.FieldStatus) {
		return nil
	}
	pr, err := st.run(PhaseStatus, candidatesOf(st.r.statuses, nil), nil)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		st.sym.Status = pr.Matched.(*schema.Status)
	}
	st.record(pr)
	return nil
}

func (st *state) modifier(slot int) error {
	field, phase := symbol.FieldModifier1, PhaseModifier1
	if slot == 2 {
		field, phase = symbol.FieldModifier2, PhaseModifier2
	}
	if st.fixed.Has(field) {
		return nil
	}
	var mods []*schema.Modifier
	if set := st.sym.SymbolSet; set != nil {
		mods = append(mods, set.Modifiers(slot)...)
	}
	for _, common := range st.r.schema.CommonSymbolSets() {
		if common != st.sym.SymbolSet {
			mods = append(mods, common.Modifiers(slot)...)
		}
	}
	pr, err := st.run(phase, candidatesOf(mods, nil), nil)
	if err != nil {
		return err
	}
	if pr.Matched != nil {
		m := pr.Matched.(*schema.Modifier)
		if slot == 1 {
			st.sym.Modifier1 = m
		} else {
			st.sym.Modifier2 = m
		}
	}
	st.record(pr)
	return nil
}

// candidatesOf converts a typed list to match candidates, keeping the items
// keep accepts. A nil keep accepts everything.
func candidatesOf[T match.Candidate](items []T, keep func(T) bool) []match.Candidate {
	if keep == nil {
		keep = func(T) bool { return true }
	}
	out := make([]match.Candidate, 0, len(items))
	for item := range xiter.Filter(items, keep) {
		out = append(out, item)
	}
	return out
}

// extractTags removes every [bracketed] segment from text and returns the
// stripped text with the non-empty tag contents in order.
func extractTags(text string) (string, []string) {
	var (
		b    strings.Builder
		tags []string
	)
	rest := text
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], ']')
		if end < 0 {
			break
		}
		b.WriteString(rest[:open])
		b.WriteByte(' ')
		if tag := strings.TrimSpace(rest[open+1 : open+end]); tag != "" {
			tags = append(tags, tag)
		}
		rest = rest[open+end+1:]
	}
	b.WriteString(rest)
	return strings.Join(strings.Fields(b.String()), " "), tags
}
