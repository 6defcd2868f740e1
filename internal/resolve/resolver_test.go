package resolve

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jacoelho/milsym/internal/fixture"
	"github.com/jacoelho/milsym/internal/loader"
	"github.com/jacoelho/milsym/internal/schema"
	"github.com/jacoelho/milsym/internal/symbol"
	"github.com/jacoelho/milsym/internal/template"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixtureResolver(t *testing.T) (*Resolver, *schema.Schema) {
	t.Helper()
	s, err := loader.Load(loader.Config{FS: fixture.Schema()})
	require.NoError(t, err)
	templates, err := template.Load(template.Config{FS: fixture.Templates(), Schema: s})
	require.NoError(t, err)
	r, err := New(s, templates)
	require.NoError(t, err)
	return r, s
}

func TestResolve(t *testing.T) {
	r, _ := fixtureResolver(t)

	tests := []struct {
		name      string
		input     string
		opts      Options
		code      string
		remainder string
	}{
		{
			name:  "affiliation and subtype",
			input: "friendly infantry platoon",
			code:  "130310000012110300000000000000",
		},
		{
			name:  "entity name shields affiliation name",
			input: "hostile neutral zone monitoring",
			code:  "130610000014010000000000000000",
		},
		{
			name:  "symbol set tag",
			input: "military base [land installation]",
			code:  "130120000011000000000000000000",
		},
		{
			name:  "set weight breaks ties",
			input: "military base",
			code:  "130110000017000000000000000000",
		},
		{
			name:  "set weight picks land artillery",
			input: "artillery",
			code:  "130110000013030000000000000000",
		},
		{
			name:  "prerun amplifier restricts entities",
			input: "naval artillery",
			code:  "130130006114000000000000000000",
		},
		{
			name:      "prerun amplifier without entity is dropped",
			input:     "naval infantry",
			code:      "130110000000000000000000000000",
			remainder: "infantry",
		},
		{
			name:      "blacklisted hqtfd",
			input:     "crash test dummy infantry",
			code:      "130110000012110000000000000000",
			remainder: "crash test dummy",
		},
		{
			name:  "dummy",
			input: "dummy infantry",
			code:  "130110010012110000000000000000",
		},
		{
			name:  "echelon amplifier",
			input: "friendly infantry company",
			code:  "130310001512110000000000000000",
		},
		{
			name:  "set and common modifiers",
			input: "hostile infantry airborne reinforced",
			code:  "130610000012110001011000000000",
		},
		{
			name:  "longest affiliation name",
			input: "assumed friend infantry",
			code:  "130210000012110000000000000000",
		},
		{
			name:  "air modifiers",
			input: "hostile fixed-wing attack heavy",
			code:  "130601000011010001010000000000",
		},
		{
			name:  "status",
			input: "Planned  Friendly Infantry",
			code:  "130310100012110000000000000000",
		},
		{
			name:  "headquarters",
			input: "friendly infantry hq",
			code:  "130310020012110000000000000000",
		},
		{
			name:      "template with fixed fields",
			input:     "our infantry platoon",
			code:      "130310000012110000000000000000",
			remainder: "platoon",
		},
		{
			name:  "template pins context and entity",
			input: "hostile exercise medical",
			code:  "131610000016340000000000000000",
		},
		{
			name:  "affiliation-only template",
			input: "red force infantry",
			code:  "130610000012110000000000000000",
		},
		{
			name:  "allow-list option",
			input: "artillery",
			opts:  Options{SymbolSets: []string{"30"}},
			code:  "130130000014000000000000000000",
		},
		{
			name:      "nothing matches",
			input:     "zebra",
			code:      "130110000000000000000000000000",
			remainder: "zebra",
		},
		{
			name:  "custom default entity",
			input: "",
			opts:  Options{DefaultSymbolSet: "20", DefaultEntity: "110000"},
			code:  "130120000011000000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.input, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.code, res.Symbol.Code())
			assert.Equal(t, tt.remainder, res.Remainder)
		})
	}
}

func TestResolveTrace(t *testing.T) {
	r, s := fixtureResolver(t)

	var seen []Phase
	res, err := r.Resolve("friendly infantry platoon", Options{
		OnPhase: func(pr PhaseResult) { seen = append(seen, pr.Phase) },
	})
	require.NoError(t, err)

	want := []Phase{
		PhaseTemplate, PhaseAffiliation, PhasePrerunAmplifier, PhaseEntity,
		PhaseAmplifier, PhaseHQTFD, PhaseStatus, PhaseModifier1, PhaseModifier2,
	}
	assert.Equal(t, want, seen)
	require.Len(t, res.Trace, len(want))

	aff := res.Trace[1]
	assert.Equal(t, "friendly infantry platoon", aff.Input)
	assert.Equal(t, "infantry platoon", aff.Remainder)
	assert.Equal(t, "friendly", aff.Name)
	assert.Same(t, s.Affiliation("3"), aff.Matched)

	ent := res.Trace[3]
	assert.Same(t, s.SymbolSet("10").Entity("121103"), ent.Matched)
	assert.Empty(t, ent.Remainder)
}

func TestResolveTemplateSkipsFixedPhases(t *testing.T) {
	r, _ := fixtureResolver(t)

	counts := make(map[Phase]int)
	res, err := r.Resolve("red force infantry", Options{
		OnPhase: func(pr PhaseResult) { counts[pr.Phase]++ },
	})
	require.NoError(t, err)
	assert.Zero(t, counts[PhaseAffiliation])
	assert.Equal(t, 1, counts[PhaseEntity])
	assert.Equal(t, "hostile", res.Symbol.Affiliation.Name())

	counts = make(map[Phase]int)
	_, err = r.Resolve("hostile exercise medical", Options{
		OnPhase: func(pr PhaseResult) { counts[pr.Phase]++ },
	})
	require.NoError(t, err)
	assert.Zero(t, counts[PhaseEntity])
	assert.Equal(t, 1, counts[PhaseAffiliation])
}

func TestResolveDefaults(t *testing.T) {
	r, s := fixtureResolver(t)
	core, logs := observer.New(zapcore.DebugLevel)

	res, err := r.Resolve("naval infantry", Options{Logger: zap.New(core)})
	require.NoError(t, err)

	sym := res.Symbol
	assert.Same(t, s.UnknownAffiliation(), sym.Affiliation)
	assert.Same(t, s.DefaultContext(), sym.Context)
	assert.Same(t, s.SymbolSet("10"), sym.SymbolSet)
	assert.Same(t, s.SymbolSet("10").Entity("000000"), sym.Entity)
	assert.Nil(t, sym.Amplifier)

	var aff, amp PhaseResult
	for _, pr := range res.Trace {
		switch pr.Phase {
		case PhaseAffiliation:
			aff = pr
		case PhaseAmplifier:
			amp = pr
		}
	}
	assert.True(t, aff.Defaulted)
	assert.True(t, amp.Dropped)

	assert.Equal(t, 1, logs.FilterMessage("no entity matched, using default").Len())
	assert.Equal(t, 1, logs.FilterMessage("prerun amplifier dropped").Len())
	warn := logs.FilterMessage("no entity matched, using default").All()[0]
	assert.Equal(t, zapcore.WarnLevel, warn.Level)
	assert.Equal(t, "naval infantry", warn.ContextMap()["text"])
}

func TestResolveUnmatchedTag(t *testing.T) {
	r, _ := fixtureResolver(t)
	core, logs := observer.New(zapcore.WarnLevel)

	res, err := r.Resolve("artillery [space]", Options{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, "130110000013030000000000000000", res.Symbol.Code())
	assert.Equal(t, 1, logs.FilterMessage("symbol set tag matched nothing").Len())
	require.NotEmpty(t, res.Trace)
	assert.Equal(t, PhaseTags, res.Trace[0].Phase)
	assert.Nil(t, res.Trace[0].Matched)
}

func TestResolveHiddenSetTag(t *testing.T) {
	r, _ := fixtureResolver(t)

	res, err := r.Resolve("infantry [common]", Options{})
	require.NoError(t, err)
	assert.Equal(t, "121100", res.Symbol.Entity.Code())
}

func TestResolveOptionErrors(t *testing.T) {
	r, _ := fixtureResolver(t)

	_, err := r.Resolve("infantry", Options{SymbolSets: []string{"99"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown symbol set "99"`)

	_, err = r.Resolve("infantry", Options{DefaultSymbolSet: "99"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown default symbol set "99"`)

	_, err = New(nil, nil)
	require.Error(t, err)
}

func TestResolvePreferShortest(t *testing.T) {
	r, _ := fixtureResolver(t)

	res, err := r.Resolve("assumed friend infantry", Options{PreferShortest: true})
	require.NoError(t, err)
	assert.Equal(t, "friend", res.Symbol.Affiliation.Name())
	assert.Equal(t, "infantry", res.Symbol.Entity.Name())
	assert.Equal(t, "assumed", res.Remainder)

	for _, pr := range res.Trace {
		if pr.Phase == PhaseAffiliation {
			assert.Equal(t, "friend", pr.Name)
			assert.Equal(t, "assumed infantry", pr.Remainder)
		}
	}
}

func TestResolveDescribeRoundTrip(t *testing.T) {
	r, s := fixtureResolver(t)

	for _, code := range []string{
		"130310000012110300000000000000",
		"130610001512110000000000000000",
		"130130006114000000000000000000",
		"130601000011010001010000000000",
	} {
		t.Run(code, func(t *testing.T) {
			sym, err := symbol.Decode(s, code, nil)
			require.NoError(t, err)
			res, err := r.Resolve(sym.Describe(), Options{})
			require.NoError(t, err)
			assert.Equal(t, code, res.Symbol.Code(), "description %q", sym.Describe())
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	r, _ := fixtureResolver(t)

	first, err := r.Resolve("hostile infantry airborne reinforced company", Options{})
	require.NoError(t, err)
	for range 20 {
		again, err := r.Resolve("hostile infantry airborne reinforced company", Options{})
		require.NoError(t, err)
		assert.Equal(t, first.Symbol.Code(), again.Symbol.Code())
		assert.Equal(t, first.Remainder, again.Remainder)
	}
}

func TestResolveConcurrent(t *testing.T) {
	r, _ := fixtureResolver(t)

	inputs := map[string]string{
		"friendly infantry platoon":         "130310000012110300000000000000",
		"naval artillery":                   "130130006114000000000000000000",
		"hostile fixed-wing attack heavy":   "130601000011010001010000000000",
		"military base [land installation]": "130120000011000000000000000000",
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 16 {
		for input, want := range inputs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := r.Resolve(input, Options{})
				if err != nil {
					errs <- err
					return
				}
				if got := res.Symbol.Code(); got != want {
					errs <- fmt.Errorf("worker %d: %q = %s, want %s", i, input, got, want)
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestExtractTags(t *testing.T) {
	tests := []struct {
		in   string
		text string
		tags []string
	}{
		{in: "military base", text: "military base"},
		{in: "military base [land installation]", text: "military base", tags: []string{"land installation"}},
		{in: "[air] fighter [ sea surface ]", text: "fighter", tags: []string{"air", "sea surface"}},
		{in: "empty [] tag", text: "empty tag"},
		{in: "open [bracket", text: "open [bracket"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			text, tags := extractTags(tt.in)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.tags, tags)
		})
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "prerun amplifier", PhasePrerunAmplifier.String())
	assert.Equal(t, "modifier 2", PhaseModifier2.String())
	assert.Equal(t, "unknown", Phase(0).String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestRecordLogsKeyTieBreak(t *testing.T) {
	_, s := fixtureResolver(t)
	core, logs := observer.New(zapcore.DebugLevel)
	st := &state{logger: zap.New(core)}

	st.record(PhaseResult{Phase: PhaseAffiliation, Matched: s.Affiliation("3"), Name: "friend", TiedWith: "friendly"})
	st.record(PhaseResult{Phase: PhaseStatus, Matched: s.Status("1"), Name: "planned"})

	require.Len(t, st.trace, 2)
	ties := logs.FilterMessage("match key tie-break").All()
	require.Len(t, ties, 1)
	assert.Equal(t, zapcore.DebugLevel, ties[0].Level)
	fields := ties[0].ContextMap()
	assert.Equal(t, "affiliation", fields["phase"])
	assert.Equal(t, "friend", fields["selected"])
	assert.Equal(t, "friendly", fields["runner up"])
}

func TestResolveEmptyTag(t *testing.T) {
	r, _ := fixtureResolver(t)

	res, err := r.Resolve("hostile [] infantry zebra", Options{})
	require.NoError(t, err)
	assert.Equal(t, "hostile", res.Symbol.Affiliation.Name())
	assert.Equal(t, "infantry", res.Symbol.Entity.Name())
	assert.Equal(t, "zebra", res.Remainder)
	assert.NotContains(t, res.Remainder, "[")
}
