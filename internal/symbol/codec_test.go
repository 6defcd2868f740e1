package symbol

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/schema"
)

func TestDecodeAllZero(t *testing.T) {
	s := fixtureSchema(t)
	sym, err := Decode(s, "13"+strings.Repeat("0", 18), nil)
	require.NoError(t, err)

	want := &Symbol{
		Version:     "13",
		Context:     s.DefaultContext(),
		Affiliation: s.Affiliation("0"),
	}
	if diff := cmp.Diff(want, sym, identity); diff != "" {
		t.Fatalf("Decode() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "13"+strings.Repeat("0", 28), sym.Code())
}

func TestDecodeAffiliationDigit(t *testing.T) {
	s := fixtureSchema(t)

	tests := []struct {
		code   string
		want   string
		logged int
	}{
		{code: "13001000001211000000", want: "0"},
		{code: "13011000001211000000", want: "1"},
		{code: "13051000001211000000", want: "5"},
		{code: "130F1000001211000000", want: "1", logged: 1},
		{code: "13091000001211000000", want: "1", logged: 1},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			sym, err := Decode(s, tt.code, zap.New(core))
			require.NoError(t, err)
			assert.Same(t, s.Affiliation(tt.want), sym.Affiliation)
			assert.Equal(t, tt.logged, logs.FilterMessage("field fallback").Len())
		})
	}

	pending, err := Decode(s, "13001000001211000000", nil)
	require.NoError(t, err)
	assert.True(t, pending.IsFrameDashed())
	assert.Equal(t, "130010000012110000000000000000", pending.Code())
}

func TestDecodeErrors(t *testing.T) {
	s := fixtureSchema(t)

	_, err := Decode(s, "13-0-3-10-0-0-00-1211", nil)
	de, ok := symerrors.AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, symerrors.ErrCodeTooShort, de.Code)

	_, err = Decode(nil, "130310000012110000000000000000", nil)
	assert.True(t, symerrors.HasCode(err, symerrors.ErrSchemaNotLoaded))
}

func TestCodeRoundTripPerField(t *testing.T) {
	s := fixtureSchema(t)
	land := s.SymbolSet("10")
	common := s.SymbolSet("C0")

	tests := []struct {
		name string
		set  func(*Symbol)
	}{
		{name: "context", set: func(sym *Symbol) { sym.Context = s.Context("1") }},
		{name: "affiliation", set: func(sym *Symbol) { sym.Affiliation = s.Affiliation("6") }},
		{name: "symbol set", set: func(sym *Symbol) { sym.SymbolSet = s.SymbolSet("30") }},
		{name: "status", set: func(sym *Symbol) { sym.Status = s.Status("4") }},
		{name: "hqtfd", set: func(sym *Symbol) { sym.HQTFD = s.HQTFD("2") }},
		{name: "amplifier", set: func(sym *Symbol) { sym.Amplifier = s.Amplifier("71") }},
		{name: "common modifier 1", set: func(sym *Symbol) { sym.Modifier1 = common.Modifier(1, "102") }},
		{name: "common modifier 2", set: func(sym *Symbol) { sym.Modifier2 = common.Modifier(2, "101") }},
		{name: "frame shape override", set: func(sym *Symbol) { sym.FrameShapeOverride = s.FrameShape("3") }},
		{name: "entity", set: func(sym *Symbol) {
			sym.SymbolSet = land
			sym.Entity = land.Entity("121102")
		}},
		{name: "set modifiers", set: func(sym *Symbol) {
			sym.SymbolSet = land
			sym.Entity = land.Entity("121100")
			sym.Modifier1 = land.Modifier(1, "10")
			sym.Modifier2 = land.Modifier(2, "02")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym := &Symbol{Version: "13", Context: s.DefaultContext(), Affiliation: s.UnknownAffiliation()}
			tt.set(sym)
			code := sym.Code()
			require.Len(t, code, CodeLength)

			got, err := Decode(s, code, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(sym, got, identity); diff != "" {
				t.Fatalf("Decode(%s) mismatch (-want +got):\n%s", code, diff)
			}
		})
	}
}

func TestDecodeEntityFallbackChain(t *testing.T) {
	s := fixtureSchema(t)
	tests := []struct {
		entity string
		want   string
	}{
		{entity: "121103", want: "121103"},
		{entity: "121199", want: "121100"},
		{entity: "129900", want: "120000"},
		{entity: "129999", want: "120000"},
		{entity: "163499", want: "163400"},
		{entity: "990000", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			sym, err := Decode(s, "1303100000"+tt.entity+"0000", nil)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, sym.Entity)
				return
			}
			require.NotNil(t, sym.Entity)
			assert.Equal(t, tt.want, sym.Entity.Code())
			assert.Same(t, sym.SymbolSet, sym.Entity.Set())
		})
	}
}

func TestDecodeSeparatorsAndCase(t *testing.T) {
	s := fixtureSchema(t)
	compact, err := Decode(s, "130310000012110000000000000000", nil)
	require.NoError(t, err)
	spaced, err := Decode(s, " 13-0-3-10 0 0 00 121100 00 00 ", nil)
	require.NoError(t, err)
	if diff := cmp.Diff(compact, spaced, identity); diff != "" {
		t.Fatalf("separators changed the decode (-compact +spaced):\n%s", diff)
	}

	lower, err := Decode(s, "1303c0000000000000000", nil)
	require.NoError(t, err)
	assert.Same(t, s.SymbolSet("C0"), lower.SymbolSet)
}

func TestDecodeCommonModifiers(t *testing.T) {
	s := fixtureSchema(t)
	const code = "130610000012110001011000000000"
	sym, err := Decode(s, code, nil)
	require.NoError(t, err)

	require.NotNil(t, sym.Modifier1)
	assert.Equal(t, "reinforced", sym.Modifier1.Name())
	assert.Equal(t, "101", sym.Modifier1.ID())
	require.NotNil(t, sym.Modifier2)
	assert.Equal(t, "airborne", sym.Modifier2.Name())
	assert.Same(t, s.SymbolSet("10"), sym.Modifier2.Set())
	assert.NoError(t, sym.Validate())
	assert.Equal(t, code, sym.Code())

	// A flag naming no common modifier leaves the slot empty.
	sym, err = Decode(s, "1306100000121100010199", nil)
	require.NoError(t, err)
	assert.Nil(t, sym.Modifier1)
	assert.Nil(t, sym.Modifier2)
}

func TestDecodeApplicability(t *testing.T) {
	s := fixtureSchema(t)
	tests := []struct {
		name          string
		code          string
		wantHQTFD     string
		wantAmplifier string
	}{
		{name: "applicable", code: "13031001151211000000", wantHQTFD: "1", wantAmplifier: "15"},
		{name: "amplifier for another dimension", code: "13031000611211000000", wantAmplifier: ""},
		{name: "amplifier for all", code: "13030100711101000000", wantAmplifier: "71"},
		{name: "hqtfd limited to land units", code: "13030101001101000000", wantHQTFD: ""},
		{name: "hqtfd for every set", code: "13030102001101000000", wantHQTFD: "2"},
		{name: "unknown set keeps indicators", code: "13039902610000000000", wantHQTFD: "2", wantAmplifier: "61"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := Decode(s, tt.code, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHQTFD, idOr(sym.HQTFD, 0))
			assert.Equal(t, tt.wantAmplifier, idOr(sym.Amplifier, 0))
		})
	}
}

func TestDecodeFrameShapeOverride(t *testing.T) {
	s := fixtureSchema(t)
	sym, err := Decode(s, "1303100000121100000000400000", nil)
	require.NoError(t, err)
	assert.Same(t, s.FrameShape("4"), sym.FrameShapeOverride)
	assert.Same(t, s.FrameShape("4"), sym.FrameShape())

	sym, err = Decode(s, "13031000001211000000", nil)
	require.NoError(t, err)
	assert.Nil(t, sym.FrameShapeOverride)
	assert.Same(t, s.FrameShape("1"), sym.FrameShape())
}

func TestDecodeLogsFallbacks(t *testing.T) {
	s := fixtureSchema(t)
	core, logs := observer.New(zapcore.DebugLevel)
	sym, err := Decode(s, "13FF1090001211990000", zap.New(core))
	require.NoError(t, err)

	assert.Same(t, s.DefaultContext(), sym.Context)
	assert.Same(t, s.UnknownAffiliation(), sym.Affiliation)
	assert.Nil(t, sym.Status)
	assert.Equal(t, "121100", sym.Entity.Code())

	fallbacks := logs.FilterMessage("field fallback").All()
	var fields []string
	for _, entry := range fallbacks {
		fields = append(fields, entry.ContextMap()["field"].(string))
	}
	assert.Equal(t, []string{"context", "affiliation", "status"}, fields)
	assert.Equal(t, 1, logs.FilterMessage("entity fallback").Len())
}

func TestCodeDefaultsVersion(t *testing.T) {
	sym := &Symbol{}
	assert.Equal(t, schema.DefaultVersion+strings.Repeat("0", CodeLength-2), sym.Code())
}
