package loader

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	symerrors "github.com/jacoelho/milsym/errors"
	"github.com/jacoelho/milsym/internal/fixture"
)

const minimalConstants = `
contexts:
  "0": {names: [reality]}
color modes: [light]
affiliations:
  "1": {names: [unknown], colors: {light: yellow}}
  "3": {names: [friend], colors: {light: blue}}
frame shapes:
  "1": {names: [land], frames: {friend: [rect]}}
dimensions:
  land: {frame shape: "1"}
`

const minimalSet = `
set: "10"
name: land unit
dimension: land
entities:
  "12":
    names: [movement and maneuver]
    entity types:
      "11": infantry
`

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

func TestLoadFixture(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := Load(Config{FS: fixture.Schema(), Logger: zap.New(core)})
	require.NoError(t, err)

	assert.Equal(t, "13", s.Version())
	assert.Len(t, s.Contexts(), 3)
	assert.Len(t, s.Affiliations(), 7)
	assert.Len(t, s.SymbolSets(), 5)
	assert.Equal(t, []string{"light", "medium", "dark", "unfilled"}, s.ColorModes())

	land := s.SymbolSet("10")
	require.NotNil(t, land)
	assert.Equal(t, "land unit", land.Name())
	assert.Equal(t, 2.0, land.MatchWeight())
	assert.Equal(t, "infantry platoon", land.Entity("121103").Name())
	assert.Equal(t, []string{"mechanized infantry", "armored infantry"}, land.Entity("121102").Names())
	assert.Equal(t, "medical treatment facility", land.Entity("163401").Name())
	assert.False(t, land.Entity("163401").Civilian())
	assert.True(t, land.Entity("163400").Civilian())
	assert.Equal(t, []string{"sustainment", "medical"}, land.Entity("163400").ModifierCategories())

	installation := s.FrameShape("4")
	require.NotNil(t, installation)
	assert.Len(t, installation.Frame(s.Affiliation("3")), 2)
	assert.Len(t, installation.Frame(s.Affiliation("4")), 1)
	assert.Equal(t, [2]float64{0, -22}, installation.AmplifierOffset(s.Affiliation("5")).Top)

	assert.True(t, s.Amplifier("71").AppliesToSymbolSet(s.SymbolSet("01")))
	assert.True(t, s.Amplifier("61").Prerun())
	assert.True(t, s.Status("1").Dashed())
	assert.True(t, s.Status("4").Variant())
	assert.False(t, s.Status("1").Variant())
	assert.Equal(t, "6", s.HQTFD("6").ID())
	assert.True(t, s.HQTFD("6").Headquarters() && s.HQTFD("6").TaskForce())

	common := s.CommonSymbolSets()
	require.Len(t, common, 1)
	assert.Equal(t, "C0", common[0].ID())
	assert.False(t, common[0].Matchable())

	ignored := logs.FilterMessage("utility entity ignored").All()
	require.Len(t, ignored, 1)
	assert.Equal(t, zapcore.DebugLevel, ignored[0].Level)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 5, logs.FilterMessage("symbol set loaded").Len())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		code   symerrors.ErrorCode
		source string
	}{
		{
			name:  "no constants",
			files: map[string]string{"land.yaml": minimalSet},
			code:  symerrors.ErrMissingSection,
		},
		{
			name:   "missing dimensions",
			files:  map[string]string{"constants.yaml": "contexts: {}\naffiliations: {}\ncolor modes: []\nframe shapes: {}\n"},
			code:   symerrors.ErrMissingSection,
			source: "constants.yaml",
		},
		{
			name:   "malformed constants",
			files:  map[string]string{"constants.yaml": "contexts: [unterminated"},
			code:   symerrors.ErrMalformedDocument,
			source: "constants.yaml",
		},
		{
			name:   "bad status id",
			files:  map[string]string{"constants.yaml": minimalConstants + "\nstatuses:\n  \"12\": {names: [planned]}\n"},
			code:   symerrors.ErrInvalidCode,
			source: "constants.yaml",
		},
		{
			name:   "set without id",
			files:  map[string]string{"constants.yaml": minimalConstants, "land.yaml": "names: [land unit]\ndimension: land\n"},
			code:   symerrors.ErrMissingSection,
			source: "land.yaml",
		},
		{
			name:   "dangling dimension",
			files:  map[string]string{"constants.yaml": minimalConstants, "air.yaml": "set: \"01\"\nnames: [air]\ndimension: air\n"},
			code:   symerrors.ErrDanglingReference,
			source: "air.yaml",
		},
		{
			name:   "bad entity key",
			files:  map[string]string{"constants.yaml": minimalConstants, "land.yaml": minimalSet + "  \"1X\": fires\n"},
			code:   symerrors.ErrInvalidCode,
			source: "land.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(Config{FS: mapFS(tt.files)})
			require.Error(t, err)
			assert.Nil(t, s)
			le, ok := symerrors.AsLoadError(err)
			require.True(t, ok, "error %v is not a LoadError", err)
			assert.Equal(t, tt.code, le.Code, "error: %v", err)
			if tt.source != "" {
				assert.Equal(t, tt.source, le.Source)
			}
		})
	}
}

func TestLoadCustomLayout(t *testing.T) {
	fsys := mapFS(map[string]string{
		"data/base.yml":               minimalConstants,
		"data/sets/ground/land.yaml":  minimalSet,
		"data/sets/notes.txt":         "ignored",
		"data/templates/default.yaml": "not: a set",
	})
	s, err := Load(Config{
		FS:               fsys,
		Root:             "data",
		ConstantsFile:    "base.yml",
		SymbolSetPattern: "sets/**/*.{yaml,yml}",
	})
	require.NoError(t, err)
	require.NotNil(t, s.SymbolSet("10"))
	assert.Equal(t, "infantry", s.SymbolSet("10").Entity("121100").Name())
	assert.Equal(t, "1", s.UnknownAffiliation().ID())
}

func TestLoadInvalidPattern(t *testing.T) {
	_, err := Load(Config{FS: mapFS(map[string]string{"constants.yaml": minimalConstants}), SymbolSetPattern: "[a-"})
	require.Error(t, err)
}

func TestLoadNilFS(t *testing.T) {
	_, err := Load(Config{})
	require.Error(t, err)
}
