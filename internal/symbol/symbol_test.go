package symbol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/milsym/internal/fixture"
	"github.com/jacoelho/milsym/internal/loader"
	"github.com/jacoelho/milsym/internal/schema"
)

func fixtureSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := loader.Load(loader.Config{FS: fixture.Schema()})
	require.NoError(t, err)
	return s
}

// identity compares schema references by pointer, the way symbols share them.
var identity = cmp.Options{
	cmp.Comparer(func(a, b *schema.Context) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.Affiliation) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.SymbolSet) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.Status) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.HQTFD) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.Amplifier) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.Entity) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.Modifier) bool { return a == b }),
	cmp.Comparer(func(a, b *schema.FrameShape) bool { return a == b }),
}

func TestSymbolPredicates(t *testing.T) {
	s := fixtureSchema(t)
	land := s.SymbolSet("10")

	hq := &Symbol{HQTFD: s.HQTFD("6")}
	assert.True(t, hq.IsHeadquarters())
	assert.True(t, hq.IsTaskForce())
	assert.False(t, hq.IsDummy())
	assert.True(t, (&Symbol{HQTFD: s.HQTFD("1")}).IsDummy())
	assert.False(t, (&Symbol{}).IsHeadquarters())

	assert.True(t, (&Symbol{Affiliation: s.Affiliation("2")}).IsFrameDashed())
	assert.True(t, (&Symbol{Affiliation: s.Affiliation("3"), Status: s.Status("1")}).IsFrameDashed())
	assert.False(t, (&Symbol{Affiliation: s.Affiliation("3"), Status: s.Status("2")}).IsFrameDashed())

	medical := land.Entity("163400")
	assert.True(t, (&Symbol{Affiliation: s.Affiliation("3"), SymbolSet: land, Entity: medical}).IsCivilian())
	assert.False(t, (&Symbol{Affiliation: s.Affiliation("6"), SymbolSet: land, Entity: medical}).IsCivilian())
	assert.False(t, (&Symbol{Affiliation: s.Affiliation("5"), SymbolSet: land, Entity: medical}).IsCivilian(),
		"suspect borrows hostile colors")
	assert.False(t, (&Symbol{Affiliation: s.Affiliation("3"), SymbolSet: land, Entity: land.Entity("121100")}).IsCivilian())
}

func TestSymbolDimensionAndFrameShape(t *testing.T) {
	s := fixtureSchema(t)
	sym := &Symbol{SymbolSet: s.SymbolSet("20")}
	require.NotNil(t, sym.Dimension())
	assert.Equal(t, "land installation", sym.Dimension().ID())
	assert.Same(t, s.FrameShape("4"), sym.FrameShape())

	sym.FrameShapeOverride = s.FrameShape("2")
	assert.Same(t, s.FrameShape("2"), sym.FrameShape())

	empty := &Symbol{}
	assert.Nil(t, empty.Dimension())
	assert.Nil(t, empty.FrameShape())
}

func TestSymbolValidate(t *testing.T) {
	s := fixtureSchema(t)
	land := s.SymbolSet("10")
	air := s.SymbolSet("01")
	common := s.SymbolSet("C0")

	tests := []struct {
		name    string
		sym     *Symbol
		wantErr bool
	}{
		{
			name: "consistent",
			sym: &Symbol{
				SymbolSet: land,
				Entity:    land.Entity("121100"),
				Modifier1: common.Modifier(1, "101"),
				Modifier2: land.Modifier(2, "01"),
				Amplifier: s.Amplifier("15"),
				HQTFD:     s.HQTFD("1"),
			},
		},
		{name: "empty", sym: &Symbol{}},
		{name: "entity from another set", sym: &Symbol{SymbolSet: land, Entity: air.Entity("110100")}, wantErr: true},
		{name: "entity without set", sym: &Symbol{Entity: land.Entity("121100")}, wantErr: true},
		{name: "modifier in the wrong slot", sym: &Symbol{SymbolSet: land, Modifier2: land.Modifier(1, "05")}, wantErr: true},
		{name: "modifier from another set", sym: &Symbol{SymbolSet: land, Modifier1: air.Modifier(1, "01")}, wantErr: true},
		{name: "amplifier for another dimension", sym: &Symbol{SymbolSet: land, Amplifier: s.Amplifier("61")}, wantErr: true},
		{name: "amplifier for all", sym: &Symbol{SymbolSet: air, Amplifier: s.Amplifier("71")}},
		{name: "hqtfd limited to other sets", sym: &Symbol{SymbolSet: air, HQTFD: s.HQTFD("1")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sym.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSymbolDescribe(t *testing.T) {
	s := fixtureSchema(t)
	land := s.SymbolSet("10")
	sym := &Symbol{
		Context:     s.Context("0"),
		Affiliation: s.Affiliation("3"),
		SymbolSet:   land,
		Status:      s.Status("1"),
		HQTFD:       s.HQTFD("2"),
		Amplifier:   s.Amplifier("15"),
		Entity:      land.Entity("121103"),
		Modifier2:   land.Modifier(2, "01"),
	}
	assert.Equal(t, "friend planned infantry platoon airborne company headquarters", sym.Describe())
	assert.Equal(t, "", (&Symbol{}).Describe())
	assert.Equal(t, "130310121512110300010000000000 "+sym.Describe(), sym.String())
}

func TestSymbolClone(t *testing.T) {
	s := fixtureSchema(t)
	orig := &Symbol{Affiliation: s.Affiliation("3"), SymbolSet: s.SymbolSet("10")}
	cp := orig.Clone()
	require.NotSame(t, orig, cp)
	if diff := cmp.Diff(orig, cp, identity); diff != "" {
		t.Fatalf("Clone() mismatch (-want +got):\n%s", diff)
	}
	cp.Affiliation = s.Affiliation("6")
	assert.Equal(t, "3", orig.Affiliation.ID())
	assert.Nil(t, (*Symbol)(nil).Clone())
}

func TestSymbolCopyFields(t *testing.T) {
	s := fixtureSchema(t)
	land := s.SymbolSet("10")
	src := &Symbol{
		Affiliation: s.Affiliation("6"),
		SymbolSet:   land,
		Entity:      land.Entity("121100"),
		Status:      s.Status("2"),
	}
	dst := &Symbol{Affiliation: s.Affiliation("3"), Status: s.Status("4")}
	dst.CopyFields(src, FieldSymbolSet|FieldEntity|FieldStatus)

	want := &Symbol{
		Affiliation: s.Affiliation("3"),
		SymbolSet:   land,
		Entity:      land.Entity("121100"),
		Status:      s.Status("2"),
	}
	if diff := cmp.Diff(want, dst, identity); diff != "" {
		t.Fatalf("CopyFields() mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldLayout(t *testing.T) {
	seg, ok := SegmentOf(FieldEntity)
	require.True(t, ok)
	assert.Equal(t, Segment{Field: FieldEntity, Name: "entity", Start: 10, Width: 6}, seg)
	assert.Equal(t, 16, seg.End())

	_, ok = SegmentOf(FieldEntity | FieldStatus)
	assert.False(t, ok)
	_, ok = SegmentOf(FieldNone)
	assert.False(t, ok)

	f, ok := FieldByName("Symbol Set")
	require.True(t, ok)
	assert.Equal(t, FieldSymbolSet, f)
	_, ok = FieldByName("echelon")
	assert.False(t, ok)

	mask := FieldAffiliation | FieldModifier2
	assert.True(t, mask.Has(FieldAffiliation))
	assert.False(t, mask.Has(FieldAffiliation|FieldEntity))
	assert.Equal(t, []Field{FieldAffiliation, FieldModifier2}, mask.Fields())
	assert.Equal(t, "affiliation|modifier 2", mask.String())
	assert.Equal(t, "none", FieldNone.String())
	assert.Len(t, FieldAll.Fields(), len(Segments()))

	end := VersionWidth
	for _, seg := range Segments()[:9] {
		assert.Equal(t, end, seg.Start, seg.Name)
		end = seg.End()
	}
	assert.Equal(t, MinCodeLength, end)
}
