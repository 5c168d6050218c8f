package molecule

import (
	"testing"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carbonDioxide() *Graph {
	g, _ := NewGraph([]Atom{
		atomAt("O", 8.84, 10, 10),
		atomAt("C", 10, 10, 10),
		atomAt("O", 11.16, 10, 10),
	}, nil)
	return g
}

func TestElementLookups(t *testing.T) {
	assert.Equal(t, "#FF0D0D", ElementColor("O").Hex())
	assert.Equal(t, "#1FF01F", ElementColor("CL").Hex())
	assert.Equal(t, defaultColor, ElementColor("Xx"))

	assert.InDelta(t, 1.52*0.3, ElementRadius("O", BallStick), 1e-12)
	assert.InDelta(t, 1.52, ElementRadius("o", SpaceFill), 1e-12)
	assert.Greater(t, ElementRadius("C", SpaceFill), ElementRadius("C", BallStick))
	assert.Zero(t, ElementRadius("C", Wireframe))
	assert.InDelta(t, defaultVDW, ElementRadius("Xx", SpaceFill), 1e-12)
}

func TestBuildScene(t *testing.T) {
	g := carbonDioxide()
	require.Len(t, g.Bonds, 2)

	s := BuildScene(g, BallStick)
	require.Len(t, s.Spheres, 3)
	require.Len(t, s.Cylinders, 2)

	c := Centroid(s.sphereAtoms())
	assert.InDelta(t, 0, c.X, 1e-9)
	assert.InDelta(t, 0, c.Y, 1e-9)

	bond := s.Cylinders[0]
	assert.Equal(t, "#FF0D0D", bond.StartColor)
	assert.Equal(t, "#909090", bond.EndColor)
	assert.InDelta(t, 1.16, bond.Length, 1e-9)
	assert.Greater(t, s.BoundingRadius, 0.0)

	wire := BuildScene(g, Wireframe)
	assert.Empty(t, wire.Spheres)
	assert.Len(t, wire.Cylinders, 2)
	assert.Less(t, wire.Cylinders[0].Radius, bond.Radius)
}

func (s *Scene) sphereAtoms() []Atom {
	out := make([]Atom, len(s.Spheres))
	for i, sp := range s.Spheres {
		out[i] = Atom{Element: sp.Element, Position: sp.Center}
	}
	return out
}

func TestPalette_Overrides(t *testing.T) {
	p, err := ParsePalette([]byte(`
colors:
  c: "#112233"
radii:
  C: 2.0
fallback: "000000"
`))
	require.NoError(t, err)

	assert.Equal(t, "#112233", p.Color("C").Hex())
	assert.Equal(t, "#FF0D0D", p.Color("O").Hex())
	assert.Equal(t, "#000000", p.Color("Xx").Hex())
	assert.InDelta(t, 2.0, p.Radius("C", SpaceFill), 1e-12)
	assert.InDelta(t, 0.6, p.Radius("C", BallStick), 1e-12)

	_, err = ParsePalette([]byte("colors:\n  C: \"#12\"\n"))
	assert.ErrorIs(t, err, code.ParamErr)
	_, err = ParsePalette([]byte("radii:\n  C: -1\n"))
	assert.ErrorIs(t, err, code.ParamErr)
}

func TestFormula(t *testing.T) {
	assert.Equal(t, "CO2", Formula(carbonDioxide().Atoms))
	assert.Equal(t, "H2O", Formula([]Atom{{Element: "H"}, {Element: "O"}, {Element: "H"}}))
	assert.Equal(t, "C2H6O", Formula([]Atom{
		{Element: "O"}, {Element: "C"}, {Element: "H"}, {Element: "C"},
		{Element: "H"}, {Element: "H"}, {Element: "H"}, {Element: "H"}, {Element: "H"},
	}))
	assert.Equal(t, "CClO", Formula([]Atom{{Element: "O"}, {Element: "Cl"}, {Element: "C"}}))
	assert.Equal(t, "", Formula(nil))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("Space-Fill")
	assert.True(t, ok)
	assert.Equal(t, SpaceFill, m)
	m, ok = ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, BallStick, m)
	_, ok = ParseMode("cartoon")
	assert.False(t, ok)
}
