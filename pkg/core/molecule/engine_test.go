package molecule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineDefaults(t *testing.T) {
	e, err := NewEngine(&EngineConfig{})
	require.NoError(t, err)
	assert.Equal(t, DistanceRule(BondingThreshold), e.Rule)
	assert.Equal(t, BallStick, e.Mode)
	assert.Same(t, DefaultPalette, e.Palette)
}

func TestNewEngineRejectsUnknown(t *testing.T) {
	_, err := NewEngine(&EngineConfig{BondRule: "magic"})
	assert.ErrorIs(t, err, code.ParamErr)

	_, err = NewEngine(&EngineConfig{DefaultMode: "cartoon"})
	assert.ErrorIs(t, err, code.ParamErr)
}

func TestEngineCovalentRule(t *testing.T) {
	e, err := NewEngine(&EngineConfig{BondRule: "covalent", BondTolerance: 0.45, DefaultMode: "wireframe"})
	require.NoError(t, err)

	// H-H at 1.52 is under the uniform threshold but far beyond covalent range.
	atoms := []Atom{
		{Element: "O", Position: Vec3{0, 0, 0}},
		{Element: "H", Position: Vec3{0.96, 0, 0}},
		{Element: "H", Position: Vec3{-0.24, 0.93, 0}},
	}
	g, err := e.Graph(atoms, nil)
	require.NoError(t, err)
	assert.Equal(t, []Bond{{First: 0, Second: 1, Order: 1}, {First: 0, Second: 2, Order: 1}}, g.Bonds)

	scene := e.Scene(g, "")
	assert.Equal(t, Wireframe, scene.Mode)
	assert.Empty(t, scene.Spheres)
	assert.Len(t, scene.Cylinders, 2)
}

func TestEnginePaletteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colors:\n  C: \"#111111\"\n"), 0o600))

	e, err := NewEngine(&EngineConfig{PalettePath: path})
	require.NoError(t, err)
	assert.Equal(t, "#111111", e.Palette.Color("C").Hex())

	_, err = NewEngine(&EngineConfig{PalettePath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorIs(t, err, code.ParamErr)
}
